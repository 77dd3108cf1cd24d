// Package tui implements the interactive setup wizard for frigatemx.
//
// The wizard walks a user from an empty machine to a running Frigate
// container: scan the network for cameras, fill in credentials, write
// the config file, then manage the container from a dashboard.
//
// # Architecture
//
// The package follows the bubbletea Model-View-Update pattern. AppModel
// is the coordinator: it owns one model per screen, routes incoming
// messages to the active one, and watches the flags a screen raises
// (Selected, Skipped, BackRequested, Saved, FatalErr) to decide when to
// transition. Screens never reach into each other; everything they
// share arrives through the constructors.
//
// Screen flow:
//
//	discovery ──camera selected or skipped──▶ cameras ──saved──▶ success
//	    ▲                                       │  ▲               │
//	    └────────────esc────────────────────────┘  │           dashboard
//	                                                │               │
//	                                     failure ◀──write error     │
//	                                        └──retry────────────────┘
//
// # Screens
//
// DiscoveryModel probes the network for ONVIF cameras through
// discovery.Registry, which allows one scan at a time. Results render
// as bordered cards in a bubbles list; a manual IP form covers cameras
// that do not answer probes.
//
// CamerasModel edits the camera set. Each camera is a CameraForm, an
// explicit view-state struct addressed through the CameraController by
// a stable ID, so renames and deletions are never tied to a list
// position. The stream URL preview is recomputed from the address and
// credential fields on every render. Saving rebuilds only the forms
// that changed; untouched entries pass their original YAML through so
// hand-written keys survive.
//
// DashboardModel shows docker state, frigate runtime stats and a live
// log tail. A follower goroutine feeds log chunks into a channel and a
// self-re-arming command delivers them to the update loop one at a
// time, which is the bubbletea way to subscribe to an external stream.
//
// # Async work
//
// Nothing blocks in Update. Scans, saves, docker operations and stats
// polls all run as tea.Cmd functions that return a message when done:
//
//	scanDoneMsg       discovery finished or failed
//	camerasSavedMsg   config written, or why not
//	dashOpDoneMsg     container operation finished
//	dashLogMsg        one chunk of container output
//
// The update loop stays responsive while docker builds an image or a
// scan window runs out.
//
// # Layout
//
// Every screen renders through RenderApplicationContainer, which draws
// the application header, a bordered content area sized to the terminal
// and a footer with contextual key help. Modals (delete confirmation,
// save progress, save errors) render through RenderModal on top of a
// shaded backdrop. Styles live in styles.go; screens use the shared
// lipgloss styles rather than defining their own colors.
package tui
