package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arlott/frigatemx/internal/config"
	"github.com/arlott/frigatemx/internal/discovery"
	"github.com/arlott/frigatemx/internal/dockerctl"
	"github.com/arlott/frigatemx/internal/frigateapi"
	"github.com/arlott/frigatemx/internal/frigateconf"
)

// Screen identifies the current wizard screen.
type Screen string

const (
	// ScreenDiscovery scans the network for cameras.
	ScreenDiscovery Screen = "discovery"
	// ScreenCameras edits the camera set and saves the config.
	ScreenCameras Screen = "cameras"
	// ScreenDashboard manages the container and tails its logs.
	ScreenDashboard Screen = "dashboard"
	// ScreenSuccess confirms a saved configuration.
	ScreenSuccess Screen = "success"
	// ScreenFailure reports an error with recovery options.
	ScreenFailure Screen = "failure"
)

// screenTransitionMsg requests a switch to another screen.
type screenTransitionMsg struct {
	screen Screen
	data   interface{}
}

// resultKeyMap drives the menus on the success and failure screens.
type resultKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

func newResultKeyMap() resultKeyMap {
	return resultKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k resultKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Quit}
}

func (k resultKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Enter, k.Quit}}
}

// AppModel coordinates the wizard screens. Each screen is its own model;
// AppModel routes messages to the active one and watches its flags to
// decide when to move on.
type AppModel struct {
	CurrentScreen  Screen
	PreviousScreen Screen

	Discovery DiscoveryModel
	Cameras   CamerasModel
	Dashboard DashboardModel

	// Shared dependencies handed to screens as they are created.
	Store    *frigateconf.Store
	Settings *config.Settings
	Runner   *dockerctl.Runner
	API      *frigateapi.Client
	Registry *discovery.Registry

	// Outcome of the last save, shown by the success screen.
	Outcome *SaveOutcome

	// Failure context for the failure screen.
	FailureErr    error
	FailureAction string

	MenuCursor int

	Help help.Model
	Keys resultKeyMap

	Width  int
	Height int
}

// NewAppModel creates the wizard starting on the discovery screen.
func NewAppModel(store *frigateconf.Store, settings *config.Settings, runner *dockerctl.Runner, api *frigateapi.Client, registry *discovery.Registry) AppModel {
	return AppModel{
		CurrentScreen: ScreenDiscovery,
		Discovery:     NewDiscoveryModel(registry, settings.Discovery.Timeout, settings.Discovery.EnableMDNS),
		Store:         store,
		Settings:      settings,
		Runner:        runner,
		API:           api,
		Registry:      registry,
		Help:          help.New(),
		Keys:          newResultKeyMap(),
		Width:         MinTerminalWidth,
		Height:        24,
	}
}

// Run starts the wizard and blocks until it exits.
func Run(store *frigateconf.Store, settings *config.Settings, runner *dockerctl.Runner, api *frigateapi.Client, registry *discovery.Registry) error {
	p := tea.NewProgram(
		NewAppModel(store, settings, runner, api, registry),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

// Init starts the first screen.
func (m AppModel) Init() tea.Cmd {
	return m.Discovery.Init()
}

// Update routes messages to the active screen and handles transitions.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Dashboard.Close()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Every screen tracks the terminal size so transitions render
		// correctly without waiting for the next resize.
		if model, _ := m.Discovery.Update(msg); model != nil {
			if dm, ok := model.(DiscoveryModel); ok {
				m.Discovery = dm
			}
		}
		if m.Cameras.Initialized {
			m.Cameras, _ = m.Cameras.Update(msg)
		}
		if m.Dashboard.Runner != nil {
			m.Dashboard, _ = m.Dashboard.Update(msg)
		}
		return m, nil

	case screenTransitionMsg:
		return m.transitionTo(msg.screen, msg.data)
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen forwards a message to the active screen model and
// reacts to the flags it raises.
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		model, cmd := m.Discovery.Update(msg)
		if dm, ok := model.(DiscoveryModel); ok {
			m.Discovery = dm
		}
		if m.Discovery.Selected {
			m.Discovery.Selected = false
			cam := m.Discovery.GetSelectedCamera()
			return m.transitionTo(ScreenCameras, cam)
		}
		if m.Discovery.Skipped {
			m.Discovery.Skipped = false
			return m.transitionTo(ScreenCameras, nil)
		}
		return m, cmd

	case ScreenCameras:
		var cmd tea.Cmd
		m.Cameras, cmd = m.Cameras.Update(msg)
		if m.Cameras.Saved != nil {
			m.Outcome = m.Cameras.Saved
			// The next visit reloads the editor from the saved file so
			// forms start from the on-disk truth again.
			m.Cameras = CamerasModel{}
			return m.transitionTo(ScreenSuccess, nil)
		}
		if m.Cameras.FatalErr != nil {
			m.FailureErr = m.Cameras.FatalErr
			m.FailureAction = "Saving the configuration"
			m.Cameras.FatalErr = nil
			return m.transitionTo(ScreenFailure, nil)
		}
		if m.Cameras.BackRequested {
			m.Cameras.BackRequested = false
			return m.transitionTo(ScreenDiscovery, nil)
		}
		return m, cmd

	case ScreenDashboard:
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		if m.Dashboard.BackRequested {
			m.Dashboard.BackRequested = false
			return m.transitionTo(ScreenCameras, nil)
		}
		return m, cmd

	case ScreenSuccess:
		return m.updateSuccessScreen(msg)

	case ScreenFailure:
		return m.updateFailureScreen(msg)
	}

	return m, nil
}

// transitionTo switches screens, creating models on demand. The cameras
// screen is kept across visits while unsaved edits exist; discovery and
// the dashboard start fresh each time.
func (m AppModel) transitionTo(screen Screen, data interface{}) (tea.Model, tea.Cmd) {
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = screen
	m.MenuCursor = 0

	size := tea.WindowSizeMsg{Width: m.Width, Height: m.Height}

	switch screen {
	case ScreenDiscovery:
		m.Discovery = NewDiscoveryModel(m.Registry, m.Settings.Discovery.Timeout, m.Settings.Discovery.EnableMDNS)
		if model, _ := m.Discovery.Update(size); model != nil {
			if dm, ok := model.(DiscoveryModel); ok {
				m.Discovery = dm
			}
		}
		return m, m.Discovery.Init()

	case ScreenCameras:
		var initCmd tea.Cmd
		if !m.Cameras.Initialized {
			doc, report, err := m.Store.Load()
			if err != nil && !isNotFound(err) {
				m.FailureErr = err
				m.FailureAction = "Loading the configuration"
				m.CurrentScreen = ScreenFailure
				return m, nil
			}
			m.Cameras = NewCamerasModel(m.Store, doc, report, m.Settings.Discovery.DefaultUsername)
			initCmd = m.Cameras.Init()
		}
		m.Cameras, _ = m.Cameras.Update(size)
		if cam, ok := data.(*discovery.Camera); ok && cam != nil {
			m.Cameras.AddDiscovered(cam)
		}
		return m, initCmd

	case ScreenDashboard:
		m.Dashboard = NewDashboardModel(m.Runner, m.API)
		m.Dashboard, _ = m.Dashboard.Update(size)
		return m, m.Dashboard.Init()
	}

	return m, nil
}

// isNotFound reports whether the error is just a missing config file,
// which the editor treats as an empty starting point.
func isNotFound(err error) bool {
	var cfgErr *frigateconf.ConfigError
	return errors.As(err, &cfgErr) && cfgErr.Type == frigateconf.ErrTypeNotFound
}

// ============================================================================
// Success screen
// ============================================================================

var successMenuItems = []string{
	"Open the dashboard",
	"Back to the camera editor",
	"Quit",
}

func (m AppModel) updateSuccessScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.Keys.Up):
		if m.MenuCursor > 0 {
			m.MenuCursor--
		}
	case key.Matches(keyMsg, m.Keys.Down):
		if m.MenuCursor < len(successMenuItems)-1 {
			m.MenuCursor++
		}
	case key.Matches(keyMsg, m.Keys.Enter):
		switch m.MenuCursor {
		case 0:
			return m.transitionTo(ScreenDashboard, nil)
		case 1:
			return m.transitionTo(ScreenCameras, nil)
		case 2:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m AppModel) buildSuccessContent() string {
	var b strings.Builder

	b.WriteString(SuccessBoxStyle.Render("✓ CONFIGURATION SAVED"))
	b.WriteString("\n\n")

	if m.Outcome != nil {
		if m.Outcome.Created {
			b.WriteString("Created a starter config with the MemryX detector enabled.\n")
		}
		b.WriteString(fmt.Sprintf("Wrote %d camera(s) to %s:\n", len(m.Outcome.CameraNames), m.Outcome.Path))
		for _, name := range m.Outcome.CameraNames {
			b.WriteString("  • " + name + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(SubtitleStyle.Render("Restart the container so frigate picks up the new config."))
	b.WriteString("\n\n")
	b.WriteString("What next?\n\n")
	b.WriteString(renderMenu(successMenuItems, m.MenuCursor))

	return b.String()
}

// ============================================================================
// Failure screen
// ============================================================================

var failureMenuItems = []string{
	"Try again",
	"Back to the camera editor",
	"Quit",
}

func (m AppModel) updateFailureScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.Keys.Up):
		if m.MenuCursor > 0 {
			m.MenuCursor--
		}
	case key.Matches(keyMsg, m.Keys.Down):
		if m.MenuCursor < len(failureMenuItems)-1 {
			m.MenuCursor++
		}
	case key.Matches(keyMsg, m.Keys.Enter):
		switch m.MenuCursor {
		case 0:
			return m.retry()
		case 1:
			return m.transitionTo(ScreenCameras, nil)
		case 2:
			return m, tea.Quit
		}
	}
	return m, nil
}

// retry re-runs whatever failed. A failed save is dispatched again with
// the forms intact; a failed load goes back through the cameras
// transition, which loads again.
func (m AppModel) retry() (tea.Model, tea.Cmd) {
	m.FailureErr = nil
	if m.Cameras.Initialized {
		m.PreviousScreen = m.CurrentScreen
		m.CurrentScreen = ScreenCameras
		m.Cameras.ShowingSaving = true
		return m, tea.Batch(
			m.Cameras.Spinner.Tick,
			saveCameras(m.Cameras.Store, m.Cameras.Controller),
		)
	}
	return m.transitionTo(ScreenCameras, nil)
}

func (m AppModel) buildFailureContent() string {
	var b strings.Builder

	b.WriteString(ErrorBoxStyle.Render("✗ " + strings.ToUpper(m.FailureAction) + " FAILED"))
	b.WriteString("\n\n")

	if m.FailureErr != nil {
		b.WriteString(wrapModalText(m.FailureErr.Error(), 64))
		b.WriteString("\n\n")
	}

	b.WriteString(SubtitleStyle.Render("Troubleshooting:"))
	b.WriteString("\n")
	b.WriteString("  • Check that " + m.Store.Path() + " is writable\n")
	b.WriteString("  • Make sure the directory exists\n")
	b.WriteString("  • Run 'frigatemx-cfg config validate' to inspect the file\n")
	b.WriteString("\n")
	b.WriteString(renderMenu(failureMenuItems, m.MenuCursor))

	return b.String()
}

// renderMenu renders a vertical menu with the cursor on one item.
func renderMenu(items []string, cursor int) string {
	var b strings.Builder
	for i, item := range items {
		if i == cursor {
			b.WriteString(SelectedMenuItemStyle.Render("→ " + item))
		} else {
			b.WriteString(MenuItemStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the active screen.
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.Discovery.View()
	case ScreenCameras:
		return m.Cameras.View()
	case ScreenDashboard:
		return m.Dashboard.View()
	case ScreenSuccess:
		return RenderApplicationContainer(m.buildSuccessContent(), m.Help.View(m.Keys), m.Width, m.Height)
	case ScreenFailure:
		return RenderApplicationContainer(m.buildFailureContent(), m.Help.View(m.Keys), m.Width, m.Height)
	}
	return ""
}
