package tui

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arlott/frigatemx/internal/discovery"
	"github.com/arlott/frigatemx/internal/frigateconf"
)

// scanBeganMsg stamps the moment a scan went out on the wire.
type scanBeganMsg time.Time

// scanDoneMsg carries the result of one discovery pass.
type scanDoneMsg struct {
	cameras []*discovery.Camera
	err     error
}

// keyGroup adapts a flat slice of bindings to the help.KeyMap interface,
// so each screen state can expose just the keys that work in it.
type keyGroup []key.Binding

func (g keyGroup) ShortHelp() []key.Binding  { return g }
func (g keyGroup) FullHelp() [][]key.Binding { return [][]key.Binding{g} }

func bind(display, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(display, desc))
}

// discoveryBindings holds every key the discovery screen understands.
// helpGroup picks the subset that applies to the current state.
type discoveryBindings struct {
	up      key.Binding
	down    key.Binding
	pick    key.Binding
	skip    key.Binding
	rescan  key.Binding
	manual  key.Binding
	quit    key.Binding
	confirm key.Binding
	cancel  key.Binding
}

func newDiscoveryBindings() discoveryBindings {
	return discoveryBindings{
		up:      bind("↑/k", "move up", "up", "k"),
		down:    bind("↓/j", "move down", "down", "j"),
		pick:    bind("enter", "add camera", "enter", " "),
		skip:    bind("c", "continue without camera", "c"),
		rescan:  bind("r", "rescan", "r"),
		manual:  bind("m", "manual IP", "m"),
		quit:    bind("q", "quit", "q", "esc"),
		confirm: bind("enter", "confirm", "enter"),
		cancel:  bind("esc", "cancel", "esc"),
	}
}

// cameraItem wraps a discovered Camera for use with bubbles/list.
type cameraItem struct {
	camera *discovery.Camera
}

// FilterValue lets the list filter by name, IP, or manufacturer.
func (c cameraItem) FilterValue() string {
	return strings.Join([]string{c.camera.Name, c.camera.IP, c.camera.Manufacturer}, " ")
}

func (c cameraItem) Title() string { return c.camera.Name }

func (c cameraItem) Description() string {
	return fmt.Sprintf("%s • %s • %s", c.camera.IP, c.camera.Manufacturer, c.camera.Status)
}

// cameraDelegate renders each camera as a bordered card.
type cameraDelegate struct {
	width int
}

func (d cameraDelegate) Height() int  { return 8 }
func (d cameraDelegate) Spacing() int { return 1 }

func (d cameraDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d cameraDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(cameraItem)
	if !ok {
		return
	}
	cam := entry.camera
	selected := index == m.Index()

	name := "  " + cam.Name
	if selected {
		name = SelectedMenuItemStyle.Render("→ " + cam.Name)
	}

	status := fg(SecondaryColor).Bold(true)
	if !cam.Identified() {
		status = fg(SubtleColor)
	}

	rows := []string{
		name,
		"",
		"  IP:           " + cam.IP,
		"  Manufacturer: " + cam.Manufacturer,
		"  Model:        " + cam.Model,
		"  Status:       " + status.Render(cam.Status.String()),
	}

	border := BorderColor
	if selected {
		border = HighlightColor
	}
	card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).
		Padding(1, 2).MarginLeft(2).Width(d.cardWidth())

	fmt.Fprint(w, card.Render(strings.Join(rows, "\n")))
}

// cardWidth clamps the card to the terminal bounds, leaving room for the
// left margin and the border.
func (d cameraDelegate) cardWidth() int {
	w := d.width - 6
	if w < MinTerminalWidth-6 {
		w = MinTerminalWidth - 6
	}
	if w > MaxContentWidth-6 {
		w = MaxContentWidth - 6
	}
	return w
}

// DiscoveryModel is the camera discovery screen. A scan starts as soon as
// the screen comes up; the user can rescan, type an IP by hand, or continue
// to the editor without picking anything.
type DiscoveryModel struct {
	// Selected and Skipped are read by the wizard to decide the next screen.
	Selected bool
	Skipped  bool

	registry   *discovery.Registry
	window     time.Duration
	enableMDNS bool

	scanning  bool
	scanBegan time.Time
	scanErr   error
	cameras   list.Model

	// The manual IP prompt is open exactly while addrInput has focus.
	addrInput textinput.Model
	addrErr   error

	width  int
	height int
	spin   spinner.Model
	bar    progress.Model
	help   help.Model
	keys   discoveryBindings
}

// NewDiscoveryModel builds the discovery screen. The registry enforces the
// one-scan-at-a-time rule; window and mdns come from the tool settings.
func NewDiscoveryModel(registry *discovery.Registry, window time.Duration, enableMDNS bool) DiscoveryModel {
	m := DiscoveryModel{
		registry:   registry,
		window:     window,
		enableMDNS: enableMDNS,
		scanning:   true,
		scanBegan:  time.Now(),
		keys:       newDiscoveryBindings(),
		help:       help.New(),
		spin:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
	}

	m.bar = progress.New(progress.WithDefaultGradient())
	m.bar.Width = 40

	m.addrInput = textinput.New()
	m.addrInput.Placeholder = "192.168.1.50"
	m.addrInput.CharLimit = 15 // dotted-quad IPv4
	m.addrInput.Width = 30

	m.cameras = list.New(nil, cameraDelegate{width: MinTerminalWidth}, 0, 0)
	m.cameras.Title = "Discovered Cameras"
	m.cameras.SetShowStatusBar(false)
	m.cameras.SetFilteringEnabled(true)
	m.cameras.Styles.Title = TitleStyle

	return m
}

func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(m.beginScan(), m.spin.Tick)
}

// beginScan kicks off one discovery pass and stamps the start time.
func (m DiscoveryModel) beginScan() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanBeganMsg(time.Now()) },
		runScan(m.registry, m.window, m.enableMDNS),
	)
}

func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.addrInput.Focused() {
			return m.handleManualKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.cameras.SetWidth(msg.Width - 4)
		m.cameras.SetHeight(msg.Height - 10) // header and footer rows
		m.cameras.SetDelegate(cameraDelegate{width: msg.Width})

	case scanBeganMsg:
		m.scanning = true
		m.scanBegan = time.Time(msg)
		return m, nil

	case scanDoneMsg:
		m.scanning = false
		m.scanErr = msg.err
		items := make([]list.Item, len(msg.cameras))
		for i, cam := range msg.cameras {
			items[i] = cameraItem{camera: cam}
		}
		m.cameras.SetItems(items)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if !m.scanning && !m.addrInput.Focused() {
		var cmd tea.Cmd
		m.cameras, cmd = m.cameras.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey handles keys while the camera list (or the scan) is showing.
func (m DiscoveryModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the user is typing a filter, every key belongs to the list.
	if m.cameras.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.cameras, cmd = m.cameras.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.pick):
		if !m.scanning && m.cameras.SelectedItem() != nil {
			m.Selected = true
		}
		return m, nil

	case key.Matches(msg, m.keys.skip):
		if !m.scanning {
			m.Skipped = true
		}
		return m, nil

	case key.Matches(msg, m.keys.rescan):
		if m.scanning {
			return m, nil
		}
		m.cameras.SetItems(nil)
		m.scanErr = nil
		return m, tea.Batch(m.beginScan(), m.spin.Tick)

	case key.Matches(msg, m.keys.manual):
		m.addrErr = nil
		m.addrInput.SetValue("")
		return m, m.addrInput.Focus()
	}

	if m.scanning {
		return m, nil
	}
	var cmd tea.Cmd
	m.cameras, cmd = m.cameras.Update(msg)
	return m, cmd
}

// handleManualKey handles keys while the manual IP prompt is open.
func (m DiscoveryModel) handleManualKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, m.keys.cancel):
		m.closeManualEntry()
		return m, nil

	case key.Matches(msg, m.keys.confirm):
		addr := strings.TrimSpace(m.addrInput.Value())
		if err := frigateconf.ValidateIPAddress(addr); err != nil {
			m.addrErr = err
			return m, nil
		}

		// Enrichment did not run for a manual entry, so the camera stays
		// Unknown until the form fills in the rest.
		item := cameraItem{camera: discovery.NewCamera(addr)}
		m.cameras.SetItems(append([]list.Item{item}, m.cameras.Items()...))
		m.cameras.Select(0)
		m.closeManualEntry()
		return m, nil
	}

	var cmd tea.Cmd
	m.addrInput, cmd = m.addrInput.Update(msg)
	return m, cmd
}

func (m *DiscoveryModel) closeManualEntry() {
	m.addrErr = nil
	m.addrInput.SetValue("")
	m.addrInput.Blur()
}

// helpGroup returns the bindings that work in the current state.
func (m DiscoveryModel) helpGroup() keyGroup {
	k := m.keys
	switch {
	case m.addrInput.Focused():
		return keyGroup{k.confirm, k.cancel}
	case m.scanning:
		return keyGroup{k.manual, k.quit}
	case len(m.cameras.Items()) == 0:
		return keyGroup{k.rescan, k.manual, k.skip, k.quit}
	default:
		return keyGroup{k.up, k.down, k.pick, k.skip, k.rescan, k.manual, k.quit}
	}
}

func (m DiscoveryModel) View() string {
	width := m.width
	if width == 0 {
		width = MinTerminalWidth
	}

	var body string
	switch {
	case m.addrInput.Focused():
		body = m.renderManualEntry()
	case m.scanning:
		body = m.renderScanning(width)
	default:
		body = m.renderResults()
	}

	return RenderApplicationContainer(body, m.help.View(m.helpGroup()), m.width, m.height)
}

// scanFraction maps elapsed time onto the expected scan duration. mDNS adds
// a tail so the bar never sits at 100% while work remains.
func (m DiscoveryModel) scanFraction(elapsed time.Duration) float64 {
	window := m.window
	if window <= 0 {
		window = discovery.DefaultScanWindow
	}
	if m.enableMDNS {
		window += discovery.DefaultMDNSTimeout
	}
	return math.Min(elapsed.Seconds()/window.Seconds(), 1)
}

func (m DiscoveryModel) renderScanning(width int) string {
	elapsed := time.Since(m.scanBegan)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.spin.View()+" SEARCHING FOR CAMERAS"),
		"",
		SubtitleStyle.Render("Probing your network for ONVIF cameras..."),
		"",
		m.bar.ViewAs(m.scanFraction(elapsed)),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))),
		"",
	)

	// Height 0 lets the content determine its own height.
	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m DiscoveryModel) renderResults() string {
	if m.scanErr != nil {
		return strings.Join([]string{
			"",
			RenderError(fmt.Sprintf("Scan failed: %v", m.scanErr)),
			"",
			"  Troubleshooting:",
			"    • Check this machine has a network connection",
			"    • Another scan may still be running (wait and press 'r')",
			"    • Use 'm' to enter a camera IP manually",
			"",
		}, "\n")
	}

	if len(m.cameras.Items()) == 0 {
		return strings.Join([]string{
			"",
			"  " + fg(WarningColor).Bold(true).Render("⚠ No cameras found on your network"),
			"",
			"  Troubleshooting:",
			"    • Ensure cameras are powered on and on the same subnet",
			"    • Enable ONVIF / WS-Discovery in the camera settings",
			"    • Some networks block multicast; use 'm' for manual IP",
			"    • Press 'r' to scan again",
			"",
		}, "\n")
	}

	return "\n" + m.cameras.View()
}

func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString(RenderSubtitle("Enter camera IP address"))
	b.WriteString("\n\n  IP Address: ")
	b.WriteString(m.addrInput.View())
	b.WriteString("\n")

	if m.addrErr != nil {
		b.WriteString("\n  ")
		b.WriteString(fg(ErrorColor).Render(fmt.Sprintf("✗ %v", m.addrErr)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	return b.String()
}

// GetSelectedCamera returns the camera the user picked, if any.
func (m DiscoveryModel) GetSelectedCamera() *discovery.Camera {
	if !m.Selected {
		return nil
	}
	item, ok := m.cameras.SelectedItem().(cameraItem)
	if !ok {
		return nil
	}
	return item.camera
}

// runScan performs one discovery pass through the registry, so a scan
// started elsewhere is rejected rather than doubled up.
func runScan(registry *discovery.Registry, window time.Duration, enableMDNS bool) tea.Cmd {
	return func() tea.Msg {
		session, ctx, err := registry.Begin(context.Background())
		if err != nil {
			return scanDoneMsg{err: err}
		}
		defer registry.End(session)

		scanner := discovery.NewScanner()
		scanner.Window = window
		cameras, err := scanner.Scan(ctx)
		if err != nil {
			return scanDoneMsg{err: err}
		}

		if enableMDNS {
			// Best effort on top of the ONVIF results.
			if extra, merr := discovery.NewMDNSScanner().Scan(ctx); merr == nil {
				cameras = discovery.MergeCameras(cameras, extra)
			}
		}

		return scanDoneMsg{cameras: cameras}
	}
}
