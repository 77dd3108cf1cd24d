package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arlott/frigatemx/internal/dockerctl"
	"github.com/arlott/frigatemx/internal/frigateapi"
)

// How often the dashboard refreshes container state and stats.
const dashRefreshInterval = 5 * time.Second

// maxLogLines caps the in-memory log buffer behind the viewport.
const maxLogLines = 1000

// ============================================================================
// Messages
// ============================================================================

// dashLogEvent is one chunk from the log follower goroutine.
type dashLogEvent struct {
	chunk string
	reset bool
}

// dashLogMsg delivers a log event to the update loop.
type dashLogMsg dashLogEvent

// dashLogClosedMsg is sent when the follower goroutine exits.
type dashLogClosedMsg struct{ err error }

// dashStatusMsg carries a docker state snapshot.
type dashStatusMsg struct {
	status *dockerctl.Status
	err    error
}

// dashStatsMsg carries a frigate API stats snapshot.
type dashStatsMsg struct {
	stats *frigateapi.Stats
	err   error
}

// dashOpDoneMsg is sent when an async lifecycle operation finishes.
type dashOpDoneMsg struct {
	op     string
	action dockerctl.UpAction
	err    error
}

// dashTickMsg drives the periodic refresh.
type dashTickMsg time.Time

// ============================================================================
// Key map
// ============================================================================

type dashboardKeyMap struct {
	Start   key.Binding
	Stop    key.Binding
	Restart key.Binding
	Scroll  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown"),
			key.WithHelp("↑/↓", "scroll logs"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Restart, k.Scroll, k.Back}
}

func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Restart},
		{k.Scroll, k.Back, k.Quit},
	}
}

// ============================================================================
// Model
// ============================================================================

// DashboardModel shows the container state, a live log tail and frigate
// runtime stats, with start/stop/restart wired to the docker runner.
// Only one lifecycle operation runs at a time; stop stays available so
// a stuck build or start can always be interrupted.
type DashboardModel struct {
	Runner *dockerctl.Runner
	API    *frigateapi.Client

	Status   *dockerctl.Status
	Stats    *frigateapi.Stats
	StatsErr error

	Viewport viewport.Model
	logLines []string

	// The follower goroutine feeds logCh; a self-re-arming command
	// hands each event to Update. logCancel tears the follower down
	// when the screen is left.
	logCh        chan dashLogEvent
	followCtx    context.Context
	logCancel    context.CancelFunc
	followerDown bool

	// OpInFlight names the gated operation dispatched from this screen,
	// or "" when idle. Stop is tracked separately because it does not
	// take the gate.
	OpInFlight    string
	StopInFlight  bool
	statsInFlight bool

	Notice      string
	NoticeIsErr bool

	Spinner spinner.Model
	Help    help.Model
	Keys    dashboardKeyMap

	BackRequested bool

	Width  int
	Height int
}

// NewDashboardModel builds the dashboard around an existing runner and
// API client.
func NewDashboardModel(runner *dockerctl.Runner, api *frigateapi.Client) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	// The dashboard polls on a timer; retrying inside a poll only
	// delays the next one.
	api.SetRetry(0, 0)
	api.SetTimeout(3 * time.Second)

	vp := viewport.New(MinTerminalWidth-8, 10)

	ctx, cancel := context.WithCancel(context.Background())

	return DashboardModel{
		Runner:    runner,
		API:       api,
		Viewport:  vp,
		logCh:     make(chan dashLogEvent, 64),
		followCtx: ctx,
		logCancel: cancel,
		Spinner:   sp,
		Help:      help.New(),
		Keys:      newDashboardKeyMap(),
		Width:     MinTerminalWidth,
		Height:    24,
	}
}

// Init starts the spinner, the state poll and the log follower.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		refreshDockerStatus(m.Runner),
		runLogFollower(m.Runner, m.followCtx, m.logCh),
		waitForLogs(m.logCh),
		dashboardTick(),
	)
}

// Close stops the log follower. The app calls it when it navigates away
// from the dashboard.
func (m DashboardModel) Close() {
	if m.logCancel != nil {
		m.logCancel()
	}
}

// ============================================================================
// Commands
// ============================================================================

func dashboardTick() tea.Cmd {
	return tea.Tick(dashRefreshInterval, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}

func refreshDockerStatus(runner *dockerctl.Runner) tea.Cmd {
	return func() tea.Msg {
		st, err := runner.Status(context.Background())
		return dashStatusMsg{status: st, err: err}
	}
}

func fetchFrigateStats(api *frigateapi.Client) tea.Cmd {
	return func() tea.Msg {
		stats, err := api.Stats()
		return dashStatsMsg{stats: stats, err: err}
	}
}

// runLogFollower runs FollowLogs until the context is cancelled, pushing
// chunks onto the channel.
func runLogFollower(runner *dockerctl.Runner, ctx context.Context, ch chan<- dashLogEvent) tea.Cmd {
	return func() tea.Msg {
		err := runner.FollowLogs(ctx, dockerctl.DefaultLogTail, func(chunk string, reset bool) {
			select {
			case ch <- dashLogEvent{chunk: chunk, reset: reset}:
			case <-ctx.Done():
			}
		})
		return dashLogClosedMsg{err: err}
	}
}

// waitForLogs hands the next log event to the update loop. It re-arms
// itself after every delivery.
func waitForLogs(ch <-chan dashLogEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return dashLogMsg(ev)
	}
}

func runContainerUp(runner *dockerctl.Runner, ch chan<- dashLogEvent) tea.Cmd {
	return func() tea.Msg {
		action, err := runner.Up(context.Background(), func(line string) {
			// Build output joins the log pane. Lines are dropped when
			// the UI falls behind rather than stalling the build.
			select {
			case ch <- dashLogEvent{chunk: line}:
			default:
			}
		})
		return dashOpDoneMsg{op: "start", action: action, err: err}
	}
}

func runContainerStop(runner *dockerctl.Runner) tea.Cmd {
	return func() tea.Msg {
		err := runner.Stop(context.Background())
		return dashOpDoneMsg{op: "stop", err: err}
	}
}

func runContainerRestart(runner *dockerctl.Runner) tea.Cmd {
	return func() tea.Msg {
		err := runner.Restart(context.Background())
		return dashOpDoneMsg{op: "restart", err: err}
	}
}

// ============================================================================
// Update
// ============================================================================

// Update handles messages for the dashboard screen.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = clampInt(msg.Width-8, 40, MaxContentWidth-8)
		m.Viewport.Height = clampInt(msg.Height-20, 5, 40)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case dashTickMsg:
		cmds := []tea.Cmd{dashboardTick(), refreshDockerStatus(m.Runner)}
		if m.Status != nil && m.Status.ContainerRunning && !m.statsInFlight {
			m.statsInFlight = true
			cmds = append(cmds, fetchFrigateStats(m.API))
		}
		return m, tea.Batch(cmds...)

	case dashStatusMsg:
		if msg.err == nil {
			wasRunning := m.Status != nil && m.Status.ContainerRunning
			m.Status = msg.status
			if !msg.status.ContainerRunning {
				m.Stats = nil
			} else if !wasRunning && !m.statsInFlight {
				m.statsInFlight = true
				return m, fetchFrigateStats(m.API)
			}
		}
		return m, nil

	case dashStatsMsg:
		m.statsInFlight = false
		if msg.err != nil {
			m.StatsErr = msg.err
			return m, nil
		}
		m.StatsErr = nil
		m.Stats = msg.stats
		return m, nil

	case dashLogMsg:
		m.appendLog(dashLogEvent(msg))
		return m, waitForLogs(m.logCh)

	case dashLogClosedMsg:
		m.followerDown = true
		return m, nil

	case dashOpDoneMsg:
		if msg.op == "stop" {
			m.StopInFlight = false
		} else {
			m.OpInFlight = ""
		}
		if msg.err != nil {
			m.Notice = fmt.Sprintf("✗ %s failed: %v", msg.op, msg.err)
			m.NoticeIsErr = true
		} else if msg.op == "start" {
			m.Notice = fmt.Sprintf("✓ start: %s", msg.action)
			m.NoticeIsErr = false
		} else {
			m.Notice = fmt.Sprintf("✓ %s complete", msg.op)
			m.NoticeIsErr = false
		}
		return m, refreshDockerStatus(m.Runner)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m DashboardModel) updateKeys(msg tea.KeyMsg) (DashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Back):
		m.Close()
		m.BackRequested = true
		return m, nil

	case key.Matches(msg, m.Keys.Start):
		if m.OpInFlight != "" {
			m.Notice = fmt.Sprintf("A %s operation is already in progress", m.OpInFlight)
			m.NoticeIsErr = true
			return m, nil
		}
		m.OpInFlight = "start"
		m.Notice = ""
		return m, tea.Batch(m.Spinner.Tick, runContainerUp(m.Runner, m.logCh))

	case key.Matches(msg, m.Keys.Restart):
		if m.OpInFlight != "" {
			m.Notice = fmt.Sprintf("A %s operation is already in progress", m.OpInFlight)
			m.NoticeIsErr = true
			return m, nil
		}
		m.OpInFlight = "restart"
		m.Notice = ""
		return m, tea.Batch(m.Spinner.Tick, runContainerRestart(m.Runner))

	case key.Matches(msg, m.Keys.Stop):
		if m.StopInFlight {
			return m, nil
		}
		m.StopInFlight = true
		m.Notice = ""
		return m, tea.Batch(m.Spinner.Tick, runContainerStop(m.Runner))
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m *DashboardModel) appendLog(ev dashLogEvent) {
	pinned := m.Viewport.AtBottom()

	lines := strings.Split(strings.TrimRight(ev.chunk, "\n"), "\n")
	if ev.reset {
		m.logLines = lines
	} else {
		m.logLines = append(m.logLines, lines...)
	}
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}

	m.Viewport.SetContent(strings.Join(m.logLines, "\n"))
	if pinned {
		m.Viewport.GotoBottom()
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ============================================================================
// View
// ============================================================================

// View renders the dashboard screen.
func (m DashboardModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("FRIGATE DASHBOARD"))
	b.WriteString("\n\n")

	b.WriteString(m.renderDockerState())
	b.WriteString("\n")

	if m.Stats != nil {
		b.WriteString(m.renderStats())
		b.WriteString("\n")
	}

	b.WriteString(SubtitleStyle.Render("LOGS"))
	b.WriteString("\n")
	if len(m.logLines) == 0 {
		b.WriteString(SubtitleStyle.Render("  (no container output yet)"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.Viewport.View())
		b.WriteString("\n")
	}

	if m.OpInFlight != "" {
		b.WriteString("\n" + m.Spinner.View() + fmt.Sprintf(" %s in progress...", m.OpInFlight))
	}
	if m.StopInFlight {
		b.WriteString("\n" + m.Spinner.View() + " stopping...")
	}
	if m.Notice != "" {
		b.WriteString("\n")
		if m.NoticeIsErr {
			b.WriteString(ErrorStyle.Render(m.Notice))
		} else {
			b.WriteString(SuccessStyle.Render(m.Notice))
		}
	}

	return RenderApplicationContainer(b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DashboardModel) renderDockerState() string {
	if m.Status == nil {
		return m.Spinner.View() + " Checking docker state..."
	}

	var b strings.Builder
	mark := func(ok bool, yes, no string) string {
		if ok {
			return SuccessStyle.Render("● " + yes)
		}
		return SubtitleStyle.Render("○ " + no)
	}

	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Daemon:", mark(m.Status.DaemonUp, "reachable", "unreachable")))
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Image:", mark(m.Status.ImageBuilt, "built", "not built")))

	switch {
	case m.Status.ContainerRunning:
		b.WriteString(fmt.Sprintf("  %-14s %s\n", "Container:", SuccessStyle.Render("● running")))
	case m.Status.ContainerExists:
		b.WriteString(fmt.Sprintf("  %-14s %s\n", "Container:", ErrorStyle.Render("○ stopped")))
	default:
		b.WriteString(fmt.Sprintf("  %-14s %s\n", "Container:", SubtitleStyle.Render("○ not created")))
	}

	return b.String()
}

func (m DashboardModel) renderStats() string {
	var b strings.Builder

	svc := m.Stats.Service
	uptime := svc.UptimeDuration().Truncate(time.Second)
	b.WriteString(fmt.Sprintf("  %-14s v%s · up %s · %.1f det/s\n",
		"Frigate:", svc.Version, uptime, m.Stats.DetectionFPS))

	for _, name := range m.Stats.DetectorNames() {
		det := m.Stats.Detectors[name]
		b.WriteString(fmt.Sprintf("  %-14s %.1f ms inference\n", name+":", det.InferenceSpeed))
	}

	for _, name := range m.Stats.CameraNames() {
		cam := m.Stats.Cameras[name]
		line := fmt.Sprintf("  %-14s %.1f fps camera · %.1f fps detect", name+":", cam.CameraFPS, cam.DetectionFPS)
		if cam.SkippedFPS > 0 {
			line += ErrorStyle.Render(fmt.Sprintf(" · %.1f skipped", cam.SkippedFPS))
		}
		b.WriteString(line + "\n")
	}

	mounts := make([]string, 0, len(svc.Storage))
	for mount := range svc.Storage {
		mounts = append(mounts, mount)
	}
	sort.Strings(mounts)
	for _, mount := range mounts {
		st := svc.Storage[mount]
		b.WriteString(fmt.Sprintf("  %-14s %.1f / %.1f GB used\n",
			mount+":", st.Used/1024, st.Total/1024))
	}

	return b.String()
}
