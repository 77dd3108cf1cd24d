package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arlott/frigatemx/internal/version"
)

// Branding shown in the wizard header.
const (
	AppName   = "FRIGATEMX SETUP WIZARD"
	GitHubURL = "github.com/arlott/frigatemx"
)

// AppVersion reports the build version stamped into the binary.
func AppVersion() string { return version.Version }

// Terminal width bounds the layout adapts to.
const (
	MinTerminalWidth = 72  // narrowest layout we draw
	MaxContentWidth  = 120 // wider terminals get whitespace, not wider content
)

// Color palette. Matches the internal/ui launcher palette.
var (
	PrimaryColor   = lipgloss.Color("#3B9EE2") // Blue
	SecondaryColor = lipgloss.Color("#2EC27E") // Green
	WarningColor   = lipgloss.Color("#E5A50A") // Amber
	ErrorColor     = lipgloss.Color("#F2545B") // Red

	TextColor      = lipgloss.Color("#FAFAFA") // Near-white
	SubtleColor    = lipgloss.Color("#6E6E6E") // Gray
	BorderColor    = PrimaryColor
	HighlightColor = SecondaryColor
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func roundedBox(c lipgloss.Color) lipgloss.Style {
	return fg(c).Bold(true).Border(lipgloss.RoundedBorder()).BorderForeground(c).Padding(1, 2)
}

// Screen styles.
var (
	TitleStyle            = fg(PrimaryColor).Bold(true).Padding(1, 0).MarginBottom(1)
	SubtitleStyle         = fg(SubtleColor).Italic(true)
	MenuItemStyle         = fg(TextColor).PaddingLeft(4)
	SelectedMenuItemStyle = fg(HighlightColor).Bold(true).PaddingLeft(2)
	SpinnerStyle          = fg(PrimaryColor)

	// Bordered panels
	ErrorStyle   = roundedBox(ErrorColor)
	SuccessStyle = roundedBox(SecondaryColor)
	InfoBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderColor).
			Padding(1, 2).MarginTop(1).MarginBottom(1)

	// Result screen banners
	SuccessBoxStyle = fg(SecondaryColor).Bold(true)
	ErrorBoxStyle   = roundedBox(ErrorColor)
	WarningBoxStyle = roundedBox(WarningColor)
)

// RenderSubtitle styles secondary text under a title.
func RenderSubtitle(text string) string { return SubtitleStyle.Render(text) }

// RenderError styles a failure banner with the ✗ marker.
func RenderError(text string) string { return ErrorStyle.Render("✗ " + text) }

// brandLine is the header row: app name and version on the left, the
// repository URL beside it.
func brandLine() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		fg(TextColor).Bold(true).Render(AppName+" v"+AppVersion()),
		" ",
		fg(SubtleColor).Render(GitHubURL),
	)
}

// edge renders a header or footer row with a single horizontal rule on
// the given side, sized to sit inside the outer container border.
func edge(content string, border lipgloss.Border, width int) string {
	return lipgloss.NewStyle().BorderStyle(border).BorderForeground(BorderColor).
		Width(width - 4).Padding(0, 1).Render(content)
}

// RenderApplicationContainer wraps a screen in the application chrome:
// brand header, bordered full-terminal panel, and a context-sensitive
// help footer pinned under the content. Every screen's View routes
// through it so the chrome stays identical across screens. Width and
// height come from the last tea.WindowSizeMsg; the content area gets
// width-4 with no extra padding, so callers control their own margins.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	header := edge(brandLine(), lipgloss.Border{Bottom: "─"}, terminalWidth)
	footer := edge(fg(SubtleColor).Render(footerText), lipgloss.Border{Top: "─"}, terminalWidth)
	body := lipgloss.NewStyle().Width(terminalWidth - 4).Render(content)

	// Full height so modal overlays have a background to draw over.
	panel := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(BorderColor).
		Width(terminalWidth-2).Height(terminalHeight-2).AlignVertical(lipgloss.Top).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, panel)
}

// RenderModal renders a temporary overlay (progress, confirmation, result)
// centered on screen. The modal content should already be styled with
// borders and padding; the surrounding area dims with a light fill.
func RenderModal(modalContent string, terminalWidth int, terminalHeight int) string {
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"), lipgloss.WithWhitespaceForeground(lipgloss.Color("240")))
}
