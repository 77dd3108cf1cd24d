package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette shared by both command-line tools.
var (
	PrimaryColor = lipgloss.Color("#3B9EE2") // Blue - headers, borders
	SuccessColor = lipgloss.Color("#2EC27E") // Green - success, checkmarks
	ErrorColor   = lipgloss.Color("#F2545B") // Red - errors, X marks
	WarningColor = lipgloss.Color("#E5A50A") // Amber - warnings, running steps
	MutedColor   = lipgloss.Color("#6E6E6E") // Gray - secondary info
	TextColor    = lipgloss.Color("#FAFAFA") // Near-white - main content
)

// Rendering clamps. Narrower terminals get MinTerminalWidth anyway and
// may wrap; wider ones cap at MaxContentWidth to keep lines readable.
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Command header styles. The header box shows the operation title, the
// full command line, and its parameters.
var (
	HeaderTitleStyle      = fg(TextColor).Bold(true).PaddingLeft(2)
	HeaderCommandStyle    = fg(MutedColor).PaddingLeft(2)
	HeaderParamKeyStyle   = fg(MutedColor).PaddingLeft(2)
	HeaderParamValueStyle = fg(TextColor)
)

// Step list styles, used by the streaming progress display.
var (
	StepCompleteStyle = fg(SuccessColor)
	StepRunningStyle  = fg(WarningColor)
	StepPendingStyle  = fg(MutedColor)
	StepNoteStyle     = fg(MutedColor).Italic(true)
)

// Result box styles.
var (
	ErrorTitleStyle           = fg(ErrorColor).Bold(true)
	ErrorMessageStyle         = fg(ErrorColor)
	ResultKeyStyle            = fg(MutedColor).Width(15)
	ResultValueStyle          = fg(TextColor)
	TroubleshootingTitleStyle = fg(MutedColor).Bold(true)
	TroubleshootingItemStyle  = fg(MutedColor)
)

// Transcript box styles, used for captured subprocess output.
var (
	OutputTitleStyle   = fg(MutedColor).Bold(true)
	OutputContentStyle = fg(TextColor)
)

// Status markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	StepMarkerSkipped  = "⊘"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
)

// GetTerminalWidth returns the current terminal width clamped to the
// supported range, falling back to the minimum when stdout is not a
// terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || width < MinTerminalWidth:
		return MinTerminalWidth
	case width > MaxContentWidth:
		return MaxContentWidth
	}
	return width
}
