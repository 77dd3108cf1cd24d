package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the context box printed before an operation starts: what is
// about to run, the exact invocation, and the parameters it resolved.
type Header struct {
	Title   string
	Command string
	Params  map[string]string
	Width   int
}

// NewHeader builds a header sized to the current terminal.
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{Title: title, Command: command, Params: params, Width: GetTerminalWidth()}
}

// SetWidth overrides the detected terminal width.
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the header as a bordered box: the uppercased title and
// the command line on top, then a divider and the parameter list when
// parameters are present.
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	lines := []string{
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	}

	if len(h.Params) > 0 {
		divider := max(width-6, 10)
		lines = append(lines, fg(PrimaryColor).Render(strings.Repeat("─", divider)))

		keys := make([]string, 0, len(h.Params))
		for key := range h.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			lines = append(lines,
				HeaderParamKeyStyle.Render(key+":")+" "+HeaderParamValueStyle.Render(h.Params[key]))
		}
	}

	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}
