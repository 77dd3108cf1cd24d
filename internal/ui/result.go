package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType selects the banner chrome.
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// resultChrome holds the banner word, marker, and accent color for a
// result type. All three box variants share one renderer; only the
// chrome differs.
type resultChrome struct {
	banner string
	marker string
	accent lipgloss.Color
}

func (t ResultType) chrome() resultChrome {
	switch t {
	case ResultFailure:
		return resultChrome{banner: "FAILED", marker: FailureMarker, accent: ErrorColor}
	case ResultWarning:
		return resultChrome{banner: "WARNING", marker: "⚠", accent: WarningColor}
	default:
		return resultChrome{banner: "SUCCESS", marker: SuccessMarker, accent: SuccessColor}
	}
}

// Result is the closing banner box of an operation.
type Result struct {
	Type            ResultType
	Title           string
	Details         map[string]string // rendered as sorted key/value rows
	Error           error             // failures only
	Troubleshooting []string          // failures only
	Width           int
}

func newResult(t ResultType, title string) *Result {
	return &Result{Type: t, Title: title, Width: GetTerminalWidth()}
}

// NewSuccessResult builds a success box with optional detail rows.
func NewSuccessResult(title string, details map[string]string) *Result {
	r := newResult(ResultSuccess, title)
	r.Details = details
	return r
}

// NewFailureResult builds a failure box with the error and fix hints.
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	r := newResult(ResultFailure, title)
	r.Error = err
	r.Troubleshooting = troubleshooting
	return r
}

// NewWarningResult builds a warning box with optional detail rows.
func NewWarningResult(title string, details map[string]string) *Result {
	r := newResult(ResultWarning, title)
	r.Details = details
	return r
}

// SetWidth overrides the detected terminal width.
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Render returns the styled result box as a string. The box is drawn
// with a double border in the accent color of the result type and
// contains, in order: the banner line, the error (failures only), the
// sorted details, and the troubleshooting tips (failures only).
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)
	chrome := r.Type.chrome()

	banner := fg(chrome.accent).Bold(true).
		Render(fmt.Sprintf("   %s  %s  ─  %s", chrome.marker, chrome.banner, r.Title))

	lines := []string{"", banner, ""}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}

	if len(r.Details) > 0 {
		lines = append(lines, r.detailLines()...)
		lines = append(lines, "")
	}

	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.troubleshootingBox(width), "")
	}

	return lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(chrome.accent).
		Width(width - 2).Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// detailLines renders the details map with stable key ordering.
func (r *Result) detailLines() []string {
	keys := make([]string, 0, len(r.Details))
	for key := range r.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, key := range keys {
		lines[i] = ResultKeyStyle.Render("   "+key+":") + " " + ResultValueStyle.Render(r.Details[key])
	}
	return lines
}

// troubleshootingBox renders the inner box of troubleshooting tips
// shown inside failure results.
func (r *Result) troubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	// Indented within the outer result box.
	innerWidth := max(width-12, 40)

	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(MutedColor).
		Width(innerWidth).Padding(0, 1).MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}
