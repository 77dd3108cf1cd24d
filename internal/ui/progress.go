package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the lifecycle state of one step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one unit of work inside an operation.
type Step struct {
	Number  int // 1-based
	Name    string
	Status  StepStatus
	Message string // short note shown after the name, e.g. "cached"
}

// Progress tracks the steps of a multi-step operation and renders
// them one line at a time as they settle. Operations stream their
// output, so there is no repaint: each step line is final once the
// step completes.
type Progress struct {
	Steps   []Step
	Current int // 1-based number of the step currently running
	Total   int
	Percent float64 // settled fraction, 0.0 to 1.0
	Width   int     // terminal width, bounds step name length
}

// NewProgress creates a step tracker for an operation with totalSteps steps.
// Step names can be filled in up front with SetStepNames or lazily as the
// operation reports them.
func NewProgress(totalSteps int) *Progress {
	steps := make([]Step, totalSteps)
	for i := range steps {
		steps[i].Number = i + 1
	}

	return &Progress{
		Steps: steps,
		Total: totalSteps,
		Width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width.
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	return p
}

// SetStepNames fills in step names up front. Extra names are dropped.
func (p *Progress) SetStepNames(names []string) *Progress {
	n := min(len(names), len(p.Steps))
	for i := 0; i < n; i++ {
		p.Steps[i].Name = names[i]
	}
	return p
}

// UpdateStep records a status change for one step. Out-of-range step
// numbers are dropped so operations that report more steps than were
// budgeted cannot corrupt the display.
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	step := &p.Steps[stepNumber-1]
	step.Status = status
	step.Message = message

	switch status {
	case StepRunning:
		p.Current = stepNumber
	case StepComplete, StepFailed, StepSkipped:
		p.Percent = float64(p.settled()) / float64(p.Total)
	}
}

// settled counts the steps that no longer need work. Failed steps do
// not count: a failure stops the operation rather than advancing it.
func (p *Progress) settled() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			n++
		}
	}
	return n
}

// stepGlyph returns the status marker and text style for a step.
func stepGlyph(status StepStatus) (string, lipgloss.Style) {
	switch status {
	case StepComplete:
		return StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		return StepMarkerRunning, StepRunningStyle
	case StepFailed:
		return FailureMarker, ErrorTitleStyle
	case StepSkipped:
		return StepMarkerSkipped, StepPendingStyle
	default:
		return StepMarkerPending, StepPendingStyle
	}
}

// renderStepLine renders a single step line, for example:
//
//	✓ [ 4/15] Install Docker engine packages (cached)
//
// Step numbers are right-aligned so the name column lines up across
// single- and double-digit steps.
func (p *Progress) renderStepLine(step Step) string {
	marker, style := stepGlyph(step.Status)
	digits := len(fmt.Sprint(p.Total))
	counter := fmt.Sprintf("[%*d/%d]", digits, step.Number, p.Total)

	line := "  " + style.Render(marker) + " " + StepPendingStyle.Render(counter) +
		" " + style.Render(p.truncateName(step.Name))
	if step.Message != "" {
		line += " " + StepNoteStyle.Render("("+step.Message+")")
	}
	return line
}

// truncateName shortens a step name to fit the terminal, leaving room
// for the marker, the counter, and a short note.
func (p *Progress) truncateName(name string) string {
	budget := p.Width - 2*len(fmt.Sprint(p.Total)) - 24
	if budget < 20 {
		budget = 20
	}
	runes := []rune(name)
	if len(runes) <= budget {
		return name
	}
	return string(runes[:budget-1]) + "…"
}

// StepCallback receives step transitions from a running operation.
type StepCallback func(stepNumber int, name string, status StepStatus, message string)
