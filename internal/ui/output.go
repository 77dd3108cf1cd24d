package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CommandOutput is a bordered box holding a captured subprocess
// transcript. Verbose mode prints one after the result so the user sees
// what docker, apt-get, and git actually said.
type CommandOutput struct {
	Title    string
	Lines    []string
	Width    int
	MaxLines int // 0 shows everything
}

// NewCommandOutput splits a raw transcript into displayable lines.
func NewCommandOutput(content string) *CommandOutput {
	return &CommandOutput{
		Title: "Command Output",
		Lines: strings.Split(strings.TrimRight(content, "\n"), "\n"),
		Width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width.
func (c *CommandOutput) SetWidth(width int) *CommandOutput {
	c.Width = width
	return c
}

// SetTitle replaces the box title.
func (c *CommandOutput) SetTitle(title string) *CommandOutput {
	c.Title = title
	return c
}

// SetMaxLines limits the displayed line count. The tail is kept: for a
// failed build the last lines are the ones that matter.
func (c *CommandOutput) SetMaxLines(max int) *CommandOutput {
	c.MaxLines = max
	return c
}

// Render returns the transcript in a muted rounded box.
func (c *CommandOutput) Render() string {
	lines := c.Lines
	if c.MaxLines > 0 && len(lines) > c.MaxLines {
		lines = append([]string{"... (earlier output omitted)"}, lines[len(lines)-c.MaxLines:]...)
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		OutputTitleStyle.Render(c.Title),
		"",
		OutputContentStyle.Render(strings.Join(lines, "\n")),
	)

	width := max(c.Width, MinTerminalWidth)
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(MutedColor).
		Width(max(width-4, 40)).Padding(0, 1).MarginLeft(2).
		Render(inner)
}
