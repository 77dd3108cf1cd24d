package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirmPhrase is what the user must type to confirm a destructive
// operation. A full phrase rather than y/n so it cannot be hit by
// accident or by a script piping "y".
const confirmPhrase = "I AGREE"

// ConfirmDangerousOperation displays a warning box and prompts the user
// to type the confirmation phrase. Returns true only when the user typed
// it exactly.
func ConfirmDangerousOperation(title string, warnings []string, disclaimer string) bool {
	width := GetTerminalWidth()

	banner := fg(WarningColor).Bold(true).Render("   ⚠  WARNING  ─  " + title)
	lines := []string{"", banner, ""}

	bullet := fg(TextColor)
	for _, w := range warnings {
		lines = append(lines, bullet.Render("   • "+w))
	}
	lines = append(lines, "")

	if disclaimer != "" {
		note := fg(MutedColor).Italic(true).Width(width - 12).PaddingLeft(3)
		lines = append(lines, note.Render(disclaimer), "")
	}

	box := lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(WarningColor).
		Width(width - 2).Padding(0, 2).Render(strings.Join(lines, "\n"))

	fmt.Println(box)
	fmt.Println()
	fmt.Print(fg(WarningColor).Bold(true).
		Render(fmt.Sprintf("To proceed, type %q and press Enter: ", confirmPhrase)))

	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	fmt.Println()
	if err == nil && strings.TrimSpace(input) == confirmPhrase {
		return true
	}

	fmt.Println(fg(MutedColor).Render("  Operation cancelled."))
	fmt.Println()
	return false
}

// RemoveContainerConfirmation is a pre-configured confirmation for
// removing the frigate container.
func RemoveContainerConfirmation() bool {
	return ConfirmDangerousOperation(
		"CONTAINER REMOVAL",
		[]string{
			"This stops and deletes the frigate container",
			"In-container state that is not on a mounted path is lost",
			"Recordings and the config file live on mounted paths and are kept",
			"A later 'frigatemx-launcher start' builds a fresh container from the current config",
		},
		"Pass --yes to skip this prompt in scripts. Removal cannot be undone; "+
			"anything the container wrote outside its mounts disappears with it.",
	)
}
