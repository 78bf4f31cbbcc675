package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar with key hints on the left
// and status text on the right.
func RenderStatusBar(width int, hints, status string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " " + hints
	right := status + " "

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
