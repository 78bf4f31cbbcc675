package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label  string
	Value  float64
	Detail string
	Color  lipgloss.Color
}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// HBarChart renders labeled horizontal bars scaled to the largest value.
// Rows are drawn in the order given.
func HBarChart(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	detailW := 0
	peak := 0.0
	for _, b := range bars {
		if n := len([]rune(b.Label)); n > labelW {
			labelW = n
		}
		if n := lipgloss.Width(b.Detail); n > detailW {
			detailW = n
		}
		if b.Value > peak {
			peak = b.Value
		}
	}
	if labelW > width/3 {
		labelW = width / 3
	}

	barW := width - labelW - detailW - 2
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	detailStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		n := 0
		if peak > 0 {
			n = int(b.Value / peak * float64(barW))
		}
		if n < 0 {
			n = 0
		}
		if n == 0 && b.Value > 0 {
			n = 1
		}

		color := b.Color
		if color == "" {
			color = t.Accent
		}
		barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(b.Label, labelW)))+
				spaceStyle.Render(" ")+
				barStyle.Render(strings.Repeat("█", n))+
				spaceStyle.Render(strings.Repeat(" ", barW-n+1))+
				detailStyle.Render(fmt.Sprintf("%*s", detailW, b.Detail)))
	}
	return strings.Join(lines, "\n")
}
