package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/breakdown"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/components"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

type breakdownView int

const (
	viewCombined breakdownView = iota
	viewSplit
	viewChart
	breakdownViewCount
)

func (v breakdownView) String() string {
	switch v {
	case viewSplit:
		return "Federal / Provincial"
	case viewChart:
		return "Stacked by category"
	default:
		return "Combined"
	}
}

// breakdownState tracks the breakdown tab view mode.
type breakdownState struct {
	view breakdownView
}

// thresholdStep is the dollar step for +/- on the breakdown tab.
const thresholdStep = 5.0

func (a App) updateBreakdownKeys(key string) (App, bool) {
	switch key {
	case "v":
		a.bdState.view = (a.bdState.view + 1) % breakdownViewCount
	case "p":
		a.province = nextProvince(a.province)
		a.recomputeTax()
	case "+", "=":
		a.threshold += thresholdStep
		a.recomputeTax()
	case "-":
		a.threshold -= thresholdStep
		if a.threshold < 0 {
			a.threshold = 0
		}
		a.recomputeTax()
	default:
		return a, false
	}
	return a, true
}

func levelColor(l breakdown.Level) lipgloss.Color {
	if l == breakdown.LevelProvincial {
		return theme.Active.Provincial
	}
	return theme.Active.Federal
}

func categoryBars(items []breakdown.SpendingCategory) []components.Bar {
	bars := make([]components.Bar, 0, len(items))
	for _, c := range items {
		bars = append(bars, components.Bar{
			Label:  c.Name,
			Value:  c.Amount,
			Detail: fmt.Sprintf("%s %7s", c.FormattedAmount, c.FormattedPercentage),
			Color:  levelColor(c.Level),
		})
	}
	return bars
}

func (a App) renderBreakdownTab(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	fedStyle := lipgloss.NewStyle().Foreground(t.Federal).Background(t.Surface).Bold(true)
	provStyle := lipgloss.NewStyle().Foreground(t.Provincial).Background(t.Surface).Bold(true)

	if a.bdErr != nil {
		return components.ContentCard("Breakdown", labelStyle.Render(a.bdErr.Error()), cw)
	}
	bd := a.bd

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Federal tax", Value: cli.FormatDollars(bd.TaxCalculation.FederalTax)},
		{Label: "Provincial tax", Value: cli.FormatDollars(bd.TaxCalculation.ProvincialTax)},
		{Label: "Federal transfer", Value: cli.FormatDollars(bd.TransferAmount), Delta: "spent by " + bd.Province.Title()},
		{Label: "Grouping under", Value: cli.FormatDollars(a.threshold)},
	}, cw))
	b.WriteString("\n")

	legend := fedStyle.Render("█ federal") + labelStyle.Render("  ") + provStyle.Render("█ provincial")
	title := fmt.Sprintf("%s · %s", a.bdState.view, cli.FormatDollars(bd.TaxCalculation.TotalTax))
	inner := components.CardInnerWidth(cw)

	switch a.bdState.view {
	case viewSplit:
		widths := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Federal", components.HBarChart(categoryBars(bd.FederalSpending), components.CardInnerWidth(widths[0])), widths[0]),
			components.ContentCard(bd.Province.Title(), components.HBarChart(categoryBars(bd.ProvincialSpending), components.CardInnerWidth(widths[1])), widths[1]),
		}))

	case viewChart:
		var rows strings.Builder
		labelW := 0
		for _, item := range bd.CombinedChartData {
			if n := len([]rune(item.Name)); n > labelW {
				labelW = n
			}
		}
		if labelW > inner/3 {
			labelW = inner / 3
		}
		barW := inner - labelW - 14
		if barW < 4 {
			barW = 4
		}
		peak := 0.0
		for _, item := range bd.CombinedChartData {
			if item.TotalAmount > peak {
				peak = item.TotalAmount
			}
		}
		for i, item := range bd.CombinedChartData {
			fedN, provN := 0, 0
			if peak > 0 {
				fedN = int(item.FederalAmount / peak * float64(barW))
				provN = int(item.ProvincialAmount / peak * float64(barW))
			}
			if i > 0 {
				rows.WriteString("\n")
			}
			rows.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, truncStr(item.Name, labelW))))
			rows.WriteString(fedStyle.Render(strings.Repeat("█", fedN)))
			rows.WriteString(provStyle.Render(strings.Repeat("█", provN)))
			rows.WriteString(labelStyle.Render(strings.Repeat(" ", max(barW-fedN-provN, 0)+1)))
			rows.WriteString(labelStyle.Render(fmt.Sprintf("%12s", item.FormattedTotal)))
		}
		b.WriteString(components.ContentCard(title, legend+"\n"+rows.String(), cw))

	default:
		b.WriteString(components.ContentCard(title,
			legend+"\n"+components.HBarChart(categoryBars(bd.CombinedSpending), inner), cw))
	}

	return b.String()
}
