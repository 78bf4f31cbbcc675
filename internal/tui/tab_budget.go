package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/components"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

const federalTreeName = "Federal"

// budgetState tracks the selected category and the last save result.
type budgetState struct {
	cursor  int
	message string
}

func (a App) updateBudgetKeys(key string) (App, bool) {
	c := budget.Categories[a.budgetState.cursor]

	switch key {
	case "j", "down":
		if a.budgetState.cursor < len(budget.Categories)-1 {
			a.budgetState.cursor++
		}
		return a, true
	case "k", "up":
		if a.budgetState.cursor > 0 {
			a.budgetState.cursor--
		}
		return a, true
	case "left", "h":
		a.reductions = a.reductions.Adjust(c, -budget.ReductionStep)
	case "right", "l":
		a.reductions = a.reductions.Adjust(c, budget.ReductionStep)
	case "0":
		a.reductions = a.reductions.Adjust(c, -budget.MaxReduction)
	case "L":
		a.live = !a.live
		a.reductions = budget.DefaultReductions(a.live)
	case "s":
		a.budgetState.message = a.saveReductions()
		return a, true
	case "F":
		if a.treeName == federalTreeName {
			return a, true
		}
		a.setBudgetTrees(federalTreeName, budget.FederalSpending(), budget.FederalRevenue())
		a.budgetState.message = "showing the federal budget"
		return a, true
	default:
		return a, false
	}

	a.budgetState.message = ""
	a.recomputeBudget()
	return a, true
}

// saveReductions writes the current reductions to the config file and
// returns a status line.
func (a *App) saveReductions() string {
	cfg, err := config.Load()
	if err != nil {
		cfg = a.cfg
	}
	cfg.Budget.Live = a.live
	cfg.Budget.Reductions = make(map[string]float64, len(a.reductions))
	for c, v := range a.reductions {
		cfg.Budget.Reductions[string(c)] = v
	}
	if err := config.Save(cfg); err != nil {
		return "could not save: " + err.Error()
	}
	a.cfg = cfg
	return "saved to " + config.ConfigPath()
}

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	s := a.summary

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)

	var b strings.Builder

	saved := s.BaselineSpending - s.Spending
	deficitLabel := "Deficit"
	if s.Deficit < 0 {
		deficitLabel = "Surplus"
	}
	stage := "preliminary defaults"
	if a.live {
		stage = "official budget"
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Spending 2025", Value: cli.FormatBillions(s.Spending), Delta: cli.FormatDelta(-saved) + " vs 2024"},
		{Label: "Revenue 2025", Value: cli.FormatBillions(s.Revenue)},
		{Label: deficitLabel, Value: cli.FormatBillions(absf(s.Deficit))},
		{Label: "Capital 2025", Value: cli.FormatBillions(s.Capex2025), Delta: stage},
	}, cw))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	inner := components.CardInnerWidth(widths[0])
	labelW := 32
	if labelW > inner/2 {
		labelW = inner / 2
	}
	barW := inner - labelW - 10
	if barW < 6 {
		barW = 6
	}

	var list strings.Builder
	for i, c := range budget.Categories {
		pct := a.reductions.For(c)
		if i > 0 {
			list.WriteString("\n")
		}
		detail := cli.FormatReduction(pct)
		if !a.reducible[c] {
			detail = "n/a"
		}
		line := components.LevelBar(string(c), pct, budget.MaxReduction, detail, labelW, barW)
		if i == a.budgetState.cursor {
			list.WriteString(selStyle.Render("▸") + line)
		} else {
			list.WriteString(labelStyle.Render(" ") + line)
		}
	}
	if len(a.reducible) < len(budget.Categories) {
		list.WriteString("\n\n")
		list.WriteString(labelStyle.Render("n/a: no " + a.treeName + " program line maps to the category"))
	}
	if a.budgetState.message != "" {
		list.WriteString("\n\n")
		list.WriteString(warnStyle.Render(a.budgetState.message))
	}

	sums := s.Sums()
	splitRows := []struct {
		label      string
		prev, curr float64
	}{
		{"Operating", sums.Op2024, sums.Op2025},
		{"Capital", sums.Capital2024, sums.Capital2025},
		{"Transfers", sums.Transfer2024, sums.Transfer2025},
		{"Debt charges", sums.Debt2024, sums.Debt2025},
		{"Other", sums.Other2024, sums.Other2025},
	}
	var split strings.Builder
	split.WriteString(labelStyle.Render(fmt.Sprintf("%-14s %10s %10s %10s", "", "2024", "2025", "Change")))
	for _, r := range splitRows {
		split.WriteString("\n")
		split.WriteString(valueStyle.Render(fmt.Sprintf("%-14s %10s %10s %10s",
			r.label, cli.FormatBillions(r.prev), cli.FormatBillions(r.curr), cli.FormatDelta(r.curr-r.prev))))
	}
	split.WriteString("\n")
	split.WriteString(valueStyle.Render(fmt.Sprintf("%-14s %10s %10s %10s",
		"Total", cli.FormatBillions(sums.Total2024()), cli.FormatBillions(sums.Total2025()),
		cli.FormatDelta(sums.Total2025()-sums.Total2024()))))

	b.WriteString(components.CardRow([]string{
		components.FocusedCard(a.treeName+" operating reductions", list.String(), widths[0]),
		components.ContentCard(a.treeName+" spending by type ($B)", split.String(), widths[1]),
	}))

	return b.String()
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
