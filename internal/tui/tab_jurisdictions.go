package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/components"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

// jurisdictionsState holds the jurisdictions tab list position and filter.
type jurisdictionsState struct {
	cursor   int
	province string // "" shows every province
	message  string
}

func (s *jurisdictionsState) clamp(n int) {
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// filteredStats returns the jurisdictions visible under the province filter,
// largest spending first.
func (a App) filteredStats() []model.JurisdictionStats {
	return pipeline.TopJurisdictions(pipeline.FilterByProvince(a.stats, a.jurState.province), 0)
}

// provinceFilters lists the filter cycle: all, then each loaded province.
func (a App) provinceFilters() []string {
	out := []string{""}
	for _, p := range a.overview.Provinces {
		out = append(out, p.Province)
	}
	return out
}

func (a App) updateJurisdictionsKeys(key string) (App, bool) {
	n := len(a.filteredStats())
	switch key {
	case "j", "down":
		a.jurState.cursor++
	case "k", "up":
		a.jurState.cursor--
	case "g", "home":
		a.jurState.cursor = 0
	case "G", "end":
		a.jurState.cursor = n - 1
	case "p":
		filters := a.provinceFilters()
		next := 0
		for i, f := range filters {
			if f == a.jurState.province {
				next = (i + 1) % len(filters)
				break
			}
		}
		a.jurState.province = filters[next]
		a.jurState.cursor = 0
		n = len(a.filteredStats())
	case "b":
		a.loadJurisdictionBudget()
		return a, true
	default:
		return a, false
	}
	a.jurState.clamp(n)
	return a, true
}

// loadJurisdictionBudget puts the selected jurisdiction's sankey trees on
// the budget tab and switches to it.
func (a *App) loadJurisdictionBudget() {
	stats := a.filteredStats()
	if len(stats) == 0 {
		return
	}
	sel := stats[min(a.jurState.cursor, len(stats)-1)]

	data, err := source.Load(a.dataDir, sel.Key)
	if err != nil {
		a.jurState.message = "could not load " + sel.Name + ": " + err.Error()
		return
	}
	a.jurState.message = ""
	a.setBudgetTrees(data.Jurisdiction.Name, data.Sankey.SpendingTree(), data.Sankey.RevenueTree())
	a.budgetState.message = "F returns to the federal budget"
	a.activeTab = tabBudget
}

func (a App) renderJurisdictionsTab(cw, h int) string {
	t := theme.Active
	o := a.overview
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Jurisdictions", Value: cli.FormatCount(int64(o.Jurisdictions)),
			Delta: fmt.Sprintf("%d provincial · %d municipal", o.Provincial, o.Municipal)},
		{Label: "Provincial spending", Value: cli.FormatBillions(o.ProvincialSpending)},
		{Label: "Municipal spending", Value: cli.FormatBillions(o.MunicipalSpending)},
		{Label: "Debt interest", Value: cli.FormatBillions(o.TotalDebtInterest)},
	}, cw))
	b.WriteString("\n")

	stats := a.filteredStats()
	if len(stats) == 0 {
		msg := "No jurisdictions found in " + a.dataDir
		if a.loadErr != nil {
			msg = a.loadErr.Error()
		}
		b.WriteString(components.ContentCard("Jurisdictions", mutedStyle.Render(msg), cw))
		return b.String()
	}

	cursor := a.jurState.cursor
	if cursor >= len(stats) {
		cursor = len(stats) - 1
	}

	leftW := cw / 3
	if leftW < 34 {
		leftW = 34
	}
	rightW := cw - leftW
	leftInner := components.CardInnerWidth(leftW)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	// metric row (5) + card border and title (3)
	visible := h - 8
	if visible < 5 {
		visible = 5
	}
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}
	end := offset + visible
	if end > len(stats) {
		end = len(stats)
	}

	amountW := 9
	nameW := leftInner - amountW - 1
	var list strings.Builder
	for i := offset; i < end; i++ {
		j := stats[i]
		line := fmt.Sprintf("%-*s %*s", nameW, truncStr(j.Name, nameW), amountW, cli.FormatBillions(j.Spending))
		if i > offset {
			list.WriteString("\n")
		}
		if i == cursor {
			list.WriteString(selectedStyle.Render(line))
		} else {
			list.WriteString(rowStyle.Render(line))
		}
	}

	title := "All provinces"
	if a.jurState.province != "" {
		title = a.jurState.province
	}
	leftCard := components.ContentCard(fmt.Sprintf("%s [%d]", title, len(stats)), list.String(), leftW)

	sel := stats[cursor]
	detail := a.renderJurisdictionDetail(sel, rightW)

	sparkW := max(components.CardInnerWidth(rightW)-30, 1)
	spread := make([]float64, 0, min(len(stats), sparkW))
	for _, j := range stats[:min(len(stats), sparkW)] {
		spread = append(spread, j.Spending)
	}
	detail += "\n\n" + mutedStyle.Render(fmt.Sprintf("%-16s", "Spending spread")) +
		components.Sparkline(spread, t.Accent) +
		mutedStyle.Render(fmt.Sprintf("  #%d of %d", cursor+1, len(stats)))
	detail += "\n" + mutedStyle.Render("b: open budget tree")
	if a.jurState.message != "" {
		detail += "\n" + lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Render(a.jurState.message)
	}
	rightCard := components.ContentCard(sel.Name, detail, rightW)

	b.WriteString(components.CardRow([]string{leftCard, rightCard}))
	return b.String()
}

func (a App) renderJurisdictionDetail(j model.JurisdictionStats, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	posStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	negStyle := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface)

	kv := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value)
	}

	var body strings.Builder
	body.WriteString(labelStyle.Render(fmt.Sprintf("%s · %s · %s", j.Key, j.Kind, j.FinancialYear)))
	body.WriteString("\n")
	body.WriteString(labelStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	lines := []string{
		kv("Spending", cli.FormatBillions(j.Spending)),
		kv("Employees", cli.FormatCount(j.Employees)),
		kv("Debt interest", fmt.Sprintf("%s (%s of spending)", cli.FormatBillions(j.DebtInterest), cli.FormatRate(j.DebtInterestShare()))),
		kv("Net debt", cli.FormatBillions(j.NetDebt)),
		kv("Total debt", cli.FormatBillions(j.TotalDebt)),
	}
	if pc := j.PerCapita(); pc > 0 {
		lines = append(lines, kv("Per resident", cli.FormatDollars(pc)))
	}
	lines = append(lines,
		kv("Departments", fmt.Sprintf("%d departments · %d ministries", j.Departments, j.Ministries)),
		kv("Sankey revenue", cli.FormatBillions(j.SankeyRevenue)),
		kv("Sankey spending", cli.FormatBillions(j.SankeySpending)),
	)

	balance := j.Balance()
	balanceLine := labelStyle.Render(fmt.Sprintf("%-16s", "Balance"))
	if balance < 0 {
		balanceLine += negStyle.Render(cli.FormatBillions(-balance) + " deficit")
	} else {
		balanceLine += posStyle.Render(cli.FormatBillions(balance) + " surplus")
	}
	lines = append(lines, balanceLine)

	body.WriteString(strings.Join(lines, "\n"))

	if total := a.overview.TotalSpending(); total > 0 {
		body.WriteString("\n\n")
		barW := innerW - 30
		if barW < 10 {
			barW = 10
		}
		body.WriteString(components.LevelBar("Share of all", j.Spending/total*100, 100,
			cli.FormatRate(j.Spending/total*100), 14, barW))
	}

	return body.String()
}
