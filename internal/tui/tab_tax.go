package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/components"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

// taxState tracks the income input on the tax tab.
type taxState struct {
	editing bool
	input   textinput.Model
	err     string
}

func newIncomeInput(income float64) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "100000"
	ti.CharLimit = 12
	ti.Width = 20
	ti.Prompt = "$ "
	ti.SetValue(strconv.FormatFloat(income, 'f', -1, 64))
	return ti
}

// nextProvince cycles through the modeled provinces.
func nextProvince(p tax.Province) tax.Province {
	for i, q := range tax.Provinces {
		if q == p {
			return tax.Provinces[(i+1)%len(tax.Provinces)]
		}
	}
	return tax.Provinces[0]
}

func (a App) updateTaxKeys(key string) (App, bool, tea.Cmd) {
	switch key {
	case "e", "enter":
		a.taxState.editing = true
		a.taxState.err = ""
		a.taxState.input = newIncomeInput(a.income)
		return a, true, a.taxState.input.Focus()
	case "p":
		a.province = nextProvince(a.province)
		a.recomputeTax()
		return a, true, nil
	}
	return a, false, nil
}

func (a App) updateIncomeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v, err := cli.ParseIncome(a.taxState.input.Value())
		if err != nil {
			a.taxState.err = err.Error()
			return a, nil
		}
		a.income = v
		a.taxState.editing = false
		a.taxState.err = ""
		a.recomputeTax()
		return a, nil
	case "esc":
		a.taxState.editing = false
		a.taxState.err = ""
		return a, nil
	}

	var cmd tea.Cmd
	a.taxState.input, cmd = a.taxState.input.Update(msg)
	return a, cmd
}

func (a App) renderTaxTab(cw int) string {
	t := theme.Active
	c := a.calc

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface)

	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Gross income", Value: cli.FormatDollars(c.GrossIncome)},
		{Label: "Total tax", Value: cli.FormatDollars(c.TotalTax), Delta: cli.FormatRate(c.EffectiveTaxRate) + " effective"},
		{Label: "Net income", Value: cli.FormatDollars(c.NetIncome)},
	}, cw))
	b.WriteString("\n")

	// Income input
	var income strings.Builder
	if a.taxState.editing {
		income.WriteString(a.taxState.input.View())
		if a.taxState.err != "" {
			income.WriteString("\n")
			income.WriteString(errStyle.Render(a.taxState.err))
		}
	} else {
		income.WriteString(accentStyle.Render(cli.FormatDollars(a.income)))
		income.WriteString(labelStyle.Render("  in  "))
		income.WriteString(accentStyle.Render(a.province.Title()))
	}

	// Federal vs provincial
	fedSched := tax.Federal
	provSched := tax.ScheduleFor(a.province)
	rows := []struct {
		label string
		tax   float64
		rate  float64
	}{
		{"Federal", c.FederalTax, tax.MarginalRate(a.income, fedSched.Brackets)},
		{provSched.Name, c.ProvincialTax, tax.MarginalRate(a.income, provSched.Brackets)},
	}
	var split strings.Builder
	split.WriteString(labelStyle.Render(fmt.Sprintf("%-12s %14s %10s %10s", "", "Tax", "Share", "Marginal")))
	for _, r := range rows {
		share := 0.0
		if c.TotalTax > 0 {
			share = r.tax / c.TotalTax * 100
		}
		split.WriteString("\n")
		split.WriteString(valueStyle.Render(fmt.Sprintf("%-12s %14s %10s %10s",
			r.label, cli.FormatDollars(r.tax), cli.FormatRate(share), cli.FormatRate(r.rate*100))))
	}
	if a.province == tax.ProvinceOntario {
		premium := tax.OntarioHealthPremium(a.income)
		split.WriteString("\n")
		split.WriteString(labelStyle.Render(fmt.Sprintf("  incl. Ontario Health Premium %s", cli.FormatDollars(premium))))
	}

	widths := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.FocusedCard("Income", income.String(), widths[0]),
		components.ContentCard("Federal / Provincial", split.String(), widths[1]),
	}))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Where it goes",
		labelStyle.Render("Switch to ")+accentStyle.Render("[b]reakdown")+
			labelStyle.Render(" to see how "+cli.FormatDollars(c.TotalTax)+" is spent."), cw))

	return b.String()
}
