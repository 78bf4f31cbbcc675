package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

// setupValues holds the first-run form bindings.
type setupValues struct {
	cfg      config.Config
	province string
	income   string
	theme    string
	saveErr  error
}

func newSetupValues(cfg config.Config) *setupValues {
	province := cfg.General.Province
	if p, ok := tax.ParseProvince(province); ok {
		province = string(p)
	} else {
		province = string(tax.ProvinceOntario)
	}
	return &setupValues{
		cfg:      cfg,
		province: province,
		income:   strconv.FormatFloat(cfg.General.Income, 'f', -1, 64),
		theme:    theme.ByName(cfg.Appearance.Theme).Name,
	}
}

func newSetupForm(count int, dataDir string, vals *setupValues) *huh.Form {
	provinces := make([]huh.Option[string], 0, len(tax.Provinces))
	for _, p := range tax.Provinces {
		provinces = append(provinces, huh.NewOption(p.Title(), string(p)))
	}

	intro := "Set a province and income for your personal tax breakdown."
	if count > 0 {
		intro = fmt.Sprintf("Found %d jurisdictions in %s.\n\n%s", count, dataDir, intro)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to canadaspends").
				Description(intro),
			huh.NewSelect[string]().
				Title("Province").
				Options(provinces...).
				Value(&vals.province),
			huh.NewInput().
				Title("Annual income").
				Prompt("$ ").
				Value(&vals.income).
				Validate(func(s string) error {
					_, err := cli.ParseIncome(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// merged returns vals applied on top of the config they started from.
func (v *setupValues) merged() config.Config {
	cfg := v.cfg
	if p, ok := tax.ParseProvince(v.province); ok {
		cfg.General.Province = string(p)
	}
	if income, err := cli.ParseIncome(v.income); err == nil {
		cfg.General.Income = income
	}
	cfg.Appearance.Theme = v.theme
	return cfg
}

func (a *App) applySetup() {
	if a.setupVals == nil {
		return
	}
	cfg := a.setupVals.merged()
	a.setupVals.saveErr = config.Save(cfg)

	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	if p, ok := tax.ParseProvince(cfg.General.Province); ok {
		a.province = p
	}
	a.income = cfg.General.Income
	a.recomputeTax()
}
