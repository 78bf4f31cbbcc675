package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	dir := dataDir(cfg)

	province := cfg.General.Province
	if p, ok := tax.ParseProvince(province); ok {
		province = string(p)
	} else {
		province = string(tax.ProvinceOntario)
	}
	income := strconv.FormatFloat(cfg.General.Income, 'f', -1, 64)
	themeName := theme.ByName(cfg.Appearance.Theme).Name
	dataDirValue := cfg.General.DataDir
	live := cfg.Budget.Live

	provinces := make([]huh.Option[string], 0, len(tax.Provinces))
	for _, p := range tax.Provinces {
		provinces = append(provinces, huh.NewOption(p.Title(), string(p)))
	}

	intro := "Set a province and income for your personal tax breakdown."
	if found, err := source.ScanDir(dir); err == nil && len(found) > 0 {
		counts := source.CountByKind(found)
		intro = fmt.Sprintf("Found %d provincial and %d municipal jurisdictions in %s.\n\n%s",
			counts[source.KindProvincial], counts[source.KindMunicipal], dir, intro)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to canadaspends").
				Description(intro),
			huh.NewSelect[string]().
				Title("Province").
				Options(provinces...).
				Value(&province),
			huh.NewInput().
				Title("Annual income").
				Prompt("$ ").
				Value(&income).
				Validate(func(s string) error {
					_, err := cli.ParseIncome(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Data directory").
				Description("Leave blank to use $"+config.DataDirEnv+" or ./data").
				Value(&dataDirValue),
			huh.NewConfirm().
				Title("Use the official budget?").
				Description("No applies the preliminary 7.5% operating reductions.").
				Value(&live),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&themeName),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	cfg.General.Province = province
	if v, err := cli.ParseIncome(income); err == nil {
		cfg.General.Income = v
	}
	cfg.General.DataDir = dataDirValue
	if live != cfg.Budget.Live {
		cfg.Budget.Reductions = nil
	}
	cfg.Budget.Live = live
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `canadaspends setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
