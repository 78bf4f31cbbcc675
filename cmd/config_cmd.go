package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Province:   %s\n", cfg.General.Province)
	fmt.Printf("    Income:     %s\n", cli.FormatDollars(cfg.General.Income))
	fmt.Printf("    Data dir:   %s\n", config.ResolveDataDir(flagDataDir, cfg))
	fmt.Println()

	fmt.Println("  [Breakdown]")
	fmt.Printf("    Threshold:  %s\n", cli.FormatDollars(cfg.Breakdown.Threshold))
	fmt.Println()

	fmt.Println("  [Budget]")
	stage := "preliminary"
	if cfg.Budget.Live {
		stage = "official (live)"
	}
	fmt.Printf("    Stage:      %s\n", stage)
	r, rerr := cfg.Reductions()
	if rerr != nil {
		fmt.Println(cli.RenderWarning("  " + rerr.Error()))
	}
	for _, c := range budget.Categories {
		marker := ""
		if _, ok := cfg.Budget.Reductions[string(c)]; ok {
			marker = "  (configured)"
		}
		fmt.Printf("    %-34s %6s%s\n", c, cli.FormatReduction(r.For(c)), marker)
	}
	var unknown []string
	for name := range cfg.Budget.Reductions {
		if _, ok := budget.ParseCategory(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("  unknown category %q", name)))
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:    %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:   %ds\n", cfg.Daemon.IntervalSec)
	if cfg.Daemon.RedisAddr != "" {
		fmt.Printf("    Redis:      %s\n", cfg.Daemon.RedisAddr)
	} else {
		fmt.Println("    Redis:      not configured (in-memory cache)")
	}
	fmt.Printf("    Rate limit: %d requests per %ds\n", cfg.Daemon.RateLimit, cfg.Daemon.RateWindowSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:      %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `canadaspends setup` to reconfigure.")
	return nil
}
