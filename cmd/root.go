// Package cmd implements the canadaspends CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/store"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

var (
	flagDataDir  string
	flagProvince string
	flagIncome   float64
	flagNoCache  bool
	flagQuiet    bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "canadaspends",
	Short: "Canadian government spending and personal tax CLI",
	Long:  "Calculate your income tax, see where it is spent, and explore federal, provincial and municipal budgets.",
	RunE:  runTax,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError("error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Jurisdiction data directory (default: $"+config.DataDirEnv+", config, ./data)")
	rootCmd.PersistentFlags().StringVarP(&flagProvince, "province", "p", "", "Province for tax calculations (ontario, alberta)")
	rootCmd.PersistentFlags().Float64VarP(&flagIncome, "income", "i", 0, "Annual gross income in dollars")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging for the daemon")
}

// loadConfig reads the config file, warning on stderr and falling back to
// defaults when it cannot be parsed.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
		}
		return config.DefaultConfig()
	}
	return cfg
}

// personal resolves the province and income from flags, then config.
func personal(cfg config.Config) (string, float64, error) {
	province := cfg.General.Province
	if flagProvince != "" {
		province = flagProvince
	}
	income := cfg.General.Income
	if rootCmd.PersistentFlags().Changed("income") {
		income = flagIncome
	}
	if income < 0 {
		return "", 0, fmt.Errorf("income must not be negative, got %.2f", income)
	}
	return province, income, nil
}

// dataDir resolves the jurisdiction data directory.
func dataDir(cfg config.Config) string {
	return config.ResolveDataDir(flagDataDir, cfg)
}

// loadData is the shared jurisdiction loading path.
// Uses the SQLite cache when available for fast subsequent runs.
func loadData(ctx context.Context, dir string) (*pipeline.LoadResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 24))
		}
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(ctx, dir, cache, progressFn)
			if err != nil {
				if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\n  Cache error, falling back to full parse\n")
				}
			} else {
				if !flagQuiet && cr.TotalFiles > 0 {
					if cr.Reparsed == 0 {
						fmt.Fprintf(os.Stderr, "\r  Loaded %s jurisdictions from cache    \n",
							cli.FormatCount(int64(len(cr.Jurisdictions))))
					} else {
						fmt.Fprintf(os.Stderr, "\r  %s cached + %d reparsed    \n",
							cli.FormatCount(int64(cr.CacheHits)), cr.Reparsed)
					}
				}
				reportFileErrors(cr.FileErrors)
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.Load(ctx, dir, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %s jurisdictions    \n",
			cli.FormatCount(int64(result.ParsedFiles)))
	}
	reportFileErrors(result.FileErrors)
	return result, nil
}

func reportFileErrors(errs []pipeline.FileError) {
	if flagQuiet {
		return
	}
	for _, fe := range errs {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("skipped "+fe.Error()))
	}
}

// provinceOrDefault returns the modeled province for s, and whether s named
// one. Unknown names fall back to Ontario, matching tax.TotalTax.
func provinceOrDefault(s string) (tax.Province, bool) {
	if p, ok := tax.ParseProvince(s); ok {
		return p, true
	}
	return tax.ProvinceOntario, false
}
