package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/breakdown"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
)

var (
	flagCombined  bool
	flagThreshold float64
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Where your federal and provincial tax dollars are spent",
	RunE:  runBreakdown,
}

func init() {
	breakdownCmd.Flags().BoolVar(&flagCombined, "combined", false, "Merge federal and provincial spending into one list")
	breakdownCmd.Flags().Float64Var(&flagThreshold, "threshold", breakdown.DefaultThreshold, "Group lines under this dollar amount into Other")
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	province, income, err := personal(cfg)
	if err != nil {
		return err
	}

	threshold := cfg.Breakdown.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = flagThreshold
	}
	if threshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %.2f", threshold)
	}

	bd, err := breakdown.CalculateForIncome(income, province, threshold)
	if err != nil {
		return err
	}
	calc := bd.TaxCalculation

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("YOUR TAX DOLLARS  %s  %s",
		cli.FormatDollars(calc.TotalTax), bd.Province.Title())))
	fmt.Println()

	if flagCombined {
		printCategories("Combined spending", bd.CombinedSpending, true)
		return nil
	}

	printCategories(fmt.Sprintf("Federal  %s", cli.FormatDollars(calc.FederalTax)), bd.FederalSpending, false)
	fmt.Println()
	printCategories(fmt.Sprintf("%s  %s incl. %s federal transfer",
		bd.Province.Title(), cli.FormatDollars(calc.ProvincialTax+bd.TransferAmount),
		cli.FormatDollars(bd.TransferAmount)), bd.ProvincialSpending, false)
	return nil
}

func printCategories(title string, items []breakdown.SpendingCategory, withLevel bool) {
	headers := []string{"Category", "Amount", "Share"}
	if withLevel {
		headers = append(headers, "Level")
	}

	rows := make([][]string, 0, len(items)+2)
	for _, c := range items {
		row := []string{c.Name, c.FormattedAmount, c.FormattedPercentage}
		if withLevel {
			row = append(row, string(c.Level))
		}
		rows = append(rows, row)
	}
	total := []string{"Total", cli.FormatDollars(breakdown.Sum(items)), ""}
	if withLevel {
		total = append(total, "")
	}
	rows = append(rows, []string{"---"}, total)

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: headers,
		Rows:    rows,
	}))

	peak := 0.0
	for _, c := range items {
		if c.Amount > peak {
			peak = c.Amount
		}
	}
	if peak > 0 && !withLevel {
		for _, c := range items {
			fmt.Println(cli.RenderShareBar(c.Name, 32, c.Amount, peak, 30, c.FormattedAmount))
		}
	}
}
