package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
)

var (
	flagReduction      []string
	flagReductionsFile string
	flagLive           bool
	flagRevenue        bool
	flagSpendingTree   string
	flagRevenueTree    string
	flagBudgetJur      string
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Federal or jurisdiction budget summary with spending reductions",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().StringArrayVar(&flagReduction, "reduction", nil, "Category reduction as category=percent or category:percent (repeatable)")
	budgetCmd.Flags().StringVar(&flagReductionsFile, "reductions", "", "YAML file mapping category to percent")
	budgetCmd.Flags().BoolVar(&flagLive, "live", false, "Start from the official budget (no preliminary reductions)")
	budgetCmd.Flags().BoolVar(&flagRevenue, "revenue", false, "Show the revenue breakdown")
	budgetCmd.Flags().StringVar(&flagSpendingTree, "spending-tree", "", "YAML or JSON spending tree to use instead of the built-in one")
	budgetCmd.Flags().StringVar(&flagRevenueTree, "revenue-tree", "", "YAML or JSON revenue tree to use instead of the built-in one")
	budgetCmd.Flags().StringVarP(&flagBudgetJur, "jurisdiction", "j", "", "Summarize a jurisdiction's sankey data instead of the federal budget")
	budgetCmd.MarkFlagsMutuallyExclusive("jurisdiction", "spending-tree")
	budgetCmd.MarkFlagsMutuallyExclusive("jurisdiction", "revenue-tree")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	live := cfg.Budget.Live
	if cmd.Flags().Changed("live") {
		live = flagLive
	}

	// Config overrides apply only on top of the configured stage.
	r := budget.DefaultReductions(live)
	if live == cfg.Budget.Live {
		if configured, err := cfg.Reductions(); err == nil {
			r = configured
		} else if !flagQuiet {
			fmt.Println(cli.RenderWarning(err.Error()))
		}
	}
	if flagReductionsFile != "" {
		fromFile, err := budget.LoadReductions(flagReductionsFile)
		if err != nil {
			return err
		}
		r = r.Merge(fromFile)
	}
	if len(flagReduction) > 0 {
		fromFlags, err := budget.ParseReductions(flagReduction)
		if err != nil {
			return err
		}
		r = r.Merge(fromFlags)
	}
	if err := r.Validate(); err != nil {
		return err
	}

	name, spending, revenue, err := budgetTrees(cfg)
	if err != nil {
		return err
	}

	s := budget.Summarize(spending, revenue, r)
	sums := s.Sums()

	stage := "preliminary"
	if live {
		stage = "official"
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s BUDGET 2025  (%s)", strings.ToUpper(name), stage)))
	fmt.Println()
	if unmapped := unreducible(spending, r); len(unmapped) > 0 && !flagQuiet {
		fmt.Println(cli.RenderWarning("no program line maps to " + strings.Join(unmapped, ", ") + "; those cuts leave totals unchanged"))
		fmt.Println()
	}

	balanceLabel := "Deficit"
	balance := s.Deficit
	if balance < 0 {
		balanceLabel = "Surplus"
		balance = -balance
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "2024", "2025", "Change"},
		Rows: [][]string{
			{"Operating", cli.FormatBillions(sums.Op2024), cli.FormatBillions(sums.Op2025), cli.FormatDelta(sums.Op2025 - sums.Op2024)},
			{"Capital", cli.FormatBillions(sums.Capital2024), cli.FormatBillions(sums.Capital2025), cli.FormatDelta(sums.Capital2025 - sums.Capital2024)},
			{"Transfers", cli.FormatBillions(sums.Transfer2024), cli.FormatBillions(sums.Transfer2025), cli.FormatDelta(sums.Transfer2025 - sums.Transfer2024)},
			{"Debt charges", cli.FormatBillions(sums.Debt2024), cli.FormatBillions(sums.Debt2025), cli.FormatDelta(sums.Debt2025 - sums.Debt2024)},
			{"Other", cli.FormatBillions(sums.Other2024), cli.FormatBillions(sums.Other2025), cli.FormatDelta(sums.Other2025 - sums.Other2024)},
			{"---"},
			{"Spending", cli.FormatBillions(s.BaselineSpending), cli.FormatBillions(s.Spending), cli.FormatDelta(s.Spending - s.BaselineSpending)},
			{"Revenue", "", cli.FormatBillions(s.Revenue), ""},
			{balanceLabel, "", cli.FormatBillions(balance), ""},
		},
	}))
	fmt.Println()

	reductionRows := make([][]string, 0, len(budget.Categories))
	for _, c := range budget.Categories {
		reductionRows = append(reductionRows, []string{string(c), cli.FormatReduction(r.For(c))})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Operating reductions",
		Headers: []string{"Category", "Cut"},
		Rows:    reductionRows,
	}))
	fmt.Println()

	printTreeShares("Spending by area (2025)", s.SpendingData, s.Spending)
	if flagRevenue {
		fmt.Println()
		printTreeShares("Revenue by source (2025)", s.RevenueData, s.Revenue)
	}
	return nil
}

// budgetTrees returns the trees to summarize and their display name.
func budgetTrees(cfg config.Config) (string, budget.Node, budget.Node, error) {
	if flagBudgetJur != "" {
		dir := dataDir(cfg)
		data, err := source.Load(dir, flagBudgetJur)
		if errors.Is(err, source.ErrJurisdictionNotFound) {
			if slugs, serr := source.JurisdictionSlugs(dir); serr == nil && len(slugs) > 0 {
				return "", budget.Node{}, budget.Node{}, fmt.Errorf("%w (available: %s)", err, strings.Join(slugs, ", "))
			}
		}
		if err != nil {
			return "", budget.Node{}, budget.Node{}, err
		}
		return data.Jurisdiction.Name, data.Sankey.SpendingTree(), data.Sankey.RevenueTree(), nil
	}

	spending, err := treeOrDefault(flagSpendingTree, budget.FederalSpending)
	if err != nil {
		return "", budget.Node{}, budget.Node{}, err
	}
	revenue, err := treeOrDefault(flagRevenueTree, budget.FederalRevenue)
	if err != nil {
		return "", budget.Node{}, budget.Node{}, err
	}
	return "Federal", spending, revenue, nil
}

// unreducible lists the categories with a nonzero cut that no program line
// in spending maps to.
func unreducible(spending budget.Node, r budget.Reductions) []string {
	reducible := budget.ReducibleCategories(spending)
	var out []string
	for _, c := range budget.Categories {
		if r.For(c) != 0 && !reducible[c] {
			out = append(out, string(c))
		}
	}
	return out
}

func treeOrDefault(path string, def func() budget.Node) (budget.Node, error) {
	if path == "" {
		return def(), nil
	}
	n, err := budget.LoadTree(path)
	if err != nil {
		return budget.Node{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return n, nil
}

// displayTotal sums the display amounts of the leaves under n.
func displayTotal(n budget.Node) float64 {
	var sum float64
	for _, l := range n.Leaves() {
		sum += l.Amount
	}
	return sum
}

func printTreeShares(title string, root budget.Node, total float64) {
	fmt.Println("  " + title)
	amounts := make([]float64, len(root.Children))
	peak := 0.0
	for i, c := range root.Children {
		amounts[i] = displayTotal(c)
		if amounts[i] > peak {
			peak = amounts[i]
		}
	}
	for i, c := range root.Children {
		share := 0.0
		if total > 0 {
			share = amounts[i] / total * 100
		}
		fmt.Println(cli.RenderShareBar(c.Name, 34, amounts[i], peak, 28,
			fmt.Sprintf("%s  %s", cli.FormatBillions(amounts[i]), cli.FormatRate(share))))
	}
}
