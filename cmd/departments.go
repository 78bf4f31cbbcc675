package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
)

var flagDeptLimit int

var departmentsCmd = &cobra.Command{
	Use:   "departments <jurisdiction> [department]",
	Short: "Per-department spending for a jurisdiction",
	Long:  "Per-department spending. The jurisdiction is a province (ontario), a municipality with its province (ontario/toronto), or a bare municipality (toronto). Name a department to list its spending lines.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDepartments,
}

func init() {
	departmentsCmd.Flags().IntVarP(&flagDeptLimit, "limit", "n", 0, "Show at most n departments")
	rootCmd.AddCommand(departmentsCmd)
}

func runDepartments(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	dir := dataDir(cfg)
	slug := args[0]
	if len(args) == 2 {
		return runDepartment(dir, slug, args[1])
	}

	data, err := source.Load(dir, slug)
	if err != nil {
		return err
	}
	depts, err := source.ExpandedDepartments(dir, slug)
	if err != nil {
		return err
	}

	j := data.Jurisdiction
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", j.Name, j.FinancialYear)))
	fmt.Println()
	fmt.Println(cli.RenderKV("Total spending", cli.FormatBillions(j.TotalProvincialSpending)))
	fmt.Println(cli.RenderKV("Sankey spending", cli.FormatBillions(data.Sankey.SpendingData.Total())))
	fmt.Println(cli.RenderKV("Sankey revenue", cli.FormatBillions(data.Sankey.RevenueData.Total())))
	fmt.Println(cli.RenderKV("Debt interest", cli.FormatBillions(j.DebtInterest)))
	if j.Source != "" {
		fmt.Println(cli.RenderKV("Source", j.Source))
	}
	fmt.Println()

	if len(depts) == 0 {
		fmt.Println("  No department data for this jurisdiction.")
		return nil
	}

	byName := make(map[string]source.Department, len(depts))
	for _, d := range depts {
		byName[d.Slug] = d
	}

	ranked := pipeline.TopDepartments(depts, flagDeptLimit)
	rows := make([][]string, 0, len(ranked))
	for i, d := range ranked {
		amount := byName[d.Slug].TotalSpendingFormatted
		if amount == "" {
			amount = cli.FormatBillions(d.Spending)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			d.Name,
			amount,
			cli.FormatRate(d.SharePercent),
			source.DepartmentHref(slug, d.Slug, ""),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Departments (%d)", len(depts)),
		Headers: []string{"#", "Department", "Spending", "Share", "Page"},
		Rows:    rows,
	}))
	return nil
}

func runDepartment(dir, jurisdiction, slug string) error {
	d, err := source.ParseDepartment(dir, jurisdiction, slug)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(d.Name))
	fmt.Println()
	total := d.TotalSpendingFormatted
	if total == "" {
		total = cli.FormatBillions(d.TotalSpending)
	}
	fmt.Println(cli.RenderKV("Spending", total))
	if d.PercentageFormatted != "" {
		fmt.Println(cli.RenderKV("Share of jurisdiction", d.PercentageFormatted))
	}
	if d.IntroText != "" {
		fmt.Println()
		fmt.Println("  " + d.IntroText)
	}
	fmt.Println()

	lines := d.Categories
	if len(lines) == 0 {
		for _, c := range d.SpendingData.Children {
			lines = append(lines, source.DepartmentLine{Name: c.Name, Amount: c.Total()})
		}
	}
	if len(lines) == 0 {
		return nil
	}

	peak := 0.0
	for _, l := range lines {
		if l.Amount > peak {
			peak = l.Amount
		}
	}
	for _, l := range lines {
		fmt.Println(cli.RenderShareBar(l.Name, 34, l.Amount, peak, 28, cli.FormatBillions(l.Amount)))
	}
	return nil
}
