package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
)

var (
	flagJurProvince string
	flagJurKind     string
	flagJurSearch   string
	flagJurLimit    int
	flagJurCities   bool
)

var jurisdictionsCmd = &cobra.Command{
	Use:     "jurisdictions",
	Aliases: []string{"j"},
	Short:   "Provincial and municipal data sets with headline numbers",
	RunE:    runJurisdictions,
}

func init() {
	jurisdictionsCmd.Flags().StringVar(&flagJurProvince, "in", "", "Only jurisdictions in this province")
	jurisdictionsCmd.Flags().StringVar(&flagJurKind, "kind", "", "Only provincial or municipal jurisdictions")
	jurisdictionsCmd.Flags().StringVarP(&flagJurSearch, "search", "s", "", "Filter by name or key (substring match)")
	jurisdictionsCmd.Flags().IntVarP(&flagJurLimit, "limit", "n", 0, "Show at most n jurisdictions, largest first")
	jurisdictionsCmd.Flags().BoolVar(&flagJurCities, "cities", false, "List municipalities grouped by province")
	rootCmd.AddCommand(jurisdictionsCmd)
}

func runJurisdictions(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	dir := dataDir(cfg)

	if flagJurCities {
		return printMunicipalities(dir, flagJurProvince)
	}

	result, err := loadData(ctxOrBackground(cmd), dir)
	if err != nil {
		return err
	}
	if len(result.Jurisdictions) == 0 {
		fmt.Printf("\n  No jurisdiction data found in %s.\n", dir)
		fmt.Println("  Point --data-dir at a CanadaSpends data/ directory.")
		return nil
	}

	stats := pipeline.FilterByProvince(result.Jurisdictions, flagJurProvince)
	if flagJurKind != "" {
		kind := source.Kind(flagJurKind)
		if kind != source.KindProvincial && kind != source.KindMunicipal {
			return fmt.Errorf("unknown kind %q (want provincial or municipal)", flagJurKind)
		}
		stats = pipeline.FilterByKind(stats, kind)
	}
	if flagJurSearch != "" {
		stats = pipeline.Search(stats, flagJurSearch)
	}
	stats = pipeline.TopJurisdictions(stats, flagJurLimit)

	overview := pipeline.Aggregate(result.Jurisdictions)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("JURISDICTIONS  %d provincial  %d municipal",
		overview.Provincial, overview.Municipal)))
	fmt.Println()

	rows := make([][]string, 0, len(stats))
	for _, j := range stats {
		rows = append(rows, []string{
			j.Key,
			j.Name,
			j.FinancialYear,
			cli.FormatBillions(j.Spending),
			cli.FormatCompact(j.Employees),
			cli.FormatBillions(j.DebtInterest),
			cli.FormatBillions(j.NetDebt),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Key", "Name", "Year", "Spending", "Staff", "Interest", "Net debt"},
		Rows:    rows,
	}))

	if len(overview.Provinces) > 1 && flagJurProvince == "" {
		fmt.Println()
		provRows := make([][]string, 0, len(overview.Provinces))
		for _, p := range overview.Provinces {
			provRows = append(provRows, []string{
				p.Name,
				cli.FormatBillions(p.ProvincialSpending),
				fmt.Sprintf("%d", p.Municipalities),
				cli.FormatBillions(p.MunicipalSpending),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "By province",
			Headers: []string{"Province", "Provincial", "Cities", "Municipal"},
			Rows:    provRows,
		}))
	}

	if overview.Largest != "" {
		fmt.Println()
		fmt.Println(cli.RenderKV("Largest", fmt.Sprintf("%s (%s)", overview.Largest, cli.FormatBillions(overview.LargestAmt))))
		fmt.Println(cli.RenderKV("Total spending", cli.FormatBillions(overview.TotalSpending())))
		fmt.Println(cli.RenderKV("Total debt interest", cli.FormatBillions(overview.TotalDebtInterest)))
	}
	return nil
}

func printMunicipalities(dir, province string) error {
	groups, err := source.MunicipalitiesByProvince(dir)
	if err != nil {
		return err
	}
	rows := municipalityRows(groups, province)
	if len(rows) == 0 {
		fmt.Printf("\n  No municipal data found in %s.\n", dir)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MUNICIPALITIES"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Province", "Municipality", "Key"},
		Rows:    rows,
	}))
	return nil
}

// municipalityRows flattens groups into table rows, with a separator between
// provinces. A non-empty province keeps only that province.
func municipalityRows(groups []source.ProvinceMunicipalities, province string) [][]string {
	var rows [][]string
	for _, g := range groups {
		if province != "" && !strings.EqualFold(g.Province, province) {
			continue
		}
		if len(rows) > 0 {
			rows = append(rows, []string{"---"})
		}
		for i, m := range g.Municipalities {
			label := ""
			if i == 0 {
				label = source.ProvinceName(g.Province)
			}
			rows = append(rows, []string{label, m.Name, g.Province + "/" + m.Slug})
		}
	}
	return rows
}

// ctxOrBackground returns the command context, which is nil when a command
// runs outside ExecuteContext.
func ctxOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
