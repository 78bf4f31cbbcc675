package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Federal and provincial income tax for an income",
	RunE:  runTax,
}

func init() {
	rootCmd.AddCommand(taxCmd)
}

func runTax(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	provinceName, income, err := personal(cfg)
	if err != nil {
		return err
	}

	calc := tax.TotalTax(income, provinceName)
	province, ok := provinceOrDefault(provinceName)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("INCOME TAX  %s  %s", cli.FormatDollars(income), province.Title())))
	fmt.Println()
	if !ok {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%q is not modeled, using %s rates", provinceName, province.Title())))
		fmt.Println()
	}

	fed := tax.Federal
	prov := tax.ScheduleFor(province)

	rows := [][]string{
		{"Gross income", cli.FormatDollars(calc.GrossIncome), ""},
		{"---"},
		{"Federal tax", cli.FormatDollars(calc.FederalTax), cli.FormatRate(tax.MarginalRate(income, fed.Brackets) * 100)},
		{prov.Name + " tax", cli.FormatDollars(calc.ProvincialTax), cli.FormatRate(tax.MarginalRate(income, prov.Brackets) * 100)},
	}
	if province == tax.ProvinceOntario {
		base := tax.OntarioTax(income)
		rows = append(rows,
			[]string{"  incl. health premium", cli.FormatDollars(tax.OntarioHealthPremium(income)), ""},
			[]string{"  incl. surtax", cli.FormatDollars(tax.OntarioSurtax(base + tax.OntarioHealthPremium(income))), ""},
		)
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Total tax", cli.FormatDollars(calc.TotalTax), cli.FormatRate(calc.EffectiveTaxRate)},
		[]string{"Net income", cli.FormatDollars(calc.NetIncome), ""},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "Amount", "Rate"},
		Rows:    rows,
	}))
	fmt.Println(cli.RenderMuted("  Rate column: marginal rate per level, effective rate for the total."))
	return nil
}
