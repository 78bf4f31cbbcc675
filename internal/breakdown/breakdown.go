// Package breakdown allocates a taxpayer's federal and provincial tax across
// government spending categories.
package breakdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

// ErrUnsupportedProvince is returned for provinces without a spending table.
var ErrUnsupportedProvince = errors.New("province not supported")

// Breakdown is the full personal spending breakdown for one tax calculation.
type Breakdown struct {
	TaxCalculation     tax.Calculation    `json:"taxCalculation"`
	Province           tax.Province       `json:"province"`
	FederalSpending    []SpendingCategory `json:"federalSpending"`
	ProvincialSpending []SpendingCategory `json:"provincialSpending"`
	CombinedSpending   []SpendingCategory `json:"combinedSpending"`
	CombinedChartData  []CombinedItem     `json:"combinedChartData"`
	TransferAmount     float64            `json:"transferAmount"`
}

// Calculate builds a breakdown using DefaultThreshold.
func Calculate(calc tax.Calculation, province string) (Breakdown, error) {
	return CalculateWithThreshold(calc, province, DefaultThreshold)
}

// CalculateWithThreshold builds a breakdown, folding lines under threshold
// dollars into Other.
//
// The province's federal transfer is added to its provincial tax before the
// provincial table is applied, so the transfer is spent by the province.
func CalculateWithThreshold(calc tax.Calculation, province string, threshold float64) (Breakdown, error) {
	p := tax.Province(strings.ToLower(strings.TrimSpace(province)))
	data, ok := LookupProvince(p)
	if !ok {
		return Breakdown{}, fmt.Errorf("province %q: %w", province, ErrUnsupportedProvince)
	}

	federal := Allocate(calc.FederalTax, FederalTable, LevelFederal)

	var transfer float64
	for _, c := range federal {
		if c.Name == data.FederalTransferName {
			transfer = c.Amount
			break
		}
	}
	provincial := Allocate(calc.ProvincialTax+transfer, data.Categories, LevelProvincial)

	federalGrouped := GroupSmallAmounts(federal, threshold)
	provincialGrouped := GroupSmallAmounts(provincial, threshold)

	return Breakdown{
		TaxCalculation:     calc,
		Province:           p,
		FederalSpending:    federalGrouped,
		ProvincialSpending: provincialGrouped,
		CombinedSpending:   GroupSmallAmounts(Combine(federal, provincial, p), threshold),
		CombinedChartData:  CombineForChart(federalGrouped, provincialGrouped, p),
		TransferAmount:     transfer,
	}, nil
}

// CalculateForIncome computes tax for income in province and breaks it down.
func CalculateForIncome(income float64, province string, threshold float64) (Breakdown, error) {
	return CalculateWithThreshold(tax.TotalTax(income, province), province, threshold)
}
