package budget

import "math"

// Summary is the chart-ready rollup of a spending and revenue tree pair.
type Summary struct {
	Total            float64 `json:"total"`
	Spending         float64 `json:"spending"`
	Revenue          float64 `json:"revenue"`
	Deficit          float64 `json:"deficit"`
	BaselineSpending float64 `json:"baseline_spending"`

	Opex2024      float64 `json:"opex2024"`
	Capex2024     float64 `json:"capex2024"`
	Opex2025      float64 `json:"opex2025"`
	Capex2025     float64 `json:"capex2025"`
	Transfers2024 float64 `json:"transfers2024"`
	Transfers2025 float64 `json:"transfers2025"`
	Debt2024      float64 `json:"debt2024"`
	Debt2025      float64 `json:"debt2025"`
	Other2024     float64 `json:"other2024"`
	Other2025     float64 `json:"other2025"`

	SpendingData Node `json:"spending_data"`
	RevenueData  Node `json:"revenue_data"`
}

// Summarize transforms spending under r, processes revenue, and computes
// the headline totals. Total is the larger of 2025 spending and revenue so
// both sides of a chart fit on one scale.
func Summarize(spending, revenue Node, r Reductions) Summary {
	spendingOut, sums := Transform(spending, r)
	revenueOut := ProcessRevenue(revenue)

	spend2025 := sums.Total2025()
	revenue2025 := Total(revenueOut, true)

	return Summary{
		Total:            math.Max(spend2025, revenue2025),
		Spending:         spend2025,
		Revenue:          revenue2025,
		Deficit:          spend2025 - revenue2025,
		BaselineSpending: sums.Total2024(),

		Opex2024:      sums.Op2024,
		Capex2024:     sums.Capital2024,
		Opex2025:      sums.Op2025,
		Capex2025:     sums.Capital2025,
		Transfers2024: sums.Transfer2024,
		Transfers2025: sums.Transfer2025,
		Debt2024:      sums.Debt2024,
		Debt2025:      sums.Debt2025,
		Other2024:     sums.Other2024,
		Other2025:     sums.Other2025,

		SpendingData: spendingOut,
		RevenueData:  revenueOut,
	}
}

// Sums returns the split amounts recorded in s.
func (s Summary) Sums() SplitAmounts {
	return SplitAmounts{
		Op2024:       s.Opex2024,
		Capital2024:  s.Capex2024,
		Op2025:       s.Opex2025,
		Capital2025:  s.Capex2025,
		Transfer2024: s.Transfers2024,
		Transfer2025: s.Transfers2025,
		Debt2024:     s.Debt2024,
		Debt2025:     s.Debt2025,
		Other2024:    s.Other2024,
		Other2025:    s.Other2025,
	}
}
