// Package model defines the domain types for jurisdiction spending statistics.
package model

// JurisdictionStats holds the headline numbers of one jurisdiction.
// Dollar amounts are in billions, as published in summary.json.
type JurisdictionStats struct {
	Key           string `json:"key"` // "ontario" or "ontario/toronto"
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Kind          string `json:"kind"` // provincial or municipal
	Province      string `json:"province"`
	Year          string `json:"year,omitempty"`
	FinancialYear string `json:"financialYear"`
	FilePath      string `json:"-"` // summary.json the stats were parsed from

	Spending     float64 `json:"spending"`
	Employees    int64   `json:"employees"`
	DebtInterest float64 `json:"debtInterest"`
	NetDebt      float64 `json:"netDebt"`
	TotalDebt    float64 `json:"totalDebt"`
	Population   int64   `json:"population,omitempty"`

	Departments int `json:"departments"`
	Ministries  int `json:"ministries"`

	SankeySpending float64 `json:"sankeySpending"`
	SankeyRevenue  float64 `json:"sankeyRevenue"`
}

// Balance returns sankey revenue minus sankey spending. Negative is a deficit.
func (j JurisdictionStats) Balance() float64 {
	return j.SankeyRevenue - j.SankeySpending
}

// PerCapita returns spending in dollars per resident, or 0 without a population.
func (j JurisdictionStats) PerCapita() float64 {
	if j.Population <= 0 {
		return 0
	}
	return j.Spending * 1e9 / float64(j.Population)
}

// DebtInterestShare returns debt interest as a percentage of spending.
func (j JurisdictionStats) DebtInterestShare() float64 {
	if j.Spending == 0 {
		return 0
	}
	return j.DebtInterest / j.Spending * 100
}
