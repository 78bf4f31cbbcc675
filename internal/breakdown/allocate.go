package breakdown

import (
	"sort"

	"github.com/mackenziebowes/CanadaSpends/internal/money"
)

// Level is the order of government a spending line belongs to.
type Level string

// Government levels.
const (
	LevelFederal    Level = "federal"
	LevelProvincial Level = "provincial"
)

// DefaultThreshold is the dollar amount below which lines fold into Other.
const DefaultThreshold = 20.0

// SpendingCategory is a share of a taxpayer's money spent on one category.
type SpendingCategory struct {
	Name                string  `json:"name"`
	Amount              float64 `json:"amount"`
	Percentage          float64 `json:"percentage"`
	FormattedAmount     string  `json:"formattedAmount"`
	FormattedPercentage string  `json:"formattedPercentage"`
	Level               Level   `json:"level"`
}

func newCategory(name string, amount, pct float64, level Level) SpendingCategory {
	return SpendingCategory{
		Name:                name,
		Amount:              amount,
		Percentage:          pct,
		FormattedAmount:     money.FormatWhole(amount),
		FormattedPercentage: money.FormatPercentage(pct),
		Level:               level,
	}
}

// Allocate splits amount across table by percentage.
func Allocate(amount float64, table []Allocation, level Level) []SpendingCategory {
	out := make([]SpendingCategory, 0, len(table))
	for _, a := range table {
		out = append(out, newCategory(a.Name, amount*a.Percentage/100, a.Percentage, level))
	}
	return out
}

// GroupSmallAmounts folds every line below threshold, plus any existing
// Other line, into a single Other line placed last. The remaining lines are
// sorted by amount, largest first. The input is not modified.
func GroupSmallAmounts(items []SpendingCategory, threshold float64) []SpendingCategory {
	var (
		large []SpendingCategory
		small []SpendingCategory
		other *SpendingCategory
	)
	for i := range items {
		it := items[i]
		switch {
		case it.Name == OtherCategory:
			if other == nil {
				other = &it
			}
		case it.Amount >= threshold:
			large = append(large, it)
		default:
			small = append(small, it)
		}
	}

	sort.SliceStable(large, func(i, j int) bool { return large[i].Amount > large[j].Amount })

	if len(small) == 0 && other == nil {
		return large
	}

	var amount, pct float64
	for _, s := range small {
		amount += s.Amount
		pct += s.Percentage
	}

	level := LevelFederal
	switch {
	case other != nil:
		amount += other.Amount
		pct += other.Percentage
		if other.Level != "" {
			level = other.Level
		}
	case len(small) > 0:
		level = small[0].Level
	}

	return append(large, newCategory(OtherCategory, amount, pct, level))
}

// Sum returns the total amount across items.
func Sum(items []SpendingCategory) float64 {
	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return total
}
