package breakdown

import (
	"sort"

	"github.com/mackenziebowes/CanadaSpends/internal/money"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

// CombinedItem is one stacked bar: federal and provincial dollars for a category.
type CombinedItem struct {
	Name             string  `json:"name"`
	FederalAmount    float64 `json:"federalAmount"`
	ProvincialAmount float64 `json:"provincialAmount"`
	TotalAmount      float64 `json:"totalAmount"`
	FormattedTotal   string  `json:"formattedTotal"`
}

// orderedSet keeps insertion order for keyed entries.
type orderedSet[T any] struct {
	keys  []string
	items map[string]*T
}

func newOrderedSet[T any]() *orderedSet[T] {
	return &orderedSet[T]{items: make(map[string]*T)}
}

func (s *orderedSet[T]) get(key string) (*T, bool) {
	v, ok := s.items[key]
	return v, ok
}

func (s *orderedSet[T]) upsert(key string) *T {
	if v, ok := s.items[key]; ok {
		return v
	}
	v := new(T)
	s.items[key] = v
	s.keys = append(s.keys, key)
	return v
}

func (s *orderedSet[T]) values() []T {
	out := make([]T, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, *s.items[k])
	}
	return out
}

func transferName(province tax.Province) string {
	if d, ok := LookupProvince(province); ok {
		return d.FederalTransferName
	}
	return ""
}

// CombineForChart merges federal and provincial lines into stacked bar data.
// The province's own transfer line is dropped since it is already counted in
// provincial spending. Transfers to every other province collapse into one
// line. Items are sorted by total, largest first, with Other last.
func CombineForChart(federal, provincial []SpendingCategory, province tax.Province) []CombinedItem {
	own := transferName(province)
	set := newOrderedSet[CombinedItem]()

	var transfers float64
	for _, c := range federal {
		switch {
		case c.Name == own:
			continue
		case isTransferLine(c.Name):
			transfers += c.Amount
		default:
			item := set.upsert(c.Name)
			item.Name = c.Name
			item.FederalAmount = c.Amount
		}
	}
	if transfers > 0 {
		item := set.upsert(OtherProvincesTransferLabel)
		*item = CombinedItem{Name: OtherProvincesTransferLabel, FederalAmount: transfers}
	}

	for _, c := range provincial {
		item := set.upsert(c.Name)
		item.Name = c.Name
		item.ProvincialAmount = c.Amount
	}

	out := set.values()
	for i := range out {
		out[i].TotalAmount = out[i].FederalAmount + out[i].ProvincialAmount
		out[i].FormattedTotal = money.FormatWhole(out[i].TotalAmount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == OtherCategory {
			return false
		}
		if out[j].Name == OtherCategory {
			return true
		}
		return out[i].TotalAmount > out[j].TotalAmount
	})
	return out
}

// Combine merges federal and provincial lines into a single list. Lines with
// the same name are summed and attributed to the federal level. Percentages
// are recomputed against the combined total. The result is sorted by amount,
// largest first.
func Combine(federal, provincial []SpendingCategory, province tax.Province) []SpendingCategory {
	own := transferName(province)
	set := newOrderedSet[SpendingCategory]()

	var transfers, transferPct float64
	for _, c := range federal {
		switch {
		case c.Name == own:
			continue
		case isTransferLine(c.Name):
			transfers += c.Amount
			transferPct += c.Percentage
		default:
			item := set.upsert(c.Name)
			*item = c
			item.Level = LevelFederal
		}
	}
	if transfers > 0 {
		item := set.upsert(OtherProvincesTransferLabel)
		*item = newCategory(OtherProvincesTransferLabel, transfers, transferPct, LevelFederal)
	}

	for _, c := range provincial {
		if item, ok := set.get(c.Name); ok {
			item.Amount += c.Amount
			item.Level = LevelFederal
			continue
		}
		item := set.upsert(c.Name)
		*item = c
		item.Level = LevelProvincial
	}

	out := set.values()
	total := Sum(out)
	for i := range out {
		var pct float64
		if total > 0 {
			pct = out[i].Amount / total * 100
		}
		out[i] = newCategory(out[i].Name, out[i].Amount, pct, out[i].Level)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}
