// Package pipeline orchestrates jurisdiction loading, caching, and aggregation.
package pipeline

import (
	"sort"
	"strings"

	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
)

// Aggregate computes overview statistics across jurisdictions.
func Aggregate(stats []model.JurisdictionStats) model.Overview {
	var o model.Overview

	for _, j := range stats {
		o.Jurisdictions++
		switch source.Kind(j.Kind) {
		case source.KindProvincial:
			o.Provincial++
			o.ProvincialSpending += j.Spending
		case source.KindMunicipal:
			o.Municipal++
			o.MunicipalSpending += j.Spending
		}
		o.TotalDebtInterest += j.DebtInterest
		o.TotalEmployees += j.Employees
		o.TotalDepartments += j.Departments

		if o.Largest == "" || j.Spending > o.LargestAmt {
			o.Largest = j.Key
			o.LargestAmt = j.Spending
		}
	}

	o.Provinces = AggregateProvinces(stats)
	return o
}

// AggregateProvinces rolls jurisdictions up by province, sorted by display name.
func AggregateProvinces(stats []model.JurisdictionStats) []model.ProvinceStats {
	byProvince := make(map[string]*model.ProvinceStats)

	for _, j := range stats {
		ps, ok := byProvince[j.Province]
		if !ok {
			ps = &model.ProvinceStats{Province: j.Province, Name: source.ProvinceName(j.Province)}
			byProvince[j.Province] = ps
		}
		switch source.Kind(j.Kind) {
		case source.KindProvincial:
			ps.HasProvincial = true
			ps.ProvincialSpending += j.Spending
		case source.KindMunicipal:
			ps.Municipalities++
			ps.MunicipalSpending += j.Spending
		}
	}

	out := make([]model.ProvinceStats, 0, len(byProvince))
	for _, ps := range byProvince {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FilterByProvince returns jurisdictions in province, matched case-insensitively.
// An empty province returns stats unchanged.
func FilterByProvince(stats []model.JurisdictionStats, province string) []model.JurisdictionStats {
	if province == "" {
		return stats
	}
	var out []model.JurisdictionStats
	for _, j := range stats {
		if strings.EqualFold(j.Province, province) {
			out = append(out, j)
		}
	}
	return out
}

// FilterByKind returns jurisdictions of the given kind.
func FilterByKind(stats []model.JurisdictionStats, kind source.Kind) []model.JurisdictionStats {
	var out []model.JurisdictionStats
	for _, j := range stats {
		if source.Kind(j.Kind) == kind {
			out = append(out, j)
		}
	}
	return out
}

// Search returns jurisdictions whose key or name contains q.
func Search(stats []model.JurisdictionStats, q string) []model.JurisdictionStats {
	var out []model.JurisdictionStats
	for _, j := range stats {
		if containsIgnoreCase(j.Key, q) || containsIgnoreCase(j.Name, q) {
			out = append(out, j)
		}
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Lookup returns the jurisdiction matching key, or a bare slug when unique.
func Lookup(stats []model.JurisdictionStats, key string) (model.JurisdictionStats, bool) {
	for _, j := range stats {
		if j.Key == key {
			return j, true
		}
	}
	for _, j := range stats {
		if j.Slug == key {
			return j, true
		}
	}
	return model.JurisdictionStats{}, false
}

// TopJurisdictions returns up to limit jurisdictions by spending, largest first.
// A limit <= 0 returns all of them.
func TopJurisdictions(stats []model.JurisdictionStats, limit int) []model.JurisdictionStats {
	out := make([]model.JurisdictionStats, len(stats))
	copy(out, stats)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spending > out[j].Spending })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopDepartments ranks departments by spending, largest first, with each
// department's share of the listed total. A limit <= 0 returns all of them.
func TopDepartments(depts []source.Department, limit int) []model.DepartmentStats {
	var total float64
	for _, d := range depts {
		total += d.TotalSpending
	}

	out := make([]model.DepartmentStats, 0, len(depts))
	for _, d := range depts {
		ds := model.DepartmentStats{Slug: d.Slug, Name: d.Name, Spending: d.TotalSpending}
		if total > 0 {
			ds.SharePercent = d.TotalSpending / total * 100
		}
		out = append(out, ds)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spending > out[j].Spending })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Changed reports the keys whose headline numbers differ between two loads,
// including jurisdictions that appeared or disappeared.
func Changed(prev, next []model.JurisdictionStats) []string {
	old := make(map[string]model.JurisdictionStats, len(prev))
	for _, j := range prev {
		old[j.Key] = j
	}

	var keys []string
	seen := make(map[string]struct{}, len(next))
	for _, j := range next {
		seen[j.Key] = struct{}{}
		if o, ok := old[j.Key]; !ok || o != j {
			keys = append(keys, j.Key)
		}
	}
	for _, j := range prev {
		if _, ok := seen[j.Key]; !ok {
			keys = append(keys, j.Key)
		}
	}
	return keys
}
