package source

import (
	"sort"
	"strings"
)

// ProvinceNames maps province and territory slugs to display names.
var ProvinceNames = map[string]string{
	"alberta":                   "Alberta",
	"british-columbia":          "British Columbia",
	"manitoba":                  "Manitoba",
	"new-brunswick":             "New Brunswick",
	"newfoundland-and-labrador": "Newfoundland and Labrador",
	"nova-scotia":               "Nova Scotia",
	"ontario":                   "Ontario",
	"prince-edward-island":      "Prince Edward Island",
	"quebec":                    "Quebec",
	"saskatchewan":              "Saskatchewan",
	"northwest-territories":     "Northwest Territories",
	"nunavut":                   "Nunavut",
	"yukon":                     "Yukon",
}

// ProvinceName returns the display name for slug, or slug itself when unknown.
func ProvinceName(slug string) string {
	if name, ok := ProvinceNames[slug]; ok {
		return name
	}
	return slug
}

// Municipality is a municipal jurisdiction listed under its province.
type Municipality struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ProvinceMunicipalities groups the municipalities of one province.
type ProvinceMunicipalities struct {
	Province       string         `json:"province"`
	Municipalities []Municipality `json:"municipalities"`
}

// MunicipalitiesByProvince groups the municipal jurisdictions in dataDir by
// province. Municipalities are named from their summary, falling back to the
// slug, and both levels are sorted by display name.
func MunicipalitiesByProvince(dataDir string) ([]ProvinceMunicipalities, error) {
	found, err := ScanDir(dataDir)
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int)
	var out []ProvinceMunicipalities
	for _, d := range found {
		if d.Kind != KindMunicipal {
			continue
		}
		name := d.Slug
		if s, err := readSummary(d.SummaryPath()); err == nil && s.Name != "" {
			name = s.Name
		}
		i, ok := idx[d.Province]
		if !ok {
			i = len(out)
			idx[d.Province] = i
			out = append(out, ProvinceMunicipalities{Province: d.Province})
		}
		out[i].Municipalities = append(out[i].Municipalities, Municipality{Slug: d.Slug, Name: name})
	}

	for i := range out {
		sort.SliceStable(out[i].Municipalities, func(a, b int) bool {
			return lessFold(out[i].Municipalities[a].Name, out[i].Municipalities[b].Name)
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return lessFold(ProvinceName(out[a].Province), ProvinceName(out[b].Province))
	})
	return out, nil
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
