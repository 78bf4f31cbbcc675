package model

// Overview holds the aggregate across all loaded jurisdictions.
type Overview struct {
	Jurisdictions int `json:"jurisdictions"`
	Provincial    int `json:"provincial"`
	Municipal     int `json:"municipal"`

	ProvincialSpending float64 `json:"provincialSpending"`
	MunicipalSpending  float64 `json:"municipalSpending"`
	TotalDebtInterest  float64 `json:"totalDebtInterest"`
	TotalEmployees     int64   `json:"totalEmployees"`
	TotalDepartments   int     `json:"totalDepartments"`

	Largest    string  `json:"largest,omitempty"` // key of the highest-spending jurisdiction
	LargestAmt float64 `json:"largestSpending,omitempty"`

	Provinces []ProvinceStats `json:"provinces"`
}

// TotalSpending returns provincial plus municipal spending.
func (o Overview) TotalSpending() float64 {
	return o.ProvincialSpending + o.MunicipalSpending
}

// ProvinceStats rolls up a province's own data and its municipalities.
type ProvinceStats struct {
	Province           string  `json:"province"`
	Name               string  `json:"name"`
	HasProvincial      bool    `json:"hasProvincial"`
	Municipalities     int     `json:"municipalities"`
	ProvincialSpending float64 `json:"provincialSpending"`
	MunicipalSpending  float64 `json:"municipalSpending"`
}

// DepartmentStats is one ranked department of a jurisdiction.
type DepartmentStats struct {
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Spending     float64 `json:"spending"`
	SharePercent float64 `json:"sharePercent"`
}
