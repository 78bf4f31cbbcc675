package breakdown

import "github.com/mackenziebowes/CanadaSpends/internal/tax"

// Allocation is one row of a spending table: a category and its share of
// the jurisdiction's spending, in percent.
type Allocation struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// Category names with special handling.
const (
	OtherCategory               = "Other"
	OtherProvincesTransferLabel = "Transfers to Other Provinces"
)

// FederalTable is the federal spending table.
var FederalTable = []Allocation{
	{"Retirement Benefits", 14.8},
	{"Children, Community and Social Services", 5.1},
	{"Employment Insurance", 4.5},
	{"Transfer to Ontario", 6.02},
	{"Transfer to Alberta", 2.3},
	{OtherProvincesTransferLabel, 11.18},
	{"Interest on Debt", 9.2},
	{"Indigenous Priorities", 8.3},
	{"Defence", 6.7},
	{"Public Safety", 4.4},
	{"International Affairs", 3.7},
	{"Standard of Living, including training, carbon tax rebate, and other supports", 12.0},
	{"Health", 2.7},
	{"Innovation and Research", 1.8},
	{"Infrastructure", 1.8},
	{"Transportation", 1.0},
	{"Natural Resources", 1.0},
	{"Fisheries and Agriculture", 1.7},
	{"Environment", 0.8},
	{OtherCategory, 1.0},
}

// OntarioTable is Ontario's provincial spending table.
var OntarioTable = []Allocation{
	{"Health", 40.1},
	{"K-12 Education", 18.8},
	{"Children, Community and Social Services", 9.4},
	{"Interest on Debt", 5.5},
	{"Colleges and Universities", 6.4},
	{"Transportation", 3.6},
	{"Energy", 3.1},
	{"Attorney and Solicitor General", 2.9},
	{"Infrastructure", 1.3},
	{"Long-Term Care", 1.2},
	{"Finance", 0.9},
	{"Tourism, Culture, and Sport", 0.9},
	{"Municipal Affairs and Housing", 0.9},
	{"Labour and Skills Development", 0.8},
	{"Treasury Board Secretariat", 0.7},
	{"Economic Development and Trade", 0.6},
	{"Natural Resources", 0.5},
	{"Fisheries and Agriculture", 0.5},
	{OtherCategory, 1.9},
}

// AlbertaTable is Alberta's provincial spending table.
var AlbertaTable = []Allocation{
	{"Health", 35.7},
	{"K-12 Education", 12.6},
	{"Colleges and Universities", 8.8},
	{"Children, Community and Social Services", 7.6},
	{"Interest on Debt", 7.5},
	{"Fisheries and Agriculture", 3.7},
	{"Transportation", 2.1},
	{"Public Safety", 2.1},
	{"Economic Development and Trade", 2.2},
	{"Energy", 1.4},
	{"Municipal Affairs and Housing", 1.4},
	{"Innovation and Research", 1.0},
	{"Attorney and Solicitor General", 0.9},
	{"Infrastructure", 0.7},
	{"Forestry and Parks", 1.6},
	{"Environment", 0.5},
	{"Indigenous Priorities", 0.3},
	{"Tourism, Culture, and Sport", 0.6},
	{OtherCategory, 8.7},
}

// ProvinceData ties a province to its federal transfer line and spending table.
type ProvinceData struct {
	Province            tax.Province
	FederalTransferName string
	Categories          []Allocation
}

var provinceData = []ProvinceData{
	{Province: tax.ProvinceOntario, FederalTransferName: "Transfer to Ontario", Categories: OntarioTable},
	{Province: tax.ProvinceAlberta, FederalTransferName: "Transfer to Alberta", Categories: AlbertaTable},
}

// LookupProvince returns the allocation data for p.
func LookupProvince(p tax.Province) (ProvinceData, bool) {
	for _, d := range provinceData {
		if d.Province == p {
			return d, true
		}
	}
	return ProvinceData{}, false
}

// isTransferLine reports whether name is a federal transfer to any province,
// or the aggregate line for the remaining provinces.
func isTransferLine(name string) bool {
	if name == OtherProvincesTransferLabel {
		return true
	}
	for _, d := range provinceData {
		if d.FederalTransferName == name {
			return true
		}
	}
	return false
}

// TableTotal returns the sum of a table's percentages.
func TableTotal(table []Allocation) float64 {
	var sum float64
	for _, a := range table {
		sum += a.Percentage
	}
	return sum
}
