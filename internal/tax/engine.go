package tax

import (
	"math"
	"strings"
)

// Province identifies a provincial tax jurisdiction.
type Province string

// Modeled provinces.
const (
	ProvinceOntario Province = "ontario"
	ProvinceAlberta Province = "alberta"
)

// Provinces lists the provinces with full tax and allocation models.
var Provinces = []Province{ProvinceOntario, ProvinceAlberta}

// ParseProvince normalizes s and reports whether it names a modeled province.
func ParseProvince(s string) (Province, bool) {
	p := Province(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Supported()
}

// Supported reports whether p has a tax model.
func (p Province) Supported() bool {
	switch p {
	case ProvinceOntario, ProvinceAlberta:
		return true
	}
	return false
}

// Title returns the display name, e.g. "Ontario".
func (p Province) Title() string {
	switch p {
	case ProvinceOntario:
		return Ontario.Name
	case ProvinceAlberta:
		return Alberta.Name
	}
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Calculation is the result of a total tax computation.
type Calculation struct {
	GrossIncome      float64 `json:"grossIncome"`
	FederalTax       float64 `json:"federalTax"`
	ProvincialTax    float64 `json:"provincialTax"`
	TotalTax         float64 `json:"totalTax"`
	NetIncome        float64 `json:"netIncome"`
	EffectiveTaxRate float64 `json:"effectiveTaxRate"`
}

// FederalTax returns federal tax after the basic personal amount credit.
func FederalTax(income float64) float64 { return Federal.Tax(income) }

// OntarioTax returns Ontario base tax after the basic personal amount credit.
func OntarioTax(income float64) float64 { return Ontario.Tax(income) }

// AlbertaTax returns Alberta tax after the basic personal amount credit.
func AlbertaTax(income float64) float64 { return Alberta.Tax(income) }

// OntarioHealthPremium returns the Ontario Health Premium. Each tier adds to
// the running total and is clamped to that tier's cumulative cap.
func OntarioHealthPremium(income float64) float64 {
	switch {
	case income <= 20000:
		return 0
	case income <= 36000:
		return math.Min(300, 0.06*(income-20000))
	case income <= 48000:
		return math.Min(450, 300+0.06*(income-36000))
	case income <= 72000:
		return math.Min(600, 450+0.25*(income-48000))
	case income <= 200000:
		return math.Min(750, 600+0.25*(income-72000))
	default:
		return math.Min(900, 750+0.25*(income-200000))
	}
}

// Ontario surtax thresholds on provincial base tax.
const (
	surtaxFirstThreshold  = 5710
	surtaxSecondThreshold = 7307
	surtaxFirstRate       = 0.20
	surtaxSecondRate      = 0.36
)

// OntarioSurtax returns the surtax on an Ontario base tax amount.
func OntarioSurtax(baseTax float64) float64 {
	switch {
	case baseTax <= surtaxFirstThreshold:
		return 0
	case baseTax <= surtaxSecondThreshold:
		return surtaxFirstRate * (baseTax - surtaxFirstThreshold)
	default:
		return surtaxFirstRate*(surtaxSecondThreshold-surtaxFirstThreshold) +
			surtaxSecondRate*(baseTax-surtaxSecondThreshold)
	}
}

// ProvincialTax returns provincial tax for p. Unmodeled provinces use the
// Ontario computation.
func ProvincialTax(income float64, p Province) float64 {
	if p == ProvinceAlberta {
		return AlbertaTax(income)
	}
	provincial := OntarioTax(income) + OntarioHealthPremium(income)
	return provincial + OntarioSurtax(provincial)
}

// TotalTax computes federal and provincial tax for income in province.
// The province name is case-insensitive; unrecognized names fall back to Ontario.
func TotalTax(income float64, province string) Calculation {
	p, _ := ParseProvince(province)

	federal := FederalTax(income)
	provincial := ProvincialTax(income, p)
	total := federal + provincial

	var effective float64
	if income > 0 {
		effective = total / income * 100
	}

	return Calculation{
		GrossIncome:      income,
		FederalTax:       federal,
		ProvincialTax:    provincial,
		TotalTax:         total,
		NetIncome:        income - total,
		EffectiveTaxRate: effective,
	}
}

// ScheduleFor returns the provincial bracket schedule for p, defaulting to Ontario.
func ScheduleFor(p Province) Schedule {
	if p == ProvinceAlberta {
		return Alberta
	}
	return Ontario
}
