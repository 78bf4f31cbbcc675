package tax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-6

func TestCalculateTaxFromBrackets(t *testing.T) {
	brackets := []Bracket{
		{Min: 0, Max: upTo(10000), Rate: 0.10},
		{Min: 10000, Max: upTo(20000), Rate: 0.20},
		{Min: 20000, Max: nil, Rate: 0.30},
	}

	tests := []struct {
		income float64
		want   float64
	}{
		{0, 0},
		{-500, 0},
		{5000, 500},
		{10000, 1000},
		{15000, 2000},
		{30000, 6000},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CalculateTaxFromBrackets(tt.income, brackets), eps, "income %.0f", tt.income)
	}
}

func TestCalculateTaxFromBrackets_NonNegativeAndMonotonic(t *testing.T) {
	for _, s := range []Schedule{Federal, Ontario, Alberta} {
		prev := 0.0
		for income := 0.0; income <= 600000; income += 750 {
			got := CalculateTaxFromBrackets(income, s.Brackets)
			require.GreaterOrEqual(t, got, 0.0, "%s at %.0f", s.Name, income)
			require.GreaterOrEqual(t, got, prev-eps, "%s not monotonic at %.0f", s.Name, income)
			prev = got
		}
	}
}

func TestFederalTax(t *testing.T) {
	assert.InDelta(t, 2277.225, Federal.Credit(), eps)
	assert.InDelta(t, 14780.275, FederalTax(100000), eps)
	assert.Equal(t, 0.0, FederalTax(10000), "credit floors at zero")
	assert.Equal(t, 0.0, FederalTax(0))

	for income := 0.0; income <= 300000; income += 5000 {
		assert.GreaterOrEqual(t, FederalTax(income), 0.0)
	}
}

func TestProvincialBaseTax(t *testing.T) {
	assert.InDelta(t, 6414.5645, OntarioTax(100000), eps)
	assert.InDelta(t, 7811.5, AlbertaTax(100000), eps)
	assert.Equal(t, 0.0, AlbertaTax(21885))
}

func TestOntarioHealthPremium(t *testing.T) {
	tests := []struct {
		income float64
		want   float64
	}{
		{0, 0},
		{20000, 0},
		{21000, 60},
		{25000, 300},
		{36000, 300},
		{40000, 450},
		{48000, 450},
		{50000, 600},
		{72000, 600},
		{73000, 750},
		{100000, 750},
		{200000, 750},
		{200100, 775},
		{250000, 900},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, OntarioHealthPremium(tt.income), eps, "income %.0f", tt.income)
	}
}

func TestOntarioSurtax(t *testing.T) {
	assert.Equal(t, 0.0, OntarioSurtax(5000))
	assert.Equal(t, 0.0, OntarioSurtax(5710))
	assert.InDelta(t, 58, OntarioSurtax(6000), eps)
	assert.InDelta(t, 319.4, OntarioSurtax(7307), eps)
	assert.InDelta(t, 568.88, OntarioSurtax(8000), eps)
}

func TestTotalTax_OntarioComposition(t *testing.T) {
	const income = 100000
	calc := TotalTax(income, "ontario")

	base := OntarioTax(income) + OntarioHealthPremium(income)
	wantProvincial := base + OntarioSurtax(base)

	assert.InDelta(t, FederalTax(income), calc.FederalTax, eps)
	assert.InDelta(t, wantProvincial, calc.ProvincialTax, eps)
	assert.InDelta(t, 22235.7524, calc.TotalTax, eps)
	assert.InDelta(t, calc.FederalTax+calc.ProvincialTax, calc.TotalTax, eps)
	assert.InDelta(t, income-calc.TotalTax, calc.NetIncome, eps)
	assert.InDelta(t, calc.TotalTax/income*100, calc.EffectiveTaxRate, eps)
	assert.Greater(t, calc.FederalTax, 0.0)
}

func TestTotalTax_Alberta(t *testing.T) {
	calc := TotalTax(100000, "Alberta")
	assert.InDelta(t, 7811.5, calc.ProvincialTax, eps)
	assert.InDelta(t, 14780.275+7811.5, calc.TotalTax, eps)
}

func TestTotalTax_UnknownProvinceFallsBackToOntario(t *testing.T) {
	for _, income := range []float64{0, 15000, 55000, 100000, 250000} {
		assert.Equal(t, TotalTax(income, "ontario"), TotalTax(income, "unknownprovince"))
		assert.Equal(t, TotalTax(income, "ontario"), TotalTax(income, "  ONTARIO "))
	}
}

func TestTotalTax_ZeroIncome(t *testing.T) {
	calc := TotalTax(0, "ontario")
	assert.Equal(t, 0.0, calc.EffectiveTaxRate)
	assert.Equal(t, 0.0, calc.TotalTax)

	neg := TotalTax(-1000, "alberta")
	assert.Equal(t, 0.0, neg.EffectiveTaxRate)
}

func TestParseProvince(t *testing.T) {
	p, ok := ParseProvince(" Alberta")
	assert.True(t, ok)
	assert.Equal(t, ProvinceAlberta, p)

	p, ok = ParseProvince("Quebec")
	assert.False(t, ok)
	assert.Equal(t, Province("quebec"), p)
	assert.Equal(t, "Quebec", p.Title())
}

func TestMarginalRate(t *testing.T) {
	assert.Equal(t, 0.145, MarginalRate(0, Federal.Brackets))
	assert.Equal(t, 0.205, MarginalRate(100000, Federal.Brackets))
	assert.Equal(t, 0.33, MarginalRate(1e6, Federal.Brackets))
	assert.Equal(t, 0.0, MarginalRate(1000, nil))
}

func TestValidateBrackets(t *testing.T) {
	for _, s := range []Schedule{Federal, Ontario, Alberta} {
		require.NoError(t, ValidateBrackets(s.Brackets), s.Name)
	}

	bad := map[string][]Bracket{
		"empty":    nil,
		"offset":   {{Min: 100, Max: nil, Rate: 0.1}},
		"gap":      {{Min: 0, Max: upTo(100), Rate: 0.1}, {Min: 200, Max: nil, Rate: 0.2}},
		"overlap":  {{Min: 0, Max: upTo(100), Rate: 0.1}, {Min: 50, Max: nil, Rate: 0.2}},
		"rate":     {{Min: 0, Max: nil, Rate: 1.5}},
		"open mid": {{Min: 0, Max: nil, Rate: 0.1}, {Min: 100, Max: nil, Rate: 0.2}},
		"closed":   {{Min: 0, Max: upTo(100), Rate: 0.1}},
		"inverted": {{Min: 0, Max: upTo(0), Rate: 0.1}, {Min: 0, Max: nil, Rate: 0.2}},
	}
	for name, brackets := range bad {
		err := ValidateBrackets(brackets)
		assert.True(t, errors.Is(err, ErrInvalidBrackets), "%s: got %v", name, err)
	}
}
