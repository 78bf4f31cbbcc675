package breakdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

func find[T any](items []T, name func(T) string, want string) (T, bool) {
	for _, it := range items {
		if name(it) == want {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func categoryName(c SpendingCategory) string { return c.Name }
func itemName(c CombinedItem) string         { return c.Name }

func TestTablesSumToHundred(t *testing.T) {
	tests := []struct {
		name  string
		table []Allocation
		delta float64
	}{
		{"federal", FederalTable, 1e-9},
		{"ontario", OntarioTable, 1e-9},
		// The published Alberta shares round to 99.4.
		{"alberta", AlbertaTable, 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, 100.0, TableTotal(tt.table), tt.delta, tt.name)
	}
}

func TestCalculateUnsupportedProvince(t *testing.T) {
	_, err := Calculate(tax.TotalTax(100000, "quebec"), "quebec")
	require.ErrorIs(t, err, ErrUnsupportedProvince)
}

func TestCalculateProvinceCaseInsensitive(t *testing.T) {
	b, err := Calculate(tax.TotalTax(50000, "Alberta"), " Alberta ")
	require.NoError(t, err)
	assert.Equal(t, tax.ProvinceAlberta, b.Province)
}

func TestCalculateOntario(t *testing.T) {
	calc := tax.TotalTax(100000, "ontario")
	b, err := Calculate(calc, "ontario")
	require.NoError(t, err)

	assert.InDelta(t, calc.FederalTax*0.0602, b.TransferAmount, 1e-9)
	assert.InDelta(t, calc.ProvincialTax+b.TransferAmount, Sum(b.ProvincialSpending), 1e-6)
	assert.InDelta(t, calc.FederalTax, Sum(b.FederalSpending), 1e-6)

	for _, list := range [][]SpendingCategory{b.FederalSpending, b.ProvincialSpending, b.CombinedSpending} {
		require.NotEmpty(t, list)
		assert.Equal(t, OtherCategory, list[len(list)-1].Name)
		for i := 1; i < len(list)-1; i++ {
			assert.GreaterOrEqual(t, list[i-1].Amount, list[i].Amount)
		}
	}

	_, ok := find(b.CombinedChartData, itemName, "Transfer to Ontario")
	assert.False(t, ok, "own transfer must not appear in chart data")
	_, ok = find(b.CombinedSpending, categoryName, "Transfer to Ontario")
	assert.False(t, ok, "own transfer must not appear in combined spending")

	others, ok := find(b.CombinedChartData, itemName, OtherProvincesTransferLabel)
	require.True(t, ok)
	assert.InDelta(t, calc.FederalTax*(2.3+11.18)/100, others.FederalAmount, 1e-6)
	assert.Zero(t, others.ProvincialAmount)

	var chartTotal float64
	for _, it := range b.CombinedChartData {
		chartTotal += it.TotalAmount
	}
	assert.InDelta(t, calc.TotalTax, chartTotal, 1e-6)
	assert.InDelta(t, calc.TotalTax, Sum(b.CombinedSpending), 1e-6)
	assert.Equal(t, OtherCategory, b.CombinedChartData[len(b.CombinedChartData)-1].Name)
}

func TestCalculateAlbertaFoldsOntarioTransfer(t *testing.T) {
	calc := tax.TotalTax(100000, "alberta")
	b, err := Calculate(calc, "alberta")
	require.NoError(t, err)

	assert.InDelta(t, calc.FederalTax*0.023, b.TransferAmount, 1e-9)
	others, ok := find(b.CombinedChartData, itemName, OtherProvincesTransferLabel)
	require.True(t, ok)
	assert.InDelta(t, calc.FederalTax*(6.02+11.18)/100, others.FederalAmount, 1e-6)
}

func TestCalculateZeroIncome(t *testing.T) {
	b, err := CalculateForIncome(0, "ontario", DefaultThreshold)
	require.NoError(t, err)

	// Everything is under the threshold so each list collapses to Other.
	require.Len(t, b.FederalSpending, 1)
	assert.Equal(t, OtherCategory, b.FederalSpending[0].Name)
	assert.Zero(t, b.FederalSpending[0].Amount)
	assert.InDelta(t, 100.0, b.FederalSpending[0].Percentage, 1e-9)
	for _, c := range b.CombinedSpending {
		assert.Zero(t, c.Percentage)
	}
}

func TestGroupSmallAmounts(t *testing.T) {
	items := []SpendingCategory{
		newCategory("A", 10, 1, LevelProvincial),
		newCategory("B", 50, 5, LevelProvincial),
		newCategory(OtherCategory, 5, 0.5, LevelProvincial),
		newCategory("C", 80, 8, LevelProvincial),
		newCategory("D", 19.99, 2, LevelProvincial),
	}

	got := GroupSmallAmounts(items, 20)
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].Name)
	assert.Equal(t, "B", got[1].Name)

	other := got[2]
	assert.Equal(t, OtherCategory, other.Name)
	assert.InDelta(t, 34.99, other.Amount, 1e-9)
	assert.InDelta(t, 3.5, other.Percentage, 1e-9)
	assert.Equal(t, LevelProvincial, other.Level)
	assert.Equal(t, "$35", other.FormattedAmount)
	assert.Equal(t, "3.5%", other.FormattedPercentage)

	// The input is left alone.
	assert.Equal(t, "A", items[0].Name)

	assert.Equal(t, got, GroupSmallAmounts(got, 20), "grouping is idempotent")
}

func TestGroupSmallAmountsNoOther(t *testing.T) {
	items := []SpendingCategory{
		newCategory("A", 30, 1, LevelProvincial),
		newCategory("B", 50, 5, LevelProvincial),
	}
	got := GroupSmallAmounts(items, 20)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"B", "A"}, []string{got[0].Name, got[1].Name})

	assert.Empty(t, GroupSmallAmounts(nil, 20))
}

func TestGroupSmallAmountsOtherLevelFromSmall(t *testing.T) {
	got := GroupSmallAmounts([]SpendingCategory{newCategory("A", 1, 1, LevelProvincial)}, 20)
	require.Len(t, got, 1)
	assert.Equal(t, LevelProvincial, got[0].Level)
}

func TestCombineMergesSharedNames(t *testing.T) {
	federal := []SpendingCategory{
		newCategory("Health", 100, 10, LevelFederal),
		newCategory("Defence", 50, 5, LevelFederal),
	}
	provincial := []SpendingCategory{
		newCategory("Health", 300, 30, LevelProvincial),
		newCategory("K-12 Education", 50, 5, LevelProvincial),
	}

	got := Combine(federal, provincial, tax.ProvinceOntario)
	require.Len(t, got, 3)

	health := got[0]
	assert.Equal(t, "Health", health.Name)
	assert.Equal(t, 400.0, health.Amount)
	assert.Equal(t, LevelFederal, health.Level)
	assert.InDelta(t, 80.0, health.Percentage, 1e-9)

	// Ties keep insertion order.
	assert.Equal(t, "Defence", got[1].Name)
	assert.Equal(t, "K-12 Education", got[2].Name)
	assert.Equal(t, LevelProvincial, got[2].Level)
}

func TestCombineForChartAssignsAmounts(t *testing.T) {
	federal := []SpendingCategory{
		newCategory("Health", 100, 10, LevelFederal),
		newCategory("Transfer to Ontario", 60, 6, LevelFederal),
		newCategory("Transfer to Alberta", 20, 2, LevelFederal),
		newCategory(OtherProvincesTransferLabel, 110, 11, LevelFederal),
		newCategory(OtherCategory, 500, 1, LevelFederal),
	}
	provincial := []SpendingCategory{
		newCategory("Health", 300, 30, LevelProvincial),
		newCategory(OtherCategory, 5, 1, LevelProvincial),
	}

	got := CombineForChart(federal, provincial, tax.ProvinceOntario)
	require.Len(t, got, 3)

	assert.Equal(t, CombinedItem{
		Name: "Health", FederalAmount: 100, ProvincialAmount: 300, TotalAmount: 400, FormattedTotal: "$400",
	}, got[0])
	assert.Equal(t, OtherProvincesTransferLabel, got[1].Name)
	assert.Equal(t, 130.0, got[1].FederalAmount)
	assert.Equal(t, OtherCategory, got[2].Name)
	assert.Equal(t, 505.0, got[2].TotalAmount)
}
