package budget

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestTransform_ProgramLeafSplitAndReduction(t *testing.T) {
	leaf := Leaf("Health Research", 100, 120, WithCapitalShare(0.25))
	r := Reductions{CategoryHealth: 10}

	out, sums := Transform(leaf, r)

	want := SplitAmounts{
		Op2024:      75,
		Capital2024: 25,
		Op2025:      81,
		Capital2025: 30,
	}
	if diff := cmp.Diff(want, sums, approx); diff != "" {
		t.Errorf("sums mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 111, out.Amount, 1e-9)
	assert.Equal(t, 100.0, out.Amount2024, "source amounts are untouched")
	assert.Equal(t, 120.0, out.Amount2025)
}

func TestTransform_UnmappedNameUsesOtherCategory(t *testing.T) {
	leaf := Leaf("Mystery Program", 10, 10)

	_, sums := Transform(leaf, Reductions{CategoryHealth: 15, CategoryOther: 10})
	assert.InDelta(t, 9, sums.Op2025, 1e-9)
}

func TestTransform_PassThroughKinds(t *testing.T) {
	tests := []struct {
		leaf Node
		want SplitAmounts
	}{
		{Transfer("EI", 23.13, 30.5), SplitAmounts{Transfer2024: 23.13, Transfer2025: 30.5}},
		{Debt("Debt", 47.27, 55.6), SplitAmounts{Debt2024: 47.27, Debt2025: 55.6}},
		{Leaf("Health Research", 1, 2, WithKind(KindOther)), SplitAmounts{Other2024: 1, Other2025: 2}},
	}

	full := DefaultReductions(false)
	for _, tt := range tests {
		out, sums := Transform(tt.leaf, full)
		assert.Equal(t, tt.want, sums, tt.leaf.Name)
		assert.Equal(t, tt.leaf.Amount2025, out.Amount, tt.leaf.Name)
	}
}

func TestTransform_ZeroReductionsIsNoOp(t *testing.T) {
	tree := Parent("root",
		Leaf("Health Research", 10, 12, WithCapitalShare(0.5)),
		Leaf("RCMP", 3, 4),
		Parent("nested", Leaf("Space", 1, 1.5, WithCapitalShare(0.1))),
	)

	out, sums := Transform(tree, DefaultReductions(true))
	for _, l := range out.Leaves() {
		split := SplitLeaf(l.Amount2024, l.Amount2025, l.CapitalShare)
		assert.InDelta(t, split.Op2025+split.Capital2025, l.Amount, 1e-9, l.Name)
	}
	assert.InDelta(t, 12+4+1.5, sums.Total2025(), 1e-9)
}

func TestTransform_FoldIsOrderIndependent(t *testing.T) {
	children := []Node{
		Leaf("Health Research", 10, 12, WithCapitalShare(0.2)),
		Leaf("RCMP", 3, 4),
		Transfer("Retirement Benefits", 76.03, 83.1),
		Debt("Public Debt Charges", 47.27, 55.6),
		Parent("nested",
			Leaf("Space", 1, 1.5, WithCapitalShare(0.1)),
			Leaf("Revenue Canada", 5, 5.5),
		),
		{Type: NodeEmpty, Name: "placeholder"},
	}
	r := DefaultReductions(false)

	_, want := Transform(Parent("root", children...), r)

	var leafSum SplitAmounts
	for _, l := range Parent("root", children...).Leaves() {
		_, s := Transform(l, r)
		leafSum = leafSum.Add(s)
	}
	if diff := cmp.Diff(want, leafSum, approx); diff != "" {
		t.Errorf("leaf sum differs from tree fold (-tree +leaves):\n%s", diff)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]Node(nil), children...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		_, got := Transform(Parent("root", shuffled...), r)
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Fatalf("shuffle %d changed sums (-want +got):\n%s", i, diff)
		}
	}
}

func TestTransform_EmptyNode(t *testing.T) {
	empty := Node{Type: NodeEmpty, Name: "nothing"}
	out, sums := Transform(empty, DefaultReductions(false))
	assert.Equal(t, empty, out)
	assert.Equal(t, SplitAmounts{}, sums)
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	tree := FederalSpending()
	before := FederalSpending()
	_, _ = Transform(tree, Reductions{CategoryOther: 15})
	if diff := cmp.Diff(before, tree); diff != "" {
		t.Errorf("input tree mutated (-before +after):\n%s", diff)
	}
}

func TestProcessRevenue(t *testing.T) {
	out := ProcessRevenue(FederalRevenue())
	for _, l := range out.Leaves() {
		assert.Equal(t, l.Amount2025, l.Amount, l.Name)
	}
	require.Len(t, out.Children, 5)
	assert.Equal(t, 0.0, out.Children[1].Amount, "parents keep no display amount")
}

func TestTotal(t *testing.T) {
	tree := Parent("r", Leaf("a", 1, 2), Parent("p", Leaf("b", 3, 4)), Node{Type: NodeEmpty})
	assert.Equal(t, 6.0, Total(tree, true))
	assert.Equal(t, 4.0, Total(tree, false))

	assert.InDelta(t, 507.5, Total(FederalRevenue(), true), 1e-9)
}

func TestDepartmentCategory(t *testing.T) {
	tests := map[string]Category{
		"Health Research":              CategoryHealth,
		"CSIS":                         CategoryPublicSafety,
		"Gender Equality":              CategorySocialServices,
		"Border Security":              CategoryImmigration,
		"Trade and Investment":         CategoryInternationalAffairs,
		"Banking + Finance":            CategoryEconomy,
		"Parliament":                   CategoryGovernmentOperations,
		"Official Languages + Culture": CategoryCulture,
		"Revenue Canada":               CategoryRevenueAdministration,
		"Health Transfer to Provinces": CategoryOther,
		"":                             CategoryOther,
	}
	for name, want := range tests {
		assert.Equal(t, want, DepartmentCategory(name), name)
	}
}

func TestReducibleCategories(t *testing.T) {
	root := Parent("Spending",
		Leaf("Health Research", 1, 1),
		Leaf("RCMP", 2, 2),
		Transfer("Retirement Benefits", 3, 3),
		Debt("Public Debt Charges", 4, 4),
	)
	want := map[Category]bool{
		CategoryHealth:       true,
		CategoryPublicSafety: true,
	}
	if diff := cmp.Diff(want, ReducibleCategories(root)); diff != "" {
		t.Errorf("ReducibleCategories (-want +got):\n%s", diff)
	}
}

func TestReducibleCategories_FederalTreeOnlyOther(t *testing.T) {
	got := ReducibleCategories(FederalSpending())
	assert.Equal(t, map[Category]bool{CategoryOther: true}, got)
}
