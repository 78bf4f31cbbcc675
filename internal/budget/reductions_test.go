package budget

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReductions(t *testing.T) {
	prelim := DefaultReductions(false)
	require.Len(t, prelim, len(Categories))
	for _, c := range Categories {
		want := DefaultPreliminaryReduction
		if c == CategoryOther {
			want = 0
		}
		assert.Equal(t, want, prelim.For(c), c)
	}

	for c, v := range DefaultReductions(true) {
		assert.Equal(t, 0.0, v, c)
	}
	require.NoError(t, prelim.Validate())
}

func TestReductionsValidate(t *testing.T) {
	bad := []Reductions{
		{CategoryHealth: -0.5},
		{CategoryHealth: 15.5},
		{CategoryHealth: 2.25},
		{Category("Lunch"): 1},
	}
	for _, r := range bad {
		err := r.Validate()
		assert.True(t, errors.Is(err, ErrInvalidReduction), "%v: got %v", r, err)
	}

	assert.NoError(t, Reductions{CategoryHealth: 15, CategoryPublicSafety: 0, CategoryCulture: 12.5}.Validate())
}

func TestReductionsAdjust(t *testing.T) {
	r := Reductions{CategoryHealth: 14.5}

	up := r.Adjust(CategoryHealth, ReductionStep)
	assert.Equal(t, 15.0, up[CategoryHealth])
	assert.Equal(t, 15.0, up.Adjust(CategoryHealth, ReductionStep)[CategoryHealth], "clamped at max")
	assert.Equal(t, 14.5, r[CategoryHealth], "original untouched")

	down := Reductions{}.Adjust(CategoryCulture, -ReductionStep)
	assert.Equal(t, 0.0, down[CategoryCulture])
}

func TestParseReduction(t *testing.T) {
	c, pct, err := ParseReduction("health=5")
	require.NoError(t, err)
	assert.Equal(t, CategoryHealth, c)
	assert.Equal(t, 5.0, pct)

	c, pct, err = ParseReduction("Public Safety: 7.5%")
	require.NoError(t, err)
	assert.Equal(t, CategoryPublicSafety, c)
	assert.Equal(t, 7.5, pct)

	for _, in := range []string{"Health", "Lunch=3", "Health=lots"} {
		_, _, err := ParseReduction(in)
		assert.True(t, errors.Is(err, ErrInvalidReduction), in)
	}

	_, err = ParseReductions([]string{"Health=30"})
	assert.True(t, errors.Is(err, ErrInvalidReduction))
}

func TestLoadReductions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cuts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Health: 5\n\"Government Operations\": 10\n"), 0o600))

	r, err := LoadReductions(path)
	require.NoError(t, err)
	assert.Equal(t, Reductions{CategoryHealth: 5, CategoryGovernmentOperations: 10}, r)

	require.NoError(t, os.WriteFile(path, []byte("Health: 40\n"), 0o600))
	_, err = LoadReductions(path)
	assert.True(t, errors.Is(err, ErrInvalidReduction))
}
