package budget

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidReduction is returned for out-of-range or unknown reductions.
var ErrInvalidReduction = errors.New("invalid spending reduction")

// Reduction bounds, in percent.
const (
	MinReduction  = 0.0
	MaxReduction  = 15.0
	ReductionStep = 0.5

	// DefaultPreliminaryReduction applies to every reducible category
	// before the official budget is published.
	DefaultPreliminaryReduction = 7.5
)

// Reductions maps a category to the percentage cut applied to its 2025
// operating spending. Missing categories are not reduced.
type Reductions map[Category]float64

// DefaultReductions returns the starting reductions. Once the official budget
// is live every category is 0; before that, all but CategoryOther are cut by
// DefaultPreliminaryReduction.
func DefaultReductions(live bool) Reductions {
	r := make(Reductions, len(Categories))
	for _, c := range Categories {
		switch {
		case c == CategoryOther, live:
			r[c] = 0
		default:
			r[c] = DefaultPreliminaryReduction
		}
	}
	return r
}

// For returns the reduction for c, or 0 if none is set.
func (r Reductions) For(c Category) float64 {
	return r[c]
}

// Clone returns an independent copy of r.
func (r Reductions) Clone() Reductions {
	out := make(Reductions, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r overlaid with o.
func (r Reductions) Merge(o Reductions) Reductions {
	out := r.Clone()
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Adjust returns a copy of r with c moved by delta, clamped to the valid range.
func (r Reductions) Adjust(c Category, delta float64) Reductions {
	out := r.Clone()
	v := math.Max(MinReduction, math.Min(MaxReduction, out[c]+delta))
	out[c] = math.Round(v/ReductionStep) * ReductionStep
	return out
}

// Validate checks that every entry names a known category and lies in
// [MinReduction, MaxReduction] on a ReductionStep boundary.
func (r Reductions) Validate() error {
	for c, v := range r {
		if !c.Known() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidReduction, c)
		}
		if v < MinReduction || v > MaxReduction {
			return fmt.Errorf("%w: %s = %.2f outside [%.0f, %.0f]", ErrInvalidReduction, c, v, MinReduction, MaxReduction)
		}
		if steps := v / ReductionStep; steps != math.Trunc(steps) {
			return fmt.Errorf("%w: %s = %.2f is not a multiple of %.1f", ErrInvalidReduction, c, v, ReductionStep)
		}
	}
	return nil
}

// ParseReduction parses "Category=pct" or "Category:pct".
func ParseReduction(s string) (Category, float64, error) {
	sep := strings.IndexAny(s, "=:")
	if sep < 0 {
		return "", 0, fmt.Errorf("%w: %q is not category=percent", ErrInvalidReduction, s)
	}

	c, ok := ParseCategory(s[:sep])
	if !ok {
		return "", 0, fmt.Errorf("%w: unknown category %q", ErrInvalidReduction, strings.TrimSpace(s[:sep]))
	}

	pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s[sep+1:], "%")), 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %v", ErrInvalidReduction, s, err)
	}
	return c, pct, nil
}

// ParseReductions parses a list of "Category=pct" entries and validates the result.
func ParseReductions(entries []string) (Reductions, error) {
	r := make(Reductions, len(entries))
	for _, e := range entries {
		c, pct, err := ParseReduction(e)
		if err != nil {
			return nil, err
		}
		r[c] = pct
	}
	return r, r.Validate()
}

// FromStringMap converts a name-keyed map, as found in config files, into Reductions.
func FromStringMap(m map[string]float64) (Reductions, error) {
	r := make(Reductions, len(m))
	for name, pct := range m {
		c, ok := ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidReduction, name)
		}
		r[c] = pct
	}
	return r, r.Validate()
}

// LoadReductions reads a YAML mapping of category name to percent.
func LoadReductions(path string) (Reductions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reductions: %w", err)
	}

	var m map[string]float64
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing reductions: %w", err)
	}
	return FromStringMap(m)
}
