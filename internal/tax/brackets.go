// Package tax computes Canadian federal and provincial income tax from
// progressive bracket schedules.
package tax

import (
	"errors"
	"fmt"
)

// ErrInvalidBrackets is returned by ValidateBrackets for a malformed table.
var ErrInvalidBrackets = errors.New("invalid bracket table")

// Bracket is a contiguous income range taxed at a fixed marginal rate.
// A nil Max marks the final, unbounded bracket.
type Bracket struct {
	Min  float64  `json:"min"`
	Max  *float64 `json:"max"`
	Rate float64  `json:"rate"`
}

// Schedule is a jurisdiction's bracket table plus its basic personal amount.
type Schedule struct {
	Name                string    `json:"name"`
	BasicPersonalAmount float64   `json:"basicPersonalAmount"`
	Brackets            []Bracket `json:"brackets"`
}

func upTo(v float64) *float64 { return &v }

// 2025 schedules.
var (
	Federal = Schedule{
		Name:                "Federal",
		BasicPersonalAmount: 15705,
		Brackets: []Bracket{
			{Min: 0, Max: upTo(57375), Rate: 0.145},
			{Min: 57375, Max: upTo(114750), Rate: 0.205},
			{Min: 114750, Max: upTo(177882), Rate: 0.26},
			{Min: 177882, Max: upTo(253414), Rate: 0.29},
			{Min: 253414, Max: nil, Rate: 0.33},
		},
	}

	Ontario = Schedule{
		Name:                "Ontario",
		BasicPersonalAmount: 12399,
		Brackets: []Bracket{
			{Min: 0, Max: upTo(51446), Rate: 0.0505},
			{Min: 51446, Max: upTo(102894), Rate: 0.0915},
			{Min: 102894, Max: upTo(150000), Rate: 0.1116},
			{Min: 150000, Max: upTo(220000), Rate: 0.1216},
			{Min: 220000, Max: nil, Rate: 0.1316},
		},
	}

	Alberta = Schedule{
		Name:                "Alberta",
		BasicPersonalAmount: 21885,
		Brackets: []Bracket{
			{Min: 0, Max: upTo(148269), Rate: 0.10},
			{Min: 148269, Max: upTo(177922), Rate: 0.12},
			{Min: 177922, Max: upTo(237230), Rate: 0.13},
			{Min: 237230, Max: upTo(355845), Rate: 0.14},
			{Min: 355845, Max: nil, Rate: 0.15},
		},
	}
)

// CalculateTaxFromBrackets walks brackets in ascending order and taxes the
// slice of income inside each one. Brackets are not validated; an
// overlapping table yields a wrong but finite result.
func CalculateTaxFromBrackets(income float64, brackets []Bracket) float64 {
	var tax float64
	for _, b := range brackets {
		if income <= b.Min {
			break
		}
		upper := income
		if b.Max != nil && *b.Max < income {
			upper = *b.Max
		}
		tax += (upper - b.Min) * b.Rate
	}
	return tax
}

// LowestRate returns the rate of the first bracket, which is also the
// credit rate applied to the basic personal amount.
func (s Schedule) LowestRate() float64 {
	if len(s.Brackets) == 0 {
		return 0
	}
	return s.Brackets[0].Rate
}

// Credit returns the non-refundable basic personal amount credit.
func (s Schedule) Credit() float64 {
	return s.BasicPersonalAmount * s.LowestRate()
}

// Tax returns bracket tax less the basic personal amount credit, floored at zero.
func (s Schedule) Tax(income float64) float64 {
	tax := CalculateTaxFromBrackets(income, s.Brackets) - s.Credit()
	if tax < 0 {
		return 0
	}
	return tax
}

// MarginalRate returns the rate applied to the next dollar of income.
func MarginalRate(income float64, brackets []Bracket) float64 {
	if len(brackets) == 0 {
		return 0
	}
	rate := brackets[0].Rate
	for _, b := range brackets {
		if income < b.Min {
			break
		}
		rate = b.Rate
	}
	return rate
}

// ValidateBrackets checks that brackets partition [0, inf) contiguously with
// rates in [0, 1] and only the last bracket unbounded.
func ValidateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidBrackets)
	}
	if brackets[0].Min != 0 {
		return fmt.Errorf("%w: first bracket starts at %.2f, want 0", ErrInvalidBrackets, brackets[0].Min)
	}

	for i, b := range brackets {
		if b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("%w: bracket %d rate %.4f outside [0, 1]", ErrInvalidBrackets, i, b.Rate)
		}

		last := i == len(brackets)-1
		if b.Max == nil {
			if !last {
				return fmt.Errorf("%w: bracket %d is unbounded but not last", ErrInvalidBrackets, i)
			}
			continue
		}
		if *b.Max <= b.Min {
			return fmt.Errorf("%w: bracket %d max %.2f <= min %.2f", ErrInvalidBrackets, i, *b.Max, b.Min)
		}
		if last {
			return fmt.Errorf("%w: last bracket is bounded at %.2f", ErrInvalidBrackets, *b.Max)
		}
		if next := brackets[i+1].Min; next != *b.Max {
			return fmt.Errorf("%w: bracket %d ends at %.2f but bracket %d starts at %.2f",
				ErrInvalidBrackets, i, *b.Max, i+1, next)
		}
	}
	return nil
}
