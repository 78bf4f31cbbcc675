package budget

// SplitAmounts is the per-subtree spending rollup. Program spending is split
// into operating and capital; the other kinds pass through unchanged.
type SplitAmounts struct {
	Op2024       float64 `json:"op2024"`
	Capital2024  float64 `json:"cap2024"`
	Op2025       float64 `json:"op2025"`
	Capital2025  float64 `json:"cap2025"`
	Transfer2024 float64 `json:"transfers2024"`
	Transfer2025 float64 `json:"transfers2025"`
	Debt2024     float64 `json:"debt2024"`
	Debt2025     float64 `json:"debt2025"`
	Other2024    float64 `json:"other2024"`
	Other2025    float64 `json:"other2025"`
}

// Add returns the elementwise sum of s and o.
func (s SplitAmounts) Add(o SplitAmounts) SplitAmounts {
	return SplitAmounts{
		Op2024:       s.Op2024 + o.Op2024,
		Capital2024:  s.Capital2024 + o.Capital2024,
		Op2025:       s.Op2025 + o.Op2025,
		Capital2025:  s.Capital2025 + o.Capital2025,
		Transfer2024: s.Transfer2024 + o.Transfer2024,
		Transfer2025: s.Transfer2025 + o.Transfer2025,
		Debt2024:     s.Debt2024 + o.Debt2024,
		Debt2025:     s.Debt2025 + o.Debt2025,
		Other2024:    s.Other2024 + o.Other2024,
		Other2025:    s.Other2025 + o.Other2025,
	}
}

// Total2024 returns total 2024 spending across all splits.
func (s SplitAmounts) Total2024() float64 {
	return s.Op2024 + s.Capital2024 + s.Transfer2024 + s.Debt2024 + s.Other2024
}

// Total2025 returns total 2025 spending across all splits, after reductions.
func (s SplitAmounts) Total2025() float64 {
	return s.Op2025 + s.Capital2025 + s.Transfer2025 + s.Debt2025 + s.Other2025
}
