// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mackenziebowes/CanadaSpends/internal/money"
)

// FormatCount adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatCompact formats a count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompact(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return humanize.Comma(n)
	}
}

// FormatDollars formats a dollar amount, with cents below $100.
func FormatDollars(v float64) string {
	if v > -100 && v < 100 {
		return money.FormatCents(v)
	}
	return money.FormatWhole(v)
}

// FormatBillions formats an amount in billions, or "-" when it is zero.
func FormatBillions(b float64) string {
	if b == 0 {
		return "-"
	}
	return money.FormatBillions(b)
}

// FormatDelta formats a change in billions with an explicit sign.
func FormatDelta(delta float64) string {
	if delta >= 0 {
		return "+" + money.FormatBillions(delta)
	}
	return money.FormatBillions(delta)
}

// FormatRate formats a 0-100 percentage.
func FormatRate(pct float64) string {
	return money.FormatPercentage(pct)
}

// FormatReduction formats a spending cut, e.g. 7.5 -> "-7.5%", 0 -> "0%".
func FormatReduction(pct float64) string {
	if pct == 0 {
		return "0%"
	}
	return fmt.Sprintf("-%.1f%%", pct)
}

// FormatDuration formats a duration as hours and minutes.
// e.g., 3725s -> "1h 2m", 125s -> "2m", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatAgo formats t relative to now, e.g. "3 minutes ago".
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// ParseIncome accepts digits with optional "$", commas and a decimal part.
func ParseIncome(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("enter an income")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a valid income", s)
	}
	return v, nil
}
