// Package money formats Canadian dollar amounts and percentages.
package money

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCAD formats v as an en-CA dollar string rounded half away from zero
// to the given number of decimal places, e.g. 1234.5 -> "$1,234.50".
func FormatCAD(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	whole := d.Truncate(0)
	s := sign + "$" + humanize.Comma(whole.IntPart())
	if places > 0 {
		// "0.50" -> ".50"
		s += d.Sub(whole).StringFixed(places)[1:]
	}
	return s
}

// FormatCents formats v with two decimal places.
func FormatCents(v float64) string {
	return FormatCAD(v, 2)
}

// FormatWhole formats v rounded to whole dollars.
func FormatWhole(v float64) string {
	return FormatCAD(v, 0)
}

// FormatPercentage formats a 0-100 percentage with one decimal place.
func FormatPercentage(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatBillions formats an amount already expressed in billions, e.g. 54.7 -> "$54.7B".
func FormatBillions(b float64) string {
	d := decimal.NewFromFloat(b).Round(1)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(1) + "B"
	}
	return "$" + d.StringFixed(1) + "B"
}

// Round rounds v half away from zero to the given number of places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
