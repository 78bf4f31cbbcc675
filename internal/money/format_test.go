package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCAD(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		places int32
		want   string
	}{
		{"zero cents", 0, 2, "$0.00"},
		{"small", 12.5, 2, "$12.50"},
		{"grouping", 1234567.891, 2, "$1,234,567.89"},
		{"half rounds up", 0.125, 2, "$0.13"},
		{"negative", -2277.225, 2, "-$2,277.23"},
		{"whole", 19458.6, 0, "$19,459"},
		{"whole thousand", 1000, 0, "$1,000"},
		{"tiny negative rounds to zero", -0.001, 2, "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCAD(tt.v, tt.places))
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "14.8%", FormatPercentage(14.8))
	assert.Equal(t, "0.0%", FormatPercentage(0))
	assert.Equal(t, "23.5%", FormatPercentage(23.456))
}

func TestFormatBillions(t *testing.T) {
	assert.Equal(t, "$54.7B", FormatBillions(54.7))
	assert.Equal(t, "-$7.6B", FormatBillions(-7.6))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2277.23, Round(2277.225, 2))
	assert.Equal(t, 100.0, Round(99.995, 2))
}
