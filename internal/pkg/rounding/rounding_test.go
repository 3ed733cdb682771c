package rounding_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/ridecompare/internal/pkg/rounding"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		scale int32
		want  float64
	}{
		{"default scale", 12.3456789, 6, 12.345679},
		{"half up tie", 40.7589645, 6, 40.758965},
		{"negative", -40.7589648, 6, -40.758965},
		{"negative tie away from zero", -40.7589645, 6, -40.758965},
		{"already exact", 180.0, 6, 180.0},
		{"below precision", 0.0000001, 6, 0.0},
		{"two digits", 73.987654, 2, 73.99},
		{"zero digits", 12.5, 0, 13.0},
		{"rounds up", 40.7589655, 6, 40.758966},
		{"rounds down", 40.7589644, 6, 40.758964},
		{"short input", 40.758965, 6, 40.758965},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rounding.Round(tt.value, tt.scale))
		})
	}
}

func TestRound_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(rounding.Round(math.NaN(), 6)))
	assert.True(t, math.IsInf(rounding.Round(math.Inf(1), 6), 1))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "40.758896", rounding.Fixed(40.758896, 6))
	assert.Equal(t, "-73.985130", rounding.Fixed(-73.98513, 6))
	assert.Equal(t, "180.000000", rounding.Fixed(180, 6))
	assert.Equal(t, "0.000000", rounding.Fixed(0.0000001, 6))
	assert.Equal(t, "40.758965", rounding.Fixed(40.7589645, 6))
	assert.Equal(t, "0.000001", rounding.Fixed(1e-6, 6), "no scientific notation")
}

func TestCoordinate(t *testing.T) {
	assert.Equal(t, "-73.968285", rounding.Coordinate(-73.968285))
	assert.Equal(t, "12.000000", rounding.Coordinate(12))
}
