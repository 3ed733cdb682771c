// Package rounding rounds coordinates in base 10.
//
// Floats are first converted to their shortest decimal representation, so
// 40.7589645 is treated as the decimal the user wrote and not as the binary
// value just below it.
package rounding

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// CoordinateScale is the number of fractional digits used for coordinates.
const CoordinateScale = 6

// Round rounds value to scale fractional digits, half away from zero.
// NaN and infinities are returned unchanged.
func Round(value float64, scale int32) float64 {
	if !finite(value) {
		return value
	}
	return decimal.NewFromFloat(value).Round(scale).InexactFloat64()
}

// Fixed formats value in fixed-point notation with exactly scale fractional
// digits and '.' as separator, rounding half away from zero.
func Fixed(value float64, scale int32) string {
	if !finite(value) {
		return strconv.FormatFloat(value, 'f', int(scale), 64)
	}
	return decimal.NewFromFloat(value).StringFixed(scale)
}

// Coordinate formats a latitude or longitude for a deep link.
func Coordinate(value float64) string {
	return Fixed(value, CoordinateScale)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
