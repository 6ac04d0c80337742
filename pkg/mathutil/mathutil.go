// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
)

// Round rounds a value to two decimals, the precision used for kW and
// currency values shown on the dashboard. Values too large to scale are
// returned unchanged; they carry no fractional digits anyway.
func Round(val float64) float64 {
	scaled := val * constants.DecimalPrecision
	if math.IsInf(scaled, 0) {
		return val
	}
	return math.Round(scaled) / constants.DecimalPrecision
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Clamp bounds val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// NormalizePercent maps a probability to the 0-100 scale. Values in [0, 1]
// are treated as fractions; anything larger is assumed to already be a
// percentage. The result is clamped to [0, 100].
func NormalizePercent(val float64) float64 {
	if val >= 0 && val <= 1 {
		val *= constants.PercentageMultiplier
	}
	return Clamp(val, 0, constants.PercentageMultiplier)
}

// FiniteOnly returns the finite members of values in their original order.
func FiniteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
