// Package stats provides the numeric primitives behind the dashboard's
// distribution cards and charts.
package stats

import (
	"math"
	"sort"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/mathutil"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bin is one histogram bar: X is the bin centre and Y the number of values
// that fell into it.
type Bin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Summary describes a prediction sample distribution.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// Percentile returns the p-th percentile of values using linear
// interpolation between the two ranks bracketing p/100*(n-1). The input is
// not modified. An empty input or a NaN p yields 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 || math.IsNaN(p) {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	p = mathutil.Clamp(p, 0, 100)
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// SafeMax returns the largest value, or 0 for an empty input.
func SafeMax(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// NormalPdf evaluates the Gaussian density at x. stdDev is floored at
// constants.MinStdDev so degenerate distributions still produce a curve.
func NormalPdf(x, mean, stdDev float64) float64 {
	if math.IsNaN(stdDev) || stdDev < constants.MinStdDev {
		stdDev = constants.MinStdDev
	}
	return distuv.Normal{Mu: mean, Sigma: stdDev}.Prob(x)
}

// GenerateHistogram bins the finite members of values. The bin count is
// targetBins raised to at least constants.MinHistogramBins and capped at the
// number of finite values. Bins are right-open except the last, which is
// closed so the maximum lands in it. A zero range uses a bin width of 1.
func GenerateHistogram(values []float64, targetBins int) []Bin {
	finite := mathutil.FiniteOnly(values)
	if len(finite) == 0 {
		return []Bin{}
	}

	bins := min(len(finite), max(constants.MinHistogramBins, targetBins))
	lo := floats.Min(finite)
	hi := floats.Max(finite)
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}

	counts := make([]float64, bins)
	for _, v := range finite {
		idx := int(math.Floor((v - lo) / width))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	out := make([]Bin, bins)
	for i, c := range counts {
		out[i] = Bin{X: lo + (float64(i)+0.5)*width, Y: c}
	}
	return out
}

// BinWidth returns the spacing between adjacent bin centres, or 1 when the
// histogram has fewer than two bins.
func BinWidth(bins []Bin) float64 {
	if len(bins) < 2 {
		return 1
	}
	return bins[1].X - bins[0].X
}

// PeakCount returns the tallest bin height.
func PeakCount(bins []Bin) float64 {
	peak := 0.0
	for _, b := range bins {
		if b.Y > peak {
			peak = b.Y
		}
	}
	return peak
}

// Summarize computes the distribution card figures for the finite members
// of values. Standard deviation is the sample standard deviation and is 0
// for fewer than two values.
func Summarize(values []float64) Summary {
	finite := mathutil.FiniteOnly(values)
	if len(finite) == 0 {
		return Summary{}
	}

	s := Summary{
		Count: len(finite),
		Min:   floats.Min(finite),
		Max:   SafeMax(finite),
		P50:   Percentile(finite, 50),
		P90:   Percentile(finite, 90),
		P95:   Percentile(finite, 95),
		P99:   Percentile(finite, 99),
	}
	if len(finite) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	} else {
		s.Mean = finite[0]
	}
	return s
}
