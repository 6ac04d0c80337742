package analytics

import (
	"math"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/mathutil"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/stats"
)

// overlaySpan is the half-width of the overlay in standard deviations.
const overlaySpan = 4.0

// EnsembleEstimate carries the point estimates and uncertainties of the two
// ensemble members. Weights may be given as fractions or percentages.
type EnsembleEstimate struct {
	LSTMMean   float64 `json:"lstm_mean"`
	LSTMStd    float64 `json:"lstm_std"`
	LSTMWeight float64 `json:"lstm_weight"`
	XGBMean    float64 `json:"xgb_mean"`
	XGBStd     float64 `json:"xgb_std"`
	XGBWeight  float64 `json:"xgb_weight"`
}

// BlendedMean is the weight-averaged point estimate. Equal weights are used
// when both weights are zero.
func (e EnsembleEstimate) BlendedMean() float64 {
	wl, wx := e.normalizedWeights()
	return wl*e.LSTMMean + wx*e.XGBMean
}

func (e EnsembleEstimate) normalizedWeights() (float64, float64) {
	wl := math.Max(0, e.LSTMWeight)
	wx := math.Max(0, e.XGBWeight)
	if wl+wx == 0 {
		return 0.5, 0.5
	}
	return wl / (wl + wx), wx / (wl + wx)
}

// BuildUndershootOverlay shapes an illustrative density around the LSTM
// estimate for display next to the prediction histogram. The Gaussian is
// scaled to histogramPeak and an emphasis between 0.6 and 1.4 derived from
// the LSTM weight. Left of contractKW the curve is damped linearly over two
// standard deviations down to the damping floor; right of it the curve is
// amplified by half a unit per standard deviation up to the cap. The result
// is not a probability density.
func BuildUndershootOverlay(e EnsembleEstimate, contractKW, histogramPeak float64, th Thresholds) []Point {
	th = th.WithDefaults()
	if !mathutil.IsFinite(e.LSTMMean) || !mathutil.IsFinite(histogramPeak) || histogramPeak <= 0 {
		return []Point{}
	}

	sigma := e.LSTMStd
	if !mathutil.IsFinite(sigma) || sigma < constants.MinStdDev {
		sigma = constants.MinStdDev
	}
	if !mathutil.IsFinite(contractKW) {
		contractKW = e.LSTMMean
	}

	weight, _ := e.normalizedWeights()
	emphasis := 0.6 + 0.8*weight
	peakDensity := stats.NormalPdf(e.LSTMMean, e.LSTMMean, sigma)

	steps := constants.OverlaySteps
	start := e.LSTMMean - overlaySpan*sigma
	step := 2 * overlaySpan * sigma / float64(steps-1)

	out := make([]Point, 0, steps)
	for i := 0; i < steps; i++ {
		x := start + float64(i)*step
		base := stats.NormalPdf(x, e.LSTMMean, sigma) / peakDensity * histogramPeak * emphasis

		var scale float64
		if x < contractKW {
			scale = math.Max(th.OverlayDampingFloor, 1-(contractKW-x)/(2*sigma))
		} else {
			scale = math.Min(th.OverlayAmplificationCap, 1+0.5*(x-contractKW)/sigma)
		}
		out = append(out, Point{X: x, Y: base * scale})
	}
	return out
}
