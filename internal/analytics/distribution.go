package analytics

import (
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/datetime"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/stats"
)

// DistributionView is the prediction distribution card: histogram, a fitted
// normal curve in count units and the summary figures.
type DistributionView struct {
	Histogram   []stats.Bin   `json:"histogram"`
	NormalCurve []Point       `json:"normalCurve"`
	Summary     stats.Summary `json:"summary"`
}

// BuildDistributionView bins samples and fits a normal curve evaluated at
// each bin centre, scaled by count times bin width so it overlays the bars.
func BuildDistributionView(samples []float64, targetBins int) DistributionView {
	view := DistributionView{
		Histogram:   stats.GenerateHistogram(samples, targetBins),
		NormalCurve: []Point{},
		Summary:     stats.Summarize(samples),
	}
	if view.Summary.Count == 0 {
		return view
	}

	scale := float64(view.Summary.Count) * stats.BinWidth(view.Histogram)
	for _, b := range view.Histogram {
		y := stats.NormalPdf(b.X, view.Summary.Mean, view.Summary.StdDev) * scale
		view.NormalCurve = append(view.NormalCurve, Point{X: b.X, Y: y})
	}
	return view
}

// ShortfallSeries holds the chart series of a shortfall projection.
type ShortfallSeries struct {
	Simulated  []Point `json:"simulated"`
	Overshoot  []Point `json:"overshoot"`
	Historical []Point `json:"historical"`
}

// BuildShortfallSeries splits a projection into chart series. Days without
// a historical peak are left out of the historical series.
func BuildShortfallSeries(projection []series.ShortfallDailyPoint) ShortfallSeries {
	out := ShortfallSeries{
		Simulated:  make([]Point, 0, len(projection)),
		Overshoot:  make([]Point, 0, len(projection)),
		Historical: []Point{},
	}
	for _, p := range projection {
		x := datetime.EpochMillis(p.Date)
		out.Simulated = append(out.Simulated, Point{X: x, Y: p.SimulatedPeakKW})
		out.Overshoot = append(out.Overshoot, Point{X: x, Y: p.OvershootKW})
		if p.HistoricalPeakKW != nil {
			out.Historical = append(out.Historical, Point{X: x, Y: *p.HistoricalPeakKW})
		}
	}
	return out
}

// OvershootDays counts projected days with a positive overshoot.
func OvershootDays(projection []series.ShortfallDailyPoint) int {
	n := 0
	for _, p := range projection {
		if p.OvershootKW > 0 {
			n++
		}
	}
	return n
}
