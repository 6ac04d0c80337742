package analytics

import (
	"math"
	"testing"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/stats"
)

func TestBuildUndershootOverlayShape(t *testing.T) {
	e := EnsembleEstimate{LSTMMean: 80, LSTMStd: 5, LSTMWeight: 0.5, XGBMean: 85, XGBStd: 4, XGBWeight: 0.5}
	points := BuildUndershootOverlay(e, 80, 10, Thresholds{})
	if len(points) != 80 {
		t.Fatalf("expected 80 points, got %d", len(points))
	}
	if math.Abs(points[0].X-60) > 1e-9 || math.Abs(points[79].X-100) > 1e-9 {
		t.Errorf("expected span 60..100, got %v..%v", points[0].X, points[79].X)
	}

	// Mirror points around the mean: right side amplified, left side damped.
	left, right := points[30], points[49]
	if math.Abs((80-left.X)-(right.X-80)) > 1e-9 {
		t.Fatalf("points are not symmetric: %v %v", left.X, right.X)
	}
	if right.Y <= left.Y {
		t.Errorf("expected overshoot side %v to exceed undershoot side %v", right.Y, left.Y)
	}

	// emphasis 0.6+0.8*0.5 = 1.0, far left uses the damping floor
	base := stats.NormalPdf(points[0].X, 80, 5) / stats.NormalPdf(80, 80, 5) * 10
	if math.Abs(points[0].Y-base*0.2) > 1e-9 {
		t.Errorf("expected damping floor at far left, got %v want %v", points[0].Y, base*0.2)
	}
	// far right uses the amplification cap
	baseRight := stats.NormalPdf(points[79].X, 80, 5) / stats.NormalPdf(80, 80, 5) * 10
	if math.Abs(points[79].Y-baseRight*2.5) > 1e-9 {
		t.Errorf("expected amplification cap at far right, got %v want %v", points[79].Y, baseRight*2.5)
	}
}

func TestBuildUndershootOverlayDegenerate(t *testing.T) {
	if got := BuildUndershootOverlay(EnsembleEstimate{LSTMMean: 50}, 60, 0, Thresholds{}); len(got) != 0 {
		t.Errorf("expected no overlay without a histogram peak, got %d points", len(got))
	}
	if got := BuildUndershootOverlay(EnsembleEstimate{LSTMMean: math.NaN()}, 60, 10, Thresholds{}); len(got) != 0 {
		t.Errorf("expected no overlay for NaN mean, got %d points", len(got))
	}
	got := BuildUndershootOverlay(EnsembleEstimate{LSTMMean: 50}, math.NaN(), 10, Thresholds{})
	for _, p := range got {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			t.Fatalf("overlay produced non-finite value %v", p)
		}
	}
}

func TestEnsembleBlendedMean(t *testing.T) {
	e := EnsembleEstimate{LSTMMean: 100, LSTMWeight: 60, XGBMean: 50, XGBWeight: 40}
	if got := e.BlendedMean(); math.Abs(got-80) > 1e-9 {
		t.Errorf("BlendedMean() = %v, expected 80", got)
	}
	if got := (EnsembleEstimate{LSTMMean: 10, XGBMean: 20}).BlendedMean(); got != 15 {
		t.Errorf("BlendedMean() with zero weights = %v, expected 15", got)
	}
}

func TestBuildDistributionView(t *testing.T) {
	samples := []float64{70, 72, 75, 75, 78, 80, 81, 83, 85, 90}
	view := BuildDistributionView(samples, 26)
	if len(view.Histogram) != 10 {
		t.Fatalf("expected 10 bins (capped at sample count), got %d", len(view.Histogram))
	}
	if len(view.NormalCurve) != len(view.Histogram) {
		t.Fatalf("expected one curve point per bin")
	}
	if view.Summary.Count != 10 || view.Summary.Max != 90 {
		t.Errorf("unexpected summary %+v", view.Summary)
	}

	empty := BuildDistributionView(nil, 26)
	if len(empty.Histogram) != 0 || len(empty.NormalCurve) != 0 {
		t.Errorf("expected empty view, got %+v", empty)
	}
}

func TestBuildShortfallSeries(t *testing.T) {
	projection := []series.ShortfallDailyPoint{
		{Date: at(1, 0), SimulatedPeakKW: 70, OvershootKW: 0, HistoricalPeakKW: ptr(65)},
		{Date: at(2, 0), SimulatedPeakKW: 90, OvershootKW: 10},
	}
	got := BuildShortfallSeries(projection)
	if len(got.Simulated) != 2 || len(got.Overshoot) != 2 || len(got.Historical) != 1 {
		t.Fatalf("unexpected series lengths %+v", got)
	}
	if OvershootDays(projection) != 1 {
		t.Errorf("expected 1 overshoot day")
	}
}
