// Package dashboard composes the normalizers and analytics into a single
// derived view. Callers own the update cycle and call Recompute (or a Memo)
// whenever upstream data changes.
package dashboard

import (
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/fields"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/mathutil"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/stats"
)

// State is the already-fetched upstream data in its raw JSON shape.
type State struct {
	Samples     []interface{}               `json:"samples,omitempty"`
	Sessions    []fields.Record             `json:"sessions,omitempty"`
	Predictions []fields.Record             `json:"predictions,omitempty"`
	Candidates  []fields.Record             `json:"candidates,omitempty"`
	Projection  []fields.Record             `json:"shortfall_projection,omitempty"`
	OptimalKW   interface{}                 `json:"optimal_kw,omitempty"`
	ContractKW  interface{}                 `json:"contract_kw,omitempty"`
	Ensemble    *analytics.EnsembleEstimate `json:"ensemble,omitempty"`
}

// Validation pairs observed and predicted daily peaks for the comparison chart.
type Validation struct {
	Actual    []analytics.Point `json:"actual"`
	Predicted []analytics.Point `json:"predicted"`
}

// Diagnostics counts how many upstream records survived normalization.
type Diagnostics struct {
	SamplesIn       int `json:"samplesIn"`
	SamplesKept     int `json:"samplesKept"`
	SessionsIn      int `json:"sessionsIn"`
	SessionsKept    int `json:"sessionsKept"`
	PredictionsIn   int `json:"predictionsIn"`
	PredictionsKept int `json:"predictionsKept"`
	CandidatesIn    int `json:"candidatesIn"`
	CandidatesKept  int `json:"candidatesKept"`
	ProjectionIn    int `json:"projectionIn"`
	ProjectionKept  int `json:"projectionKept"`
}

// View is everything the presentation layer needs to draw the dashboard.
type View struct {
	ContractKW    float64                    `json:"contractKw"`
	OptimalKW     *float64                   `json:"optimalKw,omitempty"`
	Distribution  analytics.DistributionView `json:"distribution"`
	Overlay       []analytics.Point          `json:"overlay"`
	Sessions      []series.SessionPoint      `json:"sessions"`
	SessionChart  []analytics.Point          `json:"sessionChart"`
	Smoothed      []analytics.Point          `json:"smoothed"`
	DailyPeaks    []analytics.Point          `json:"dailyPeaks"`
	Validation    Validation                 `json:"validation"`
	Shortfall     analytics.ShortfallSeries  `json:"shortfall"`
	OvershootDays int                        `json:"overshootDays"`
	Overfit       analytics.OverfitSignal    `json:"overfit"`
	Scenarios     []analytics.ScenarioRow    `json:"scenarios"`
	Diagnostics   Diagnostics                `json:"diagnostics"`
}

// Recompute derives the full view from state. It never fails: missing or
// malformed sections produce empty parts of the view.
func Recompute(state State, th analytics.Thresholds) View {
	th = th.WithDefaults()

	samples := coerceSamples(state.Samples)
	sessions := series.NormalizeSessionSeries(state.Sessions)
	predictions := series.NormalizeSessionSeries(state.Predictions)
	candidates := series.NormalizeCandidates(state.Candidates)

	optimal := optionalFloat(state.OptimalKW)
	contract := resolveContract(state, optimal, candidates)
	projection := series.NormalizeShortfallProjection(state.Projection, contract)

	view := View{
		ContractKW:    contract,
		OptimalKW:     optimal,
		Distribution:  analytics.BuildDistributionView(samples, th.HistogramBins),
		Overlay:       []analytics.Point{},
		Sessions:      sessions,
		SessionChart:  analytics.SessionPoints(sessions),
		Smoothed:      analytics.SmoothChronologicalSeries(sessions, th.SmoothingWindow),
		DailyPeaks:    analytics.SortedDailyPeaks(sessions),
		Shortfall:     analytics.BuildShortfallSeries(projection),
		OvershootDays: analytics.OvershootDays(projection),
		Scenarios:     analytics.BuildScenarioRows(candidates, optimal, th),
		Diagnostics: Diagnostics{
			SamplesIn:       len(state.Samples),
			SamplesKept:     len(samples),
			SessionsIn:      len(state.Sessions),
			SessionsKept:    len(sessions),
			PredictionsIn:   len(state.Predictions),
			PredictionsKept: len(predictions),
			CandidatesIn:    len(state.Candidates),
			CandidatesKept:  len(candidates),
			ProjectionIn:    len(state.Projection),
			ProjectionKept:  len(projection),
		},
	}

	// The shortfall projection is the preferred forecast curve; the raw
	// prediction series stands in when no projection was supplied.
	forecast := series.ProjectedPeaks(projection)
	if len(forecast) == 0 {
		forecast = predictions
	}
	view.Overfit = analytics.ComputeOverfitSignal(sessions, forecast, th)
	view.Validation = Validation{
		Actual:    view.DailyPeaks,
		Predicted: analytics.SortedDailyPeaks(forecast),
	}

	if state.Ensemble != nil {
		peak := stats.PeakCount(view.Distribution.Histogram)
		view.Overlay = analytics.BuildUndershootOverlay(*state.Ensemble, contract, peak, th)
	}
	return view
}

// resolveContract picks the contract level the charts are drawn against:
// the explicit contract, then the optimal level, then the first candidate,
// then the blended ensemble estimate.
func resolveContract(state State, optimal *float64, candidates []series.CandidateDetail) float64 {
	if v := optionalFloat(state.ContractKW); v != nil {
		return *v
	}
	if optimal != nil {
		return *optimal
	}
	if len(candidates) > 0 {
		return candidates[0].ContractKW
	}
	if state.Ensemble != nil {
		if m := state.Ensemble.BlendedMean(); mathutil.IsFinite(m) {
			return mathutil.Round(m)
		}
	}
	return 0
}

func coerceSamples(raw []interface{}) []float64 {
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := fields.Float(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func optionalFloat(v interface{}) *float64 {
	if v == nil {
		return nil
	}
	f, ok := fields.Float(v)
	if !ok {
		return nil
	}
	return &f
}
