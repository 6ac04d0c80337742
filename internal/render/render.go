// Package render draws dashboard views as PNG charts.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/format"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/stats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Kind names a chart of the dashboard.
type Kind string

// Supported chart kinds.
const (
	KindHistogram Kind = "histogram"
	KindSessions  Kind = "sessions"
	KindScenarios Kind = "scenarios"
	KindShortfall Kind = "shortfall"
)

var (
	// ErrUnknownKind is returned for chart names outside the supported set.
	ErrUnknownKind = errors.New("unknown chart kind")

	// ErrNoData is returned when the view has nothing to draw for the chart.
	ErrNoData = errors.New("no data to chart")
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 480
)

var (
	colorPrimary   = chart.ColorBlue
	colorSecondary = chart.ColorAlternateGray
	colorAccent    = chart.ColorGreen
	colorContract  = chart.ColorRed
)

// Options sizes the rendered image. Zero values use the defaults.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// ParseKind validates a chart name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindHistogram, KindSessions, KindScenarios, KindShortfall:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Render writes the chart of the given kind for view to w as PNG.
func Render(w io.Writer, kind Kind, view dashboard.View, opts Options) error {
	switch kind {
	case KindHistogram:
		return renderHistogram(w, view, opts)
	case KindSessions:
		return renderSessions(w, view, opts)
	case KindScenarios:
		return renderScenarios(w, view, opts)
	case KindShortfall:
		return renderShortfall(w, view, opts)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func renderHistogram(w io.Writer, view dashboard.View, opts Options) error {
	bins := view.Distribution.Histogram
	if len(bins) == 0 {
		return ErrNoData
	}

	width := stats.BinWidth(bins)
	xs := make([]float64, 0, 2*len(bins))
	ys := make([]float64, 0, 2*len(bins))
	for _, b := range bins {
		xs = append(xs, b.X-width/2, b.X+width/2)
		ys = append(ys, b.Y, b.Y)
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Predicted peaks",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: colorPrimary,
				StrokeWidth: 1,
				FillColor:   colorPrimary.WithAlpha(96),
			},
		},
	}
	yMax := stats.PeakCount(bins)

	if curve := view.Distribution.NormalCurve; len(curve) > 1 {
		cx, cy := split(curve)
		yMax = math.Max(yMax, stats.SafeMax(cy))
		series = append(series, chart.ContinuousSeries{
			Name:    "Normal fit",
			XValues: cx,
			YValues: cy,
			Style:   line(colorSecondary, 2),
		})
	}
	if len(view.Overlay) > 1 {
		ox, oy := split(view.Overlay)
		yMax = math.Max(yMax, stats.SafeMax(oy))
		series = append(series, chart.ContinuousSeries{
			Name:    "LSTM undershoot",
			XValues: ox,
			YValues: oy,
			Style:   line(colorAccent, 2),
		})
	}
	if view.ContractKW > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "Contract " + format.KW(view.ContractKW),
			XValues: []float64{view.ContractKW, view.ContractKW},
			YValues: []float64{0, yMax},
			Style:   dashed(colorContract),
		})
	}

	ch := baseChart("Prediction distribution", opts, series)
	ch.XAxis = chart.XAxis{Name: "kW"}
	ch.YAxis = chart.YAxis{Name: "count", Range: &chart.ContinuousRange{Min: 0, Max: headroom(yMax)}}
	return renderChart(w, ch)
}

func renderSessions(w io.Writer, view dashboard.View, opts Options) error {
	if len(view.SessionChart) == 0 {
		return ErrNoData
	}

	series := []chart.Series{
		timeSeries("Sessions", view.SessionChart, chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
			DotColor:    colorSecondary,
		}),
		timeSeries("Moving average", view.Smoothed, line(colorPrimary, 2)),
	}
	all := [][]analytics.Point{view.SessionChart, view.Smoothed}
	if len(view.Validation.Predicted) > 0 {
		series = append(series, timeSeries("Predicted daily peak", view.Validation.Predicted, line(colorAccent, 2)))
		all = append(all, view.Validation.Predicted)
	}
	if view.ContractKW > 0 {
		series = append(series, contractLine(view.ContractKW, view.SessionChart))
	}

	lo, hi := yBounds(view.ContractKW, all...)
	ch := baseChart("Charging sessions", opts, series)
	ch.XAxis = chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("01-02")}
	ch.YAxis = chart.YAxis{Name: "kW", Range: &chart.ContinuousRange{Min: lo, Max: hi}}
	return renderChart(w, ch)
}

func renderScenarios(w io.Writer, view dashboard.View, opts Options) error {
	if len(view.Scenarios) == 0 {
		return ErrNoData
	}

	width, height := opts.size()
	bars := make([]chart.Value, 0, len(view.Scenarios))
	maxTotal := 0.0
	for _, row := range view.Scenarios {
		color := colorSecondary
		if row.Scenario == analytics.ScenarioOptimal {
			color = colorPrimary
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s %s", row.Scenario, format.KW(row.ContractKW)),
			Value: row.TotalMonthly,
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		})
		maxTotal = math.Max(maxTotal, row.TotalMonthly)
	}

	bc := chart.BarChart{
		Title:      "Monthly cost by contract",
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: headroom(maxTotal)},
			ValueFormatter: func(v interface{}) string { return format.Currency(toFloat(v)) },
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scenarios chart: %w", err)
	}
	return nil
}

func renderShortfall(w io.Writer, view dashboard.View, opts Options) error {
	sim := view.Shortfall.Simulated
	if len(sim) == 0 {
		return ErrNoData
	}

	series := []chart.Series{timeSeries("Simulated peak", sim, line(colorPrimary, 2))}
	all := [][]analytics.Point{sim}
	if len(view.Shortfall.Historical) > 0 {
		series = append(series, timeSeries("Historical peak", view.Shortfall.Historical, line(colorSecondary, 1)))
		all = append(all, view.Shortfall.Historical)
	}
	if view.ContractKW > 0 {
		series = append(series, contractLine(view.ContractKW, sim))
	}

	lo, hi := yBounds(view.ContractKW, all...)
	ch := baseChart(fmt.Sprintf("Shortfall projection (%d days over contract)", view.OvershootDays), opts, series)
	ch.XAxis = chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("01-02")}
	ch.YAxis = chart.YAxis{Name: "kW", Range: &chart.ContinuousRange{Min: lo, Max: hi}}
	return renderChart(w, ch)
}

func baseChart(title string, opts Options, series []chart.Series) chart.Chart {
	width, height := opts.size()
	return chart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		Series:     series,
	}
}

func renderChart(w io.Writer, ch chart.Chart) error {
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", ch.Title, err)
	}
	return nil
}

// timeSeries converts epoch-millisecond points. A single point is widened to
// one day because the chart library rejects zero-width ranges.
func timeSeries(name string, points []analytics.Point, style chart.Style) chart.TimeSeries {
	xs := make([]time.Time, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	for _, p := range points {
		xs = append(xs, time.UnixMilli(int64(p.X)).UTC())
		ys = append(ys, p.Y)
	}
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}
	return chart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: style}
}

func contractLine(contractKW float64, span []analytics.Point) chart.TimeSeries {
	first := span[0]
	last := span[len(span)-1]
	return timeSeries("Contract "+format.KW(contractKW), []analytics.Point{
		{X: first.X, Y: contractKW},
		{X: last.X, Y: contractKW},
	}, dashed(colorContract))
}

func split(points []analytics.Point) ([]float64, []float64) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

func yBounds(contractKW float64, sets ...[]analytics.Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	if contractKW > 0 {
		lo, hi = contractKW, contractKW
	}
	for _, set := range sets {
		for _, p := range set {
			lo = math.Min(lo, p.Y)
			hi = math.Max(hi, p.Y)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return math.Max(0, lo-pad), hi + pad
}

func headroom(max float64) float64 {
	if max <= 0 {
		return 1
	}
	return max * 1.1
}

func barWidth(width, n int) int {
	w := width / (2 * n)
	if w > 120 {
		return 120
	}
	if w < 8 {
		return 8
	}
	return w
}

func line(c drawing.Color, width float64) chart.Style {
	return chart.Style{StrokeColor: c, StrokeWidth: width}
}

func dashed(c drawing.Color) chart.Style {
	return chart.Style{StrokeColor: c, StrokeWidth: 1.5, StrokeDashArray: []float64{6, 4}}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return 0
}
