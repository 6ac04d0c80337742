package analytics

import (
	"sort"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/datetime"
)

// Point is a chart coordinate. For time series X holds Unix epoch milliseconds.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SmoothChronologicalSeries returns the trailing moving average of entries
// in chronological order. The first points average over however many values
// are available. A non-positive windowSize uses the default window.
func SmoothChronologicalSeries(entries []series.SessionPoint, windowSize int) []Point {
	if windowSize <= 0 {
		windowSize = constants.DefaultSmoothingWindow
	}

	sorted := append([]series.SessionPoint(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]Point, 0, len(sorted))
	sum := 0.0
	for i, entry := range sorted {
		sum += entry.PowerKW
		if i >= windowSize {
			sum -= sorted[i-windowSize].PowerKW
		}
		n := min(i+1, windowSize)
		out = append(out, Point{X: datetime.EpochMillis(entry.Date), Y: sum / float64(n)})
	}
	return out
}

// SessionPoints converts a session series into chart points without smoothing.
func SessionPoints(entries []series.SessionPoint) []Point {
	out := make([]Point, 0, len(entries))
	for _, entry := range entries {
		out = append(out, Point{X: datetime.EpochMillis(entry.Date), Y: entry.PowerKW})
	}
	return out
}
