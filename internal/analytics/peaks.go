package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/datetime"
)

// OverfitSignal reports how far a projection diverges from observed daily
// peaks. MAE and RelativeError are nil when there was not enough overlap to
// judge; RelativeError is also nil when the mean observed peak is zero.
type OverfitSignal struct {
	IsRisk        bool     `json:"isRisk"`
	MAE           *float64 `json:"mae"`
	RelativeError *float64 `json:"relativeError"`
	CoverageDays  int      `json:"coverageDays"`
	Message       string   `json:"message"`
}

// AggregateDailyPeaks keeps the maximum power per UTC calendar day.
func AggregateDailyPeaks(points []series.SessionPoint) map[string]float64 {
	peaks := make(map[string]float64)
	for _, p := range points {
		key := datetime.DayKey(p.Date)
		if current, ok := peaks[key]; !ok || p.PowerKW > current {
			peaks[key] = p.PowerKW
		}
	}
	return peaks
}

// SortedDailyPeaks returns the daily peaks in chronological order, each
// placed at midnight UTC of its day.
func SortedDailyPeaks(points []series.SessionPoint) []Point {
	peaks := make(map[time.Time]float64)
	for _, p := range points {
		day := datetime.DayStart(p.Date)
		if current, ok := peaks[day]; !ok || p.PowerKW > current {
			peaks[day] = p.PowerKW
		}
	}

	days := make([]time.Time, 0, len(peaks))
	for day := range peaks {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]Point, 0, len(days))
	for _, day := range days {
		out = append(out, Point{X: datetime.EpochMillis(day), Y: peaks[day]})
	}
	return out
}

// ComputeOverfitSignal compares the projected daily peaks with observed
// daily peaks on the days both cover. Fewer than th.OverfitMinOverlapDays
// overlapping days never raise the risk flag.
func ComputeOverfitSignal(sessions, projection []series.SessionPoint, th Thresholds) OverfitSignal {
	th = th.WithDefaults()
	actual := AggregateDailyPeaks(sessions)
	projected := AggregateDailyPeaks(projection)

	var absErr, actualSum float64
	coverage := 0
	for _, key := range sortedKeys(projected) {
		observed, ok := actual[key]
		if !ok {
			continue
		}
		absErr += math.Abs(projected[key] - observed)
		actualSum += observed
		coverage++
	}

	if coverage < th.OverfitMinOverlapDays {
		return OverfitSignal{
			CoverageDays: coverage,
			Message:      "not enough overlapping days to judge the projection",
		}
	}

	mae := absErr / float64(coverage)
	signal := OverfitSignal{MAE: &mae, CoverageDays: coverage}
	meanActual := actualSum / float64(coverage)
	if meanActual == 0 {
		signal.Message = "observed peaks average zero; relative error undefined"
		return signal
	}

	rel := mae / meanActual
	signal.RelativeError = &rel
	signal.IsRisk = rel > th.OverfitRelativeError
	if signal.IsRisk {
		signal.Message = "projection diverges from recent observed peaks"
	} else {
		signal.Message = "projection tracks recent observed peaks"
	}
	return signal
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
