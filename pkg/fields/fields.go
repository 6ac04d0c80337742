// Package fields implements tolerant access to loosely typed JSON records.
// The prediction backend has renamed fields across versions, so every
// logical field is described by an ordered alias list that is tried in
// sequence.
package fields

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/datetime"
)

// Alias lists for the logical fields consumed by the normalizers.
var (
	DateKeys            = []string{"timestamp", "date", "time", "datetime", "start_time", "startTime"}
	PowerKeys           = []string{"peak_kw", "peakKw", "predicted_peak_kw", "predictedPeakKw", "power_kw", "powerKw", "power", "value"}
	ContractKeys        = []string{"contract_kw", "contractKw", "contract", "kw"}
	OverageKeys         = []string{"overage_probability", "overageProbability", "overage_prob", "exceed_probability"}
	WasteKeys           = []string{"waste_probability", "wasteProbability", "waste_prob"}
	SessionOverageKeys  = []string{"session_overage_probability", "sessionOverageProbability"}
	SessionWasteKeys    = []string{"session_waste_probability", "sessionWasteProbability"}
	AvgOvershootKeys    = []string{"session_avg_overshoot_kw", "avg_overshoot_kw", "avgOvershootKw"}
	MaxOvershootKeys    = []string{"session_max_overshoot_kw", "max_overshoot_kw", "maxOvershootKw"}
	ExpectedOverageKeys = []string{"expected_overage_days", "expectedOverageDays"}
	AnnualCostKeys      = []string{"annual_cost", "annualCost", "total_cost"}
	SimulatedPeakKeys   = []string{"simulated_peak_kw", "simulatedPeakKw"}
	OvershootKeys       = []string{"overshoot_kw", "overshootKw"}
	HistoricalPeakKeys  = []string{"historical_peak_kw", "historicalPeakKw"}
	RiskFactorKeys      = []string{"risk_factor", "riskFactor"}
	StationKeys         = []string{"station_id", "stationId", "station"}
)

// Record is a decoded JSON object.
type Record = map[string]interface{}

// Lookup returns the first present value among keys. Nil values and blank
// strings count as absent.
func Lookup(raw Record, keys ...string) (interface{}, bool) {
	if raw == nil {
		return nil, false
	}
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Float coerces a JSON scalar into a finite float64. Numeric strings may carry
// thousands separators and a trailing unit such as "kW" or "%".
func Float(value interface{}) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumericString(v)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	for _, suffix := range []string{"kw", "%"} {
		if strings.HasSuffix(lower, suffix) {
			trimmed = strings.TrimSpace(trimmed[:len(trimmed)-len(suffix)])
			break
		}
	}
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatField looks up keys and coerces the first present value.
func FloatField(raw Record, keys ...string) (float64, bool) {
	v, ok := Lookup(raw, keys...)
	if !ok {
		return 0, false
	}
	return Float(v)
}

// OptionalFloat returns a pointer to the coerced value, or nil when the field
// is absent or unparseable.
func OptionalFloat(raw Record, keys ...string) *float64 {
	f, ok := FloatField(raw, keys...)
	if !ok {
		return nil
	}
	return &f
}

// TimeField looks up keys and parses the first present value as an instant.
func TimeField(raw Record, keys ...string) (time.Time, bool) {
	v, ok := Lookup(raw, keys...)
	if !ok {
		return time.Time{}, false
	}
	return datetime.ParseInstant(v)
}

// StringField returns the first present value rendered as a trimmed string.
func StringField(raw Record, keys ...string) (string, bool) {
	v, ok := Lookup(raw, keys...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}
