// Package series converts loosely typed records from the prediction backend
// into strict numeric sequences. It is the single ingestion boundary for the
// analytics: entries that cannot be interpreted are dropped, never passed on
// as NaN.
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/fields"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/mathutil"
)

// SessionPoint is one observed or predicted charging-session peak.
type SessionPoint struct {
	Date    time.Time `json:"date"`
	PowerKW float64   `json:"power_kw"`
}

// Raw renders the point back into the record shape accepted by
// NormalizeSessionSeries.
func (p SessionPoint) Raw() fields.Record {
	return fields.Record{"date": p.Date, "power_kw": p.PowerKW}
}

// ShortfallDailyPoint is one simulated day of the shortfall projection.
type ShortfallDailyPoint struct {
	Date             time.Time `json:"date"`
	SimulatedPeakKW  float64   `json:"simulated_peak_kw"`
	OvershootKW      float64   `json:"overshoot_kw"`
	HistoricalPeakKW *float64  `json:"historical_peak_kw,omitempty"`
	RiskFactor       *float64  `json:"risk_factor,omitempty"`
}

// CandidateDetail is a candidate contract level with its risk figures.
// Probabilities are on a 0-100 scale.
type CandidateDetail struct {
	ContractKW                float64  `json:"contract_kw"`
	OverageProbability        float64  `json:"overage_probability"`
	WasteProbability          float64  `json:"waste_probability"`
	SessionOverageProbability *float64 `json:"session_overage_probability,omitempty"`
	SessionWasteProbability   *float64 `json:"session_waste_probability,omitempty"`
	AvgOvershootKW            *float64 `json:"avg_overshoot_kw,omitempty"`
	MaxOvershootKW            *float64 `json:"max_overshoot_kw,omitempty"`
	ExpectedOverageDays       *float64 `json:"expected_overage_days,omitempty"`
	AnnualCost                *float64 `json:"annual_cost,omitempty"`
}

// EffectiveWasteProbability prefers the session-level waste probability.
func (c CandidateDetail) EffectiveWasteProbability() float64 {
	if c.SessionWasteProbability != nil {
		return *c.SessionWasteProbability
	}
	return c.WasteProbability
}

// EffectiveOverageProbability prefers the session-level overage probability.
func (c CandidateDetail) EffectiveOverageProbability() float64 {
	if c.SessionOverageProbability != nil {
		return *c.SessionOverageProbability
	}
	return c.OverageProbability
}

// DecodeRecords decodes a JSON array of objects. Numbers are kept as
// json.Number so large epoch values survive intact.
func DecodeRecords(data []byte) ([]fields.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var records []fields.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// NormalizeSessionSeries keeps the entries with a parseable date and a finite
// power value, rounds power to two decimals and sorts ascending by time.
// Normalizing an already normalized series returns the same series.
func NormalizeSessionSeries(raw []fields.Record) []SessionPoint {
	out := make([]SessionPoint, 0, len(raw))
	for _, entry := range raw {
		date, ok := fields.TimeField(entry, fields.DateKeys...)
		if !ok {
			continue
		}
		power, ok := fields.FloatField(entry, fields.PowerKeys...)
		if !ok {
			continue
		}
		power = mathutil.Round(power)
		if !mathutil.IsFinite(power) {
			continue
		}
		out = append(out, SessionPoint{Date: date, PowerKW: power})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// NormalizeCandidate converts one candidate record. The record is rejected
// when contract_kw is missing or unparseable. Required probabilities default
// to 0; optional fields are nil when absent or unparseable.
func NormalizeCandidate(raw fields.Record) (CandidateDetail, bool) {
	contract, ok := fields.FloatField(raw, fields.ContractKeys...)
	if !ok {
		return CandidateDetail{}, false
	}

	c := CandidateDetail{ContractKW: contract}
	if v, ok := fields.FloatField(raw, fields.OverageKeys...); ok {
		c.OverageProbability = mathutil.NormalizePercent(v)
	}
	if v, ok := fields.FloatField(raw, fields.WasteKeys...); ok {
		c.WasteProbability = mathutil.NormalizePercent(v)
	}
	c.SessionOverageProbability = percentPtr(fields.OptionalFloat(raw, fields.SessionOverageKeys...))
	c.SessionWasteProbability = percentPtr(fields.OptionalFloat(raw, fields.SessionWasteKeys...))
	c.AvgOvershootKW = fields.OptionalFloat(raw, fields.AvgOvershootKeys...)
	c.MaxOvershootKW = fields.OptionalFloat(raw, fields.MaxOvershootKeys...)
	c.ExpectedOverageDays = fields.OptionalFloat(raw, fields.ExpectedOverageKeys...)
	c.AnnualCost = fields.OptionalFloat(raw, fields.AnnualCostKeys...)
	return c, true
}

// NormalizeCandidates normalizes each record and keeps the valid ones in
// their input order.
func NormalizeCandidates(raw []fields.Record) []CandidateDetail {
	out := make([]CandidateDetail, 0, len(raw))
	for _, entry := range raw {
		if c, ok := NormalizeCandidate(entry); ok {
			out = append(out, c)
		}
	}
	return out
}

// NormalizeShortfallProjection keeps entries with a parseable date and
// simulated peak. overshoot_kw is taken from the record when present and
// otherwise derived as max(0, simulated - contractKW). The result is sorted
// ascending by date.
func NormalizeShortfallProjection(raw []fields.Record, contractKW float64) []ShortfallDailyPoint {
	out := make([]ShortfallDailyPoint, 0, len(raw))
	for _, entry := range raw {
		date, ok := fields.TimeField(entry, fields.DateKeys...)
		if !ok {
			continue
		}
		simulated, ok := fields.FloatField(entry, fields.SimulatedPeakKeys...)
		if !ok {
			continue
		}

		overshoot, ok := fields.FloatField(entry, fields.OvershootKeys...)
		if !ok {
			overshoot = simulated - contractKW
			if !mathutil.IsFinite(contractKW) {
				overshoot = 0
			}
		}

		out = append(out, ShortfallDailyPoint{
			Date:             date,
			SimulatedPeakKW:  simulated,
			OvershootKW:      math.Max(0, overshoot),
			HistoricalPeakKW: fields.OptionalFloat(entry, fields.HistoricalPeakKeys...),
			RiskFactor:       fields.OptionalFloat(entry, fields.RiskFactorKeys...),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func percentPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := mathutil.NormalizePercent(*v)
	return &p
}

// ProjectedPeaks exposes the simulated daily peaks of a shortfall projection
// as session points so they can be compared with observed sessions.
func ProjectedPeaks(projection []ShortfallDailyPoint) []SessionPoint {
	out := make([]SessionPoint, 0, len(projection))
	for _, p := range projection {
		out = append(out, SessionPoint{Date: p.Date, PowerKW: p.SimulatedPeakKW})
	}
	return out
}
