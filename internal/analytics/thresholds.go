// Package analytics derives display-ready series and tables from normalized
// prediction and session data. Every function is pure: inputs are never
// modified and malformed input degrades to empty or zero results.
package analytics

import "github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"

// Thresholds holds the product-tuned constants used by the analytics. A zero
// or negative field means "unset": WithDefaults replaces it with the shipped
// value, so no threshold can be configured to zero. Use a small positive
// value (e.g. slackPercent: 0.01) for a band that should trigger on any
// probability.
type Thresholds struct {
	RatePerKW                 float64 `mapstructure:"ratePerKw" yaml:"ratePerKw" json:"ratePerKw"`
	ShortagePenaltyMultiplier float64 `mapstructure:"shortagePenaltyMultiplier" yaml:"shortagePenaltyMultiplier" json:"shortagePenaltyMultiplier"`
	OverfitRelativeError      float64 `mapstructure:"overfitRelativeError" yaml:"overfitRelativeError" json:"overfitRelativeError"`
	OverfitMinOverlapDays     int     `mapstructure:"overfitMinOverlapDays" yaml:"overfitMinOverlapDays" json:"overfitMinOverlapDays"`
	SlackPercent              float64 `mapstructure:"slackPercent" yaml:"slackPercent" json:"slackPercent"`
	InefficientPercent        float64 `mapstructure:"inefficientPercent" yaml:"inefficientPercent" json:"inefficientPercent"`
	OverlayDampingFloor       float64 `mapstructure:"overlayDampingFloor" yaml:"overlayDampingFloor" json:"overlayDampingFloor"`
	OverlayAmplificationCap   float64 `mapstructure:"overlayAmplificationCap" yaml:"overlayAmplificationCap" json:"overlayAmplificationCap"`
	HistogramBins             int     `mapstructure:"histogramBins" yaml:"histogramBins" json:"histogramBins"`
	SmoothingWindow           int     `mapstructure:"smoothingWindow" yaml:"smoothingWindow" json:"smoothingWindow"`
}

// DefaultThresholds returns the shipped values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RatePerKW:                 constants.ContractRatePerKW,
		ShortagePenaltyMultiplier: constants.ShortagePenaltyMultiplier,
		OverfitRelativeError:      constants.OverfitRelativeErrorThreshold,
		OverfitMinOverlapDays:     constants.OverfitMinOverlapDays,
		SlackPercent:              constants.SlackProbabilityPercent,
		InefficientPercent:        constants.InefficientProbabilityPercent,
		OverlayDampingFloor:       constants.OverlayDampingFloor,
		OverlayAmplificationCap:   constants.OverlayAmplificationCap,
		HistogramBins:             constants.DefaultHistogramBins,
		SmoothingWindow:           constants.DefaultSmoothingWindow,
	}
}

// WithDefaults replaces unset (zero or negative) fields with the shipped
// values. An explicit zero is indistinguishable from an omitted field.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.RatePerKW <= 0 {
		t.RatePerKW = d.RatePerKW
	}
	if t.ShortagePenaltyMultiplier <= 0 {
		t.ShortagePenaltyMultiplier = d.ShortagePenaltyMultiplier
	}
	if t.OverfitRelativeError <= 0 {
		t.OverfitRelativeError = d.OverfitRelativeError
	}
	if t.OverfitMinOverlapDays <= 0 {
		t.OverfitMinOverlapDays = d.OverfitMinOverlapDays
	}
	if t.SlackPercent <= 0 {
		t.SlackPercent = d.SlackPercent
	}
	if t.InefficientPercent <= 0 {
		t.InefficientPercent = d.InefficientPercent
	}
	if t.OverlayDampingFloor <= 0 {
		t.OverlayDampingFloor = d.OverlayDampingFloor
	}
	if t.OverlayAmplificationCap <= 0 {
		t.OverlayAmplificationCap = d.OverlayAmplificationCap
	}
	if t.HistogramBins <= 0 {
		t.HistogramBins = d.HistogramBins
	}
	if t.SmoothingWindow <= 0 {
		t.SmoothingWindow = d.SmoothingWindow
	}
	return t
}
