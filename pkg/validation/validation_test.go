package validation

import (
	"strings"
	"testing"
)

var shippedBands = ThresholdBands{
	SlackPercent:            30,
	InefficientPercent:      60,
	OverfitRelativeError:    0.35,
	OverlayDampingFloor:     0.2,
	OverlayAmplificationCap: 2.5,
}

func withBands(edit func(*ThresholdBands)) *ThresholdBands {
	b := shippedBands
	edit(&b)
	return &b
}

// problems runs the output format check, or the threshold check when bands
// is set, and returns the messages it produced.
func problems(format string, bands *ThresholdBands) []string {
	if bands != nil {
		return ValidateThresholds(*bands)
	}
	if err := ValidateOutputFormat(format); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		bands    *ThresholdBands
		want     int
		mentions string
	}{
		{name: "Pretty output", format: "pretty"},
		{name: "CSV output", format: "csv"},
		{name: "JSON output", format: "json"},
		{name: "Empty output format", format: "", want: 1},
		{name: "Output format is case sensitive", format: "JSON", want: 1, mentions: `"JSON"`},
		{name: "Output format is not trimmed", format: " pretty ", want: 1},
		{name: "Unsupported output format", format: "xml", want: 1, mentions: `"xml"`},
		{name: "Shipped threshold bands", bands: withBands(func(*ThresholdBands) {})},
		{name: "Inverted probability bands", bands: withBands(func(b *ThresholdBands) { b.SlackPercent = 70 }), want: 1, mentions: "never be assigned"},
		{name: "Equal probability bands", bands: withBands(func(b *ThresholdBands) { b.SlackPercent = 60 }), want: 1},
		{name: "Band above 100 percent", bands: withBands(func(b *ThresholdBands) { b.InefficientPercent = 600 }), want: 1, mentions: "percentages"},
		{name: "Relative error given as percent", bands: withBands(func(b *ThresholdBands) { b.OverfitRelativeError = 35 }), want: 1, mentions: "fraction"},
		{name: "Overlay bounds swapped", bands: withBands(func(b *ThresholdBands) {
			b.OverlayDampingFloor, b.OverlayAmplificationCap = 2.5, 0.2
		}), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := problems(tt.format, tt.bands)
			if len(got) != tt.want {
				t.Fatalf("got %d problems, want %d: %v", len(got), tt.want, got)
			}
			if tt.mentions != "" && !strings.Contains(strings.Join(got, "\n"), tt.mentions) {
				t.Errorf("problems %v do not mention %q", got, tt.mentions)
			}
		})
	}
}
