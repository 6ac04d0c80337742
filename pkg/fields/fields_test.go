package fields

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLookupOrder(t *testing.T) {
	raw := Record{"date": "2024-01-02", "timestamp": "2024-05-06"}
	v, ok := Lookup(raw, DateKeys...)
	if !ok || v != "2024-05-06" {
		t.Fatalf("Lookup() = %v, %v; expected the first alias to win", v, ok)
	}
}

func TestLookupSkipsNilAndBlank(t *testing.T) {
	raw := Record{"peak_kw": nil, "peakKw": "  ", "value": 42.0}
	v, ok := Lookup(raw, PowerKeys...)
	if !ok || v != 42.0 {
		t.Fatalf("Lookup() = %v, %v; expected fallback to value", v, ok)
	}
	if _, ok := Lookup(nil, PowerKeys...); ok {
		t.Fatal("expected lookup on nil record to miss")
	}
	if _, ok := Lookup(Record{"other": 1}, PowerKeys...); ok {
		t.Fatal("expected lookup without aliases to miss")
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		ok       bool
	}{
		{"float64", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"int64", int64(9), 9, true},
		{"json.Number", json.Number("3.25"), 3.25, true},
		{"numeric string", " 88.1 ", 88.1, true},
		{"thousands separator", "1,250.5", 1250.5, true},
		{"kW suffix", "72 kW", 72, true},
		{"percent suffix", "35%", 35, true},
		{"empty string", "", 0, false},
		{"text", "abc", 0, false},
		{"NaN string", "NaN", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Float(tt.input)
			if ok != tt.ok || (ok && got != tt.expected) {
				t.Errorf("Float(%v) = %v, %v; expected %v, %v", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestOptionalFloat(t *testing.T) {
	raw := Record{"annual_cost": "n/a", "risk_factor": "0.4"}
	if got := OptionalFloat(raw, AnnualCostKeys...); got != nil {
		t.Errorf("expected nil for unparseable value, got %v", *got)
	}
	got := OptionalFloat(raw, RiskFactorKeys...)
	if got == nil || *got != 0.4 {
		t.Errorf("expected 0.4, got %v", got)
	}
}

func TestTimeField(t *testing.T) {
	raw := Record{"time": "2024-02-03T04:05:06Z"}
	got, ok := TimeField(raw, DateKeys...)
	if !ok || !got.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Fatalf("TimeField() = %v, %v", got, ok)
	}
	if _, ok := TimeField(Record{"date": "soon"}, DateKeys...); ok {
		t.Fatal("expected unparseable date to fail")
	}
}

func TestStringField(t *testing.T) {
	if got, ok := StringField(Record{"station": " ST-01 "}, StationKeys...); !ok || got != "ST-01" {
		t.Errorf("StringField() = %q, %v", got, ok)
	}
	if got, ok := StringField(Record{"stationId": 17.0}, StationKeys...); !ok || got != "17" {
		t.Errorf("StringField(number) = %q, %v", got, ok)
	}
}
