package datetime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	ref := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    interface{}
		expected time.Time
		ok       bool
	}{
		{"RFC3339", "2024-03-05T14:30:00Z", ref, true},
		{"RFC3339 with offset", "2024-03-05T23:30:00+09:00", ref, true},
		{"No zone is UTC", "2024-03-05T14:30:00", ref, true},
		{"Space separated", "2024-03-05 14:30:00", ref, true},
		{"Date only", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"Epoch millis float", float64(ref.UnixMilli()), ref, true},
		{"Epoch millis int64", ref.UnixMilli(), ref, true},
		{"Epoch millis json.Number", json.Number("1709649000000"), ref, true},
		{"Epoch millis string", "1709649000000", ref, true},
		{"time.Time passthrough", ref, ref, true},
		{"Empty string", "", time.Time{}, false},
		{"Garbage", "not a date", time.Time{}, false},
		{"Nil", nil, time.Time{}, false},
		{"Bool", true, time.Time{}, false},
		{"Zero time", time.Time{}, time.Time{}, false},
		{"Zero instant string", "0001-01-01T00:00:00Z", time.Time{}, false},
		{"First second of year one", "0001-01-01T00:00:01Z", time.Date(1, 1, 1, 0, 0, 1, 0, time.UTC), true},
		{"Epoch micros read as millis", json.Number("1000000000000000"), time.Time{}, false},
		{"Year past 9999", time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}, false},
		{"Last millisecond of 9999", float64(253402300799999), time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC), true},
		{"Huge float", 1e300, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInstant(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseInstant(%v) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.expected) {
				t.Errorf("ParseInstant(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDayKeyUsesUTC(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	local := time.Date(2024, 3, 6, 2, 0, 0, 0, kst)
	if got := DayKey(local); got != "2024-03-05" {
		t.Errorf("DayKey() = %s, expected 2024-03-05", got)
	}
}

func TestEpochMillis(t *testing.T) {
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := EpochMillis(ref); got != float64(ref.UnixMilli()) {
		t.Errorf("EpochMillis() = %v", got)
	}
}

func TestDayStart(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{"UTC afternoon", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"Zone ahead of UTC", time.Date(2024, 3, 6, 2, 0, 0, 0, kst), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"Last day of 9999", time.Date(9999, 12, 31, 23, 59, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayStart(tt.input); !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("DayStart(%v) = %v, expected %v", tt.input, got, tt.want)
			}
		})
	}
}
