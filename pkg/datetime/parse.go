// Package datetime provides date and time utility functions.
package datetime

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
)

// DayLayout is the calendar-day format used for daily keys.
const DayLayout = constants.DayLayout

// layouts are tried in order by ParseInstant. Layouts without a zone are
// interpreted as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02",
	DayLayout,
}

// Instants outside years 0001-9999 (UTC) cannot be formatted as day keys
// and are rejected, as is the zero time.
const (
	minEpochMillis = -62135596800000 // 0001-01-01T00:00:00Z
	maxEpochMillis = 253402300799999 // 9999-12-31T23:59:59.999Z
)

// ParseInstant converts a loosely typed timestamp into a time.Time. Strings
// are matched against the supported layouts, numbers are read as Unix epoch
// milliseconds. The boolean is false when no interpretation applies or the
// instant is the zero time or falls outside years 0001-9999.
func ParseInstant(value interface{}) (time.Time, bool) {
	t, ok := parseInstant(value)
	if !ok || !InRange(t) {
		return time.Time{}, false
	}
	return t, true
}

// InRange reports whether t is a non-zero instant in years 0001-9999 UTC.
func InRange(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

func parseInstant(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseString(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return fromEpochMillis(f)
		}
		return parseString(v.String())
	case float64:
		return fromEpochMillis(v)
	case float32:
		return fromEpochMillis(float64(v))
	case int:
		return fromEpochMillis(float64(v))
	case int64:
		return fromEpochMillis(float64(v))
	}
	return time.Time{}, false
}

func parseString(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return fromEpochMillis(f)
	}
	return time.Time{}, false
}

func fromEpochMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || ms < minEpochMillis || ms > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// DayKey returns the calendar date of the UTC instant as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// DayStart returns midnight UTC of the calendar day containing t.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EpochMillis returns t as Unix milliseconds in float form for chart axes.
func EpochMillis(t time.Time) float64 {
	return float64(t.UnixMilli())
}
