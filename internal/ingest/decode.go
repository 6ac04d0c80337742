package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/fields"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/mathutil"
)

// Reading is one decoded session message.
type Reading struct {
	Station string
	Point   series.SessionPoint
}

var (
	errMissingStation = errors.New("station missing or empty")
	errMissingTime    = errors.New("timestamp missing or unparseable")
	errMissingPower   = errors.New("power missing or not a finite number")
)

// DecodeReading parses a JSON session message. The station may be omitted
// from the payload when fallbackStation is non-empty.
func DecodeReading(raw []byte, fallbackStation string) (Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec fields.Record
	if err := dec.Decode(&rec); err != nil {
		return Reading{}, fmt.Errorf("decode session payload: %w", err)
	}

	station, ok := fields.StringField(rec, fields.StationKeys...)
	if !ok || station == "" {
		station = strings.TrimSpace(fallbackStation)
	}
	if station == "" {
		return Reading{}, errMissingStation
	}
	date, ok := fields.TimeField(rec, fields.DateKeys...)
	if !ok {
		return Reading{}, errMissingTime
	}
	power, ok := fields.FloatField(rec, fields.PowerKeys...)
	if !ok {
		return Reading{}, errMissingPower
	}
	return Reading{
		Station: station,
		Point:   series.SessionPoint{Date: date, PowerKW: mathutil.Round(power)},
	}, nil
}

// StationFromTopic extracts the station from topics shaped like
// "stations/<id>/..." and returns "" for anything else.
func StationFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "stations" && parts[i+1] != "" && parts[i+1] != "+" && parts[i+1] != "#" {
			return parts[i+1]
		}
	}
	return ""
}
