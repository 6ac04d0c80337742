// Package ingest buffers live charging-session readings per station. Readings
// arrive from a Kafka topic or an MQTT subscription and are kept in a bounded
// in-memory store that the server turns into dashboard state on demand.
package ingest

import (
	"sort"
	"sync"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/fields"
)

// SessionStore keeps the most recent readings per station. It is safe for
// concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	maxSize  int
	stations map[string][]series.SessionPoint
}

// NewSessionStore returns a store holding at most max points per station.
// Non-positive values use the default capacity.
func NewSessionStore(max int) *SessionStore {
	if max <= 0 {
		max = constants.DefaultMaxPointsPerStation
	}
	return &SessionStore{maxSize: max, stations: make(map[string][]series.SessionPoint)}
}

// Append buffers p for station, evicting the oldest point when the station
// is at capacity. It returns the buffer depth and the evicted point, if any.
func (s *SessionStore) Append(station string, p series.SessionPoint) (count int, evicted *series.SessionPoint) {
	if station == "" {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.stations[station]
	if len(buf) >= s.maxSize {
		removed := buf[0]
		buf = append(buf[1:], p)
		s.stations[station] = buf
		return len(buf), &removed
	}
	buf = append(buf, p)
	s.stations[station] = buf
	return len(buf), nil
}

// Snapshot returns a copy of the points buffered for station in arrival order.
func (s *SessionStore) Snapshot(station string) []series.SessionPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf := s.stations[station]
	if len(buf) == 0 {
		return nil
	}
	out := make([]series.SessionPoint, len(buf))
	copy(out, buf)
	return out
}

// Records returns the buffered points for station in the raw record shape
// accepted by the session normalizer.
func (s *SessionStore) Records(station string) []fields.Record {
	points := s.Snapshot(station)
	out := make([]fields.Record, 0, len(points))
	for _, p := range points {
		out = append(out, p.Raw())
	}
	return out
}

// Stations lists the stations with buffered data in lexical order.
func (s *SessionStore) Stations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.stations))
	for station := range s.stations {
		out = append(out, station)
	}
	sort.Strings(out)
	return out
}
