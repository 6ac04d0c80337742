package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
)

// Memo caches the most recent view and only recomputes when the state or
// thresholds change. It is safe for concurrent use.
type Memo struct {
	mu         sync.Mutex
	thresholds analytics.Thresholds
	key        string
	view       View
	hits       int
	misses     int
}

// NewMemo returns a Memo that derives views with the given thresholds.
func NewMemo(th analytics.Thresholds) *Memo {
	return &Memo{thresholds: th.WithDefaults()}
}

// View returns the derived view for state, reusing the cached one when the
// state is unchanged. States that cannot be fingerprinted are always
// recomputed.
func (m *Memo) View(state State) View {
	key, ok := fingerprint(state)

	m.mu.Lock()
	defer m.mu.Unlock()
	if ok && key == m.key {
		m.hits++
		return m.view
	}
	m.misses++
	view := Recompute(state, m.thresholds)
	if ok {
		m.key = key
		m.view = view
	}
	return view
}

// Stats reports cache hits and misses.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

func fingerprint(state State) (string, bool) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}
