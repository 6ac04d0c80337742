package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
)

// DecodeState reads a station state document. A bare JSON array is taken as
// the session list of an otherwise empty state. Numbers are kept as
// json.Number so large epoch values survive intact.
func DecodeState(data []byte) (State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		records, err := series.DecodeRecords(trimmed)
		if err != nil {
			return State{}, err
		}
		return State{Sessions: records}, nil
	}

	var state State
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}
