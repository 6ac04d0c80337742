// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"
	"math"
	"os"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
)

// FindScenario finds the scenario row for a contract level.
// Returns a pointer to the row if found, nil otherwise.
func FindScenario(rows []analytics.ScenarioRow, contractKW float64) *analytics.ScenarioRow {
	for i := range rows {
		if AlmostEqual(rows[i].ContractKW, contractKW, 1e-9) {
			return &rows[i]
		}
	}
	return nil
}

// AlmostEqual reports whether a and b differ by at most tolerance.
func AlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// LoadState reads a station state fixture the way the API decodes it.
func LoadState(path string) (dashboard.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dashboard.State{}, err
	}
	state, err := dashboard.DecodeState(data)
	if err != nil {
		return dashboard.State{}, fmt.Errorf("error decoding state fixture %s: %w", path, err)
	}
	return state, nil
}
