package integration

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/config"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/output"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/testutil"
)

const (
	configFixture = "../test_config.yaml"
	stateFixture  = "../station_state.json"
)

func loadFixtures(t *testing.T) (*config.Configuration, dashboard.State) {
	t.Helper()

	conf, err := config.LoadConfiguration(configFixture)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	state, err := testutil.LoadState(stateFixture)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	return conf, state
}

// TestMainIntegrationBaseline derives the fixture station exactly as the
// CLI does and checks the figures operators read off the dashboard.
func TestMainIntegrationBaseline(t *testing.T) {
	conf, state := loadFixtures(t)

	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Fatalf("unexpected configuration warnings: %v", warnings)
	}

	view := dashboard.Recompute(state, conf.Thresholds)

	if view.ContractKW != 90 {
		t.Errorf("expected contract 90 kW, got %v", view.ContractKW)
	}
	if got := view.Diagnostics; got.SessionsKept != 8 || got.CandidatesKept != 3 || got.ProjectionKept != 6 {
		t.Errorf("unexpected diagnostics %+v", got)
	}

	validateScenarioRows(t, view.Scenarios)
	validateDailyPeaks(t, view.DailyPeaks)

	if view.OvershootDays != 1 {
		t.Errorf("expected 1 day over contract, got %d", view.OvershootDays)
	}

	of := view.Overfit
	if of.IsRisk {
		t.Errorf("expected projection to track observed peaks, got %+v", of)
	}
	if of.CoverageDays != 6 {
		t.Errorf("expected 6 coverage days, got %d", of.CoverageDays)
	}
	if of.MAE == nil || !testutil.AlmostEqual(*of.MAE, 7.75/6, 1e-9) {
		t.Errorf("unexpected MAE %v", of.MAE)
	}

	dist := view.Distribution
	if dist.Summary.Count != 10 || dist.Summary.Min != 78 || dist.Summary.Max != 99 {
		t.Errorf("unexpected distribution summary %+v", dist.Summary)
	}
	if len(dist.Histogram) != 10 {
		t.Errorf("expected 10 histogram bins, got %d", len(dist.Histogram))
	}
	total := 0.0
	for _, b := range dist.Histogram {
		total += b.Y
	}
	if total != 10 {
		t.Errorf("expected histogram to hold 10 samples, got %v", total)
	}

	if len(view.Smoothed) != 8 {
		t.Fatalf("expected 8 smoothed points, got %d", len(view.Smoothed))
	}
	if last := view.Smoothed[7].Y; !testutil.AlmostEqual(last, 88.75, 1e-9) {
		t.Errorf("expected trailing 3-session average 88.75, got %v", last)
	}
}

func validateScenarioRows(t *testing.T, rows []analytics.ScenarioRow) {
	t.Helper()

	if len(rows) != 3 {
		t.Fatalf("expected 3 scenario rows, got %d", len(rows))
	}
	wantOrder := []analytics.Scenario{analytics.ScenarioOptimal, analytics.ScenarioUnder, analytics.ScenarioOver}
	for i, want := range wantOrder {
		if rows[i].Scenario != want {
			t.Errorf("row %d: expected %s, got %s", i, want, rows[i].Scenario)
		}
	}

	expected := []struct {
		contractKW float64
		total      float64
		evaluation string
	}{
		{90, 748800, analytics.EvaluationRecommended},
		{80, 699296, analytics.EvaluationOverageRisk},
		{100, 886080, analytics.EvaluationInefficient},
	}
	for _, want := range expected {
		row := testutil.FindScenario(rows, want.contractKW)
		if row == nil {
			t.Errorf("missing row for %v kW", want.contractKW)
			continue
		}
		if !testutil.AlmostEqual(row.TotalMonthly, want.total, 0.01) {
			t.Errorf("%v kW: expected total %.2f, got %.2f", want.contractKW, want.total, row.TotalMonthly)
		}
		if row.Evaluation != want.evaluation {
			t.Errorf("%v kW: expected %q, got %q", want.contractKW, want.evaluation, row.Evaluation)
		}
	}
}

func validateDailyPeaks(t *testing.T, peaks []analytics.Point) {
	t.Helper()

	want := map[string]float64{
		"2024-05-01": 88,
		"2024-05-02": 91.5,
		"2024-05-03": 79,
		"2024-05-04": 95.25,
		"2024-05-05": 84,
		"2024-05-06": 87,
	}
	if len(peaks) != len(want) {
		t.Fatalf("expected %d daily peaks, got %d", len(want), len(peaks))
	}
	prev := -1.0
	for _, p := range peaks {
		if p.X <= prev {
			t.Errorf("daily peaks not in chronological order at %v", p.X)
		}
		prev = p.X
		day := time.UnixMilli(int64(p.X)).UTC().Format(constants.DayLayout)
		if want[day] != p.Y {
			t.Errorf("%s: expected peak %v, got %v", day, want[day], p.Y)
		}
	}
}

func TestCSVOutputFormat(t *testing.T) {
	conf, state := loadFixtures(t)
	view := dashboard.Recompute(state, conf.Thresholds)

	var buf bytes.Buffer
	if err := output.Write(&buf, constants.OutputFormatCSV, view); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header and 3 rows, got %d records", len(records))
	}
	if records[0][0] != "scenario" || records[0][9] != "evaluation" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][0] != "optimal" || records[1][5] != "748800.00" {
		t.Errorf("unexpected optimal row %v", records[1])
	}
	if records[2][4] != "33696.00" {
		t.Errorf("expected shortage 33696.00 for the under row, got %v", records[2])
	}
}

func TestPrettyOutputFormat(t *testing.T) {
	conf, state := loadFixtures(t)
	view := dashboard.Recompute(state, conf.Thresholds)

	var buf bytes.Buffer
	if err := output.Write(&buf, constants.OutputFormatPretty, view); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"--- Contract ---",
		"Contract level: 90.00 kW",
		"--- Scenarios ---",
		"₩748,800",
		"overage risk",
		"2024-05-04 | 95.25 kW",
		"Days over contract: 1",
		"projection tracks recent observed peaks",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, analytics.EvaluationHighOverageRisk) {
		t.Errorf("did not expect %q in output", analytics.EvaluationHighOverageRisk)
	}
}

func TestJSONOutputFormat(t *testing.T) {
	conf, state := loadFixtures(t)
	view := dashboard.Recompute(state, conf.Thresholds)

	var buf bytes.Buffer
	if err := output.Write(&buf, constants.OutputFormatJSON, view); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded dashboard.View
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Scenarios) != 3 || len(decoded.DailyPeaks) != 6 {
		t.Errorf("unexpected decoded view: %d scenarios, %d peaks", len(decoded.Scenarios), len(decoded.DailyPeaks))
	}
}

func TestConfigurationVariations(t *testing.T) {
	_, state := loadFixtures(t)

	tests := []struct {
		name           string
		yaml           string
		contractKW     float64
		wantTotal      float64
		wantEvaluation string
	}{
		{
			name:           "Default thresholds",
			yaml:           "output:\n  format: csv\n",
			contractKW:     80,
			wantTotal:      699296,
			wantEvaluation: analytics.EvaluationOverageRisk,
		},
		{
			name:           "Higher rate",
			yaml:           "thresholds:\n  ratePerKw: 10000\n",
			contractKW:     90,
			wantTotal:      900000,
			wantEvaluation: analytics.EvaluationRecommended,
		},
		{
			name:           "Wider slack band",
			yaml:           "thresholds:\n  slackPercent: 50\n  inefficientPercent: 80\n",
			contractKW:     80,
			wantTotal:      699296,
			wantEvaluation: analytics.EvaluationStable,
		},
		{
			name:           "No shortage penalty surcharge",
			yaml:           "thresholds:\n  shortagePenaltyMultiplier: 1\n",
			contractKW:     80,
			wantTotal:      665600 + 22464,
			wantEvaluation: analytics.EvaluationOverageRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := config.LoadConfigurationFromReader(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatalf("LoadConfigurationFromReader() error = %v", err)
			}
			view := dashboard.Recompute(state, conf.Thresholds)
			row := testutil.FindScenario(view.Scenarios, tt.contractKW)
			if row == nil {
				t.Fatalf("missing row for %v kW", tt.contractKW)
			}
			if !testutil.AlmostEqual(row.TotalMonthly, tt.wantTotal, 0.01) {
				t.Errorf("expected total %.2f, got %.2f", tt.wantTotal, row.TotalMonthly)
			}
			if row.Evaluation != tt.wantEvaluation {
				t.Errorf("expected %q, got %q", tt.wantEvaluation, row.Evaluation)
			}
		})
	}
}
