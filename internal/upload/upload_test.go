package upload

import (
	"errors"
	"strings"
	"testing"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
)

func TestParseSessions(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantRecords  int
		wantSkipped  int
		wantErr      error
		wantStations []string
	}{
		{
			name: "Canonical headers",
			input: "timestamp,power_kw,station_id\n" +
				"2024-05-01T09:00:00Z,72.5,ST-1\n" +
				"2024-05-01T13:00:00Z,76,ST-1\n" +
				"2024-05-02T10:00:00Z,81.2,ST-2\n",
			wantRecords:  3,
			wantStations: []string{"ST-1", "ST-2"},
		},
		{
			name: "Mixed case aliases with BOM",
			input: "\ufeffDate, Power_KW\n" +
				"2024-05-01,\"1,072.5\"\n" +
				",\n" +
				"2024-05-02,80 kW\n",
			wantRecords: 2,
			wantSkipped: 1,
		},
		{
			name:    "Header only",
			input:   "timestamp,power_kw\n",
			wantErr: ErrEmptyUpload,
		},
		{
			name:    "Empty file",
			input:   "",
			wantErr: ErrEmptyUpload,
		},
		{
			name:    "No power column",
			input:   "timestamp,station\n2024-05-01,ST-1\n",
			wantErr: ErrMissingColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseSessions(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseSessions() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSessions() unexpected error = %v", err)
			}
			if len(table.Records) != tt.wantRecords {
				t.Errorf("got %d records, want %d", len(table.Records), tt.wantRecords)
			}
			if table.Skipped != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", table.Skipped, tt.wantSkipped)
			}
			if tt.wantStations != nil {
				got := table.Stations()
				if strings.Join(got, ",") != strings.Join(tt.wantStations, ",") {
					t.Errorf("Stations() = %v, want %v", got, tt.wantStations)
				}
			}
		})
	}
}

func TestParsedRecordsNormalize(t *testing.T) {
	input := "DATE,power\n" +
		"2024-05-02,\"1,072.5\"\n" +
		"2024-05-01,80 kW\n" +
		"not-a-date,90\n"

	table, err := ParseSessions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseSessions() error = %v", err)
	}

	points := series.NormalizeSessionSeries(table.Records)
	if len(points) != 2 {
		t.Fatalf("NormalizeSessionSeries() kept %d points, want 2", len(points))
	}
	if points[0].PowerKW != 80 || points[1].PowerKW != 1072.5 {
		t.Errorf("unexpected normalized powers %v, %v", points[0].PowerKW, points[1].PowerKW)
	}
}

func TestMissingColumnsNamesBoth(t *testing.T) {
	_, err := ParseSessions(strings.NewReader("station\nST-1\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("error = %v, want ErrMissingColumns", err)
	}
	if !strings.Contains(err.Error(), "timestamp") || !strings.Contains(err.Error(), "power") {
		t.Errorf("error %q should name both missing columns", err)
	}
}
