// Package upload parses CSV uploads of charging-session data into the raw
// record shape consumed by the series normalizers.
package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/fields"
)

var (
	// ErrEmptyUpload is returned when the upload has no data rows.
	ErrEmptyUpload = errors.New("upload contains no data rows")

	// ErrMissingColumns is returned when no header matches a required field.
	ErrMissingColumns = errors.New("upload is missing required columns")
)

// Table is a parsed CSV upload. Header cells that match a known field alias
// (case-insensitively) are renamed to that alias so the normalizers find them.
type Table struct {
	Header  []string
	Records []fields.Record
	Skipped int
}

// ReadTable parses r as a header-led CSV file. Blank rows are skipped; rows
// shorter than the header leave the missing cells absent.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header = canonicalHeader(header)

	table := &Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		record := make(fields.Record, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				record[header[i]] = cell
			}
		}
		if len(record) == 0 {
			table.Skipped++
			continue
		}
		table.Records = append(table.Records, record)
	}

	if len(table.Records) == 0 {
		return nil, ErrEmptyUpload
	}
	return table, nil
}

// ParseSessions reads a session CSV. It requires a timestamp column and a
// power column under any of their accepted names.
func ParseSessions(r io.Reader) (*Table, error) {
	table, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	var missing []string
	if !table.HasColumn(fields.DateKeys...) {
		missing = append(missing, "timestamp")
	}
	if !table.HasColumn(fields.PowerKeys...) {
		missing = append(missing, "power")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return table, nil
}

// HasColumn reports whether any of names is a header of the table.
func (t *Table) HasColumn(names ...string) bool {
	for _, h := range t.Header {
		for _, name := range names {
			if h == name {
				return true
			}
		}
	}
	return false
}

// Stations returns the distinct station identifiers in upload order.
func (t *Table) Stations() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range t.Records {
		station, ok := fields.StringField(rec, fields.StationKeys...)
		if !ok {
			continue
		}
		if _, dup := seen[station]; dup {
			continue
		}
		seen[station] = struct{}{}
		out = append(out, station)
	}
	return out
}

var knownAliases = [][]string{
	fields.DateKeys,
	fields.PowerKeys,
	fields.StationKeys,
	fields.ContractKeys,
}

func canonicalHeader(header []string) []string {
	out := make([]string, len(header))
	for i, cell := range header {
		cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		out[i] = cell
	match:
		for _, aliases := range knownAliases {
			for _, alias := range aliases {
				if strings.EqualFold(cell, alias) {
					out[i] = alias
					break match
				}
			}
		}
	}
	return out
}
