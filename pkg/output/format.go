// Package output provides utilities for formatting and displaying derived dashboard views.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders view to w in the named output format.
func Write(w io.Writer, outputFormat string, view dashboard.View) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, view)
	case constants.OutputFormatCSV:
		return CsvFormat(w, view)
	case constants.OutputFormatJSON:
		return JSONFormat(w, view)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, view dashboard.View) error {
	p := message.NewPrinter(language.English)
	pw := &printer{w: w, p: p}

	pw.printf("--- Contract ---\n")
	pw.printf("Contract level: %s\n", format.KW(view.ContractKW))
	if view.OptimalKW != nil {
		pw.printf("Optimal level:  %s\n", format.KW(*view.OptimalKW))
	}

	s := view.Distribution.Summary
	pw.printf("\n--- Prediction distribution (%d samples) ---\n", s.Count)
	if s.Count > 0 {
		pw.printf("Mean %.2f | StdDev %.2f | Min %.2f | Max %.2f\n", s.Mean, s.StdDev, s.Min, s.Max)
		pw.printf("P50 %.2f | P90 %.2f | P95 %.2f | P99 %.2f\n", s.P50, s.P90, s.P95, s.P99)
	}

	pw.printf("\n--- Scenarios ---\n")
	pw.printf("Scenario | Contract     | Base         | Over cost    | Shortage     | Total        | Overage | Waste  | Evaluation\n")
	pw.printf("________ | ____________ | ____________ | ____________ | ____________ | ____________ | _______ | ______ | __________\n")
	for _, row := range view.Scenarios {
		pw.printf("%-8s | %12s | %12s | %12s | %12s | %12s | %7s | %6s | %s\n",
			row.Scenario,
			format.KW(row.ContractKW),
			format.Currency(row.BaseMonthly),
			format.Currency(row.OverCostMonthly),
			format.Currency(row.ShortageMonthly),
			format.Currency(row.TotalMonthly),
			format.Percent(row.OverageProbability),
			format.Percent(row.WasteProbability),
			row.Evaluation,
		)
	}
	if best, ok := analytics.OptimalRow(view.Scenarios); ok {
		pw.printf("Recommended: %s at %s per month\n", format.KW(best.ContractKW), format.Currency(best.TotalMonthly))
	}

	pw.printf("\n--- Daily peaks ---\n")
	for _, pt := range view.DailyPeaks {
		pw.printf("%s | %s\n", time.UnixMilli(int64(pt.X)).UTC().Format(constants.DayLayout), format.KW(pt.Y))
	}

	pw.printf("\n--- Projection ---\n")
	pw.printf("Days over contract: %d\n", view.OvershootDays)
	pw.printf("Overfit check: %s\n", view.Overfit.Message)

	return pw.err
}

// CsvFormat outputs the scenario table in comma-separated value format.
func CsvFormat(w io.Writer, view dashboard.View) error {
	cw := csv.NewWriter(w)
	header := []string{
		"scenario", "contract_kw", "base_monthly", "over_cost_monthly", "shortage_monthly",
		"total_monthly", "overage_probability", "waste_probability", "overshoot_kw", "evaluation",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range view.Scenarios {
		record := []string{
			string(row.Scenario),
			number(row.ContractKW),
			number(row.BaseMonthly),
			number(row.OverCostMonthly),
			number(row.ShortageMonthly),
			number(row.TotalMonthly),
			number(row.OverageProbability),
			number(row.WasteProbability),
			number(row.OvershootKW),
			row.Evaluation,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the full view as indented JSON.
func JSONFormat(w io.Writer, view dashboard.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// printer remembers the first write error so the report body stays linear.
type printer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *printer) printf(f string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, f, args...)
}
