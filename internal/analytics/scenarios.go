package analytics

import (
	"math"
	"sort"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/series"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Scenario tags a candidate relative to the reference contract level.
type Scenario string

const (
	ScenarioUnder   Scenario = "under"
	ScenarioOptimal Scenario = "optimal"
	ScenarioOver    Scenario = "over"
)

func (s Scenario) rank() int {
	switch s {
	case ScenarioOptimal:
		return 0
	case ScenarioUnder:
		return 1
	default:
		return 2
	}
}

// Evaluation labels for scenario rows.
const (
	EvaluationRecommended     = "recommended"
	EvaluationStable          = "stable"
	EvaluationHasSlack        = "has slack"
	EvaluationInefficient     = "inefficient"
	EvaluationOverageRisk     = "overage risk"
	EvaluationHighOverageRisk = "high overage risk"
)

// contractTolerance is the kW distance under which two contract levels are equal.
const contractTolerance = 1e-9

// ScenarioRow is one line of the contract cost table. Monetary values are
// monthly and rounded to two decimals.
type ScenarioRow struct {
	Scenario           Scenario `json:"scenario"`
	ContractKW         float64  `json:"contractKw"`
	BaseMonthly        float64  `json:"baseMonthly"`
	OverCostMonthly    float64  `json:"overCostMonthly"`
	ShortageMonthly    float64  `json:"shortageMonthly"`
	TotalMonthly       float64  `json:"totalMonthly"`
	OverageProbability float64  `json:"overageProbability"`
	WasteProbability   float64  `json:"wasteProbability"`
	OvershootKW        float64  `json:"overshootKw"`
	Evaluation         string   `json:"evaluation"`
}

// BuildScenarioRows builds the contract cost table. The reference level is
// optimalKW when given and finite, otherwise the first candidate's contract.
// Rows come back ordered optimal, under, over and by ascending contract
// within each group.
func BuildScenarioRows(candidates []series.CandidateDetail, optimalKW *float64, th Thresholds) []ScenarioRow {
	if len(candidates) == 0 {
		return []ScenarioRow{}
	}
	th = th.WithDefaults()

	reference := candidates[0].ContractKW
	if optimalKW != nil && mathutil.IsFinite(*optimalKW) {
		reference = *optimalKW
	}

	rate := decimal.NewFromFloat(th.RatePerKW)
	penalty := decimal.NewFromFloat(th.ShortagePenaltyMultiplier)
	hundred := decimal.NewFromFloat(constants.PercentageMultiplier)

	ref := decimal.NewFromFloat(reference)

	rows := make([]ScenarioRow, 0, len(candidates))
	for _, c := range candidates {
		row := ScenarioRow{
			Scenario:           classify(c.ContractKW, reference),
			ContractKW:         c.ContractKW,
			OverageProbability: c.EffectiveOverageProbability(),
			WasteProbability:   c.EffectiveWasteProbability(),
		}

		contract := decimal.NewFromFloat(c.ContractKW)
		base := contract.Mul(rate)
		over := decimal.Zero
		shortage := decimal.Zero

		switch row.Scenario {
		case ScenarioOver:
			excess := decimal.Max(decimal.Zero, contract.Sub(ref))
			over = excess.Mul(rate).Mul(decimal.NewFromFloat(row.WasteProbability)).Div(hundred)
			row.Evaluation = evaluate(row.WasteProbability, th, EvaluationHasSlack, EvaluationInefficient)
		case ScenarioUnder:
			shortfall := shortfallKW(c, contract, ref)
			row.OvershootKW = toFloat(shortfall)
			shortage = shortfall.Mul(rate).Mul(penalty).
				Mul(decimal.NewFromFloat(row.OverageProbability)).Div(hundred)
			row.Evaluation = evaluate(row.OverageProbability, th, EvaluationOverageRisk, EvaluationHighOverageRisk)
		default:
			row.Evaluation = EvaluationRecommended
		}

		row.BaseMonthly = money(base)
		row.OverCostMonthly = money(over)
		row.ShortageMonthly = money(shortage)
		row.TotalMonthly = money(base.Add(over).Add(shortage))
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Scenario.rank(), rows[j].Scenario.rank()
		if ri != rj {
			return ri < rj
		}
		return rows[i].ContractKW < rows[j].ContractKW
	})
	return rows
}

// OptimalRow returns the first optimal row, if any.
func OptimalRow(rows []ScenarioRow) (ScenarioRow, bool) {
	for _, r := range rows {
		if r.Scenario == ScenarioOptimal {
			return r, true
		}
	}
	return ScenarioRow{}, false
}

func classify(contractKW, reference float64) Scenario {
	switch {
	case math.Abs(contractKW-reference) <= contractTolerance:
		return ScenarioOptimal
	case contractKW > reference:
		return ScenarioOver
	default:
		return ScenarioUnder
	}
}

// shortfallKW prefers the session-level average overshoot, then the maximum,
// then the plain gap to the reference level.
func shortfallKW(c series.CandidateDetail, contract, reference decimal.Decimal) decimal.Decimal {
	if c.AvgOvershootKW != nil && *c.AvgOvershootKW > 0 && mathutil.IsFinite(*c.AvgOvershootKW) {
		return decimal.NewFromFloat(*c.AvgOvershootKW)
	}
	if c.MaxOvershootKW != nil && *c.MaxOvershootKW > 0 && mathutil.IsFinite(*c.MaxOvershootKW) {
		return decimal.NewFromFloat(*c.MaxOvershootKW)
	}
	return decimal.Max(decimal.Zero, reference.Sub(contract))
}

func evaluate(probability float64, th Thresholds, moderate, severe string) string {
	switch {
	case probability >= th.InefficientPercent:
		return severe
	case probability >= th.SlackPercent:
		return moderate
	default:
		return EvaluationStable
	}
}

func money(d decimal.Decimal) float64 {
	return toFloat(d.Round(2))
}

// toFloat converts d, saturating at the largest finite float64.
func toFloat(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
