// Package report turns snapshots into human readable summaries and the
// analytics view: rankings, problem lines, priority action and cost of losses.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/model"
)

var (
	hoursPerDay = decimal.NewFromInt(24)
	daysPerYear = decimal.NewFromInt(365)
	hundred     = decimal.NewFromInt(100)
)

// Rank is one entry of the efficiency ranking. The first three carry a medal.
type Rank struct {
	Position   int     `json:"position"`
	Medal      string  `json:"medal,omitempty"`
	LineID     string  `json:"line_id"`
	AreaName   string  `json:"area_name"`
	Efficiency float64 `json:"efficiency"`
}

// Problem is a line over one of the thresholds with the offending value.
type Problem struct {
	LineID   string  `json:"line_id"`
	AreaName string  `json:"area_name"`
	Value    float64 `json:"value"`
}

// Priority names the line with the highest loss percentage.
type Priority struct {
	LineID        string  `json:"line_id"`
	AreaName      string  `json:"area_name"`
	LossPct       float64 `json:"loss_pct"`
	ConductorType string  `json:"conductor_type"`
}

// Cost prices the lost energy. Amounts are in dollars rounded to cents.
type Cost struct {
	ElectricityRate  float64         `json:"electricity_rate"`
	ImprovementPct   float64         `json:"improvement_pct"`
	Daily            decimal.Decimal `json:"daily"`
	Annual           decimal.Decimal `json:"annual"`
	PotentialSavings decimal.Decimal `json:"potential_savings"`
}

// Analytics is the derived view over one snapshot.
type Analytics struct {
	SnapshotID      string          `json:"snapshot_id"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Summary         batch.Summary   `json:"summary"`
	Thresholds      batch.Config    `json:"thresholds"`
	Ranking         []Rank          `json:"ranking"`
	HighLoss        []Problem       `json:"high_loss"`
	HighVoltageDrop []Problem       `json:"high_voltage_drop"`
	Priority        *Priority       `json:"priority,omitempty"`
	Cost            Cost            `json:"cost"`
	Failures        []batch.Failure `json:"failures,omitempty"`
}

var medals = []string{"gold", "silver", "bronze"}

// Analyze builds the analytics view of snap priced with cfg.
func Analyze(snap batch.Snapshot, cfg Config) Analytics {
	a := Analytics{
		SnapshotID:      snap.ID,
		GeneratedAt:     snap.GeneratedAt,
		Summary:         snap.Summary,
		Thresholds:      snap.Thresholds,
		Ranking:         []Rank{},
		HighLoss:        problems(snap.HighLoss(), func(r model.LossResult) float64 { return r.LossPercentage }),
		HighVoltageDrop: problems(snap.HighVoltageDrop(), func(r model.LossResult) float64 { return r.VoltageDropV }),
		Cost:            Price(snap.Summary.TotalLossKW, cfg),
		Failures:        snap.Failures,
	}
	for i, l := range snap.ByEfficiency() {
		r := Rank{Position: i + 1, LineID: l.Record.LineID, AreaName: l.Record.AreaName, Efficiency: l.Result.Efficiency}
		if i < len(medals) {
			r.Medal = medals[i]
		}
		a.Ranking = append(a.Ranking, r)
	}
	if w, ok := snap.Worst(); ok {
		a.Priority = &Priority{
			LineID:        w.Record.LineID,
			AreaName:      w.Record.AreaName,
			LossPct:       w.Result.LossPercentage,
			ConductorType: w.Record.ConductorType,
		}
	}
	return a
}

// Price computes the cost of totalLossKW sustained all day, every day:
// daily = loss × 24 h × rate, annual = daily × 365 and the savings of
// reducing losses by cfg.ImprovementPct over a year.
func Price(totalLossKW float64, cfg Config) Cost {
	rate := decimal.NewFromFloat(cfg.ElectricityRate)
	daily := decimal.NewFromFloat(totalLossKW).Mul(hoursPerDay).Mul(rate)
	annual := daily.Mul(daysPerYear)
	savings := annual.Mul(decimal.NewFromFloat(cfg.ImprovementPct)).Div(hundred)
	return Cost{
		ElectricityRate:  cfg.ElectricityRate,
		ImprovementPct:   cfg.ImprovementPct,
		Daily:            daily.Round(2),
		Annual:           annual.Round(2),
		PotentialSavings: savings.Round(2),
	}
}

func problems(lines []model.LineState, value func(model.LossResult) float64) []Problem {
	out := make([]Problem, 0, len(lines))
	for _, l := range lines {
		out = append(out, Problem{LineID: l.Record.LineID, AreaName: l.Record.AreaName, Value: value(l.Result)})
	}
	return out
}
