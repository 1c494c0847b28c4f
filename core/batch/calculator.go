// Package batch applies the loss model to a whole dataset and derives the
// system-level view used by reports and the dashboard.
//
// A failing line never disappears silently: it is kept in Snapshot.Failures
// with its line id while the remaining lines are still computed. Duplicate
// line ids invalidate the dataset and fail the whole batch.
package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/lineloss/core/loss"
	"github.com/kilianp07/lineloss/core/model"
)

// Config holds the reporting thresholds. A zero threshold means unset and
// takes its default; flagging every loaded line needs a small positive value
// such as 0.01.
type Config struct {
	// HighLossPct flags lines whose loss percentage exceeds it.
	HighLossPct float64 `json:"high_loss_pct"`
	// HighVoltageDropV flags lines whose voltage drop exceeds it.
	HighVoltageDropV float64 `json:"high_voltage_drop_v"`
}

// SetDefaults replaces zero thresholds with 3.5 % and 150 V.
func (c *Config) SetDefaults() {
	if c.HighLossPct == 0 {
		c.HighLossPct = 3.5
	}
	if c.HighVoltageDropV == 0 {
		c.HighVoltageDropV = 150
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.HighLossPct <= 0 || c.HighLossPct > 100 {
		return fmt.Errorf("high_loss_pct must be in (0,100], got %v", c.HighLossPct)
	}
	if c.HighVoltageDropV <= 0 {
		return fmt.Errorf("high_voltage_drop_v must be positive, got %v", c.HighVoltageDropV)
	}
	return nil
}

// Failure records a line the model could not compute.
type Failure struct {
	LineID  string `json:"line_id"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// Summary holds the system-wide aggregates over successfully computed lines.
type Summary struct {
	LineCount   int `json:"line_count"`
	FailedCount int `json:"failed_count"`
	// TotalLoadKW is the sum of line loads.
	TotalLoadKW float64 `json:"total_load_kw"`
	// TotalLossKW is the sum of total line losses.
	TotalLossKW float64 `json:"total_loss_kw"`
	// OverallLossPct is the energy-weighted loss: TotalLossKW/TotalLoadKW.
	OverallLossPct    float64 `json:"overall_loss_pct"`
	OverallEfficiency float64 `json:"overall_efficiency"`
	// AvgLossPct is the unweighted mean of per-line loss percentages.
	AvgLossPct    float64 `json:"avg_loss_pct"`
	AvgEfficiency float64 `json:"avg_efficiency"`
	TotalCurrentA float64 `json:"total_current_a"`
}

// Snapshot is the computed state of the network at one instant.
type Snapshot struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	VoltageKV   float64           `json:"voltage_kv"`
	Thresholds  Config            `json:"thresholds"`
	Lines       []model.LineState `json:"lines"`
	Failures    []Failure         `json:"failures,omitempty"`
	Summary     Summary           `json:"summary"`
}

// Err joins the per-line failures, or returns nil when every line computed.
func (s Snapshot) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// Calculator computes snapshots with a fixed model and thresholds.
type Calculator struct {
	model loss.Model
	cfg   Config
	now   func() time.Time
	newID func() string
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// WithIDGenerator overrides the snapshot id source.
func WithIDGenerator(f func() string) Option {
	return func(c *Calculator) { c.newID = f }
}

// New returns a Calculator. Thresholds left at zero take their defaults.
func New(m loss.Model, cfg Config, opts ...Option) (*Calculator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Calculator{
		model: m,
		cfg:   cfg,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the thresholds in use.
func (c *Calculator) Config() Config { return c.cfg }

// Compute applies the loss model to every record, preserving input order.
// Per-line failures are collected in the snapshot; the returned error is
// non-nil only when the dataset itself is inconsistent.
func (c *Calculator) Compute(recs []model.LineRecord) (Snapshot, error) {
	if err := checkUnique(recs); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		ID:          c.newID(),
		GeneratedAt: c.now(),
		VoltageKV:   c.model.VoltageKV(),
		Thresholds:  c.cfg,
		Lines:       make([]model.LineState, 0, len(recs)),
	}
	for _, rec := range recs {
		res, err := c.model.Compute(rec)
		if err != nil {
			snap.Failures = append(snap.Failures, Failure{LineID: rec.LineID, Message: err.Error(), Err: err})
			continue
		}
		snap.Lines = append(snap.Lines, c.state(rec, res))
	}
	snap.Summary = summarize(snap.Lines)
	snap.Summary.FailedCount = len(snap.Failures)
	return snap, nil
}

func (c *Calculator) state(rec model.LineRecord, res model.LossResult) model.LineState {
	return model.LineState{
		Record:          rec,
		Result:          res,
		HighLoss:        res.LossPercentage > c.cfg.HighLossPct,
		HighVoltageDrop: res.VoltageDropV > c.cfg.HighVoltageDropV,
	}
}

func checkUnique(recs []model.LineRecord) error {
	seen := make(map[string]int, len(recs))
	for i, r := range recs {
		if j, ok := seen[r.LineID]; ok {
			return &loss.LineError{
				LineID: r.LineID,
				Field:  "line_id",
				Err:    fmt.Errorf("%w: duplicate line id at rows %d and %d", loss.ErrDatasetMismatch, j+1, i+1),
			}
		}
		seen[r.LineID] = i
	}
	return nil
}

func summarize(lines []model.LineState) Summary {
	n := len(lines)
	s := Summary{LineCount: n}
	if n == 0 {
		return s
	}
	loads := make([]float64, n)
	losses := make([]float64, n)
	pcts := make([]float64, n)
	effs := make([]float64, n)
	currents := make([]float64, n)
	for i, l := range lines {
		loads[i] = l.Record.LoadKW
		losses[i] = l.Result.TotalLossesKW
		pcts[i] = l.Result.LossPercentage
		effs[i] = l.Result.Efficiency
		currents[i] = l.Result.CurrentAmps
	}
	s.TotalLoadKW = floats.Sum(loads)
	s.TotalLossKW = floats.Sum(losses)
	s.TotalCurrentA = floats.Sum(currents)
	s.AvgLossPct = stat.Mean(pcts, nil)
	s.AvgEfficiency = stat.Mean(effs, nil)
	if s.TotalLoadKW > 0 {
		s.OverallLossPct = s.TotalLossKW / s.TotalLoadKW * 100
		s.OverallEfficiency = 100 - s.OverallLossPct
	}
	return s
}
