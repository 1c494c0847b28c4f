// Package loss implements the per-line electrical loss model of a balanced
// three-phase AC feeder.
package loss

import (
	"fmt"
	"math"

	"github.com/kilianp07/lineloss/core/model"
)

// DefaultVoltageKV is the line-to-line transmission voltage of the network.
const DefaultVoltageKV = 11.0

// Precision is the number of decimals kept in a LossResult.
const Precision = 2

// Config holds the system-wide electrical constants.
type Config struct {
	// VoltageKV is the line-to-line voltage in kilovolts.
	VoltageKV float64 `json:"voltage_kv"`
}

// SetDefaults applies the 11 kV transmission voltage when unset.
func (c *Config) SetDefaults() {
	if c.VoltageKV == 0 {
		c.VoltageKV = DefaultVoltageKV
	}
}

// Validate checks the voltage is usable.
func (c Config) Validate() error {
	if !(c.VoltageKV > 0) || math.IsInf(c.VoltageKV, 0) {
		return fmt.Errorf("voltage_kv must be positive, got %v", c.VoltageKV)
	}
	return nil
}

// Model computes LossResults for a fixed system voltage. The zero value is
// not usable; build it with New.
type Model struct {
	voltageKV float64
}

// New returns a Model for the given configuration.
func New(cfg Config) (Model, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}
	return Model{voltageKV: cfg.VoltageKV}, nil
}

// VoltageKV returns the line-to-line voltage used by the model.
func (m Model) VoltageKV() float64 { return m.voltageKV }

// Compute derives the losses of one line. It returns a *LineError wrapping
// ErrInvalidInput for rejected records and ErrUndefinedResult when the load
// is zero.
func (m Model) Compute(rec model.LineRecord) (model.LossResult, error) {
	if err := Validate(rec); err != nil {
		return model.LossResult{}, err
	}
	if rec.LoadKW == 0 {
		return model.LossResult{}, &LineError{
			LineID: rec.LineID,
			Field:  "load_kw",
			Err:    fmt.Errorf("%w: loss percentage of a line without load", ErrUndefinedResult),
		}
	}
	if !(m.voltageKV > 0) {
		return model.LossResult{}, fmt.Errorf("loss model not initialised")
	}

	pf := rec.PowerFactor
	current := (rec.LoadKW * 1000) / (math.Sqrt(3) * m.voltageKV * 1000 * pf)
	resistance := rec.ResistanceOhmKM * rec.LineLengthKM
	reactance := rec.ReactanceOhmKM * rec.LineLengthKM

	lineLosses := 3 * current * current * resistance / 1000
	transformerLosses := rec.LoadKW * (1 - rec.TransformerEfficiency)
	total := lineLosses + transformerLosses
	lossPct := total / rec.LoadKW * 100

	drop := current * (resistance*pf + reactance*reactiveFactor(pf))

	res := model.LossResult{
		LineID:              rec.LineID,
		AreaName:            rec.AreaName,
		CurrentAmps:         Round(current),
		LineLossesKW:        Round(lineLosses),
		TransformerLossesKW: Round(transformerLosses),
		TotalLossesKW:       Round(total),
		LossPercentage:      Round(lossPct),
		VoltageDropV:        Round(drop),
		Efficiency:          Round(100 - lossPct),
	}
	// Finite inputs can still overflow along the chain.
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"current_amps", res.CurrentAmps},
		{"line_losses_kw", res.LineLossesKW},
		{"transformer_losses_kw", res.TransformerLossesKW},
		{"total_losses_kw", res.TotalLossesKW},
		{"loss_percentage", res.LossPercentage},
		{"voltage_drop_v", res.VoltageDropV},
		{"efficiency", res.Efficiency},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return model.LossResult{}, &LineError{
				LineID: rec.LineID,
				Field:  f.name,
				Err:    fmt.Errorf("%w: %s is not finite", ErrUndefinedResult, f.name),
			}
		}
	}
	return res, nil
}

// reactiveFactor returns sin(φ) for the power factor cos(φ). A unity power
// factor yields exactly zero.
func reactiveFactor(pf float64) float64 {
	s := 1 - pf*pf
	if s <= 0 {
		return 0
	}
	return math.Sqrt(s)
}

// Validate rejects records whose fields are missing, non-finite or out of
// range. A zero load passes; it is reported by Compute as undefined.
func Validate(rec model.LineRecord) error {
	id := rec.LineID
	if id == "" {
		return invalid(id, "line_id", "empty line id")
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"load_kw", rec.LoadKW},
		{"power_factor", rec.PowerFactor},
		{"line_length_km", rec.LineLengthKM},
		{"resistance_ohm_km", rec.ResistanceOhmKM},
		{"reactance_ohm_km", rec.ReactanceOhmKM},
		{"transformer_efficiency", rec.TransformerEfficiency},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalid(id, f.name, "not a finite number: %v", f.v)
		}
	}
	if rec.LoadKW < 0 {
		return invalid(id, "load_kw", "must not be negative, got %v", rec.LoadKW)
	}
	if rec.PowerFactor <= 0 || rec.PowerFactor > 1 {
		return invalid(id, "power_factor", "must be in (0,1], got %v", rec.PowerFactor)
	}
	if rec.LineLengthKM <= 0 {
		return invalid(id, "line_length_km", "must be positive, got %v", rec.LineLengthKM)
	}
	if rec.ResistanceOhmKM <= 0 {
		return invalid(id, "resistance_ohm_km", "must be positive, got %v", rec.ResistanceOhmKM)
	}
	if rec.ReactanceOhmKM < 0 {
		return invalid(id, "reactance_ohm_km", "must not be negative, got %v", rec.ReactanceOhmKM)
	}
	if rec.TransformerEfficiency <= 0 || rec.TransformerEfficiency > 1 {
		return invalid(id, "transformer_efficiency", "must be in (0,1], got %v", rec.TransformerEfficiency)
	}
	return nil
}

// Round rounds v half away from zero to Precision decimals.
func Round(v float64) float64 {
	scale := math.Pow10(Precision)
	return math.Round(v*scale) / scale
}
