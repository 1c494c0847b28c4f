package model

// LineRecord holds the static and measured parameters of one transmission line.
type LineRecord struct {
	LineID                string  `json:"line_id" db:"line_id"`
	AreaName              string  `json:"area_name" db:"area_name"`
	LoadKW                float64 `json:"load_kw" db:"load_kw"`
	PowerFactor           float64 `json:"power_factor" db:"power_factor"`
	LineLengthKM          float64 `json:"line_length_km" db:"line_length_km"`
	ResistanceOhmKM       float64 `json:"resistance_ohm_km" db:"resistance_ohm_km"`
	ReactanceOhmKM        float64 `json:"reactance_ohm_km" db:"reactance_ohm_km"`
	ConductorType         string  `json:"conductor_type" db:"conductor_type"`
	TransformerEfficiency float64 `json:"transformer_efficiency" db:"transformer_efficiency"`
}

// Key identifies a line for joins between records and results.
type Key struct {
	LineID   string
	AreaName string
}

// Key returns the join key of the record.
func (r LineRecord) Key() Key { return Key{LineID: r.LineID, AreaName: r.AreaName} }

// LossResult is the derived electrical state of one line. Values are rounded
// to two decimals.
type LossResult struct {
	LineID              string  `json:"line_id" db:"line_id"`
	AreaName            string  `json:"area_name" db:"area_name"`
	CurrentAmps         float64 `json:"current_amps" db:"current_amps"`
	LineLossesKW        float64 `json:"line_losses_kw" db:"line_losses_kw"`
	TransformerLossesKW float64 `json:"transformer_losses_kw" db:"transformer_losses_kw"`
	TotalLossesKW       float64 `json:"total_losses_kw" db:"total_losses_kw"`
	LossPercentage      float64 `json:"loss_percentage" db:"loss_percentage"`
	VoltageDropV        float64 `json:"voltage_drop_v" db:"voltage_drop_v"`
	Efficiency          float64 `json:"efficiency" db:"efficiency"`
}

// Key returns the join key of the result.
func (r LossResult) Key() Key { return Key{LineID: r.LineID, AreaName: r.AreaName} }

// LineState pairs a record with its computed result.
type LineState struct {
	Record LineRecord `json:"record"`
	Result LossResult `json:"result"`
	// HighLoss is set when the loss percentage exceeds the configured threshold.
	HighLoss bool `json:"high_loss"`
	// HighVoltageDrop is set when the voltage drop exceeds the configured threshold.
	HighVoltageDrop bool `json:"high_voltage_drop"`
}

// CloneRecords returns an independent copy of recs.
func CloneRecords(recs []LineRecord) []LineRecord {
	if recs == nil {
		return nil
	}
	out := make([]LineRecord, len(recs))
	copy(out, recs)
	return out
}
