// Package csvstore reads and writes the tabular line datasets and loss
// results. Columns are located by header name, so column order in input
// files is free.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/lineloss/core/loss"
	"github.com/kilianp07/lineloss/core/model"
)

// RecordColumns is the input schema, one row per line.
var RecordColumns = []string{
	"line_id", "area_name", "load_kw", "power_factor", "line_length_km",
	"resistance_ohm_km", "reactance_ohm_km", "conductor_type", "transformer_efficiency",
}

// ResultColumns is the output schema, joinable to the input on line_id and area_name.
var ResultColumns = []string{
	"line_id", "area_name", "current_amps", "line_losses_kw", "transformer_losses_kw",
	"total_losses_kw", "loss_percentage", "voltage_drop_v", "efficiency",
}

// row gives typed access to one CSV record by column name.
type row struct {
	idx    map[string]int
	fields []string
	line   int
	err    error
}

func (r *row) str(col string) string {
	return strings.TrimSpace(r.fields[r.idx[col]])
}

func (r *row) float(col string) float64 {
	if r.err != nil {
		return 0
	}
	s := r.str(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = &loss.LineError{
			LineID: r.str("line_id"),
			Field:  col,
			Err:    fmt.Errorf("%w: row %d: %q is not a number", loss.ErrInvalidInput, r.line, s),
		}
	}
	return v
}

// readRows validates the header against cols and calls fn for every data row.
func readRows(rd io.Reader, cols []string, fn func(*row) error) error {
	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return fmt.Errorf("%w: empty file", loss.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", loss.ErrInvalidInput, strings.Join(missing, ", "))
	}
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(&row{idx: idx, fields: fields, line: line}); err != nil {
			return err
		}
	}
}

// ReadRecords parses a line dataset.
func ReadRecords(rd io.Reader) ([]model.LineRecord, error) {
	var recs []model.LineRecord
	err := readRows(rd, RecordColumns, func(r *row) error {
		rec := model.LineRecord{
			LineID:                r.str("line_id"),
			AreaName:              r.str("area_name"),
			LoadKW:                r.float("load_kw"),
			PowerFactor:           r.float("power_factor"),
			LineLengthKM:          r.float("line_length_km"),
			ResistanceOhmKM:       r.float("resistance_ohm_km"),
			ReactanceOhmKM:        r.float("reactance_ohm_km"),
			ConductorType:         r.str("conductor_type"),
			TransformerEfficiency: r.float("transformer_efficiency"),
		}
		if r.err != nil {
			return r.err
		}
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

// ReadResults parses a result table.
func ReadResults(rd io.Reader) ([]model.LossResult, error) {
	var res []model.LossResult
	err := readRows(rd, ResultColumns, func(r *row) error {
		v := model.LossResult{
			LineID:              r.str("line_id"),
			AreaName:            r.str("area_name"),
			CurrentAmps:         r.float("current_amps"),
			LineLossesKW:        r.float("line_losses_kw"),
			TransformerLossesKW: r.float("transformer_losses_kw"),
			TotalLossesKW:       r.float("total_losses_kw"),
			LossPercentage:      r.float("loss_percentage"),
			VoltageDropV:        r.float("voltage_drop_v"),
			Efficiency:          r.float("efficiency"),
		}
		if r.err != nil {
			return r.err
		}
		res = append(res, v)
		return nil
	})
	return res, err
}

// FormatFloat renders v with the shortest exact representation.
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// RecordFields renders r in RecordColumns order.
func RecordFields(r model.LineRecord) []string {
	return []string{
		r.LineID, r.AreaName, FormatFloat(r.LoadKW), FormatFloat(r.PowerFactor), FormatFloat(r.LineLengthKM),
		FormatFloat(r.ResistanceOhmKM), FormatFloat(r.ReactanceOhmKM), r.ConductorType, FormatFloat(r.TransformerEfficiency),
	}
}

// ResultFields renders r in ResultColumns order.
func ResultFields(r model.LossResult) []string {
	return []string{
		r.LineID, r.AreaName, FormatFloat(r.CurrentAmps), FormatFloat(r.LineLossesKW), FormatFloat(r.TransformerLossesKW),
		FormatFloat(r.TotalLossesKW), FormatFloat(r.LossPercentage), FormatFloat(r.VoltageDropV), FormatFloat(r.Efficiency),
	}
}

func writeAll(w io.Writer, header []string, n int, rowAt func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(rowAt(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecords writes recs in the input schema.
func WriteRecords(w io.Writer, recs []model.LineRecord) error {
	return writeAll(w, RecordColumns, len(recs), func(i int) []string { return RecordFields(recs[i]) })
}

// WriteResults writes res in the output schema.
func WriteResults(w io.Writer, res []model.LossResult) error {
	return writeAll(w, ResultColumns, len(res), func(i int) []string { return ResultFields(res[i]) })
}
