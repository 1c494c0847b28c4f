// Package export renders snapshots for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/model"
	"github.com/kilianp07/lineloss/infra/csvstore"
)

// Columns is the combined report schema: the record columns followed by the
// result columns and the threshold flags.
var Columns = func() []string {
	cols := append([]string{}, csvstore.RecordColumns...)
	cols = append(cols, csvstore.ResultColumns[2:]...)
	return append(cols, "high_loss", "high_voltage_drop")
}()

// WriteJSON writes the snapshot to w in JSON format.
func WriteJSON(w io.Writer, snap batch.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// WriteCSV writes one row per line joining its record, result and flags.
func WriteCSV(w io.Writer, lines []model.LineState) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, l := range lines {
		rec := csvstore.RecordFields(l.Record)
		rec = append(rec, csvstore.ResultFields(l.Result)[2:]...)
		rec = append(rec, strconv.FormatBool(l.HighLoss), strconv.FormatBool(l.HighVoltageDrop))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
