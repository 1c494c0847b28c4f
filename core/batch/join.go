package batch

import (
	"fmt"

	"github.com/kilianp07/lineloss/core/loss"
	"github.com/kilianp07/lineloss/core/model"
)

// Join pairs records with results produced elsewhere, matching on line id and
// area name. Every record needs exactly one result and vice versa; anything
// else is reported as loss.ErrDatasetMismatch. The output follows record order.
func Join(recs []model.LineRecord, results []model.LossResult) ([]model.LineState, error) {
	lines, missing, err := pair(recs, results)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, mismatch(missing[0].LineID, "no result for area %q", missing[0].AreaName)
	}
	return lines, nil
}

// pair matches results to records and returns the records left without a
// result, in record order. Duplicate or orphan results are mismatches.
func pair(recs []model.LineRecord, results []model.LossResult) ([]model.LineState, []model.LineRecord, error) {
	if err := checkUnique(recs); err != nil {
		return nil, nil, err
	}
	byKey := make(map[model.Key]model.LossResult, len(results))
	for _, r := range results {
		if _, dup := byKey[r.Key()]; dup {
			return nil, nil, mismatch(r.LineID, "duplicate result for area %q", r.AreaName)
		}
		byKey[r.Key()] = r
	}
	var missing []model.LineRecord
	out := make([]model.LineState, 0, len(recs))
	for _, rec := range recs {
		res, ok := byKey[rec.Key()]
		if !ok {
			missing = append(missing, rec)
			continue
		}
		delete(byKey, rec.Key())
		out = append(out, model.LineState{Record: rec, Result: res})
	}
	for _, r := range results {
		if _, left := byKey[r.Key()]; left {
			return nil, nil, mismatch(r.LineID, "result for area %q has no matching record", r.AreaName)
		}
	}
	return out, missing, nil
}

// Flag applies the calculator thresholds to joined lines.
func (c *Calculator) Flag(lines []model.LineState) []model.LineState {
	out := make([]model.LineState, len(lines))
	for i, l := range lines {
		out[i] = c.state(l.Record, l.Result)
	}
	return out
}

// Assemble builds a snapshot from records and results computed elsewhere,
// such as a results file written by an earlier run. A record without a stored
// result is recomputed: when the model rejects it the line is reported in
// Failures like Compute does, otherwise the results are out of date and
// loss.ErrDatasetMismatch is returned.
func (c *Calculator) Assemble(recs []model.LineRecord, results []model.LossResult) (Snapshot, error) {
	joined, missing, err := pair(recs, results)
	if err != nil {
		return Snapshot{}, err
	}
	var failures []Failure
	for _, rec := range missing {
		if _, err := c.model.Compute(rec); err != nil {
			failures = append(failures, Failure{LineID: rec.LineID, Message: err.Error(), Err: err})
			continue
		}
		return Snapshot{}, mismatch(rec.LineID, "no result for area %q", rec.AreaName)
	}
	lines := c.Flag(joined)
	snap := Snapshot{
		ID:          c.newID(),
		GeneratedAt: c.now(),
		VoltageKV:   c.model.VoltageKV(),
		Thresholds:  c.cfg,
		Lines:       lines,
		Failures:    failures,
		Summary:     summarize(lines),
	}
	snap.Summary.FailedCount = len(failures)
	return snap, nil
}

func mismatch(lineID, format string, args ...any) error {
	return &loss.LineError{
		LineID: lineID,
		Err:    fmt.Errorf("%w: %s", loss.ErrDatasetMismatch, fmt.Sprintf(format, args...)),
	}
}
