package batch

import (
	"sort"

	"github.com/kilianp07/lineloss/core/model"
)

// ByEfficiency returns the lines ordered from most to least efficient.
// Equal values keep their input order.
func (s Snapshot) ByEfficiency() []model.LineState {
	return s.sorted(func(a, b model.LineState) bool { return a.Result.Efficiency > b.Result.Efficiency })
}

// ByLossDesc returns the worst offenders first.
func (s Snapshot) ByLossDesc() []model.LineState {
	return s.sorted(func(a, b model.LineState) bool { return a.Result.LossPercentage > b.Result.LossPercentage })
}

// ByLossAsc returns the lowest-loss lines first.
func (s Snapshot) ByLossAsc() []model.LineState {
	return s.sorted(func(a, b model.LineState) bool { return a.Result.LossPercentage < b.Result.LossPercentage })
}

func (s Snapshot) sorted(less func(a, b model.LineState) bool) []model.LineState {
	out := make([]model.LineState, len(s.Lines))
	copy(out, s.Lines)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Worst returns the line with the highest loss percentage. The first line
// wins ties.
func (s Snapshot) Worst() (model.LineState, bool) {
	return s.first(func(a, b model.LineState) bool { return a.Result.LossPercentage > b.Result.LossPercentage })
}

// Best returns the line with the highest efficiency.
func (s Snapshot) Best() (model.LineState, bool) {
	return s.first(func(a, b model.LineState) bool { return a.Result.Efficiency > b.Result.Efficiency })
}

// HighestTotalLoss returns the line losing the most power in kW.
func (s Snapshot) HighestTotalLoss() (model.LineState, bool) {
	return s.first(func(a, b model.LineState) bool { return a.Result.TotalLossesKW > b.Result.TotalLossesKW })
}

func (s Snapshot) first(better func(a, b model.LineState) bool) (model.LineState, bool) {
	if len(s.Lines) == 0 {
		return model.LineState{}, false
	}
	best := s.Lines[0]
	for _, l := range s.Lines[1:] {
		if better(l, best) {
			best = l
		}
	}
	return best, true
}

// HighLoss returns the lines above the loss threshold, in input order.
func (s Snapshot) HighLoss() []model.LineState {
	return s.filter(func(l model.LineState) bool { return l.HighLoss })
}

// HighVoltageDrop returns the lines above the voltage drop threshold.
func (s Snapshot) HighVoltageDrop() []model.LineState {
	return s.filter(func(l model.LineState) bool { return l.HighVoltageDrop })
}

func (s Snapshot) filter(keep func(model.LineState) bool) []model.LineState {
	var out []model.LineState
	for _, l := range s.Lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// Line looks up a computed line by id.
func (s Snapshot) Line(id string) (model.LineState, bool) {
	for _, l := range s.Lines {
		if l.Record.LineID == id {
			return l, true
		}
	}
	return model.LineState{}, false
}

// Records returns the input records of the computed lines.
func (s Snapshot) Records() []model.LineRecord {
	out := make([]model.LineRecord, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Record
	}
	return out
}

// Results returns the computed results in line order.
func (s Snapshot) Results() []model.LossResult {
	out := make([]model.LossResult, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Result
	}
	return out
}
