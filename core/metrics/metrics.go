package metrics

import (
	"time"

	"github.com/kilianp07/lineloss/core/batch"
)

// MetricsSink records computed snapshots for observability purposes.
type MetricsSink interface {
	RecordSnapshot(snap batch.Snapshot) error
}

// CycleEvent describes one perturb-and-recompute cycle of the live simulator.
type CycleEvent struct {
	Cycle      int
	SnapshotID string
	Lines      int
	Failed     int
	Duration   time.Duration
	Time       time.Time
}

// CycleRecorder records simulator cycles.
type CycleRecorder interface {
	RecordCycle(ev CycleEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSnapshot(batch.Snapshot) error { return nil }
func (NopSink) RecordCycle(CycleEvent) error        { return nil }
