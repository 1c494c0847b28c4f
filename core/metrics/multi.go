package metrics

import (
	"errors"
	"io"

	"github.com/kilianp07/lineloss/core/batch"
)

// MultiSink fans snapshots out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSnapshot forwards the snapshot to every sink. A failing sink does not
// prevent the others from recording; all errors are joined.
func (m *MultiSink) RecordSnapshot(snap batch.Snapshot) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordSnapshot(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordCycle forwards cycle events to sinks that support them.
func (m *MultiSink) RecordCycle(ev CycleEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(CycleRecorder); ok {
			if err := rec.RecordCycle(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
