package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/lineloss/core/batch"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordSnapshot(batch.Snapshot) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordCycle(CycleEvent) error {
	r.count++
	return nil
}

// snapshotOnly does not implement CycleRecorder.
type snapshotOnly struct{ count int }

func (s *snapshotOnly) RecordSnapshot(batch.Snapshot) error { s.count++; return nil }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	s3 := &snapshotOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordSnapshot(batch.Snapshot{}); err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	if err := m.RecordCycle(CycleEvent{Cycle: 1}); err != nil {
		t.Fatalf("record cycle: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
	if s3.count != 1 {
		t.Fatalf("expected snapshot only, got %d", s3.count)
	}
}

func TestMultiSinkKeepsGoingOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordSnapshot(batch.Snapshot{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s2.count != 1 {
		t.Fatalf("second sink skipped")
	}
}

type closingSink struct {
	snapshotOnly
	closed bool
}

func (c *closingSink) Close() error { c.closed = true; return nil }

func TestMultiSinkClose(t *testing.T) {
	c := &closingSink{}
	if err := NewMultiSink(&snapshotOnly{}, c).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !c.closed {
		t.Fatalf("closer not closed")
	}
}
