package variation

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/logger"
	"github.com/kilianp07/lineloss/core/metrics"
	"github.com/kilianp07/lineloss/core/model"
)

// Publisher hands each cycle's dataset and snapshot to readers.
type Publisher interface {
	Publish(ctx context.Context, recs []model.LineRecord, snap batch.Snapshot) error
}

var (
	cyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineloss_simulator_cycles_total",
		Help: "Perturb-and-recompute cycles run",
	})
	cycleErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineloss_simulator_cycle_errors_total",
		Help: "Cycles that failed to compute or publish",
	})
	lastCycle = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lineloss_simulator_last_cycle_timestamp_seconds",
		Help: "Completion time of the last cycle",
	})
	cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineloss_simulator_cycle_duration_seconds",
		Help:    "Time spent in one cycle",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(cyclesTotal, cycleErrors, lastCycle, cycleDuration)
}

// Generator periodically jitters a base dataset and recomputes it.
type Generator struct {
	cfg   Config
	base  []model.LineRecord
	calc  *batch.Calculator
	pub   Publisher
	sink  metrics.MetricsSink
	log   logger.Logger
	pert  *Perturber
	cycle int
}

// New creates a Generator. The base dataset is copied so later changes by
// the caller do not leak into the cycles. pub, sink and log may be nil.
func New(cfg Config, base []model.LineRecord, calc *batch.Calculator, pub Publisher, sink metrics.MetricsSink, log logger.Logger) *Generator {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Generator{
		cfg:  cfg,
		base: model.CloneRecords(base),
		calc: calc,
		pub:  pub,
		sink: sink,
		log:  log,
		pert: NewPerturber(cfg, nil),
	}
}

// Cycles returns the number of cycles run so far.
func (g *Generator) Cycles() int { return g.cycle }

// Cycle runs one perturb, recompute and publish step from the base dataset.
// Metrics sink failures are logged and do not fail the cycle.
func (g *Generator) Cycle(ctx context.Context) (batch.Snapshot, error) {
	start := time.Now()
	g.cycle++
	recs := g.pert.Perturb(g.base)
	snap, err := g.calc.Compute(recs)
	if err != nil {
		cycleErrors.Inc()
		return batch.Snapshot{}, fmt.Errorf("cycle %d: %w", g.cycle, err)
	}
	for _, f := range snap.Failures {
		g.log.Warnf("cycle %d: line %s: %s", g.cycle, f.LineID, f.Message)
	}
	if g.pub != nil {
		if err := g.pub.Publish(ctx, recs, snap); err != nil {
			cycleErrors.Inc()
			return snap, fmt.Errorf("cycle %d: publish: %w", g.cycle, err)
		}
	}
	if err := g.sink.RecordSnapshot(snap); err != nil {
		g.log.Warnf("cycle %d: record snapshot: %v", g.cycle, err)
	}
	elapsed := time.Since(start)
	if rec, ok := g.sink.(metrics.CycleRecorder); ok {
		ev := metrics.CycleEvent{
			Cycle:      g.cycle,
			SnapshotID: snap.ID,
			Lines:      len(snap.Lines),
			Failed:     len(snap.Failures),
			Duration:   elapsed,
			Time:       time.Now(),
		}
		if err := rec.RecordCycle(ev); err != nil {
			g.log.Warnf("cycle %d: record cycle: %v", g.cycle, err)
		}
	}
	cyclesTotal.Inc()
	cycleDuration.Observe(elapsed.Seconds())
	lastCycle.Set(float64(time.Now().Unix()))

	g.log.Infof("cycle %d: %d lines, total loss %.2f kW (%.2f%%)",
		g.cycle, len(snap.Lines), snap.Summary.TotalLossKW, snap.Summary.OverallLossPct)
	if len(recs) > 0 {
		g.log.Debugw("first line", map[string]any{
			"line_id":   recs[0].LineID,
			"load_kw":   recs[0].LoadKW,
			"base_load": g.base[0].LoadKW,
			"pf":        recs[0].PowerFactor,
			"base_pf":   g.base[0].PowerFactor,
		})
	}
	return snap, nil
}

// Start runs cycles until ctx is cancelled or MaxCycles is reached. A cycle
// always completes once begun; cancellation is observed between cycles.
// Failed cycles are logged and the loop carries on.
func (g *Generator) Start(ctx context.Context) {
	for {
		if _, err := g.Cycle(context.WithoutCancel(ctx)); err != nil {
			g.log.Errorf("%v", err)
		}
		if g.cfg.MaxCycles > 0 && g.cycle >= g.cfg.MaxCycles {
			return
		}
		timer := time.NewTimer(g.cfg.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
