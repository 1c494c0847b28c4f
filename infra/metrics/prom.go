package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/lineloss/core/batch"
	coremetrics "github.com/kilianp07/lineloss/core/metrics"
)

var lineLabels = []string{"line_id", "area_name"}

// PromSink exposes the latest snapshot as Prometheus gauges.
type PromSink struct {
	current    *prometheus.GaugeVec
	lossKW     *prometheus.GaugeVec
	lossPct    *prometheus.GaugeVec
	drop       *prometheus.GaugeVec
	efficiency *prometheus.GaugeVec
	flagged    *prometheus.GaugeVec
	system     *prometheus.GaugeVec
	failures   prometheus.Counter
	snapshots  prometheus.Counter
	cycleTime  prometheus.Histogram
}

// NewPromSink registers loss metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := func(name, help string, labels ...string) (*prometheus.GaugeVec, error) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
		if err := reg.Register(g); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector.(*prometheus.GaugeVec), nil
			}
			return nil, err
		}
		return g, nil
	}
	counter := func(name, help string) (prometheus.Counter, error) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector.(prometheus.Counter), nil
			}
			return nil, err
		}
		return c, nil
	}

	s := &PromSink{}
	var err error
	if s.current, err = gauge("lineloss_line_current_amps", "Line current", lineLabels...); err != nil {
		return nil, err
	}
	if s.lossKW, err = gauge("lineloss_line_losses_kw", "Line losses by component", append(lineLabels, "component")...); err != nil {
		return nil, err
	}
	if s.lossPct, err = gauge("lineloss_line_loss_percentage", "Total losses as a share of load", lineLabels...); err != nil {
		return nil, err
	}
	if s.drop, err = gauge("lineloss_line_voltage_drop_volts", "Voltage drop along the line", lineLabels...); err != nil {
		return nil, err
	}
	if s.efficiency, err = gauge("lineloss_line_efficiency_percent", "Line efficiency", lineLabels...); err != nil {
		return nil, err
	}
	if s.flagged, err = gauge("lineloss_line_flagged", "1 when the line exceeds a threshold", append(lineLabels, "flag")...); err != nil {
		return nil, err
	}
	if s.system, err = gauge("lineloss_system", "System-wide aggregates", "quantity"); err != nil {
		return nil, err
	}
	if s.failures, err = counter("lineloss_line_failures_total", "Lines the model could not compute"); err != nil {
		return nil, err
	}
	if s.snapshots, err = counter("lineloss_snapshots_total", "Snapshots recorded"); err != nil {
		return nil, err
	}
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineloss_cycle_seconds",
		Help:    "Duration of simulator cycles",
		Buckets: prometheus.DefBuckets,
	})
	if err := reg.Register(hist); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		hist = are.ExistingCollector.(prometheus.Histogram)
	}
	s.cycleTime = hist
	return s, nil
}

// RecordSnapshot replaces the per-line gauges with the snapshot content.
// Lines absent from the snapshot are dropped so failed lines do not keep
// reporting stale values.
func (s *PromSink) RecordSnapshot(snap batch.Snapshot) error {
	for _, g := range []*prometheus.GaugeVec{s.current, s.lossKW, s.lossPct, s.drop, s.efficiency, s.flagged} {
		g.Reset()
	}
	for _, l := range snap.Lines {
		id, area := l.Record.LineID, l.Record.AreaName
		r := l.Result
		s.current.WithLabelValues(id, area).Set(r.CurrentAmps)
		s.lossKW.WithLabelValues(id, area, "line").Set(r.LineLossesKW)
		s.lossKW.WithLabelValues(id, area, "transformer").Set(r.TransformerLossesKW)
		s.lossKW.WithLabelValues(id, area, "total").Set(r.TotalLossesKW)
		s.lossPct.WithLabelValues(id, area).Set(r.LossPercentage)
		s.drop.WithLabelValues(id, area).Set(r.VoltageDropV)
		s.efficiency.WithLabelValues(id, area).Set(r.Efficiency)
		s.flagged.WithLabelValues(id, area, "high_loss").Set(b2f(l.HighLoss))
		s.flagged.WithLabelValues(id, area, "high_voltage_drop").Set(b2f(l.HighVoltageDrop))
	}
	sum := snap.Summary
	s.system.WithLabelValues("total_load_kw").Set(sum.TotalLoadKW)
	s.system.WithLabelValues("total_loss_kw").Set(sum.TotalLossKW)
	s.system.WithLabelValues("overall_loss_pct").Set(sum.OverallLossPct)
	s.system.WithLabelValues("overall_efficiency").Set(sum.OverallEfficiency)
	s.system.WithLabelValues("avg_loss_pct").Set(sum.AvgLossPct)
	s.system.WithLabelValues("total_current_a").Set(sum.TotalCurrentA)
	s.system.WithLabelValues("voltage_kv").Set(snap.VoltageKV)
	s.system.WithLabelValues("lines").Set(float64(sum.LineCount))
	s.failures.Add(float64(len(snap.Failures)))
	s.snapshots.Inc()
	return nil
}

// RecordCycle observes the simulator cycle duration.
func (s *PromSink) RecordCycle(ev coremetrics.CycleEvent) error {
	s.cycleTime.Observe(ev.Duration.Seconds())
	return nil
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
