// Package dashboard serves the computed network state over HTTP: overview
// metrics, line details, reports and analytics. Every request recomputes the
// snapshot from the current data so the dashboard follows the simulator.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/datasource"
	"github.com/kilianp07/lineloss/core/logger"
	"github.com/kilianp07/lineloss/core/metrics"
	"github.com/kilianp07/lineloss/core/model"
	"github.com/kilianp07/lineloss/pkg/report"
)

// Data source labels shown to clients.
const (
	SourceLive           = "LIVE DATA"
	SourceStatic         = "STATIC DATA"
	SourceStaticFallback = "STATIC DATA (Fallback)"
)

// ErrNoData is returned when not even the static dataset exists.
var ErrNoData = errors.New("data files not found")

// Options configures a Service. Static is required.
type Options struct {
	Static datasource.Source
	// Live is read instead of Static when live mode is on. A missing live
	// source falls back to Static.
	Live           datasource.Source
	UseLive        bool
	RefreshSeconds int
	Report         report.Config
	Sink           metrics.MetricsSink
	Log            logger.Logger
	Now            func() time.Time
}

// Service loads and computes snapshots on demand.
type Service struct {
	calc *batch.Calculator
	opts Options
}

// New returns a Service computing with calc.
func New(calc *batch.Calculator, opts Options) *Service {
	if opts.Sink == nil {
		opts.Sink = metrics.NopSink{}
	}
	if opts.Log == nil {
		opts.Log = logger.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{calc: calc, opts: opts}
}

// Overview holds the headline figures of the dashboard.
type Overview struct {
	TotalLoadKW   float64 `json:"total_load_kw"`
	TotalLossKW   float64 `json:"total_loss_kw"`
	AvgEfficiency float64 `json:"avg_efficiency"`
	TotalCurrentA float64 `json:"total_current_a"`
}

// View is a snapshot with its provenance.
type View struct {
	Source         string         `json:"source"`
	Live           bool           `json:"live"`
	Fallback       bool           `json:"fallback"`
	RefreshSeconds int            `json:"refresh_seconds"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Overview       Overview       `json:"overview"`
	Snapshot       batch.Snapshot `json:"snapshot"`
}

// Current loads the dataset in the requested mode and computes it. Only a
// missing live source is recovered from; any other failure is returned.
func (s *Service) Current(ctx context.Context, live bool) (View, error) {
	v := View{Source: SourceStatic, RefreshSeconds: s.opts.RefreshSeconds, UpdatedAt: s.opts.Now()}
	var (
		recs []model.LineRecord
		err  error
	)
	if live && s.opts.Live != nil {
		var fellBack bool
		src := datasource.Fallback{Primary: s.opts.Live, Secondary: s.opts.Static}
		recs, fellBack, err = src.LoadWithOrigin(ctx)
		v.Live, v.Fallback = !fellBack, fellBack
		v.Source = SourceLive
		if fellBack {
			v.Source = SourceStaticFallback
			s.opts.Log.Warnf("live data unavailable, using static dataset")
		}
	} else {
		recs, err = s.opts.Static.Load(ctx)
	}
	if errors.Is(err, datasource.ErrNotFound) {
		return View{}, errors.Join(ErrNoData, err)
	}
	if err != nil {
		return View{}, err
	}
	snap, err := s.calc.Compute(recs)
	if err != nil {
		return View{}, err
	}
	if err := s.opts.Sink.RecordSnapshot(snap); err != nil {
		s.opts.Log.Warnf("record snapshot: %v", err)
	}
	v.Snapshot = snap
	v.Overview = Overview{
		TotalLoadKW:   snap.Summary.TotalLoadKW,
		TotalLossKW:   snap.Summary.TotalLossKW,
		AvgEfficiency: snap.Summary.AvgEfficiency,
		TotalCurrentA: snap.Summary.TotalCurrentA,
	}
	return v, nil
}

// UseLive reports the default mode.
func (s *Service) UseLive() bool { return s.opts.UseLive }

// ReportConfig returns the economic assumptions used by analytics.
func (s *Service) ReportConfig() report.Config { return s.opts.Report }

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.opts.Now() }
