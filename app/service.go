// Package app wires configuration, data sources, the loss engine and the
// metrics sinks into the operations exposed by the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/lineloss/api/dashboard"
	"github.com/kilianp07/lineloss/config"
	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/datasource"
	"github.com/kilianp07/lineloss/core/loss"
	coremetrics "github.com/kilianp07/lineloss/core/metrics"
	"github.com/kilianp07/lineloss/core/model"
	"github.com/kilianp07/lineloss/core/variation"
	"github.com/kilianp07/lineloss/infra/csvstore"
	"github.com/kilianp07/lineloss/infra/logger"
	"github.com/kilianp07/lineloss/infra/metrics"
	"github.com/kilianp07/lineloss/infra/sqlstore"
	"github.com/kilianp07/lineloss/pkg/export"
	"github.com/kilianp07/lineloss/pkg/report"
)

// Service holds the components shared by every command.
type Service struct {
	cfg    *config.Config
	calc   *batch.Calculator
	source datasource.Source
	sink   coremetrics.MetricsSink
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	m, err := loss.New(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("loss model: %w", err)
	}
	calc, err := batch.New(m, cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("calculator: %w", err)
	}
	src, err := datasource.New(cfg.Data.Source)
	if err != nil {
		return nil, fmt.Errorf("data source: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return &Service{
		cfg:    cfg,
		calc:   calc,
		source: src,
		sink:   sink,
		log:    logger.New("service"),
	}, nil
}

func (s *Service) load(ctx context.Context) ([]model.LineRecord, error) {
	recs, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return recs, nil
}

// Calculate computes the base dataset, stores the results table and prints
// the per-line figures and the system summary to w.
func (s *Service) Calculate(ctx context.Context, w io.Writer) (batch.Snapshot, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return batch.Snapshot{}, err
	}
	snap, err := s.calc.Compute(recs)
	if err != nil {
		return batch.Snapshot{}, err
	}
	for _, f := range snap.Failures {
		s.log.Warnf("line %s skipped: %v", f.LineID, f.Err)
	}
	if err := csvstore.WriteResultsFile(s.cfg.Data.StaticResults, snap.Results()); err != nil {
		return snap, fmt.Errorf("write results: %w", err)
	}
	if err := s.sink.RecordSnapshot(snap); err != nil {
		s.log.Errorf("record snapshot: %v", err)
	}
	if err := report.WriteLines(w, snap); err != nil {
		return snap, err
	}
	if err := report.WriteSummary(w, snap); err != nil {
		return snap, err
	}
	s.log.Infof("results saved to %s", s.cfg.Data.StaticResults)
	return snap, nil
}

// Analyze joins the base dataset with the results of an earlier Calculate
// and prints the rankings, problem areas and cost impact to w.
func (s *Service) Analyze(ctx context.Context, w io.Writer) (report.Analytics, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return report.Analytics{}, err
	}
	results, err := csvstore.LoadResults(s.cfg.Data.StaticResults)
	if errors.Is(err, datasource.ErrNotFound) {
		return report.Analytics{}, fmt.Errorf("%w: run calculate first", err)
	}
	if err != nil {
		return report.Analytics{}, fmt.Errorf("load results: %w", err)
	}
	snap, err := s.calc.Assemble(recs, results)
	if err != nil {
		return report.Analytics{}, err
	}
	a := report.Analyze(snap, s.cfg.Report)
	return a, report.WriteAnalytics(w, a)
}

// Export writes the computed base dataset to w as "json" or "csv".
func (s *Service) Export(ctx context.Context, w io.Writer, format string) error {
	recs, err := s.load(ctx)
	if err != nil {
		return err
	}
	snap, err := s.calc.Compute(recs)
	if err != nil {
		return err
	}
	switch format {
	case "json":
		return export.WriteJSON(w, snap)
	case "csv":
		return export.WriteCSV(w, snap.Lines)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// Seed copies the base dataset and its computed results into a SQLite
// database and returns the number of records written.
func (s *Service) Seed(ctx context.Context, path string) (int, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	snap, err := s.calc.Compute(recs)
	if err != nil {
		return 0, err
	}
	store, err := sqlstore.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()
	if err := store.Publish(ctx, recs, snap); err != nil {
		return 0, err
	}
	s.log.Infof("seeded %d lines into %s", len(recs), path)
	return len(recs), nil
}

// Simulate runs the variation generator until ctx is cancelled or the
// configured number of cycles is reached.
func (s *Service) Simulate(ctx context.Context) error {
	base, err := s.load(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pubs := publishers{csvstore.Publisher{
		RecordsPath: s.cfg.Data.LiveRecords,
		ResultsPath: s.cfg.Data.LiveResults,
	}}
	if s.cfg.Data.LiveDatabase != "" {
		store, err := sqlstore.Open(ctx, s.cfg.Data.LiveDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		pubs = append(pubs, store)
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	gen := variation.New(s.cfg.Simulator, base, s.calc, pubs, s.sink, logger.New("simulator"))
	s.log.Infof("simulating %d lines every %s", len(base), s.cfg.Simulator.Interval())
	gen.Start(ctx)
	s.log.Infof("simulator stopped after %d cycles", gen.Cycles())
	return nil
}

// Serve runs the dashboard until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	svc := dashboard.New(s.calc, dashboard.Options{
		Static:         s.source,
		Live:           csvstore.Source{Path: s.cfg.Data.LiveRecords},
		UseLive:        s.cfg.Dashboard.UseLive,
		RefreshSeconds: s.cfg.Dashboard.RefreshSeconds,
		Report:         s.cfg.Report,
		Sink:           s.sink,
		Log:            logger.New("dashboard"),
	})
	return dashboard.Serve(ctx, s.cfg.Dashboard.Addr, dashboard.NewHandler(svc), logger.New("http"))
}

// Close releases the metrics sinks.
func (s *Service) Close() error {
	if c, ok := s.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// publishers hands every cycle to several destinations.
type publishers []variation.Publisher

func (p publishers) Publish(ctx context.Context, recs []model.LineRecord, snap batch.Snapshot) error {
	var errs []error
	for _, pub := range p {
		if err := pub.Publish(ctx, recs, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
