package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/lineloss/core/batch"
	coremetrics "github.com/kilianp07/lineloss/core/metrics"
	"github.com/kilianp07/lineloss/infra/logger"
)

// InfluxSink writes snapshots to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSnapshot writes one line_losses point per computed line and one
// system_losses point, all stamped with the snapshot time.
func (s *InfluxSink) RecordSnapshot(snap batch.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(snap.Lines)+1)
	for _, l := range snap.Lines {
		r := l.Result
		points = append(points, write.NewPointWithMeasurement("line_losses").
			AddTag("line_id", l.Record.LineID).
			AddTag("area_name", l.Record.AreaName).
			AddTag("conductor_type", l.Record.ConductorType).
			AddField("load_kw", round3(l.Record.LoadKW)).
			AddField("power_factor", round3(l.Record.PowerFactor)).
			AddField("current_amps", r.CurrentAmps).
			AddField("line_losses_kw", r.LineLossesKW).
			AddField("transformer_losses_kw", r.TransformerLossesKW).
			AddField("total_losses_kw", r.TotalLossesKW).
			AddField("loss_percentage", r.LossPercentage).
			AddField("voltage_drop_v", r.VoltageDropV).
			AddField("efficiency", r.Efficiency).
			AddField("high_loss", l.HighLoss).
			AddField("high_voltage_drop", l.HighVoltageDrop).
			SetTime(snap.GeneratedAt))
	}
	sum := snap.Summary
	points = append(points, write.NewPointWithMeasurement("system_losses").
		AddTag("snapshot_id", snap.ID).
		AddField("voltage_kv", snap.VoltageKV).
		AddField("lines", sum.LineCount).
		AddField("failed", sum.FailedCount).
		AddField("total_load_kw", round3(sum.TotalLoadKW)).
		AddField("total_loss_kw", round3(sum.TotalLossKW)).
		AddField("overall_loss_pct", round3(sum.OverallLossPct)).
		AddField("avg_loss_pct", round3(sum.AvgLossPct)).
		SetTime(snap.GeneratedAt))
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordCycle writes a simulator_cycle point.
func (s *InfluxSink) RecordCycle(ev coremetrics.CycleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulator_cycle").
		AddTag("snapshot_id", ev.SnapshotID).
		AddField("cycle", ev.Cycle).
		AddField("lines", ev.Lines).
		AddField("failed", ev.Failed).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
