package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `model:
  voltage_kv: 33
thresholds:
  high_loss_pct: 4
data:
  source:
    type: sqlite
    conf:
      path: data/lines.db
  live_records: live/records.csv
simulator:
  load_variation_pct: 0
  pf_variation_abs: 0.01
  interval_seconds: 7
  seed: 42
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
dashboard:
  use_live: true
report:
  electricity_rate: 0.12
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"model.voltage_kv", cfg.Model.VoltageKV, 33.0},
		{"thresholds.high_loss_pct", cfg.Thresholds.HighLossPct, 4.0},
		{"thresholds.high_voltage_drop_v", cfg.Thresholds.HighVoltageDropV, 150.0},
		{"data.source.type", cfg.Data.Source.Type, "sqlite"},
		{"data.source.conf.path", cfg.Data.Source.Conf["path"], "data/lines.db"},
		{"data.live_records", cfg.Data.LiveRecords, "live/records.csv"},
		{"data.live_results", cfg.Data.LiveResults, "data/loss_calculations_live.csv"},
		{"simulator.load_variation_pct", cfg.Simulator.LoadVariationPct, 0.0},
		{"simulator.pf_variation_abs", cfg.Simulator.PFVariationAbs, 0.01},
		{"simulator.pf_clip_min", cfg.Simulator.PFClipMin, 0.75},
		{"simulator.pf_clip_max", cfg.Simulator.PFClipMax, 0.95},
		{"simulator.interval_seconds", cfg.Simulator.IntervalSeconds, 7},
		{"simulator.seed", cfg.Simulator.Seed, int64(42)},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"dashboard.use_live", cfg.Dashboard.UseLive, true},
		{"dashboard.addr", cfg.Dashboard.Addr, ":8501"},
		{"dashboard.refresh_seconds", cfg.Dashboard.RefreshSeconds, 10},
		{"report.electricity_rate", cfg.Report.ElectricityRate, 0.12},
		{"report.improvement_pct", cfg.Report.ImprovementPct, 10.0},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadDefaultsFromEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.json", `{}`))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 11.0, cfg.Model.VoltageKV)
	assert.Equal(t, 5.0, cfg.Simulator.LoadVariationPct)
	assert.Equal(t, 0.02, cfg.Simulator.PFVariationAbs)
	assert.Equal(t, "csv", cfg.Data.Source.Type)
	assert.Equal(t, "data/power_system.csv", cfg.Data.Source.Conf["path"])
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_MODEL__VOLTAGE_KV", "22")
	t.Setenv("K_DASHBOARD__ADDR", ":9000")
	cfg, err := Load(writeFile(t, "config.yaml", "model:\n  voltage_kv: 11\n"))
	require.NoError(t, err)
	assert.Equal(t, 22.0, cfg.Model.VoltageKV)
	assert.Equal(t, ":9000", cfg.Dashboard.Addr)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		name string
		data string
	}{
		"unsupported format": {"config.toml", ""},
		"negative voltage":   {"config.yaml", "model:\n  voltage_kv: -1\n"},
		"bad clip range":     {"config.yaml", "simulator:\n  pf_clip_min: 0.9\n  pf_clip_max: 0.8\n"},
		"refresh too fast":   {"config.yaml", "dashboard:\n  refresh_seconds: 1\n"},
		"same live files":    {"config.yaml", "data:\n  live_records: a.csv\n  live_results: a.csv\n"},
		"unknown log level":  {"config.yaml", "logging:\n  level: chatty\n"},
		"negative rate":      {"config.yaml", "report:\n  electricity_rate: -1\n"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, c.name, c.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
