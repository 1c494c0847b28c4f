package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/loss"
	"github.com/kilianp07/lineloss/core/metrics"
	"github.com/kilianp07/lineloss/core/variation"
	"github.com/kilianp07/lineloss/pkg/report"
)

type Config struct {
	Model      loss.Config      `json:"model"`
	Thresholds batch.Config     `json:"thresholds"`
	Data       DataConfig       `json:"data"`
	Simulator  variation.Config `json:"simulator"`
	Metrics    metrics.Config   `json:"metrics"`
	Dashboard  DashboardConfig  `json:"dashboard"`
	Report     report.Config    `json:"report"`
	Logging    LoggingConfig    `json:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Simulator: variation.DefaultConfig()}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Model.SetDefaults()
	c.Thresholds.SetDefaults()
	c.Data.SetDefaults()
	c.Simulator.SetDefaults()
	c.Dashboard.SetDefaults()
	c.Report.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"model", c.Model.Validate},
		{"thresholds", c.Thresholds.Validate},
		{"data", c.Data.Validate},
		{"simulator", c.Simulator.Validate},
		{"dashboard", c.Dashboard.Validate},
		{"report", c.Report.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_MODEL__VOLTAGE_KV=33 sets model.voltage_kv), then defaults and validation.
// Simulator variation magnitudes start from their defaults so an explicit zero
// in the file disables that jitter.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Simulator: variation.DefaultConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
