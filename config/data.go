package config

import (
	"fmt"

	"github.com/kilianp07/lineloss/core/factory"
)

// DataConfig locates the base dataset and the tabular hand-off files shared by
// the simulator and the dashboard.
type DataConfig struct {
	// Source builds the base dataset, e.g. {type: csv, conf: {path: ...}} or
	// {type: sqlite, conf: {path: ..., table: line_records}}.
	Source factory.ModuleConfig `json:"source"`
	// StaticResults receives the results of the calculate command.
	StaticResults string `json:"static_results"`
	// LiveRecords and LiveResults are rewritten on every simulator cycle.
	LiveRecords string `json:"live_records"`
	LiveResults string `json:"live_results"`
	// LiveDatabase, when set, also receives every simulator cycle in SQLite.
	LiveDatabase string `json:"live_database"`
}

// SetDefaults points at the files under data/.
func (c *DataConfig) SetDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = "csv"
	}
	if c.Source.Type == "csv" {
		if c.Source.Conf == nil {
			c.Source.Conf = map[string]any{}
		}
		if _, ok := c.Source.Conf["path"]; !ok {
			c.Source.Conf["path"] = "data/power_system.csv"
		}
	}
	if c.StaticResults == "" {
		c.StaticResults = "data/loss_calculations.csv"
	}
	if c.LiveRecords == "" {
		c.LiveRecords = "data/power_system_live.csv"
	}
	if c.LiveResults == "" {
		c.LiveResults = "data/loss_calculations_live.csv"
	}
}

// Validate checks the live files do not overwrite each other.
func (c DataConfig) Validate() error {
	if c.LiveRecords == c.LiveResults {
		return fmt.Errorf("live_records and live_results must differ")
	}
	return nil
}
