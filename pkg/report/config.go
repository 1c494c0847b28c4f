package report

import "fmt"

// Config holds the economic assumptions of the analytics report.
type Config struct {
	// ElectricityRate is the price of lost energy in $/kWh.
	ElectricityRate float64 `json:"electricity_rate"`
	// ImprovementPct is the loss reduction used for the savings estimate.
	ImprovementPct float64 `json:"improvement_pct"`
}

// SetDefaults applies $0.10/kWh and a 10 % improvement.
func (c *Config) SetDefaults() {
	if c.ElectricityRate == 0 {
		c.ElectricityRate = 0.10
	}
	if c.ImprovementPct == 0 {
		c.ImprovementPct = 10
	}
}

// Validate checks the assumptions are positive.
func (c Config) Validate() error {
	if c.ElectricityRate < 0 {
		return fmt.Errorf("electricity_rate must not be negative")
	}
	if c.ImprovementPct < 0 || c.ImprovementPct > 100 {
		return fmt.Errorf("improvement_pct must be within [0,100]")
	}
	return nil
}
