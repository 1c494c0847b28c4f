package config

import "fmt"

// DashboardConfig configures the HTTP dashboard.
type DashboardConfig struct {
	Addr string `json:"addr"`
	// UseLive reads the simulator hand-off file instead of the base dataset.
	UseLive bool `json:"use_live"`
	// RefreshSeconds is advertised to clients as their polling period.
	RefreshSeconds int `json:"refresh_seconds"`
}

// SetDefaults applies fallback values for optional fields.
func (c *DashboardConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8501"
	}
	if c.RefreshSeconds == 0 {
		c.RefreshSeconds = 10
	}
}

// Validate checks the refresh period range.
func (c DashboardConfig) Validate() error {
	if c.RefreshSeconds < 5 || c.RefreshSeconds > 60 {
		return fmt.Errorf("refresh_seconds must be within [5,60], got %d", c.RefreshSeconds)
	}
	return nil
}
