package variation

import (
	"fmt"
	"time"
)

// Config describes the jitter applied to a base dataset on every cycle.
type Config struct {
	// LoadVariationPct bounds the relative load change in percent: a value of
	// 5 multiplies each load by a factor drawn from [0.95, 1.05].
	LoadVariationPct float64 `json:"load_variation_pct"`
	// PFVariationAbs bounds the absolute power factor change.
	PFVariationAbs float64 `json:"pf_variation_abs"`
	PFClipMin      float64 `json:"pf_clip_min"`
	PFClipMax      float64 `json:"pf_clip_max"`
	// IntervalSeconds is the pause between two cycles.
	IntervalSeconds int `json:"interval_seconds"`
	// Seed initialises the random source. Zero seeds from the clock.
	Seed int64 `json:"seed"`
	// MaxCycles stops the loop after that many cycles. Zero runs until
	// cancelled.
	MaxCycles int `json:"max_cycles"`
}

// DefaultConfig returns the ±5 % load, ±0.02 power factor policy clipped to
// [0.75, 0.95] with a five second interval.
func DefaultConfig() Config {
	return Config{
		LoadVariationPct: 5,
		PFVariationAbs:   0.02,
		PFClipMin:        0.75,
		PFClipMax:        0.95,
		IntervalSeconds:  5,
	}
}

// SetDefaults fills the clip range and interval when unset. Variation
// magnitudes are left alone since zero is a meaningful setting.
func (c *Config) SetDefaults() {
	if c.PFClipMin == 0 && c.PFClipMax == 0 {
		c.PFClipMin, c.PFClipMax = 0.75, 0.95
	}
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 5
	}
}

// Validate checks the policy is well formed.
func (c Config) Validate() error {
	if c.LoadVariationPct < 0 || c.LoadVariationPct >= 100 {
		return fmt.Errorf("load_variation_pct must be in [0,100), got %v", c.LoadVariationPct)
	}
	if c.PFVariationAbs < 0 || c.PFVariationAbs > 1 {
		return fmt.Errorf("pf_variation_abs must be in [0,1], got %v", c.PFVariationAbs)
	}
	if c.PFClipMin <= 0 || c.PFClipMax > 1 || c.PFClipMin > c.PFClipMax {
		return fmt.Errorf("invalid power factor clip range [%v, %v]", c.PFClipMin, c.PFClipMax)
	}
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must not be negative")
	}
	if c.MaxCycles < 0 {
		return fmt.Errorf("max_cycles must not be negative")
	}
	return nil
}

// Interval returns the pause between cycles.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
