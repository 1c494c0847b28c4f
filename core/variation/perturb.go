// Package variation emulates a live feed by jittering a base dataset on a
// timer and recomputing the network after each change.
package variation

import (
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/lineloss/core/model"
)

// Perturber draws jittered copies of a dataset from a seeded random source.
type Perturber struct {
	cfg  Config
	rand *rand.Rand
}

// NewPerturber returns a Perturber using rng, or a source seeded from
// cfg.Seed when rng is nil.
func NewPerturber(cfg Config, rng *rand.Rand) *Perturber {
	if rng == nil {
		rng = NewRand(cfg.Seed)
	}
	return &Perturber{cfg: cfg, rand: rng}
}

// NewRand returns a random source for seed, falling back to the clock for 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Perturb returns a new dataset derived from base. Loads are scaled by
// 1+U(-p,+p) and rounded to 0.1 kW; power factors are shifted by U(-a,+a),
// rounded to three decimals and clipped. The base slice is never modified.
func (p *Perturber) Perturb(base []model.LineRecord) []model.LineRecord {
	out := model.CloneRecords(base)
	loadFrac := p.cfg.LoadVariationPct / 100
	for i := range out {
		out[i].LoadKW = round(out[i].LoadKW*(1+p.uniform(loadFrac)), 1)
		pf := round(out[i].PowerFactor+p.uniform(p.cfg.PFVariationAbs), 3)
		// Clip after rounding so the bounds hold for any clip range.
		out[i].PowerFactor = clamp(pf, p.cfg.PFClipMin, p.cfg.PFClipMax)
	}
	return out
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}

// uniform draws from [-span, +span). A draw is consumed even for a zero span
// so sequences stay aligned across configurations.
func (p *Perturber) uniform(span float64) float64 {
	return (p.rand.Float64()*2 - 1) * span
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
