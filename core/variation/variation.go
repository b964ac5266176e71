// Package variation generates per-cell manufacturing dispersion and the
// passive balancing rule used by the advanced pack.
package variation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/packsim/packsim/core/cell"
)

// DefaultSeed seeds the dispersion draw when the caller does not supply one.
const DefaultSeed uint64 = 123

// Params sets the relative standard deviation of each dispersed cell
// parameter. Only capacity and the two resistances vary between cells.
type Params struct {
	CapacityStd float64 `json:"capacity_std"`
	R0Std       float64 `json:"r0_std"`
	R1Std       float64 `json:"r1_std"`
	Seed        uint64  `json:"seed"`
}

// DefaultParams returns the dispersion of a well-controlled production line.
func DefaultParams() Params {
	return Params{
		CapacityStd: 0.02,
		R0Std:       0.05,
		R1Std:       0.05,
		Seed:        DefaultSeed,
	}
}

// Validate checks the dispersion parameters.
func (p Params) Validate() error {
	if p.CapacityStd < 0 || p.R0Std < 0 || p.R1Std < 0 {
		return fmt.Errorf("variation: standard deviations must not be negative")
	}
	return nil
}

// Spread returns n copies of base with capacity, R0 and R1 each scaled by an
// independent factor drawn from N(1, std). The draw is deterministic for a
// given seed; every other field is copied from base unchanged.
func Spread(base cell.Params, n int, p Params) []cell.Params {
	src := rand.NewPCG(p.Seed, p.Seed)
	capScale := scaleDraws(n, p.CapacityStd, src)
	r0Scale := scaleDraws(n, p.R0Std, src)
	r1Scale := scaleDraws(n, p.R1Std, src)

	out := make([]cell.Params, n)
	for i := range out {
		c := base
		c.CapacityAh = base.CapacityAh * capScale[i]
		c.R0Ohm = base.R0Ohm * r0Scale[i]
		c.R1Ohm = base.R1Ohm * r1Scale[i]
		out[i] = c
	}
	return out
}

func scaleDraws(n int, std float64, src rand.Source) []float64 {
	dist := distuv.Normal{Mu: 1.0, Sigma: std, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// Balancing configures the passive bleed applied while the pack idles.
type Balancing struct {
	Enable         bool    `json:"enable"`
	BleedCurrentA  float64 `json:"bleed_current_a"`
	IdleThresholdA float64 `json:"idle_threshold_a"`
	SOCDeltaMin    float64 `json:"soc_delta_min"`
}

// DefaultBalancing returns the reference passive balancing settings.
func DefaultBalancing() Balancing {
	return Balancing{
		Enable:         true,
		BleedCurrentA:  0.2,
		IdleThresholdA: 2.0,
		SOCDeltaMin:    0.01,
	}
}

// ApplyPassiveBalancing bleeds charge off cells sitting above the pack mean
// while the pack current is below the idle threshold. capsAh must be as long
// as socs. The input slices are not modified; the adjusted SOC vector is
// returned.
func ApplyPassiveBalancing(socs, capsAh []float64, iPackA, dtS float64, b Balancing) []float64 {
	out := append([]float64(nil), socs...)
	if !b.Enable || math.Abs(iPackA) > b.IdleThresholdA {
		return out
	}
	mean := stat.Mean(socs, nil)
	for i, soc := range socs {
		if soc <= mean+b.SOCDeltaMin {
			continue
		}
		dsoc := b.BleedCurrentA * dtS / math.Max(1e-9, capsAh[i]*3600.0)
		out[i] = math.Max(0, soc-dsoc)
	}
	return out
}
