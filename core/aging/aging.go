// Package aging models throughput-driven capacity fade and resistance
// growth with a temperature acceleration factor.
package aging

import (
	"fmt"
	"math"
)

// Params tunes the aging model.
type Params struct {
	// CapFadePerAh is the fractional capacity loss per ampere-hour of
	// throughput at the reference temperature.
	CapFadePerAh float64 `json:"cap_fade_per_ah"`
	// ResGrowthPerAh is the fractional R0 growth per ampere-hour; R1 grows
	// at half this rate.
	ResGrowthPerAh float64 `json:"res_growth_per_ah"`
	// Beta is the per-10K exponent of the thermal acceleration factor.
	Beta  float64 `json:"beta"`
	TRefK float64 `json:"t_ref_k"`
	// MinCapFrac floors the capacity at this fraction of the as-built value.
	MinCapFrac float64 `json:"min_cap_frac"`
	// MaxResScale caps resistances at this multiple of the as-built value.
	MaxResScale float64 `json:"max_res_scale"`
}

// DefaultParams returns the reference aging constants.
func DefaultParams() Params {
	return Params{
		CapFadePerAh:   2e-5,
		ResGrowthPerAh: 3e-5,
		Beta:           0.04,
		TRefK:          298.15,
		MinCapFrac:     0.7,
		MaxResScale:    2.5,
	}
}

// Validate checks the parameters for consistency.
func (p Params) Validate() error {
	if p.CapFadePerAh < 0 || p.ResGrowthPerAh < 0 {
		return fmt.Errorf("fade and growth rates must not be negative")
	}
	if p.MinCapFrac <= 0 || p.MinCapFrac > 1 {
		return fmt.Errorf("min_cap_frac must be in (0,1], got %g", p.MinCapFrac)
	}
	if p.MaxResScale < 1 {
		return fmt.Errorf("max_res_scale must be at least 1, got %g", p.MaxResScale)
	}
	return nil
}

// State carries the aged electrical parameters of a cell.
type State struct {
	CapacityAh float64
	R0Ohm      float64
	R1Ohm      float64
}

// Accel returns the thermal acceleration multiplier at the given
// temperature.
func Accel(tempK float64, p Params) float64 {
	return math.Exp(p.Beta * (tempK - p.TRefK) / 10.0)
}

// Apply ages cur by throughputAh ampere-hours at tempK and returns the new
// state. fresh is the as-built state; the capacity floor and resistance
// caps are taken against it, so repeated calls cannot walk past the limits.
// Negative throughput is treated as zero.
func Apply(cur, fresh State, throughputAh, tempK float64, p Params) State {
	dAh := math.Max(0, throughputAh)
	acc := Accel(tempK, p)

	next := State{
		CapacityAh: cur.CapacityAh * (1.0 - p.CapFadePerAh*acc*dAh),
		R0Ohm:      cur.R0Ohm * (1.0 + p.ResGrowthPerAh*acc*dAh),
		R1Ohm:      cur.R1Ohm * (1.0 + 0.5*p.ResGrowthPerAh*acc*dAh),
	}
	next.CapacityAh = math.Max(p.MinCapFrac*fresh.CapacityAh, next.CapacityAh)
	next.R0Ohm = math.Min(p.MaxResScale*fresh.R0Ohm, next.R0Ohm)
	next.R1Ohm = math.Min(p.MaxResScale*fresh.R1Ohm, next.R1Ohm)
	return next
}
