// Package thermal provides the lumped-mass and 1-D network thermal models
// used by the pack simulators.
package thermal

import "fmt"

// heatCapFloor avoids division by zero for degenerate mass*Cp products.
const heatCapFloor = 1e-9

// Params defines a single lumped thermal mass with a convective sink.
type Params struct {
	MassKg    float64 `json:"mass_kg"`
	CpJPerKgK float64 `json:"cp_j_per_kg_k"`
	UAWPerK   float64 `json:"ua_w_per_k"`
	AmbientK  float64 `json:"ambient_k"`
	MaxTempK  float64 `json:"max_temp_k"`
}

// DefaultParams returns the reference 10 kg pack thermal mass.
func DefaultParams() Params {
	return Params{
		MassKg:    10.0,
		CpJPerKgK: 900.0,
		UAWPerK:   6.0,
		AmbientK:  298.15,
		MaxTempK:  328.15,
	}
}

// Validate checks the parameters for physical consistency.
func (p Params) Validate() error {
	if p.MassKg <= 0 {
		return fmt.Errorf("mass_kg must be positive, got %g", p.MassKg)
	}
	if p.CpJPerKgK <= 0 {
		return fmt.Errorf("cp_j_per_kg_k must be positive, got %g", p.CpJPerKgK)
	}
	if p.UAWPerK < 0 {
		return fmt.Errorf("ua_w_per_k must not be negative, got %g", p.UAWPerK)
	}
	return nil
}

// Lumped is a single-node thermal model.
type Lumped struct {
	Params Params
}

// NewLumped validates the parameters and returns a Lumped model.
func NewLumped(p Params) (Lumped, error) {
	if err := p.Validate(); err != nil {
		return Lumped{}, err
	}
	return Lumped{Params: p}, nil
}

// Step advances the temperature by dtS seconds with the given heat input.
// Explicit Euler; the temperature is not capped at MaxTempK, which is an
// alarm threshold rather than a solver bound.
func (l Lumped) Step(tempK, heatW, dtS float64) float64 {
	p := l.Params
	dTdt := (heatW - p.UAWPerK*(tempK-p.AmbientK)) / max(heatCapFloor, p.MassKg*p.CpJPerKgK)
	return tempK + dtS*dTdt
}
