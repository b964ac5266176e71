package cell

import "math"

// tauFloor is the RC time constant below which the branch is treated as
// purely resistive.
const tauFloor = 1e-9

const secondsPerHour = 3600.0

// Model is a stateless equivalent-circuit cell model.
type Model struct {
	Params Params
	// Curve optionally overrides the analytic OCV curve.
	Curve OCVFunc
}

// NewModel validates the parameters and returns a Model.
func NewModel(p Params) (Model, error) {
	if err := p.Validate(); err != nil {
		return Model{}, err
	}
	return Model{Params: p}, nil
}

// OCV returns the open-circuit voltage at the given state of charge. When an
// injected curve returns a non-finite value the analytic curve takes over
// for that sample.
func (m Model) OCV(soc float64) float64 {
	if m.Curve != nil {
		if v := m.Curve(soc); !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return analyticOCV(m.Params, soc)
}

// AdjustedResistances returns R0 and R1 scaled linearly with the deviation
// from the reference temperature. Resistances are not floored: far below the
// reference they can go negative, which is a known limit of the linear fit.
func (m Model) AdjustedResistances(tempK float64) (r0, r1 float64) {
	f := 1.0 + m.Params.TempCoeffPerK*(tempK-m.Params.TRefK)
	return m.Params.R0Ohm * f, m.Params.R1Ohm * f
}

// Step advances the cell electrical state by dtS seconds under current iA
// (positive discharges). It returns the terminal voltage, the next RC branch
// voltage and the next state of charge. SOC is clipped to [0,1]; the
// terminal voltage is reported unclipped.
func (m Model) Step(soc, vRC, iA, dtS, tempK float64) (vTerm, vRCNext, socNext float64) {
	r0, r1 := m.AdjustedResistances(tempK)

	tau := r1 * m.Params.C1Farad
	if tau <= tauFloor {
		vRCNext = r1 * iA
	} else {
		decay := math.Exp(-dtS / tau)
		vRCNext = decay*vRC + (1.0-decay)*r1*iA
	}

	socNext = clip(soc-iA*dtS/(m.Params.CapacityAh*secondsPerHour), 0, 1)
	vTerm = m.OCV(socNext) - r0*iA - vRCNext
	return vTerm, vRCNext, socNext
}
