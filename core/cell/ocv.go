package cell

import (
	"fmt"
	"math"
)

// OCVFunc maps a state of charge in [0,1] to an open-circuit voltage.
// Implementations replace the built-in analytic curve, for example with a
// lookup table extracted from an electrochemical model.
type OCVFunc func(soc float64) float64

// LookupOCV builds an OCVFunc from a tabulated curve using piecewise-linear
// interpolation. The SOC grid must be strictly increasing; queries outside
// the grid clamp to the end points.
func LookupOCV(socs, volts []float64) (OCVFunc, error) {
	if len(socs) != len(volts) {
		return nil, fmt.Errorf("ocv table: %d soc points vs %d voltage points", len(socs), len(volts))
	}
	if len(socs) < 2 {
		return nil, fmt.Errorf("ocv table: need at least 2 points, got %d", len(socs))
	}
	for i := 1; i < len(socs); i++ {
		if socs[i] <= socs[i-1] {
			return nil, fmt.Errorf("ocv table: soc grid not strictly increasing at index %d", i)
		}
	}
	s := append([]float64(nil), socs...)
	v := append([]float64(nil), volts...)
	return func(soc float64) float64 {
		if soc <= s[0] {
			return v[0]
		}
		if soc >= s[len(s)-1] {
			return v[len(v)-1]
		}
		i := 1
		for soc > s[i] {
			i++
		}
		frac := (soc - s[i-1]) / (s[i] - s[i-1])
		return v[i-1] + frac*(v[i]-v[i-1])
	}, nil
}

// analyticOCV is the built-in curve: a linear ramp with exponential knees
// near full and empty, clipped to the configured OCV window.
func analyticOCV(p Params, soc float64) float64 {
	s := clip(soc, 0, 1)
	v := 3.0 + 1.2*s + 0.3*math.Exp(-20.0*(1.0-s)) - 0.08*math.Exp(-20.0*s)
	return clip(v, p.OCVFloorV, p.OCVCeilingV)
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
