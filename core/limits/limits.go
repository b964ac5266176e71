// Package limits computes instantaneous charge and discharge power limits
// for a pack by bisecting over its static voltage estimate.
package limits

import (
	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/pack"
)

// bisectIterations resolves the current to better than 1e-6 of the search
// range in double precision.
const bisectIterations = 30

const (
	socGuard  = 1e-6
	voltGuard = 1e-6
)

// Assembly is the view of a pack the solver needs.
type Assembly interface {
	StaticVoltage(iPackA, soc float64) float64
	Config() pack.Config
	Cell() cell.Model
}

// Limits carries the maximum instantaneous powers as positive magnitudes.
type Limits struct {
	MaxDischargeW float64 `json:"max_discharge_w"`
	MaxChargeW    float64 `json:"max_charge_w"`
}

// Compute returns the power limits of the pack at a candidate state of
// charge. Discharge is bounded by the pack minimum voltage and the SOC
// floor (zero once the floor is reached), charge by the maximum voltage
// and the SOC ceiling.
func Compute(p Assembly, soc float64) Limits {
	cfg := p.Config()
	cellP := p.Cell().Params
	vMinPack := float64(cfg.SeriesCells) * cellP.VMinV
	vMaxPack := float64(cfg.SeriesCells) * cellP.VMaxV

	canDischarge := func(iA float64) bool {
		if soc <= cfg.MinSOC+socGuard {
			return false
		}
		return p.StaticVoltage(iA, soc) >= vMinPack-voltGuard
	}
	iDis := bisect(canDischarge, cfg.MaxCurrentA)

	canCharge := func(iA float64) bool {
		if soc >= cfg.MaxSOC-socGuard {
			return false
		}
		return p.StaticVoltage(-iA, soc) <= vMaxPack+voltGuard
	}
	iChg := bisect(canCharge, cfg.MaxCurrentA)

	return Limits{
		MaxDischargeW: iDis * p.StaticVoltage(iDis, soc),
		MaxChargeW:    iChg * p.StaticVoltage(-iChg, soc),
	}
}

// bisect finds the largest current in [0, maxA] still satisfying ok,
// assuming ok flips from true to false at most once over the range.
func bisect(ok func(float64) bool, maxA float64) float64 {
	lo, hi := 0.0, maxA
	for i := 0; i < bisectIterations; i++ {
		mid := 0.5 * (lo + hi)
		if ok(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}
