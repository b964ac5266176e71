// Package charging generates DC fast-charge schedules for common EV
// charging protocols.
package charging

import (
	"fmt"
	"math"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/pack"
)

// Protocol identifies an EV charging standard.
type Protocol string

const (
	ProtocolLevel1       Protocol = "level1"
	ProtocolLevel2       Protocol = "level2"
	ProtocolCHAdeMO      Protocol = "chademo"
	ProtocolCCSCombo1    Protocol = "ccs_combo1"
	ProtocolCCSCombo2    Protocol = "ccs_combo2"
	ProtocolSupercharger Protocol = "tesla_supercharger"
	ProtocolMegacharger  Protocol = "tesla_megacharger"
)

// Profile is a generated charging schedule. Current is negative while
// charging; power follows the same sign convention in kilowatts.
type Profile struct {
	TimeS    []float64 `json:"time_s"`
	CurrentA []float64 `json:"current_a"`
	VoltageV []float64 `json:"voltage_v"`
	PowerKW  []float64 `json:"power_kw"`
}

// Len returns the number of samples in the profile.
func (p Profile) Len() int { return len(p.TimeS) }

// ToCycle converts the schedule into a current cycle the simulator can
// run directly.
func (p Profile) ToCycle() (cycles.Cycle, error) {
	return cycles.FromSeries(p.TimeS, p.CurrentA)
}

// Params tune the CC-CV schedule for one protocol.
type Params struct {
	Protocol      Protocol `json:"protocol"`
	MaxPowerKW    float64  `json:"max_power_kw"`
	MaxCurrentA   float64  `json:"max_current_a"`
	MaxVoltageV   float64  `json:"max_voltage_v"`
	SOCStart      float64  `json:"soc_start"`
	SOCTarget     float64  `json:"soc_target"`
	MaxTempK      float64  `json:"t_max_k"`
	CellVMaxV     float64  `json:"cell_v_max"`
	CellVMinV     float64  `json:"cell_v_min"`
	CCPhaseSOC    float64  `json:"cc_phase_soc"`
	CVPhaseSOC    float64  `json:"cv_phase_start_soc"`
	TaperCurrentA float64  `json:"taper_current_a"`
}

// DefaultParams returns a generic 10-80% DC charge with the CC phase
// handing over at 30% and the CV taper starting at 80%.
func DefaultParams() Params {
	return Params{
		MaxVoltageV:   500.0,
		SOCStart:      0.1,
		SOCTarget:     0.8,
		MaxTempK:      318.15,
		CellVMaxV:     4.2,
		CellVMinV:     3.0,
		CCPhaseSOC:    0.3,
		CVPhaseSOC:    0.8,
		TaperCurrentA: 10.0,
	}
}

func (p Params) Validate() error {
	if p.MaxCurrentA <= 0 {
		return fmt.Errorf("charging: max current must be positive, got %g A", p.MaxCurrentA)
	}
	if p.TaperCurrentA <= 0 {
		return fmt.Errorf("charging: taper current must be positive, got %g A", p.TaperCurrentA)
	}
	if p.SOCStart < 0 || p.SOCTarget > 1 || p.SOCStart >= p.SOCTarget {
		return fmt.Errorf("charging: soc window [%g, %g] is invalid", p.SOCStart, p.SOCTarget)
	}
	if p.CCPhaseSOC >= p.CVPhaseSOC {
		return fmt.Errorf("charging: cc phase %g must end before cv phase %g", p.CCPhaseSOC, p.CVPhaseSOC)
	}
	return nil
}

// cvTaperSpan is the SOC span over which the CV phase tapers from full
// current down to the taper floor.
const cvTaperSpan = 0.1

// CCCV generates a constant-current constant-voltage schedule. Cell
// voltage is estimated by a linear open-circuit approximation between
// the cell's OCV floor and ceiling; the pack model is not consulted.
// The CV taper never drops below the taper current, so the target SOC
// is always reached.
func CCCV(cellP cell.Params, cfg pack.Config, p Params, dtS float64) (Profile, error) {
	if err := cellP.Validate(); err != nil {
		return Profile{}, fmt.Errorf("charging: cell params: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Profile{}, fmt.Errorf("charging: pack config: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	if dtS <= 0 {
		return Profile{}, fmt.Errorf("charging: dt must be positive, got %g s", dtS)
	}

	ns := float64(cfg.SeriesCells)
	maxCharge := -math.Abs(p.MaxCurrentA)
	packVMax := ns * p.CellVMaxV

	var profile Profile
	soc := p.SOCStart
	t := 0.0
	for soc < p.SOCTarget {
		ocvCell := cellP.OCVFloorV + (cellP.OCVCeilingV-cellP.OCVFloorV)*soc
		vPackEst := ns * ocvCell

		var current float64
		switch {
		case soc < p.CCPhaseSOC || vPackEst < packVMax*0.95:
			current = maxCharge
		case soc >= p.CVPhaseSOC:
			linear := maxCharge * (1.0 - (soc-p.CVPhaseSOC)/cvTaperSpan)
			current = math.Min(-p.TaperCurrentA, linear)
		default:
			factor := (soc - p.CCPhaseSOC) / (p.CVPhaseSOC - p.CCPhaseSOC)
			current = maxCharge * (1.0 - factor*0.5)
		}

		dSOC := math.Abs(current) * dtS / (cellP.CapacityAh * 3600.0)
		next := math.Min(p.SOCTarget, soc+dSOC)
		if next == soc {
			return Profile{}, fmt.Errorf("charging: no SOC progress at %g with %g A", soc, current)
		}
		soc = next

		profile.TimeS = append(profile.TimeS, t)
		profile.CurrentA = append(profile.CurrentA, current)
		profile.VoltageV = append(profile.VoltageV, vPackEst)
		profile.PowerKW = append(profile.PowerKW, vPackEst*current/1000.0)

		t += dtS
	}

	return profile, nil
}

// Supercharger returns the V3 schedule with a 250 kW peak and an
// extended constant-current phase.
func Supercharger(cellP cell.Params, cfg pack.Config, socStart, socTarget, dtS float64) (Profile, error) {
	p := DefaultParams()
	p.Protocol = ProtocolSupercharger
	p.MaxPowerKW = 250.0
	p.MaxCurrentA = 400.0
	p.SOCStart = socStart
	p.SOCTarget = socTarget
	p.CCPhaseSOC = 0.5
	return CCCV(cellP, cfg, p, dtS)
}

// CCSCombo returns an adaptive CCS schedule; the current ceiling is
// derived from the requested power at the nominal pack voltage.
func CCSCombo(cellP cell.Params, cfg pack.Config, maxPowerKW, socStart, socTarget, dtS float64) (Profile, error) {
	p := DefaultParams()
	p.Protocol = ProtocolCCSCombo1
	p.MaxPowerKW = maxPowerKW
	p.MaxCurrentA = maxPowerKW * 1000.0 / (float64(cfg.SeriesCells) * 4.2)
	p.MaxVoltageV = 1000.0
	p.SOCStart = socStart
	p.SOCTarget = socTarget
	p.CCPhaseSOC = 0.6
	p.CVPhaseSOC = 0.85
	return CCCV(cellP, cfg, p, dtS)
}

// CHAdeMO returns the legacy DC schedule capped at 62.5 kW.
func CHAdeMO(cellP cell.Params, cfg pack.Config, socStart, socTarget, dtS float64) (Profile, error) {
	p := DefaultParams()
	p.Protocol = ProtocolCHAdeMO
	p.MaxPowerKW = 62.5
	p.MaxCurrentA = 62.5 * 1000.0 / (float64(cfg.SeriesCells) * 4.2)
	p.SOCStart = socStart
	p.SOCTarget = socTarget
	return CCCV(cellP, cfg, p, dtS)
}

// ForProtocol builds the charging profile for a named protocol.
func ForProtocol(protocol Protocol, cellP cell.Params, cfg pack.Config, socStart, socTarget, dtS float64) (Profile, error) {
	switch protocol {
	case ProtocolSupercharger:
		return Supercharger(cellP, cfg, socStart, socTarget, dtS)
	case ProtocolCCSCombo1, ProtocolCCSCombo2:
		return CCSCombo(cellP, cfg, 350.0, socStart, socTarget, dtS)
	case ProtocolCHAdeMO:
		return CHAdeMO(cellP, cfg, socStart, socTarget, dtS)
	default:
		return Profile{}, fmt.Errorf("charging: protocol %q not supported", protocol)
	}
}

// Thermal throttling reference temperatures.
const (
	DefaultThrottleMaxTempK     = 318.15
	DefaultThrottleOptimalTempK = 303.15
)

// ThrottleForTemperature derates a charging current for pack
// temperature. Packs above the ceiling fall to a trickle, warm packs
// derate linearly down to 30%, and cold packs charge at no less than
// half rate.
func ThrottleForTemperature(baseCurrentA, tempK, maxTempK, optimalTempK float64) float64 {
	switch {
	case tempK > maxTempK:
		return baseCurrentA * 0.1
	case tempK > optimalTempK+5.0:
		throttle := 1.0 - (tempK-(optimalTempK+5.0))/(maxTempK-optimalTempK-5.0)
		return baseCurrentA * math.Max(0.3, throttle)
	case tempK < optimalTempK-10.0:
		cold := 1.0 - (optimalTempK-10.0-tempK)/20.0
		return baseCurrentA * math.Max(0.5, cold)
	default:
		return baseCurrentA
	}
}
