// Package mission builds aerospace duty profiles and grades completed
// runs against their requirements.
package mission

import (
	"errors"
	"fmt"
	"math"

	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/pack"
)

// Phase labels one leg of an aerospace mission.
type Phase string

const (
	PhaseGroundStartup Phase = "ground_startup"
	PhaseTakeoff       Phase = "takeoff"
	PhaseClimb         Phase = "climb"
	PhaseCruise        Phase = "cruise"
	PhaseDescent       Phase = "descent"
	PhaseApproach      Phase = "approach"
	PhaseLanding       Phase = "landing"
	PhaseLoiter        Phase = "loiter"
	PhaseCombat        Phase = "combat"
	PhaseEmergency     Phase = "emergency"
	PhaseHover         Phase = "hover"
)

// Segment is one constant-power leg of a mission.
type Segment struct {
	Phase        Phase   `json:"phase" yaml:"phase"`
	DurationS    float64 `json:"duration_s" yaml:"duration_s"`
	PowerKW      float64 `json:"power_kw" yaml:"power_kw"`
	Description  string  `json:"description" yaml:"description"`
	AltitudeM    float64 `json:"altitude_m,omitempty" yaml:"altitude_m,omitempty"`
	AmbientTempK float64 `json:"ambient_temp_k,omitempty" yaml:"ambient_temp_k,omitempty"`
}

// Profile is a named sequence of segments.
type Profile struct {
	Name       string    `json:"name"`
	Segments   []Segment `json:"segments"`
	DurationS  float64   `json:"total_duration_s"`
	MaxPowerKW float64   `json:"max_power_kw"`
}

// New assembles a profile and computes its duration and power peak.
func New(name string, segments []Segment) (Profile, error) {
	if len(segments) == 0 {
		return Profile{}, errors.New("mission: no segments")
	}
	p := Profile{Name: name, Segments: segments}
	for _, seg := range segments {
		if seg.DurationS <= 0 {
			return Profile{}, fmt.Errorf("mission: segment %q has duration %g s", seg.Phase, seg.DurationS)
		}
		p.DurationS += seg.DurationS
		p.MaxPowerKW = math.Max(p.MaxPowerKW, seg.PowerKW)
	}
	return p, nil
}

// SegmentCurrent converts a segment's power demand into pack current
// at the nominal voltage. Positive means discharge.
func SegmentCurrent(seg Segment, nominalVoltageV float64) float64 {
	return seg.PowerKW * 1000.0 / nominalVoltageV
}

// ToCycle flattens the mission into a constant-current cycle at the
// given nominal pack voltage. Segments shorter than dt contribute no
// samples.
func (p Profile) ToCycle(nominalVoltageV, dtS float64) (cycles.Cycle, error) {
	if nominalVoltageV <= 0 {
		return cycles.Cycle{}, fmt.Errorf("mission: nominal voltage must be positive, got %g V", nominalVoltageV)
	}
	if dtS <= 0 {
		return cycles.Cycle{}, fmt.Errorf("mission: dt must be positive, got %g s", dtS)
	}

	var times, currents []float64
	t := 0.0
	for _, seg := range p.Segments {
		current := SegmentCurrent(seg, nominalVoltageV)
		steps := int(seg.DurationS / dtS)
		for i := 0; i < steps; i++ {
			times = append(times, t)
			currents = append(currents, current)
			t += dtS
		}
	}
	return cycles.FromSeries(times, currents)
}

// ElectricAircraft returns a fixed-wing flight from ground checks
// through cruise to landing.
func ElectricAircraft() Profile {
	p, _ := New("electric_aircraft_mission", []Segment{
		{Phase: PhaseGroundStartup, DurationS: 300, PowerKW: 10, Description: "Ground operations and pre-flight checks", AmbientTempK: 298.15},
		{Phase: PhaseTakeoff, DurationS: 60, PowerKW: 200, Description: "Takeoff roll and initial climb", AmbientTempK: 298.15},
		{Phase: PhaseClimb, DurationS: 600, PowerKW: 150, Description: "Climb to cruise altitude", AltitudeM: 3000, AmbientTempK: 273.15},
		{Phase: PhaseCruise, DurationS: 3600, PowerKW: 80, Description: "Cruise flight", AltitudeM: 3000, AmbientTempK: 273.15},
		{Phase: PhaseDescent, DurationS: 300, PowerKW: 30, Description: "Descent to approach altitude", AmbientTempK: 285.15},
		{Phase: PhaseApproach, DurationS: 180, PowerKW: 50, Description: "Approach pattern", AmbientTempK: 298.15},
		{Phase: PhaseLanding, DurationS: 120, PowerKW: 40, Description: "Final approach and landing", AmbientTempK: 298.15},
	})
	return p
}

// EVTOL returns a hover-transition-cruise-transition-hover air taxi
// hop.
func EVTOL() Profile {
	p, _ := New("evtol_mission", []Segment{
		{Phase: PhaseHover, DurationS: 60, PowerKW: 250, Description: "Vertical takeoff and hover", AmbientTempK: 298.15},
		{Phase: PhaseClimb, DurationS: 120, PowerKW: 180, Description: "Transition to forward flight", AmbientTempK: 298.15},
		{Phase: PhaseCruise, DurationS: 1200, PowerKW: 100, Description: "Cruise flight", AmbientTempK: 285.15},
		{Phase: PhaseDescent, DurationS: 120, PowerKW: 180, Description: "Transition to hover", AmbientTempK: 298.15},
		{Phase: PhaseHover, DurationS: 60, PowerKW: 250, Description: "Hover and vertical landing", AmbientTempK: 298.15},
	})
	return p
}

// Satellite returns a launch followed by one orbit of operations and
// eclipse.
func Satellite() Profile {
	p, _ := New("satellite_mission", []Segment{
		{Phase: PhaseEmergency, DurationS: 600, PowerKW: 500, Description: "Launch and orbit insertion", AmbientTempK: 273.15},
		{Phase: PhaseCruise, DurationS: 5400, PowerKW: 2, Description: "Normal operations (daylight)", AmbientTempK: 273.15},
		{Phase: PhaseEmergency, DurationS: 5400, PowerKW: 0, Description: "Eclipse period (battery discharge)", AmbientTempK: 273.15},
	})
	return p
}

// Emergency returns a high-power defense duty profile with a combat
// surge and a maximum-power burst.
func Emergency() Profile {
	p, _ := New("emergency_mission", []Segment{
		{Phase: PhaseGroundStartup, DurationS: 30, PowerKW: 5, Description: "System startup", AmbientTempK: 298.15},
		{Phase: PhaseCruise, DurationS: 1800, PowerKW: 50, Description: "Normal operations", AmbientTempK: 298.15},
		{Phase: PhaseCombat, DurationS: 300, PowerKW: 300, Description: "High-power operation", AmbientTempK: 298.15},
		{Phase: PhaseEmergency, DurationS: 60, PowerKW: 500, Description: "Emergency maximum power", AmbientTempK: 298.15},
		{Phase: PhaseCruise, DurationS: 600, PowerKW: 30, Description: "Return to base (low power)", AmbientTempK: 298.15},
	})
	return p
}

// ComplianceLimits are the pass thresholds applied to a mission run.
type ComplianceLimits struct {
	MaxTempK    float64 `json:"t_max_k"`
	MinVoltageV float64 `json:"v_min_v"`
	MinSOC      float64 `json:"soc_min"`
	MaxCurrentA float64 `json:"i_max_a"`
}

func DefaultComplianceLimits() ComplianceLimits {
	return ComplianceLimits{
		MaxTempK:    328.15,
		MinVoltageV: 100.0,
		MinSOC:      0.1,
		MaxCurrentA: 500.0,
	}
}

// Compliance grades the telemetry of a completed mission run.
type Compliance struct {
	Mission       string  `json:"mission_name"`
	TemperatureOK bool    `json:"temperature_ok"`
	VoltageOK     bool    `json:"voltage_ok"`
	SOCOK         bool    `json:"soc_ok"`
	CurrentOK     bool    `json:"current_ok"`
	AllMet        bool    `json:"all_requirements_met"`
	PeakTempK     float64 `json:"peak_temp_k"`
	MinVoltageV   float64 `json:"min_voltage_v"`
	MinSOC        float64 `json:"min_soc"`
	MaxCurrentA   float64 `json:"max_current_a"`
	DurationS     float64 `json:"mission_duration_s"`
	PeakPowerKW   float64 `json:"peak_power_kw"`
}

// CheckCompliance extracts the run extremes from telemetry and
// compares them against the limits.
func (p Profile) CheckCompliance(records []pack.Record, limits ComplianceLimits) (Compliance, error) {
	if len(records) == 0 {
		return Compliance{}, errors.New("mission: no records to grade")
	}

	c := Compliance{
		Mission:     p.Name,
		PeakTempK:   records[0].TempK,
		MinVoltageV: records[0].PackVoltageV,
		MinSOC:      records[0].SOC,
		MaxCurrentA: math.Abs(records[0].PackCurrentA),
		DurationS:   p.DurationS,
		PeakPowerKW: p.MaxPowerKW,
	}
	for _, r := range records[1:] {
		c.PeakTempK = math.Max(c.PeakTempK, r.TempK)
		c.MinVoltageV = math.Min(c.MinVoltageV, r.PackVoltageV)
		c.MinSOC = math.Min(c.MinSOC, r.SOC)
		c.MaxCurrentA = math.Max(c.MaxCurrentA, math.Abs(r.PackCurrentA))
	}

	c.TemperatureOK = c.PeakTempK <= limits.MaxTempK
	c.VoltageOK = c.MinVoltageV >= limits.MinVoltageV
	c.SOCOK = c.MinSOC >= limits.MinSOC
	c.CurrentOK = c.MaxCurrentA <= limits.MaxCurrentA
	c.AllMet = c.TemperatureOK && c.VoltageOK && c.SOCOK && c.CurrentOK
	return c, nil
}
