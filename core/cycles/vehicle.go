package cycles

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

const gravityMS2 = 9.81

// Vehicle holds the longitudinal-dynamics parameters used to convert a
// velocity trace into battery current.
type Vehicle struct {
	MassKg            float64 `json:"mass_kg"`
	RollingResistance float64 `json:"rolling_resistance"`
	AirDensityKgM3    float64 `json:"air_density_kg_m3"`
	DragCoefficient   float64 `json:"drag_coefficient"`
	FrontalAreaM2     float64 `json:"frontal_area_m2"`
	PackVoltageV      float64 `json:"pack_voltage_v"`
	MotorEfficiency   float64 `json:"motor_efficiency"`
	TransmissionEff   float64 `json:"transmission_efficiency"`
	RegenEfficiency   float64 `json:"regen_efficiency"`
}

// DefaultVehicle returns a mid-size EV.
func DefaultVehicle() Vehicle {
	return Vehicle{
		MassKg:            1500.0,
		RollingResistance: 0.015,
		AirDensityKgM3:    1.225,
		DragCoefficient:   0.3,
		FrontalAreaM2:     2.0,
		PackVoltageV:      400.0,
		MotorEfficiency:   0.90,
		TransmissionEff:   0.95,
		RegenEfficiency:   0.70,
	}
}

// Validate checks the vehicle parameters.
func (v Vehicle) Validate() error {
	if v.MassKg <= 0 {
		return fmt.Errorf("vehicle: mass_kg must be positive, got %g", v.MassKg)
	}
	if v.PackVoltageV <= 0 {
		return fmt.Errorf("vehicle: pack_voltage_v must be positive, got %g", v.PackVoltageV)
	}
	if v.MotorEfficiency <= 0 || v.MotorEfficiency > 1 ||
		v.TransmissionEff <= 0 || v.TransmissionEff > 1 {
		return fmt.Errorf("vehicle: drivetrain efficiencies must be in (0,1]")
	}
	if v.RegenEfficiency < 0 || v.RegenEfficiency > 1 {
		return fmt.Errorf("vehicle: regen_efficiency must be in [0,1], got %g", v.RegenEfficiency)
	}
	return nil
}

// VelocityToCurrent converts a velocity/acceleration trace into battery
// current using a force balance: aerodynamic drag, rolling resistance,
// inertia and optional road grade. Positive mechanical power divides by
// the drivetrain efficiency; negative power recovers through regen.
// gradeDeg may be nil for flat roads.
func VelocityToCurrent(velocityMS, accelMS2, gradeDeg []float64, v Vehicle) ([]float64, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if len(velocityMS) != len(accelMS2) {
		return nil, fmt.Errorf("vehicle: %d velocity samples vs %d acceleration samples", len(velocityMS), len(accelMS2))
	}
	if gradeDeg != nil && len(gradeDeg) != len(velocityMS) {
		return nil, fmt.Errorf("vehicle: %d grade samples vs %d velocity samples", len(gradeDeg), len(velocityMS))
	}

	fRoll := v.RollingResistance * v.MassKg * gravityMS2
	out := make([]float64, len(velocityMS))
	for i, vel := range velocityMS {
		fAero := 0.5 * v.AirDensityKgM3 * v.DragCoefficient * v.FrontalAreaM2 * vel * vel
		fAccel := v.MassKg * accelMS2[i]
		fGrade := 0.0
		if gradeDeg != nil {
			fGrade = v.MassKg * gravityMS2 * math.Sin(gradeDeg[i]*math.Pi/180.0)
		}

		pMechW := (fAero + fRoll + fAccel + fGrade) * vel
		pBattW := 0.0
		switch {
		case pMechW > 0:
			pBattW = pMechW / (v.MotorEfficiency * v.TransmissionEff)
		case pMechW < 0:
			pBattW = pMechW * v.RegenEfficiency
		}
		out[i] = pBattW / v.PackVoltageV
	}
	return out, nil
}

// Profile is a velocity trace prior to conversion into current.
type Profile struct {
	TimeS          []float64
	VelocityMS     []float64
	AccelerationMS []float64
	GradeDeg       []float64
}

// ToCycle converts the profile into a current cycle for the given vehicle.
func (p Profile) ToCycle(v Vehicle) (Cycle, error) {
	current, err := VelocityToCurrent(p.VelocityMS, p.AccelerationMS, p.GradeDeg, v)
	if err != nil {
		return Cycle{}, err
	}
	return FromSeries(p.TimeS, current)
}

// LoadProfileCSV reads a velocity trace from a CSV file with a header row.
// kmh selects km/h input; otherwise the velocity column is taken as m/s.
// Acceleration is derived by finite differences, padded at the front.
func LoadProfileCSV(path, timeCol, velocityCol string, kmh bool) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open cycle csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Profile{}, fmt.Errorf("read cycle csv: %w", err)
	}
	if len(rows) < 2 {
		return Profile{}, fmt.Errorf("cycle csv %s: need a header and at least one sample", path)
	}

	timeIdx, velIdx := -1, -1
	for i, name := range rows[0] {
		switch name {
		case timeCol:
			timeIdx = i
		case velocityCol:
			velIdx = i
		}
	}
	if timeIdx < 0 || velIdx < 0 {
		return Profile{}, fmt.Errorf("cycle csv %s: missing column %q or %q", path, timeCol, velocityCol)
	}

	n := len(rows) - 1
	p := Profile{
		TimeS:      make([]float64, n),
		VelocityMS: make([]float64, n),
	}
	for i, row := range rows[1:] {
		if p.TimeS[i], err = strconv.ParseFloat(row[timeIdx], 64); err != nil {
			return Profile{}, fmt.Errorf("cycle csv %s row %d: bad time: %w", path, i+1, err)
		}
		if p.VelocityMS[i], err = strconv.ParseFloat(row[velIdx], 64); err != nil {
			return Profile{}, fmt.Errorf("cycle csv %s row %d: bad velocity: %w", path, i+1, err)
		}
		if kmh {
			p.VelocityMS[i] /= 3.6
		}
	}

	p.AccelerationMS = diffAccel(p.TimeS, p.VelocityMS)
	return p, nil
}

// diffAccel computes per-sample acceleration by finite differences. The
// first sample repeats the first difference so lengths match.
func diffAccel(timeS, velocityMS []float64) []float64 {
	n := len(velocityMS)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := 1; i < n; i++ {
		dt := math.Max(timeS[i]-timeS[i-1], 1e-6)
		out[i] = (velocityMS[i] - velocityMS[i-1]) / dt
	}
	out[0] = out[1]
	return out
}
