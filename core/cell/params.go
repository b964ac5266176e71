package cell

import "fmt"

// Params defines the equivalent-circuit parameters of a single cell.
type Params struct {
	// CapacityAh is the nominal capacity in ampere-hours.
	CapacityAh float64 `json:"capacity_ah"`
	// R0Ohm is the ohmic series resistance.
	R0Ohm float64 `json:"r0_ohm"`
	// R1Ohm and C1Farad form the polarization RC branch.
	R1Ohm   float64 `json:"r1_ohm"`
	C1Farad float64 `json:"c1_farad"`
	// VMinV and VMaxV are the allowed terminal voltage window.
	VMinV float64 `json:"v_min_v"`
	VMaxV float64 `json:"v_max_v"`
	// TRefK is the reference temperature for resistance adjustment.
	TRefK float64 `json:"t_ref_k"`
	// TempCoeffPerK scales resistances linearly with temperature deviation.
	TempCoeffPerK float64 `json:"temp_coeff_per_k"`
	// OCVFloorV and OCVCeilingV clip the open-circuit voltage curve.
	OCVFloorV   float64 `json:"ocv_floor_v"`
	OCVCeilingV float64 `json:"ocv_ceiling_v"`
}

// DefaultParams returns parameters for a generic 3 Ah NMC-style cell.
func DefaultParams() Params {
	return Params{
		CapacityAh:    3.0,
		R0Ohm:         0.0025,
		R1Ohm:         0.0015,
		C1Farad:       2000.0,
		VMinV:         3.0,
		VMaxV:         4.2,
		TRefK:         298.15,
		TempCoeffPerK: 0.003,
		OCVFloorV:     3.0,
		OCVCeilingV:   4.2,
	}
}

// Validate checks the parameters for physical consistency.
func (p Params) Validate() error {
	if p.CapacityAh <= 0 {
		return fmt.Errorf("capacity_ah must be positive, got %g", p.CapacityAh)
	}
	if p.R0Ohm < 0 {
		return fmt.Errorf("r0_ohm must not be negative, got %g", p.R0Ohm)
	}
	if p.R1Ohm < 0 {
		return fmt.Errorf("r1_ohm must not be negative, got %g", p.R1Ohm)
	}
	if p.C1Farad <= 0 {
		return fmt.Errorf("c1_farad must be positive, got %g", p.C1Farad)
	}
	if p.VMinV >= p.VMaxV {
		return fmt.Errorf("v_min_v %g must be below v_max_v %g", p.VMinV, p.VMaxV)
	}
	if p.OCVFloorV >= p.OCVCeilingV {
		return fmt.Errorf("ocv_floor_v %g must be below ocv_ceiling_v %g", p.OCVFloorV, p.OCVCeilingV)
	}
	return nil
}
