// Package pack couples the cell electrical model with a thermal model and
// owns the authoritative simulation state. Two assemblies are provided: the
// mean-field Pack, which treats every cell as identical, and AdvancedPack,
// which models per-cell dispersion, aging and balancing.
package pack

import (
	"fmt"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/thermal"
)

// Config sizes the pack and bounds its operating window.
type Config struct {
	SeriesCells   int     `json:"series_cells"`
	ParallelCells int     `json:"parallel_cells"`
	MaxCurrentA   float64 `json:"max_current_a"`
	MinSOC        float64 `json:"min_soc"`
	MaxSOC        float64 `json:"max_soc"`
}

// DefaultConfig returns the reference 40s3p pack.
func DefaultConfig() Config {
	return Config{
		SeriesCells:   40,
		ParallelCells: 3,
		MaxCurrentA:   120.0,
		MinSOC:        0.1,
		MaxSOC:        0.9,
	}
}

// Validate checks the pack topology and operating window.
func (c Config) Validate() error {
	if c.SeriesCells < 1 {
		return fmt.Errorf("series_cells must be at least 1, got %d", c.SeriesCells)
	}
	if c.ParallelCells < 1 {
		return fmt.Errorf("parallel_cells must be at least 1, got %d", c.ParallelCells)
	}
	if c.MaxCurrentA <= 0 {
		return fmt.Errorf("max_current_a must be positive, got %g", c.MaxCurrentA)
	}
	if c.MinSOC < 0 || c.MaxSOC > 1 || c.MinSOC >= c.MaxSOC {
		return fmt.Errorf("soc window [%g,%g] must satisfy 0 <= min < max <= 1", c.MinSOC, c.MaxSOC)
	}
	return nil
}

// State is the basic pack's simulation state. It is owned by exactly one
// Pack and mutated only by Step and Reset.
type State struct {
	SOC   float64
	TempK float64
	VRC1V float64
}

// Pack is the mean-field assembly: one shared cell model and one lumped
// thermal node stand in for all cells. Instances are not safe for
// concurrent use; drive each from a single simulation loop.
type Pack struct {
	cellModel cell.Model
	cfg       Config
	thermalP  thermal.Params
	lumped    thermal.Lumped
	state     State
}

// New validates all parameter sets and returns a pack initialized at the
// given state of charge with the thermal node at ambient.
func New(cellParams cell.Params, cfg Config, th thermal.Params, initialSOC float64) (*Pack, error) {
	m, err := cell.NewModel(cellParams)
	if err != nil {
		return nil, fmt.Errorf("cell params: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pack config: %w", err)
	}
	lumped, err := thermal.NewLumped(th)
	if err != nil {
		return nil, fmt.Errorf("thermal params: %w", err)
	}
	p := &Pack{
		cellModel: m,
		cfg:       cfg,
		thermalP:  th,
		lumped:    lumped,
	}
	p.Reset(initialSOC)
	return p, nil
}

// Reset reinitializes the state: SOC clipped to [0,1], RC voltage zeroed,
// temperature back to ambient. Calling Reset twice equals calling it once.
func (p *Pack) Reset(initialSOC float64) {
	p.state = State{
		SOC:   clip(initialSOC, 0, 1),
		TempK: p.thermalP.AmbientK,
	}
}

// Step advances the pack by dtS seconds under pack current iPackA (positive
// discharges) and returns the resulting telemetry row. State is committed
// only once the full electro-thermal update has been computed.
func (p *Pack) Step(iPackA, dtS float64) Record {
	iCell := iPackA / float64(p.cfg.ParallelCells)

	vCell, vRCNext, socNext := p.cellModel.Step(p.state.SOC, p.state.VRC1V, iCell, dtS, p.state.TempK)

	// All series cells and parallel strings are assumed identical, so pack
	// heat is Ns * I_pack^2 * R / Np with resistances at the current temp.
	r0, r1 := p.cellModel.AdjustedResistances(p.state.TempK)
	heatW := float64(p.cfg.SeriesCells) * iPackA * iPackA * (r0 + r1) / float64(p.cfg.ParallelCells)
	tempNext := p.lumped.Step(p.state.TempK, heatW, dtS)

	p.state = State{SOC: socNext, TempK: tempNext, VRC1V: vRCNext}

	vPack := float64(p.cfg.SeriesCells) * vCell
	return Record{
		PackCurrentA: iPackA,
		CellCurrentA: iCell,
		PackVoltageV: vPack,
		CellVoltageV: vCell,
		SOC:          socNext,
		TempK:        tempNext,
		TempMaxK:     tempNext,
		PowerW:       vPack * iPackA,
		HeatW:        heatW,
	}
}

// StaticVoltage is the RC-free pack voltage estimate at a candidate pack
// current and state of charge, with resistances adjusted to the pack's
// present temperature. The power-limit solver bisects over it.
func (p *Pack) StaticVoltage(iPackA, soc float64) float64 {
	r0, r1 := p.cellModel.AdjustedResistances(p.state.TempK)
	iCell := iPackA / float64(p.cfg.ParallelCells)
	vCell := p.cellModel.OCV(soc) - (r0+r1)*iCell
	return float64(p.cfg.SeriesCells) * vCell
}

// Cell returns the shared cell model.
func (p *Pack) Cell() cell.Model { return p.cellModel }

// Config returns the pack topology.
func (p *Pack) Config() Config { return p.cfg }

// Thermal returns the lumped thermal parameters.
func (p *Pack) Thermal() thermal.Params { return p.thermalP }

// State returns the current simulation state.
func (p *Pack) State() State { return p.state }

// SOC returns the current state of charge.
func (p *Pack) SOC() float64 { return p.state.SOC }

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
