package pack

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/packsim/packsim/core/aging"
	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/thermal"
	"github.com/packsim/packsim/core/variation"
)

// cellToCellWPerK is the fixed conduction between adjacent series cells in
// the advanced pack's thermal network.
const cellToCellWPerK = 0.5

// Options configures the advanced pack's heterogeneity models.
type Options struct {
	CoolingMode thermal.Mode        `json:"cooling_mode"`
	Variation   variation.Params    `json:"variation"`
	Balancing   variation.Balancing `json:"balancing"`
	Aging       aging.Params        `json:"aging"`
	// OCV optionally replaces the analytic open-circuit curve for every
	// cell, typically with a table from an external electrochemical model.
	OCV cell.OCVFunc `json:"-"`
}

// DefaultOptions returns air cooling with the reference dispersion,
// balancing and aging settings.
func DefaultOptions() Options {
	return Options{
		CoolingMode: thermal.ModeAir,
		Variation:   variation.DefaultParams(),
		Balancing:   variation.DefaultBalancing(),
		Aging:       aging.DefaultParams(),
	}
}

// AdvancedPack models one individually varied cell per series position,
// coupled to a 1-D thermal network with one node per cell. Parallel strings
// are assumed identical, so per-node heat scales by Np. Aging mutates each
// cell's parameters in place and survives Reset; only a new pack is fresh.
// Like Pack, instances are not safe for concurrent use.
type AdvancedPack struct {
	cfg      Config
	thermalP thermal.Params
	opts     Options

	cells []cell.Model
	fresh []aging.State

	socs         []float64
	vRC          []float64
	throughputAh []float64

	net *thermal.Network
}

// NewAdvanced draws the per-cell parameter dispersion from base, builds the
// thermal network and initializes every cell at the given state of charge.
func NewAdvanced(base cell.Params, cfg Config, th thermal.Params, opts Options, initialSOC float64) (*AdvancedPack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pack config: %w", err)
	}
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("thermal params: %w", err)
	}
	if err := opts.Variation.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Aging.Validate(); err != nil {
		return nil, err
	}

	varied := variation.Spread(base, cfg.SeriesCells, opts.Variation)
	cells := make([]cell.Model, len(varied))
	fresh := make([]aging.State, len(varied))
	for i, cp := range varied {
		m, err := cell.NewModel(cp)
		if err != nil {
			return nil, fmt.Errorf("varied cell %d: %w", i, err)
		}
		m.Curve = opts.OCV
		cells[i] = m
		fresh[i] = aging.State{CapacityAh: cp.CapacityAh, R0Ohm: cp.R0Ohm, R1Ohm: cp.R1Ohm}
	}

	net, err := thermal.NewNetwork(thermal.NetworkParams{
		NumNodes:        cfg.SeriesCells,
		MassKgTotal:     th.MassKg,
		CpJPerKgK:       th.CpJPerKgK,
		CellToCellWPerK: cellToCellWPerK,
		CellToSinkWPerK: th.UAWPerK,
		SinkTempK:       th.AmbientK,
		Mode:            opts.CoolingMode,
	})
	if err != nil {
		return nil, fmt.Errorf("thermal network: %w", err)
	}

	a := &AdvancedPack{
		cfg:          cfg,
		thermalP:     th,
		opts:         opts,
		cells:        cells,
		fresh:        fresh,
		socs:         make([]float64, len(cells)),
		vRC:          make([]float64, len(cells)),
		throughputAh: make([]float64, len(cells)),
		net:          net,
	}
	a.Reset(initialSOC)
	return a, nil
}

// Reset restores a uniform clipped SOC, zero RC voltages, zero throughput
// and ambient node temperatures. Aged cell parameters are deliberately kept:
// capacity fade and resistance growth are irreversible.
func (a *AdvancedPack) Reset(initialSOC float64) {
	s := clip(initialSOC, 0, 1)
	for i := range a.socs {
		a.socs[i] = s
		a.vRC[i] = 0
		a.throughputAh[i] = 0
	}
	a.net.Reset(a.thermalP.AmbientK)
}

// Step advances every cell by dtS seconds under pack current iPackA, then
// applies passive balancing, the thermal network update and per-cell aging,
// in that order. The returned row aggregates across the series stack.
func (a *AdvancedPack) Step(iPackA, dtS float64) Record {
	iCell := iPackA / float64(a.cfg.ParallelCells)
	n := len(a.cells)
	vCells := make([]float64, n)
	heatW := make([]float64, n)

	for i := range a.cells {
		nodeT := a.net.TempAt(i)
		r0, r1 := a.cells[i].AdjustedResistances(nodeT)
		vTerm, vRCNext, socNext := a.cells[i].Step(a.socs[i], a.vRC[i], iCell, dtS, nodeT)
		vCells[i] = vTerm
		a.vRC[i] = vRCNext
		a.socs[i] = socNext
		heatW[i] = iCell * iCell * (r0 + r1) * float64(a.cfg.ParallelCells)
	}

	caps := make([]float64, n)
	for i := range a.cells {
		caps[i] = a.cells[i].Params.CapacityAh
	}
	a.socs = variation.ApplyPassiveBalancing(a.socs, caps, iPackA, dtS, a.opts.Balancing)

	a.net.Step(heatW, dtS)

	dAh := math.Abs(iCell) * dtS / 3600.0
	for i := range a.cells {
		p := &a.cells[i].Params
		cur := aging.State{CapacityAh: p.CapacityAh, R0Ohm: p.R0Ohm, R1Ohm: p.R1Ohm}
		next := aging.Apply(cur, a.fresh[i], dAh, a.net.TempAt(i), a.opts.Aging)
		p.CapacityAh = next.CapacityAh
		p.R0Ohm = next.R0Ohm
		p.R1Ohm = next.R1Ohm
		a.throughputAh[i] += dAh
	}

	vPack := floats.Sum(vCells)
	return Record{
		PackCurrentA: iPackA,
		CellCurrentA: iCell,
		PackVoltageV: vPack,
		CellVoltageV: vPack / float64(n),
		SOC:          stat.Mean(a.socs, nil),
		TempK:        stat.Mean(a.net.Temps(), nil),
		TempMaxK:     a.net.MaxTemp(),
		PowerW:       vPack * iPackA,
		HeatW:        floats.Sum(heatW),
	}
}

// SOCs returns a copy of the per-cell states of charge.
func (a *AdvancedPack) SOCs() []float64 {
	return append([]float64(nil), a.socs...)
}

// Temps returns a copy of the per-node temperatures.
func (a *AdvancedPack) Temps() []float64 { return a.net.Temps() }

// ThroughputAh returns a copy of the per-cell accumulated throughput.
func (a *AdvancedPack) ThroughputAh() []float64 {
	return append([]float64(nil), a.throughputAh...)
}

// CellParams returns the current (aged) parameters of cell i.
func (a *AdvancedPack) CellParams(i int) cell.Params { return a.cells[i].Params }

// NumCells returns the series cell count.
func (a *AdvancedPack) NumCells() int { return len(a.cells) }
