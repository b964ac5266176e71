// Package sweep evaluates a grid of pack designs against a synthetic
// duty cycle.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/core/thermal"
)

// Axes span the Cartesian grid of designs to evaluate.
type Axes struct {
	SeriesCells   []int     `json:"series_cells"`
	ParallelCells []int     `json:"parallel_cells"`
	SinkUAWPerK   []float64 `json:"sink_ua_w_per_k"`
	PeakCurrentA  []float64 `json:"peak_current_a"`
}

func (a Axes) Validate() error {
	if len(a.SeriesCells) == 0 || len(a.ParallelCells) == 0 || len(a.SinkUAWPerK) == 0 || len(a.PeakCurrentA) == 0 {
		return errors.New("sweep: every axis needs at least one value")
	}
	for _, ns := range a.SeriesCells {
		if ns < 1 {
			return fmt.Errorf("sweep: series cells must be at least 1, got %d", ns)
		}
	}
	for _, np := range a.ParallelCells {
		if np < 1 {
			return fmt.Errorf("sweep: parallel cells must be at least 1, got %d", np)
		}
	}
	for _, peak := range a.PeakCurrentA {
		if peak <= 0 {
			return fmt.Errorf("sweep: peak current must be positive, got %g A", peak)
		}
	}
	return nil
}

// Size returns the number of grid combinations.
func (a Axes) Size() int {
	return len(a.SeriesCells) * len(a.ParallelCells) * len(a.SinkUAWPerK) * len(a.PeakCurrentA)
}

// Params carry the shared inputs for every sweep point.
type Params struct {
	Cell       cell.Params
	Thermal    thermal.Params
	InitialSOC float64
	// CycleTotalS and CycleDtS shape the synthetic cycle generated for
	// each point; CycleSeed keeps the grid comparable.
	CycleTotalS float64
	CycleDtS    float64
	CycleSeed   uint64
	// Workers bounds the fan-out; zero means one per CPU.
	Workers int
}

// DefaultParams sweeps a ten-minute synthetic cycle from half charge.
func DefaultParams() Params {
	return Params{
		Cell:        cell.DefaultParams(),
		Thermal:     thermal.DefaultParams(),
		InitialSOC:  0.5,
		CycleTotalS: 600,
		CycleDtS:    1,
		CycleSeed:   cycles.DefaultSyntheticSeed,
	}
}

func (p Params) Validate() error {
	if p.CycleTotalS <= 0 || p.CycleDtS <= 0 {
		return fmt.Errorf("sweep: cycle shape %gs/%gs is invalid", p.CycleTotalS, p.CycleDtS)
	}
	return nil
}

// Point is the outcome of one grid combination.
type Point struct {
	SeriesCells   int     `json:"ns"`
	ParallelCells int     `json:"np"`
	SinkUAWPerK   float64 `json:"ua_w_per_k"`
	PeakCurrentA  float64 `json:"peak_current_a"`
	PeakTempK     float64 `json:"peak_temp_k"`
	RTEPercent    float64 `json:"rte_percent"`
	EnergyOutWh   float64 `json:"energy_out_wh"`
	EnergyInWh    float64 `json:"energy_in_wh"`
	TempViolation bool    `json:"viol_temp"`
	SOCViolation  bool    `json:"viol_soc"`
}

// CurrentCeiling bounds a requested peak current by a 300 A per
// parallel string rule of thumb.
func CurrentCeiling(parallel int, peakA float64) float64 {
	return math.Min(peakA, 300.0*float64(parallel))
}

type combo struct {
	ns, np   int
	ua, peak float64
}

// Run evaluates every grid combination over a bounded worker pool and
// returns the points in grid order, the last axis varying fastest.
func Run(ctx context.Context, axes Axes, params Params) ([]Point, error) {
	if err := axes.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	combos := make([]combo, 0, axes.Size())
	for _, ns := range axes.SeriesCells {
		for _, np := range axes.ParallelCells {
			for _, ua := range axes.SinkUAWPerK {
				for _, peak := range axes.PeakCurrentA {
					combos = append(combos, combo{ns: ns, np: np, ua: ua, peak: peak})
				}
			}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	points := make([]Point, len(combos))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				c := combos[idx]
				point, err := evaluate(params, c)
				if err != nil {
					fail(fmt.Errorf("sweep: %ds%dp ua=%g peak=%g: %w", c.ns, c.np, c.ua, c.peak, err))
					continue
				}
				points[idx] = point
			}
		}()
	}

feed:
	for i := range combos {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func evaluate(params Params, c combo) (Point, error) {
	cfg := pack.DefaultConfig()
	cfg.SeriesCells = c.ns
	cfg.ParallelCells = c.np
	cfg.MaxCurrentA = CurrentCeiling(c.np, c.peak)

	th := params.Thermal
	th.UAWPerK = c.ua

	assembly, err := pack.New(params.Cell, cfg, th, params.InitialSOC)
	if err != nil {
		return Point{}, err
	}

	cycle := cycles.Synthetic(params.CycleTotalS, params.CycleDtS, c.peak, params.CycleSeed)
	s := sim.New(assembly)

	records := s.Run(cycle)
	if len(records) == 0 {
		return Point{}, errors.New("cycle produced no records")
	}
	temps := make([]float64, len(records))
	socs := make([]float64, len(records))
	for i, r := range records {
		temps[i] = r.TempK
		socs[i] = r.SOC
	}
	peakTemp := floats.Max(temps)
	socMin := floats.Min(socs)
	socMax := floats.Max(socs)

	rte, err := s.RoundTripEfficiency(cycle, params.InitialSOC)
	if err != nil {
		return Point{}, err
	}

	return Point{
		SeriesCells:   c.ns,
		ParallelCells: c.np,
		SinkUAWPerK:   c.ua,
		PeakCurrentA:  c.peak,
		PeakTempK:     peakTemp,
		RTEPercent:    rte.RTEPercent,
		EnergyOutWh:   rte.EnergyOutWh,
		EnergyInWh:    rte.EnergyInWh,
		TempViolation: peakTemp > th.MaxTempK+1e-6,
		SOCViolation:  socMin < cfg.MinSOC || socMax > cfg.MaxSOC,
	}, nil
}
