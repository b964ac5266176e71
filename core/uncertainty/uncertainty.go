// Package uncertainty quantifies the spread of pack performance under
// manufacturing and cooling tolerances by Monte Carlo sampling.
package uncertainty

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/report"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/core/thermal"
)

// Params tune the Monte Carlo study: the sampled coefficients of
// variation, the sample count, and the failure thresholds applied to
// each run.
type Params struct {
	CapacityCV  float64 `json:"capacity_cv"`
	R0CV        float64 `json:"r0_cv"`
	R1CV        float64 `json:"r1_cv"`
	ThermalUACV float64 `json:"thermal_ua_cv"`
	MassCV      float64 `json:"mass_cv"`

	Samples int    `json:"n_samples"`
	Seed    uint64 `json:"seed"`

	MaxTempK float64 `json:"t_max_k"`
	MinCellV float64 `json:"v_min_cell_v"`
	MaxCellV float64 `json:"v_max_cell_v"`
	MinSOC   float64 `json:"soc_min"`

	// Workers bounds the fan-out; zero means one per CPU.
	Workers int `json:"workers"`
}

// DefaultParams runs one thousand draws with production-line
// dispersion and a 10% cooling tolerance.
func DefaultParams() Params {
	return Params{
		CapacityCV:  0.02,
		R0CV:        0.05,
		R1CV:        0.05,
		ThermalUACV: 0.10,
		MassCV:      0.05,
		Samples:     1000,
		Seed:        1,
		MaxTempK:    328.15,
		MinCellV:    2.8,
		MaxCellV:    4.25,
		MinSOC:      0.05,
	}
}

func (p Params) Validate() error {
	if p.Samples < 1 {
		return fmt.Errorf("uncertainty: need at least one sample, got %d", p.Samples)
	}
	for _, cv := range []float64{p.CapacityCV, p.R0CV, p.R1CV, p.ThermalUACV, p.MassCV} {
		if cv < 0 {
			return fmt.Errorf("uncertainty: coefficients of variation must not be negative")
		}
	}
	return nil
}

// Sample is the outcome of one Monte Carlo draw.
type Sample struct {
	Index          int     `json:"sample_idx"`
	PeakTempK      float64 `json:"peak_temp_k"`
	MinVoltageV    float64 `json:"min_voltage_v"`
	MinCellV       float64 `json:"min_voltage_cell_v"`
	MinSOC         float64 `json:"min_soc"`
	MaxCurrentA    float64 `json:"max_current_a"`
	RTEPercent     float64 `json:"rte_percent"`
	EnergyOutWh    float64 `json:"energy_out_wh"`
	TempFailure    bool    `json:"temp_failure"`
	VoltageFailure bool    `json:"voltage_failure"`
	SOCFailure     bool    `json:"soc_failure"`
	Failed         bool    `json:"any_failure"`
	CapacityAh     float64 `json:"capacity_ah"`
	R0Ohm          float64 `json:"r0_ohm"`
	SinkUAWPerK    float64 `json:"ua_w_per_k"`
}

// Result aggregates a completed study.
type Result struct {
	Samples     []Sample           `json:"samples"`
	Summary     map[string]float64 `json:"summary"`
	FailureRate float64            `json:"failure_rate"`
	Reliability map[string]float64 `json:"reliability_metrics"`
}

// Study draws randomized cell and cooling parameters around a base
// design and measures the spread of outcomes over one cycle.
type Study struct {
	Cell       cell.Params
	Config     pack.Config
	Thermal    thermal.Params
	InitialSOC float64
	Params     Params
}

// Scale floors keep a drawn parameter physical when a tail sample
// lands far below the mean.
const (
	minScale   = 0.5
	minUAScale = 0.1
)

type draw struct {
	cell    cell.Params
	thermal thermal.Params
}

// drawAll samples every parameter set up front from one seeded source,
// so results do not depend on how the runs are scheduled.
func (s Study) drawAll() []draw {
	src := rand.NewPCG(s.Params.Seed, s.Params.Seed)
	capDist := distuv.Normal{Mu: 1.0, Sigma: s.Params.CapacityCV, Src: src}
	r0Dist := distuv.Normal{Mu: 1.0, Sigma: s.Params.R0CV, Src: src}
	r1Dist := distuv.Normal{Mu: 1.0, Sigma: s.Params.R1CV, Src: src}
	uaDist := distuv.Normal{Mu: 1.0, Sigma: s.Params.ThermalUACV, Src: src}
	massDist := distuv.Normal{Mu: 1.0, Sigma: s.Params.MassCV, Src: src}

	draws := make([]draw, s.Params.Samples)
	for i := range draws {
		c := s.Cell
		c.CapacityAh *= math.Max(minScale, capDist.Rand())
		c.R0Ohm *= math.Max(minScale, r0Dist.Rand())
		c.R1Ohm *= math.Max(minScale, r1Dist.Rand())

		th := s.Thermal
		th.UAWPerK *= math.Max(minUAScale, uaDist.Rand())
		th.MassKg *= math.Max(minScale, massDist.Rand())

		draws[i] = draw{cell: c, thermal: th}
	}
	return draws
}

// Run executes the study over the given cycle.
func (s Study) Run(ctx context.Context, cycle cycles.Cycle) (Result, error) {
	if err := s.Params.Validate(); err != nil {
		return Result{}, err
	}
	if err := cycle.Validate(); err != nil {
		return Result{}, fmt.Errorf("uncertainty: %w", err)
	}

	draws := s.drawAll()
	samples := make([]Sample, len(draws))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := s.Params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(draws) {
		workers = len(draws)
	}

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
				sample, err := s.runOne(idx, draws[idx], cycle)
				if err != nil {
					fail(fmt.Errorf("uncertainty: sample %d: %w", idx, err))
					continue
				}
				samples[idx] = sample
			}
		}()
	}

feed:
	for i := range draws {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return Result{}, firstErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	return s.aggregate(samples)
}

func (s Study) runOne(idx int, d draw, cycle cycles.Cycle) (Sample, error) {
	assembly, err := pack.New(d.cell, s.Config, d.thermal, s.InitialSOC)
	if err != nil {
		return Sample{}, err
	}
	runner := sim.New(assembly)

	records := runner.Run(cycle)
	if len(records) == 0 {
		return Sample{}, fmt.Errorf("cycle produced no records")
	}

	sample := Sample{
		Index:       idx,
		PeakTempK:   records[0].TempK,
		MinVoltageV: records[0].PackVoltageV,
		MinSOC:      records[0].SOC,
		MaxCurrentA: math.Abs(records[0].PackCurrentA),
		CapacityAh:  d.cell.CapacityAh,
		R0Ohm:       d.cell.R0Ohm,
		SinkUAWPerK: d.thermal.UAWPerK,
	}
	for _, r := range records[1:] {
		sample.PeakTempK = math.Max(sample.PeakTempK, r.TempK)
		sample.MinVoltageV = math.Min(sample.MinVoltageV, r.PackVoltageV)
		sample.MinSOC = math.Min(sample.MinSOC, r.SOC)
		sample.MaxCurrentA = math.Max(sample.MaxCurrentA, math.Abs(r.PackCurrentA))
	}
	sample.MinCellV = sample.MinVoltageV / float64(s.Config.SeriesCells)

	rte, err := runner.RoundTripEfficiency(cycle, s.InitialSOC)
	if err != nil {
		return Sample{}, err
	}
	sample.RTEPercent = rte.RTEPercent
	sample.EnergyOutWh = rte.EnergyOutWh

	sample.TempFailure = sample.PeakTempK > s.Params.MaxTempK
	sample.VoltageFailure = sample.MinCellV < s.Params.MinCellV || sample.MinCellV > s.Params.MaxCellV
	sample.SOCFailure = sample.MinSOC < s.Params.MinSOC
	sample.Failed = sample.TempFailure || sample.VoltageFailure || sample.SOCFailure
	return sample, nil
}

func (s Study) aggregate(samples []Sample) (Result, error) {
	temps := make([]float64, len(samples))
	rtes := make([]float64, len(samples))
	volts := make([]float64, len(samples))
	var failed, tempFailed, voltFailed, socFailed float64
	for i, sample := range samples {
		temps[i] = sample.PeakTempK
		rtes[i] = sample.RTEPercent
		volts[i] = sample.MinVoltageV
		if sample.Failed {
			failed++
		}
		if sample.TempFailure {
			tempFailed++
		}
		if sample.VoltageFailure {
			voltFailed++
		}
		if sample.SOCFailure {
			socFailed++
		}
	}

	tempSum, err := report.Summarize(temps)
	if err != nil {
		return Result{}, err
	}
	rteSum, err := report.Summarize(rtes)
	if err != nil {
		return Result{}, err
	}
	voltSum, err := report.Summarize(volts)
	if err != nil {
		return Result{}, err
	}

	n := float64(len(samples))
	failureRate := failed / n
	mttf := math.Inf(1)
	if failureRate > 0 {
		mttf = 1.0 / failureRate
	}

	return Result{
		Samples: samples,
		Summary: map[string]float64{
			"mean_peak_temp_k":   tempSum.Mean,
			"std_peak_temp_k":    tempSum.Std,
			"p95_peak_temp_k":    tempSum.P95,
			"p99_peak_temp_k":    tempSum.P99,
			"mean_rte_percent":   rteSum.Mean,
			"std_rte_percent":    rteSum.Std,
			"min_rte_percent":    rteSum.Min,
			"mean_min_voltage_v": voltSum.Mean,
			"std_min_voltage_v":  voltSum.Std,
		},
		FailureRate: failureRate,
		Reliability: map[string]float64{
			"failure_rate":         failureRate,
			"reliability":          1.0 - failureRate,
			"temp_failure_rate":    tempFailed / n,
			"voltage_failure_rate": voltFailed / n,
			"soc_failure_rate":     socFailed / n,
			"mean_time_to_failure": mttf,
		},
	}, nil
}
