package test

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/limits"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/safety"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/core/sweep"
	"github.com/packsim/packsim/core/thermal"
	"github.com/packsim/packsim/core/uncertainty"
	"github.com/packsim/packsim/core/variation"
)

// TestCriticalScenariosIntegration exercises the cross-package flows that
// must hold before a release.
func TestCriticalScenariosIntegration(t *testing.T) {
	scenarios := []struct {
		name     string
		scenario func(t *testing.T)
	}{
		{"DeepDischarge_Clamping", testDeepDischargeClamping},
		{"RoundTrip_Efficiency", testRoundTripEfficiency},
		{"PowerLimits_Envelope", testPowerLimitsEnvelope},
		{"ThermalRunaway_Trigger", testThermalRunawayTrigger},
		{"Balancing_Convergence", testBalancingConvergence},
		{"Aging_Clamps", testAgingClamps},
		{"NetworkVsLumped_SingleCell", testNetworkVsLumpedSingleCell},
		{"Sweep_Cancellation", testSweepCancellation},
		{"MonteCarlo_Reproducibility", testMonteCarloReproducibility},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, scenario.scenario)
	}
}

func socSpread(socs []float64) float64 {
	mean := stat.Mean(socs, nil)
	max := 0.0
	for _, s := range socs {
		max = math.Max(max, math.Abs(s-mean))
	}
	return max
}

// testDeepDischargeClamping drains a pack at 1C well past empty and checks
// that the state of charge decreases monotonically and clamps at zero.
func testDeepDischargeClamping(t *testing.T) {
	cellP := cell.DefaultParams()
	cfg := pack.DefaultConfig()
	oneC := cellP.CapacityAh * float64(cfg.ParallelCells)
	cycle, err := cycles.Constant(oneC, 5400, 1)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	p, err := pack.New(cellP, cfg, thermal.DefaultParams(), 1.0)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	records := sim.New(p).Run(cycle)
	prev := records[0].SOC
	for i, r := range records[1:] {
		if r.SOC > prev+1e-9 {
			t.Fatalf("soc increased at sample %d: %g -> %g", i+1, prev, r.SOC)
		}
		if r.SOC < 0 {
			t.Fatalf("soc below zero at sample %d: %g", i+1, r.SOC)
		}
		prev = r.SOC
	}
	if final := records[len(records)-1].SOC; final > 1e-6 {
		t.Errorf("expected a fully drained pack after 90 min at 1C, got soc %g", final)
	}
}

// testRoundTripEfficiency runs a discharge/recharge window and checks the
// efficiency is physical and the energies consistent.
func testRoundTripEfficiency(t *testing.T) {
	cycle, err := cycles.Constant(9.0, 1800, 1)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	p, err := pack.New(cell.DefaultParams(), pack.DefaultConfig(), thermal.DefaultParams(), 0.8)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	res, err := sim.New(p).RoundTripEfficiency(cycle, 0.8)
	if err != nil {
		t.Fatalf("rte: %v", err)
	}
	if res.RTEPercent <= 70 || res.RTEPercent > 100 {
		t.Errorf("rte %.2f%% outside (70, 100]", res.RTEPercent)
	}
	if res.EnergyInWh < res.EnergyOutWh {
		t.Errorf("recharged %.2f Wh below discharged %.2f Wh", res.EnergyInWh, res.EnergyOutWh)
	}
	if final := res.Records[len(res.Records)-1].SOC; final < 0.8-1e-3 {
		t.Errorf("charge leg stopped below the initial soc: %g", final)
	}
}

// testPowerLimitsEnvelope checks the solver collapses the correct side of
// the envelope at the SOC boundaries.
func testPowerLimitsEnvelope(t *testing.T) {
	p, err := pack.New(cell.DefaultParams(), pack.DefaultConfig(), thermal.DefaultParams(), 0.5)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	mid := limits.Compute(p, 0.5)
	if mid.MaxDischargeW <= 0 || mid.MaxChargeW <= 0 {
		t.Errorf("expected both limits positive at soc 0.5, got %+v", mid)
	}
	low := limits.Compute(p, 0.05)
	if low.MaxDischargeW != 0 {
		t.Errorf("expected zero discharge limit below the soc floor, got %g W", low.MaxDischargeW)
	}
	high := limits.Compute(p, 0.95)
	if high.MaxChargeW != 0 {
		t.Errorf("expected zero charge limit above the soc ceiling, got %g W", high.MaxChargeW)
	}
}

// testThermalRunawayTrigger heats one cell past the onset temperature and
// verifies detection and neighbour propagation.
func testThermalRunawayTrigger(t *testing.T) {
	params := safety.DefaultRunawayParams()
	temps := make([]float64, 40)
	volts := make([]float64, 40)
	for i := range temps {
		temps[i] = 300.0
		volts[i] = 3.7
	}
	temps[20] = params.TriggerTempK + 10.0

	triggered, cells := params.CheckTriggers(temps, volts, 50.0)
	if !triggered {
		t.Fatal("expected a runaway trigger for the hot cell")
	}
	if len(cells) != 1 || cells[0] != 20 {
		t.Fatalf("expected cell 20 triggered, got %v", cells)
	}

	prop := params.SimulatePropagation(cells, 40)
	if prop.AffectedCells[len(prop.AffectedCells)-1] != 40 {
		t.Errorf("expected full string consumption, got %d cells", prop.AffectedCells[len(prop.AffectedCells)-1])
	}
	if prop.EnergyReleaseWh != 40*params.EnergyReleaseWh {
		t.Errorf("energy release %.1f Wh does not match 40 cells", prop.EnergyReleaseWh)
	}
}

// testBalancingConvergence idles a dispersed pack and verifies passive
// balancing shrinks the SOC spread.
func testBalancingConvergence(t *testing.T) {
	opts := pack.DefaultOptions()
	opts.Variation = variation.Params{CapacityStd: 0.10, R0Std: 0.05, R1Std: 0.05, Seed: 7}
	opts.Balancing.Enable = true
	opts.Balancing.BleedCurrentA = 2.0

	a, err := pack.NewAdvanced(cell.DefaultParams(), pack.DefaultConfig(), thermal.DefaultParams(), opts, 0.6)
	if err != nil {
		t.Fatalf("advanced pack: %v", err)
	}
	// A discharge leg spreads the per-cell SOCs apart first.
	for i := 0; i < 300; i++ {
		a.Step(60.0, 1.0)
	}
	spreadBefore := socSpread(a.SOCs())
	for i := 0; i < 1800; i++ {
		a.Step(0.0, 1.0)
	}
	spreadAfter := socSpread(a.SOCs())
	if spreadAfter >= spreadBefore {
		t.Errorf("balancing did not shrink the soc spread: %.5f -> %.5f", spreadBefore, spreadAfter)
	}
}

// testAgingClamps runs aggressive aging and verifies capacity and
// resistance stay inside the configured clamps.
func testAgingClamps(t *testing.T) {
	opts := pack.DefaultOptions()
	opts.Variation = variation.Params{Seed: 1}
	opts.Aging.CapFadePerAh = 0.5
	opts.Aging.ResGrowthPerAh = 0.5

	base := cell.DefaultParams()
	a, err := pack.NewAdvanced(base, pack.DefaultConfig(), thermal.DefaultParams(), opts, 0.8)
	if err != nil {
		t.Fatalf("advanced pack: %v", err)
	}
	for i := 0; i < 3600; i++ {
		a.Step(30.0, 1.0)
	}
	for i := 0; i < a.NumCells(); i++ {
		p := a.CellParams(i)
		if p.CapacityAh < base.CapacityAh*opts.Aging.MinCapFrac-1e-9 {
			t.Fatalf("cell %d capacity %.4f Ah fell below the clamp", i, p.CapacityAh)
		}
		if p.R0Ohm > base.R0Ohm*opts.Aging.MaxResScale+1e-9 {
			t.Fatalf("cell %d resistance %.6f ohm exceeded the clamp", i, p.R0Ohm)
		}
	}
	if p0 := a.CellParams(0); p0.CapacityAh >= base.CapacityAh {
		t.Error("expected measurable capacity fade at this throughput")
	}
}

// testNetworkVsLumpedSingleCell checks the thermal network degenerates to
// the lumped model for a 1s1p pack without dispersion.
func testNetworkVsLumpedSingleCell(t *testing.T) {
	cellP := cell.DefaultParams()
	cfg := pack.Config{SeriesCells: 1, ParallelCells: 1, MaxCurrentA: 50, MinSOC: 0.05, MaxSOC: 0.95}
	th := thermal.DefaultParams()

	opts := pack.DefaultOptions()
	opts.Variation = variation.Params{Seed: 1}
	opts.Balancing.Enable = false
	opts.Aging.CapFadePerAh = 0
	opts.Aging.ResGrowthPerAh = 0

	lumped, err := pack.New(cellP, cfg, th, 0.7)
	if err != nil {
		t.Fatalf("lumped: %v", err)
	}
	networked, err := pack.NewAdvanced(cellP, cfg, th, opts, 0.7)
	if err != nil {
		t.Fatalf("advanced: %v", err)
	}

	var lastL, lastN pack.Record
	for i := 0; i < 600; i++ {
		lastL = lumped.Step(3.0, 1.0)
		lastN = networked.Step(3.0, 1.0)
	}
	if d := math.Abs(lastL.TempK - lastN.TempK); d > 0.5 {
		t.Errorf("single-cell temperatures diverged by %.3f K", d)
	}
	if d := math.Abs(lastL.SOC - lastN.SOC); d > 1e-6 {
		t.Errorf("single-cell socs diverged by %g", d)
	}
}

// testSweepCancellation verifies a cancelled context aborts the grid run.
func testSweepCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	axes := sweep.Axes{
		SeriesCells:   []int{10, 20},
		ParallelCells: []int{1, 2},
		SinkUAWPerK:   []float64{6},
		PeakCurrentA:  []float64{30},
	}
	if _, err := sweep.Run(ctx, axes, sweep.DefaultParams()); err == nil {
		t.Fatal("expected an error from the cancelled sweep")
	}
}

// testMonteCarloReproducibility runs the same seeded study twice and
// expects identical aggregates.
func testMonteCarloReproducibility(t *testing.T) {
	cycle, err := cycles.Constant(9.0, 300, 1)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	params := uncertainty.DefaultParams()
	params.Samples = 20
	params.Workers = 4

	study := uncertainty.Study{
		Cell:       cell.DefaultParams(),
		Config:     pack.DefaultConfig(),
		Thermal:    thermal.DefaultParams(),
		InitialSOC: 0.8,
		Params:     params,
	}
	first, err := study.Run(context.Background(), cycle)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := study.Run(context.Background(), cycle)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.FailureRate != second.FailureRate {
		t.Errorf("failure rates differ: %g vs %g", first.FailureRate, second.FailureRate)
	}
	for key, val := range first.Summary {
		if second.Summary[key] != val {
			t.Errorf("summary %s differs: %g vs %g", key, val, second.Summary[key])
		}
	}
}
