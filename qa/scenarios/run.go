package scenarios

import (
	"testing"

	"github.com/packsim/packsim/app/plugins"
	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/report"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/core/thermal"
)

// RunScenario executes the scenario against a fresh pack and checks every
// declared bound.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	cellP := sc.Cell.Apply(cell.DefaultParams())
	cfg := sc.Pack.Apply(pack.DefaultConfig())
	th := sc.Thermal.Apply(thermal.DefaultParams())

	cycle, err := plugins.NewCycle(sc.Cycle.Name, sc.Cycle.Conf)
	if err != nil {
		t.Fatalf("cycle %s: %v", sc.Cycle.Name, err)
	}
	p, err := pack.New(cellP, cfg, th, sc.InitialSOC)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	runner := sim.New(p)
	records := runner.Run(cycle)
	if len(records) == 0 {
		t.Fatalf("scenario %s produced no records", sc.Name)
	}

	metrics, err := report.Compute(records, th.MassKg, cellP.CapacityAh*float64(cfg.ParallelCells))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	final := records[len(records)-1]

	exp := sc.Expected
	if exp.MaxPeakTempK > 0 && metrics.PeakTempK > exp.MaxPeakTempK {
		t.Errorf("scenario %s: peak temp %.2f K above %.2f K", sc.Name, metrics.PeakTempK, exp.MaxPeakTempK)
	}
	if exp.MinFinalSOC > 0 && final.SOC < exp.MinFinalSOC {
		t.Errorf("scenario %s: final soc %.3f below %.3f", sc.Name, final.SOC, exp.MinFinalSOC)
	}
	if exp.MaxFinalSOC > 0 && final.SOC > exp.MaxFinalSOC {
		t.Errorf("scenario %s: final soc %.3f above %.3f", sc.Name, final.SOC, exp.MaxFinalSOC)
	}
	if exp.MinVoltageV > 0 && metrics.MinVoltageV < exp.MinVoltageV {
		t.Errorf("scenario %s: min voltage %.2f V below %.2f V", sc.Name, metrics.MinVoltageV, exp.MinVoltageV)
	}
	if exp.MinRTEPercent > 0 {
		res, err := runner.RoundTripEfficiency(cycle, sc.InitialSOC)
		if err != nil {
			t.Fatalf("rte: %v", err)
		}
		if res.RTEPercent < exp.MinRTEPercent {
			t.Errorf("scenario %s: rte %.1f%% below %.1f%%", sc.Name, res.RTEPercent, exp.MinRTEPercent)
		}
	}
}
