package sim

import (
	"math"
	"testing"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/thermal"
)

func newTestSimulator(t *testing.T, initialSOC float64) *Simulator {
	t.Helper()
	p, err := pack.New(cell.DefaultParams(), pack.DefaultConfig(), thermal.DefaultParams(), initialSOC)
	if err != nil {
		t.Fatalf("new pack: %v", err)
	}
	return New(p)
}

func constantCycle(t *testing.T, durationS, currentA float64) cycles.Cycle {
	t.Helper()
	n := int(durationS) + 1
	times := make([]float64, n)
	currents := make([]float64, n)
	for i := range times {
		times[i] = float64(i)
		currents[i] = currentA
	}
	c, err := cycles.FromSeries(times, currents)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	return c
}

func TestRunTagsTime(t *testing.T) {
	s := newTestSimulator(t, 0.8)
	c := constantCycle(t, 10, 30)

	records := s.Run(c)
	if len(records) != c.Len() {
		t.Fatalf("%d records for %d samples", len(records), c.Len())
	}
	for i, rec := range records {
		if rec.TimeS != c.TimeS[i] {
			t.Fatalf("record %d tagged %g, want %g", i, rec.TimeS, c.TimeS[i])
		}
	}
	if records[len(records)-1].SOC >= 0.8 {
		t.Fatal("sustained discharge should deplete soc")
	}
}

func TestRunFirstSampleUsesEpsilonDt(t *testing.T) {
	s := newTestSimulator(t, 0.8)
	c, err := cycles.FromSeries([]float64{5, 6}, []float64{120, 120})
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}

	records := s.Run(c)
	if math.Abs(records[0].SOC-0.8) > 1e-9 {
		t.Fatalf("first sample should step by epsilon only, soc moved to %g", records[0].SOC)
	}
	if records[1].SOC >= records[0].SOC {
		t.Fatal("second sample should discharge for a full second")
	}
}

func TestRunEmptyCycle(t *testing.T) {
	s := newTestSimulator(t, 0.8)
	if records := s.Run(cycles.Cycle{}); records != nil {
		t.Fatalf("empty cycle should produce no records, got %d", len(records))
	}
}

func TestRunDrivesAdvancedPack(t *testing.T) {
	a, err := pack.NewAdvanced(cell.DefaultParams(), pack.DefaultConfig(), thermal.DefaultParams(), pack.DefaultOptions(), 0.8)
	if err != nil {
		t.Fatalf("new advanced pack: %v", err)
	}
	records := New(a).Run(constantCycle(t, 60, 54))
	if len(records) != 61 {
		t.Fatalf("expected 61 records, got %d", len(records))
	}
	if records[60].SOC >= 0.8 {
		t.Fatal("advanced pack should discharge too")
	}
}

func TestRoundTripEfficiency(t *testing.T) {
	// 4 A per cell for 1800 s keeps the soc inside [0,1], so the recharge
	// mirrors the discharge exactly.
	s := newTestSimulator(t, 0.8)
	c := constantCycle(t, 1800, 12)

	res, err := s.RoundTripEfficiency(c, 0.8)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if res.RTEPercent <= 50 || res.RTEPercent >= 100 {
		t.Fatalf("rte %g%% outside (50,100)", res.RTEPercent)
	}
	if res.EnergyOutWh <= 0 || res.EnergyInWh <= res.EnergyOutWh {
		t.Fatalf("energy bookkeeping wrong: out %g in %g", res.EnergyOutWh, res.EnergyInWh)
	}

	var discharge, charge int
	for _, rec := range res.Records {
		switch rec.Phase {
		case PhaseDischarge:
			discharge++
		case PhaseCharge:
			charge++
		default:
			t.Fatalf("untagged record at t=%g", rec.TimeS)
		}
	}
	if discharge != c.Len() {
		t.Fatalf("expected %d discharge records, got %d", c.Len(), discharge)
	}
	if charge == 0 || charge > c.Len() {
		t.Fatalf("charge record count out of range: %d", charge)
	}
	last := res.Records[len(res.Records)-1]
	if last.SOC < 0.8-1e-6 {
		t.Fatalf("recharge stopped at soc %g before recovering the initial value", last.SOC)
	}
}

func TestRoundTripTruncatesEarlyRecovery(t *testing.T) {
	// 10 A per cell overdrains to the soc floor, so the recharge hits the
	// initial soc with cycle samples to spare and gets cut there.
	s := newTestSimulator(t, 0.8)
	c := constantCycle(t, 1800, 30)

	res, err := s.RoundTripEfficiency(c, 0.8)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}

	var charge int
	for _, rec := range res.Records {
		if rec.Phase == PhaseCharge {
			charge++
		}
	}
	if charge == 0 || charge >= c.Len() {
		t.Fatalf("charge series should truncate early, got %d of %d records", charge, c.Len())
	}
	last := res.Records[len(res.Records)-1]
	if last.SOC < 0.8 {
		t.Fatalf("truncation should keep the crossing sample, soc %g", last.SOC)
	}
	if res.RTEPercent <= 0 {
		t.Fatalf("rte should be positive, got %g", res.RTEPercent)
	}
}

func TestRoundTripZeroEnergyIn(t *testing.T) {
	s := newTestSimulator(t, 0.8)
	c := constantCycle(t, 100, 0)

	res, err := s.RoundTripEfficiency(c, 0.8)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if res.RTEPercent != 0 {
		t.Fatalf("idle profile should report 0%% rte, got %g", res.RTEPercent)
	}
	if res.EnergyInWh != 0 {
		t.Fatalf("idle profile should charge nothing, got %g Wh", res.EnergyInWh)
	}
}

func TestRoundTripRejectsInvalidCycle(t *testing.T) {
	s := newTestSimulator(t, 0.8)
	bad := cycles.Cycle{TimeS: []float64{0, 0}, CurrentA: []float64{1, 1}}
	if _, err := s.RoundTripEfficiency(bad, 0.8); err == nil {
		t.Fatal("expected error for invalid cycle")
	}
}

func TestSymmetricProfileNetEnergyNearZero(t *testing.T) {
	s := newTestSimulator(t, 0.5)

	n := 1000
	times := make([]float64, n)
	currents := make([]float64, n)
	for i := range times {
		times[i] = float64(i)
		if (i/10)%2 == 0 {
			currents[i] = 6
		} else {
			currents[i] = -6
		}
	}
	c, err := cycles.FromSeries(times, currents)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}

	records := s.Run(c)
	net := integrateWh(records, func(p float64) float64 { return p })
	gross := integrateWh(records, func(p float64) float64 { return math.Abs(p) })
	if gross <= 0 {
		t.Fatal("gross energy should be positive")
	}
	if math.Abs(net) > 0.05*gross {
		t.Fatalf("net energy %g Wh should be small against gross %g Wh", net, gross)
	}
}
