package safety

import (
	"math"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := DefaultRunawayParams().Validate(); err != nil {
		t.Fatalf("default runaway params rejected: %v", err)
	}
	if err := DefaultLimits().Validate(); err != nil {
		t.Fatalf("default limits rejected: %v", err)
	}
}

func TestValidateRejectsBadWindows(t *testing.T) {
	r := DefaultRunawayParams()
	r.CriticalTempK = r.TriggerTempK - 1
	if err := r.Validate(); err == nil {
		t.Fatal("critical below trigger should fail")
	}

	l := DefaultLimits()
	l.CellMinSafeV = 5
	if err := l.Validate(); err == nil {
		t.Fatal("inverted voltage window should fail")
	}

	l = DefaultLimits()
	l.MinSafeSOC = 0.96
	if err := l.Validate(); err == nil {
		t.Fatal("inverted soc window should fail")
	}
}

func TestCheckTriggersTemperature(t *testing.T) {
	p := DefaultRunawayParams()
	temps := []float64{300, 410, 300}
	volts := []float64{3.7, 3.7, 3.7}

	triggered, cells := p.CheckTriggers(temps, volts, 10)
	if !triggered {
		t.Fatal("hot cell not detected")
	}
	if len(cells) != 1 || cells[0] != 1 {
		t.Fatalf("expected cell 1, got %v", cells)
	}
}

func TestCheckTriggersVoltageAbuse(t *testing.T) {
	p := DefaultRunawayParams()
	temps := []float64{300, 300, 300}
	volts := []float64{4.6, 3.7, 1.9}

	triggered, cells := p.CheckTriggers(temps, volts, 10)
	if !triggered {
		t.Fatal("voltage abuse not detected")
	}
	if len(cells) != 2 || cells[0] != 0 || cells[1] != 2 {
		t.Fatalf("expected cells [0 2], got %v", cells)
	}
}

func TestCheckTriggersCurrentAbuseFlagsAllCells(t *testing.T) {
	p := DefaultRunawayParams()
	temps := []float64{300, 300, 300}
	volts := []float64{3.7, 3.7, 3.7}

	for _, current := range []float64{600, -600} {
		triggered, cells := p.CheckTriggers(temps, volts, current)
		if !triggered {
			t.Fatalf("current %v A not flagged", current)
		}
		if len(cells) != 3 {
			t.Fatalf("current abuse should flag every cell, got %v", cells)
		}
	}

	// No cells means nothing to flag, even under abuse.
	triggered, _ := p.CheckTriggers(nil, nil, 600)
	if triggered {
		t.Fatal("empty string cannot trigger")
	}
}

func TestCheckTriggersNominalConditions(t *testing.T) {
	p := DefaultRunawayParams()
	triggered, cells := p.CheckTriggers([]float64{298, 299}, []float64{3.7, 3.6}, 54)
	if triggered || len(cells) != 0 {
		t.Fatalf("nominal conditions flagged: %v", cells)
	}
}

func TestCheckTriggersDeduplicates(t *testing.T) {
	p := DefaultRunawayParams()
	triggered, cells := p.CheckTriggers([]float64{410}, []float64{4.6}, 10)
	if !triggered || len(cells) != 1 || cells[0] != 0 {
		t.Fatalf("hot and overcharged cell should report once, got %v", cells)
	}
}

func TestSimulatePropagationFromCenter(t *testing.T) {
	p := DefaultRunawayParams()
	result := p.SimulatePropagation([]int{5}, 11)

	// One position per side per step: 1, 3, 5, 7, 9, 11 affected.
	wantCounts := []int{1, 3, 5, 7, 9, 11}
	if len(result.AffectedCells) != len(wantCounts) {
		t.Fatalf("expected %d samples, got %d", len(wantCounts), len(result.AffectedCells))
	}
	for i, want := range wantCounts {
		if result.AffectedCells[i] != want {
			t.Fatalf("sample %d: affected = %d, want %d", i, result.AffectedCells[i], want)
		}
	}
	if math.Abs(result.FullSpreadS-0.5) > 1e-9 {
		t.Fatalf("FullSpreadS = %v, want 0.5", result.FullSpreadS)
	}
	if math.Abs(result.EnergyReleaseWh-11*50.0) > 1e-9 {
		t.Fatalf("EnergyReleaseWh = %v, want 550", result.EnergyReleaseWh)
	}
}

func TestSimulatePropagationFromEdge(t *testing.T) {
	p := DefaultRunawayParams()
	result := p.SimulatePropagation([]int{0}, 5)

	last := result.AffectedCells[len(result.AffectedCells)-1]
	if last != 5 {
		t.Fatalf("string not fully consumed: %d of 5", last)
	}
	if math.Abs(result.FullSpreadS-0.4) > 1e-9 {
		t.Fatalf("FullSpreadS = %v, want 0.4", result.FullSpreadS)
	}
}

func TestSimulatePropagationWithoutSeeds(t *testing.T) {
	p := DefaultRunawayParams()
	result := p.SimulatePropagation(nil, 5)
	if len(result.AffectedCells) != 1 || result.AffectedCells[0] != 0 {
		t.Fatalf("no seeds should not spread, got %v", result.AffectedCells)
	}
	if result.EnergyReleaseWh != 0 {
		t.Fatalf("no seeds released %v Wh", result.EnergyReleaseWh)
	}
}

func TestAnalyzeNominalOperatingPoint(t *testing.T) {
	a := NewAnalyzer(DefaultRunawayParams(), DefaultLimits())
	result := a.Analyze(148, 54, 298.15, 40)

	if result.FailureProbability != 0 {
		t.Fatalf("nominal point has failure probability %v", result.FailureProbability)
	}
	if result.HazardIndex != 0 {
		t.Fatalf("nominal point has hazard index %v", result.HazardIndex)
	}
	for mode, risk := range result.Risks {
		if risk != 0 {
			t.Fatalf("mode %s has risk %v at nominal point", mode, risk)
		}
	}

	zone := result.SafeZone
	if zone.VoltageV != [2]float64{100, 170} {
		t.Fatalf("voltage zone = %v", zone.VoltageV)
	}
	if zone.CurrentA != [2]float64{-500, 500} {
		t.Fatalf("current zone = %v", zone.CurrentA)
	}
	if zone.TemperatureK != [2]float64{273.15, 318.15} {
		t.Fatalf("temperature zone = %v", zone.TemperatureK)
	}
	if zone.SOC != [2]float64{0.05, 0.95} {
		t.Fatalf("soc zone = %v", zone.SOC)
	}
}

func TestAnalyzeHotPack(t *testing.T) {
	a := NewAnalyzer(DefaultRunawayParams(), DefaultLimits())
	result := a.Analyze(148, 54, 343.15, 40)

	if got := result.Risks[FailureOverheating]; math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("overheating risk = %v, want 0.5", got)
	}
	if got := result.Risks[FailureThermalRunaway]; got != 0 {
		t.Fatalf("runaway risk = %v below trigger temperature", got)
	}
	if math.Abs(result.FailureProbability-0.5) > 1e-12 {
		t.Fatalf("failure probability = %v, want 0.5", result.FailureProbability)
	}
	if math.Abs(result.HazardIndex-0.1) > 1e-12 {
		t.Fatalf("hazard index = %v, want 0.1", result.HazardIndex)
	}
}

func TestAnalyzeCombinedAbuse(t *testing.T) {
	a := NewAnalyzer(DefaultRunawayParams(), DefaultLimits())
	// Single cell at 4.5 V and 160 degC.
	result := a.Analyze(4.5, 10, 433.15, 1)

	if got := result.Risks[FailureOvercharge]; math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("overcharge risk = %v, want 0.5", got)
	}
	if got := result.Risks[FailureThermalRunaway]; math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("runaway risk = %v, want 0.6", got)
	}
	if got := result.Risks[FailureOverheating]; got != 1.0 {
		t.Fatalf("overheating risk = %v, want 1", got)
	}
	// A certain mode drives the combined probability to one.
	if math.Abs(result.FailureProbability-1.0) > 1e-12 {
		t.Fatalf("failure probability = %v, want 1", result.FailureProbability)
	}
	want := 0.4*0.6 + 0.2*0.5 + 0.2*1.0
	if math.Abs(result.HazardIndex-want) > 1e-12 {
		t.Fatalf("hazard index = %v, want %v", result.HazardIndex, want)
	}
}

func TestAnalyzeOverdischargeAndCurrent(t *testing.T) {
	a := NewAnalyzer(DefaultRunawayParams(), DefaultLimits())
	result := a.Analyze(2.0, -750, 298.15, 1)

	if got := result.Risks[FailureOverdischarge]; math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("overdischarge risk = %v, want 1", got)
	}
	if got := result.Risks[FailureCurrentAbuse]; math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("current abuse risk = %v, want 0.5", got)
	}
}

func TestAnalyzeCellCountFloor(t *testing.T) {
	a := NewAnalyzer(DefaultRunawayParams(), DefaultLimits())
	got := a.Analyze(3.7, 10, 298.15, 0)
	want := a.Analyze(3.7, 10, 298.15, 1)
	if got.FailureProbability != want.FailureProbability {
		t.Fatal("zero cell count should behave like a single cell")
	}
}

func TestFMEAOrderedByRiskPriority(t *testing.T) {
	rows := FMEA()
	if len(rows) != 7 {
		t.Fatalf("expected 7 failure modes, got %d", len(rows))
	}
	for i, row := range rows {
		if row.RPN != row.Severity*row.Occurrence*row.Detection {
			t.Fatalf("row %s: RPN %d != %d*%d*%d", row.Mode, row.RPN, row.Severity, row.Occurrence, row.Detection)
		}
		if i > 0 && row.RPN > rows[i-1].RPN {
			t.Fatalf("rows not sorted by RPN at %d", i)
		}
	}
	if rows[0].Mode != "Overcharge" || rows[0].RPN != 240 {
		t.Fatalf("top risk = %s (%d), want Overcharge (240)", rows[0].Mode, rows[0].RPN)
	}
	if rows[len(rows)-1].Mode != "Capacity Fade" {
		t.Fatalf("lowest risk = %s, want Capacity Fade", rows[len(rows)-1].Mode)
	}
}

func TestEnvelopeNominalPointIsClean(t *testing.T) {
	l := DefaultLimits()
	if modes := l.Envelope(3.7, 120, 298.15, 0.5); len(modes) != 0 {
		t.Fatalf("nominal point flagged: %v", modes)
	}
}

func TestEnvelopeFlagsEachBound(t *testing.T) {
	l := DefaultLimits()

	cases := []struct {
		name     string
		voltageV float64
		currentA float64
		tempK    float64
		soc      float64
		want     []FailureMode
	}{
		{"overcharge voltage", 4.3, 0, 298.15, 0.5, []FailureMode{FailureOvercharge}},
		{"overdischarge voltage", 2.4, 0, 298.15, 0.5, []FailureMode{FailureOverdischarge}},
		{"overheating", 3.7, 0, 320, 0.5, []FailureMode{FailureOverheating}},
		{"current abuse", 3.7, -650, 298.15, 0.5, []FailureMode{FailureCurrentAbuse}},
		{"soc floor", 3.7, 0, 298.15, 0.01, []FailureMode{FailureOverdischarge}},
		{"soc ceiling", 3.7, 0, 298.15, 0.99, []FailureMode{FailureOvercharge}},
	}
	for _, tc := range cases {
		got := l.Envelope(tc.voltageV, tc.currentA, tc.tempK, tc.soc)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: modes %v, want %v", tc.name, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: modes %v, want %v", tc.name, got, tc.want)
			}
		}
	}
}

func TestEnvelopeDeduplicatesSharedModes(t *testing.T) {
	l := DefaultLimits()

	// High voltage and high soc both map to overcharge.
	modes := l.Envelope(4.3, 0, 298.15, 0.99)
	if len(modes) != 1 || modes[0] != FailureOvercharge {
		t.Fatalf("modes %v, want a single overcharge", modes)
	}

	// A fully abused sample reports every distinct mode once.
	modes = l.Envelope(4.3, 700, 325, 0.99)
	want := map[FailureMode]bool{FailureOvercharge: true, FailureOverheating: true, FailureCurrentAbuse: true}
	if len(modes) != len(want) {
		t.Fatalf("modes %v, want %d distinct", modes, len(want))
	}
	for _, m := range modes {
		if !want[m] {
			t.Fatalf("unexpected mode %v", m)
		}
	}
}
