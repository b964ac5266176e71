package cell

import (
	"math"
	"testing"
)

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mangle func(*Params)
	}{
		{"zero capacity", func(p *Params) { p.CapacityAh = 0 }},
		{"negative r0", func(p *Params) { p.R0Ohm = -1 }},
		{"negative r1", func(p *Params) { p.R1Ohm = -0.1 }},
		{"zero c1", func(p *Params) { p.C1Farad = 0 }},
		{"inverted window", func(p *Params) { p.VMinV = 4.3 }},
		{"inverted ocv clip", func(p *Params) { p.OCVFloorV = 5.0 }},
	}
	for _, c := range cases {
		p := DefaultParams()
		c.mangle(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestAdjustedResistances(t *testing.T) {
	m, err := NewModel(DefaultParams())
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	r0, r1 := m.AdjustedResistances(m.Params.TRefK)
	if r0 != m.Params.R0Ohm || r1 != m.Params.R1Ohm {
		t.Fatalf("at reference temp expected nominal resistances, got %g %g", r0, r1)
	}
	r0Hot, _ := m.AdjustedResistances(m.Params.TRefK + 20)
	if r0Hot <= r0 {
		t.Fatalf("resistance should grow with temperature: %g <= %g", r0Hot, r0)
	}
	// Linear fit goes negative far below reference; documented limitation.
	r0Cold, _ := m.AdjustedResistances(m.Params.TRefK - 400)
	if r0Cold >= 0 {
		t.Fatalf("expected negative resistance at extreme cold, got %g", r0Cold)
	}
}

func TestStepCoulombCounting(t *testing.T) {
	m, _ := NewModel(DefaultParams())
	// 1C for one hour empties exactly one capacity worth of charge.
	_, _, soc := m.Step(1.0, 0, m.Params.CapacityAh, 3600, m.Params.TRefK)
	if math.Abs(soc) > 1e-12 {
		t.Fatalf("expected soc 0 after 1C for 1h from full, got %g", soc)
	}
}

func TestStepSOCClipping(t *testing.T) {
	m, _ := NewModel(DefaultParams())
	if _, _, soc := m.Step(0.001, 0, 100, 3600, m.Params.TRefK); soc != 0 {
		t.Fatalf("deep discharge should clip soc to 0, got %g", soc)
	}
	if _, _, soc := m.Step(0.999, 0, -100, 3600, m.Params.TRefK); soc != 1 {
		t.Fatalf("overcharge should clip soc to 1, got %g", soc)
	}
}

func TestStepRCExactDecay(t *testing.T) {
	m, _ := NewModel(DefaultParams())
	p := m.Params
	tau := p.R1Ohm * p.C1Farad
	i := 10.0
	_, vRC, _ := m.Step(0.5, 0, i, 1.0, p.TRefK)
	want := (1 - math.Exp(-1.0/tau)) * p.R1Ohm * i
	if math.Abs(vRC-want) > 1e-12 {
		t.Fatalf("rc voltage %g want %g", vRC, want)
	}
	// Long dwell converges to the resistive asymptote.
	_, vRCInf, _ := m.Step(0.5, vRC, i, 100*tau, p.TRefK)
	if math.Abs(vRCInf-p.R1Ohm*i) > 1e-9 {
		t.Fatalf("rc voltage should converge to R1*I, got %g", vRCInf)
	}
}

func TestStepDegenerateTau(t *testing.T) {
	p := DefaultParams()
	p.R1Ohm = 0
	m, err := NewModel(p)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	_, vRC, _ := m.Step(0.5, 0.2, 5, 1.0, p.TRefK)
	if vRC != 0 {
		t.Fatalf("zero R1 should collapse rc branch to 0, got %g", vRC)
	}
}

func TestStepTerminalVoltage(t *testing.T) {
	m, _ := NewModel(DefaultParams())
	p := m.Params
	vTerm, vRC, soc := m.Step(0.8, 0, 3.0, 1.0, p.TRefK)
	want := m.OCV(soc) - p.R0Ohm*3.0 - vRC
	if math.Abs(vTerm-want) > 1e-12 {
		t.Fatalf("terminal voltage %g want %g", vTerm, want)
	}
	// Discharge sags below OCV, charge rises above it.
	if vTerm >= m.OCV(soc) {
		t.Fatalf("discharge voltage should sag below ocv")
	}
	vChg, _, socChg := m.Step(0.5, 0, -3.0, 1.0, p.TRefK)
	if vChg <= m.OCV(socChg) {
		t.Fatalf("charge voltage should rise above ocv")
	}
}
