package aging

import (
	"math"
	"testing"
)

func freshState() State {
	return State{CapacityAh: 3.0, R0Ohm: 0.0025, R1Ohm: 0.0015}
}

func TestAccelAtReferenceIsUnity(t *testing.T) {
	p := DefaultParams()
	if got := Accel(p.TRefK, p); got != 1.0 {
		t.Fatalf("expected 1.0 at reference temp, got %g", got)
	}
	if Accel(p.TRefK+10, p) <= 1.0 {
		t.Fatalf("hotter should accelerate aging")
	}
	if Accel(p.TRefK-10, p) >= 1.0 {
		t.Fatalf("colder should decelerate aging")
	}
}

func TestApplyMonotone(t *testing.T) {
	p := DefaultParams()
	fresh := freshState()
	cur := fresh
	for i := 0; i < 50; i++ {
		next := Apply(cur, fresh, 10.0, p.TRefK+5, p)
		if next.CapacityAh > cur.CapacityAh {
			t.Fatalf("capacity must not grow: %g > %g", next.CapacityAh, cur.CapacityAh)
		}
		if next.R0Ohm < cur.R0Ohm || next.R1Ohm < cur.R1Ohm {
			t.Fatalf("resistance must not shrink")
		}
		cur = next
	}
	if cur.CapacityAh >= fresh.CapacityAh {
		t.Fatalf("no fade after 500 Ah throughput")
	}
}

func TestApplyR1HalfRate(t *testing.T) {
	p := DefaultParams()
	fresh := freshState()
	next := Apply(fresh, fresh, 100, p.TRefK, p)
	r0Growth := next.R0Ohm/fresh.R0Ohm - 1.0
	r1Growth := next.R1Ohm/fresh.R1Ohm - 1.0
	if math.Abs(r1Growth-0.5*r0Growth) > 1e-12 {
		t.Fatalf("r1 should grow at half the r0 rate: %g vs %g", r1Growth, r0Growth)
	}
}

func TestApplyClampsAgainstFresh(t *testing.T) {
	p := DefaultParams()
	fresh := freshState()
	cur := fresh
	// Grind millions of Ah through at high temperature.
	for i := 0; i < 2000; i++ {
		cur = Apply(cur, fresh, 5000, p.TRefK+40, p)
	}
	if want := p.MinCapFrac * fresh.CapacityAh; cur.CapacityAh < want-1e-12 {
		t.Fatalf("capacity %g fell below floor %g", cur.CapacityAh, want)
	}
	if want := p.MaxResScale * fresh.R0Ohm; cur.R0Ohm > want+1e-12 {
		t.Fatalf("r0 %g exceeded cap %g", cur.R0Ohm, want)
	}
	if want := p.MaxResScale * fresh.R1Ohm; cur.R1Ohm > want+1e-12 {
		t.Fatalf("r1 %g exceeded cap %g", cur.R1Ohm, want)
	}
	// The clamps must actually bind under this much abuse.
	if cur.CapacityAh != p.MinCapFrac*fresh.CapacityAh {
		t.Fatalf("capacity floor should bind, got %g", cur.CapacityAh)
	}
}

func TestApplyNegativeThroughputIsNoop(t *testing.T) {
	p := DefaultParams()
	fresh := freshState()
	next := Apply(fresh, fresh, -50, p.TRefK, p)
	if next != fresh {
		t.Fatalf("negative throughput should not age: %+v", next)
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	p.MinCapFrac = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for zero min_cap_frac")
	}
	p = DefaultParams()
	p.MaxResScale = 0.5
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for max_res_scale below 1")
	}
}
