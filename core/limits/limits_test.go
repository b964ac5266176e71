package limits

import (
	"math"
	"testing"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/thermal"
)

func newTestPack(t *testing.T) *pack.Pack {
	t.Helper()
	p, err := pack.New(cell.DefaultParams(), pack.DefaultConfig(), thermal.DefaultParams(), 0.8)
	if err != nil {
		t.Fatalf("new pack: %v", err)
	}
	return p
}

func TestComputeMidSOC(t *testing.T) {
	p := newTestPack(t)
	l := Compute(p, 0.5)

	if l.MaxDischargeW <= 0 || math.IsInf(l.MaxDischargeW, 0) || math.IsNaN(l.MaxDischargeW) {
		t.Fatalf("discharge limit at mid soc: %g", l.MaxDischargeW)
	}
	if l.MaxChargeW <= 0 || math.IsInf(l.MaxChargeW, 0) || math.IsNaN(l.MaxChargeW) {
		t.Fatalf("charge limit at mid soc: %g", l.MaxChargeW)
	}

	cfg := p.Config()
	ceiling := cfg.MaxCurrentA * float64(cfg.SeriesCells) * p.Cell().Params.VMaxV
	if l.MaxDischargeW > ceiling {
		t.Fatalf("discharge limit %g above the physical ceiling %g", l.MaxDischargeW, ceiling)
	}
}

func TestComputeAtSOCFloor(t *testing.T) {
	p := newTestPack(t)
	l := Compute(p, p.Config().MinSOC)

	if l.MaxDischargeW != 0 {
		t.Fatalf("discharge at the soc floor should be forbidden, got %g", l.MaxDischargeW)
	}
	if l.MaxChargeW <= 0 {
		t.Fatalf("charging from the soc floor should be allowed, got %g", l.MaxChargeW)
	}
}

func TestComputeAtSOCCeiling(t *testing.T) {
	p := newTestPack(t)
	l := Compute(p, p.Config().MaxSOC)

	if l.MaxChargeW != 0 {
		t.Fatalf("charge at the soc ceiling should be forbidden, got %g", l.MaxChargeW)
	}
	if l.MaxDischargeW <= 0 {
		t.Fatalf("discharging from the soc ceiling should be allowed, got %g", l.MaxDischargeW)
	}
}

func TestDischargeLimitTapersWithSOC(t *testing.T) {
	p := newTestPack(t)
	low := Compute(p, 0.12)
	high := Compute(p, 0.8)
	if low.MaxDischargeW >= high.MaxDischargeW {
		t.Fatalf("discharge limit should taper toward the floor: %g at 0.12 vs %g at 0.8",
			low.MaxDischargeW, high.MaxDischargeW)
	}
}

func TestVoltageBoundHolds(t *testing.T) {
	// Shrink the voltage window so the limit is voltage-bound, then check
	// the solver's current keeps the static voltage above the floor.
	cp := cell.DefaultParams()
	cp.VMinV = 3.55
	p, err := pack.New(cp, pack.DefaultConfig(), thermal.DefaultParams(), 0.5)
	if err != nil {
		t.Fatalf("new pack: %v", err)
	}

	l := Compute(p, 0.5)
	cfg := p.Config()
	full := cfg.MaxCurrentA * p.StaticVoltage(cfg.MaxCurrentA, 0.5)
	if l.MaxDischargeW >= full {
		t.Fatalf("voltage bound should bite before max current: %g vs %g", l.MaxDischargeW, full)
	}

	iDis := l.MaxDischargeW / p.StaticVoltage(0, 0.5)
	vMinPack := float64(cfg.SeriesCells) * cp.VMinV
	if v := p.StaticVoltage(iDis, 0.5); v < vMinPack-1e-3 {
		t.Fatalf("solver current drives voltage %g below the floor %g", v, vMinPack)
	}
}
