package variation

import (
	"math"
	"testing"

	"github.com/packsim/packsim/core/cell"
)

func TestSpreadDeterministicPerSeed(t *testing.T) {
	base := cell.DefaultParams()
	p := DefaultParams()

	a := Spread(base, 40, p)
	b := Spread(base, 40, p)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different cells at index %d", i)
		}
	}

	p.Seed = 7
	c := Spread(base, 40, p)
	same := true
	for i := range a {
		if a[i].CapacityAh != c[i].CapacityAh {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical capacities")
	}
}

func TestSpreadVariesOnlyCapacityAndResistances(t *testing.T) {
	base := cell.DefaultParams()
	cells := Spread(base, 20, DefaultParams())
	if len(cells) != 20 {
		t.Fatalf("expected 20 cells, got %d", len(cells))
	}

	varied := false
	for _, c := range cells {
		if c.C1Farad != base.C1Farad || c.VMinV != base.VMinV || c.VMaxV != base.VMaxV ||
			c.TRefK != base.TRefK || c.TempCoeffPerK != base.TempCoeffPerK ||
			c.OCVFloorV != base.OCVFloorV || c.OCVCeilingV != base.OCVCeilingV {
			t.Fatal("non-dispersed field changed")
		}
		if c.CapacityAh != base.CapacityAh || c.R0Ohm != base.R0Ohm {
			varied = true
		}
	}
	if !varied {
		t.Fatal("no cell differed from the base parameters")
	}
}

func TestSpreadZeroStdCopiesBase(t *testing.T) {
	base := cell.DefaultParams()
	p := Params{Seed: 1}
	for _, c := range Spread(base, 5, p) {
		if c != base {
			t.Fatalf("zero std should copy base exactly, got %+v", c)
		}
	}
}

func TestPassiveBalancingBleedsCellsAboveMean(t *testing.T) {
	b := DefaultBalancing()
	socs := []float64{0.9, 0.8, 0.8}
	caps := []float64{3.0, 3.0, 3.0}

	out := ApplyPassiveBalancing(socs, caps, 0.0, 1.0, b)

	wantDrop := b.BleedCurrentA * 1.0 / (3.0 * 3600.0)
	if math.Abs(out[0]-(0.9-wantDrop)) > 1e-15 {
		t.Fatalf("high cell not bled: got %.12f want %.12f", out[0], 0.9-wantDrop)
	}
	if out[1] != 0.8 || out[2] != 0.8 {
		t.Fatalf("cells at mean should be untouched: %v", out)
	}
	if socs[0] != 0.9 {
		t.Fatal("input slice was modified")
	}
}

func TestPassiveBalancingIdleThreshold(t *testing.T) {
	b := DefaultBalancing()
	socs := []float64{0.9, 0.7}
	caps := []float64{3.0, 3.0}

	out := ApplyPassiveBalancing(socs, caps, 50.0, 1.0, b)
	for i := range socs {
		if out[i] != socs[i] {
			t.Fatalf("balancing ran under load: %v", out)
		}
	}

	b.Enable = false
	out = ApplyPassiveBalancing(socs, caps, 0.0, 1.0, b)
	for i := range socs {
		if out[i] != socs[i] {
			t.Fatalf("balancing ran while disabled: %v", out)
		}
	}
}

func TestPassiveBalancingFloorsAtZero(t *testing.T) {
	b := DefaultBalancing()
	socs := []float64{0.5, 0.1, 0.1}
	caps := []float64{1e-6, 1e-6, 1e-6}

	out := ApplyPassiveBalancing(socs, caps, 0.0, 3600.0, b)
	if out[0] != 0 {
		t.Fatalf("expected bleed to floor at zero, got %g", out[0])
	}
}
