package thermal

import (
	"math"
	"testing"
)

func newTestNetwork(t *testing.T, nodes int, mutate func(*NetworkParams)) *Network {
	t.Helper()
	p := DefaultNetworkParams(nodes)
	if mutate != nil {
		mutate(&p)
	}
	n, err := NewNetwork(p)
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	return n
}

func TestNetworkStartsAtSinkTemperature(t *testing.T) {
	n := newTestNetwork(t, 4, nil)
	for i, temp := range n.Temps() {
		if temp != 298.15 {
			t.Fatalf("node %d not at sink temp: %g", i, temp)
		}
	}
}

func TestNetworkEnergyConservedWithoutSink(t *testing.T) {
	n := newTestNetwork(t, 5, func(p *NetworkParams) { p.CellToSinkWPerK = 0 })
	// Unbalanced start: hot middle node.
	n.Reset(300)
	n.temps[2] = 330

	sum0 := 0.0
	for _, temp := range n.Temps() {
		sum0 += temp
	}
	for i := 0; i < 2000; i++ {
		n.Step(nil, 5.0)
	}
	sum1 := 0.0
	for _, temp := range n.Temps() {
		sum1 += temp
	}
	if math.Abs(sum1-sum0) > 1e-6 {
		t.Fatalf("thermal energy not conserved: %g vs %g", sum1, sum0)
	}
	// Conduction should have flattened the profile.
	temps := n.Temps()
	if temps[2]-temps[0] > 1 {
		t.Fatalf("hot spot did not diffuse: %v", temps)
	}
}

func TestNetworkHeatSpreadsToNeighbors(t *testing.T) {
	n := newTestNetwork(t, 3, nil)
	heat := []float64{0, 50, 0}
	for i := 0; i < 100; i++ {
		n.Step(heat, 1.0)
	}
	temps := n.Temps()
	if temps[1] <= temps[0] || temps[1] <= temps[2] {
		t.Fatalf("heated node should be hottest: %v", temps)
	}
	if temps[0] <= n.p.SinkTempK {
		t.Fatalf("neighbor should warm above sink: %v", temps)
	}
	if got := n.MaxTemp(); got != temps[1] {
		t.Fatalf("MaxTemp %g want %g", got, temps[1])
	}
}

func TestNetworkShortHeatSlice(t *testing.T) {
	n := newTestNetwork(t, 4, nil)
	// Only the first node receives heat; the rest read as zero.
	n.Step([]float64{100}, 1.0)
	temps := n.Temps()
	if temps[0] <= temps[3] {
		t.Fatalf("first node should lead: %v", temps)
	}
}

func TestNetworkCoolingModeEffect(t *testing.T) {
	heat := []float64{80, 80, 80}
	air := newTestNetwork(t, 3, nil)
	liquid := newTestNetwork(t, 3, func(p *NetworkParams) { p.Mode = ModeLiquid })
	for i := 0; i < 200; i++ {
		air.Step(heat, 1.0)
		liquid.Step(heat, 1.0)
	}
	if liquid.MaxTemp() >= air.MaxTemp() {
		t.Fatalf("liquid cooling should run cooler: %g vs %g", liquid.MaxTemp(), air.MaxTemp())
	}
}

func TestNetworkValidate(t *testing.T) {
	if _, err := NewNetwork(DefaultNetworkParams(0)); err == nil {
		t.Fatal("expected error for zero nodes")
	}
	p := DefaultNetworkParams(2)
	p.MassKgTotal = 0
	if _, err := NewNetwork(p); err == nil {
		t.Fatal("expected error for zero mass")
	}
}

func TestNetworkReset(t *testing.T) {
	n := newTestNetwork(t, 2, nil)
	n.Step([]float64{500, 500}, 10)
	n.Reset(310)
	for _, temp := range n.Temps() {
		if temp != 310 {
			t.Fatalf("reset to 310 failed: %v", n.Temps())
		}
	}
	n.Reset(0)
	for _, temp := range n.Temps() {
		if temp != n.p.SinkTempK {
			t.Fatalf("zero reset should use sink temp: %v", n.Temps())
		}
	}
}
