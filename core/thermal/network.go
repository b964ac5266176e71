package thermal

import "fmt"

// NetworkParams defines a 1-D chain of thermal nodes with a shared sink.
type NetworkParams struct {
	NumNodes        int     `json:"num_nodes"`
	MassKgTotal     float64 `json:"mass_kg_total"`
	CpJPerKgK       float64 `json:"cp_j_per_kg_k"`
	CellToCellWPerK float64 `json:"cell_to_cell_w_per_k"`
	CellToSinkWPerK float64 `json:"cell_to_sink_w_per_k"`
	SinkTempK       float64 `json:"sink_temp_k"`
	Mode            Mode    `json:"mode"`
}

// DefaultNetworkParams returns a chain sized for the given node count.
func DefaultNetworkParams(nodes int) NetworkParams {
	return NetworkParams{
		NumNodes:        nodes,
		MassKgTotal:     10.0,
		CpJPerKgK:       900.0,
		CellToCellWPerK: 0.5,
		CellToSinkWPerK: 4.0,
		SinkTempK:       298.15,
		Mode:            ModeAir,
	}
}

// Validate checks the parameters for physical consistency.
func (p NetworkParams) Validate() error {
	if p.NumNodes < 1 {
		return fmt.Errorf("num_nodes must be at least 1, got %d", p.NumNodes)
	}
	if p.MassKgTotal <= 0 {
		return fmt.Errorf("mass_kg_total must be positive, got %g", p.MassKgTotal)
	}
	if p.CpJPerKgK <= 0 {
		return fmt.Errorf("cp_j_per_kg_k must be positive, got %g", p.CpJPerKgK)
	}
	if p.CellToCellWPerK < 0 {
		return fmt.Errorf("cell_to_cell_w_per_k must not be negative, got %g", p.CellToCellWPerK)
	}
	if p.CellToSinkWPerK < 0 {
		return fmt.Errorf("cell_to_sink_w_per_k must not be negative, got %g", p.CellToSinkWPerK)
	}
	return nil
}

// Network models nodes arranged in a line, each exchanging heat with its
// immediate neighbors and with an external sink whose conductance depends
// on the cooling mode.
type Network struct {
	p          NetworkParams
	massPerKg  float64
	sinkGWPerK float64
	temps      []float64
}

// NewNetwork validates the parameters and returns an initialized Network
// with all nodes at the sink temperature.
func NewNetwork(p NetworkParams) (*Network, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := &Network{
		p:          p,
		massPerKg:  p.MassKgTotal / float64(max(1, p.NumNodes)),
		sinkGWPerK: p.CellToSinkWPerK * p.Mode.SinkMultiplier(),
	}
	n.temps = make([]float64, p.NumNodes)
	n.Reset(0)
	return n, nil
}

// Reset sets every node to tempK, or to the sink temperature when tempK
// is zero.
func (n *Network) Reset(tempK float64) {
	t := tempK
	if t == 0 {
		t = n.p.SinkTempK
	}
	for i := range n.temps {
		n.temps[i] = t
	}
}

// Step advances all node temperatures by dtS seconds. heatW carries the
// per-node heat input; entries beyond its length are treated as zero.
// Derivatives are evaluated on a snapshot of the current temperatures.
func (n *Network) Step(heatW []float64, dtS float64) {
	temps := n.temps
	nn := len(temps)
	gcc := n.p.CellToCellWPerK
	mC := max(heatCapFloor, n.massPerKg*n.p.CpJPerKgK)

	dTdt := make([]float64, nn)
	for i := 0; i < nn; i++ {
		q := 0.0
		if i < len(heatW) {
			q = heatW[i]
		}
		neighbors := 0.0
		if i > 0 {
			neighbors += gcc * (temps[i-1] - temps[i])
		}
		if i < nn-1 {
			neighbors += gcc * (temps[i+1] - temps[i])
		}
		sink := n.sinkGWPerK * (n.p.SinkTempK - temps[i])
		dTdt[i] = (q + neighbors + sink) / mC
	}
	for i := 0; i < nn; i++ {
		temps[i] += dtS * dTdt[i]
	}
}

// Temps returns a copy of the node temperatures.
func (n *Network) Temps() []float64 {
	out := make([]float64, len(n.temps))
	copy(out, n.temps)
	return out
}

// TempAt returns the temperature of node i.
func (n *Network) TempAt(i int) float64 { return n.temps[i] }

// MaxTemp returns the hottest node temperature.
func (n *Network) MaxTemp() float64 {
	m := n.temps[0]
	for _, t := range n.temps[1:] {
		if t > m {
			m = t
		}
	}
	return m
}

// NumNodes returns the node count.
func (n *Network) NumNodes() int { return len(n.temps) }
