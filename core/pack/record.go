package pack

// Record is one row of simulated telemetry, produced by every assembly
// step. It is the sole contract downstream consumers (metrics, export,
// telemetry sinks, plots) depend on.
type Record struct {
	TimeS        float64 `json:"time_s"`
	PackCurrentA float64 `json:"i_pack_a"`
	CellCurrentA float64 `json:"i_cell_a"`
	PackVoltageV float64 `json:"v_pack_v"`
	CellVoltageV float64 `json:"v_cell_v"`
	SOC          float64 `json:"soc"`
	TempK        float64 `json:"temp_k"`
	TempMaxK     float64 `json:"temp_max_k"`
	PowerW       float64 `json:"power_w"`
	HeatW        float64 `json:"heat_w"`
	Phase        string  `json:"phase,omitempty"`
}
