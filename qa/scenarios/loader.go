// Package scenarios runs YAML-described acceptance scenarios against the
// simulator and checks the outcome bounds.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/thermal"
)

// PackDef overrides the default pack configuration. Zero fields keep the
// defaults.
type PackDef struct {
	SeriesCells   int     `yaml:"series_cells"`
	ParallelCells int     `yaml:"parallel_cells"`
	MaxCurrentA   float64 `yaml:"max_current_a"`
}

func (d PackDef) Apply(cfg pack.Config) pack.Config {
	if d.SeriesCells > 0 {
		cfg.SeriesCells = d.SeriesCells
	}
	if d.ParallelCells > 0 {
		cfg.ParallelCells = d.ParallelCells
	}
	if d.MaxCurrentA > 0 {
		cfg.MaxCurrentA = d.MaxCurrentA
	}
	return cfg
}

// CellDef overrides the default cell parameters.
type CellDef struct {
	CapacityAh float64 `yaml:"capacity_ah"`
	R0Ohm      float64 `yaml:"r0_ohm"`
}

func (d CellDef) Apply(p cell.Params) cell.Params {
	if d.CapacityAh > 0 {
		p.CapacityAh = d.CapacityAh
	}
	if d.R0Ohm > 0 {
		p.R0Ohm = d.R0Ohm
	}
	return p
}

// ThermalDef overrides the default thermal parameters.
type ThermalDef struct {
	MassKg  float64 `yaml:"mass_kg"`
	UAWPerK float64 `yaml:"ua_w_per_k"`
}

func (d ThermalDef) Apply(p thermal.Params) thermal.Params {
	if d.MassKg > 0 {
		p.MassKg = d.MassKg
	}
	if d.UAWPerK > 0 {
		p.UAWPerK = d.UAWPerK
	}
	return p
}

// CycleDef names a registered cycle builder plus its raw configuration.
type CycleDef struct {
	Name string         `yaml:"name"`
	Conf map[string]any `yaml:"conf,omitempty"`
}

// Expected bounds the run outcome. Zero-valued bounds are skipped.
type Expected struct {
	MaxPeakTempK  float64 `yaml:"max_peak_temp_k"`
	MinFinalSOC   float64 `yaml:"min_final_soc"`
	MaxFinalSOC   float64 `yaml:"max_final_soc"`
	MinVoltageV   float64 `yaml:"min_voltage_v"`
	MinRTEPercent float64 `yaml:"min_rte_percent"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Pack        PackDef    `yaml:"pack,omitempty"`
	Cell        CellDef    `yaml:"cell,omitempty"`
	Thermal     ThermalDef `yaml:"thermal,omitempty"`
	InitialSOC  float64    `yaml:"initial_soc"`
	Cycle       CycleDef   `yaml:"cycle"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
