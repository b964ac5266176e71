package config

import (
	"fmt"

	"github.com/packsim/packsim/core/aging"
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/thermal"
	"github.com/packsim/packsim/core/variation"
)

// SimulationConfig selects what a plain `packsim run` simulates.
type SimulationConfig struct {
	// Scenario names a registered drive cycle (epa_udds, wltp_class3,
	// nedc, cc, pulse, synthetic, csv).
	Scenario   string  `json:"scenario"`
	InitialSOC float64 `json:"initial_soc"`
	// AdvancedPack switches from the mean-field pack to the per-cell
	// assembly with variation, balancing and aging.
	AdvancedPack bool `json:"advanced_pack"`
	// OutputDir receives the CSV/JSON/HTML artifacts of a run.
	OutputDir string `json:"output_dir"`
	// Live replays the simulated steps at wall-clock pace so streaming
	// sinks such as MQTT receive them in real time.
	Live bool `json:"live"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.Scenario == "" {
		c.Scenario = string(cycles.KindUDDS)
	}
	if c.InitialSOC == 0 {
		c.InitialSOC = 0.8
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
}

// Validate checks mandatory fields.
func (c SimulationConfig) Validate() error {
	if c.InitialSOC < 0 || c.InitialSOC > 1 {
		return fmt.Errorf("initial_soc %g outside [0,1]", c.InitialSOC)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}

// AdvancedConfig parameterizes the per-cell pack assembly.
type AdvancedConfig struct {
	pack.Options `json:",squash"`
}

// SetDefaults applies the reference variation, balancing and aging values.
func (c *AdvancedConfig) SetDefaults() {
	def := pack.DefaultOptions()
	if c.CoolingMode == "" {
		c.CoolingMode = def.CoolingMode
	}
	if c.Variation == (variation.Params{}) {
		c.Variation = def.Variation
	}
	if c.Balancing == (variation.Balancing{}) {
		c.Balancing = def.Balancing
	}
	if c.Aging == (aging.Params{}) {
		c.Aging = def.Aging
	}
}

// Validate checks the cooling mode and nested parameter sets.
func (c AdvancedConfig) Validate() error {
	switch c.CoolingMode {
	case thermal.ModeAir, thermal.ModeFin, thermal.ModePCM, thermal.ModeLiquid:
	default:
		return fmt.Errorf("unknown cooling mode %q", c.CoolingMode)
	}
	if err := c.Variation.Validate(); err != nil {
		return fmt.Errorf("variation: %w", err)
	}
	if err := c.Aging.Validate(); err != nil {
		return fmt.Errorf("aging: %w", err)
	}
	return nil
}
