// Package config loads the simulation configuration from YAML or JSON
// files with PACKSIM_ environment overrides. Every section has defaults,
// so an empty file yields the reference 40s3p pack.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/packsim/packsim/core/cell"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/telemetry"
	"github.com/packsim/packsim/core/thermal"
)

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Cell       cell.Params      `json:"cell"`
	Thermal    thermal.Params   `json:"thermal"`
	Pack       pack.Config      `json:"pack"`
	Advanced   AdvancedConfig   `json:"advanced"`
	Telemetry  telemetry.Config `json:"telemetry"`
	Sweep      SweepConfig      `json:"sweep"`
	MonteCarlo MonteCarloConfig `json:"montecarlo"`
	Sentry     SentryConfig     `json:"sentry"`
	Tariff     TariffConfig     `json:"tariff"`
}

// SetDefaults fills every zero-valued section with the reference values.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	if c.Cell == (cell.Params{}) {
		c.Cell = cell.DefaultParams()
	}
	if c.Thermal == (thermal.Params{}) {
		c.Thermal = thermal.DefaultParams()
	}
	if c.Pack == (pack.Config{}) {
		c.Pack = pack.DefaultConfig()
	}
	c.Advanced.SetDefaults()
	c.Sweep.SetDefaults()
	c.MonteCarlo.SetDefaults()
	c.Tariff.SetDefaults()
}

// Validate checks every section, naming the first failing one.
func (c *Config) Validate() error {
	if err := c.Cell.Validate(); err != nil {
		return fmt.Errorf("cell: %w", err)
	}
	if err := c.Thermal.Validate(); err != nil {
		return fmt.Errorf("thermal: %w", err)
	}
	if err := c.Pack.Validate(); err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Advanced.Validate(); err != nil {
		return fmt.Errorf("advanced: %w", err)
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if err := c.MonteCarlo.Validate(); err != nil {
		return fmt.Errorf("montecarlo: %w", err)
	}
	if err := c.Tariff.Validate(); err != nil {
		return fmt.Errorf("tariff: %w", err)
	}
	return nil
}

// Load reads the configuration file, applies PACKSIM_ environment
// overrides (PACKSIM_PACK__SERIES_CELLS=48 sets pack.series_cells), fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("PACKSIM_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "packsim_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
