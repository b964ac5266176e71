package config

import (
	"fmt"

	"github.com/packsim/packsim/core/uncertainty"
)

// MonteCarloConfig tunes the `packsim montecarlo` reliability study.
type MonteCarloConfig struct {
	uncertainty.Params `json:",squash"`
	// Scenario names the drive cycle each sample is evaluated against.
	Scenario   string  `json:"scenario"`
	InitialSOC float64 `json:"initial_soc"`
}

// SetDefaults applies the reference dispersion and thresholds.
func (c *MonteCarloConfig) SetDefaults() {
	if c.Params == (uncertainty.Params{}) {
		c.Params = uncertainty.DefaultParams()
	}
	if c.Scenario == "" {
		c.Scenario = "cc"
	}
	if c.InitialSOC == 0 {
		c.InitialSOC = 0.8
	}
}

// Validate checks the sampled distributions and thresholds.
func (c MonteCarloConfig) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.InitialSOC < 0 || c.InitialSOC > 1 {
		return fmt.Errorf("initial_soc %g outside [0,1]", c.InitialSOC)
	}
	return nil
}
