package config

import (
	"fmt"

	"github.com/packsim/packsim/core/sweep"
)

// SweepConfig shapes the design-of-experiments grid run by `packsim sweep`.
type SweepConfig struct {
	Axes sweep.Axes `json:"axes"`
	// CycleTotalS and CycleDtS shape the synthetic duty cycle evaluated at
	// every grid point.
	CycleTotalS float64 `json:"cycle_total_s"`
	CycleDtS    float64 `json:"cycle_dt_s"`
	CycleSeed   uint64  `json:"cycle_seed"`
	InitialSOC  float64 `json:"initial_soc"`
	Workers     int     `json:"workers"`
}

// SetDefaults fills a small reference grid around the 40s3p design.
func (c *SweepConfig) SetDefaults() {
	if len(c.Axes.SeriesCells) == 0 {
		c.Axes.SeriesCells = []int{30, 40, 50}
	}
	if len(c.Axes.ParallelCells) == 0 {
		c.Axes.ParallelCells = []int{2, 3, 4}
	}
	if len(c.Axes.SinkUAWPerK) == 0 {
		c.Axes.SinkUAWPerK = []float64{30, 60, 120}
	}
	if len(c.Axes.PeakCurrentA) == 0 {
		c.Axes.PeakCurrentA = []float64{60, 120}
	}
	def := sweep.DefaultParams()
	if c.CycleTotalS == 0 {
		c.CycleTotalS = def.CycleTotalS
	}
	if c.CycleDtS == 0 {
		c.CycleDtS = def.CycleDtS
	}
	if c.CycleSeed == 0 {
		c.CycleSeed = def.CycleSeed
	}
	if c.InitialSOC == 0 {
		c.InitialSOC = def.InitialSOC
	}
}

// Validate checks the axes and cycle shape.
func (c SweepConfig) Validate() error {
	if err := c.Axes.Validate(); err != nil {
		return err
	}
	if c.CycleTotalS <= 0 || c.CycleDtS <= 0 {
		return fmt.Errorf("cycle shape %gs/%gs is invalid", c.CycleTotalS, c.CycleDtS)
	}
	if c.InitialSOC < 0 || c.InitialSOC > 1 {
		return fmt.Errorf("initial_soc %g outside [0,1]", c.InitialSOC)
	}
	return nil
}

// Params builds the per-point inputs from the cell and thermal sections.
func (c SweepConfig) Params(root *Config) sweep.Params {
	return sweep.Params{
		Cell:        root.Cell,
		Thermal:     root.Thermal,
		InitialSOC:  c.InitialSOC,
		CycleTotalS: c.CycleTotalS,
		CycleDtS:    c.CycleDtS,
		CycleSeed:   c.CycleSeed,
		Workers:     c.Workers,
	}
}
