package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/app/plugins"
	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/core/uncertainty"
	"github.com/packsim/packsim/infra/logger"
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Sample manufacturing and cooling tolerances for reliability metrics",
	RunE:  runMonteCarlo,
}

func init() {
	rootCmd.AddCommand(montecarloCmd)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cycle, err := plugins.NewCycle(cfg.MonteCarlo.Scenario, nil)
	if err != nil {
		return err
	}

	logg := logger.New("montecarlo")
	logg.Infof("running %d samples on scenario %s", cfg.MonteCarlo.Samples, cfg.MonteCarlo.Scenario)

	study := uncertainty.Study{
		Cell:       cfg.Cell,
		Config:     cfg.Pack,
		Thermal:    cfg.Thermal,
		InitialSOC: cfg.MonteCarlo.InitialSOC,
		Params:     cfg.MonteCarlo.Params,
	}
	result, err := study.Run(ctx, cycle)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "montecarlo.json"))
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	stdout := json.NewEncoder(cmd.OutOrStdout())
	stdout.SetIndent("", "  ")
	return stdout.Encode(map[string]any{
		"samples":      len(result.Samples),
		"failure_rate": result.FailureRate,
		"summary":      result.Summary,
		"reliability":  result.Reliability,
	})
}
