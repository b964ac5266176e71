package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/core/sweep"
	"github.com/packsim/packsim/infra/charts"
	"github.com/packsim/packsim/infra/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate a grid of pack designs against a synthetic duty cycle",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("sweep")
	logg.Infof("sweeping %d design points", cfg.Sweep.Axes.Size())

	points, err := sweep.Run(ctx, cfg.Sweep.Axes, cfg.Sweep.Params(cfg))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "sweep.json"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(points); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	chart, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "sweep.html"))
	if err != nil {
		return err
	}
	defer chart.Close()
	if err := charts.WriteSweepHeatmap(chart, points); err != nil {
		return err
	}

	violations := 0
	for _, p := range points {
		if p.TempViolation || p.SOCViolation {
			violations++
		}
	}
	logg.Infof("sweep complete: %d points, %d constraint violations", len(points), violations)
	return nil
}
