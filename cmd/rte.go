package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/app"
	"github.com/packsim/packsim/app/plugins"
	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/infra/charts"
	"github.com/packsim/packsim/pkg/export"
)

var rteScenario string

var rteCmd = &cobra.Command{
	Use:   "rte",
	Short: "Measure round-trip efficiency over a discharge-then-recharge window",
	RunE:  runRTE,
}

func init() {
	rteCmd.Flags().StringVar(&rteScenario, "scenario", "", "drive cycle (defaults to the configured scenario)")
	rootCmd.AddCommand(rteCmd)
}

func runRTE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	scenario := cfg.Simulation.Scenario
	if rteScenario != "" {
		scenario = rteScenario
	}
	cycle, err := plugins.NewCycle(scenario, nil)
	if err != nil {
		return err
	}
	assembly, err := app.BuildAssembly(cfg)
	if err != nil {
		return err
	}

	result, err := sim.New(assembly).RoundTripEfficiency(cycle, cfg.Simulation.InitialSOC)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	csvPath := filepath.Join(cfg.Simulation.OutputDir, "rte_records.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, result.Records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	chart, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "rte.html"))
	if err != nil {
		return err
	}
	defer chart.Close()
	if err := charts.WriteRTEBar(chart, result.RTEPercent, result.EnergyOutWh, result.EnergyInWh); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"scenario":      scenario,
		"rte_percent":   result.RTEPercent,
		"energy_out_wh": result.EnergyOutWh,
		"energy_in_wh":  result.EnergyInWh,
		"samples":       len(result.Records),
	})
}
