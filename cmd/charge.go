package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/app"
	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/core/bms"
	"github.com/packsim/packsim/core/charging"
	"github.com/packsim/packsim/core/report"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/pkg/export"
)

var (
	chargeProtocol  string
	chargeSOCStart  float64
	chargeSOCTarget float64
	chargeDtS       float64
)

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Simulate a DC fast-charge session for a named protocol",
	RunE:  runCharge,
}

func init() {
	chargeCmd.Flags().StringVar(&chargeProtocol, "protocol", string(charging.ProtocolCCSCombo2), "charging protocol")
	chargeCmd.Flags().Float64Var(&chargeSOCStart, "soc-start", 0.1, "starting state of charge")
	chargeCmd.Flags().Float64Var(&chargeSOCTarget, "soc-target", 0.8, "target state of charge")
	chargeCmd.Flags().Float64Var(&chargeDtS, "dt", 1.0, "schedule time step in seconds")
	rootCmd.AddCommand(chargeCmd)
}

func runCharge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	profile, err := charging.ForProtocol(charging.Protocol(chargeProtocol), cfg.Cell, cfg.Pack, chargeSOCStart, chargeSOCTarget, chargeDtS)
	if err != nil {
		return err
	}
	cycle, err := profile.ToCycle()
	if err != nil {
		return err
	}

	cfg.Simulation.InitialSOC = chargeSOCStart
	assembly, err := app.BuildAssembly(cfg)
	if err != nil {
		return err
	}
	records := sim.New(assembly).Run(cycle)
	metrics, err := report.Compute(records, cfg.Thermal.MassKg, cfg.Cell.CapacityAh*float64(cfg.Pack.ParallelCells))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "charge_records.csv"))
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	limits := bms.DefaultProtectionLimits()
	limits.MaxDischargeA = cfg.Pack.MaxCurrentA
	limits.MaxChargeA = cfg.Pack.MaxCurrentA
	limits.MinCellV = cfg.Cell.VMinV
	limits.MaxCellV = cfg.Cell.VMaxV
	protection, err := bms.NewProtection(limits)
	if err != nil {
		return err
	}
	trips := 0
	firstTrip := ""
	for _, rec := range records {
		check := protection.Check(rec.PackVoltageV, rec.PackCurrentA, rec.TempMaxK, cfg.Pack.SeriesCells)
		if check.Status != bms.StatusOK {
			trips++
			if firstTrip == "" {
				firstTrip = check.Message
			}
		}
	}

	final := records[len(records)-1]
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"protocol":       chargeProtocol,
		"duration_s":     final.TimeS,
		"final_soc":      final.SOC,
		"peak_temp_k":    metrics.PeakTempK,
		"energy_wh":      metrics.EnergyThroughputWh,
		"bms_trips":      trips,
		"bms_first_trip": firstTrip,
	})
}
