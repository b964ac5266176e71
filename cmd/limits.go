package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/core/limits"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/infra/charts"
)

var limitsStep float64

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Sweep charge and discharge power limits across state of charge",
	RunE:  runLimits,
}

func init() {
	limitsCmd.Flags().Float64Var(&limitsStep, "step", 0.05, "state of charge step")
	rootCmd.AddCommand(limitsCmd)
}

func runLimits(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if limitsStep <= 0 || limitsStep > 1 {
		return fmt.Errorf("step %g outside (0,1]", limitsStep)
	}

	p, err := pack.New(cfg.Cell, cfg.Pack, cfg.Thermal, cfg.Simulation.InitialSOC)
	if err != nil {
		return err
	}

	var socs []float64
	var lims []limits.Limits
	for soc := 0.0; soc <= 1.0+1e-9; soc += limitsStep {
		socs = append(socs, soc)
		lims = append(lims, limits.Compute(p, soc))
	}

	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	chart, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "limits.html"))
	if err != nil {
		return err
	}
	defer chart.Close()
	if err := charts.WritePowerLimits(chart, socs, lims); err != nil {
		return err
	}

	type row struct {
		SOC           float64 `json:"soc"`
		MaxDischargeW float64 `json:"max_discharge_w"`
		MaxChargeW    float64 `json:"max_charge_w"`
	}
	rows := make([]row, len(socs))
	for i := range socs {
		rows[i] = row{SOC: socs[i], MaxDischargeW: lims[i].MaxDischargeW, MaxChargeW: lims[i].MaxChargeW}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
