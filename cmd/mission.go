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
	"github.com/packsim/packsim/core/mission"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/pkg/export"
)

var (
	missionName string
	missionFile string
	missionDtS  float64
)

var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Fly an aerospace duty profile and grade compliance",
	RunE:  runMission,
}

func init() {
	missionCmd.Flags().StringVar(&missionName, "name", "electric_aircraft", "built-in mission profile")
	missionCmd.Flags().StringVar(&missionFile, "file", "", "mission profile file (YAML or JSON), overrides --name")
	missionCmd.Flags().Float64Var(&missionDtS, "dt", 1.0, "cycle time step in seconds")
	rootCmd.AddCommand(missionCmd)
}

func runMission(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var profile mission.Profile
	if missionFile != "" {
		profile, err = mission.Load(missionFile)
	} else {
		profile, err = plugins.NewMission(missionName, nil)
	}
	if err != nil {
		return err
	}

	nominalV := float64(cfg.Pack.SeriesCells) * (cfg.Cell.OCVFloorV + cfg.Cell.OCVCeilingV) / 2.0
	cycle, err := profile.ToCycle(nominalV, missionDtS)
	if err != nil {
		return err
	}

	assembly, err := app.BuildAssembly(cfg)
	if err != nil {
		return err
	}
	records := sim.New(assembly).Run(cycle)

	compliance, err := profile.CheckCompliance(records, mission.DefaultComplianceLimits())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "mission_records.csv"))
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

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(compliance)
}
