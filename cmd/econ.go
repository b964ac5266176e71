package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/app"
	"github.com/packsim/packsim/app/plugins"
	"github.com/packsim/packsim/auth"
	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/connectors"
	wholesalemarket "github.com/packsim/packsim/connectors/clients/wholesaleMarket"
	connfactory "github.com/packsim/packsim/connectors/factory"
	"github.com/packsim/packsim/core/econ"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/infra/logger"
)

var econCyclesPerDay int

var econCmd = &cobra.Command{
	Use:   "econ",
	Short: "Estimate pack cost, LCOE and grid revenue for the configured design",
	RunE:  runEcon,
}

func init() {
	econCmd.Flags().IntVar(&econCyclesPerDay, "cycles-per-day", 1, "full cycles per day for arbitrage")
	rootCmd.AddCommand(econCmd)
}

func runEcon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("econ")

	// One simulated round trip anchors the efficiency assumption.
	cycle, err := plugins.NewCycle(cfg.Simulation.Scenario, nil)
	if err != nil {
		return err
	}
	assembly, err := app.BuildAssembly(cfg)
	if err != nil {
		return err
	}
	rteResult, err := sim.New(assembly).RoundTripEfficiency(cycle, cfg.Simulation.InitialSOC)
	if err != nil {
		return err
	}
	rte := rteResult.RTEPercent / 100.0

	nominalCellV := (cfg.Cell.OCVFloorV + cfg.Cell.OCVCeilingV) / 2.0
	nominalV := float64(cfg.Pack.SeriesCells) * nominalCellV
	packEnergyKWh := nominalV * cfg.Cell.CapacityAh * float64(cfg.Pack.ParallelCells) / 1000.0
	packPowerKW := nominalV * cfg.Pack.MaxCurrentA / 1000.0

	gridParams := econ.DefaultGridParams()
	if cfg.Tariff.Enabled {
		summary, err := fetchTariff(cfg.Tariff)
		if err != nil {
			logg.Warnf("tariff fetch failed, using default prices: %v", err)
		} else {
			logg.Infof("wholesale prices: avg %.1f, peak %.1f, off-peak %.1f EUR/MWh over %d samples",
				summary.AvgEURPerMWh, summary.PeakEURPerMWh, summary.OffPeakEURPerMWh, summary.Samples)
			gridParams.ElectricityPricePerKWh = summary.AvgEURPerMWh / 1000.0
			gridParams.PeakPricePerKWh = summary.PeakEURPerMWh / 1000.0
			gridParams.OffPeakPricePerKWh = summary.OffPeakEURPerMWh / 1000.0
		}
	}

	costModel, err := econ.NewCostModel(econ.DefaultCostParams())
	if err != nil {
		return err
	}
	coolingPowerW := cfg.Thermal.UAWPerK * 10.0
	capital, err := costModel.CapitalCost(cfg.Pack, cfg.Cell.CapacityAh, nominalV, coolingPowerW)
	if err != nil {
		return err
	}

	lcoeParams := econ.DefaultLCOEParams()
	lcoeParams.RoundTripEfficiency = rte
	operating, err := costModel.OperatingCost(
		packEnergyKWh*1000.0, lcoeParams.CyclesPerYear, rte,
		gridParams.ElectricityPricePerKWh, capital.TotalUSD)
	if err != nil {
		return err
	}
	lcoeCalc, err := econ.NewLCOECalculator(lcoeParams)
	if err != nil {
		return err
	}
	lcoe := lcoeCalc.Compute(capital.TotalUSD, operating.TotalUSDPerYear, packEnergyKWh*lcoeParams.CyclesPerYear)

	gridEcon, err := econ.NewGridEconomics(gridParams)
	if err != nil {
		return err
	}
	arbitrage, err := gridEcon.ArbitrageRevenue(packEnergyKWh, rte, econCyclesPerDay)
	if err != nil {
		return err
	}
	gridService, err := gridEcon.GridServiceRevenue(packPowerKW, 1000.0)
	if err != nil {
		return err
	}
	v2g, err := gridEcon.V2GRevenue(packEnergyKWh, packPowerKW, econ.DefaultFleetParams())
	if err != nil {
		return err
	}

	out := map[string]any{
		"pack_energy_kwh":     packEnergyKWh,
		"pack_power_kw":       packPowerKW,
		"round_trip_eff":      rte,
		"capital_cost":        capital,
		"operating_cost":      operating,
		"lcoe":                lcoe,
		"arbitrage":           arbitrage,
		"grid_service":        gridService,
		"v2g":                 v2g,
	}
	if err := os.MkdirAll(cfg.Simulation.OutputDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(cfg.Simulation.OutputDir, "economics.json"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	stdout := json.NewEncoder(cmd.OutOrStdout())
	stdout.SetIndent("", "  ")
	return stdout.Encode(out)
}

// fetchTariff pulls the configured price window from the market API.
func fetchTariff(cfg config.TariffConfig) (connectors.PriceSummary, error) {
	client, err := connfactory.NewTariffClient(cfg.Connector)
	if err != nil {
		return connectors.PriceSummary{}, err
	}
	cred := auth.NewClientCred(cfg.Auth)
	end := time.Now()
	start := end.Add(-time.Duration(cfg.WindowHours) * time.Hour)
	resp, err := client.Fetch(cred,
		wholesalemarket.WithStartDate(start),
		wholesalemarket.WithEndDate(end),
	)
	if err != nil {
		return connectors.PriceSummary{}, err
	}
	return resp.Summary()
}
