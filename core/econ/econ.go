// Package econ prices battery packs and the grid services they can sell.
//
// It covers capital and operating cost breakdowns, levelized cost of
// energy over the system lifetime, and revenue estimates for arbitrage,
// grid services and vehicle-to-grid fleets.
package econ

import (
	"fmt"
	"math"

	"github.com/packsim/packsim/core/pack"
)

const pvEnergyFloor = 1e-6

// DefaultCoolingPowerW sizes the cooling system when the caller has no
// better estimate.
const DefaultCoolingPowerW = 5000.0

// CostParams are pack-level cost assumptions in USD.
type CostParams struct {
	CellCostPerWh         float64 `json:"cell_cost_per_wh"`
	BMSCostPerCell        float64 `json:"bms_cost_per_cell"`
	PackagingCostPerCell  float64 `json:"packaging_cost_per_cell"`
	CoolingCostPerW       float64 `json:"cooling_cost_per_w"`
	InstallationPct       float64 `json:"installation_cost_percent"`
	MaintenancePctPerYear float64 `json:"maintenance_cost_per_year_percent"`
	ReplacementPct        float64 `json:"replacement_cost_percent"`
}

// DefaultCostParams returns 2024-era pack cost assumptions.
func DefaultCostParams() CostParams {
	return CostParams{
		CellCostPerWh:         0.15,
		BMSCostPerCell:        5.0,
		PackagingCostPerCell:  2.0,
		CoolingCostPerW:       0.50,
		InstallationPct:       0.20,
		MaintenancePctPerYear: 0.02,
		ReplacementPct:        0.30,
	}
}

func (p CostParams) Validate() error {
	for _, v := range []float64{
		p.CellCostPerWh, p.BMSCostPerCell, p.PackagingCostPerCell,
		p.CoolingCostPerW, p.InstallationPct, p.MaintenancePctPerYear, p.ReplacementPct,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("econ: cost parameters must not be negative")
		}
	}
	return nil
}

// GridParams are utility tariff assumptions in USD.
type GridParams struct {
	ElectricityPricePerKWh  float64 `json:"electricity_price_per_kwh"`
	PeakPricePerKWh         float64 `json:"peak_price_per_kwh"`
	OffPeakPricePerKWh      float64 `json:"off_peak_price_per_kwh"`
	DemandChargePerKW       float64 `json:"demand_charge_per_kw"`
	GridServicePerKWYear    float64 `json:"grid_service_revenue_per_kw"`
	CapacityMarketPerKWYear float64 `json:"capacity_market_price_per_kw_year"`
}

// DefaultGridParams returns typical US retail and wholesale rates.
func DefaultGridParams() GridParams {
	return GridParams{
		ElectricityPricePerKWh:  0.12,
		PeakPricePerKWh:         0.25,
		OffPeakPricePerKWh:      0.08,
		DemandChargePerKW:       15.0,
		GridServicePerKWYear:    50.0,
		CapacityMarketPerKWYear: 100.0,
	}
}

func (p GridParams) Validate() error {
	for _, v := range []float64{
		p.ElectricityPricePerKWh, p.PeakPricePerKWh, p.OffPeakPricePerKWh,
		p.DemandChargePerKW, p.GridServicePerKWYear, p.CapacityMarketPerKWYear,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("econ: grid prices must not be negative")
		}
	}
	if p.PeakPricePerKWh < p.OffPeakPricePerKWh {
		return fmt.Errorf("econ: peak price %v below off-peak price %v",
			p.PeakPricePerKWh, p.OffPeakPricePerKWh)
	}
	return nil
}

// LCOEParams control the levelized cost of energy calculation.
type LCOEParams struct {
	DiscountRate           float64 `json:"discount_rate"`
	SystemLifetimeYears    float64 `json:"system_lifetime_years"`
	CyclesPerYear          float64 `json:"cycles_per_year"`
	DegradationRatePerYear float64 `json:"degradation_rate_per_year"`
	RoundTripEfficiency    float64 `json:"round_trip_efficiency"`
}

func DefaultLCOEParams() LCOEParams {
	return LCOEParams{
		DiscountRate:           0.06,
		SystemLifetimeYears:    15.0,
		CyclesPerYear:          300.0,
		DegradationRatePerYear: 0.02,
		RoundTripEfficiency:    0.90,
	}
}

func (p LCOEParams) Validate() error {
	if p.DiscountRate < 0 {
		return fmt.Errorf("econ: discount rate %v must not be negative", p.DiscountRate)
	}
	if p.SystemLifetimeYears < 1 {
		return fmt.Errorf("econ: system lifetime %v must cover at least one year", p.SystemLifetimeYears)
	}
	if p.DegradationRatePerYear < 0 || p.DegradationRatePerYear >= 1 {
		return fmt.Errorf("econ: degradation rate %v outside [0, 1)", p.DegradationRatePerYear)
	}
	if p.RoundTripEfficiency <= 0 || p.RoundTripEfficiency > 1 {
		return fmt.Errorf("econ: round-trip efficiency %v outside (0, 1]", p.RoundTripEfficiency)
	}
	return nil
}

// CapitalCost itemizes the up-front cost of a pack.
type CapitalCost struct {
	CellUSD         float64 `json:"cell_cost_usd"`
	BMSUSD          float64 `json:"bms_cost_usd"`
	PackagingUSD    float64 `json:"packaging_cost_usd"`
	CoolingUSD      float64 `json:"cooling_cost_usd"`
	BaseUSD         float64 `json:"base_cost_usd"`
	InstallationUSD float64 `json:"installation_cost_usd"`
	TotalUSD        float64 `json:"total_cost_usd"`
	PerKWh          float64 `json:"cost_per_kwh"`
	PerCell         float64 `json:"cost_per_cell"`
}

// OperatingCost itemizes the yearly cost of owning a pack.
type OperatingCost struct {
	EnergyLossKWhPerYear  float64 `json:"energy_loss_kwh_per_year"`
	EnergyCostUSDPerYear  float64 `json:"energy_cost_usd_per_year"`
	MaintenanceUSDPerYear float64 `json:"maintenance_cost_usd_per_year"`
	TotalUSDPerYear       float64 `json:"total_operating_cost_usd_per_year"`
}

// CostModel prices a pack from its configuration.
type CostModel struct {
	params CostParams
}

func NewCostModel(params CostParams) (CostModel, error) {
	if err := params.Validate(); err != nil {
		return CostModel{}, err
	}
	return CostModel{params: params}, nil
}

// CapitalCost breaks down the purchase price of a pack. The pack energy
// is taken at the given nominal terminal voltage.
func (m CostModel) CapitalCost(cfg pack.Config, cellCapacityAh, nominalVoltageV, coolingPowerW float64) (CapitalCost, error) {
	if err := cfg.Validate(); err != nil {
		return CapitalCost{}, err
	}
	if cellCapacityAh <= 0 {
		return CapitalCost{}, fmt.Errorf("econ: cell capacity %v Ah must be positive", cellCapacityAh)
	}
	if nominalVoltageV <= 0 {
		return CapitalCost{}, fmt.Errorf("econ: nominal voltage %v V must be positive", nominalVoltageV)
	}
	if coolingPowerW < 0 {
		return CapitalCost{}, fmt.Errorf("econ: cooling power %v W must not be negative", coolingPowerW)
	}

	numCells := float64(cfg.SeriesCells * cfg.ParallelCells)
	totalEnergyWh := numCells * cellCapacityAh * nominalVoltageV / float64(cfg.SeriesCells)

	c := CapitalCost{
		CellUSD:      totalEnergyWh * m.params.CellCostPerWh,
		BMSUSD:       numCells * m.params.BMSCostPerCell,
		PackagingUSD: numCells * m.params.PackagingCostPerCell,
		CoolingUSD:   coolingPowerW * m.params.CoolingCostPerW,
	}
	c.BaseUSD = c.CellUSD + c.BMSUSD + c.PackagingUSD + c.CoolingUSD
	c.InstallationUSD = c.BaseUSD * m.params.InstallationPct
	c.TotalUSD = c.BaseUSD + c.InstallationUSD
	c.PerKWh = c.TotalUSD / (totalEnergyWh / 1000.0)
	c.PerCell = c.TotalUSD / numCells
	return c, nil
}

// OperatingCost estimates the yearly cost of cycling the pack:
// electricity lost to round-trip inefficiency plus maintenance as a
// share of the capital cost.
func (m CostModel) OperatingCost(totalEnergyWh, cyclesPerYear, roundTripEfficiency, electricityPricePerKWh, capitalCostUSD float64) (OperatingCost, error) {
	if totalEnergyWh <= 0 {
		return OperatingCost{}, fmt.Errorf("econ: pack energy %v Wh must be positive", totalEnergyWh)
	}
	if cyclesPerYear < 0 {
		return OperatingCost{}, fmt.Errorf("econ: cycles per year %v must not be negative", cyclesPerYear)
	}
	if roundTripEfficiency <= 0 || roundTripEfficiency > 1 {
		return OperatingCost{}, fmt.Errorf("econ: round-trip efficiency %v outside (0, 1]", roundTripEfficiency)
	}

	lossPerCycleKWh := totalEnergyWh / 1000.0 * (1.0 - roundTripEfficiency)
	o := OperatingCost{
		EnergyLossKWhPerYear:  lossPerCycleKWh * cyclesPerYear,
		MaintenanceUSDPerYear: capitalCostUSD * m.params.MaintenancePctPerYear,
	}
	o.EnergyCostUSDPerYear = o.EnergyLossKWhPerYear * electricityPricePerKWh
	o.TotalUSDPerYear = o.EnergyCostUSDPerYear + o.MaintenanceUSDPerYear
	return o, nil
}

// LCOE is the levelized cost of energy over the system lifetime.
type LCOE struct {
	USDPerKWh      float64 `json:"lcoe_usd_per_kwh"`
	NPVUSD         float64 `json:"npv_usd"`
	PVCapitalUSD   float64 `json:"pv_capital_usd"`
	PVOperatingUSD float64 `json:"pv_operating_usd"`
	PVEnergyKWh    float64 `json:"pv_energy_kwh"`
}

// LCOECalculator discounts lifetime costs against degraded throughput.
type LCOECalculator struct {
	params LCOEParams
}

func NewLCOECalculator(params LCOEParams) (LCOECalculator, error) {
	if err := params.Validate(); err != nil {
		return LCOECalculator{}, err
	}
	return LCOECalculator{params: params}, nil
}

// Compute levelizes capital and operating cost over the discounted
// energy delivered across the system lifetime. Capacity fades by the
// degradation rate each year.
func (c LCOECalculator) Compute(capitalCostUSD, operatingCostUSDPerYear, annualEnergyKWh float64) LCOE {
	years := int(c.params.SystemLifetimeYears)
	result := LCOE{PVCapitalUSD: capitalCostUSD}

	for year := 1; year <= years; year++ {
		capacityFactor := math.Pow(1.0-c.params.DegradationRatePerYear, float64(year-1))
		discountFactor := 1.0 / math.Pow(1.0+c.params.DiscountRate, float64(year))

		result.PVOperatingUSD += operatingCostUSDPerYear * discountFactor
		result.PVEnergyKWh += annualEnergyKWh * capacityFactor * discountFactor
	}

	result.USDPerKWh = (result.PVCapitalUSD + result.PVOperatingUSD) / math.Max(pvEnergyFloor, result.PVEnergyKWh)
	result.NPVUSD = -result.PVCapitalUSD - result.PVOperatingUSD
	return result
}

// Arbitrage is the revenue from buying off-peak and selling at peak.
type Arbitrage struct {
	RevenuePerCycleUSD   float64 `json:"revenue_per_cycle_usd"`
	AnnualRevenueUSD     float64 `json:"annual_revenue_usd"`
	AnnualEnergyCostUSD  float64 `json:"annual_energy_cost_usd"`
	NetRevenueUSDPerYear float64 `json:"net_revenue_usd_per_year"`
}

// GridService is the revenue from capacity markets and ancillary
// services.
type GridService struct {
	CapacityUSDPerYear float64 `json:"capacity_revenue_usd_per_year"`
	ServiceUSDPerYear  float64 `json:"service_revenue_usd_per_year"`
	TotalUSDPerYear    float64 `json:"total_revenue_usd_per_year"`
}

// FleetParams describe a vehicle fleet available for V2G service.
type FleetParams struct {
	Vehicles            int     `json:"vehicles_in_fleet"`
	UtilizationRate     float64 `json:"utilization_rate"`
	HoursPerDay         float64 `json:"hours_per_day"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
}

func DefaultFleetParams() FleetParams {
	return FleetParams{
		Vehicles:            100,
		UtilizationRate:     0.3,
		HoursPerDay:         8.0,
		RoundTripEfficiency: 0.90,
	}
}

func (p FleetParams) Validate() error {
	if p.Vehicles < 1 {
		return fmt.Errorf("econ: fleet needs at least one vehicle, got %d", p.Vehicles)
	}
	if p.UtilizationRate < 0 || p.UtilizationRate > 1 {
		return fmt.Errorf("econ: utilization rate %v outside [0, 1]", p.UtilizationRate)
	}
	if p.HoursPerDay < 0 || p.HoursPerDay > 24 {
		return fmt.Errorf("econ: hours per day %v outside [0, 24]", p.HoursPerDay)
	}
	if p.RoundTripEfficiency <= 0 || p.RoundTripEfficiency > 1 {
		return fmt.Errorf("econ: round-trip efficiency %v outside (0, 1]", p.RoundTripEfficiency)
	}
	return nil
}

// V2G is the revenue from a fleet selling energy and grid services.
type V2G struct {
	ParticipatingVehicles float64 `json:"participating_vehicles"`
	TotalPowerKW          float64 `json:"total_power_kw"`
	TotalEnergyKWh        float64 `json:"total_energy_kwh"`
	GridServiceUSDPerYear float64 `json:"grid_service_revenue_usd_per_year"`
	ArbitrageUSDPerYear   float64 `json:"arbitrage_revenue_usd_per_year"`
	TotalUSDPerYear       float64 `json:"total_revenue_usd_per_year"`
}

// GridEconomics estimates grid integration revenue for a pack.
type GridEconomics struct {
	params GridParams
}

func NewGridEconomics(params GridParams) (GridEconomics, error) {
	if err := params.Validate(); err != nil {
		return GridEconomics{}, err
	}
	return GridEconomics{params: params}, nil
}

// ArbitrageRevenue charges the pack at the off-peak rate and sells the
// recoverable energy at the peak rate.
func (g GridEconomics) ArbitrageRevenue(packEnergyKWh, roundTripEfficiency float64, cyclesPerDay int) (Arbitrage, error) {
	if packEnergyKWh <= 0 {
		return Arbitrage{}, fmt.Errorf("econ: pack energy %v kWh must be positive", packEnergyKWh)
	}
	if roundTripEfficiency <= 0 || roundTripEfficiency > 1 {
		return Arbitrage{}, fmt.Errorf("econ: round-trip efficiency %v outside (0, 1]", roundTripEfficiency)
	}
	if cyclesPerDay < 0 {
		return Arbitrage{}, fmt.Errorf("econ: cycles per day %d must not be negative", cyclesPerDay)
	}

	priceDiff := g.params.PeakPricePerKWh - g.params.OffPeakPricePerKWh
	dischargeKWh := packEnergyKWh * roundTripEfficiency

	a := Arbitrage{RevenuePerCycleUSD: dischargeKWh * priceDiff}
	a.AnnualRevenueUSD = a.RevenuePerCycleUSD * float64(cyclesPerDay) * 365.0
	a.AnnualEnergyCostUSD = packEnergyKWh * g.params.OffPeakPricePerKWh * float64(cyclesPerDay) * 365.0
	a.NetRevenueUSDPerYear = a.AnnualRevenueUSD - a.AnnualEnergyCostUSD
	return a, nil
}

// GridServiceRevenue prices capacity market participation plus
// ancillary services for the given utilization.
func (g GridEconomics) GridServiceRevenue(packPowerKW, utilizationHoursPerYear float64) (GridService, error) {
	if packPowerKW <= 0 {
		return GridService{}, fmt.Errorf("econ: pack power %v kW must be positive", packPowerKW)
	}
	if utilizationHoursPerYear < 0 || utilizationHoursPerYear > 8760 {
		return GridService{}, fmt.Errorf("econ: utilization %v h outside [0, 8760]", utilizationHoursPerYear)
	}

	s := GridService{
		CapacityUSDPerYear: packPowerKW * g.params.CapacityMarketPerKWYear,
		ServiceUSDPerYear:  packPowerKW * g.params.GridServicePerKWYear * (utilizationHoursPerYear / 8760.0),
	}
	s.TotalUSDPerYear = s.CapacityUSDPerYear + s.ServiceUSDPerYear
	return s, nil
}

// V2GRevenue aggregates the participating share of a fleet and prices
// its grid services plus per-vehicle arbitrage.
func (g GridEconomics) V2GRevenue(packEnergyKWh, packPowerKW float64, fleet FleetParams) (V2G, error) {
	if err := fleet.Validate(); err != nil {
		return V2G{}, err
	}
	if packPowerKW <= 0 {
		return V2G{}, fmt.Errorf("econ: pack power %v kW must be positive", packPowerKW)
	}

	participating := float64(fleet.Vehicles) * fleet.UtilizationRate
	v := V2G{
		ParticipatingVehicles: participating,
		TotalPowerKW:          participating * packPowerKW,
		TotalEnergyKWh:        participating * packEnergyKWh,
	}

	service, err := g.GridServiceRevenue(v.TotalPowerKW, fleet.HoursPerDay*365.0)
	if err != nil {
		return V2G{}, err
	}
	arbitrage, err := g.ArbitrageRevenue(packEnergyKWh, fleet.RoundTripEfficiency, int(fleet.HoursPerDay/2.0))
	if err != nil {
		return V2G{}, err
	}

	v.GridServiceUSDPerYear = service.TotalUSDPerYear
	v.ArbitrageUSDPerYear = arbitrage.NetRevenueUSDPerYear * participating
	v.TotalUSDPerYear = v.GridServiceUSDPerYear + v.ArbitrageUSDPerYear
	return v, nil
}
