// Package safety models abuse conditions, thermal runaway and failure
// mode analysis for battery packs.
package safety

import (
	"fmt"
	"math"
	"sort"
)

// FailureMode classifies battery failure mechanisms.
type FailureMode string

const (
	FailureThermalRunaway   FailureMode = "thermal_runaway"
	FailureOvercharge       FailureMode = "overcharge"
	FailureOverdischarge    FailureMode = "overdischarge"
	FailureOverheating      FailureMode = "overheating"
	FailureShortCircuit     FailureMode = "short_circuit"
	FailureMechanicalDamage FailureMode = "mechanical_damage"
	FailureCurrentAbuse     FailureMode = "current_abuse"
)

// Abuse thresholds that put cells at immediate runaway risk.
const (
	overchargeTriggerV    = 4.5
	overdischargeTriggerV = 2.0
	currentAbuseTriggerA  = 500.0
)

// RunawayParams describes thermal runaway onset and propagation.
type RunawayParams struct {
	TriggerTempK        float64 `json:"trigger_temp_k"`
	CriticalTempK       float64 `json:"critical_temp_k"`
	SelfHeatRateWPerKg  float64 `json:"self_heat_rate_w_per_kg"`
	PropagationSpeedMPS float64 `json:"propagation_speed_m_per_s"`
	EnergyReleaseWh     float64 `json:"energy_release_wh_per_cell"`
	BaseProbability     float64 `json:"probability_base"`
}

// DefaultRunawayParams returns onset around 130 degC with critical
// temperature at 150 degC.
func DefaultRunawayParams() RunawayParams {
	return RunawayParams{
		TriggerTempK:        403.15,
		CriticalTempK:       423.15,
		SelfHeatRateWPerKg:  50.0,
		PropagationSpeedMPS: 0.01,
		EnergyReleaseWh:     50.0,
		BaseProbability:     1e-6,
	}
}

func (p RunawayParams) Validate() error {
	if p.TriggerTempK <= 0 || p.CriticalTempK <= p.TriggerTempK {
		return fmt.Errorf("safety: trigger %.2f K must be positive and below critical %.2f K", p.TriggerTempK, p.CriticalTempK)
	}
	if p.EnergyReleaseWh < 0 {
		return fmt.Errorf("safety: energy release must not be negative, got %.2f Wh", p.EnergyReleaseWh)
	}
	return nil
}

// Limits bound the safe operating envelope.
type Limits struct {
	CellMinSafeV  float64 `json:"v_cell_min_safe_v"`
	CellMaxSafeV  float64 `json:"v_cell_max_safe_v"`
	MaxSafeTempK  float64 `json:"t_max_safe_k"`
	ShutdownTempK float64 `json:"t_shutdown_k"`
	MaxSafeA      float64 `json:"i_max_safe_a"`
	MinSafeSOC    float64 `json:"soc_min_safe"`
	MaxSafeSOC    float64 `json:"soc_max_safe"`
}

// DefaultLimits returns the envelope for a typical NMC pack, with a
// 45 degC operating ceiling and a 60 degC shutdown.
func DefaultLimits() Limits {
	return Limits{
		CellMinSafeV:  2.5,
		CellMaxSafeV:  4.25,
		MaxSafeTempK:  318.15,
		ShutdownTempK: 333.15,
		MaxSafeA:      500.0,
		MinSafeSOC:    0.05,
		MaxSafeSOC:    0.95,
	}
}

func (l Limits) Validate() error {
	if l.CellMinSafeV >= l.CellMaxSafeV {
		return fmt.Errorf("safety: voltage window [%.2f, %.2f] is inverted", l.CellMinSafeV, l.CellMaxSafeV)
	}
	if l.MaxSafeTempK >= l.ShutdownTempK {
		return fmt.Errorf("safety: operating ceiling %.2f K must be below shutdown %.2f K", l.MaxSafeTempK, l.ShutdownTempK)
	}
	if l.MinSafeSOC < 0 || l.MaxSafeSOC > 1 || l.MinSafeSOC >= l.MaxSafeSOC {
		return fmt.Errorf("safety: soc window [%.2f, %.2f] is invalid", l.MinSafeSOC, l.MaxSafeSOC)
	}
	return nil
}

// Envelope reports the failure modes a single operating sample
// violates. An empty result means the sample sits inside the safe
// window. Pack state is never mutated; alerting is the caller's job.
func (l Limits) Envelope(cellVoltageV, packCurrentA, tempK, soc float64) []FailureMode {
	var modes []FailureMode
	add := func(m FailureMode) {
		for _, have := range modes {
			if have == m {
				return
			}
		}
		modes = append(modes, m)
	}

	if cellVoltageV > l.CellMaxSafeV {
		add(FailureOvercharge)
	}
	if cellVoltageV < l.CellMinSafeV {
		add(FailureOverdischarge)
	}
	if tempK > l.MaxSafeTempK {
		add(FailureOverheating)
	}
	if math.Abs(packCurrentA) > l.MaxSafeA {
		add(FailureCurrentAbuse)
	}
	if soc < l.MinSafeSOC {
		add(FailureOverdischarge)
	}
	if soc > l.MaxSafeSOC {
		add(FailureOvercharge)
	}
	return modes
}

// CheckTriggers reports whether any cell meets a runaway trigger
// condition and which indices are affected. Current abuse puts the
// whole string at risk.
func (p RunawayParams) CheckTriggers(cellTempK, cellVoltageV []float64, packCurrentA float64) (bool, []int) {
	if math.Abs(packCurrentA) > currentAbuseTriggerA {
		all := make([]int, len(cellTempK))
		for i := range all {
			all[i] = i
		}
		return len(all) > 0, all
	}

	seen := make(map[int]bool)
	var indices []int
	mark := func(i int) {
		if !seen[i] {
			seen[i] = true
			indices = append(indices, i)
		}
	}
	for i, temp := range cellTempK {
		if temp > p.TriggerTempK {
			mark(i)
		}
	}
	for i, v := range cellVoltageV {
		if v > overchargeTriggerV || v < overdischargeTriggerV {
			mark(i)
		}
	}
	sort.Ints(indices)
	return len(indices) > 0, indices
}

// Propagation traces how runaway spreads from cell to cell.
type Propagation struct {
	TimeS           []float64 `json:"time_s"`
	AffectedCells   []int     `json:"affected_cells"`
	EnergyReleaseWh float64   `json:"total_energy_released_wh"`
	FullSpreadS     float64   `json:"full_propagation_time_s"`
}

// Propagation step size and horizon.
const (
	propagationDtS  = 0.1
	propagationMaxS = 60.0
)

// SimulatePropagation spreads runaway from the initially triggered
// cells to their physical neighbours one position per step, until the
// string is consumed or the horizon expires.
func (p RunawayParams) SimulatePropagation(initial []int, numCells int) Propagation {
	affected := make(map[int]bool, len(initial))
	for _, i := range initial {
		if i >= 0 && i < numCells {
			affected[i] = true
		}
	}

	times := []float64{0}
	counts := []int{len(affected)}

	t := 0.0
	for t < propagationMaxS && len(affected) < numCells {
		t += propagationDtS
		var next []int
		for i := range affected {
			if i > 0 {
				next = append(next, i-1)
			}
			if i < numCells-1 {
				next = append(next, i+1)
			}
		}
		if len(next) == 0 {
			break
		}
		for _, i := range next {
			affected[i] = true
		}
		times = append(times, t)
		counts = append(counts, len(affected))
	}

	return Propagation{
		TimeS:           times,
		AffectedCells:   counts,
		EnergyReleaseWh: float64(len(affected)) * p.EnergyReleaseWh,
		FullSpreadS:     times[len(times)-1],
	}
}

// Analysis is the outcome of grading one operating point.
type Analysis struct {
	FailureProbability float64                 `json:"failure_probability"`
	Risks              map[FailureMode]float64 `json:"failure_modes"`
	SafeZone           SafeZone                `json:"safe_operating_zone"`
	HazardIndex        float64                 `json:"hazard_index"`
}

// SafeZone bounds each monitored quantity as [low, high].
type SafeZone struct {
	VoltageV     [2]float64 `json:"voltage_v"`
	CurrentA     [2]float64 `json:"current_a"`
	TemperatureK [2]float64 `json:"temperature_k"`
	SOC          [2]float64 `json:"soc"`
}

// Analyzer evaluates operating points against the safety envelope.
type Analyzer struct {
	Runaway RunawayParams
	Limits  Limits
}

func NewAnalyzer(runaway RunawayParams, limits Limits) Analyzer {
	return Analyzer{Runaway: runaway, Limits: limits}
}

// Hazard index weights per failure mode.
const (
	weightRunaway       = 0.4
	weightOvercharge    = 0.2
	weightOverheating   = 0.2
	weightCurrentAbuse  = 0.1
	weightOverdischarge = 0.1
)

// Analyze grades a pack operating point. voltageV is the pack
// voltage; cellCount splits it into a per-cell value.
func (a Analyzer) Analyze(voltageV, currentA, tempK float64, cellCount int) Analysis {
	if cellCount < 1 {
		cellCount = 1
	}
	vCell := voltageV / float64(cellCount)

	risks := map[FailureMode]float64{
		FailureThermalRunaway: excessRisk(tempK-a.Runaway.TriggerTempK, 50.0),
		FailureOvercharge:     excessRisk(vCell-a.Limits.CellMaxSafeV, 0.5),
		FailureOverdischarge:  excessRisk(a.Limits.CellMinSafeV-vCell, 0.5),
		FailureOverheating:    excessRisk(tempK-a.Limits.MaxSafeTempK, 50.0),
		FailureCurrentAbuse:   excessRisk(math.Abs(currentA)-a.Limits.MaxSafeA, 500.0),
	}

	survival := 1.0
	for _, r := range risks {
		survival *= 1.0 - r
	}

	n := float64(cellCount)
	return Analysis{
		FailureProbability: 1.0 - survival,
		Risks:              risks,
		SafeZone: SafeZone{
			VoltageV:     [2]float64{a.Limits.CellMinSafeV * n, a.Limits.CellMaxSafeV * n},
			CurrentA:     [2]float64{-a.Limits.MaxSafeA, a.Limits.MaxSafeA},
			TemperatureK: [2]float64{273.15, a.Limits.MaxSafeTempK},
			SOC:          [2]float64{a.Limits.MinSafeSOC, a.Limits.MaxSafeSOC},
		},
		HazardIndex: weightRunaway*risks[FailureThermalRunaway] +
			weightOvercharge*risks[FailureOvercharge] +
			weightOverheating*risks[FailureOverheating] +
			weightCurrentAbuse*risks[FailureCurrentAbuse] +
			weightOverdischarge*risks[FailureOverdischarge],
	}
}

// excessRisk maps the margin beyond a limit onto [0, 1].
func excessRisk(excess, scale float64) float64 {
	if excess <= 0 {
		return 0
	}
	return math.Min(1.0, excess/scale)
}

// FMEARow is one entry of the failure mode and effects analysis.
type FMEARow struct {
	Mode        string `json:"failure_mode"`
	Description string `json:"description"`
	Effect      string `json:"effect"`
	Severity    int    `json:"severity"`
	Occurrence  int    `json:"occurrence"`
	Detection   int    `json:"detection"`
	RPN         int    `json:"rpn"`
}

// FMEA returns the failure mode and effects table ordered by
// descending risk priority number.
func FMEA() []FMEARow {
	rows := []FMEARow{
		{Mode: "High Resistance", Description: "Cell resistance increases", Effect: "Performance degradation", Severity: 5, Occurrence: 3, Detection: 4},
		{Mode: "Capacity Fade", Description: "Cell capacity decreases", Effect: "Reduced range", Severity: 4, Occurrence: 2, Detection: 3},
		{Mode: "Thermal Runaway", Description: "Temperature exceeds trigger", Effect: "Safety hazard", Severity: 10, Occurrence: 2, Detection: 10},
		{Mode: "Overcharge", Description: "Voltage exceeds safe limit", Effect: "Safety hazard", Severity: 10, Occurrence: 3, Detection: 8},
		{Mode: "Overdischarge", Description: "Voltage below safe limit", Effect: "Cell damage", Severity: 8, Occurrence: 3, Detection: 7},
		{Mode: "Cooling Failure", Description: "Thermal management fails", Effect: "Overheating", Severity: 9, Occurrence: 2, Detection: 9},
		{Mode: "Balancing Failure", Description: "Cells become imbalanced", Effect: "Reduced capacity", Severity: 6, Occurrence: 3, Detection: 5},
	}
	for i := range rows {
		rows[i].RPN = rows[i].Severity * rows[i].Occurrence * rows[i].Detection
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RPN > rows[j].RPN })
	return rows
}
