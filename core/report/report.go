// Package report derives engineering metrics from simulation telemetry.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/packsim/packsim/core/pack"
)

// tiny guards divisions by quantities that may legitimately be zero.
const tiny = 1e-6

// Metrics summarizes a completed run from its telemetry records.
type Metrics struct {
	EnergyThroughputWh float64 `json:"energy_throughput_wh"`
	RTEPercent         float64 `json:"round_trip_efficiency_percent"`
	EnergyLossWh       float64 `json:"energy_loss_wh"`

	PeakPowerW         float64 `json:"peak_power_w"`
	AvgPowerW          float64 `json:"avg_power_w"`
	PowerDensityWPerKg float64 `json:"power_density_w_per_kg"`

	PeakTempK float64 `json:"peak_temperature_k"`
	AvgTempK  float64 `json:"avg_temperature_k"`
	TempRiseK float64 `json:"temp_rise_k"`
	TempStdK  float64 `json:"temp_std_k"`

	MinVoltageV float64 `json:"min_voltage_v"`
	MaxVoltageV float64 `json:"max_voltage_v"`
	VoltageSagV float64 `json:"voltage_sag_v"`
	VoltageStdV float64 `json:"voltage_std_v"`

	PeakCurrentA float64 `json:"peak_current_a"`
	AvgCurrentA  float64 `json:"avg_current_a"`
	RMSCurrentA  float64 `json:"rms_current_a"`

	InitialSOC float64 `json:"initial_soc"`
	FinalSOC   float64 `json:"final_soc"`
	SOCUsed    float64 `json:"soc_used"`
	SOCMin     float64 `json:"soc_min"`
	SOCMax     float64 `json:"soc_max"`

	CapacityAh             float64 `json:"capacity_ah"`
	UsableCapacityAh       float64 `json:"usable_capacity_ah"`
	CapacityUtilizationPct float64 `json:"capacity_utilization_percent"`

	CRateAvg  float64 `json:"c_rate_avg"`
	CRatePeak float64 `json:"c_rate_peak"`

	EquivalentFullCycles float64 `json:"equivalent_full_cycles"`
	ThroughputAh         float64 `json:"throughput_ah"`
}

// Compute builds the full metric set for a run. Records must carry
// non-decreasing timestamps; capacityAh is the nominal cell capacity
// used for C-rate and cycle counting.
func Compute(records []pack.Record, packMassKg, capacityAh float64) (Metrics, error) {
	if len(records) == 0 {
		return Metrics{}, errors.New("report: no records")
	}
	times := column(records, func(r pack.Record) float64 { return r.TimeS })
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return Metrics{}, fmt.Errorf("report: time goes backwards at sample %d", i)
		}
	}

	power := column(records, func(r pack.Record) float64 { return r.PowerW })
	discharge := make([]float64, len(power))
	charge := make([]float64, len(power))
	absPower := make([]float64, len(power))
	for i, p := range power {
		discharge[i] = math.Max(p, 0)
		charge[i] = math.Min(p, 0)
		absPower[i] = math.Abs(p)
	}
	dischargeWh := trapezoidWh(times, discharge)
	chargeWh := trapezoidWh(times, charge)

	rte := 0.0
	if math.Abs(chargeWh) > tiny {
		rte = 100.0 * dischargeWh / math.Abs(chargeWh)
	}

	temps := column(records, func(r pack.Record) float64 { return r.TempK })
	peakTemp := floats.Max(temps)

	volts := column(records, func(r pack.Record) float64 { return r.PackVoltageV })
	minV := floats.Min(volts)
	maxV := floats.Max(volts)

	current := column(records, func(r pack.Record) float64 { return r.PackCurrentA })
	absCurrent := make([]float64, len(current))
	sumSq := 0.0
	for i, c := range current {
		absCurrent[i] = math.Abs(c)
		sumSq += c * c
	}
	peakCurrent := floats.Max(absCurrent)
	avgCurrent := stat.Mean(absCurrent, nil)

	socs := column(records, func(r pack.Record) float64 { return r.SOC })
	socMin := floats.Min(socs)
	socMax := floats.Max(socs)
	socUsed := math.Abs(socs[len(socs)-1] - socs[0])
	socSpan := socMax - socMin

	throughputAh := trapezoidWh(times, absCurrent)

	return Metrics{
		EnergyThroughputWh: dischargeWh + chargeWh,
		RTEPercent:         rte,
		EnergyLossWh:       math.Abs(chargeWh) - dischargeWh,

		PeakPowerW:         floats.Max(absPower),
		AvgPowerW:          stat.Mean(absPower, nil),
		PowerDensityWPerKg: floats.Max(absPower) / math.Max(tiny, packMassKg),

		PeakTempK: peakTemp,
		AvgTempK:  stat.Mean(temps, nil),
		TempRiseK: peakTemp - temps[0],
		TempStdK:  stat.PopStdDev(temps, nil),

		MinVoltageV: minV,
		MaxVoltageV: maxV,
		VoltageSagV: maxV - minV,
		VoltageStdV: stat.PopStdDev(volts, nil),

		PeakCurrentA: peakCurrent,
		AvgCurrentA:  avgCurrent,
		RMSCurrentA:  math.Sqrt(sumSq / float64(len(current))),

		InitialSOC: socs[0],
		FinalSOC:   socs[len(socs)-1],
		SOCUsed:    socUsed,
		SOCMin:     socMin,
		SOCMax:     socMax,

		CapacityAh:             capacityAh,
		UsableCapacityAh:       capacityAh * socSpan,
		CapacityUtilizationPct: 100.0 * socUsed / math.Max(tiny, socSpan),

		CRateAvg:  avgCurrent / math.Max(tiny, capacityAh),
		CRatePeak: peakCurrent / math.Max(tiny, capacityAh),

		EquivalentFullCycles: throughputAh / math.Max(tiny, capacityAh),
		ThroughputAh:         throughputAh,
	}, nil
}

// WriteTable renders the metrics as an aligned two-column text table.
func WriteTable(w io.Writer, m Metrics) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		label  string
		format string
		value  float64
	}{
		{"Energy throughput", "%.2f Wh", m.EnergyThroughputWh},
		{"Round-trip efficiency", "%.1f %%", m.RTEPercent},
		{"Energy loss", "%.2f Wh", m.EnergyLossWh},
		{"Peak power", "%.1f W", m.PeakPowerW},
		{"Average power", "%.1f W", m.AvgPowerW},
		{"Power density", "%.1f W/kg", m.PowerDensityWPerKg},
		{"Peak temperature", "%.2f K", m.PeakTempK},
		{"Temperature rise", "%.2f K", m.TempRiseK},
		{"Voltage range", "", 0},
		{"Peak current", "%.1f A", m.PeakCurrentA},
		{"RMS current", "%.1f A", m.RMSCurrentA},
		{"SOC used", "%.3f", m.SOCUsed},
		{"Final SOC", "%.3f", m.FinalSOC},
		{"Capacity utilization", "%.1f %%", m.CapacityUtilizationPct},
		{"Equivalent full cycles", "%.3f", m.EquivalentFullCycles},
		{"Throughput", "%.2f Ah", m.ThroughputAh},
	}
	for _, row := range rows {
		if row.label == "Voltage range" {
			fmt.Fprintf(tw, "%s\t%.1f - %.1f V\n", row.label, m.MinVoltageV, m.MaxVoltageV)
			continue
		}
		fmt.Fprintf(tw, "%s\t"+row.format+"\n", row.label, row.value)
	}
	return tw.Flush()
}

// trapezoidWh integrates y over x and converts watt-seconds (or
// amp-seconds) to the per-hour unit. Fewer than two samples integrate
// to zero.
func trapezoidWh(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return integrate.Trapezoidal(x, y) / 3600.0
}

func column(records []pack.Record, get func(pack.Record) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = get(r)
	}
	return out
}

// Summary holds order statistics for a single telemetry column.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

// Summarize computes order statistics for one column. Std is the
// sample standard deviation, so a single-element column yields NaN.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.New("report: empty column")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	quantile := func(p float64) float64 {
		return stat.Quantile(p, stat.LinInterp, sorted, nil)
	}
	return Summary{
		Mean: stat.Mean(values, nil),
		Std:  stat.StdDev(values, nil),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		P25:  quantile(0.25),
		P50:  quantile(0.50),
		P75:  quantile(0.75),
		P95:  quantile(0.95),
		P99:  quantile(0.99),
	}, nil
}

// SummarizeRecords computes a Summary per telemetry column, keyed by
// the column's wire name.
func SummarizeRecords(records []pack.Record) (map[string]Summary, error) {
	if len(records) == 0 {
		return nil, errors.New("report: no records")
	}
	columns := map[string]func(pack.Record) float64{
		"time_s":     func(r pack.Record) float64 { return r.TimeS },
		"i_pack_a":   func(r pack.Record) float64 { return r.PackCurrentA },
		"i_cell_a":   func(r pack.Record) float64 { return r.CellCurrentA },
		"v_pack_v":   func(r pack.Record) float64 { return r.PackVoltageV },
		"v_cell_v":   func(r pack.Record) float64 { return r.CellVoltageV },
		"soc":        func(r pack.Record) float64 { return r.SOC },
		"temp_k":     func(r pack.Record) float64 { return r.TempK },
		"temp_max_k": func(r pack.Record) float64 { return r.TempMaxK },
		"power_w":    func(r pack.Record) float64 { return r.PowerW },
		"heat_w":     func(r pack.Record) float64 { return r.HeatW },
	}
	out := make(map[string]Summary, len(columns))
	for name, get := range columns {
		s, err := Summarize(column(records, get))
		if err != nil {
			return nil, fmt.Errorf("report: column %s: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}

// Default fade model constants for EstimateCycleLife.
const (
	DefaultFadePerCyclePct = 0.05
	DefaultFadeLimitPct    = 20.0
)

// CycleLife estimates remaining life from charge throughput using a
// linear capacity fade model.
type CycleLife struct {
	CyclesCompleted    float64 `json:"cycles_completed"`
	CyclesToEOL        float64 `json:"cycles_to_eol"`
	RemainingCycles    float64 `json:"remaining_cycles"`
	CurrentCapacityPct float64 `json:"current_capacity_percent"`
	CapacityFadePct    float64 `json:"capacity_fade_percent"`
}

// EstimateCycleLife converts accumulated amp-hour throughput into
// equivalent full cycles and projects capacity against the fade limit.
func EstimateCycleLife(throughputAh, capacityAh, fadePerCyclePct, fadeLimitPct float64) CycleLife {
	completed := throughputAh / math.Max(tiny, capacityAh)
	toEOL := fadeLimitPct / math.Max(tiny, fadePerCyclePct)
	capacityPct := 100.0 - completed/math.Max(tiny, toEOL)*fadeLimitPct
	capacityPct = math.Min(100.0, math.Max(0.0, capacityPct))
	return CycleLife{
		CyclesCompleted:    completed,
		CyclesToEOL:        toEOL,
		RemainingCycles:    math.Max(0.0, toEOL-completed),
		CurrentCapacityPct: capacityPct,
		CapacityFadePct:    100.0 - capacityPct,
	}
}
