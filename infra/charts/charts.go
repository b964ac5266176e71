// Package charts renders simulation results as self-contained HTML pages
// using go-echarts. These replace raster plots: the CLI writes one report
// file next to the CSV/JSONL exports.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/packsim/packsim/core/limits"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/sweep"
)

// WriteRunReport renders the full time-series page for one run: current,
// voltage, power, state of charge and temperature against simulated time.
func WriteRunReport(w io.Writer, title string, records []pack.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("charts: no records to render")
	}
	x := make([]string, len(records))
	for i, r := range records {
		x[i] = fmt.Sprintf("%.0f", r.TimeS)
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		seriesLine("Pack current (A)", "t (s)", x, records, func(r pack.Record) float64 { return r.PackCurrentA }),
		seriesLine("Pack voltage (V)", "t (s)", x, records, func(r pack.Record) float64 { return r.PackVoltageV }),
		seriesLine("Pack power (W)", "t (s)", x, records, func(r pack.Record) float64 { return r.PowerW }),
		seriesLine("State of charge", "t (s)", x, records, func(r pack.Record) float64 { return r.SOC }),
		temperatureLine(x, records),
	)
	return page.Render(w)
}

func seriesLine(title, xName string, x []string, records []pack.Record, get func(pack.Record) float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
	)
	data := make([]opts.LineData, len(records))
	for i, r := range records {
		data[i] = opts.LineData{Value: get(r)}
	}
	line.SetXAxis(x).AddSeries(title, data)
	return line
}

func temperatureLine(x []string, records []pack.Record) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Temperature (K)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	mean := make([]opts.LineData, len(records))
	peak := make([]opts.LineData, len(records))
	for i, r := range records {
		mean[i] = opts.LineData{Value: r.TempK}
		peak[i] = opts.LineData{Value: r.TempMaxK}
	}
	line.SetXAxis(x).
		AddSeries("mean", mean).
		AddSeries("peak", peak)
	return line
}

// WritePowerLimits renders discharge and charge power limits over an SOC grid.
func WritePowerLimits(w io.Writer, socs []float64, lims []limits.Limits) error {
	if len(socs) == 0 || len(socs) != len(lims) {
		return fmt.Errorf("charts: mismatched limit series %d/%d", len(socs), len(lims))
	}
	x := make([]string, len(socs))
	discharge := make([]opts.LineData, len(socs))
	charge := make([]opts.LineData, len(socs))
	for i, soc := range socs {
		x[i] = fmt.Sprintf("%.2f", soc)
		discharge[i] = opts.LineData{Value: lims[i].MaxDischargeW}
		charge[i] = opts.LineData{Value: lims[i].MaxChargeW}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Power limits vs SOC"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "SOC"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Power (W)"}),
	)
	line.SetXAxis(x).
		AddSeries("max discharge", discharge).
		AddSeries("max charge", charge)
	return line.Render(w)
}

// WriteSweepHeatmap renders peak temperature across the Ns x Np plane.
// Points sharing a cell keep the hottest value.
func WriteSweepHeatmap(w io.Writer, points []sweep.Point) error {
	if len(points) == 0 {
		return fmt.Errorf("charts: no sweep points to render")
	}
	nsIndex := map[int]int{}
	npIndex := map[int]int{}
	var nsAxis, npAxis []string
	for _, p := range points {
		if _, ok := nsIndex[p.SeriesCells]; !ok {
			nsIndex[p.SeriesCells] = len(nsAxis)
			nsAxis = append(nsAxis, fmt.Sprintf("%ds", p.SeriesCells))
		}
		if _, ok := npIndex[p.ParallelCells]; !ok {
			npIndex[p.ParallelCells] = len(npAxis)
			npAxis = append(npAxis, fmt.Sprintf("%dp", p.ParallelCells))
		}
	}
	hottest := map[[2]int]float64{}
	minT, maxT := points[0].PeakTempK, points[0].PeakTempK
	for _, p := range points {
		key := [2]int{nsIndex[p.SeriesCells], npIndex[p.ParallelCells]}
		if t, ok := hottest[key]; !ok || p.PeakTempK > t {
			hottest[key] = p.PeakTempK
		}
		if p.PeakTempK < minT {
			minT = p.PeakTempK
		}
		if p.PeakTempK > maxT {
			maxT = p.PeakTempK
		}
	}
	data := make([]opts.HeatMapData, 0, len(hottest))
	for key, t := range hottest {
		data = append(data, opts.HeatMapData{Value: [3]interface{}{key[0], key[1], t}})
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Peak temperature (K)"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: nsAxis}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: npAxis}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(minT),
			Max:        float32(maxT),
		}),
	)
	hm.AddSeries("peak_temp_k", data)
	return hm.Render(w)
}

// WriteRTEBar renders the energy totals of a round trip.
func WriteRTEBar(w io.Writer, rtePercent, energyOutWh, energyInWh float64) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Round-trip efficiency",
			Subtitle: fmt.Sprintf("RTE = %.1f%%", rtePercent),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Energy (Wh)"}),
	)
	bar.SetXAxis([]string{"discharged", "recharged"}).
		AddSeries("energy", []opts.BarData{{Value: energyOutWh}, {Value: energyInWh}})
	return bar.Render(w)
}
