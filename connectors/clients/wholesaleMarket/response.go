package wholesalemarket

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/packsim/packsim/connectors"
)

// Peak hours per the usual French day-ahead convention.
const (
	peakStartHour = 8
	peakEndHour   = 20
)

type Response struct {
	FrancePowerExchanges []struct {
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		UpdatedDate string `json:"updated_date"`
		Values      []struct {
			StartDate string  `json:"start_date"`
			EndDate   string  `json:"end_date"`
			Value     float64 `json:"value"`
			Price     float64 `json:"price"`
		} `json:"values"`
	} `json:"france_power_exchanges"`
}

// Summary averages the fetched window into overall, peak (08-20h) and
// off-peak prices.
func (r *Response) Summary() (connectors.PriceSummary, error) {
	var sum, peakSum, offSum float64
	var n, peakN, offN int
	for _, exchange := range r.FrancePowerExchanges {
		for _, v := range exchange.Values {
			parsedTime, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return connectors.PriceSummary{}, fmt.Errorf("failed to parse time: %w", err)
			}
			sum += v.Price
			n++
			if h := parsedTime.Hour(); h >= peakStartHour && h < peakEndHour {
				peakSum += v.Price
				peakN++
			} else {
				offSum += v.Price
				offN++
			}
		}
	}
	if n == 0 {
		return connectors.PriceSummary{}, fmt.Errorf("no price samples in response")
	}
	s := connectors.PriceSummary{AvgEURPerMWh: sum / float64(n), Samples: n}
	if peakN > 0 {
		s.PeakEURPerMWh = peakSum / float64(peakN)
	}
	if offN > 0 {
		s.OffPeakEURPerMWh = offSum / float64(offN)
	}
	return s, nil
}

// PriceChartHTML renders the fetched price series as an HTML line chart.
func (r *Response) PriceChartHTML() (string, error) {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Price Chart"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date & Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price (EUR/MWh)"}),
	)

	var xAxis []string
	var yAxis []opts.LineData
	for _, exchange := range r.FrancePowerExchanges {
		for _, v := range exchange.Values {
			parsedTime, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return "", fmt.Errorf("failed to parse time: %w", err)
			}
			xAxis = append(xAxis, parsedTime.Format("2006-01-02 15:04"))
			yAxis = append(yAxis, opts.LineData{Value: v.Price})
		}
	}

	line.SetXAxis(xAxis).AddSeries("Price", yAxis)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return buf.String(), nil
}
