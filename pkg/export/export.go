// Package export serializes telemetry series and run summaries for
// downstream analysis tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/report"
)

// WriteJSON writes the telemetry series to w in JSON format.
func WriteJSON(w io.Writer, records []pack.Record) error {
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteCSV writes the telemetry series to w with a header row.
func WriteCSV(w io.Writer, records []pack.Record) error {
	cw := csv.NewWriter(w)
	header := []string{"time_s", "i_pack_a", "v_pack_v", "soc", "temp_k", "power_w", "heat_w", "phase"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			formatFloat(r.TimeS),
			formatFloat(r.PackCurrentA),
			formatFloat(r.PackVoltageV),
			formatFloat(r.SOC),
			formatFloat(r.TempK),
			formatFloat(r.PowerW),
			formatFloat(r.HeatW),
			r.Phase,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetricsJSON writes a run metrics block as indented JSON.
func WriteMetricsJSON(w io.Writer, m report.Metrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
