package telemetry

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/packsim/packsim/core/pack"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

var csvHeader = []string{
	"time_s", "i_pack_a", "i_cell_a", "v_pack_v", "v_cell_v",
	"soc", "temp_k", "temp_max_k", "power_w", "heat_w", "phase",
}

// CSVSink writes step records as CSV rows. The header is emitted before
// the first row.
type CSVSink struct {
	w       *csv.Writer
	closer  io.Closer
	started bool
}

// NewCSVSink writes to the provided writer.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// NewCSVFileSink creates or truncates the file at path.
func NewCSVFileSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &CSVSink{w: csv.NewWriter(f), closer: f}, nil
}

// RecordStep appends one CSV row.
func (s *CSVSink) RecordStep(_ coretelemetry.RunMeta, rec pack.Record) error {
	if !s.started {
		if err := s.w.Write(csvHeader); err != nil {
			return err
		}
		s.started = true
	}
	row := []string{
		ftoa(rec.TimeS), ftoa(rec.PackCurrentA), ftoa(rec.CellCurrentA),
		ftoa(rec.PackVoltageV), ftoa(rec.CellVoltageV), ftoa(rec.SOC),
		ftoa(rec.TempK), ftoa(rec.TempMaxK), ftoa(rec.PowerW), ftoa(rec.HeatW),
		rec.Phase,
	}
	return s.w.Write(row)
}

// RecordRunSummary is a no-op: summaries go to the JSON export or the
// SQLite store, not into the row stream.
func (s *CSVSink) RecordRunSummary(coretelemetry.RunSummary) error { return nil }

// Flush drains the csv writer buffer.
func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file when the sink owns one.
func (s *CSVSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
