package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/packsim/packsim/core/pack"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

// stepLine is the JSONL wire format: run identity flattened next to the row.
type stepLine struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario,omitempty"`
	pack.Record
}

// summaryLine distinguishes the closing summary from step rows.
type summaryLine struct {
	Kind    string                    `json:"kind"`
	Summary coretelemetry.RunSummary `json:"summary"`
}

// RotatingJSONLSink streams telemetry to a JSONL file with automatic rotation.
type RotatingJSONLSink struct {
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLSink creates a sink with rotation options in megabytes and days.
func NewRotatingJSONLSink(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLSink, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   false,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLSink{logger: lj, path: path}, nil
}

// RecordStep appends one row, triggering rotation if needed.
func (s *RotatingJSONLSink) RecordStep(meta coretelemetry.RunMeta, rec pack.Record) error {
	enc := json.NewEncoder(s.logger)
	return enc.Encode(stepLine{RunID: meta.RunID, Scenario: meta.Scenario, Record: rec})
}

// RecordRunSummary appends the run summary as a tagged line.
func (s *RotatingJSONLSink) RecordRunSummary(sum coretelemetry.RunSummary) error {
	enc := json.NewEncoder(s.logger)
	return enc.Encode(summaryLine{Kind: "summary", Summary: sum})
}

func (s *RotatingJSONLSink) Flush() error { return nil }

// Close closes the underlying writer.
func (s *RotatingJSONLSink) Close() error { return s.logger.Close() }

// ReadSteps reads back all step rows for a run, including rotated files.
// Summary lines and rows from other runs are skipped.
func (s *RotatingJSONLSink) ReadSteps(runID string) ([]pack.Record, error) {
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	var res []pack.Record
	for _, f := range files {
		file, err := os.Open(f)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var line stepLine
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				continue
			}
			if line.RunID != runID {
				continue
			}
			res = append(res, line.Record)
		}
		_ = file.Close()
	}
	return res, nil
}
