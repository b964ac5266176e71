package telemetry

import (
	"time"

	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/report"
)

// RunMeta identifies one simulation run across every sink.
type RunMeta struct {
	RunID     string    `json:"run_id"`
	Scenario  string    `json:"scenario"`
	StartedAt time.Time `json:"started_at"`
}

// RunSummary is the aggregate emitted once a run completes.
type RunSummary struct {
	Meta      RunMeta        `json:"meta"`
	Metrics   report.Metrics `json:"metrics"`
	DurationS float64        `json:"duration_s"`
}

// Sink records simulation telemetry for observability and export purposes.
// Implementations must tolerate being called once per simulated step.
type Sink interface {
	RecordStep(meta RunMeta, rec pack.Record) error
	RecordRunSummary(s RunSummary) error
	Flush() error
	Close() error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep(RunMeta, pack.Record) error { return nil }
func (NopSink) RecordRunSummary(RunSummary) error     { return nil }
func (NopSink) Flush() error                          { return nil }
func (NopSink) Close() error                          { return nil }
