// Package app wires the configuration into a runnable simulation
// service: pack assembly, drive cycle, telemetry sinks and artifact
// writers.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/packsim/packsim/app/plugins"
	"github.com/packsim/packsim/config"
	coremonitoring "github.com/packsim/packsim/core/monitoring"
	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/report"
	"github.com/packsim/packsim/core/sim"
	"github.com/packsim/packsim/core/telemetry"
	"github.com/packsim/packsim/infra/charts"
	"github.com/packsim/packsim/infra/logger"
	"github.com/packsim/packsim/infra/monitoring"
	infratelemetry "github.com/packsim/packsim/infra/telemetry"
	"github.com/packsim/packsim/internal/eventbus"
	"github.com/packsim/packsim/pkg/export"
)

// StepEvent is published on the bus for every simulated step.
type StepEvent struct {
	Meta   telemetry.RunMeta
	Record pack.Record
}

// SummaryEvent is published once a run completes.
type SummaryEvent struct {
	Summary telemetry.RunSummary
}

// Service orchestrates one configured simulation run.
type Service struct {
	cfg       *config.Config
	sink      telemetry.Sink
	steps     *eventbus.Bus[StepEvent]
	summaries *eventbus.Bus[SummaryEvent]
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	sink, err := telemetry.NewSink(cfg.Telemetry.Sinks)
	if err != nil {
		return nil, fmt.Errorf("telemetry sinks: %w", err)
	}
	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremonitoring.Init(monitor)
	return &Service{
		cfg:       cfg,
		sink:      sink,
		steps:     eventbus.New[StepEvent](),
		summaries: eventbus.New[SummaryEvent](),
		log:       logger.New("service"),
	}, nil
}

// Steps exposes the step event stream; subscribe before Run.
func (s *Service) Steps() *eventbus.Bus[StepEvent] { return s.steps }

// Summaries exposes the run summary stream; subscribe before Run.
func (s *Service) Summaries() *eventbus.Bus[SummaryEvent] { return s.summaries }

// Assembly builds the configured pack, advanced or mean-field.
func (s *Service) Assembly() (sim.Assembly, error) { return BuildAssembly(s.cfg) }

// BuildAssembly constructs the pack assembly the configuration describes.
func BuildAssembly(cfg *config.Config) (sim.Assembly, error) {
	if cfg.Simulation.AdvancedPack {
		return pack.NewAdvanced(cfg.Cell, cfg.Pack, cfg.Thermal, cfg.Advanced.Options, cfg.Simulation.InitialSOC)
	}
	return pack.New(cfg.Cell, cfg.Pack, cfg.Thermal, cfg.Simulation.InitialSOC)
}

// Run executes the configured scenario, streams telemetry to the sinks
// and the bus, and writes the run artifacts.
func (s *Service) Run(ctx context.Context) (err error) {
	defer coremonitoring.Recover()
	meta := telemetry.RunMeta{
		RunID:     uuid.NewString(),
		Scenario:  s.cfg.Simulation.Scenario,
		StartedAt: time.Now(),
	}
	defer func() {
		coremonitoring.CaptureException(err, coremonitoring.RunTags(meta.RunID, meta.Scenario))
	}()

	if port := s.cfg.Telemetry.PrometheusPort; port != "" {
		go func() {
			if err := infratelemetry.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("run %s: scenario %s", meta.RunID, meta.Scenario)

	cycle, err := plugins.NewCycle(s.cfg.Simulation.Scenario, nil)
	if err != nil {
		return fmt.Errorf("build cycle: %w", err)
	}
	assembly, err := s.Assembly()
	if err != nil {
		return fmt.Errorf("build pack: %w", err)
	}

	start := time.Now()
	records := sim.New(assembly).Run(cycle)
	prevT := 0.0
	if len(records) > 0 {
		prevT = records[0].TimeS
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cfg.Simulation.Live {
			if err := pace(ctx, rec.TimeS-prevT); err != nil {
				return err
			}
			prevT = rec.TimeS
		}
		if err := s.sink.RecordStep(meta, rec); err != nil {
			s.log.Warnf("record step: %v", err)
		}
		s.steps.Publish(StepEvent{Meta: meta, Record: rec})
	}

	metrics, err := report.Compute(records, s.cfg.Thermal.MassKg, s.packCapacityAh())
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}
	summary := telemetry.RunSummary{
		Meta:      meta,
		Metrics:   metrics,
		DurationS: time.Since(start).Seconds(),
	}
	if err := s.sink.RecordRunSummary(summary); err != nil {
		s.log.Warnf("record summary: %v", err)
	}
	s.summaries.Publish(SummaryEvent{Summary: summary})

	if err := s.writeArtifacts(records, metrics); err != nil {
		return err
	}
	if err := report.WriteTable(os.Stdout, metrics); err != nil {
		s.log.Warnf("report table: %v", err)
	}
	s.log.Infof("run %s: %d steps, RTE %.1f%%, peak %.1f K",
		meta.RunID, len(records), metrics.RTEPercent, metrics.PeakTempK)
	return s.sink.Flush()
}

// pace sleeps for the simulated step interval, bailing out early when
// the context is cancelled.
func pace(ctx context.Context, dtS float64) error {
	if dtS <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(dtS * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// packCapacityAh is the nameplate capacity of the parallel group.
func (s *Service) packCapacityAh() float64 {
	return s.cfg.Cell.CapacityAh * float64(s.cfg.Pack.ParallelCells)
}

func (s *Service) writeArtifacts(records []pack.Record, metrics report.Metrics) error {
	dir := s.cfg.Simulation.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"records.csv", func(f *os.File) error { return export.WriteCSV(f, records) }},
		{"records.json", func(f *os.File) error { return export.WriteJSON(f, records) }},
		{"metrics.json", func(f *os.File) error { return export.WriteMetricsJSON(f, metrics) }},
		{"report.html", func(f *os.File) error {
			return charts.WriteRunReport(f, s.cfg.Simulation.Scenario, records)
		}},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name))
		if err != nil {
			return fmt.Errorf("create %s: %w", w.name, err)
		}
		if err := w.write(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", w.name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the telemetry sinks and the event bus and flushes
// buffered monitoring events.
func (s *Service) Close() error {
	s.steps.Close()
	s.summaries.Close()
	coremonitoring.Flush(2 * time.Second)
	return s.sink.Close()
}
