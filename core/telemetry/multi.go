package telemetry

import (
	"errors"

	"github.com/packsim/packsim/core/pack"
)

// MultiSink fans records out to multiple sinks, aggregating their errors so
// one failing sink cannot hide the others.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStep forwards the record to all sinks.
func (m *MultiSink) RecordStep(meta RunMeta, rec pack.Record) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordStep(meta, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRunSummary forwards the summary to all sinks.
func (m *MultiSink) RecordRunSummary(s RunSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordRunSummary(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes all sinks.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all sinks.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
