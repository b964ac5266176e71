// Package monitoring defines the error-reporting seam. Simulation code
// reports through the package-level helpers; the adapter behind them is
// chosen at wiring time and defaults to a no-op.
package monitoring

import "time"

// Monitor receives errors and panics raised during a run.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything. It is the default until Init is called.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init replaces the active monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// RunTags builds the standard tag set attached to run-scoped errors.
func RunTags(runID, scenario string) map[string]string {
	return map[string]string{"run_id": runID, "scenario": scenario}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	current.CaptureException(err, tags)
}

// Recover captures panics in goroutines; call it deferred.
func Recover() {
	current.Recover()
}

// Flush blocks until buffered events are delivered or the timeout lapses.
func Flush(d time.Duration) {
	current.Flush(d)
}
