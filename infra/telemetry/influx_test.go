package telemetry

import (
	"testing"

	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

// TestInfluxFallback ensures an unreachable server degrades to a NopSink
// instead of failing construction.
func TestInfluxFallback(t *testing.T) {
	sink := NewInfluxSinkWithFallback("http://127.0.0.1:1", "token", "org", "bucket")
	if _, ok := sink.(coretelemetry.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}
