package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/packsim/packsim/core/pack"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

func TestPromSinkCountsSteps(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	meta := coretelemetry.RunMeta{Scenario: "udds"}
	for i := 0; i < 5; i++ {
		rec := pack.Record{TimeS: float64(i), PackVoltageV: 148, SOC: 0.7, TempMaxK: 300, Phase: "discharge"}
		if err := sink.RecordStep(meta, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got := testutil.ToFloat64(sink.steps.WithLabelValues("udds", "discharge"))
	if got != 5 {
		t.Fatalf("steps_total = %v, want 5", got)
	}
	if v := testutil.ToFloat64(sink.soc); v != 0.7 {
		t.Fatalf("soc gauge = %v, want 0.7", v)
	}
}

func TestPromSinkReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
