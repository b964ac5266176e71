package telemetry_test

import (
	"testing"

	"github.com/packsim/packsim/core/factory"
	"github.com/packsim/packsim/core/telemetry"
	_ "github.com/packsim/packsim/infra/telemetry"
)

/*
TestSinkFactory_Builtins verifies registration via infra/telemetry/factory.go.

	Cases:
	- instantiate builtin nop sink
	- unknown type returns error
*/
func TestSinkFactory_Builtins(t *testing.T) {
	s, err := telemetry.NewSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if s == nil {
		t.Fatal("expected sink instance")
	}
	if _, err := telemetry.NewSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

/*
TestNewSink_Multi validates NewSink behavior with zero, one, and multiple configs.
Cases:
  - no config -> NopSink
  - two configs -> MultiSink with two sub-sinks
*/
func TestNewSink_Multi(t *testing.T) {
	s, err := telemetry.NewSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(telemetry.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	cfgs := []factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}}
	s, err = telemetry.NewSink(cfgs)
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*telemetry.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}
}
