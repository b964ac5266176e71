// Package plugins keeps the registries that map configuration names to
// drive cycles and mission profiles. Builders register themselves in
// init, so importing the package is enough to make the builtins
// available.
package plugins

import (
	"fmt"

	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/mission"
)

// CycleFactory builds a drive cycle from a raw configuration map.
type CycleFactory func(name string, conf map[string]any) (cycles.Cycle, error)

// MissionFactory builds an aerospace duty profile from a raw
// configuration map.
type MissionFactory func(name string, conf map[string]any) (mission.Profile, error)

var (
	Cycles   = map[string]CycleFactory{}
	Missions = map[string]MissionFactory{}
)

func RegisterCycle(name string, f CycleFactory)     { Cycles[name] = f }
func RegisterMission(name string, f MissionFactory) { Missions[name] = f }

// NewCycle builds the cycle registered under name.
func NewCycle(name string, conf map[string]any) (cycles.Cycle, error) {
	f, ok := Cycles[name]
	if !ok {
		return cycles.Cycle{}, fmt.Errorf("unknown cycle %q", name)
	}
	return f(name, conf)
}

// NewMission builds the mission profile registered under name.
func NewMission(name string, conf map[string]any) (mission.Profile, error) {
	f, ok := Missions[name]
	if !ok {
		return mission.Profile{}, fmt.Errorf("unknown mission %q", name)
	}
	return f(name, conf)
}
