package plugins

import (
	"github.com/packsim/packsim/core/cycles"
	"github.com/packsim/packsim/core/factory"
	"github.com/packsim/packsim/core/mission"

	// Telemetry sinks register themselves on import.
	_ "github.com/packsim/packsim/infra/telemetry"
)

type constantConf struct {
	CurrentA float64 `json:"current_a"`
	TotalS   float64 `json:"total_s"`
	DtS      float64 `json:"dt_s"`
}

type pulseConf struct {
	CurrentA float64 `json:"current_a"`
	OnS      float64 `json:"on_s"`
	OffS     float64 `json:"off_s"`
	TotalS   float64 `json:"total_s"`
	DtS      float64 `json:"dt_s"`
}

type syntheticConf struct {
	TotalS       float64 `json:"total_s"`
	DtS          float64 `json:"dt_s"`
	PeakCurrentA float64 `json:"peak_current_a"`
	Seed         uint64  `json:"seed"`
}

type csvConf struct {
	Path       string `json:"path"`
	TimeCol    string `json:"time_col"`
	CurrentCol string `json:"current_col"`
}

func init() {
	for _, kind := range cycles.Kinds() {
		k := kind
		RegisterCycle(string(k), func(name string, _ map[string]any) (cycles.Cycle, error) {
			return cycles.Standard(k)
		})
	}

	RegisterCycle("cc", func(name string, conf map[string]any) (cycles.Cycle, error) {
		cc := constantConf{CurrentA: 60, TotalS: 3600, DtS: 1}
		if err := factory.Decode(conf, &cc); err != nil {
			return cycles.Cycle{}, err
		}
		return cycles.Constant(cc.CurrentA, cc.TotalS, cc.DtS)
	})
	RegisterCycle("pulse", func(name string, conf map[string]any) (cycles.Cycle, error) {
		pc := pulseConf{CurrentA: 120, OnS: 10, OffS: 50, TotalS: 3600, DtS: 1}
		if err := factory.Decode(conf, &pc); err != nil {
			return cycles.Cycle{}, err
		}
		return cycles.Pulse(pc.CurrentA, pc.OnS, pc.OffS, pc.TotalS, pc.DtS)
	})
	RegisterCycle("synthetic", func(name string, conf map[string]any) (cycles.Cycle, error) {
		sc := syntheticConf{TotalS: 600, DtS: 1, PeakCurrentA: 120, Seed: cycles.DefaultSyntheticSeed}
		if err := factory.Decode(conf, &sc); err != nil {
			return cycles.Cycle{}, err
		}
		return cycles.Synthetic(sc.TotalS, sc.DtS, sc.PeakCurrentA, sc.Seed), nil
	})
	RegisterCycle("csv", func(name string, conf map[string]any) (cycles.Cycle, error) {
		cc := csvConf{TimeCol: "time_s", CurrentCol: "current_a"}
		if err := factory.Decode(conf, &cc); err != nil {
			return cycles.Cycle{}, err
		}
		return cycles.LoadCSV(cc.Path, cc.TimeCol, cc.CurrentCol)
	})

	RegisterMission("electric_aircraft", func(string, map[string]any) (mission.Profile, error) {
		return mission.ElectricAircraft(), nil
	})
	RegisterMission("evtol", func(string, map[string]any) (mission.Profile, error) {
		return mission.EVTOL(), nil
	})
	RegisterMission("satellite", func(string, map[string]any) (mission.Profile, error) {
		return mission.Satellite(), nil
	})
	RegisterMission("emergency", func(string, map[string]any) (mission.Profile, error) {
		return mission.Emergency(), nil
	})
}
