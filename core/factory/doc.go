// Package factory provides a small generic registry used to instantiate
// modules from configuration. Modules are defined by a type string and a map
// of raw settings. Factories decode the settings into typed structs and
// return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[telemetry.Sink]()
//	reg.Register("csv", func(conf map[string]any) (telemetry.Sink, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return telemetry.NewCSVSink(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": "run.csv"}})
package factory
