package telemetry

import (
	"github.com/packsim/packsim/core/factory"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

// init registers the built-in telemetry sinks.
func init() {
	_ = coretelemetry.RegisterSink("nop", func(map[string]any) (coretelemetry.Sink, error) {
		return coretelemetry.NopSink{}, nil
	})

	_ = coretelemetry.RegisterSink("prometheus", func(map[string]any) (coretelemetry.Sink, error) {
		return NewPromSink()
	})

	_ = coretelemetry.RegisterSink("influx", func(conf map[string]any) (coretelemetry.Sink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coretelemetry.RegisterSink("jsonl", func(conf map[string]any) (coretelemetry.Sink, error) {
		var c struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "packsim.jsonl"
		}
		return NewRotatingJSONLSink(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})

	_ = coretelemetry.RegisterSink("csv", func(conf map[string]any) (coretelemetry.Sink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "packsim.csv"
		}
		return NewCSVFileSink(c.Path)
	})

	_ = coretelemetry.RegisterSink("sqlite", func(conf map[string]any) (coretelemetry.Sink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "packsim.db"
		}
		return NewSQLiteStore(c.Path)
	})

	_ = coretelemetry.RegisterSink("mqtt", func(conf map[string]any) (coretelemetry.Sink, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTSink(c)
	})
}
