package telemetry

import "github.com/packsim/packsim/core/factory"

// Config defines settings for telemetry sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort exposes /metrics over HTTP when non-empty. The sink
	// itself only registers collectors; the app service owns the listener.
	PrometheusPort string `json:"prometheus_port"`
}
