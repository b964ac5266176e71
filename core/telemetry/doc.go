// Package telemetry defines the sink contract simulation drivers publish
// their step records and run summaries to. Concrete sinks (InfluxDB,
// Prometheus, JSONL, CSV, SQLite, MQTT) live in infra/telemetry and are
// constructed through the factory registry from configuration.
package telemetry
