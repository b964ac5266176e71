// Package infra contains technical adapters such as telemetry sinks,
// chart rendering and error monitoring. These packages should depend
// only on the interfaces defined in the core packages.
package infra
