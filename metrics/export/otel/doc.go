// Package otel publishes portal engine counters as OpenTelemetry observable
// instruments.
//
// [NewExporter] registers an Int64ObservableCounter for each engine counter
// and an Int64ObservableGauge per histogram bucket. A single callback reads
// the engine snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
