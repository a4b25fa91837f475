// Package prometheus exposes portal engine counters through
// github.com/prometheus/client_golang.
//
// [NewCollector] adapts an engine snapshot to a prometheus.Collector;
// [Handler] mounts it on a private registry. Counter names are prefixed
// portal_*_total; the single histogram is portal_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
