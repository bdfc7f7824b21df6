// Package prometheus provides Prometheus collectors for credo metrics.
//
// [NewPrometheusExporter] accepts a [credo.Engine] and exposes an [http.Handler]
// that renders all credo counters and histograms in Prometheus text exposition format.
// Counter names are prefixed credo_*_total; the single histogram is
// credo_sign_in_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
