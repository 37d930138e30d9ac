// Package prometheus provides Prometheus collectors for misauth metrics.
//
// [NewPrometheusExporter] accepts a [misauth.Machine] and exposes an [http.Handler]
// that renders all misauth counters and histograms in Prometheus text exposition format.
// Counter names are prefixed misauth_*_total; the single histogram is
// misauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
