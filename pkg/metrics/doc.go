// Package metrics provides Prometheus instrumentation for tokengate components.
//
// # Quick Start
//
// Wrap a bucket with the instrumented limiter and expose the registry:
//
//	reg := prometheus.NewRegistry()
//	limiter := bucket.NewWithMetrics(tb, "api", metrics.Config{Enabled: true, Registry: reg})
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Available Metrics
//
//   - tokengate_ratelimit_requests_total: tokens requested
//   - tokengate_ratelimit_allowed_total: tokens granted
//   - tokengate_ratelimit_denied_total: tokens denied, or abandoned by canceled waiters
//   - tokengate_ratelimit_wait_duration_seconds: time spent in Acquire
//   - tokengate_ratelimit_tokens_available: tokens available after the last operation
//   - tokengate_ratelimit_waiting: callers queued in Acquire
//   - tokengate_handler_calls_total: rate limited handler calls by outcome
//   - tokengate_handler_duration_seconds: time spent in the downstream handler
//
// # Labels
//
//   - limiter_type: always "token_bucket"
//   - limiter_name: user-provided name for the limiter instance
//   - handler_name: user-provided name for the wrapped handler
//   - outcome: "success", "inner_error", "limited" or "canceled"
//
// Config.Namespace replaces the "tokengate" prefix and Config.Labels are
// attached to every metric as constant labels.
package metrics
