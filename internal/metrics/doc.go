// Package metrics provides metrics collection for the request router.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Health probe outcomes per backend
//   - Forward attempts per backend, with response times (P50, P95, P99)
//     and HTTP status code distribution
//   - Dispatch outcomes (forwarded or unavailable) and attempts per dispatch
//
// The collector runs in a dedicated goroutine. Emit never blocks the request
// path; events are dropped when the buffer is full. Every event updates both
// the JSON snapshot served by StatsHandler and the Prometheus collectors
// served by PrometheusHandler.
//
// Example usage:
//
//	collector := metrics.NewCollector(1024, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventForwardAttempted,
//		Backend:    "http://localhost:8081",
//		Duration:   15 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot("round-robin")
package metrics
