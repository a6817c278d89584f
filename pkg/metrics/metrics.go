// Package metrics provides the centralized Prometheus registry reference
// for the ERS client. All metrics are defined in their respective
// packages (ers, ratelimit, pagination, fanout, cache) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the ERS client.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Gate Metrics (pkg/ratelimit):
//   - ise_gate_in_flight (Gauge): Calls currently holding a gate ticket
//   - ise_gate_admissions_total (Counter): Calls admitted through the gate
//   - ise_gate_wait_seconds (Histogram): Time spent waiting for admission
//
// Request Metrics (pkg/ers):
//   - ise_requests_total{verb, outcome} (Counter): Calls by verb and outcome class
//   - ise_request_duration_seconds{verb} (Histogram): Call duration by verb
//
// Pagination Metrics (pkg/pagination):
//   - ise_pages_fetched_total (Counter): Pages fetched during aggregation
//   - ise_page_failures_total (Counter): Follow-up pages that failed
//
// Fan-out Metrics (pkg/fanout):
//   - ise_fanout_items_total (Counter): Items dispatched through fan-out
//   - ise_fanout_batch_size (Histogram): Item count per batch
//
// Cache Metrics (pkg/cache):
//   - ise_cache_hits_total (Counter): Collection cache hits
//   - ise_cache_misses_total (Counter): Collection cache misses
//   - ise_cache_invalidations_total (Counter): Keys dropped after mutations
//   - ise_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Gate saturation
//   ise_gate_in_flight / 30
//
//   # Outcome error rate
//   sum(rate(ise_requests_total{outcome!="success"}[5m])) /
//   sum(rate(ise_requests_total[5m]))
//
//   # P95 admission wait
//   histogram_quantile(0.95, rate(ise_gate_wait_seconds_bucket[5m]))
//
//   # Cache hit rate
//   rate(ise_cache_hits_total[5m]) /
//   (rate(ise_cache_hits_total[5m]) + rate(ise_cache_misses_total[5m]))
