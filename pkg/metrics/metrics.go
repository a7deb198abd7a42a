// Package metrics provides the Prometheus exposition endpoint for the
// article loader. All metrics are defined in their respective packages
// (nyt, loader, pacing, cache, sink) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the loader.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/nyt):
//   - nyt_requests_total{outcome} (Counter): Search requests by outcome
//     (docs, fault, error, empty, http_error, network_error, decode_error)
//   - nyt_request_duration_seconds{outcome} (Histogram): Request duration
//   - nyt_documents_total (Counter): Documents returned across all pages
//
// Loader Metrics (pkg/loader):
//   - nyt_loader_batches_total (Counter): Batches emitted
//   - nyt_loader_records_total (Counter): Unique records buffered
//   - nyt_loader_duplicates_total (Counter): Duplicates suppressed by the seen-set
//   - nyt_loader_faults_total (Counter): Transient faults absorbed by retries
//   - nyt_loader_watermark_advances_total (Counter): Watermark advances at the page ceiling
//
// Pacing Metrics (pkg/pacing):
//   - nyt_pacing_waits_total{kind} (Counter): Waits by kind (cooldown, fault_recovery)
//   - nyt_pacing_wait_seconds{kind} (Histogram): Wait duration by kind
//
// Cache Metrics (pkg/cache):
//   - nyt_cache_hits_total (Counter): Search page cache hits
//   - nyt_cache_misses_total (Counter): Search page cache misses
//   - nyt_cache_errors_total{operation} (Counter): Cache operation errors
//
// Sink Metrics (pkg/sink):
//   - nyt_sink_records_total{sink} (Counter): Records written by sink type
//
// Example Prometheus Queries:
//
//   # Duplicate rate
//   rate(nyt_loader_duplicates_total[5m]) /
//   (rate(nyt_loader_records_total[5m]) + rate(nyt_loader_duplicates_total[5m]))
//
//   # Fault rate
//   rate(nyt_requests_total{outcome="fault"}[5m])
//
//   # Cache hit rate
//   rate(nyt_cache_hits_total[5m]) /
//   (rate(nyt_cache_hits_total[5m]) + rate(nyt_cache_misses_total[5m]))
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(nyt_request_duration_seconds_bucket[5m]))
