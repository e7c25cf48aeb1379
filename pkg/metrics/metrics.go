// Package metrics exposes the Prometheus registry used by the roster client.
// All metrics are defined in their respective packages (client, cache, batch,
// pipeline, ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and documentation for all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the roster client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - mlb_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - mlb_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - mlb_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - mlb_retries_total{error_class} (Counter): Retry attempts by error class
//   - mlb_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - mlb_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Backoff Metrics (pkg/ratelimit):
//   - mlb_rate_limit_backoffs_total{status} (Counter): 429/503 responses that imposed a backoff
//   - mlb_rate_limit_blocks_total (Counter): Requests refused locally during a backoff
//
// Cache Metrics (pkg/cache):
//   - mlb_cache_hits_total{backend} (Counter): Fresh snapshots loaded
//   - mlb_cache_misses_total{reason} (Counter): Unusable snapshots by reason (missing, invalid, stale, below_threshold)
//   - mlb_cache_size_bytes{backend} (Gauge): Size of the last saved snapshot
//   - mlb_cache_errors_total{operation} (Counter): Backend errors by operation
//
// Batch Metrics (pkg/batch):
//   - mlb_batch_duration_seconds (Histogram): Duration of one roster batch
//   - mlb_batch_team_failures_total (Counter): Team rosters skipped after a failed fetch
//   - mlb_batch_players_fetched_total (Counter): Player records produced by batches
//
// Pipeline Metrics (pkg/pipeline):
//   - mlb_pipeline_cursor (Gauge): Next team index to fetch
//   - mlb_pipeline_players (Gauge): Aggregate set size
//   - mlb_pipeline_phase{phase} (Gauge): 1 for the current phase
//   - mlb_pipeline_refreshes_total (Counter): Refreshes requested
//   - mlb_pipeline_stale_results_total (Counter): Fetch results dropped after a refresh
//
// Server Metrics (internal/server):
//   - mlb_http_requests_total{route, status} (Counter): Backend relay requests
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(mlb_cache_hits_total[5m])) /
//   (sum(rate(mlb_cache_hits_total[5m])) + sum(rate(mlb_cache_misses_total[5m])))
//
//   # Team failure ratio
//   rate(mlb_batch_team_failures_total[5m])
//
//   # Request Error Rate
//   rate(mlb_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(mlb_request_duration_seconds_bucket[5m]))
