// Package metrics exposes sync, marketplace API and stock adjustment
// metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/inventory"
)

// Prometheus metric names.
const (
	MetricSyncRunsTotal           = "invsync_sync_runs_total"
	MetricSyncRecordsTotal        = "invsync_sync_records_total"
	MetricSyncDurationSeconds     = "invsync_sync_duration_seconds"
	MetricAPIRetriesTotal         = "invsync_api_retries_total"
	MetricStockAdjustmentsTotal   = "invsync_stock_adjustments_total"
	MetricHTTPRequestsTotal       = "invsync_http_requests_total"
	MetricHTTPRequestDurationSecs = "invsync_http_request_duration_seconds"
)

// Result label values
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// Recorder owns a private registry with every invsync metric.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Recorder struct {
	registry *prometheus.Registry

	syncRuns     *prometheus.CounterVec
	syncRecords  *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	apiRetries   *prometheus.CounterVec
	adjustments  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder with the Go runtime and process collectors
// registered alongside the application metrics
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSyncRunsTotal,
			Help: "Total number of marketplace sync runs.",
		}, []string{"type", "category", "result"}),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSyncRecordsTotal,
			Help: "Total number of records processed by sync runs.",
		}, []string{"type", "category", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSyncDurationSeconds,
			Help:    "Duration of marketplace sync runs.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 180, 600, 1800},
		}, []string{"type", "category"}),
		apiRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAPIRetriesTotal,
			Help: "Total number of retried marketplace API calls.",
		}, []string{"type", "reason"}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStockAdjustmentsTotal,
			Help: "Total number of stock adjustment requests.",
		}, []string{"type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDurationSecs,
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.syncRuns,
		r.syncRecords,
		r.syncDuration,
		r.apiRetries,
		r.adjustments,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveSync records one finished sync run
func (r *Recorder) ObserveSync(marketplace integration.MarketplaceType, result *integration.SyncResult) {
	if result == nil {
		return
	}
	mt, category := string(marketplace), string(result.Category)

	outcome := ResultSuccess
	if !result.Success {
		outcome = ResultFailure
	}
	r.syncRuns.WithLabelValues(mt, category, outcome).Inc()
	r.syncRecords.WithLabelValues(mt, category, "synced").Add(float64(result.SyncedCount))
	r.syncRecords.WithLabelValues(mt, category, "skipped").Add(float64(result.SkippedCount))
	r.syncRecords.WithLabelValues(mt, category, "failed").Add(float64(len(result.Errors)))
	if d := result.Duration(); d > 0 {
		r.syncDuration.WithLabelValues(mt, category).Observe(d.Seconds())
	}
}

// ObserveRetry records one retried marketplace API call
func (r *Recorder) ObserveRetry(marketplace integration.MarketplaceType, reason string) {
	r.apiRetries.WithLabelValues(string(marketplace), reason).Inc()
}

// ObserveAdjustment records one stock adjustment request
func (r *Recorder) ObserveAdjustment(adjType inventory.AdjustmentType, result string) {
	r.adjustments.WithLabelValues(string(adjType), result).Inc()
}

// ObserveHTTPRequest records one served HTTP request
func (r *Recorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, classifyStatus(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// classifyStatus buckets an HTTP status code into its class
func classifyStatus(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
