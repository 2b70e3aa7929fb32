// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	AlertsConsumed *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec
	PollTimeouts   prometheus.Counter
	ConsumerLag    *prometheus.GaugeVec

	// API client metrics
	APIRequestLatency *prometheus.HistogramVec
	APIRequestErrors  *prometheus.CounterVec
	APIRetries        *prometheus.CounterVec

	// Bulk fan-out metrics
	BulkBatches        *prometheus.CounterVec
	CrossMatchAttached *prometheus.CounterVec

	// Cutout cache metrics
	CutoutCacheHits   prometheus.Counter
	CutoutCacheMisses prometheus.Counter

	// Archive metrics
	AlertsArchived      *prometheus.CounterVec
	PhotometryArchived  *prometheus.CounterVec
	ArchiveErrors       *prometheus.CounterVec
	DBQueryDuration     *prometheus.HistogramVec
	LastAlertReceivedAt prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "babamul"
	}

	return &Metrics{
		AlertsConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "alerts_consumed_total",
			Help:      "Total number of alerts decoded from the stream by survey",
		}, []string{"survey"}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "decode_errors_total",
			Help:      "Total number of stream records that failed to decode",
		}, []string{"topic", "stage"}),
		PollTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "poll_timeouts_total",
			Help:      "Total number of polls that returned no message before the timeout",
		}),
		ConsumerLag: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "consumer_lag",
			Help:      "Messages between the last committed offset and the partition head",
		}, []string{"topic"}),

		APIRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "REST API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		APIRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_errors_total",
			Help:      "Total number of failed REST API requests by kind",
		}, []string{"operation", "kind"}),
		APIRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Total number of retried REST API attempts",
		}, []string{"operation"}),

		BulkBatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "batches_total",
			Help:      "Total number of bulk batches dispatched by status",
		}, []string{"operation", "status"}),
		CrossMatchAttached: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "cross_matches_returned_total",
			Help:      "Total number of objects with cross-matches returned by bulk requests",
		}, []string{"survey"}),

		CutoutCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cutouts",
			Name:      "cache_hits_total",
			Help:      "Total number of cutout cache hits",
		}),
		CutoutCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cutouts",
			Name:      "cache_misses_total",
			Help:      "Total number of cutout cache misses",
		}),

		AlertsArchived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "alerts_total",
			Help:      "Total number of alerts written to the archive",
		}, []string{"survey"}),
		PhotometryArchived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "photometry_points_total",
			Help:      "Total number of light-curve points written to the archive",
		}, []string{"survey"}),
		ArchiveErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "errors_total",
			Help:      "Total number of archive write failures",
		}, []string{"store"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		LastAlertReceivedAt: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_alert_received_timestamp",
			Help:      "Unix timestamp of the last alert decoded from the stream",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAlertConsumed increments the consumed counter and refreshes the health gauge.
func RecordAlertConsumed(survey string) {
	DefaultMetrics.AlertsConsumed.WithLabelValues(survey).Inc()
	DefaultMetrics.LastAlertReceivedAt.SetToCurrentTime()
}

// RecordDecodeError records a record that failed at the given stage ("avro" or "schema").
func RecordDecodeError(topic, stage string) {
	DefaultMetrics.DecodeErrors.WithLabelValues(topic, stage).Inc()
}

// RecordPollTimeout increments the poll timeout counter.
func RecordPollTimeout() {
	DefaultMetrics.PollTimeouts.Inc()
}

// UpdateConsumerLag sets the lag gauge for a topic.
func UpdateConsumerLag(topic string, lag int64) {
	DefaultMetrics.ConsumerLag.WithLabelValues(topic).Set(float64(lag))
}

// RecordAPIRequest records REST API call metrics. kind is empty on success.
func RecordAPIRequest(operation string, seconds float64, kind string) {
	DefaultMetrics.APIRequestLatency.WithLabelValues(operation).Observe(seconds)
	if kind != "" {
		DefaultMetrics.APIRequestErrors.WithLabelValues(operation, kind).Inc()
	}
}

// RecordAPIRetry increments the retry counter for an operation.
func RecordAPIRetry(operation string) {
	DefaultMetrics.APIRetries.WithLabelValues(operation).Inc()
}

// RecordBulkBatch records one dispatched bulk batch.
func RecordBulkBatch(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	DefaultMetrics.BulkBatches.WithLabelValues(operation, status).Inc()
}

// RecordCrossMatchesReturned counts objects with cross-matches in a bulk response.
func RecordCrossMatchesReturned(survey string, n int) {
	DefaultMetrics.CrossMatchAttached.WithLabelValues(survey).Add(float64(n))
}

// RecordCutoutCache records a cutout cache lookup.
func RecordCutoutCache(hit bool) {
	if hit {
		DefaultMetrics.CutoutCacheHits.Inc()
		return
	}
	DefaultMetrics.CutoutCacheMisses.Inc()
}

// RecordAlertArchived records one archived alert and its light-curve size.
func RecordAlertArchived(survey string, points int) {
	DefaultMetrics.AlertsArchived.WithLabelValues(survey).Inc()
	DefaultMetrics.PhotometryArchived.WithLabelValues(survey).Add(float64(points))
}

// RecordArchiveError records a failed archive write.
func RecordArchiveError(store string) {
	DefaultMetrics.ArchiveErrors.WithLabelValues(store).Inc()
}

// RecordDBQuery records database query duration.
func RecordDBQuery(database, operation string, seconds float64) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
}
