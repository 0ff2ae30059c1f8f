package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion and settlement service

var (
	// Provider API metrics
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footypool_provider_calls_total",
			Help: "Total number of provider API calls",
		},
		[]string{"endpoint", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "footypool_provider_call_duration_seconds",
			Help:    "Duration of provider API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Batch metrics
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footypool_batches_total",
			Help: "Total number of ingestion batches",
		},
		[]string{"name", "status"},
	)

	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footypool_batch_items_total",
			Help: "Total number of ingestion batch items",
		},
		[]string{"name", "status"},
	)

	// Job metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footypool_job_runs_total",
			Help: "Total number of job runs",
		},
		[]string{"job", "status"},
	)

	JobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "footypool_job_run_duration_seconds",
			Help:    "Duration of job runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"job"},
	)

	LastSuccessfulRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "footypool_last_successful_run_timestamp",
			Help: "Timestamp of the last successful run per job",
		},
		[]string{"job"},
	)

	// Settlement metrics
	PredictionsSettled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "footypool_predictions_settled_total",
			Help: "Total number of prediction settlements written",
		},
	)

	FixturesSettled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "footypool_fixtures_settled_total",
			Help: "Total number of fixtures settled",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "footypool_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "footypool_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footypool_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// Database metrics
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "footypool_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "footypool_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordProviderCall records a provider API call metric
func RecordProviderCall(endpoint, status string, duration float64) {
	ProviderCallsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderCallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordBatch records a finished ingestion batch
func RecordBatch(name, status string) {
	BatchesTotal.WithLabelValues(name, status).Inc()
}

// RecordBatchItem records one processed batch item
func RecordBatchItem(name, status string) {
	BatchItemsTotal.WithLabelValues(name, status).Inc()
}

// RecordJobRun records a finished job run
func RecordJobRun(job, status string, duration float64) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
	JobRunDuration.WithLabelValues(job).Observe(duration)

	if status == "success" {
		LastSuccessfulRun.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordSettlement records one settled fixture
func RecordSettlement(predictions int) {
	FixturesSettled.Inc()
	PredictionsSettled.Add(float64(predictions))
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
