// Package metrics provides Prometheus instrumentation for the recommendation
// and courier ranking pipelines: per-stage latency, cache efficiency, AHP/TOPSIS
// scoring quality, task queue depth, and circuit breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Recommendation Pipeline (Core A)

	RecommendationStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_stage_duration_seconds",
			Help:    "Duration of each recommendation pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "sentiment", "embedding_search", "ranking", "cache_lookup"
	)

	RecommendationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"result"}, // "success", "empty", "error"
	)

	SentimentScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_score",
			Help:    "Distribution of computed sentiment scores",
			Buckets: []float64{-1.0, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1.0},
		},
	)

	EmbeddingSearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_search_candidates",
			Help:    "Number of candidates returned by a nearest-neighbor search",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Cache (C8)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache lookups that hit (exact, fuzzy, or product-level)",
		},
		[]string{"tier"}, // "exact", "fuzzy", "product"
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache lookups that missed all tiers",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of entries held in the cache",
		},
	)

	// Courier Ranking Pipeline (Core B)

	AHPConsistencyRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ahp_consistency_ratio",
			Help:    "Consistency ratio of AHP-derived criteria weight matrices",
			Buckets: []float64{0, 0.02, 0.05, 0.08, 0.1, 0.15, 0.2, 0.3},
		},
	)

	TOPSISClosenessCoefficient = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topsis_closeness_coefficient",
			Help:    "Distribution of TOPSIS closeness coefficients across ranked couriers",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	GeofenceEligibleCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geofence_eligible_candidates",
			Help:    "Number of couriers surviving the ellipse eligibility filter",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
		[]string{"urgency"},
	)

	// Task Runner (C12/C13)

	TaskQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "task_queue_depth",
			Help: "Current number of queued tasks per named queue",
		},
		[]string{"queue"},
	)

	TaskRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_retries_total",
			Help: "Total number of task retry attempts",
		},
		[]string{"queue"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Duration of task execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue", "result"},
	)

	// Circuit Breakers (embedding/sentiment/vector-index/repository clients)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"client"},
	)
)

// RecordAPIRequest records an API request's status code and duration.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordRecommendationStage records the duration of a single pipeline stage.
func RecordRecommendationStage(stage string, duration time.Duration) {
	RecommendationStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRecommendationResult records the terminal outcome of a pipeline run.
func RecordRecommendationResult(result string) {
	RecommendationRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCacheHit records a cache hit at the given tier.
func RecordCacheHit(tier string) {
	CacheHitsTotal.WithLabelValues(tier).Inc()
}

// RecordCacheMiss records a full cache miss.
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordTaskExecution records the outcome and duration of a task runner job.
func RecordTaskExecution(queue, result string, duration time.Duration) {
	TaskDuration.WithLabelValues(queue, result).Observe(duration.Seconds())
}

// SetCircuitBreakerState maps a breaker's string state to the numeric gauge value.
func SetCircuitBreakerState(client, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		v = 0
	}
	CircuitBreakerState.WithLabelValues(client).Set(v)
}
