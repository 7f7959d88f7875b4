package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task outcomes recorded by RecordTaskFinished.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomePanicked  = "panicked"
)

// Breaker states reported by SetCircuitBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

var (
	// Dispatcher Metrics
	DispatcherInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadwire_dispatcher_in_flight",
			Help: "Number of tasks currently executing",
		},
		[]string{"dispatcher"},
	)

	DispatcherPending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadwire_dispatcher_pending",
			Help: "Number of tasks waiting for a free slot",
		},
		[]string{"dispatcher"},
	)

	DispatcherTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwire_dispatcher_tasks_total",
			Help: "Total number of settled tasks by outcome",
		},
		[]string{"dispatcher", "outcome"},
	)

	DispatcherTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadwire_dispatcher_task_duration_seconds",
			Help:    "Duration of task execution in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"dispatcher"},
	)

	// Analysis Metrics
	AnalysisCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwire_analysis_cache_lookups_total",
			Help: "Analysis cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwire_analysis_requests_total",
			Help: "LLM analysis requests by status",
		},
		[]string{"status"},
	)

	LLMCircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadwire_llm_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Ingestion Metrics
	IngestedArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwire_ingested_articles_total",
			Help: "Articles seen by batch ingestion by result (analyzed, duplicate, failed)",
		},
		[]string{"result"},
	)

	// Scoring Metrics
	ScoredItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadwire_scored_items_total",
			Help: "Total number of items scored for feeds",
		},
	)

	PersonalizedItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadwire_personalized_items_total",
			Help: "Total number of scored items with at least one preference reason",
		},
	)

	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwire_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadwire_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	WeightUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwire_weight_updates_total",
			Help: "Preference weight mutations by source (user, learner)",
		},
		[]string{"source"},
	)
)

// UpdateDispatcherGauges publishes the current queue depth and in-flight
// count for a named dispatcher.
func UpdateDispatcherGauges(dispatcher string, pending, inFlight int) {
	DispatcherPending.WithLabelValues(dispatcher).Set(float64(pending))
	DispatcherInFlight.WithLabelValues(dispatcher).Set(float64(inFlight))
}

// RecordTaskFinished records one settled task. Tasks that never ran pass a
// zero duration and are not observed in the histogram.
func RecordTaskFinished(dispatcher, outcome string, duration time.Duration) {
	DispatcherTasksTotal.WithLabelValues(dispatcher, outcome).Inc()
	if duration > 0 {
		DispatcherTaskDuration.WithLabelValues(dispatcher).Observe(duration.Seconds())
	}
}

// RecordCacheLookup records an analysis cache lookup result.
func RecordCacheLookup(result string) {
	AnalysisCacheLookups.WithLabelValues(result).Inc()
}

// RecordAnalysis records one LLM analysis attempt outcome.
func RecordAnalysis(err error) {
	if err != nil {
		AnalysisRequests.WithLabelValues("error").Inc()
		return
	}
	AnalysisRequests.WithLabelValues("success").Inc()
}

// SetCircuitBreakerState publishes a breaker state (see Breaker* constants).
func SetCircuitBreakerState(name string, state int) {
	LLMCircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordIngestion adds batch ingestion counts.
func RecordIngestion(analyzed, duplicates, failed int) {
	IngestedArticlesTotal.WithLabelValues("analyzed").Add(float64(analyzed))
	IngestedArticlesTotal.WithLabelValues("duplicate").Add(float64(duplicates))
	IngestedArticlesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordScoring records one scoring pass.
func RecordScoring(scored, personalized int) {
	ScoredItemsTotal.Add(float64(scored))
	PersonalizedItemsTotal.Add(float64(personalized))
}

// RecordWeightUpdate counts a preference mutation.
func RecordWeightUpdate(source string) {
	WeightUpdatesTotal.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
