package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Report run metrics
	ReportRunsTotal   *prometheus.CounterVec
	ReportRunDuration *prometheus.HistogramVec

	// Ticker analytics metrics
	TickersAnalyzedTotal prometheus.Counter
	TickersSkippedTotal  *prometheus.CounterVec

	// Screener metrics
	ScreenerRowsTotal *prometheus.CounterVec

	// LLM metrics
	LLMCallsTotal           *prometheus.CounterVec
	LLMThrottleRetriesTotal prometheus.Counter
	BatchFallbacksTotal     *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Report persistence metrics
	ReportWriteDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// runBuckets cover full report runs, which are dominated by LLM cooldowns
var runBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		ReportRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "report",
				Name:      "runs_total",
				Help:      "Total number of report runs",
			},
			[]string{"status"},
		),
		ReportRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "marketbrief",
				Subsystem: "report",
				Name:      "run_duration_seconds",
				Help:      "Duration of full report runs in seconds",
				Buckets:   runBuckets,
			},
			[]string{"status"},
		),
		TickersAnalyzedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "analysis",
				Name:      "tickers_analyzed_total",
				Help:      "Total number of tickers with a complete analysis",
			},
		),
		TickersSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "analysis",
				Name:      "tickers_skipped_total",
				Help:      "Total number of tickers skipped by the assembler",
			},
			[]string{"reason"},
		),
		ScreenerRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "screener",
				Name:      "rows_total",
				Help:      "Screener rows by outcome (kept, rejected, malformed, duplicate)",
			},
			[]string{"outcome"},
		),
		LLMCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "llm",
				Name:      "calls_total",
				Help:      "LLM completion calls by result status",
			},
			[]string{"status"},
		),
		LLMThrottleRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "llm",
				Name:      "throttle_retries_total",
				Help:      "Retries triggered by LLM throttling",
			},
		),
		BatchFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "llm",
				Name:      "batch_fallbacks_total",
				Help:      "Batches that fell back to placeholder narratives",
			},
			[]string{"reason"},
		),
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "marketbrief",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),
		ReportWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "marketbrief",
				Subsystem: "report",
				Name:      "write_duration_seconds",
				Help:      "Duration of report and chart writes in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"kind"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "marketbrief",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketbrief",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// SetMetrics overrides the global metrics instance (useful for testing with
// a private registry)
func SetMetrics(m *Metrics) {
	globalMetrics = m
}

// RecordReportRun records a completed report run
func (m *Metrics) RecordReportRun(status string, duration time.Duration) {
	m.ReportRunsTotal.WithLabelValues(status).Inc()
	m.ReportRunDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordTickerAnalyzed records a ticker with a complete analysis
func (m *Metrics) RecordTickerAnalyzed() {
	m.TickersAnalyzedTotal.Inc()
}

// RecordTickerSkipped records a ticker skipped by the assembler
func (m *Metrics) RecordTickerSkipped(reason string) {
	m.TickersSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordScreenerRow records a screener row outcome
func (m *Metrics) RecordScreenerRow(outcome string) {
	m.ScreenerRowsTotal.WithLabelValues(outcome).Inc()
}

// RecordLLMCall records an LLM completion call outcome
func (m *Metrics) RecordLLMCall(status string) {
	m.LLMCallsTotal.WithLabelValues(status).Inc()
}

// RecordThrottleRetry records a retry triggered by throttling
func (m *Metrics) RecordThrottleRetry() {
	m.LLMThrottleRetriesTotal.Inc()
}

// RecordBatchFallback records a batch that degraded to placeholders
func (m *Metrics) RecordBatchFallback(reason string) {
	m.BatchFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation).Inc()
}

// RecordReportWrite records the duration of a report or chart write
func (m *Metrics) RecordReportWrite(kind string, duration time.Duration) {
	m.ReportWriteDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveRun records the report run duration and status
func (t *Timer) ObserveRun(status string) {
	t.metrics.RecordReportRun(status, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.ExternalAPIDuration.WithLabelValues(service, operation).Observe(time.Since(t.start).Seconds())
}

// ObserveWrite records a report write duration
func (t *Timer) ObserveWrite(kind string) {
	t.metrics.RecordReportWrite(kind, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
