package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	storeDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// Metrics holds all Prometheus metric instruments for the wizard service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsCreatedTotal    prometheus.Counter
	SessionCompletionsTotal *prometheus.CounterVec

	// Step save metrics
	StepSavesTotal       *prometheus.CounterVec
	StepSaveDuration     *prometheus.HistogramVec
	NavigationSavesTotal *prometheus.CounterVec

	// Hydration metrics
	HydrationsTotal        prometheus.Counter
	HydrationParseFailures *prometheus.CounterVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wizard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wizard_sessions_created_total",
			Help: "Total number of sessions created.",
		}),
		SessionCompletionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_session_completions_total",
			Help: "Total number of session completion calls.",
		}, []string{"outcome"}),

		StepSavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_step_saves_total",
			Help: "Total number of step response saves.",
		}, []string{"step_id", "status"}),
		StepSaveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wizard_step_save_duration_seconds",
			Help:    "Step save duration in seconds.",
			Buckets: storeDurationBuckets,
		}, []string{"step_id"}),
		NavigationSavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_navigation_saves_total",
			Help: "Total number of navigation index saves.",
		}, []string{"status"}),

		HydrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wizard_hydrations_total",
			Help: "Total number of session hydrations.",
		}),
		HydrationParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_hydration_parse_failures_total",
			Help: "Total number of unparseable step payloads seen during hydration.",
		}, []string{"step_id"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SessionsCreatedTotal,
		m.SessionCompletionsTotal,
		m.StepSavesTotal,
		m.StepSaveDuration,
		m.NavigationSavesTotal,
		m.HydrationsTotal,
		m.HydrationParseFailures,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordStepSave records the outcome of one step response save.
func (m *Metrics) RecordStepSave(stepID, status string, duration time.Duration) {
	m.StepSavesTotal.WithLabelValues(stepID, status).Inc()
	m.StepSaveDuration.WithLabelValues(stepID).Observe(duration.Seconds())
}

// RecordNavigationSave records the outcome of one navigation save.
func (m *Metrics) RecordNavigationSave(status string) {
	m.NavigationSavesTotal.WithLabelValues(status).Inc()
}

// RecordCompletion records the outcome of a completion call.
func (m *Metrics) RecordCompletion(outcome string) {
	m.SessionCompletionsTotal.WithLabelValues(outcome).Inc()
}

// RecordHydration records a session hydration.
func (m *Metrics) RecordHydration() {
	m.HydrationsTotal.Inc()
}

// RecordHydrationParseFailure records an unparseable step payload.
func (m *Metrics) RecordHydrationParseFailure(stepID string) {
	m.HydrationParseFailures.WithLabelValues(stepID).Inc()
}

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
