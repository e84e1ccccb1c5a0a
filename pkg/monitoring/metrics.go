package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Provider invocation metrics
	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_calls_total",
			Help: "Total number of analysis provider invocations",
		},
		[]string{"provider", "status", "service"},
	)

	providerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Duration of analysis provider invocations in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"provider", "service"},
	)

	fallbackExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_extractions_total",
			Help: "Total number of free-text fallback extractions",
		},
		[]string{"provider", "service"},
	)

	// Consensus metrics
	consensusRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consensus_requests_total",
			Help: "Total number of consensus analysis requests",
		},
		[]string{"modality", "status", "service"},
	)

	consensusAgreement = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consensus_agreement_level",
			Help:    "Distribution of consensus agreement levels",
			Buckets: []float64{0.0, 0.25, 0.5, 0.66, 0.75, 0.9, 1.0},
		},
		[]string{"service"},
	)

	// Temporal engine metrics
	trendComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trend_computations_total",
			Help: "Total number of trend computations",
		},
		[]string{"metric", "direction", "service"},
	)

	riskPredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Total number of reported risk predictions",
		},
		[]string{"condition", "severity", "service"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Register metrics
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		providerCallsTotal,
		providerCallDuration,
		fallbackExtractionsTotal,
		consensusRequestsTotal,
		consensusAgreement,
		trendComputationsTotal,
		riskPredictionsTotal,
	)

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordProviderCall records one provider invocation outcome
func (m *MetricsCollector) RecordProviderCall(provider, status string, duration time.Duration) {
	providerCallsTotal.WithLabelValues(provider, status, m.serviceName).Inc()
	providerCallDuration.WithLabelValues(provider, m.serviceName).Observe(duration.Seconds())
}

// RecordFallbackExtraction records a free-text fallback extraction
func (m *MetricsCollector) RecordFallbackExtraction(provider string) {
	fallbackExtractionsTotal.WithLabelValues(provider, m.serviceName).Inc()
}

// RecordConsensus records one consensus request outcome
func (m *MetricsCollector) RecordConsensus(modality, status string, agreementLevel float64) {
	consensusRequestsTotal.WithLabelValues(modality, status, m.serviceName).Inc()
	if status == "success" {
		consensusAgreement.WithLabelValues(m.serviceName).Observe(agreementLevel)
	}
}

// RecordTrendComputation records a trend computation
func (m *MetricsCollector) RecordTrendComputation(metric, direction string) {
	trendComputationsTotal.WithLabelValues(metric, direction, m.serviceName).Inc()
}

// RecordRiskPrediction records a reported risk prediction
func (m *MetricsCollector) RecordRiskPrediction(condition, severity string) {
	riskPredictionsTotal.WithLabelValues(condition, severity, m.serviceName).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware creates middleware for HTTP request metrics
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		m.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
