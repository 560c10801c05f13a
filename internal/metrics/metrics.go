package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Provider metrics
	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec
	swallowedErrorsTotal    *prometheus.CounterVec

	// Business metrics
	payloadsBuilt    prometheus.Counter
	reportsGenerated *prometheus.CounterVec
	reportDuration   prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		providerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoresearch_provider_requests_total",
				Help: "Total number of upstream provider requests",
			},
			[]string{"provider", "endpoint", "status"},
		),

		providerRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptoresearch_provider_request_duration_seconds",
				Help:    "Upstream provider request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "endpoint"},
		),

		swallowedErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoresearch_swallowed_errors_total",
				Help: "Failures degraded to empty results instead of errors",
			},
			[]string{"provider", "reason"},
		),

		payloadsBuilt: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptoresearch_agent_payloads_total",
				Help: "Total number of agent payloads assembled",
			},
		),

		reportsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoresearch_reports_total",
				Help: "Total number of research reports generated",
			},
			[]string{"status"},
		),

		reportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cryptoresearch_report_duration_seconds",
				Help:    "Research report generation duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	reg.MustRegister(r.providerRequestsTotal)
	reg.MustRegister(r.providerRequestDuration)
	reg.MustRegister(r.swallowedErrorsTotal)
	reg.MustRegister(r.payloadsBuilt)
	reg.MustRegister(r.reportsGenerated)
	reg.MustRegister(r.reportDuration)

	return r
}

// RecordProviderRequest records one upstream request.
func (r *Registry) RecordProviderRequest(provider, endpoint string, status int, duration float64) {
	statusStr := statusToString(status)
	r.providerRequestsTotal.WithLabelValues(provider, endpoint, statusStr).Inc()
	r.providerRequestDuration.WithLabelValues(provider, endpoint).Observe(duration)
}

// RecordSwallowedError records a failure that was degraded to an
// empty result.
func (r *Registry) RecordSwallowedError(provider, reason string) {
	r.swallowedErrorsTotal.WithLabelValues(provider, reason).Inc()
}

// RecordPayload records an assembled agent payload.
func (r *Registry) RecordPayload() {
	r.payloadsBuilt.Inc()
}

// RecordReport records a research report completion.
func (r *Registry) RecordReport(status string, duration float64) {
	r.reportsGenerated.WithLabelValues(status).Inc()
	r.reportDuration.Observe(duration)
}

// Handler returns an HTTP handler exposing the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status > 0:
		return "1xx"
	default:
		// Transport-level failure, no HTTP status.
		return "error"
	}
}
