// Package metrics provides Prometheus metrics for the bridge wrapper.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// Forward outcomes, one per terminal state of the forwarder.
const (
	OutcomeOK               = "ok"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeUnauthorised     = "unauthorised"
	OutcomeMisconfigured    = "misconfigured"
	OutcomeInvalidJSON      = "invalid_json"
	OutcomeInvalidFields    = "invalid_fields"
	OutcomeInternalError    = "internal_error"
)

// Metrics holds all Prometheus metric collectors for the wrapper.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  prometheus.Histogram
	UpstreamResponses *prometheus.CounterVec

	ForwardOutcomes *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reddit_bridge_wrapper_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reddit_bridge_wrapper_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reddit_bridge_wrapper_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reddit_bridge_wrapper_upstream_request_duration_seconds",
			Help:    "Bridge call latency in seconds, including body read.",
			Buckets: defaultBuckets,
		}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reddit_bridge_wrapper_upstream_responses_total",
			Help: "Total bridge responses by status code.",
		}, []string{"status_code"}),

		ForwardOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reddit_bridge_wrapper_forward_outcomes_total",
			Help: "Forwarder results by terminal outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.ForwardOutcomes,
	)

	return m
}

// ObserveOutcome counts a forwarder outcome. It is a no-op on a nil receiver
// so callers can run without metrics.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ForwardOutcomes.WithLabelValues(outcome).Inc()
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
var knownPrefixes = []string{"/api/search", "/healthz", "/bridge/status", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}
