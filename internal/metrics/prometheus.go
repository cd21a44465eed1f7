package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice bridge
type Metrics struct {
	// Call lifecycle metrics
	CallsAccepted     prometheus.Counter
	CallsCompleted    prometheus.Counter
	CallSetupFailures *prometheus.CounterVec
	ActiveCalls       prometheus.Gauge
	CallDuration      prometheus.Histogram

	// Relay metrics
	FramesToAgent  prometheus.Counter
	FramesToCaller prometheus.Counter
	FramesDropped  *prometheus.CounterVec
	PingsAnswered  prometheus.Counter
	ClearsSent     prometheus.Counter

	// Per-message failure metrics
	TranslateErrors   *prometheus.CounterVec
	UnhandledMessages *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// Drop reason label values for FramesDropped
const (
	DropReasonNoStreamSID    = "no_stream_sid"
	DropReasonOutboundClosed = "outbound_closed"
)

// Leg label values for per-message failure metrics
const (
	LegCaller = "caller"
	LegAgent  = "agent"
)

// NewMetrics creates and registers all Prometheus metrics with the given
// registerer. Pass prometheus.DefaultRegisterer in production; tests use
// their own registry to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Call lifecycle metrics
		CallsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridge_calls_accepted_total",
			Help: "Total number of inbound media stream connections accepted",
		}),
		CallsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridge_calls_completed_total",
			Help: "Total number of calls that finished with both legs closed",
		}),
		CallSetupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_call_setup_failures_total",
			Help: "Total number of calls that failed before bridging, by stage",
		}, []string{"stage"}),
		ActiveCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_active_calls",
			Help: "Current number of bridged calls",
		}),
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bridge_call_duration_seconds",
			Help:    "Duration of bridged calls in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),

		// Relay metrics
		FramesToAgent: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridge_frames_to_agent_total",
			Help: "Total number of caller audio chunks forwarded to the agent",
		}),
		FramesToCaller: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridge_frames_to_caller_total",
			Help: "Total number of agent audio chunks relayed to the caller",
		}),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_frames_dropped_total",
			Help: "Total number of audio chunks dropped, by reason",
		}, []string{"reason"}),
		PingsAnswered: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridge_pings_answered_total",
			Help: "Total number of agent pings answered with a pong",
		}),
		ClearsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridge_clears_sent_total",
			Help: "Total number of clear frames sent to the caller on barge-in",
		}),

		// Per-message failure metrics
		TranslateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_translate_errors_total",
			Help: "Total number of messages dropped because translation failed, by leg",
		}, []string{"leg"}),
		UnhandledMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_unhandled_messages_total",
			Help: "Total number of messages with an unknown discriminator, by leg",
		}, []string{"leg"}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_http_requests_total",
			Help: "Total number of HTTP requests by method, endpoint and status",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bridge_http_request_duration_seconds",
			Help:    "HTTP request duration by method and endpoint",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_http_errors_total",
			Help: "Total number of HTTP error responses by method, endpoint and type",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordHTTPRequest records metrics for a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordHTTPError records an HTTP error response
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
