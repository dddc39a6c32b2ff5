package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	activeConnections   prometheus.Gauge
	inboundEventsTotal  *prometheus.CounterVec
	outboundEventsTotal *prometheus.CounterVec
	analysisTotal       *prometheus.CounterVec
	sessionsOpenedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coach",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses.",
		}, []string{"method", "route", "status"})

		activeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coach",
			Subsystem: "interview",
			Name:      "connections_active",
			Help:      "Number of open interview websocket connections.",
		})

		inboundEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "interview",
			Name:      "inbound_events_total",
			Help:      "Inbound interview events by kind.",
		}, []string{"type"})

		outboundEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "interview",
			Name:      "outbound_events_total",
			Help:      "Outbound interview events by kind.",
		}, []string{"type"})

		analysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "interview",
			Name:      "analysis_total",
			Help:      "Code analyses by extraction path.",
		}, []string{"path"})

		sessionsOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "interview",
			Name:      "sessions_opened_total",
			Help:      "Interview connections opened, by whether the session was new or resumed.",
		}, []string{"state"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			activeConnections,
			inboundEventsTotal,
			outboundEventsTotal,
			analysisTotal,
			sessionsOpenedTotal,
		)
	})
}

// HTTPRequests exposes the counter for HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for HTTP error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ActiveConnections exposes the gauge of open interview connections.
func ActiveConnections() prometheus.Gauge {
	RegisterMetrics()
	return activeConnections
}

// InboundEvents exposes the inbound event counter.
func InboundEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return inboundEventsTotal
}

// OutboundEvents exposes the outbound event counter.
func OutboundEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return outboundEventsTotal
}

// Analyses exposes the analysis outcome counter.
func Analyses() *prometheus.CounterVec {
	RegisterMetrics()
	return analysisTotal
}

// SessionsOpened exposes the session open counter.
func SessionsOpened() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionsOpenedTotal
}
