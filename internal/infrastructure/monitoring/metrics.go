package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Chat metrics
	Resolutions      *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	// Catalog lookups and other in-process calls
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the health endpoint.
type Snapshot struct {
	TotalRequests   int64 `json:"total_requests"`
	TotalErrors     int64 `json:"total_errors"`
	LiveAnswers     int64 `json:"live_answers"`
	FallbackAnswers int64 `json:"fallback_answers"`
}

// NewMetrics creates a collector with its own registry, so several can
// coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "krishimitra_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "krishimitra_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "krishimitra_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_resolutions_total",
				Help: "Chat answers by source, topic and fallback reason",
			},
			[]string{"source", "topic", "reason"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_provider_duration_seconds",
				Help:    "Duration of calls to the generative model",
				Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 15, 20, 30},
			},
			[]string{"provider", "outcome"},
		),

		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "krishimitra_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "krishimitra_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"service", "method"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "krishimitra_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "krishimitra_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "krishimitra_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveResolution counts one chat answer.
func (m *Metrics) ObserveResolution(source, topic, reason string) {
	m.Resolutions.WithLabelValues(source, topic, reason).Inc()

	m.mu.Lock()
	if reason == "" {
		m.snapshot.LiveAnswers++
	} else {
		m.snapshot.FallbackAnswers++
	}
	m.mu.Unlock()
}

// ObserveProvider records the duration of one model call.
func (m *Metrics) ObserveProvider(provider, outcome string, elapsed time.Duration) {
	m.ProviderDuration.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns a copy of the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
