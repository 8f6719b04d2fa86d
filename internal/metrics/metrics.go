package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	SendLatency         *prometheus.HistogramVec
	ImageFetches        *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications accepted by Pushover.",
		}, []string{"source"}),

		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications that could not be delivered.",
		}, []string{"source", "reason"}),

		SendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pushover_send_seconds",
			Help:    "Latency of the Pushover API call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		ImageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_fetch_total",
			Help: "Attachment downloads by outcome.",
		}, []string{"outcome"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"path", "method", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
	}

	reg.MustRegister(
		m.NotificationsSent,
		m.NotificationsFailed,
		m.SendLatency,
		m.ImageFetches,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// RelayHooks returns the metric callback functions expected by service.Hooks.
// Centralises the prometheus observation calls so the service stays import-free.
func (m *Metrics) RelayHooks() (
	onSent func(source string, latency time.Duration),
	onFailed func(source, reason string),
	onImage func(outcome string),
) {
	onSent = func(source string, latency time.Duration) {
		m.NotificationsSent.WithLabelValues(source).Inc()
		m.SendLatency.WithLabelValues(source).Observe(latency.Seconds())
	}
	onFailed = func(source, reason string) {
		m.NotificationsFailed.WithLabelValues(source, reason).Inc()
	}
	onImage = func(outcome string) {
		m.ImageFetches.WithLabelValues(outcome).Inc()
	}
	return
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(path, method, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, status).Inc()
	m.HTTPDuration.WithLabelValues(path, method, status).Observe(elapsed.Seconds())
}
