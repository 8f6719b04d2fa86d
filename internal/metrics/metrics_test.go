package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/notifyhub/jf-pushover-webhook/internal/metrics"
)

func TestRelayHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onSent, onFailed, onImage := m.RelayHooks()

	onSent("generic", 120*time.Millisecond)
	onSent("generic", 80*time.Millisecond)
	onFailed("jellyfin", "upstream")
	onImage("fetched")
	onImage("failed")
	onImage("failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("generic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("jellyfin", "upstream")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImageFetches.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SendLatency))
}

func TestObserveHTTP(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.ObserveHTTP("/webhook", "POST", "200", 10*time.Millisecond)
	m.ObserveHTTP("/webhook", "POST", "401", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/webhook", "POST", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequests))
}

func TestNew_PanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
