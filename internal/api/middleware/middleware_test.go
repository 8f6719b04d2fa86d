package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apimw "github.com/notifyhub/jf-pushover-webhook/internal/api/middleware"
	"github.com/notifyhub/jf-pushover-webhook/internal/auth"
	"github.com/notifyhub/jf-pushover-webhook/internal/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		echoed   bool
	}{
		{"echoes caller id", "req-123", true},
		{"generates when absent", "", false},
		{"replaces id with spaces", "bad id", false},
		{"replaces oversized id", strings.Repeat("a", 200), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := apimw.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = apimw.GetCorrelationID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(apimw.CorrelationIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(apimw.CorrelationIDHeader)
			assert.Equal(t, seen, got)
			if tc.echoed {
				assert.Equal(t, tc.incoming, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err, "expected a generated UUID")
		})
	}
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name        string
		policy      auth.Policy
		secret      string
		header      string
		wantStatus  int
		wantDetails string
	}{
		{"optional without secret", auth.PolicyOptional, "", "", http.StatusNoContent, ""},
		{"optional with valid token", auth.PolicyOptional, "s3cret", "Bearer s3cret", http.StatusNoContent, ""},
		{"optional with wrong token", auth.PolicyOptional, "s3cret", "Bearer nope", http.StatusUnauthorized, "Missing or invalid bearer token"},
		{"required without secret", auth.PolicyRequired, "", "Bearer anything", http.StatusUnauthorized, "Service not configured"},
		{"required missing header", auth.PolicyRequired, "s3cret", "", http.StatusUnauthorized, "Missing or invalid bearer token"},
		{"required with valid token", auth.PolicyRequired, "s3cret", "bearer s3cret", http.StatusNoContent, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := apimw.Authenticate(tc.policy, tc.secret, zap.NewNop())(ok)
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus != http.StatusUnauthorized {
				return
			}
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "Unauthorised", body["error"])
			assert.Equal(t, tc.wantDetails, body["details"])
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestDeprecated(t *testing.T) {
	rec := httptest.NewRecorder()
	apimw.Deprecated("/jf-pushover-webhook")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "Use /jf-pushover-webhook", rec.Header().Get("X-Deprecated-Route"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := apimw.CorrelationID(apimw.RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})))

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set(apimw.CorrelationIDHeader, "corr-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusBadRequest), fields["status"])
	assert.Equal(t, "corr-1", fields["correlation_id"])
	assert.Equal(t, "/webhook", fields["path"])
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(apimw.Metrics(m))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "GET", "404")))
}
