package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/jf-pushover-webhook/internal/api/handler"
	apimw "github.com/notifyhub/jf-pushover-webhook/internal/api/middleware"
	"github.com/notifyhub/jf-pushover-webhook/internal/auth"
	"github.com/notifyhub/jf-pushover-webhook/internal/config"
	"github.com/notifyhub/jf-pushover-webhook/internal/metrics"
)

const (
	jellyfinPath = "/jf-pushover-webhook"
	legacyPath   = "/pushover-webhook"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
// breaker may be nil.
func NewRouter(
	cfg *config.Config,
	relay handler.Relayer,
	breaker handler.BreakerReporter,
	m *metrics.Metrics,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)                     // recover panics, return 500
	r.Use(chimw.RealIP)                        // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(cfg.MaxBodyBytes)) // inbound body cap
	r.Use(apimw.CorrelationID)                 // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))
	r.Use(apimw.Metrics(m))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{
				"Authorization", "Content-Type", apimw.CorrelationIDHeader,
				"X-Jellyfin-URL", "X-Base-URL", "X-External-Base-Url",
			},
			ExposedHeaders: []string{apimw.CorrelationIDHeader, "X-Deprecated-Route"},
			MaxAge:         300,
		}))
	}

	// --- handler instances ---
	hh := handler.NewHealthHandler(cfg.MissingCredentials(), breaker)
	wh := handler.NewWebhookHandler(relay, cfg.DefaultTitle, logger)
	jh := handler.NewJellyfinHandler(relay, cfg.JellyfinBaseURL, logger)

	// --- routes ---
	r.Get("/", handler.Index([]string{"/health", "/webhook", jellyfinPath}))
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Generic webhook: bearer only checked when AUTH_TOKEN is set.
	r.Group(func(r chi.Router) {
		r.Use(apimw.Authenticate(auth.PolicyOptional, cfg.AuthToken, logger))
		r.Get("/webhook", wh.Usage)
		r.Post("/webhook", wh.Receive)
	})

	// Jellyfin webhook: bearer always required.
	jellyfin := func(r chi.Router) {
		r.Use(apimw.Authenticate(auth.PolicyRequired, cfg.AuthToken, logger))
		r.Get("/", jh.Usage)
		r.Post("/", jh.Receive)
	}
	r.Route(jellyfinPath, jellyfin)
	r.Route(legacyPath, func(r chi.Router) {
		r.Use(apimw.Deprecated(jellyfinPath))
		jellyfin(r)
	})

	return otelhttp.NewHandler(r, "jf-pushover-webhook")
}
