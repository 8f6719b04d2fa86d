package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/notifyhub/jf-pushover-webhook/internal/auth"
	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

// Authenticate rejects requests whose Authorization header does not satisfy
// policy for secret with a 401 JSON body.
func Authenticate(policy auth.Policy, secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Check(secret, r.Header.Get("Authorization")); err != nil {
				logger.Warn("unauthorised request",
					zap.String("path", r.URL.Path),
					zap.String("policy", policy.String()),
					zap.String("correlation_id", GetCorrelationID(r.Context())),
					zap.Error(err))

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="jf-pushover-webhook"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "Unauthorised",
					"details": unauthorisedDetails(err),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorisedDetails(err error) string {
	if errors.Is(err, domain.ErrAuthNotConfigured) {
		return "Service not configured"
	}
	return "Missing or invalid bearer token"
}
