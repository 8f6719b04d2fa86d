package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	respondJSON(w, status, map[string]string{"error": msg, "details": details})
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise. Bearer
// rejections never reach a handler; middleware.Authenticate writes the 401.
func mapError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, domain.ErrUnsupportedContentType):
		respondJSON(w, http.StatusUnsupportedMediaType, map[string]string{
			"error":        "Unsupported Media Type",
			"content_type": r.Header.Get("Content-Type"),
		})
	case errors.Is(err, domain.ErrMissingMessage):
		respondError(w, http.StatusBadRequest, "Missing 'message'")
	case errors.Is(err, domain.ErrInvalidPayload):
		respondErrorDetails(w, http.StatusBadRequest, "Invalid JSON payload", err.Error())
	case errors.Is(err, domain.ErrCredentialsMissing):
		respondErrorDetails(w, http.StatusServiceUnavailable, "Pushover credentials not configured", err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		respondErrorDetails(w, http.StatusBadGateway, "Failed to send Pushover notification", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
