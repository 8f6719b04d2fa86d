package handler

import "net/http"

// BreakerReporter exposes the state of the upstream circuit breaker.
type BreakerReporter interface {
	BreakerState() string
}

// HealthHandler serves the readiness endpoint. Health reflects configuration
// only and never calls the upstream.
type HealthHandler struct {
	missing []string
	breaker BreakerReporter
}

// NewHealthHandler takes the names of unset credential variables. breaker
// may be nil.
func NewHealthHandler(missing []string, breaker BreakerReporter) *HealthHandler {
	if missing == nil {
		missing = []string{}
	}
	return &HealthHandler{missing: missing, breaker: breaker}
}

type healthResponse struct {
	Status         string   `json:"status"`
	Missing        []string `json:"missing"`
	CircuitBreaker string   `json:"circuit_breaker,omitempty"`
}

// Health handles GET /health
//
// @Summary  Service health
// @Tags     system
// @Produce  json
// @Success  200  {object}  healthResponse
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Missing: h.missing}
	if len(h.missing) > 0 {
		resp.Status = "degraded"
	}
	if h.breaker != nil {
		resp.CircuitBreaker = h.breaker.BreakerState()
	}
	respondJSON(w, http.StatusOK, resp)
}

// Index handles GET /
func Index(endpoints []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"service":   "jf-pushover-webhook",
			"status":    "ok",
			"endpoints": endpoints,
		})
	}
}
