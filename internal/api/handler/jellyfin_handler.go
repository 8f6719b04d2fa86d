package handler

import (
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/jf-pushover-webhook/internal/api/middleware"
	"github.com/notifyhub/jf-pushover-webhook/internal/payload"
	"github.com/notifyhub/jf-pushover-webhook/internal/service"
)

// JellyfinHandler serves the Jellyfin webhook plugin endpoint.
type JellyfinHandler struct {
	relay          Relayer
	defaultBaseURL string
	logger         *zap.Logger
}

func NewJellyfinHandler(relay Relayer, defaultBaseURL string, logger *zap.Logger) *JellyfinHandler {
	return &JellyfinHandler{relay: relay, defaultBaseURL: defaultBaseURL, logger: logger}
}

// Usage handles GET /jf-pushover-webhook
func (h *JellyfinHandler) Usage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, usageResponse{
		Status:  "received GET",
		Message: "This is a webhook endpoint, use POST requests",
	})
}

// Receive handles POST /jf-pushover-webhook
//
// @Summary     Relay a Jellyfin event
// @Tags        webhook
// @Accept      json,x-www-form-urlencoded,plain
// @Produce     json
// @Param       Authorization   header    string  true   "Bearer token"
// @Param       X-Jellyfin-URL  header    string  false  "Jellyfin base URL for item images"
// @Success     200             {object}  relayResponse
// @Failure     400             {object}  map[string]string
// @Failure     401             {object}  map[string]string
// @Failure     415             {object}  map[string]string
// @Failure     502             {object}  map[string]string
// @Failure     503             {object}  map[string]string
// @Router      /jf-pushover-webhook [post]
func (h *JellyfinHandler) Receive(w http.ResponseWriter, r *http.Request) {
	correlationID := apimw.GetCorrelationID(r.Context())

	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	event, n, warnings, err := payload.NormalizeJellyfin(r.Header.Get("Content-Type"), r.Header, body, h.defaultBaseURL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if n.ImageURL == "" {
		h.logger.Info("jellyfin event without image",
			zap.String("correlation_id", correlationID),
			zap.String("item_id", event.ItemID),
			zap.Bool("base_url_resolved", event.BaseURL != ""),
			zap.Bool("base_url_rejected", len(warnings) > 0),
			zap.Strings("warnings", warnings))
	}

	resp, err := h.relay.Relay(r.Context(), service.SourceJellyfin, n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, relayResponse{Status: "received POST", PushoverResponse: resp.Body})
}

func (h *JellyfinHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("jellyfin webhook failed",
		zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
		zap.Error(err))
	mapError(w, r, err)
}
