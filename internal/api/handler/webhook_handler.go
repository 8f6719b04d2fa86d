package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/jf-pushover-webhook/internal/api/middleware"
	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
	"github.com/notifyhub/jf-pushover-webhook/internal/payload"
	"github.com/notifyhub/jf-pushover-webhook/internal/provider"
	"github.com/notifyhub/jf-pushover-webhook/internal/service"
)

// Relayer forwards a normalized notification upstream.
type Relayer interface {
	Relay(ctx context.Context, source string, n domain.Notification) (*provider.SendResponse, error)
}

type relayResponse struct {
	Status           string `json:"status"`
	PushoverResponse any    `json:"pushover_response"`
}

type usageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WebhookHandler serves the generic webhook endpoint.
type WebhookHandler struct {
	relay        Relayer
	defaultTitle string
	logger       *zap.Logger
}

func NewWebhookHandler(relay Relayer, defaultTitle string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{relay: relay, defaultTitle: defaultTitle, logger: logger}
}

// Usage handles GET /webhook
func (h *WebhookHandler) Usage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, usageResponse{
		Status:  "received GET",
		Message: "Use POST with JSON or form data to send a Pushover notification",
	})
}

// Receive handles POST /webhook
//
// @Summary     Relay a generic notification
// @Tags        webhook
// @Accept      json,x-www-form-urlencoded,plain
// @Produce     json
// @Param       Authorization  header    string  false  "Bearer token, required when AUTH_TOKEN is set"
// @Success     200            {object}  relayResponse
// @Failure     400            {object}  map[string]string
// @Failure     401            {object}  map[string]string
// @Failure     415            {object}  map[string]string
// @Failure     502            {object}  map[string]string
// @Failure     503            {object}  map[string]string
// @Router      /webhook [post]
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	n, warnings, err := payload.NormalizeGeneric(r.Header.Get("Content-Type"), body, h.defaultTitle)
	for _, warning := range warnings {
		h.logger.Warn("payload field ignored",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("warning", warning))
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.relay.Relay(r.Context(), service.SourceGeneric, n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, relayResponse{Status: "received POST", PushoverResponse: resp.Body})
}

func (h *WebhookHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("generic webhook failed",
		zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
		zap.Error(err))
	mapError(w, r, err)
}

// readBody drains the request body. The size cap is enforced by the
// RequestSize middleware, which surfaces as *http.MaxBytesError here.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
