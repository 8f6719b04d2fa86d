package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// maxResponseBytes bounds how much of an upstream reply is kept.
const maxResponseBytes = 64 << 10

// PushoverConfig carries the credentials and endpoint for PushoverProvider.
type PushoverConfig struct {
	APIURL  string
	Token   string
	User    string
	Timeout time.Duration
	Breaker BreakerConfig
}

// PushoverProvider delivers notifications to the Pushover messages API as
// multipart/form-data. The URL is injected from config so tests can point to
// a local mock.
type PushoverProvider struct {
	cfg        PushoverConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewPushoverProvider builds a provider. A nil client means a plain
// http.Client; the per-call deadline comes from cfg.Timeout.
func NewPushoverProvider(cfg PushoverConfig, client *http.Client, logger *zap.Logger) *PushoverProvider {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultPushoverURL
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig("pushover")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &PushoverProvider{
		cfg:        cfg,
		httpClient: client,
		breaker:    newBreaker(cfg.Breaker, logger),
		logger:     logger,
	}
}

func (p *PushoverProvider) Name() string { return "pushover" }

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (p *PushoverProvider) BreakerState() string {
	return p.breaker.State().String()
}

// Ready returns domain.ErrCredentialsMissing when the token or user key is
// unset, and an *UpstreamError wrapping gobreaker.ErrOpenState while the
// breaker is open.
func (p *PushoverProvider) Ready() error {
	if p.cfg.Token == "" || p.cfg.User == "" {
		return domain.ErrCredentialsMissing
	}
	if p.breaker.State() == gobreaker.StateOpen {
		return &UpstreamError{Err: gobreaker.ErrOpenState}
	}
	return nil
}

// Send posts one message to Pushover. It makes no outbound call when the
// credentials are missing. Any transport error or non-2xx answer is returned
// as an *UpstreamError; the SendResponse is still returned when a reply was
// received.
func (p *PushoverProvider) Send(ctx context.Context, n domain.Notification, att *Attachment) (*SendResponse, error) {
	if p.cfg.Token == "" || p.cfg.User == "" {
		return nil, domain.ErrCredentialsMissing
	}

	body, contentType, err := p.encode(n, att)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.post(ctx, body, contentType)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &UpstreamError{Err: err}
	}

	resp, _ := result.(*SendResponse)
	return resp, err
}

func (p *PushoverProvider) encode(n domain.Notification, att *Attachment) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"token", p.cfg.Token},
		{"user", p.cfg.User},
		{"message", n.Message},
	}
	if n.Title != "" {
		fields = append(fields, [2]string{"title", n.Title})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if att != nil && len(att.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "attachment",
			"filename": att.Filename,
		}))
		h.Set("Content-Type", att.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(att.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (p *PushoverProvider) post(ctx context.Context, body []byte, contentType string) (*SendResponse, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	sendResp := &SendResponse{
		StatusCode: resp.StatusCode,
		Body:       decodeBody(resp.Header.Get("Content-Type"), raw),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn("pushover rejected notification",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return sendResp, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return sendResp, nil
}

// decodeBody returns parsed JSON for application/json replies and the raw
// text for anything else, including JSON that fails to parse.
func decodeBody(contentType string, raw []byte) any {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/json" {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

// compile-time check that PushoverProvider implements Provider
var _ Provider = (*PushoverProvider)(nil)
