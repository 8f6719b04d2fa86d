package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
	"github.com/notifyhub/jf-pushover-webhook/internal/fetcher"
	"github.com/notifyhub/jf-pushover-webhook/internal/provider"
	"github.com/notifyhub/jf-pushover-webhook/internal/tracing"
)

// Sources label where a notification came from.
const (
	SourceGeneric  = "generic"
	SourceJellyfin = "jellyfin"
)

// Failure reasons passed to Hooks.OnFailed.
const (
	ReasonCredentials = "credentials"
	ReasonRejected    = "rejected"
	ReasonUpstream    = "upstream"
	ReasonInternal    = "internal"
)

// Image outcomes passed to Hooks.OnImage.
const (
	ImageFetched = "fetched"
	ImageFailed  = "failed"
	ImageSkipped = "skipped"
)

// Hooks are optional metric callbacks; nil fields are ignored.
type Hooks struct {
	OnSent   func(source string, latency time.Duration)
	OnFailed func(source, reason string)
	OnImage  func(outcome string)
}

// RelayService fetches the optional attachment and forwards the notification
// to the provider. Each call makes at most one send attempt.
type RelayService struct {
	provider provider.Provider
	fetcher  fetcher.Fetcher
	hooks    Hooks
	tracer   trace.Tracer
	logger   *zap.Logger
}

func NewRelayService(
	p provider.Provider,
	f fetcher.Fetcher,
	hooks Hooks,
	logger *zap.Logger,
) *RelayService {
	return &RelayService{
		provider: p,
		fetcher:  f,
		hooks:    hooks,
		tracer:   otel.Tracer("github.com/notifyhub/jf-pushover-webhook/internal/service"),
		logger:   logger,
	}
}

// Relay sends n. An image that cannot be fetched is logged and the
// notification goes out without it. Nothing is fetched or sent while the
// provider is not ready. On upstream failure the provider's reply, when one
// was received, is returned together with the error.
func (s *RelayService) Relay(ctx context.Context, source string, n domain.Notification) (*provider.SendResponse, error) {
	ctx, span := s.tracer.Start(ctx, "relay.notification", trace.WithAttributes(
		attribute.String("relay.source", source),
		attribute.Bool("relay.has_image", n.HasImage()),
	))
	defer span.End()

	if err := s.provider.Ready(); err != nil {
		return nil, s.fail(ctx, span, source, err)
	}

	att := s.attachment(ctx, n)

	start := time.Now()
	resp, err := s.provider.Send(ctx, n, att)
	if err != nil {
		return resp, s.fail(ctx, span, source, err)
	}

	s.onSent(source, time.Since(start))
	span.SetAttributes(
		attribute.Int("relay.upstream_status", resp.StatusCode),
		attribute.Bool("relay.attached", att != nil),
	)
	s.logger.Info("notification delivered",
		zap.String("source", source),
		zap.String("provider", s.provider.Name()),
		zap.Int("upstream_status", resp.StatusCode),
		zap.Bool("attached", att != nil),
		zap.String("trace_id", tracing.TraceID(ctx)))
	return resp, nil
}

func (s *RelayService) fail(ctx context.Context, span trace.Span, source string, err error) error {
	reason := failureReason(err)
	s.onFailed(source, reason)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.logger.Error("notification not delivered",
		zap.String("source", source),
		zap.String("provider", s.provider.Name()),
		zap.String("reason", reason),
		zap.String("trace_id", tracing.TraceID(ctx)),
		zap.Error(err))
	return err
}

// attachment downloads the notification image. It returns nil when there is
// no image or the download failed.
func (s *RelayService) attachment(ctx context.Context, n domain.Notification) *provider.Attachment {
	if !n.HasImage() || s.fetcher == nil {
		s.onImage(ImageSkipped)
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "relay.fetch_image")
	defer span.End()

	att, err := s.fetcher.Fetch(ctx, n.ImageURL)
	if err != nil {
		s.onImage(ImageFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "image fetch failed")
		s.logger.Warn("image fetch failed, sending without attachment",
			zap.String("image_url", n.ImageURL),
			zap.String("trace_id", tracing.TraceID(ctx)),
			zap.Error(err))
		return nil
	}

	s.onImage(ImageFetched)
	span.SetAttributes(attribute.Int("image.bytes", len(att.Data)))
	return att
}

func failureReason(err error) string {
	var upErr *provider.UpstreamError
	switch {
	case errors.Is(err, domain.ErrCredentialsMissing):
		return ReasonCredentials
	case errors.As(err, &upErr) && upErr.ClientError():
		return ReasonRejected
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return ReasonUpstream
	default:
		return ReasonInternal
	}
}

func (s *RelayService) onSent(source string, d time.Duration) {
	if s.hooks.OnSent != nil {
		s.hooks.OnSent(source, d)
	}
}

func (s *RelayService) onFailed(source, reason string) {
	if s.hooks.OnFailed != nil {
		s.hooks.OnFailed(source, reason)
	}
}

func (s *RelayService) onImage(outcome string) {
	if s.hooks.OnImage != nil {
		s.hooks.OnImage(outcome)
	}
}
