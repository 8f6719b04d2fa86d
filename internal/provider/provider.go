package provider

import (
	"context"
	"fmt"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

// Attachment is a binary image sent alongside a notification.
type Attachment struct {
	Data        []byte
	ContentType string
	Filename    string
}

// SendResponse is what the upstream answered. Body holds decoded JSON when
// the upstream replied with application/json and the raw text otherwise.
type SendResponse struct {
	StatusCode int `json:"status_code"`
	Body       any `json:"body"`
}

// Provider abstracts delivery to an external notification service.
// Mocking this interface in tests gives full control over provider behaviour
// without making real HTTP calls.
type Provider interface {
	Name() string
	// Ready reports whether a Send could currently reach the upstream. It
	// makes no network call.
	Ready() error
	Send(ctx context.Context, n domain.Notification, att *Attachment) (*SendResponse, error)
}

// UpstreamError describes a failed outbound call. StatusCode is zero when
// no response was received. It matches domain.ErrUpstreamUnavailable under
// errors.Is, as well as the transport error in Err when one is set.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("%s: %v", domain.ErrUpstreamUnavailable, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: upstream returned %d: %s", domain.ErrUpstreamUnavailable, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: upstream returned %d", domain.ErrUpstreamUnavailable, e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrUpstreamUnavailable}
	}
	return []error{domain.ErrUpstreamUnavailable, e.Err}
}

// ClientError reports whether the upstream rejected the request itself
// (4xx), as opposed to being unreachable or failing internally.
func (e *UpstreamError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
