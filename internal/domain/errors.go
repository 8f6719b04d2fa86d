package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrUnauthorized      = errors.New("unauthorised")
	ErrAuthNotConfigured = fmt.Errorf("%w: service not configured", ErrUnauthorized)

	// ErrNormalization is the parent of every inbound payload error.
	ErrNormalization          = errors.New("invalid payload")
	ErrUnsupportedContentType = fmt.Errorf("%w: unsupported media type", ErrNormalization)
	ErrInvalidPayload         = fmt.Errorf("%w: invalid JSON payload", ErrNormalization)
	ErrMissingMessage         = fmt.Errorf("%w: missing 'message'", ErrNormalization)

	ErrCredentialsMissing  = errors.New("PUSHOVER_API_TOKEN and PUSHOVER_USER_KEY must be set")
	ErrUpstreamUnavailable = errors.New("failed to send Pushover notification")
	ErrAttachmentTooLarge  = errors.New("attachment exceeds size limit")
)
