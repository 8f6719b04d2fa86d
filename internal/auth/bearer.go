// Package auth decides whether an inbound webhook carries the shared bearer
// secret.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

// Policy selects how a route treats an unconfigured secret.
type Policy int

const (
	// PolicyOptional lets every request through when no secret is configured.
	PolicyOptional Policy = iota
	// PolicyRequired rejects every request when no secret is configured.
	PolicyRequired
)

func (p Policy) String() string {
	switch p {
	case PolicyOptional:
		return "optional"
	case PolicyRequired:
		return "required"
	}
	return "unknown"
}

// Check applies the policy to an Authorization header value.
func (p Policy) Check(secret, header string) error {
	if p == PolicyRequired {
		return Require(secret, header)
	}
	return Authorize(secret, header)
}

// Authorize implements the opt-in policy: an empty secret authorizes every
// request, otherwise the header must be "Bearer <secret>".
func Authorize(secret, header string) error {
	if secret == "" {
		return nil
	}
	return match(secret, header)
}

// Require implements the strict policy. An empty secret is a configuration
// error and nothing is authorized.
func Require(secret, header string) error {
	if secret == "" {
		return domain.ErrAuthNotConfigured
	}
	return match(secret, header)
}

func match(secret, header string) error {
	token, ok := BearerToken(header)
	if !ok {
		return domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// BearerToken extracts the credential from an Authorization header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	const scheme = "bearer"

	header = strings.TrimSpace(header)
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	rest := header[len(scheme):]
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}
	return token, true
}
