// Package payload turns raw inbound webhook bodies into domain notifications.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

// Format is the parse strategy selected from a request's media type.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatForm
	// FormatText is a text/plain body that carries a JSON object.
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatForm:
		return "form"
	case FormatText:
		return "text"
	}
	return "unknown"
}

// DetectFormat maps a Content-Type header value to a Format.
// Parameters such as charset are ignored.
func DetectFormat(contentType string) (Format, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %q", domain.ErrUnsupportedContentType, contentType)
	}
	switch mediaType {
	case "application/json":
		return FormatJSON, nil
	case "application/x-www-form-urlencoded":
		return FormatForm, nil
	case "text/plain":
		return FormatText, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", domain.ErrUnsupportedContentType, contentType)
}

// Decode parses body according to the format. JSON values are decoded with
// json.Number so integers keep their original text.
func (f Format) Decode(body []byte) (map[string]any, error) {
	switch f {
	case FormatJSON, FormatText:
		return decodeObject(body)
	case FormatForm:
		return decodeForm(body)
	}
	return nil, domain.ErrUnsupportedContentType
}

// Decode detects the format from contentType and parses body with it.
func Decode(contentType string, body []byte) (map[string]any, Format, error) {
	f, err := DetectFormat(contentType)
	if err != nil {
		return nil, f, err
	}
	fields, err := f.Decode(body)
	if err != nil {
		return nil, f, err
	}
	return fields, f, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", domain.ErrInvalidPayload)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", domain.ErrInvalidPayload)
	}
	return obj, nil
}

func decodeForm(body []byte) (map[string]any, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	fields := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields, nil
}

// stringField renders fields[key] as text. Strings are returned as-is,
// other non-null values as their JSON encoding.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// firstField returns the first non-blank value among keys.
func firstField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(stringField(fields, k)); v != "" {
			return v
		}
	}
	return ""
}
