package payload

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

// Base URL sources, checked headers first, then payload fields.
var (
	baseURLHeaders = []string{"X-Jellyfin-URL", "X-Base-URL", "X-External-Base-Url"}
	baseURLFields  = []string{"ServerUrl", "JellyfinUrl", "JellyfinBaseUrl", "ExternalUrl"}
)

// NormalizeJellyfin builds a notification from a Jellyfin webhook plugin
// body. A missing base URL or ItemId only means the notification goes out
// without an image. The returned warnings describe a base URL that was
// rejected.
func NormalizeJellyfin(contentType string, headers http.Header, body []byte, defaultBaseURL string) (domain.JellyfinEvent, domain.Notification, []string, error) {
	fields, _, err := Decode(contentType, body)
	if err != nil {
		return domain.JellyfinEvent{}, domain.Notification{}, nil, err
	}

	e := domain.JellyfinEvent{
		ItemID:       firstField(fields, "ItemId"),
		ItemName:     orDefault(firstField(fields, "ItemName"), domain.DefaultItemName),
		SeriesName:   firstField(fields, "SeriesName"),
		ItemType:     orDefault(firstField(fields, "ItemType"), domain.DefaultItemType),
		EventID:      orDefault(firstField(fields, "EventId", "NotificationType"), domain.DefaultEventID),
		ItemOverview: orDefault(firstField(fields, "ItemOverview"), domain.DefaultItemOverview),
		BaseURL:      ResolveBaseURL(headers, fields, defaultBaseURL),
	}

	var warnings []string
	n := e.Notification()
	if n.ImageURL != "" && validate.Var(n.ImageURL, "http_url") != nil {
		warnings = append(warnings, fmt.Sprintf("dropped image: base URL %q is not an absolute http(s) URL", e.BaseURL))
		n.ImageURL = ""
	}
	return e, n, warnings, nil
}

// ResolveBaseURL picks the Jellyfin base URL from request headers, then
// payload fields, then the configured default. The result has no trailing
// slash and is empty when no source provides one.
func ResolveBaseURL(headers http.Header, fields map[string]any, defaultBaseURL string) string {
	for _, h := range baseURLHeaders {
		if v := strings.TrimSpace(headers.Get(h)); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	if v := firstField(fields, baseURLFields...); v != "" {
		return strings.TrimRight(v, "/")
	}
	return strings.TrimRight(strings.TrimSpace(defaultBaseURL), "/")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
