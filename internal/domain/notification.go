package domain

import (
	"net/url"
	"strings"
)

// Notification is the normalized message handed to the sender.
// Message is always non-empty once a normalizer has returned it.
type Notification struct {
	Title    string `json:"title,omitempty"`
	Message  string `json:"message" validate:"required"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,http_url"`
}

// HasImage reports whether an attachment should be fetched before sending.
func (n Notification) HasImage() bool {
	return strings.TrimSpace(n.ImageURL) != ""
}

// Jellyfin defaults applied when the webhook plugin omits a field.
const (
	DefaultItemName     = "Unknown Item"
	DefaultItemType     = "Unknown Type"
	DefaultEventID      = "Unknown Event"
	DefaultItemOverview = "No description provided"
)

// JellyfinEvent holds the fields consumed from a Jellyfin webhook payload,
// together with the base URL the item image is fetched from.
type JellyfinEvent struct {
	ItemID       string
	ItemName     string
	SeriesName   string
	ItemType     string
	EventID      string
	ItemOverview string

	// BaseURL is empty when neither header, payload nor config provided one.
	BaseURL string
}

// Title composes the push title, preferring the series name over the item type.
func (e JellyfinEvent) Title() string {
	if e.SeriesName != "" {
		return e.EventID + " - " + e.SeriesName + ": " + e.ItemName
	}
	return e.EventID + " - " + e.ItemType + ": " + e.ItemName
}

// ImageURL returns the primary image endpoint for the item, or "" when
// either the base URL or the item ID is unknown.
func (e JellyfinEvent) ImageURL() string {
	if e.BaseURL == "" || e.ItemID == "" {
		return ""
	}
	return e.BaseURL + "/Items/" + url.PathEscape(e.ItemID) + "/Images/Primary"
}

// Notification converts the event into the uniform notification shape.
func (e JellyfinEvent) Notification() Notification {
	return Notification{
		Title:    e.Title(),
		Message:  e.ItemOverview,
		ImageURL: e.ImageURL(),
	}
}
