// Package fetcher downloads images that are attached to outgoing
// notifications.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
	"github.com/notifyhub/jf-pushover-webhook/internal/provider"
)

// MaxAttachmentBytes is the largest attachment Pushover accepts.
const MaxAttachmentBytes = 5 << 20

const fallbackContentType = "image/jpeg"

// Fetcher is the image download contract the relay depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*provider.Attachment, error)
}

// ImageFetcher downloads attachments over HTTP with a per-call deadline.
type ImageFetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
}

// NewImageFetcher returns a fetcher. A nil client means a plain http.Client.
func NewImageFetcher(client *http.Client, timeout time.Duration) *ImageFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &ImageFetcher{httpClient: client, timeout: timeout, maxBytes: MaxAttachmentBytes}
}

// Fetch downloads url. Non-2xx answers, bodies over MaxAttachmentBytes and
// transport errors are all returned as errors; the caller decides whether to
// send without an attachment.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) (*provider.Attachment, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, f.tooLarge(resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, f.tooLarge(int64(len(data)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch image: empty body")
	}

	contentType := detectContentType(resp.Header.Get("Content-Type"), data)
	return &provider.Attachment{
		Data:        data,
		ContentType: contentType,
		Filename:    "image" + extensionFor(contentType),
	}, nil
}

func (f *ImageFetcher) tooLarge(n int64) error {
	return fmt.Errorf("%w: %s over %s", domain.ErrAttachmentTooLarge,
		humanize.IBytes(uint64(n)), humanize.IBytes(uint64(f.maxBytes)))
}

// detectContentType trusts a specific image/* header, then content sniffing,
// then falls back to image/jpeg.
func detectContentType(header string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	if detected := mimetype.Detect(data); strings.HasPrefix(detected.String(), "image/") {
		mediaType, _, _ := mime.ParseMediaType(detected.String())
		return mediaType
	}
	return fallbackContentType
}

func extensionFor(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".jpg"
}

// compile-time check that ImageFetcher implements Fetcher
var _ Fetcher = (*ImageFetcher)(nil)
