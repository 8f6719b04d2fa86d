package fetcher_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
	"github.com/notifyhub/jf-pushover-webhook/internal/fetcher"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func serve(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestImageFetcher_Fetch(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	})

	att, err := fetcher.NewImageFetcher(nil, time.Second).Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, att.Data)
	assert.Equal(t, "image/png", att.ContentType)
	assert.Equal(t, "image.png", att.Filename)
}

func TestImageFetcher_ContentTypeDetection(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		body   []byte
		want   string
	}{
		{"explicit jpeg with params", []string{"image/jpeg; charset=binary"}, []byte("jpegdata"), "image/jpeg"},
		{"generic type sniffed", []string{"application/octet-stream"}, pngHeader, "image/png"},
		{"missing type sniffed", nil, pngHeader, "image/png"},
		{"unrecognisable falls back to jpeg", nil, []byte("not really an image"), "image/jpeg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			url := serve(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header()["Content-Type"] = tc.header
				_, _ = w.Write(tc.body)
			})

			att, err := fetcher.NewImageFetcher(nil, time.Second).Fetch(context.Background(), url)
			require.NoError(t, err)
			assert.Equal(t, tc.want, att.ContentType)
		})
	}
}

func TestImageFetcher_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		url := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			http.NotFound(w, nil)
		})
		_, err := fetcher.NewImageFetcher(nil, time.Second).Fetch(context.Background(), url)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("empty body", func(t *testing.T) {
		url := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		_, err := fetcher.NewImageFetcher(nil, time.Second).Fetch(context.Background(), url)
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		big := bytes.Repeat([]byte{0xff}, fetcher.MaxAttachmentBytes+1)
		url := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(big)
		})
		_, err := fetcher.NewImageFetcher(nil, 5*time.Second).Fetch(context.Background(), url)
		require.ErrorIs(t, err, domain.ErrAttachmentTooLarge)
		assert.Contains(t, err.Error(), "5.0 MiB")
	})

	t.Run("timeout", func(t *testing.T) {
		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		start := time.Now()
		_, err := fetcher.NewImageFetcher(nil, 50*time.Millisecond).Fetch(context.Background(), url)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := fetcher.NewImageFetcher(nil, time.Second).Fetch(context.Background(), "http://[::1")
		assert.Error(t, err)
	})
}
