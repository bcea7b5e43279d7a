package aircheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMissingContentType reports a segment response without a Content-Type
// header, leaving no way to tag the stored audio format.
var ErrMissingContentType = errors.New("download: response has no content type")

// httpDownloader fetches segment bytes over plain HTTP GET. No retries:
// a failed segment is skipped and the cycle moves on.
type httpDownloader struct {
	httpClient *http.Client
}

func newHTTPDownloader(client *http.Client) *httpDownloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &httpDownloader{httpClient: client}
}

// Download fetches uri and returns the reported content type and body.
// Non-2xx statuses, transport failures, and a missing Content-Type header
// are all errors.
func (d *httpDownloader) Download(ctx context.Context, uri string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", nil, fmt.Errorf("build segment request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("download %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, fmt.Errorf("download %s: status %s", uri, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return "", nil, fmt.Errorf("download %s: %w", uri, ErrMissingContentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("download %s: read body: %w", uri, err)
	}
	return contentType, data, nil
}
