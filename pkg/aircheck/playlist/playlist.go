// Package playlist fetches and decodes the live stream's HLS media
// playlist. The rest of the system consumes only the decoded []Segment;
// the m3u8 wire format stays behind this boundary.
package playlist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/grafov/m3u8"
)

// ContentType is the only manifest content type the station serves; any
// other value means we are not talking to the stream origin.
const ContentType = "application/vnd.apple.mpegurl; charset=UTF-8"

// Segment is one listed media segment. Number is the HLS media sequence
// number: strictly increasing across manifest refreshes, gaps allowed.
type Segment struct {
	Number   uint64
	Duration time.Duration
	Title    string
	URI      string
}

// Manifest is one decoded manifest fetch. TargetDuration drives the poll
// cadence: the caller sleeps half of it between fetches.
type Manifest struct {
	Segments       []Segment
	TargetDuration time.Duration
}

// Client fetches manifests over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a playlist client. A nil httpClient selects a default
// with a 30 second timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// Fetch retrieves and decodes the media playlist at streamURL. A non-200
// status or unexpected content type is an error carrying the response body;
// callers treat it as fatal.
func (c *Client) Fetch(ctx context.Context, streamURL *url.URL) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build playlist request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch playlist: status %s: %s", resp.Status, string(body))
	}

	if ct := resp.Header.Get("Content-Type"); ct != ContentType {
		return nil, fmt.Errorf("fetch playlist: unexpected content type %q", ct)
	}

	decoded, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	media, ok := decoded.(*m3u8.MediaPlaylist)
	if !ok || listType != m3u8.MEDIA {
		return nil, fmt.Errorf("decode playlist: not a media playlist")
	}

	manifest := &Manifest{
		TargetDuration: secondsToDuration(media.TargetDuration),
	}
	for i := uint(0); i < media.Count(); i++ {
		seg := media.Segments[i]
		if seg == nil {
			continue
		}
		manifest.Segments = append(manifest.Segments, Segment{
			Number:   seg.SeqId,
			Duration: secondsToDuration(seg.Duration),
			Title:    seg.Title,
			URI:      resolveURI(streamURL, seg.URI),
		})
	}
	return manifest, nil
}

// resolveURI makes segment URIs absolute against the manifest URL. Values
// that do not parse are passed through for the caller to reject.
func resolveURI(base *url.URL, raw string) string {
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
