// Package emy is the HTTP client for the external acoustic-fingerprint
// service. The service is the authority on whether audio has been seen
// before: Query reports matches against its catalog, Insert registers new
// audio under a caller-chosen identifier.
package emy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Match is one catalog track the service recognized in the queried audio.
type Match struct {
	ID     string  `json:"id"`
	Artist string  `json:"artist"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// Track labels audio registered with the service. The label is a
// correlation aid for the service's own UI, never a storage key.
type Track struct {
	ID     string `json:"id"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Client talks to one fingerprint service instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for the service at baseURL. A nil httpClient
// selects a default with a 60 second timeout; apiKey may be empty.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// Query submits audio bytes and returns the catalog matches, empty when the
// audio is unknown to the service.
func (c *Client) Query(ctx context.Context, filename string, audio []byte) ([]Match, error) {
	body, contentType, err := encodeUpload(nil, filename, audio)
	if err != nil {
		return nil, fmt.Errorf("encode query upload: %w", err)
	}

	respBody, err := c.post(ctx, "/api/v1.1/query", contentType, body)
	if err != nil {
		return nil, fmt.Errorf("fingerprint query: %w", err)
	}

	var matches []Match
	if err := json.Unmarshal(respBody, &matches); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return matches, nil
}

// Insert registers audio bytes under track's identifier and label.
func (c *Client) Insert(ctx context.Context, track Track, filename string, audio []byte) error {
	fields := map[string]string{
		"id":     track.ID,
		"artist": track.Artist,
		"title":  track.Title,
	}
	body, contentType, err := encodeUpload(fields, filename, audio)
	if err != nil {
		return fmt.Errorf("encode insert upload: %w", err)
	}

	if _, err := c.post(ctx, "/api/v1.1/tracks", contentType, body); err != nil {
		return fmt.Errorf("fingerprint insert: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body *bytes.Buffer) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %s: %s", resp.Status, string(respBody))
	}
	return respBody, nil
}

// encodeUpload builds a multipart body carrying optional form fields plus
// the audio file part.
func encodeUpload(fields map[string]string, filename string, audio []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
