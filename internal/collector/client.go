// Package collector provides the client that uploads session dumps to the
// remote collection endpoint.
package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultURL is the standard collection endpoint. Uploads carry usage
	// traces and must only happen with the operator's consent.
	DefaultURL = "https://collect.probfoundry.dev/save_sessions"

	requestTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

// Client posts session dumps to a fixed endpoint. There is no retry,
// batching, or delivery tracking: a failed POST propagates to the caller.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the given endpoint URL. An empty URL
// falls back to DefaultURL.
func NewClient(endpoint string) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{},
	}
}

// Endpoint returns the collection URL this client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SendSession uploads one session's JSON dump as the session_json form
// field and returns the server's response body as opaque text.
func (c *Client) SendSession(ctx context.Context, sessionJSON string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	form := url.Values{"session_json": {sessionJSON}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("collector: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("collector: upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("collector: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("collector: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}
