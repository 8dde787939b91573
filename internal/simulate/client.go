package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/bookarena/internal/adapters/http/api"
)

// Client talks to the ranking API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, client: &http.Client{Timeout: timeout}}
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, []byte, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp, data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, data, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %w: %d: %s", path, ErrStatus, resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, v)
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Pair fetches the next pair.
func (c *Client) Pair(ctx context.Context) (Pair, error) {
	var p Pair
	err := c.getJSON(ctx, "/pair", &p)
	return p, err
}

// Rankings fetches the full ranked list.
func (c *Client) Rankings(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.getJSON(ctx, "/rankings", &entries)
	return entries, err
}

// Submit posts a vote under an idempotency key and reports whether the
// server answered from its replay cache.
func (c *Client) Submit(ctx context.Context, key string, v Vote) (replayed bool, err error) {
	header := http.Header{}
	header.Set(api.IdempotencyHeader, key)
	resp, data, err := c.do(ctx, http.MethodPost, "/comparisons", v, header)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("POST /comparisons: %w: %d: %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(data))
	}
	return resp.Header.Get(api.ReplayedHeader) == "true", nil
}
