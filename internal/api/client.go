// Package api is the HTTP client for the order and push endpoints the
// notification subsystem depends on.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colonyops/ordernotify/internal/core/order"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/rs/zerolog/log"
)

// ErrStatus is wrapped by every non-2xx response error.
var ErrStatus = errors.New("unexpected status")

// StatusError carries the status code and a truncated body of a failed call.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the order service.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
}

// New creates a client rooted at opts.BaseURL (for example "https://host/api").
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "ordernotify"
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		token:     opts.Token,
		userAgent: ua,
		http:      hc,
	}
}

// Orders returns the caller's current orders in server order.
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/my-orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type vapidKeyResponse struct {
	PublicKey string `json:"public_key"`
}

// VAPIDKey returns the server's application server public key, URL-safe base64.
func (c *Client) VAPIDKey(ctx context.Context) (string, error) {
	var resp vapidKeyResponse
	if err := c.do(ctx, http.MethodGet, "/push/vapid-key", nil, &resp); err != nil {
		return "", err
	}
	if resp.PublicKey == "" {
		return "", fmt.Errorf("GET /push/vapid-key: empty public_key")
	}
	return resp.PublicKey, nil
}

// Subscribe registers the device's push subscription with the backend.
func (c *Client) Subscribe(ctx context.Context, d push.Descriptor) error {
	return c.do(ctx, http.MethodPost, "/push/subscribe", d, nil)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe removes the subscription identified by endpoint from the backend.
func (c *Client) Unsubscribe(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodPost, "/push/unsubscribe", unsubscribeRequest{Endpoint: endpoint}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: create request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("api: close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
