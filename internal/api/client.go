package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 4 << 20
)

// Client talks to the lesson-trainer backend over JSON/HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the clock used for local token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  StaticToken(""),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// do sends a request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, authed bool, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		token := c.tokens.Token()
		if token == "" {
			return fmt.Errorf("%s: no token: %w", op, ErrUnauthorized)
		}
		if TokenExpired(token, c.now()) {
			return fmt.Errorf("%s: token expired: %w", op, ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if err := statusError(resp.StatusCode, data); err != nil {
		if resp.StatusCode >= 500 {
			c.logger.Warn("server error", zap.String("op", op), zap.Int("status", resp.StatusCode))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// statusError maps a response status onto the error taxonomy.
func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var payload errorResponse
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch status {
	case http.StatusUnauthorized:
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, ErrUnauthorized)
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, ErrAccessDenied)
		}
		return ErrAccessDenied
	default:
		return &StatusError{Status: status, Message: msg}
	}
}
