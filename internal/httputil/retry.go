// Package httputil provides the HTTP client used to fetch web articles and
// their images.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay is the first backoff wait; each retry doubles it.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// Defaults for Client.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
	DefaultUserAgent  = "Mozilla/5.0 (compatible; mxe/1.0; +https://github.com/alnah/go-mxe)"
	MaxBodySize       = 20 << 20
)

// Sentinel errors for HTTP fetches.
var (
	ErrStatus       = errors.New("unexpected HTTP status")
	ErrBodyTooLarge = errors.New("response body too large")
)

// Client wraps http.Client with retries on 429 and 5xx responses.
type Client struct {
	HTTP       *http.Client
	MaxRetries int
	UserAgent  string
	Logger     *zap.Logger
}

// NewClient returns a Client with default timeout, retries and user agent.
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTP:       &http.Client{Timeout: DefaultTimeout},
		MaxRetries: DefaultMaxRetries,
		UserAgent:  DefaultUserAgent,
		Logger:     logger,
	}
}

// Retryable reports whether a response status is worth retrying.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Do executes req and retries retryable statuses with exponential backoff:
// RetryBaseDelay, then double each attempt. A cancelled context ends the
// wait with ctx.Err(). After the last retry the final response is returned
// so the caller can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.HTTP.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		_ = resp.Body.Close()

		backoff := RetryBaseDelay << attempt
		logger.Debug("retrying request",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Get fetches url and returns the body of a 2xx response, capped at
// MaxBodySize.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %d", ErrStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: %s", ErrBodyTooLarge, url)
	}
	return body, nil
}
