// Package httpretry wraps an http.Client with exponential backoff for
// transient failures (transport errors, 429 and 5xx), honoring Retry-After.
package httpretry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
)

// Client retries requests that fail transiently. Attempts counts the first
// try, so MaxRetries=1 disables retrying.
type Client struct {
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
}

// New constructs a Client. Zero values select the defaults.
func New(httpClient *http.Client, maxRetries int, baseBackoff time.Duration, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseBackoff <= 0 {
		baseBackoff = DefaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:  httpClient,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		logger:      logger,
	}
}

// Do sends req, replaying its body on every attempt. A non-retryable response
// is returned as is; the caller closes its body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("httpretry: read request body: %w", err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	ctx := req.Context()
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("httpretry: request canceled: %w", err)
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("httpretry: reset request body: %w", err)
			}
			req.Body = body
		}

		resp, err := c.httpClient.Do(req)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		fields := []zap.Field{
			zap.String("host", req.URL.Host),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
		}
		if err != nil {
			c.logger.Warn("retrying after error", append(fields, zap.Error(err))...)
		} else {
			c.logger.Warn("retrying after status", append(fields, zap.Int("status", resp.StatusCode))...)
			_ = resp.Body.Close()
		}

		if attempt == c.maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("httpretry: request failed after %d attempts: %w", c.maxRetries, err)
			}
			return nil, fmt.Errorf("httpretry: request failed after %d attempts: status %d", c.maxRetries, resp.StatusCode)
		}

		backoff := c.baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = retryAfter
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("httpretry: request failed after %d attempts", c.maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("httpretry: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
