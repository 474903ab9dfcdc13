package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/mindjournal/pkg/logger"
	"github.com/wonny/mindjournal/pkg/redis"
)

// Client fetches JSON documents from upstream APIs. Transient failures
// (5xx, 429 and transport errors) are retried with capped exponential
// backoff; a Retry-After header overrides the computed delay.
// SSOT: outbound HTTP goes through this client
type Client struct {
	http    *http.Client
	logger  *logger.Logger
	headers http.Header
	retry   RetryPolicy

	limiter   *redis.RateLimiter
	limitCfg  redis.RateLimitConfig
	userAgent string
}

// RetryPolicy controls how often and how patiently requests are repeated
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// delay is the wait before retry number n (0-based)
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < n && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// StatusError is returned by GetJSON for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// New returns a client with a 30s request timeout and three retries
func New(log *logger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  log.Component("http"),
		headers: make(http.Header),
		retry: RetryPolicy{
			MaxRetries: 3,
			BaseDelay:  time.Second,
			MaxDelay:   10 * time.Second,
		},
		userAgent: "mindjournal/1",
	}
}

// WithTimeout bounds each attempt
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.http.Timeout = d
	return c
}

// WithRetry sets the retry count and the first backoff delay
func (c *Client) WithRetry(maxRetries int, baseDelay time.Duration) *Client {
	c.retry.MaxRetries = maxRetries
	c.retry.BaseDelay = baseDelay
	return c
}

// DisableRetry makes every request a single attempt
func (c *Client) DisableRetry() *Client {
	return c.WithRetry(0, 0)
}

// WithHeader adds a header sent with every request
func (c *Client) WithHeader(key, value string) *Client {
	c.headers.Set(key, value)
	return c
}

// WithRateLimiter makes every attempt wait for a slot of cfg first
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.limiter = limiter
	c.limitCfg = cfg
	return c
}

// GetJSON fetches url and decodes a 2xx JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// get returns the first response that is not worth retrying, or the last
// one once retries run out
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	start := time.Now()
	reqLog := c.logger.WithField("url", url)

	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(ctx, url)

		retryable := err != nil || IsRetryableError(resp.StatusCode)
		if !retryable || attempt >= c.retry.MaxRetries {
			if err != nil {
				reqLog.WithError(err).WithField("attempts", attempt+1).Error("HTTP request failed")
				return nil, err
			}
			reqLog.WithFields(map[string]interface{}{
				"status_code": resp.StatusCode,
				"attempts":    attempt + 1,
				"duration":    time.Since(start),
			}).Debug("HTTP request completed")
			return resp, nil
		}

		wait := c.retry.delay(attempt)
		if resp != nil {
			if after, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
				wait = after
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		reqLog.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   wait,
		}).Warn("Retrying HTTP request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) attempt(ctx context.Context, url string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.limitCfg); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	req.Header = c.headers.Clone()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return c.http.Do(req)
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// IsRetryableError reports whether a status code is worth retrying
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
