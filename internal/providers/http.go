package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPError is a non-200 response from a provider endpoint.
// RetryAfter is parsed from the Retry-After header when present.
type HTTPError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// ParseRetryAfter parses a Retry-After header value (delta-seconds form).
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// RetryConfig bounds retry behaviour for transient provider failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig retries 429/5xx twice with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// RetryDo runs fn, retrying on retryable HTTP errors (429 and 5xx) with
// exponential backoff. A Retry-After hint from the server overrides the
// computed delay. Non-HTTP errors and 4xx are returned immediately.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	delay := cfg.BaseDelay

	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || attempt >= cfg.MaxRetries {
			return zero, err
		}
		if httpErr.Status != http.StatusTooManyRequests && httpErr.Status < 500 {
			return zero, err
		}

		wait := delay
		if httpErr.RetryAfter > 0 {
			wait = httpErr.RetryAfter
		}
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
}

// newLimiter builds a client-side request limiter; rps <= 0 means unlimited.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// friendlyError maps transport and HTTP failures to the user-facing taxonomy:
// 401 Unauthorized, 404 Endpoint not found, 400 Bad request (with provider
// detail when present), everything else wrapped as "API Error: …".
func friendlyError(name string, err error) error {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("API Error: %s: %w", name, err)
	}

	switch httpErr.Status {
	case http.StatusUnauthorized:
		return fmt.Errorf("Unauthorized: invalid or missing API key for %s", name)
	case http.StatusNotFound:
		return fmt.Errorf("Endpoint not found: check the %s base URL and model name", name)
	case http.StatusBadRequest:
		if detail := extractErrorDetail(httpErr.Body); detail != "" {
			return fmt.Errorf("Bad request: %s", detail)
		}
		return fmt.Errorf("Bad request: %s rejected the request", name)
	default:
		detail := extractErrorDetail(httpErr.Body)
		if detail == "" {
			detail = fmt.Sprintf("%s returned HTTP %d", name, httpErr.Status)
		}
		return fmt.Errorf("API Error: %s", detail)
	}
}

// extractErrorDetail digs the human message out of a provider error body.
// All four dialects nest it differently; fall back to the raw body.
func extractErrorDetail(body string) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &nested); err == nil {
		if nested.Error.Message != "" {
			return nested.Error.Message
		}
		if nested.Message != "" {
			return nested.Message
		}
	}
	body = strings.TrimSpace(body)
	if len(body) > 300 {
		body = body[:300]
	}
	return body
}
