// Package httpretry provides the retrying transport the reporting API clients
// sit on. It plays the part of the vendor SDK transport: transient failures
// (429, 5xx, network errors) are retried with jittered exponential backoff,
// everything else is returned to the caller untouched.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *Client satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Policy controls how many times and how slowly a request is retried.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy mirrors the Google API client defaults closely enough for reporting reads.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// Transport is an http.RoundTripper that retries transient failures.
// It is safe to place underneath oauth2.Transport.
type Transport struct {
	base   http.RoundTripper
	policy Policy
	sleep  func(time.Duration) <-chan time.Time
}

// NewTransport wraps base (http.DefaultTransport when nil) with the given policy.
func NewTransport(base http.RoundTripper, policy Policy) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	return &Transport{base: base, policy: policy, sleep: time.After}
}

// NewClient returns an *http.Client whose transport retries per policy.
func NewClient(timeout time.Duration, policy Policy) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(nil, policy),
	}
}

// RoundTrip executes the request, retrying 429/5xx responses and network errors.
// Client errors (400, 401, 403, 404) and context cancellation are never retried.
// The final attempt's response is returned as-is so callers can read the body.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.policy.MaxRetries; attempt++ {
		if err := req.Context().Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: reset request body: %w", err)
				}
				req = req.Clone(req.Context())
				req.Body = body
			}

			delay := t.delay(attempt)
			logger.Debug("retrying request",
				"attempt", attempt,
				"max_retries", t.policy.MaxRetries,
				"method", req.Method,
				"host", req.URL.Host,
				"path", req.URL.Path,
				"delay", delay,
			)
			select {
			case <-t.sleep(delay):
			case <-req.Context().Done():
				return nil, lastErr
			}
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !IsRetryableStatus(resp.StatusCode) || attempt == t.policy.MaxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: server returned retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// delay is full-jitter exponential backoff with a 100ms floor.
func (t *Transport) delay(attempt int) time.Duration {
	exp := float64(t.policy.BaseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(t.policy.MaxDelay) {
		exp = float64(t.policy.MaxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

// IsRetryableStatus reports whether a status code is a transient server-side failure.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
