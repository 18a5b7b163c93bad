// Package httpx holds the retrying HTTP transport shared by the upstream
// adapters.
package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/logging"
	"github.com/ewilliams-labs/shelfsound/internal/metrics"
)

const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 500 * time.Millisecond
)

// Retrier sends requests, retrying transport errors, 429 and 5xx responses
// with exponential backoff. A Retry-After header overrides the backoff.
type Retrier struct {
	// Upstream names the adapter in errors, logs and metrics.
	Upstream    string
	Client      *http.Client
	MaxRetries  int
	BaseBackoff time.Duration
}

// Do executes req. It returns the first non-retryable response, which the
// caller must close, or an error once every attempt is spent.
func (r *Retrier) Do(req *http.Request) (*http.Response, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseBackoff := r.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = DefaultBaseBackoff
	}

	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s adapter: read request body: %w", r.Upstream, err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	logger := logging.With(r.Upstream)
	ctx := req.Context()
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s adapter: request canceled: %w", r.Upstream, err)
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("%s adapter: reset request body: %w", r.Upstream, err)
			}
			req.Body = body
		}

		start := time.Now()
		resp, err := client.Do(req)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		metrics.ObserveUpstream(r.Upstream, status, start)

		retryAfter, retry := ShouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		attemptNum := attempt + 1
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attemptNum).Int("max", maxRetries).Msg("retrying after error")
		} else {
			logger.Warn().Int("status", status).Int("attempt", attemptNum).Int("max", maxRetries).Msg("retrying after status")
			_ = resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("%s adapter: request failed after %d attempts: %w", r.Upstream, maxRetries, err)
			}
			return nil, fmt.Errorf("%s adapter: request failed after %d attempts: status %d", r.Upstream, maxRetries, status)
		}

		backoff := baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = retryAfter
		}

		if err := SleepWithContext(ctx, backoff); err != nil {
			return nil, fmt.Errorf("%s adapter: %w", r.Upstream, err)
		}
	}

	return nil, fmt.Errorf("%s adapter: request failed after %d attempts", r.Upstream, maxRetries)
}

// ShouldRetry reports whether the outcome of one attempt is worth retrying,
// along with any server-requested delay.
func ShouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		// A canceled caller is not a transient failure.
		if contextError(err) {
			return 0, false
		}
		return 0, true
	}
	if resp == nil {
		return 0, false
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return ParseRetryAfter(resp), true
	}

	return 0, false
}

// ParseRetryAfter reads a Retry-After header in either seconds or HTTP-date form.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		until := time.Until(when)
		if until > 0 {
			return until
		}
	}

	return 0
}

// SleepWithContext waits for delay or until ctx is done.
func SleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func contextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
