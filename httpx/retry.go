// Package httpx wraps a walletcore.HttpClient with the NUT-19
// cached-endpoint retry policy: exponential backoff on network failure,
// bounded by a retry count and a time-to-live, with no retry at all for
// non-network (non-2xx) responses.
package httpx

import (
	"context"
	"time"

	walletcore "github.com/ecashkit/walletcore"
)

const (
	backoffBase = 100 * time.Millisecond
	backoffCap  = 1 * time.Second
	maxRetries  = 9
)

// Sleeper abstracts the retry delay so tests can drive it without real
// time passing.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

// Sleep implements Sleeper.
func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// RetryingClient decorates an HttpClient with the NUT-19 retry policy for
// requests the mint has declared cached/retryable. Non-cached requests
// should go to the wrapped client directly; this type's Do always applies
// the policy, so callers gate which requests get wrapped.
type RetryingClient struct {
	inner   walletcore.HttpClient
	clock   walletcore.Clock
	sleeper Sleeper
	ttl     time.Duration
}

// New builds a RetryingClient. ttl is the NUT-19 cached-endpoint ttl for
// the endpoint this client instance is used for; pass 0 for no ttl bound
// (retries are then capped by maxRetries alone).
func New(inner walletcore.HttpClient, clock walletcore.Clock, ttl time.Duration) *RetryingClient {
	if clock == nil {
		clock = walletcore.SystemClock{}
	}
	return &RetryingClient{inner: inner, clock: clock, sleeper: RealSleeper{}, ttl: ttl}
}

// WithSleeper overrides the retry delay implementation, for tests.
func (c *RetryingClient) WithSleeper(s Sleeper) *RetryingClient {
	c.sleeper = s
	return c
}

// Do issues req, retrying on network error only, up to maxRetries times or
// until ttl has elapsed since the first attempt, whichever comes first. A
// non-2xx HTTP response is returned immediately without retrying — only a
// failure to get a response at all is considered retryable.
func (c *RetryingClient) Do(ctx context.Context, req walletcore.HttpRequest) (walletcore.HttpResponse, error) {
	deadline := int64(0)
	if c.ttl > 0 {
		deadline = c.clock.NowMs() + c.ttl.Milliseconds()
	}

	var lastErr error
	delay := backoffBase
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.inner.Do(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, isNetworkErr := err.(*walletcore.NetworkError); !isNetworkErr {
			return resp, err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		if deadline != 0 && c.clock.NowMs() >= deadline {
			break
		}

		select {
		case <-ctx.Done():
			return walletcore.HttpResponse{}, ctx.Err()
		default:
		}

		c.sleeper.Sleep(delay)
		delay *= 2
		if delay > backoffCap {
			delay = backoffCap
		}
	}
	return walletcore.HttpResponse{}, lastErr
}
