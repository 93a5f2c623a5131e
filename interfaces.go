package walletcore

import (
	"context"
	"crypto/rand"
	"io"
	"time"
)

// HttpRequest is the abstract shape of an outbound request. Everything
// above this layer (mint API, OIDC) builds one of these and hands it to an
// HttpClient; neither dials a socket itself.
type HttpRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HttpResponse is the abstract shape of the corresponding response.
type HttpResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// HttpClient is the single external collaborator this core requires for
// network access. Implementations are expected to honor ctx cancellation
// and deadlines.
type HttpClient interface {
	Do(ctx context.Context, req HttpRequest) (HttpResponse, error)
}

// Clock is the single point of time dependency, used for locktime checks
// and token-expiry comparisons.
type Clock interface {
	NowMs() int64
}

// SystemClock is the default Clock backed by the wall clock.
type SystemClock struct{}

// NowMs implements Clock.
func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }

// RNG is the injectable randomness source, used only for secret nonces and
// for random blinding factors when no deterministic seed is configured.
type RNG interface {
	Read(p []byte) (int, error)
}

// CryptoRNG is the default RNG backed by crypto/rand.
type CryptoRNG struct{}

// Read implements RNG.
func (CryptoRNG) Read(p []byte) (int, error) { return io.ReadFull(rand.Reader, p) }
