package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	walletcore "github.com/ecashkit/walletcore"
	"github.com/ecashkit/walletcore/oidc"
)

// CAT is the clear-authentication-token state the spec assigns to
// AuthManager: an access token, an optional refresh token, and a
// best-effort expiry.
type CAT struct {
	AccessToken  string
	RefreshToken string
	ExpiresAtMs  *int64
}

// catRefreshCall is the in-flight single-flight ticket concurrent
// EnsureCat callers share.
type catRefreshCall struct {
	done chan struct{}
	cat  *CAT
	err  error
}

// CatManager owns the current CAT and refreshes it via an OIDC client,
// single-flighting concurrent refresh attempts and broadcasting to
// registered listeners outside its own lock.
type CatManager struct {
	mu     sync.Mutex
	clock  walletcore.Clock
	logger zerolog.Logger
	oidc   *oidc.Client

	current  *CAT
	inflight *catRefreshCall

	listenersMu sync.Mutex
	listeners   []func(CAT)
}

// NewCatManager builds a CatManager. oidcClient may be nil if this wallet
// never refreshes (e.g. a CAT set once via SetCat and never renewed).
// logger may be nil, defaulting to a no-op logger.
func NewCatManager(clock walletcore.Clock, logger *zerolog.Logger, oidcClient *oidc.Client) *CatManager {
	if clock == nil {
		clock = walletcore.SystemClock{}
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &CatManager{clock: clock, logger: l, oidc: oidcClient}
}

// SetCat installs a CAT directly, bypassing OIDC (e.g. a password-grant
// token obtained out of band).
func (c *CatManager) SetCat(cat *CAT) {
	c.mu.Lock()
	c.current = cat
	c.mu.Unlock()
}

// Current returns the CAT currently held, or nil.
func (c *CatManager) Current() *CAT {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// OnTokenRefresh registers a listener invoked, outside any lock, every
// time a refresh succeeds.
func (c *CatManager) OnTokenRefresh(fn func(CAT)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *CatManager) broadcast(cat CAT) {
	c.listenersMu.Lock()
	snapshot := append([]func(CAT){}, c.listeners...)
	c.listenersMu.Unlock()
	for _, fn := range snapshot {
		fn(cat)
	}
}

func (c *CAT) validFor(nowMs int64, minValidSecs int64) bool {
	if c.ExpiresAtMs == nil {
		return true
	}
	return *c.ExpiresAtMs-nowMs >= minValidSecs*1000
}

// EnsureCat returns an access token valid for at least minValidSecs more
// seconds. If the held CAT is already valid long enough (or its expiry is
// unknown), it is returned as-is. Otherwise, if a refresh token and OIDC
// client are available, a refresh is attempted — concurrent callers that
// arrive while one is in flight share its result rather than issuing their
// own. A failed refresh is logged and swallowed: the caller gets back the
// existing, possibly stale, token rather than an error.
func (c *CatManager) EnsureCat(ctx context.Context, minValidSecs int64) (string, error) {
	c.mu.Lock()
	cur := c.current
	if cur != nil && cur.validFor(c.clock.NowMs(), minValidSecs) {
		c.mu.Unlock()
		return cur.AccessToken, nil
	}
	if cur == nil {
		c.mu.Unlock()
		return "", walletcore.ErrClearAuthRequired
	}
	if cur.RefreshToken == "" || c.oidc == nil {
		c.mu.Unlock()
		return cur.AccessToken, nil
	}

	if c.inflight != nil {
		call := c.inflight
		c.mu.Unlock()
		<-call.done
		if call.err != nil {
			c.mu.Lock()
			stale := c.current.AccessToken
			c.mu.Unlock()
			return stale, nil
		}
		return call.cat.AccessToken, nil
	}

	call := &catRefreshCall{done: make(chan struct{})}
	c.inflight = call
	refreshToken := cur.RefreshToken
	c.mu.Unlock()

	tok, err := c.oidc.Refresh(ctx, refreshToken)

	c.mu.Lock()
	c.inflight = nil
	if err != nil {
		call.err = err
		close(call.done)
		stale := c.current.AccessToken
		c.mu.Unlock()
		c.logger.Warn().Err(err).Msg("cat refresh failed, keeping stale token")
		return stale, nil
	}

	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	newCat := &CAT{AccessToken: tok.AccessToken, RefreshToken: newRefresh, ExpiresAtMs: tok.ExpiresAtMs}
	c.current = newCat
	call.cat = newCat
	close(call.done)
	c.mu.Unlock()

	c.broadcast(*newCat)
	return newCat.AccessToken, nil
}
