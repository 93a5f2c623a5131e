// Package auth implements the blind-authentication-token (BAT) pool and
// the clear-authentication-token (CAT) manager that sits beside it: a
// single mutex-serialized pool of pre-minted auth proofs, topped up in
// batches from the mint's blind-auth keyset, plus an OIDC-backed CAT for
// endpoints the mint declares clear-auth protected instead.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	walletcore "github.com/ecashkit/walletcore"
	"github.com/ecashkit/walletcore/cashu"
)

// RNG is the randomness source needed for the non-deterministic outputs a
// BAT top-up mints (auth proofs are never derived from the wallet seed).
type RNG interface {
	Read(p []byte) (int, error)
}

// AuthManager owns the BAT pool for one mint. It is safe for concurrent
// use; GetBlindAuthToken and Ensure, and the top-ups they trigger, all
// serialize through the same mutex, matching the spec's "classical serial-dispatch queue" guidance.
type AuthManager struct {
	mu sync.Mutex

	httpClient  walletcore.HttpClient
	clock       walletcore.Clock
	rng         RNG
	mintBaseURL string
	logger      zerolog.Logger

	desiredPoolSize int
	maxPerMint      int

	infoLoaded    bool
	mintInfo      *MintInfo
	activeKeyset  *cashu.Keyset
	pool          []*cashu.Proof

	cat *CatManager
}

// Config configures a new AuthManager. Logger is optional; a nil Logger
// defaults to a no-op logger rather than the zerolog zero value, which
// would write to a nil destination.
type Config struct {
	HttpClient      walletcore.HttpClient
	Clock           walletcore.Clock
	RNG             RNG
	MintBaseURL     string
	DesiredPoolSize int
	MaxPerMint      int
	Logger          *zerolog.Logger
	Cat             *CatManager
}

// NewAuthManager builds a pool with an empty inventory; the first call to
// Ensure or GetBlindAuthToken triggers mint-info/keyset discovery.
func NewAuthManager(cfg Config) *AuthManager {
	if cfg.Clock == nil {
		cfg.Clock = walletcore.SystemClock{}
	}
	maxPerMint := cfg.MaxPerMint
	if maxPerMint < 1 {
		maxPerMint = 1
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &AuthManager{
		httpClient:      cfg.HttpClient,
		clock:           cfg.Clock,
		rng:             cfg.RNG,
		mintBaseURL:     cfg.MintBaseURL,
		logger:          logger,
		desiredPoolSize: cfg.DesiredPoolSize,
		maxPerMint:      maxPerMint,
		cat:             cfg.Cat,
	}
}

// PoolSize reports the current pool depth.
func (m *AuthManager) PoolSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pool)
}

// Ensure lazily loads mint info/keys on first call, then, if the pool holds
// fewer than min proofs, mints one batch toward max(min, DesiredPoolSize)
// in a single mint request. The batch is capped at the mint's bat_max_mint
// and at MaxPerMint, so the pool can still hold fewer than min proofs when
// Ensure returns nil.
func (m *AuthManager) Ensure(ctx context.Context, min int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx, min)
}

func (m *AuthManager) ensureLocked(ctx context.Context, min int) error {
	if !m.infoLoaded {
		info, err := m.fetchMintInfo(ctx)
		if err != nil {
			return err
		}
		keyset, err := m.fetchActiveAuthKeyset(ctx)
		if err != nil {
			return err
		}
		m.mintInfo = info
		m.activeKeyset = keyset
		m.infoLoaded = true
	}

	if len(m.pool) >= min {
		return nil
	}

	target := m.desiredPoolSize
	if min > target {
		target = min
	}
	batch := target - len(m.pool)
	if m.mintInfo.Nut22.BatMaxMint > 0 && batch > m.mintInfo.Nut22.BatMaxMint {
		batch = m.mintInfo.Nut22.BatMaxMint
	}
	if batch > m.maxPerMint {
		batch = m.maxPerMint
	}
	if batch <= 0 {
		return nil
	}
	return m.topUpLocked(ctx, batch)
}

// GetBlindAuthToken returns a serialized "authA..." header for a single
// request to method/path, consuming one proof from the pool. The whole
// operation — ensure, pop, serialize — runs under the manager's mutex, so
// concurrent callers observe strict FIFO hand-out of distinct proofs.
func (m *AuthManager) GetBlindAuthToken(ctx context.Context, method, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLocked(ctx, 1); err != nil {
		return "", err
	}

	if m.mintInfo != nil && !m.mintInfo.Nut22.IsProtected(method, path) {
		m.logger.Warn().Str("method", method).Str("path", path).
			Msg("issuing a blind auth token for an endpoint not declared nut-22 protected")
	}

	if len(m.pool) == 0 {
		return "", walletcore.ErrNoBlindAuthTokenAvailable
	}

	proof := m.pool[0]
	m.pool = m.pool[1:]
	batPoolSize.Set(float64(len(m.pool)))
	batTokensIssuedTotal.Inc()

	return serializeBat(proof)
}

// ImportMode selects ImportPool's merge behavior.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

var errIncompleteProof = errors.New("auth: imported proof missing secret, C, or keyset id")

// ImportPool loads proofs into the pool. ImportReplace empties the pool
// first; ImportMerge keeps the existing entries. Either way, entries are
// deduplicated by secret and any proof missing its secret, C, or keyset id
// is rejected outright (the whole call fails, nothing is imported).
func (m *AuthManager) ImportPool(proofs []*cashu.Proof, mode ImportMode) error {
	for _, p := range proofs {
		if len(p.Secret) == 0 || p.C == nil || p.KeysetID == "" {
			return errIncompleteProof
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(m.pool)+len(proofs))
	var merged []*cashu.Proof
	if mode == ImportMerge {
		for _, p := range m.pool {
			if !seen[string(p.Secret)] {
				seen[string(p.Secret)] = true
				merged = append(merged, p)
			}
		}
	}
	for _, p := range proofs {
		if !seen[string(p.Secret)] {
			seen[string(p.Secret)] = true
			merged = append(merged, p)
		}
	}
	m.pool = merged
	batPoolSize.Set(float64(len(m.pool)))
	return nil
}

// ExportPool returns a deep copy of the current pool, including any
// retained DLEQ material.
func (m *AuthManager) ExportPool() []*cashu.Proof {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*cashu.Proof, len(m.pool))
	for i, p := range m.pool {
		cp := *p
		cp.Secret = append([]byte(nil), p.Secret...)
		if p.Dleq != nil {
			dleq := *p.Dleq
			cp.Dleq = &dleq
		}
		out[i] = &cp
	}
	return out
}

func (m *AuthManager) topUpLocked(ctx context.Context, n int) error {
	amounts := make([]uint64, n)
	for i := range amounts {
		amounts[i] = 1
	}

	outputs, err := cashu.BuildOutputs(m.activeKeyset, amounts, nil, nil, m.rng)
	if err != nil {
		return err
	}

	wireOutputs := make([]cashu.BlindedMessageWire, len(outputs))
	for i, od := range outputs {
		wireOutputs[i] = od.ToBlindedMessage().ToWire()
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if m.mintInfo.Nut21.IsProtected("POST", "/v1/auth/blind/mint") {
		cat, err := m.cat.EnsureCat(ctx, defaultMinValidSecs)
		if err != nil {
			return err
		}
		headers["Clear-auth"] = cat
	}

	body, err := json.Marshal(struct {
		Outputs []cashu.BlindedMessageWire `json:"outputs"`
	}{Outputs: wireOutputs})
	if err != nil {
		return err
	}

	resp, err := m.httpClient.Do(ctx, walletcore.HttpRequest{
		Method: "POST", URL: m.mintBaseURL + "/v1/auth/blind/mint", Headers: headers, Body: body,
	})
	if err != nil {
		return &walletcore.NetworkError{Message: "auth blind mint request failed", Cause: err}
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return &walletcore.HttpResponseError{Status: resp.Status, Message: "auth blind mint"}
	}

	var mintResp struct {
		Signatures []cashu.BlindSignatureWire `json:"signatures"`
	}
	if err := json.Unmarshal(resp.Body, &mintResp); err != nil {
		return walletcore.ErrBadBatMintResponse
	}
	if len(mintResp.Signatures) != n {
		return walletcore.ErrBadBatMintResponse
	}

	proofs := make([]*cashu.Proof, n)
	for i, sigWire := range mintResp.Signatures {
		sig, err := cashu.BlindSignatureFromWire(sigWire)
		if err != nil {
			return err
		}
		proof, err := cashu.ToProof(sig, outputs[i], m.activeKeyset)
		if err != nil {
			return err
		}
		proofs[i] = proof
	}

	m.pool = append(m.pool, proofs...)
	batTokensMintedTotal.Add(float64(n))
	batPoolSize.Set(float64(len(m.pool)))
	return nil
}

const defaultMinValidSecs = 30

type batPayload struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
	C      string `json:"C"`
}

func serializeBat(p *cashu.Proof) (string, error) {
	payload := batPayload{ID: p.KeysetID, Secret: string(p.Secret), C: p.C.Hex()}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "authA" + base64.StdEncoding.EncodeToString(b), nil
}

// DecodeBatHeader parses a "authA..." header back into its {id, secret, C}
// payload, used by the BAT serialization round-trip property test.
func DecodeBatHeader(header string) (id, secret, c string, err error) {
	if len(header) < 5 || header[:5] != "authA" {
		return "", "", "", errNotABatHeader
	}
	raw, err := base64.StdEncoding.DecodeString(header[5:])
	if err != nil {
		return "", "", "", err
	}
	var payload batPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", "", "", err
	}
	return payload.ID, payload.Secret, payload.C, nil
}

var errNotABatHeader = errors.New("auth: not a blind-auth header")
