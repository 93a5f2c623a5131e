package auth

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/ecashkit/walletcore/cashu"
	"github.com/ecashkit/walletcore/curve"
)

type cryptoRNG struct{}

func (cryptoRNG) Read(p []byte) (int, error) { return rand.Read(p) }

func testKeyset(id string) *cashu.Keyset {
	sk := curve.ScalarFromUint64(5)
	return &cashu.Keyset{
		ID: id, Unit: "auth", Active: true,
		Keys: map[uint64]*curve.Point{1: curve.G().Mul(sk)},
	}
}

func testProof(t *testing.T, secret string) *cashu.Proof {
	t.Helper()
	sk := curve.ScalarFromUint64(5)
	return &cashu.Proof{
		Amount:   1,
		KeysetID: "00aabbccddeeff00",
		Secret:   []byte(secret),
		C:        curve.G().Mul(sk),
	}
}

func newManagerWithSeededPool(t *testing.T, proofs ...*cashu.Proof) *AuthManager {
	t.Helper()
	m := NewAuthManager(Config{RNG: cryptoRNG{}, MintBaseURL: "https://mint.example", MaxPerMint: 10})
	m.infoLoaded = true
	m.mintInfo = &MintInfo{Nut22: Nut22Info{BatMaxMint: 10}}
	m.activeKeyset = testKeyset("00aabbccddeeff00")
	m.pool = proofs
	return m
}

// Scenario 6: two concurrent GetBlindAuthToken calls against a
// two-proof pool must return two distinct proofs and leave the pool empty.
func TestConcurrentBatIssuanceYieldsDistinctProofsAndEmptiesPool(t *testing.T) {
	p1 := testProof(t, "S1")
	p2 := testProof(t, "S2")
	m := newManagerWithSeededPool(t, p1, p2)

	var wg sync.WaitGroup
	headers := make([]string, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			headers[i], errs[i] = m.GetBlindAuthToken(context.Background(), "POST", "/v1/mint/quote/bolt11")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if headers[0] == headers[1] {
		t.Fatal("expected two concurrent callers to receive distinct tokens")
	}
	if m.PoolSize() != 0 {
		t.Fatalf("expected pool to be empty after 2 calls against 2 proofs, got %d", m.PoolSize())
	}
}

// BAT serialization round-trip property.
func TestBatHeaderRoundTrip(t *testing.T) {
	p := testProof(t, "roundtrip-secret")
	header, err := serializeBat(p)
	if err != nil {
		t.Fatal(err)
	}
	id, secret, c, err := DecodeBatHeader(header)
	if err != nil {
		t.Fatal(err)
	}
	if id != p.KeysetID || secret != string(p.Secret) || c != p.C.Hex() {
		t.Fatalf("round trip mismatch: id=%s secret=%s c=%s", id, secret, c)
	}
}

func TestImportPoolDedupsBySecretAndRejectsIncomplete(t *testing.T) {
	m := NewAuthManager(Config{RNG: cryptoRNG{}})
	p1 := testProof(t, "dup")
	p2 := testProof(t, "dup")
	p3 := testProof(t, "unique")

	if err := m.ImportPool([]*cashu.Proof{p1, p2, p3}, ImportReplace); err != nil {
		t.Fatal(err)
	}
	if m.PoolSize() != 2 {
		t.Fatalf("expected dedup to leave 2 proofs, got %d", m.PoolSize())
	}

	incomplete := &cashu.Proof{Amount: 1}
	if err := m.ImportPool([]*cashu.Proof{incomplete}, ImportMerge); err != errIncompleteProof {
		t.Fatalf("expected errIncompleteProof, got %v", err)
	}
	if m.PoolSize() != 2 {
		t.Fatal("rejected import must not mutate the pool")
	}
}

func TestExportPoolIsADeepCopy(t *testing.T) {
	m := newManagerWithSeededPool(t, testProof(t, "S1"))
	exported := m.ExportPool()
	exported[0].Secret[0] = 'X'

	original := m.ExportPool()
	if string(original[0].Secret) == string(exported[0].Secret) {
		t.Fatal("mutating an exported proof must not affect the pool")
	}
}
