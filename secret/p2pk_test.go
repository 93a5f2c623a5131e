package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/ecashkit/walletcore/curve"
)

func mustKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

func now() int64 { return time.Now().UnixMilli() }

// Scenario 4: 2-of-3 P2PK multisig.
func TestP2PKMultisig(t *testing.T) {
	a, b, c := mustKey(t), mustKey(t), mustKey(t)
	outsider := mustKey(t)

	secretStr, err := CreateP2PKSecret(xOnlyHex(a.PubKey()), Tags{
		{"pubkeys", xOnlyHex(b.PubKey()), xOnlyHex(c.PubKey())},
		{"n_sigs", "2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	secretRaw := []byte(secretStr)

	// Signed by {A, B}: verifies.
	w, err := SignP2PKProof(secretRaw, nil, a, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w, err = SignP2PKProof(secretRaw, w, b, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyP2PKProof(secretRaw, w, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected {A,B} signatures to satisfy 2-of-3")
	}

	// Signed by {A} alone: fails.
	wA, err := SignP2PKProof(secretRaw, nil, a, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ok, err = VerifyP2PKProof(secretRaw, wA, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("single signature should not satisfy 2-of-3")
	}

	// Signed by {B, C}: verifies.
	wBC, err := SignP2PKProof(secretRaw, nil, b, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	wBC, err = SignP2PKProof(secretRaw, wBC, c, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ok, err = VerifyP2PKProof(secretRaw, wBC, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected {B,C} signatures to satisfy 2-of-3")
	}

	// Signing by an outside key raises ErrSignatureNotRequired.
	if _, err := SignP2PKProof(secretRaw, nil, outsider, now(), nil); err != ErrSignatureNotRequired {
		t.Fatalf("expected ErrSignatureNotRequired, got %v", err)
	}
}

func TestP2PKAlreadySigned(t *testing.T) {
	a := mustKey(t)
	secretStr, err := CreateP2PKSecret(xOnlyHex(a.PubKey()), nil)
	if err != nil {
		t.Fatal(err)
	}
	secretRaw := []byte(secretStr)

	w, err := SignP2PKProof(secretRaw, nil, a, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SignP2PKProof(secretRaw, w, a, now(), nil); err != ErrAlreadySigned {
		t.Fatalf("expected ErrAlreadySigned, got %v", err)
	}
}

// Scenario 5: locktime refund.
func TestP2PKLocktimeRefund(t *testing.T) {
	pubA := mustKey(t)
	refund := mustKey(t)

	past := time.Now().Add(-10 * time.Second).Unix()
	secretStr, err := CreateP2PKSecret(xOnlyHex(pubA.PubKey()), Tags{
		{"locktime", itoa(past)},
		{"refund", xOnlyHex(refund.PubKey())},
		{"n_sigs_refund", "1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	secretRaw := []byte(secretStr)

	// A signature by pubA (main) is insufficient once expired.
	wA, err := forceSignAsMain(secretRaw, pubA)
	if err == nil {
		ok, verr := VerifyP2PKProof(secretRaw, wA, now(), nil)
		if verr != nil {
			t.Fatal(verr)
		}
		if ok {
			t.Fatal("main-key signature should not satisfy the refund path")
		}
	}

	wR, err := SignP2PKProof(secretRaw, nil, refund, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyP2PKProof(secretRaw, wR, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("refund-key signature should satisfy the refund path")
	}
}

// forceSignAsMain signs with the main key even though the condition has
// expired, by walking around SignP2PKProof's own eligibility check — this
// exercises the verifier's rejection, not the signer's.
func forceSignAsMain(secretRaw []byte, sk *btcec.PrivateKey) (*Witness, error) {
	digest := sha256.Sum256(secretRaw)
	sigBytes, err := curve.SchnorrSign(digest[:], sk)
	if err != nil {
		return nil, err
	}
	return &Witness{Signatures: []string{hex.EncodeToString(sigBytes)}}, nil
}

func itoa(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
