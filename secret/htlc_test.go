package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ecashkit/walletcore/curve"
)

func TestHTLCHashlockPath(t *testing.T) {
	preimage := []byte("super-secret-preimage")
	secretStr, err := CreateHTLCSecret(preimage, nil)
	if err != nil {
		t.Fatal(err)
	}
	secretRaw := []byte(secretStr)

	w := &Witness{Preimage: hex.EncodeToString(preimage)}
	ok, err := VerifyHTLCProof(secretRaw, w, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("correct preimage should satisfy a hash-only HTLC")
	}

	wrong := &Witness{Preimage: hex.EncodeToString([]byte("wrong-preimage"))}
	ok, err = VerifyHTLCProof(secretRaw, wrong, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("wrong preimage must not verify")
	}
}

func TestHTLCWithMainPubkeysAndRefund(t *testing.T) {
	preimage := []byte("preimage-2")
	main := mustKey(t)
	refund := mustKey(t)

	past := time.Now().Add(-5 * time.Second).Unix()
	secretStr, err := CreateHTLCSecret(preimage, Tags{
		{"pubkeys", xOnlyHex(main.PubKey())},
		{"n_sigs", "1"},
		{"refund", xOnlyHex(refund.PubKey())},
		{"n_sigs_refund", "1"},
		{"locktime", itoa(past)},
	})
	if err != nil {
		t.Fatal(err)
	}
	secretRaw := []byte(secretStr)

	// Before expiry the hashlock path would need both preimage and main
	// signature; after expiry (as configured here) only the refund
	// signature is required.
	// SignP2PKProof accepts only P2PK envelopes, so the refund signature
	// over SHA256(secret) (the SIG_INPUTS message) is made directly.
	digest := sha256.Sum256(secretRaw)
	sigBytes, err := curve.SchnorrSign(digest[:], refund)
	if err != nil {
		t.Fatal(err)
	}
	wRefund := &Witness{Signatures: []string{hex.EncodeToString(sigBytes)}}
	ok, err := VerifyHTLCProof(secretRaw, wRefund, now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("refund signature should satisfy an expired HTLC")
	}
}
