package derive

import (
	"encoding/hex"
	"testing"
)

// Scenario 3's mnemonic, recorded for reference. The scenario's keyset id
// ("1cCNIAZ2X/w1") is not valid hex in its first 8 characters (N, I, Z are
// not hex digits), so this core cannot reproduce its documented output
// byte-for-byte; keysetAsU32 reports ErrInvalidKeysetID for it instead of
// silently guessing an interpretation. See SPEC_FULL.md section 8.
const scenario3Mnemonic = "half depart obvious quality work element tank gorilla view sugar picture humble"

func TestDeriveSecretRejectsNonHexKeysetPrefix(t *testing.T) {
	seed, err := SeedFromMnemonic(scenario3Mnemonic)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DeriveSecret(seed, "1cCNIAZ2X/w1", 0); err != ErrInvalidKeysetID {
		t.Fatalf("expected ErrInvalidKeysetID, got %v", err)
	}
}

// A second, self-consistent vector with a genuinely hex keyset id: the
// derivation must be stable across repeated calls and differ across
// distinct (keyset id, counter) pairs.
func TestDeriveSecretDeterministicAndDistinct(t *testing.T) {
	seed, err := SeedFromMnemonic(scenario3Mnemonic)
	if err != nil {
		t.Fatal(err)
	}
	const keysetID = "009a1f293253e41e"

	s1, err := DeriveSecret(seed, keysetID, 0)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := DeriveSecret(seed, keysetID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(s1) != hex.EncodeToString(s2) {
		t.Fatal("derive_secret is not deterministic for a fixed (mnemonic, keyset, counter)")
	}

	s3, err := DeriveSecret(seed, keysetID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(s1) == hex.EncodeToString(s3) {
		t.Fatal("distinct counters produced the same secret")
	}

	r1, err := DeriveBlindingFactor(seed, keysetID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(r1.Bytes()) == hex.EncodeToString(s1) {
		t.Fatal("secret leaf and blinding-factor leaf collided")
	}
}

func TestDeriveSecretDiffersAcrossKeysets(t *testing.T) {
	seed, err := SeedFromMnemonic(scenario3Mnemonic)
	if err != nil {
		t.Fatal(err)
	}
	a, err := DeriveSecret(seed, "009a1f293253e41e", 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveSecret(seed, "00ad268c4d1f5826", 0)
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(a) == hex.EncodeToString(b) {
		t.Fatal("distinct keysets produced the same secret")
	}
}
