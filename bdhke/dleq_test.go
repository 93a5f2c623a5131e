package bdhke

import (
	"crypto/sha256"
	"testing"

	"github.com/ecashkit/walletcore/curve"
)

// proveKnownKey builds a DLEQ proof the way a mint would: it knows the
// secret scalar a behind the public key A. This core never performs mint
// signing in production, but building a valid fixture here is the only way
// to exercise the client-side verifier.
func proveKnownKey(t *testing.T, a, bPrime, cPrime *curve.Point, aScalar *curve.Scalar, k *curve.Scalar) *DleqProof {
	t.Helper()
	// r1 = k*G, r2 = k*B_
	r1 := curve.G().Mul(k)
	r2 := bPrime.Mul(k)
	e := hashToScalar(a, bPrime, cPrime, r1, r2)
	// s = k + e*aScalar
	s := k.Add(e.Mul(aScalar))
	return &DleqProof{E: e, S: s}
}

func TestDleqVerifySoundness(t *testing.T) {
	secret := []byte("dleq-secret")
	aScalar := curve.ScalarFromUint64(123)
	r := curve.ScalarFromUint64(9)
	k := curve.ScalarFromUint64(55)

	blinded, err := Blind(secret, r)
	if err != nil {
		t.Fatal(err)
	}
	a := curve.G().Mul(aScalar)
	cPrime := blinded.B_.Mul(aScalar)

	proof := proveKnownKey(t, a, blinded.B_, cPrime, aScalar, k)

	if !Verify(proof, blinded.B_, cPrime, a) {
		t.Fatal("valid dleq proof failed to verify")
	}

	c := Unblind(cPrime, r, a)
	if !VerifyWithReblind(proof, secret, r, c, a) {
		t.Fatal("valid dleq proof failed to verify via reblind")
	}

	// Corrupting e, s, r, or C must each break verification.
	corruptedE := &DleqProof{E: curve.ScalarFromBytes(sha256.New().Sum([]byte("corrupt"))), S: proof.S}
	if Verify(corruptedE, blinded.B_, cPrime, a) {
		t.Fatal("corrupted e still verified")
	}
	corruptedS := &DleqProof{E: proof.E, S: proof.S.Add(curve.ScalarFromUint64(1))}
	if Verify(corruptedS, blinded.B_, cPrime, a) {
		t.Fatal("corrupted s still verified")
	}
	badR := curve.ScalarFromUint64(10)
	if VerifyWithReblind(proof, secret, badR, c, a) {
		t.Fatal("corrupted r still verified via reblind")
	}
	badC := c.Add(curve.G())
	if VerifyWithReblind(proof, secret, r, badC, a) {
		t.Fatal("corrupted C still verified via reblind")
	}
}
