package bdhke

import (
	"crypto/sha256"

	"github.com/ecashkit/walletcore/curve"
)

// DleqProof is the (e, s) pair a mint attaches to a blind signature. The
// blinding factor r needed for reblind-verify is passed to VerifyWithReblind
// separately (cashu.ProofDleq keeps the (e, s, r) triple on a proof).
type DleqProof struct {
	E *curve.Scalar
	S *curve.Scalar
}

// hashToScalar implements the SHA256_scalar(...) used to recompute e: hash
// the concatenation of the marshaled points and reduce mod the group
// order. secp256k1's ModNScalar.SetByteSlice performs that reduction.
func hashToScalar(points ...*curve.Point) *curve.Scalar {
	h := sha256.New()
	for _, p := range points {
		h.Write(p.Marshal())
	}
	return curve.ScalarFromBytes(h.Sum(nil))
}

// Verify checks a mint-supplied DLEQ proof against the public key A, the
// blinded message B_, and the blind signature C_:
//
//	R1 = s*G - e*A
//	R2 = s*B_ - e*C_
//	accept iff e == SHA256_scalar(A || B_ || C_ || R1 || R2)
func Verify(proof *DleqProof, bPrime, cPrime, a *curve.Point) bool {
	if proof == nil || proof.E == nil || proof.S == nil {
		return false
	}
	sG := curve.G().Mul(proof.S)
	eA := a.Mul(proof.E)
	r1 := sG.Sub(eA)

	sB := bPrime.Mul(proof.S)
	eC := cPrime.Mul(proof.E)
	r2 := sB.Sub(eC)

	expected := hashToScalar(a, bPrime, cPrime, r1, r2)
	return scalarEqual(expected, proof.E)
}

// VerifyWithReblind recomputes B_ and C_ from a spendable proof's secret,
// its retained blinding factor r, and C, then runs the ordinary DLEQ
// verification. This lets a wallet re-verify a proof's provenance without
// needing the original blinded-message round trip in hand.
func VerifyWithReblind(proof *DleqProof, secret []byte, r *curve.Scalar, c, a *curve.Point) bool {
	y, err := HashToCurve(secret)
	if err != nil {
		return false
	}
	bPrime := y.Add(curve.G().Mul(r))
	cPrime := c.Add(a.Mul(r))
	return Verify(proof, bPrime, cPrime, a)
}

func scalarEqual(a, b *curve.Scalar) bool {
	ab, bb := a.Bytes(), b.Bytes()
	if len(ab) != len(bb) {
		return false
	}
	var diff byte
	for i := range ab {
		diff |= ab[i] ^ bb[i]
	}
	return diff == 0
}
