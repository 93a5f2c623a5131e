// Package bdhke implements the client-visible half of the blind
// Diffie-Hellman key exchange used to mint and redeem ecash: blinding a
// secret before it is sent to the mint, and unblinding the mint's response.
// It is grounded on the same decred/dcrd secp256k1 jacobian-point idiom the
// retrieval pack's gonuts wallet uses for the identical operation.
package bdhke

import (
	"encoding/hex"

	"github.com/ecashkit/walletcore/curve"
)

// BlindedMessage is the output of Blind: the point sent to the mint plus
// the blinding factor the caller must retain to unblind the response.
type BlindedMessage struct {
	B_ *curve.Point
	R  *curve.Scalar
}

// Blind computes Y = hash_to_curve(hex(secret)) and B_ = Y + r*G.
//
// The message fed to hash_to_curve is the lowercase-hex encoding of the
// secret bytes, not the secret bytes themselves — this is the wire
// contract, not an implementation detail.
func Blind(secret []byte, r *curve.Scalar) (*BlindedMessage, error) {
	y, err := curve.HashToCurve([]byte(hex.EncodeToString(secret)))
	if err != nil {
		return nil, err
	}
	rG := curve.G().Mul(r)
	return &BlindedMessage{B_: y.Add(rG), R: r}, nil
}

// Unblind computes C = C_ - r*A given the mint's public key A for the
// signed amount/keyset and the blinding factor used in Blind.
func Unblind(cPrime *curve.Point, r *curve.Scalar, a *curve.Point) *curve.Point {
	return cPrime.Sub(a.Mul(r))
}

// HashToCurve exposes the same hash_to_curve used by Blind, for callers
// (DLEQ verification, wallet restore) that need Y directly.
func HashToCurve(secret []byte) (*curve.Point, error) {
	return curve.HashToCurve([]byte(hex.EncodeToString(secret)))
}
