// Package curve wraps secp256k1 point and scalar arithmetic behind the
// shapes this wallet's protocol documents use: compressed-SEC1 points and
// fixed-width big-endian scalars. The underlying field and group math is
// github.com/decred/dcrd/dcrec/secp256k1/v4; this package only adds the
// serialization and error-handling conventions the rest of the module
// expects.
package curve

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrInvalidPoint     = errors.New("curve: marshaled point was invalid")
	ErrInvalidScalar    = errors.New("curve: scalar overflowed the group order")
	ErrIdentityPoint    = errors.New("curve: point is the identity element")
	ErrNoPointFound     = errors.New("curve: hash_to_curve failed to find a point")
)

// Point is a non-identity secp256k1 curve point, serialized as 33-byte
// compressed SEC1.
type Point struct {
	pub *secp256k1.PublicKey
}

// G is the secp256k1 base point.
func G() *Point {
	one := secp256k1.PrivKeyFromBytes([]byte{0x01})
	return &Point{pub: one.PubKey()}
}

// NewPoint wraps an already-validated public key.
func NewPoint(pub *secp256k1.PublicKey) (*Point, error) {
	if pub == nil {
		return nil, ErrInvalidPoint
	}
	return &Point{pub: pub}, nil
}

// Parse decodes a 33-byte compressed SEC1 point, rejecting anything that is
// not a valid, non-identity curve point.
func Parse(data []byte) (*Point, error) {
	if len(data) != 33 {
		return nil, ErrInvalidPoint
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return &Point{pub: pub}, nil
}

// Marshal returns the 33-byte compressed SEC1 encoding.
func (p *Point) Marshal() []byte {
	return p.pub.SerializeCompressed()
}

// Hex returns the lowercase hex encoding of Marshal.
func (p *Point) Hex() string {
	return hexEncode(p.Marshal())
}

// Public exposes the underlying decred/btcec public key for callers that
// need schnorr verification or jacobian math.
func (p *Point) Public() *secp256k1.PublicKey { return p.pub }

// XOnly returns the 32-byte x-coordinate used for BIP340 comparisons,
// stripping the leading compressed-point parity byte if present.
func (p *Point) XOnly() []byte {
	c := p.Marshal()
	return c[1:]
}

// Add returns p + q.
func (p *Point) Add(q *Point) *Point {
	var pj, qj, rj secp256k1.JacobianPoint
	p.pub.AsJacobian(&pj)
	q.pub.AsJacobian(&qj)
	secp256k1.AddNonConst(&pj, &qj, &rj)
	rj.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&rj.X, &rj.Y)}
}

// Sub returns p - q.
func (p *Point) Sub(q *Point) *Point {
	return p.Add(q.Negate())
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	var pj secp256k1.JacobianPoint
	p.pub.AsJacobian(&pj)
	pj.Y.Negate(1).Normalize()
	pj.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&pj.X, &pj.Y)}
}

// Mul returns s*p.
func (p *Point) Mul(s *Scalar) *Point {
	var pj, rj secp256k1.JacobianPoint
	p.pub.AsJacobian(&pj)
	secp256k1.ScalarMultNonConst(&s.k, &pj, &rj)
	rj.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&rj.X, &rj.Y)}
}

// Equal reports whether p and q encode the same point.
func (p *Point) Equal(q *Point) bool {
	return p.pub.IsEqual(q.pub)
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
