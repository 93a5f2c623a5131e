package curve

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Scalar is an integer modulo the secp256k1 group order, serialized as a
// fixed-width 32-byte big-endian value unless noted otherwise.
type Scalar struct {
	k secp256k1.ModNScalar
}

// ScalarFromBytes reduces a 32-byte big-endian value modulo the group
// order. Overflow is not reported: a value at or above the order is
// silently reduced.
func ScalarFromBytes(b []byte) *Scalar {
	var k secp256k1.ModNScalar
	k.SetByteSlice(b)
	return &Scalar{k: k}
}

// ScalarFromUint64 builds a small scalar, used mostly in tests.
func ScalarFromUint64(v uint64) *Scalar {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[31-i] = byte(v >> (8 * i))
	}
	return ScalarFromBytes(b[:])
}

// Bytes returns the 32-byte big-endian encoding.
func (s *Scalar) Bytes() []byte {
	b := s.k.Bytes()
	return b[:]
}

// IsZero reports whether the scalar reduces to zero mod the group order.
func (s *Scalar) IsZero() bool { return s.k.IsZero() }

// Add returns s + t mod n.
func (s *Scalar) Add(t *Scalar) *Scalar {
	r := s.k
	r.Add(&t.k)
	return &Scalar{k: r}
}

// Mul returns s * t mod n.
func (s *Scalar) Mul(t *Scalar) *Scalar {
	r := s.k
	r.Mul(&t.k)
	return &Scalar{k: r}
}

// Negate returns -s mod n.
func (s *Scalar) Negate() *Scalar {
	var r secp256k1.ModNScalar
	r.NegateVal(&s.k)
	return &Scalar{k: r}
}

// Invert returns s^-1 mod n.
func (s *Scalar) Invert() *Scalar {
	r := s.k
	r.InverseValNonConst(&s.k)
	return &Scalar{k: r}
}

// ModNScalar exposes the underlying decred scalar for callers doing raw
// jacobian math (curve.Point.Mul).
func (s *Scalar) ModNScalar() *secp256k1.ModNScalar { return &s.k }
