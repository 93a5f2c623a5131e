package curve

import (
	"encoding/hex"
	"testing"
)

// Scenario 1 from the protocol's test vectors: hashing 32 zero bytes
// (hex-encoded, as the wire contract requires) must be deterministic and
// always land on the curve.
func TestHashToCurveZeroSecretIsDeterministic(t *testing.T) {
	zero := make([]byte, 32)
	message := []byte(hex.EncodeToString(zero))

	p1, err := HashToCurve(message)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := HashToCurve(message)
	if err != nil {
		t.Fatal(err)
	}
	if !p1.Equal(p2) {
		t.Fatal("hash_to_curve is not deterministic")
	}
	if !p1.pub.IsOnCurve() {
		t.Fatal("hash_to_curve returned a point not on the curve")
	}
}

func TestHashToCurveDistinctForDistinctMessages(t *testing.T) {
	p1, err := HashToCurve([]byte("message one"))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := HashToCurve([]byte("message two"))
	if err != nil {
		t.Fatal(err)
	}
	if p1.Equal(p2) {
		t.Fatal("distinct messages hashed to the same point")
	}
}
