package curve

import (
	"testing"
)

func TestPointRoundTrip(t *testing.T) {
	g := G()
	marshaled := g.Marshal()
	if len(marshaled) != 33 {
		t.Fatalf("expected 33-byte compressed point, got %d", len(marshaled))
	}
	parsed, err := Parse(marshaled)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Equal(parsed) {
		t.Fatal("point came back different after marshal/parse round trip")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatal("expected error for undersized input")
	}
	bad := make([]byte, 33)
	bad[0] = 0x02
	if _, err := Parse(bad); err == nil {
		t.Fatal("expected error for an x-coordinate with no matching curve point")
	}
}

func TestScalarMulAddSubIdentity(t *testing.T) {
	g := G()
	two := ScalarFromUint64(2)
	three := ScalarFromUint64(3)

	twoG := g.Mul(two)
	threeG := g.Mul(three)
	fiveG := g.Mul(ScalarFromUint64(5))

	if !twoG.Add(threeG).Equal(fiveG) {
		t.Fatal("2G + 3G != 5G")
	}
	if !fiveG.Sub(threeG).Equal(twoG) {
		t.Fatal("5G - 3G != 2G")
	}
}

func TestXOnlyStripsParity(t *testing.T) {
	g := G()
	xonly := g.XOnly()
	if len(xonly) != 32 {
		t.Fatalf("expected 32-byte x-only coordinate, got %d", len(xonly))
	}
}
