package bdhke

import (
	"testing"

	"github.com/ecashkit/walletcore/curve"
)

// Scenario 2: blind-sign round trip with mint scalar a=1 and blinding
// factor r=1 must unblind back to hash_to_curve(hex(secret)).
func TestBlindSignUnblindRoundTrip(t *testing.T) {
	secret := []byte("test_message")
	r := curve.ScalarFromUint64(1)
	a := curve.ScalarFromUint64(1)

	blinded, err := Blind(secret, r)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate the mint's signature operation directly with curve
	// primitives; ApproveTokens-equivalent mint logic is an external
	// collaborator this core does not implement.
	mintPub := curve.G().Mul(a)
	cPrime := blinded.B_.Mul(a)

	c := Unblind(cPrime, r, mintPub)

	want, err := HashToCurve(secret)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equal(want) {
		t.Fatal("unblinded point did not match hash_to_curve(hex(secret))")
	}
}

func TestUnblindingIdentityLaw(t *testing.T) {
	secret := []byte("some-unique-secret")
	r := curve.ScalarFromUint64(7)
	a := curve.ScalarFromUint64(42)

	blinded, err := Blind(secret, r)
	if err != nil {
		t.Fatal(err)
	}
	mintPub := curve.G().Mul(a)
	cPrime := blinded.B_.Mul(a)
	c := Unblind(cPrime, r, mintPub)

	y, err := HashToCurve(secret)
	if err != nil {
		t.Fatal(err)
	}
	want := y.Mul(a)
	if !c.Equal(want) {
		t.Fatal("C != a*hash_to_curve(secret)")
	}
}
