// Package cashu holds the wallet-facing data model — keysets, blinded
// messages, blind signatures, and spendable proofs — along with the output
// builder and proof-completion lifecycle that sit on top of the bdhke and
// secret packages.
package cashu

import (
	"encoding/hex"
	"errors"

	"github.com/ecashkit/walletcore/bdhke"
	"github.com/ecashkit/walletcore/curve"
	"github.com/ecashkit/walletcore/secret"
)

var ErrAmountNotSupported = errors.New("cashu: keyset has no key for this amount")

// Keyset is a versioned set of mint public keys keyed by denomination.
// Amounts are exact powers of two.
type Keyset struct {
	ID          string
	Unit        string
	Active      bool
	InputFeePpk uint32
	FinalExpiry *uint64
	Keys        map[uint64]*curve.Point
}

// KeyFor looks up the mint's public key for a denomination in this keyset.
func (k *Keyset) KeyFor(amount uint64) (*curve.Point, error) {
	a, ok := k.Keys[amount]
	if !ok {
		return nil, ErrAmountNotSupported
	}
	return a, nil
}

// SupportedAmounts returns the keyset's denominations; their order is not
// defined.
func (k *Keyset) SupportedAmounts() []uint64 {
	out := make([]uint64, 0, len(k.Keys))
	for a := range k.Keys {
		out = append(out, a)
	}
	return out
}

// BlindedMessage is an output submitted to the mint for signing.
type BlindedMessage struct {
	Amount   uint64
	KeysetID string
	BPrime   *curve.Point
	Witness  *secret.Witness
}

// BlindedMessageWire is the JSON shape sent over the wire.
type BlindedMessageWire struct {
	ID      string          `json:"id"`
	Amount  uint64          `json:"amount"`
	BPrime  string          `json:"B_"`
	Witness *secret.Witness `json:"witness,omitempty"`
}

// ToWire renders the serialized form.
func (m *BlindedMessage) ToWire() BlindedMessageWire {
	return BlindedMessageWire{
		ID:      m.KeysetID,
		Amount:  m.Amount,
		BPrime:  m.BPrime.Hex(),
		Witness: m.Witness,
	}
}

// DleqWire is the serialized DLEQ proof attached to a promise.
type DleqWire struct {
	E string `json:"e"`
	S string `json:"s"`
}

// BlindSignature (promise) is the mint's response to a BlindedMessage,
// before unblinding.
type BlindSignature struct {
	Amount   uint64
	KeysetID string
	CPrime   *curve.Point
	Dleq     *bdhke.DleqProof
}

// BlindSignatureWire is the JSON shape received over the wire.
type BlindSignatureWire struct {
	ID     string    `json:"id"`
	Amount uint64    `json:"amount"`
	CPrime string    `json:"C_"`
	Dleq   *DleqWire `json:"dleq,omitempty"`
}

// BlindSignatureFromWire parses a received blind signature.
func BlindSignatureFromWire(w BlindSignatureWire) (*BlindSignature, error) {
	cPrime, err := hexPoint(w.CPrime)
	if err != nil {
		return nil, err
	}
	bs := &BlindSignature{Amount: w.Amount, KeysetID: w.ID, CPrime: cPrime}
	if w.Dleq != nil {
		e, err := hexScalar(w.Dleq.E)
		if err != nil {
			return nil, err
		}
		s, err := hexScalar(w.Dleq.S)
		if err != nil {
			return nil, err
		}
		bs.Dleq = &bdhke.DleqProof{E: e, S: s}
	}
	return bs, nil
}

// ProofDleq is the DLEQ material a spendable proof retains: e, s from the
// mint plus the blinding factor r the wallet used, preserved so the proof
// can be reblind-verified without access to the original BlindedMessage.
type ProofDleq struct {
	E *curve.Scalar
	S *curve.Scalar
	R *curve.Scalar
}

// Proof is a spendable ecash token.
type Proof struct {
	Amount   uint64
	KeysetID string
	Secret   []byte
	C        *curve.Point
	Witness  *secret.Witness
	Dleq     *ProofDleq
}

// ProofWire is the JSON shape of a proof on the wire.
type ProofWire struct {
	ID      string          `json:"id"`
	Amount  uint64          `json:"amount"`
	Secret  string          `json:"secret"`
	C       string          `json:"C"`
	Witness *secret.Witness `json:"witness,omitempty"`
	Dleq    *ProofDleqWire  `json:"dleq,omitempty"`
}

// ProofDleqWire is the serialized DLEQ triple on a proof.
type ProofDleqWire struct {
	E string `json:"e"`
	S string `json:"s"`
	R string `json:"r"`
}

// ToWire renders a proof for submission to the mint. Secret is treated as
// an opaque byte string at this layer: whatever bytes were used to build
// it (JSON envelope or raw) are copied through verbatim as a UTF-8 string.
func (p *Proof) ToWire() ProofWire {
	w := ProofWire{
		ID:      p.KeysetID,
		Amount:  p.Amount,
		Secret:  string(p.Secret),
		C:       p.C.Hex(),
		Witness: p.Witness,
	}
	if p.Dleq != nil {
		w.Dleq = &ProofDleqWire{
			E: hex.EncodeToString(p.Dleq.E.Bytes()),
			S: hex.EncodeToString(p.Dleq.S.Bytes()),
			R: hex.EncodeToString(p.Dleq.R.Bytes()),
		}
	}
	return w
}

func hexPoint(s string) (*curve.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return curve.Parse(b)
}

func hexScalar(s string) (*curve.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return curve.ScalarFromBytes(b), nil
}
