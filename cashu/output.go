package cashu

import (
	"errors"

	"github.com/ecashkit/walletcore/bdhke"
	"github.com/ecashkit/walletcore/counter"
	"github.com/ecashkit/walletcore/curve"
	"github.com/ecashkit/walletcore/derive"
)

var ErrCannotSplit = errors.New("cashu: amount cannot be represented by this keyset's denominations")

// Split decomposes amount into its binary representation, returning one
// entry per set bit in increasing order, and fails if the keyset does not
// carry a key for every resulting denomination. Amounts in this protocol
// are always exact powers of two, so decomposition is unique.
func Split(amount uint64, keyset *Keyset) ([]uint64, error) {
	var out []uint64
	for bit := uint64(1); amount > 0; bit <<= 1 {
		if amount&1 == 1 {
			if _, err := keyset.KeyFor(bit); err != nil {
				return nil, ErrCannotSplit
			}
			out = append(out, bit)
		}
		amount >>= 1
	}
	return out, nil
}

// OutputData is a single not-yet-signed output: the denomination, the
// secret and blinding factor the wallet generated for it, and the blinded
// point to submit to the mint. R and Secret must be retained until the
// corresponding BlindSignature is unblinded into a Proof.
type OutputData struct {
	Amount   uint64
	KeysetID string
	Secret   []byte
	R        *curve.Scalar
	BPrime   *curve.Point
}

// ToBlindedMessage renders the wire-bound half of an OutputData.
func (o *OutputData) ToBlindedMessage() *BlindedMessage {
	return &BlindedMessage{Amount: o.Amount, KeysetID: o.KeysetID, BPrime: o.BPrime}
}

// BuildOutputs constructs one OutputData per entry in amounts for keyset.ID.
//
// When seed is non-nil, secrets and blinding factors are derived
// deterministically per NUT-13: a contiguous counter range is reserved from
// counterSrc (one index per output) and each output uses the derivation at
// its reserved index. When seed is nil, secrets and blinding factors are
// drawn from rng and counterSrc is not consulted — this is the path for
// mints or keysets the wallet has no deterministic seed for.
func BuildOutputs(keyset *Keyset, amounts []uint64, seed []byte, counterSrc counter.Source, rng RNG) ([]*OutputData, error) {
	if seed != nil {
		return buildDeterministic(keyset, amounts, seed, counterSrc)
	}
	return buildRandom(keyset, amounts, rng)
}

func buildDeterministic(keyset *Keyset, amounts []uint64, seed []byte, counterSrc counter.Source) ([]*OutputData, error) {
	rng, err := counterSrc.Reserve(keyset.ID, len(amounts))
	if err != nil {
		return nil, err
	}
	outputs := make([]*OutputData, len(amounts))
	for i, amount := range amounts {
		idx := rng.Start + uint32(i)
		secret, err := derive.DeriveSecret(seed, keyset.ID, idx)
		if err != nil {
			return nil, err
		}
		r, err := derive.DeriveBlindingFactor(seed, keyset.ID, idx)
		if err != nil {
			return nil, err
		}
		od, err := blindOutput(keyset, amount, secret, r)
		if err != nil {
			return nil, err
		}
		outputs[i] = od
	}
	return outputs, nil
}

func buildRandom(keyset *Keyset, amounts []uint64, rng RNG) ([]*OutputData, error) {
	outputs := make([]*OutputData, len(amounts))
	for i, amount := range amounts {
		secret := make([]byte, 32)
		if _, err := rng.Read(secret); err != nil {
			return nil, err
		}
		rBytes := make([]byte, 32)
		if _, err := rng.Read(rBytes); err != nil {
			return nil, err
		}
		od, err := blindOutput(keyset, amount, secret, curve.ScalarFromBytes(rBytes))
		if err != nil {
			return nil, err
		}
		outputs[i] = od
	}
	return outputs, nil
}

func blindOutput(keyset *Keyset, amount uint64, secret []byte, r *curve.Scalar) (*OutputData, error) {
	if _, err := keyset.KeyFor(amount); err != nil {
		return nil, err
	}
	blinded, err := bdhke.Blind(secret, r)
	if err != nil {
		return nil, err
	}
	return &OutputData{
		Amount:   amount,
		KeysetID: keyset.ID,
		Secret:   secret,
		R:        r,
		BPrime:   blinded.B_,
	}, nil
}

// RNG is the randomness source BuildOutputs needs for the non-deterministic
// path, satisfied by walletcore.CryptoRNG in production.
type RNG interface {
	Read(p []byte) (int, error)
}
