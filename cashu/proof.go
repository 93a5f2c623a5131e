package cashu

import (
	"errors"

	"github.com/ecashkit/walletcore/bdhke"
)

var ErrInvalidDleq = errors.New("cashu: dleq proof did not verify")

// ToProof unblinds sig using the blinding factor retained in od and the
// mint's public key for the keyset/amount, completing a spendable Proof. If
// sig carries a DLEQ proof it is verified before the proof is returned;
// mints are not required to attach one, and its absence is not an error.
func ToProof(sig *BlindSignature, od *OutputData, keyset *Keyset) (*Proof, error) {
	a, err := keyset.KeyFor(sig.Amount)
	if err != nil {
		return nil, err
	}

	c := bdhke.Unblind(sig.CPrime, od.R, a)

	proof := &Proof{
		Amount:   sig.Amount,
		KeysetID: sig.KeysetID,
		Secret:   od.Secret,
		C:        c,
	}

	if sig.Dleq != nil {
		if !bdhke.Verify(sig.Dleq, od.BPrime, sig.CPrime, a) {
			return nil, ErrInvalidDleq
		}
		proof.Dleq = &ProofDleq{E: sig.Dleq.E, S: sig.Dleq.S, R: od.R}
	}

	return proof, nil
}

// VerifyProofDleq re-verifies a completed proof's retained DLEQ triple
// against the mint's current public key for its amount, without needing
// the original BlindedMessage/BlindSignature round trip in hand.
func VerifyProofDleq(proof *Proof, keyset *Keyset) (bool, error) {
	if proof.Dleq == nil {
		return false, nil
	}
	a, err := keyset.KeyFor(proof.Amount)
	if err != nil {
		return false, err
	}
	dleq := &bdhke.DleqProof{E: proof.Dleq.E, S: proof.Dleq.S}
	return bdhke.VerifyWithReblind(dleq, proof.Secret, proof.Dleq.R, proof.C, a), nil
}
