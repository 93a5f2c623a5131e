package curve

import (
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

var ErrInvalidSignature = errors.New("curve: invalid schnorr signature")

// btcec/v2 type-aliases decred's secp256k1 PrivateKey/PublicKey, so values
// produced by the curve/bdhke packages pass straight through to schnorr.

// SchnorrSign produces a BIP340 signature over msgHash (already the final
// 32-byte digest to be signed) using sk.
func SchnorrSign(msgHash []byte, sk *btcec.PrivateKey) ([]byte, error) {
	sig, err := schnorr.Sign(sk, msgHash)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// SchnorrVerify checks a BIP340 signature against an x-only public key (32
// bytes, no parity prefix).
func SchnorrVerify(sigBytes, msgHash, xOnlyPubKey []byte) bool {
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false
	}
	pub, err := schnorr.ParsePubKey(xOnlyPubKey)
	if err != nil {
		return false
	}
	return sig.Verify(msgHash, pub)
}

// SchnorrVerifyHex is a convenience wrapper taking hex-encoded inputs, the
// shape most spending-condition code deals in.
func SchnorrVerifyHex(sigHex, msgHashHex, xOnlyPubKeyHex string) bool {
	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	msgHash, err := hex.DecodeString(msgHashHex)
	if err != nil {
		return false
	}
	pub, err := hex.DecodeString(xOnlyPubKeyHex)
	if err != nil {
		return false
	}
	return SchnorrVerify(sigBytes, msgHash, pub)
}
