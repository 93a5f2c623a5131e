package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
)

// CreateHTLCSecret builds an HTLC envelope whose data is the hex-encoded
// SHA256 of preimage.
func CreateHTLCSecret(preimage []byte, tags Tags) (string, error) {
	nonce, err := randomNonceHex()
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(preimage)
	env := Envelope{
		Kind: KindHTLC,
		Body: Body{Nonce: nonce, Data: hex.EncodeToString(hash[:]), Tags: tags},
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyHTLCProof checks the two-path HTLC spending condition described by
// secretRaw against witness at nowMs. As with P2PK, a secret that looks
// like an envelope but fails to parse returns (false, err), while a
// malformed preimage or signature only counts as unsatisfied.
func VerifyHTLCProof(secretRaw []byte, witness *Witness, nowMs int64, sigAllMessage []byte) (bool, error) {
	if !LooksLikeEnvelope(secretRaw) {
		return true, nil
	}
	env, err := Parse(secretRaw)
	if err != nil {
		return false, err
	}
	if env.Kind != KindHTLC {
		return true, nil
	}
	return verifyHTLCBody(env.Body, witness, nowMs, secretRaw, sigAllMessage)
}

func verifyHTLCBody(body Body, witness *Witness, nowMs int64, secretRaw, sigAllMessage []byte) (bool, error) {
	lt, hasLocktime := locktime(body)
	expired := hasLocktime && nowMs/1000 > lt

	if !expired {
		return verifyHashlockPath(body, witness, secretRaw, sigAllMessage), nil
	}
	return verifyHTLCRefundPath(body, witness, secretRaw, sigAllMessage), nil
}

func verifyHashlockPath(body Body, witness *Witness, secretRaw, sigAllMessage []byte) bool {
	if witness == nil {
		return false
	}
	if !preimageMatches(body.Data, witness.Preimage) {
		return false
	}

	mainPubkeys, hasPubkeys := body.Tags.Get("pubkeys")
	if !hasPubkeys || len(mainPubkeys) == 0 {
		return true // hash-only lock, no multisig required
	}
	nSigs := nSigsTag(body, "n_sigs", 1)
	flag := sigFlag(body)
	msg := signingMessage(flag, secretRaw, sigAllMessage)
	digest := sha256.Sum256(msg)
	return countSatisfied(mainPubkeys, witness.Signatures, hex.EncodeToString(digest[:])) >= nSigs
}

func verifyHTLCRefundPath(body Body, witness *Witness, secretRaw, sigAllMessage []byte) bool {
	refund, hasRefund := body.Tags.Get("refund")
	if !hasRefund || len(refund) == 0 {
		return true // no refund path configured: unconditional after expiry
	}
	if witness == nil {
		return false
	}
	nSigsRefund := nSigsTag(body, "n_sigs_refund", 1)
	flag := sigFlag(body)
	msg := signingMessage(flag, secretRaw, sigAllMessage)
	digest := sha256.Sum256(msg)
	return countSatisfied(refund, witness.Signatures, hex.EncodeToString(digest[:])) >= nSigsRefund
}

func preimageMatches(dataHex, preimageHex string) bool {
	preimage, err := hex.DecodeString(preimageHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(dataHex)
	if err != nil {
		return false
	}
	got := sha256.Sum256(preimage)
	if len(want) != len(got) {
		return false
	}
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
