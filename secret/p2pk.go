package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/ecashkit/walletcore/curve"
)

// SigFlag selects what a P2PK/HTLC signature covers.
type SigFlag string

const (
	SigInputs SigFlag = "SIG_INPUTS"
	SigAll    SigFlag = "SIG_ALL"
)

var (
	ErrSignatureNotRequired = errors.New("secret: signature from this pubkey is not required")
	ErrAlreadySigned        = errors.New("secret: a valid signature from this pubkey is already present")
)

// Witness carries the signatures (and, for HTLC, the preimage) attached to
// a spent proof or a SIG_ALL-signed blinded message.
type Witness struct {
	Preimage   string   `json:"preimage,omitempty"`
	Signatures []string `json:"signatures,omitempty"`
}

// CreateP2PKSecret builds a P2PK envelope locking to pubkeyHex, returning
// its JSON string encoding ready to use as a proof's secret.
func CreateP2PKSecret(pubkeyHex string, tags Tags) (string, error) {
	nonce, err := randomNonceHex()
	if err != nil {
		return "", err
	}
	env := Envelope{
		Kind: KindP2PK,
		Body: Body{Nonce: nonce, Data: pubkeyHex, Tags: tags},
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func randomNonceHex() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func locktime(body Body) (locktime int64, ok bool) {
	vals, ok := body.Tags.Get("locktime")
	if !ok || len(vals) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(vals[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sigFlag(body Body) SigFlag {
	vals, ok := body.Tags.Get("sigflag")
	if !ok || len(vals) == 0 {
		return SigInputs
	}
	if SigFlag(vals[0]) == SigAll {
		return SigAll
	}
	return SigInputs
}

func nSigsTag(body Body, key string, def int) int {
	vals, ok := body.Tags.Get(key)
	if !ok || len(vals) == 0 {
		return def
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil || n < 1 {
		return def
	}
	return n
}

// expectedP2PKWitnesses returns the pubkeys eligible to satisfy the
// spending condition at nowMs, the number of distinct signatures required,
// and the sigflag in effect.
func expectedP2PKWitnesses(body Body, nowMs int64) (pubkeys []string, nSigs int, flag SigFlag) {
	flag = sigFlag(body)
	lt, hasLocktime := locktime(body)
	locked := !hasLocktime || nowMs/1000 <= lt

	if locked {
		pubkeys = append([]string{body.Data}, mustGet(body.Tags, "pubkeys")...)
		nSigs = nSigsTag(body, "n_sigs", 1)
		return pubkeys, nSigs, flag
	}

	refund, hasRefund := body.Tags.Get("refund")
	if !hasRefund || len(refund) == 0 {
		// Unconditional after expiry with no refund path.
		return nil, 0, flag
	}
	nSigs = nSigsTag(body, "n_sigs_refund", 1)
	return refund, nSigs, flag
}

func mustGet(tags Tags, key string) []string {
	v, _ := tags.Get(key)
	return v
}

// signingMessage returns the bytes that get SHA256'd and schnorr-signed:
// the proof's own secret for SIG_INPUTS, or the caller-supplied aggregate
// transaction message for SIG_ALL.
func signingMessage(flag SigFlag, secretRaw, sigAllMessage []byte) []byte {
	if flag == SigAll {
		return sigAllMessage
	}
	return secretRaw
}

// SignP2PKProof signs secretRaw (a P2PK envelope) with sk and appends the
// signature to witness, returning the updated witness. witness may be nil.
func SignP2PKProof(secretRaw []byte, witness *Witness, sk *btcec.PrivateKey, nowMs int64, sigAllMessage []byte) (*Witness, error) {
	env, err := Parse(secretRaw)
	if err != nil {
		return nil, err
	}
	if env.Kind != KindP2PK {
		return nil, ErrWrongKind
	}
	if witness == nil {
		witness = &Witness{}
	}

	pubkeys, _, flag := expectedP2PKWitnesses(env.Body, nowMs)
	myXOnly := xOnlyHex(sk.PubKey())

	if !containsXOnly(pubkeys, myXOnly) {
		return nil, ErrSignatureNotRequired
	}

	msg := signingMessage(flag, secretRaw, sigAllMessage)
	digest := sha256.Sum256(msg)

	for _, sigHex := range witness.Signatures {
		if curve.SchnorrVerifyHex(sigHex, hex.EncodeToString(digest[:]), myXOnly) {
			return nil, ErrAlreadySigned
		}
	}

	sigBytes, err := curve.SchnorrSign(digest[:], sk)
	if err != nil {
		return nil, err
	}
	witness.Signatures = append(witness.Signatures, hex.EncodeToString(sigBytes))
	return witness, nil
}

// VerifyP2PKProof reports whether witness satisfies secretRaw's spending
// condition at nowMs. A secret that looks like an envelope but fails to
// parse returns (false, err). Signature-format errors degrade to "does not
// count" rather than propagating, so a malformed signature never prevents
// a correctly signed one from counting.
func VerifyP2PKProof(secretRaw []byte, witness *Witness, nowMs int64, sigAllMessage []byte) (bool, error) {
	if !LooksLikeEnvelope(secretRaw) {
		return true, nil // opaque, unconditional secret
	}
	env, err := Parse(secretRaw)
	if err != nil {
		return false, err
	}
	if env.Kind != KindP2PK {
		return true, nil // unknown/unconditional kind downstream
	}
	return verifyP2PKBody(env.Body, witness, nowMs, secretRaw, sigAllMessage)
}

func verifyP2PKBody(body Body, witness *Witness, nowMs int64, secretRaw, sigAllMessage []byte) (bool, error) {
	pubkeys, nSigs, flag := expectedP2PKWitnesses(body, nowMs)
	if nSigs == 0 {
		return true, nil // unconditional (expired, no refund path)
	}
	if witness == nil {
		return false, nil
	}

	msg := signingMessage(flag, secretRaw, sigAllMessage)
	digest := sha256.Sum256(msg)
	digestHex := hex.EncodeToString(digest[:])

	satisfied := countSatisfied(pubkeys, witness.Signatures, digestHex)
	return satisfied >= nSigs, nil
}

// countSatisfied counts the distinct pubkeys in candidates for which at
// least one signature in sigs verifies against digestHex.
func countSatisfied(candidates, sigs []string, digestHex string) int {
	count := 0
	for _, pk := range candidates {
		xo := stripParity(pk)
		for _, sigHex := range sigs {
			if curve.SchnorrVerifyHex(sigHex, digestHex, xo) {
				count++
				break
			}
		}
	}
	return count
}

// xOnlyHex returns the 32-byte x-only hex encoding of a public key.
func xOnlyHex(pub *btcec.PublicKey) string {
	c := pub.SerializeCompressed()
	return hex.EncodeToString(c[1:])
}

// stripParity drops a leading 33-byte SEC1 parity byte if present, so
// pubkey comparison is always x-only as the protocol requires.
func stripParity(pubkeyHex string) string {
	if len(pubkeyHex) == 66 {
		return pubkeyHex[2:]
	}
	return pubkeyHex
}

func containsXOnly(pubkeys []string, xOnly string) bool {
	for _, pk := range pubkeys {
		if stripParity(pk) == xOnly {
			return true
		}
	}
	return false
}

// SignBlindedMessage schnorr-signs SHA256(B_ compressed hex) for SIG_ALL
// output signing, appending the signature to the output's witness.
func SignBlindedMessage(bPrimeCompressedHex string, witness *Witness, sk *btcec.PrivateKey) (*Witness, error) {
	digest := sha256.Sum256([]byte(bPrimeCompressedHex))
	sigBytes, err := curve.SchnorrSign(digest[:], sk)
	if err != nil {
		return nil, err
	}
	if witness == nil {
		witness = &Witness{}
	}
	witness.Signatures = append(witness.Signatures, hex.EncodeToString(sigBytes))
	return witness, nil
}
