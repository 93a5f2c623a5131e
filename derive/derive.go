// Package derive computes per-output secrets and blinding factors
// deterministically from a BIP39 mnemonic, following the same
// hdkeychain-based path derivation the retrieval pack's gonuts wallet uses
// for its NUT-13 restore flow (other_examples/…gonuts__wallet-restore.go).
package derive

import (
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/ecashkit/walletcore/curve"
)

var (
	ErrInvalidMnemonic  = errors.New("derive: invalid bip39 mnemonic")
	ErrInvalidKeysetID  = errors.New("derive: keyset id has fewer than 8 hex characters")
	ErrDerivationFailed = errors.New("derive: hd key derivation failed")
)

// purpose and coinType form the m/129372'/0'/... prefix; 129372 is this protocol's registered
// BIP43 purpose.
const (
	purpose  = 129372
	coinType = 0
)

// SeedFromMnemonic validates the mnemonic and returns the BIP39 seed (empty
// passphrase, matching the wire protocol's fixed derivation contract).
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, ""), nil
}

// keysetAsU32 parses the big-endian integer encoded by the first 8 hex
// characters of a keyset id, reduced modulo 2^31 so it always fits as a
// hardened BIP32 child index.
func keysetAsU32(keysetID string) (uint32, error) {
	if len(keysetID) < 8 {
		return 0, ErrInvalidKeysetID
	}
	raw, err := hex.DecodeString(keysetID[:8])
	if err != nil {
		return 0, ErrInvalidKeysetID
	}
	v := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	return v % (1 << 31), nil
}

// leaf derives the private key bytes at
// m/129372'/0'/keyset_as_u32'/counter'/{0,1}, where the trailing index is
// 0 for the secret leaf and 1 for the blinding-factor leaf.
func leaf(seed []byte, keysetID string, counter uint32, trailing uint32) ([]byte, error) {
	keysetIdx, err := keysetAsU32(keysetID)
	if err != nil {
		return nil, err
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, ErrDerivationFailed
	}

	key := master
	hardened := []uint32{purpose, coinType, keysetIdx, counter}
	for _, idx := range hardened {
		key, err = key.Derive(hdkeychain.HardenedKeyStart + idx)
		if err != nil {
			return nil, ErrDerivationFailed
		}
	}
	// The trailing secret-vs-blinding-factor index is not hardened.
	key, err = key.Derive(trailing)
	if err != nil {
		return nil, ErrDerivationFailed
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, ErrDerivationFailed
	}
	return priv.Serialize(), nil
}

// DeriveSecret returns the 32 leaf bytes used directly as the raw secret
// for output index (keysetID, counter).
func DeriveSecret(seed []byte, keysetID string, counter uint32) ([]byte, error) {
	return leaf(seed, keysetID, counter, 0)
}

// DeriveBlindingFactor returns the leaf bytes at the same index reduced to
// a scalar mod the curve order, used as r.
func DeriveBlindingFactor(seed []byte, keysetID string, counter uint32) (*curve.Scalar, error) {
	b, err := leaf(seed, keysetID, counter, 1)
	if err != nil {
		return nil, err
	}
	return curve.ScalarFromBytes(b), nil
}
