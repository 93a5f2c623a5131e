package curve

import (
	"crypto/sha256"
	"encoding/binary"
)

// DomainSeparator is the ASCII tag mixed into the first hash step of
// HashToCurve, matching the deployed wire protocol.
const DomainSeparator = "Secp256k1_HashToCurve_Cashu_"

// maxCounter bounds the increment-until-on-curve loop. Finding no valid
// point within this many attempts is computationally negligible; treat it
// as a programmer/protocol error rather than a recoverable one.
const maxCounter = 1 << 16

// HashToCurve maps an arbitrary message to a secp256k1 point:
//
//  1. h = SHA256(DomainSeparator || message)
//  2. for counter = 0, 1, 2, ...: t = SHA256(h || counter_le_u32)
//  3. interpret 0x02 || t as a compressed point; if it's on the curve,
//     return it, else increment counter.
func HashToCurve(message []byte) (*Point, error) {
	h := sha256.New()
	h.Write([]byte(DomainSeparator))
	h.Write(message)
	msgHash := h.Sum(nil)

	var counterBytes [4]byte
	for counter := uint32(0); counter < maxCounter; counter++ {
		binary.LittleEndian.PutUint32(counterBytes[:], counter)

		th := sha256.New()
		th.Write(msgHash)
		th.Write(counterBytes[:])
		t := th.Sum(nil)

		candidate := make([]byte, 0, 33)
		candidate = append(candidate, 0x02)
		candidate = append(candidate, t...)

		if p, err := Parse(candidate); err == nil {
			return p, nil
		}
	}
	return nil, ErrNoPointFound
}
