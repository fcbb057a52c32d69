// Package hash3 implements the core's SHA-3 absorb/squeeze subsystem: an
// append-only hash buffer fed by sha3_*_absorb instructions and drained by
// the digest instructions. The Keccak-f permutation itself is treated as an
// external black-box primitive, provided here by golang.org/x/crypto/sha3.
package hash3

import "golang.org/x/crypto/sha3"

// Buffer is the append-only byte buffer sha3_absorb instructions push into.
// Digest operations consume and clear it.
type Buffer struct {
	data []byte
}

// Reset clears the buffer (sha3_init).
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// AbsorbPoly appends a polynomial's coefficients, each serialized as 4 bytes
// big-endian (the source's "hex(coeff) rjust(8,'0')" rule).
func (b *Buffer) AbsorbPoly(coeffs []int64) {
	for _, c := range coeffs {
		var w [4]byte
		w[0] = byte(c >> 24)
		w[1] = byte(c >> 16)
		w[2] = byte(c >> 8)
		w[3] = byte(c)
		b.data = append(b.data, w[:]...)
	}
}

// AbsorbSeed appends a 32-byte seed register's contents verbatim.
func (b *Buffer) AbsorbSeed(seed [32]byte) {
	b.data = append(b.data, seed[:]...)
}

// Digest256 computes the SHA3-256 digest of the buffer and clears it.
func (b *Buffer) Digest256() [32]byte {
	out := sha3.Sum256(b.data)
	b.Reset()
	return out
}

// Digest512 computes the SHA3-512 digest of the buffer and clears it.
func (b *Buffer) Digest512() [64]byte {
	out := sha3.Sum512(b.data)
	b.Reset()
	return out
}

// SplitDigest512 splits a 64-byte digest into (high 32 bytes, low 32 bytes),
// matching the source's "int(digest,16) >> 256" / "% 2**256" split.
func SplitDigest512(d [64]byte) (high, low [32]byte) {
	copy(high[:], d[:32])
	copy(low[:], d[32:])
	return high, low
}

// RateWords256/512 are the Keccak rate, in 32-bit words, for SHA3-256/512 —
// used by the absorb cycle-cost formulas in pkg/machine (rate-bounded
// permutations).
const (
	RateWords256 = 34
	RateWords512 = 18
)
