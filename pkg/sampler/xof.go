// Package sampler implements the SHAKE-driven sampler suite: rejection,
// centered binomial, CDT-based discrete Gaussian, uniform, and the three
// trinary samplers. Each consumes a streaming SHAKE-128/256 bitstream rather
// than materializing a large upfront buffer, following the streaming-XOF
// pattern used for rejection/uniform sampling in reference lattice-crypto
// Go code (read N bytes at a time via the XOF's Read, never buffering more
// than one draw ahead).
package sampler

import (
	"fmt"

	"golang.org/x/crypto/sha3"
)

// SeedLen is the total seed length: 32 bytes from r0/r1, plus 2 bytes c0,
// plus 2 bytes c1.
const SeedLen = 36

// BuildSeed concatenates the 256-bit seed register, c0, and c1 into the
// 36-byte SHAKE seed, matching the big-endian, zero-padded hex construction
// in original_source/sim.py (hex(r)...rjust(64) + hex(c0)...rjust(4) +
// hex(c1)...rjust(4)).
func BuildSeed(r [32]byte, c0, c1 uint16) [SeedLen]byte {
	var seed [SeedLen]byte
	copy(seed[:32], r[:])
	seed[32] = byte(c0 >> 8)
	seed[33] = byte(c0)
	seed[34] = byte(c1 >> 8)
	seed[35] = byte(c1)
	return seed
}

// Stream is a SHAKE-128/256 bitstream provider seeded once and squeezed
// incrementally.
type Stream struct {
	xof sha3.ShakeHash
}

// NewStream seeds a SHAKE-128 (mode 128) or SHAKE-256 (mode 256) stream.
func NewStream(mode int, seed []byte) (*Stream, error) {
	var xof sha3.ShakeHash
	switch mode {
	case 128:
		xof = sha3.NewShake128()
	case 256:
		xof = sha3.NewShake256()
	default:
		return nil, fmt.Errorf("unsupported SHAKE mode %d, only 128 and 256 are supported", mode)
	}
	xof.Write(seed)
	return &Stream{xof: xof}, nil
}

// Read4 squeezes the next 4 bytes, interpreted big-endian (the source's
// "int(buf[:8],16)" — 8 hex characters is 4 bytes).
func (s *Stream) Read4() uint32 {
	var b [4]byte
	s.xof.Read(b[:])
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Read2 squeezes the next 2 bytes, interpreted big-endian.
func (s *Stream) Read2() uint16 {
	var b [2]byte
	s.xof.Read(b[:])
	return uint16(b[0])<<8 | uint16(b[1])
}

// bitsFor returns ceil(log2(bound)) for bound > 0.
func bitsFor(bound int64) uint {
	bits := uint(0)
	for (int64(1) << bits) < bound {
		bits++
	}
	return bits
}

func ceilDiv(numerator, denominator int64) int64 {
	return (numerator + denominator - 1) / denominator
}
