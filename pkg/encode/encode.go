// Package encode implements the debug-only bit-packing encodings used by
// the encode_print and encode_compare instructions, ported from
// original_source/encoding.py.
package encode

import (
	"fmt"
	"math/rand/v2"
)

// Kind names one of the seven supported encodings.
type Kind string

const (
	Binary0Red  Kind = "BINARY_0RED"
	Binary2Red  Kind = "BINARY_2RED"
	Binary4Red  Kind = "BINARY_4RED"
	Binary8Red  Kind = "BINARY_8RED"
	Trunc256    Kind = "TRUNC_256"
	Trunc256MSB Kind = "TRUNC_256_MSB"
	ReconSimple Kind = "RECON_SIMPLE"
)

func log2Floor(q int64) int {
	l := 0
	for (int64(1) << (l + 1)) <= q {
		l++
	}
	return l
}

// ToBits encodes poly (length n, coefficients in [0,q)) into a slice of
// bits per the named encoding.
func ToBits(kind Kind, poly []int64, q int64) ([]byte, error) {
	n := len(poly)
	switch kind {
	case Binary0Red:
		out := make([]byte, n)
		for i, c := range poly {
			out[i] = byte(((2*c + q/2) / q) % 2)
		}
		return out, nil

	case Binary2Red, Binary4Red, Binary8Red:
		m := map[Kind]int{Binary2Red: 2, Binary4Red: 4, Binary8Red: 8}[kind]
		threshold := map[Kind]int64{Binary2Red: q / 2, Binary4Red: q, Binary8Red: 2 * q}[kind]
		if n%m != 0 {
			return nil, fmt.Errorf("%s requires n divisible by %d, got n=%d", kind, m, n)
		}
		group := n / m
		out := make([]byte, group)
		for i := 0; i < group; i++ {
			var sum int64
			for k := 0; k < m; k++ {
				d := poly[i+k*group] - q/2
				if d < 0 {
					d = -d
				}
				sum += d
			}
			if sum > threshold {
				out[i] = 1
			}
		}
		return out, nil

	case Trunc256:
		limit := n
		if limit > 256 {
			limit = 256
		}
		out := make([]byte, limit)
		for i := 0; i < limit; i++ {
			out[i] = byte(((2*poly[i] + q/2) / q) % 2)
		}
		return out, nil

	case Trunc256MSB:
		limit := n
		if limit > 256 {
			limit = 256
		}
		lsbits := log2Floor(q) - 2
		out := make([]byte, limit)
		for i := 0; i < limit; i++ {
			out[i] = byte(poly[i] >> uint(lsbits+1))
		}
		return out, nil

	case ReconSimple:
		out := make([]byte, n)
		lo := (q + 2) / 4  // round(q/4)
		hi := (3*q + 2) / 4 // round(3q/4)
		for i, c := range poly {
			if c < lo || c > hi {
				out[i] = 0
			} else {
				out[i] = 1
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported encoding kind %q", kind)
}

// RandomPoly produces a random polynomial of length n, modulus q, whose
// ToBits-encoding is consistent with how the core's random(poly=...,
// encoding=...) debug instruction seeds a polynomial given only an encoding
// and an RNG, inverting each ToBits rule.
func RandomPoly(kind Kind, n int, q int64, rng *rand.Rand) ([]int64, error) {
	poly := make([]int64, n)
	switch kind {
	case Binary0Red:
		for i := range poly {
			if rng.IntN(2) == 1 {
				poly[i] = (q / 2)
			}
		}
		return poly, nil

	case Binary2Red, Binary4Red, Binary8Red:
		m := map[Kind]int{Binary2Red: 2, Binary4Red: 4, Binary8Red: 8}[kind]
		if n%m != 0 {
			return nil, fmt.Errorf("%s requires n divisible by %d, got n=%d", kind, m, n)
		}
		group := n / m
		for i := 0; i < group; i++ {
			v := int64(rng.IntN(int(q)))
			for k := 0; k < m; k++ {
				poly[i+k*group] = v
			}
		}
		return poly, nil

	case Trunc256:
		limit := n
		if limit > 256 {
			limit = 256
		}
		for i := 0; i < limit; i++ {
			if rng.IntN(2) == 1 {
				poly[i] = q / 2
			}
		}
		return poly, nil

	case Trunc256MSB:
		limit := n
		if limit > 256 {
			limit = 256
		}
		lsbits := log2Floor(q) - 2
		for i := 0; i < limit; i++ {
			bit := int64(rng.IntN(2))
			poly[i] = (bit << uint(lsbits+1)) + (1 << uint(lsbits))
		}
		return poly, nil

	case ReconSimple:
		for i := range poly {
			if rng.IntN(2) == 1 {
				poly[i] = q / 2
			}
		}
		return poly, nil
	}
	return nil, fmt.Errorf("unsupported encoding kind %q", kind)
}
