package sampler

import (
	"fmt"

	"github.com/sapphirecore/coresim/pkg/field"
)

// rateCycles models the fraction of a SHAKE permutation that
// a given number of squeezed blocks consumes, per original_source/sim.py's
// charging rule: ceil(count*29/42) extra cycles for SHAKE-128, ceil(count*
// 33/34) for SHAKE-256, on top of the fixed 25+25 setup/absorb cost.
func rateCycles(mode int, count int64) (int64, error) {
	switch mode {
	case 128:
		return ceilDiv(count*29, 42), nil
	case 256:
		return ceilDiv(count*33, 34), nil
	default:
		return 0, fmt.Errorf("unsupported SHAKE mode %d", mode)
	}
}

// Rejection fills poly with n coefficients in [0,q) drawn by rejection
// sampling against bound = RejFastFactor[q]*q, masked to ceil(log2(bound))
// bits, 4 bytes squeezed per trial. Returns the instruction's cycle cost.
func Rejection(mode int, q int64, poly []int64, seed []byte) (int64, error) {
	factor, ok := field.RejFastFactor[q]
	if !ok {
		return 0, fmt.Errorf("no rejection factor tabled for q=%d", q)
	}
	bound := factor * q
	bits := bitsFor(bound)
	mask := (uint32(1) << bits) - 1

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	trials := int64(0)
	for i := range poly {
		for {
			v := xof.Read4() & mask
			trials++
			if int64(v) < bound {
				poly[i] = int64(v) % q
				break
			}
		}
	}

	extra, err := rateCycles(mode, trials)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + trials), nil
}

// Uniform fills poly with n coefficients in [-eta,eta] drawn by rejection
// sampling against bound = 2*eta+1, then re-centered.
func Uniform(mode int, eta int64, poly []int64, seed []byte) (int64, error) {
	bound := 2*eta + 1
	bits := bitsFor(bound)
	mask := (uint32(1) << bits) - 1

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	trials := int64(0)
	for i := range poly {
		for {
			v := xof.Read4() & mask
			trials++
			if int64(v) < bound {
				poly[i] = int64(v) - eta
				break
			}
		}
	}

	extra, err := rateCycles(mode, trials)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + trials), nil
}

func popcount(v uint32, bits uint) int {
	count := 0
	for i := uint(0); i < bits; i++ {
		if v&(1<<i) != 0 {
			count++
		}
	}
	return count
}

// Binomial fills poly with n centered-binomial(k) samples: for each
// coefficient, draw two words a and b (2 bytes each when k<=16, 4 bytes
// each otherwise), mask each to k bits, and take popcount(a)-popcount(b).
func Binomial(mode int, k int, poly []int64, seed []byte) (int64, error) {
	if k <= 0 || k > 32 {
		return 0, fmt.Errorf("centered binomial parameter k=%d out of range", k)
	}

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	n := int64(len(poly))
	wide := k > 16
	kMask := (uint32(1) << uint(k)) - 1
	for i := range poly {
		var a, b uint32
		if wide {
			a = xof.Read4()
			b = xof.Read4()
		} else {
			a = uint32(xof.Read2())
			b = uint32(xof.Read2())
		}
		poly[i] = int64(popcount(a&kMask, uint(k)) - popcount(b&kMask, uint(k)))
	}

	var extra int64
	if wide {
		switch mode {
		case 128:
			extra = ceilDiv(n*29, 21)
		case 256:
			extra = ceilDiv(n*33, 17)
		default:
			return 0, fmt.Errorf("unsupported SHAKE mode %d", mode)
		}
		return 2 + 1 + (extra + n), nil
	}
	extra, err = rateCycles(mode, n)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + n), nil
}

// CDT fills poly with n samples from a discrete Gaussian described by a
// cumulative distribution table (entries strictly increasing, length<=64).
// One 4-byte chunk is squeezed per coefficient: the low r-1 bits select the
// magnitude via the table, bit r-1 (zero-indexed) is the sign.
func CDT(mode int, r int, cdt []int64, poly []int64, seed []byte) (int64, error) {
	if r <= 1 || r > 32 {
		return 0, fmt.Errorf("CDT parameter r=%d out of range", r)
	}
	if len(cdt) == 0 || len(cdt) > 64 {
		return 0, fmt.Errorf("CDT table length %d out of range", len(cdt))
	}

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	magMask := (uint32(1) << uint(r-1)) - 1
	n := int64(len(poly))
	for i := range poly {
		chunk := xof.Read4()
		mag := chunk & magMask
		sign := (chunk >> uint(r-1)) & 1

		magnitude := int64(len(cdt) - 1)
		for idx, threshold := range cdt {
			if int64(mag) < threshold {
				magnitude = int64(idx)
				break
			}
		}
		if sign == 1 {
			magnitude = -magnitude
		}
		poly[i] = magnitude
	}

	extra, err := rateCycles(mode, n)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + (int64(len(cdt))+3)*n), nil
}

// Trinary1 fills poly (assumed already zeroed) with m coefficients set to
// +-1, chosen by reservoir sampling over distinct indices: repeatedly draw
// an index in [0,n) (rejection sampled) and a sign bit, skipping indices
// already occupied, until m slots are filled.
func Trinary1(mode int, m int, poly []int64, seed []byte) (int64, error) {
	n := int64(len(poly))
	bits := bitsFor(n)
	mask := (uint32(1) << bits) - 1

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	filled := 0
	count := int64(0)
	for filled < m {
		idx := xof.Read2() // index draw: 16 bits is ample for tabled n<=2048
		sign := xof.Read2() & 1
		count++
		i := int64(idx) & int64(mask)
		if i >= n || poly[i] != 0 {
			continue
		}
		if sign == 1 {
			poly[i] = -1
		} else {
			poly[i] = 1
		}
		filled++
	}

	extra, err := rateCycles(mode, count)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + 2*count + n), nil
}

// Trinary2 is Trinary1 generalized to independent +1 and -1 counts: m0
// slots are filled with +1, then m1 further (distinct) slots with -1.
func Trinary2(mode int, m0, m1 int, poly []int64, seed []byte) (int64, error) {
	n := int64(len(poly))
	bits := bitsFor(n)
	mask := (uint32(1) << bits) - 1

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	count := int64(0)
	fillValue := func(target int, value int64) {
		filled := 0
		for filled < target {
			idx := xof.Read2()
			count++
			i := int64(idx) & int64(mask)
			if i >= n || poly[i] != 0 {
				continue
			}
			poly[i] = value
			filled++
		}
	}
	fillValue(m0, 1)
	fillValue(m1, -1)

	extra, err := rateCycles(mode, count)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + 2*count + n), nil
}

// validTrinary3Rho lists the documented sparsity denominators: coefficient
// i is nonzero with probability 1/rho.
var validTrinary3Rho = map[int]bool{2: true, 4: true, 8: true, 16: true, 32: true, 64: true, 128: true}

// Trinary3 fills every coefficient directly (no rejection) from a single
// (e+1)-bit draw per coefficient, where rho = 2^e: the draw is nonzero with
// probability 2/2^(e+1) = 1/rho, a value of 0 maps to +1 and 1 maps to -1,
// anything else maps to 0.
func Trinary3(mode int, rho int, poly []int64, seed []byte) (int64, error) {
	if !validTrinary3Rho[rho] {
		return 0, fmt.Errorf("trinary density parameter rho=%d not one of the supported denominators", rho)
	}

	xof, err := NewStream(mode, seed)
	if err != nil {
		return 0, err
	}

	bits := bitsFor(int64(rho)) + 1
	mask := uint16(1<<bits) - 1
	for i := range poly {
		draw := xof.Read2() & mask
		switch draw {
		case 0:
			poly[i] = 1
		case 1:
			poly[i] = -1
		default:
			poly[i] = 0
		}
	}

	n := int64(len(poly))
	extra, err := rateCycles(mode, n)
	if err != nil {
		return 0, err
	}
	return 2 + 1 + (25 + 25 + extra + n), nil
}
