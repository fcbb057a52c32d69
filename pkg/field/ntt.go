package field

import "fmt"

// ErrNoRoot is returned when 2n (or n) has no tabled root of unity for q.
type ErrNoRoot struct {
	N, M int
	Q    int64
}

func (e *ErrNoRoot) Error() string {
	return fmt.Sprintf("no %d-th root of unity tabled for q=%d (n=%d)", e.M, e.Q, e.N)
}

// bitReverseShuffle permutes poly in place by the bit-reversal permutation
// over log2(len(poly)) bits, using the counter-increment trick from
// original_source/core.py's dif_ntt/dif_intt.
func bitReverseShuffle(poly []int64) {
	n := len(poly)
	j := 0
	for i := 1; i < n; i++ {
		b := n >> 1
		for j >= b {
			j -= b
			b >>= 1
		}
		j += b
		if j > i {
			poly[i], poly[j] = poly[j], poly[i]
		}
	}
}

// butterflies runs the Cooley-Tukey/Gentleman-Sande butterfly schedule
// shared by all four transform variants, using root omega.
func butterflies(poly []int64, q, omega int64) {
	n := len(poly)
	for transSize := 2; transSize <= n; transSize <<= 1 {
		wb := int64(1)
		wbStep := PowMod(omega, int64(n/transSize), q)
		for t := 0; t < transSize>>1; t++ {
			for trans := 0; trans < n/transSize; trans++ {
				i := trans*transSize + t
				j := i + transSize>>1
				a := poly[i]
				b := MulMod(poly[j], wb, q)
				poly[i] = AddMod(a, b, q)
				poly[j] = SubMod(a, b, q)
			}
			wb = MulMod(wb, wbStep, q)
		}
	}
}

func log2(n int) int {
	l := 0
	for (1 << l) < n {
		l++
	}
	return l
}

// DifNTT performs the decimation-in-frequency forward NTT: standard-order
// input, bit-reversed-order output (pre- and post-butterfly shuffles).
func DifNTT(poly []int64, q int64) error {
	n := len(poly)
	omega, ok := RootOfUnity(q, n)
	if !ok {
		return &ErrNoRoot{N: n, M: n, Q: q}
	}
	bitReverseShuffle(poly)
	butterflies(poly, q, omega)
	bitReverseShuffle(poly)
	return nil
}

// DitNTT performs the decimation-in-time forward NTT: bit-reversed-order
// input, standard-order output (no outer shuffles).
func DitNTT(poly []int64, q int64) error {
	n := len(poly)
	omega, ok := RootOfUnity(q, n)
	if !ok {
		return &ErrNoRoot{N: n, M: n, Q: q}
	}
	butterflies(poly, q, omega)
	return nil
}

// DifINTT is the inverse of DifNTT, using omega^-1.
func DifINTT(poly []int64, q int64) error {
	n := len(poly)
	omega, ok := RootOfUnity(q, n)
	if !ok {
		return &ErrNoRoot{N: n, M: n, Q: q}
	}
	omegaInv := Inverse(omega, q)
	bitReverseShuffle(poly)
	butterflies(poly, q, omegaInv)
	bitReverseShuffle(poly)
	return nil
}

// DitINTT inverts DitNTT up to the factor n, using omega^-1; the n^-1
// scaling is applied by MultPsiInv, not here.
func DitINTT(poly []int64, q int64) error {
	n := len(poly)
	omega, ok := RootOfUnity(q, n)
	if !ok {
		return &ErrNoRoot{N: n, M: n, Q: q}
	}
	omegaInv := Inverse(omega, q)
	butterflies(poly, q, omegaInv)
	return nil
}

// MultPsi multiplies coefficient a_i by psi^i mod q, psi = omega_{2n,q}.
func MultPsi(poly []int64, q int64) error {
	n := len(poly)
	psi, ok := RootOfUnity(q, 2*n)
	if !ok {
		return &ErrNoRoot{N: n, M: 2 * n, Q: q}
	}
	factor := int64(1)
	for i := range poly {
		poly[i] = MulMod(poly[i], factor, q)
		factor = MulMod(factor, psi, q)
	}
	return nil
}

// MultPsiInv multiplies a_i by n^-1 * psi^-i mod q (combined n-inverse and
// inverse twist).
func MultPsiInv(poly []int64, q int64) error {
	n := len(poly)
	psi, ok := RootOfUnity(q, 2*n)
	if !ok {
		return &ErrNoRoot{N: n, M: 2 * n, Q: q}
	}
	psiInv := Inverse(psi, q)
	nInv := Inverse(int64(n), q)
	factor := int64(1)
	for i := range poly {
		poly[i] = MulMod(MulMod(poly[i], nInv, q), factor, q)
		factor = MulMod(factor, psiInv, q)
	}
	return nil
}

// NTTCycles is the closed-form cycle cost of any of the four transforms:
// 2 + 1 + (1+n/2)*log2(n).
func NTTCycles(n int) int64 {
	return 2 + 1 + int64(1+n/2)*int64(log2(n))
}

// TwistCycles is the closed-form cycle cost of mult_psi / mult_psi_inv:
// 2 + 1 + (n+1).
func TwistCycles(n int) int64 {
	return 2 + 1 + int64(n+1)
}

// SchoolbookMulNegacyclic computes a*b mod (x^n+1, q) directly, for property
// tests that check the NTT-based protocol against the definition.
func SchoolbookMulNegacyclic(a, b []int64, q int64) []int64 {
	n := len(a)
	c := make([]int64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := MulMod(a[i], b[j], q)
			if i+j < n {
				c[i+j] = AddMod(c[i+j], p, q)
			} else {
				c[i+j-n] = SubMod(c[i+j-n], p, q)
			}
		}
	}
	return c
}
