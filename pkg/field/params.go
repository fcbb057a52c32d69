// Package field implements modular arithmetic and the Number-Theoretic
// Transform engine over the fixed (n, q) parameter sets the core supports.
package field

// ValidN lists the supported polynomial lengths.
var ValidN = []int{64, 128, 256, 512, 1024, 2048}

// ValidQ lists the supported prime moduli.
var ValidQ = []int{3329, 7681, 12289, 40961, 65537, 120833, 133121, 184321, 4205569, 4206593, 8058881, 8380417, 8404993}

// Params is a validated (n, q) pair.
type Params struct {
	N int
	Q int64
}

// IsValidN reports whether n is one of the supported polynomial lengths.
func IsValidN(n int) bool {
	for _, v := range ValidN {
		if v == n {
			return true
		}
	}
	return false
}

// IsValidQ reports whether q is one of the supported moduli.
func IsValidQ(q int64) bool {
	for _, v := range ValidQ {
		if int64(v) == q {
			return true
		}
	}
	return false
}

// rootsOfUnity maps q -> (n' -> primitive n'-th root of unity mod q).
// Ported verbatim from original_source/core.py's roots_of_unity table.
var rootsOfUnity = map[int64]map[int]int64{
	3329:    {64: 56, 128: 33, 256: 17},
	7681:    {64: 330, 128: 202, 256: 198, 512: 62},
	12289:   {64: 563, 128: 81, 256: 9, 512: 3, 1024: 49, 2048: 7, 4096: 41},
	40961:   {64: 1554, 128: 223, 256: 82, 512: 248, 1024: 40, 2048: 32, 4096: 28},
	65537:   {64: 255, 128: 2469, 256: 141, 512: 157, 1024: 431, 2048: 33, 4096: 21},
	120833:  {64: 4454, 128: 158, 256: 204, 512: 133, 1024: 206, 2048: 171},
	133121:  {64: 2340, 128: 6409, 256: 1143, 512: 348, 1024: 454, 2048: 39},
	184321:  {64: 7114, 128: 3388, 256: 946, 512: 445, 1024: 71, 2048: 391, 4096: 145},
	4205569: {64: 4429, 128: 3244, 256: 2818, 512: 30909, 1024: 742},
	4206593: {64: 435133, 128: 79570, 256: 10298, 512: 27945, 1024: 990, 2048: 1332, 4096: 629},
	8058881: {64: 414515, 128: 44206, 256: 5168, 512: 70867, 1024: 20460, 2048: 11507},
	8380417: {64: 434125, 128: 394148, 256: 169688, 512: 1753, 1024: 10730, 2048: 1306, 4096: 2741},
	8404993: {64: 90438, 128: 287322, 256: 56156, 512: 35544, 1024: 2893, 2048: 16204, 4096: 2687},
}

// RejFastFactor maps q to its tabled rejection-sampling speedup factor.
var RejFastFactor = map[int64]int64{
	3329:    19,
	7681:    1,
	12289:   5,
	40961:   3,
	65537:   7,
	120833:  1,
	133121:  7,
	184321:  11,
	4205569: 7,
	4206593: 7,
	8058881: 1,
	8380417: 1,
	8404993: 7,
}

// RootOfUnity returns omega_{m,q} and whether it is tabled for this q.
func RootOfUnity(q int64, m int) (int64, bool) {
	table, ok := rootsOfUnity[q]
	if !ok {
		return 0, false
	}
	v, ok := table[m]
	return v, ok
}
