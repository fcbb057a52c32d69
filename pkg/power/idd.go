// Package power models the core's per-instruction current draw and converts
// recorded cycles into a time/power/energy report. The IDD table below is
// ported verbatim from original_source/sim.py's idd_dict.
package power

// Category is one of the fixed IDD classes. Most are q-independent
// (flatIdd); the rest are tabled per modulus q (byQIdd).
type Category string

const (
	CategoryCtrl             Category = "ctrl"
	CategoryRegALU           Category = "reg_alu"
	CategoryRegPoly          Category = "reg_poly"
	CategorySHA3             Category = "sha3"
	CategoryPolyReadWrite    Category = "poly_read_write"
	CategoryPolyInit         Category = "poly_init"
	CategoryPolyBitrev       Category = "poly_bitrev"
	CategoryPolyCopy         Category = "poly_copy"
	CategoryPolyEqCheck      Category = "poly_eq_check"
	CategoryPolyInfNormCheck Category = "poly_inf_norm_check"
	CategoryPolyShift        Category = "poly_shift"
	CategoryPolyHash         Category = "poly_hash"
	CategoryPolySumElems     Category = "poly_sum_elems"
	CategoryPolyMaxElems     Category = "poly_max_elems"

	CategoryPolyMultPsi     Category = "poly_mult_psi"
	CategoryPolyNTT         Category = "poly_ntt"
	CategoryPolyPolyAddSub  Category = "poly_poly_addsub"
	CategoryPolyPolyMul     Category = "poly_poly_mul"
	CategoryPolyConstAddSub Category = "poly_const_addsub"
	CategoryPolyConstMul    Category = "poly_const_mul"

	CategoryPolyConstAnd   Category = "poly_const_and"
	CategoryPolyConstOr    Category = "poly_const_or"
	CategoryPolyConstXor   Category = "poly_const_xor"
	CategoryPolyConstShift Category = "poly_const_shift"

	CategorySampleRej   Category = "sample_rej"
	CategorySampleBin   Category = "sample_bin"
	CategorySampleCDT   Category = "sample_cdt"
	CategorySampleUni   Category = "sample_uni"
	CategorySampleTri1  Category = "sample_tri_1"
	CategorySampleTri2  Category = "sample_tri_2"
	CategorySampleTri3  Category = "sample_tri_3"
)

// flatIdd holds the q-independent categories' current draw, in microamps.
var flatIdd = map[Category]int64{
	CategoryCtrl:             1815,
	CategoryRegALU:           3271,
	CategoryRegPoly:          2795,
	CategorySHA3:             6115,
	CategoryPolyReadWrite:    6145,
	CategoryPolyInit:         6120,
	CategoryPolyBitrev:       6212,
	CategoryPolyCopy:         6183,
	CategoryPolyEqCheck:      5523,
	CategoryPolyInfNormCheck: 3019,
	CategoryPolyShift:        6201,
	CategoryPolyHash:         7503,
	CategoryPolySumElems:     3630,
	CategoryPolyMaxElems:     3184,
	CategoryPolyConstAnd:   3504,
	CategoryPolyConstOr:    3552,
	CategoryPolyConstXor:   3514,
	CategoryPolyConstShift: 3484,
	CategorySampleRej:      6755,
	CategorySampleBin:      7545,
	CategorySampleCDT:      2764,
	CategorySampleUni:      7573,
	CategorySampleTri1:     3645,
	CategorySampleTri2:     3627,
	CategorySampleTri3:     6791,
}

// byQIdd holds the categories whose current draw depends on the modulus q.
var byQIdd = map[Category]map[int64]int64{
	CategoryPolyMultPsi: {
		3329: 7546, 7681: 7335, 12289: 8067, 40961: 9032, 65537: 7455,
		120833: 8890, 133121: 8055, 184321: 8740, 4205569: 10418,
		4206593: 9352, 8058881: 11726, 8380417: 8441, 8404993: 9156,
	},
	CategoryPolyNTT: {
		3329: 8591, 7681: 8483, 12289: 9589, 40961: 10783, 65537: 8619,
		120833: 10764, 133121: 9958, 184321: 10585, 4205569: 13455,
		4206593: 12657, 8058881: 14365, 8380417: 10366, 8404993: 10922,
	},
	CategoryPolyPolyAddSub: {
		3329: 5022, 7681: 5290, 12289: 5523, 40961: 5717, 65537: 5464,
		120833: 5950, 133121: 5688, 184321: 6125, 4205569: 6422,
		4206593: 6498, 8058881: 6862, 8380417: 5921, 8404993: 6071,
	},
	CategoryPolyPolyMul: {
		3329: 7557, 7681: 7347, 12289: 8075, 40961: 9046, 65537: 7464,
		120833: 8900, 133121: 8066, 184321: 8753, 4205569: 10433,
		4206593: 9367, 8058881: 11734, 8380417: 8454, 8404993: 9173,
	},
	CategoryPolyConstAddSub: {
		3329: 3558, 7681: 3581, 12289: 3640, 40961: 3640, 65537: 3630,
		120833: 3630, 133121: 3611, 184321: 3644, 4205569: 3653,
		4206593: 3655, 8058881: 3620, 8380417: 3611, 8404993: 3628,
	},
	CategoryPolyConstMul: {
		3329: 5946, 7681: 5736, 12289: 6134, 40961: 6940, 65537: 5794,
		120833: 7144, 133121: 6396, 184321: 7142, 4205569: 8822,
		4206593: 7756, 8058881: 9939, 8380417: 7046, 8404993: 7562,
	},
}

// Idd returns the current draw, in microamps, for a category at modulus q.
// q is ignored for flat categories.
func Idd(cat Category, q int64) (int64, bool) {
	if v, ok := flatIdd[cat]; ok {
		return v, true
	}
	if table, ok := byQIdd[cat]; ok {
		if v, ok := table[q]; ok {
			return v, true
		}
	}
	return 0, false
}
