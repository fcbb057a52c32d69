package field

import (
	"math/rand/v2"
	"testing"
)

// TestNTTRoundTrip verifies DIF_NTT followed by DIT_INTT and a scaling by
// n^-1 is the identity, for every (n,q) pair that has a tabled n-th root of
// unity. The inverse transforms leave the factor n in place; in the core it
// is removed by mult_psi_inv.
func TestNTTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for q, table := range rootsOfUnity {
		for n := range table {
			if n > 2048 {
				continue // not a supported polynomial length on its own
			}
			if !IsValidN(n) {
				continue
			}
			orig := make([]int64, n)
			for i := range orig {
				orig[i] = rng.Int64N(q)
			}
			poly := append([]int64(nil), orig...)
			if err := DifNTT(poly, q); err != nil {
				t.Fatalf("n=%d q=%d DifNTT: %v", n, q, err)
			}
			if err := DitINTT(poly, q); err != nil {
				t.Fatalf("n=%d q=%d DitINTT: %v", n, q, err)
			}
			nInv := Inverse(int64(n), q)
			for i := range poly {
				poly[i] = MulMod(poly[i], nInv, q)
			}
			for i := range orig {
				if poly[i] != orig[i] {
					t.Fatalf("n=%d q=%d round-trip mismatch at %d: got %d want %d", n, q, i, poly[i], orig[i])
				}
			}
		}
	}
}

// TestNegacyclicMultiplyProtocol checks the documented composition
// mult_psi -> DIF_NTT -> DIF_NTT -> poly_op MUL -> DIT_INTT -> mult_psi_inv
// against the schoolbook definition, for a representative (n,q) with a
// tabled 2n-th root.
func TestNegacyclicMultiplyProtocol(t *testing.T) {
	const n = 256
	const q = int64(7681)
	rng := rand.New(rand.NewPCG(7, 8))

	a := make([]int64, n)
	b := make([]int64, n)
	for i := range a {
		a[i] = rng.Int64N(q)
		b[i] = rng.Int64N(q)
	}

	want := SchoolbookMulNegacyclic(a, b, q)

	pa := append([]int64(nil), a...)
	pb := append([]int64(nil), b...)

	if err := MultPsi(pa, q); err != nil {
		t.Fatal(err)
	}
	if err := MultPsi(pb, q); err != nil {
		t.Fatal(err)
	}
	if err := DifNTT(pa, q); err != nil {
		t.Fatal(err)
	}
	if err := DifNTT(pb, q); err != nil {
		t.Fatal(err)
	}

	got := make([]int64, n)
	for i := range got {
		got[i] = MulMod(pa[i], pb[i], q)
	}

	if err := DitINTT(got, q); err != nil {
		t.Fatal(err)
	}
	if err := MultPsiInv(got, q); err != nil {
		t.Fatal(err)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("negacyclic mismatch at %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestRootOfUnityMissing(t *testing.T) {
	if _, ok := RootOfUnity(7681, 8192); ok {
		t.Fatal("expected no tabled root for 8192 under q=7681")
	}
	if err := DifNTT(make([]int64, 8192), 7681); err == nil {
		t.Fatal("expected ErrNoRoot")
	}
}

func TestInverse(t *testing.T) {
	const q = int64(7681)
	for _, a := range []int64{1, 2, 17, 7680} {
		inv := Inverse(a, q)
		if MulMod(a, inv, q) != 1 {
			t.Fatalf("Inverse(%d) = %d is not a multiplicative inverse mod %d", a, inv, q)
		}
	}
}
