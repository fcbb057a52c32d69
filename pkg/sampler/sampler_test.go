package sampler

import "testing"

func seed(b byte) []byte {
	s := make([]byte, SeedLen)
	for i := range s {
		s[i] = b
	}
	return s
}

func TestRejectionStaysInRange(t *testing.T) {
	poly := make([]int64, 256)
	cycles, err := Rejection(128, 7681, poly, seed(0x11))
	if err != nil {
		t.Fatal(err)
	}
	if cycles <= 0 {
		t.Fatalf("expected positive cycle count, got %d", cycles)
	}
	for i, c := range poly {
		if c < 0 || c >= 7681 {
			t.Fatalf("coefficient %d out of range: %d", i, c)
		}
	}
}

func TestUniformStaysInRange(t *testing.T) {
	poly := make([]int64, 256)
	eta := int64(5)
	if _, err := Uniform(256, eta, poly, seed(0x22)); err != nil {
		t.Fatal(err)
	}
	for i, c := range poly {
		if c < -eta || c > eta {
			t.Fatalf("coefficient %d out of range: %d", i, c)
		}
	}
}

func TestBinomialStaysInRange(t *testing.T) {
	for _, k := range []int{3, 20} {
		poly := make([]int64, 128)
		if _, err := Binomial(128, k, poly, seed(0x33)); err != nil {
			t.Fatal(err)
		}
		for i, c := range poly {
			if c < int64(-k) || c > int64(k) {
				t.Fatalf("k=%d coefficient %d out of range: %d", k, i, c)
			}
		}
	}
}

func TestCDTStaysInTableRange(t *testing.T) {
	cdt := []int64{10, 50, 120, 250, 500}
	poly := make([]int64, 64)
	if _, err := CDT(128, 10, cdt, poly, seed(0x44)); err != nil {
		t.Fatal(err)
	}
	maxMag := int64(len(cdt) - 1)
	for i, c := range poly {
		if c < -maxMag || c > maxMag {
			t.Fatalf("coefficient %d out of range: %d", i, c)
		}
	}
}

func TestTrinary1FillsExactCount(t *testing.T) {
	poly := make([]int64, 64)
	if _, err := Trinary1(128, 10, poly, seed(0x55)); err != nil {
		t.Fatal(err)
	}
	nonzero := 0
	for _, c := range poly {
		if c != 0 {
			nonzero++
			if c != 1 && c != -1 {
				t.Fatalf("unexpected trinary value %d", c)
			}
		}
	}
	if nonzero != 10 {
		t.Fatalf("expected 10 nonzero coefficients, got %d", nonzero)
	}
}

func TestTrinary2FillsExactCounts(t *testing.T) {
	poly := make([]int64, 64)
	if _, err := Trinary2(128, 6, 4, poly, seed(0x66)); err != nil {
		t.Fatal(err)
	}
	pos, neg := 0, 0
	for _, c := range poly {
		switch c {
		case 1:
			pos++
		case -1:
			neg++
		case 0:
		default:
			t.Fatalf("unexpected trinary value %d", c)
		}
	}
	if pos != 6 || neg != 4 {
		t.Fatalf("expected 6 positive / 4 negative, got %d/%d", pos, neg)
	}
}

func TestTrinary3BoundedValues(t *testing.T) {
	poly := make([]int64, 128)
	if _, err := Trinary3(256, 64, poly, seed(0x77)); err != nil {
		t.Fatal(err)
	}
	for i, c := range poly {
		if c < -1 || c > 1 {
			t.Fatalf("coefficient %d out of range: %d", i, c)
		}
	}
}

func TestUnsupportedShakeMode(t *testing.T) {
	poly := make([]int64, 8)
	if _, err := Rejection(64, 7681, poly, seed(0x88)); err == nil {
		t.Fatal("expected error for unsupported SHAKE mode")
	}
}
