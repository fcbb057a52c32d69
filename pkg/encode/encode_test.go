package encode

import (
	"math/rand/v2"
	"testing"
)

func TestBinary0RedRoundTripShape(t *testing.T) {
	q := int64(7681)
	rng := rand.New(rand.NewPCG(1, 2))
	poly, err := RandomPoly(Binary0Red, 16, q, rng)
	if err != nil {
		t.Fatal(err)
	}
	bits, err := ToBits(Binary0Red, poly, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(bits) != 16 {
		t.Fatalf("expected 16 bits, got %d", len(bits))
	}
	for _, b := range bits {
		if b != 0 && b != 1 {
			t.Fatalf("expected binary output, got %d", b)
		}
	}
}

func TestBinary4RedGroupLength(t *testing.T) {
	q := int64(7681)
	poly := make([]int64, 16)
	bits, err := ToBits(Binary4Red, poly, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(bits) != 4 {
		t.Fatalf("expected 16/4=4 output bits, got %d", len(bits))
	}
}

func TestBinary4RedRejectsBadLength(t *testing.T) {
	q := int64(7681)
	poly := make([]int64, 15)
	if _, err := ToBits(Binary4Red, poly, q); err == nil {
		t.Fatal("expected error for n not divisible by 4")
	}
}

func TestTrunc256Truncates(t *testing.T) {
	q := int64(7681)
	poly := make([]int64, 512)
	bits, err := ToBits(Trunc256, poly, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(bits) != 256 {
		t.Fatalf("expected 256 bits, got %d", len(bits))
	}
}

func TestReconSimpleThresholds(t *testing.T) {
	q := int64(7681)
	poly := []int64{0, q / 2, q - 1}
	bits, err := ToBits(ReconSimple, poly, q)
	if err != nil {
		t.Fatal(err)
	}
	if bits[0] != 0 || bits[1] != 1 || bits[2] != 0 {
		t.Fatalf("unexpected RECON_SIMPLE output: %v", bits)
	}
}

func TestUnsupportedEncoding(t *testing.T) {
	if _, err := ToBits(Kind("NOPE"), nil, 7681); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
