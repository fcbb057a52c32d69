package report

import (
	"path/filepath"
	"testing"

	"github.com/sapphirecore/coresim/pkg/power"
)

func TestWriteReadSummaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	s := Summary{
		Program:      "test.core",
		N:            256,
		Q:            7681,
		VddVolts:     1.1,
		FreqMHz:      72,
		Instructions: 10,
		Power:        power.Report{Instructions: 10, Cycles: 1000},
	}
	if err := Write(path, s); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Program != s.Program || got.N != s.N || got.Power.Cycles != s.Power.Cycles {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, s)
	}
}

func TestSaveLoadPolyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poly.json")

	coeffs := []int64{1, 2, 3, 4, 5}
	if err := SavePoly(path, coeffs); err != nil {
		t.Fatal(err)
	}
	got, err := LoadPoly(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(coeffs) {
		t.Fatalf("expected %d coefficients, got %d", len(coeffs), len(got))
	}
	for i := range coeffs {
		if got[i] != coeffs[i] {
			t.Fatalf("coefficient %d mismatch: got %d want %d", i, got[i], coeffs[i])
		}
	}
}
