package power

import "testing"

func TestIddFlatCategory(t *testing.T) {
	v, ok := Idd(CategoryCtrl, 0)
	if !ok || v != 1815 {
		t.Fatalf("expected ctrl IDD 1815, got %d ok=%v", v, ok)
	}
}

func TestIddByQCategory(t *testing.T) {
	v, ok := Idd(CategoryPolyNTT, 12289)
	if !ok || v != 9589 {
		t.Fatalf("expected poly_ntt IDD 9589 at q=12289, got %d ok=%v", v, ok)
	}
	if _, ok := Idd(CategoryPolyNTT, 99999); ok {
		t.Fatal("expected no IDD entry for untabled q")
	}
}

func TestRecorderFinalize(t *testing.T) {
	r := NewRecorder(1.1, 72, 42)
	if err := r.Charge(CategoryCtrl, 0, 100); err != nil {
		t.Fatal(err)
	}
	if err := r.Charge(CategoryPolyNTT, 12289, 500); err != nil {
		t.Fatal(err)
	}
	if r.TotalCycles() != 600 {
		t.Fatalf("expected 600 total cycles, got %d", r.TotalCycles())
	}
	report := r.Finalize()
	if report.Cycles != 600 {
		t.Fatalf("expected 600 cycles in report, got %d", report.Cycles)
	}
	if report.TimeSeconds <= 0 || report.AvgPowerW <= 0 || report.EnergyJoules <= 0 {
		t.Fatalf("expected positive time/power/energy, got %+v", report)
	}
}

func TestRecorderChargeRejectsUntabledQ(t *testing.T) {
	r := NewRecorder(1.1, 72, 1)
	if err := r.Charge(CategoryPolyNTT, 1, 10); err == nil {
		t.Fatal("expected error for unknown (category, q) pair")
	}
}
