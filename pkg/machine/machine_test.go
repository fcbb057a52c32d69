package machine

import (
	"strings"
	"testing"

	"github.com/sapphirecore/coresim/pkg/power"
	"github.com/sapphirecore/coresim/pkg/program"
)

func runProgram(t *testing.T, src string) *Machine {
	t.Helper()
	prog, err := program.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("preprocessing: %v", err)
	}
	n, err := prog.Instructions[0].Int("n")
	if err != nil {
		t.Fatal(err)
	}
	q, err := prog.Instructions[0].Int64("q")
	if err != nil {
		t.Fatal(err)
	}
	rec := power.NewRecorder(1.1, 72, 1)
	m, err := New(n, q, rec, 7, nil)
	if err != nil {
		t.Fatalf("creating machine: %v", err)
	}
	m.Load(prog.Instructions[1:], prog.Labels)
	if err := m.Run(); err != nil {
		t.Fatalf("running program: %v", err)
	}
	return m
}

func TestScalarArithmetic(t *testing.T) {
	m := runProgram(t, `config(n=256,q=7681)
reg=5
tmp=10
tmp=tmp+reg
end
`)
	if m.Tmp() != 15 {
		t.Fatalf("expected tmp=15, got %d", m.Tmp())
	}
}

func TestPolyInitAndReadWrite(t *testing.T) {
	m := runProgram(t, `config(n=256,q=7681)
init(poly=0)
reg=42
(poly=0)[3]=reg
reg=(poly=0)[3]
end
`)
	if m.Reg() != 42 {
		t.Fatalf("expected reg=42, got %d", m.Reg())
	}
}

func TestEqCheckAcrossPartition(t *testing.T) {
	m := runProgram(t, `config(n=256,q=7681)
init(poly=0)
init(poly=16)
flag=eq_check(poly0=0,poly1=16)
end
`)
	if m.Flag() != 1 {
		t.Fatalf("expected flag=1 for equal zeroed polynomials, got %d", m.Flag())
	}
}

func TestEqCheckRejectsSamePartition(t *testing.T) {
	prog, err := program.Load(strings.NewReader(`config(n=256,q=7681)
init(poly=0)
init(poly=1)
flag=eq_check(poly0=0,poly1=1)
end
`))
	if err != nil {
		t.Fatal(err)
	}
	rec := power.NewRecorder(1.1, 72, 1)
	n, _ := prog.Instructions[0].Int("n")
	q, _ := prog.Instructions[0].Int64("q")
	m, err := New(n, q, rec, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.Load(prog.Instructions[1:], prog.Labels)
	if err := m.Run(); err == nil {
		t.Fatal("expected a partition-straddle fault")
	}
}

func TestCompareThreeWay(t *testing.T) {
	m := runProgram(t, `config(n=256,q=7681)
reg=10
flag=compare(reg,5)
end
`)
	if m.Flag() != 1 {
		t.Fatalf("expected flag=1 (reg>val), got %d", m.Flag())
	}
}

func TestBranchLoop(t *testing.T) {
	m := runProgram(t, `config(n=256,q=7681)
c0=0
loop:
c0=c0+1
flag=compare(c0,3)
if(flag!=0)gotoloop
end
`)
	if got, err := m.getCounter(0); err != nil || got != 3 {
		t.Fatalf("expected c0=3, got %d err=%v", got, err)
	}
}

func TestNTTRoundTripThroughMachine(t *testing.T) {
	m := runProgram(t, `config(n=256,q=7681)
init(poly=1)
reg=17
(poly=1)[0]=reg
mult_psi(poly=1)
transform(mode=DIF_NTT,poly_dst=17,poly_src=1)
transform(mode=DIT_INTT,poly_dst=1,poly_src=17)
mult_psi_inv(poly=1)
reg=(poly=1)[0]
end
`)
	if m.Reg() != 17 {
		t.Fatalf("expected round trip to preserve coefficient 17, got %d", m.Reg())
	}
}
