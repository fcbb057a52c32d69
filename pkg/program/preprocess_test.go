package program

import (
	"strings"
	"testing"
)

func TestLoadBasicProgram(t *testing.T) {
	src := `config(n=256,q=7681)
reg=5
tmp=0
end
`
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Instructions) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(prog.Instructions))
	}
}

func TestLoadAppendsMissingEnd(t *testing.T) {
	src := `config(n=256,q=7681)
reg=5
`
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Warnings) != 1 {
		t.Fatalf("expected one warning about missing end, got %v", prog.Warnings)
	}
}

func TestLoadRejectsMissingConfig(t *testing.T) {
	src := `reg=5
end
`
	if _, err := Load(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for missing leading config")
	}
}

func TestDefineSubstitution(t *testing.T) {
	src := "`define NN 256\n" +
		"`define QQ 7681\n" +
		"config(n=NN,q=QQ)\n" +
		"end\n"
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := prog.Instructions[0].Int("n")
	q, _ := prog.Instructions[0].Int("q")
	if n != 256 || q != 7681 {
		t.Fatalf("expected substituted n=256,q=7681, got n=%d q=%d", n, q)
	}
}

func TestIfdefGating(t *testing.T) {
	src := "`define DEBUG 1\n" +
		"config(n=256,q=7681)\n" +
		"`ifdef DEBUG\n" +
		"reg=1\n" +
		"`endif\n" +
		"`ifdef NOTDEFINED\n" +
		"reg=2\n" +
		"`endif\n" +
		"end\n"
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Instructions) != 3 {
		t.Fatalf("expected config+reg=1+end = 3 instructions, got %d", len(prog.Instructions))
	}
}

func TestLabelsAndBranchResolution(t *testing.T) {
	src := `config(n=256,q=7681)
loop:
reg=1
if(flag==0)gotoloop
end
`
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if idx, ok := prog.Labels["loop"]; !ok || idx != 0 {
		t.Fatalf("expected label loop at index 0, got %d ok=%v", idx, ok)
	}
}

func TestUndefinedGotoTargetErrors(t *testing.T) {
	src := `config(n=256,q=7681)
if(flag==0)gotonowhere
end
`
	if _, err := Load(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for undefined goto target")
	}
}

func TestLoadCDT(t *testing.T) {
	src := "10\n50\n120\n"
	table, err := LoadCDT(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 3 || table[1] != 50 {
		t.Fatalf("unexpected table: %v", table)
	}
}

func TestLoadCDTRejectsTooLong(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 65; i++ {
		b.WriteString("1\n")
	}
	if _, err := LoadCDT(strings.NewReader(b.String())); err == nil {
		t.Fatal("expected error for oversized cdt table")
	}
}
