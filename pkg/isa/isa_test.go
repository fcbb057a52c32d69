package isa

import "testing"

func TestParseConfig(t *testing.T) {
	inst, err := ParseLine(1, "config(n=256,q=7681)")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Kind != KindConfig {
		t.Fatalf("expected KindConfig, got %v", inst.Kind)
	}
	n, err := inst.Int("n")
	if err != nil || n != 256 {
		t.Fatalf("expected n=256, got %d err=%v", n, err)
	}
	q, err := inst.Int("q")
	if err != nil || q != 7681 {
		t.Fatalf("expected q=7681, got %d err=%v", q, err)
	}
}

func TestParseTransform(t *testing.T) {
	inst, err := ParseLine(2, "transform(mode=DIF_NTT,poly_dst=0,poly_src=1)")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Kind != KindTransform || inst.Str("mode") != "DIF_NTT" {
		t.Fatalf("unexpected parse: %+v", inst)
	}
}

func TestParseSamplerLongAndShortForm(t *testing.T) {
	long, err := ParseLine(3, `rej_sample(prng=SHAKE-128,seed=r0,c0=1,c1=2,poly=0)`)
	if err != nil {
		t.Fatal(err)
	}
	if long.Kind != KindSample || long.Str("sampler") != "rej" || long.Str("short_form") != "false" {
		t.Fatalf("unexpected long-form parse: %+v", long)
	}

	short, err := ParseLine(4, `rej_sample(prng=SHAKE-256,poly=2)`)
	if err != nil {
		t.Fatal(err)
	}
	if short.Kind != KindSample || short.Str("short_form") != "true" {
		t.Fatalf("unexpected short-form parse: %+v", short)
	}
}

func TestParseBranchAndLabel(t *testing.T) {
	label, err := ParseLine(5, "loop:")
	if err != nil || label.Kind != KindLabel || label.Str("label") != "loop" {
		t.Fatalf("unexpected label parse: %+v err=%v", label, err)
	}

	branch, err := ParseLine(6, "if(flag==0)gotoloop")
	if err != nil || branch.Kind != KindBranch {
		t.Fatalf("unexpected branch parse: %+v err=%v", branch, err)
	}
}

func TestParseCompareTargets(t *testing.T) {
	for _, target := range []string{"c0", "c1", "reg", "tmp"} {
		inst, err := ParseLine(7, "flag=compare("+target+",5)")
		if err != nil {
			t.Fatalf("target %s: %v", target, err)
		}
		if inst.Kind != KindCompare || inst.Str("target") != target {
			t.Fatalf("target %s: unexpected parse %+v", target, inst)
		}
	}
}

func TestParseUnrecognized(t *testing.T) {
	if _, err := ParseLine(8, "this is not an instruction"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseSHA3Instructions(t *testing.T) {
	cases := []struct {
		text string
		kind Kind
	}{
		{"sha3_init", KindSHA3Init},
		{"sha3_256_absorb(poly=0)", KindSHA3AbsorbPoly},
		{"sha3_512_absorb(poly=0)", KindSHA3AbsorbPoly},
		{"sha3_256_absorb(r0)", KindSHA3AbsorbReg},
		{"sha3_512_absorb(r0)", KindSHA3AbsorbReg},
		{"r0=sha3_256_digest", KindSHA3Digest256},
		{"r0||r1=sha3_512_digest", KindSHA3Digest512},
	}
	for _, c := range cases {
		inst, err := ParseLine(9, c.text)
		if err != nil {
			t.Fatalf("%q: %v", c.text, err)
		}
		if inst.Kind != c.kind {
			t.Fatalf("%q: expected kind %v, got %v", c.text, c.kind, inst.Kind)
		}
	}
}
