// Package isa defines the core's instruction set as a tagged-variant type
// and a total-function decoder, replacing the ordered regex-chain dispatch
// of original_source/sim.py's instr_exec with a single parse pass that
// either returns a fully-typed Instruction or a decode error naming the
// offending line.
package isa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies one instruction shape. Operand layout varies per Kind;
// see Instruction's Args for the argument names each Kind populates.
type Kind int

const (
	KindConfig Kind = iota
	KindCounterSet
	KindCounterAddSub
	KindRegSet
	KindTmpSet
	KindRegFromTmp
	KindTmpALU
	KindPolyReadImm
	KindPolyReadCounter
	KindPolyWriteImm
	KindPolyWriteCounter
	KindRegMax
	KindRegSum
	KindTransform
	KindMultPsi
	KindMultPsiInv
	KindSample
	KindInit
	KindPolyCopy
	KindPolyOp
	KindShiftPoly
	KindEqCheck
	KindInfNormCheck
	KindCompare
	KindBranch
	KindLabel
	KindSHA3Init
	KindSHA3AbsorbPoly
	KindSHA3AbsorbReg
	KindSHA3Digest256
	KindSHA3Digest512
	KindEnd
	KindNop
	KindRandomReg
	KindRandomPoly
	KindLoad
	KindSave
	KindPrint
	KindEncodePrint
	KindEncodeCompare
)

// Instruction is one decoded program line. Args holds Kind-specific
// operands as strings (already syntax-validated by the matching regex);
// pkg/machine converts them with the Int/Int64 helpers below.
type Instruction struct {
	Kind Kind
	Line int
	Raw  string
	Args map[string]string
}

// Int parses Args[name] as a base-10 integer.
func (i Instruction) Int(name string) (int, error) {
	v, err := strconv.Atoi(i.Args[name])
	if err != nil {
		return 0, fmt.Errorf("line %d: %q: argument %s is not an integer: %w", i.Line, i.Raw, name, err)
	}
	return v, nil
}

// Int64 parses Args[name] as a base-10 int64.
func (i Instruction) Int64(name string) (int64, error) {
	v, err := strconv.ParseInt(i.Args[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %q: argument %s is not an integer: %w", i.Line, i.Raw, name, err)
	}
	return v, nil
}

// Str returns Args[name] verbatim.
func (i Instruction) Str(name string) string {
	return i.Args[name]
}

// matcher binds one compiled regex to the Kind it produces and the names
// of its capture groups, in order.
type matcher struct {
	kind   Kind
	re     *regexp.Regexp
	fields []string
}

var matchers = []matcher{
	{KindConfig, regexp.MustCompile(`^config\(n=(\d+),q=(\d+)\)$`), []string{"n", "q"}},

	{KindCounterSet, regexp.MustCompile(`^c(\d)=(\d+)$`), []string{"idx", "val"}},
	{KindCounterAddSub, regexp.MustCompile(`^c(\d)=c(\d)([+-])(\d+)$`), []string{"dst", "src", "op", "val"}},

	{KindRegSet, regexp.MustCompile(`^reg=(\d+)$`), []string{"val"}},
	{KindTmpSet, regexp.MustCompile(`^tmp=(\d+)$`), []string{"val"}},
	{KindRegFromTmp, regexp.MustCompile(`^reg=tmp$`), []string{}},
	{KindTmpALU, regexp.MustCompile(`^tmp=tmp([+\-*&|^]|<<|>>)reg$`), []string{"op"}},

	{KindPolyReadImm, regexp.MustCompile(`^reg=\(poly=(\d+)\)\[(\d+)\]$`), []string{"poly", "index"}},
	{KindPolyReadCounter, regexp.MustCompile(`^reg=\(poly=(\d+)\)\[c(\d)\]$`), []string{"poly", "cidx"}},
	{KindPolyWriteImm, regexp.MustCompile(`^\(poly=(\d+)\)\[(\d+)\]=reg$`), []string{"poly", "index"}},
	{KindPolyWriteCounter, regexp.MustCompile(`^\(poly=(\d+)\)\[c(\d)\]=reg$`), []string{"poly", "cidx"}},

	{KindRegMax, regexp.MustCompile(`^reg=max\(poly=(\d+)\)$`), []string{"poly"}},
	{KindRegSum, regexp.MustCompile(`^reg=sum\(poly=(\d+)\)$`), []string{"poly"}},

	{KindTransform, regexp.MustCompile(`^transform\(mode=(DIF_NTT|DIT_NTT|DIF_INTT|DIT_INTT),poly_dst=(\d+),poly_src=(\d+)\)$`), []string{"mode", "poly_dst", "poly_src"}},
	{KindMultPsi, regexp.MustCompile(`^mult_psi\(poly=(\d+)\)$`), []string{"poly"}},
	{KindMultPsiInv, regexp.MustCompile(`^mult_psi_inv\(poly=(\d+)\)$`), []string{"poly"}},

	{KindInit, regexp.MustCompile(`^init\(poly=(\d+)\)$`), []string{"poly"}},
	{KindPolyCopy, regexp.MustCompile(`^poly_copy\(poly_dst=(\d+),poly_src=(\d+)\)$`), []string{"poly_dst", "poly_src"}},
	{KindPolyOp, regexp.MustCompile(`^poly_op\(op=(\w+),poly_dst=(\d+),poly_src=(\d+)\)$`), []string{"op", "poly_dst", "poly_src"}},
	{KindShiftPoly, regexp.MustCompile(`^shift_poly\(ring=x\^N([+\-])1,poly_dst=(\d+),poly_src=(\d+)\)$`), []string{"sign", "poly_dst", "poly_src"}},

	{KindEqCheck, regexp.MustCompile(`^flag=eq_check\(poly0=(\d+),poly1=(\d+)\)$`), []string{"poly0", "poly1"}},
	{KindInfNormCheck, regexp.MustCompile(`^flag=inf_norm_check\(poly=(\d+),bound=(\d+)\)$`), []string{"poly", "bound"}},

	{KindCompare, regexp.MustCompile(`^flag=compare\((c0|c1|reg|tmp),(\d+)\)$`), []string{"target", "val"}},
	{KindBranch, regexp.MustCompile(`^if\(flag([!=]=)([+\-]?)([01])\)goto(\w+)$`), []string{"cmp", "sign", "val", "label"}},
	{KindLabel, regexp.MustCompile(`^(\w+):$`), []string{"label"}},

	{KindSHA3Init, regexp.MustCompile(`^sha3_init$`), []string{}},
	{KindSHA3AbsorbPoly, regexp.MustCompile(`^sha3_(256|512)_absorb\(poly=(\d+)\)$`), []string{"mode", "poly"}},
	{KindSHA3AbsorbReg, regexp.MustCompile(`^sha3_(256|512)_absorb\(r(\d)\)$`), []string{"mode", "reg"}},
	{KindSHA3Digest256, regexp.MustCompile(`^r(\d)=sha3_256_digest$`), []string{"reg"}},
	{KindSHA3Digest512, regexp.MustCompile(`^r0\|\|r1=sha3_512_digest$`), []string{}},

	{KindEnd, regexp.MustCompile(`^end$`), []string{}},
	{KindNop, regexp.MustCompile(`^nop$`), []string{}},

	{KindRandomReg, regexp.MustCompile(`^random\(r(\d)\)$`), []string{"reg"}},
	{KindRandomPoly, regexp.MustCompile(`^random\(poly=(\d+),encoding=(\w+),"([^"]*)"\)$`), []string{"poly", "encoding", "path"}},
	{KindLoad, regexp.MustCompile(`^load\(poly=(\d+),"([^"]*)"\)$`), []string{"poly", "path"}},
	{KindSave, regexp.MustCompile(`^save\(poly=(\d+),"([^"]*)"\)$`), []string{"poly", "path"}},
	{KindPrint, regexp.MustCompile(`^print\(poly=(\d+)\)$`), []string{"poly"}},
	{KindEncodePrint, regexp.MustCompile(`^encode_print\(poly=(\d+),encoding=(\w+)\)$`), []string{"poly", "encoding"}},
	{KindEncodeCompare, regexp.MustCompile(`^encode_compare\("([^"]*)","([^"]*)",encoding=(\w+)\)$`), []string{"lhs", "rhs", "encoding"}},
}

// samplerPatterns handles the seven samplers' long form (prng/seed/c0/c1
// spelled out) and short form (reusing the current r/c0/c1), each with a
// distinct parameter list, so they are matched separately from the fixed
// table above; ParseLine tries them after every entry of that table.
var samplerPatterns = []struct {
	name   string
	re     *regexp.Regexp
	fields []string
}{
	{"rej", regexp.MustCompile(`^rej_sample\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "poly"}},
	{"rej_short", regexp.MustCompile(`^rej_sample\(prng=SHAKE-(128|256),poly=(\d+)\)$`),
		[]string{"mode", "poly"}},

	{"bin", regexp.MustCompile(`^bin_sample\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),k=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "k", "poly"}},
	{"bin_short", regexp.MustCompile(`^bin_sample\(prng=SHAKE-(128|256),k=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "k", "poly"}},

	{"cdt", regexp.MustCompile(`^cdt_sample\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),r=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "r", "poly"}},
	{"cdt_short", regexp.MustCompile(`^cdt_sample\(prng=SHAKE-(128|256),r=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "r", "poly"}},

	{"uni", regexp.MustCompile(`^uni_sample\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),eta=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "eta", "poly"}},
	{"uni_short", regexp.MustCompile(`^uni_sample\(prng=SHAKE-(128|256),eta=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "eta", "poly"}},

	{"tri_1", regexp.MustCompile(`^tri_sample_1\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),m=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "m", "poly"}},
	{"tri_1_short", regexp.MustCompile(`^tri_sample_1\(prng=SHAKE-(128|256),m=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "m", "poly"}},

	{"tri_2", regexp.MustCompile(`^tri_sample_2\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),m0=(\d+),m1=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "m0", "m1", "poly"}},
	{"tri_2_short", regexp.MustCompile(`^tri_sample_2\(prng=SHAKE-(128|256),m0=(\d+),m1=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "m0", "m1", "poly"}},

	{"tri_3", regexp.MustCompile(`^tri_sample_3\(prng=SHAKE-(128|256),seed=r(\d),c0=(\d+),c1=(\d+),rho=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "seedreg", "c0", "c1", "rho", "poly"}},
	{"tri_3_short", regexp.MustCompile(`^tri_sample_3\(prng=SHAKE-(128|256),rho=(\d+),poly=(\d+)\)$`),
		[]string{"mode", "rho", "poly"}},
}

// ParseLine decodes a single preprocessed source line (comments stripped,
// whitespace trimmed) into an Instruction, or returns a decode error naming
// the line number and verbatim text.
func ParseLine(lineNo int, raw string) (Instruction, error) {
	text := strings.ReplaceAll(raw, " ", "")

	for _, m := range matchers {
		if groups := m.re.FindStringSubmatch(text); groups != nil {
			return build(m.kind, lineNo, raw, m.fields, groups[1:]), nil
		}
	}

	for _, sp := range samplerPatterns {
		if groups := sp.re.FindStringSubmatch(text); groups != nil {
			args := build(KindSample, lineNo, raw, sp.fields, groups[1:]).Args
			args["sampler"] = samplerFamily(sp.name)
			args["short_form"] = boolStr(strings.HasSuffix(sp.name, "_short"))
			return Instruction{Kind: KindSample, Line: lineNo, Raw: raw, Args: args}, nil
		}
	}

	return Instruction{}, fmt.Errorf("line %d: unrecognized instruction %q", lineNo, raw)
}

func samplerFamily(name string) string {
	return strings.TrimSuffix(name, "_short")
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func build(kind Kind, lineNo int, raw string, fields []string, groups []string) Instruction {
	args := make(map[string]string, len(fields))
	for i, f := range fields {
		if i < len(groups) {
			args[f] = groups[i]
		}
	}
	return Instruction{Kind: kind, Line: lineNo, Raw: raw, Args: args}
}
