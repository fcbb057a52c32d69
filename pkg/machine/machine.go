// Package machine implements the core's architectural state and the
// single dispatch switch that executes one decoded isa.Instruction at a
// time, replacing original_source/sim.py's module-level globals
// (proc_regs, poly_mem, poly_tmp, ticks, power, pc) with one owning struct,
// grounded on pkg/cpu/exec.go's Exec(s *State, op inst.OpCode, imm uint16)
// switch shape.
package machine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sapphirecore/coresim/pkg/encode"
	"github.com/sapphirecore/coresim/pkg/field"
	"github.com/sapphirecore/coresim/pkg/hash3"
	"github.com/sapphirecore/coresim/pkg/isa"
	"github.com/sapphirecore/coresim/pkg/power"
	"github.com/sapphirecore/coresim/pkg/report"
	"github.com/sapphirecore/coresim/pkg/sampler"
)

// Fault is a runtime error raised by the machine, carrying enough context
// to reproduce it: the faulting instruction's source line and text, and
// which rule it violated.
type Fault struct {
	Line int
	Raw  string
	Rule string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("line %d: %q: %s", f.Line, f.Raw, f.Rule)
}

// Machine holds all architectural state for one simulator run.
type Machine struct {
	N int
	Q int64

	bank [][]int64 // len(bank) == 8192/N polynomial slots, each of length N

	r0, r1   [32]byte
	c0, c1   uint16
	reg, tmp int64 // 24-bit scratch registers
	flag     int8  // ternary {-1,0,+1}
	pc       int

	hash *hash3.Buffer
	rec  *power.Recorder
	rng  *rand.Rand

	cdt []int64 // discrete-Gaussian table, loaded once, used by cdt_sample

	FreeRW bool // --free_rw: poly read/write instructions are not charged

	instructions []isa.Instruction
	labels       map[string]int
}

const scratchMask = (1 << 24) - 1

// New creates a Machine configured for n coefficients mod q, with cycle/
// power accounting wired to rec and a deterministic clobber/noise source
// seeded by seed.
func New(n int, q int64, rec *power.Recorder, seed uint64, cdt []int64) (*Machine, error) {
	if !field.IsValidN(n) {
		return nil, fmt.Errorf("unsupported n=%d", n)
	}
	if !field.IsValidQ(q) {
		return nil, fmt.Errorf("unsupported q=%d", q)
	}
	slots := 8192 / n
	bank := make([][]int64, slots)
	for i := range bank {
		bank[i] = make([]int64, n)
	}
	return &Machine{
		N:    n,
		Q:    q,
		bank: bank,
		hash: &hash3.Buffer{},
		rec:  rec,
		rng:  rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)),
		cdt:  cdt,
	}, nil
}

// Load installs the program to run, plus its resolved label table.
func (m *Machine) Load(instructions []isa.Instruction, labels map[string]int) {
	m.instructions = instructions
	m.labels = labels
	m.pc = 0
}

func (m *Machine) totalSlots() int { return len(m.bank) }

func (m *Machine) lowSlots() int { return m.totalSlots() / 2 }

// checkPartition enforces the straddle rule for two-operand polynomial
// instructions (transform, poly_op ADD/SUB/MUL, shift_poly, eq_check): one operand must
// be in the low half of the bank (index < total/2), the other in the high
// half.
func (m *Machine) checkPartition(line int, raw string, a, b int) error {
	if a < 0 || a >= m.totalSlots() || b < 0 || b >= m.totalSlots() {
		return &Fault{line, raw, fmt.Sprintf("polynomial index out of range [0,%d)", m.totalSlots())}
	}
	aLow := a < m.lowSlots()
	bLow := b < m.lowSlots()
	if aLow == bLow {
		return &Fault{line, raw, "operands must straddle the low/high bank partition"}
	}
	return nil
}

func (m *Machine) checkIndex(line int, raw string, idx int) error {
	if idx < 0 || idx >= m.totalSlots() {
		return &Fault{line, raw, fmt.Sprintf("polynomial index out of range [0,%d)", m.totalSlots())}
	}
	return nil
}

func (m *Machine) clobber(idx int) {
	poly := m.bank[idx]
	for i := range poly {
		poly[i] = m.rng.Int64N(m.Q)
	}
}

func (m *Machine) charge(cat power.Category, cycles int64) error {
	return m.rec.Charge(cat, m.Q, cycles)
}

// Step executes the single instruction at pc and advances pc, unless the
// instruction branched. Returns false once an `end` instruction has run.
func (m *Machine) Step() (bool, error) {
	if m.pc < 0 || m.pc >= len(m.instructions) {
		return false, fmt.Errorf("program counter %d out of range", m.pc)
	}
	inst := m.instructions[m.pc]
	next := m.pc + 1
	cont := true

	var err error
	switch inst.Kind {
	case isa.KindConfig:
		err = m.charge(power.CategoryCtrl, 2+1+1)

	case isa.KindCounterSet:
		err = m.execCounterSet(inst)
	case isa.KindCounterAddSub:
		err = m.execCounterAddSub(inst)

	case isa.KindRegSet:
		err = m.execRegSet(inst)
	case isa.KindTmpSet:
		err = m.execTmpSet(inst)
	case isa.KindRegFromTmp:
		m.reg = m.tmp
		err = m.charge(power.CategoryRegALU, 2+1+1)
	case isa.KindTmpALU:
		err = m.execTmpALU(inst)

	case isa.KindPolyReadImm, isa.KindPolyReadCounter:
		err = m.execPolyRead(inst)
	case isa.KindPolyWriteImm, isa.KindPolyWriteCounter:
		err = m.execPolyWrite(inst)

	case isa.KindRegMax:
		err = m.execRegReduce(inst, true)
	case isa.KindRegSum:
		err = m.execRegReduce(inst, false)

	case isa.KindTransform:
		err = m.execTransform(inst)
	case isa.KindMultPsi:
		err = m.execTwist(inst, true)
	case isa.KindMultPsiInv:
		err = m.execTwist(inst, false)

	case isa.KindSample:
		err = m.execSample(inst)

	case isa.KindInit:
		err = m.execInit(inst)
	case isa.KindPolyCopy:
		err = m.execPolyCopy(inst)
	case isa.KindPolyOp:
		err = m.execPolyOp(inst)
	case isa.KindShiftPoly:
		err = m.execShiftPoly(inst)

	case isa.KindEqCheck:
		err = m.execEqCheck(inst)
	case isa.KindInfNormCheck:
		err = m.execInfNormCheck(inst)
	case isa.KindCompare:
		err = m.execCompare(inst)

	case isa.KindBranch:
		var taken bool
		taken, err = m.evalBranch(inst)
		if err == nil && taken {
			target, ok := m.labels[inst.Str("label")]
			if !ok {
				err = &Fault{inst.Line, inst.Raw, "undefined branch target"}
			} else {
				next = target
			}
		}

	case isa.KindSHA3Init:
		m.hash.Reset()
		err = m.charge(power.CategorySHA3, 2+1+25)
	case isa.KindSHA3AbsorbPoly:
		err = m.execSHA3AbsorbPoly(inst)
	case isa.KindSHA3AbsorbReg:
		err = m.execSHA3AbsorbReg(inst)
	case isa.KindSHA3Digest256:
		err = m.execSHA3Digest256(inst)
	case isa.KindSHA3Digest512:
		err = m.execSHA3Digest512(inst)

	case isa.KindEnd:
		cont = false
		err = m.charge(power.CategoryCtrl, 2+1)

	case isa.KindNop:
		err = m.charge(power.CategoryCtrl, 2+1)

	case isa.KindRandomReg:
		err = m.execRandomReg(inst)
	case isa.KindRandomPoly:
		err = m.execRandomPoly(inst)
	case isa.KindLoad:
		err = m.execLoad(inst)
	case isa.KindSave:
		err = m.execSave(inst)
	case isa.KindPrint, isa.KindEncodePrint, isa.KindEncodeCompare:
		// Debug-only instructions: decoded and accepted, but they produce no
		// output, change no architectural state and are not charged.

	default:
		err = &Fault{inst.Line, inst.Raw, "unimplemented instruction kind"}
	}

	if err != nil {
		return false, err
	}
	m.pc = next
	return cont, nil
}

// Run executes the loaded program to completion (an `end` instruction or a
// fault).
func (m *Machine) Run() error {
	for {
		cont, err := m.Step()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

func (m *Machine) execCounterSet(inst isa.Instruction) error {
	idx, err := inst.Int("idx")
	if err != nil {
		return err
	}
	val, err := inst.Int("val")
	if err != nil {
		return err
	}
	if err := m.setCounter(idx, uint16(val)); err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	return m.charge(power.CategoryRegALU, 2+1+1)
}

func (m *Machine) execCounterAddSub(inst isa.Instruction) error {
	dst, err := inst.Int("dst")
	if err != nil {
		return err
	}
	src, err := inst.Int("src")
	if err != nil {
		return err
	}
	val, err := inst.Int("val")
	if err != nil {
		return err
	}
	cur, err := m.getCounter(src)
	if err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	var result int
	if inst.Str("op") == "+" {
		result = int(cur) + val
	} else {
		result = int(cur) - val
	}
	if err := m.setCounter(dst, uint16(result)); err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	return m.charge(power.CategoryRegALU, 2+1+1)
}

func (m *Machine) getCounter(idx int) (uint16, error) {
	switch idx {
	case 0:
		return m.c0, nil
	case 1:
		return m.c1, nil
	}
	return 0, fmt.Errorf("invalid counter index %d", idx)
}

func (m *Machine) setCounter(idx int, v uint16) error {
	switch idx {
	case 0:
		m.c0 = v
	case 1:
		m.c1 = v
	default:
		return fmt.Errorf("invalid counter index %d", idx)
	}
	return nil
}

func (m *Machine) execRegSet(inst isa.Instruction) error {
	v, err := inst.Int64("val")
	if err != nil {
		return err
	}
	m.reg = v & scratchMask
	return m.charge(power.CategoryRegALU, 2+1+1)
}

func (m *Machine) execTmpSet(inst isa.Instruction) error {
	v, err := inst.Int64("val")
	if err != nil {
		return err
	}
	m.tmp = v & scratchMask
	return m.charge(power.CategoryRegALU, 2+1+1)
}

func (m *Machine) execTmpALU(inst isa.Instruction) error {
	op := inst.Str("op")
	var result int64
	switch op {
	case "+":
		result = m.tmp + m.reg
	case "-":
		result = m.tmp - m.reg
	case "*":
		result = m.tmp * m.reg
	case "&":
		result = m.tmp & m.reg
	case "|":
		result = m.tmp | m.reg
	case "^":
		result = m.tmp ^ m.reg
	case "<<":
		result = m.tmp << uint(m.reg&63)
	case ">>":
		result = m.tmp >> uint(m.reg&63)
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported ALU op %q", op)}
	}
	m.tmp = result & scratchMask
	return m.charge(power.CategoryRegALU, 2+1+1)
}

func (m *Machine) resolveElementIndex(inst isa.Instruction) (int, error) {
	if _, ok := inst.Args["index"]; ok {
		return inst.Int("index")
	}
	c, err := inst.Int("cidx")
	if err != nil {
		return 0, err
	}
	v, err := m.getCounter(c)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (m *Machine) execPolyRead(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	idx, err := m.resolveElementIndex(inst)
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	if idx < 0 || idx >= m.N {
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("element index out of range [0,%d)", m.N)}
	}
	m.reg = m.bank[poly][idx]
	if m.FreeRW {
		return nil
	}
	return m.charge(power.CategoryPolyReadWrite, 2+1+2)
}

func (m *Machine) execPolyWrite(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	idx, err := m.resolveElementIndex(inst)
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	if idx < 0 || idx >= m.N {
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("element index out of range [0,%d)", m.N)}
	}
	m.bank[poly][idx] = field.Reduce(m.reg, m.Q)
	if m.FreeRW {
		return nil
	}
	return m.charge(power.CategoryPolyReadWrite, 2+1+1)
}

func (m *Machine) execRegReduce(inst isa.Instruction, max bool) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	var result int64
	if max {
		result = math.MinInt64
		for _, c := range m.bank[poly] {
			v := field.Centered(c, m.Q)
			if v > result {
				result = v
			}
		}
	} else {
		for _, c := range m.bank[poly] {
			result += field.Centered(c, m.Q)
		}
		if result < 0 {
			result = -result
		}
	}
	m.reg = result & scratchMask
	if max {
		return m.charge(power.CategoryPolyMaxElems, 2+1+1+int64(m.N))
	}
	return m.charge(power.CategoryPolySumElems, 2+1+1+int64(m.N))
}

func (m *Machine) execTransform(inst isa.Instruction) error {
	dst, err := inst.Int("poly_dst")
	if err != nil {
		return err
	}
	src, err := inst.Int("poly_src")
	if err != nil {
		return err
	}
	if err := m.checkPartition(inst.Line, inst.Raw, dst, src); err != nil {
		return err
	}
	mode := inst.Str("mode")
	poly := append([]int64(nil), m.bank[src]...)
	switch mode {
	case "DIF_NTT":
		err = field.DifNTT(poly, m.Q)
	case "DIT_NTT":
		err = field.DitNTT(poly, m.Q)
	case "DIF_INTT":
		err = field.DifINTT(poly, m.Q)
	case "DIT_INTT":
		err = field.DitINTT(poly, m.Q)
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported transform mode %q", mode)}
	}
	if err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	m.bank[dst] = poly
	m.clobber(src)
	return m.charge(power.CategoryPolyNTT, field.NTTCycles(m.N))
}

func (m *Machine) execTwist(inst isa.Instruction, forward bool) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	if forward {
		err = field.MultPsi(m.bank[poly], m.Q)
	} else {
		err = field.MultPsiInv(m.bank[poly], m.Q)
	}
	if err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	return m.charge(power.CategoryPolyMultPsi, field.TwistCycles(m.N))
}

func (m *Machine) buildSeed(inst isa.Instruction) ([]byte, int, error) {
	mode, err := inst.Int("mode")
	if err != nil {
		return nil, 0, err
	}
	r := m.r0
	if seedreg, ok := inst.Args["seedreg"]; ok {
		switch seedreg {
		case "0":
			r = m.r0
		case "1":
			r = m.r1
		}
		c0s, _ := inst.Int("c0")
		c1s, _ := inst.Int("c1")
		m.c0, m.c1 = uint16(c0s), uint16(c1s)
	}
	seed := sampler.BuildSeed(r, m.c0, m.c1)
	return seed[:], mode, nil
}

func (m *Machine) execSample(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	seed, mode, err := m.buildSeed(inst)
	if err != nil {
		return err
	}
	// Every sampler starts from an all-zero slot; tri_1/tri_2 rely on it.
	for i := range m.bank[poly] {
		m.bank[poly][i] = 0
	}

	var cycles int64
	family := inst.Str("sampler")
	switch family {
	case "rej":
		cycles, err = sampler.Rejection(mode, m.Q, m.bank[poly], seed)
	case "uni":
		eta, e := inst.Int64("eta")
		if e != nil {
			return e
		}
		cycles, err = sampler.Uniform(mode, eta, m.bank[poly], seed)
	case "bin":
		k, e := inst.Int("k")
		if e != nil {
			return e
		}
		cycles, err = sampler.Binomial(mode, k, m.bank[poly], seed)
	case "cdt":
		r, e := inst.Int("r")
		if e != nil {
			return e
		}
		cycles, err = sampler.CDT(mode, r, m.cdt, m.bank[poly], seed)
	case "tri_1":
		mm, e := inst.Int("m")
		if e != nil {
			return e
		}
		cycles, err = sampler.Trinary1(mode, mm, m.bank[poly], seed)
	case "tri_2":
		m0, e := inst.Int("m0")
		if e != nil {
			return e
		}
		m1, e := inst.Int("m1")
		if e != nil {
			return e
		}
		cycles, err = sampler.Trinary2(mode, m0, m1, m.bank[poly], seed)
	case "tri_3":
		rho, e := inst.Int("rho")
		if e != nil {
			return e
		}
		cycles, err = sampler.Trinary3(mode, rho, m.bank[poly], seed)
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported sampler family %q", family)}
	}
	if err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	// Samplers emit signed values; the bank holds them reduced into [0,q).
	for i, c := range m.bank[poly] {
		m.bank[poly][i] = field.Reduce(c, m.Q)
	}

	cat := map[string]power.Category{
		"rej": power.CategorySampleRej, "uni": power.CategorySampleUni,
		"bin": power.CategorySampleBin, "cdt": power.CategorySampleCDT,
		"tri_1": power.CategorySampleTri1, "tri_2": power.CategorySampleTri2,
		"tri_3": power.CategorySampleTri3,
	}[family]
	return m.charge(cat, cycles)
}

func (m *Machine) execInit(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	for i := range m.bank[poly] {
		m.bank[poly][i] = 0
	}
	return m.charge(power.CategoryPolyInit, 2+1+1+int64(m.N/4))
}

func (m *Machine) execPolyCopy(inst isa.Instruction) error {
	dst, err := inst.Int("poly_dst")
	if err != nil {
		return err
	}
	src, err := inst.Int("poly_src")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, dst); err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, src); err != nil {
		return err
	}
	copy(m.bank[dst], m.bank[src])
	crossSide := (dst < m.lowSlots()) != (src < m.lowSlots())
	if crossSide {
		return m.charge(power.CategoryPolyCopy, 2+1+1+int64(m.N/4))
	}
	return m.charge(power.CategoryPolyCopy, 2+1+1+3*int64(m.N))
}

var supportedPolyOps = map[string]bool{
	"ADD": true, "SUB": true, "MUL": true, "BITREV": true,
	"CONST_ADD": true, "CONST_SUB": true, "CONST_MUL": true,
	"CONST_AND": true, "CONST_OR": true, "CONST_XOR": true,
	"CONST_RSHIFT": true, "CONST_LSHIFT": true,
}

func (m *Machine) execPolyOp(inst isa.Instruction) error {
	op := inst.Str("op")
	if !supportedPolyOps[op] {
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported poly_op %q", op)}
	}
	dst, err := inst.Int("poly_dst")
	if err != nil {
		return err
	}
	src, err := inst.Int("poly_src")
	if err != nil {
		return err
	}

	if op == "BITREV" {
		if err := m.checkIndex(inst.Line, inst.Raw, dst); err != nil {
			return err
		}
		if err := m.checkIndex(inst.Line, inst.Raw, src); err != nil {
			return err
		}
		poly := append([]int64(nil), m.bank[src]...)
		n := len(poly)
		j := 0
		for i := 1; i < n; i++ {
			b := n >> 1
			for j >= b {
				j -= b
				b >>= 1
			}
			j += b
			if j > i {
				poly[i], poly[j] = poly[j], poly[i]
			}
		}
		m.bank[dst] = poly
		return m.charge(power.CategoryPolyBitrev, 2+1+1+int64(m.N))
	}

	if op == "ADD" || op == "SUB" || op == "MUL" {
		if err := m.checkPartition(inst.Line, inst.Raw, dst, src); err != nil {
			return err
		}
		out := make([]int64, m.N)
		for i := 0; i < m.N; i++ {
			switch op {
			case "ADD":
				out[i] = field.AddMod(m.bank[dst][i], m.bank[src][i], m.Q)
			case "SUB":
				out[i] = field.SubMod(m.bank[src][i], m.bank[dst][i], m.Q)
			case "MUL":
				out[i] = field.MulMod(m.bank[dst][i], m.bank[src][i], m.Q)
			}
		}
		m.bank[dst] = out
		if op == "MUL" {
			return m.charge(power.CategoryPolyPolyMul, 2+1+1+int64(m.N))
		}
		return m.charge(power.CategoryPolyPolyAddSub, 2+1+1+int64(m.N))
	}

	// Const ops write poly_dst = poly_src <op> reg, coefficient-wise.
	if err := m.checkIndex(inst.Line, inst.Raw, dst); err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, src); err != nil {
		return err
	}
	poly := append([]int64(nil), m.bank[src]...)
	m.bank[dst] = poly
	switch op {
	case "CONST_ADD":
		for i := range poly {
			poly[i] = field.AddMod(poly[i], m.reg, m.Q)
		}
		return m.charge(power.CategoryPolyConstAddSub, 2+1+1+int64(m.N))
	case "CONST_SUB":
		for i := range poly {
			poly[i] = field.SubMod(poly[i], m.reg, m.Q)
		}
		return m.charge(power.CategoryPolyConstAddSub, 2+1+1+int64(m.N))
	case "CONST_MUL":
		for i := range poly {
			poly[i] = field.MulMod(poly[i], m.reg, m.Q)
		}
		return m.charge(power.CategoryPolyConstMul, 2+1+1+int64(m.N))
	case "CONST_AND":
		for i := range poly {
			poly[i] &= m.reg
		}
		return m.charge(power.CategoryPolyConstAnd, 2+1+1+int64(m.N))
	case "CONST_OR":
		for i := range poly {
			poly[i] |= m.reg
		}
		return m.charge(power.CategoryPolyConstOr, 2+1+1+int64(m.N))
	case "CONST_XOR":
		for i := range poly {
			poly[i] ^= m.reg
		}
		return m.charge(power.CategoryPolyConstXor, 2+1+1+int64(m.N))
	case "CONST_RSHIFT":
		for i := range poly {
			if m.reg >= 24 {
				poly[i] = 0
			} else {
				poly[i] = (poly[i] >> uint(m.reg)) & scratchMask
			}
		}
		return m.charge(power.CategoryPolyConstShift, 2+1+1+int64(m.N))
	case "CONST_LSHIFT":
		for i := range poly {
			if m.reg >= 24 {
				poly[i] = 0
			} else {
				poly[i] = (poly[i] << uint(m.reg)) & scratchMask
			}
		}
		return m.charge(power.CategoryPolyConstShift, 2+1+1+int64(m.N))
	}
	return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported poly_op %q", op)}
}

// execShiftPoly computes poly_dst = poly_src * x mod (x^N +- 1), reading
// from poly_src. original_source/sim.py's handler has a confirmed typo
// (poly_scr) at the two points that should read poly_src; this port reads
// poly_src consistently, per the evident intent.
func (m *Machine) execShiftPoly(inst isa.Instruction) error {
	dst, err := inst.Int("poly_dst")
	if err != nil {
		return err
	}
	src, err := inst.Int("poly_src")
	if err != nil {
		return err
	}
	if err := m.checkPartition(inst.Line, inst.Raw, dst, src); err != nil {
		return err
	}
	negacyclic := inst.Str("sign") == "+"
	poly := m.bank[src]
	out := make([]int64, m.N)
	wrapped := poly[m.N-1]
	if negacyclic {
		out[0] = field.SubMod(0, wrapped, m.Q)
	} else {
		out[0] = wrapped
	}
	copy(out[1:], poly[:m.N-1])
	m.bank[dst] = out
	return m.charge(power.CategoryPolyShift, 2+1+1+int64(m.N/4))
}

func (m *Machine) execEqCheck(inst isa.Instruction) error {
	p0, err := inst.Int("poly0")
	if err != nil {
		return err
	}
	p1, err := inst.Int("poly1")
	if err != nil {
		return err
	}
	if err := m.checkPartition(inst.Line, inst.Raw, p0, p1); err != nil {
		return err
	}
	eq := true
	for i := 0; i < m.N; i++ {
		if m.bank[p0][i] != m.bank[p1][i] {
			eq = false
			break
		}
	}
	if eq {
		m.flag = 1
	} else {
		m.flag = 0
	}
	return m.charge(power.CategoryPolyEqCheck, 2+1+2+int64(m.N))
}

func (m *Machine) execInfNormCheck(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	bound, err := inst.Int64("bound")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	within := true
	for _, c := range m.bank[poly] {
		v := field.Centered(c, m.Q)
		if v < 0 {
			v = -v
		}
		if v > bound {
			within = false
			break
		}
	}
	if within {
		m.flag = 1
	} else {
		m.flag = 0
	}
	return m.charge(power.CategoryPolyInfNormCheck, 2+1+2+int64(m.N))
}

// execCompare implements flag=compare(target,N). original_source/sim.py's
// compare(reg,N)/compare(tmp,N) handlers have a confirmed bug: the less-than
// and greater-than branches use `==` (a no-op comparison) instead of `=`
// (assignment), so only the equal branch actually sets flag. This port
// implements the evidently-intended three-way assignment (-1/0/+1) for all
// four compare targets.
func (m *Machine) execCompare(inst isa.Instruction) error {
	target := inst.Str("target")
	val, err := inst.Int64("val")
	if err != nil {
		return err
	}
	var cur int64
	switch target {
	case "c0":
		cur = int64(m.c0)
	case "c1":
		cur = int64(m.c1)
	case "reg":
		cur = m.reg
	case "tmp":
		cur = m.tmp
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported compare target %q", target)}
	}
	switch {
	case cur < val:
		m.flag = -1
	case cur > val:
		m.flag = 1
	default:
		m.flag = 0
	}
	return m.charge(power.CategoryRegALU, 2+1+1)
}

func (m *Machine) evalBranch(inst isa.Instruction) (bool, error) {
	cmp := inst.Str("cmp")
	sign := inst.Str("sign")
	valStr := inst.Str("val")
	val, err := parseSignedFlag(sign, valStr)
	if err != nil {
		return false, &Fault{inst.Line, inst.Raw, err.Error()}
	}
	if err := m.charge(power.CategoryCtrl, 2+1); err != nil {
		return false, err
	}
	switch cmp {
	case "==":
		return int8(val) == m.flag, nil
	case "!=":
		return int8(val) != m.flag, nil
	}
	return false, &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported branch comparator %q", cmp)}
}

func parseSignedFlag(sign, val string) (int, error) {
	n := 0
	if val != "" {
		n = int(val[0] - '0')
	}
	if sign == "-" {
		n = -n
	}
	return n, nil
}

func ceilDiv(numerator, denominator int64) int64 {
	return (numerator + denominator - 1) / denominator
}

func (m *Machine) execSHA3AbsorbPoly(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	m.hash.AbsorbPoly(m.bank[poly])
	n := int64(m.N)
	var rateBlocks int64
	switch inst.Str("mode") {
	case "512":
		rateBlocks = ceilDiv(n, int64(hash3.RateWords512)) * (9 + 25)
	default:
		rateBlocks = ceilDiv(n, int64(hash3.RateWords256)) * (17 + 25)
	}
	return m.charge(power.CategoryPolyHash, 2+1+1+n+rateBlocks)
}

func (m *Machine) execSHA3AbsorbReg(inst isa.Instruction) error {
	regSel := inst.Str("reg")
	var seed [32]byte
	switch regSel {
	case "0":
		seed = m.r0
	case "1":
		seed = m.r1
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported seed register r%s", regSel)}
	}
	m.hash.AbsorbSeed(seed)
	var rateBlock int64
	switch inst.Str("mode") {
	case "512":
		rateBlock = 9 + 25
	default:
		rateBlock = 17 + 25
	}
	return m.charge(power.CategorySHA3, 2+1+rateBlock)
}

func (m *Machine) execSHA3Digest256(inst isa.Instruction) error {
	out := m.hash.Digest256()
	regSel := inst.Str("reg")
	switch regSel {
	case "0":
		m.r0 = out
	case "1":
		m.r1 = out
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported destination register r%s", regSel)}
	}
	return m.charge(power.CategorySHA3, 2+1+(25+25+2))
}

func (m *Machine) execSHA3Digest512(inst isa.Instruction) error {
	out := m.hash.Digest512()
	high, low := hash3.SplitDigest512(out)
	m.r0 = high
	m.r1 = low
	return m.charge(power.CategorySHA3, 2+1+(25+25+3))
}

func (m *Machine) execRandomReg(inst isa.Instruction) error {
	regSel := inst.Str("reg")
	var buf [32]byte
	for i := range buf {
		buf[i] = byte(m.rng.IntN(256))
	}
	switch regSel {
	case "0":
		m.r0 = buf
	case "1":
		m.r1 = buf
	default:
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("unsupported register r%s", regSel)}
	}
	return nil
}

func (m *Machine) execRandomPoly(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	kind := encode.Kind(inst.Str("encoding"))
	coeffs, err := encode.RandomPoly(kind, m.N, m.Q, m.rng)
	if err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	m.bank[poly] = coeffs
	if path := inst.Str("path"); path != "" {
		if err := report.SavePoly(path, coeffs); err != nil {
			return &Fault{inst.Line, inst.Raw, err.Error()}
		}
	}
	return nil
}

func (m *Machine) execLoad(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	coeffs, err := report.LoadPoly(inst.Str("path"))
	if err != nil {
		return &Fault{inst.Line, inst.Raw, err.Error()}
	}
	if len(coeffs) != m.N {
		return &Fault{inst.Line, inst.Raw, fmt.Sprintf("loaded polynomial has %d coefficients, expected %d", len(coeffs), m.N)}
	}
	m.bank[poly] = coeffs
	return nil
}

func (m *Machine) execSave(inst isa.Instruction) error {
	poly, err := inst.Int("poly")
	if err != nil {
		return err
	}
	if err := m.checkIndex(inst.Line, inst.Raw, poly); err != nil {
		return err
	}
	return report.SavePoly(inst.Str("path"), m.bank[poly])
}

// Flag returns the current ternary comparison flag.
func (m *Machine) Flag() int8 { return m.flag }

// Reg returns the scratch register reg.
func (m *Machine) Reg() int64 { return m.reg }

// Tmp returns the scratch register tmp.
func (m *Machine) Tmp() int64 { return m.tmp }

// Poly returns a copy of the coefficients at bank slot idx.
func (m *Machine) Poly(idx int) []int64 {
	return append([]int64(nil), m.bank[idx]...)
}

// SetPoly overwrites bank slot idx (length must equal N).
func (m *Machine) SetPoly(idx int, coeffs []int64) error {
	if len(coeffs) != m.N {
		return fmt.Errorf("expected %d coefficients, got %d", m.N, len(coeffs))
	}
	copy(m.bank[idx], coeffs)
	return nil
}

// SetSeedReg sets r0 (reg==0) or r1 (reg==1) directly, bypassing the
// instruction stream.
func (m *Machine) SetSeedReg(reg int, v [32]byte) error {
	switch reg {
	case 0:
		m.r0 = v
	case 1:
		m.r1 = v
	default:
		return fmt.Errorf("invalid seed register %d", reg)
	}
	return nil
}
