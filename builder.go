package unicorn

import (
	"encoding/binary"
	"fmt"
	"time"
)

// SolverKind selects which external decision procedure the pruner (and,
// transitively, --solver) targets.
type SolverKind int

const (
	SolverNone SolverKind = iota
	SolverZ3
	SolverBoolector
)

// Options is the single configuration record threaded explicitly through
// Builder, Unroller, Pruner, Bit-Blaster and the synthesizers. There is no
// package-level global configuration (design note §9).
type Options struct {
	Depth          uint
	Solver         SolverKind
	Bitblast       bool
	PruneBudget    time.Duration
	FlagDivZeroBad bool
	Inputs         [][]uint64

	// MaxReadBytes bounds how many Input nodes a single read() ecall can
	// introduce; the actual count used is min(requested length, this
	// bound), selected with an Ite gated on the requested length so a
	// concrete requested length shorter than the bound behaves exactly
	// as if only that many inputs existed. Defaults to 8 when zero.
	// spec.md does not pin this (it only requires "one Input per
	// consumed byte"); a fixed per-model bound is required for the BVG
	// to remain a finite, statically-sized graph when the requested
	// length is itself symbolic.
	MaxReadBytes uint
}

// Segment is a loaded ELF program segment: Data is written at Addr in the
// initial memory image.
type Segment struct {
	Addr uint64
	Data []byte
}

// Syscall numbers for the five modeled system calls (selfie/monster
// convention, matching original_source's Unicorn project).
const (
	SyscallExit   = 93
	SyscallRead   = 63
	SyscallWrite  = 64
	SyscallOpenat = 1024
	SyscallBrk    = 214
)

// haltAddr is the sentinel "address" of the absorbing halted state; it
// can never collide with a real 4-byte-aligned instruction address since
// real addresses always have bit 0 clear along with bits 1 typically, but
// more importantly this value is not 4-byte aligned in the improbable
// case an ELF used the full address space, and is reserved purely as a
// map key, never dereferenced as memory.
const haltAddr = ^uint64(0)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Model is the completed output of the Model Builder: state nodes for
// every architectural register, PC flag, memory and brk, plus the
// declared Bad predicates, ready for the Unroller.
type Model struct {
	Arena     *Arena
	Registers [32]Id // Registers[0] is Const(0)
	PCFlags   map[uint64]Id
	HaltFlag  Id
	Memory    Id
	Brk       Id
	Fd        Id
	Bad       []Id
	Inputs    []Id // read-introduced Input nodes, in creation order
	EntryAddr uint64
	Program   map[uint64]Instr
	Order     []uint64 // instruction addresses in program order
}

type inEdge struct {
	from uint64
	cond Id // guard, not yet ANDed with pcFlags[from]
}

// Builder implements the per-PC transition-relation construction of §4.3,
// generalizing modeler.rs's ModelBuilder from the original Unicorn
// project: per static address a, each architectural state's next-value
// contribution is accumulated behind an Ite gated on pc_a, and the
// contributions across all a are implicitly OR-combined because exactly
// one pc_a is true at a time (the final Ite chain already encodes that).
type Builder struct {
	a    *Arena
	opts Options

	program map[uint64]Instr
	order   []uint64
	entry   uint64

	pcFlags   map[uint64]Id
	haltFlag  Id
	controlIn map[uint64][]inEdge

	registers [32]Id
	regAcc    [32]Id

	memory Id
	memAcc Id

	brk    Id
	brkAcc Id

	fd    Id
	fdAcc Id

	inputs []Id

	invalidAcc Id
	divZeroAcc Id
	remZeroAcc Id
	assertAcc  Id
	brkBadAcc  Id
}

// Build decodes every 4-byte-aligned word in code (located at codeBase) as
// an rv64im instruction, constructs the per-PC transition relation, and
// returns the finished word-level Model. segments seed the initial memory
// image (§4.3 "memory zero-initialized except for the ELF loaded
// segments").
func Build(a *Arena, entry uint64, code []byte, codeBase uint64, segments []Segment, opts Options) (*Model, error) {
	b := &Builder{a: a, opts: opts, entry: entry}
	b.program = make(map[uint64]Instr)
	for off := 0; off+4 <= len(code); off += 4 {
		addr := codeBase + uint64(off)
		raw := binary.LittleEndian.Uint32(code[off : off+4])
		in, err := Decode(addr, raw)
		if err != nil {
			return nil, fmt.Errorf("pc %#x: %w", addr, err)
		}
		b.program[addr] = in
		b.order = append(b.order, addr)
	}

	b.init(segments)
	for _, addr := range b.order {
		b.translate(b.program[addr])
	}
	b.wireControlFlow()
	b.wireDataFlow()
	return b.finish(), nil
}

func (b *Builder) init(segments []Segment) {
	a := b.a

	b.pcFlags = make(map[uint64]Id, len(b.order))
	for _, addr := range b.order {
		initVal := a.MkConst(1, 0)
		if addr == b.entry {
			initVal = a.MkConst(1, 1)
		}
		b.pcFlags[addr] = a.MkState(1, fmt.Sprintf("pc-%#x", addr), initVal)
	}
	b.haltFlag = a.MkState(1, "halt", a.MkConst(1, 0))
	b.controlIn = make(map[uint64][]inEdge)

	b.registers[0] = a.MkConst(Width64, 0)
	for r := 1; r < 32; r++ {
		b.registers[r] = a.MkState(Width64, regNames[r], a.MkConst(Width64, 0))
		b.regAcc[r] = b.registers[r]
	}

	memInit := a.MkArrayConst(Width64, Width8, 0)
	var brkStart uint64
	for _, seg := range segments {
		for i, v := range seg.Data {
			addr := seg.Addr + uint64(i)
			memInit = a.MkWrite(memInit, a.MkConst(Width64, addr), a.MkConst(Width8, uint64(v)))
		}
		if end := seg.Addr + uint64(len(seg.Data)); end > brkStart {
			brkStart = end
		}
	}
	b.memory = a.MkState(Width64, "memory", memInit)
	b.memAcc = b.memory

	b.brk = a.MkState(Width64, "brk", a.MkConst(Width64, brkStart))
	b.brkAcc = b.brk

	b.fd = a.MkState(Width64, "next-fd", a.MkConst(Width64, 3))
	b.fdAcc = b.fd

	b.invalidAcc = a.MkConst(1, 0)
	b.divZeroAcc = a.MkConst(1, 0)
	b.remZeroAcc = a.MkConst(1, 0)
	b.assertAcc = a.MkConst(1, 0)
	b.brkBadAcc = a.MkConst(1, 0)
}

func (b *Builder) reg(r uint32) Id {
	if r == 0 {
		return b.a.MkConst(Width64, 0)
	}
	return b.registers[r]
}

func (b *Builder) setReg(r uint32, addr uint64, val Id) {
	if r == 0 {
		return
	}
	b.regAcc[r] = b.a.MkIte(b.pcFlags[addr], val, b.regAcc[r])
}

func (b *Builder) setMem(addr uint64, val Id) {
	b.memAcc = b.a.MkIte(b.pcFlags[addr], val, b.memAcc)
}

func (b *Builder) setBrk(addr uint64, val Id) {
	b.brkAcc = b.a.MkIte(b.pcFlags[addr], val, b.brkAcc)
}

func (b *Builder) setFd(addr uint64, val Id) {
	b.fdAcc = b.a.MkIte(b.pcFlags[addr], val, b.fdAcc)
}

// addEdgeFrom records an in-edge into dst originating at from, guarded by
// cond (not yet ANDed with pcFlags[from] — that happens in
// wireControlFlow, once, per edge).
func (b *Builder) addEdgeFrom(from, dst uint64, cond Id) {
	b.controlIn[dst] = append(b.controlIn[dst], inEdge{from: from, cond: cond})
}

func (b *Builder) fallthrough_(addr uint64) {
	b.addEdgeFrom(addr, addr+4, b.a.MkConst(1, 1))
}

// orBad gates cond with pcFlags[at] and ORs the result into acc.
func (b *Builder) orBad(acc *Id, at uint64, cond Id) {
	gated := b.a.MkAnd(b.pcFlags[at], cond)
	*acc = b.a.MkOr(*acc, gated)
}

// routeDynamic wires an indirect jump's in-edges to every statically known
// destination, guarded by target equality, and accumulates the
// "landed nowhere known" bad condition (the "invalid instruction" bad
// state: control reached an address with no decoded instruction).
func (b *Builder) routeDynamic(from uint64, target Id) {
	matched := b.a.MkConst(1, 0)
	for _, dst := range b.order {
		eq := b.a.MkEq(target, b.a.MkConst(Width64, dst))
		b.addEdgeFrom(from, dst, eq)
		matched = b.a.MkOr(matched, eq)
	}
	b.orBad(&b.invalidAcc, from, b.a.MkNot(matched))
}

func (b *Builder) wireControlFlow() {
	a := b.a
	for _, addr := range b.order {
		next := a.MkConst(1, 0)
		for _, e := range b.controlIn[addr] {
			term := a.MkAnd(b.pcFlags[e.from], e.cond)
			next = a.MkOr(next, term)
		}
		a.BindNext(b.pcFlags[addr], next)
	}
	haltNext := b.haltFlag
	for _, e := range b.controlIn[haltAddr] {
		term := a.MkAnd(b.pcFlags[e.from], e.cond)
		haltNext = a.MkOr(haltNext, term)
	}
	a.BindNext(b.haltFlag, haltNext)
}

func (b *Builder) wireDataFlow() {
	a := b.a
	for r := 1; r < 32; r++ {
		a.BindNext(b.registers[r], b.regAcc[r])
	}
	a.BindNext(b.memory, b.memAcc)
	a.BindNext(b.brk, b.brkAcc)
	a.BindNext(b.fd, b.fdAcc)
}

func (b *Builder) finish() *Model {
	a := b.a
	bads := []Id{
		a.MkBad(b.invalidAcc, "invalid-instruction-or-syscall"),
		a.MkBad(b.assertAcc, "non-zero-exit-code"),
		a.MkBad(b.brkBadAcc, "write-outside-brk"),
	}
	if b.opts.FlagDivZeroBad {
		bads = append(bads,
			a.MkBad(b.divZeroAcc, "division-by-zero"),
			a.MkBad(b.remZeroAcc, "remainder-by-zero"),
		)
	}
	return &Model{
		Arena:     a,
		Registers: b.registers,
		PCFlags:   b.pcFlags,
		HaltFlag:  b.haltFlag,
		Memory:    b.memory,
		Brk:       b.brk,
		Fd:        b.fd,
		Bad:       bads,
		Inputs:    b.inputs,
		EntryAddr: b.entry,
		Program:   b.program,
		Order:     b.order,
	}
}
