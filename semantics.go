package unicorn

// translate dispatches a decoded instruction to its symbolic semantics,
// generalizing modeler.rs's translate_to_model/model_* functions
// (model_addi, model_lui, model_ld, model_sd, model_add, model_sub,
// model_remu, model_beq, model_jal, model_ecall) from the subset the
// original Unicorn project implemented to the full set spec.md requires.
func (b *Builder) translate(in Instr) {
	switch in.Op {
	case OpLui:
		b.setReg(in.Rd, in.Addr, b.a.MkConst(Width64, uint64(in.Imm)))
		b.fallthrough_(in.Addr)
	case OpAuipc:
		val := b.a.MkAdd(b.a.MkConst(Width64, in.Addr), b.a.MkConst(Width64, uint64(in.Imm)))
		b.setReg(in.Rd, in.Addr, val)
		b.fallthrough_(in.Addr)
	case OpJal:
		b.setReg(in.Rd, in.Addr, b.a.MkConst(Width64, in.Addr+4))
		target := uint64(int64(in.Addr) + in.Imm)
		b.addEdgeFrom(in.Addr, target, b.a.MkConst(1, 1))
	case OpJalr:
		rawTarget := b.a.MkAdd(b.reg(in.Rs1), b.a.MkConst(Width64, uint64(in.Imm)))
		target := b.a.MkAnd(rawTarget, b.a.MkConst(Width64, ^uint64(1)))
		b.setReg(in.Rd, in.Addr, b.a.MkConst(Width64, in.Addr+4))
		b.routeDynamic(in.Addr, target)
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu:
		b.translateBranch(in)
	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu, OpLwu:
		b.translateLoad(in)
	case OpSb, OpSh, OpSw, OpSd:
		b.translateStore(in)
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi, OpSlli, OpSrli, OpSrai:
		b.translateAluImm(in)
	case OpAdd, OpSub, OpSll, OpSlt, OpSltu, OpXor, OpSrl, OpSra, OpOr, OpAnd,
		OpMul, OpDiv, OpDivu, OpRem, OpRemu:
		b.translateAluReg(in)
	case OpAddiw, OpSlliw, OpSrliw, OpSraiw:
		b.translateAluImmW(in)
	case OpAddw, OpSubw, OpSllw, OpSrlw, OpSraw,
		OpMulw, OpDivw, OpDivuw, OpRemw, OpRemuw:
		b.translateAluRegW(in)
	case OpEcall:
		b.translateEcall(in)
	}
}

func (b *Builder) translateBranch(in Instr) {
	lhs, rhs := b.reg(in.Rs1), b.reg(in.Rs2)
	var taken Id
	switch in.Op {
	case OpBeq:
		taken = b.a.MkEq(lhs, rhs)
	case OpBne:
		taken = b.a.MkNot(b.a.MkEq(lhs, rhs))
	case OpBlt:
		taken = b.a.MkSlt(lhs, rhs)
	case OpBge:
		taken = b.a.MkNot(b.a.MkSlt(lhs, rhs))
	case OpBltu:
		taken = b.a.MkUlt(lhs, rhs)
	case OpBgeu:
		taken = b.a.MkNot(b.a.MkUlt(lhs, rhs))
	}
	target := uint64(int64(in.Addr) + in.Imm)
	b.addEdgeFrom(in.Addr, target, taken)
	b.addEdgeFrom(in.Addr, in.Addr+4, b.a.MkNot(taken))
}

func (b *Builder) address(in Instr) Id {
	return b.a.MkAdd(b.reg(in.Rs1), b.a.MkConst(Width64, uint64(in.Imm)))
}

func (b *Builder) translateLoad(in Instr) {
	addr := b.address(in)
	var width uint
	signed := false
	switch in.Op {
	case OpLb:
		width, signed = Width8, true
	case OpLh:
		width, signed = Width16, true
	case OpLw:
		width, signed = Width32, true
	case OpLd:
		width = Width64
	case OpLbu:
		width = Width8
	case OpLhu:
		width = Width16
	case OpLwu:
		width = Width32
	}
	val := b.a.ReadWord(b.memory, addr, width)
	if width < Width64 {
		kind := ZeroExt
		if signed {
			kind = SignExt
		}
		val = b.a.MkExt(kind, val, Width64)
	}
	b.setReg(in.Rd, in.Addr, val)
	b.fallthrough_(in.Addr)
}

func (b *Builder) translateStore(in Instr) {
	addr := b.address(in)
	val := b.reg(in.Rs2)
	var width uint
	switch in.Op {
	case OpSb:
		width = Width8
	case OpSh:
		width = Width16
	case OpSw:
		width = Width32
	case OpSd:
		width = Width64
	}
	if width < Width64 {
		val = b.a.MkSlice(val, width-1, 0)
	}
	newMem := b.a.WriteWord(b.memory, addr, val)
	b.setMem(in.Addr, newMem)

	// bad: a store landing at or beyond the current program break writes
	// into unmapped heap space.
	oob := b.a.MkUlte(b.brk, addr)
	b.orBad(&b.brkBadAcc, in.Addr, oob)

	b.fallthrough_(in.Addr)
}

func aluBinary(a *Arena, op Op, x, y Id) Id {
	switch op {
	case OpAddi, OpAdd:
		return a.MkAdd(x, y)
	case OpSub:
		return a.MkSub(x, y)
	case OpSlti, OpSlt:
		return a.MkExt(ZeroExt, a.MkSlt(x, y), Width64)
	case OpSltiu, OpSltu:
		return a.MkExt(ZeroExt, a.MkUlt(x, y), Width64)
	case OpXori, OpXor:
		return a.MkXor(x, y)
	case OpOri, OpOr:
		return a.MkOr(x, y)
	case OpAndi, OpAnd:
		return a.MkAnd(x, y)
	case OpSlli, OpSll:
		return a.MkSll(x, y)
	case OpSrli, OpSrl:
		return a.MkSrl(x, y)
	case OpSrai, OpSra:
		return a.MkSra(x, y)
	case OpMul:
		return a.MkMul(x, y)
	case OpDiv:
		return a.MkSdiv(x, y)
	case OpDivu:
		return a.MkUdiv(x, y)
	case OpRem:
		return a.MkSrem(x, y)
	case OpRemu:
		return a.MkUrem(x, y)
	}
	assert(false, "aluBinary: unhandled op %d", op)
	return 0
}

func (b *Builder) translateAluImm(in Instr) {
	imm := b.a.MkConst(Width64, uint64(in.Imm))
	val := aluBinary(b.a, in.Op, b.reg(in.Rs1), imm)
	b.recordDivZero(in, in.Op, b.reg(in.Rs1), imm)
	b.setReg(in.Rd, in.Addr, val)
	b.fallthrough_(in.Addr)
}

func (b *Builder) translateAluReg(in Instr) {
	x, y := b.reg(in.Rs1), b.reg(in.Rs2)
	val := aluBinary(b.a, in.Op, x, y)
	b.recordDivZero(in, in.Op, x, y)
	b.setReg(in.Rd, in.Addr, val)
	b.fallthrough_(in.Addr)
}

// recordDivZero accumulates the division/remainder-by-zero bad condition
// (optional per opts.FlagDivZeroBad), gated on the current pc flag, for
// both the rv64i/rv64m and the *w word-op variants.
func (b *Builder) recordDivZero(in Instr, op Op, x, y Id) {
	isDiv := op == OpDiv || op == OpDivu || op == OpDivw || op == OpDivuw
	isRem := op == OpRem || op == OpRemu || op == OpRemw || op == OpRemuw
	if !isDiv && !isRem {
		return
	}
	width := b.a.Width(y)
	isZero := b.a.MkEq(y, b.a.MkConst(width, 0))
	if isDiv {
		b.orBad(&b.divZeroAcc, in.Addr, isZero)
	} else {
		b.orBad(&b.remZeroAcc, in.Addr, isZero)
	}
}

func wordOpOf(op Op) Op {
	switch op {
	case OpAddiw:
		return OpAddi
	case OpSlliw:
		return OpSlli
	case OpSrliw:
		return OpSrli
	case OpSraiw:
		return OpSrai
	case OpAddw:
		return OpAdd
	case OpSubw:
		return OpSub
	case OpSllw:
		return OpSll
	case OpSrlw:
		return OpSrl
	case OpSraw:
		return OpSra
	case OpMulw:
		return OpMul
	case OpDivw:
		return OpDiv
	case OpDivuw:
		return OpDivu
	case OpRemw:
		return OpRem
	case OpRemuw:
		return OpRemu
	}
	assert(false, "wordOpOf: unhandled op %d", op)
	return 0
}

// narrow32 computes op over the low 32 bits of x and y (or x and a 5-bit
// immediate for shifts), then sign-extends the 32-bit result to 64, per
// spec §4.2's "Word ops... compute in 32 bits, then sign-extend to 64".
func (b *Builder) narrow32(op Op, x32, y32 Id) Id {
	val32 := aluBinary(b.a, op, x32, y32)
	return b.a.MkExt(SignExt, val32, Width64)
}

func (b *Builder) translateAluImmW(in Instr) {
	x32 := b.a.MkSlice(b.reg(in.Rs1), Width32-1, 0)
	shiftAmt := uint64(in.Imm) & 0x1f
	y32 := b.a.MkConst(Width32, shiftAmt)
	if in.Op == OpAddiw {
		y32 = b.a.MkConst(Width32, uint64(in.Imm))
	}
	val := b.narrow32(wordOpOf(in.Op), x32, y32)
	b.setReg(in.Rd, in.Addr, val)
	b.fallthrough_(in.Addr)
}

func (b *Builder) translateAluRegW(in Instr) {
	x32 := b.a.MkSlice(b.reg(in.Rs1), Width32-1, 0)
	y32 := b.a.MkSlice(b.reg(in.Rs2), Width32-1, 0)
	op := wordOpOf(in.Op)
	b.recordDivZero(in, in.Op, x32, y32)
	val := b.narrow32(op, x32, y32)
	b.setReg(in.Rd, in.Addr, val)
	b.fallthrough_(in.Addr)
}
