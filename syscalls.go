package unicorn

// translateEcall dispatches the five modeled system calls on the value of
// a7, generalizing modeler.rs's model_ecall (which only sketches the
// dispatch) into the full semantics spec.md §4.2 requires.
func (b *Builder) translateEcall(in Instr) {
	a := b.a
	a7 := b.reg(17)

	isExit := a.MkEq(a7, a.MkConst(Width64, SyscallExit))
	isBrk := a.MkEq(a7, a.MkConst(Width64, SyscallBrk))
	isOpenat := a.MkEq(a7, a.MkConst(Width64, SyscallOpenat))
	isRead := a.MkEq(a7, a.MkConst(Width64, SyscallRead))
	isWrite := a.MkEq(a7, a.MkConst(Width64, SyscallWrite))
	known := a.MkOr(isExit, a.MkOr(isBrk, a.MkOr(isOpenat, a.MkOr(isRead, isWrite))))
	b.orBad(&b.invalidAcc, in.Addr, a.MkNot(known))

	a0 := b.reg(10)
	nonzeroExit := a.MkNot(a.MkEq(a0, a.MkConst(Width64, 0)))
	b.orBad(&b.assertAcc, in.Addr, a.MkAnd(isExit, nonzeroExit))

	// brk(addr): the requested address becomes the new break and is
	// echoed back in a0 (standard brk() return convention).
	newBrk := a.MkIte(isBrk, a0, b.brk)
	b.setBrk(in.Addr, newBrk)

	// openat: returns a fresh small descriptor and bumps the allocator.
	oldFd := b.fd
	newFd := a.MkIte(isOpenat, a.MkAdd(oldFd, a.MkConst(Width64, 1)), b.fd)
	b.setFd(in.Addr, newFd)

	// read(fd, buf, count): introduces up to MaxReadBytes fresh Input
	// bytes, written little-endian into memory starting at buf, gated
	// byte-by-byte on "this byte index is within the requested count" so
	// a concrete count shorter than the bound behaves as if only that
	// many inputs exist (§4.2, supplemented per SPEC_FULL §12).
	buf, count := b.reg(11), b.reg(12)
	bound := b.maxReadBytes()
	mem := b.memory
	var bytesRead Id
	for i := uint64(0); i < bound; i++ {
		inRange := a.MkUlt(a.MkConst(Width64, i), count)
		gate := a.MkAnd(isRead, inRange)
		input := a.MkInput(Width8)
		b.inputs = append(b.inputs, input)
		destAddr := a.MkAdd(buf, a.MkConst(Width64, i))
		oldByte := a.MkRead(mem, destAddr)
		newByte := a.MkIte(gate, input, oldByte)
		mem = a.MkWrite(mem, destAddr, newByte)
	}
	b.setMem(in.Addr, mem)

	boundConst := a.MkConst(Width64, bound)
	bytesRead = a.MkIte(a.MkUlt(count, boundConst), count, boundConst)

	// write(fd, buf, count): per spec §4.2/§9, observationally discarded
	// — it never contributes to Bad and its own return value is left
	// unspecified (a0 keeps its pre-call value), so no update is wired
	// here beyond participating in `known`.

	a0New := a0
	a0New = a.MkIte(isOpenat, oldFd, a0New)
	a0New = a.MkIte(isRead, bytesRead, a0New)
	b.setReg(10, in.Addr, a0New)

	b.addEdgeFrom(in.Addr, haltAddr, isExit)
	b.addEdgeFrom(in.Addr, in.Addr+4, a.MkNot(isExit))
}

func (b *Builder) maxReadBytes() uint64 {
	if b.opts.MaxReadBytes == 0 {
		return 8
	}
	return uint64(b.opts.MaxReadBytes)
}
