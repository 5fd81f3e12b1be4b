package unicorn

// Memory models the byte-addressed machine memory as aw=64, dw=8 BVG
// arrays (spec §3). Composite multi-byte reads and writes are built from
// eight-bit Read/Write nodes the same way array.go's Select/Store compose
// ConcatExpr/ExtractExpr chains from individual byte accesses, except here
// bytes are folded together with shift+or (Sll/Or) rather than a dedicated
// concat node, since the bitvector graph exposes no Concat kind.

// NewMemory returns a fresh all-zero memory array.
func (a *Arena) NewMemory() Id {
	return a.MkArrayConst(Width64, Width8, 0)
}

// ReadWord reads a little-endian width-bit value (width a multiple of 8,
// 8 <= width <= 64) starting at addr from arr.
func (a *Arena) ReadWord(arr, addr Id, width uint) Id {
	assert(width >= 8 && width <= 64 && width%8 == 0, "read width %d not a byte multiple in [8,64]", width)
	nbytes := width / 8
	var result Id
	for i := uint(0); i < nbytes; i++ {
		byteAddr := addr
		if i > 0 {
			byteAddr = a.MkAdd(addr, a.MkConst(Width64, uint64(i)))
		}
		b := a.MkRead(arr, byteAddr)
		wide := a.MkExt(ZeroExt, b, width)
		if i > 0 {
			wide = a.MkSll(wide, a.MkConst(width, uint64(i*8)))
		}
		if i == 0 {
			result = wide
		} else {
			result = a.MkOr(result, wide)
		}
	}
	return result
}

// WriteWord writes val (whose width must be a multiple of 8) little-endian
// starting at addr into arr, returning the updated array.
func (a *Arena) WriteWord(arr, addr, val Id) Id {
	width := a.Width(val)
	assert(width >= 8 && width%8 == 0, "write value width %d not a byte multiple", width)
	nbytes := width / 8
	result := arr
	for i := uint(0); i < nbytes; i++ {
		byteAddr := addr
		if i > 0 {
			byteAddr = a.MkAdd(addr, a.MkConst(Width64, uint64(i)))
		}
		b := a.MkSlice(val, i*8+7, i*8)
		result = a.MkWrite(result, byteAddr, b)
	}
	return result
}
