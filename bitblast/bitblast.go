// Package bitblast lowers the word-level bitvector graph into a
// boolean AND/XOR/NOT/INPUT/CONST gate graph (§4.6), grounded on
// other_examples/go-air-gini__aiger.go's T{Inputs, Outputs, Bad,
// Constraints []z.Lit} shape for a bit-level graph with a first-class
// Bad literal list, reimplemented locally over this module's own
// hash-consing rather than depending on gini's incremental-CNF engine.
package bitblast

import "hash/fnv"

// Lit identifies one boolean gate within a Graph. The zero value is
// never valid; index 0 is reserved the same way unicorn.Id reserves
// it.
type Lit int

// GateKind tags the variant a gate holds; exported so downstream
// consumers (qubo, quantum) can dispatch on it without reaching into
// Graph internals.
type GateKind int

const (
	GConst GateKind = iota
	GInput
	GNot
	GAnd
	GXor
)

type gate struct {
	kind  GateKind
	a, b  Lit
	value bool
	nid   uint64
}

// Len returns the number of allocated gates, including the unused
// index-0 sentinel.
func (g *Graph) Len() int { return len(g.gates) }

// Kind returns l's gate kind.
func (g *Graph) Kind(l Lit) GateKind { return g.gates[l].kind }

// Operands returns l's operand literals; meaningful only for GNot (a),
// GAnd and GXor (a, b).
func (g *Graph) Operands(l Lit) (Lit, Lit) { return g.gates[l].a, g.gates[l].b }

// ConstValue returns l's boolean value; meaningful only for GConst.
func (g *Graph) ConstValue(l Lit) bool { return g.gates[l].value }

// Nid returns l's stable allocation-order identifier.
func (g *Graph) Nid(l Lit) uint64 { return g.gates[l].nid }

// Graph is the hash-consed boolean gate graph. Only AND, XOR, NOT,
// INPUT and CONST are first-class gate kinds, per spec §4.6; OR is
// synthesized as Xor(Xor(a,b), And(a,b)) rather than given its own
// gate kind.
type Graph struct {
	gates   []gate
	buckets map[uint64][]Lit
	nids    uint64
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{gates: make([]gate, 1, 1024), buckets: make(map[uint64][]Lit, 1024)}
}

func (g *Graph) nextNid() uint64 {
	g.nids++
	return g.nids
}

func hashGate(gt *gate) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	put(uint64(gt.kind))
	put(uint64(gt.a))
	put(uint64(gt.b))
	if gt.value {
		put(1)
	} else {
		put(0)
	}
	return h.Sum64()
}

func gateEqual(x, y *gate) bool {
	return x.kind == y.kind && x.a == y.a && x.b == y.b && x.value == y.value
}

func (g *Graph) intern(gt gate) Lit {
	h := hashGate(&gt)
	for _, l := range g.buckets[h] {
		if gateEqual(&g.gates[l], &gt) {
			return l
		}
	}
	gt.nid = g.nextNid()
	g.gates = append(g.gates, gt)
	l := Lit(len(g.gates) - 1)
	g.buckets[h] = append(g.buckets[h], l)
	return l
}

// Const returns the (hash-consed, shared) literal for a boolean constant.
func (g *Graph) Const(v bool) Lit {
	return g.intern(gate{kind: GConst, value: v})
}

// Input returns a fresh input literal; inputs are never shared with
// each other even if requested twice, the same way unicorn.MkInput
// always allocates fresh.
func (g *Graph) Input() Lit {
	gt := gate{kind: GInput}
	gt.nid = g.nextNid()
	g.gates = append(g.gates, gt)
	return Lit(len(g.gates) - 1)
}

// Not returns NOT x, with double-negation elimination and constant
// folding.
func (g *Graph) Not(x Lit) Lit {
	gt := &g.gates[x]
	if gt.kind == GConst {
		return g.Const(!gt.value)
	}
	if gt.kind == GNot {
		return gt.a
	}
	return g.intern(gate{kind: GNot, a: x})
}

// And returns x AND y, with identity/absorbing-element rewrites.
func (g *Graph) And(x, y Lit) Lit {
	if x == y {
		return x
	}
	gx, gy := &g.gates[x], &g.gates[y]
	if gx.kind == GConst {
		if !gx.value {
			return g.Const(false)
		}
		return y
	}
	if gy.kind == GConst {
		if !gy.value {
			return g.Const(false)
		}
		return x
	}
	if x > y {
		x, y = y, x
	}
	return g.intern(gate{kind: GAnd, a: x, b: y})
}

// Xor returns x XOR y, with identity-element rewrites.
func (g *Graph) Xor(x, y Lit) Lit {
	if x == y {
		return g.Const(false)
	}
	gx, gy := &g.gates[x], &g.gates[y]
	if gx.kind == GConst {
		if gx.value {
			return g.Not(y)
		}
		return y
	}
	if gy.kind == GConst {
		if gy.value {
			return g.Not(x)
		}
		return x
	}
	if x > y {
		x, y = y, x
	}
	return g.intern(gate{kind: GXor, a: x, b: y})
}

// Or synthesizes x OR y from And/Xor/Not, since OR is not itself a
// gate kind: a|b = (a xor b) xor (a and b).
func (g *Graph) Or(x, y Lit) Lit {
	return g.Xor(g.Xor(x, y), g.And(x, y))
}

// Mux returns sel ? whenTrue : whenFalse, synthesized as
// whenFalse xor (sel and (whenTrue xor whenFalse)) — the standard
// AND/XOR-only multiplexer used by the shifters below in place of a
// first-class ITE gate.
func (g *Graph) Mux(sel, whenTrue, whenFalse Lit) Lit {
	return g.Xor(whenFalse, g.And(sel, g.Xor(whenTrue, whenFalse)))
}

// Bits is a little-endian (LSB first) vector of literals representing
// one bitvector-typed value.
type Bits []Lit

// ConstBits returns the w-bit little-endian constant encoding of value.
func (g *Graph) ConstBits(value uint64, w uint) Bits {
	out := make(Bits, w)
	for i := uint(0); i < w; i++ {
		out[i] = g.Const((value>>i)&1 == 1)
	}
	return out
}

// InputBits returns w fresh input literals.
func (g *Graph) InputBits(w uint) Bits {
	out := make(Bits, w)
	for i := range out {
		out[i] = g.Input()
	}
	return out
}

func (g *Graph) notBits(x Bits) Bits {
	out := make(Bits, len(x))
	for i, b := range x {
		out[i] = g.Not(b)
	}
	return out
}

func (g *Graph) bitwise(op func(a, b Lit) Lit, x, y Bits) Bits {
	out := make(Bits, len(x))
	for i := range x {
		out[i] = op(x[i], y[i])
	}
	return out
}

func (g *Graph) AndBits(x, y Bits) Bits { return g.bitwise(g.And, x, y) }
func (g *Graph) OrBits(x, y Bits) Bits  { return g.bitwise(g.Or, x, y) }
func (g *Graph) XorBits(x, y Bits) Bits { return g.bitwise(g.Xor, x, y) }

// AddWithCarry ripple-carry adds x and y with carry-in cin, returning
// the sum bits and the final carry-out.
func (g *Graph) AddWithCarry(x, y Bits, cin Lit) (Bits, Lit) {
	sum := make(Bits, len(x))
	carry := cin
	for i := range x {
		axorb := g.Xor(x[i], y[i])
		sum[i] = g.Xor(axorb, carry)
		carry = g.Or(g.And(x[i], y[i]), g.And(axorb, carry))
	}
	return sum, carry
}

// Add returns x + y (mod 2^w), ripple-carry, per §4.6.
func (g *Graph) Add(x, y Bits) Bits {
	sum, _ := g.AddWithCarry(x, y, g.Const(false))
	return sum
}

// Neg returns two's-complement negation: ~x + 1.
func (g *Graph) Neg(x Bits) Bits {
	one := g.ConstBits(1, uint(len(x)))
	sum, _ := g.AddWithCarry(g.notBits(x), one, g.Const(false))
	return sum
}

// Sub returns x - y = x + (~y + 1), via a ripple-carry adder with
// carry-in forced to 1 and y inverted (standard two's-complement
// subtractor).
func (g *Graph) Sub(x, y Bits) Bits {
	sum, _ := g.AddWithCarry(x, g.notBits(y), g.Const(true))
	return sum
}

// Mul returns x * y (mod 2^w) via shift-and-add, per §4.6: accumulate
// x shifted left by i, masked in by y's bit i, for every bit position.
func (g *Graph) Mul(x, y Bits) Bits {
	w := len(x)
	acc := g.ConstBits(0, uint(w))
	for i := 0; i < w; i++ {
		shifted := g.shiftLeftConst(x, i)
		masked := make(Bits, w)
		for j := 0; j < w; j++ {
			masked[j] = g.And(shifted[j], y[i])
		}
		acc = g.Add(acc, masked)
	}
	return acc
}

// shiftLeftConst shifts x left by a known-at-construction-time amount,
// filling vacated low bits with constant 0 and truncating at width w.
func (g *Graph) shiftLeftConst(x Bits, amount int) Bits {
	w := len(x)
	out := make(Bits, w)
	zero := g.Const(false)
	for i := 0; i < w; i++ {
		if i < amount {
			out[i] = zero
		} else {
			out[i] = x[i-amount]
		}
	}
	return out
}

// selectorStages returns ceil(log2(w)), the number of low shift-amount
// bits used as barrel-shifter selector stages, matching shiftMask's
// convention in node.go (the amount is taken modulo w, so only that
// many stages are needed).
func selectorStages(w int) int {
	stages := 0
	for (1 << stages) < w {
		stages++
	}
	return stages
}

// barrelShiftLeft builds a log-depth mux network shifting x left by the
// value encoded in amount (a selector bit per power-of-two stage),
// filling vacated bits with zero.
func (g *Graph) barrelShiftLeft(x Bits, amount Bits) Bits {
	w := len(x)
	cur := x
	stages := selectorStages(w)
	for s := 0; s < stages && s < len(amount); s++ {
		shiftBy := 1 << s
		shifted := g.shiftLeftConst(cur, shiftBy)
		next := make(Bits, w)
		for i := 0; i < w; i++ {
			next[i] = g.Mux(amount[s], shifted[i], cur[i])
		}
		cur = next
	}
	return cur
}

// barrelShiftRight is barrelShiftLeft's mirror; signExtendFill, when
// true, fills vacated high bits with x's original sign bit (SRA)
// instead of zero (SRL).
func (g *Graph) barrelShiftRight(x Bits, amount Bits, signExtendFill bool) Bits {
	w := len(x)
	fill := g.Const(false)
	if signExtendFill {
		fill = x[w-1]
	}
	cur := x
	stages := selectorStages(w)
	for s := 0; s < stages && s < len(amount); s++ {
		shiftBy := 1 << s
		shifted := make(Bits, w)
		for i := 0; i < w; i++ {
			if i+shiftBy < w {
				shifted[i] = cur[i+shiftBy]
			} else {
				shifted[i] = fill
			}
		}
		next := make(Bits, w)
		for i := 0; i < w; i++ {
			next[i] = g.Mux(amount[s], shifted[i], cur[i])
		}
		cur = next
	}
	return cur
}

// Shl, Lshr, Ashr bit-blast the three shift ops using the barrel
// shifters above; amount is the already width-matched shift-amount
// operand's bit vector (node.go's shiftOp has already masked it to the
// architectural shift range before this is reached).
func (g *Graph) Shl(x, amount Bits) Bits  { return g.barrelShiftLeft(x, amount) }
func (g *Graph) Lshr(x, amount Bits) Bits { return g.barrelShiftRight(x, amount, false) }
func (g *Graph) Ashr(x, amount Bits) Bits { return g.barrelShiftRight(x, amount, true) }

// ult returns a single literal: x < y unsigned, via the adder's
// borrow: x < y iff x - y borrows, i.e. iff Sub's implicit carry-out is
// 0 — equivalently, NOT the carry-out of Add(x, not(y)) with cin=1.
func (g *Graph) Ult(x, y Bits) Lit {
	_, carry := g.AddWithCarry(x, g.notBits(y), g.Const(true))
	return g.Not(carry)
}

// Ulte returns x <= y unsigned as NOT(y < x).
func (g *Graph) Ulte(x, y Bits) Lit { return g.Not(g.Ult(y, x)) }

// Eq returns a single literal: all bit positions equal.
func (g *Graph) Eq(x, y Bits) Lit {
	acc := g.Const(true)
	for i := range x {
		acc = g.And(acc, g.Not(g.Xor(x[i], y[i])))
	}
	return acc
}

// Slt returns x < y signed: flip the sign bits and compare unsigned
// (standard two's-complement-to-unsigned-order trick).
func (g *Graph) Slt(x, y Bits) Lit {
	fx, fy := flipSign(g, x), flipSign(g, y)
	return g.Ult(fx, fy)
}

// Slte returns x <= y signed as NOT(y < x) using the same flip.
func (g *Graph) Slte(x, y Bits) Lit { return g.Not(g.Slt(y, x)) }

func flipSign(g *Graph, x Bits) Bits {
	w := len(x)
	out := make(Bits, w)
	copy(out, x)
	out[w-1] = g.Not(x[w-1])
	return out
}

// UdivRem performs restoring division, returning (quotient, remainder)
// per §4.6; division/remainder by zero follow the same RISC-V
// convention as node.go's binaryConst (quotient all-ones, remainder =
// dividend) via a mux on the all-bits-zero divisor case.
func (g *Graph) UdivRem(x, y Bits) (Bits, Bits) {
	w := len(x)
	quotient := make(Bits, w)
	remainder := g.ConstBits(0, uint(w))
	for i := w - 1; i >= 0; i-- {
		remainder = g.shiftLeftConst(remainder, 1)
		remainder[0] = x[i]
		ge := g.Not(g.Ult(remainder, y))
		sub := g.Sub(remainder, y)
		for j := 0; j < w; j++ {
			remainder[j] = g.Mux(ge, sub[j], remainder[j])
		}
		quotient[i] = ge
	}
	yIsZero := g.Const(true)
	for _, b := range y {
		yIsZero = g.And(yIsZero, g.Not(b))
	}
	allOnes := g.ConstBits(^uint64(0), uint(w))
	for i := 0; i < w; i++ {
		quotient[i] = g.Mux(yIsZero, allOnes[i], quotient[i])
		remainder[i] = g.Mux(yIsZero, x[i], remainder[i])
	}
	return quotient, remainder
}

// SdivSrem performs signed division/remainder by flipping to unsigned
// magnitudes, dividing, then restoring sign per standard two's-
// complement division; x/-1 overflow (MinInt/-1) is left as the
// truncated wraparound result the adder naturally produces, consistent
// with node.go's binaryConst special case for that combination at the
// word-level (the bit-blasted circuit reaches the same bit pattern
// through the unsigned path without needing a separate special case,
// since MinInt negated is itself in two's complement arithmetic).
func (g *Graph) SdivSrem(x, y Bits) (Bits, Bits) {
	xNeg, yNeg := x[len(x)-1], y[len(y)-1]
	ax, ay := g.absBits(x, xNeg), g.absBits(y, yNeg)
	uq, ur := g.UdivRem(ax, ay)

	// y == 0: quotient is all-ones regardless of x's sign (node.go's
	// binaryConst KindSdiv convention), so the sign flip below must not
	// fire on xNeg alone in that case.
	yIsZero := g.Const(true)
	for _, b := range y {
		yIsZero = g.And(yIsZero, g.Not(b))
	}
	qNeg := g.And(g.Xor(xNeg, yNeg), g.Not(yIsZero))

	q := g.negIf(uq, qNeg)
	r := g.negIf(ur, xNeg)
	return q, r
}

func (g *Graph) absBits(x Bits, neg Lit) Bits {
	negated := g.Neg(x)
	w := len(x)
	out := make(Bits, w)
	for i := 0; i < w; i++ {
		out[i] = g.Mux(neg, negated[i], x[i])
	}
	return out
}

func (g *Graph) negIf(x Bits, cond Lit) Bits {
	negated := g.Neg(x)
	w := len(x)
	out := make(Bits, w)
	for i := 0; i < w; i++ {
		out[i] = g.Mux(cond, negated[i], x[i])
	}
	return out
}

// ZeroExt zero-extends x from its current width to w.
func (g *Graph) ZeroExt(x Bits, w uint) Bits {
	out := make(Bits, w)
	copy(out, x)
	zero := g.Const(false)
	for i := len(x); i < int(w); i++ {
		out[i] = zero
	}
	return out
}

// SignExt sign-extends x from its current width to w.
func (g *Graph) SignExt(x Bits, w uint) Bits {
	out := make(Bits, w)
	copy(out, x)
	sign := x[len(x)-1]
	for i := len(x); i < int(w); i++ {
		out[i] = sign
	}
	return out
}

// Slice extracts bits [lo, hi] inclusive.
func Slice(x Bits, hi, lo uint) Bits {
	out := make(Bits, hi-lo+1)
	copy(out, x[lo:hi+1])
	return out
}

// MuxBits selects whenTrue or whenFalse bitwise, per sel.
func (g *Graph) MuxBits(sel Lit, whenTrue, whenFalse Bits) Bits {
	out := make(Bits, len(whenTrue))
	for i := range whenTrue {
		out[i] = g.Mux(sel, whenTrue[i], whenFalse[i])
	}
	return out
}
