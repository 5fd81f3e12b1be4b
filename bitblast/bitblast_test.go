package bitblast

import "testing"

// evalLit concretely evaluates a literal given bindings for every GInput
// literal encountered, memoizing into memo. It walks the graph using only
// the exported accessors (Kind/Operands/ConstValue) the way a downstream
// consumer outside this package would.
func evalLit(g *Graph, l Lit, inputs map[Lit]bool, memo map[Lit]bool) bool {
	if v, ok := memo[l]; ok {
		return v
	}
	var v bool
	switch g.Kind(l) {
	case GConst:
		v = g.ConstValue(l)
	case GInput:
		v = inputs[l]
	case GNot:
		a, _ := g.Operands(l)
		v = !evalLit(g, a, inputs, memo)
	case GAnd:
		a, b := g.Operands(l)
		v = evalLit(g, a, inputs, memo) && evalLit(g, b, inputs, memo)
	case GXor:
		a, b := g.Operands(l)
		v = evalLit(g, a, inputs, memo) != evalLit(g, b, inputs, memo)
	}
	memo[l] = v
	return v
}

func evalBits(g *Graph, bits Bits, inputs map[Lit]bool) uint64 {
	memo := map[Lit]bool{}
	var v uint64
	for i, l := range bits {
		if evalLit(g, l, inputs, memo) {
			v |= 1 << uint(i)
		}
	}
	return v
}

func TestAndOrXorNotTruthTable(t *testing.T) {
	g := NewGraph()
	tr, fa := g.Const(true), g.Const(false)

	cases := []struct {
		name string
		got  bool
		want bool
	}{
		{"true&&false", evalLit(g, g.And(tr, fa), nil, map[Lit]bool{}), false},
		{"true&&true", evalLit(g, g.And(tr, tr), nil, map[Lit]bool{}), true},
		{"true||false", evalLit(g, g.Or(tr, fa), nil, map[Lit]bool{}), true},
		{"false||false", evalLit(g, g.Or(fa, fa), nil, map[Lit]bool{}), false},
		{"true^^true", evalLit(g, g.Xor(tr, tr), nil, map[Lit]bool{}), false},
		{"!true", evalLit(g, g.Not(tr), nil, map[Lit]bool{}), false},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestDoubleNegationEliminatedStructurally(t *testing.T) {
	g := NewGraph()
	x := g.Input()
	if got := g.Not(g.Not(x)); got != x {
		t.Errorf("Not(Not(x)) = %v, want %v (x itself)", got, x)
	}
}

func TestAndSelfIdentity(t *testing.T) {
	g := NewGraph()
	x := g.Input()
	if got := g.And(x, x); got != x {
		t.Errorf("And(x, x) = %v, want %v", got, x)
	}
}

func TestAddMatchesConcreteArithmetic(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(5, 8)
	y := g.ConstBits(7, 8)
	sum := g.Add(x, y)
	if got := evalBits(g, sum, nil); got != 12 {
		t.Errorf("Add(5,7) = %d, want 12", got)
	}
}

func TestSubMatchesConcreteArithmetic(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(3, 8)
	y := g.ConstBits(10, 8)
	diff := g.Sub(x, y)
	three, ten := 3, 10
	want := uint64(byte(three - ten))
	if got := evalBits(g, diff, nil); got != want {
		t.Errorf("Sub(3,10) = %d, want %d", got, want)
	}
}

func TestMulMatchesConcreteArithmetic(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(6, 8)
	y := g.ConstBits(7, 8)
	prod := g.Mul(x, y)
	if got := evalBits(g, prod, nil); got != 42 {
		t.Errorf("Mul(6,7) = %d, want 42", got)
	}
}

func TestUltMatchesUnsignedComparison(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(3, 8)
	y := g.ConstBits(10, 8)
	if got := evalLit(g, g.Ult(x, y), nil, map[Lit]bool{}); !got {
		t.Error("Ult(3,10) = false, want true")
	}
	if got := evalLit(g, g.Ult(y, x), nil, map[Lit]bool{}); got {
		t.Error("Ult(10,3) = true, want false")
	}
}

func TestEqMatchesBitwiseEquality(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(9, 8)
	y := g.ConstBits(9, 8)
	z := g.ConstBits(10, 8)
	if got := evalLit(g, g.Eq(x, y), nil, map[Lit]bool{}); !got {
		t.Error("Eq(9,9) = false, want true")
	}
	if got := evalLit(g, g.Eq(x, z), nil, map[Lit]bool{}); got {
		t.Error("Eq(9,10) = true, want false")
	}
}

func TestUdivRemByZeroFollowsAllOnesConvention(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(5, 8)
	zero := g.ConstBits(0, 8)
	q, r := g.UdivRem(x, zero)
	if got := evalBits(g, q, nil); got != 0xff {
		t.Errorf("Udiv(5,0) = %#x, want 0xff", got)
	}
	if got := evalBits(g, r, nil); got != 5 {
		t.Errorf("Urem(5,0) = %d, want 5 (dividend)", got)
	}
}

func TestSdivSremSignedDivision(t *testing.T) {
	g := NewGraph()
	// -8 / 3 = -2 remainder -2, two's complement 8-bit: -8 = 0xf8, 3 = 0x03
	negEight := int8(-8)
	x := g.ConstBits(uint64(negEight)&0xff, 8)
	y := g.ConstBits(3, 8)
	q, r := g.SdivSrem(x, y)
	if got := int8(evalBits(g, q, nil)); got != -2 {
		t.Errorf("Sdiv(-8,3) = %d, want -2", got)
	}
	if got := int8(evalBits(g, r, nil)); got != -2 {
		t.Errorf("Srem(-8,3) = %d, want -2", got)
	}
}

func TestSdivSremByZeroFollowsAllOnesConventionRegardlessOfDividendSign(t *testing.T) {
	g := NewGraph()
	// -3 / 0: quotient must be all-ones (-1) the same as a positive
	// dividend would give, not the dividend's own sign.
	negThree := int8(-3)
	x := g.ConstBits(uint64(negThree)&0xff, 8)
	zero := g.ConstBits(0, 8)
	q, r := g.SdivSrem(x, zero)
	if got := evalBits(g, q, nil); got != 0xff {
		t.Errorf("Sdiv(-3,0) = %#x, want 0xff", got)
	}
	if got := int8(evalBits(g, r, nil)); got != -3 {
		t.Errorf("Srem(-3,0) = %d, want -3 (dividend)", got)
	}
}

func TestShlBarrelShifter(t *testing.T) {
	g := NewGraph()
	x := g.ConstBits(1, 8)
	amount := g.ConstBits(3, 8)
	shifted := g.Shl(x, amount)
	if got := evalBits(g, shifted, nil); got != 8 {
		t.Errorf("Shl(1,3) = %d, want 8", got)
	}
}

func TestAshrSignExtendsFill(t *testing.T) {
	g := NewGraph()
	negEight := int8(-8)
	x := g.ConstBits(uint64(negEight)&0xff, 8) // 0xf8
	amount := g.ConstBits(1, 8)
	shifted := g.Ashr(x, amount)
	if got := int8(evalBits(g, shifted, nil)); got != -4 {
		t.Errorf("Ashr(-8,1) = %d, want -4", got)
	}
}

func TestZeroExtAndSignExt(t *testing.T) {
	g := NewGraph()
	negOne := int8(-1)
	neg1 := g.ConstBits(uint64(negOne)&0xff, 8)

	ze := g.ZeroExt(neg1, 16)
	if got := evalBits(g, ze, nil); got != 0x00ff {
		t.Errorf("ZeroExt(0xff, 16) = %#x, want 0xff", got)
	}

	se := g.SignExt(neg1, 16)
	if got := evalBits(g, se, nil); got != 0xffff {
		t.Errorf("SignExt(0xff, 16) = %#x, want 0xffff", got)
	}
}

func TestInputLiteralsAreNeverShared(t *testing.T) {
	g := NewGraph()
	a := g.Input()
	b := g.Input()
	if a == b {
		t.Error("two independent Input() calls returned the same literal")
	}
}
