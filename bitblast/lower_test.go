package bitblast

import (
	"testing"

	unicorn "github.com/cksystemsgroup/unicorn-go"
)

func bindBits(inputs map[Lit]bool, bits Bits, value uint64) {
	for i, l := range bits {
		inputs[l] = (value>>uint(i))&1 == 1
	}
}

// checkLowering builds node under a, evaluates it word-level for every
// (x,y) pair in cases, then lowers it and checks the bit-blasted graph
// agrees for the same concrete inputs — the semantic-preservation
// property bit-blasting must satisfy.
func checkLowering(t *testing.T, width uint, build func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id, cases [][2]uint64) {
	t.Helper()
	a := unicorn.NewArena()
	x := a.MkInput(width)
	y := a.MkInput(width)
	node := build(a, x, y)

	l := NewLowerer(a)
	bits := l.Lower(node)
	xBits := l.Inputs[a.Node(x).Nid]
	yBits := l.Inputs[a.Node(y).Nid]

	for _, c := range cases {
		e := unicorn.NewEvaluator(a)
		e.Bind(x, c[0])
		e.Bind(y, c[1])
		want := e.Eval(node)

		inputs := map[Lit]bool{}
		bindBits(inputs, xBits, c[0])
		bindBits(inputs, yBits, c[1])
		got := evalBits(l.Graph(), bits, inputs)

		if got != want {
			t.Errorf("%v: bit-blasted = %#x, word-level = %#x", c, got, want)
		}
	}
}

func TestLowerAddMatchesWordLevel(t *testing.T) {
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkAdd(x, y) },
		[][2]uint64{{5, 7}, {255, 1}, {0, 0}, {200, 200}})
}

func TestLowerAndOrXorNotMatchWordLevel(t *testing.T) {
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkAnd(x, y) },
		[][2]uint64{{0xf0, 0x3c}, {0xff, 0x00}})
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkOr(x, y) },
		[][2]uint64{{0xf0, 0x0f}, {0x00, 0x00}})
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkXor(x, y) },
		[][2]uint64{{0xff, 0x0f}, {0xaa, 0xaa}})
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkNot(x) },
		[][2]uint64{{0x00, 0}, {0xff, 0}, {0x0f, 0}})
}

func TestLowerUltAndEqMatchWordLevel(t *testing.T) {
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkUlt(x, y) },
		[][2]uint64{{3, 10}, {10, 3}, {5, 5}})
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkEq(x, y) },
		[][2]uint64{{9, 9}, {9, 10}})
}

func TestLowerMulAndDivMatchWordLevel(t *testing.T) {
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkMul(x, y) },
		[][2]uint64{{6, 7}, {16, 16}})
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkUdiv(x, y) },
		[][2]uint64{{20, 3}, {5, 0}})
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkSdiv(x, y) },
		[][2]uint64{{0xf8, 3}, {0xfd, 0}}) // -8 / 3, -3 / 0
	checkLowering(t, 8, func(a *unicorn.Arena, x, y unicorn.Id) unicorn.Id { return a.MkSrem(x, y) },
		[][2]uint64{{0xf8, 3}, {0xfd, 0}}) // -8 % 3, -3 % 0
}

func TestLowerIteMatchesWordLevel(t *testing.T) {
	a := unicorn.NewArena()
	cond := a.MkInput(1)
	x := a.MkInput(8)
	y := a.MkInput(8)
	node := a.MkIte(cond, x, y)

	l := NewLowerer(a)
	bits := l.Lower(node)
	condBits := l.Inputs[a.Node(cond).Nid]
	xBits := l.Inputs[a.Node(x).Nid]
	yBits := l.Inputs[a.Node(y).Nid]

	for _, c := range []uint64{0, 1} {
		e := unicorn.NewEvaluator(a)
		e.Bind(cond, c)
		e.Bind(x, 11)
		e.Bind(y, 22)
		want := e.Eval(node)

		inputs := map[Lit]bool{}
		bindBits(inputs, condBits, c)
		bindBits(inputs, xBits, 11)
		bindBits(inputs, yBits, 22)
		got := evalBits(l.Graph(), bits, inputs)

		if got != want {
			t.Errorf("Ite(cond=%d): bit-blasted = %d, word-level = %d", c, got, want)
		}
	}
}

func TestLowerMemoizesSharedSubexpressions(t *testing.T) {
	a := unicorn.NewArena()
	x := a.MkInput(8)
	shared := a.MkAdd(x, a.MkConst(8, 1))
	node := a.MkAdd(shared, shared)

	l := NewLowerer(a)
	first := l.Lower(shared)
	l.Lower(node)
	second := l.Lower(shared)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Lower(shared) returned different bits across calls at index %d", i)
		}
	}
}
