package bitblast

import unicorn "github.com/cksystemsgroup/unicorn-go"

// Lowerer walks a word-level unicorn.Arena graph and produces the
// equivalent boolean Graph, memoizing per unicorn.Id so a shared
// subexpression is lowered once, mirroring node.go's own hash-consing
// discipline one level down.
type Lowerer struct {
	g      *Graph
	a      *unicorn.Arena
	memo   map[unicorn.Id]Bits
	Inputs map[uint64]Bits // original Input node's Nid -> its lowered bits
}

// NewLowerer returns a Lowerer writing into a fresh Graph.
func NewLowerer(a *unicorn.Arena) *Lowerer {
	return &Lowerer{
		g:      NewGraph(),
		a:      a,
		memo:   map[unicorn.Id]Bits{},
		Inputs: map[uint64]Bits{},
	}
}

// Graph returns the boolean graph built so far.
func (l *Lowerer) Graph() *Graph { return l.g }

// Lower returns id's equivalent little-endian bit vector, building it
// (and memoizing every subexpression) on first reference.
func (l *Lowerer) Lower(id unicorn.Id) Bits {
	if b, ok := l.memo[id]; ok {
		return b
	}
	n := l.a.Node(id)
	var out Bits
	switch n.Kind {
	case unicorn.KindConst:
		out = l.g.ConstBits(n.Value, n.Width)
	case unicorn.KindInput:
		out = l.g.InputBits(n.Width)
		l.Inputs[n.Nid] = out
	case unicorn.KindBad:
		out = l.Lower(n.A)
	case unicorn.KindNot:
		out = l.g.notBits(l.Lower(n.A))
	case unicorn.KindNeg:
		out = l.g.Neg(l.Lower(n.A))
	case unicorn.KindExt:
		src := l.Lower(n.A)
		if n.Ext == unicorn.SignExt {
			out = l.g.SignExt(src, n.Width)
		} else {
			out = l.g.ZeroExt(src, n.Width)
		}
	case unicorn.KindSlice:
		out = Slice(l.Lower(n.A), n.Hi, n.Lo)
	case unicorn.KindAnd:
		out = l.g.AndBits(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindOr:
		out = l.g.OrBits(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindXor:
		out = l.g.XorBits(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindSll:
		out = l.g.Shl(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindSrl:
		out = l.g.Lshr(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindSra:
		out = l.g.Ashr(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindAdd:
		out = l.g.Add(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindSub:
		out = l.g.Sub(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindMul:
		out = l.g.Mul(l.Lower(n.A), l.Lower(n.B))
	case unicorn.KindUdiv:
		q, _ := l.g.UdivRem(l.Lower(n.A), l.Lower(n.B))
		out = q
	case unicorn.KindUrem:
		_, r := l.g.UdivRem(l.Lower(n.A), l.Lower(n.B))
		out = r
	case unicorn.KindSdiv:
		q, _ := l.g.SdivSrem(l.Lower(n.A), l.Lower(n.B))
		out = q
	case unicorn.KindSrem:
		_, r := l.g.SdivSrem(l.Lower(n.A), l.Lower(n.B))
		out = r
	case unicorn.KindEq:
		out = Bits{l.g.Eq(l.Lower(n.A), l.Lower(n.B))}
	case unicorn.KindUlt:
		out = Bits{l.g.Ult(l.Lower(n.A), l.Lower(n.B))}
	case unicorn.KindUlte:
		out = Bits{l.g.Ulte(l.Lower(n.A), l.Lower(n.B))}
	case unicorn.KindSlt:
		out = Bits{l.g.Slt(l.Lower(n.A), l.Lower(n.B))}
	case unicorn.KindSlte:
		out = Bits{l.g.Slte(l.Lower(n.A), l.Lower(n.B))}
	case unicorn.KindIte:
		cond := l.Lower(n.A)[0]
		out = l.g.MuxBits(cond, l.Lower(n.B), l.Lower(n.C))
	case unicorn.KindRead:
		idx := l.Lower(n.B)
		out = l.lowerArrayRead(n.A, idx, n.Width)
	default:
		panic("bitblast: cannot lower node kind as a scalar bit vector")
	}
	l.memo[id] = out
	return out
}

// lowerArrayRead walks arr's Write chain back to its ArrayConst base,
// building a bottom-up Mux chain so the most recent matching write
// wins — the "chain of ITEs indexed by equality of idx with each
// write's index" §4.6 specifies.
func (l *Lowerer) lowerArrayRead(arr unicorn.Id, idx Bits, elemWidth uint) Bits {
	n := l.a.Node(arr)
	if n.Kind == unicorn.KindArrayConst {
		return l.g.ConstBits(n.Value, elemWidth)
	}
	writeIdx := l.Lower(n.B)
	writeVal := l.Lower(n.C)
	rest := l.lowerArrayRead(n.A, idx, elemWidth)
	eq := l.g.Eq(idx, writeIdx)
	return l.g.MuxBits(eq, writeVal, rest)
}
