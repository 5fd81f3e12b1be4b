// Package btor2 serializes a word-level or bit-blasted graph into the
// BTOR2-equivalent text format §6 describes: one node per line,
// monotonically increasing nids, sorts declared before use.
package btor2

import (
	"bufio"
	"fmt"
	"io"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/bitblast"
)

// WriteWordLevel emits every node reachable from roots (typically an
// Unrolled.Objective together with its StepBad conditions), in
// topological order, using the conventional BTOR2 keyword for each
// unicorn.Kind. Only scalar and array kinds reachable after
// Unroll — State/Next never survive substitution — are expected;
// encountering one is a caller error.
func WriteWordLevel(w io.Writer, a *unicorn.Arena, roots []unicorn.Id) error {
	bw := bufio.NewWriter(w)
	nl := newNidLine()

	sorts := map[uint]uint64{} // bitvector width -> sort nid
	arraySorts := map[[2]uint]uint64{}
	bvSort := func(width uint) uint64 {
		if nid, ok := sorts[width]; ok {
			return nid
		}
		nid := nl.next()
		fmt.Fprintf(bw, "%d sort bitvec %d\n", nid, width)
		sorts[width] = nid
		return nid
	}
	arrSort := func(aw, dw uint) uint64 {
		key := [2]uint{aw, dw}
		if nid, ok := arraySorts[key]; ok {
			return nid
		}
		asort := bvSort(aw)
		dsort := bvSort(dw)
		nid := nl.next()
		fmt.Fprintf(bw, "%d sort array %d %d\n", nid, asort, dsort)
		arraySorts[key] = nid
		return nid
	}

	emitted := map[unicorn.Id]uint64{}
	var order []unicorn.Id
	seen := map[unicorn.Id]bool{}
	var visit func(unicorn.Id)
	visit = func(id unicorn.Id) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := a.Node(id)
		for _, op := range wordOperands(n) {
			visit(op)
		}
		order = append(order, id)
	}
	for _, r := range roots {
		visit(r)
	}

	for _, id := range order {
		n := a.Node(id)
		// Declare this node's sort before taking its own nid, so every
		// emitted line's nid is one more than the line before it.
		switch n.Kind {
		case unicorn.KindArrayConst, unicorn.KindWrite:
			arrSort(n.Width, n.ArrayWidth)
		case unicorn.KindBad:
		default:
			bvSort(n.Width)
			if isBoolResult[n.Kind] {
				bvSort(1)
			}
		}
		nid := nl.next()
		emitted[id] = nid
		switch n.Kind {
		case unicorn.KindConst:
			fmt.Fprintf(bw, "%d const %d %d\n", nid, bvSort(n.Width), n.Value)
		case unicorn.KindArrayConst:
			fmt.Fprintf(bw, "%d const %d %d\n", nid, arrSort(n.Width, n.ArrayWidth), n.Value)
		case unicorn.KindInput:
			fmt.Fprintf(bw, "%d input %d\n", nid, bvSort(n.Width))
		case unicorn.KindNot:
			fmt.Fprintf(bw, "%d not %d %d\n", nid, bvSort(n.Width), emitted[n.A])
		case unicorn.KindNeg:
			fmt.Fprintf(bw, "%d neg %d %d\n", nid, bvSort(n.Width), emitted[n.A])
		case unicorn.KindExt:
			op := "uext"
			if n.Ext == unicorn.SignExt {
				op = "sext"
			}
			srcWidth := a.Width(n.A)
			fmt.Fprintf(bw, "%d %s %d %d %d\n", nid, op, bvSort(n.Width), emitted[n.A], n.Width-srcWidth)
		case unicorn.KindSlice:
			fmt.Fprintf(bw, "%d slice %d %d %d %d\n", nid, bvSort(n.Width), emitted[n.A], n.Hi, n.Lo)
		case unicorn.KindIte:
			fmt.Fprintf(bw, "%d ite %d %d %d %d\n", nid, bvSort(n.Width), emitted[n.A], emitted[n.B], emitted[n.C])
		case unicorn.KindRead:
			fmt.Fprintf(bw, "%d read %d %d %d\n", nid, bvSort(n.Width), emitted[n.A], emitted[n.B])
		case unicorn.KindWrite:
			fmt.Fprintf(bw, "%d write %d %d %d %d\n", nid, arrSort(n.Width, n.ArrayWidth), emitted[n.A], emitted[n.B], emitted[n.C])
		case unicorn.KindBad:
			fmt.Fprintf(bw, "%d bad %d\n", nid, emitted[n.A])
		default:
			op, ok := binaryKeyword[n.Kind]
			if !ok {
				return fmt.Errorf("btor2: unsupported node kind %v", n.Kind)
			}
			sortNid := bvSort(n.Width)
			if isBoolResult[n.Kind] {
				sortNid = bvSort(1)
			}
			fmt.Fprintf(bw, "%d %s %d %d %d\n", nid, op, sortNid, emitted[n.A], emitted[n.B])
		}
	}
	return bw.Flush()
}

var binaryKeyword = map[unicorn.Kind]string{
	unicorn.KindAnd:  "and",
	unicorn.KindOr:   "or",
	unicorn.KindXor:  "xor",
	unicorn.KindSll:  "sll",
	unicorn.KindSrl:  "srl",
	unicorn.KindSra:  "sra",
	unicorn.KindAdd:  "add",
	unicorn.KindSub:  "sub",
	unicorn.KindMul:  "mul",
	unicorn.KindUdiv: "udiv",
	unicorn.KindUrem: "urem",
	unicorn.KindSdiv: "sdiv",
	unicorn.KindSrem: "srem",
	unicorn.KindEq:   "eq",
	unicorn.KindUlt:  "ult",
	unicorn.KindUlte: "ulte",
	unicorn.KindSlt:  "slt",
	unicorn.KindSlte: "slte",
}

var isBoolResult = map[unicorn.Kind]bool{
	unicorn.KindEq:   true,
	unicorn.KindUlt:  true,
	unicorn.KindUlte: true,
	unicorn.KindSlt:  true,
	unicorn.KindSlte: true,
}

func wordOperands(n *unicorn.Node) []unicorn.Id {
	switch n.Kind {
	case unicorn.KindConst, unicorn.KindArrayConst, unicorn.KindInput:
		return nil
	case unicorn.KindNot, unicorn.KindNeg, unicorn.KindExt, unicorn.KindSlice, unicorn.KindBad:
		return []unicorn.Id{n.A}
	case unicorn.KindRead:
		return []unicorn.Id{n.A, n.B}
	case unicorn.KindIte, unicorn.KindWrite:
		return []unicorn.Id{n.A, n.B, n.C}
	default:
		return []unicorn.Id{n.A, n.B}
	}
}

// WriteBitBlasted emits a BTOR2-equivalent program for a boolean gate
// graph, using a single 1-bit sort for every node.
func WriteBitBlasted(w io.Writer, g *bitblast.Graph, bad bitblast.Lit) error {
	bw := bufio.NewWriter(w)
	nl := newNidLine()

	sort1 := nl.next()
	fmt.Fprintf(bw, "%d sort bitvec 1\n", sort1)

	emitted := map[bitblast.Lit]uint64{}
	var order []bitblast.Lit
	seen := map[bitblast.Lit]bool{}
	var visit func(bitblast.Lit)
	visit = func(l bitblast.Lit) {
		if seen[l] {
			return
		}
		seen[l] = true
		switch g.Kind(l) {
		case bitblast.GNot:
			a, _ := g.Operands(l)
			visit(a)
		case bitblast.GAnd, bitblast.GXor:
			a, b := g.Operands(l)
			visit(a)
			visit(b)
		}
		order = append(order, l)
	}
	visit(bad)

	for _, l := range order {
		nid := nl.next()
		emitted[l] = nid
		switch g.Kind(l) {
		case bitblast.GConst:
			v := 0
			if g.ConstValue(l) {
				v = 1
			}
			fmt.Fprintf(bw, "%d const %d %d\n", nid, sort1, v)
		case bitblast.GInput:
			fmt.Fprintf(bw, "%d input %d\n", nid, sort1)
		case bitblast.GNot:
			a, _ := g.Operands(l)
			fmt.Fprintf(bw, "%d not %d %d\n", nid, sort1, emitted[a])
		case bitblast.GAnd:
			a, b := g.Operands(l)
			fmt.Fprintf(bw, "%d and %d %d %d\n", nid, sort1, emitted[a], emitted[b])
		case bitblast.GXor:
			a, b := g.Operands(l)
			fmt.Fprintf(bw, "%d xor %d %d %d\n", nid, sort1, emitted[a], emitted[b])
		}
	}
	fmt.Fprintf(bw, "%d bad %d\n", nl.next(), emitted[bad])
	return bw.Flush()
}

// nidLine hands out the next sequential BTOR2 nid.
type nidLine struct {
	n uint64
}

func newNidLine() *nidLine { return &nidLine{} }

func (l *nidLine) next() uint64 {
	l.n++
	return l.n
}
