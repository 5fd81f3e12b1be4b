// Package qubo synthesizes a Quadratic Unconstrained Binary
// Optimization instance from a bit-blasted boolean gate graph (§4.7),
// and reads/writes the five-section QUBO file format (§6).
package qubo

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cksystemsgroup/unicorn-go/bitblast"
)

// QUBO is a weighted quadratic objective over binary qubits 0..N-1:
// offset + sum_i Linear[i]*q_i + sum_{i<j} Quadratic[{i,j}]*q_i*q_j.
type QUBO struct {
	NumQubits int
	Offset    float64
	Linear    map[int]float64
	Quadratic map[[2]int]float64

	// InputQubits maps an Input node's nid to its qubit ids,
	// LSB-first, and (when resolved by pruning/evaluation) its
	// known bit values ('-' in the file format when unresolved).
	InputQubits map[uint64][]int
	InputValues map[uint64][]int // -1 denotes unresolved

	// BadQubit is the single qubit id carrying the OR-of-all-Bad
	// objective signal; BadNid names the Bad node it was lowered
	// from (0 when synthesizing a combined multi-Bad objective with
	// no single originating nid).
	BadQubit int
	BadNid   uint64
	BadValue int // -1 when unresolved
}

// bigM is the large reward subtracted from the bad qubit's linear
// coefficient so minima correspond to inputs that reach a bad state,
// per §4.7.
const bigM = 1000.0

// Synthesize assigns a qubit id to every input bit named in inputs
// (keyed by the original word-level Input node's nid, as produced by
// bitblast.Lowerer.Inputs) plus every non-constant internal gate
// reachable from bad, and accumulates the fixed Ising-style penalty
// terms that are zero iff each gate's output equals its gate function
// — the AND penalty +3g-2ga-2gb+ab is spec.md's own worked example,
// applied directly; XOR and NOT get their own penalty forms derived
// the same way (zero exactly when the auxiliary variable g agrees
// with the gate's boolean function for every input). Inputs named
// here are, by construction, never resolved to a constant (a
// genuinely fixed input would already have been folded away upstream
// and never reach the bit-blaster as an Input node), so every
// InputValues entry is unresolved.
func Synthesize(g *bitblast.Graph, inputs map[uint64]bitblast.Bits, bad bitblast.Lit) *QUBO {
	q := &QUBO{
		Linear:      map[int]float64{},
		Quadratic:   map[[2]int]float64{},
		InputQubits: map[uint64][]int{},
		InputValues: map[uint64][]int{},
	}
	qubit := map[bitblast.Lit]int{}
	assign := func(l bitblast.Lit) int {
		if id, ok := qubit[l]; ok {
			return id
		}
		id := q.NumQubits
		qubit[l] = id
		q.NumQubits++
		return id
	}

	var nids []uint64
	for nid := range inputs {
		nids = append(nids, nid)
	}
	sort.Slice(nids, func(i, j int) bool { return nids[i] < nids[j] })
	for _, nid := range nids {
		bits := inputs[nid]
		qids := make([]int, len(bits))
		values := make([]int, len(bits))
		for i, l := range bits {
			qids[i] = assign(l)
			values[i] = -1
		}
		q.InputQubits[nid] = qids
		q.InputValues[nid] = values
	}

	var visit func(l bitblast.Lit)
	visited := map[bitblast.Lit]bool{}
	visit = func(l bitblast.Lit) {
		if visited[l] {
			return
		}
		visited[l] = true
		switch g.Kind(l) {
		case bitblast.GConst:
			return // constants fold into the offset, never get a qubit
		case bitblast.GInput:
			assign(l)
			return
		case bitblast.GNot:
			a, _ := g.Operands(l)
			visit(a)
			assign(l)
			q.addNotPenalty(qubit, l, a)
		case bitblast.GAnd:
			a, b := g.Operands(l)
			visit(a)
			visit(b)
			assign(l)
			q.addAndPenalty(qubit, l, a, b, g)
		case bitblast.GXor:
			a, b := g.Operands(l)
			visit(a)
			visit(b)
			assign(l)
			q.addXorPenalty(qubit, l, a, b, g)
		}
	}
	visit(bad)

	q.BadQubit = qubit[bad]
	q.BadValue = -1
	q.Linear[q.BadQubit] -= bigM // minimizing rewards bad=1

	return q
}

// addAndPenalty emits spec.md's own worked example, +3g-2ga-2gb+ab,
// zero iff g = a AND b, with constant operands folded directly into
// the offset/linear terms instead of getting a qubit.
func (q *QUBO) addAndPenalty(qubit map[bitblast.Lit]int, out, a, b bitblast.Lit, g *bitblast.Graph) {
	gOut := qubit[out]
	q.Linear[gOut] += 3

	av, aConst := constOf(g, a)
	bv, bConst := constOf(g, b)

	switch {
	case aConst && bConst:
		if av {
			q.Linear[gOut] -= 2
		}
		if bv {
			q.Linear[gOut] -= 2
		}
		if av && bv {
			q.Offset += 1
		}
	case aConst && !bConst:
		bq := qubit[b]
		if av {
			q.Linear[gOut] -= 2
			q.Linear[bq] += 1 // ab with a=1
		}
		q.addQuadratic(gOut, bq, -2)
	case !aConst && bConst:
		aq := qubit[a]
		if bv {
			q.Linear[gOut] -= 2
			q.Linear[aq] += 1 // ab with b=1
		}
		q.addQuadratic(gOut, aq, -2)
	default:
		aq, bq := qubit[a], qubit[b]
		q.addQuadratic(gOut, aq, -2)
		q.addQuadratic(gOut, bq, -2)
		q.addQuadratic(aq, bq, 1)
	}
}

// xorAncillaWeight scales the AND-consistency gadget used to
// linearize the cubic gab term below; it must dominate every other
// coefficient touching the ancilla so the solver never profits from
// breaking p = a AND b.
const xorAncillaWeight = 10.0

// opd is a penalty-term operand: either a fixed 0/1 constant or a
// qubit id standing in for an unresolved boolean value.
type opd struct {
	isConst bool
	val     float64
	qid     int
}

func constOpd(v float64) opd { return opd{isConst: true, val: v} }
func qubitOpd(id int) opd    { return opd{qid: id} }

// addBilinear adds coeff*x*y to the objective, folding constant
// operands into the offset or a linear term as needed.
func (q *QUBO) addBilinear(coeff float64, x, y opd) {
	switch {
	case x.isConst && y.isConst:
		q.Offset += coeff * x.val * y.val
	case x.isConst && !y.isConst:
		q.Linear[y.qid] += coeff * x.val
	case !x.isConst && y.isConst:
		q.Linear[x.qid] += coeff * y.val
	default:
		q.addQuadratic(x.qid, y.qid, coeff)
	}
}

// addXorPenalty emits the standard three-variable XOR gadget,
// a + b + g - 2ab - 2ag - 2bg + 4abg, which is zero exactly when
// g = a xor b and strictly positive for every other binary assignment
// (spec.md's AND gadget worked the same way one term shorter). The
// cubic abg term only arises when neither operand is constant; there
// it is linearized via Rosenberg's substitution, replacing the
// product ab with a fresh ancilla qubit p tied to a AND b by the same
// gadget addAndPenalty uses, scaled by xorAncillaWeight so breaking
// p = a AND b never pays off.
func (q *QUBO) addXorPenalty(qubit map[bitblast.Lit]int, out, a, b bitblast.Lit, g *bitblast.Graph) {
	gOut := qubitOpd(qubit[out])

	toOpd := func(l bitblast.Lit) opd {
		if v, ok := constOf(g, l); ok {
			val := 0.0
			if v {
				val = 1
			}
			return constOpd(val)
		}
		return qubitOpd(qubit[l])
	}
	oa, ob := toOpd(a), toOpd(b)

	q.addBilinear(1, oa, constOpd(1)) // +a
	q.addBilinear(1, ob, constOpd(1)) // +b
	q.addBilinear(1, gOut, constOpd(1)) // +g
	q.addBilinear(-2, oa, ob)            // -2ab
	q.addBilinear(-2, oa, gOut)          // -2ag
	q.addBilinear(-2, ob, gOut)          // -2bg

	switch {
	case oa.isConst && ob.isConst:
		q.addBilinear(4*oa.val*ob.val, gOut, constOpd(1)) // +4abg, a,b known
	case oa.isConst && !ob.isConst:
		q.addBilinear(4*oa.val, ob, gOut) // +4a*bg
	case !oa.isConst && ob.isConst:
		q.addBilinear(4*ob.val, oa, gOut) // +4b*ag
	default:
		p := q.newQubit()
		q.addAndConsistency(p, oa.qid, ob.qid, xorAncillaWeight)
		q.addBilinear(4, qubitOpd(p), gOut) // +4*(ab)*g via p=ab
	}
}

// addAndConsistency adds weight * (3p - 2ap - 2bp + ab), minimized
// (at 0) only when p = a AND b — the same gadget addAndPenalty uses
// for a gate's own output, reused here to pin an ancilla product.
func (q *QUBO) addAndConsistency(p, a, b int, weight float64) {
	q.Linear[p] += 3 * weight
	q.addQuadratic(p, a, -2*weight)
	q.addQuadratic(p, b, -2*weight)
	q.addQuadratic(a, b, weight)
}

func (q *QUBO) newQubit() int {
	id := q.NumQubits
	q.NumQubits++
	return id
}

// addNotPenalty emits the penalty zero iff g = NOT a: 1 - g - a + 2ga,
// minimized (at 0) only when g and a differ.
func (q *QUBO) addNotPenalty(qubit map[bitblast.Lit]int, out, a bitblast.Lit) {
	gOut := qubit[out]
	q.Offset += 1
	q.Linear[gOut] -= 1
	aq := qubit[a]
	q.Linear[aq] -= 1
	q.addQuadratic(gOut, aq, 2)
}

func (q *QUBO) addQuadratic(i, j int, coeff float64) {
	if i == j {
		q.Linear[i] += coeff
		return
	}
	if i > j {
		i, j = j, i
	}
	q.Quadratic[[2]int{i, j}] += coeff
}

func constOf(g *bitblast.Graph, l bitblast.Lit) (bool, bool) {
	if g.Kind(l) == bitblast.GConst {
		return g.ConstValue(l), true
	}
	return false, false
}

// Write emits the five-section QUBO file format described in §6.
func Write(w io.Writer, q *QUBO) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %g\n\n", q.NumQubits, q.Offset)

	var inputNids []uint64
	for nid := range q.InputQubits {
		inputNids = append(inputNids, nid)
	}
	sort.Slice(inputNids, func(i, j int) bool { return inputNids[i] < inputNids[j] })
	for _, nid := range inputNids {
		qubits := q.InputQubits[nid]
		values := q.InputValues[nid]
		csvQ := joinInts(qubits)
		csvV := joinValues(values)
		fmt.Fprintf(bw, "%d %s %s\n", nid, csvQ, csvV)
	}
	fmt.Fprintln(bw)

	badVal := "-"
	if q.BadValue >= 0 {
		badVal = strconv.Itoa(q.BadValue)
	}
	fmt.Fprintf(bw, "%d %d %s\n", q.BadNid, q.BadQubit, badVal)
	fmt.Fprintln(bw)

	var linIDs []int
	for i := range q.Linear {
		linIDs = append(linIDs, i)
	}
	sort.Ints(linIDs)
	for _, i := range linIDs {
		fmt.Fprintf(bw, "%d %g\n", i, q.Linear[i])
	}
	fmt.Fprintln(bw)

	var quadIDs [][2]int
	for k := range q.Quadratic {
		quadIDs = append(quadIDs, k)
	}
	sort.Slice(quadIDs, func(a, b int) bool {
		if quadIDs[a][0] != quadIDs[b][0] {
			return quadIDs[a][0] < quadIDs[b][0]
		}
		return quadIDs[a][1] < quadIDs[b][1]
	})
	for _, k := range quadIDs {
		fmt.Fprintf(bw, "%d %d %g\n", k[0], k[1], q.Quadratic[k])
	}

	return bw.Flush()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func joinValues(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		if x < 0 {
			parts[i] = "-"
		} else {
			parts[i] = strconv.Itoa(x)
		}
	}
	return strings.Join(parts, ",")
}
