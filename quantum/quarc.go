// Package quantum synthesizes a reversible gate-model circuit (QUARC,
// §4.8) from a bit-blasted boolean gate graph: every AND/XOR/NOT gate
// becomes a Toffoli/CNOT/X decomposition over ancilla qubits, with a
// single measurement line whose 1-outcome denotes "bad reached".
package quantum

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/cksystemsgroup/unicorn-go/bitblast"
)

// GateType names one of the three reversible primitives this module
// emits; OPENQASM's qelib1.inc names (cx, ccx, x) are used directly so
// Circuit.WriteQASM needs no translation table.
type GateType string

const (
	X   GateType = "x"
	CX  GateType = "cx"
	CCX GateType = "ccx"
)

// Gate is a single reversible operation: X flips Target, CX flips
// Target conditioned on Controls[0], CCX conditioned on both controls.
type Gate struct {
	Type     GateType
	Controls []int
	Target   int
}

// Circuit is the synthesized reversible circuit: a flat, already
// topologically-ordered gate list (the traversal that built it was
// itself a DAG walk, the same shape as q-deck's CircuitDAG, but this
// module only ever needs one consumption order, so there is no
// separate dependency-edge bookkeeping to maintain).
type Circuit struct {
	NumQubits int
	Gates     []Gate

	// InputQubits maps an Input node's nid to its designated qubit
	// ids, LSB first.
	InputQubits map[uint64][]int

	// MeasureQubit is the single qubit whose measured value is 1 iff
	// the modeled execution reached a bad state.
	MeasureQubit int
}

// Synthesize walks g from bad, allocating one qubit per input bit
// named in inputs and one ancilla per internal AND/XOR/NOT gate, and
// emitting the Toffoli/CNOT/X decomposition for each.
func Synthesize(g *bitblast.Graph, inputs map[uint64]bitblast.Bits, bad bitblast.Lit) *Circuit {
	c := &Circuit{InputQubits: map[uint64][]int{}}
	qubit := map[bitblast.Lit]int{}
	alloc := func() int {
		id := c.NumQubits
		c.NumQubits++
		return id
	}
	assign := func(l bitblast.Lit) int {
		if id, ok := qubit[l]; ok {
			return id
		}
		id := alloc()
		qubit[l] = id
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
		for i, l := range bits {
			qids[i] = assign(l)
		}
		c.InputQubits[nid] = qids
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
			return
		case bitblast.GInput:
			assign(l)
			return
		case bitblast.GNot:
			a, _ := g.Operands(l)
			visit(a)
			out := assign(l)
			// copy a onto a fresh ancilla, then flip it: a qubit that
			// already carries a live value is never reused as another
			// gate's output, so the CNOT-then-X pair is reversible.
			c.Gates = append(c.Gates,
				Gate{Type: CX, Controls: []int{qubit[a]}, Target: out},
				Gate{Type: X, Target: out},
			)
		case bitblast.GAnd:
			a, b := g.Operands(l)
			visit(a)
			visit(b)
			out := assign(l)
			// ancilla starts |0>; a single Toffoli leaves it a AND b.
			c.Gates = append(c.Gates, Gate{Type: CCX, Controls: []int{qubit[a], qubit[b]}, Target: out})
		case bitblast.GXor:
			a, b := g.Operands(l)
			visit(a)
			visit(b)
			out := assign(l)
			// ancilla starts |0>; two CNOTs leave it a xor b.
			c.Gates = append(c.Gates,
				Gate{Type: CX, Controls: []int{qubit[a]}, Target: out},
				Gate{Type: CX, Controls: []int{qubit[b]}, Target: out},
			)
		}
	}
	visit(bad)

	c.MeasureQubit = qubit[bad]
	return c
}

// WriteQASM emits an OPENQASM 2.0 program implementing the circuit,
// followed by a measurement of MeasureQubit into classical bit 0 —
// its 1-outcome is the "bad reached" event.
func WriteQASM(w io.Writer, c *Circuit) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "OPENQASM 2.0;")
	fmt.Fprintln(bw, `include "qelib1.inc";`)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "qreg q[%d];\n", c.NumQubits)
	fmt.Fprintln(bw, "creg c[1];")
	fmt.Fprintln(bw)
	for _, g := range c.Gates {
		switch g.Type {
		case X:
			fmt.Fprintf(bw, "x q[%d];\n", g.Target)
		case CX:
			fmt.Fprintf(bw, "cx q[%d], q[%d];\n", g.Controls[0], g.Target)
		case CCX:
			fmt.Fprintf(bw, "ccx q[%d], q[%d], q[%d];\n", g.Controls[0], g.Controls[1], g.Target)
		}
	}
	fmt.Fprintf(bw, "measure q[%d] -> c[0];\n", c.MeasureQubit)
	return bw.Flush()
}
