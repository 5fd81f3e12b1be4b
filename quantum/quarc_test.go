package quantum

import (
	"strings"
	"testing"

	"github.com/cksystemsgroup/unicorn-go/bitblast"
)

// simulate runs c against a concrete 0/1 assignment of its input
// qubits by tracking every qubit's boolean value through the gate
// list, the same semantics QASM's x/cx/ccx give.
func simulate(c *Circuit, initial map[int]int) int {
	state := make([]int, c.NumQubits)
	for q, v := range initial {
		state[q] = v
	}
	for _, g := range c.Gates {
		switch g.Type {
		case X:
			state[g.Target] ^= 1
		case CX:
			if state[g.Controls[0]] == 1 {
				state[g.Target] ^= 1
			}
		case CCX:
			if state[g.Controls[0]] == 1 && state[g.Controls[1]] == 1 {
				state[g.Target] ^= 1
			}
		}
	}
	return state[c.MeasureQubit]
}

func TestSynthesizeAndGateMatchesTruthTable(t *testing.T) {
	g := bitblast.NewGraph()
	a := g.Input()
	b := g.Input()
	and := g.And(a, b)

	c := Synthesize(g, map[uint64]bitblast.Bits{}, and)

	for av := 0; av < 2; av++ {
		for bv := 0; bv < 2; bv++ {
			got := simulate(c, map[int]int{0: av, 1: bv})
			want := av & bv
			if got != want {
				t.Errorf("AND(%d,%d): measured %d, want %d", av, bv, got, want)
			}
		}
	}
}

func TestSynthesizeXorGateMatchesTruthTable(t *testing.T) {
	g := bitblast.NewGraph()
	a := g.Input()
	b := g.Input()
	x := g.Xor(a, b)

	c := Synthesize(g, map[uint64]bitblast.Bits{}, x)

	for av := 0; av < 2; av++ {
		for bv := 0; bv < 2; bv++ {
			got := simulate(c, map[int]int{0: av, 1: bv})
			want := av ^ bv
			if got != want {
				t.Errorf("XOR(%d,%d): measured %d, want %d", av, bv, got, want)
			}
		}
	}
}

func TestSynthesizeNotGate(t *testing.T) {
	g := bitblast.NewGraph()
	a := g.Input()
	n := g.Not(a)

	c := Synthesize(g, map[uint64]bitblast.Bits{}, n)

	for av := 0; av < 2; av++ {
		got := simulate(c, map[int]int{0: av})
		want := 1 - av
		if got != want {
			t.Errorf("NOT(%d): measured %d, want %d", av, got, want)
		}
	}
}

func TestWriteQASMIncludesMeasurement(t *testing.T) {
	g := bitblast.NewGraph()
	a := g.Input()
	b := g.Input()
	and := g.And(a, b)
	c := Synthesize(g, map[uint64]bitblast.Bits{}, and)

	var sb strings.Builder
	if err := WriteQASM(&sb, c); err != nil {
		t.Fatalf("WriteQASM: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "OPENQASM 2.0;") {
		t.Errorf("missing QASM header: %q", out)
	}
	if !strings.Contains(out, "ccx q[0], q[1], q[2];") {
		t.Errorf("missing expected Toffoli gate: %q", out)
	}
	if !strings.Contains(out, "measure q[2] -> c[0];") {
		t.Errorf("missing measurement of bad qubit: %q", out)
	}
}
