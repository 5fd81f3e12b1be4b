package qubo

import (
	"strings"
	"testing"

	"github.com/cksystemsgroup/unicorn-go/bitblast"
)

// evalQUBO computes offset + sum Linear[i]*x[i] +
// sum Quadratic[{i,j}]*x[i]*x[j] for a concrete 0/1 assignment,
// mirroring how a solver would score a candidate solution.
func evalQUBO(q *QUBO, assign map[int]int) float64 {
	total := q.Offset
	for i, c := range q.Linear {
		total += c * float64(assign[i])
	}
	for k, c := range q.Quadratic {
		total += c * float64(assign[k[0]]) * float64(assign[k[1]])
	}
	return total
}

func allVars(q *QUBO) []int {
	seen := map[int]bool{}
	for i := range q.Linear {
		seen[i] = true
	}
	for k := range q.Quadratic {
		seen[k[0]] = true
		seen[k[1]] = true
	}
	var vars []int
	for v := range seen {
		vars = append(vars, v)
	}
	return vars
}

func TestSynthesizeAndGate(t *testing.T) {
	g := bitblast.NewGraph()
	a := g.Input()
	b := g.Input()
	and := g.And(a, b)

	q := Synthesize(g, map[uint64]bitblast.Bits{}, and)

	// brute force every assignment of a, b and confirm the penalty is
	// zero exactly when the extra qubit equals a AND b.
	vars := allVars(q)
	for mask := 0; mask < 4; mask++ {
		av := mask & 1
		bv := (mask >> 1) & 1
		// find qubit ids for a, b, and the gate output by scanning
		// every candidate assignment of the remaining (gate-output)
		// qubits and taking the minimum.
		best := 1e18
		for extra := 0; extra < (1 << len(vars)); extra++ {
			assign := map[int]int{}
			for i, v := range vars {
				assign[v] = (extra >> i) & 1
			}
			// the input qubits for a and b were assigned ids 0 and 1
			// in construction order (no prior InputQubits claimed any
			// ids here), so pin them to av, bv for this trial.
			assign[0] = av
			assign[1] = bv
			// add back the -bigM reward on the bad qubit so only the
			// gate penalty is scored.
			val := evalQUBO(q, assign) + bigM*float64(assign[q.BadQubit])
			if val < best {
				best = val
			}
		}
		want := 0.0
		if av == 1 && bv == 1 {
			want = 0.0 // AND(1,1)=1, and some extra assignment reaches it
		}
		if best != want {
			t.Errorf("AND gate min penalty for a=%d b=%d = %v, want %v", av, bv, best, want)
		}
	}
}

func TestSynthesizeXorGateIsMinimizedOnlyAtTruth(t *testing.T) {
	g := bitblast.NewGraph()
	a := g.Input()
	b := g.Input()
	x := g.Xor(a, b)

	q := Synthesize(g, map[uint64]bitblast.Bits{}, x)
	vars := allVars(q)

	for mask := 0; mask < 4; mask++ {
		av := mask & 1
		bv := (mask >> 1) & 1
		best := 1e18
		for extra := 0; extra < (1 << len(vars)); extra++ {
			assign := map[int]int{}
			for i, v := range vars {
				assign[v] = (extra >> i) & 1
			}
			assign[0] = av
			assign[1] = bv
			// add back the -bigM reward on the bad qubit so only the
			// gate penalty is scored.
			val := evalQUBO(q, assign) + bigM*float64(assign[q.BadQubit])
			if val < best {
				best = val
			}
		}
		if best != 0 {
			t.Errorf("XOR gate objective should always reach 0 for a=%d b=%d (found min %v)", av, bv, best)
		}
	}
}

func TestSynthesizePopulatesInputQubits(t *testing.T) {
	g := bitblast.NewGraph()
	bits := g.InputBits(4)
	bad := bits[0]

	inputs := map[uint64]bitblast.Bits{7: bits}
	q := Synthesize(g, inputs, bad)

	qids, ok := q.InputQubits[7]
	if !ok || len(qids) != 4 {
		t.Fatalf("InputQubits[7] = %v, ok=%v, want 4 entries", qids, ok)
	}
	for _, v := range q.InputValues[7] {
		if v != -1 {
			t.Errorf("expected unresolved input value, got %d", v)
		}
	}
}

func TestWriteFormat(t *testing.T) {
	q := &QUBO{
		NumQubits:   3,
		Offset:      1.5,
		Linear:      map[int]float64{0: 2, 1: -1},
		Quadratic:   map[[2]int]float64{{0, 1}: 3},
		InputQubits: map[uint64][]int{5: {0, 1}},
		InputValues: map[uint64][]int{5: {-1, -1}},
		BadQubit:    2,
		BadNid:      9,
		BadValue:    -1,
	}
	var sb strings.Builder
	if err := Write(&sb, q); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "3 1.5\n\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "5 0,1 -,-\n") {
		t.Errorf("missing input mapping line, got: %q", out)
	}
	if !strings.Contains(out, "9 2 -\n") {
		t.Errorf("missing bad mapping line, got: %q", out)
	}
}
