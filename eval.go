package unicorn

// Evaluator computes concrete values over an unrolled, Input-resolved
// bitvector graph, the way glee's executor concretely evaluates an
// expression once every Input has a bound value. It is used by qubot's
// --inputs reporting (§6) to print, for each supplied input vector, the
// bad-state outcome without invoking a solver.
type Evaluator struct {
	a      *Arena
	values map[Id]uint64
	inputs map[Id]uint64
}

// NewEvaluator returns an Evaluator over a, with no inputs bound yet.
func NewEvaluator(a *Arena) *Evaluator {
	return &Evaluator{a: a, values: map[Id]uint64{}, inputs: map[Id]uint64{}}
}

// Bind assigns a concrete value to an Input node.
func (e *Evaluator) Bind(input Id, value uint64) {
	e.inputs[input] = value & bitmask(e.a.Width(input))
}

// BindVector binds a slice of per-step Input ids (as produced by
// Unrolled.StepInputs, flattened) to byte values from one --inputs
// vector, in order. Any input left unbound defaults to 0.
func (e *Evaluator) BindVector(inputs []Id, values []uint64) {
	for i, id := range inputs {
		if i < len(values) {
			e.Bind(id, values[i])
		}
	}
}

// Eval returns the concrete value of a bitvector-typed node.
func (e *Evaluator) Eval(id Id) uint64 {
	if v, ok := e.values[id]; ok {
		return v
	}
	n := e.a.Node(id)
	var v uint64
	switch n.Kind {
	case KindConst:
		v = n.Value
	case KindInput:
		v = e.inputs[id]
	case KindNot:
		v = ^e.Eval(n.A) & bitmask(n.Width)
	case KindNeg:
		v = (-e.Eval(n.A)) & bitmask(n.Width)
	case KindExt:
		x := e.Eval(n.A)
		if n.Ext == SignExt {
			v = uint64(signExtend(x, e.a.Width(n.A))) & bitmask(n.Width)
		} else {
			v = x
		}
	case KindSlice:
		v = (e.Eval(n.A) >> n.Lo) & bitmask(n.Width)
	case KindAnd:
		v = e.Eval(n.A) & e.Eval(n.B)
	case KindOr:
		v = e.Eval(n.A) | e.Eval(n.B)
	case KindXor:
		v = e.Eval(n.A) ^ e.Eval(n.B)
	case KindSll:
		v = (e.Eval(n.A) << (e.Eval(n.B) & shiftMask(e.a.Width(n.A)))) & bitmask(n.Width)
	case KindSrl:
		v = e.Eval(n.A) >> (e.Eval(n.B) & shiftMask(e.a.Width(n.A)))
	case KindSra:
		w := e.a.Width(n.A)
		v = uint64(signExtend(e.Eval(n.A), w)>>(e.Eval(n.B)&shiftMask(w))) & bitmask(n.Width)
	case KindAdd:
		v = (e.Eval(n.A) + e.Eval(n.B)) & bitmask(n.Width)
	case KindSub:
		v = (e.Eval(n.A) - e.Eval(n.B)) & bitmask(n.Width)
	case KindMul:
		v = (e.Eval(n.A) * e.Eval(n.B)) & bitmask(n.Width)
	case KindUdiv:
		x, y := e.Eval(n.A), e.Eval(n.B)
		if y == 0 {
			v = bitmask(n.Width)
		} else {
			v = x / y
		}
	case KindUrem:
		x, y := e.Eval(n.A), e.Eval(n.B)
		if y == 0 {
			v = x
		} else {
			v = x % y
		}
	case KindSdiv:
		w := e.a.Width(n.A)
		x, y := signExtend(e.Eval(n.A), w), signExtend(e.Eval(n.B), w)
		switch {
		case y == 0:
			v = bitmask(n.Width)
		case x == minInt(w) && y == -1:
			v = uint64(x) & bitmask(n.Width)
		default:
			v = uint64(x/y) & bitmask(n.Width)
		}
	case KindSrem:
		w := e.a.Width(n.A)
		x, y := signExtend(e.Eval(n.A), w), signExtend(e.Eval(n.B), w)
		switch {
		case y == 0:
			v = uint64(x) & bitmask(n.Width)
		case x == minInt(w) && y == -1:
			v = 0
		default:
			v = uint64(x%y) & bitmask(n.Width)
		}
	case KindEq:
		v = b2u(e.Eval(n.A) == e.Eval(n.B))
	case KindUlt:
		v = b2u(e.Eval(n.A) < e.Eval(n.B))
	case KindUlte:
		v = b2u(e.Eval(n.A) <= e.Eval(n.B))
	case KindSlt:
		w := e.a.Width(n.A)
		v = b2u(signExtend(e.Eval(n.A), w) < signExtend(e.Eval(n.B), w))
	case KindSlte:
		w := e.a.Width(n.A)
		v = b2u(signExtend(e.Eval(n.A), w) <= signExtend(e.Eval(n.B), w))
	case KindIte:
		if e.Eval(n.A) == 1 {
			v = e.Eval(n.B)
		} else {
			v = e.Eval(n.C)
		}
	case KindRead:
		v = e.evalArrayAt(n.A, e.Eval(n.B))
	default:
		assert(false, "eval: node kind %d is not a scalar bitvector expression", n.Kind)
	}
	v &= bitmask(n.Width)
	e.values[id] = v
	return v
}

// evalArrayAt walks an array expression's Write chain back to the
// nearest write at addr, or its ArrayConst fill if none matches.
func (e *Evaluator) evalArrayAt(arr Id, addr uint64) uint64 {
	for {
		n := e.a.Node(arr)
		if n.Kind == KindArrayConst {
			return n.Value
		}
		if e.Eval(n.B) == addr {
			return e.Eval(n.C)
		}
		arr = n.A
	}
}

// CountBad reports, for an Unrolled graph with inputs already bound, the
// number of distinct unrolled steps at which at least one Bad condition
// evaluates true — the bad-state-count metric per SPEC_FULL §13.1.
func (e *Evaluator) CountBad(u *Unrolled) int {
	count := 0
	for _, bads := range u.StepBad {
		stepBad := false
		for _, b := range bads {
			if e.Eval(b) == 1 {
				stepBad = true
				break
			}
		}
		if stepBad {
			count++
		}
	}
	return count
}
