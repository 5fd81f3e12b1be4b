package unicorn

import (
	"sort"

	"github.com/benbjohnson/immutable"
)

// idComparer orders Ids for immutable.SortedMap, the way glee's
// uint64Comparer orders execution_state.go's heap keys.
type idComparer struct{}

func (idComparer) Compare(x, y interface{}) int {
	a, b := int64(x.(Id)), int64(y.(Id))
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Unrolled is the flat, State/Next-free bitvector graph produced by
// unrolling a Model to a fixed depth (§4.4). Every reference to a state
// has been resolved to its per-step value and every Input has been
// cloned with a fresh nid for the step it appears in.
type Unrolled struct {
	Arena *Arena

	// StepBad[i][b] is Bad node b's condition at step i, substituted
	// with every state resolved to its step-i value.
	StepBad [][]Id

	// Objective is OR over every StepBad entry: true iff any modeled
	// bad state is reachable within the unrolled depth.
	Objective Id

	// StepInputs[i] lists the fresh Input clones introduced while
	// resolving step i, in the order they were first encountered.
	StepInputs [][]Id

	Depth uint
}

// collectStates returns every architectural state node of m, in a fixed
// deterministic order (register file, memory, brk, next-fd, pc flags in
// program order, halt flag).
func collectStates(m *Model) []Id {
	states := make([]Id, 0, 32+len(m.Order)+4)
	for r := 1; r < 32; r++ {
		states = append(states, m.Registers[r])
	}
	states = append(states, m.Memory, m.Brk, m.Fd)
	for _, addr := range m.Order {
		states = append(states, m.PCFlags[addr])
	}
	states = append(states, m.HaltFlag)
	return states
}

// Unroll substitutes a Model's State/Next transition relation forward
// depth+1 times (steps 0..depth inclusive), generalizing modeler.rs's
// unroller from a fixed small depth to the user-selected --unroll depth.
//
// At step 0 every state takes its declared initial value. At step i+1,
// every state takes the value of its Next expression with every State
// operand resolved to its step-i value — exactly the "s_{i+1} = next(s)
// [s <- s_i]" substitution spec §4.4 specifies. Hash-consing in Arena
// means subexpressions shared across steps (e.g. an unreachable code
// path's dead computation) collapse back onto one node automatically,
// so node count grows with the number of distinct per-step values, not
// with naive copy-the-whole-graph unrolling.
func Unroll(m *Model, depth uint) *Unrolled {
	a := m.Arena
	states := collectStates(m)

	u := &Unrolled{
		Arena:      a,
		Depth:      depth,
		StepBad:    make([][]Id, depth+1),
		StepInputs: make([][]Id, depth+1),
	}

	subst := immutable.NewSortedMap(idComparer{})
	for i := uint(0); i <= depth; i++ {
		cache := map[Id]Id{}
		next := immutable.NewSortedMap(idComparer{})
		for _, s := range states {
			var src Id
			if i == 0 {
				src = a.Node(s).A
			} else {
				src = a.Next(s)
			}
			next = next.Set(s, substitute(a, cache, subst, src))
		}

		// Bad conditions read this step's state values (next), not the
		// previous step's (subst).
		badCache := map[Id]Id{}
		bads := make([]Id, len(m.Bad))
		for bi, bad := range m.Bad {
			bads[bi] = substitute(a, badCache, next, a.Node(bad).A)
		}
		u.StepBad[i] = bads

		for orig, clone := range cache {
			if a.Node(orig).Kind == KindInput {
				u.StepInputs[i] = append(u.StepInputs[i], clone)
			}
		}
		// Clones are allocated as they are first encountered, so Id order
		// is encounter order.
		ins := u.StepInputs[i]
		sort.Slice(ins, func(x, y int) bool { return ins[x] < ins[y] })

		subst = next
	}

	obj := a.MkConst(1, 0)
	for _, bads := range u.StepBad {
		for _, b := range bads {
			obj = a.MkOr(obj, b)
		}
	}
	u.Objective = obj
	return u
}

// substitute rewrites id's subgraph, resolving every State operand via
// subst and cloning every Input with a fresh nid, memoizing the result
// of this single step's pass in cache so shared subexpressions are
// visited once.
func substitute(a *Arena, cache map[Id]Id, subst *immutable.SortedMap, id Id) Id {
	if v, ok := cache[id]; ok {
		return v
	}
	n := a.Node(id)
	var result Id
	switch n.Kind {
	case KindConst, KindArrayConst:
		result = id
	case KindState:
		v, ok := subst.Get(id)
		assert(ok, "unroller: unresolved state reference to node %d", id)
		result = v.(Id)
	case KindInput:
		result = a.MkInput(n.Width)
	case KindNot, KindNeg:
		result = a.RebuildUnary(n.Kind, substitute(a, cache, subst, n.A))
	case KindExt:
		result = a.MkExt(n.Ext, substitute(a, cache, subst, n.A), n.Width)
	case KindSlice:
		result = a.MkSlice(substitute(a, cache, subst, n.A), n.Hi, n.Lo)
	case KindAnd, KindOr, KindXor, KindSll, KindSrl, KindSra,
		KindAdd, KindSub, KindMul, KindUdiv, KindUrem, KindSdiv, KindSrem,
		KindEq, KindUlt, KindUlte, KindSlt, KindSlte:
		x := substitute(a, cache, subst, n.A)
		y := substitute(a, cache, subst, n.B)
		result = a.RebuildBinary(n.Kind, x, y)
	case KindIte:
		c := substitute(a, cache, subst, n.A)
		t := substitute(a, cache, subst, n.B)
		e := substitute(a, cache, subst, n.C)
		result = a.MkIte(c, t, e)
	case KindRead:
		arr := substitute(a, cache, subst, n.A)
		idx := substitute(a, cache, subst, n.B)
		result = a.MkRead(arr, idx)
	case KindWrite:
		arr := substitute(a, cache, subst, n.A)
		idx := substitute(a, cache, subst, n.B)
		val := substitute(a, cache, subst, n.C)
		result = a.MkWrite(arr, idx, val)
	default:
		assert(false, "unroller: unexpected node kind %d in value position", n.Kind)
	}
	cache[id] = result
	return result
}
