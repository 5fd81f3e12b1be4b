// Package prune implements the bottom-up constant-folding pass (§4.5)
// that runs an unrolled bitvector graph through an external decision
// procedure under a wall-clock budget, grounded on z3/z3.go's
// Solver.Solve((constraints, arrays) -> (satisfiable, values, err))
// interface — here used to decide, per node, whether it provably holds
// one constant value across every Input valuation.
package prune

import (
	"time"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/solver"
)

// Stats reports how much of the pruning budget was used and how many
// nodes were folded to constants.
type Stats struct {
	Queries     int
	Folded      int
	BudgetSpent time.Duration
	Exhausted   bool // budget ran out before every node was visited
}

// Pruner owns the solver used to decide per-node constancy and the
// remaining wall-clock budget.
type Pruner struct {
	a      *unicorn.Arena
	s      solver.Solver
	budget time.Duration
	stats  Stats
}

// New returns a Pruner that queries s, spending at most budget of
// wall-clock time across the whole Prune call.
func New(a *unicorn.Arena, s solver.Solver, budget time.Duration) *Pruner {
	return &Pruner{a: a, s: s, budget: budget}
}

// Stats returns the running statistics of the last Prune call.
func (p *Pruner) Stats() Stats { return p.stats }

// Prune visits every node reachable from roots in topological
// (operands-before-operator) order and replaces each with an
// equivalent Const node when the solver proves it holds one value
// under every Input valuation, returning the (possibly rewritten) root
// ids in the same order as roots. Folding a node to a constant is
// sound and monotone: once folded, every node built on top of it in a
// later pass inherits the constant, but Prune never needs to revisit
// an already-folded subtree since hash-consing already collapsed it.
func (p *Pruner) Prune(roots []unicorn.Id) []unicorn.Id {
	start := time.Now()
	memo := map[unicorn.Id]unicorn.Id{}
	order := []unicorn.Id{}
	seen := map[unicorn.Id]bool{}
	for _, r := range roots {
		p.topoSort(r, seen, &order)
	}

	for _, id := range order {
		if time.Since(start) >= p.budget {
			p.stats.Exhausted = true
			break
		}
		memo[id] = p.foldOne(id, memo)
	}

	out := make([]unicorn.Id, len(roots))
	for i, r := range roots {
		if v, ok := memo[r]; ok {
			out[i] = v
		} else {
			out[i] = r
		}
	}
	p.stats.BudgetSpent = time.Since(start)
	return out
}

func (p *Pruner) topoSort(id unicorn.Id, seen map[unicorn.Id]bool, order *[]unicorn.Id) {
	if seen[id] {
		return
	}
	seen[id] = true
	n := p.a.Node(id)
	for _, child := range p.operands(n) {
		p.topoSort(child, seen, order)
	}
	*order = append(*order, id)
}

func (p *Pruner) operands(n *unicorn.Node) []unicorn.Id {
	switch n.Kind {
	case unicorn.KindConst, unicorn.KindInput, unicorn.KindState, unicorn.KindArrayConst:
		return nil
	case unicorn.KindNot, unicorn.KindNeg, unicorn.KindExt, unicorn.KindSlice:
		return []unicorn.Id{n.A}
	case unicorn.KindIte, unicorn.KindWrite:
		return []unicorn.Id{n.A, n.B, n.C}
	case unicorn.KindRead:
		return []unicorn.Id{n.A, n.B}
	default:
		return []unicorn.Id{n.A, n.B}
	}
}

// rebuild reconstructs n with any already-folded operands substituted,
// via the Arena's generic Mk*/Rebuild* helpers.
func (p *Pruner) rebuild(id unicorn.Id, memo map[unicorn.Id]unicorn.Id) unicorn.Id {
	n := p.a.Node(id)
	sub := func(x unicorn.Id) unicorn.Id {
		if v, ok := memo[x]; ok {
			return v
		}
		return x
	}
	switch n.Kind {
	case unicorn.KindConst, unicorn.KindInput, unicorn.KindState, unicorn.KindArrayConst:
		return id
	case unicorn.KindNot, unicorn.KindNeg:
		return p.a.RebuildUnary(n.Kind, sub(n.A))
	case unicorn.KindExt:
		return p.a.MkExt(n.Ext, sub(n.A), n.Width)
	case unicorn.KindSlice:
		return p.a.MkSlice(sub(n.A), n.Hi, n.Lo)
	case unicorn.KindIte:
		return p.a.MkIte(sub(n.A), sub(n.B), sub(n.C))
	case unicorn.KindRead:
		return p.a.MkRead(sub(n.A), sub(n.B))
	case unicorn.KindWrite:
		return p.a.MkWrite(sub(n.A), sub(n.B), sub(n.C))
	default:
		return p.a.RebuildBinary(n.Kind, sub(n.A), sub(n.B))
	}
}

// foldOne rebuilds id over any already-folded children, then asks the
// solver whether the rebuilt node is provably equal to one constant
// (its value under an all-zero Input valuation) across every Input
// valuation — i.e. whether ASSERT(node != candidate) is UNSAT. Arrays
// are never folding candidates (no scalar value to compare against);
// they pass through rebuilt but unfolded.
func (p *Pruner) foldOne(id unicorn.Id, memo map[unicorn.Id]unicorn.Id) unicorn.Id {
	rebuilt := p.rebuild(id, memo)
	n := p.a.Node(rebuilt)
	if n.Kind == unicorn.KindConst {
		return rebuilt
	}
	if n.Kind == unicorn.KindArrayConst || isArrayKind(n.Kind) {
		return rebuilt
	}

	candidate := unicorn.NewEvaluator(p.a).Eval(rebuilt)
	candId := p.a.MkConst(n.Width, candidate)
	differs := p.a.MkNot(p.a.MkEq(rebuilt, candId))

	p.stats.Queries++
	sat, _, err := p.s.Solve(p.a, []unicorn.Id{differs}, nil)
	if err != nil || sat {
		return rebuilt
	}
	p.stats.Folded++
	return candId
}

func isArrayKind(k unicorn.Kind) bool {
	return k == unicorn.KindWrite
}
