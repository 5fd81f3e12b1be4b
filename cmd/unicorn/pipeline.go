package main

import (
	"fmt"
	"log"
	"time"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/bitblast"
	"github.com/cksystemsgroup/unicorn-go/elf"
	"github.com/cksystemsgroup/unicorn-go/prune"
	"github.com/cksystemsgroup/unicorn-go/solver"
	"github.com/cksystemsgroup/unicorn-go/solver/z3"
)

// defaultPruneBudget bounds the SMT pruner's aggregate wall-clock time
// (§9's prune_budget). spec.md's CLI surface names no flag for it, so
// the CLI picks one default rather than leaving the field unset.
const defaultPruneBudget = 30 * time.Second

// parseSolver maps the --solver flag value to a SolverKind, rejecting
// "boolector" with a ConfigError: no SMT binding for it is wired (see
// DESIGN.md).
func parseSolver(name string) (unicorn.SolverKind, error) {
	switch name {
	case "", "none":
		return unicorn.SolverNone, nil
	case "z3":
		return unicorn.SolverZ3, nil
	case "boolector":
		return 0, fmt.Errorf("unicorn: solver %q: %w (no boolector binding is wired)", name, unicorn.ErrConfig)
	default:
		return 0, fmt.Errorf("unicorn: solver %q: %w", name, unicorn.ErrConfig)
	}
}

// newSolverBackend opens the external decision procedure named by kind,
// or nil for SolverNone. The caller must Close a non-nil result.
func newSolverBackend(kind unicorn.SolverKind) (solver.Solver, error) {
	switch kind {
	case unicorn.SolverNone:
		return nil, nil
	case unicorn.SolverZ3:
		return z3.NewSolver(), nil
	default:
		return nil, fmt.Errorf("unicorn: unsupported solver kind %v: %w", kind, unicorn.ErrConfig)
	}
}

// compiled bundles the artifacts every subcommand builds from an ELF
// binary before branching into its own output format.
type compiled struct {
	model *unicorn.Model
	u     *unicorn.Unrolled
}

// compile loads path, builds its Model, runs the pruner (if solverKind
// is not SolverNone), and unrolls to depth, logging phase progress the
// way cmd/glee/generate.go logs its own pipeline stages.
func compile(path string, depth uint, solverKind unicorn.SolverKind, flagDivZeroBad bool) (*compiled, error) {
	log.Printf("[load] reading %s", path)
	entry, code, codeBase, segments, err := elf.Load(path)
	if err != nil {
		return nil, err
	}

	a := unicorn.NewArena()
	opts := unicorn.Options{
		Depth:          depth,
		Solver:         solverKind,
		PruneBudget:    defaultPruneBudget,
		FlagDivZeroBad: flagDivZeroBad,
	}

	log.Printf("[build] constructing model from entry %#x", entry)
	m, err := unicorn.Build(a, entry, code, codeBase, segments, opts)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("[build] model state:\n%s", m.Dump())
	}

	log.Printf("[unroll] unrolling to depth %d", depth)
	u := unicorn.Unroll(m, depth)

	if solverKind != unicorn.SolverNone {
		backend, err := newSolverBackend(solverKind)
		if err != nil {
			return nil, err
		}
		defer backend.Close()

		log.Printf("[prune] folding constants under a %s budget", opts.PruneBudget)
		p := prune.New(a, backend, opts.PruneBudget)

		roots := make([]unicorn.Id, 1, 1+countStepBad(u))
		roots[0] = u.Objective
		for _, bads := range u.StepBad {
			roots = append(roots, bads...)
		}

		folded := p.Prune(roots)
		u.Objective = folded[0]
		i := 1
		for si, bads := range u.StepBad {
			for bi := range bads {
				u.StepBad[si][bi] = folded[i]
				i++
			}
		}

		stats := p.Stats()
		log.Printf("[prune] folded %d/%d nodes (exhausted=%v)", stats.Folded, stats.Queries, stats.Exhausted)
	}

	return &compiled{model: m, u: u}, nil
}

// countStepBad sums the number of Bad conditions across every unrolled
// step, used to size the Prune roots slice up front.
func countStepBad(u *unicorn.Unrolled) int {
	n := 0
	for _, bads := range u.StepBad {
		n += len(bads)
	}
	return n
}

// lowerToBits bit-blasts u's objective and returns the Lowerer (whose
// Inputs map feeds the QUBO/QUARC synthesizers) together with the
// single bad literal.
func lowerToBits(u *unicorn.Unrolled) (*bitblast.Lowerer, bitblast.Lit) {
	l := bitblast.NewLowerer(u.Arena)
	bits := l.Lower(u.Objective)
	return l, bits[0]
}
