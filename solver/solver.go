// Package solver defines the narrow decision-procedure interface the
// Pruner (and, in principle, a future direct-SAT backend) consumes,
// grounded on glee's z3 package's glee.Solver interface.
package solver

import "github.com/cksystemsgroup/unicorn-go"

// Solver decides satisfiability of a conjunction of 1-bit constraints
// over a shared Arena, returning a concrete value per queried node when
// satisfiable. It mirrors glee.Solver's (constraints, arrays) ->
// (satisfiable, values, err) shape, retargeted from glee.Expr/*glee.Array
// to this module's Arena-owned Id/Node.
type Solver interface {
	// Solve asserts every constraint (each must have width 1) and checks
	// satisfiability. On success it returns one concrete value per id in
	// inputs, in the same order.
	Solve(a *unicorn.Arena, constraints []unicorn.Id, inputs []unicorn.Id) (satisfiable bool, values []uint64, err error)

	Close() error
}
