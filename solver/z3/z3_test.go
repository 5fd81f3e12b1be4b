package z3_test

import (
	"testing"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/solver/z3"
)

func MustCloseSolver(s *z3.Solver) {
	if err := s.Close(); err != nil {
		panic(err)
	}
}

func TestSolver_Solve(t *testing.T) {
	t.Run("Constant", func(t *testing.T) {
		t.Run("True", func(t *testing.T) {
			a := unicorn.NewArena()
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			if satisfiable, _, err := s.Solve(a, []unicorn.Id{a.MkConst(1, 1)}, nil); err != nil {
				t.Fatal(err)
			} else if !satisfiable {
				t.Fatal("expected satisfiable")
			}
		})
		t.Run("False", func(t *testing.T) {
			a := unicorn.NewArena()
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			if satisfiable, _, err := s.Solve(a, []unicorn.Id{a.MkConst(1, 0)}, nil); err != nil {
				t.Fatal(err)
			} else if satisfiable {
				t.Fatal("expected unsatisfiable")
			}
		})
	})

	t.Run("Array", func(t *testing.T) {
		a := unicorn.NewArena()
		s := z3.NewSolver()
		defer MustCloseSolver(s)

		arr := a.MkWrite(a.MkArrayConst(64, 8, 0), a.MkConst(64, 0), a.MkInput(8))
		read := a.MkRead(arr, a.MkConst(64, 0))
		constraint := a.MkEq(read, a.MkConst(8, 10))

		if satisfiable, values, err := s.Solve(a, []unicorn.Id{constraint}, []unicorn.Id{read}); err != nil {
			t.Fatal(err)
		} else if !satisfiable {
			t.Fatal("expected satisfiable")
		} else if len(values) != 1 || values[0] != 10 {
			t.Fatalf("values = %v, want [10]", values)
		}
	})

	t.Run("BinaryExpr", func(t *testing.T) {
		t.Run("ADD", func(t *testing.T) {
			a := unicorn.NewArena()
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			sum := a.MkAdd(a.MkConst(16, 1000), a.MkConst(16, 200))
			constraint := a.MkEq(sum, a.MkConst(16, 1200))
			if satisfiable, _, err := s.Solve(a, []unicorn.Id{constraint}, nil); err != nil {
				t.Fatal(err)
			} else if !satisfiable {
				t.Fatal("expected satisfiable")
			}
		})
		t.Run("UDIV", func(t *testing.T) {
			a := unicorn.NewArena()
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			q := a.MkUdiv(a.MkConst(16, 5000), a.MkConst(16, 30))
			constraint := a.MkEq(q, a.MkConst(16, 166))
			if satisfiable, _, err := s.Solve(a, []unicorn.Id{constraint}, nil); err != nil {
				t.Fatal(err)
			} else if !satisfiable {
				t.Fatal("expected satisfiable")
			}
		})
		t.Run("ULT", func(t *testing.T) {
			a := unicorn.NewArena()
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			constraint := a.MkUlt(a.MkConst(32, 9), a.MkConst(32, 10))
			if satisfiable, _, err := s.Solve(a, []unicorn.Id{constraint}, nil); err != nil {
				t.Fatal(err)
			} else if !satisfiable {
				t.Fatal("expected satisfiable")
			}
		})
		t.Run("SLT", func(t *testing.T) {
			a := unicorn.NewArena()
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			constraint := a.MkSlt(a.MkConst(8, 0xf0), a.MkConst(8, 0x00))
			if satisfiable, _, err := s.Solve(a, []unicorn.Id{constraint}, nil); err != nil {
				t.Fatal(err)
			} else if !satisfiable {
				t.Fatal("expected satisfiable")
			}
		})
	})

	t.Run("Input", func(t *testing.T) {
		a := unicorn.NewArena()
		s := z3.NewSolver()
		defer MustCloseSolver(s)

		x := a.MkInput(8)
		constraint := a.MkEq(x, a.MkConst(8, 42))
		if satisfiable, values, err := s.Solve(a, []unicorn.Id{constraint}, []unicorn.Id{x}); err != nil {
			t.Fatal(err)
		} else if !satisfiable {
			t.Fatal("expected satisfiable")
		} else if len(values) != 1 || values[0] != 42 {
			t.Fatalf("values = %v, want [42]", values)
		}
	})

	t.Run("UnsatConjunction", func(t *testing.T) {
		a := unicorn.NewArena()
		s := z3.NewSolver()
		defer MustCloseSolver(s)

		x := a.MkInput(8)
		c1 := a.MkEq(x, a.MkConst(8, 1))
		c2 := a.MkEq(x, a.MkConst(8, 2))
		if satisfiable, _, err := s.Solve(a, []unicorn.Id{c1, c2}, nil); err != nil {
			t.Fatal(err)
		} else if satisfiable {
			t.Fatal("expected unsatisfiable: x cannot be both 1 and 2")
		}
	})
}
