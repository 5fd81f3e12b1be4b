// Package z3 implements solver.Solver using an embedded Z3 solver,
// adapted from glee's z3 package: same cgo preamble, same Context/Solver
// split and Z3_L_UNDEF reason-string classification, retargeted from
// glee.Expr/*glee.Array to this module's *unicorn.Arena/unicorn.Id.
package z3

import (
	"fmt"
	"strings"
	"time"
	"unsafe"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/solver"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
*/
import "C"

var _ solver.Solver = (*Solver)(nil)

// Solver is a solver.Solver backed by an embedded Z3 context.
type Solver struct {
	ctx   *Context
	stats Stats
}

// Stats tracks solve-call counters for diagnostics.
type Stats struct {
	SolveN    int
	SolveTime time.Duration
}

// NewSolver returns a new Solver with a fresh Z3 context.
func NewSolver() *Solver {
	return &Solver{ctx: NewContext()}
}

// Close deletes the underlying Z3 context.
func (s *Solver) Close() error { return s.ctx.Close() }

// Stats returns the solver's running statistics.
func (s *Solver) Stats() Stats { return s.stats }

// Solve asserts every constraint and checks satisfiability, returning
// one concrete value per requested input id when satisfiable.
func (s *Solver) Solve(a *unicorn.Arena, constraints []unicorn.Id, inputs []unicorn.Id) (bool, []uint64, error) {
	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	zsolver := C.Z3_mk_solver(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_solver"); err != nil {
		return false, nil, err
	}
	C.Z3_solver_inc_ref(s.ctx.raw, zsolver)
	defer C.Z3_solver_dec_ref(s.ctx.raw, zsolver)

	cache := map[unicorn.Id]C.Z3_ast{}
	for _, c := range constraints {
		ast, err := s.ctx.toAST(a, cache, c)
		if err != nil {
			return false, nil, err
		}
		C.Z3_solver_assert(s.ctx.raw, zsolver, ast)
		if err := s.ctx.err("Z3_solver_assert"); err != nil {
			return false, nil, err
		}
	}

	ret := C.Z3_solver_check(s.ctx.raw, zsolver)
	if err := s.ctx.err("Z3_solver_check"); err != nil {
		return false, nil, err
	} else if ret == C.Z3_L_FALSE {
		return false, nil, nil
	} else if ret == C.Z3_L_UNDEF {
		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.ctx.raw, zsolver))
		switch {
		case strings.Contains(reason, "timeout"):
			return false, nil, unicorn.ErrSolverTimeout
		case strings.Contains(reason, "canceled"):
			return false, nil, unicorn.ErrSolverCanceled
		case strings.Contains(reason, "(resource limits reached)"):
			return false, nil, unicorn.ErrSolverResourceLimit
		default:
			return false, nil, unicorn.ErrSolverUnknown
		}
	} else if len(inputs) == 0 {
		return true, nil, nil
	}

	model := C.Z3_solver_get_model(s.ctx.raw, zsolver)
	if err := s.ctx.err("Z3_solver_get_model"); err != nil {
		return true, nil, err
	}

	values := make([]uint64, len(inputs))
	for i, id := range inputs {
		ast, ok := cache[id]
		if !ok {
			var err error
			ast, err = s.ctx.toAST(a, cache, id)
			if err != nil {
				return true, nil, err
			}
		}
		v, err := s.ctx.evalUint64(model, ast)
		if err != nil {
			return true, nil, err
		}
		values[i] = v
	}
	return true, values, nil
}

// Context wraps a Z3 context for constructing ASTs.
type Context struct {
	raw C.Z3_context
}

// NewContext returns a fresh Z3 context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)
	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return nil
}

func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// Error is a Z3 API error.
type Error struct {
	Code    int
	Op      string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("z3: %s: %s", e.Op, e.Message) }

func (ctx *Context) bvSort(width uint) C.Z3_sort {
	return C.Z3_mk_bv_sort(ctx.raw, C.uint(width))
}

func (ctx *Context) arraySort(aw, dw uint) C.Z3_sort {
	return C.Z3_mk_array_sort(ctx.raw, ctx.bvSort(aw), ctx.bvSort(dw))
}

// toAST translates id into a Z3 AST, memoizing in cache. Width-1 nodes
// are represented with Z3's Bool sort for And/Or/Xor/Not/Eq, matching
// the teacher's boolean-cast convention; every other bitvector width
// uses the BV theory, and arrays use Z3's Array theory (Select/Store).
func (ctx *Context) toAST(a *unicorn.Arena, cache map[unicorn.Id]C.Z3_ast, id unicorn.Id) (C.Z3_ast, error) {
	if ast, ok := cache[id]; ok {
		return ast, nil
	}
	n := a.Node(id)
	var ast C.Z3_ast
	var err error
	switch n.Kind {
	case unicorn.KindConst:
		ast, err = ctx.constAST(n.Width, n.Value)
	case unicorn.KindInput:
		name := C.CString(fmt.Sprintf("input_%d", n.Nid))
		defer C.free(unsafe.Pointer(name))
		sym := C.Z3_mk_string_symbol(ctx.raw, name)
		ast = C.Z3_mk_const(ctx.raw, sym, ctx.bvSort(n.Width))
	case unicorn.KindArrayConst:
		fill, ferr := ctx.constAST(n.ArrayWidth, n.Value)
		if ferr != nil {
			return nil, ferr
		}
		ast = C.Z3_mk_const_array(ctx.raw, ctx.bvSort(n.Width), fill)
	case unicorn.KindRead:
		arr, rerr := ctx.toAST(a, cache, n.A)
		if rerr != nil {
			return nil, rerr
		}
		idx, ierr := ctx.toAST(a, cache, n.B)
		if ierr != nil {
			return nil, ierr
		}
		ast = C.Z3_mk_select(ctx.raw, arr, idx)
	case unicorn.KindWrite:
		arr, aerr := ctx.toAST(a, cache, n.A)
		if aerr != nil {
			return nil, aerr
		}
		idx, ierr := ctx.toAST(a, cache, n.B)
		if ierr != nil {
			return nil, ierr
		}
		val, verr := ctx.toAST(a, cache, n.C)
		if verr != nil {
			return nil, verr
		}
		ast = C.Z3_mk_store(ctx.raw, arr, idx, val)
	case unicorn.KindNot:
		src, serr := ctx.toAST(a, cache, n.A)
		if serr != nil {
			return nil, serr
		}
		if a.Width(n.A) == 1 {
			ast = C.Z3_mk_not(ctx.raw, src)
		} else {
			ast = C.Z3_mk_bvnot(ctx.raw, src)
		}
	case unicorn.KindNeg:
		src, serr := ctx.toAST(a, cache, n.A)
		if serr != nil {
			return nil, serr
		}
		ast = C.Z3_mk_bvneg(ctx.raw, src)
	case unicorn.KindExt:
		src, serr := ctx.toAST(a, cache, n.A)
		if serr != nil {
			return nil, serr
		}
		extra := C.uint(n.Width - a.Width(n.A))
		if n.Ext == unicorn.SignExt {
			ast = C.Z3_mk_sign_ext(ctx.raw, extra, src)
		} else {
			ast = C.Z3_mk_zero_ext(ctx.raw, extra, src)
		}
	case unicorn.KindSlice:
		src, serr := ctx.toAST(a, cache, n.A)
		if serr != nil {
			return nil, serr
		}
		ast = C.Z3_mk_extract(ctx.raw, C.uint(n.Hi), C.uint(n.Lo), src)
	case unicorn.KindIte:
		c, cerr := ctx.toAST(a, cache, n.A)
		if cerr != nil {
			return nil, cerr
		}
		t, terr := ctx.toAST(a, cache, n.B)
		if terr != nil {
			return nil, terr
		}
		e, eerr := ctx.toAST(a, cache, n.C)
		if eerr != nil {
			return nil, eerr
		}
		ast = C.Z3_mk_ite(ctx.raw, c, t, e)
	default:
		return ctx.binaryAST(a, cache, n)
	}
	if err != nil {
		return nil, err
	}
	if aerr := ctx.err("z3.toAST"); aerr != nil {
		return nil, aerr
	}
	cache[id] = ast
	return ast, nil
}

func (ctx *Context) binaryAST(a *unicorn.Arena, cache map[unicorn.Id]C.Z3_ast, n *unicorn.Node) (C.Z3_ast, error) {
	lhs, err := ctx.toAST(a, cache, n.A)
	if err != nil {
		return nil, err
	}
	rhs, err := ctx.toAST(a, cache, n.B)
	if err != nil {
		return nil, err
	}
	bw1 := a.Width(n.A) == 1
	switch n.Kind {
	case unicorn.KindAnd:
		if bw1 {
			args := [2]C.Z3_ast{lhs, rhs}
			return C.Z3_mk_and(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_and")
		}
		return C.Z3_mk_bvand(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvand")
	case unicorn.KindOr:
		if bw1 {
			args := [2]C.Z3_ast{lhs, rhs}
			return C.Z3_mk_or(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_or")
		}
		return C.Z3_mk_bvor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvor")
	case unicorn.KindXor:
		if bw1 {
			return C.Z3_mk_xor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_xor")
		}
		return C.Z3_mk_bvxor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvxor")
	case unicorn.KindSll:
		return C.Z3_mk_bvshl(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvshl")
	case unicorn.KindSrl:
		return C.Z3_mk_bvlshr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvlshr")
	case unicorn.KindSra:
		return C.Z3_mk_bvashr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvashr")
	case unicorn.KindAdd:
		return C.Z3_mk_bvadd(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvadd")
	case unicorn.KindSub:
		return C.Z3_mk_bvsub(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsub")
	case unicorn.KindMul:
		return C.Z3_mk_bvmul(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvmul")
	case unicorn.KindUdiv:
		return C.Z3_mk_bvudiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvudiv")
	case unicorn.KindUrem:
		return C.Z3_mk_bvurem(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvurem")
	case unicorn.KindSdiv:
		return C.Z3_mk_bvsdiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsdiv")
	case unicorn.KindSrem:
		return C.Z3_mk_bvsrem(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsrem")
	case unicorn.KindEq:
		if bw1 {
			return C.Z3_mk_iff(ctx.raw, lhs, rhs), ctx.err("Z3_mk_iff")
		}
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	case unicorn.KindUlt:
		return C.Z3_mk_bvult(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvult")
	case unicorn.KindUlte:
		return C.Z3_mk_bvule(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvule")
	case unicorn.KindSlt:
		return C.Z3_mk_bvslt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvslt")
	case unicorn.KindSlte:
		return C.Z3_mk_bvsle(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsle")
	}
	return nil, fmt.Errorf("z3: unexpected node kind %d", n.Kind)
}

func (ctx *Context) constAST(width uint, value uint64) (C.Z3_ast, error) {
	if width == 1 {
		if value&1 == 1 {
			return C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
		}
		return C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
	}
	numeral := C.CString(fmt.Sprintf("%d", value))
	defer C.free(unsafe.Pointer(numeral))
	return C.Z3_mk_numeral(ctx.raw, numeral, ctx.bvSort(width)), ctx.err("Z3_mk_numeral")
}

func (ctx *Context) evalUint64(model C.Z3_model, ast C.Z3_ast) (uint64, error) {
	var out C.Z3_ast
	ok := C.Z3_model_eval(ctx.raw, model, ast, C.bool(true), &out)
	if !bool(ok) {
		return 0, ctx.err("Z3_model_eval")
	}
	var v C.uint64_t
	if !bool(C.Z3_get_numeral_uint64(ctx.raw, out, &v)) {
		return 0, ctx.err("Z3_get_numeral_uint64")
	}
	return uint64(v), nil
}
