// Package lp describes linear programs with general constraints and
// variable bounds and solves them, reporting both the primal solution and
// the dual values (shadow prices) of every constraint.
//
// A Problem is
//
//	minimize   cᵀx
//	subject to A[i]·x  (= | ≤ | ≥)  b[i]   for every row i
//	           lower ≤ x ≤ upper
//
// The default solver, Simplex, is a two-phase tableau method on gonum/mat
// matrices. Unlike gonum.org/v1/gonum/optimize/convex/lp it keeps the
// optimal basis, which the dual values are read from, and it accepts
// degenerate programs and dependent equality rows.
package lp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

// Op is the relation of a constraint row.
type Op int

const (
	// EQ is A[i]·x = b[i].
	EQ Op = iota
	// LE is A[i]·x ≤ b[i].
	LE
	// GE is A[i]·x ≥ b[i].
	GE
)

func (o Op) String() string {
	switch o {
	case EQ:
		return "=="
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "?"
	}
}

// Problem is a linear program. Lower and Upper may be nil, meaning 0 and
// +Inf for every variable; individual entries may be ±Inf.
type Problem struct {
	C     []float64
	A     mat.Matrix
	Ops   []Op
	B     []float64
	Lower []float64
	Upper []float64
}

// Solution is the result of a successful solve.
type Solution struct {
	// X is the optimal primal point.
	X []float64
	// Dual holds ∂f*/∂b[i] for every row of A. For a minimization, ≤ rows
	// have non-positive and ≥ rows non-negative dual values.
	Dual []float64
	// Objective is cᵀX.
	Objective float64
}

// Solver solves linear programs. Infeasible or unbounded programs return an
// error for which errors.Is(err, errors.ErrInfeasible) or
// errors.Is(err, errors.ErrUnbounded) holds.
type Solver interface {
	Solve(p *Problem) (*Solution, error)
}

func (p *Problem) lower(j int) float64 {
	if p.Lower == nil {
		return 0
	}
	return p.Lower[j]
}

func (p *Problem) upper(j int) float64 {
	if p.Upper == nil {
		return math.Inf(1)
	}
	return p.Upper[j]
}

// Validate checks that the problem is well formed.
func (p *Problem) Validate() error {
	const op = "lp.Problem.Validate"
	if p.A == nil {
		return errors.NewValueError(op, "constraint matrix is nil")
	}
	m, n := p.A.Dims()
	if m == 0 || n == 0 {
		return errors.NewModelError(op, "empty constraint matrix", errors.ErrEmptyData)
	}
	if len(p.C) != n {
		return errors.NewDimensionError(op, n, len(p.C), 1)
	}
	if len(p.B) != m {
		return errors.NewDimensionError(op, m, len(p.B), 0)
	}
	if len(p.Ops) != m {
		return errors.NewDimensionError(op, m, len(p.Ops), 0)
	}
	if p.Lower != nil && len(p.Lower) != n {
		return errors.NewDimensionError(op, n, len(p.Lower), 1)
	}
	if p.Upper != nil && len(p.Upper) != n {
		return errors.NewDimensionError(op, n, len(p.Upper), 1)
	}
	for j := 0; j < n; j++ {
		lo, hi := p.lower(j), p.upper(j)
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi || math.IsInf(lo, 1) || math.IsInf(hi, -1) {
			return errors.NewValidationError("bounds", "lower must not exceed upper and both must be reachable", [2]float64{lo, hi})
		}
	}
	for i, o := range p.Ops {
		if o != EQ && o != LE && o != GE {
			return errors.NewValidationError("ops", "unknown constraint relation", i)
		}
	}
	return nil
}
