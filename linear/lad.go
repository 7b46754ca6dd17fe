package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/core/parallel"
	"github.com/YuminosukeSato/stablefit/optimize/lp"
	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

// ladColumnThreshold is the number of response columns above which the
// per-column programs are solved concurrently.
const ladColumnThreshold = 4

// ladProgram builds the linear program for one response column and maps its
// solution back to the k coefficients.
type ladProgram struct {
	build   func(x mat.Matrix, y []float64) *lp.Problem
	extract func(sol *lp.Solution, k int) []float64
}

// Slopes solves one primal LAD program per response column:
//
//	min 1ᵗv⁺ + 1ᵗv⁻  s.t. v⁺ − v⁻ + Xβ = y, v± ≥ 0, |β| ≤ 300.
func (e LADPP) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	return solveLAD(e.Name(), e.solver, x, y, ladProgram{
		build: func(x mat.Matrix, y []float64) *lp.Problem {
			n, k := x.Dims()
			lower := filled(2*n+k, 0)
			upper := filled(2*n+k, math.Inf(1))
			for j := 2 * n; j < 2*n+k; j++ {
				lower[j] = -LADCoefficientBound
				upper[j] = LADCoefficientBound
			}
			return &lp.Problem{
				C:     append(filled(2*n, 1), make([]float64, k)...),
				A:     residualBlock(x, false),
				Ops:   ops(n, lp.EQ),
				B:     y,
				Lower: lower,
				Upper: upper,
			}
		},
		extract: func(sol *lp.Solution, k int) []float64 {
			return sol.X[len(sol.X)-k:]
		},
	})
}

// Slopes solves one dual LAD program per response column:
//
//	min −yᵗq  s.t. Xᵗq = 0, −1 ≤ q ≤ 1,
//
// and reads the coefficients from the negated equality duals.
func (e LADDP) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	return solveLAD(e.Name(), e.solver, x, y, ladProgram{
		build: func(x mat.Matrix, y []float64) *lp.Problem {
			n, k := x.Dims()
			return &lp.Problem{
				C:     negated(y),
				A:     mat.DenseCopyOf(x.T()),
				Ops:   ops(k, lp.EQ),
				B:     make([]float64, k),
				Lower: filled(n, -1),
				Upper: filled(n, 1),
			}
		},
		extract: func(sol *lp.Solution, k int) []float64 {
			return negated(sol.Dual[:k])
		},
	})
}

// Slopes solves one L1-penalized primal LAD program per response column:
//
//	min 1ᵗv⁺ + 1ᵗv⁻ + λ1ᵗψ⁺ + λ1ᵗψ⁻  s.t. v⁺ − v⁻ + X(ψ⁺ − ψ⁻) = y,
//
// with all variables non-negative and λ = 10^η·n/k. β = ψ⁺ − ψ⁻.
func (e RLADPP) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	return solveLAD(e.Name(), e.solver, x, y, ladProgram{
		build: func(x mat.Matrix, y []float64) *lp.Problem {
			n, k := x.Dims()
			lambda := penalty(e.eta, n, k)
			c := append(filled(2*n, 1), filled(2*k, lambda)...)
			return &lp.Problem{
				C:   c,
				A:   residualBlock(x, true),
				Ops: ops(n, lp.EQ),
				B:   y,
			}
		},
		extract: func(sol *lp.Solution, k int) []float64 {
			psi := sol.X[len(sol.X)-2*k:]
			beta := make([]float64, k)
			for i := range beta {
				beta[i] = psi[i] - psi[k+i]
			}
			return beta
		},
	})
}

// Slopes solves one L1-penalized dual LAD program per response column:
//
//	min −yᵗq  s.t. Xᵗq ≤ λ, −Xᵗq ≤ λ, −1 ≤ q ≤ 1,
//
// with λ = 10^η·n/k. With μ₁ and μ₂ the duals of the two inequality
// blocks, β = μ₂ − μ₁.
func (e RLADDP) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	return solveLAD(e.Name(), e.solver, x, y, ladProgram{
		build: func(x mat.Matrix, y []float64) *lp.Problem {
			n, k := x.Dims()
			lambda := penalty(e.eta, n, k)
			a := mat.NewDense(2*k, n, nil)
			for i := 0; i < k; i++ {
				for j := 0; j < n; j++ {
					v := x.At(j, i)
					a.Set(i, j, v)
					a.Set(k+i, j, -v)
				}
			}
			return &lp.Problem{
				C:     negated(y),
				A:     a,
				Ops:   ops(2*k, lp.LE),
				B:     filled(2*k, lambda),
				Lower: filled(n, -1),
				Upper: filled(n, 1),
			}
		},
		extract: func(sol *lp.Solution, k int) []float64 {
			beta := make([]float64, k)
			for i := range beta {
				beta[i] = sol.Dual[k+i] - sol.Dual[i]
			}
			return beta
		},
	})
}

// solveLAD runs prog on every column of y. Columns are independent; the
// error of the lowest failing column is returned.
func solveLAD(name string, solver lp.Solver, x, y mat.Matrix, prog ladProgram) (*mat.Dense, error) {
	if err := checkSlopesInput(name, x, y); err != nil {
		return nil, err
	}
	if solver == nil {
		solver = &lp.Simplex{}
	}
	n, k := x.Dims()
	_, r := y.Dims()
	logger := log.GetLogger().With(log.ModelNameKey, name, log.ComponentKey, "linear")

	beta := mat.NewDense(k, r, nil)
	solveColumn := func(j int) error {
		col := mat.Col(nil, j, y)
		p := prog.build(x, col)
		sol, err := solver.Solve(p)
		if err != nil {
			return errors.Wrapf(err, "%s.Slopes: response column %d", name, j)
		}
		coef := prog.extract(sol, k)
		// distinct columns of a Dense never share memory
		beta.SetCol(j, coef)
		logger.Debug("solved column program",
			log.OperationKey, log.OperationSolve,
			log.TargetsKey, j,
			log.ObjectiveKey, sol.Objective,
			log.ConstraintsKey, len(p.B),
			log.VariablesKey, len(p.C),
		)
		return nil
	}
	err := parallel.ForEach(r, ladColumnThreshold, func(j int) error {
		// a panic on a worker goroutine never reaches RegressMulti's recover
		return errors.SafeExecute(fmt.Sprintf("%s.Slopes column %d", name, j), func() error {
			return solveColumn(j)
		})
	})
	if err != nil {
		return nil, err
	}
	log.GetLogger().Debug("least absolute deviation complete",
		log.ModelNameKey, name,
		log.SamplesKey, n,
		log.FeaturesKey, k,
		log.TargetsKey, r,
	)
	return beta, nil
}

// residualBlock returns [I, −I, X] or, when split, [I, −I, X, −X].
func residualBlock(x mat.Matrix, split bool) *mat.Dense {
	n, k := x.Dims()
	cols := 2*n + k
	if split {
		cols += k
	}
	a := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
		a.Set(i, n+i, -1)
		for j := 0; j < k; j++ {
			v := x.At(i, j)
			a.Set(i, 2*n+j, v)
			if split {
				a.Set(i, 2*n+k+j, -v)
			}
		}
	}
	return a
}

func penalty(eta float64, n, k int) float64 {
	return math.Pow(10, eta) * float64(n) / float64(k)
}

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func negated(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

func ops(n int, op lp.Op) []lp.Op {
	s := make([]lp.Op, n)
	for i := range s {
		s[i] = op
	}
	return s
}
