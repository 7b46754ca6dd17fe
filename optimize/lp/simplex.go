package lp

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

// DefaultTol is the reduced-cost and pivot tolerance of the simplex method.
const DefaultTol = 1e-9

// Simplex is a dense two-phase simplex method with Bland's rule as the
// anti-cycling fallback.
//
// Phase one starts from an all-artificial basis, so degenerate programs and
// programs whose equality rows are linearly dependent are solved without a
// factorization up front. Dependent rows are detected when their artificial
// cannot be pivoted out and get a dual value of zero. Dual values are read
// from the reduced costs of the artificial columns of the final basis.
type Simplex struct {
	// Tol overrides DefaultTol when positive.
	Tol float64
	// MaxIter caps the pivots over both phases. Zero means
	// 50·(rows+columns) + 1000 of the standard form.
	MaxIter int
	// Logger overrides log.GetLogger() when set.
	Logger log.Logger
}

var _ Solver = (*Simplex)(nil)

func (s *Simplex) tol() float64 {
	if s != nil && s.Tol > 0 {
		return s.Tol
	}
	return DefaultTol
}

func (s *Simplex) maxIter(rows, cols int) int {
	if s != nil && s.MaxIter > 0 {
		return s.MaxIter
	}
	return 50*(rows+cols) + 1000
}

func (s *Simplex) logger() log.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return log.GetLogger()
}

// Solve implements Solver.
func (s *Simplex) Solve(p *Problem) (sol *Solution, err error) {
	defer errors.Recover(&err, "lp.Simplex.Solve")

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sf := newStandardForm(p)
	m, n := p.A.Dims()
	rows, cols := sf.a.Dims()

	tb := newTableau(sf.a, sf.b, s.tol(), s.maxIter(rows, cols))
	u, lambda, err := tb.solve(sf.c)
	if err != nil {
		return nil, err
	}

	x := sf.primal(u)
	sol = &Solution{
		X:         x,
		Dual:      sf.dual(lambda),
		Objective: floats.Dot(p.C, x),
	}
	if err := errors.CheckScalar("lp.Simplex.Solve", sol.Objective, tb.iter); err != nil {
		return nil, err
	}
	s.logger().Debug("linear program solved",
		log.ComponentKey, "lp",
		log.OperationKey, log.OperationSolve,
		log.VariablesKey, n,
		log.ConstraintsKey, m,
		log.RankKey, rows-tb.redundant,
		log.IterationKey, tb.iter,
		log.ObjectiveKey, sol.Objective,
	)
	return sol, nil
}
