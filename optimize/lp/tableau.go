package lp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

// zeroTol is the magnitude below which tableau entries are snapped to zero
// after a pivot.
const zeroTol = 1e-12

// tableau is a dense two-phase simplex tableau for
//
//	minimize cᵀu  s.t.  A·u = b, u ≥ 0, b ≥ 0
//
// with one artificial column per row. Columns [0, n) are structural,
// [n, n+m) artificial and n+m is the right-hand side. Row m holds the
// reduced costs, with −z in its right-hand-side cell.
type tableau struct {
	t     *mat.Dense
	m, n  int
	basis []int

	tol     float64
	maxIter int
	iter    int

	// redundant counts rows whose artificial could not be pivoted out
	// after phase one. Their constraint is implied by the other rows.
	redundant int
}

func newTableau(a *mat.Dense, b []float64, tol float64, maxIter int) *tableau {
	m, n := a.Dims()
	t := mat.NewDense(m+1, n+m+1, nil)
	t.Slice(0, m, 0, n).(*mat.Dense).Copy(a)
	basis := make([]int, m)
	for i := 0; i < m; i++ {
		t.Set(i, n+i, 1)
		t.Set(i, n+m, b[i])
		basis[i] = n + i
	}
	return &tableau{t: t, m: m, n: n, basis: basis, tol: tol, maxIter: maxIter}
}

// solve runs both phases with structural costs c and returns the optimal
// standard-form point and the dual value of every row. Rows found redundant
// get a dual value of zero.
func (tb *tableau) solve(c []float64) (u, lambda []float64, err error) {
	rhs := tb.n + tb.m
	bmax := 0.0
	for i := 0; i < tb.m; i++ {
		bmax = math.Max(bmax, tb.t.At(i, rhs))
	}

	phase1 := make([]float64, tb.n+tb.m)
	for i := tb.n; i < len(phase1); i++ {
		phase1[i] = 1
	}
	tb.setObjective(phase1)
	if err := tb.optimize(); err != nil {
		return nil, nil, err
	}
	if infeas := -tb.t.At(tb.m, rhs); infeas > 1e3*tb.tol*(1+bmax) {
		return nil, nil, errors.NewSolverError("Simplex", "infeasible",
			errors.Mark(errors.Newf("phase one ended with infeasibility %g", infeas), errors.ErrInfeasible))
	}
	tb.driveOutArtificials()

	phase2 := make([]float64, tb.n+tb.m)
	copy(phase2, c)
	tb.setObjective(phase2)
	if err := tb.optimize(); err != nil {
		return nil, nil, err
	}

	u = make([]float64, tb.n)
	for i, j := range tb.basis {
		if j < tb.n {
			u[j] = tb.t.At(i, rhs)
		}
	}
	lambda = make([]float64, tb.m)
	obj := tb.t.RawRowView(tb.m)
	for i := range lambda {
		lambda[i] = -obj[tb.n+i]
	}
	return u, lambda, nil
}

// setObjective writes the reduced costs of cost relative to the current
// basis into the objective row.
func (tb *tableau) setObjective(cost []float64) {
	obj := tb.t.RawRowView(tb.m)
	for j := range obj {
		obj[j] = 0
	}
	copy(obj, cost)
	for i, j := range tb.basis {
		if cb := cost[j]; cb != 0 {
			floats.AddScaled(obj, -cb, tb.t.RawRowView(i))
		}
	}
}

// optimize pivots until no structural column has a negative reduced cost.
// Artificial columns never re-enter. Pricing switches from the most
// negative reduced cost to Bland's rule after a run of degenerate pivots.
func (tb *tableau) optimize() error {
	obj := tb.t.RawRowView(tb.m)
	rhs := tb.n + tb.m
	bland := false
	stalled := 0
	for {
		q := tb.entering(obj[:tb.n], bland)
		if q < 0 {
			return nil
		}
		r := tb.leaving(q)
		if r < 0 {
			return errors.NewSolverError("Simplex", "unbounded",
				errors.Mark(errors.Newf("column %d can grow without bound", q), errors.ErrUnbounded))
		}
		if tb.iter >= tb.maxIter {
			return errors.NewSolverError("Simplex", "iteration limit",
				errors.Newf("no optimum after %d pivots", tb.iter))
		}
		if tb.t.At(r, rhs) == 0 {
			stalled++
			if stalled > tb.m {
				bland = true
			}
		} else {
			stalled = 0
		}
		tb.pivot(r, q)
		tb.iter++
	}
}

// entering returns the column to bring into the basis, or -1 at optimality.
func (tb *tableau) entering(d []float64, bland bool) int {
	q, best := -1, -tb.tol
	for j, v := range d {
		if v < best {
			if bland {
				return j
			}
			q, best = j, v
		}
	}
	return q
}

// leaving applies the minimum ratio test to column q. Ties go to the row
// whose basic variable has the smallest index. It returns -1 when no
// entry of the column is positive.
func (tb *tableau) leaving(q int) int {
	rhs := tb.n + tb.m
	r := -1
	best := 0.0
	for i := 0; i < tb.m; i++ {
		a := tb.t.At(i, q)
		if a <= tb.tol {
			continue
		}
		ratio := tb.t.At(i, rhs) / a
		if r < 0 || ratio < best || (ratio == best && tb.basis[i] < tb.basis[r]) {
			r, best = i, ratio
		}
	}
	return r
}

func (tb *tableau) pivot(r, q int) {
	rhs := tb.n + tb.m
	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[q], pr)
	for i := 0; i <= tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		f := row[q]
		if f == 0 {
			continue
		}
		floats.AddScaled(row, -f, pr)
		for j, v := range row {
			if math.Abs(v) < zeroTol {
				row[j] = 0
			}
		}
		row[q] = 0
		if i < tb.m && row[rhs] < 0 {
			row[rhs] = 0
		}
	}
	pr[q] = 1
	if pr[rhs] < 0 {
		pr[rhs] = 0
	}
	tb.basis[r] = q
}

// driveOutArtificials replaces every artificial left in the basis at zero
// level by a structural column. A row with no usable structural entry is a
// linear combination of the others; its artificial stays basic at zero and
// the row is ignored from then on.
func (tb *tableau) driveOutArtificials() {
	for i, j := range tb.basis {
		if j < tb.n {
			continue
		}
		row := tb.t.RawRowView(i)
		q := floats.MaxIdx(absSlice(row[:tb.n]))
		if math.Abs(row[q]) <= tb.tol {
			for k := 0; k < tb.n; k++ {
				row[k] = 0
			}
			tb.redundant++
			continue
		}
		tb.pivot(i, q)
	}
}

func absSlice(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
