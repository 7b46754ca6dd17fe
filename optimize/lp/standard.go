package lp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// colRef is one standard-form column contributing sign·u to a variable.
type colRef struct {
	col  int
	sign float64
}

// standardForm is the problem rewritten as
//
//	minimize cᵀu  s.t.  A·u = b, u ≥ 0, b ≥ 0
//
// with every variable expressed as offset + Σ sign·u[col]. Rows m and
// beyond hold the upper bounds of boxed variables.
type standardForm struct {
	c []float64
	a *mat.Dense
	b []float64

	constant float64
	offset   []float64
	cols     [][]colRef
	flip     []float64 // per full row, ±1
	userRows int
}

func newStandardForm(p *Problem) *standardForm {
	m, n := p.A.Dims()
	sf := &standardForm{
		offset:   make([]float64, n),
		cols:     make([][]colRef, n),
		userRows: m,
	}

	// variables: shift finite lower bounds to zero, mirror upper-only
	// bounds and split free variables
	nVar := 0
	var boxed []int
	for j := 0; j < n; j++ {
		lo, hi := p.lower(j), p.upper(j)
		switch {
		case !math.IsInf(lo, -1):
			sf.offset[j] = lo
			sf.cols[j] = []colRef{{nVar, 1}}
			if !math.IsInf(hi, 1) {
				boxed = append(boxed, j)
			}
			nVar++
		case !math.IsInf(hi, 1):
			sf.offset[j] = hi
			sf.cols[j] = []colRef{{nVar, -1}}
			nVar++
		default:
			sf.cols[j] = []colRef{{nVar, 1}, {nVar + 1, -1}}
			nVar += 2
		}
	}

	nSlack := 0
	for _, o := range p.Ops {
		if o != EQ {
			nSlack++
		}
	}

	rows := m + len(boxed)
	total := nVar + nSlack + len(boxed)
	a := mat.NewDense(rows, total, nil)
	b := make([]float64, rows)
	c := make([]float64, total)

	for j := 0; j < n; j++ {
		for _, ref := range sf.cols[j] {
			c[ref.col] = p.C[j] * ref.sign
		}
		sf.constant += p.C[j] * sf.offset[j]
	}

	slack := nVar
	for i := 0; i < m; i++ {
		rhs := p.B[i]
		for j := 0; j < n; j++ {
			aij := p.A.At(i, j)
			if aij == 0 {
				continue
			}
			rhs -= aij * sf.offset[j]
			for _, ref := range sf.cols[j] {
				a.Set(i, ref.col, aij*ref.sign)
			}
		}
		switch p.Ops[i] {
		case LE:
			a.Set(i, slack, 1)
			slack++
		case GE:
			a.Set(i, slack, -1)
			slack++
		}
		b[i] = rhs
	}
	for k, j := range boxed {
		row := m + k
		a.Set(row, sf.cols[j][0].col, 1)
		a.Set(row, slack, 1)
		slack++
		b[row] = p.upper(j) - p.lower(j)
	}

	sf.flip = make([]float64, rows)
	for i := range b {
		sf.flip[i] = 1
		if b[i] < 0 {
			sf.flip[i] = -1
			b[i] = -b[i]
			floats.Scale(-1, a.RawRowView(i))
		}
	}

	sf.a, sf.b, sf.c = a, b, c
	return sf
}

// primal maps a standard-form solution back to the caller's variables.
func (sf *standardForm) primal(u []float64) []float64 {
	x := make([]float64, len(sf.cols))
	for j, refs := range sf.cols {
		x[j] = sf.offset[j]
		for _, ref := range refs {
			x[j] += ref.sign * u[ref.col]
		}
	}
	return x
}

// dual maps standard-form dual values back to the caller's rows. Internal
// bound rows are not reported.
func (sf *standardForm) dual(lambda []float64) []float64 {
	out := make([]float64, sf.userRows)
	for i := range out {
		out[i] = sf.flip[i] * lambda[i]
	}
	return out
}
