// Package linalg collects the dense factorizations the estimators and the
// network trainer are built on: thin SVD, pseudo-inverse, numerical rank
// and least-squares solves. Everything is a thin layer over gonum/mat that
// turns factorization failures into stablefit errors.
package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

const eps = 0x1p-52

// ThinSVD factorizes a = U·diag(s)·Vᵗ with U m×r, V n×r and r = min(m, n).
// Singular values are returned in descending order.
func ThinSVD(a mat.Matrix) (u *mat.Dense, s []float64, v *mat.Dense, err error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, nil, nil, errors.NewModelError("linalg.ThinSVD", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	u, v = &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	return u, svd.Values(nil), v, nil
}

// Pinv returns the Moore-Penrose pseudo-inverse of a. Singular values
// below min(m, n)·eps·σ₁ are treated as zero, so rank-deficient inputs
// yield the minimum-norm inverse.
func Pinv(a mat.Matrix) (*mat.Dense, error) {
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, errors.NewModelError("linalg.Pinv", "empty matrix", errors.ErrEmptyData)
	}
	u, s, v, err := ThinSVD(a)
	if err != nil {
		return nil, err
	}

	tol := float64(min(m, n)) * eps * s[0]
	// scale the columns of V by 1/σ, dropping the negligible ones
	vs := mat.DenseCopyOf(v)
	r, _ := vs.Dims()
	for j, sv := range s {
		inv := 0.0
		if sv > tol {
			inv = 1 / sv
		}
		for i := 0; i < r; i++ {
			vs.Set(i, j, vs.At(i, j)*inv)
		}
	}

	pinv := mat.NewDense(n, m, nil)
	pinv.Mul(vs, u.T())
	return pinv, nil
}

// Rank returns the numerical rank of a: the number of singular values
// greater than min(m, n)·eps·σ₁.
func Rank(a mat.Matrix) (int, error) {
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return 0, nil
	}
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return 0, errors.NewModelError("linalg.Rank", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	s := svd.Values(nil)
	tol := float64(min(m, n)) * eps * s[0]
	rank := 0
	for _, sv := range s {
		if sv > tol {
			rank++
		}
	}
	return rank, nil
}

// SolveLeastSquares solves a·x ≈ b in the least-squares sense (LU for
// square a, QR for tall a, minimum norm for wide a). Any report of
// singularity or ill-conditioning from gonum is returned as an error
// marked with ErrSingularMatrix; the partial result is discarded.
func SolveLeastSquares(a, b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return nil, errors.NewModelError("linalg.SolveLeastSquares", "solve failed",
			errors.Mark(err, errors.ErrSingularMatrix))
	}
	return &x, nil
}

// SolveTolerant is SolveLeastSquares for callers that accept an
// ill-conditioned but finite solution. It falls back to the minimum-norm
// solution when gonum reports an exactly singular system.
func SolveTolerant(a, b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	err := x.Solve(a, b)
	if err == nil {
		return &x, nil
	}
	if cond, ok := err.(mat.Condition); ok && !math.IsInf(float64(cond), 1) && !hasNaN(&x) {
		return &x, nil
	}
	return MinNormSolve(a, b)
}

// MinNormSolve returns pinv(a)·b.
func MinNormSolve(a, b mat.Matrix) (*mat.Dense, error) {
	p, err := Pinv(a)
	if err != nil {
		return nil, err
	}
	var x mat.Dense
	x.Mul(p, b)
	return &x, nil
}

func hasNaN(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
