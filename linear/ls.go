package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/core/linalg"
	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

// Slopes returns pinv(XᵗX)·Xᵗy.
func (e OLS) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	if err := checkSlopesInput(e.Name(), x, y); err != nil {
		return nil, err
	}
	var gram mat.Dense
	gram.Mul(x.T(), x)
	return normalEquations(e.Name(), &gram, x, y)
}

// Slopes returns the least-squares solution of Xβ = y computed by QR. A
// singular or ill-conditioned X is reported as ErrSingularMatrix.
func (e LSLdiv) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	if err := checkSlopesInput(e.Name(), x, y); err != nil {
		return nil, err
	}
	beta, err := linalg.SolveLeastSquares(x, y)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.Slopes", e.Name())
	}
	return beta, nil
}

// Slopes returns V·S⁻¹·Uᵗ·y from the thin SVD of X. Any zero singular value
// is reported as ErrSingularMatrix.
func (e LSSVD) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	if err := checkSlopesInput(e.Name(), x, y); err != nil {
		return nil, err
	}
	u, s, v, err := linalg.ThinSVD(x)
	if err != nil {
		return nil, err
	}
	for i, sv := range s {
		if sv == 0 {
			return nil, errors.NewModelError(e.Name()+".Slopes", "zero singular value",
				errors.Wrapf(errors.ErrSingularMatrix, "singular value %d of %d", i+1, len(s)))
		}
	}
	return svdSolve(u, s, v, len(s), y), nil
}

// Slopes returns pinv(XᵗX + (n/k)·10^η·I)·Xᵗy.
func (e RLSTikhonov) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	if err := checkSlopesInput(e.Name(), x, y); err != nil {
		return nil, err
	}
	n, k := x.Dims()
	lambda := float64(n) / float64(k) * math.Pow(10, e.eta)

	var gram mat.Dense
	gram.Mul(x.T(), x)
	for i := 0; i < k; i++ {
		gram.Set(i, i, gram.At(i, i)+lambda)
	}
	return normalEquations(e.Name(), &gram, x, y)
}

// Slopes solves least squares on the leading singular triplets of X whose
// ratio S₁/Sᵢ does not exceed κ. At least one triplet is always kept.
func (e RLSSVD) Slopes(x, y mat.Matrix) (*mat.Dense, error) {
	if err := checkSlopesInput(e.Name(), x, y); err != nil {
		return nil, err
	}
	u, s, v, err := linalg.ThinSVD(x)
	if err != nil {
		return nil, err
	}
	_, k := x.Dims()
	_, r := y.Dims()
	if s[0] == 0 {
		// X is identically zero
		return mat.NewDense(k, r, nil), nil
	}

	keep := 1
	for keep < len(s) && s[0]/s[keep] <= e.kappa {
		keep++
	}
	log.GetLogger().Debug("truncated singular values",
		log.ModelNameKey, e.Name(),
		log.RetainedKey, keep,
		log.RankKey, len(s),
	)
	return svdSolve(u, s, v, keep, y), nil
}

// normalEquations returns pinv(gram)·Xᵗy.
func normalEquations(name string, gram *mat.Dense, x, y mat.Matrix) (*mat.Dense, error) {
	p, err := linalg.Pinv(gram)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.Slopes", name)
	}
	var xty mat.Dense
	xty.Mul(x.T(), y)
	beta := &mat.Dense{}
	beta.Mul(p, &xty)
	return beta, nil
}

// svdSolve returns V_r·S_r⁻¹·U_rᵗ·y using the first r singular triplets.
func svdSolve(u *mat.Dense, s []float64, v *mat.Dense, r int, y mat.Matrix) *mat.Dense {
	m, _ := u.Dims()
	k, _ := v.Dims()
	ur := u.Slice(0, m, 0, r)
	vr := v.Slice(0, k, 0, r)

	var uty mat.Dense
	uty.Mul(ur.T(), y)
	_, cols := uty.Dims()
	for i := 0; i < r; i++ {
		inv := 1 / s[i]
		for j := 0; j < cols; j++ {
			uty.Set(i, j, uty.At(i, j)*inv)
		}
	}

	beta := &mat.Dense{}
	beta.Mul(vr, &uty)
	return beta
}

func checkSlopesInput(name string, x, y mat.Matrix) error {
	op := name + ".Slopes"
	n, k := x.Dims()
	if n == 0 || k == 0 {
		return errors.NewModelError(op, "empty design matrix", errors.ErrEmptyData)
	}
	ny, r := y.Dims()
	if ny != n {
		return errors.NewDimensionError(op, n, ny, 0)
	}
	if r == 0 {
		return errors.NewModelError(op, "empty response", errors.ErrEmptyData)
	}
	return nil
}
