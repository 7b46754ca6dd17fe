// Package preprocessing standardizes design matrices and responses and maps
// coefficients fitted on standardized data back to the original units.
package preprocessing

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

// Normalize standardizes every column of x to zero mean and unit sample
// standard deviation (n−1 denominator). When hasIntercept is true the first
// column of x is taken to be an intercept column and is dropped, so z,
// mean and std describe the remaining columns only.
//
// Constant columns have zero standard deviation and produce Inf/NaN
// entries; callers must not pass them.
func Normalize(x mat.Matrix, hasIntercept bool) (z *mat.Dense, mean, std []float64, err error) {
	r, c := x.Dims()
	first := 0
	if hasIntercept {
		first = 1
	}
	if r == 0 || c-first <= 0 {
		return nil, nil, nil, errors.NewModelError("preprocessing.Normalize", "empty data", errors.ErrEmptyData)
	}

	k := c - first
	z = mat.NewDense(r, k, nil)
	mean = make([]float64, k)
	std = make([]float64, k)
	for j := 0; j < k; j++ {
		col := mat.NewVecDense(r, mat.Col(nil, j+first, x))
		zj, m, s, err := NormalizeVector(col)
		if err != nil {
			return nil, nil, nil, err
		}
		z.SetCol(j, zj.RawVector().Data)
		mean[j], std[j] = m, s
	}
	return z, mean, std, nil
}

// NormalizeVector standardizes a single column. Normalize applies it to
// every column of a matrix.
func NormalizeVector(y mat.Vector) (z *mat.VecDense, mean, std float64, err error) {
	n := y.Len()
	if n == 0 {
		return nil, 0, 0, errors.NewModelError("preprocessing.NormalizeVector", "empty data", errors.ErrEmptyData)
	}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = y.AtVec(i)
	}
	mean, std = stat.MeanStdDev(vals, nil)
	for i := range vals {
		vals[i] = (vals[i] - mean) / std
	}
	return mat.NewVecDense(n, vals), mean, std, nil
}

// Unnormalize maps slopes fitted on standardized data (k×r, one column per
// response) back to the original units: β[i][j] · stdY[j] / stdX[i]. When
// withIntercept is true the result has an extra leading row holding
// meanY[j] − Σᵢ β[i][j]·meanX[i].
func Unnormalize(beta mat.Matrix, meanX, stdX, meanY, stdY []float64, withIntercept bool) (*mat.Dense, error) {
	k, r := beta.Dims()
	if len(meanX) != k || len(stdX) != k {
		return nil, errors.NewDimensionError("preprocessing.Unnormalize", k, len(stdX), 1)
	}
	if len(meanY) != r || len(stdY) != r {
		return nil, errors.NewDimensionError("preprocessing.Unnormalize", r, len(stdY), 1)
	}

	first := 0
	if withIntercept {
		first = 1
	}
	out := mat.NewDense(k+first, r, nil)
	for j := 0; j < r; j++ {
		intercept := meanY[j]
		for i := 0; i < k; i++ {
			b := beta.At(i, j) * stdY[j] / stdX[i]
			out.Set(i+first, j, b)
			intercept -= b * meanX[i]
		}
		if withIntercept {
			out.Set(0, j, intercept)
		}
	}
	return out, nil
}
