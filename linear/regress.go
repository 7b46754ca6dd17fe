package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
	"github.com/YuminosukeSato/stablefit/preprocessing"
)

type slopesFunc func(x, y mat.Matrix) (*mat.Dense, error)

// Regress fits a single response. The result has k coefficients, preceded
// by the intercept when est.ShouldAddIntercept() is true.
func Regress(est Estimator, x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	if y == nil {
		return nil, errors.NewValueError("linear.Regress", "response is nil")
	}
	n := y.Len()
	if n == 0 {
		return nil, errors.NewModelError("linear.Regress", "empty response", errors.ErrEmptyData)
	}
	ym := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		ym.Set(i, 0, y.AtVec(i))
	}
	beta, err := RegressMulti(est, x, ym)
	if err != nil {
		return nil, err
	}
	return mat.VecDenseCopyOf(beta.ColView(0)), nil
}

// RegressMulti fits every column of y. The result is k×r, or (k+1)×r with
// the intercepts in row 0 when est.ShouldAddIntercept() is true.
//
// When est.ShouldNormalize() is true, x and y are standardized column-wise,
// the slopes are computed on the standardized data and then mapped back to
// the original units. Without normalization an intercept is fitted by
// prepending a column of ones to x.
func RegressMulti(est Estimator, x, y mat.Matrix) (beta *mat.Dense, err error) {
	const op = "linear.Regress"
	defer errors.Recover(&err, op)

	if est == nil {
		return nil, errors.NewValueError(op, "estimator is nil")
	}
	if x == nil || y == nil {
		return nil, errors.NewValueError(op, "input is nil")
	}
	n, k := x.Dims()
	if n == 0 || k == 0 {
		return nil, errors.NewModelError(op, "empty design matrix", errors.ErrEmptyData)
	}
	ny, r := y.Dims()
	if ny != n {
		return nil, errors.NewDimensionError(op, n, ny, 0)
	}
	if r == 0 {
		return nil, errors.NewModelError(op, "empty response", errors.ErrEmptyData)
	}

	start := time.Now()
	beta, err = regress(est.ShouldNormalize(), est.ShouldAddIntercept(), est.Slopes, x, y)
	if err != nil {
		return nil, errors.Wrapf(err, "%s with %s", op, est.Name())
	}
	rows, cols := beta.Dims()
	if err := errors.CheckMatrix(op, beta, rows, cols, 0); err != nil {
		return nil, err
	}

	log.GetLogger().Debug("regression complete",
		log.ModelNameKey, est.Name(),
		log.OperationKey, log.OperationRegress,
		log.SamplesKey, n,
		log.FeaturesKey, k,
		log.TargetsKey, r,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return beta, nil
}

func regress(normalize, intercept bool, slopes slopesFunc, x, y mat.Matrix) (*mat.Dense, error) {
	if !normalize {
		if intercept {
			x = withOnes(x)
		}
		return slopes(x, y)
	}

	xz, meanX, stdX, err := preprocessing.Normalize(x, false)
	if err != nil {
		return nil, err
	}
	yz, meanY, stdY, err := preprocessing.Normalize(y, false)
	if err != nil {
		return nil, err
	}
	b, err := slopes(xz, yz)
	if err != nil {
		return nil, err
	}
	return preprocessing.Unnormalize(b, meanX, stdX, meanY, stdY, intercept)
}

// withOnes returns [1 x].
func withOnes(x mat.Matrix) *mat.Dense {
	n, k := x.Dims()
	out := mat.NewDense(n, k+1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, 1)
		for j := 0; j < k; j++ {
			out.Set(i, j+1, x.At(i, j))
		}
	}
	return out
}
