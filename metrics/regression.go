// Package metrics scores fitted regressors against observed responses.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

// residuals validates the pair and returns copies of both vectors together
// with yTrue − yPred.
func residuals(op string, yTrue, yPred mat.Vector) (truth, diff []float64, err error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	truth = make([]float64, n)
	diff = make([]float64, n)
	for i := 0; i < n; i++ {
		truth[i] = yTrue.AtVec(i)
		diff[i] = truth[i] - yPred.AtVec(i)
	}
	return truth, diff, nil
}

// MSE returns the mean squared error.
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	_, diff, err := residuals("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// RMSE returns the root mean squared error.
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	_, diff, err := residuals("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}

// MaxError returns the largest absolute residual.
func MaxError(yTrue, yPred mat.Vector) (float64, error) {
	_, diff, err := residuals("MaxError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, math.Inf(1)), nil
}

// R2Score returns the coefficient of determination 1 − RSS/TSS. A constant
// yTrue has no variance and is an error.
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	truth, diff, err := residuals("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(truth, nil)
	var tss float64
	for _, v := range truth {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - floats.Dot(diff, diff)/tss, nil
}

// ExplainedVarianceScore returns 1 − Var(yTrue − yPred)/Var(yTrue).
func ExplainedVarianceScore(yTrue, yPred mat.Vector) (float64, error) {
	truth, diff, err := residuals("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// population variances; the normalization cancels
	_, varTrue := stat.PopMeanVariance(truth, nil)
	if varTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	_, varDiff := stat.PopMeanVariance(diff, nil)
	return 1 - varDiff/varTrue, nil
}
