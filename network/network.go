// Package network fits single-hidden-layer approximators without gradient
// descent. Hidden weights are drawn at random until the activation matrix
// has full column rank, and the output weights come from one linear solve.
// When gradients of the target are available, a sequential pass nudges each
// neuron's weights so the network's gradient at its anchor point matches.
//
// With as many neurons as samples the network interpolates the training
// data exactly.
package network

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/core/model"
	"github.com/YuminosukeSato/stablefit/metrics"
	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

// AlgebraicNetwork is a fitted network x ↦ σ(xW + d)·v. Its fields are
// read-only once Fit returns.
type AlgebraicNetwork struct {
	model.FitState

	// P is the number of training samples, Q the input dimension and S the
	// number of hidden neurons (S ≤ P).
	P, Q, S int
	// NTrainIt counts the rank-deficient weight draws that were discarded.
	NTrainIt   int
	Activation Activation

	W *mat.Dense    // Q×S hidden weights
	D *mat.VecDense // S hidden biases
	V *mat.VecDense // S output weights
}

var _ model.Regressor = (*AlgebraicNetwork)(nil)

// Fit trains a network on the rows of x (p×q) and the responses y.
func Fit(x mat.Matrix, y mat.Vector, opts ...Option) (*AlgebraicNetwork, error) {
	return fit("network.Fit", x, y, nil, opts)
}

// FitWithGradients trains a network on x and y, then refines the hidden
// weights so the network's gradient at the first S training points matches
// the rows of grads (p×q).
func FitWithGradients(x mat.Matrix, y mat.Vector, grads mat.Matrix, opts ...Option) (*AlgebraicNetwork, error) {
	if grads == nil {
		return nil, errors.NewValueError("network.FitWithGradients", "gradients are nil")
	}
	return fit("network.FitWithGradients", x, y, grads, opts)
}

func fit(op string, x mat.Matrix, y mat.Vector, grads mat.Matrix, opts []Option) (net *AlgebraicNetwork, err error) {
	defer errors.Recover(&err, op)

	if x == nil || y == nil {
		return nil, errors.NewValueError(op, "input is nil")
	}
	p, q := x.Dims()
	if p == 0 || q == 0 {
		return nil, errors.NewModelError(op, "empty design matrix", errors.ErrEmptyData)
	}
	if y.Len() != p {
		return nil, errors.NewDimensionError(op, p, y.Len(), 0)
	}
	if grads != nil {
		gr, gc := grads.Dims()
		if gr != p {
			return nil, errors.NewDimensionError(op, p, gr, 0)
		}
		if gc != q {
			return nil, errors.NewDimensionError(op, q, gc, 1)
		}
	}

	cfg := newConfig(opts)
	if err := cfg.validate(p); err != nil {
		return nil, err
	}

	tr := newTrainer(x, y, cfg)
	if err := tr.randomFit(); err != nil {
		return nil, err
	}
	if grads != nil {
		if err := tr.refine(grads); err != nil {
			return nil, err
		}
	}
	net = tr.network()
	if cfg.logger.Enabled(context.Background(), log.LevelDebug) {
		logTrainingResidual(cfg.logger, net, x, y)
	}
	return net, nil
}

// logTrainingResidual reports the RMSE on the training data, which is zero
// up to rounding for an exact network.
func logTrainingResidual(logger log.Logger, net *AlgebraicNetwork, x mat.Matrix, y mat.Vector) {
	pred, err := net.Predict(x)
	if err != nil {
		return
	}
	rmse, err := metrics.RMSE(y, pred)
	if err != nil {
		return
	}
	logger.Debug("network fitted",
		log.ModelNameKey, "AlgebraicNetwork",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, net.P,
		log.NeuronsKey, net.S,
		log.ResidualKey, rmse,
	)
}

// IsExact reports whether the network has one neuron per training sample,
// in which case it interpolates the training data.
func (n *AlgebraicNetwork) IsExact() bool {
	return n.S == n.P
}

// Predict evaluates the network on every row of x, which must have Q
// columns.
func (n *AlgebraicNetwork) Predict(x mat.Matrix) (_ *mat.VecDense, err error) {
	const op = "AlgebraicNetwork.Predict"
	defer errors.Recover(&err, op)

	if !n.IsFitted() {
		return nil, errors.NewNotFittedError("AlgebraicNetwork", "Predict")
	}
	rows, cols := x.Dims()
	if _, q := n.Shape(); cols != q {
		return nil, errors.NewDimensionError(op, q, cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewModelError(op, "empty input", errors.ErrEmptyData)
	}

	h := hidden(x, n.W, n.D.RawVector().Data, n.Activation.Eval)
	out := mat.NewVecDense(rows, nil)
	out.MulVec(h, n.V)
	return out, nil
}

// PredictOne evaluates the network at a single point.
func (n *AlgebraicNetwork) PredictOne(x []float64) (float64, error) {
	if !n.IsFitted() {
		return 0, errors.NewNotFittedError("AlgebraicNetwork", "PredictOne")
	}
	if _, q := n.Shape(); len(x) != q {
		return 0, errors.NewDimensionError("AlgebraicNetwork.PredictOne", q, len(x), 1)
	}
	out, err := n.Predict(mat.NewDense(1, len(x), x))
	if err != nil {
		return 0, err
	}
	return out.AtVec(0), nil
}

// Gradient returns the gradient of the network output with respect to x.
func (n *AlgebraicNetwork) Gradient(x []float64) ([]float64, error) {
	if !n.IsFitted() {
		return nil, errors.NewNotFittedError("AlgebraicNetwork", "Gradient")
	}
	if _, q := n.Shape(); len(x) != q {
		return nil, errors.NewDimensionError("AlgebraicNetwork.Gradient", q, len(x), 1)
	}
	return gradientAt(x, n.W, n.D.RawVector().Data, n.V, n.Activation), nil
}

// Score returns the coefficient of determination of the predictions on x
// against y.
func (n *AlgebraicNetwork) Score(x mat.Matrix, y mat.Vector) (float64, error) {
	pred, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	score, err := metrics.R2Score(y, pred)
	if err != nil {
		return 0, errors.Wrap(err, "AlgebraicNetwork.Score")
	}
	log.GetLogger().Debug("scored network",
		log.ModelNameKey, "AlgebraicNetwork",
		log.OperationKey, log.OperationPredict,
		log.SamplesKey, y.Len(),
	)
	return score, nil
}

// hidden returns the activation matrix act(xW + 1dᵀ).
func hidden(x mat.Matrix, w *mat.Dense, d []float64, act func(float64) float64) *mat.Dense {
	var h mat.Dense
	h.Mul(x, w)
	h.Apply(func(_, j int, z float64) float64 {
		return act(z + d[j])
	}, &h)
	return &h
}

// gradientAt returns Σⱼ vⱼ σ'(zⱼ) W[:,j] with z = xW + d.
func gradientAt(x []float64, w *mat.Dense, d []float64, v mat.Vector, act Activation) []float64 {
	q, s := w.Dims()
	xv := mat.NewVecDense(q, x)
	coef := mat.NewVecDense(s, nil)
	for j := 0; j < s; j++ {
		z := mat.Dot(xv, w.ColView(j)) + d[j]
		coef.SetVec(j, v.AtVec(j)*act.Deriv(z))
	}
	g := mat.NewVecDense(q, nil)
	g.MulVec(w, coef)
	return g.RawVector().Data
}
