package network

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/stablefit/core/linalg"
	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

// trainer owns the weights and the activation matrix while a network is
// being fitted. Nothing else holds a reference to them until network()
// hands them over.
type trainer struct {
	x   *mat.Dense
	y   *mat.VecDense
	p   int
	q   int
	s   int
	act Activation

	w *mat.Dense    // q×s
	d []float64     // s
	h *mat.Dense    // p×s activation matrix
	v *mat.VecDense // s

	retries int
	weights distuv.Normal
	maxIter int
	tol     float64
	logger  log.Logger
}

func newTrainer(x mat.Matrix, y mat.Vector, cfg *config) *trainer {
	p, q := x.Dims()
	return &trainer{
		x:       mat.DenseCopyOf(x),
		y:       mat.VecDenseCopyOf(y),
		p:       p,
		q:       q,
		s:       cfg.neurons,
		act:     cfg.activation,
		w:       mat.NewDense(q, cfg.neurons, nil),
		d:       make([]float64, cfg.neurons),
		weights: distuv.Normal{Mu: 0, Sigma: cfg.scale, Src: cfg.src},
		maxIter: cfg.maxIter,
		tol:     cfg.tol,
		logger: cfg.logger.With(
			log.ModelNameKey, "AlgebraicNetwork",
			log.ComponentKey, "network",
			log.SamplesKey, p,
			log.FeaturesKey, q,
			log.NeuronsKey, cfg.neurons,
		),
	}
}

// draw samples new hidden weights and rebuilds the activation matrix.
// Neuron i is anchored at training point i: its bias puts x_i at z = 0.
func (t *trainer) draw() {
	for i := 0; i < t.q; i++ {
		for j := 0; j < t.s; j++ {
			t.w.Set(i, j, t.weights.Rand())
		}
	}
	for i := 0; i < t.s; i++ {
		t.d[i] = t.anchorBias(i)
	}
	t.h = hidden(t.x, t.w, t.d, t.act.Eval)
}

func (t *trainer) anchorBias(i int) float64 {
	return -mat.Dot(t.x.RowView(i), t.w.ColView(i))
}

// randomFit draws weights until the activation matrix has full column rank
// and solves for the output weights. If every draw is rank deficient the
// last one is kept, a ConvergenceWarning is emitted and the output weights
// are the minimum-norm least-squares solution.
func (t *trainer) randomFit() error {
	t.logger.Debug("fitting network", log.OperationKey, log.OperationFit, log.PhaseKey, log.PhaseTraining)

	for it := 1; ; it++ {
		t.draw()
		rank, err := linalg.Rank(t.h)
		if err != nil {
			return err
		}
		if rank == t.s {
			t.logger.Debug("activation matrix has full rank",
				log.IterationKey, it,
				log.RetriesKey, t.retries,
			)
			return t.solve(false)
		}
		if it >= t.maxIter {
			warning := errors.NewConvergenceWarning("AlgebraicNetwork", it,
				fmt.Sprintf("activation matrix rank %d is below %d neurons", rank, t.s))
			errors.Warn(errors.Mark(warning, errors.ErrRankDeficient))
			t.logger.Warn("keeping rank-deficient draw",
				log.IterationKey, it,
				log.RankKey, rank,
				log.ErrorCodeKey, log.ErrorConvergence,
			)
			return t.solve(true)
		}
		t.retries++
		t.logger.Debug("activation matrix is rank deficient, redrawing",
			log.IterationKey, it,
			log.RankKey, rank,
		)
	}
}

// solve sets v to the least-squares solution of h·v = y.
func (t *trainer) solve(minNorm bool) error {
	var (
		sol *mat.Dense
		err error
	)
	if minNorm {
		sol, err = linalg.MinNormSolve(t.h, t.y)
	} else {
		sol, err = linalg.SolveTolerant(t.h, t.y)
	}
	if err != nil {
		return errors.NewModelError("network.solve", "output weights", err)
	}
	if err := errors.CheckMatrix("network.solve", sol, t.s, 1, t.retries); err != nil {
		return err
	}
	t.v = mat.VecDenseCopyOf(sol.ColView(0))
	return nil
}

// refine visits neurons in order. For neuron i it compares the network's
// gradient at x_i with grads[i] and, when they differ by more than tol,
// takes one Newton step on W[:,i]. The output weights are re-solved after
// every accepted step, so later neurons see the updated network.
func (t *trainer) refine(grads mat.Matrix) error {
	target := make([]float64, t.q)
	diff := make([]float64, t.q)
	wNew := make([]float64, t.q)
	var accepted, rejected, skipped int

	for i := 0; i < t.s; i++ {
		xi := t.x.RawRowView(i)
		mat.Row(target, i, grads)
		g := gradientAt(xi, t.w, t.d, t.v, t.act)
		floats.SubTo(diff, target, g)
		if floats.Norm(diff, 2) <= t.tol {
			continue
		}

		// dg/dW[:,i] = v_i σ'(z_ii) while the bias keeps z_ii at the anchor
		zii := mat.Dot(t.x.RowView(i), t.w.ColView(i)) + t.d[i]
		sens := t.v.AtVec(i) * t.act.Deriv(zii)
		if sens == 0 || math.IsNaN(sens) {
			skipped++
			continue
		}
		mat.Col(wNew, i, t.w)
		floats.AddScaled(wNew, 1/sens, diff)
		if err := errors.CheckNumericalStability("network.refine", wNew, i); err != nil {
			return err
		}
		if floats.Norm(wNew, math.Inf(1)) > WeightBound {
			rejected++
			continue
		}

		t.w.SetCol(i, wNew)
		t.d[i] = t.anchorBias(i)
		for r := 0; r < t.p; r++ {
			t.h.Set(r, i, t.act.Eval(floats.Dot(t.x.RawRowView(r), wNew)+t.d[i]))
		}
		if err := t.solve(false); err != nil {
			return errors.Wrapf(err, "refining neuron %d", i)
		}
		accepted++
	}

	t.logger.Debug("gradient refinement complete",
		log.OperationKey, log.OperationRefine,
		log.RefineAcceptedKey, accepted,
		log.RefineRejectedKey, rejected,
		log.RefineSkippedKey, skipped,
	)
	return nil
}

// network hands the trained state to a new AlgebraicNetwork.
func (t *trainer) network() *AlgebraicNetwork {
	net := &AlgebraicNetwork{
		P:          t.p,
		Q:          t.q,
		S:          t.s,
		NTrainIt:   t.retries,
		Activation: t.act,
		W:          t.w,
		D:          mat.NewVecDense(t.s, t.d),
		V:          t.v,
	}
	net.MarkFitted(t.p, t.q)
	t.w, t.d, t.h, t.v = nil, nil, nil, nil
	return net
}
