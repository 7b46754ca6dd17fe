package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/optimize/lp"
	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

// design is a well-conditioned 8×3 matrix.
func design() *mat.Dense {
	return mat.NewDense(8, 3, []float64{
		1, 2, 0,
		0, 1, 3,
		2, 0, 1,
		1, 1, 1,
		3, -1, 2,
		-1, 2, 4,
		2, 3, -1,
		0, -2, 1,
	})
}

func linearResponse(x mat.Matrix, intercept float64, beta ...float64) *mat.VecDense {
	n, k := x.Dims()
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := intercept
		for j := 0; j < k; j++ {
			v += beta[j] * x.At(i, j)
		}
		y.SetVec(i, v)
	}
	return y
}

func noisyProblem(seed uint64, n, k int) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := 0.7
		for j := 0; j < k; j++ {
			v += float64(j+1) * x.At(i, j)
		}
		y.SetVec(i, v+0.3*rng.NormFloat64())
	}
	return x, y
}

func predictions(beta mat.Vector, x mat.Matrix, intercept bool) []float64 {
	n, k := x.Dims()
	out := make([]float64, n)
	off := 0
	if intercept {
		off = 1
	}
	for i := range out {
		if intercept {
			out[i] = beta.AtVec(0)
		}
		for j := 0; j < k; j++ {
			out[i] += beta.AtVec(j+off) * x.At(i, j)
		}
	}
	return out
}

func TestRegress_OLSWithIntercept(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{3, 5, 7, 9})

	ols, err := NewOLS()
	require.NoError(t, err)
	beta, err := Regress(ols, x, y)
	require.NoError(t, err)

	require.Equal(t, 2, beta.Len())
	assert.InDelta(t, 1.0, beta.AtVec(0), 1e-10)
	assert.InDelta(t, 2.0, beta.AtVec(1), 1e-10)
}

func TestRegress_NoiselessLeastSquares(t *testing.T) {
	x := design()
	y := linearResponse(x, 0, 1, -2, 0.5)
	plain := []Option{WithNormalize(false), WithIntercept(false)}

	ols, err := NewOLS(plain...)
	require.NoError(t, err)
	ldiv, err := NewLSLdiv(plain...)
	require.NoError(t, err)
	svd, err := NewLSSVD(plain...)
	require.NoError(t, err)
	ridge, err := NewRLSTikhonov(append(plain, WithEta(-14))...)
	require.NoError(t, err)
	tsvd, err := NewRLSSVD(plain...)
	require.NoError(t, err)

	for _, est := range []Estimator{ols, ldiv, svd, ridge, tsvd} {
		t.Run(est.Name(), func(t *testing.T) {
			beta, err := Regress(est, x, y)
			require.NoError(t, err)
			require.Equal(t, 3, beta.Len())
			assert.InDelta(t, 1.0, beta.AtVec(0), 1e-8)
			assert.InDelta(t, -2.0, beta.AtVec(1), 1e-8)
			assert.InDelta(t, 0.5, beta.AtVec(2), 1e-8)
		})
	}
}

func TestRegress_OLSWithoutInterceptOrNormalization(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	ols, err := NewOLS(WithNormalize(false), WithIntercept(false))
	require.NoError(t, err)
	beta, err := Regress(ols, x, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2}, beta.RawVector().Data, 1e-10)
}

func TestSlopes_NoiselessLeastAbsoluteDeviation(t *testing.T) {
	// LAD estimators always standardize through Regress; their slopes
	// still recover exact coefficients on the raw design.
	x := design()
	y := mat.NewDense(8, 1, linearResponse(x, 0, 1, -2, 0.5).RawVector().Data)

	for _, est := range []Estimator{
		LADPP{solver: &lp.Simplex{}},
		LADDP{solver: &lp.Simplex{}},
		RLADPP{eta: DefaultEta, solver: &lp.Simplex{}},
		RLADDP{eta: DefaultEta, solver: &lp.Simplex{}},
	} {
		t.Run(est.Name(), func(t *testing.T) {
			beta, err := est.Slopes(x, y)
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{1, -2, 0.5}, mat.Col(nil, 0, beta), 1e-7)
		})
	}
}

func TestRegress_InterceptWithoutNormalization(t *testing.T) {
	x := design()
	y := linearResponse(x, 4, 1, -2, 0.5)

	ldiv, err := NewLSLdiv(WithNormalize(false))
	require.NoError(t, err)
	beta, err := Regress(ldiv, x, y)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{4, 1, -2, 0.5}, beta.RawVector().Data, 1e-9)
}

func TestRegress_NoiselessLeastAbsoluteDeviation(t *testing.T) {
	x := design()
	y := linearResponse(x, 2, 1.5, -0.5, 0.25)

	ladpp, err := NewLADPP()
	require.NoError(t, err)
	laddp, err := NewLADDP()
	require.NoError(t, err)
	rladpp, err := NewRLADPP()
	require.NoError(t, err)
	rladdp, err := NewRLADDP()
	require.NoError(t, err)

	for _, est := range []Estimator{ladpp, laddp, rladpp, rladdp} {
		t.Run(est.Name(), func(t *testing.T) {
			beta, err := Regress(est, x, y)
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{2, 1.5, -0.5, 0.25}, beta.RawVector().Data, 1e-6)
		})
	}
}

func TestRegress_PrimalDualAgree(t *testing.T) {
	x, y := noisyProblem(7, 30, 3)

	ladpp, err := NewLADPP()
	require.NoError(t, err)
	laddp, err := NewLADDP()
	require.NoError(t, err)
	primal, err := Regress(ladpp, x, y)
	require.NoError(t, err)
	dual, err := Regress(laddp, x, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, primal.RawVector().Data, dual.RawVector().Data, 1e-6)

	rladpp, err := NewRLADPP(WithEta(-1))
	require.NoError(t, err)
	rladdp, err := NewRLADDP(WithEta(-1))
	require.NoError(t, err)
	primal, err = Regress(rladpp, x, y)
	require.NoError(t, err)
	dual, err = Regress(rladdp, x, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, primal.RawVector().Data, dual.RawVector().Data, 1e-6)
}

// collinearDesign returns a noisy 20×3 problem whose third column is the
// difference of the first two.
func collinearDesign() (*mat.Dense, *mat.VecDense) {
	base, y := noisyProblem(11, 20, 2)
	n, _ := base.Dims()
	x := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		a, b := base.At(i, 0), base.At(i, 1)
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		x.Set(i, 2, a-b)
	}
	return x, y
}

func TestSlopes_CollinearLeastAbsoluteDeviation(t *testing.T) {
	x, yv := collinearDesign()
	n, k := x.Dims()
	y := mat.NewDense(n, 1, yv.RawVector().Data)

	objective := func(beta mat.Matrix, lambda float64) float64 {
		f := 0.0
		for i := 0; i < n; i++ {
			r := y.At(i, 0)
			for j := 0; j < k; j++ {
				r -= beta.At(j, 0) * x.At(i, j)
			}
			f += math.Abs(r)
		}
		for j := 0; j < k; j++ {
			f += lambda * math.Abs(beta.At(j, 0))
		}
		return f
	}

	tests := []struct {
		name         string
		primal, dual Estimator
		lambda       float64
	}{
		{"LAD", LADPP{solver: &lp.Simplex{}}, LADDP{solver: &lp.Simplex{}}, 0},
		{"RLAD", RLADPP{eta: -1, solver: &lp.Simplex{}}, RLADDP{eta: -1, solver: &lp.Simplex{}}, penalty(-1, n, k)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primal, err := tt.primal.Slopes(x, y)
			require.NoError(t, err)
			dual, err := tt.dual.Slopes(x, y)
			require.NoError(t, err)
			for _, beta := range []*mat.Dense{primal, dual} {
				for j := 0; j < k; j++ {
					v := beta.At(j, 0)
					assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "beta[%d] = %v", j, v)
				}
			}
			// the optimum need not be unique, its value is
			assert.InDelta(t, objective(primal, tt.lambda), objective(dual, tt.lambda), 1e-7)
		})
	}
}

func TestRegress_CollinearLeastAbsoluteDeviation(t *testing.T) {
	// second column is twice the first
	x := mat.NewDense(6, 2, []float64{
		1, 2,
		2, 4,
		-1, -2,
		3, 6,
		0.5, 1,
		-2, -4,
	})
	y := mat.NewVecDense(6, []float64{2.3, 3.9, -2.2, 6.4, 0.8, -4.1})

	ladpp, err := NewLADPP()
	require.NoError(t, err)
	laddp, err := NewLADDP()
	require.NoError(t, err)
	rladpp, err := NewRLADPP()
	require.NoError(t, err)
	rladdp, err := NewRLADDP()
	require.NoError(t, err)

	l1 := func(beta *mat.VecDense) float64 {
		loss := 0.0
		for i, p := range predictions(beta, x, true) {
			loss += math.Abs(y.AtVec(i) - p)
		}
		return loss
	}

	losses := make(map[string]float64)
	for _, est := range []Estimator{ladpp, laddp, rladpp, rladdp} {
		t.Run(est.Name(), func(t *testing.T) {
			beta, err := Regress(est, x, y)
			require.NoError(t, err)
			require.Equal(t, 3, beta.Len())
			for _, v := range beta.RawVector().Data {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
			losses[est.Name()] = l1(beta)
		})
	}
	require.Len(t, losses, 4)
	assert.InDelta(t, losses[ladpp.Name()], losses[laddp.Name()], 1e-7)
}

func TestRegress_ScaleInvariance(t *testing.T) {
	x, y := noisyProblem(3, 25, 3)
	const c, d = 1e3, -0.01

	var xs mat.Dense
	xs.Scale(c, x)
	var ys mat.VecDense
	ys.ScaleVec(d, y)

	ols, err := NewOLS()
	require.NoError(t, err)
	lad, err := NewLADDP()
	require.NoError(t, err)

	for _, est := range []Estimator{ols, lad} {
		t.Run(est.Name(), func(t *testing.T) {
			beta, err := Regress(est, x, y)
			require.NoError(t, err)
			scaled, err := Regress(est, &xs, &ys)
			require.NoError(t, err)

			want := predictions(beta, x, true)
			got := predictions(scaled, &xs, true)
			for i := range want {
				assert.InDelta(t, d*want[i], got[i], 1e-8)
			}
		})
	}
}

func TestRegress_RLSSVDLargeKappaMatchesOLS(t *testing.T) {
	x, y := noisyProblem(11, 20, 4)
	plain := []Option{WithNormalize(false), WithIntercept(false)}

	ols, err := NewOLS(plain...)
	require.NoError(t, err)
	tsvd, err := NewRLSSVD(append(plain, WithKappa(1e300))...)
	require.NoError(t, err)

	want, err := Regress(ols, x, y)
	require.NoError(t, err)
	got, err := Regress(tsvd, x, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.RawVector().Data, got.RawVector().Data, 1e-9)
}

func TestRLSSVD_Truncation(t *testing.T) {
	// singular values 10 and 1
	x := mat.NewDense(3, 2, []float64{
		10, 0,
		0, 1,
		0, 0,
	})
	y := mat.NewDense(3, 1, []float64{10, 1, 0})

	tight, err := NewRLSSVD(WithKappa(5), WithNormalize(false), WithIntercept(false))
	require.NoError(t, err)
	beta, err := tight.Slopes(x, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0}, mat.Col(nil, 0, beta), 1e-12)

	loose, err := NewRLSSVD(WithKappa(20), WithNormalize(false), WithIntercept(false))
	require.NoError(t, err)
	beta, err = loose.Slopes(x, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1}, mat.Col(nil, 0, beta), 1e-12)
}

func TestSlopes_SingularDesign(t *testing.T) {
	x := mat.NewDense(3, 2, nil)
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	_, err := LSSVD{}.Slopes(x, y)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	_, err = LSLdiv{}.Slopes(x, y)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	// the pseudo-inverse degrades to zero coefficients instead of failing
	beta, err := OLS{}.Slopes(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, mat.Col(nil, 0, beta))
}

func TestRegress_NormalizeOnlyPath(t *testing.T) {
	x, y := noisyProblem(5, 15, 2)
	ym := mat.NewDense(15, 1, y.RawVector().Data)

	withIntercept, err := regress(true, true, OLS{}.Slopes, x, ym)
	require.NoError(t, err)
	slopesOnly, err := regress(true, false, OLS{}.Slopes, x, ym)
	require.NoError(t, err)

	rows, cols := slopesOnly.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.InDeltaSlice(t, mat.Col(nil, 0, withIntercept)[1:], mat.Col(nil, 0, slopesOnly), 1e-12)
}

func TestRegressMulti_ColumnsMatchSingleResponse(t *testing.T) {
	x := design()
	n, _ := x.Dims()
	const r = 5
	y := mat.NewDense(n, r, nil)
	for j := 0; j < r; j++ {
		y.SetCol(j, linearResponse(x, float64(j), 1, float64(-j), 0.5).RawVector().Data)
	}
	// mix exact fits with perturbed ones
	y.Set(0, 1, y.At(0, 1)+0.5)
	y.Set(3, 4, y.At(3, 4)-0.25)

	ols, err := NewOLS()
	require.NoError(t, err)
	lad, err := NewLADPP()
	require.NoError(t, err)

	for _, est := range []Estimator{ols, lad} {
		t.Run(est.Name(), func(t *testing.T) {
			beta, err := RegressMulti(est, x, y)
			require.NoError(t, err)
			rows, cols := beta.Dims()
			require.Equal(t, 4, rows)
			require.Equal(t, r, cols)

			for j := 0; j < r; j++ {
				single, err := Regress(est, x, y.ColView(j))
				require.NoError(t, err)
				assert.InDeltaSlice(t, single.RawVector().Data, mat.Col(nil, j, beta), 1e-8)
			}
		})
	}
}

func TestRegress_InputErrors(t *testing.T) {
	ols, err := NewOLS()
	require.NoError(t, err)
	x := design()

	_, err = Regress(nil, x, mat.NewVecDense(8, nil))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	_, err = Regress(ols, x, mat.NewVecDense(5, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 8, dimErr.Expected)
	assert.Equal(t, 5, dimErr.Got)

	_, err = RegressMulti(ols, &mat.Dense{}, mat.NewDense(1, 1, nil))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestRegress_Logs(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	log.SetLogger(logger)
	defer log.SetLogger(nil)

	ols, err := NewOLS()
	require.NoError(t, err)
	_, err = Regress(ols, design(), linearResponse(design(), 1, 1, 1, 1))
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("regression complete"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "OLS"))
}

type infeasibleSolver struct{}

func (infeasibleSolver) Solve(*lp.Problem) (*lp.Solution, error) {
	return nil, errors.NewSolverError("stub", "infeasible", errors.ErrInfeasible)
}

func TestRegress_SolverErrorsPropagate(t *testing.T) {
	lad, err := NewLADPP(WithSolver(infeasibleSolver{}))
	require.NoError(t, err)

	_, err = Regress(lad, design(), linearResponse(design(), 1, 1, 1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInfeasible))
	var se *errors.SolverError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "infeasible", se.Status)
}

type panickingSolver struct{}

func (panickingSolver) Solve(*lp.Problem) (*lp.Solution, error) {
	panic("solver exploded")
}

func TestRegressMulti_SolverPanicOnWorkerBecomesError(t *testing.T) {
	lad, err := NewLADDP(WithSolver(panickingSolver{}))
	require.NoError(t, err)

	x := design()
	n, _ := x.Dims()
	y := mat.NewDense(n, 2*ladColumnThreshold, nil)
	for j := 0; j < 2*ladColumnThreshold; j++ {
		y.SetCol(j, linearResponse(x, float64(j), 1, 2, 3).RawVector().Data)
	}

	_, err = RegressMulti(lad, x, y)
	require.Error(t, err)
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "solver exploded", pe.PanicValue)
	assert.Contains(t, pe.Operation, "column 0")
}
