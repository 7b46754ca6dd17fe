package linear

import (
	"github.com/YuminosukeSato/stablefit/optimize/lp"
)

// Defaults shared by the estimator constructors.
const (
	// DefaultEta is the default regularization exponent; the penalty is 10^η.
	DefaultEta = -5.0
	// DefaultKappa is the default condition-number threshold for RLSSVD.
	DefaultKappa = 1e5
	// LADCoefficientBound bounds every coefficient in the LADPP program.
	LADCoefficientBound = 300.0
)

type config struct {
	normalize bool
	intercept bool

	eta      float64
	etaSet   bool
	kappa    float64
	kappaSet bool
	solver   lp.Solver
}

// Option configures an estimator at construction.
type Option func(*config)

// WithNormalize sets whether columns are standardized before the slopes are
// computed. Normalization requires an intercept.
func WithNormalize(normalize bool) Option {
	return func(c *config) {
		c.normalize = normalize
	}
}

// WithIntercept sets whether an intercept is fitted.
func WithIntercept(intercept bool) Option {
	return func(c *config) {
		c.intercept = intercept
	}
}

// WithEta sets the regularization exponent η < 0 of RLSTikhonov, RLADPP and
// RLADDP.
func WithEta(eta float64) Option {
	return func(c *config) {
		c.eta = eta
		c.etaSet = true
	}
}

// WithKappa sets the condition-number threshold κ > 0 of RLSSVD.
func WithKappa(kappa float64) Option {
	return func(c *config) {
		c.kappa = kappa
		c.kappaSet = true
	}
}

// WithSolver replaces the linear-program solver used by the LAD variants.
func WithSolver(solver lp.Solver) Option {
	return func(c *config) {
		c.solver = solver
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		normalize: true,
		intercept: true,
		eta:       DefaultEta,
		kappa:     DefaultKappa,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) lpSolver() lp.Solver {
	if c.solver != nil {
		return c.solver
	}
	return &lp.Simplex{}
}
