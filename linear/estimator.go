// Package linear provides linear-regression estimators chosen for numerical
// stability on ill-conditioned or collinear designs, and the Regress
// dispatcher that applies normalization and intercept handling uniformly
// across them.
//
// Least-squares variants: OLS, LSLdiv, LSSVD, RLSTikhonov, RLSSVD.
// Least-absolute-deviation variants, solved as linear programs in primal or
// dual form: LADPP, LADDP, RLADPP, RLADDP.
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stablefit/optimize/lp"
	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

// Estimator computes regression slopes. The set of implementations is closed.
type Estimator interface {
	// ShouldNormalize reports whether Regress standardizes x and y first.
	ShouldNormalize() bool
	// ShouldAddIntercept reports whether Regress fits an intercept.
	ShouldAddIntercept() bool
	// Slopes returns the k×r coefficients for x (n×k) and y (n×r). No
	// normalization or intercept handling is applied.
	Slopes(x, y mat.Matrix) (*mat.Dense, error)
	// Name identifies the variant and its hyperparameters.
	Name() string

	estimator()
}

type flags struct {
	normalize bool
	intercept bool
}

func (f flags) ShouldNormalize() bool    { return f.normalize }
func (f flags) ShouldAddIntercept() bool { return f.intercept }
func (flags) estimator()                 {}

// OLS solves the normal equations through the pseudo-inverse of XᵗX.
type OLS struct{ flags }

// LSLdiv solves the least-squares problem by QR factorization.
type LSLdiv struct{ flags }

// LSSVD solves the least-squares problem through the thin SVD of X.
type LSSVD struct{ flags }

// RLSTikhonov is ridge regression with penalty (n/k)·10^η.
type RLSTikhonov struct {
	flags
	eta float64
}

// RLSSVD is truncated-SVD least squares: singular values with S₁/Sᵢ > κ are
// discarded.
type RLSSVD struct {
	flags
	kappa float64
}

// LADPP is least absolute deviation solved as the primal linear program.
type LADPP struct {
	flags
	solver lp.Solver
}

// LADDP is least absolute deviation solved as the dual linear program; the
// coefficients are read from the constraint duals.
type LADDP struct {
	flags
	solver lp.Solver
}

// RLADPP is L1-penalized least absolute deviation, primal form.
type RLADPP struct {
	flags
	eta    float64
	solver lp.Solver
}

// RLADDP is L1-penalized least absolute deviation, dual form.
type RLADDP struct {
	flags
	eta    float64
	solver lp.Solver
}

var (
	_ Estimator = OLS{}
	_ Estimator = LSLdiv{}
	_ Estimator = LSSVD{}
	_ Estimator = RLSTikhonov{}
	_ Estimator = RLSSVD{}
	_ Estimator = LADPP{}
	_ Estimator = LADDP{}
	_ Estimator = RLADPP{}
	_ Estimator = RLADDP{}
)

func (OLS) Name() string    { return "OLS" }
func (LSLdiv) Name() string { return "LSLdiv" }
func (LSSVD) Name() string  { return "LSSVD" }
func (LADPP) Name() string  { return "LADPP" }
func (LADDP) Name() string  { return "LADDP" }

func (e RLSTikhonov) Name() string { return fmt.Sprintf("RLSTikhonov(eta=%g)", e.eta) }
func (e RLSSVD) Name() string      { return fmt.Sprintf("RLSSVD(kappa=%g)", e.kappa) }
func (e RLADPP) Name() string      { return fmt.Sprintf("RLADPP(eta=%g)", e.eta) }
func (e RLADDP) Name() string      { return fmt.Sprintf("RLADDP(eta=%g)", e.eta) }

// Eta returns the regularization exponent.
func (e RLSTikhonov) Eta() float64 { return e.eta }

// Eta returns the regularization exponent.
func (e RLADPP) Eta() float64 { return e.eta }

// Eta returns the regularization exponent.
func (e RLADDP) Eta() float64 { return e.eta }

// Kappa returns the condition-number threshold.
func (e RLSSVD) Kappa() float64 { return e.kappa }

// NewOLS creates an OLS estimator.
func NewOLS(opts ...Option) (OLS, error) {
	c, err := buildLS(opts)
	if err != nil {
		return OLS{}, err
	}
	return OLS{c.flags()}, nil
}

// NewLSLdiv creates an LSLdiv estimator.
func NewLSLdiv(opts ...Option) (LSLdiv, error) {
	c, err := buildLS(opts)
	if err != nil {
		return LSLdiv{}, err
	}
	return LSLdiv{c.flags()}, nil
}

// NewLSSVD creates an LSSVD estimator.
func NewLSSVD(opts ...Option) (LSSVD, error) {
	c, err := buildLS(opts)
	if err != nil {
		return LSSVD{}, err
	}
	return LSSVD{c.flags()}, nil
}

// NewRLSTikhonov creates a ridge estimator. η defaults to DefaultEta.
func NewRLSTikhonov(opts ...Option) (RLSTikhonov, error) {
	c := newConfig(opts)
	if err := c.validate(false, true, false, false); err != nil {
		return RLSTikhonov{}, err
	}
	return RLSTikhonov{flags: c.flags(), eta: c.eta}, nil
}

// NewRLSSVD creates a truncated-SVD estimator. κ defaults to DefaultKappa.
func NewRLSSVD(opts ...Option) (RLSSVD, error) {
	c := newConfig(opts)
	if err := c.validate(false, false, true, false); err != nil {
		return RLSSVD{}, err
	}
	return RLSSVD{flags: c.flags(), kappa: c.kappa}, nil
}

// NewLADPP creates a primal LAD estimator. Normalization and intercept are
// required.
func NewLADPP(opts ...Option) (LADPP, error) {
	c := newConfig(opts)
	if err := c.validate(true, false, false, true); err != nil {
		return LADPP{}, err
	}
	return LADPP{flags: c.flags(), solver: c.lpSolver()}, nil
}

// NewLADDP creates a dual LAD estimator. Normalization and intercept are
// required.
func NewLADDP(opts ...Option) (LADDP, error) {
	c := newConfig(opts)
	if err := c.validate(true, false, false, true); err != nil {
		return LADDP{}, err
	}
	return LADDP{flags: c.flags(), solver: c.lpSolver()}, nil
}

// NewRLADPP creates a penalized primal LAD estimator.
func NewRLADPP(opts ...Option) (RLADPP, error) {
	c := newConfig(opts)
	if err := c.validate(true, true, false, true); err != nil {
		return RLADPP{}, err
	}
	return RLADPP{flags: c.flags(), eta: c.eta, solver: c.lpSolver()}, nil
}

// NewRLADDP creates a penalized dual LAD estimator.
func NewRLADDP(opts ...Option) (RLADDP, error) {
	c := newConfig(opts)
	if err := c.validate(true, true, false, true); err != nil {
		return RLADDP{}, err
	}
	return RLADDP{flags: c.flags(), eta: c.eta, solver: c.lpSolver()}, nil
}

func buildLS(opts []Option) (*config, error) {
	c := newConfig(opts)
	if err := c.validate(false, false, false, false); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) flags() flags {
	return flags{normalize: c.normalize, intercept: c.intercept}
}

// validate checks the configuration for a variant. lad requires
// normalize and intercept; the remaining arguments say which hyperparameter
// options the variant accepts.
func (c *config) validate(lad, acceptsEta, acceptsKappa, acceptsSolver bool) error {
	if c.normalize && !c.intercept {
		return errors.NewValidationError("normalize", "normalization requires an intercept", c.normalize)
	}
	if lad && !(c.normalize && c.intercept) {
		return errors.NewValidationError("normalize",
			"least-absolute-deviation estimators require normalize and intercept", c.normalize)
	}
	if c.etaSet && !acceptsEta {
		return errors.NewValidationError("eta", "option does not apply to this estimator", c.eta)
	}
	if c.kappaSet && !acceptsKappa {
		return errors.NewValidationError("kappa", "option does not apply to this estimator", c.kappa)
	}
	if c.solver != nil && !acceptsSolver {
		return errors.NewValidationError("solver", "option does not apply to this estimator", fmt.Sprintf("%T", c.solver))
	}
	if acceptsEta && !(c.eta < 0) {
		return errors.NewValidationError("eta", "must be negative", c.eta)
	}
	if acceptsKappa && !(c.kappa > 0) {
		return errors.NewValidationError("kappa", "must be positive", c.kappa)
	}
	return nil
}
