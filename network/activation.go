package network

import (
	"math"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

// Activation is the hidden-layer nonlinearity.
type Activation interface {
	// Eval returns the activation at z.
	Eval(z float64) float64
	// Deriv returns the derivative at z.
	Deriv(z float64) float64
	Name() string
}

// Sigmoid is the logistic function 1/(1+e^{-z}).
type Sigmoid struct{}

func (Sigmoid) Eval(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}

func (s Sigmoid) Deriv(z float64) float64 {
	v := s.Eval(z)
	return v * (1 - v)
}

func (Sigmoid) Name() string { return "sigmoid" }

// Tanh is the hyperbolic tangent.
type Tanh struct{}

func (Tanh) Eval(z float64) float64 { return math.Tanh(z) }

func (Tanh) Deriv(z float64) float64 {
	t := math.Tanh(z)
	return 1 - t*t
}

func (Tanh) Name() string { return "tanh" }

// Softplus is log(1+e^z), a smooth rectifier.
type Softplus struct{}

func (Softplus) Eval(z float64) float64 {
	if z > 30 {
		return z
	}
	return math.Log1p(math.Exp(z))
}

func (Softplus) Deriv(z float64) float64 { return Sigmoid{}.Eval(z) }

func (Softplus) Name() string { return "softplus" }

// Gaussian is the radial bump e^{-z²}. Its derivative vanishes at zero, so
// gradient refinement leaves Gaussian networks unchanged.
type Gaussian struct{}

func (Gaussian) Eval(z float64) float64 { return math.Exp(-z * z) }

func (Gaussian) Deriv(z float64) float64 { return -2 * z * math.Exp(-z*z) }

func (Gaussian) Name() string { return "gaussian" }
