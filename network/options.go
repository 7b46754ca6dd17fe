package network

import (
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
	"github.com/YuminosukeSato/stablefit/pkg/log"
)

const (
	// DefaultNeurons caps the hidden-layer width when WithNeurons is not
	// given; the width never exceeds the number of samples.
	DefaultNeurons = 100
	// DefaultScale is the standard deviation of the hidden weight draws.
	DefaultScale = 4.5
	// DefaultMaxIter bounds the number of weight draws.
	DefaultMaxIter = 1000
	// DefaultTol is the gradient discrepancy below which refinement leaves a
	// neuron alone.
	DefaultTol = 1e-5
	// WeightBound rejects refined hidden weights with a larger component.
	WeightBound = 50.0
)

type config struct {
	activation Activation
	neurons    int
	neuronsSet bool
	scale      float64
	maxIter    int
	tol        float64
	src        rand.Source
	logger     log.Logger
}

// Option configures Fit and FitWithGradients.
type Option func(*config)

// WithActivation sets the hidden-layer activation. Default Sigmoid.
func WithActivation(a Activation) Option {
	return func(c *config) {
		c.activation = a
	}
}

// WithNeurons sets the hidden-layer width s, 1 ≤ s ≤ number of samples.
func WithNeurons(s int) Option {
	return func(c *config) {
		c.neurons = s
		c.neuronsSet = true
	}
}

// WithScale sets the standard deviation f > 0 of the hidden weight draws.
func WithScale(f float64) Option {
	return func(c *config) {
		c.scale = f
	}
}

// WithMaxIter sets the maximum number of weight draws.
func WithMaxIter(maxIter int) Option {
	return func(c *config) {
		c.maxIter = maxIter
	}
}

// WithTol sets the refinement tolerance on the gradient discrepancy.
func WithTol(tol float64) Option {
	return func(c *config) {
		c.tol = tol
	}
}

// WithSource sets the random source for the weight draws. Fits with sources
// in the same state are identical.
func WithSource(src rand.Source) Option {
	return func(c *config) {
		c.src = src
	}
}

// WithLogger sets the logger used during fitting.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		activation: Sigmoid{},
		scale:      DefaultScale,
		maxIter:    DefaultMaxIter,
		tol:        DefaultTol,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.src == nil {
		seed := uint64(time.Now().UnixNano())
		c.src = rand.NewPCG(seed, seed>>1)
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	return c
}

// validate checks the configuration against p training samples and fills in
// the default width.
func (c *config) validate(p int) error {
	if !c.neuronsSet {
		c.neurons = min(DefaultNeurons, p)
	}
	switch {
	case c.activation == nil:
		return errors.NewValidationError("activation", "must not be nil", nil)
	case c.neurons < 1:
		return errors.NewValidationError("neurons", "must be at least 1", c.neurons)
	case c.neurons > p:
		return errors.NewValidationError("neurons", "cannot exceed the number of samples", c.neurons)
	case !(c.scale > 0):
		return errors.NewValidationError("scale", "must be positive", c.scale)
	case c.maxIter < 1:
		return errors.NewValidationError("maxit", "must be at least 1", c.maxIter)
	case !(c.tol >= 0):
		return errors.NewValidationError("tol", "must be non-negative", c.tol)
	}
	return nil
}
