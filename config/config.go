// SPDX-License-Identifier: MIT

// Package config holds the explicit calculation settings threaded through
// every solve call. There is no package-level mutable state: callers build a
// Calculation with Default, New and WithX options, or decode one from YAML.
//
// Defaults:
//   - Symmetric     true
//   - Tolerance     1e-8
//   - MaxIterations 20
//   - Method        newton_raphson
//   - Threads       0 (one batch worker per GOMAXPROCS)
package config

import (
	"math"

	"github.com/katalvlaran/gridstate/calcerr"
)

// Method selects the numerical method of a calculation.
type Method string

const (
	NewtonRaphson   Method = "newton_raphson"
	Linear          Method = "linear"           // power flow only
	IterativeLinear Method = "iterative_linear" // state estimation only
)

// CalculationType names what is being calculated.
type CalculationType string

const (
	PowerFlow       CalculationType = "power_flow"
	StateEstimation CalculationType = "state_estimation"
)

const (
	DefaultTolerance     = 1e-8
	DefaultMaxIterations = 20
	DefaultMethod        = NewtonRaphson
	DefaultThreads       = 0
)

const (
	panicToleranceInvalid     = "config: WithTolerance: tol must be finite and > 0"
	panicMaxIterationsInvalid = "config: WithMaxIterations: n must be >= 1"
)

// Calculation is one set of solve settings.
type Calculation struct {
	Symmetric     bool    `yaml:"symmetric"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Method        Method  `yaml:"method"`
	Threads       int     `yaml:"threads"` // batch workers: <0 sequential, 0 GOMAXPROCS
}

// Option mutates a Calculation.
type Option func(*Calculation)

// Default returns the default settings.
func Default() Calculation {
	return Calculation{
		Symmetric:     true,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Method:        DefaultMethod,
		Threads:       DefaultThreads,
	}
}

// New returns Default with opts applied in order; nil options are skipped.
func New(opts ...Option) Calculation {
	c := Default()
	for _, fn := range opts {
		if fn != nil {
			fn(&c)
		}
	}

	return c
}

// WithTolerance sets the convergence tolerance. Panics unless tol is finite
// and positive.
func WithTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 0) {
		panic(panicToleranceInvalid)
	}

	return func(c *Calculation) { c.Tolerance = tol }
}

// WithMaxIterations sets the iteration cap. Panics if n < 1.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic(panicMaxIterationsInvalid)
	}

	return func(c *Calculation) { c.MaxIterations = n }
}

// WithMethod selects the method; Validate checks it against the calculation.
func WithMethod(m Method) Option {
	return func(c *Calculation) { c.Method = m }
}

// WithThreads sets the batch worker count.
func WithThreads(n int) Option {
	return func(c *Calculation) { c.Threads = n }
}

// WithAsymmetric requests an asymmetric calculation, which Validate rejects.
// It exists so that decoded and programmatic settings fail the same way.
func WithAsymmetric() Option {
	return func(c *Calculation) { c.Symmetric = false }
}

// Validate checks c for calculation kind and returns *calcerr.ValidationError
// listing every problem, or nil.
func (c Calculation) Validate(kind CalculationType) error {
	var issues calcerr.Collector
	const comp = "calculation"
	if !c.Symmetric {
		issues.Addf(comp, 0, "symmetric", "asymmetric calculations are not supported")
	}
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		issues.Addf(comp, 0, "tolerance", "must be finite and > 0, got %g", c.Tolerance)
	}
	if c.MaxIterations < 1 {
		issues.Addf(comp, 0, "max_iterations", "must be >= 1, got %d", c.MaxIterations)
	}
	if !c.Method.supports(kind) {
		issues.Addf(comp, 0, "method", "method %q is not available for %s", c.Method, kind)
	}

	return issues.Validation()
}

func (m Method) supports(kind CalculationType) bool {
	switch kind {
	case PowerFlow:
		return m == NewtonRaphson || m == Linear
	case StateEstimation:
		return m == NewtonRaphson || m == IterativeLinear
	default:
		return false
	}
}
