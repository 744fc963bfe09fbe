// SPDX-License-Identifier: MIT

package powerflow

import (
	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/matrix"
)

const (
	// DefaultTolerance is the max |ΔP|,|ΔQ| in pu accepted as converged.
	DefaultTolerance = 1e-8

	// DefaultMaxIterations caps Newton updates.
	DefaultMaxIterations = 20
)

// Options controls one solve. Zero Tolerance or MaxIterations select the
// defaults; a nil Logger logs nothing.
type Options struct {
	Tolerance     float64
	MaxIterations int
	Logger        *zap.Logger

	// PivotTolerance is the relative LU pivot threshold below which the
	// Jacobian counts as singular; 0 keeps matrix.DefaultPivotTolerance.
	PivotTolerance float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return o
}

// factorOptions translates the solve options into LU options.
func (o Options) factorOptions() []matrix.Option {
	if o.PivotTolerance <= 0 {
		return nil
	}

	return []matrix.Option{matrix.WithPivotTolerance(o.PivotTolerance)}
}

// State is the solver state machine position.
type State uint8

const (
	Init State = iota
	Iterate
	Converged
	MaxIterationsExceeded
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Iterate:
		return "iterate"
	case Converged:
		return "converged"
	case MaxIterationsExceeded:
		return "max_iterations_exceeded"
	default:
		return "unknown"
	}
}

// Result is a converged solution.
type Result struct {
	U           []complex128 // bus voltages in pu, bus order
	State       State
	Iterations  int       // Newton updates applied
	MaxMismatch float64   // final max |ΔP|,|ΔQ| in pu
	Trace       []float64 // mismatch at the start of every iteration
}
