// SPDX-License-Identifier: MIT

package estimation

import (
	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/matrix"
	"github.com/katalvlaran/gridstate/powerflow"
)

const (
	// DefaultTolerance is the largest state update accepted as converged.
	DefaultTolerance = 1e-8

	// DefaultMaxIterations caps WLS iterations.
	DefaultMaxIterations = 20

	// ZeroInjectionSigma is the per-unit sigma of virtual zero-injection
	// measurements at buses without appliances.
	ZeroInjectionSigma = 1e-6

	// ConstraintWeightRatio caps the weight of virtual rows in the
	// rectangular model at this multiple of the heaviest sensor row.
	ConstraintWeightRatio = 1e3
)

// calculationName labels state estimation in errors and logs.
const calculationName = "state_estimation"

// Options controls one estimation. Zero values select the defaults.
type Options struct {
	Tolerance     float64
	MaxIterations int
	Logger        *zap.Logger

	// RankTolerance is the relative singular value threshold of the
	// observability rank test, in (0, 1); 0 keeps matrix.DefaultRankTolerance.
	RankTolerance float64
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

// rankOptions translates RankTolerance into options for matrix.Rank.
func (o Options) rankOptions() []matrix.Option {
	if o.RankTolerance <= 0 {
		return nil
	}

	return []matrix.Option{matrix.WithRankTolerance(o.RankTolerance)}
}

// VoltageResidual is measured minus estimated for one voltage sensor, in V
// and rad. Angle is NaN for magnitude-only sensors.
type VoltageResidual struct {
	U     float64
	Angle float64
}

// PowerResidual is measured minus estimated for one power sensor, in W and
// var, in the sensor's own reference direction.
type PowerResidual struct {
	P float64
	Q float64
}

// Result is a converged estimate.
type Result struct {
	U            []complex128 // bus voltages in pu
	State        powerflow.State
	Iterations   int
	MaxDeviation float64   // last max state update
	Trace        []float64 // max state update of every iteration

	// ApplianceInjections is indexed like topology.Model.Appliances(), in pu,
	// generator reference direction.
	ApplianceInjections []complex128
	VoltageResiduals    []VoltageResidual // indexed like dataset.VoltageSensors
	PowerResiduals      []PowerResidual   // indexed like dataset.PowerSensors
}
