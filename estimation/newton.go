// SPDX-License-Identifier: MIT

package estimation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/matrix"
)

// NewtonRaphson estimates the bus voltages of scenario d by Gauss-Newton WLS
// on the polar state.
//
// Implementation:
//   - Stage 1: translate sensors, gate observability (Check).
//   - Stage 2: from flat start, repeat: evaluate r = z − h(x) and H, solve
//     (HᵀWH)·Δx = HᵀW·r by Cholesky, apply Δx.
//   - Stage 3: stop once max|Δx| < tolerance; derive appliance powers and
//     sensor residuals from the estimate.
//
// Errors:
//   - *calcerr.DisconnectedNetworkError or *calcerr.ObservabilityError
//     before the first iteration.
//   - *calcerr.IterationLimitError at the cap, ctx.Err() wrapped.
func NewtonRaphson(ctx context.Context, net *admittance.Network, d *dataset.Dataset, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	s := newSystem(net, d)
	p, err := s.check(opts)
	if err != nil {
		return nil, err
	}

	theta, v := p.state(s.u0)
	h, err := matrix.NewDense(p.rows, p.cols)
	if err != nil {
		return nil, fmt.Errorf("estimation: jacobian: %w", err)
	}

	trace := make([]float64, 0, opts.MaxIterations)
	for iter := 0; ; iter++ {
		if iter == opts.MaxIterations {
			return nil, iterationLimit(trace, opts)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("estimation: iteration %d: %w", iter, err)
		}

		r := p.evaluate(theta, v, h)
		dx, err := solveNormal(h, p.w, r)
		if err != nil {
			return nil, p.gainError(h, err)
		}

		var dev float64
		for i := range theta {
			if c := p.colTheta[i]; c >= 0 {
				theta[i] += dx[c]
			}
			v[i] += dx[p.colV[i]]
		}
		for _, x := range dx {
			dev = math.Max(dev, math.Abs(x))
		}
		if math.IsNaN(dev) {
			dev = math.Inf(1)
		}
		trace = append(trace, dev)
		opts.Logger.Debug("state estimation iteration",
			zap.Int("iteration", iter+1), zap.Float64("max_deviation", dev))

		if dev < opts.Tolerance {
			u := make([]complex128, len(v))
			for i := range u {
				u[i] = cmplx.Rect(v[i], theta[i])
			}

			return s.result(u, iter+1, trace), nil
		}
		if math.IsInf(dev, 0) {
			return nil, iterationLimit(trace, opts)
		}
	}
}

// solveNormal solves the WLS normal equations (HᵀWH)·x = HᵀW·r.
func solveNormal(h *matrix.Dense, w, r []float64) ([]float64, error) {
	g, err := matrix.WeightedGram(h, w)
	if err != nil {
		return nil, err
	}
	rhs, err := matrix.WeightedTMul(h, w, r)
	if err != nil {
		return nil, err
	}

	return matrix.SolveSymmetric(g, rhs)
}

// gainError maps a gain matrix that lost definiteness during the iterations
// to an observability failure with the rank of H at the current state.
func (p *polarModel) gainError(h *matrix.Dense, err error) error {
	if !errors.Is(err, matrix.ErrNotPositiveDefinite) {
		return fmt.Errorf("estimation: gain matrix: %w", err)
	}
	rank, rerr := matrix.Rank(h, p.rankOpts...)
	if rerr != nil {
		rank = -1
	}

	return &calcerr.ObservabilityError{Measurements: p.rows, Unknowns: p.s.unknowns(), Rank: rank}
}

func iterationLimit(trace []float64, opts Options) error {
	last := math.NaN()
	if len(trace) > 0 {
		last = trace[len(trace)-1]
	}

	return &calcerr.IterationLimitError{
		Calculation:  calculationName,
		Iterations:   len(trace),
		LastMismatch: last,
		Tolerance:    opts.Tolerance,
		Trace:        trace,
	}
}
