// SPDX-License-Identifier: MIT

package estimation

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/matrix"
)

// IterativeLinear estimates the bus voltages of scenario d on the rectangular
// state [Re U; Im U]. Every measurement becomes a linear equation in U:
//
//	phasor                 U_i                  = V∠θ
//	magnitude only         U_i                  = V∠θ_est (pseudo phasor)
//	branch flow, side a    Σ y_k·U_k            = conj(S / U_est,a)
//	injection at i         Σ Y_ik·U_k           = conj(S / U_est,i)
//
// With no angle measured, one extra equation holds the reference bus on its
// flat-start angle. The coefficient matrix does not depend on the estimate;
// right-hand side and power weights are refreshed every iteration, and each
// iteration solves for the correction ΔU against the current residual.
// Zero-injection rows and the reference row weigh at most
// ConstraintWeightRatio times the heaviest sensor row.
//
// Errors:
//   - as NewtonRaphson.
//
// Complexity:
//   - Time O(iter·(m·n + n³)) for m measurement rows and n buses.
func IterativeLinear(ctx context.Context, net *admittance.Network, d *dataset.Dataset, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	s := newSystem(net, d)
	p, err := s.check(opts)
	if err != nil {
		return nil, err
	}

	lm, err := newLinearModel(s)
	if err != nil {
		return nil, err
	}

	u := append([]complex128(nil), s.u0...)
	n := len(u)
	x := make([]float64, 2*n)
	trace := make([]float64, 0, opts.MaxIterations)
	for iter := 0; ; iter++ {
		if iter == opts.MaxIterations {
			return nil, iterationLimit(trace, opts)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("estimation: iteration %d: %w", iter, err)
		}

		r := lm.rhs(u)
		for i, ui := range u {
			x[i], x[n+i] = real(ui), imag(ui)
		}
		hx, err := matrix.MatVec(lm.h, x)
		if err != nil {
			return nil, fmt.Errorf("estimation: residual: %w", err)
		}
		for i := range r {
			r[i] -= hx[i]
		}
		dx, err := solveNormal(lm.h, lm.w, r)
		if err != nil {
			return nil, p.gainError(lm.h, err)
		}

		var dev float64
		for i := 0; i < n; i++ {
			step := complex(dx[i], dx[n+i])
			dev = math.Max(dev, cmplx.Abs(step))
			u[i] += step
		}
		if math.IsNaN(dev) {
			dev = math.Inf(1)
		}
		trace = append(trace, dev)
		opts.Logger.Debug("state estimation iteration",
			zap.Int("iteration", iter+1), zap.Float64("max_deviation", dev))

		if dev < opts.Tolerance {
			return s.result(u, iter+1, trace), nil
		}
		if math.IsInf(dev, 0) {
			return nil, iterationLimit(trace, opts)
		}
	}
}

// linearModel holds the constant coefficient matrix of the rectangular
// formulation. Each complex equation c·U = b spans two real rows:
//
//	Re: [ Re c, −Im c ]
//	Im: [ Im c,  Re c ]
type linearModel struct {
	s   *system
	h   *matrix.Dense
	w   []float64 // the reference angle row, if any, is last
	pin bool
}

func newLinearModel(s *system) (*linearModel, error) {
	n := s.topo.NumBuses()
	rows := 2 * len(s.meas)
	pin := !s.hasAngle
	if pin {
		rows++
	}
	h, err := matrix.NewDense(rows, 2*n)
	if err != nil {
		return nil, fmt.Errorf("estimation: linear model: %w", err)
	}
	lm := &linearModel{s: s, h: h, w: make([]float64, rows), pin: pin}

	for k, me := range s.meas {
		row := 2 * k
		switch me.Kind {
		case VoltageMagnitude, VoltagePhasor:
			lm.coef(row, me.Bus, 1)
		case BranchFlow:
			br := s.topo.Branches()[me.Branch]
			bm := s.net.Branch(me.Branch)
			if me.FromSide {
				lm.coef(row, br.From, bm.Yff)
				lm.coef(row, br.To, bm.Yft)
			} else {
				lm.coef(row, br.To, bm.Ytt)
				lm.coef(row, br.From, bm.Ytf)
			}
		case Injection:
			vals := s.y.RowValues(me.Bus)
			for idx, col := range s.y.Structure().Row(me.Bus) {
				lm.coef(row, col, vals[idx])
			}
		}
	}
	if pin {
		// Im(U_ref·e^(−jθ_ref)) = 0
		sin, cos := math.Sincos(s.refAngle)
		_ = h.Set(rows-1, s.refBus, -sin)
		_ = h.Set(rows-1, n+s.refBus, cos)
	}

	return lm, nil
}

func (lm *linearModel) coef(row, bus int, c complex128) {
	n := lm.s.topo.NumBuses()
	_ = lm.h.AddAt(row, bus, real(c))
	_ = lm.h.AddAt(row, n+bus, -imag(c))
	_ = lm.h.AddAt(row+1, bus, imag(c))
	_ = lm.h.AddAt(row+1, n+bus, real(c))
}

// rhs linearises the measurements around u and refreshes the weights.
func (lm *linearModel) rhs(u []complex128) []float64 {
	z := make([]float64, len(lm.w))
	var heaviest float64
	for k, me := range lm.s.meas {
		var b complex128
		var sigma float64
		switch me.Kind {
		case VoltageMagnitude:
			b = cmplx.Rect(real(me.Value), cmplx.Phase(u[me.Bus]))
			sigma = me.SigmaA
		case VoltagePhasor:
			b, sigma = me.Value, me.SigmaA
		default:
			ua := u[me.Bus]
			b = cmplx.Conj(me.Value / ua)
			sigma = math.Sqrt((me.SigmaA*me.SigmaA+me.SigmaB*me.SigmaB)/2) / cmplx.Abs(ua)
		}
		z[2*k], z[2*k+1] = real(b), imag(b)
		wk := 1 / (sigma * sigma)
		lm.w[2*k], lm.w[2*k+1] = wk, wk
		if !me.Virtual {
			heaviest = math.Max(heaviest, wk)
		}
	}

	limit := ConstraintWeightRatio * heaviest
	capped := func(w float64) float64 {
		if heaviest > 0 && w > limit {
			return limit
		}
		return w
	}
	for k, me := range lm.s.meas {
		if me.Virtual {
			lm.w[2*k], lm.w[2*k+1] = capped(lm.w[2*k]), capped(lm.w[2*k+1])
		}
	}
	if lm.pin {
		lm.w[len(lm.w)-1] = capped(1 / (ZeroInjectionSigma * ZeroInjectionSigma))
	}

	return z
}
