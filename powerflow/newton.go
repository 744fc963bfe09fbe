// SPDX-License-Identifier: MIT

package powerflow

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

// calculationName labels power flow in errors and logs.
const calculationName = "power_flow"

// newtonState is the working set of one Newton-Raphson run.
type newtonState struct {
	y     *admittance.YBus
	isrc  []complex128 // Norton current per bus
	terms []term

	theta, v []float64
	u        []complex128
	calc     []complex128 // U·conj(Y·U) per bus
	tsrc     []complex128 // U·conj(I_src) per bus
	dInj     []complex128
	g        []float64 // stacked residual [ΔP; ΔQ]
}

// NewtonRaphson solves the power flow of scenario d on net.
//
// Implementation:
//   - Stage 1: reject buses not reached by a source.
//   - Stage 2: flat start, assemble Y with source admittances.
//   - Stage 3: loop: evaluate mismatch; stop when below tolerance or at the
//     cap; otherwise assemble the 2n×2n Jacobian, LU-solve and update.
//
// Errors:
//   - *calcerr.DisconnectedNetworkError, *calcerr.IterationLimitError,
//     ctx.Err() wrapped when ctx is cancelled between iterations.
//
// Complexity:
//   - Time O(iter·n³) for the dense factorization, Space O(n²).
func NewtonRaphson(ctx context.Context, net *admittance.Network, d *dataset.Dataset, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := checkEnergized(net, d); err != nil {
		return nil, err
	}

	n := net.Topology().NumBuses()
	st := &newtonState{
		y:     net.Build(d, admittance.WithSources()),
		isrc:  net.SourceCurrents(d),
		terms: applianceTerms(net, d),
		theta: make([]float64, n),
		v:     make([]float64, n),
		g:     make([]float64, 2*n),
	}
	for i, u0 := range FlatStart(net, d) {
		st.v[i], st.theta[i] = cmplx.Polar(u0)
	}

	jac, err := matrix.NewDense(2*n, 2*n)
	if err != nil {
		return nil, fmt.Errorf("powerflow: jacobian: %w", err)
	}

	state := Init
	trace := make([]float64, 0, opts.MaxIterations+1)
	for iter := 0; ; iter++ {
		mismatch := st.evaluate()
		trace = append(trace, mismatch)
		opts.Logger.Debug("power flow iteration",
			zap.Int("iteration", iter), zap.Float64("max_mismatch", mismatch), zap.Stringer("state", state))

		if mismatch < opts.Tolerance {
			return &Result{U: st.u, State: Converged, Iterations: iter, MaxMismatch: mismatch, Trace: trace}, nil
		}
		if iter == opts.MaxIterations || math.IsNaN(mismatch) {
			return nil, &calcerr.IterationLimitError{
				Calculation:  calculationName,
				Iterations:   iter,
				LastMismatch: mismatch,
				Tolerance:    opts.Tolerance,
				Trace:        trace,
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("powerflow: iteration %d: %w", iter, err)
		}
		state = Iterate

		st.jacobian(jac)
		lu, err := matrix.Factorize(jac, opts.factorOptions()...)
		if err != nil {
			return nil, singularToDisconnected(err)
		}
		rhs := make([]float64, 2*n)
		for i, gi := range st.g {
			rhs[i] = -gi
		}
		dx, err := lu.Solve(rhs)
		if err != nil {
			return nil, fmt.Errorf("powerflow: solve: %w", err)
		}
		for i := 0; i < n; i++ {
			st.theta[i] += dx[i]
			st.v[i] += dx[n+i]
		}
	}
}

// evaluate refreshes voltages, computed injections and the residual
// G = U·conj(Y·U) − U·conj(I_src) − S_appl(|U|), returning max |G| component.
func (st *newtonState) evaluate() float64 {
	n := len(st.v)
	if st.u == nil {
		st.u = make([]complex128, n)
		st.tsrc = make([]complex128, n)
	}
	for i := range st.u {
		st.u[i] = cmplx.Rect(st.v[i], st.theta[i])
	}
	var inj []complex128
	inj, st.dInj = evalTerms(st.terms, st.v)
	cur := st.y.Mul(st.u)
	st.calc = make([]complex128, n)

	var worst float64
	for i := 0; i < n; i++ {
		st.calc[i] = st.u[i] * cmplx.Conj(cur[i])
		st.tsrc[i] = st.u[i] * cmplx.Conj(st.isrc[i])
		g := st.calc[i] - st.tsrc[i] - inj[i]
		st.g[i], st.g[n+i] = real(g), imag(g)
		worst = math.Max(worst, math.Max(math.Abs(real(g)), math.Abs(imag(g))))
	}
	if hasNaN(st.g) {
		return math.NaN()
	}

	return worst
}

// jacobian writes ∂G/∂[θ, v] into jac (rows [P; Q], columns [θ; v]).
func (st *newtonState) jacobian(jac *matrix.Dense) {
	jac.Zero()
	n := len(st.v)
	s := st.y.Structure()
	for i := 0; i < n; i++ {
		vals := st.y.RowValues(i)
		for idx, k := range s.Row(i) {
			yuk := vals[idx] * st.u[k]
			dTheta := -1i * st.u[i] * cmplx.Conj(yuk)
			dV := st.u[i] * cmplx.Conj(yuk) / complex(st.v[k], 0)
			if k == i {
				dTheta += 1i * (st.calc[i] - st.tsrc[i])
				dV += (st.calc[i]-st.tsrc[i])/complex(st.v[i], 0) - st.dInj[i]
			}
			// Indices come from the structure, so writes are in range.
			_ = jac.Set(i, k, real(dTheta))
			_ = jac.Set(n+i, k, imag(dTheta))
			_ = jac.Set(i, n+k, real(dV))
			_ = jac.Set(n+i, n+k, imag(dV))
		}
	}
}

// singularToDisconnected maps a singular network matrix to the network error.
func singularToDisconnected(err error) error {
	if errors.Is(err, matrix.ErrSingular) {
		return &calcerr.DisconnectedNetworkError{Cause: err}
	}

	return fmt.Errorf("powerflow: factorize: %w", err)
}

func hasNaN(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}

	return false
}
