// SPDX-License-Identifier: MIT

package powerflow

import (
	"context"
	"fmt"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/matrix"
)

// Linear solves the power flow with every load and generator replaced by the
// constant impedance that draws its specified power at 1 pu.
//
// Implementation:
//   - Stage 1: reject buses not reached by a source.
//   - Stage 2: Y' = Y + sources + Σ conj(−s) per bus (s generator-signed).
//   - Stage 3: solve the real 2n×2n form [[G, −B], [B, G]]·[Re U; Im U] = [Re I; Im I].
//
// The result reports the mismatch of the solution against the actual
// voltage-dependent appliance model, which is zero only for constant
// impedance appliances.
func Linear(ctx context.Context, net *admittance.Network, d *dataset.Dataset, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := checkEnergized(net, d); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("powerflow: linear: %w", err)
	}

	n := net.Topology().NumBuses()
	y := net.Build(d, admittance.WithSources())
	isrc := net.SourceCurrents(d)
	extra := make([]complex128, n)
	for _, t := range applianceTerms(net, d) {
		extra[t.bus] += cmplx.Conj(-t.s)
	}

	a, err := matrix.NewDense(2*n, 2*n)
	if err != nil {
		return nil, fmt.Errorf("powerflow: linear: %w", err)
	}
	s := y.Structure()
	for i := 0; i < n; i++ {
		vals := y.RowValues(i)
		for idx, k := range s.Row(i) {
			yik := vals[idx]
			if k == i {
				yik += extra[i]
			}
			g, b := real(yik), imag(yik)
			_ = a.Set(i, k, g)
			_ = a.Set(i, n+k, -b)
			_ = a.Set(n+i, k, b)
			_ = a.Set(n+i, n+k, g)
		}
	}
	rhs := make([]float64, 2*n)
	for i, c := range isrc {
		rhs[i], rhs[n+i] = real(c), imag(c)
	}

	lu, err := matrix.Factorize(a, opts.factorOptions()...)
	if err != nil {
		return nil, singularToDisconnected(err)
	}
	x, err := lu.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("powerflow: linear: %w", err)
	}

	st := &newtonState{
		y:     y,
		isrc:  isrc,
		terms: applianceTerms(net, d),
		theta: make([]float64, n),
		v:     make([]float64, n),
		g:     make([]float64, 2*n),
	}
	for i := 0; i < n; i++ {
		st.v[i], st.theta[i] = cmplx.Polar(complex(x[i], x[n+i]))
	}
	mismatch := st.evaluate()
	opts.Logger.Debug("linear power flow solved", zap.Float64("max_mismatch", mismatch))

	return &Result{U: st.u, State: Converged, Iterations: 1, MaxMismatch: mismatch, Trace: []float64{mismatch}}, nil
}
