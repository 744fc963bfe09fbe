// SPDX-License-Identifier: MIT

package estimation

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/powerflow"
)

// result derives appliance powers and sensor residuals from the estimate u.
func (s *system) result(u []complex128, iterations int, trace []float64) *Result {
	res := &Result{
		U:          u,
		State:      powerflow.Converged,
		Iterations: iterations,
		Trace:      trace,
	}
	if len(trace) > 0 {
		res.MaxDeviation = trace[len(trace)-1]
	}
	res.ApplianceInjections = s.distribute(u)
	res.VoltageResiduals = s.voltageResiduals(u)
	res.PowerResiduals = s.powerResiduals(u, res.ApplianceInjections)

	return res
}

// distribute splits the estimated bus injection U_i·conj((Y·U)_i) over the
// appliances of every bus. With unmeasured appliances present, measured
// ones keep their measurement and the unmeasured share the rest equally.
// With all measured, the mismatch is shared in proportion to each
// appliance's variance, separately for P and Q. Shunts draw |U|²·conj(y).
func (s *system) distribute(u []complex128) []complex128 {
	m := s.topo
	out := make([]complex128, len(m.Appliances()))
	cur := s.y.Mul(u)

	for bus := 0; bus < m.NumBuses(); bus++ {
		var measured, unmeasured []int
		for _, k := range m.AppliancesAt(bus) {
			a := m.Appliances()[k]
			if !a.On(s.d) {
				continue
			}
			if a.Component == dataset.ComponentShunt {
				y := admittance.ShuntAdmittance(s.d.Shunts[a.Index], m.URated(bus))
				v := cmplx.Abs(u[bus])
				out[k] = -complex(v*v, 0) * cmplx.Conj(y)
				continue
			}
			if _, ok := s.appl[k]; ok {
				measured = append(measured, k)
			} else {
				unmeasured = append(unmeasured, k)
			}
		}

		rest := u[bus] * cmplx.Conj(cur[bus])
		var varP, varQ float64
		for _, k := range measured {
			am := s.appl[k]
			out[k] = am.s
			rest -= am.s
			varP += am.varP
			varQ += am.varQ
		}

		switch {
		case len(unmeasured) > 0:
			share := rest / complex(float64(len(unmeasured)), 0)
			for _, k := range unmeasured {
				out[k] = share
			}
		case len(measured) > 0:
			for _, k := range measured {
				am := s.appl[k]
				out[k] += complex(
					proportional(real(rest), am.varP, varP, len(measured)),
					proportional(imag(rest), am.varQ, varQ, len(measured)),
				)
			}
		}
	}

	return out
}

func proportional(total, part, sum float64, count int) float64 {
	if sum == 0 {
		return total / float64(count)
	}

	return total * part / sum
}

func (s *system) voltageResiduals(u []complex128) []VoltageResidual {
	out := make([]VoltageResidual, len(s.d.VoltageSensors))
	for k, vs := range s.d.VoltageSensors {
		bus, _ := s.topo.Bus(vs.MeasuredObject)
		v, theta := cmplx.Polar(u[bus])
		out[k].U = vs.UMeasured - v*s.topo.URated(bus)
		out[k].Angle = math.NaN()
		if vs.AngleMeasured {
			out[k].Angle = wrapAngle(vs.UAngleMeasured - theta)
		}
	}

	return out
}

// powerResiduals compares every power sensor against the estimate in SI
// units and the sensor's own reference direction.
func (s *system) powerResiduals(u, appl []complex128) []PowerResidual {
	out := make([]PowerResidual, len(s.d.PowerSensors))
	var cur []complex128
	for k, ps := range s.d.PowerSensors {
		var est complex128
		switch ps.MeasuredTerminal {
		case dataset.BranchFrom, dataset.BranchTo:
			b, _ := s.topo.BranchIndex(ps.MeasuredObject)
			br := s.topo.Branches()[b]
			bm := s.net.Branch(b)
			uf, ut := u[br.From], u[br.To]
			if ps.MeasuredTerminal == dataset.BranchFrom {
				est = uf * cmplx.Conj(bm.FromCurrent(uf, ut))
			} else {
				est = ut * cmplx.Conj(bm.ToCurrent(uf, ut))
			}
		case dataset.NodeTerminal:
			if cur == nil {
				cur = s.y.Mul(u)
			}
			bus, _ := s.topo.Bus(ps.MeasuredObject)
			est = u[bus] * cmplx.Conj(cur[bus])
		default:
			a, _ := s.topo.ApplianceIndex(ps.MeasuredObject)
			est = appl[a]
			if ps.MeasuredTerminal == dataset.LoadTerminal {
				est = -est
			}
		}
		est *= admittance.BaseP
		out[k] = PowerResidual{P: ps.PMeasured - real(est), Q: ps.QMeasured - imag(est)}
	}

	return out
}
