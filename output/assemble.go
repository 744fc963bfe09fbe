// SPDX-License-Identifier: MIT

package output

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/estimation"
	"github.com/katalvlaran/gridstate/powerflow"
)

const (
	// CalculationPowerFlow and CalculationStateEstimation label Info.Calculation.
	CalculationPowerFlow       = "power_flow"
	CalculationStateEstimation = "state_estimation"
)

// FromPowerFlow builds the result tables of a converged power flow.
func FromPowerFlow(net *admittance.Network, d *dataset.Dataset, res *powerflow.Result, method string) *Output {
	out := assemble(net, d, res.U, powerflow.ApplianceInjections(net, d, res.U))
	out.Info = Info{
		Calculation: CalculationPowerFlow,
		Method:      method,
		Iterations:  res.Iterations,
		MaxMismatch: res.MaxMismatch,
		Trace:       res.Trace,
	}

	return out
}

// FromEstimation builds the result tables of a converged state estimation,
// sensor residuals included.
func FromEstimation(net *admittance.Network, d *dataset.Dataset, res *estimation.Result, method string) *Output {
	out := assemble(net, d, res.U, res.ApplianceInjections)
	out.Info = Info{
		Calculation: CalculationStateEstimation,
		Method:      method,
		Iterations:  res.Iterations,
		MaxMismatch: res.MaxDeviation,
		Trace:       res.Trace,
	}

	out.VoltageSensors = make([]VoltageSensor, len(d.VoltageSensors))
	for k, vs := range d.VoltageSensors {
		r := res.VoltageResiduals[k]
		out.VoltageSensors[k] = VoltageSensor{ID: vs.ID, UResidual: r.U, UAngleResidual: r.Angle}
	}
	out.PowerSensors = make([]PowerSensor, len(d.PowerSensors))
	for k, ps := range d.PowerSensors {
		r := res.PowerResiduals[k]
		out.PowerSensors[k] = PowerSensor{ID: ps.ID, PResidual: r.P, QResidual: r.Q}
	}

	return out
}

// assemble fills node, line and appliance tables from per-unit voltages u and
// appliance injections appl (generator reference, topology appliance order).
func assemble(net *admittance.Network, d *dataset.Dataset, u, appl []complex128) *Output {
	m := net.Topology()
	energized := m.Energized(d)
	cur := net.Build(d).Mul(u)
	out := &Output{
		Nodes:    make([]Node, m.NumBuses()),
		Lines:    make([]Line, len(m.Branches())),
		Sources:  make([]Appliance, len(d.Sources)),
		SymLoads: make([]Appliance, len(d.SymLoads)),
		SymGens:  make([]Appliance, len(d.SymGens)),
		Shunts:   make([]Appliance, len(d.Shunts)),
	}

	for i := range out.Nodes {
		v, theta := cmplx.Polar(u[i])
		s := u[i] * cmplx.Conj(cur[i]) * admittance.BaseP
		out.Nodes[i] = Node{
			ID:        m.NodeID(i),
			Energized: energized[i],
			UPu:       v,
			U:         v * m.URated(i),
			UAngle:    theta,
			P:         real(s),
			Q:         imag(s),
		}
	}

	for k, br := range m.Branches() {
		bm := net.Branch(k)
		uf, ut := u[br.From], u[br.To]
		ifr, ito := bm.FromCurrent(uf, ut), bm.ToCurrent(uf, ut)
		sf, st := uf*cmplx.Conj(ifr)*admittance.BaseP, ut*cmplx.Conj(ito)*admittance.BaseP
		row := Line{
			ID:        br.ID,
			Energized: (br.FromOn && energized[br.From]) || (br.ToOn && energized[br.To]),
			PFrom:     real(sf),
			QFrom:     imag(sf),
			IFrom:     cmplx.Abs(ifr) * admittance.BaseI(m.URated(br.From)),
			SFrom:     cmplx.Abs(sf),
			PTo:       real(st),
			QTo:       imag(st),
			ITo:       cmplx.Abs(ito) * admittance.BaseI(m.URated(br.To)),
			STo:       cmplx.Abs(st),
		}
		if in := d.Lines[br.Index].IN; in > 0 {
			row.Loading = math.Max(row.IFrom, row.ITo) / in
		}
		out.Lines[k] = row
	}

	for k, a := range m.Appliances() {
		row := Appliance{ID: a.ID}
		if a.On(d) {
			row = applianceRow(a.ID, energized[a.Bus], appl[k], u[a.Bus], m.URated(a.Bus))
		}
		switch a.Component {
		case dataset.ComponentSource:
			out.Sources[a.Index] = row
		case dataset.ComponentSymLoad:
			out.SymLoads[a.Index] = loadReference(row)
		case dataset.ComponentSymGen:
			out.SymGens[a.Index] = row
		case dataset.ComponentShunt:
			out.Shunts[a.Index] = loadReference(row)
		}
	}

	return out
}

func applianceRow(id dataset.ID, energized bool, s, u complex128, uRated float64) Appliance {
	row := Appliance{ID: id, Energized: energized}
	if !energized {
		return row
	}
	sa := s * admittance.BaseP
	row.P, row.Q = real(sa), imag(sa)
	row.S = cmplx.Abs(sa)
	if v := cmplx.Abs(u); v > 0 {
		row.I = cmplx.Abs(s) / v * admittance.BaseI(uRated)
	}
	if row.S > 0 {
		row.PF = row.P / row.S
	}

	return row
}

// loadReference flips P and Q of a generator-referenced row.
func loadReference(a Appliance) Appliance {
	a.P, a.Q = -a.P, -a.Q
	if a.S > 0 {
		a.PF = a.P / a.S
	}

	return a
}
