// SPDX-License-Identifier: MIT

package powerflow

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
)

// term is a voltage-dependent injection s·|U|^k at one bus, generator
// reference direction (loads carry a negated s).
type term struct {
	bus int
	s   complex128
	k   float64
}

// applianceTerms collects connected loads and generators.
func applianceTerms(net *admittance.Network, d *dataset.Dataset) []term {
	var out []term
	for _, a := range net.Topology().Appliances() {
		if !a.On(d) {
			continue
		}
		switch a.Component {
		case dataset.ComponentSymLoad:
			l := d.SymLoads[a.Index]
			out = append(out, term{bus: a.Bus, s: -complex(l.PSpecified, l.QSpecified) / admittance.BaseP, k: l.Type.Exponent()})
		case dataset.ComponentSymGen:
			g := d.SymGens[a.Index]
			out = append(out, term{bus: a.Bus, s: complex(g.PSpecified, g.QSpecified) / admittance.BaseP, k: g.Type.Exponent()})
		}
	}

	return out
}

// evalTerms returns per bus the specified injection Σ s·v^k and its
// derivative Σ s·k·v^(k-1) with respect to the voltage magnitude.
func evalTerms(terms []term, v []float64) (inj, dInj []complex128) {
	inj = make([]complex128, len(v))
	dInj = make([]complex128, len(v))
	for _, t := range terms {
		vi := v[t.bus]
		switch t.k {
		case 0:
			inj[t.bus] += t.s
		case 1:
			inj[t.bus] += t.s * complex(vi, 0)
			dInj[t.bus] += t.s
		default:
			inj[t.bus] += t.s * complex(math.Pow(vi, t.k), 0)
			dInj[t.bus] += t.s * complex(t.k*math.Pow(vi, t.k-1), 0)
		}
	}

	return inj, dInj
}

// checkEnergized fails when any bus is not reached by a connected source.
func checkEnergized(net *admittance.Network, d *dataset.Dataset) error {
	if dark := net.Topology().Isolated(d); len(dark) > 0 {
		return &calcerr.DisconnectedNetworkError{Nodes: dark}
	}

	return nil
}

// FlatStart returns the initial voltages: magnitude is the mean u_ref of the
// connected sources, angle is the u_ref_angle of the first one.
func FlatStart(net *admittance.Network, d *dataset.Dataset) []complex128 {
	var mag, angle float64
	count := 0
	for _, a := range net.Topology().Appliances() {
		if a.Component != dataset.ComponentSource || !a.On(d) {
			continue
		}
		s := d.Sources[a.Index]
		if count == 0 {
			angle = s.URefAngle
		}
		mag += s.URef
		count++
	}
	if count == 0 {
		mag, count = 1, 1
	}
	u0 := cmplx.Rect(mag/float64(count), angle)
	out := make([]complex128, net.Topology().NumBuses())
	for i := range out {
		out[i] = u0
	}

	return out
}

// ApplianceInjections returns the power each appliance injects into its bus
// at voltages u, in pu and generator reference direction, indexed like
// Topology().Appliances(). Disconnected appliances inject 0. Sources inject
// through their Norton equivalent, loads and generators follow their voltage
// dependency, shunts draw |U|²·conj(y).
func ApplianceInjections(net *admittance.Network, d *dataset.Dataset, u []complex128) []complex128 {
	m := net.Topology()
	out := make([]complex128, len(m.Appliances()))
	for k, a := range m.Appliances() {
		if !a.On(d) {
			continue
		}
		ui := u[a.Bus]
		v := cmplx.Abs(ui)
		switch a.Component {
		case dataset.ComponentSource:
			src := admittance.NewSourceModel(d.Sources[a.Index])
			out[k] = ui * cmplx.Conj(src.Y*(src.E-ui))
		case dataset.ComponentSymLoad:
			l := d.SymLoads[a.Index]
			out[k] = -complex(l.PSpecified, l.QSpecified) / admittance.BaseP * complex(math.Pow(v, l.Type.Exponent()), 0)
		case dataset.ComponentSymGen:
			g := d.SymGens[a.Index]
			out[k] = complex(g.PSpecified, g.QSpecified) / admittance.BaseP * complex(math.Pow(v, g.Type.Exponent()), 0)
		case dataset.ComponentShunt:
			y := admittance.ShuntAdmittance(d.Shunts[a.Index], m.URated(a.Bus))
			out[k] = -complex(v*v, 0) * cmplx.Conj(y)
		}
	}

	return out
}
