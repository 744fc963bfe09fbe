// SPDX-License-Identifier: MIT

package estimation

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/powerflow"
	"github.com/katalvlaran/gridstate/topology"
)

// Kind tags the variant of a Measurement.
type Kind uint8

const (
	VoltageMagnitude Kind = iota
	VoltagePhasor
	BranchFlow
	Injection
)

func (k Kind) String() string {
	switch k {
	case VoltageMagnitude:
		return "voltage_magnitude"
	case VoltagePhasor:
		return "voltage_phasor"
	case BranchFlow:
		return "branch_flow"
	case Injection:
		return "injection"
	default:
		return "unknown"
	}
}

// Rows returns the number of real equations the measurement contributes.
func (k Kind) Rows() int {
	if k == VoltageMagnitude {
		return 1
	}

	return 2
}

// Measurement is one per-unit observation. Fields used depend on Kind:
//
//	VoltageMagnitude  Bus, Value (real part = |U|), SigmaA
//	VoltagePhasor     Bus, Value (phasor), SigmaA (|U|), SigmaB (θ)
//	BranchFlow        Branch, FromSide, Bus (measured side), Value (P+jQ), SigmaA (P), SigmaB (Q)
//	Injection         Bus, Value (P+jQ, generator reference), SigmaA (P), SigmaB (Q)
type Measurement struct {
	Kind     Kind
	Bus      int
	Branch   int
	FromSide bool
	Value    complex128
	SigmaA   float64
	SigmaB   float64
	Virtual  bool // zero-injection constraint, not backed by a sensor
}

// applianceMeasurement is the inverse-variance combination of every sensor
// on one appliance, generator reference direction, per-unit.
type applianceMeasurement struct {
	s          complex128
	varP, varQ float64
}

// system is the measurement model of one scenario.
type system struct {
	net  *admittance.Network
	topo *topology.Model
	d    *dataset.Dataset
	y    *admittance.YBus // lines and shunts, no sources

	meas     []Measurement
	appl     map[int]applianceMeasurement // topology appliance index → combined measurement
	hasAngle bool
	refBus   int // pinned angle bus, -1 when angles are measured
	refAngle float64
	u0       []complex128 // flat start
}

// Measurements translates the sensors of d into per-unit measurements in a
// deterministic order: voltage sensors, branch sensors, node sensors,
// aggregated appliance injections by bus, zero injections by bus. Branch
// sensors on an open line side carry no information and are dropped.
// d must have passed topology.Build for net's topology.
func Measurements(net *admittance.Network, d *dataset.Dataset) []Measurement {
	return newSystem(net, d).meas
}

func newSystem(net *admittance.Network, d *dataset.Dataset) *system {
	m := net.Topology()
	s := &system{
		net:    net,
		topo:   m,
		d:      d,
		y:      net.Build(d),
		appl:   make(map[int]applianceMeasurement),
		refBus: -1,
		u0:     powerflow.FlatStart(net, d),
	}

	for _, vs := range d.VoltageSensors {
		bus, _ := m.Bus(vs.MeasuredObject)
		base := m.URated(bus)
		v, sigma := vs.UMeasured/base, vs.USigma/base
		if vs.AngleMeasured {
			s.hasAngle = true
			s.meas = append(s.meas, Measurement{
				Kind: VoltagePhasor, Bus: bus,
				Value:  cmplx.Rect(v, vs.UAngleMeasured),
				SigmaA: sigma, SigmaB: sigma / v,
			})
			continue
		}
		s.meas = append(s.meas, Measurement{Kind: VoltageMagnitude, Bus: bus, Value: complex(v, 0), SigmaA: sigma})
	}

	var nodeSensors []Measurement
	for _, ps := range d.PowerSensors {
		sp, sq := ps.Sigmas()
		val := complex(ps.PMeasured, ps.QMeasured) / admittance.BaseP
		sp, sq = sp/admittance.BaseP, sq/admittance.BaseP

		switch ps.MeasuredTerminal {
		case dataset.BranchFrom, dataset.BranchTo:
			k, _ := m.BranchIndex(ps.MeasuredObject)
			br := m.Branches()[k]
			from := ps.MeasuredTerminal == dataset.BranchFrom
			bus, on := br.To, br.ToOn
			if from {
				bus, on = br.From, br.FromOn
			}
			if !on {
				continue
			}
			s.meas = append(s.meas, Measurement{
				Kind: BranchFlow, Branch: k, FromSide: from, Bus: bus,
				Value: val, SigmaA: sp, SigmaB: sq,
			})
		case dataset.NodeTerminal:
			bus, _ := m.Bus(ps.MeasuredObject)
			nodeSensors = append(nodeSensors, Measurement{Kind: Injection, Bus: bus, Value: val, SigmaA: sp, SigmaB: sq})
		default:
			if ps.MeasuredTerminal == dataset.LoadTerminal {
				val = -val // load reference → generator reference
			}
			k, _ := m.ApplianceIndex(ps.MeasuredObject)
			s.appl[k] = combine(s.appl[k], applianceMeasurement{s: val, varP: sp * sp, varQ: sq * sq})
		}
	}
	s.meas = append(s.meas, nodeSensors...)

	// Aggregated injections and zero injections, bus order.
	var zero []Measurement
	for bus := 0; bus < m.NumBuses(); bus++ {
		connected, measured := 0, 0
		var sum complex128
		var varP, varQ float64
		for _, k := range m.AppliancesAt(bus) {
			a := m.Appliances()[k]
			if a.Component == dataset.ComponentShunt || !a.On(d) {
				continue
			}
			connected++
			if am, ok := s.appl[k]; ok {
				measured++
				sum += am.s
				varP += am.varP
				varQ += am.varQ
			}
		}
		switch {
		case connected == 0:
			zero = append(zero, Measurement{
				Kind: Injection, Bus: bus, SigmaA: ZeroInjectionSigma, SigmaB: ZeroInjectionSigma, Virtual: true,
			})
		case measured == connected:
			s.meas = append(s.meas, Measurement{
				Kind: Injection, Bus: bus, Value: sum, SigmaA: math.Sqrt(varP), SigmaB: math.Sqrt(varQ),
			})
		}
	}
	s.meas = append(s.meas, zero...)

	if !s.hasAngle {
		s.refBus = m.ReferenceBus(d)
		if s.refBus < 0 {
			s.refBus = 0
		}
		s.refAngle = cmplx.Phase(s.u0[s.refBus])
	}

	return s
}

// combine merges two independent estimates of the same appliance power by
// inverse-variance weighting. The zero value acts as "no estimate yet".
func combine(a, b applianceMeasurement) applianceMeasurement {
	if a.varP == 0 && a.varQ == 0 {
		return b
	}
	wpa, wpb := 1/a.varP, 1/b.varP
	wqa, wqb := 1/a.varQ, 1/b.varQ

	return applianceMeasurement{
		s: complex(
			(wpa*real(a.s)+wpb*real(b.s))/(wpa+wpb),
			(wqa*imag(a.s)+wqb*imag(b.s))/(wqa+wqb),
		),
		varP: 1 / (wpa + wpb),
		varQ: 1 / (wqa + wqb),
	}
}

// rowCount returns the number of real measurement equations.
func (s *system) rowCount() int {
	rows := 0
	for _, me := range s.meas {
		rows += me.Kind.Rows()
	}

	return rows
}

// unknowns returns the number of real state variables of the polar model.
func (s *system) unknowns() int {
	n := 2 * s.topo.NumBuses()
	if s.refBus >= 0 {
		n--
	}

	return n
}
