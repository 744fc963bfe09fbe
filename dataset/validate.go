// SPDX-License-Identifier: MIT

package dataset

import (
	"math"

	"github.com/katalvlaran/gridstate/calcerr"
)

// Validate checks every row for schema and range violations: finite values,
// positive ratings and sigmas, known enumerations. Cross-row rules (ids,
// references) belong to topology.Build.
//
// Returns nil or a *calcerr.ValidationError with one issue per violation.
// Complexity: O(total rows).
func Validate(d *Dataset) error {
	var c calcerr.Collector
	if d == nil || len(d.Nodes) == 0 {
		c.Addf(string(ComponentNode), 0, "", "dataset must contain at least one node")
		return c.Validation()
	}

	for _, n := range d.Nodes {
		positive(&c, ComponentNode, n.ID, "u_rated", n.URated)
	}
	for _, l := range d.Lines {
		status(&c, ComponentLine, l.ID, "from_status", l.FromStatus)
		status(&c, ComponentLine, l.ID, "to_status", l.ToStatus)
		nonNegative(&c, ComponentLine, l.ID, "r1", l.R1)
		finite(&c, ComponentLine, l.ID, "x1", l.X1)
		if l.R1 == 0 && l.X1 == 0 {
			c.Addf(string(ComponentLine), int64(l.ID), "x1", "series impedance must be non-zero")
		}
		nonNegative(&c, ComponentLine, l.ID, "c1", l.C1)
		nonNegative(&c, ComponentLine, l.ID, "tan1", l.Tan1)
		nonNegative(&c, ComponentLine, l.ID, "i_n", l.IN)
	}
	for _, s := range d.Sources {
		status(&c, ComponentSource, s.ID, "status", s.Status)
		positive(&c, ComponentSource, s.ID, "u_ref", s.URef)
		finite(&c, ComponentSource, s.ID, "u_ref_angle", s.URefAngle)
		nonNegative(&c, ComponentSource, s.ID, "sk", s.SK)
		nonNegative(&c, ComponentSource, s.ID, "rx_ratio", s.RXRatio)
	}
	for _, l := range d.SymLoads {
		status(&c, ComponentSymLoad, l.ID, "status", l.Status)
		loadType(&c, ComponentSymLoad, l.ID, l.Type)
		finite(&c, ComponentSymLoad, l.ID, "p_specified", l.PSpecified)
		finite(&c, ComponentSymLoad, l.ID, "q_specified", l.QSpecified)
	}
	for _, g := range d.SymGens {
		status(&c, ComponentSymGen, g.ID, "status", g.Status)
		loadType(&c, ComponentSymGen, g.ID, g.Type)
		finite(&c, ComponentSymGen, g.ID, "p_specified", g.PSpecified)
		finite(&c, ComponentSymGen, g.ID, "q_specified", g.QSpecified)
	}
	for _, s := range d.Shunts {
		status(&c, ComponentShunt, s.ID, "status", s.Status)
		finite(&c, ComponentShunt, s.ID, "g1", s.G1)
		finite(&c, ComponentShunt, s.ID, "b1", s.B1)
	}
	for _, s := range d.VoltageSensors {
		positive(&c, ComponentVoltageSensor, s.ID, "u_sigma", s.USigma)
		positive(&c, ComponentVoltageSensor, s.ID, "u_measured", s.UMeasured)
		if s.AngleMeasured {
			finite(&c, ComponentVoltageSensor, s.ID, "u_angle_measured", s.UAngleMeasured)
		}
	}
	for _, s := range d.PowerSensors {
		switch s.MeasuredTerminal {
		case BranchFrom, BranchTo, SourceTerminal, ShuntTerminal, LoadTerminal, GeneratorTerminal, NodeTerminal:
		default:
			c.Addf(string(ComponentPowerSensor), int64(s.ID), "measured_terminal_type",
				"unknown terminal type %d", s.MeasuredTerminal)
		}
		sp, sq := s.Sigmas()
		positive(&c, ComponentPowerSensor, s.ID, "p_sigma", sp)
		positive(&c, ComponentPowerSensor, s.ID, "q_sigma", sq)
		finite(&c, ComponentPowerSensor, s.ID, "p_measured", s.PMeasured)
		finite(&c, ComponentPowerSensor, s.ID, "q_measured", s.QMeasured)
	}

	return c.Validation()
}

func finite(c *calcerr.Collector, comp Component, id ID, field string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.Addf(string(comp), int64(id), field, "must be finite, got %v", v)
		return false
	}

	return true
}

func positive(c *calcerr.Collector, comp Component, id ID, field string, v float64) {
	if finite(c, comp, id, field, v) && v <= 0 {
		c.Addf(string(comp), int64(id), field, "must be > 0, got %g", v)
	}
}

func nonNegative(c *calcerr.Collector, comp Component, id ID, field string, v float64) {
	if finite(c, comp, id, field, v) && v < 0 {
		c.Addf(string(comp), int64(id), field, "must be >= 0, got %g", v)
	}
}

func status(c *calcerr.Collector, comp Component, id ID, field string, s Status) {
	if s != Connected && s != Disconnected {
		c.Addf(string(comp), int64(id), field, "status must be 0 or 1, got %d", s)
	}
}

func loadType(c *calcerr.Collector, comp Component, id ID, t LoadType) {
	switch t {
	case ConstPower, ConstImpedance, ConstCurrent:
	default:
		c.Addf(string(comp), int64(id), "type", "unknown load type %d", t)
	}
}
