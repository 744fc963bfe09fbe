// SPDX-License-Identifier: MIT

package dataset

// Dataset holds one homogeneous slice per component table.
// A Dataset is plain data: the topology package indexes it, the solvers read
// it, and nothing in this module mutates a Dataset it did not create.
type Dataset struct {
	Nodes          []Node             `yaml:"node"`
	Lines          []Line             `yaml:"line"`
	Sources        []Source           `yaml:"source"`
	SymLoads       []SymLoad          `yaml:"sym_load"`
	SymGens        []SymGen           `yaml:"sym_gen"`
	Shunts         []Shunt            `yaml:"shunt"`
	VoltageSensors []SymVoltageSensor `yaml:"sym_voltage_sensor"`
	PowerSensors   []SymPowerSensor   `yaml:"sym_power_sensor"`
}

// Clone returns a deep copy. Nil tables stay nil.
// Complexity: O(total rows).
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}

	return &Dataset{
		Nodes:          cloneSlice(d.Nodes),
		Lines:          cloneSlice(d.Lines),
		Sources:        cloneSlice(d.Sources),
		SymLoads:       cloneSlice(d.SymLoads),
		SymGens:        cloneSlice(d.SymGens),
		Shunts:         cloneSlice(d.Shunts),
		VoltageSensors: cloneSlice(d.VoltageSensors),
		PowerSensors:   cloneSlice(d.PowerSensors),
	}
}

// Count returns the number of rows of the given table.
func (d *Dataset) Count(c Component) int {
	switch c {
	case ComponentNode:
		return len(d.Nodes)
	case ComponentLine:
		return len(d.Lines)
	case ComponentSource:
		return len(d.Sources)
	case ComponentSymLoad:
		return len(d.SymLoads)
	case ComponentSymGen:
		return len(d.SymGens)
	case ComponentShunt:
		return len(d.Shunts)
	case ComponentVoltageSensor:
		return len(d.VoltageSensors)
	case ComponentPowerSensor:
		return len(d.PowerSensors)
	default:
		return 0
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)

	return out
}
