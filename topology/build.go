// SPDX-License-Identifier: MIT

package topology

import (
	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
)

// Build indexes d into an immutable Model.
//
// Implementation:
//   - Stage 1: register every id in one namespace; duplicates are issues.
//   - Stage 2: number buses in node order.
//   - Stage 3: resolve lines (endpoints exist, differ, share a voltage level).
//   - Stage 4: resolve appliances and group them per bus.
//   - Stage 5: check sensor targets against their terminal type.
//
// All stages run even when earlier ones found issues, so one call reports
// every structural problem. Build does not look at numeric ranges; run
// dataset.Validate for those.
//
// Errors:
//   - *calcerr.InvalidTopologyError with one Issue per offending row.
//
// Complexity:
//   - Time O(N), Space O(N), N = total rows.
func Build(d *dataset.Dataset) (*Model, error) {
	var issues calcerr.Collector
	m := &Model{
		busOf:   make(map[dataset.ID]int, len(d.Nodes)),
		objects: make(map[dataset.ID]ObjectRef, len(d.Nodes)+len(d.Lines)+len(d.Sources)+len(d.SymLoads)),
		applOf:  make(map[dataset.ID]int, len(d.Sources)+len(d.SymLoads)+len(d.SymGens)+len(d.Shunts)),
	}

	register := func(c dataset.Component, id dataset.ID, row int) bool {
		if prev, dup := m.objects[id]; dup {
			issues.Addf(string(c), int64(id), "id", "duplicate id, already used by %s row %d", prev.Component, prev.Index)
			return false
		}
		m.objects[id] = ObjectRef{Component: c, Index: row}
		return true
	}

	// Stage 1+2: buses.
	m.nodeIDs = make([]dataset.ID, 0, len(d.Nodes))
	m.uRated = make([]float64, 0, len(d.Nodes))
	for i, n := range d.Nodes {
		if !register(dataset.ComponentNode, n.ID, i) {
			continue
		}
		m.busOf[n.ID] = len(m.nodeIDs)
		m.nodeIDs = append(m.nodeIDs, n.ID)
		m.uRated = append(m.uRated, n.URated)
	}
	m.atBus = make([][]int, len(m.nodeIDs))
	m.adjacency = make([][]int, len(m.nodeIDs))

	// Stage 3: lines.
	m.branches = make([]Branch, 0, len(d.Lines))
	for i, l := range d.Lines {
		if !register(dataset.ComponentLine, l.ID, i) {
			continue
		}
		from, okF := m.busOf[l.FromNode]
		to, okT := m.busOf[l.ToNode]
		if !okF {
			issues.Addf(string(dataset.ComponentLine), int64(l.ID), "from_node", "node %d does not exist", l.FromNode)
		}
		if !okT {
			issues.Addf(string(dataset.ComponentLine), int64(l.ID), "to_node", "node %d does not exist", l.ToNode)
		}
		if !okF || !okT {
			continue
		}
		if from == to {
			issues.Addf(string(dataset.ComponentLine), int64(l.ID), "to_node", "line connects node %d to itself", l.FromNode)
			continue
		}
		if m.uRated[from] != m.uRated[to] {
			issues.Addf(string(dataset.ComponentLine), int64(l.ID), "to_node",
				"line joins different voltage levels (%g V, %g V)", m.uRated[from], m.uRated[to])
			continue
		}
		b := Branch{ID: l.ID, Index: i, From: from, To: to, FromOn: l.FromStatus.On(), ToOn: l.ToStatus.On()}
		if b.Closed() {
			k := len(m.branches)
			m.adjacency[from] = append(m.adjacency[from], k)
			m.adjacency[to] = append(m.adjacency[to], k)
		}
		m.branches = append(m.branches, b)
	}

	// Stage 4: appliances.
	attach := func(c dataset.Component, id dataset.ID, row int, node dataset.ID) {
		if !register(c, id, row) {
			return
		}
		bus, ok := m.busOf[node]
		if !ok {
			issues.Addf(string(c), int64(id), "node", "node %d does not exist", node)
			return
		}
		k := len(m.appliances)
		m.appliances = append(m.appliances, Appliance{ID: id, Component: c, Index: row, Bus: bus})
		m.applOf[id] = k
		m.atBus[bus] = append(m.atBus[bus], k)
	}
	for i, s := range d.Sources {
		attach(dataset.ComponentSource, s.ID, i, s.Node)
	}
	for i, l := range d.SymLoads {
		attach(dataset.ComponentSymLoad, l.ID, i, l.Node)
	}
	for i, g := range d.SymGens {
		attach(dataset.ComponentSymGen, g.ID, i, g.Node)
	}
	for i, s := range d.Shunts {
		attach(dataset.ComponentShunt, s.ID, i, s.Node)
	}

	// Stage 5: sensors.
	for i, s := range d.VoltageSensors {
		if !register(dataset.ComponentVoltageSensor, s.ID, i) {
			continue
		}
		if _, ok := m.busOf[s.MeasuredObject]; !ok {
			issues.Addf(string(dataset.ComponentVoltageSensor), int64(s.ID), "measured_object",
				"object %d is not a node", s.MeasuredObject)
		}
	}
	for i, s := range d.PowerSensors {
		if !register(dataset.ComponentPowerSensor, s.ID, i) {
			continue
		}
		want, supported := terminalComponent(s.MeasuredTerminal)
		if !supported {
			issues.Addf(string(dataset.ComponentPowerSensor), int64(s.ID), "measured_terminal_type",
				"power sensors on %s terminals are not supported", s.MeasuredTerminal)
			continue
		}
		ref, ok := m.objects[s.MeasuredObject]
		if !ok || ref.Component != want {
			issues.Addf(string(dataset.ComponentPowerSensor), int64(s.ID), "measured_object",
				"object %d is not a %s", s.MeasuredObject, want)
		}
	}

	if err := issues.Topology(); err != nil {
		return nil, err
	}

	return m, nil
}

// terminalComponent maps a terminal type to the table its object must be in.
func terminalComponent(t dataset.TerminalType) (dataset.Component, bool) {
	switch t {
	case dataset.BranchFrom, dataset.BranchTo:
		return dataset.ComponentLine, true
	case dataset.SourceTerminal:
		return dataset.ComponentSource, true
	case dataset.LoadTerminal:
		return dataset.ComponentSymLoad, true
	case dataset.GeneratorTerminal:
		return dataset.ComponentSymGen, true
	case dataset.NodeTerminal:
		return dataset.ComponentNode, true
	default:
		return "", false
	}
}
