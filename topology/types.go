// SPDX-License-Identifier: MIT

package topology

import "github.com/katalvlaran/gridstate/dataset"

// ObjectRef locates a component row: table name plus row index in that table.
type ObjectRef struct {
	Component dataset.Component
	Index     int
}

// Branch is a line resolved to bus indices.
type Branch struct {
	ID     dataset.ID
	Index  int // row in dataset.Lines
	From   int // bus index
	To     int // bus index
	FromOn bool
	ToOn   bool
}

// Closed reports whether both sides are connected.
func (b Branch) Closed() bool { return b.FromOn && b.ToOn }

// Appliance is a one-terminal component resolved to its bus.
type Appliance struct {
	ID        dataset.ID
	Component dataset.Component // source, sym_load, sym_gen or shunt
	Index     int               // row in its table
	Bus       int
}

// Model is the indexed network. It is immutable after Build and therefore
// safe for concurrent readers.
type Model struct {
	nodeIDs []dataset.ID       // bus index -> node id
	uRated  []float64          // bus index -> rated voltage
	busOf   map[dataset.ID]int // node id -> bus index
	objects map[dataset.ID]ObjectRef

	branches   []Branch           // one per line, input order
	appliances []Appliance        // sources, loads, gens, shunts in that order
	applOf     map[dataset.ID]int // appliance id -> index into appliances
	atBus      [][]int            // bus -> indices into appliances
	adjacency  [][]int            // bus -> branch indices with both sides closed
}

// NumBuses returns the bus count.
func (m *Model) NumBuses() int { return len(m.nodeIDs) }

// NodeID returns the node id of bus i.
func (m *Model) NodeID(i int) dataset.ID { return m.nodeIDs[i] }

// URated returns the rated voltage of bus i.
func (m *Model) URated(i int) float64 { return m.uRated[i] }

// Bus returns the bus index of a node id.
func (m *Model) Bus(node dataset.ID) (int, bool) {
	i, ok := m.busOf[node]
	return i, ok
}

// Lookup resolves any component id.
func (m *Model) Lookup(id dataset.ID) (ObjectRef, bool) {
	ref, ok := m.objects[id]
	return ref, ok
}

// Branches returns the resolved lines in input order. The slice must not be
// modified.
func (m *Model) Branches() []Branch { return m.branches }

// Appliances returns every appliance. The slice must not be modified.
func (m *Model) Appliances() []Appliance { return m.appliances }

// AppliancesAt returns indices into Appliances() attached to bus i.
func (m *Model) AppliancesAt(i int) []int { return m.atBus[i] }

// BranchIndex returns the index into Branches() of a line id. Build rejects
// every malformed line, so branch k is always line row k.
func (m *Model) BranchIndex(id dataset.ID) (int, bool) {
	ref, ok := m.objects[id]
	if !ok || ref.Component != dataset.ComponentLine {
		return -1, false
	}

	return ref.Index, true
}

// ApplianceIndex returns the index into Appliances() of an appliance id.
func (m *Model) ApplianceIndex(id dataset.ID) (int, bool) {
	i, ok := m.applOf[id]
	return i, ok
}

// ApplianceByID returns the appliance with the given id.
func (m *Model) ApplianceByID(id dataset.ID) (Appliance, bool) {
	i, ok := m.applOf[id]
	if !ok {
		return Appliance{}, false
	}

	return m.appliances[i], true
}
