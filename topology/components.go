// SPDX-License-Identifier: MIT

package topology

import "github.com/katalvlaran/gridstate/dataset"

// Islands returns the connected groups of buses joined by closed branches.
// Each island lists bus indices in BFS order; islands are ordered by their
// lowest bus index.
//
// Time:   O(B+L).
// Memory: O(B) for visited flags and output.
func (m *Model) Islands() [][]int {
	seen := make([]bool, m.NumBuses())
	var islands [][]int
	for b0 := range seen {
		if seen[b0] {
			continue
		}
		seen[b0] = true
		islands = append(islands, m.bfs(b0, seen))
	}

	return islands
}

// bfs collects every bus reachable from start through closed branches,
// marking them in seen.
func (m *Model) bfs(start int, seen []bool) []int {
	queue := []int{start}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		for _, k := range m.adjacency[u] {
			br := m.branches[k]
			v := br.To
			if v == u {
				v = br.From
			}
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}

	return queue
}

// Energized marks every bus reachable from a bus with a connected source,
// using the appliance statuses of d (which must share this model's structure).
func (m *Model) Energized(d *dataset.Dataset) []bool {
	seen := make([]bool, m.NumBuses())
	for _, a := range m.appliances {
		if a.Component != dataset.ComponentSource || !d.Sources[a.Index].Status.On() || seen[a.Bus] {
			continue
		}
		seen[a.Bus] = true
		m.bfs(a.Bus, seen)
	}

	return seen
}

// Isolated returns the node ids of buses that Energized leaves dark, in bus
// order.
func (m *Model) Isolated(d *dataset.Dataset) []int64 {
	var out []int64
	for i, on := range m.Energized(d) {
		if !on {
			out = append(out, int64(m.nodeIDs[i]))
		}
	}

	return out
}

// On reports whether the appliance is connected in d.
func (a Appliance) On(d *dataset.Dataset) bool {
	switch a.Component {
	case dataset.ComponentSource:
		return d.Sources[a.Index].Status.On()
	case dataset.ComponentSymLoad:
		return d.SymLoads[a.Index].Status.On()
	case dataset.ComponentSymGen:
		return d.SymGens[a.Index].Status.On()
	case dataset.ComponentShunt:
		return d.Shunts[a.Index].Status.On()
	default:
		return false
	}
}

// ReferenceBus returns the bus of the first connected source in d, or -1.
func (m *Model) ReferenceBus(d *dataset.Dataset) int {
	for _, a := range m.appliances {
		if a.Component == dataset.ComponentSource && d.Sources[a.Index].Status.On() {
			return a.Bus
		}
	}

	return -1
}
