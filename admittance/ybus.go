// SPDX-License-Identifier: MIT

package admittance

import (
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/topology"
)

// Network holds everything about Y that does not change between scenarios.
type Network struct {
	topo      *topology.Model
	structure *Structure
	branches  []BranchModel // aligned with topo.Branches()
}

// NewNetwork precomputes the pattern and line models for topology m built
// from d.
func NewNetwork(m *topology.Model, d *dataset.Dataset) *Network {
	br := m.Branches()
	models := make([]BranchModel, len(br))
	for k, b := range br {
		models[k] = NewLineModel(d.Lines[b.Index], m.URated(b.From))
	}

	return &Network{topo: m, structure: NewStructure(m), branches: models}
}

// Topology returns the topology the network was built from.
func (n *Network) Topology() *topology.Model { return n.topo }

// Structure returns the shared sparsity pattern.
func (n *Network) Structure() *Structure { return n.structure }

// Branch returns the two-port of topology branch k.
func (n *Network) Branch(k int) BranchModel { return n.branches[k] }

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	sources bool
}

// WithSources adds the Norton admittance of every connected source to the
// diagonal. Power flow needs it; state estimation treats sources as
// appliances with unknown injection and leaves it out.
func WithSources() Option {
	return func(o *buildOptions) { o.sources = true }
}

// YBus is the numeric admittance matrix of one scenario on a shared
// Structure.
type YBus struct {
	s   *Structure
	val []complex128
}

// Build assembles Y for the appliance statuses and values in d. Lines always
// contribute; connected shunts always contribute; sources only WithSources.
// Complexity: O(nnz + appliances).
func (n *Network) Build(d *dataset.Dataset, opts ...Option) *YBus {
	var o buildOptions
	for _, fn := range opts {
		fn(&o)
	}
	s := n.structure
	y := &YBus{s: s, val: make([]complex128, s.NNZ())}

	for k, b := range n.topo.Branches() {
		m := n.branches[k]
		y.val[s.Diag(b.From)] += m.Yff
		y.val[s.Diag(b.To)] += m.Ytt
		if b.Closed() {
			y.val[s.Find(b.From, b.To)] += m.Yft
			y.val[s.Find(b.To, b.From)] += m.Ytf
		}
	}
	for i, ysh := range n.ShuntAdmittances(d) {
		y.val[s.Diag(i)] += ysh
	}
	if o.sources {
		for _, a := range n.topo.Appliances() {
			if a.Component == dataset.ComponentSource && a.On(d) {
				y.val[s.Diag(a.Bus)] += NewSourceModel(d.Sources[a.Index]).Y
			}
		}
	}

	return y
}

// ShuntAdmittances returns the summed per-unit admittance of connected shunts
// per bus.
func (n *Network) ShuntAdmittances(d *dataset.Dataset) []complex128 {
	out := make([]complex128, n.topo.NumBuses())
	for _, a := range n.topo.Appliances() {
		if a.Component == dataset.ComponentShunt && a.On(d) {
			out[a.Bus] += ShuntAdmittance(d.Shunts[a.Index], n.topo.URated(a.Bus))
		}
	}

	return out
}

// SourceCurrents returns the summed Norton current of connected sources per
// bus.
func (n *Network) SourceCurrents(d *dataset.Dataset) []complex128 {
	out := make([]complex128, n.topo.NumBuses())
	for _, a := range n.topo.Appliances() {
		if a.Component == dataset.ComponentSource && a.On(d) {
			out[a.Bus] += NewSourceModel(d.Sources[a.Index]).Current()
		}
	}

	return out
}

// Structure returns the pattern Y is stored on.
func (y *YBus) Structure() *Structure { return y.s }

// At returns Y[i][j] (0 when structurally zero).
func (y *YBus) At(i, j int) complex128 {
	if k := y.s.Find(i, j); k >= 0 {
		return y.val[k]
	}

	return 0
}

// RowValues returns the values of row i aligned with Structure().Row(i).
// The slice must not be modified.
func (y *YBus) RowValues(i int) []complex128 {
	return y.val[y.s.rowPtr[i]:y.s.rowPtr[i+1]]
}

// Mul returns the bus currents Y·v.
// Complexity: O(nnz).
func (y *YBus) Mul(v []complex128) []complex128 {
	out := make([]complex128, y.s.n)
	for i := 0; i < y.s.n; i++ {
		var acc complex128
		vals := y.RowValues(i)
		for k, j := range y.s.Row(i) {
			acc += vals[k] * v[j]
		}
		out[i] = acc
	}

	return out
}
