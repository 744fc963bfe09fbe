// SPDX-License-Identifier: MIT

// Package testgrid provides small reference networks shared by the tests of
// several packages.
package testgrid

import "github.com/katalvlaran/gridstate/dataset"

// URated of every bus in the reference networks.
const URated = 10.5e3

// ThreeNode returns the radial feeder
//
//	source 8 ── node 1 ──line 4── node 2 ──line 5── node 3
//	                               │                 │
//	                             load 6            load 7
//
// without sensors.
func ThreeNode() *dataset.Dataset {
	return &dataset.Dataset{
		Nodes: []dataset.Node{
			{ID: 1, URated: URated},
			{ID: 2, URated: URated},
			{ID: 3, URated: URated},
		},
		Lines: []dataset.Line{
			{ID: 4, FromNode: 1, ToNode: 2, FromStatus: dataset.Connected, ToStatus: dataset.Connected,
				R1: 0.25, X1: 0.2, C1: 10e-6, Tan1: 0, IN: 1000},
			{ID: 5, FromNode: 2, ToNode: 3, FromStatus: dataset.Connected, ToStatus: dataset.Connected,
				R1: 0.25, X1: 0.2, C1: 10e-6, Tan1: 0, IN: 1000},
		},
		Sources: []dataset.Source{
			{ID: 8, Node: 1, Status: dataset.Connected, URef: 1.0, SK: 1e10, RXRatio: 0.1},
		},
		SymLoads: []dataset.SymLoad{
			{ID: 6, Node: 2, Status: dataset.Connected, Type: dataset.ConstPower, PSpecified: 20e6, QSpecified: 5e6},
			{ID: 7, Node: 3, Status: dataset.Connected, Type: dataset.ConstPower, PSpecified: 10e6, QSpecified: 2e6},
		},
	}
}

// Meshed returns ThreeNode plus a line 9 closing the ring 1-3, a generator 10
// at node 3 and a shunt 11 at node 2.
func Meshed() *dataset.Dataset {
	d := ThreeNode()
	d.Lines = append(d.Lines, dataset.Line{
		ID: 9, FromNode: 1, ToNode: 3, FromStatus: dataset.Connected, ToStatus: dataset.Connected,
		R1: 0.4, X1: 0.3, C1: 5e-6, Tan1: 0.01, IN: 800,
	})
	d.SymGens = []dataset.SymGen{
		{ID: 10, Node: 3, Status: dataset.Connected, Type: dataset.ConstPower, PSpecified: 4e6, QSpecified: 1e6},
	}
	d.Shunts = []dataset.Shunt{
		{ID: 11, Node: 2, Status: dataset.Connected, G1: 0, B1: 0.01},
	}

	return d
}
