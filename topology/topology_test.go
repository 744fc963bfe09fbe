// SPDX-License-Identifier: MIT

package topology_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/internal/testgrid"
	"github.com/katalvlaran/gridstate/topology"
)

// MustBuild builds a model or fails the test.
func MustBuild(t *testing.T, d *dataset.Dataset) *topology.Model {
	t.Helper()
	m, err := topology.Build(d)
	require.NoError(t, err)

	return m
}

func topologyIssues(t *testing.T, err error) []calcerr.Issue {
	t.Helper()
	var te *calcerr.InvalidTopologyError
	require.ErrorAs(t, err, &te)

	return te.Issues
}

func TestBuildIndexesThreeNode(t *testing.T) {
	d := testgrid.ThreeNode()
	m := MustBuild(t, d)

	require.Equal(t, 3, m.NumBuses())
	for i, id := range []dataset.ID{1, 2, 3} {
		bus, ok := m.Bus(id)
		require.True(t, ok)
		assert.Equal(t, i, bus)
		assert.Equal(t, id, m.NodeID(i))
		assert.Equal(t, testgrid.URated, m.URated(i))
	}

	ref, ok := m.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, topology.ObjectRef{Component: dataset.ComponentLine, Index: 1}, ref)

	br := m.Branches()
	require.Len(t, br, 2)
	assert.Equal(t, topology.Branch{ID: 4, Index: 0, From: 0, To: 1, FromOn: true, ToOn: true}, br[0])

	src, ok := m.ApplianceByID(8)
	require.True(t, ok)
	assert.Equal(t, dataset.ComponentSource, src.Component)
	assert.Equal(t, 0, src.Bus)

	at2 := m.AppliancesAt(2)
	require.Len(t, at2, 1)
	assert.Equal(t, dataset.ID(7), m.Appliances()[at2[0]].ID)

	_, ok = m.ApplianceByID(4)
	assert.False(t, ok, "a line is not an appliance")
	assert.Equal(t, 0, m.ReferenceBus(d))
}

func TestBuildReportsEveryIssue(t *testing.T) {
	d := testgrid.ThreeNode()
	d.Nodes = append(d.Nodes, dataset.Node{ID: 12, URated: 400})
	d.Lines = append(d.Lines,
		dataset.Line{ID: 4, FromNode: 1, ToNode: 3, R1: 1},  // duplicate id
		dataset.Line{ID: 13, FromNode: 1, ToNode: 42, R1: 1}, // dangling
		dataset.Line{ID: 14, FromNode: 2, ToNode: 2, R1: 1},  // self loop
		dataset.Line{ID: 15, FromNode: 3, ToNode: 12, R1: 1}, // voltage mismatch
	)
	d.SymLoads = append(d.SymLoads, dataset.SymLoad{ID: 16, Node: 99})
	d.VoltageSensors = []dataset.SymVoltageSensor{{ID: 17, MeasuredObject: 4, USigma: 1, UMeasured: 1}}
	d.PowerSensors = []dataset.SymPowerSensor{
		{ID: 18, MeasuredObject: 6, MeasuredTerminal: dataset.BranchFrom, PowerSigma: 1},
		{ID: 19, MeasuredObject: 11, MeasuredTerminal: dataset.ShuntTerminal, PowerSigma: 1},
		{ID: 20, MeasuredObject: 6, MeasuredTerminal: dataset.LoadTerminal, PowerSigma: 1},
	}

	_, err := topology.Build(d)
	require.ErrorIs(t, err, calcerr.ErrInvalidTopology)

	got := make([]int64, 0, 8)
	for _, is := range topologyIssues(t, err) {
		got = append(got, is.ID)
	}
	assert.Equal(t, []int64{4, 13, 14, 15, 16, 17, 18, 19}, got)
}

func TestIslandsAndEnergized(t *testing.T) {
	d := testgrid.ThreeNode()
	d.Lines[1].ToStatus = dataset.Disconnected // node 3 hangs off an open line
	m := MustBuild(t, d)

	assert.Equal(t, [][]int{{0, 1}, {2}}, m.Islands())
	assert.Equal(t, []bool{true, true, false}, m.Energized(d))
	assert.Equal(t, []int64{3}, m.Isolated(d))

	t.Run("switched off source darkens everything", func(t *testing.T) {
		off := d.Clone()
		off.Sources[0].Status = dataset.Disconnected
		assert.Equal(t, []int64{1, 2, 3}, m.Isolated(off))
		assert.Equal(t, -1, m.ReferenceBus(off))
	})
}

func TestMeshedIslandIsSingle(t *testing.T) {
	d := testgrid.Meshed()
	m := MustBuild(t, d)

	islands := m.Islands()
	require.Len(t, islands, 1)
	assert.ElementsMatch(t, []int{0, 1, 2}, islands[0])
	assert.Empty(t, m.Isolated(d))

	for _, a := range m.Appliances() {
		assert.True(t, a.On(d), "appliance %d", a.ID)
	}
}

func TestModelConcurrentReaders(t *testing.T) {
	d := testgrid.Meshed()
	m := MustBuild(t, d)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				_ = m.Islands()
				_ = m.Energized(d)
				_, _ = m.Lookup(dataset.ID(k % 12))
			}
		}()
	}
	wg.Wait()
}
