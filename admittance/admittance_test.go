// SPDX-License-Identifier: MIT

package admittance_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/internal/testgrid"
	"github.com/katalvlaran/gridstate/topology"
)

const eps = 1e-12

func mustNetwork(t *testing.T, d *dataset.Dataset) *admittance.Network {
	t.Helper()
	m, err := topology.Build(d)
	require.NoError(t, err)

	return admittance.NewNetwork(m, d)
}

func assertComplexInDelta(t *testing.T, want, got complex128, delta float64, msg ...any) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), delta, msg...)
	assert.InDelta(t, imag(want), imag(got), delta, msg...)
}

func TestBases(t *testing.T) {
	assert.InDelta(t, 110.25, admittance.BaseZ(10.5e3), eps)
	assert.InDelta(t, 1e6/(math.Sqrt(3)*400), admittance.BaseI(400), eps)
}

func TestLineModel(t *testing.T) {
	l := dataset.Line{R1: 0.25, X1: 0.2, C1: 10e-6, Tan1: 0.001,
		FromStatus: dataset.Connected, ToStatus: dataset.Connected}
	zb := admittance.BaseZ(testgrid.URated)
	ys := complex(zb, 0) / complex(0.25, 0.2)
	half := complex(math.Pi*50*10e-6*zb, 0) * complex(0.001, 1)

	t.Run("closed", func(t *testing.T) {
		m := admittance.NewLineModel(l, testgrid.URated)
		assertComplexInDelta(t, ys+half, m.Yff, 1e-9)
		assertComplexInDelta(t, -ys, m.Yft, 1e-9)
		assert.Equal(t, m.Yft, m.Ytf)
		assert.Equal(t, m.Yff, m.Ytt)

		// No current flows through a line with equal terminal voltages
		// except the shunt charging.
		v := cmplx.Rect(1.02, -0.1)
		assertComplexInDelta(t, half*v, m.FromCurrent(v, v), 1e-9)
	})

	t.Run("to side open", func(t *testing.T) {
		open := l
		open.ToStatus = dataset.Disconnected
		m := admittance.NewLineModel(open, testgrid.URated)
		assertComplexInDelta(t, half+ys*half/(ys+half), m.Yff, 1e-9)
		assert.Zero(t, m.Yft)
		assert.Zero(t, m.Ytt)
	})

	t.Run("from side open", func(t *testing.T) {
		open := l
		open.FromStatus = dataset.Disconnected
		m := admittance.NewLineModel(open, testgrid.URated)
		assert.Zero(t, m.Yff)
		assertComplexInDelta(t, half+ys*half/(ys+half), m.Ytt, 1e-9)
	})

	t.Run("both open or no charging", func(t *testing.T) {
		open := l
		open.FromStatus, open.ToStatus = dataset.Disconnected, dataset.Disconnected
		assert.Equal(t, admittance.BranchModel{}, admittance.NewLineModel(open, testgrid.URated))

		noC := l
		noC.C1, noC.ToStatus = 0, dataset.Disconnected
		assert.Equal(t, admittance.BranchModel{}, admittance.NewLineModel(noC, testgrid.URated))
	})
}

func TestSourceModel(t *testing.T) {
	s := admittance.NewSourceModel(dataset.Source{URef: 1.05, URefAngle: 0.1, SK: 1e9, RXRatio: 0.1})
	z := 1 / s.Y
	assert.InDelta(t, 1e-3, cmplx.Abs(z), eps)
	assert.InDelta(t, 0.1, real(z)/imag(z), 1e-12)
	assertComplexInDelta(t, cmplx.Rect(1.05, 0.1), s.E, eps)
	assertComplexInDelta(t, s.Y*s.E, s.Current(), eps)

	def := admittance.NewSourceModel(dataset.Source{URef: 1})
	assert.InDelta(t, admittance.BaseP/dataset.DefaultSK, cmplx.Abs(1/def.Y), 1e-18)
}

func TestStructure(t *testing.T) {
	d := testgrid.Meshed()
	// Parallel line 2-3 shares the slot of line 5.
	d.Lines = append(d.Lines, dataset.Line{ID: 12, FromNode: 3, ToNode: 2,
		FromStatus: dataset.Connected, ToStatus: dataset.Connected, R1: 1, X1: 1})
	// Open line 1-2 adds no pattern entries of its own.
	d.Lines = append(d.Lines, dataset.Line{ID: 13, FromNode: 1, ToNode: 2,
		FromStatus: dataset.Connected, ToStatus: dataset.Disconnected, R1: 1, X1: 1})
	s := mustNetwork(t, d).Structure()

	assert.Equal(t, 3, s.Size())
	assert.Equal(t, 9, s.NNZ())
	assert.Equal(t, []int{0, 1, 2}, s.Row(1))
	assert.Equal(t, 4, s.Diag(1))
	assert.Equal(t, 5, s.Find(1, 2))
	assert.Equal(t, -1, s.Find(3, 0))

	radial := mustNetwork(t, testgrid.ThreeNode()).Structure()
	assert.Equal(t, 7, radial.NNZ())
	assert.Equal(t, -1, radial.Find(0, 2))
}

func TestYBusRowsSumToShuntsWithoutCharging(t *testing.T) {
	d := testgrid.Meshed()
	for i := range d.Lines {
		d.Lines[i].C1 = 0
	}
	net := mustNetwork(t, d)
	y := net.Build(d)
	shunts := net.ShuntAdmittances(d)

	for i := 0; i < 3; i++ {
		var sum complex128
		for j := 0; j < 3; j++ {
			sum += y.At(i, j)
			assert.Equal(t, y.At(i, j), y.At(j, i), "Y symmetric at (%d,%d)", i, j)
		}
		assertComplexInDelta(t, shunts[i], sum, 1e-9, "row %d", i)
	}
	assertComplexInDelta(t, complex(0, 0.01*admittance.BaseZ(testgrid.URated)), shunts[1], eps)
}

func TestYBusSources(t *testing.T) {
	d := testgrid.ThreeNode()
	net := mustNetwork(t, d)
	src := admittance.NewSourceModel(d.Sources[0])

	without := net.Build(d)
	with := net.Build(d, admittance.WithSources())
	assertComplexInDelta(t, without.At(0, 0)+src.Y, with.At(0, 0), 1e-6)
	assert.Equal(t, without.At(1, 1), with.At(1, 1))

	cur := net.SourceCurrents(d)
	assertComplexInDelta(t, src.Current(), cur[0], 1e-6)
	assert.Zero(t, cur[2])

	off := d.Clone()
	off.Sources[0].Status = dataset.Disconnected
	assert.Equal(t, without.At(0, 0), net.Build(off, admittance.WithSources()).At(0, 0))
}

func TestYBusMulIsKirchhoff(t *testing.T) {
	d := testgrid.Meshed()
	net := mustNetwork(t, d)
	y := net.Build(d)
	v := []complex128{cmplx.Rect(1, 0), cmplx.Rect(0.97, -0.02), cmplx.Rect(0.98, -0.015)}

	// Y·v at each bus equals the sum of branch currents leaving it plus shunt current.
	want := make([]complex128, 3)
	for k, b := range net.Topology().Branches() {
		m := net.Branch(k)
		want[b.From] += m.FromCurrent(v[b.From], v[b.To])
		want[b.To] += m.ToCurrent(v[b.From], v[b.To])
	}
	for i, ysh := range net.ShuntAdmittances(d) {
		want[i] += ysh * v[i]
	}
	got := y.Mul(v)
	for i := range want {
		assertComplexInDelta(t, want[i], got[i], 1e-9, "bus %d", i)
	}
	assert.Len(t, y.RowValues(0), len(y.Structure().Row(0)))
}
