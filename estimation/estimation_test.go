// SPDX-License-Identifier: MIT

package estimation_test

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/estimation"
	"github.com/katalvlaran/gridstate/internal/testgrid"
	"github.com/katalvlaran/gridstate/powerflow"
	"github.com/katalvlaran/gridstate/topology"
)

type solver func(context.Context, *admittance.Network, *dataset.Dataset, estimation.Options) (*estimation.Result, error)

var methods = map[string]solver{
	"newton_raphson":   estimation.NewtonRaphson,
	"iterative_linear": estimation.IterativeLinear,
}

// seOptions leaves room for the linearly converging method.
var seOptions = estimation.Options{MaxIterations: 100}

func mustNetwork(t *testing.T, d *dataset.Dataset) *admittance.Network {
	t.Helper()
	m, err := topology.Build(d)
	require.NoError(t, err)

	return admittance.NewNetwork(m, d)
}

// truth solves the power flow of d and returns its bus voltages.
func truth(t *testing.T, d *dataset.Dataset) []complex128 {
	t.Helper()
	net := mustNetwork(t, d)
	res, err := powerflow.NewtonRaphson(context.Background(), net, d, powerflow.Options{Tolerance: 1e-10})
	require.NoError(t, err)

	return res.U
}

// sensorBuilder derives exact sensor readings from power flow voltages.
type sensorBuilder struct {
	d  *dataset.Dataset
	u  []complex128
	id dataset.ID
}

func newSensorBuilder(t *testing.T, d *dataset.Dataset) *sensorBuilder {
	return &sensorBuilder{d: d, u: truth(t, d), id: 100}
}

func (b *sensorBuilder) next() dataset.ID {
	b.id++
	return b.id
}

func (b *sensorBuilder) voltage(bus int, withAngle bool, sigma float64) {
	v, theta := cmplx.Polar(b.u[bus])
	s := dataset.SymVoltageSensor{
		ID:             b.next(),
		MeasuredObject: b.d.Nodes[bus].ID,
		USigma:         sigma,
		UMeasured:      v * b.d.Nodes[bus].URated,
	}
	if withAngle {
		s.UAngleMeasured, s.AngleMeasured = theta, true
	}
	b.d.VoltageSensors = append(b.d.VoltageSensors, s)
}

func (b *sensorBuilder) branchFrom(line int, sigma float64) {
	l := b.d.Lines[line]
	bm := admittance.NewLineModel(l, testgrid.URated)
	var from, to int
	for i, n := range b.d.Nodes {
		switch n.ID {
		case l.FromNode:
			from = i
		case l.ToNode:
			to = i
		}
	}
	s := b.u[from] * cmplx.Conj(bm.FromCurrent(b.u[from], b.u[to])) * admittance.BaseP
	b.power(l.ID, dataset.BranchFrom, s, sigma)
}

// load adds an exact sensor for a constant power load.
func (b *sensorBuilder) load(row int, sigma float64) {
	l := b.d.SymLoads[row]
	b.power(l.ID, dataset.LoadTerminal, complex(l.PSpecified, l.QSpecified), sigma)
}

func (b *sensorBuilder) power(obj dataset.ID, term dataset.TerminalType, s complex128, sigma float64) {
	b.d.PowerSensors = append(b.d.PowerSensors, dataset.SymPowerSensor{
		ID: b.next(), MeasuredObject: obj, MeasuredTerminal: term,
		PowerSigma: sigma, PMeasured: real(s), QMeasured: imag(s),
	})
}

func requireVoltagesInDelta(t *testing.T, want, got []complex128, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, 0, cmplx.Abs(want[i]-got[i]), delta, "bus %d: want %v got %v", i, want[i], got[i])
	}
}

func TestThreeNodeMagnitudeOnlyIsNotObservable(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	for bus := 0; bus < 3; bus++ {
		b.voltage(bus, false, 10)
	}
	net := mustNetwork(t, d)

	err := estimation.Check(net, d, estimation.Options{})
	require.ErrorIs(t, err, calcerr.ErrNotObservable)
	var oe *calcerr.ObservabilityError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, calcerr.ObservabilityError{Measurements: 3, Unknowns: 5, Rank: -1}, *oe)

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			res, err := solve(context.Background(), net, d, seOptions)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, calcerr.ErrNotObservable)
		})
	}
}

func TestThreeNodeAddingAnglesMakesObservable(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	for bus := 0; bus < 3; bus++ {
		b.voltage(bus, false, 10)
	}
	for i := range d.VoltageSensors {
		_, theta := cmplx.Polar(b.u[i])
		d.VoltageSensors[i].UAngleMeasured, d.VoltageSensors[i].AngleMeasured = theta, true
	}
	net := mustNetwork(t, d)
	require.NoError(t, estimation.Check(net, d, estimation.Options{}))

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			res, err := solve(context.Background(), net, d, seOptions)
			require.NoError(t, err)
			assert.Equal(t, powerflow.Converged, res.State)
			requireVoltagesInDelta(t, b.u, res.U, 1e-6)
			for _, r := range res.VoltageResiduals {
				assert.InDelta(t, 0, r.U, 1e-3)
				assert.InDelta(t, 0, r.Angle, 1e-6)
			}
		})
	}
}

func TestRoundTripWithBranchAndLoadSensors(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	b.voltage(0, true, 10)
	b.branchFrom(0, 1e3)
	b.branchFrom(1, 1e3)
	b.load(0, 1e3)
	b.load(1, 1e3)
	net := mustNetwork(t, d)

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			res, err := solve(context.Background(), net, d, estimation.Options{MaxIterations: 100, Logger: zaptest.NewLogger(t)})
			require.NoError(t, err)
			requireVoltagesInDelta(t, b.u, res.U, 1e-6)
			assert.Len(t, res.Trace, res.Iterations)
			assert.Less(t, res.MaxDeviation, estimation.DefaultTolerance)

			require.Len(t, res.PowerResiduals, 4)
			for k, r := range res.PowerResiduals {
				assert.InDelta(t, 0, r.P, 1, "sensor %d", k)
				assert.InDelta(t, 0, r.Q, 1, "sensor %d", k)
			}

			// Branch flows recomputed from the estimate match the power flow.
			for k, br := range net.Topology().Branches() {
				bm := net.Branch(k)
				want := b.u[br.From] * cmplx.Conj(bm.FromCurrent(b.u[br.From], b.u[br.To]))
				got := res.U[br.From] * cmplx.Conj(bm.FromCurrent(res.U[br.From], res.U[br.To]))
				assert.InDelta(t, 0, cmplx.Abs(want-got), 1e-6, "line %d", br.ID)
			}
		})
	}
}

func TestRankDeficientMeasurementSet(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	for bus := 0; bus < 3; bus++ {
		b.voltage(bus, false, 10)
	}
	b.branchFrom(0, 1e3)
	b.branchFrom(0, 1e3)
	net := mustNetwork(t, d)

	err := estimation.Check(net, d, estimation.Options{})
	var oe *calcerr.ObservabilityError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 7, oe.Measurements)
	assert.Equal(t, 5, oe.Unknowns)
	assert.Equal(t, 4, oe.Rank, "angle of node 3 is not seen by any measurement")
}

func TestTighterSigmaPullsEstimate(t *testing.T) {
	const bias = 100.0 // V on top of the true magnitude

	estimate := func(t *testing.T, solve solver, sigma float64) float64 {
		d := testgrid.ThreeNode()
		b := newSensorBuilder(t, d)
		for bus := 0; bus < 3; bus++ {
			b.voltage(bus, true, 10)
		}
		b.voltage(1, false, sigma)
		d.VoltageSensors[3].UMeasured += bias
		net := mustNetwork(t, d)

		res, err := solve(context.Background(), net, d, seOptions)
		require.NoError(t, err)

		return math.Abs(d.VoltageSensors[3].UMeasured - cmplx.Abs(res.U[1])*testgrid.URated)
	}

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			loose := estimate(t, solve, 100)
			tight := estimate(t, solve, 10)
			assert.Less(t, tight, loose)
			assert.Less(t, loose, bias)
		})
	}
}

func TestZeroInjectionBus(t *testing.T) {
	d := testgrid.ThreeNode()
	d.Nodes = append(d.Nodes, dataset.Node{ID: 12, URated: testgrid.URated})
	d.Lines = append(d.Lines, dataset.Line{
		ID: 13, FromNode: 3, ToNode: 12, FromStatus: dataset.Connected, ToStatus: dataset.Connected,
		R1: 0.1, X1: 0.1, C1: 1e-6, IN: 500,
	})
	b := newSensorBuilder(t, d)
	b.voltage(0, true, 10)
	b.branchFrom(0, 1e3)
	b.branchFrom(1, 1e3)
	b.load(0, 1e3)
	b.load(1, 1e3)
	net := mustNetwork(t, d)

	meas := estimation.Measurements(net, d)
	last := meas[len(meas)-1]
	assert.Equal(t, estimation.Injection, last.Kind)
	assert.Equal(t, 3, last.Bus)
	assert.True(t, last.Virtual)
	assert.Equal(t, estimation.ZeroInjectionSigma, last.SigmaA)

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			res, err := solve(context.Background(), net, d, seOptions)
			require.NoError(t, err)
			requireVoltagesInDelta(t, b.u, res.U, 1e-6)
			assert.Less(t, res.MaxDeviation, estimation.DefaultTolerance)
			assert.Less(t, res.Iterations, seOptions.MaxIterations)
		})
	}
}

func TestUnsuppliedBusesAreRejected(t *testing.T) {
	cases := map[string]struct {
		cut  func(d *dataset.Dataset)
		dark []int64
	}{
		"line open at the far end": {
			cut:  func(d *dataset.Dataset) { d.Lines[1].ToStatus = dataset.Disconnected },
			dark: []int64{3},
		},
		"source off": {
			cut:  func(d *dataset.Dataset) { d.Sources[0].Status = dataset.Disconnected },
			dark: []int64{1, 2, 3},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d := testgrid.ThreeNode()
			b := newSensorBuilder(t, d)
			for bus := 0; bus < 3; bus++ {
				b.voltage(bus, true, 10)
			}
			tc.cut(d)
			net := mustNetwork(t, d)

			err := estimation.Check(net, d, estimation.Options{})
			var de *calcerr.DisconnectedNetworkError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.dark, de.Nodes)

			for _, solve := range methods {
				res, err := solve(context.Background(), net, d, seOptions)
				assert.Nil(t, res)
				assert.ErrorIs(t, err, calcerr.ErrDisconnectedNetwork)
			}
		})
	}
}

func TestOpenSideBranchSensorIsDropped(t *testing.T) {
	d := testgrid.Meshed()
	b := newSensorBuilder(t, d)
	b.voltage(0, true, 10)
	b.branchFrom(1, 1e3)
	b.power(5, dataset.BranchTo, 10e6+2e6i, 1e3)
	// Node 3 stays supplied through line 9.
	d.Lines[1].ToStatus = dataset.Disconnected
	net := mustNetwork(t, d)

	meas := estimation.Measurements(net, d)
	var flows []estimation.Measurement
	for _, me := range meas {
		if me.Kind == estimation.BranchFlow {
			flows = append(flows, me)
		}
	}
	require.Len(t, flows, 1)
	assert.Equal(t, 1, flows[0].Branch)
	assert.True(t, flows[0].FromSide)

	// Phasor plus one branch flow: 4 equations for 6 unknowns.
	var oe *calcerr.ObservabilityError
	require.ErrorAs(t, estimation.Check(net, d, estimation.Options{}), &oe)
	assert.Equal(t, 4, oe.Measurements)
	assert.Equal(t, 6, oe.Unknowns)
}

func TestRankTolerance(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	b.voltage(0, true, 10)
	b.branchFrom(0, 1e3)
	b.branchFrom(1, 1e3)
	b.load(0, 1e3)
	b.load(1, 1e3)
	net := mustNetwork(t, d)

	require.NoError(t, estimation.Check(net, d, estimation.Options{RankTolerance: 1e-12}))

	// Phasor rows have unit slope, flow rows the line admittance of a few
	// hundred pu: at half of σ_max the small singular values no longer count.
	strict := estimation.Options{RankTolerance: 0.5, MaxIterations: 100}
	var oe *calcerr.ObservabilityError
	require.ErrorAs(t, estimation.Check(net, d, strict), &oe)
	assert.GreaterOrEqual(t, oe.Rank, 1)
	assert.Less(t, oe.Rank, oe.Unknowns)

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			_, err := solve(context.Background(), net, d, strict)
			assert.ErrorIs(t, err, calcerr.ErrNotObservable)
		})
	}
}

func TestMeasurementOrder(t *testing.T) {
	d := testgrid.Meshed()
	b := newSensorBuilder(t, d)
	b.load(1, 1e3)
	b.power(d.SymGens[0].ID, dataset.GeneratorTerminal, 4e6+1e6i, 1e3)
	b.power(2, dataset.NodeTerminal, -(20e6 + 5e6i), 1e3)
	b.branchFrom(2, 1e3)
	b.voltage(0, false, 10)
	net := mustNetwork(t, d)

	meas := estimation.Measurements(net, d)
	kinds := make([]estimation.Kind, len(meas))
	for i, me := range meas {
		kinds[i] = me.Kind
	}
	assert.Equal(t, []estimation.Kind{
		estimation.VoltageMagnitude,
		estimation.BranchFlow,
		estimation.Injection, // node sensor
		estimation.Injection, // load 7 + gen 10 at node 3
	}, kinds)

	agg := meas[3]
	assert.Equal(t, 2, agg.Bus)
	assert.InDelta(t, -6.0, real(agg.Value), 1e-12, "gen 4 MW minus load 10 MW")
	assert.InDelta(t, -1.0, imag(agg.Value), 1e-12)
	assert.InDelta(t, math.Sqrt(2)*1e-3, agg.SigmaA, 1e-15, "variances add")

	assert.Equal(t, "branch_flow", estimation.BranchFlow.String())
	assert.Equal(t, 1, estimation.VoltageMagnitude.Rows())
	assert.Equal(t, 2, estimation.VoltagePhasor.Rows())
}

func TestSensorsOnOneApplianceCombine(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	b.power(7, dataset.LoadTerminal, 10e6+2e6i, 1e3)
	b.power(7, dataset.LoadTerminal, 12e6+2e6i, 1e3)
	net := mustNetwork(t, d)

	var inj []estimation.Measurement
	for _, me := range estimation.Measurements(net, d) {
		if me.Kind == estimation.Injection && me.Bus == 2 {
			inj = append(inj, me)
		}
	}
	require.Len(t, inj, 1)
	assert.InDelta(t, -11.0, real(inj[0].Value), 1e-12)
	assert.InDelta(t, 1e-3/math.Sqrt(2), inj[0].SigmaA, 1e-15)
}

func TestApplianceDistribution(t *testing.T) {
	base := func() *dataset.Dataset {
		d := testgrid.ThreeNode()
		d.SymLoads = append(d.SymLoads, dataset.SymLoad{
			ID: 12, Node: 3, Status: dataset.Connected, Type: dataset.ConstPower, PSpecified: 1e6,
		})
		return d
	}
	index := func(net *admittance.Network, id dataset.ID) int {
		k, ok := net.Topology().ApplianceIndex(id)
		require.True(t, ok)
		return k
	}

	t.Run("unmeasured appliance takes the rest", func(t *testing.T) {
		d := base()
		b := newSensorBuilder(t, d)
		for bus := 0; bus < 3; bus++ {
			b.voltage(bus, true, 0.01)
		}
		b.load(1, 1e3)
		net := mustNetwork(t, d)

		res, err := estimation.NewtonRaphson(context.Background(), net, d, seOptions)
		require.NoError(t, err)
		got7 := res.ApplianceInjections[index(net, 7)]
		got12 := res.ApplianceInjections[index(net, 12)]
		assert.InDelta(t, -10.0, real(got7), 1e-12)
		assert.InDelta(t, -2.0, imag(got7), 1e-12)
		assert.InDelta(t, -1.0, real(got12), 1e-4)
		assert.InDelta(t, 0, imag(got12), 1e-4)
		assert.InDelta(t, 0, res.PowerResiduals[0].P, 1e-6)
	})

	t.Run("measured appliances share the mismatch by variance", func(t *testing.T) {
		d := base()
		b := newSensorBuilder(t, d)
		for bus := 0; bus < 3; bus++ {
			b.voltage(bus, true, 0.01)
		}
		b.load(1, 1e3)
		b.power(12, dataset.LoadTerminal, 1.1e6, 1e3)
		net := mustNetwork(t, d)

		res, err := estimation.NewtonRaphson(context.Background(), net, d, seOptions)
		require.NoError(t, err)
		k7, k12 := index(net, 7), index(net, 12)
		got7, got12 := res.ApplianceInjections[k7], res.ApplianceInjections[k12]

		cur := net.Build(d).Mul(res.U)
		bus := cur[2]
		assert.InDelta(t, 0, cmplx.Abs(res.U[2]*cmplx.Conj(bus)-got7-got12), 1e-12)
		// Equal variances: equal shares of the mismatch.
		assert.InDelta(t, real(got7)+10, real(got12)+1.1, 1e-12)
		assert.InDelta(t, res.PowerResiduals[0].P, res.PowerResiduals[1].P, 1e-6)
	})
}

func TestIterationLimit(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	b.voltage(0, true, 10)
	b.branchFrom(0, 1e3)
	b.branchFrom(1, 1e3)
	b.load(0, 1e3)
	b.load(1, 1e3)
	net := mustNetwork(t, d)

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			_, err := solve(context.Background(), net, d, estimation.Options{MaxIterations: 1, Tolerance: 1e-300})
			var ie *calcerr.IterationLimitError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "state_estimation", ie.Calculation)
			assert.Equal(t, 1, ie.Iterations)
			require.Len(t, ie.Trace, 1)
			assert.Equal(t, ie.Trace[0], ie.LastMismatch)
		})
	}
}

func TestCancelledContext(t *testing.T) {
	d := testgrid.ThreeNode()
	b := newSensorBuilder(t, d)
	for bus := 0; bus < 3; bus++ {
		b.voltage(bus, true, 10)
	}
	net := mustNetwork(t, d)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, solve := range methods {
		t.Run(name, func(t *testing.T) {
			_, err := solve(ctx, net, d, seOptions)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}
