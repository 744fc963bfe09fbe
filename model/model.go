// SPDX-License-Identifier: MIT
//
// File: model.go
// Role: Public facade from a validated dataset to calculation results.
// Policy:
//   - Validation happens before any solve; solver errors pass through typed.
//   - The base dataset is copied once and never mutated afterwards.

package model

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/batch"
	"github.com/katalvlaran/gridstate/config"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/estimation"
	"github.com/katalvlaran/gridstate/metrics"
	"github.com/katalvlaran/gridstate/output"
	"github.com/katalvlaran/gridstate/powerflow"
	"github.com/katalvlaran/gridstate/topology"
)

// Model is a validated network ready for calculations.
type Model struct {
	base    *dataset.Dataset
	net     *admittance.Network
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New validates ds (schema, ranges, topology) and builds the shared network.
// ds is copied; later changes to it do not affect the Model.
//
// Implementation:
//   - Stage 1: dataset.Validate collects every range and enum issue.
//   - Stage 2: clone, then topology.Build checks references and indexes ids.
//   - Stage 3: admittance.NewNetwork fixes the sparsity pattern and line
//     models shared by every later calculation.
//
// Errors:
//   - *calcerr.ValidationError, *calcerr.InvalidTopologyError.
//
// Complexity:
//   - Time O(size of ds + nnz(Y)), Space the same.
func New(ds *dataset.Dataset, opts ...Option) (*Model, error) {
	o := options{logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	if err := dataset.Validate(ds); err != nil {
		return nil, err
	}
	base := ds.Clone()
	topo, err := topology.Build(base)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("model built",
		zap.Int("nodes", topo.NumBuses()),
		zap.Int("lines", len(topo.Branches())),
		zap.Int("appliances", len(topo.Appliances())))

	return &Model{
		base:    base,
		net:     admittance.NewNetwork(topo, base),
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Topology returns the shared topology.
func (m *Model) Topology() *topology.Model { return m.net.Topology() }

// CalculatePowerFlow solves the power flow of the base dataset.
//
// Errors:
//   - *calcerr.ValidationError for unsupported settings,
//     *calcerr.DisconnectedNetworkError, *calcerr.IterationLimitError.
func (m *Model) CalculatePowerFlow(ctx context.Context, cfg config.Calculation) (*output.Output, error) {
	if err := cfg.Validate(config.PowerFlow); err != nil {
		return nil, err
	}

	return m.powerFlow(ctx, m.base, cfg, m.logger)
}

// CalculateStateEstimation estimates the state of the base dataset from its
// sensors.
//
// Errors:
//   - *calcerr.ValidationError for unsupported settings,
//     *calcerr.ObservabilityError, *calcerr.IterationLimitError.
func (m *Model) CalculateStateEstimation(ctx context.Context, cfg config.Calculation) (*output.Output, error) {
	if err := cfg.Validate(config.StateEstimation); err != nil {
		return nil, err
	}

	return m.stateEstimation(ctx, m.base, cfg, m.logger)
}

// CalculatePowerFlowBatch solves one power flow per update. Settings and
// updates are validated before any scenario runs; afterwards every scenario
// succeeds or fails on its own.
func (m *Model) CalculatePowerFlowBatch(ctx context.Context, updates []dataset.UpdateDataset, cfg config.Calculation) (*batch.Result, error) {
	if err := cfg.Validate(config.PowerFlow); err != nil {
		return nil, err
	}

	return m.runBatch(ctx, updates, cfg, config.PowerFlow, m.powerFlow)
}

// CalculateStateEstimationBatch estimates the state once per update.
func (m *Model) CalculateStateEstimationBatch(ctx context.Context, updates []dataset.UpdateDataset, cfg config.Calculation) (*batch.Result, error) {
	if err := cfg.Validate(config.StateEstimation); err != nil {
		return nil, err
	}

	return m.runBatch(ctx, updates, cfg, config.StateEstimation, m.stateEstimation)
}

type calculateFunc func(ctx context.Context, d *dataset.Dataset, cfg config.Calculation, log *zap.Logger) (*output.Output, error)

func (m *Model) runBatch(ctx context.Context, updates []dataset.UpdateDataset, cfg config.Calculation,
	kind config.CalculationType, calc calculateFunc) (*batch.Result, error) {
	if err := validateUpdates(m.base, updates); err != nil {
		return nil, err
	}

	exec := batch.New(batch.WithThreads(cfg.Threads), batch.WithLogger(m.logger.With(zap.String("calculation", string(kind)))))
	res := exec.Run(ctx, len(updates), func(ctx context.Context, i int) (*output.Output, error) {
		d, err := dataset.Apply(m.base, &updates[i])
		if err != nil {
			return nil, err
		}

		return calc(ctx, d, cfg, m.logger.With(zap.Int("scenario", i)))
	})
	for _, s := range res.Scenarios {
		m.metrics.ObserveScenario(s.Err)
	}

	return res, nil
}

func (m *Model) powerFlow(ctx context.Context, d *dataset.Dataset, cfg config.Calculation, log *zap.Logger) (*output.Output, error) {
	opts := powerflow.Options{Tolerance: cfg.Tolerance, MaxIterations: cfg.MaxIterations, Logger: log}
	solve := powerflow.NewtonRaphson
	if cfg.Method == config.Linear {
		solve = powerflow.Linear
	}

	start := time.Now()
	res, err := solve(ctx, m.net, d, opts)
	iterations := 0
	if res != nil {
		iterations = res.Iterations
	}
	m.finish(log, config.PowerFlow, cfg.Method, iterations, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return output.FromPowerFlow(m.net, d, res, string(cfg.Method)), nil
}

func (m *Model) stateEstimation(ctx context.Context, d *dataset.Dataset, cfg config.Calculation, log *zap.Logger) (*output.Output, error) {
	opts := estimation.Options{Tolerance: cfg.Tolerance, MaxIterations: cfg.MaxIterations, Logger: log}
	solve := estimation.NewtonRaphson
	if cfg.Method == config.IterativeLinear {
		solve = estimation.IterativeLinear
	}

	start := time.Now()
	res, err := solve(ctx, m.net, d, opts)
	iterations := 0
	if res != nil {
		iterations = res.Iterations
	}
	m.finish(log, config.StateEstimation, cfg.Method, iterations, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return output.FromEstimation(m.net, d, res, string(cfg.Method)), nil
}

// finish logs and records the outcome of one calculation.
func (m *Model) finish(log *zap.Logger, kind config.CalculationType, method config.Method, iterations int, elapsed time.Duration, err error) {
	m.metrics.ObserveCalculation(string(kind), string(method), iterations, elapsed, err)
	fields := []zap.Field{
		zap.String("calculation", string(kind)),
		zap.String("method", string(method)),
		zap.Int("iterations", iterations),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		log.Warn("calculation failed", append(fields, zap.String("status", metrics.Status(err)), zap.Error(err))...)
		return
	}
	log.Info("calculation finished", fields...)
}

// String identifies the model in logs.
func (m *Model) String() string {
	t := m.Topology()
	return fmt.Sprintf("model(%d nodes, %d lines, %d appliances)", t.NumBuses(), len(t.Branches()), len(t.Appliances()))
}
