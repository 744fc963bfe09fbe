// Package gridstate is a power-flow and state-estimation engine for balanced
// three-phase networks.
//
// What is in the box?
//
//	A pure-Go pipeline from component tables to result tables:
//		• Input model: nodes, lines, sources, loads, generators, shunts, sensors
//		• Topology: id index, referential integrity, islands, energization
//		• Admittance: per-unit pi models, shared sparsity pattern, Y-bus
//		• Power flow: Newton-Raphson and linear methods
//		• State estimation: weighted least squares with an observability gate
//		• Batches: sparse per-scenario updates on a bounded worker pool
//
// Packages, leaves first:
//
//	calcerr/     typed errors and their sentinels
//	dataset/     input and update tables, validation, copy-on-write updates
//	topology/    immutable indexed network built from a dataset
//	matrix/      dense kernels, pivoted LU, gonum bridge (SVD rank, Cholesky)
//	admittance/  branch and source models, CSR structure, Y-bus assembly
//	powerflow/   Newton-Raphson and linear power flow
//	estimation/  measurement model, observability check, WLS solvers
//	output/      SI result tables
//	batch/       ordered parallel scenario execution
//	config/      explicit calculation settings, YAML profiles
//	metrics/     Prometheus collectors
//	model/       the facade tying it all together
//
// Quick example:
//
//	m, err := model.New(ds)
//	out, err := m.CalculateStateEstimation(ctx, config.Default())
//	var oe *calcerr.ObservabilityError
//	if errors.As(err, &oe) { ... add sensors ... }
package gridstate
