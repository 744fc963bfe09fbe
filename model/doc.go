// SPDX-License-Identifier: MIT

// Package model is the entry point of gridstate: it validates an input
// dataset once, builds the topology and admittance structure shared by all
// scenarios, and runs power flow and state estimation on the base dataset or
// on batches of sparse updates.
//
// Data flow:
//
//	dataset ─► topology.Build ─► admittance.Network ─┬─► powerflow ─┐
//	                                                 └─► estimation ┴─► output
//
// A Model is immutable after New and safe for concurrent use. Each
// calculation owns its numeric matrices; the topology, the sparsity pattern
// and the line models are shared read-only.
//
// Example:
//
//	m, err := model.New(ds, model.WithLogger(logger))
//	if err != nil { ... }
//	out, err := m.CalculatePowerFlow(ctx, config.Default())
package model
