// SPDX-License-Identifier: MIT

// Package admittance assembles the bus admittance matrix Y of a network in
// per-unit.
//
// The work is split by lifetime:
//
//   - Network (per topology): bus ordering, the symbolic sparsity pattern
//     (Structure) and the two-port model of every line. Lines are not
//     updatable, so this is computed once and shared read-only by every
//     scenario and goroutine.
//   - YBus (per scenario): numeric values on that pattern, plus shunts and,
//     for power flow, the Norton admittance of every connected source.
//
// Per-unit system:
//
//	S_base = BaseP (1 MVA)       U_base = node u_rated       Z_base = U_base² / S_base
//	I_base = S_base / (√3·U_base)
package admittance
