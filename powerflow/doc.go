// SPDX-License-Identifier: MIT

// Package powerflow solves the steady-state bus voltages of a network.
//
// Two methods share one Result type:
//
//   - NewtonRaphson: polar Newton iteration over every bus. Sources enter as
//     Norton equivalents (admittance on the diagonal, current injection), so
//     no bus is eliminated as slack. Loads and generators follow their
//     voltage dependency (constant power, current or impedance).
//   - Linear: every load and generator becomes a constant impedance at 1 pu
//     and the network equation Y·U = I is solved once.
//
// Each run is a small state machine:
//
//	Init ──► Iterate ──► Converged
//	              └────► MaxIterationsExceeded (IterationLimitError)
//
// The convergence measure of every iteration is kept in Result.Trace for
// diagnosis. Results are deterministic for fixed inputs, tolerance,
// iteration cap and flat start.
//
// Errors:
//
//	*calcerr.DisconnectedNetworkError - a bus is not reached by a source, or
//	                                    the Jacobian is singular.
//	*calcerr.IterationLimitError      - no convergence within MaxIterations.
package powerflow
