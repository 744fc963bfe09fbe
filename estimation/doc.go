// SPDX-License-Identifier: MIT

// Package estimation computes the most likely bus voltages from redundant,
// noisy measurements by weighted least squares (WLS).
//
// Sensors are translated into a flat list of tagged Measurements:
//
//	VoltageMagnitude  1 real equation   |U_i|
//	VoltagePhasor     2 real equations  |U_i|, θ_i
//	BranchFlow        2 real equations  P, Q entering a line at one side
//	Injection         2 real equations  net P, Q injected by appliances at a bus
//
// Appliance power sensors become one Injection per bus when every connected
// appliance at the bus is measured. Buses without connected appliances get a
// virtual zero-injection Injection with a tiny sigma.
//
// Before solving, Check rejects buses that no connected source reaches and
// then gates observability in two steps: the number of real equations must
// cover the unknowns (2n, or 2n−1 with the reference angle
// pinned when no angle is measured), and the measurement Jacobian at flat
// start must have full column rank (gonum SVD).
//
// Methods:
//
//   - NewtonRaphson: Gauss-Newton on the polar state [θ, |U|], gain matrix
//     HᵀWH solved by Cholesky.
//   - IterativeLinear: rectangular state; power measurements are turned into
//     currents with the current estimate, magnitude-only sensors into
//     phasors with the estimated angle, and the linear WLS is re-solved for
//     the voltage correction until it vanishes.
//
// Both stop when the largest state update is below the tolerance.
package estimation
