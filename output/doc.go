// SPDX-License-Identifier: MIT

// Package output converts solver voltages into per-component result tables in
// SI units.
//
// Reference directions:
//   - node P, Q: net power injected into the node by its sources,
//     generators and loads (shunts count as part of the network);
//   - line P, Q: power entering the line at each side;
//   - source and sym_gen: generator reference (power delivered);
//   - sym_load and shunt: load reference (power consumed).
//
// Residuals are measured minus estimated; Assemble leaves the sensor tables
// empty for power flow.
package output
