// SPDX-License-Identifier: MIT

// Package calcerr: sentinel and typed errors shared by every calculation stage.
//
// Every sentinel is prefixed with "calcerr: ..." for easy grepping across logs.
// Typed errors (types.go) carry diagnostic context and match their sentinel
// through errors.Is, so callers may choose either style:
//
//	if errors.Is(err, calcerr.ErrNotObservable) { ... }
//
//	var oe *calcerr.ObservabilityError
//	if errors.As(err, &oe) { log(oe.Unknowns, oe.Rank) }
//
// ERROR PRIORITY (enforced by the model facade):
// validation -> invalid topology -> disconnected network -> observability
// -> iteration limit.
package calcerr

import "errors"

var (
	// ErrValidation marks input records that violate schema or range rules
	// (negative impedance, non-positive sigma, unknown update id, ...).
	ErrValidation = errors.New("calcerr: invalid input data")

	// ErrInvalidTopology marks structurally invalid component tables
	// (duplicate ids, dangling references, unsupported combinations).
	ErrInvalidTopology = errors.New("calcerr: invalid topology")

	// ErrDisconnectedNetwork marks a network with buses that no energized
	// source can reach, or whose network equations are singular.
	ErrDisconnectedNetwork = errors.New("calcerr: disconnected network")

	// ErrIterationLimit marks an iterative solver that hit its iteration cap
	// without meeting the tolerance.
	ErrIterationLimit = errors.New("calcerr: iteration limit exceeded")

	// ErrNotObservable marks a measurement set that cannot determine the state.
	ErrNotObservable = errors.New("calcerr: system not observable")
)
