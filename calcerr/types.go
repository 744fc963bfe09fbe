// SPDX-License-Identifier: MIT

package calcerr

import (
	"fmt"
	"strings"
)

// maxIssuesInMessage bounds how many issues Error() spells out.
const maxIssuesInMessage = 5

// Issue describes one offending input row.
type Issue struct {
	Component string // table name, e.g. "line"
	ID        int64  // component id, 0 when the row has no usable id
	Field     string // offending field, empty for row-level issues
	Message   string
}

// String renders the issue as "line#4.r1: must be >= 0".
func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Component)
	fmt.Fprintf(&b, "#%d", i.ID)
	if i.Field != "" {
		b.WriteByte('.')
		b.WriteString(i.Field)
	}
	b.WriteString(": ")
	b.WriteString(i.Message)

	return b.String()
}

// formatIssues joins up to maxIssuesInMessage issues and counts the rest.
func formatIssues(head string, issues []Issue) string {
	var b strings.Builder
	b.WriteString(head)
	for k, is := range issues {
		if k == maxIssuesInMessage {
			fmt.Fprintf(&b, "; and %d more", len(issues)-k)
			break
		}
		if k == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(is.String())
	}

	return b.String()
}

// ValidationError lists every input row that failed schema or range checks.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return formatIssues(ErrValidation.Error(), e.Issues)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidTopologyError lists every structural violation found while building
// the topology.
type InvalidTopologyError struct {
	Issues []Issue
}

func (e *InvalidTopologyError) Error() string {
	return formatIssues(ErrInvalidTopology.Error(), e.Issues)
}

// Is reports whether target is ErrInvalidTopology.
func (e *InvalidTopologyError) Is(target error) bool { return target == ErrInvalidTopology }

// DisconnectedNetworkError names the nodes that no energized source reaches.
// Nodes is empty when the condition was detected numerically (zero pivot).
type DisconnectedNetworkError struct {
	Nodes []int64
	Cause error
}

func (e *DisconnectedNetworkError) Error() string {
	switch {
	case len(e.Nodes) > 0:
		return fmt.Sprintf("%s: %d node(s) not reached by an energized source %v",
			ErrDisconnectedNetwork.Error(), len(e.Nodes), e.Nodes)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", ErrDisconnectedNetwork.Error(), e.Cause)
	default:
		return ErrDisconnectedNetwork.Error()
	}
}

// Is reports whether target is ErrDisconnectedNetwork.
func (e *DisconnectedNetworkError) Is(target error) bool { return target == ErrDisconnectedNetwork }

// Unwrap exposes the numeric cause, if any.
func (e *DisconnectedNetworkError) Unwrap() error { return e.Cause }

// IterationLimitError reports a solver that did not converge within its cap.
// Trace holds the convergence measure of every iteration, last one included.
type IterationLimitError struct {
	Calculation  string // "power_flow" or "state_estimation"
	Iterations   int
	LastMismatch float64
	Tolerance    float64
	Trace        []float64
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("%s: %s stopped after %d iterations, last mismatch %.3e > tolerance %.3e",
		ErrIterationLimit.Error(), e.Calculation, e.Iterations, e.LastMismatch, e.Tolerance)
}

// Is reports whether target is ErrIterationLimit.
func (e *IterationLimitError) Is(target error) bool { return target == ErrIterationLimit }

// ObservabilityError reports an insufficient measurement set.
// Rank is -1 when the counting criterion already failed.
type ObservabilityError struct {
	Measurements int // independent real equations available
	Unknowns     int // real state variables to determine
	Rank         int
}

func (e *ObservabilityError) Error() string {
	if e.Rank < 0 {
		return fmt.Sprintf("%s: %d real measurement equations for %d unknowns",
			ErrNotObservable.Error(), e.Measurements, e.Unknowns)
	}

	return fmt.Sprintf("%s: measurement jacobian rank %d below %d unknowns (%d equations)",
		ErrNotObservable.Error(), e.Rank, e.Unknowns, e.Measurements)
}

// Is reports whether target is ErrNotObservable.
func (e *ObservabilityError) Is(target error) bool { return target == ErrNotObservable }
