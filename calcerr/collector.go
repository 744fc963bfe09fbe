// SPDX-License-Identifier: MIT

package calcerr

import "fmt"

// Collector accumulates issues in detection order so a single pass over the
// input reports every offending row instead of the first one.
// The zero value is ready to use.
type Collector struct {
	issues []Issue
}

// Addf records one issue with a formatted message.
func (c *Collector) Addf(component string, id int64, field, format string, args ...any) {
	c.issues = append(c.issues, Issue{
		Component: component,
		ID:        id,
		Field:     field,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Len returns the number of recorded issues.
func (c *Collector) Len() int { return len(c.issues) }

// Issues returns a copy of the recorded issues.
func (c *Collector) Issues() []Issue {
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)

	return out
}

// Validation returns a *ValidationError, or nil when nothing was recorded.
func (c *Collector) Validation() error {
	if len(c.issues) == 0 {
		return nil
	}

	return &ValidationError{Issues: c.Issues()}
}

// Topology returns an *InvalidTopologyError, or nil when nothing was recorded.
func (c *Collector) Topology() error {
	if len(c.issues) == 0 {
		return nil
	}

	return &InvalidTopologyError{Issues: c.Issues()}
}
