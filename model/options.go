// SPDX-License-Identifier: MIT
//
// File: options.go
// Role: Functional options for New.
// Policy:
//   - Options only wire collaborators; calculation settings travel in
//     config.Calculation on every call.
//   - Nonsense arguments panic at option construction time.

package model

import (
	"go.uber.org/zap"

	"github.com/katalvlaran/gridstate/metrics"
)

// Option configures a Model.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// WithLogger sets the structured logger. The Model logs one line per
// calculation at Info (Warn on failure) and passes scenario-scoped children
// down to the solvers, which log per iteration at Debug.
// Panics on nil; omit the option to log nothing.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("model: WithLogger(nil)")
	}

	return func(o *options) { o.logger = l }
}

// WithMetrics records every calculation and batch scenario on c.
// A nil c is accepted and records nothing.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}
