// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for the numeric kernels.
// This file defines:
//   - documented defaults (constants),
//   - Option / Options (functional options with internal state),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal).
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - Safe by construction: panic only on invalid parameters (programmer error).
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidateNaNInf toggles strict finite-value validation in Set.
	DefaultValidateNaNInf = true

	// DefaultPivotTolerance is the relative pivot threshold of Factorize: a
	// column whose largest remaining magnitude is below tol·max|A| is singular.
	DefaultPivotTolerance = 1e-13

	// DefaultRankTolerance is the relative singular value threshold of Rank:
	// σ_i counts toward the rank when σ_i > tol·σ_max.
	DefaultRankTolerance = 1e-9
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicPivotTolInvalid = "matrix: WithPivotTolerance: tol must be finite, non-negative"
	panicRankTolInvalid  = "matrix: WithRankTolerance: tol must be finite, in (0, 1)"
)

// ---------- Public option type (functional) ----------

// Option mutates internal options. Safe to apply repeatedly (idempotent).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
type Options struct {
	pivotTol float64 // >= 0; DefaultPivotTolerance
	rankTol  float64 // (0,1); DefaultRankTolerance
}

// WithPivotTolerance sets the relative pivot threshold used by Factorize.
// Panics if tol is negative, NaN or Inf.
func WithPivotTolerance(tol float64) Option {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		panic(panicPivotTolInvalid)
	}

	return func(o *Options) { o.pivotTol = tol }
}

// WithRankTolerance sets the relative singular value threshold used by Rank.
// Panics unless 0 < tol < 1.
func WithRankTolerance(tol float64) Option {
	if !(tol > 0 && tol < 1) {
		panic(panicRankTolInvalid)
	}

	return func(o *Options) { o.rankTol = tol }
}

// gatherOptions resolves defaults and applies opts in order; nil options are
// skipped.
func gatherOptions(opts ...Option) Options {
	o := Options{
		pivotTol: DefaultPivotTolerance,
		rankTol:  DefaultRankTolerance,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
