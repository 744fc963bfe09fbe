// SPDX-License-Identifier: MIT
//
// File: executor.go
// Role: Bounded, order-preserving execution of independent scenarios.
// Policy:
//   - Every scenario owns exactly one slot of Result.Scenarios.
//   - A failing or panicking scenario never cancels its siblings.
//   - Cancellation only stops scenarios that have not started yet.

package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/gridstate/output"
)

// Task solves scenario i. It may read shared immutable state but must only
// write state it allocates itself.
type Task func(ctx context.Context, i int) (*output.Output, error)

// Scenario is the outcome of one scenario: Output on success, Err otherwise.
type Scenario struct {
	Index    int
	Output   *output.Output
	Err      error
	Duration time.Duration
}

// Result holds one Scenario per input scenario, in input order.
type Result struct {
	RunID     uuid.UUID
	Scenarios []Scenario
}

// Failed returns the indices of failed scenarios in ascending order.
func (r *Result) Failed() []int {
	var out []int
	for _, s := range r.Scenarios {
		if s.Err != nil {
			out = append(out, s.Index)
		}
	}

	return out
}

// Err joins the scenario errors, each prefixed with its index, or returns nil
// when every scenario succeeded.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Scenarios {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("scenario %d: %w", s.Index, s.Err))
		}
	}

	return errors.Join(errs...)
}

// Options configures an Executor.
type Options struct {
	Threads int
	Logger  *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithThreads sets the worker count.
//
// Behavior highlights:
//   - n > 0: at most n scenarios run at once.
//   - n == 0: one worker per GOMAXPROCS.
//   - n < 0: scenarios run one after another.
func WithThreads(n int) Option {
	return func(o *Options) { o.Threads = n }
}

// WithLogger sets the logger. Panics on nil.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("batch: WithLogger(nil)")
	}

	return func(o *Options) { o.Logger = l }
}

// Executor runs batches. It is stateless between runs and safe for
// concurrent use.
type Executor struct {
	opts Options
}

// New returns an Executor configured by opts.
//
// Implementation:
//   - Stage 1: start from Threads 0 (GOMAXPROCS workers) and zap.NewNop().
//   - Stage 2: apply opts left to right; later options win.
//
// Inputs:
//   - opts: WithThreads, WithLogger; nil entries are not allowed.
//
// Returns:
//   - *Executor: immutable, reusable across Run calls.
//
// Complexity:
//   - Time O(len(opts)), Space O(1).
func New(opts ...Option) *Executor {
	o := Options{Logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}

	return &Executor{opts: o}
}

// Workers returns the effective worker count after resolving the sign
// convention of WithThreads. The result is always at least 1.
//
// Complexity:
//   - Time O(1).
func (e *Executor) Workers() int {
	switch {
	case e.opts.Threads < 0:
		return 1
	case e.opts.Threads == 0:
		return runtime.GOMAXPROCS(0)
	default:
		return e.opts.Threads
	}
}

// Run executes task for scenarios 0..n-1 and waits for all of them.
//
// Implementation:
//   - Stage 1: allocate n slots and a fresh RunID for the log context.
//   - Stage 2: hand scenarios to an errgroup limited to Workers(); a
//     scenario reached after ctx is done gets ctx.Err() without running.
//   - Stage 3: wait; panics are recovered into ErrScenarioPanic.
//
// Returns:
//   - *Result with len(Scenarios) == n, Scenarios[i].Index == i.
//
// Errors:
//   - None at this level; inspect Result.Failed or Result.Err.
//
// Complexity:
//   - Time O(n) scheduling plus the tasks themselves, Space O(n).
func (e *Executor) Run(ctx context.Context, n int, task Task) *Result {
	res := &Result{RunID: uuid.New(), Scenarios: make([]Scenario, n)}
	log := e.opts.Logger.With(zap.Stringer("run_id", res.RunID))
	workers := e.Workers()
	log.Info("batch started", zap.Int("scenarios", n), zap.Int("workers", workers))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i // per-iteration copy; go.mod targets go1.21 loop semantics
		slot := &res.Scenarios[i]
		slot.Index = i
		if err := ctx.Err(); err != nil {
			slot.Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slot.Err = err
				return nil
			}
			began := time.Now()
			slot.Output, slot.Err = runScenario(ctx, i, task)
			slot.Duration = time.Since(began)
			if slot.Err != nil {
				log.Warn("scenario failed", zap.Int("scenario", i), zap.Error(slot.Err))
			}
			return nil
		})
	}
	// Tasks never return errors to the group; failures live in their slots.
	_ = g.Wait()

	log.Info("batch finished",
		zap.Int("scenarios", n),
		zap.Int("failed", len(res.Failed())),
		zap.Duration("elapsed", time.Since(start)))

	return res
}

// runScenario calls task and converts a panic into an error.
func runScenario(ctx context.Context, i int, task Task) (out *output.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrScenarioPanic, r)
		}
	}()

	return task(ctx, i)
}
