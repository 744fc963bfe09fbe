// SPDX-License-Identifier: MIT

// Package metrics exposes calculation counters and timings as Prometheus
// collectors. A nil *Collector is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/katalvlaran/gridstate/calcerr"
)

const (
	LabelCalculation = "calculation"
	LabelMethod      = "method"
	LabelStatus      = "status"
)

// Status label values.
const (
	StatusOK              = "ok"
	StatusValidation      = "validation"
	StatusInvalidTopology = "invalid_topology"
	StatusDisconnected    = "disconnected"
	StatusIterationLimit  = "iteration_limit"
	StatusNotObservable   = "not_observable"
	StatusCancelled       = "cancelled"
	StatusError           = "error"
)

// Collector groups the gridstate metrics.
type Collector struct {
	calculations *prometheus.CounterVec
	iterations   *prometheus.HistogramVec
	duration     *prometheus.HistogramVec
	scenarios    *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridstate_calculations_total",
			Help: "Number of calculations by type, method and outcome",
		}, []string{LabelCalculation, LabelMethod, LabelStatus}),
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridstate_calculation_iterations",
			Help:    "Solver iterations of converged calculations",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15, 20, 50, 100},
		}, []string{LabelCalculation, LabelMethod}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridstate_calculation_duration_seconds",
			Help:    "Wall time of a single scenario calculation",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{LabelCalculation, LabelMethod}),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridstate_batch_scenarios_total",
			Help: "Number of batch scenarios by outcome",
		}, []string{LabelStatus}),
	}
	for _, col := range []prometheus.Collector{c.calculations, c.iterations, c.duration, c.scenarios} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObserveCalculation records one finished calculation. iterations is only
// recorded on success.
func (c *Collector) ObserveCalculation(calculation, method string, iterations int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	status := Status(err)
	c.calculations.WithLabelValues(calculation, method, status).Inc()
	c.duration.WithLabelValues(calculation, method).Observe(elapsed.Seconds())
	if err == nil {
		c.iterations.WithLabelValues(calculation, method).Observe(float64(iterations))
	}
}

// ObserveScenario records the outcome of one batch scenario.
func (c *Collector) ObserveScenario(err error) {
	if c == nil {
		return
	}
	c.scenarios.WithLabelValues(Status(err)).Inc()
}

// Status maps an error to its status label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, calcerr.ErrValidation):
		return StatusValidation
	case errors.Is(err, calcerr.ErrInvalidTopology):
		return StatusInvalidTopology
	case errors.Is(err, calcerr.ErrDisconnectedNetwork):
		return StatusDisconnected
	case errors.Is(err, calcerr.ErrIterationLimit):
		return StatusIterationLimit
	case errors.Is(err, calcerr.ErrNotObservable):
		return StatusNotObservable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusError
	}
}
