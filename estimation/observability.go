// SPDX-License-Identifier: MIT

package estimation

import (
	"fmt"

	"github.com/katalvlaran/gridstate/admittance"
	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/matrix"
)

// Check reports whether the sensors of d make the state of net observable.
// Only RankTolerance of opts is read.
//
// Implementation:
//   - Stage 1: every bus must be reached by a connected source.
//   - Stage 2: count real measurement equations against the unknowns.
//   - Stage 3: build H at flat start (angle of the reference, |U| = 1) and
//     require numerical rank equal to the unknowns (gonum SVD, singular
//     values below RankTolerance·σ_max count as zero).
//
// Errors:
//   - *calcerr.DisconnectedNetworkError listing the dark nodes.
//   - *calcerr.ObservabilityError; Rank is -1 when Stage 2 fails.
//
// Complexity:
//   - Time O(m·c²) for the SVD of the m×c Jacobian.
func Check(net *admittance.Network, d *dataset.Dataset, opts Options) error {
	_, err := newSystem(net, d).check(opts)

	return err
}

// check runs every observability stage and returns the polar model on
// success so solvers do not rebuild it.
func (s *system) check(opts Options) (*polarModel, error) {
	if dark := s.topo.Isolated(s.d); len(dark) > 0 {
		return nil, &calcerr.DisconnectedNetworkError{Nodes: dark}
	}
	rows, unknowns := s.rowCount(), s.unknowns()
	if rows < unknowns {
		return nil, &calcerr.ObservabilityError{Measurements: rows, Unknowns: unknowns, Rank: -1}
	}

	p := newPolarModel(s)
	p.rankOpts = opts.rankOptions()
	rank, err := p.rankAtFlatStart()
	if err != nil {
		return nil, err
	}
	if rank < unknowns {
		return nil, &calcerr.ObservabilityError{Measurements: rows, Unknowns: unknowns, Rank: rank}
	}

	return p, nil
}

func (p *polarModel) rankAtFlatStart() (int, error) {
	n := p.s.topo.NumBuses()
	theta, v := make([]float64, n), make([]float64, n)
	for i := range theta {
		theta[i], v[i] = p.s.refAngle, 1
	}
	h, err := matrix.NewDense(p.rows, p.cols)
	if err != nil {
		return 0, fmt.Errorf("estimation: jacobian: %w", err)
	}
	p.evaluate(theta, v, h)
	rank, err := matrix.Rank(h, p.rankOpts...)
	if err != nil {
		return 0, fmt.Errorf("estimation: rank: %w", err)
	}

	return rank, nil
}
