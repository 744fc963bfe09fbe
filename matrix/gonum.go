// SPDX-License-Identifier: MIT

// Package matrix - gonum bridge.
//
// Purpose:
//   - Numerical rank through singular values (observability checks).
//   - Symmetric positive definite solves through Cholesky (WLS gain matrix).
//
// The bridge copies data into gonum types; callers keep working with *Dense.

package matrix

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	opToGonum        = "ToGonum"
	opRank           = "Rank"
	opSolveSymmetric = "SolveSymmetric"
)

// ToGonum copies m into a new *mat.Dense.
// Complexity: O(r*c).
func ToGonum(m Matrix) (*mat.Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opToGonum, err)
	}
	d, err := asDense(m)
	if err != nil {
		return nil, matrixErrorf(opToGonum, err)
	}
	data := make([]float64, len(d.data))
	copy(data, d.data)

	return mat.NewDense(d.r, d.c, data), nil
}

// Rank returns the numerical rank of m: the number of singular values above
// tol·σ_max (DefaultRankTolerance unless overridden with WithRankTolerance).
// A zero matrix has rank 0.
//
// Errors:
//   - ErrNilMatrix; a wrapped error if the SVD does not converge.
//
// Complexity:
//   - Time O(r*c*min(r,c)).
func Rank(m Matrix, opts ...Option) (int, error) {
	o := gatherOptions(opts...)
	g, err := ToGonum(m)
	if err != nil {
		return 0, matrixErrorf(opRank, err)
	}

	var svd mat.SVD
	if ok := svd.Factorize(g, mat.SVDNone); !ok {
		return 0, matrixErrorf(opRank, errors.New("singular value decomposition did not converge"))
	}
	values := svd.Values(nil) // descending
	if len(values) == 0 || values[0] == 0 {
		return 0, nil
	}
	threshold := o.rankTol * values[0]
	rank := 0
	for _, s := range values {
		if s > threshold {
			rank++
		}
	}

	return rank, nil
}

// SolveSymmetric solves a·x = b for a symmetric positive definite a using
// gonum's Cholesky factorization. Only the upper triangle of a is read.
// An ill-conditioned but factorizable a still yields a solution.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrNotPositiveDefinite.
//
// Complexity:
//   - Time O(n³/3), Space O(n²).
func SolveSymmetric(a Matrix, b []float64) ([]float64, error) {
	if err := ValidateSquare(a); err != nil {
		return nil, matrixErrorf(opSolveSymmetric, err)
	}
	n := a.Rows()
	if err := ValidateVecLen(b, n); err != nil {
		return nil, matrixErrorf(opSolveSymmetric, err)
	}
	d, err := asDense(a)
	if err != nil {
		return nil, matrixErrorf(opSolveSymmetric, err)
	}
	data := make([]float64, n*n)
	copy(data, d.data)
	sym := mat.NewSymDense(n, data)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, matrixErrorf(opSolveSymmetric, ErrNotPositiveDefinite)
	}
	rhs := make([]float64, n)
	copy(rhs, b)
	var x mat.VecDense
	if err = chol.SolveVecTo(&x, mat.NewVecDense(n, rhs)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, matrixErrorf(opSolveSymmetric, fmt.Errorf("cholesky solve: %w", err))
		}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = x.AtVec(i)
	}

	return out, nil
}
