// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra kernels used by the
// solvers: a row-major Dense matrix with error-returning accessors, a
// matrix-vector product, weighted Gram products for WLS, a partially pivoted
// LU factorization with reusable Solve, and a bridge to gonum for SVD rank
// and Cholesky solves.
//
// Conventions:
//   - Public accessors never panic on bad indices; they return ErrOutOfRange.
//   - All kernels iterate in fixed order, so results are bit-for-bit
//     reproducible for identical inputs.
//   - Hot paths operate on the flat data slice of *Dense directly.
//
// Complexity quicksheet:
//   - NewDense O(r*c); At/Set/AddAt O(1); MatVec O(r*c); WeightedGram O(Σ nnz(row)²).
//   - Factorize O(n³); (*LU).Solve O(n²) per right-hand side.
//   - Rank O(m*n*min(m,n)) through gonum SVD.
package matrix
