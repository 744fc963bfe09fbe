// SPDX-License-Identifier: MIT

// Package matrix - products and LU factorization.
//
// Purpose:
//   - MatVec for residuals of linear measurement models.
//   - Factorize: Doolittle LU with partial (row) pivoting, reusable across
//     right-hand sides through (*LU).Solve.
//
// Determinism:
//   - Fixed i→k→j loop orders; pivot ties resolve to the lowest row index.

package matrix

import (
	"fmt"
	"math"
)

// op tags used by matrixErrorf.
const (
	opMatVec    = "MatVec"
	opFactorize = "Factorize"
	opSolve     = "LU.Solve"
)

// matrixErrorf wraps err with an operation tag, preserving the sentinel.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// asDense returns m itself when it is a *Dense, otherwise a dense copy.
func asDense(m Matrix) (*Dense, error) {
	if d, ok := m.(*Dense); ok {
		return d, nil
	}
	out, err := NewDense(m.Rows(), m.Cols())
	if err != nil {
		return nil, err
	}
	var v float64
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, err
			}
			out.data[i*out.c+j] = v
		}
	}

	return out, nil
}

// MatVec returns y = m·x.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (len(x) != m.Cols()).
//
// Complexity:
//   - Time O(r*c), Space O(r).
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := ValidateVecLen(x, m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	d, err := asDense(m)
	if err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	y := make([]float64, d.r)
	var acc float64
	for i := 0; i < d.r; i++ {
		acc = 0
		row := d.data[i*d.c : (i+1)*d.c]
		for j, v := range row {
			acc += v * x[j]
		}
		y[i] = acc
	}

	return y, nil
}

// LU is a factorization P·A = L·U stored compactly: unit-lower L below the
// diagonal, U on and above it. It is immutable after Factorize and may be
// shared by goroutines calling Solve.
type LU struct {
	n   int
	lu  []float64
	piv []int // piv[i] = original row placed at position i
}

// Size returns n for an n×n factorization.
func (f *LU) Size() int { return f.n }

// Factorize computes the LU factorization of a square matrix with partial
// pivoting.
//
// Implementation:
//   - Stage 1: validate squareness; copy A into the work buffer.
//   - Stage 2: for each column k pick the row with the largest |a_ik|, i>=k.
//   - Stage 3: if that magnitude is <= tol·max|A| report ErrSingular.
//   - Stage 4: eliminate below the pivot, storing multipliers in place.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (non-square), ErrSingular.
//
// Complexity:
//   - Time O(n³), Space O(n²).
func Factorize(m Matrix, opts ...Option) (*LU, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opFactorize, err)
	}
	o := gatherOptions(opts...)
	d, err := asDense(m)
	if err != nil {
		return nil, matrixErrorf(opFactorize, err)
	}

	n := d.r
	a := make([]float64, len(d.data))
	copy(a, d.data)
	piv := make([]int, n)
	var scale float64
	for i := range piv {
		piv[i] = i
	}
	for _, v := range a {
		scale = math.Max(scale, math.Abs(v))
	}
	threshold := o.pivotTol * scale

	var p, i, j, k int
	var best, mult float64
	for k = 0; k < n; k++ {
		// Stage 2: pivot search (lowest index wins ties).
		p, best = k, math.Abs(a[k*n+k])
		for i = k + 1; i < n; i++ {
			if v := math.Abs(a[i*n+k]); v > best {
				p, best = i, v
			}
		}
		// Stage 3: singularity guard.
		if best == 0 || best <= threshold {
			return nil, matrixErrorf(opFactorize, fmt.Errorf("column %d: %w", k, ErrSingular))
		}
		if p != k {
			rk, rp := a[k*n:(k+1)*n], a[p*n:(p+1)*n]
			for j = 0; j < n; j++ {
				rk[j], rp[j] = rp[j], rk[j]
			}
			piv[k], piv[p] = piv[p], piv[k]
		}
		// Stage 4: elimination.
		pivot := a[k*n+k]
		for i = k + 1; i < n; i++ {
			mult = a[i*n+k] / pivot
			a[i*n+k] = mult
			if mult == 0 {
				continue
			}
			for j = k + 1; j < n; j++ {
				a[i*n+j] -= mult * a[k*n+j]
			}
		}
	}

	return &LU{n: n, lu: a, piv: piv}, nil
}

// Solve returns x with A·x = b using forward and back substitution.
// b is not modified.
//
// Errors:
//   - ErrNilMatrix / ErrDimensionMismatch for a bad b.
//
// Complexity:
//   - Time O(n²), Space O(n).
func (f *LU) Solve(b []float64) ([]float64, error) {
	if err := ValidateVecLen(b, f.n); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	n := f.n
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = b[f.piv[i]]
	}
	// Forward: L·y = P·b (unit diagonal).
	for i := 1; i < n; i++ {
		row := f.lu[i*n : i*n+i]
		sum := x[i]
		for j, l := range row {
			sum -= l * x[j]
		}
		x[i] = sum
	}
	// Backward: U·x = y.
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for j := i + 1; j < n; j++ {
			sum -= f.lu[i*n+j] * x[j]
		}
		x[i] = sum / f.lu[i*n+i]
	}

	return x, nil
}
