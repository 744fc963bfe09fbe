// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridstate/matrix"
)

// tol is the absolute tolerance for float comparisons in this package's tests.
const tol = 1e-12

// MustDense builds a matrix from row slices or fails the test.
func MustDense(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	require.NotEmpty(t, rows)
	m, err := matrix.NewDense(len(rows), len(rows[0]))
	require.NoError(t, err)
	for i, r := range rows {
		require.Len(t, r, len(rows[0]), "ragged test matrix")
		for j, v := range r {
			require.NoError(t, m.Set(i, j, v))
		}
	}

	return m
}

// MustAt reads one element or fails the test.
func MustAt(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// RequireMatrixInDelta compares a matrix against expected rows.
func RequireMatrixInDelta(t *testing.T, want [][]float64, got matrix.Matrix, delta float64) {
	t.Helper()
	require.Equal(t, len(want), got.Rows())
	require.Equal(t, len(want[0]), got.Cols())
	for i := range want {
		for j := range want[i] {
			require.InDelta(t, want[i][j], MustAt(t, got, i, j), delta, "at (%d,%d)", i, j)
		}
	}
}
