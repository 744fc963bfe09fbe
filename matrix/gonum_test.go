// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridstate/matrix"
)

func TestRank(t *testing.T) {
	cases := []struct {
		name string
		rows [][]float64
		want int
	}{
		{"identity", [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, 3},
		{"tall full column rank", [][]float64{{1, 0}, {0, 1}, {1, 1}}, 2},
		{"wide", [][]float64{{1, 2, 3}, {2, 4, 6.000001}}, 2},
		{"dependent", [][]float64{{1, 2, 3}, {2, 4, 6}, {0, 1, 0}}, 2},
		{"zero", [][]float64{{0, 0}, {0, 0}}, 0},
		{"scaled below tolerance", [][]float64{{1, 0}, {0, 1e-12}}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := matrix.Rank(MustDense(t, tc.rows))
			require.NoError(t, err)
			assert.Equal(t, tc.want, r)
		})
	}

	t.Run("tolerance option", func(t *testing.T) {
		m := MustDense(t, [][]float64{{1, 0}, {0, 1e-7}})
		r, err := matrix.Rank(m)
		require.NoError(t, err)
		assert.Equal(t, 2, r)

		r, err = matrix.Rank(m, matrix.WithRankTolerance(1e-6))
		require.NoError(t, err)
		assert.Equal(t, 1, r)
	})

	_, err := matrix.Rank(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestSolveSymmetric(t *testing.T) {
	a := MustDense(t, [][]float64{
		{4, 2, 0},
		{2, 5, 1},
		{0, 1, 3},
	})
	want := []float64{1, -1, 2}
	b, err := matrix.MatVec(a, want)
	require.NoError(t, err)

	x, err := matrix.SolveSymmetric(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, x, 1e-10)

	_, err = matrix.SolveSymmetric(MustDense(t, [][]float64{{1, 2}, {2, 1}}), []float64{1, 1})
	assert.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)

	_, err = matrix.SolveSymmetric(a, []float64{1})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestToGonumCopies(t *testing.T) {
	m := MustDense(t, [][]float64{{1, 2}, {3, 4}})
	g, err := matrix.ToGonum(m)
	require.NoError(t, err)
	g.Set(0, 0, 42)
	assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	assert.Equal(t, 4.0, g.At(1, 1))
}
