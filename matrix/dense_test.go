// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridstate/matrix"
)

func TestNewDense(t *testing.T) {
	for _, shape := range [][2]int{{0, 1}, {1, 0}, {-1, 3}} {
		_, err := matrix.NewDense(shape[0], shape[1])
		assert.ErrorIs(t, err, matrix.ErrInvalidDimensions, "shape %v", shape)
	}

	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, 0.0, MustAt(t, m, 1, 2))
}

func TestAccessors(t *testing.T) {
	m := MustDense(t, [][]float64{{1, 2}, {3, 4}})

	t.Run("bounds", func(t *testing.T) {
		_, err := m.At(2, 0)
		assert.ErrorIs(t, err, matrix.ErrOutOfRange)
		assert.ErrorIs(t, m.Set(0, -1, 1), matrix.ErrOutOfRange)
		assert.ErrorIs(t, m.AddAt(0, 2, 1), matrix.ErrOutOfRange)
		assert.Contains(t, m.Set(0, -1, 1).Error(), "Dense.Set(0,-1)")
	})

	t.Run("numeric policy", func(t *testing.T) {
		assert.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
		assert.ErrorIs(t, m.AddAt(0, 0, math.Inf(-1)), matrix.ErrNaNInf)
		assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	})

	t.Run("accumulate and reset", func(t *testing.T) {
		cp := m.Clone().(*matrix.Dense)
		require.NoError(t, cp.AddAt(1, 1, 0.5))
		require.NoError(t, cp.AddAt(1, 1, 0.5))
		assert.Equal(t, 5.0, MustAt(t, cp, 1, 1))
		assert.Equal(t, 4.0, MustAt(t, m, 1, 1), "clone is independent")

		cp.Zero()
		RequireMatrixInDelta(t, [][]float64{{0, 0}, {0, 0}}, cp, 0)
	})
}

func TestValidators(t *testing.T) {
	var nilDense *matrix.Dense
	assert.ErrorIs(t, matrix.ValidateNotNil(nil), matrix.ErrNilMatrix)
	assert.ErrorIs(t, matrix.ValidateNotNil(nilDense), matrix.ErrNilMatrix)
	assert.ErrorIs(t, matrix.ValidateSquare(MustDense(t, [][]float64{{1, 2}})), matrix.ErrDimensionMismatch)
	assert.ErrorIs(t, matrix.ValidateVecLen(nil, 0), matrix.ErrNilMatrix)
	assert.ErrorIs(t, matrix.ValidateVecLen([]float64{1}, 2), matrix.ErrDimensionMismatch)
}

func TestOptionsPanicOnNonsense(t *testing.T) {
	assert.Panics(t, func() { matrix.WithPivotTolerance(-1) })
	assert.Panics(t, func() { matrix.WithPivotTolerance(math.NaN()) })
	assert.Panics(t, func() { matrix.WithPivotTolerance(math.Inf(1)) })
	assert.Panics(t, func() { matrix.WithRankTolerance(0) })
	assert.Panics(t, func() { matrix.WithRankTolerance(1) })
	assert.NotPanics(t, func() { matrix.WithRankTolerance(1e-6) })
}
