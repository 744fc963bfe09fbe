// SPDX-License-Identifier: MIT

package matrix

const (
	opWeightedGram = "WeightedGram"
	opWeightedTMul = "WeightedTMul"
)

// WeightedGram returns G = Hᵀ·diag(w)·H, the gain matrix of weighted least
// squares. Only non-zero entries of H contribute, so sparse measurement rows
// cost O(nnz(row)²).
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (len(w) != h.Rows()).
//
// Complexity:
//   - Time O(Σ nnz(row)²), Space O(c²).
func WeightedGram(h Matrix, w []float64) (*Dense, error) {
	if err := ValidateNotNil(h); err != nil {
		return nil, matrixErrorf(opWeightedGram, err)
	}
	if err := ValidateVecLen(w, h.Rows()); err != nil {
		return nil, matrixErrorf(opWeightedGram, err)
	}
	d, err := asDense(h)
	if err != nil {
		return nil, matrixErrorf(opWeightedGram, err)
	}
	c := d.c
	g, err := NewDense(c, c)
	if err != nil {
		return nil, matrixErrorf(opWeightedGram, err)
	}
	nz := make([]int, 0, c)
	for r := 0; r < d.r; r++ {
		row := d.data[r*c : (r+1)*c]
		nz = nz[:0]
		for j, v := range row {
			if v != 0 {
				nz = append(nz, j)
			}
		}
		for _, i := range nz {
			wi := w[r] * row[i]
			for _, j := range nz {
				g.data[i*c+j] += wi * row[j]
			}
		}
	}

	return g, nil
}

// WeightedTMul returns Hᵀ·diag(w)·r.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch.
//
// Complexity:
//   - Time O(r*c), Space O(c).
func WeightedTMul(h Matrix, w, r []float64) ([]float64, error) {
	if err := ValidateNotNil(h); err != nil {
		return nil, matrixErrorf(opWeightedTMul, err)
	}
	if err := ValidateVecLen(w, h.Rows()); err != nil {
		return nil, matrixErrorf(opWeightedTMul, err)
	}
	if err := ValidateVecLen(r, h.Rows()); err != nil {
		return nil, matrixErrorf(opWeightedTMul, err)
	}
	d, err := asDense(h)
	if err != nil {
		return nil, matrixErrorf(opWeightedTMul, err)
	}
	out := make([]float64, d.c)
	for k := 0; k < d.r; k++ {
		s := w[k] * r[k]
		if s == 0 {
			continue
		}
		for j, v := range d.data[k*d.c : (k+1)*d.c] {
			out[j] += v * s
		}
	}

	return out, nil
}
