// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/gridstate/matrix"
)

// ExampleFactorize solves a 2×2 system whose first pivot is zero.
func ExampleFactorize() {
	a, _ := matrix.NewDense(2, 2)
	_ = a.Set(0, 1, 1)
	_ = a.Set(1, 0, 2)
	f, err := matrix.Factorize(a)
	if err != nil {
		fmt.Println(err)
		return
	}
	x, _ := f.Solve([]float64{3, 4})
	fmt.Println(x)
	// Output: [2 3]
}

// ExampleRank shows the rank of a matrix with a repeated row.
func ExampleRank() {
	h, _ := matrix.NewDense(3, 2)
	_ = h.Set(0, 0, 1)
	_ = h.Set(1, 0, 1)
	r, _ := matrix.Rank(h)
	fmt.Println(r)
	// Output: 1
}
