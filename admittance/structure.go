// SPDX-License-Identifier: MIT

package admittance

import (
	"sort"

	"github.com/katalvlaran/gridstate/topology"
)

// Structure is the symbolic CSR pattern of Y: every diagonal entry plus both
// off-diagonal entries of each closed line. Columns within a row are sorted.
// A Structure is immutable and safe for concurrent use.
type Structure struct {
	n      int
	rowPtr []int // len n+1
	cols   []int // len nnz
	diag   []int // position of (i,i) in cols
}

// NewStructure derives the pattern from a topology.
// Complexity: O(B + L·log L).
func NewStructure(m *topology.Model) *Structure {
	n := m.NumBuses()
	perRow := make([][]int, n)
	for i := range perRow {
		perRow[i] = []int{i}
	}
	for _, b := range m.Branches() {
		if !b.Closed() {
			continue
		}
		perRow[b.From] = append(perRow[b.From], b.To)
		perRow[b.To] = append(perRow[b.To], b.From)
	}

	s := &Structure{n: n, rowPtr: make([]int, n+1), diag: make([]int, n)}
	for i, row := range perRow {
		sort.Ints(row)
		// Parallel lines produce duplicates; keep one slot.
		w := 0
		for k, c := range row {
			if k > 0 && c == row[w-1] {
				continue
			}
			row[w] = c
			w++
		}
		row = row[:w]
		for k, c := range row {
			if c == i {
				s.diag[i] = len(s.cols) + k
			}
		}
		s.cols = append(s.cols, row...)
		s.rowPtr[i+1] = len(s.cols)
	}

	return s
}

// Size returns the bus count n of the n×n pattern.
func (s *Structure) Size() int { return s.n }

// NNZ returns the number of stored entries.
func (s *Structure) NNZ() int { return len(s.cols) }

// Row returns the sorted column indices of row i. The slice must not be
// modified.
func (s *Structure) Row(i int) []int { return s.cols[s.rowPtr[i]:s.rowPtr[i+1]] }

// Diag returns the storage position of (i,i).
func (s *Structure) Diag(i int) int { return s.diag[i] }

// Find returns the storage position of (i,j), or -1 if it is structurally
// zero.
func (s *Structure) Find(i, j int) int {
	if i < 0 || i >= s.n {
		return -1
	}
	lo, hi := s.rowPtr[i], s.rowPtr[i+1]
	k := lo + sort.SearchInts(s.cols[lo:hi], j)
	if k < hi && s.cols[k] == j {
		return k
	}

	return -1
}
