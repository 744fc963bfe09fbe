// SPDX-License-Identifier: MIT

package admittance

import (
	"math"

	"github.com/katalvlaran/gridstate/dataset"
)

// BranchModel is the per-unit two-port of a line:
//
//	[I_from]   [Yff Yft] [V_from]
//	[I_to  ] = [Ytf Ytt] [V_to  ]
type BranchModel struct {
	Yff, Yft, Ytf, Ytt complex128
}

// FromCurrent returns the current entering the line at the from side.
func (b BranchModel) FromCurrent(vf, vt complex128) complex128 { return b.Yff*vf + b.Yft*vt }

// ToCurrent returns the current entering the line at the to side.
func (b BranchModel) ToCurrent(vf, vt complex128) complex128 { return b.Ytf*vf + b.Ytt*vt }

// NewLineModel builds the pi model of a line on voltage level uRated.
//
// Behavior highlights:
//   - Both sides closed: series admittance between the buses, half of the
//     shunt admittance at each end.
//   - One side open: the closed side sees its half shunt in parallel with the
//     series branch terminated by the far half shunt.
//   - Both open: all entries zero.
func NewLineModel(l dataset.Line, uRated float64) BranchModel {
	zBase := BaseZ(uRated)
	ys := complex(zBase, 0) / complex(l.R1, l.X1)
	ysh := complex(2*math.Pi*Frequency*l.C1*zBase, 0) * complex(l.Tan1, 1)
	half := ysh / 2

	from, to := l.FromStatus.On(), l.ToStatus.On()
	switch {
	case from && to:
		return BranchModel{Yff: ys + half, Yft: -ys, Ytf: -ys, Ytt: ys + half}
	case from:
		return BranchModel{Yff: half + openEnd(ys, half)}
	case to:
		return BranchModel{Ytt: half + openEnd(ys, half)}
	default:
		return BranchModel{}
	}
}

// openEnd is the series connection of ys and the far half shunt.
func openEnd(ys, half complex128) complex128 {
	if half == 0 {
		return 0
	}

	return ys * half / (ys + half)
}
