// SPDX-License-Identifier: MIT

package admittance

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/gridstate/dataset"
)

const (
	// BaseP is the three-phase power base in VA.
	BaseP = 1e6

	// Frequency is the system frequency in Hz used for line capacitance.
	Frequency = 50.0
)

// BaseZ returns the impedance base in Ω for a voltage level.
func BaseZ(uRated float64) float64 { return uRated * uRated / BaseP }

// BaseI returns the current base in A for a voltage level.
func BaseI(uRated float64) float64 { return BaseP / (math.Sqrt(3) * uRated) }

// SourceModel is the Norton equivalent of a source: admittance Y to ground
// in parallel with current injection I = Y·E, E = u_ref∠u_ref_angle.
type SourceModel struct {
	Y complex128
	E complex128
}

// Current returns the Norton current Y·E.
func (s SourceModel) Current() complex128 { return s.Y * s.E }

// NewSourceModel converts a source record to per-unit. The internal
// impedance magnitude is S_base/sk, split by rx_ratio into r and x.
func NewSourceModel(s dataset.Source) SourceModel {
	sk := s.SK
	if sk == 0 {
		sk = dataset.DefaultSK
	}
	z := BaseP / sk
	x := z / math.Sqrt(1+s.RXRatio*s.RXRatio)

	return SourceModel{
		Y: 1 / complex(x*s.RXRatio, x),
		E: cmplx.Rect(s.URef, s.URefAngle),
	}
}

// ShuntAdmittance converts a shunt to per-unit on its bus voltage level.
func ShuntAdmittance(s dataset.Shunt, uRated float64) complex128 {
	return complex(s.G1, s.B1) * complex(BaseZ(uRated), 0)
}
