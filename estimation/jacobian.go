// SPDX-License-Identifier: MIT

package estimation

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/gridstate/matrix"
)

// polarModel is the measurement function h([θ, |U|]) and its Jacobian H.
// Columns are θ of every bus except the pinned reference, then |U| of every
// bus. Row order follows the measurement list.
type polarModel struct {
	s        *system
	colTheta []int // -1 for the pinned bus
	colV     []int
	cols     int
	rows     int
	z        []float64 // measured values per row
	w        []float64 // weights 1/σ² per row
	isAngle  []bool    // residual must be wrapped to (-π, π]
	rankOpts []matrix.Option
}

func newPolarModel(s *system) *polarModel {
	n := s.topo.NumBuses()
	p := &polarModel{s: s, colTheta: make([]int, n), colV: make([]int, n)}
	c := 0
	for i := 0; i < n; i++ {
		if i == s.refBus {
			p.colTheta[i] = -1
			continue
		}
		p.colTheta[i] = c
		c++
	}
	for i := 0; i < n; i++ {
		p.colV[i] = c
		c++
	}
	p.cols = c

	for _, me := range s.meas {
		switch me.Kind {
		case VoltageMagnitude:
			p.push(real(me.Value), me.SigmaA, false)
		case VoltagePhasor:
			p.push(cmplx.Abs(me.Value), me.SigmaA, false)
			p.push(cmplx.Phase(me.Value), me.SigmaB, true)
		default:
			p.push(real(me.Value), me.SigmaA, false)
			p.push(imag(me.Value), me.SigmaB, false)
		}
	}
	p.rows = len(p.z)

	return p
}

func (p *polarModel) push(z, sigma float64, angle bool) {
	p.z = append(p.z, z)
	p.w = append(p.w, 1/(sigma*sigma))
	p.isAngle = append(p.isAngle, angle)
}

// state converts voltages to polar components; the pinned angle is forced to
// the reference.
func (p *polarModel) state(u []complex128) (theta, v []float64) {
	theta, v = make([]float64, len(u)), make([]float64, len(u))
	for i, ui := range u {
		v[i], theta[i] = cmplx.Polar(ui)
	}
	if p.s.refBus >= 0 {
		theta[p.s.refBus] = p.s.refAngle
	}

	return theta, v
}

// evaluate fills h (rows×cols, zeroed first) and returns residuals z − h(x).
func (p *polarModel) evaluate(theta, v []float64, h *matrix.Dense) []float64 {
	h.Zero()
	u := make([]complex128, len(v))
	for i := range u {
		u[i] = cmplx.Rect(v[i], theta[i])
	}
	r := make([]float64, p.rows)
	row := 0
	var hv [2]float64
	for _, me := range p.s.meas {
		switch me.Kind {
		case VoltageMagnitude:
			_ = h.AddAt(row, p.colV[me.Bus], 1)
			hv[0] = v[me.Bus]
		case VoltagePhasor:
			_ = h.AddAt(row, p.colV[me.Bus], 1)
			if c := p.colTheta[me.Bus]; c >= 0 {
				_ = h.AddAt(row+1, c, 1)
			}
			hv[0], hv[1] = v[me.Bus], theta[me.Bus]
		case BranchFlow:
			br := p.s.topo.Branches()[me.Branch]
			bm := p.s.net.Branch(me.Branch)
			var sa complex128
			if me.FromSide {
				sa = p.powerRows(h, row, br.From, []int{br.From, br.To}, []complex128{bm.Yff, bm.Yft}, u, v)
			} else {
				sa = p.powerRows(h, row, br.To, []int{br.To, br.From}, []complex128{bm.Ytt, bm.Ytf}, u, v)
			}
			hv[0], hv[1] = real(sa), imag(sa)
		case Injection:
			cols := p.s.y.Structure().Row(me.Bus)
			si := p.powerRows(h, row, me.Bus, cols, p.s.y.RowValues(me.Bus), u, v)
			hv[0], hv[1] = real(si), imag(si)
		}
		for k := 0; k < me.Kind.Rows(); k++ {
			d := p.z[row+k] - hv[k]
			if p.isAngle[row+k] {
				d = wrapAngle(d)
			}
			r[row+k] = d
		}
		row += me.Kind.Rows()
	}

	return r
}

// powerRows writes ∂S/∂[θ, |U|] of S = U_a·conj(Σ y_k·U_k) into rows row (P)
// and row+1 (Q) and returns S.
//
//	∂S/∂θ_k = −j·U_a·conj(y_k·U_k) + δ_ak·j·S
//	∂S/∂v_k =  U_a·conj(y_k·U_k)/v_k + δ_ak·S/v_a
func (p *polarModel) powerRows(h *matrix.Dense, row, a int, buses []int, ys []complex128, u []complex128, v []float64) complex128 {
	var cur complex128
	for idx, k := range buses {
		cur += ys[idx] * u[k]
	}
	s := u[a] * cmplx.Conj(cur)

	for idx, k := range buses {
		t := u[a] * cmplx.Conj(ys[idx]*u[k])
		p.add(h, row, p.colTheta[k], -1i*t)
		p.add(h, row, p.colV[k], t/complex(v[k], 0))
	}
	p.add(h, row, p.colTheta[a], 1i*s)
	p.add(h, row, p.colV[a], s/complex(v[a], 0))

	return s
}

// add writes a complex derivative into the P (real) and Q (imag) rows.
func (p *polarModel) add(h *matrix.Dense, row, col int, d complex128) {
	if col < 0 {
		return
	}
	_ = h.AddAt(row, col, real(d))
	_ = h.AddAt(row+1, col, imag(d))
}

// wrapAngle maps an angle difference to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}

	return a
}
