// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package filter

import (
	"fmt"

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Sharpens the selected planes by convolution with horizontal and vertical amounts, see
// conv.NewSharpening. Square kernels have radius 1..2, lines 1..12. Samples beyond the
// borders are mirrored
func (e *Engine) Sharpen(f *frame.Frame, amountH, amountV float64, radius int, planes []int) (*frame.Frame, error) {
	s, err := conv.NewSharpening(amountH, amountV, radius)
	if err != nil {
		return nil, err
	}
	return e.mapPlanes(f, planes, func(dst, src []float32) frame.RowFunction {
		switch s.Direction {
		case conv.Horizontal:
			return func(y0, y1 int) { s.Line.FilterRowsH(dst, src, f.Width, y0, y1) }
		case conv.Vertical:
			return func(y0, y1 int) { s.Line.FilterRowsV(dst, src, f.Width, f.Height, y0, y1) }
		}
		return func(y0, y1 int) { s.Grid.FilterRows(dst, src, f.Width, f.Height, y0, y1) }
	})
}

// Adds the difference between the frame and its unsharp blur of radius 1..2 back to the
// selected planes. Strength in percent, see conv.NewUnsharpBlur
func (e *Engine) UnsharpMasked(f *frame.Frame, radius int, strength float64, planes []int) (*frame.Frame, error) {
	g, err := conv.NewUnsharpBlur(radius, strength)
	if err != nil {
		return nil, err
	}
	return e.mapPlanes(f, planes, func(dst, src []float32) frame.RowFunction {
		return func(y0, y1 int) {
			g.FilterRows(dst, src, f.Width, f.Height, y0, y1)
			for j := y0 * f.Width; j < y1*f.Width; j++ {
				dst[j] = 2*src[j] - dst[j]
			}
		}
	})
}

// Default contra-sharpening radius: 2 for frames larger than 1024x576, else 1
func ContraSharpeningRadius(f *frame.Frame) int {
	if f.Width > 1024 || f.Height > 576 {
		return 2
	}
	return 1
}

var (
	binomialWeights = [9]float32{1, 2, 1, 2, 4, 2, 1, 2, 1}
	meanWeights     = [9]float32{1, 1, 1, 1, 1, 1, 1, 1, 1}
)

// Sharpens the filtered frame flt, but never adds more to a sample than filtering removed
// from the source src around it. The detail of a radius 1..3 min-blur of flt is limited by
// repairing it with mode rep against the difference src - flt, and added back where that
// shrinks it. Radius 0 picks ContraSharpeningRadius
func (e *Engine) ContraSharpening(flt, src *frame.Frame, radius int, rep rg.Mode, planes []int) (*frame.Frame, error) {
	if err := flt.CheckCompatible(src); err != nil {
		return nil, err
	}
	if radius == 0 {
		radius = ContraSharpeningRadius(flt)
	}
	if radius < 1 || radius > 3 {
		return nil, fmt.Errorf("contra-sharpening radius %d, want 1..3", radius)
	}
	mask, err := dispatch.ParsePlanes(planes, flt.NumPlanes())
	if err != nil {
		return nil, err
	}

	mblur, err := e.MinBlur(flt, []int{radius}, conv.Square, planes)
	if err != nil {
		return nil, err
	}
	blurred, err := e.BoxBlur(mblur, binomialWeights, planes)
	if err != nil {
		return nil, err
	}
	for i := 1; i < radius; i++ {
		if blurred, err = e.BoxBlur(blurred, meanWeights, planes); err != nil {
			return nil, err
		}
	}
	diffBlur, diffFlt := difference(mblur, blurred), difference(src, flt)
	limit, err := e.Repair(diffBlur, diffFlt, []rg.Mode{rep}, planes)
	if err != nil {
		return nil, err
	}

	out := flt.Clone()
	for i, p := range out.Planes {
		if !mask[i] {
			continue
		}
		l, db := limit.Planes[i], diffBlur.Planes[i]
		frame.ApplyRows(0, flt.Height, e.Workers, func(y0, y1 int) {
			for j := y0 * flt.Width; j < y1*flt.Width; j++ {
				d := l[j]
				if abs(d) >= abs(db[j]) {
					d = db[j]
				}
				p[j] += d
			}
			if flt.Format.Integer {
				quantizeRows(p, flt.Width, y0, y1, flt.Format)
			}
		})
	}
	return out, nil
}

// Returns a - b as a float frame
func difference(a, b *frame.Frame) *frame.Frame {
	d := a.NewLike()
	d.Format = rg.FormatFloat
	for i, p := range d.Planes {
		for j := range p {
			p[j] = a.Planes[i][j] - b.Planes[i][j]
		}
	}
	return d
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
