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
	"github.com/mlnoga/rgtools/internal/median"
	"github.com/mlnoga/rgtools/internal/native"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Largest radius of Blur, Median, Sbr and MinBlur
const MaxRadius = conv.MaxGaussianRadius

// Returns a single-plane frame sharing plane i of f
func planeOf(f *frame.Frame, i int) *frame.Frame {
	return &frame.Frame{ID: f.ID, FileName: f.FileName, Width: f.Width, Height: f.Height,
		Family: frame.Gray, Format: f.Format, Planes: [][]float32{f.Planes[i]}}
}

// Applies fn to each selected plane with its radius, broadcast to the plane count.
// Radii must be in minRadius..MaxRadius. Unselected planes pass through
func (e *Engine) perPlane(f *frame.Frame, radii, planes []int, minRadius int,
	fn func(p *frame.Frame, r int) (*frame.Frame, error)) (*frame.Frame, error) {
	rs, err := dispatch.NormaliseInts(radii, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	mask, err := dispatch.ParsePlanes(planes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	for i, r := range rs {
		if r < minRadius || r > MaxRadius {
			return nil, fmt.Errorf("plane %d: radius %d, want %d..%d", i, r, minRadius, MaxRadius)
		}
	}
	out := f.Clone()
	for i, r := range rs {
		if !mask[i] {
			continue
		}
		res, err := fn(planeOf(f, i), r)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
		copy(out.Planes[i], res.Planes[0])
	}
	return out, nil
}

// Returns the remove-grain passes of a square gaussian blur: one binomial pass, then box passes
func blurModes(radius int) []rg.Mode {
	modes := make([]rg.Mode, radius)
	modes[0] = 11
	for i := 1; i < radius; i++ {
		modes[i] = 20
	}
	return modes
}

// Blurs the selected planes with per-plane radii in 1..12. The square gaussian blur runs one
// binomial 3x3 pass followed by radius-1 box passes, the horizontal and vertical ones convolve
// with a gaussian line kernel. The box blur averages a window of 2*radius+1 samples per
// direction, cut off at the frame borders
func (e *Engine) Blur(f *frame.Frame, radii []int, gauss bool, d conv.Direction, planes []int) (*frame.Frame, error) {
	return e.perPlane(f, radii, planes, 1, func(p *frame.Frame, r int) (*frame.Frame, error) {
		return e.blurPlane(p, r, gauss, d)
	})
}

func (e *Engine) blurPlane(p *frame.Frame, r int, gauss bool, d conv.Direction) (*frame.Frame, error) {
	if gauss && d == conv.Square {
		return e.RemoveGrainM(p, [][]rg.Mode{blurModes(r)}, []int{r}, nil)
	}
	if gauss {
		l, err := conv.Gaussian(r)
		if err != nil {
			return nil, err
		}
		return e.mapPlanes(p, nil, func(dst, src []float32) frame.RowFunction {
			if d == conv.Horizontal {
				return func(y0, y1 int) { l.FilterRowsH(dst, src, p.Width, y0, y1) }
			}
			return func(y0, y1 int) { l.FilterRowsV(dst, src, p.Width, p.Height, y0, y1) }
		})
	}

	out := p.Clone()
	src, dst := p.Planes[0], out.Planes[0]
	if d != conv.Vertical {
		frame.ApplyRows(0, p.Height, e.Workers, func(y0, y1 int) { conv.BoxMeanH(dst, src, p.Width, r, y0, y1) })
	}
	if d != conv.Horizontal {
		tmp := frame.GetPlane(p.Width * p.Height)
		defer frame.PutPlane(tmp)
		copy(tmp, dst)
		frame.ApplyRows(0, p.Height, e.Workers, func(y0, y1 int) { conv.BoxMeanV(dst, tmp, p.Width, p.Height, r, y0, y1) })
	}
	if p.Format.Integer {
		frame.ApplyRows(0, p.Height, e.Workers, func(y0, y1 int) { quantizeRows(dst, p.Width, y0, y1, p.Format) })
	}
	return out, nil
}

// Applies the row function returned by rows to every selected plane, writing all samples of
// each row into a copy of the frame. Integer results are quantized
func (e *Engine) mapPlanes(f *frame.Frame, planes []int, rows func(dst, src []float32) frame.RowFunction) (*frame.Frame, error) {
	mask, err := dispatch.ParsePlanes(planes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	for i := range out.Planes {
		if !mask[i] {
			continue
		}
		dst := out.Planes[i]
		rf := rows(dst, f.Planes[i])
		frame.ApplyRows(0, f.Height, e.Workers, func(y0, y1 int) {
			rf(y0, y1)
			if f.Format.Integer {
				quantizeRows(dst, f.Width, y0, y1, f.Format)
			}
		})
	}
	return out, nil
}

// Median of the selected planes with per-plane radii in 1..12. Square windows hold
// (2*radius+1)^2 samples, horizontal and vertical ones 2*radius+1. Radius 1 uses
// remove-grain mode 4 or the cleaners in mode 1, which keep the border samples.
// Larger windows mirror samples beyond the borders
func (e *Engine) Median(f *frame.Frame, radii []int, d conv.Direction, planes []int) (*frame.Frame, error) {
	return e.perPlane(f, radii, planes, 1, func(p *frame.Frame, r int) (*frame.Frame, error) {
		return e.medianPlane(p, r, d)
	})
}

func (e *Engine) medianPlane(p *frame.Frame, r int, d conv.Direction) (*frame.Frame, error) {
	if r == 1 {
		switch d {
		case conv.Vertical:
			return e.VerticalCleaner(p, []int{1}, nil)
		case conv.Horizontal:
			return e.HorizontalCleaner(p, []int{1}, nil)
		}
		return e.RemoveGrain(p, []rg.Mode{4}, nil)
	}
	rx, ry := r, r
	switch d {
	case conv.Horizontal:
		ry = 0
	case conv.Vertical:
		rx = 0
	}
	out := p.NewLike()
	frame.ApplyRows(0, p.Height, e.Workers, func(y0, y1 int) {
		median.FilterRowsWindow(out.Planes[0], p.Planes[0], p.Width, p.Height, rx, ry, y0, y1)
	})
	return out, nil
}

// Sharpen-by-reverse with per-plane radii in 0..12, radius 0 passing the plane through.
// Limits the detail d = x - blur(x) removed by a gaussian blur in the given direction to
// the part which survives blurring d again, never reversing its sign
func (e *Engine) Sbr(f *frame.Frame, radii []int, d conv.Direction, planes []int) (*frame.Frame, error) {
	return e.perPlane(f, radii, planes, 0, func(p *frame.Frame, r int) (*frame.Frame, error) {
		if r == 0 {
			return p, nil
		}
		return e.sbrPlane(p, r, d)
	})
}

func (e *Engine) sbrPlane(p *frame.Frame, r int, d conv.Direction) (*frame.Frame, error) {
	blurred, err := e.blurPlane(p, r, true, d)
	if err != nil {
		return nil, err
	}
	diff := p.NewLike()
	diff.Format = rg.FormatFloat
	for j, v := range p.Planes[0] {
		diff.Planes[0][j] = v - blurred.Planes[0][j]
	}
	diff2, err := e.blurPlane(diff, r, true, d)
	if err != nil {
		return nil, err
	}
	out := p.Clone()
	dst, dd, db := out.Planes[0], diff.Planes[0], diff2.Planes[0]
	frame.ApplyRows(0, p.Height, e.Workers, func(y0, y1 int) {
		for j := y0 * p.Width; j < y1*p.Width; j++ {
			rest := dd[j] - db[j]
			dst[j] -= max(min(dd[j], rest), min(max(dd[j], rest), 0))
		}
		if p.Format.Integer {
			quantizeRows(dst, p.Width, y0, y1, p.Format)
		}
	})
	return out, nil
}

// Per-sample median of the frame, its gaussian blur and its median, with per-plane radii
// in 0..12 and windows in the given direction. Radius 0 takes a radius 1 sharpen-by-reverse
// of the frame instead of the blur, and a radius 1 median
func (e *Engine) MinBlur(f *frame.Frame, radii []int, d conv.Direction, planes []int) (*frame.Frame, error) {
	return e.perPlane(f, radii, planes, 0, func(p *frame.Frame, r int) (*frame.Frame, error) {
		var blurred *frame.Frame
		var err error
		if r == 0 {
			blurred, err = e.sbrPlane(p, 1, d)
		} else {
			blurred, err = e.blurPlane(p, r, true, d)
		}
		if err != nil {
			return nil, err
		}
		medianed, err := e.medianPlane(p, max(r, 1), d)
		if err != nil {
			return nil, err
		}
		out := p.NewLike()
		native.ClenseRange(out.Planes[0], p.Planes[0], blurred.Planes[0], medianed.Planes[0])
		return out, nil
	})
}
