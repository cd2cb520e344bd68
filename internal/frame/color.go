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

package frame

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Converts to a floating point format. Chroma planes are shifted to be zero-centered
func (f *Frame) ToFloat(workers int) *Frame {
	if !f.Format.Integer {
		return f.Clone()
	}
	g := f.NewLike()
	g.Format = rg.FormatFloat
	scale := float32(1 / f.Format.Peak())
	for i, p := range f.Planes {
		offset := float32(0)
		if f.Family.Chroma(i) {
			offset = -0.5
		}
		dst := g.Planes[i]
		ApplyRows(0, len(p), workers, func(lower, upper int) {
			for j := lower; j < upper; j++ {
				dst[j] = p[j]*scale + offset
			}
		})
	}
	return g
}

// Converts to an integer format with the given bits, rounding and clamping each sample
func (f *Frame) ToInteger(bits int, workers int) (*Frame, error) {
	format := rg.Format{Integer: true, Bits: bits}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	src := f
	if f.Format.Integer {
		src = f.ToFloat(workers)
	}
	g := f.NewLike()
	g.Format = format
	peak := format.Peak()
	for i, p := range src.Planes {
		offset := 0.0
		if f.Family.Chroma(i) {
			offset = 0.5
		}
		dst := g.Planes[i]
		ApplyRows(0, len(p), workers, func(lower, upper int) {
			for j := lower; j < upper; j++ {
				dst[j] = float32(rg.Quantize((float64(p[j])+offset)*peak, format))
			}
		})
	}
	return g, nil
}

// Converts to a sample format, see ToFloat and ToInteger
func (f *Frame) ToFormat(format rg.Format, workers int) (*Frame, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format == f.Format {
		return f.Clone(), nil
	}
	if format.Integer {
		return f.ToInteger(format.Bits, workers)
	}
	g := f.ToFloat(workers)
	g.Format = format
	return g, nil
}

// Converts to another color family. The sample format is kept
func (f *Frame) ToFamily(family ColorFamily, workers int) (*Frame, error) {
	if family == f.Family {
		return f.Clone(), nil
	}
	if family < Gray || family > Lab {
		return nil, fmt.Errorf("cannot convert to %s", family)
	}
	src := f.ToFloat(workers)
	rgb := src
	if src.Family != RGB {
		rgb = src.convert(RGB, workers)
	}
	res := rgb
	if family != RGB {
		res = rgb.convert(family, workers)
	}
	return res.ToFormat(f.Format, workers)
}

// Converts a float frame from or to RGB, one of the two families must be RGB
func (f *Frame) convert(family ColorFamily, workers int) *Frame {
	g := New(f.Width, f.Height, family, f.Format)
	g.ID, g.FileName = f.ID, f.FileName
	var fn func(c0, c1, c2 float32) (float32, float32, float32)
	switch {
	case f.Family == Gray:
		p, dst := f.Planes[0], g.Planes
		ApplyRows(0, len(p), workers, func(lower, upper int) {
			for _, d := range dst {
				copy(d[lower:upper], p[lower:upper])
			}
		})
		return g
	case family == Gray:
		r, gr, b, dst := f.Planes[0], f.Planes[1], f.Planes[2], g.Planes[0]
		ApplyRows(0, len(dst), workers, func(lower, upper int) {
			for j := lower; j < upper; j++ {
				dst[j] = 0.299*r[j] + 0.587*gr[j] + 0.114*b[j]
			}
		})
		return g
	case family == YUV:
		fn = rgbToYUV
	case f.Family == YUV:
		fn = yuvToRGB
	case family == Lab:
		fn = rgbToLab
	case f.Family == Lab:
		fn = labToRGB
	}
	c0, c1, c2 := f.Planes[0], f.Planes[1], f.Planes[2]
	d0, d1, d2 := g.Planes[0], g.Planes[1], g.Planes[2]
	ApplyRows(0, len(c0), workers, func(lower, upper int) {
		for j := lower; j < upper; j++ {
			d0[j], d1[j], d2[j] = fn(c0[j], c1[j], c2[j])
		}
	})
	return g
}

// BT.601 with chroma scaled to [-0.5,0.5]
func rgbToYUV(r, g, b float32) (y, u, v float32) {
	y = 0.299*r + 0.587*g + 0.114*b
	u = (b - y) * (0.5 / 0.886)
	v = (r - y) * (0.5 / 0.701)
	return y, u, v
}

func yuvToRGB(y, u, v float32) (r, g, b float32) {
	r = y + v*(0.701/0.5)
	b = y + u*(0.886/0.5)
	g = (y - 0.299*r - 0.114*b) / 0.587
	return r, g, b
}

func rgbToLab(r, g, b float32) (l, a, bb float32) {
	ll, aa, bbb := colorful.Color{R: float64(r), G: float64(g), B: float64(b)}.Lab()
	return float32(ll), float32(aa / 2), float32(bbb / 2)
}

func labToRGB(l, a, b float32) (r, g, bb float32) {
	c := colorful.Lab(float64(l), float64(a)*2, float64(b)*2).Clamped()
	return float32(c.R), float32(c.G), float32(c.B)
}
