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

	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/native"
)

// Cleans the selected planes vertically with per-plane modes 0..2, see native.VerticalCleanerRows.
// The top and bottom row keep their values
func (e *Engine) VerticalCleaner(f *frame.Frame, modes []int, planes []int) (*frame.Frame, error) {
	ms, err := dispatch.NormaliseInts(modes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	mask, err := dispatch.ParsePlanes(planes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	for i, m := range ms {
		if err := native.CheckVerticalCleanerMode(m); err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
	}
	out := f.Clone()
	if f.Height < 3 {
		return out, nil
	}
	for i, m := range ms {
		if !mask[i] || m == 0 {
			continue
		}
		dst, src := out.Planes[i], f.Planes[i]
		frame.ApplyRows(1, f.Height-1, e.Workers, func(y0, y1 int) {
			native.VerticalCleanerRows(m, dst, src, f.Width, f.Height, y0, y1)
		})
	}
	return out, nil
}

// Cleans horizontally, by cleaning the transposed frame vertically
func (e *Engine) HorizontalCleaner(f *frame.Frame, modes []int, planes []int) (*frame.Frame, error) {
	t, err := e.VerticalCleaner(Transpose(f), modes, planes)
	if err != nil {
		return nil, err
	}
	return Transpose(t), nil
}

// Returns a new frame with rows and columns swapped
func Transpose(f *frame.Frame) *frame.Frame {
	t := f.NewLike()
	t.Width, t.Height = f.Height, f.Width
	for i, p := range f.Planes {
		q := t.Planes[i]
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				q[x*f.Height+y] = p[y*f.Width+x]
			}
		}
	}
	return t
}
