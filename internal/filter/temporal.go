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
	"errors"
	"fmt"

	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/native"
)

// Replaces each selected plane sample by the median of itself and the same sample in the
// previous and next frame of the sequence. The first and last frame serve as their own
// previous and next frame. Returns new frames
func (e *Engine) Clense(frames []*frame.Frame, planes []int) ([]*frame.Frame, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	for _, f := range frames[1:] {
		if err := frames[0].CheckCompatible(f); err != nil {
			return nil, err
		}
	}
	mask, err := dispatch.ParsePlanes(planes, frames[0].NumPlanes())
	if err != nil {
		return nil, err
	}
	res := make([]*frame.Frame, len(frames))
	width := frames[0].Width
	for i, f := range frames {
		prev, next := frames[max(i-1, 0)], frames[min(i+1, len(frames)-1)]
		out := f.Clone()
		for p := range out.Planes {
			if !mask[p] {
				continue
			}
			dst, a, b, c := out.Planes[p], prev.Planes[p], f.Planes[p], next.Planes[p]
			frame.ApplyRows(0, f.Height, e.Workers, func(y0, y1 int) {
				lo, hi := y0*width, y1*width
				native.ClenseRange(dst[lo:hi], a[lo:hi], b[lo:hi], c[lo:hi])
			})
		}
		res[i] = out
	}
	return res, nil
}

// Clense against the two previous frames. The temporal extrapolation it needs is
// not available, so this always fails with errors.ErrUnsupported
func (e *Engine) ForwardClense(frames []*frame.Frame, planes []int) ([]*frame.Frame, error) {
	return nil, fmt.Errorf("forward clense: %w", errors.ErrUnsupported)
}

// Clense against the two next frames. Always fails with errors.ErrUnsupported
func (e *Engine) BackwardClense(frames []*frame.Frame, planes []int) ([]*frame.Frame, error) {
	return nil, fmt.Errorf("backward clense: %w", errors.ErrUnsupported)
}
