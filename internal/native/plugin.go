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

// Package native implements filters directly on planes, without the expression evaluator.
// It covers the field-aware bob modes of remove-grain, which need to know the row parity,
// fast paths for the rank and convolution modes, the vertical cleaner and temporal clense.
package native

import (
	"fmt"

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/median"
	"github.com/mlnoga/rgtools/internal/rg"
)

// The in-process native backend. Stateless, safe for concurrent use
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "native" }

// Returns true if the plugin implements the mode of the given family
func (p *Plugin) Supports(f rg.Family, m rg.Mode) bool {
	switch f {
	case rg.RemoveGrain:
		switch m {
		case 0, 1, 2, 3, 4, 11, 12, 13, 14, 15, 16, 19, 20:
			return true
		}
	case rg.Repair:
		switch m {
		case 0, 1, 2, 3, 4, 11:
			return true
		}
	}
	return false
}

// Filters the interior pixels of rows [y0,y1) of a plane into dst. Rows y0-1 and y1 must exist.
// Reference is ignored for remove-grain. Panics on modes the plugin does not support
func (p *Plugin) FilterRows(f rg.Family, m rg.Mode, dst, subject, reference []float32, width, y0, y1 int) {
	if m == 0 {
		for y := y0; y < y1; y++ {
			copy(dst[y*width+1:(y+1)*width-1], subject[y*width+1:(y+1)*width-1])
		}
		return
	}
	if f == rg.RemoveGrain {
		if k, ok := conv.ForRemoveGrain(m); ok {
			k.FilterRowsUnrolled(dst, subject, width, y0, y1)
			return
		}
		switch m {
		case 4:
			median.FilterRowsSortedColumns(dst, subject, width, y0, y1)
		case 1, 2, 3:
			rankRows(dst, subject, subject, width, y0, y1, int(m), 9-int(m), false)
		case 13, 14, 15, 16:
			bobRows(m, dst, subject, width, y0, y1)
		default:
			panic(unsupported(f, m))
		}
		return
	}
	switch m {
	case 1, 11:
		rankRows(dst, subject, reference, width, y0, y1, 1, 9, true)
	case 2, 3, 4:
		rankRows(dst, subject, reference, width, y0, y1, int(m), 10-int(m), true)
	default:
		panic(unsupported(f, m))
	}
}

func unsupported(f rg.Family, m rg.Mode) error {
	return fmt.Errorf("native backend does not implement %s mode %d", f, m)
}
