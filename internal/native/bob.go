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

package native

import "github.com/mlnoga/rgtools/internal/rg"

// Rebuilds the rows of one field from the rows of the other field above and below.
// Modes 13 and 15 rebuild the top field (even rows), 14 and 16 the bottom field (odd rows).
// Rows of the other field are copied
func bobRows(m rg.Mode, dst, src []float32, width, y0, y1 int) {
	parity := 0
	if m == 14 || m == 16 {
		parity = 1
	}
	weighted := m >= 15
	for y := y0; y < y1; y++ {
		out := dst[y*width : (y+1)*width]
		if y&1 != parity {
			copy(out[1:width-1], src[y*width+1:(y+1)*width-1])
			continue
		}
		up, down := src[(y-1)*width:y*width], src[(y+1)*width:(y+2)*width]
		for x := 1; x < width-1; x++ {
			out[x] = bob(up[x-1], up[x], up[x+1], down[x-1], down[x], down[x+1], weighted)
		}
	}
}

// Interpolates between the row above (a1 a2 a3) and below (a6 a7 a8) along the direction
// with the smallest difference, preferring vertical, then anti-diagonal, then diagonal.
// Weighted interpolation takes a 1-2-1 average of both rows, limited to the chosen pair
func bob(a1, a2, a3, a6, a7, a8 float32, weighted bool) float32 {
	d1, d2, d3 := abs(a1-a8), abs(a2-a7), abs(a3-a6)
	p, q := a1, a8
	switch {
	case d2 <= d1 && d2 <= d3:
		p, q = a2, a7
	case d3 <= d1:
		p, q = a3, a6
	}
	if !weighted {
		return (p + q) / 2
	}
	avg := (a1 + 2*a2 + a3 + a6 + 2*a7 + a8) / 8
	return max(min(p, q), min(max(p, q), avg))
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
