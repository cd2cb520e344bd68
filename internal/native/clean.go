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

import "fmt"

func CheckVerticalCleanerMode(mode int) error {
	if mode < 0 || mode > 2 {
		return fmt.Errorf("vertical cleaner mode %d, want 0..2", mode)
	}
	return nil
}

// Cleans rows [y0,y1) of a plane with the given width and height vertically, all columns included.
// Mode 1 takes the median of each sample and its upper and lower neighbor. Mode 2 widens that
// range by the trend continued from two rows away, falling back to mode 1 next to the border.
// Mode 0 copies. Rows y0-1 and y1 must exist
func VerticalCleanerRows(mode int, dst, src []float32, width, height, y0, y1 int) {
	for y := y0; y < y1; y++ {
		out, cur := dst[y*width:(y+1)*width], src[y*width:(y+1)*width]
		if mode == 0 {
			copy(out, cur)
			continue
		}
		p1, n1 := src[(y-1)*width:y*width], src[(y+1)*width:(y+2)*width]
		relaxed := mode == 2 && y >= 2 && y+2 < height
		for x := range out {
			lo, hi := min(p1[x], n1[x]), max(p1[x], n1[x])
			if relaxed {
				p2, n2 := src[(y-2)*width+x], src[(y+2)*width+x]
				up, dn := 2*p1[x]-p2, 2*n1[x]-n2
				hi = max(hi, min(up, dn))
				lo = min(lo, max(up, dn))
			}
			out[x] = max(lo, min(hi, cur[x]))
		}
	}
}

// Stores the per-sample median of the previous, current and next frame's plane
func ClenseRange(dst, prev, cur, next []float32) {
	for i := range dst {
		a, b, c := prev[i], cur[i], next[i]
		dst[i] = max(min(a, b), min(max(a, b), c))
	}
}
