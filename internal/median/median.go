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

// Package median implements 3x3 and windowed median filtering on planar float32 samples.
package median

import (
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/qsort"
)

// Calculates the median of a float32 slice of length nine. Modifies the elements in place.
// From https://stackoverflow.com/questions/45453537/optimal-9-element-sorting-network-that-reduces-to-an-optimal-median-of-9-network
// Slice must not contain IEEE NaN
func Median9(a []float32) float32 { // 30x min/max
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	if a[3] > a[4] {
		a[3], a[4] = a[4], a[3]
	}
	if a[6] > a[7] {
		a[6], a[7] = a[7], a[6]
	}
	if a[1] > a[2] {
		a[1], a[2] = a[2], a[1]
	}
	if a[4] > a[5] {
		a[4], a[5] = a[5], a[4]
	}
	if a[7] > a[8] {
		a[7], a[8] = a[8], a[7]
	}
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	if a[3] > a[4] {
		a[3], a[4] = a[4], a[3]
	}
	if a[6] > a[7] {
		a[6], a[7] = a[7], a[6]
	}
	if a[0] > a[3] {
		a[3] = a[0]
	}
	if a[3] > a[6] {
		a[6] = a[3]
	}
	if a[1] > a[4] {
		a[1], a[4] = a[4], a[1]
	}
	if a[4] > a[7] {
		a[4] = a[7]
	}
	if a[1] > a[4] {
		a[4] = a[1]
	}
	if a[5] > a[8] {
		a[5] = a[8]
	}
	if a[2] > a[5] {
		a[2] = a[5]
	}
	if a[2] > a[4] {
		a[2], a[4] = a[4], a[2]
	}
	if a[4] > a[6] {
		a[4] = a[6]
	}
	if a[2] > a[4] {
		a[4] = a[2]
	}
	return a[4]
}

// Median of any number of samples. Partially reorders the slice
func Median(a []float32) float32 {
	if len(a) == 9 {
		return Median9(a)
	}
	return qsort.Median(a)
}

// Applies the 3x3 median to the interior pixels of rows [y0,y1) of a plane with the given width,
// gathering each window into the sorting network. Rows y0-1 and y1 must exist. Border columns are not written
func FilterRows(dst, src []float32, width, y0, y1 int) {
	var gathered [9]float32
	for y := y0; y < y1; y++ {
		up, mid, down := src[(y-1)*width:y*width], src[y*width:(y+1)*width], src[(y+1)*width:(y+2)*width]
		out := dst[y*width : (y+1)*width]
		for x := 1; x < width-1; x++ {
			gathered = [9]float32{up[x-1], up[x], up[x+1], mid[x-1], mid[x], mid[x+1], down[x-1], down[x], down[x+1]}
			out[x] = Median9(gathered[:])
		}
	}
}

// Same as FilterRows, but sorts each column of three once and reuses it for the three windows
// it takes part in. The median of nine is the median of the largest column minimum, the median
// of the column medians and the smallest column maximum
func FilterRowsSortedColumns(dst, src []float32, width, y0, y1 int) {
	for y := y0; y < y1; y++ {
		up, mid, down := src[(y-1)*width:y*width], src[y*width:(y+1)*width], src[(y+1)*width:(y+2)*width]
		out := dst[y*width : (y+1)*width]
		lo0, md0, hi0 := sort3(up[0], mid[0], down[0])
		lo1, md1, hi1 := sort3(up[1], mid[1], down[1])
		for x := 1; x < width-1; x++ {
			lo2, md2, hi2 := sort3(up[x+1], mid[x+1], down[x+1])
			out[x] = median3(max(lo0, lo1, lo2), median3(md0, md1, md2), min(hi0, hi1, hi2))
			lo0, md0, hi0 = lo1, md1, hi1
			lo1, md1, hi1 = lo2, md2, hi2
		}
	}
}

// Applies the median of the window reaching rx columns and ry rows around each sample to
// all samples of rows [y0,y1). Samples beyond the borders are mirrored
func FilterRowsWindow(dst, src []float32, width, height, rx, ry, y0, y1 int) {
	window := make([]float32, (2*rx+1)*(2*ry+1))
	for y := y0; y < y1; y++ {
		out := dst[y*width : (y+1)*width]
		for x := range out {
			n := 0
			for dy := -ry; dy <= ry; dy++ {
				row := src[frame.Mirror(y+dy, height)*width:]
				for dx := -rx; dx <= rx; dx++ {
					window[n] = row[frame.Mirror(x+dx, width)]
					n++
				}
			}
			out[x] = Median(window)
		}
	}
}

func sort3(a, b, c float32) (lo, md, hi float32) {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return a, b, c
}

func median3(a, b, c float32) float32 {
	return max(min(a, b), min(max(a, b), c))
}
