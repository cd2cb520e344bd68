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

// Clamps each subject sample to the lo-th and hi-th smallest (1-based) of the reference window.
// With center the reference center takes part, else only its eight neighbors
func rankRows(dst, subject, reference []float32, width, y0, y1, lo, hi int, withCenter bool) {
	var window [9]float32
	n := 8
	if withCenter {
		n = 9
	}
	for y := y0; y < y1; y++ {
		up, mid, down := reference[(y-1)*width:y*width], reference[y*width:(y+1)*width], reference[(y+1)*width:(y+2)*width]
		subj, out := subject[y*width:(y+1)*width], dst[y*width:(y+1)*width]
		for x := 1; x < width-1; x++ {
			window = [9]float32{up[x-1], up[x], up[x+1], mid[x-1], mid[x+1], down[x-1], down[x], down[x+1], mid[x]}
			w := window[:n]
			insertionSort(w)
			v := subj[x]
			if v > w[hi-1] {
				v = w[hi-1]
			}
			if v < w[lo-1] {
				v = w[lo-1]
			}
			out[x] = v
		}
	}
}

func insertionSort(a []float32) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for ; j >= 0 && a[j] > v; j-- {
			a[j+1] = a[j]
		}
		a[j+1] = v
	}
}
