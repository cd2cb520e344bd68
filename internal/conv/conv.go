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

// Package conv applies normalized 3x3 convolution kernels to planar float32 samples.
package conv

import (
	"fmt"

	"github.com/mlnoga/rgtools/internal/rg"
)

// A 3x3 kernel in row order NW, N, NE, W, C, E, SW, S, SE. The weighted sum is divided by Divisor
type Kernel struct {
	Weights [9]float32 `json:"weights"`
	Divisor float32    `json:"divisor"`
}

var (
	Binomial = Kernel{Weights: [9]float32{1, 2, 1, 2, 4, 2, 1, 2, 1}, Divisor: 16}
	Ring     = Kernel{Weights: [9]float32{1, 1, 1, 1, 0, 1, 1, 1, 1}, Divisor: 8}
	Box      = Kernel{Weights: [9]float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, Divisor: 9}
)

// Creates a kernel normalized by the sum of its weights
func NewKernel(weights [9]float32) (Kernel, error) {
	sum := float32(0)
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return Kernel{}, fmt.Errorf("kernel weights %v sum to zero", weights)
	}
	return Kernel{Weights: weights, Divisor: sum}, nil
}

// Returns the kernel equivalent to a remove-grain mode, if the mode is a plain convolution
func ForRemoveGrain(m rg.Mode) (Kernel, bool) {
	switch m {
	case 11, 12:
		return Binomial, true
	case 19:
		return Ring, true
	case 20:
		return Box, true
	}
	return Kernel{}, false
}

// Convolves the interior pixels of rows [y0,y1) of a plane with the given width.
// Rows y0-1 and y1 must exist. Border columns are not written
func (k Kernel) FilterRows(dst, src []float32, width, y0, y1 int) {
	for y := y0; y < y1; y++ {
		out := dst[y*width : (y+1)*width]
		for x := 1; x < width-1; x++ {
			sum, i := float32(0), 0
			for dy := -1; dy <= 1; dy++ {
				row := src[(y+dy)*width : (y+dy+1)*width]
				for dx := -1; dx <= 1; dx++ {
					sum += row[x+dx] * k.Weights[i]
					i++
				}
			}
			out[x] = sum / k.Divisor
		}
	}
}

// Same as FilterRows with the taps unrolled and kept in registers
func (k Kernel) FilterRowsUnrolled(dst, src []float32, width, y0, y1 int) {
	w0, w1, w2, w3, w4, w5, w6, w7, w8 := k.Weights[0], k.Weights[1], k.Weights[2], k.Weights[3], k.Weights[4], k.Weights[5], k.Weights[6], k.Weights[7], k.Weights[8]
	div := k.Divisor
	for y := y0; y < y1; y++ {
		up, mid, down := src[(y-1)*width:y*width], src[y*width:(y+1)*width], src[(y+1)*width:(y+2)*width]
		out := dst[y*width : (y+1)*width]
		for x := 1; x < width-1; x++ {
			sum := up[x-1]*w0 + up[x]*w1 + up[x+1]*w2
			sum += mid[x-1]*w3 + mid[x]*w4 + mid[x+1]*w5
			sum += down[x-1]*w6 + down[x]*w7 + down[x+1]*w8
			out[x] = sum / div
		}
	}
}

// Averages each sample of rows [y0,y1) with its horizontal neighbors up to radius away.
// Windows are cut off at the left and right border
func BoxMeanH(dst, src []float32, width, radius, y0, y1 int) {
	for y := y0; y < y1; y++ {
		in, out := src[y*width:(y+1)*width], dst[y*width:(y+1)*width]
		sum, lo, hi := float64(0), 0, 0 // window [lo,hi)
		for x := range out {
			for ; hi < width && hi <= x+radius; hi++ {
				sum += float64(in[hi])
			}
			for ; lo < x-radius; lo++ {
				sum -= float64(in[lo])
			}
			out[x] = float32(sum / float64(hi-lo))
		}
	}
}

// Averages each sample of rows [y0,y1) with its vertical neighbors up to radius away.
// Windows are cut off at the top and bottom border
func BoxMeanV(dst, src []float32, width, height, radius, y0, y1 int) {
	for y := y0; y < y1; y++ {
		lo, hi := max(0, y-radius), min(height-1, y+radius)
		out := dst[y*width : (y+1)*width]
		for x := range out {
			sum := float64(0)
			for yy := lo; yy <= hi; yy++ {
				sum += float64(src[yy*width+x])
			}
			out[x] = float32(sum / float64(hi-lo+1))
		}
	}
}
