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

package conv

import (
	"fmt"
	"math"

	"github.com/mlnoga/rgtools/internal/frame"
)

// Orientation of a filter window
type Direction int

const (
	Square     Direction = iota // two-dimensional window
	Horizontal                  // along rows only
	Vertical                    // along columns only
)

var directionNames = []string{"s", "h", "v"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Parses s, h or v. Empty defaults to square
func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return Square, nil
	}
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return Square, fmt.Errorf("invalid direction '%s', want s, h or v", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) (err error) {
	*d, err = ParseDirection(string(b))
	return err
}

// A one-dimensional kernel of odd length, normalized by the sum of its weights
type Line struct {
	Weights []float32
	Divisor float32
}

// Creates a line kernel. Rejects even lengths and weights summing to zero
func NewLine(weights []float32) (Line, error) {
	if len(weights)&1 == 0 {
		return Line{}, fmt.Errorf("line kernel of length %d, want odd", len(weights))
	}
	sum := float32(0)
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return Line{}, fmt.Errorf("line kernel %v sums to zero", weights)
	}
	return Line{Weights: weights, Divisor: sum}, nil
}

// Radius of the kernel
func (l Line) Radius() int { return len(l.Weights) / 2 }

// Convolves all samples of rows [y0,y1) along the row. Samples beyond the left and
// right border are mirrored
func (l Line) FilterRowsH(dst, src []float32, width, y0, y1 int) {
	r := l.Radius()
	for y := y0; y < y1; y++ {
		in, out := src[y*width:(y+1)*width], dst[y*width:(y+1)*width]
		for x := range out {
			sum := float32(0)
			for k, w := range l.Weights {
				sum += w * in[frame.Mirror(x+k-r, width)]
			}
			out[x] = sum / l.Divisor
		}
	}
}

// Convolves all samples of rows [y0,y1) along the column. Samples beyond the top and
// bottom border are mirrored
func (l Line) FilterRowsV(dst, src []float32, width, height, y0, y1 int) {
	r := l.Radius()
	for y := y0; y < y1; y++ {
		out := dst[y*width : (y+1)*width]
		for x := range out {
			sum := float32(0)
			for k, w := range l.Weights {
				sum += w * src[frame.Mirror(y+k-r, height)*width+x]
			}
			out[x] = sum / l.Divisor
		}
	}
}

// A square kernel of odd side length in row-major order, normalized by the sum of its weights
type Grid struct {
	Radius  int
	Weights []float32
	Divisor float32
}

// Creates a square kernel. Rejects non-square or even side lengths and weights summing to zero
func NewGrid(weights []float32) (Grid, error) {
	side := int(math.Sqrt(float64(len(weights))) + 0.5)
	if side*side != len(weights) || side&1 == 0 {
		return Grid{}, fmt.Errorf("grid kernel of %d weights, want an odd square", len(weights))
	}
	sum := float32(0)
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return Grid{}, fmt.Errorf("grid kernel %v sums to zero", weights)
	}
	return Grid{Radius: side / 2, Weights: weights, Divisor: sum}, nil
}

// Convolves all samples of rows [y0,y1). Samples beyond the borders are mirrored
func (g Grid) FilterRows(dst, src []float32, width, height, y0, y1 int) {
	r := g.Radius
	for y := y0; y < y1; y++ {
		out := dst[y*width : (y+1)*width]
		for x := range out {
			sum, i := float32(0), 0
			for dy := -r; dy <= r; dy++ {
				row := src[frame.Mirror(y+dy, height)*width:]
				for dx := -r; dx <= r; dx++ {
					sum += g.Weights[i] * row[frame.Mirror(x+dx, width)]
					i++
				}
			}
			out[x] = sum / g.Divisor
		}
	}
}

// Left halves including the center of the gaussian line kernels for radius 1 to 12,
// as repeated 3x3 binomial and box passes would produce them. Relative weights
var gaussianHalves = [][]float32{
	{1, 2},
	{1, 3, 4},
	{1, 4, 8, 10},
	{1, 5, 13, 22, 26},
	{1, 6, 19, 40, 61, 70},
	{1, 7, 26, 65, 120, 171, 192},
	{1, 8, 34, 98, 211, 356, 483, 534},
	{1, 9, 43, 140, 343, 665, 1050, 1373, 1500},
	{1, 10, 53, 192, 526, 1148, 2058, 3088, 3923, 4246},
	{1, 11, 64, 255, 771, 1866, 3732, 6294, 9069, 11257, 12092},
	{1, 12, 76, 330, 1090, 2892, 6369, 11892, 19095, 26620, 32418, 34606},
	{1, 13, 89, 418, 1496, 4312, 10351, 21153, 37356, 57607, 78133, 93644, 99442},
}

// Largest radius of the gaussian line kernels
const MaxGaussianRadius = 12

// Returns the gaussian line kernel of the given radius
func Gaussian(radius int) (Line, error) {
	if radius < 1 || radius > MaxGaussianRadius {
		return Line{}, fmt.Errorf("gaussian radius %d, want 1..%d", radius, MaxGaussianRadius)
	}
	return NewLine(symmetric(gaussianHalves[radius-1]))
}

// Mirrors a left half including the center into a full symmetric kernel
func symmetric(half []float32) []float32 {
	n := len(half)
	w := make([]float32, 2*n-1)
	for i, v := range half {
		w[i], w[2*n-2-i] = v, v
	}
	return w
}
