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
)

// Relative weight of a sample one step further out, for a sharpening amount.
// Positive amounts give negative weights
func sharpenWeight(amount float64) float64 {
	p := math.Pow(0.5, -amount)
	return p / ((1 - p) / 2)
}

// Positions of the weight table in the square sharpening kernels of radius 1 and 2
var sharpenIndices = [][]int{
	{3, 2, 3, 1, 0, 1, 3, 2, 3},
	{8, 7, 6, 7, 8, 5, 4, 3, 4, 5, 2, 1, 0, 1, 2, 5, 4, 3, 4, 5, 8, 7, 6, 7, 8},
}

// A sharpening convolution. Square kernels are in Grid, horizontal and vertical ones in Line
type Sharpening struct {
	Direction Direction
	Grid      Grid
	Line      Line
}

// Builds the sharpening convolution for horizontal and vertical amounts, where 1 is a
// strong sharpen and negative amounts blur. With both amounts set the kernel is square
// with radius 1..2. With one amount zero it is a line of radius 1..12 along the other
func NewSharpening(amountH, amountV float64, radius int) (Sharpening, error) {
	if amountH == 0 && amountV == 0 {
		return Sharpening{}, fmt.Errorf("sharpening amounts are both zero")
	}
	d := Square
	if amountV == 0 {
		d = Horizontal
	}
	if amountH == 0 {
		d, amountH = Vertical, amountV
	}
	maxRadius := MaxGaussianRadius
	if d == Square {
		maxRadius = 2
	}
	if radius < 1 || radius > maxRadius {
		return Sharpening{}, fmt.Errorf("sharpening radius %d for direction %s, want 1..%d", radius, d, maxRadius)
	}

	rwh, rwv := sharpenWeight(amountH), sharpenWeight(amountV)
	table := []float64{1}
	for i := 0; i < radius; i++ {
		table = append(table, math.Abs(table[len(table)-1])/rwh)
	}
	if d != Square {
		w := make([]float32, 2*radius+1)
		for i, v := range table {
			w[radius-i], w[radius+i] = float32(v), float32(v)
		}
		l, err := NewLine(w)
		return Sharpening{Direction: d, Line: l}, err
	}
	for x := 0; x < radius; x++ {
		for y := 0; y <= radius; y++ {
			table = append(table, math.Abs(table[(radius+1)*x+y])/rwv)
		}
	}
	idx := sharpenIndices[radius-1]
	w := make([]float32, len(idx))
	for i, k := range idx {
		w[i] = float32(table[k])
	}
	g, err := NewGrid(w)
	return Sharpening{Direction: Square, Grid: g}, err
}

// Positions of the weight table in the unsharp blur kernels of radius 1 and 2
var unsharpIndices = [][]int{
	{2, 1, 2, 1, 0, 1, 2, 1, 2},
	{4, 3, 2, 3, 4, 3, 2, 1, 2, 3, 2, 1, 0, 1, 2, 3, 2, 1, 2, 3, 4, 3, 2, 3, 4},
}

// Builds the blur kernel of an unsharp mask with radius 1..2. Strength is in percent,
// 100 being the strongest, and controls how fast the weights fall off from the center
func NewUnsharpBlur(radius int, strength float64) (Grid, error) {
	if radius < 1 || radius > 2 {
		return Grid{}, fmt.Errorf("unsharp radius %d, want 1..2", radius)
	}
	s := max(1e-6, min(math.Log2(3)*strength/100, math.Log2(3)))
	weight := math.Pow(0.5, s) / ((1 - math.Pow(0.5, s)) * 0.5)
	table := []float64{1}
	for len(table) < 2*radius+1 {
		table = append(table, table[len(table)-1]/weight)
	}
	idx := unsharpIndices[radius-1]
	w := make([]float32, len(idx))
	for i, k := range idx {
		w[i] = float32(table[k])
	}
	return NewGrid(w)
}
