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

package median

import (
	"sort"
	"testing"

	"github.com/valyala/fastrand"
)

func bruteMedian(a []float32) float32 {
	s := append([]float32(nil), a...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s[len(s)/2]
}

func TestMedian9(t *testing.T) {
	rng := fastrand.RNG{}
	for i := 0; i < 1000; i++ {
		a := make([]float32, 9)
		for j := range a {
			a[j] = float32(rng.Uint32n(20))
		}
		want := bruteMedian(a)
		if got := Median9(a); got != want {
			t.Errorf("Median9(%v)=%v; want %v", a, got, want)
		}
	}
}

func TestFilterVariantsAgree(t *testing.T) {
	rng := fastrand.RNG{}
	width, height := 37, 23
	src := make([]float32, width*height)
	for i := range src {
		src[i] = float32(rng.Uint32n(256))
	}
	gathered := make([]float32, len(src))
	columns := make([]float32, len(src))
	FilterRows(gathered, src, width, 1, height-1)
	FilterRowsSortedColumns(columns, src, width, 1, height-1)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			window := []float32{}
			for dy := -1; dy <= 1; dy++ {
				window = append(window, src[(y+dy)*width+x-1:(y+dy)*width+x+2]...)
			}
			want := bruteMedian(window)
			i := y*width + x
			if gathered[i] != want || columns[i] != want {
				t.Errorf("median at %d,%d: gathered %v, columns %v; want %v", x, y, gathered[i], columns[i], want)
			}
		}
	}
	if gathered[0] != 0 || columns[width-1] != 0 {
		t.Errorf("border pixels written")
	}
}

func TestFilterRowsWindow(t *testing.T) {
	rng := fastrand.RNG{}
	width, height := 11, 7
	src := make([]float32, width*height)
	for i := range src {
		src[i] = float32(rng.Uint32n(64))
	}
	mirror := func(i, n int) int {
		if i < 0 {
			return -i
		}
		if i >= n {
			return 2*(n-1) - i
		}
		return i
	}
	for _, r := range [][2]int{{1, 1}, {2, 2}, {2, 0}, {0, 3}} {
		dst := make([]float32, len(src))
		FilterRowsWindow(dst, src, width, height, r[0], r[1], 0, height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				window := []float32{}
				for dy := -r[1]; dy <= r[1]; dy++ {
					for dx := -r[0]; dx <= r[0]; dx++ {
						window = append(window, src[mirror(y+dy, height)*width+mirror(x+dx, width)])
					}
				}
				if want := bruteMedian(window); dst[y*width+x] != want {
					t.Errorf("window %v median at %d,%d=%v; want %v", r, x, y, dst[y*width+x], want)
				}
			}
		}
	}
}
