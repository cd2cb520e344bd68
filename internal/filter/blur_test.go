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
	"math"
	"testing"

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/rg"
	"github.com/valyala/fastrand"
)

// Returns a float gray frame of zeros with a single one in the center
func impulse(size int) *frame.Frame {
	f := frame.New(size, size, frame.Gray, rg.FormatFloat)
	f.Planes[0][size/2*size+size/2] = 1
	return f
}

func TestBlurDirections(t *testing.T) {
	e := newEngine(false)
	f := impulse(7)
	at := func(g *frame.Frame, x, y int) float32 { return g.Planes[0][y*7+x] }
	for _, tc := range []struct {
		gauss        bool
		d            conv.Direction
		center, side float32
	}{
		{true, conv.Horizontal, 0.5, 0.25},
		{true, conv.Vertical, 0.5, 0.25},
		{false, conv.Horizontal, 1.0 / 3, 1.0 / 3},
		{false, conv.Vertical, 1.0 / 3, 1.0 / 3},
	} {
		got, err := e.Blur(f, []int{1}, tc.gauss, tc.d, nil)
		if err != nil {
			t.Fatal(err)
		}
		along, across := [2]int{4, 3}, [2]int{3, 4}
		if tc.d == conv.Vertical {
			along, across = across, along
		}
		if c := at(got, 3, 3); math.Abs(float64(c-tc.center)) > 1e-6 {
			t.Errorf("gauss %v %s center %v; want %v", tc.gauss, tc.d, c, tc.center)
		}
		if s := at(got, along[0], along[1]); math.Abs(float64(s-tc.side)) > 1e-6 {
			t.Errorf("gauss %v %s neighbor along %v; want %v", tc.gauss, tc.d, s, tc.side)
		}
		if s := at(got, across[0], across[1]); s != 0 {
			t.Errorf("gauss %v %s neighbor across %v; want 0", tc.gauss, tc.d, s)
		}
	}

	// wider gaussian lines spread further and keep the sum away from the borders
	f = impulse(15)
	got, err := e.Blur(f, []int{3}, true, conv.Horizontal, nil)
	if err != nil {
		t.Fatal(err)
	}
	sum := float32(0)
	for _, v := range got.Planes[0] {
		sum += v
	}
	if left := got.Planes[0][7*15+4]; math.Abs(float64(sum-1)) > 1e-5 || left == 0 || got.Planes[0][7*15+3] != 0 {
		t.Errorf("radius 3 horizontal blur sums to %v, reaches %v three samples left", sum, left)
	}
}

func TestMedianDirections(t *testing.T) {
	e := newEngine(false)
	// a horizontal line survives horizontal medians and vanishes under vertical and square ones
	f := frame.New(9, 9, frame.Gray, rg.FormatFloat)
	for x := 0; x < 9; x++ {
		f.Planes[0][4*9+x] = 1
	}
	for _, tc := range []struct {
		r    int
		d    conv.Direction
		want float32
	}{
		{1, conv.Horizontal, 1}, {2, conv.Horizontal, 1},
		{1, conv.Vertical, 0}, {2, conv.Vertical, 0},
		{1, conv.Square, 0}, {2, conv.Square, 0},
	} {
		got, err := e.Median(f, []int{tc.r}, tc.d, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v := got.Planes[0][4*9+4]; v != tc.want {
			t.Errorf("median radius %d %s on the line=%v; want %v", tc.r, tc.d, v, tc.want)
		}
	}
	if _, err := e.Median(f, []int{0}, conv.Square, nil); err == nil {
		t.Errorf("median radius 0 accepted")
	}
}

func TestMinBlurIsMedianOfItsParts(t *testing.T) {
	rng := fastrand.RNG{}
	e := newEngine(false)
	f := frame.NewNoise(10, 8, frame.Gray, rg.Format8, &rng)
	for _, d := range []conv.Direction{conv.Square, conv.Horizontal, conv.Vertical} {
		for _, r := range []int{0, 1, 2} {
			got, err := e.MinBlur(f, []int{r}, d, nil)
			if err != nil {
				t.Fatal(err)
			}
			var blurred *frame.Frame
			if r == 0 {
				blurred, err = e.Sbr(f, []int{1}, d, nil)
			} else {
				blurred, err = e.Blur(f, []int{r}, true, d, nil)
			}
			if err != nil {
				t.Fatal(err)
			}
			medianed, err := e.Median(f, []int{max(r, 1)}, d, nil)
			if err != nil {
				t.Fatal(err)
			}
			for i, v := range got.Planes[0] {
				a, b, c := f.Planes[0][i], blurred.Planes[0][i], medianed.Planes[0][i]
				if want := max(min(a, b), min(max(a, b), c)); v != want {
					t.Errorf("minblur radius %d %s sample %d=%v; want median of %v,%v,%v", r, d, i, v, a, b, c)
					break
				}
			}
		}
	}
}

func TestPerPlaneRadii(t *testing.T) {
	rng := fastrand.RNG{}
	e := newEngine(false)
	f := frame.NewNoise(9, 9, frame.YUV, rg.Format8, &rng)
	got, err := e.Sbr(f, []int{1, 0}, conv.Square, nil)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := e.Sbr(planeOf(f, 0), []int{1}, conv.Square, nil)
	for i := range got.Planes[0] {
		if got.Planes[0][i] != want.Planes[0][i] {
			t.Fatalf("luma sample %d=%v; want %v", i, got.Planes[0][i], want.Planes[0][i])
		}
	}
	for p := 1; p < 3; p++ {
		for i, v := range got.Planes[p] {
			if v != f.Planes[p][i] {
				t.Fatalf("radius 0 changed plane %d sample %d", p, i)
			}
		}
	}

	got, err = e.MinBlur(f, []int{2, 0}, conv.Vertical, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	want, _ = e.MinBlur(planeOf(f, 1), []int{0}, conv.Vertical, nil)
	for i := range got.Planes[1] {
		if got.Planes[1][i] != want.Planes[0][i] || got.Planes[0][i] != f.Planes[0][i] {
			t.Fatalf("sample %d of selected plane 1 differs, or unselected plane 0 changed", i)
		}
	}
}
