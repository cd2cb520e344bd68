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

func flatFrame(width, height int, v float32) *frame.Frame {
	f := frame.New(width, height, frame.Gray, rg.FormatFloat)
	for i := range f.Planes[0] {
		f.Planes[0][i] = v
	}
	return f
}

func TestSharpen(t *testing.T) {
	e := newEngine(false)
	for _, tc := range []struct {
		h, v   float64
		radius int
	}{{1, 1, 1}, {0.5, 0.5, 2}, {1, 0, 3}, {0, 0.7, 1}} {
		got, err := e.Sharpen(flatFrame(8, 8, 0.4), tc.h, tc.v, tc.radius, nil)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range got.Planes[0] {
			if math.Abs(float64(v-0.4)) > 1e-5 {
				t.Errorf("sharpen %v,%v radius %d of flat frame sample %d=%v", tc.h, tc.v, tc.radius, i, v)
				break
			}
		}
	}

	// a horizontal sharpen doubles an impulse and leaves its column alone
	got, err := e.Sharpen(impulse(7), 1, 0, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c, above := got.Planes[0][3*7+3], got.Planes[0][2*7+3]; c != 2 || above != 0 {
		t.Errorf("horizontal sharpen of impulse center %v, above %v; want 2, 0", c, above)
	}

	// a negative amount blurs like remove-grain mode 11
	rng := fastrand.RNG{}
	f := frame.NewNoise(9, 7, frame.Gray, rg.FormatFloat, &rng)
	got, err = e.Sharpen(f, -1, -1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := e.RemoveGrain(f, []rg.Mode{11}, nil)
	for y := 1; y < f.Height-1; y++ {
		for x := 1; x < f.Width-1; x++ {
			i := y*f.Width + x
			if math.Abs(float64(got.Planes[0][i]-want.Planes[0][i])) > 1e-5 {
				t.Errorf("blur by negative amount at %d,%d=%v; want %v", x, y, got.Planes[0][i], want.Planes[0][i])
			}
		}
	}

	if _, err := e.Sharpen(f, 0, 0, 1, nil); err == nil {
		t.Errorf("zero amounts accepted")
	}
}

func TestUnsharpMasked(t *testing.T) {
	rng := fastrand.RNG{}
	e := newEngine(false)
	f := frame.NewNoise(9, 7, frame.Gray, rg.FormatFloat, &rng)
	got, err := e.UnsharpMasked(f, 1, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	box, _ := e.RemoveGrain(f, []rg.Mode{20}, nil)
	for y := 1; y < f.Height-1; y++ {
		for x := 1; x < f.Width-1; x++ {
			i := y*f.Width + x
			want := 2*f.Planes[0][i] - box.Planes[0][i]
			if math.Abs(float64(got.Planes[0][i]-want)) > 1e-5 {
				t.Errorf("unsharp mask at %d,%d=%v; want %v", x, y, got.Planes[0][i], want)
			}
		}
	}

	g := frame.NewNoise(9, 7, frame.Gray, rg.Format8, &rng)
	got, err = e.UnsharpMasked(g, 2, 30, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got.Planes[0] {
		if v < 0 || v > 255 || v != float32(math.Floor(float64(v))) {
			t.Fatalf("int8 unsharp mask sample %d=%v not quantized", i, v)
		}
	}
	if _, err := e.UnsharpMasked(f, 3, 100, nil); err == nil {
		t.Errorf("unsharp radius 3 accepted")
	}
}

func TestContraSharpeningRadius(t *testing.T) {
	for _, tc := range []struct{ w, h, want int }{{720, 576, 1}, {1280, 720, 2}, {1024, 600, 2}, {1025, 10, 2}} {
		if got := ContraSharpeningRadius(&frame.Frame{Width: tc.w, Height: tc.h}); got != tc.want {
			t.Errorf("radius for %dx%d=%d; want %d", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestContraSharpeningUnfilteredIsUnchanged(t *testing.T) {
	rng := fastrand.RNG{}
	e := newEngine(false)
	f := frame.NewNoise(12, 10, frame.YUV, rg.Format8, &rng)
	got, err := e.ContraSharpening(f, f, 0, 13, nil)
	if err != nil {
		t.Fatal(err)
	}
	for p := range f.Planes {
		for y := 1; y < f.Height-1; y++ {
			for x := 1; x < f.Width-1; x++ {
				i := y*f.Width + x
				if v := got.Planes[p][i]; v != f.Planes[p][i] {
					t.Fatalf("plane %d at %d,%d=%v; want unchanged %v", p, x, y, v, f.Planes[p][i])
				}
			}
		}
	}
}

func TestContraSharpeningLimitedByRemovedDetail(t *testing.T) {
	rng := fastrand.RNG{}
	e := newEngine(false)
	src := frame.NewNoise(16, 12, frame.Gray, rg.FormatFloat, &rng)
	for _, radius := range []int{1, 2, 3} {
		flt, err := e.Blur(src, []int{2}, true, conv.Square, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := e.ContraSharpening(flt, src, radius, 13, nil)
		if err != nil {
			t.Fatal(err)
		}
		changed := false
		w := src.Width
		for y := 1; y < src.Height-1; y++ {
			for x := 1; x < w-1; x++ {
				i := y*w + x
				removed := float32(0)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						j := i + dy*w + dx
						removed = max(removed, abs(src.Planes[0][j]-flt.Planes[0][j]))
					}
				}
				added := abs(got.Planes[0][i] - flt.Planes[0][i])
				if added > removed+1e-6 {
					t.Errorf("radius %d at %d,%d adds %v, more than the %v removed around it", radius, x, y, added, removed)
				}
				changed = changed || added > 0
			}
		}
		if !changed {
			t.Errorf("radius %d left the filtered frame unchanged", radius)
		}
	}
}

func TestContraSharpeningErrors(t *testing.T) {
	e := newEngine(false)
	a, b := flatFrame(8, 8, 0.5), flatFrame(8, 9, 0.5)
	if _, err := e.ContraSharpening(a, b, 1, 13, nil); err == nil {
		t.Errorf("incompatible frames accepted")
	}
	if _, err := e.ContraSharpening(a, a, 4, 13, nil); err == nil {
		t.Errorf("radius 4 accepted")
	}
	if _, err := e.ContraSharpening(a, a, 1, 25, nil); err == nil {
		t.Errorf("repair mode 25 accepted")
	}
}
