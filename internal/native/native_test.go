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

import (
	"math"
	"testing"

	"github.com/mlnoga/rgtools/internal/rg"
	"github.com/valyala/fastrand"
)

var ring = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

func randomPlane(rng *fastrand.RNG, width, height int) []float32 {
	p := make([]float32, width*height)
	for i := range p {
		p[i] = float32(rng.Uint32n(256))
	}
	return p
}

func neighborhood(p []float32, width, x, y int) rg.Neighborhood {
	var a rg.Neighborhood
	for j, d := range ring {
		a[j] = float64(p[(y+d[1])*width+x+d[0]])
	}
	return a
}

func TestMatchesExpressions(t *testing.T) {
	rng := fastrand.RNG{}
	width, height := 11, 9
	subject, reference := randomPlane(&rng, width, height), randomPlane(&rng, width, height)
	plugin := New()
	for _, f := range []rg.Family{rg.RemoveGrain, rg.Repair} {
		for m := rg.Mode(0); m <= rg.MaxMode; m++ {
			if !plugin.Supports(f, m) || !rg.IsModeSupported(m, f == rg.Repair) {
				continue
			}
			dst := make([]float32, len(subject))
			plugin.FilterRows(f, m, dst, subject, reference, width, 1, height-1)
			for y := 1; y < height-1; y++ {
				for x := 1; x < width-1; x++ {
					i := y*width + x
					r := rg.Request{Family: f, Mode: m, Subject: float64(subject[i]), Format: rg.FormatFloat}
					if f == rg.Repair {
						r.Reference, r.ReferenceNeighbors = float64(reference[i]), neighborhood(reference, width, x, y)
					} else {
						r.ReferenceNeighbors = neighborhood(subject, width, x, y)
					}
					want, err := rg.Evaluate(&r)
					if err != nil {
						t.Fatal(err)
					}
					if math.Abs(float64(dst[i])-want) > 1e-4 {
						t.Errorf("%s %d at %d,%d = %v; want %v", f, m, x, y, dst[i], want)
					}
				}
			}
		}
	}
}

func TestSupports(t *testing.T) {
	p := New()
	for _, tc := range []struct {
		f    rg.Family
		m    rg.Mode
		want bool
	}{
		{rg.RemoveGrain, 13, true},
		{rg.RemoveGrain, 16, true},
		{rg.RemoveGrain, 17, false},
		{rg.RemoveGrain, 25, false},
		{rg.Repair, 11, true},
		{rg.Repair, 13, false},
	} {
		if got := p.Supports(tc.f, tc.m); got != tc.want {
			t.Errorf("Supports(%s, %d)=%v; want %v", tc.f, tc.m, got, tc.want)
		}
	}
}

func TestBob(t *testing.T) {
	// rows alternate between two fields
	width, height := 3, 4
	src := []float32{
		10, 20, 30,
		0, 0, 0,
		10, 40, 90,
		0, 0, 0,
	}
	dst := make([]float32, len(src))
	bobRows(14, dst, src, width, 1, height-1)
	// odd row 1 rebuilt: pairs (10,90) d=80, (20,40) d=20, (30,10) d=20, vertical wins
	if dst[width+1] != 30 {
		t.Errorf("mode 14 row 1 = %v; want 30", dst[width+1])
	}
	// even row 2 copied
	if dst[2*width+1] != 40 {
		t.Errorf("mode 14 row 2 = %v; want 40", dst[2*width+1])
	}
	// weighted: (10+40+30+10+80+90)/8 = 32.5 limited to [20,40]
	bobRows(16, dst, src, width, 1, 2)
	if dst[width+1] != 32.5 {
		t.Errorf("mode 16 row 1 = %v; want 32.5", dst[width+1])
	}
	if got := bob(0, 100, 0, 0, 0, 0, false); got != 0 {
		t.Errorf("bob prefers anti-diagonal tie = %v; want 0", got)
	}
}

func TestVerticalCleaner(t *testing.T) {
	width, height := 1, 5
	src := []float32{0, 10, 100, 20, 30}
	dst := make([]float32, len(src))
	VerticalCleanerRows(1, dst, src, width, height, 1, height-1)
	if dst[2] != 20 {
		t.Errorf("mode 1 = %v; want 20", dst[2])
	}
	// trend 0,10 continues to 20, 30,20 continues to 10, range stays [10,20]
	VerticalCleanerRows(2, dst, src, width, height, 2, 3)
	if dst[2] != 20 {
		t.Errorf("mode 2 = %v; want 20", dst[2])
	}
	// a peak is limited to the continued slopes by mode 2, flattened by mode 1
	src = []float32{0, 10, 25, 10, 0}
	VerticalCleanerRows(2, dst, src, width, height, 2, 3)
	if dst[2] != 20 {
		t.Errorf("mode 2 peak = %v; want 20", dst[2])
	}
	VerticalCleanerRows(1, dst, src, width, height, 2, 3)
	if dst[2] != 10 {
		t.Errorf("mode 1 peak = %v; want 10", dst[2])
	}
	for _, m := range []int{-1, 3} {
		if CheckVerticalCleanerMode(m) == nil {
			t.Errorf("mode %d accepted", m)
		}
	}
}

func TestClense(t *testing.T) {
	prev, cur, next := []float32{1, 5, 9}, []float32{9, 1, 5}, []float32{5, 9, 1}
	dst := make([]float32, 3)
	ClenseRange(dst, prev, cur, next)
	for i, v := range dst {
		if v != 5 {
			t.Errorf("dst[%d]=%v; want 5", i, v)
		}
	}
}
