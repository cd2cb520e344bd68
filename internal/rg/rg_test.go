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

package rg

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/valyala/fastrand"
)

func removeGrain(m Mode, c float64, a Neighborhood) float64 {
	v, err := Evaluate(&Request{Family: RemoveGrain, Mode: m, Subject: c, ReferenceNeighbors: a, Format: FormatFloat})
	if err != nil {
		panic(err)
	}
	return v
}

func repair(m Mode, x, c float64, a Neighborhood) float64 {
	v, err := Evaluate(&Request{Family: Repair, Mode: m, Subject: x, Reference: c, ReferenceNeighbors: a, Format: FormatFloat})
	if err != nil {
		panic(err)
	}
	return v
}

func randomNeighborhood(limit uint32) Neighborhood {
	var a Neighborhood
	for i := range a {
		a[i] = float64(fastrand.Uint32n(limit))
	}
	return a
}

func rotate180(a Neighborhood) Neighborhood {
	var r Neighborhood
	for i := range a {
		r[i] = a[7-i]
	}
	return r
}

func minMax(a Neighborhood, extra ...float64) (lo, hi float64) {
	lo, hi = a[0], a[0]
	for _, v := range append(a[:], extra...) {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

func TestScenarios(t *testing.T) {
	if got := removeGrain(1, 50, Flat(10)); got != 10 {
		t.Errorf("removegrain 1 of 50 in flat 10 = %v; want 10", got)
	}
	if got := removeGrain(20, 100, Flat(100)); got != 100 {
		t.Errorf("removegrain 20 of flat 100 = %v; want 100", got)
	}
	if got := repair(1, 200, 50, Flat(50)); got != 50 {
		t.Errorf("repair 1 of 200 against flat 50 = %v; want 50", got)
	}
	if got := repair(0, 123, 7, Neighborhood{1, 2, 3, 4, 5, 6, 7, 8}); got != 123 {
		t.Errorf("repair 0 = %v; want 123", got)
	}
	// W and E are both at distance 1, E ranks first
	if got := removeGrain(10, 5, Neighborhood{1, 2, 3, 4, 6, 7, 8, 100}); got != 6 {
		t.Errorf("removegrain 10 = %v; want 6", got)
	}
}

func TestModeZeroPassthrough(t *testing.T) {
	for i := 0; i < 100; i++ {
		x := float64(fastrand.Uint32n(1000))
		a := randomNeighborhood(1000)
		if got := removeGrain(0, x, a); got != x {
			t.Errorf("removegrain 0 of %v in %v = %v", x, a, got)
		}
		if got := repair(0, x, a[0], a); got != x {
			t.Errorf("repair 0 of %v in %v = %v", x, a, got)
		}
	}
}

func TestUnsupportedModes(t *testing.T) {
	for _, asRepair := range []bool{false, true} {
		for _, m := range []Mode{-1, 25, 29} {
			if IsModeSupported(m, asRepair) {
				t.Errorf("IsModeSupported(%d, %v) = true; want false", m, asRepair)
			}
		}
	}
	for _, f := range []Family{Repair, RemoveGrain} {
		_, err := Evaluate(&Request{Family: f, Mode: 25, Format: FormatFloat})
		if !errors.Is(err, ErrUnsupportedMode) {
			t.Errorf("%s mode 25 error %v; want ErrUnsupportedMode", f, err)
		}
	}
	for m := Mode(13); m <= 16; m++ {
		if IsModeSupported(m, false) {
			t.Errorf("removegrain %d reported as supported", m)
		}
		if !IsModeSupported(m, true) {
			t.Errorf("repair %d reported as unsupported", m)
		}
		_, err := Evaluate(&Request{Family: RemoveGrain, Mode: m, Format: FormatFloat})
		if !errors.Is(err, ErrNeedsNativeBackend) {
			t.Errorf("removegrain %d error %v; want ErrNeedsNativeBackend", m, err)
		}
	}
}

func TestIdempotentOnFlatNeighborhoods(t *testing.T) {
	for _, tc := range []struct {
		x      float64
		format Format
	}{{0.375, FormatFloat}, {100, Format8}, {0, Format16}} {
		for _, f := range []Family{Repair, RemoveGrain} {
			for m := Mode(0); m <= MaxMode; m++ {
				if CheckMode(f, m) != nil {
					continue
				}
				r := Request{Family: f, Mode: m, Subject: tc.x, Reference: tc.x, ReferenceNeighbors: Flat(tc.x), Format: tc.format}
				got, err := Evaluate(&r)
				if err != nil {
					t.Fatalf("%s %d: %v", f, m, err)
				}
				if got != tc.x {
					t.Errorf("%s %d %s of flat %v = %v", f, m, tc.format, tc.x, got)
				}
			}
		}
	}
}

var (
	ringBoundedRemoveGrain   = []Mode{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 17, 18, 19, 21, 22, 26, 27, 28}
	centerBoundedRemoveGrain = []Mode{11, 12, 20}
	boundedRepair            = []Mode{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 26, 27, 28}
)

func TestRangeBounded(t *testing.T) {
	for i := 0; i < 500; i++ {
		a := randomNeighborhood(256)
		x := float64(fastrand.Uint32n(256))
		c := float64(fastrand.Uint32n(256))
		lo, hi := minMax(a)
		for _, m := range ringBoundedRemoveGrain {
			if got := removeGrain(m, x, a); got < lo || got > hi {
				t.Errorf("removegrain %d of %v in %v = %v, outside [%v,%v]", m, x, a, got, lo, hi)
			}
		}
		lo, hi = minMax(a, x)
		for _, m := range centerBoundedRemoveGrain {
			if got := removeGrain(m, x, a); got < lo || got > hi {
				t.Errorf("removegrain %d of %v in %v = %v, outside [%v,%v]", m, x, a, got, lo, hi)
			}
		}
		lo, hi = minMax(a, c)
		for _, m := range boundedRepair {
			if got := repair(m, x, c, a); got < lo || got > hi {
				t.Errorf("repair %d of %v against %v in %v = %v, outside [%v,%v]", m, x, c, a, got, lo, hi)
			}
		}
	}
}

func TestSymmetricUnderRotation(t *testing.T) {
	for i := 0; i < 300; i++ {
		// small integer range forces ties between axes
		a := randomNeighborhood(8)
		r := rotate180(a)
		x := float64(fastrand.Uint32n(8))
		c := float64(fastrand.Uint32n(8))
		for m := Mode(1); m <= MaxMode; m++ {
			if m == 10 {
				continue
			}
			if CheckMode(RemoveGrain, m) == nil && removeGrain(m, x, a) != removeGrain(m, x, r) {
				t.Errorf("removegrain %d of %v differs for %v and %v", m, x, a, r)
			}
			if CheckMode(Repair, m) == nil && repair(m, x, c, a) != repair(m, x, c, r) {
				t.Errorf("repair %d of %v,%v differs for %v and %v", m, x, c, a, r)
			}
		}
	}
}

func TestConvolutionModes(t *testing.T) {
	for i := 0; i < 200; i++ {
		a := randomNeighborhood(1 << 16)
		c := float64(fastrand.Uint32n(1 << 16))
		sum := 0.0
		for _, v := range a {
			sum += v
		}
		weighted := (4*c + 2*(a[1]+a[3]+a[4]+a[6]) + a[0] + a[2] + a[5] + a[7]) / 16
		for _, tc := range []struct {
			m    Mode
			want float64
		}{{11, weighted}, {12, weighted}, {19, sum / 8}, {20, (sum + c) / 9}} {
			if got := removeGrain(tc.m, c, a); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("removegrain %d of %v in %v = %v; want %v", tc.m, c, a, got, tc.want)
			}
		}
	}
}

func TestConstantDivisors(t *testing.T) {
	for _, f := range []Family{Repair, RemoveGrain} {
		for _, format := range []Format{FormatFloat, Format8} {
			for m := Mode(0); m <= MaxMode; m++ {
				p, err := Program(f, m, format)
				if err != nil {
					continue
				}
				if !p.ConstantDivisors() {
					t.Errorf("%s %d %s divides by a variable: %s", f, m, format, p)
				}
			}
		}
	}
}

// Direct implementations of a few modes, to cross-check the programs
func refOrderClamp(x float64, vals []float64, lo, hi int) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	return math.Max(s[lo-1], math.Min(s[hi-1], x))
}

func refClosestDistance(from float64, a Neighborhood, second bool) float64 {
	d := make([]float64, 8)
	for i, v := range a {
		d[i] = math.Abs(from - v)
	}
	sort.Float64s(d)
	if second {
		return d[1]
	}
	return d[0]
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func TestAgainstDirectImplementation(t *testing.T) {
	for i := 0; i < 500; i++ {
		a := randomNeighborhood(1000)
		x := float64(fastrand.Uint32n(1000))
		c := float64(fastrand.Uint32n(1000))
		for m := 1; m <= 4; m++ {
			want := refOrderClamp(x, a[:], m, 9-m)
			if got := removeGrain(Mode(m), x, a); got != want {
				t.Errorf("removegrain %d of %v in %v = %v; want %v", m, x, a, got, want)
			}
			want = refOrderClamp(x, append(a[:], c), m, 10-m)
			if got := repair(Mode(m), x, c, a); got != want {
				t.Errorf("repair %d of %v,%v in %v = %v; want %v", m, x, c, a, got, want)
			}
			if m >= 2 {
				s := append([]float64(nil), a[:]...)
				sort.Float64s(s)
				want = clamp(x, math.Min(s[m-1], c), math.Max(s[8-m], c))
				if got := repair(Mode(m+10), x, c, a); got != want {
					t.Errorf("repair %d of %v,%v in %v = %v; want %v", m+10, x, c, a, got, want)
				}
			}
		}

		lower, upper := math.Inf(-1), math.Inf(1)
		for _, ax := range axes {
			lower = math.Max(lower, math.Min(a[ax[0]], a[ax[1]]))
			upper = math.Min(upper, math.Max(a[ax[0]], a[ax[1]]))
		}
		want := clamp(x, math.Min(lower, upper), math.Max(lower, upper))
		if got := removeGrain(17, x, a); got != want {
			t.Errorf("removegrain 17 of %v in %v = %v; want %v", x, a, got, want)
		}

		md := refClosestDistance(c, a, false)
		if got, want := repair(19, x, c, a), clamp(x, c-md, c+md); got != want {
			t.Errorf("repair 19 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}
		md = refClosestDistance(c, a, true)
		if got, want := repair(20, x, c, a), clamp(x, c-md, c+md); got != want {
			t.Errorf("repair 20 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}
		md = refClosestDistance(x, a, false)
		if got, want := repair(22, x, c, a), clamp(c, x-md, x+md); got != want {
			t.Errorf("repair 22 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}
		md = refClosestDistance(x, a, true)
		if got, want := repair(23, x, c, a), clamp(c, x-md, x+md); got != want {
			t.Errorf("repair 23 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}
	}
}

// Ring index pairs: axes, adjacent pairs in two rotations, and the diamond
var (
	refAxes     = [][2]int{{0, 7}, {1, 6}, {2, 5}, {3, 4}}
	refRingA    = [][2]int{{0, 1}, {2, 4}, {7, 6}, {5, 3}}
	refRingB    = [][2]int{{1, 2}, {4, 7}, {6, 5}, {3, 0}}
	refDiamond  = [][2]int{{1, 4}, {4, 6}, {6, 3}, {3, 1}}
	refPriority = []int{3, 1, 2, 0}
)

// Returns the index of the smallest score, preferring W-E, N-S, NE-SW, NW-SE
func refBestAxis(scores [4]float64) int {
	best := math.Min(math.Min(scores[0], scores[1]), math.Min(scores[2], scores[3]))
	for _, i := range refPriority {
		if scores[i] == best {
			return i
		}
	}
	panic("no best axis")
}

func refAxisRange(a Neighborhood, i int, extra ...float64) (lo, hi float64) {
	lo, hi = math.Min(a[refAxes[i][0]], a[refAxes[i][1]]), math.Max(a[refAxes[i][0]], a[refAxes[i][1]])
	for _, e := range extra {
		lo, hi = math.Min(lo, e), math.Max(hi, e)
	}
	return lo, hi
}

// Clamps v to the range of the best scoring axis, as in modes 5 to 9
func refAxisSelect(m Mode, v float64, a Neighborhood, extra ...float64) float64 {
	var scores, clamped [4]float64
	for i := range refAxes {
		lo, hi := refAxisRange(a, i, extra...)
		clamped[i] = clamp(v, lo, hi)
		diff, rng := math.Abs(v-clamped[i]), hi-lo
		switch m {
		case 5:
			scores[i] = diff
		case 6:
			scores[i] = 2*diff + rng
		case 7:
			scores[i] = diff + rng
		case 8:
			scores[i] = diff + 2*rng
		default:
			scores[i] = rng
		}
	}
	return clamped[refBestAxis(scores)]
}

// Returns the range of the axis picked by repair modes 15 and 16
func refRepairAxis(m Mode, c float64, a Neighborhood) (lo, hi float64) {
	var scores [4]float64
	for i := range refAxes {
		lo, hi := refAxisRange(a, i)
		diff := math.Abs(c - clamp(c, lo, hi))
		if m == 15 {
			scores[i] = diff
		} else {
			scores[i] = 2*diff + hi - lo
		}
	}
	return refAxisRange(a, refBestAxis(scores))
}

// Returns the range of the axis whose farther end is closest to c, as in mode 18
func refClosestAxis(c float64, a Neighborhood) (lo, hi float64) {
	var scores [4]float64
	for i, ax := range refAxes {
		scores[i] = math.Max(math.Abs(c-a[ax[0]]), math.Abs(c-a[ax[1]]))
	}
	return refAxisRange(a, refBestAxis(scores))
}

// Returns the bounds from the neighbor-pair groups of modes 26 to 28
func refPairBounds(m Mode, a Neighborhood) (lo, hi float64) {
	groups := [][][2]int{refRingA, refRingB}
	if m >= 27 {
		groups = append(groups, refAxes)
	}
	if m == 28 {
		groups = append(groups, refDiamond)
	}
	lower, upper := math.Inf(-1), math.Inf(1)
	for _, g := range groups {
		gl, gu := math.Inf(-1), math.Inf(1)
		for _, p := range g {
			gl = math.Max(gl, math.Min(a[p[0]], a[p[1]]))
			gu = math.Min(gu, math.Max(a[p[0]], a[p[1]]))
		}
		lower, upper = math.Max(lower, gl), math.Min(upper, gu)
	}
	return math.Min(lower, upper), math.Max(lower, upper)
}

// Returns the smallest distance from center to the far side of any axis, as in repair 21 and 24
func refAxisReach(center float64, a Neighborhood) float64 {
	u := math.Inf(1)
	for i := range refAxes {
		lo, hi := refAxisRange(a, i)
		u = math.Min(u, math.Max(hi-center, center-lo))
	}
	return u
}

// Limits overshoot and undershoot of c beyond each axis by the axis range, as in remove-grain 23 and 24
func refLimitOvershoot(m Mode, c float64, a Neighborhood) float64 {
	up, down := 0.0, 0.0
	for i := range refAxes {
		lo, hi := refAxisRange(a, i)
		ld := hi - lo
		over, under := c-hi, lo-c
		if m == 23 {
			up, down = math.Max(up, math.Min(over, ld)), math.Max(down, math.Min(under, ld))
		} else {
			up, down = math.Max(up, math.Min(over, ld-over)), math.Max(down, math.Min(under, ld-under))
		}
	}
	return c - up + down
}

// Returns the neighbor or extra candidate closest to from, ties resolved S, SE, SW, N, NE, NW, E, extra, W
func refClosest(from float64, a Neighborhood, extra ...float64) float64 {
	cands := []float64{a[6], a[7], a[5], a[1], a[2], a[0], a[4]}
	cands = append(cands, extra...)
	cands = append(cands, a[3])
	best := cands[0]
	for _, v := range cands[1:] {
		if math.Abs(from-v) < math.Abs(from-best) {
			best = v
		}
	}
	return best
}

func TestAxisModesAgainstDirectImplementation(t *testing.T) {
	for i := 0; i < 1000; i++ {
		// narrow value range forces ties between axes
		limit := uint32(1000)
		if i%2 == 0 {
			limit = 6
		}
		a := randomNeighborhood(limit)
		x := float64(fastrand.Uint32n(limit))
		c := float64(fastrand.Uint32n(limit))
		for m := Mode(5); m <= 9; m++ {
			if got, want := removeGrain(m, x, a), refAxisSelect(m, x, a); got != want {
				t.Errorf("removegrain %d of %v in %v = %v; want %v", m, x, a, got, want)
			}
			if got, want := repair(m, x, c, a), refAxisSelect(m, x, a, c); got != want {
				t.Errorf("repair %d of %v,%v in %v = %v; want %v", m, x, c, a, got, want)
			}
		}
		for _, m := range []Mode{15, 16} {
			lo, hi := refRepairAxis(m, c, a)
			if got, want := repair(m, x, c, a), clamp(x, math.Min(lo, c), math.Max(hi, c)); got != want {
				t.Errorf("repair %d of %v,%v in %v = %v; want %v", m, x, c, a, got, want)
			}
		}

		lo, hi := refClosestAxis(x, a)
		if got, want := removeGrain(18, x, a), clamp(x, lo, hi); got != want {
			t.Errorf("removegrain 18 of %v in %v = %v; want %v", x, a, got, want)
		}
		lo, hi = refClosestAxis(c, a)
		if got, want := repair(18, x, c, a), clamp(x, math.Min(lo, c), math.Max(hi, c)); got != want {
			t.Errorf("repair 18 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}

		if got, want := removeGrain(10, x, a), refClosest(x, a); got != want {
			t.Errorf("removegrain 10 of %v in %v = %v; want %v", x, a, got, want)
		}
		if got, want := repair(10, x, c, a), refClosest(x, a, c); got != want {
			t.Errorf("repair 10 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}
	}
}

func TestPairModesAgainstDirectImplementation(t *testing.T) {
	for i := 0; i < 500; i++ {
		a := randomNeighborhood(1000)
		x := float64(fastrand.Uint32n(1000))
		c := float64(fastrand.Uint32n(1000))
		for m := Mode(26); m <= 28; m++ {
			lo, hi := refPairBounds(m, a)
			if got, want := removeGrain(m, x, a), clamp(x, lo, hi); got != want {
				t.Errorf("removegrain %d of %v in %v = %v; want %v", m, x, a, got, want)
			}
			if got, want := repair(m, x, c, a), clamp(x, math.Min(lo, c), math.Max(hi, c)); got != want {
				t.Errorf("repair %d of %v,%v in %v = %v; want %v", m, x, c, a, got, want)
			}
		}
	}
}

func TestLimitingModesAgainstDirectImplementation(t *testing.T) {
	for i := 0; i < 500; i++ {
		a := randomNeighborhood(1000)
		x := float64(fastrand.Uint32n(1000))
		c := float64(fastrand.Uint32n(1000))

		u := refAxisReach(c, a)
		if got, want := repair(21, x, c, a), clamp(x, c-u, c+u); got != want {
			t.Errorf("repair 21 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}
		u = refAxisReach(x, a)
		if got, want := repair(24, x, c, a), clamp(c, x-u, x+u); got != want {
			t.Errorf("repair 24 of %v,%v in %v = %v; want %v", x, c, a, got, want)
		}

		for _, m := range []Mode{23, 24} {
			got, err := Evaluate(&Request{Family: RemoveGrain, Mode: m, Subject: x, ReferenceNeighbors: a, Format: Format16})
			if err != nil {
				t.Fatal(err)
			}
			if want := clamp(refLimitOvershoot(m, x, a), 0, 65535); got != want {
				t.Errorf("removegrain %d of %v in %v = %v; want %v", m, x, a, got, want)
			}
		}
	}
}

func TestRepairClosestTieOrder(t *testing.T) {
	far := 100.0
	for _, tc := range []struct {
		name string
		a    Neighborhood
		c    float64
		want float64
	}{
		{"reference center before W", Neighborhood{far, far, far, 4, far, far, far, far}, 6, 6},
		{"E before reference center", Neighborhood{far, far, far, far, 6, far, far, far}, 4, 6},
		{"S before everything", Neighborhood{4, 4, 4, 4, 4, 4, 6, 4}, 4, 6},
		{"W last", Neighborhood{far, far, far, 4, far, far, far, far}, far, 4},
	} {
		if got := repair(10, 5, tc.c, tc.a); got != tc.want {
			t.Errorf("repair 10 %s = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestAxisSelection(t *testing.T) {
	// horizontal axis 40..60 holds the center, all others are far off
	a := Neighborhood{0, 200, 0, 40, 60, 0, 200, 0}
	if got := removeGrain(5, 50, a); got != 50 {
		t.Errorf("removegrain 5 = %v; want 50", got)
	}
	// all axes at the same distance, horizontal wins
	a = Neighborhood{20, 20, 20, 40, 40, 20, 20, 20}
	if got := removeGrain(5, 30, a); got != 40 {
		t.Errorf("removegrain 5 tie = %v; want 40", got)
	}
	// narrowest axis is the vertical one
	a = Neighborhood{0, 49, 100, 0, 100, 0, 51, 100}
	if got := removeGrain(9, 75, a); got != 51 {
		t.Errorf("removegrain 9 = %v; want 51", got)
	}
}

func TestIntegerRounding(t *testing.T) {
	a := Neighborhood{2, 2, 2, 2, 3, 3, 3, 3}
	for _, tc := range []struct {
		mode   Mode
		format Format
		c      float64
		want   float64
	}{
		{21, FormatFloat, 10, 2.5},
		{21, Format8, 10, 3},
		{21, Format8, 0, 2},
		{22, FormatFloat, 0, 2.5},
		{22, Format8, 0, 3},
		{22, Format8, 10, 3},
	} {
		got, err := Evaluate(&Request{Family: RemoveGrain, Mode: tc.mode, Subject: tc.c, ReferenceNeighbors: a, Format: tc.format})
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("removegrain %d %s of %v = %v; want %v", tc.mode, tc.format, tc.c, got, tc.want)
		}
	}
}

func TestClampsToPlaneRange(t *testing.T) {
	// zero axis ranges leave a spike unchanged, the plane range still applies
	r := Request{Family: RemoveGrain, Mode: 24, Subject: 0.4, ReferenceNeighbors: Flat(0.1), Bias: -0.5, Format: FormatFloat}
	got, err := Evaluate(&r)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.4 {
		t.Errorf("removegrain 24 = %v; want 0.4", got)
	}
	r.Mode, r.Subject = 23, 0.7
	if got, _ = Evaluate(&r); got != 0.5 {
		t.Errorf("removegrain 23 above range = %v; want 0.5", got)
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{Format8, Format16, FormatFloat, {Integer: true, Bits: 10}, {Bits: 16}} {
		g, err := ParseFormat(f.String())
		if err != nil || g != f {
			t.Errorf("ParseFormat(%q)=%v,%v; want %v", f.String(), g, err, f)
		}
	}
	for _, s := range []string{"", "int", "int0", "int17", "int24", "int32", "float24", "uint8", "int8x", "int 8"} {
		if _, err := ParseFormat(s); err == nil {
			t.Errorf("ParseFormat(%q) accepted", s)
		}
	}
}

func TestValidateIntegerBits(t *testing.T) {
	for bits := 1; bits <= 16; bits++ {
		if err := (Format{Integer: true, Bits: bits}).Validate(); err != nil {
			t.Errorf("int%d rejected: %v", bits, err)
		}
	}
	for _, bits := range []int{0, 17, 24, 32} {
		if err := (Format{Integer: true, Bits: bits}).Validate(); err == nil {
			t.Errorf("int%d accepted", bits)
		}
	}
	_, err := Evaluate(&Request{Family: RemoveGrain, Mode: 1, Format: Format{Integer: true, Bits: 32}})
	if err == nil {
		t.Errorf("evaluation in int32 accepted")
	}
}

func TestQuantize(t *testing.T) {
	for _, tc := range []struct {
		v, want float64
		format  Format
	}{
		{2.5, 3, Format8},
		{2.49, 2, Format8},
		{-3, 0, Format8},
		{300, 255, Format8},
		{70000, 65535, Format16},
		{0.123, 0.123, FormatFloat},
	} {
		if got := Quantize(tc.v, tc.format); got != tc.want {
			t.Errorf("Quantize(%v, %s)=%v; want %v", tc.v, tc.format, got, tc.want)
		}
	}
}

func TestPlaneBias(t *testing.T) {
	if PlaneBias(true, FormatFloat) != -0.5 || PlaneBias(false, FormatFloat) != 0 || PlaneBias(true, Format8) != 0 {
		t.Errorf("unexpected plane bias")
	}
}
