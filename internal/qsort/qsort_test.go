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

package qsort

import (
	"math"
	"testing"

	"github.com/valyala/fastrand"
)

// Returns a random permutation of 1..n
func permutation(rng *fastrand.RNG, n int) []float32 {
	arr := make([]float32, n)
	for j := range arr {
		arr[j] = float32(j + 1)
	}
	for j := range arr {
		k := rng.Uint32n(uint32(n))
		arr[j], arr[k] = arr[k], arr[j]
	}
	return arr
}

func TestMedian(t *testing.T) {
	rng := fastrand.RNG{}
	for i := 1; i < 500; i++ {
		arr := permutation(&rng, i)
		var expect float32
		if (i & 1) != 0 {
			expect = float32((i + 1) / 2)
		} else {
			expect = 0.5 * (float32(i/2) + float32(i/2+1))
		}
		if res := Median(arr); res != expect {
			t.Errorf("median(1..%d)=%f; want %f", i, res, expect)
		}
	}
	if !math.IsNaN(float64(Median(nil))) {
		t.Errorf("median of empty slice is not NaN")
	}
}

func TestSelect(t *testing.T) {
	rng := fastrand.RNG{}
	for i := 1; i < 200; i++ {
		for _, k := range []int{1, (i + 1) / 2, i} {
			arr := permutation(&rng, i)
			if res := Select(arr, k); res != float32(k) {
				t.Errorf("select(1..%d, %d)=%f; want %d", i, k, res, k)
			}
		}
	}
}

func TestSortWithDuplicates(t *testing.T) {
	rng := fastrand.RNG{}
	arr := make([]float32, 1000)
	for i := range arr {
		arr[i] = float32(rng.Uint32n(17))
	}
	Sort(arr)
	for i := 1; i < len(arr); i++ {
		if arr[i-1] > arr[i] {
			t.Fatalf("arr[%d]=%f > arr[%d]=%f", i-1, arr[i-1], i, arr[i])
		}
	}
}

func TestQuantile(t *testing.T) {
	rng := fastrand.RNG{}
	for _, tc := range []struct {
		q    float64
		want float32
	}{{0, 1}, {0.25, 25}, {0.5, 50}, {0.75, 75}, {1, 100}} {
		if res := Quantile(permutation(&rng, 100), tc.q); res != tc.want {
			t.Errorf("quantile(1..100, %v)=%f; want %f", tc.q, res, tc.want)
		}
	}
}
