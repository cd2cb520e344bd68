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

// Package qsort selects order statistics from float32 sample slices in place.
package qsort

import "math"

// Partitions a slice with the middle element as pivot, and returns the split index r.
// Afterwards a[:r+1] holds values <= pivot, a[r+1:] values >= pivot.
// Slice must not contain IEEE NaN
func Partition(a []float32) int {
	mid := (len(a) - 1) >> 1
	pivot := a[mid]
	l, r := -1, len(a)
	for {
		for {
			l++
			if a[l] >= pivot {
				break
			}
		}
		for {
			r--
			if a[r] <= pivot {
				break
			}
		}
		if l >= r {
			return r
		}
		a[l], a[r] = a[r], a[l]
	}
}

// Sorts a slice in ascending order. Slice must not contain IEEE NaN
func Sort(a []float32) {
	for len(a) > 1 {
		index := Partition(a)
		// recurse into the smaller half, loop on the larger
		if index+1 < len(a)-index-1 {
			Sort(a[:index+1])
			a = a[index+1:]
		} else {
			Sort(a[index+1:])
			a = a[:index+1]
		}
	}
}

// Selects the k-th lowest element, 1-based. Partially reorders the slice.
// Slice must not contain IEEE NaN
func Select(a []float32, k int) float32 {
	left, right := 0, len(a)-1
	for left < right {
		index := left + Partition(a[left:right+1])
		offset := index - left + 1
		if k <= offset {
			right = index
		} else {
			left = index + 1
			k -= offset
		}
	}
	return a[left]
}

// Returns the median of a slice, averaging the two middle elements for even lengths.
// NaN for an empty slice. Partially reorders the slice
func Median(a []float32) float32 {
	switch {
	case len(a) == 0:
		return float32(math.NaN())
	case len(a)&1 != 0:
		return Select(a, len(a)/2+1)
	}
	lo := Select(a, len(a)/2)
	// all elements right of the lower middle are at least as large
	hi := a[len(a)/2]
	for _, v := range a[len(a)/2+1:] {
		if v < hi {
			hi = v
		}
	}
	return 0.5 * (lo + hi)
}

// Returns the q-quantile for q in [0,1] by selecting the nearest rank. Partially reorders the slice
func Quantile(a []float32, q float64) float32 {
	if len(a) == 0 {
		return float32(math.NaN())
	}
	k := int(math.Ceil(q * float64(len(a))))
	if k < 1 {
		k = 1
	} else if k > len(a) {
		k = len(a)
	}
	return Select(a, k)
}
