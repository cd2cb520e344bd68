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

package dispatch

import (
	"fmt"

	"github.com/mlnoga/rgtools/internal/rg"
)

// Broadcasts a per-plane list to the given plane count. Shorter lists repeat their last
// entry, longer lists are truncated
func NormaliseModes(modes []rg.Mode, planes int) ([]rg.Mode, error) {
	if len(modes) == 0 {
		return nil, fmt.Errorf("empty mode list")
	}
	res := make([]rg.Mode, planes)
	for i := range res {
		res[i] = modes[min(i, len(modes)-1)]
	}
	return res, nil
}

// Like NormaliseModes, for integer parameters such as iteration counts
func NormaliseInts(values []int, planes int) ([]int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty parameter list")
	}
	res := make([]int, planes)
	for i := range res {
		res[i] = values[min(i, len(values)-1)]
	}
	return res, nil
}

// Returns a mask of the selected planes. Nil or empty selects all planes.
// Out of range indices are rejected
func ParsePlanes(planes []int, numPlanes int) ([]bool, error) {
	mask := make([]bool, numPlanes)
	if len(planes) == 0 {
		for i := range mask {
			mask[i] = true
		}
		return mask, nil
	}
	for _, p := range planes {
		if p < 0 || p >= numPlanes {
			return nil, fmt.Errorf("plane index %d out of range 0..%d", p, numPlanes-1)
		}
		mask[p] = true
	}
	return mask, nil
}

// Sets the mode of unselected planes to passthrough
func SelectPlanes(modes []rg.Mode, mask []bool) []rg.Mode {
	res := make([]rg.Mode, len(modes))
	for i, m := range modes {
		if i < len(mask) && mask[i] {
			res[i] = m
		}
	}
	return res
}
