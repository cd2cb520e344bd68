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

package frame

import "runtime"

// Processes rows [y0,y1). For parallelization across CPUs
type RowFunction func(y0, y1 int)

// Applies the row function to rows [first,last), split into 8*workers batches of which at
// most workers run concurrently. Workers <= 0 uses all CPUs. Returns when all batches are done
func ApplyRows(first, last, workers int, rf RowFunction) {
	if last <= first {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	numBatches := 8 * workers
	batchSize := (last - first + numBatches - 1) / numBatches
	sem := make(chan bool, workers)
	for lower := first; lower < last; lower += batchSize {
		upper := lower + batchSize
		if upper > last {
			upper = last
		}

		sem <- true
		go func(lower, upper int) {
			rf(lower, upper)
			<-sem
		}(lower, upper)
	}

	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}
}

// Applies a sample function to the data in parallel batches. Operates in-place
func ApplySamples(data []float32, workers int, pf func(data []float32)) {
	ApplyRows(0, len(data), workers, func(lower, upper int) { pf(data[lower:upper]) })
}
