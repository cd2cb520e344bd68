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

import "sync"

// Pools of temporary planes, one per plane size, to reduce allocation overhead
var planePools = struct {
	sync.RWMutex
	m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

func sizedPool(size int) *sync.Pool {
	planePools.RLock()
	pool := planePools.m[size]
	planePools.RUnlock()
	if pool != nil {
		return pool
	}
	planePools.Lock()
	defer planePools.Unlock()
	if pool = planePools.m[size]; pool == nil {
		pool = &sync.Pool{New: func() interface{} { return make([]float32, size) }}
		planePools.m[size] = pool
	}
	return pool
}

// Returns a temporary plane of the given size. Contents are undefined
func GetPlane(size int) []float32 {
	return sizedPool(size).Get().([]float32)
}

// Returns a temporary plane to its pool. It must not be used afterwards
func PutPlane(p []float32) {
	sizedPool(len(p)).Put(p)
}
