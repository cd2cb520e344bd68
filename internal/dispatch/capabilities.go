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
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/mlnoga/rgtools/internal/rg"
)

// A native filter backend, implemented in-process or by an accelerator library.
// Implementations must be safe for concurrent use on disjoint row ranges
type Plugin interface {
	Name() string
	Supports(f rg.Family, m rg.Mode) bool
	// Filters interior pixels of rows [y0,y1) into dst. Rows y0-1 and y1 must exist
	FilterRows(f rg.Family, m rg.Mode, dst, subject, reference []float32, width, y0, y1 int)
}

// What the host offers. Detected once at startup and passed to the planner explicitly
type Capabilities struct {
	Brand        string `json:"brand"`
	LogicalCores int    `json:"logicalCores"`
	AVX2         bool   `json:"avx2"`
	Convolution  bool   `json:"convolution"` // 3x3 convolution primitive available
	Median       bool   `json:"median"`      // 3x3 median primitive available
	Native       Plugin `json:"-"`           // nil if no native backend is installed
}

// Detects CPU capabilities and attaches the given native plugin, which may be nil
func DetectCapabilities(native Plugin) Capabilities {
	cores := cpuid.CPU.LogicalCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	return Capabilities{
		Brand:        cpuid.CPU.BrandName,
		LogicalCores: cores,
		AVX2:         cpuid.CPU.AVX2(),
		Convolution:  true,
		Median:       true,
		Native:       native,
	}
}

// Number of workers for row batches and frames in flight: the logical cores,
// or GOMAXPROCS if none were detected
func (c Capabilities) Workers() int {
	if c.LogicalCores > 0 {
		return c.LogicalCores
	}
	return runtime.GOMAXPROCS(0)
}

// Name of the native plugin, or "none"
func (c Capabilities) NativeName() string {
	if c.Native == nil {
		return "none"
	}
	return c.Native.Name()
}

func (c Capabilities) String() string {
	return fmt.Sprintf("%s, %d logical cores, AVX2 %v, native %s", c.Brand, c.LogicalCores, c.AVX2, c.NativeName())
}
