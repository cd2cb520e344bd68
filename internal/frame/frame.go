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

// Package frame holds planar image frames and their conversions and file IO.
package frame

import (
	"fmt"
	"strings"

	"github.com/mlnoga/rgtools/internal/rg"
	"github.com/valyala/fastrand"
)

// Color family of a frame, determining the number and meaning of its planes
type ColorFamily int

const (
	Gray ColorFamily = iota // one luma plane
	RGB                     // red, green, blue
	YUV                     // luma and two zero-centered chroma planes, BT.601
	Lab                     // CIE L*a*b*, a* and b* at half scale
)

var colorFamilyNames = []string{"gray", "rgb", "yuv", "lab"}

func (c ColorFamily) String() string {
	if c >= 0 && int(c) < len(colorFamilyNames) {
		return colorFamilyNames[c]
	}
	return fmt.Sprintf("family(%d)", int(c))
}

func ParseColorFamily(s string) (ColorFamily, error) {
	for i, n := range colorFamilyNames {
		if strings.EqualFold(s, n) {
			return ColorFamily(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color family '%s'", s)
}

// Returns the number of planes of the family
func (c ColorFamily) NumPlanes() int {
	if c == Gray {
		return 1
	}
	return 3
}

// Returns true if the plane holds zero-centered chroma
func (c ColorFamily) Chroma(plane int) bool {
	return (c == YUV || c == Lab) && plane > 0
}

// A frame of planar samples. Integer formats hold code values in [0, 2^bits-1],
// float formats hold [0,1] for luma and color planes and [-0.5,0.5] for chroma
type Frame struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Width  int
	Height int
	Family ColorFamily
	Format rg.Format

	Planes [][]float32 // Planes in row-major order, one per plane of the family
}

// Creates a frame with zeroed planes
func New(width, height int, family ColorFamily, format rg.Format) *Frame {
	f := &Frame{Width: width, Height: height, Family: family, Format: format}
	f.Planes = make([][]float32, family.NumPlanes())
	for i := range f.Planes {
		f.Planes[i] = make([]float32, width*height)
	}
	return f
}

// Creates a frame with the same metadata and dimensions, with zeroed planes
func (f *Frame) NewLike() *Frame {
	g := New(f.Width, f.Height, f.Family, f.Format)
	g.ID, g.FileName = f.ID, f.FileName
	return g
}

// Deep copy
func (f *Frame) Clone() *Frame {
	g := f.NewLike()
	for i, p := range f.Planes {
		copy(g.Planes[i], p)
	}
	return g
}

func (f *Frame) NumPlanes() int { return len(f.Planes) }

// Returns the lower end of the valid sample range of a plane
func (f *Frame) Bias(plane int) float64 {
	return rg.PlaneBias(f.Family.Chroma(plane), f.Format)
}

// Maps index i onto [0,n) by mirroring at the borders without repeating the edge sample,
// so -1 maps to 1 and n to n-2
func Mirror(i, n int) int {
	if n <= 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// Returns an error unless both frames have the same dimensions, family and format
func (f *Frame) CheckCompatible(g *Frame) error {
	if f.Width != g.Width || f.Height != g.Height {
		return fmt.Errorf("frame %d is %dx%d, frame %d is %dx%d", f.ID, f.Width, f.Height, g.ID, g.Width, g.Height)
	}
	if f.Family != g.Family || f.Format != g.Format {
		return fmt.Errorf("frame %d is %s %s, frame %d is %s %s", f.ID, f.Family, f.Format, g.ID, g.Family, g.Format)
	}
	return nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("%dx%d %s %s", f.Width, f.Height, f.Family, f.Format)
}

// Creates a frame of uniform random samples covering the valid range of each plane
func NewNoise(width, height int, family ColorFamily, format rg.Format, rng *fastrand.RNG) *Frame {
	f := New(width, height, family, format)
	peak := format.Peak()
	for i, p := range f.Planes {
		bias := f.Bias(i)
		for j := range p {
			if format.Integer {
				p[j] = float32(rng.Uint32n(uint32(peak) + 1))
			} else {
				p[j] = float32(bias + float64(rng.Uint32n(1<<24))/(1<<24))
			}
		}
	}
	return f
}
