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

// Package rg holds the repair and remove-grain mode formulas. Each mode compiles to an
// expr.Program operating on one 3x3 neighborhood. Programs are built once and shared,
// so evaluation is pure and safe from any number of goroutines.
package rg

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// A formula family
type Family int

const (
	Repair      Family = iota // subject clamped by a reference plane's neighborhood
	RemoveGrain               // single plane, subject and reference are identical
)

func (f Family) String() string {
	switch f {
	case Repair:
		return "repair"
	case RemoveGrain:
		return "removegrain"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// Parses a family name as produced by Family.String. Accepts "rg" and "rep" as short forms
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(s) {
	case "repair", "rep":
		return Repair, nil
	case "removegrain", "rg":
		return RemoveGrain, nil
	}
	return 0, fmt.Errorf("unknown family '%s'", s)
}

// A formula number within a family
type Mode int

const MaxMode Mode = 28

var (
	// Mode outside 0..MaxMode, or the reserved mode 25
	ErrUnsupportedMode = errors.New("unsupported mode")

	// Mode cannot be expressed on a single progressive 3x3 neighborhood, and needs
	// a field-aware native backend
	ErrNeedsNativeBackend = errors.New("mode requires a native backend")
)

// Checks a mode for the given family. Returns nil, or an error wrapping
// ErrUnsupportedMode or ErrNeedsNativeBackend
func CheckMode(f Family, m Mode) error {
	if m < 0 || m > MaxMode || m == 25 {
		return fmt.Errorf("%s mode %d: %w", f, m, ErrUnsupportedMode)
	}
	if f == RemoveGrain && m >= 13 && m <= 16 {
		return fmt.Errorf("%s mode %d: %w", f, m, ErrNeedsNativeBackend)
	}
	if f != Repair && f != RemoveGrain {
		return fmt.Errorf("%s mode %d: %w", f, m, ErrUnsupportedMode)
	}
	return nil
}

// Returns true if the mode can be evaluated as a neighborhood expression.
// Always false for mode 25, and for remove-grain bob modes 13 to 16
func IsModeSupported(m Mode, asRepair bool) bool {
	f := RemoveGrain
	if asRepair {
		f = Repair
	}
	return CheckMode(f, m) == nil
}

// Sample format of a plane
type Format struct {
	Integer bool `json:"integer"` // integer code values, else floating point
	Bits    int  `json:"bits"`    // bits per sample
}

var (
	FormatFloat = Format{Integer: false, Bits: 32}
	Format8     = Format{Integer: true, Bits: 8}
	Format16    = Format{Integer: true, Bits: 16}
)

// Returns the largest valid sample value: 2^bits-1 for integer formats, 1 for float
func (f Format) Peak() float64 {
	if f.Integer {
		return float64(uint64(1)<<uint(f.Bits) - 1)
	}
	return 1
}

func (f Format) Validate() error {
	if f.Integer && (f.Bits < 1 || f.Bits > 16) {
		return fmt.Errorf("integer format with %d bits, want 1..16", f.Bits)
	}
	if !f.Integer && f.Bits != 16 && f.Bits != 32 && f.Bits != 64 {
		return fmt.Errorf("float format with %d bits, want 16, 32 or 64", f.Bits)
	}
	return nil
}

func (f Format) String() string {
	if f.Integer {
		return fmt.Sprintf("int%d", f.Bits)
	}
	return fmt.Sprintf("float%d", f.Bits)
}

// Parses a format as produced by Format.String, e.g. int8, int16 or float32
func ParseFormat(s string) (Format, error) {
	var f Format
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "int"):
		f.Integer, s = true, s[3:]
	case strings.HasPrefix(s, "float"):
		s = s[5:]
	default:
		return f, fmt.Errorf("unknown format '%s'", s)
	}
	if _, err := fmt.Sscanf(s, "%d", &f.Bits); err != nil || fmt.Sprint(f.Bits) != s {
		return Format{}, fmt.Errorf("invalid bit depth '%s'", s)
	}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Rounds half up and clamps to [0, peak] for integer formats. Float samples pass unchanged.
// Formulas return unrounded values, callers quantize before storing
func Quantize(v float64, f Format) float64 {
	if !f.Integer {
		return v
	}
	v = math.Floor(v + 0.5)
	if v < 0 {
		return 0
	}
	if peak := f.Peak(); v > peak {
		return peak
	}
	return v
}

// Returns the lower end of the valid range of a plane. Zero-centered float chroma
// planes range over [-0.5, 0.5], everything else starts at 0
func PlaneBias(chroma bool, f Format) float64 {
	if chroma && !f.Integer {
		return -0.5
	}
	return 0
}
