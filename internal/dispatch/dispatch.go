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

// Package dispatch picks, per plane, which backend computes a repair or remove-grain mode.
// The choice is made once per filter call from a capability table, not per pixel.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/rg"
)

// A way of computing one plane
type Backend int

const (
	Passthrough  Backend = iota // mode 0, copy the subject
	Expression                  // per-pixel stack program
	Convolution                 // 3x3 convolution primitive
	Median                      // 3x3 median primitive
	MinMax                      // clamp to min and max of the reference 3x3 neighborhood
	NativePlugin                // the injected native backend
)

var backendNames = []string{"passthrough", "expression", "convolution", "median", "minmax", "native"}

func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return fmt.Sprintf("backend(%d)", int(b))
	}
	return backendNames[b]
}

// The backend and parameters chosen for one plane
type Step struct {
	Backend  Backend
	Mode     rg.Mode
	Kernel   conv.Kernel // for Convolution
	Unrolled bool        // use the unrolled convolution row kernel
}

func (s Step) String() string {
	return fmt.Sprintf("%d:%s", s.Mode, s.Backend)
}

// Per-plane execution plan of one filter call
type Plan struct {
	Family rg.Family
	Format rg.Format
	Steps  []Step
	Native Plugin // set if any step uses NativePlugin
}

func (p *Plan) String() string {
	parts := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s %s [%s]", p.Family, p.Format, strings.Join(parts, " "))
}

// Returns true if every step is a passthrough
func (p *Plan) Identity() bool {
	for _, s := range p.Steps {
		if s.Backend != Passthrough {
			return false
		}
	}
	return true
}

// Creates a plan for the given per-plane modes. Invalid modes fail with an error wrapping
// rg.ErrUnsupportedMode, remove-grain 13-16 without a capable native plugin with an error
// wrapping rg.ErrNeedsNativeBackend
func NewPlan(caps Capabilities, f rg.Family, modes []rg.Mode, format rg.Format) (*Plan, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("no modes given")
	}
	native := caps.Native
	for i, m := range modes {
		if err := rg.CheckMode(f, m); err != nil && !(native != nil && native.Supports(f, m)) {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
	}

	p := &Plan{Family: f, Format: format, Steps: make([]Step, len(modes))}
	allNative := native != nil && format.Integer
	for _, m := range modes {
		if !allNative {
			break
		}
		allNative = m <= 24 && native.Supports(f, m)
	}
	for i, m := range modes {
		p.Steps[i] = choose(caps, f, m, format, allNative)
		if p.Steps[i].Backend == NativePlugin {
			p.Native = native
		}
	}
	return p, nil
}

func choose(caps Capabilities, f rg.Family, m rg.Mode, format rg.Format, allNative bool) Step {
	s := Step{Backend: Expression, Mode: m}
	switch {
	case m == 0:
		s.Backend = Passthrough
	case allNative || rg.CheckMode(f, m) != nil:
		s.Backend = NativePlugin
	case f == rg.RemoveGrain && caps.Convolution:
		if k, ok := conv.ForRemoveGrain(m); ok {
			s.Backend, s.Kernel, s.Unrolled = Convolution, k, caps.AVX2
		} else if m == 4 && caps.Median {
			s.Backend = Median
		}
	case f == rg.RemoveGrain && m == 4 && caps.Median:
		s.Backend = Median
	case f == rg.Repair && (m == 1 || m == 11) && !format.Integer:
		s.Backend = MinMax
	}
	return s
}
