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
	"errors"
	"testing"

	"github.com/mlnoga/rgtools/internal/native"
	"github.com/mlnoga/rgtools/internal/rg"
)

func backends(p *Plan) []Backend {
	res := make([]Backend, len(p.Steps))
	for i, s := range p.Steps {
		res[i] = s.Backend
	}
	return res
}

type planTestCase struct {
	Native bool
	Family rg.Family
	Modes  []rg.Mode
	Format rg.Format
	Want   []Backend
}

func TestNewPlan(t *testing.T) {
	tcs := []planTestCase{
		{false, rg.RemoveGrain, []rg.Mode{0, 4, 11}, rg.FormatFloat, []Backend{Passthrough, Median, Convolution}},
		{false, rg.RemoveGrain, []rg.Mode{12, 19, 20}, rg.FormatFloat, []Backend{Convolution, Convolution, Convolution}},
		{false, rg.RemoveGrain, []rg.Mode{1, 17, 28}, rg.Format8, []Backend{Expression, Expression, Expression}},
		{false, rg.Repair, []rg.Mode{1, 11, 2}, rg.FormatFloat, []Backend{MinMax, MinMax, Expression}},
		{false, rg.Repair, []rg.Mode{1, 11}, rg.Format16, []Backend{Expression, Expression}},
		{true, rg.RemoveGrain, []rg.Mode{13, 4, 17}, rg.FormatFloat, []Backend{NativePlugin, Median, Expression}},
		{true, rg.RemoveGrain, []rg.Mode{1, 2, 3}, rg.Format8, []Backend{NativePlugin, NativePlugin, NativePlugin}},
		{true, rg.RemoveGrain, []rg.Mode{1, 2, 17}, rg.Format8, []Backend{Expression, Expression, Expression}},
		{true, rg.Repair, []rg.Mode{1, 0, 3}, rg.Format16, []Backend{NativePlugin, Passthrough, NativePlugin}},
	}
	for i, tc := range tcs {
		var plugin Plugin
		if tc.Native {
			plugin = native.New()
		}
		caps := DetectCapabilities(plugin)
		p, err := NewPlan(caps, tc.Family, tc.Modes, tc.Format)
		if err != nil {
			t.Errorf("%d: NewPlan error %v", i, err)
			continue
		}
		got := backends(p)
		for j := range got {
			if got[j] != tc.Want[j] {
				t.Errorf("%d: plan %v; want backends %v", i, p, tc.Want)
				break
			}
		}
		if (p.Native != nil) != (got[0] == NativePlugin || got[len(got)-1] == NativePlugin) {
			t.Errorf("%d: plan native %v inconsistent with steps %v", i, p.Native, got)
		}
	}
}

func TestNewPlanErrors(t *testing.T) {
	caps := DetectCapabilities(nil)
	if _, err := NewPlan(caps, rg.RemoveGrain, []rg.Mode{4, 25}, rg.FormatFloat); !errors.Is(err, rg.ErrUnsupportedMode) {
		t.Errorf("mode 25 error %v; want ErrUnsupportedMode", err)
	}
	if _, err := NewPlan(caps, rg.Repair, []rg.Mode{29}, rg.FormatFloat); !errors.Is(err, rg.ErrUnsupportedMode) {
		t.Errorf("mode 29 error %v; want ErrUnsupportedMode", err)
	}
	if _, err := NewPlan(caps, rg.RemoveGrain, []rg.Mode{14}, rg.Format8); !errors.Is(err, rg.ErrNeedsNativeBackend) {
		t.Errorf("mode 14 error %v; want ErrNeedsNativeBackend", err)
	}
	if _, err := NewPlan(caps, rg.RemoveGrain, nil, rg.Format8); err == nil {
		t.Errorf("empty mode list accepted")
	}
	if _, err := NewPlan(caps, rg.RemoveGrain, []rg.Mode{1}, rg.Format{Integer: true, Bits: 40}); err == nil {
		t.Errorf("invalid format accepted")
	}
	caps = DetectCapabilities(native.New())
	if _, err := NewPlan(caps, rg.RemoveGrain, []rg.Mode{25}, rg.Format8); !errors.Is(err, rg.ErrUnsupportedMode) {
		t.Errorf("mode 25 with native error %v; want ErrUnsupportedMode", err)
	}
}

func TestUnrolledFollowsAVX2(t *testing.T) {
	caps := DetectCapabilities(nil)
	caps.AVX2 = true
	p, err := NewPlan(caps, rg.RemoveGrain, []rg.Mode{20}, rg.FormatFloat)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Steps[0].Unrolled || p.Steps[0].Kernel.Divisor != 9 {
		t.Errorf("step %+v; want unrolled box kernel", p.Steps[0])
	}
	caps.Convolution, caps.Median = false, false
	p, _ = NewPlan(caps, rg.RemoveGrain, []rg.Mode{20, 4}, rg.FormatFloat)
	if b := backends(p); b[0] != Expression || b[1] != Expression {
		t.Errorf("without primitives got %v; want expressions", b)
	}
}

func TestWorkers(t *testing.T) {
	if w := (Capabilities{LogicalCores: 6}).Workers(); w != 6 {
		t.Errorf("workers=%d; want 6", w)
	}
	if w := (Capabilities{}).Workers(); w < 1 {
		t.Errorf("workers without detected cores=%d; want at least 1", w)
	}
}

func TestNormaliseModes(t *testing.T) {
	got, err := NormaliseModes([]rg.Mode{4, 11}, 3)
	if err != nil || len(got) != 3 || got[0] != 4 || got[1] != 11 || got[2] != 11 {
		t.Errorf("NormaliseModes=%v,%v; want [4 11 11]", got, err)
	}
	got, _ = NormaliseModes([]rg.Mode{1, 2, 3, 4}, 2)
	if len(got) != 2 || got[1] != 2 {
		t.Errorf("NormaliseModes truncated=%v; want [1 2]", got)
	}
	if _, err := NormaliseModes(nil, 3); err == nil {
		t.Errorf("empty list accepted")
	}
	ints, _ := NormaliseInts([]int{2}, 3)
	if len(ints) != 3 || ints[2] != 2 {
		t.Errorf("NormaliseInts=%v; want [2 2 2]", ints)
	}
}

func TestParsePlanes(t *testing.T) {
	mask, err := ParsePlanes(nil, 3)
	if err != nil || !mask[0] || !mask[1] || !mask[2] {
		t.Errorf("ParsePlanes(nil)=%v,%v; want all", mask, err)
	}
	mask, err = ParsePlanes([]int{2}, 3)
	if err != nil || mask[0] || mask[1] || !mask[2] {
		t.Errorf("ParsePlanes([2])=%v,%v; want [false false true]", mask, err)
	}
	if _, err := ParsePlanes([]int{3}, 3); err == nil {
		t.Errorf("out of range plane accepted")
	}
	if _, err := ParsePlanes([]int{-1}, 1); err == nil {
		t.Errorf("negative plane accepted")
	}
	modes := SelectPlanes([]rg.Mode{4, 4, 4}, mask)
	if modes[0] != 0 || modes[1] != 0 || modes[2] != 4 {
		t.Errorf("SelectPlanes=%v; want [0 0 4]", modes)
	}
}
