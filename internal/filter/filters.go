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

package filter

import (
	"fmt"

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Builds a plan for per-plane modes, broadcast to the plane count, with unselected planes passed through
func (e *Engine) Plan(fam rg.Family, f *frame.Frame, modes []rg.Mode, planes []int) (*dispatch.Plan, error) {
	modes, err := dispatch.NormaliseModes(modes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	mask, err := dispatch.ParsePlanes(planes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	return dispatch.NewPlan(e.Caps, fam, dispatch.SelectPlanes(modes, mask), f.Format)
}

// Applies remove-grain with the given per-plane modes to the selected planes, nil for all
func (e *Engine) RemoveGrain(f *frame.Frame, modes []rg.Mode, planes []int) (*frame.Frame, error) {
	p, err := e.Plan(rg.RemoveGrain, f, modes, planes)
	if err != nil {
		return nil, err
	}
	return e.Apply(p, f, nil)
}

// Repairs the subject frame with the neighborhoods of the reference frame
func (e *Engine) Repair(subject, reference *frame.Frame, modes []rg.Mode, planes []int) (*frame.Frame, error) {
	if err := subject.CheckCompatible(reference); err != nil {
		return nil, err
	}
	p, err := e.Plan(rg.Repair, subject, modes, planes)
	if err != nil {
		return nil, err
	}
	return e.Apply(p, subject, reference)
}

// Applies remove-grain repeatedly. Modes holds one mode sequence per plane, broadcast
// to the plane count. Each plane runs iterations[plane] passes, by default the length
// of its sequence; sequences shorter than that repeat their last mode. Planes which run
// out of passes, or are not selected, pass through
func (e *Engine) RemoveGrainM(f *frame.Frame, modes [][]rg.Mode, iterations []int, planes []int) (*frame.Frame, error) {
	n := f.NumPlanes()
	if len(modes) == 0 {
		return nil, fmt.Errorf("empty mode list")
	}
	mask, err := dispatch.ParsePlanes(planes, n)
	if err != nil {
		return nil, err
	}
	seqs := make([][]rg.Mode, n)
	for i := range seqs {
		seqs[i] = modes[min(i, len(modes)-1)]
		if len(seqs[i]) == 0 {
			return nil, fmt.Errorf("plane %d: empty mode sequence", i)
		}
	}
	if len(iterations) == 0 {
		iterations = make([]int, n)
		for i := range iterations {
			iterations[i] = len(seqs[i])
		}
	}
	iters, err := dispatch.NormaliseInts(iterations, n)
	if err != nil {
		return nil, err
	}
	total := 0
	for i := range iters {
		if iters[i] < 0 {
			return nil, fmt.Errorf("plane %d: negative iteration count %d", i, iters[i])
		}
		if !mask[i] {
			iters[i] = 0
		}
		total = max(total, iters[i])
	}

	// plan every pass up front so that invalid modes fail before any work is done
	ps := make([]*dispatch.Plan, total)
	for it := range ps {
		pass := make([]rg.Mode, n)
		for i := range pass {
			if it < iters[i] {
				pass[i] = seqs[i][min(it, len(seqs[i])-1)]
			}
		}
		if ps[it], err = dispatch.NewPlan(e.Caps, rg.RemoveGrain, pass, f.Format); err != nil {
			return nil, fmt.Errorf("pass %d: %w", it+1, err)
		}
	}
	res := f
	for _, p := range ps {
		if res, err = e.Apply(p, res, nil); err != nil {
			return nil, err
		}
	}
	if res == f {
		res = f.Clone()
	}
	return res, nil
}

// Convolves the selected planes with a 3x3 kernel, normalized by the sum of its weights
func (e *Engine) BoxBlur(f *frame.Frame, weights [9]float32, planes []int) (*frame.Frame, error) {
	k, err := conv.NewKernel(weights)
	if err != nil {
		return nil, err
	}
	mask, err := dispatch.ParsePlanes(planes, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	p := &dispatch.Plan{Family: rg.RemoveGrain, Format: f.Format, Steps: make([]dispatch.Step, f.NumPlanes())}
	for i := range p.Steps {
		if mask[i] {
			p.Steps[i] = dispatch.Step{Backend: dispatch.Convolution, Kernel: k, Unrolled: e.Caps.AVX2}
		}
	}
	return e.Apply(p, f, nil)
}
