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

// Package filter runs repair, remove-grain and related filters over whole frames.
// Each call builds a dispatch plan once, copies the subject, and then recomputes the
// interior rows of each selected plane in parallel. Border samples keep their values.
package filter

import (
	"fmt"

	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/expr"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/median"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Runs filters with the given capabilities on up to Workers goroutines, or all CPUs if <= 0
type Engine struct {
	Caps    dispatch.Capabilities
	Workers int
}

func NewEngine(caps dispatch.Capabilities, workers int) *Engine {
	return &Engine{Caps: caps, Workers: workers}
}

// Executes a plan. Reference is ignored for remove-grain and may be nil.
// Returns a new frame, the inputs are not modified
func (e *Engine) Apply(p *dispatch.Plan, subject, reference *frame.Frame) (*frame.Frame, error) {
	if len(p.Steps) != subject.NumPlanes() {
		return nil, fmt.Errorf("plan has %d planes, frame %d has %d", len(p.Steps), subject.ID, subject.NumPlanes())
	}
	if subject.Format != p.Format {
		return nil, fmt.Errorf("plan is for %s, frame %d is %s", p.Format, subject.ID, subject.Format)
	}
	if p.Family == rg.RemoveGrain || reference == nil {
		reference = subject
	} else if err := subject.CheckCompatible(reference); err != nil {
		return nil, err
	}

	out := subject.Clone()
	if subject.Width < 3 || subject.Height < 3 {
		return out, nil
	}
	for i, s := range p.Steps {
		if s.Backend == dispatch.Passthrough {
			continue
		}
		bias := subject.Bias(i)
		rf, err := rowFunction(p, s, out.Planes[i], subject.Planes[i], reference.Planes[i], subject.Width, bias)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
		frame.ApplyRows(1, subject.Height-1, e.Workers, rf)
	}
	return out, nil
}

// Returns the row function computing one step on a plane, quantizing integer results
func rowFunction(p *dispatch.Plan, s dispatch.Step, dst, sub, ref []float32, width int, bias float64) (frame.RowFunction, error) {
	var rf frame.RowFunction
	switch s.Backend {
	case dispatch.Expression:
		prog, err := rg.Program(p.Family, s.Mode, p.Format)
		if err != nil {
			return nil, err
		}
		lo, hi := bias, bias+p.Format.Peak()
		rf = func(y0, y1 int) { expressionRows(prog, dst, sub, ref, width, y0, y1, lo, hi) }
	case dispatch.Convolution:
		if s.Unrolled {
			rf = func(y0, y1 int) { s.Kernel.FilterRowsUnrolled(dst, sub, width, y0, y1) }
		} else {
			rf = func(y0, y1 int) { s.Kernel.FilterRows(dst, sub, width, y0, y1) }
		}
	case dispatch.Median:
		rf = func(y0, y1 int) { median.FilterRowsSortedColumns(dst, sub, width, y0, y1) }
	case dispatch.MinMax:
		rf = func(y0, y1 int) { minMaxRows(dst, sub, ref, width, y0, y1) }
	case dispatch.NativePlugin:
		if p.Native == nil {
			return nil, fmt.Errorf("%s mode %d: %w", p.Family, s.Mode, rg.ErrNeedsNativeBackend)
		}
		rf = func(y0, y1 int) { p.Native.FilterRows(p.Family, s.Mode, dst, sub, ref, width, y0, y1) }
	default:
		return nil, fmt.Errorf("unknown backend %s", s.Backend)
	}
	if !p.Format.Integer {
		return rf, nil
	}
	return func(y0, y1 int) {
		rf(y0, y1)
		quantizeRows(dst, width, y0, y1, p.Format)
	}, nil
}

// Offsets of the neighbors in compass order NW, N, NE, W, E, SW, S, SE
var ringOffsets = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

func expressionRows(prog *expr.Program, dst, sub, ref []float32, width, y0, y1 int, lo, hi float64) {
	var env expr.Env
	env[expr.Lo], env[expr.Hi] = lo, hi
	for y := y0; y < y1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			env[expr.X], env[expr.Y] = float64(sub[i]), float64(ref[i])
			for j, d := range ringOffsets {
				k := i + d[1]*width + d[0]
				env[expr.SubjectRing[j]] = float64(sub[k])
				env[expr.ReferenceRing[j]] = float64(ref[k])
			}
			dst[i] = float32(prog.Eval(&env))
		}
	}
}

// Clamps each subject sample to the minimum and maximum of the reference 3x3 neighborhood
func minMaxRows(dst, sub, ref []float32, width, y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			lo, hi := ref[i], ref[i]
			for _, d := range ringOffsets {
				v := ref[i+d[1]*width+d[0]]
				lo, hi = min(lo, v), max(hi, v)
			}
			dst[i] = max(lo, min(hi, sub[i]))
		}
	}
}

func quantizeRows(dst []float32, width, y0, y1 int, f rg.Format) {
	row := dst[y0*width : y1*width]
	for i, v := range row {
		row[i] = float32(rg.Quantize(float64(v), f))
	}
}
