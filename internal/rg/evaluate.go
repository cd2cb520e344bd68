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

package rg

import "github.com/mlnoga/rgtools/internal/expr"

// The eight neighbors of a sample in compass order NW, N, NE, W, E, SW, S, SE
type Neighborhood [8]float64

// Flat neighborhood with all neighbors set to v
func Flat(v float64) Neighborhood {
	return Neighborhood{v, v, v, v, v, v, v, v}
}

// One formula evaluation. For remove-grain the subject is also the reference, only
// Subject and ReferenceNeighbors are read. Repair formulas never read the subject
// neighbors, so SubjectNeighbors may be nil
type Request struct {
	Family             Family
	Mode               Mode
	Subject            float64
	Reference          float64
	SubjectNeighbors   *Neighborhood
	ReferenceNeighbors Neighborhood
	Bias               float64 // lower end of the valid range, see PlaneBias
	Format             Format
}

// Binds the request to the operands of a program
func (r *Request) Bind(env *expr.Env) {
	env[expr.X] = r.Subject
	env[expr.Y] = r.Reference
	xs := r.SubjectNeighbors
	if r.Family == RemoveGrain {
		env[expr.Y] = r.Subject
		if xs == nil {
			xs = &r.ReferenceNeighbors
		}
	}
	for i, o := range expr.ReferenceRing {
		env[o] = r.ReferenceNeighbors[i]
	}
	for i, o := range expr.SubjectRing {
		if xs != nil {
			env[o] = xs[i]
		} else {
			env[o] = r.Subject
		}
	}
	env[expr.Lo] = r.Bias
	env[expr.Hi] = r.Bias + r.Format.Peak()
}

// Programs indexed by family, integer format and mode. Nil where unsupported
var programs [2][2][MaxMode + 1]*expr.Program

func init() {
	for fi, f := range []Family{Repair, RemoveGrain} {
		for ii, integer := range []bool{false, true} {
			for m := Mode(0); m <= MaxMode; m++ {
				if CheckMode(f, m) != nil {
					continue
				}
				if f == Repair {
					programs[fi][ii][m] = repairProgram(m)
				} else {
					programs[fi][ii][m] = removeGrainProgram(m, integer)
				}
			}
		}
	}
}

// Returns the shared program for a family, mode and sample format
func Program(f Family, m Mode, format Format) (*expr.Program, error) {
	if err := CheckMode(f, m); err != nil {
		return nil, err
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	ii := 0
	if format.Integer {
		ii = 1
	}
	return programs[f][ii][m], nil
}

// Evaluates a formula on one neighborhood. The result is unrounded, see Quantize.
// Returns an error wrapping ErrUnsupportedMode or ErrNeedsNativeBackend for modes
// that cannot be evaluated here
func Evaluate(r *Request) (float64, error) {
	p, err := Program(r.Family, r.Mode, r.Format)
	if err != nil {
		return 0, err
	}
	var env expr.Env
	r.Bind(&env)
	return p.Eval(&env), nil
}

// Returns the postfix text of a formula, for debugging and the REST API
func Text(f Family, m Mode, format Format) (string, error) {
	p, err := Program(f, m, format)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}
