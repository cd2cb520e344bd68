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

package ops

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/rg"
	"github.com/mlnoga/rgtools/internal/stats"
	"github.com/valyala/fastrand"
)

// Temporal median of each frame with its predecessor and successor. Takes n inputs in
// sequence order, produces n outputs once all inputs are materialized
type OpClense struct {
	OpBase
	Planes []int `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpClenseDefault() }) } // register the operator for JSON decoding

func NewOpClenseDefault() *OpClense { return NewOpClense(nil) }

func NewOpClense(planes []int) *OpClense {
	return &OpClense{
		OpBase: OpBase{Type: "clense", Active: true},
		Planes: planes,
	}
}

func (op *OpClense) UnmarshalJSON(data []byte) error {
	type defaults OpClense
	def := defaults(*NewOpClenseDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpClense(def)
	return nil
}

func (op *OpClense) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("%s operator needs inputs", op.Type)
	}
	all := memoizeAll(func() ([]*frame.Frame, error) {
		fs, err := MaterializeAll(ins, c.MaxThreads, false) // materialize all input promises
		if err != nil {
			return nil, err
		}
		res, err := c.Engine.Clense(fs, op.Planes)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(c.Log, "Clensed %d frames\n", len(res))
		return res, nil
	})
	outs = make([]Promise, len(ins))
	for i := range outs {
		i := i
		outs[i] = func() (*frame.Frame, error) {
			fs, err := all()
			if err != nil {
				return nil, err
			}
			if i >= len(fs) {
				return nil, fmt.Errorf("%s operator lost frame %d", op.Type, i)
			}
			return fs[i], nil
		}
	}
	return outs, nil
}

// Returns a function which runs its argument once and shares the result
func memoizeAll(fn func() ([]*frame.Frame, error)) func() ([]*frame.Frame, error) {
	var (
		once sync.Once
		fs   []*frame.Frame
		err  error
	)
	return func() ([]*frame.Frame, error) {
		once.Do(func() { fs, err = fn() })
		return fs, err
	}
}

// Logs per-plane statistics and the estimated noise level. Passes frames through unchanged
type OpStats struct {
	OpUnaryBase
	Noise bool `json:"noise"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpStatsDefault() }) } // register the operator for JSON decoding

func NewOpStatsDefault() *OpStats { return NewOpStats(true) }

func NewOpStats(noise bool) *OpStats {
	op := OpStats{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "stats", Active: true}},
		Noise:       noise,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpStats) UnmarshalJSON(data []byte) error {
	type defaults OpStats
	def := defaults(*NewOpStatsDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpStats(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpStats) Apply(f *frame.Frame, c *Context) (*frame.Frame, error) {
	for i, p := range f.Planes {
		s := stats.Calculate(p)
		noise := ""
		if op.Noise {
			sigma, err := stats.EstimateNoise(p, f.Width)
			if err != nil {
				noise = fmt.Sprintf(" noise n/a (%v)", err)
			} else {
				noise = fmt.Sprintf(" noise %.4g", sigma)
			}
		}
		fmt.Fprintf(c.Log, "%d: Plane %d %v%s\n", f.ID, i, s, noise)
	}
	return f, nil
}

// Creates frames of uniform random samples, for testing and benchmarking pipelines.
// Takes zero inputs, produces Count outputs
type OpNoise struct {
	OpBase
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Family string    `json:"family"`
	Format rg.Format `json:"format"`
	Count  int       `json:"count"`
	Seed   uint32    `json:"seed"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpNoiseDefault() }) } // register the operator for JSON decoding

func NewOpNoiseDefault() *OpNoise { return NewOpNoise(64, 64, "gray", rg.Format8, 1, 1) }

func NewOpNoise(width, height int, family string, format rg.Format, count int, seed uint32) *OpNoise {
	return &OpNoise{
		OpBase: OpBase{Type: "noise", Active: true},
		Width:  width,
		Height: height,
		Family: family,
		Format: format,
		Count:  count,
		Seed:   seed,
	}
}

func (op *OpNoise) UnmarshalJSON(data []byte) error {
	type defaults OpNoise
	def := defaults(*NewOpNoiseDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpNoise(def)
	return nil
}

func (op *OpNoise) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) > 0 {
		return nil, fmt.Errorf("%s operator with non-zero input", op.Type)
	}
	family, err := frame.ParseColorFamily(op.Family)
	if err != nil {
		return nil, err
	}
	if err := op.Format.Validate(); err != nil {
		return nil, err
	}
	if op.Width <= 0 || op.Height <= 0 || op.Count <= 0 {
		return nil, fmt.Errorf("%s operator with size %dx%d and count %d", op.Type, op.Width, op.Height, op.Count)
	}
	for i := 0; i < op.Count; i++ {
		id := i
		outs = append(outs, func() (*frame.Frame, error) {
			rng := fastrand.RNG{}
			rng.Seed(op.Seed + uint32(id))
			f := frame.NewNoise(op.Width, op.Height, family, op.Format, &rng)
			f.ID = id
			fmt.Fprintf(c.Log, "%d: Generated %v noise frame\n", f.ID, f)
			return f, nil
		})
	}
	return outs, nil
}
