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

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Removes grain with per-plane modes
type OpRemoveGrain struct {
	OpUnaryBase
	Modes  []rg.Mode `json:"modes"`
	Planes []int     `json:"planes"` // nil for all planes
}

func init() { SetOperatorFactory(func() Operator { return NewOpRemoveGrainDefault() }) } // register the operator for JSON decoding

func NewOpRemoveGrainDefault() *OpRemoveGrain { return NewOpRemoveGrain([]rg.Mode{2}, nil) }

func NewOpRemoveGrain(modes []rg.Mode, planes []int) *OpRemoveGrain {
	op := OpRemoveGrain{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "removeGrain", Active: true}},
		Modes:       modes,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpRemoveGrain) UnmarshalJSON(data []byte) error {
	type defaults OpRemoveGrain
	def := defaults(*NewOpRemoveGrainDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpRemoveGrain(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpRemoveGrain) Apply(f *frame.Frame, c *Context) (result *frame.Frame, err error) {
	p, err := c.Engine.Plan(rg.RemoveGrain, f, op.Modes, op.Planes)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	if result, err = c.Engine.Apply(p, f, nil); err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "%d: Applied %v\n", f.ID, p)
	return result, nil
}

// Filters each input with an embedded operation, then repairs the filtered frame
// against the input as reference. Without an operation, repairs the input against itself
type OpRepair struct {
	OpBase
	Modes        []rg.Mode       `json:"modes"`
	Planes       []int           `json:"planes"`
	Operation    Operator        `json:"-"`
	OperationRaw json.RawMessage `json:"operation"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpRepairDefault() }) } // register the operator for JSON decoding

func NewOpRepairDefault() *OpRepair { return NewOpRepair([]rg.Mode{2}, nil, nil) }

func NewOpRepair(modes []rg.Mode, planes []int, operation Operator) *OpRepair {
	return &OpRepair{
		OpBase:    OpBase{Type: "repair", Active: true},
		Modes:     modes,
		Planes:    planes,
		Operation: operation,
	}
}

func (op *OpRepair) UnmarshalJSON(b []byte) error {
	type defaults OpRepair
	def := defaults(*NewOpRepairDefault())
	if err := json.Unmarshal(b, &def); err != nil {
		return err
	}
	*op = OpRepair(def)
	if len(op.OperationRaw) > 0 && string(op.OperationRaw) != "null" {
		operation, err := UnmarshalOperator(op.OperationRaw)
		if err != nil {
			return err
		}
		op.Operation = operation
	}
	op.OperationRaw = nil
	return nil
}

func (op *OpRepair) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OpBase
		Modes     []rg.Mode `json:"modes"`
		Planes    []int     `json:"planes"`
		Operation Operator  `json:"operation"`
	}{op.OpBase, op.Modes, op.Planes, op.Operation})
}

func (op *OpRepair) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	return pairWithFiltered(op.Type, ins, op.Operation, c, func(filtered, source *frame.Frame) (*frame.Frame, error) {
		return op.Apply(filtered, source, c)
	})
}

// Makes one promise per input, which applies fn to the input filtered by the operation and
// to the input itself. Each input is materialized once. Without an operation, the input is
// passed as both arguments
func pairWithFiltered(typ string, ins []Promise, operation Operator, c *Context,
	fn func(filtered, source *frame.Frame) (*frame.Frame, error)) (outs []Promise, err error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("%s operator with %d inputs", typ, len(ins))
	}
	outs = make([]Promise, len(ins))
	for i, in := range ins {
		in := memoize(in)
		subject := in
		if operation != nil {
			filtered, err := operation.MakePromises([]Promise{in}, c)
			if err != nil {
				return nil, err
			}
			if len(filtered) != 1 {
				return nil, fmt.Errorf("%s operator needs exactly one promise from embedded operation", typ)
			}
			subject = filtered[0]
		}
		outs[i] = func() (*frame.Frame, error) {
			sub, err := subject()
			if err != nil {
				return nil, err
			}
			ref, err := in()
			if err != nil {
				return nil, err
			}
			return fn(sub, ref)
		}
	}
	return outs, nil
}

func (op *OpRepair) Apply(subject, reference *frame.Frame, c *Context) (*frame.Frame, error) {
	if !op.Active {
		return subject, nil
	}
	res, err := c.Engine.Repair(subject, reference, op.Modes, op.Planes)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", subject.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Repaired with modes %v against reference\n", subject.ID, op.Modes)
	return res, nil
}

// Returns a promise which materializes its input once and shares the result
func memoize(in Promise) Promise {
	var (
		once sync.Once
		f    *frame.Frame
		err  error
	)
	return func() (*frame.Frame, error) {
		once.Do(func() { f, err = in() })
		return f, err
	}
}

// Removes grain repeatedly, with a mode sequence per plane
type OpRemoveGrainM struct {
	OpUnaryBase
	Modes      [][]rg.Mode `json:"modes"`
	Iterations []int       `json:"iterations"` // nil for the length of each sequence
	Planes     []int       `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpRemoveGrainMDefault() }) } // register the operator for JSON decoding

func NewOpRemoveGrainMDefault() *OpRemoveGrainM {
	return NewOpRemoveGrainM([][]rg.Mode{{2}}, nil, nil)
}

func NewOpRemoveGrainM(modes [][]rg.Mode, iterations, planes []int) *OpRemoveGrainM {
	op := OpRemoveGrainM{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "removeGrainM", Active: true}},
		Modes:       modes,
		Iterations:  iterations,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpRemoveGrainM) UnmarshalJSON(data []byte) error {
	type defaults OpRemoveGrainM
	def := defaults(*NewOpRemoveGrainMDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpRemoveGrainM(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpRemoveGrainM) Apply(f *frame.Frame, c *Context) (*frame.Frame, error) {
	res, err := c.Engine.RemoveGrainM(f, op.Modes, op.Iterations, op.Planes)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Applied removegrain sequences %v\n", f.ID, op.Modes)
	return res, nil
}

// Blurs with per-plane radii. With weights given, convolves with that 3x3 kernel instead
type OpBlur struct {
	OpUnaryBase
	Radii     []int          `json:"radii"`
	Gauss     bool           `json:"gauss"`
	Direction conv.Direction `json:"direction"`
	Weights   *[9]float32    `json:"weights,omitempty"`
	Planes    []int          `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpBlurDefault() }) } // register the operator for JSON decoding

func NewOpBlurDefault() *OpBlur { return NewOpBlur([]int{1}, true, conv.Square, nil, nil) }

func NewOpBlur(radii []int, gauss bool, d conv.Direction, weights *[9]float32, planes []int) *OpBlur {
	op := OpBlur{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "blur", Active: true}},
		Radii:       radii,
		Gauss:       gauss,
		Direction:   d,
		Weights:     weights,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpBlur) UnmarshalJSON(data []byte) error {
	type defaults OpBlur
	def := defaults(*NewOpBlurDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpBlur(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpBlur) Apply(f *frame.Frame, c *Context) (res *frame.Frame, err error) {
	if op.Weights != nil {
		res, err = c.Engine.BoxBlur(f, *op.Weights, op.Planes)
	} else {
		res, err = c.Engine.Blur(f, op.Radii, op.Gauss, op.Direction, op.Planes)
	}
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Applied blur radii %v gauss %v direction %s\n", f.ID, op.Radii, op.Gauss, op.Direction)
	return res, nil
}

// Limits detail by sharpen-by-reverse or min-blur with per-plane radii
type OpSharpen struct {
	OpUnaryBase
	MinBlur   bool           `json:"minBlur"` // else sbr
	Radii     []int          `json:"radii"`
	Direction conv.Direction `json:"direction"`
	Planes    []int          `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpSharpenDefault() }) } // register the operator for JSON decoding

func NewOpSharpenDefault() *OpSharpen { return NewOpSharpen(false, []int{1}, conv.Square, nil) }

func NewOpSharpen(minBlur bool, radii []int, d conv.Direction, planes []int) *OpSharpen {
	op := OpSharpen{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "sharpen", Active: true}},
		MinBlur:     minBlur,
		Radii:       radii,
		Direction:   d,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpSharpen) UnmarshalJSON(data []byte) error {
	type defaults OpSharpen
	def := defaults(*NewOpSharpenDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpSharpen(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpSharpen) Apply(f *frame.Frame, c *Context) (res *frame.Frame, err error) {
	name := "sbr"
	if op.MinBlur {
		name = "minblur"
		res, err = c.Engine.MinBlur(f, op.Radii, op.Direction, op.Planes)
	} else {
		res, err = c.Engine.Sbr(f, op.Radii, op.Direction, op.Planes)
	}
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Applied %s radii %v direction %s\n", f.ID, name, op.Radii, op.Direction)
	return res, nil
}

// Cleans vertically or horizontally with per-plane modes 0..2
type OpCleaner struct {
	OpUnaryBase
	Modes      []int `json:"modes"`
	Horizontal bool  `json:"horizontal"`
	Planes     []int `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpCleanerDefault() }) } // register the operator for JSON decoding

func NewOpCleanerDefault() *OpCleaner { return NewOpCleaner([]int{1}, false, nil) }

func NewOpCleaner(modes []int, horizontal bool, planes []int) *OpCleaner {
	op := OpCleaner{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "cleaner", Active: true}},
		Modes:       modes,
		Horizontal:  horizontal,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpCleaner) UnmarshalJSON(data []byte) error {
	type defaults OpCleaner
	def := defaults(*NewOpCleanerDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpCleaner(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpCleaner) Apply(f *frame.Frame, c *Context) (res *frame.Frame, err error) {
	dir := "vertical"
	if op.Horizontal {
		dir = "horizontal"
		res, err = c.Engine.HorizontalCleaner(f, op.Modes, op.Planes)
	} else {
		res, err = c.Engine.VerticalCleaner(f, op.Modes, op.Planes)
	}
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Applied %s cleaner modes %v\n", f.ID, dir, op.Modes)
	return res, nil
}

// Converts frames to another color family and sample format
type OpConvert struct {
	OpUnaryBase
	Family string    `json:"family"` // empty to keep
	Format rg.Format `json:"format"` // zero to keep
}

func init() { SetOperatorFactory(func() Operator { return NewOpConvertDefault() }) } // register the operator for JSON decoding

func NewOpConvertDefault() *OpConvert { return NewOpConvert("", rg.Format{}) }

func NewOpConvert(family string, format rg.Format) *OpConvert {
	op := OpConvert{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "convert", Active: true}},
		Family:      family,
		Format:      format,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpConvert) UnmarshalJSON(data []byte) error {
	type defaults OpConvert
	def := defaults(*NewOpConvertDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpConvert(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpConvert) Apply(f *frame.Frame, c *Context) (res *frame.Frame, err error) {
	res = f
	if op.Family != "" {
		family, err := frame.ParseColorFamily(op.Family)
		if err != nil {
			return nil, err
		}
		if res, err = res.ToFamily(family, c.Engine.Workers); err != nil {
			return nil, fmt.Errorf("%d: %w", f.ID, err)
		}
	}
	if op.Format != (rg.Format{}) {
		if res, err = res.ToFormat(op.Format, c.Engine.Workers); err != nil {
			return nil, fmt.Errorf("%d: %w", f.ID, err)
		}
	}
	fmt.Fprintf(c.Log, "%d: Converted to %v\n", f.ID, res)
	return res, nil
}
