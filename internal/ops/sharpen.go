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

	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Filters each input with an embedded operation, then contra-sharpens the filtered frame
// against the input, so that sharpening never adds back more than filtering removed
type OpContraSharpen struct {
	OpBase
	Radius       int             `json:"radius"` // 0 picks by frame size
	Rep          rg.Mode         `json:"rep"`
	Planes       []int           `json:"planes"`
	Operation    Operator        `json:"-"`
	OperationRaw json.RawMessage `json:"operation"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpContraSharpenDefault() }) } // register the operator for JSON decoding

func NewOpContraSharpenDefault() *OpContraSharpen { return NewOpContraSharpen(0, 13, nil, nil) }

func NewOpContraSharpen(radius int, rep rg.Mode, planes []int, operation Operator) *OpContraSharpen {
	return &OpContraSharpen{
		OpBase:    OpBase{Type: "contraSharpen", Active: true},
		Radius:    radius,
		Rep:       rep,
		Planes:    planes,
		Operation: operation,
	}
}

func (op *OpContraSharpen) UnmarshalJSON(b []byte) error {
	type defaults OpContraSharpen
	def := defaults(*NewOpContraSharpenDefault())
	if err := json.Unmarshal(b, &def); err != nil {
		return err
	}
	*op = OpContraSharpen(def)
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

func (op *OpContraSharpen) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OpBase
		Radius    int      `json:"radius"`
		Rep       rg.Mode  `json:"rep"`
		Planes    []int    `json:"planes"`
		Operation Operator `json:"operation"`
	}{op.OpBase, op.Radius, op.Rep, op.Planes, op.Operation})
}

func (op *OpContraSharpen) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	return pairWithFiltered(op.Type, ins, op.Operation, c, func(filtered, source *frame.Frame) (*frame.Frame, error) {
		return op.Apply(filtered, source, c)
	})
}

func (op *OpContraSharpen) Apply(filtered, source *frame.Frame, c *Context) (*frame.Frame, error) {
	if !op.Active {
		return filtered, nil
	}
	res, err := c.Engine.ContraSharpening(filtered, source, op.Radius, op.Rep, op.Planes)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", filtered.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Contra-sharpened with radius %d repair mode %d\n", filtered.ID, op.Radius, op.Rep)
	return res, nil
}

// Sharpens by convolution with horizontal and vertical amounts
type OpSharpenConv struct {
	OpUnaryBase
	AmountH float64 `json:"amountH"`
	AmountV float64 `json:"amountV"`
	Radius  int     `json:"radius"`
	Planes  []int   `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpSharpenConvDefault() }) } // register the operator for JSON decoding

func NewOpSharpenConvDefault() *OpSharpenConv { return NewOpSharpenConv(1, 1, 1, nil) }

func NewOpSharpenConv(amountH, amountV float64, radius int, planes []int) *OpSharpenConv {
	op := OpSharpenConv{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "sharpenConv", Active: true}},
		AmountH:     amountH,
		AmountV:     amountV,
		Radius:      radius,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpSharpenConv) UnmarshalJSON(data []byte) error {
	type defaults OpSharpenConv
	def := defaults(*NewOpSharpenConvDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpSharpenConv(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpSharpenConv) Apply(f *frame.Frame, c *Context) (*frame.Frame, error) {
	res, err := c.Engine.Sharpen(f, op.AmountH, op.AmountV, op.Radius, op.Planes)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Sharpened with amounts %g,%g radius %d\n", f.ID, op.AmountH, op.AmountV, op.Radius)
	return res, nil
}

// Sharpens with an unsharp mask
type OpUnsharpMask struct {
	OpUnaryBase
	Radius   int     `json:"radius"`
	Strength float64 `json:"strength"` // percent
	Planes   []int   `json:"planes"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpUnsharpMaskDefault() }) } // register the operator for JSON decoding

func NewOpUnsharpMaskDefault() *OpUnsharpMask { return NewOpUnsharpMask(1, 100, nil) }

func NewOpUnsharpMask(radius int, strength float64, planes []int) *OpUnsharpMask {
	op := OpUnsharpMask{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "unsharpMask", Active: true}},
		Radius:      radius,
		Strength:    strength,
		Planes:      planes,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpUnsharpMask) UnmarshalJSON(data []byte) error {
	type defaults OpUnsharpMask
	def := defaults(*NewOpUnsharpMaskDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpUnsharpMask(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpUnsharpMask) Apply(f *frame.Frame, c *Context) (*frame.Frame, error) {
	res, err := c.Engine.UnsharpMasked(f, op.Radius, op.Strength, op.Planes)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", f.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Unsharp masked with radius %d strength %g\n", f.ID, op.Radius, op.Strength)
	return res, nil
}
