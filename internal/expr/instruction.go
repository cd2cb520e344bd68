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

// Package expr implements a small stack machine for per-pixel neighborhood formulas.
// Programs are sequences of typed instructions, built with a fluent Builder or parsed
// from the postfix text form used for debugging, and evaluated against an Env which
// binds the center samples, the two 3x3 neighborhoods and the plane value range.
package expr

import "fmt"

// An instruction opcode
type Opcode uint8

const (
	OpConst   Opcode = iota // push constant Value
	OpLoad                  // push bound operand Arg
	OpFetch                 // push register Arg
	OpStore                 // pop into register Arg
	OpAdd                   // a b + -> a+b
	OpSub                   // a b - -> a-b
	OpMul                   // a b * -> a*b
	OpDiv                   // a b / -> a/b
	OpMin                   // a b min
	OpMax                   // a b max
	OpAbs                   // a abs
	OpFloor                 // a floor
	OpCeil                  // a ceil
	OpRound                 // a round, half away from zero
	OpLess                  // a b < -> 1 if a<b else 0
	OpGreater               // a b > -> 1 if a>b else 0
	OpEqual                 // a b = -> 1 if a==b else 0
	OpTernary               // c a b ? -> a if c>0 else b
	OpClamp                 // v lo hi clamp -> max(lo, min(hi, v))
	OpSort                  // sort the top Arg items, smallest ends on top
	OpDup                   // push a copy of the item Arg below the top
	OpSwap                  // swap the top with the item Arg below it
	OpDrop                  // discard the top Arg items
	numOpcodes
)

// Text tokens of the fixed-arity opcodes
var opcodeTokens = [numOpcodes]string{
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpMin:     "min",
	OpMax:     "max",
	OpAbs:     "abs",
	OpFloor:   "floor",
	OpCeil:    "ceil",
	OpRound:   "round",
	OpLess:    "<",
	OpGreater: ">",
	OpEqual:   "=",
	OpTernary: "?",
	OpClamp:   "clamp",
}

func (op Opcode) String() string {
	switch op {
	case OpConst:
		return "const"
	case OpLoad:
		return "load"
	case OpFetch:
		return "fetch"
	case OpStore:
		return "store"
	case OpSort:
		return "sort"
	case OpDup:
		return "dup"
	case OpSwap:
		return "swap"
	case OpDrop:
		return "drop"
	}
	if op < numOpcodes {
		return opcodeTokens[op]
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// A bound input of a program. The subject is the plane being filtered, the reference
// is the plane supplying neighborhood statistics. For remove-grain both are the same plane
type Operand uint8

const (
	X   Operand = iota // subject center
	Y                  // reference center
	XNW                // subject neighbors in compass order
	XN
	XNE
	XW
	XE
	XSW
	XS
	XSE
	YNW // reference neighbors in compass order
	YN
	YNE
	YW
	YE
	YSW
	YS
	YSE
	Lo // lower end of the valid plane range
	Hi // upper end of the valid plane range
	NumOperands
)

var operandNames = [NumOperands]string{
	X: "x", Y: "y",
	XNW: "x[-1,-1]", XN: "x[0,-1]", XNE: "x[1,-1]", XW: "x[-1,0]", XE: "x[1,0]", XSW: "x[-1,1]", XS: "x[0,1]", XSE: "x[1,1]",
	YNW: "y[-1,-1]", YN: "y[0,-1]", YNE: "y[1,-1]", YW: "y[-1,0]", YE: "y[1,0]", YSW: "y[-1,1]", YS: "y[0,1]", YSE: "y[1,1]",
	Lo: "lo", Hi: "hi",
}

func (o Operand) String() string {
	if o < NumOperands {
		return operandNames[o]
	}
	return fmt.Sprintf("operand(%d)", uint8(o))
}

// Subject and reference neighbors, indexed by compass position NW, N, NE, W, E, SW, S, SE
var (
	SubjectRing   = [8]Operand{XNW, XN, XNE, XW, XE, XSW, XS, XSE}
	ReferenceRing = [8]Operand{YNW, YN, YNE, YW, YE, YSW, YS, YSE}
)

// Values bound to the operands for one evaluation
type Env [NumOperands]float64

// A single stack machine instruction. Arg is the operand, register or count,
// Value the constant for OpConst
type Instruction struct {
	Op    Opcode
	Arg   int
	Value float64
}

// Returns the number of items an instruction needs on the stack, and its net effect on the depth
func (in Instruction) stackEffect() (needs, delta int) {
	switch in.Op {
	case OpConst, OpLoad, OpFetch:
		return 0, 1
	case OpStore:
		return 1, -1
	case OpAdd, OpSub, OpMul, OpDiv, OpMin, OpMax, OpLess, OpGreater, OpEqual:
		return 2, -1
	case OpAbs, OpFloor, OpCeil, OpRound:
		return 1, 0
	case OpTernary, OpClamp:
		return 3, -2
	case OpSort:
		return in.Arg, 0
	case OpDup:
		return in.Arg + 1, 1
	case OpSwap:
		return in.Arg + 1, 0
	case OpDrop:
		return in.Arg, -in.Arg
	}
	return -1, 0
}
