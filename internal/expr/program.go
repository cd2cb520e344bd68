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

package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MaxStack     = 64 // maximum stack depth of a program
	MaxRegisters = 32 // maximum number of named registers of a program
)

// Describes why a program is malformed. Programs built in code panic with this error,
// as a malformed formula is a defect and not a runtime condition
type MalformedError struct {
	Pos    int // instruction index, -1 if not tied to an instruction
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("malformed program: %s", e.Reason)
	}
	return fmt.Sprintf("malformed program at instruction %d: %s", e.Pos, e.Reason)
}

// A validated stack program. Immutable after construction, and safe for concurrent evaluation
type Program struct {
	code      []Instruction
	registers []string
	depth     int
}

// Creates a program from instructions and register names, checking stack balance,
// operand and register references and limits
func NewProgram(code []Instruction, registers []string) (*Program, error) {
	p := &Program{
		code:      append([]Instruction(nil), code...),
		registers: append([]string(nil), registers...),
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) validate() error {
	if len(p.code) == 0 {
		return &MalformedError{Pos: -1, Reason: "empty program"}
	}
	if len(p.registers) > MaxRegisters {
		return &MalformedError{Pos: -1, Reason: fmt.Sprintf("%d registers exceed limit %d", len(p.registers), MaxRegisters)}
	}
	bound := make([]bool, len(p.registers))
	depth, maxDepth := 0, 0
	for i, in := range p.code {
		switch in.Op {
		case OpLoad:
			if in.Arg < 0 || in.Arg >= int(NumOperands) {
				return &MalformedError{Pos: i, Reason: fmt.Sprintf("unknown operand %d", in.Arg)}
			}
		case OpFetch, OpStore:
			if in.Arg < 0 || in.Arg >= len(p.registers) {
				return &MalformedError{Pos: i, Reason: fmt.Sprintf("unknown register %d", in.Arg)}
			}
			if in.Op == OpFetch && !bound[in.Arg] {
				return &MalformedError{Pos: i, Reason: fmt.Sprintf("register %s read before it is stored", p.registers[in.Arg])}
			}
		case OpSort, OpSwap, OpDrop:
			if in.Arg < 1 {
				return &MalformedError{Pos: i, Reason: fmt.Sprintf("%s count %d must be positive", in.Op, in.Arg)}
			}
		case OpDup:
			if in.Arg < 0 {
				return &MalformedError{Pos: i, Reason: fmt.Sprintf("dup offset %d is negative", in.Arg)}
			}
		}
		needs, delta := in.stackEffect()
		if needs < 0 {
			return &MalformedError{Pos: i, Reason: fmt.Sprintf("unknown instruction %s", in.Op)}
		}
		if depth < needs {
			return &MalformedError{Pos: i, Reason: fmt.Sprintf("stack underflow, %s needs %d items, has %d", in.Op, needs, depth)}
		}
		if in.Op == OpStore {
			bound[in.Arg] = true
		}
		depth += delta
		if depth > maxDepth {
			maxDepth = depth
		}
		if maxDepth > MaxStack {
			return &MalformedError{Pos: i, Reason: fmt.Sprintf("stack depth exceeds limit %d", MaxStack)}
		}
	}
	if depth != 1 {
		return &MalformedError{Pos: -1, Reason: fmt.Sprintf("program leaves %d items on the stack, want 1", depth)}
	}
	p.depth = maxDepth
	return nil
}

// Returns a copy of the instructions
func (p *Program) Instructions() []Instruction { return append([]Instruction(nil), p.code...) }

// Returns the register names, indexed by register number
func (p *Program) Registers() []string { return append([]string(nil), p.registers...) }

// Returns the number of instructions
func (p *Program) Len() int { return len(p.code) }

// Returns the maximum stack depth reached during evaluation
func (p *Program) Depth() int { return p.depth }

// Returns true if every division in the program divides by a non-zero constant
// pushed immediately before it, so that no evaluation can divide by zero
func (p *Program) ConstantDivisors() bool {
	for i, in := range p.code {
		if in.Op != OpDiv {
			continue
		}
		if i == 0 || p.code[i-1].Op != OpConst || p.code[i-1].Value == 0 {
			return false
		}
	}
	return true
}

// Evaluates the program on the given operand bindings. Pure, allocation-free and safe
// to call concurrently. Panics on a program that was not created through NewProgram,
// a Builder or Parse
func (p *Program) Eval(env *Env) float64 {
	if p == nil || p.depth == 0 {
		panic(&MalformedError{Pos: -1, Reason: "evaluating an unvalidated program"})
	}
	var stack [MaxStack]float64
	var regs [MaxRegisters]float64
	sp := 0
	for _, in := range p.code {
		switch in.Op {
		case OpConst:
			stack[sp] = in.Value
			sp++
		case OpLoad:
			stack[sp] = env[in.Arg]
			sp++
		case OpFetch:
			stack[sp] = regs[in.Arg]
			sp++
		case OpStore:
			sp--
			regs[in.Arg] = stack[sp]
		case OpAdd:
			sp--
			stack[sp-1] += stack[sp]
		case OpSub:
			sp--
			stack[sp-1] -= stack[sp]
		case OpMul:
			sp--
			stack[sp-1] *= stack[sp]
		case OpDiv:
			sp--
			stack[sp-1] /= stack[sp]
		case OpMin:
			sp--
			if stack[sp] < stack[sp-1] {
				stack[sp-1] = stack[sp]
			}
		case OpMax:
			sp--
			if stack[sp] > stack[sp-1] {
				stack[sp-1] = stack[sp]
			}
		case OpAbs:
			stack[sp-1] = math.Abs(stack[sp-1])
		case OpFloor:
			stack[sp-1] = math.Floor(stack[sp-1])
		case OpCeil:
			stack[sp-1] = math.Ceil(stack[sp-1])
		case OpRound:
			stack[sp-1] = math.Round(stack[sp-1])
		case OpLess:
			sp--
			stack[sp-1] = b2f(stack[sp-1] < stack[sp])
		case OpGreater:
			sp--
			stack[sp-1] = b2f(stack[sp-1] > stack[sp])
		case OpEqual:
			sp--
			stack[sp-1] = b2f(stack[sp-1] == stack[sp])
		case OpTernary:
			sp -= 2
			if !(stack[sp-1] > 0) {
				stack[sp-1] = stack[sp+1]
			} else {
				stack[sp-1] = stack[sp]
			}
		case OpClamp:
			sp -= 2
			v, lo, hi := stack[sp-1], stack[sp], stack[sp+1]
			if hi < v {
				v = hi
			}
			if lo > v {
				v = lo
			}
			stack[sp-1] = v
		case OpSort:
			sortSmallestOnTop(stack[sp-in.Arg : sp])
		case OpDup:
			stack[sp] = stack[sp-1-in.Arg]
			sp++
		case OpSwap:
			stack[sp-1], stack[sp-1-in.Arg] = stack[sp-1-in.Arg], stack[sp-1]
		case OpDrop:
			sp -= in.Arg
		default:
			panic(&MalformedError{Pos: -1, Reason: fmt.Sprintf("unknown instruction %s", in.Op)})
		}
	}
	return stack[0]
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Insertion sort into descending order, so the smallest value ends up at the end of the slice,
// i.e. on top of the stack. Fine for the handful of items formulas sort
func sortSmallestOnTop(a []float64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for ; j >= 0 && a[j] < v; j-- {
			a[j+1] = a[j]
		}
		a[j+1] = v
	}
}

// Returns the postfix text form of the program, which Parse accepts
func (p *Program) String() string {
	b := strings.Builder{}
	for i, in := range p.code {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.token(in))
	}
	return b.String()
}

func (p *Program) token(in Instruction) string {
	switch in.Op {
	case OpConst:
		return strconv.FormatFloat(in.Value, 'g', -1, 64)
	case OpLoad:
		return Operand(in.Arg).String()
	case OpFetch:
		return p.registers[in.Arg] + "@"
	case OpStore:
		return p.registers[in.Arg] + "!"
	case OpSort:
		return fmt.Sprintf("sort%d", in.Arg)
	case OpDup:
		if in.Arg == 0 {
			return "dup"
		}
		return fmt.Sprintf("dup%d", in.Arg)
	case OpSwap:
		if in.Arg == 1 {
			return "swap"
		}
		return fmt.Sprintf("swap%d", in.Arg)
	case OpDrop:
		if in.Arg == 1 {
			return "drop"
		}
		return fmt.Sprintf("drop%d", in.Arg)
	}
	return in.Op.String()
}
