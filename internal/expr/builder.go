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

// Fluent builder for programs. Register names are interned in order of first use.
// Usage: NewBuilder().Load(X).Load(XNW).Min().Build()
type Builder struct {
	code      []Instruction
	registers []string
	index     map[string]int
}

func NewBuilder() *Builder {
	return &Builder{index: map[string]int{}}
}

func (b *Builder) emit(op Opcode, arg int, value float64) *Builder {
	b.code = append(b.code, Instruction{Op: op, Arg: arg, Value: value})
	return b
}

func (b *Builder) register(name string) int {
	if r, ok := b.index[name]; ok {
		return r
	}
	r := len(b.registers)
	b.registers = append(b.registers, name)
	b.index[name] = r
	return r
}

func (b *Builder) Const(v float64) *Builder   { return b.emit(OpConst, 0, v) }
func (b *Builder) Load(o Operand) *Builder    { return b.emit(OpLoad, int(o), 0) }
func (b *Builder) Fetch(name string) *Builder { return b.emit(OpFetch, b.register(name), 0) }
func (b *Builder) Store(name string) *Builder { return b.emit(OpStore, b.register(name), 0) }
func (b *Builder) Add() *Builder              { return b.emit(OpAdd, 0, 0) }
func (b *Builder) Sub() *Builder              { return b.emit(OpSub, 0, 0) }
func (b *Builder) Mul() *Builder              { return b.emit(OpMul, 0, 0) }
func (b *Builder) Div() *Builder              { return b.emit(OpDiv, 0, 0) }
func (b *Builder) Min() *Builder              { return b.emit(OpMin, 0, 0) }
func (b *Builder) Max() *Builder              { return b.emit(OpMax, 0, 0) }
func (b *Builder) Abs() *Builder              { return b.emit(OpAbs, 0, 0) }
func (b *Builder) Floor() *Builder            { return b.emit(OpFloor, 0, 0) }
func (b *Builder) Ceil() *Builder             { return b.emit(OpCeil, 0, 0) }
func (b *Builder) Round() *Builder            { return b.emit(OpRound, 0, 0) }
func (b *Builder) Less() *Builder             { return b.emit(OpLess, 0, 0) }
func (b *Builder) Greater() *Builder          { return b.emit(OpGreater, 0, 0) }
func (b *Builder) Equal() *Builder            { return b.emit(OpEqual, 0, 0) }
func (b *Builder) Ternary() *Builder          { return b.emit(OpTernary, 0, 0) }
func (b *Builder) Clamp() *Builder            { return b.emit(OpClamp, 0, 0) }
func (b *Builder) Sort(n int) *Builder        { return b.emit(OpSort, n, 0) }
func (b *Builder) Dup(n int) *Builder         { return b.emit(OpDup, n, 0) }
func (b *Builder) Swap(n int) *Builder        { return b.emit(OpSwap, n, 0) }
func (b *Builder) Drop(n int) *Builder        { return b.emit(OpDrop, n, 0) }

// Pushes each operand in turn
func (b *Builder) LoadAll(os ...Operand) *Builder {
	for _, o := range os {
		b.Load(o)
	}
	return b
}

// Pushes each register in turn
func (b *Builder) FetchAll(names ...string) *Builder {
	for _, n := range names {
		b.Fetch(n)
	}
	return b
}

// Folds the top n items into one by applying the binary instruction n-1 times
func (b *Builder) Fold(op Opcode, n int) *Builder {
	for i := 1; i < n; i++ {
		b.emit(op, 0, 0)
	}
	return b
}

// Validates and returns the program. Panics with a *MalformedError if the
// instruction sequence is malformed, as that is a defect in the calling formula
func (b *Builder) Build() *Program {
	p, err := NewProgram(b.code, b.registers)
	if err != nil {
		panic(err)
	}
	return p
}
