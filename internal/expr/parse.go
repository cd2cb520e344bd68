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
	"strconv"
	"strings"
)

var tokenOpcodes = map[string]Opcode{}
var operandsByName = map[string]Operand{}

func init() {
	for op, tok := range opcodeTokens {
		if tok != "" {
			tokenOpcodes[tok] = Opcode(op)
		}
	}
	for o, name := range operandNames {
		operandsByName[name] = Operand(o)
	}
}

// Parses the postfix text form of a program, as produced by Program.String.
// Tokens are separated by whitespace. Unlike Builder.Build, malformed text is
// reported as an error, since it comes from the user
func Parse(text string) (*Program, error) {
	b := NewBuilder()
	for i, tok := range strings.Fields(text) {
		if err := b.parseToken(tok); err != nil {
			return nil, &MalformedError{Pos: i, Reason: err.Error()}
		}
	}
	return NewProgram(b.code, b.registers)
}

// Like Parse, but panics on errors. For programs embedded in code
func MustParse(text string) *Program {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

func (b *Builder) parseToken(tok string) error {
	if op, ok := tokenOpcodes[tok]; ok {
		b.emit(op, 0, 0)
		return nil
	}
	if o, ok := operandsByName[tok]; ok {
		b.Load(o)
		return nil
	}
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		b.Const(v)
		return nil
	}
	if last := tok[len(tok)-1]; last == '!' || last == '@' {
		name := tok[:len(tok)-1]
		if !isRegisterName(name) {
			return fmt.Errorf("invalid register name %q", name)
		}
		if last == '!' {
			b.Store(name)
		} else {
			b.Fetch(name)
		}
		return nil
	}
	for _, c := range []struct {
		prefix string
		op     Opcode
		dflt   int
	}{{"sort", OpSort, -1}, {"dup", OpDup, 0}, {"swap", OpSwap, 1}, {"drop", OpDrop, 1}} {
		if !strings.HasPrefix(tok, c.prefix) {
			continue
		}
		rest := tok[len(c.prefix):]
		if rest == "" {
			if c.dflt < 0 {
				return fmt.Errorf("%s needs a count", c.prefix)
			}
			b.emit(c.op, c.dflt, 0)
			return nil
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("invalid count in %q", tok)
		}
		b.emit(c.op, n, 0)
		return nil
	}
	return fmt.Errorf("unknown token %q", tok)
}

func isRegisterName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}
