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

import (
	"strconv"

	"github.com/mlnoga/rgtools/internal/expr"
)

// Operands of one formula. Statistics are taken over the center c and its ring a,
// the result corrects v. For remove-grain v and c are the same subject sample,
// for repair v is the subject and c the reference center
type source struct {
	v expr.Operand
	c expr.Operand
	a [8]expr.Operand
}

var (
	selfSource = source{v: expr.X, c: expr.X, a: expr.SubjectRing}
	refSource  = source{v: expr.X, c: expr.Y, a: expr.ReferenceRing}
)

// Ring positions, 0-based
const (
	pNW = iota
	pN
	pNE
	pW
	pE
	pSW
	pS
	pSE
)

// A pair of ring positions
type pair [2]int

// Opposite pairs through the center: diagonal NW-SE, vertical, anti-diagonal, horizontal
var axes = []pair{{pNW, pSE}, {pN, pS}, {pNE, pSW}, {pW, pE}}

// Order in which equally good axes are chosen: horizontal, vertical, anti-diagonal, diagonal
var axisPriority = []int{3, 1, 2, 0}

// Adjacent pairs around the ring, in two rotations, and the edge-centered diamond
var (
	ringPairsA = []pair{{pNW, pN}, {pNE, pE}, {pSE, pS}, {pSW, pW}}
	ringPairsB = []pair{{pN, pNE}, {pE, pSE}, {pS, pSW}, {pW, pNW}}
	diamond    = []pair{{pN, pE}, {pE, pS}, {pS, pW}, {pW, pN}}
)

func reg(prefix string, i int) string { return prefix + strconv.Itoa(i+1) }

func regs(prefix string, count int) []string {
	res := make([]string, count)
	for i := range res {
		res[i] = reg(prefix, i)
	}
	return res
}

// Pushes something onto the stack
type pusher func(b *expr.Builder)

func fetch(name string) pusher { return func(b *expr.Builder) { b.Fetch(name) } }

// Stores min and max of each axis into mil1..mil4 and mal1..mal4. With center,
// the center sample takes part in both
func (src source) axisMinMax(b *expr.Builder, withCenter bool) {
	for i, ax := range axes {
		b.Load(src.a[ax[0]]).Load(src.a[ax[1]]).Min()
		if withCenter {
			b.Load(src.c).Min()
		}
		b.Store(reg("mil", i))
		b.Load(src.a[ax[0]]).Load(src.a[ax[1]]).Max()
		if withCenter {
			b.Load(src.c).Max()
		}
		b.Store(reg("mal", i))
	}
}

// Stores the minimum of the given registers into register dst
func minInto(b *expr.Builder, dst string, names []string) {
	b.FetchAll(names...).Fold(expr.OpMin, len(names)).Store(dst)
}

// Pushes the value belonging to the first key register in order whose content equals
// register best, or the fallback if none does. Emits a chain of nested ternaries
func pickFirst(b *expr.Builder, best string, keys []string, values []pusher, fallback pusher) {
	for i, k := range keys {
		b.Fetch(best).Fetch(k).Equal()
		values[i](b)
	}
	fallback(b)
	for range keys {
		b.Ternary()
	}
}

// Pushes the per-axis value of the axis with the smallest score in register prefix d,
// breaking ties by axis priority
func pickAxis(b *expr.Builder, scores, values string) {
	best := scores + "min"
	minInto(b, best, regs(scores, 4))
	keys := make([]string, 0, 3)
	vals := make([]pusher, 0, 3)
	for _, i := range axisPriority[:3] {
		keys = append(keys, reg(scores, i))
		vals = append(vals, fetch(reg(values, i)))
	}
	pickFirst(b, best, keys, vals, fetch(reg(values, axisPriority[3])))
}

// Sorts the operands and stores them in ascending order into s1..sN
func sortInto(b *expr.Builder, ops []expr.Operand) {
	b.LoadAll(ops...).Sort(len(ops))
	for i := range ops {
		b.Store(reg("s", i))
	}
}

// Pushes the lo-th and hi-th smallest of the sorted registers, optionally widened to include w
func orderBounds(b *expr.Builder, lo, hi int, widen bool, w expr.Operand) {
	b.Fetch(reg("s", lo-1))
	if widen {
		b.Load(w).Min()
	}
	b.Fetch(reg("s", hi-1))
	if widen {
		b.Load(w).Max()
	}
}

// Pushes the weighted average of the 3x3 window. Weights are in row order
// NW, N, NE, W, C, E, SW, S, SE and must not all be zero
func (src source) weighted(b *expr.Builder, weights [9]float64) {
	ops := [9]expr.Operand{src.a[pNW], src.a[pN], src.a[pNE], src.a[pW], src.c, src.a[pE], src.a[pSW], src.a[pS], src.a[pSE]}
	sum, terms := 0.0, 0
	for i, wt := range weights {
		if wt == 0 {
			continue
		}
		b.Load(ops[i])
		if wt != 1 {
			b.Const(wt).Mul()
		}
		if terms > 0 {
			b.Add()
		}
		sum += wt
		terms++
	}
	b.Const(sum).Div()
}

// Pushes the lower and upper bounds of the neighbor-pair groups. Per group the bound is the
// largest pair minimum and the smallest pair maximum, across groups the largest lower and
// smallest upper bound wins. Stores into lower and upper
func (src source) pairGroupBounds(b *expr.Builder, groups [][]pair) {
	for g, group := range groups {
		for _, p := range group {
			b.Load(src.a[p[0]]).Load(src.a[p[1]]).Min()
		}
		b.Fold(expr.OpMax, len(group)).Store(reg("lg", g))
		for _, p := range group {
			b.Load(src.a[p[0]]).Load(src.a[p[1]]).Max()
		}
		b.Fold(expr.OpMin, len(group)).Store(reg("ug", g))
	}
	b.FetchAll(regs("lg", len(groups))...).Fold(expr.OpMax, len(groups)).Store("lower")
	b.FetchAll(regs("ug", len(groups))...).Fold(expr.OpMin, len(groups)).Store("upper")
}

// Pushes min(lo,hi) and max(lo,hi) of two registers, optionally widened to include w
func orderedBounds(b *expr.Builder, lo, hi string, widen bool, w expr.Operand) {
	b.Fetch(lo).Fetch(hi).Min()
	if widen {
		b.Load(w).Min()
	}
	b.Fetch(lo).Fetch(hi).Max()
	if widen {
		b.Load(w).Max()
	}
}

// Pushes |from - a_i| for each ring position and stores them into d1..d8
func (src source) distances(b *expr.Builder, from expr.Operand) {
	for i, o := range src.a {
		b.Load(from).Load(o).Sub().Abs().Store(reg("d", i))
	}
}

// Stores the second smallest of d1..d8 into register mx, using a running clamp
func secondSmallest(b *expr.Builder) {
	b.Fetch("d1").Fetch("d2").Min().Store("mn")
	b.Fetch("d1").Fetch("d2").Max().Store("mx")
	for i := 2; i < 8; i++ {
		b.Fetch("mx").Fetch("mn").Fetch(reg("d", i)).Clamp().Store("mx")
		b.Fetch("mn").Fetch(reg("d", i)).Min().Store("mn")
	}
}

// Pushes t clamped to [m - r, m + r] for operands t, m and register r
func clampAround(b *expr.Builder, t, m expr.Operand, r string) {
	b.Load(t)
	b.Load(m).Fetch(r).Sub()
	b.Load(m).Fetch(r).Add()
	b.Clamp()
}
