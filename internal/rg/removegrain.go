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

// Scores an axis by the clamp distance and the axis range, for the axis-selecting modes 5 to 9
func axisScore(m Mode, diffFrom expr.Operand, clampReg string) func(b *expr.Builder, i int) {
	diff := func(b *expr.Builder, i int) { b.Load(diffFrom).Fetch(reg(clampReg, i)).Sub().Abs() }
	rng := func(b *expr.Builder, i int) { b.Fetch(reg("mal", i)).Fetch(reg("mil", i)).Sub() }
	switch m {
	case 5, 15:
		return diff
	case 6, 16:
		return func(b *expr.Builder, i int) { diff(b, i); b.Const(2).Mul(); rng(b, i); b.Add() }
	case 7:
		return func(b *expr.Builder, i int) { diff(b, i); rng(b, i); b.Add() }
	case 8:
		return func(b *expr.Builder, i int) { diff(b, i); rng(b, i); b.Const(2).Mul().Add() }
	}
	return rng
}

// Clamps v to each axis range and pushes the clamped value of the best scoring axis
func (src source) axisClampSelect(b *expr.Builder, m Mode, withCenter bool) {
	src.axisMinMax(b, withCenter)
	for i := range axes {
		b.Load(src.v).Fetch(reg("mil", i)).Fetch(reg("mal", i)).Clamp().Store(reg("cli", i))
	}
	score := axisScore(m, src.v, "cli")
	for i := range axes {
		score(b, i)
		b.Store(reg("d", i))
	}
	pickAxis(b, "d", "cli")
}

// Pushes the neighbor closest to from, or the extra candidate if given. Ties go to
// S, SE, SW, N, NE, NW, E, the extra candidate, and finally W
func (src source) closest(b *expr.Builder, from expr.Operand, extra *expr.Operand) {
	src.distances(b, from)
	names := regs("d", 8)
	if extra != nil {
		b.Load(from).Load(*extra).Sub().Abs().Store("dc")
		names = append(names, "dc")
	}
	minInto(b, "dmin", names)
	order := []int{pS, pSE, pSW, pN, pNE, pNW, pE}
	keys := make([]string, 0, 8)
	vals := make([]pusher, 0, 8)
	for _, p := range order {
		o := src.a[p]
		keys = append(keys, reg("d", p))
		vals = append(vals, func(b *expr.Builder) { b.Load(o) })
	}
	if extra != nil {
		o := *extra
		keys = append(keys, "dc")
		vals = append(vals, func(b *expr.Builder) { b.Load(o) })
	}
	pickFirst(b, "dmin", keys, vals, func(b *expr.Builder) { b.Load(src.a[pW]) })
}

// Stores the largest axis minimum into l and the smallest axis maximum into u
func axisLowerUpper(b *expr.Builder) {
	b.FetchAll(regs("mil", 4)...).Fold(expr.OpMax, 4).Store("l")
	b.FetchAll(regs("mal", 4)...).Fold(expr.OpMin, 4).Store("u")
}

// Stores the per-axis largest distance from c into d1..d4, and the min and max of
// the axis pair closest to c into mi and ma
func (src source) closestAxisPair(b *expr.Builder) {
	src.axisMinMax(b, false)
	for i, ax := range axes {
		b.Load(src.c).Load(src.a[ax[0]]).Sub().Abs()
		b.Load(src.c).Load(src.a[ax[1]]).Sub().Abs()
		b.Max().Store(reg("d", i))
	}
	pickAxis(b, "d", "mil")
	b.Store("mi")
	pickAxis(b, "d", "mal")
	b.Store("ma")
}

// Pushes the averages of the four axis pairs, rounded for integer formats if round is set
func (src source) axisAverages(b *expr.Builder, round bool) {
	for _, ax := range axes {
		b.Load(src.a[ax[0]]).Load(src.a[ax[1]]).Add().Const(2).Div()
		if round {
			b.Round()
		}
	}
}

var (
	centerWeighted = [9]float64{1, 2, 1, 2, 4, 2, 1, 2, 1}
	ringOnly       = [9]float64{1, 1, 1, 1, 0, 1, 1, 1, 1}
	boxWeights     = [9]float64{1, 1, 1, 1, 1, 1, 1, 1, 1}
)

// Neighbor-pair groups of modes 26 to 28
func pairGroups(m Mode) [][]pair {
	switch m {
	case 26:
		return [][]pair{ringPairsA, ringPairsB}
	case 27:
		return [][]pair{ringPairsA, ringPairsB, axes}
	}
	return [][]pair{ringPairsA, ringPairsB, axes, diamond}
}

// Builds the remove-grain program for a supported mode. Integer selects the
// rounding variants of modes 21 and 22
func removeGrainProgram(m Mode, integer bool) *expr.Program {
	src := selfSource
	c := src.c
	b := expr.NewBuilder()
	switch m {
	case 0:
		b.Load(c)
	case 1:
		b.Load(c).LoadAll(src.a[:]...).Fold(expr.OpMin, 8).LoadAll(src.a[:]...).Fold(expr.OpMax, 8).Clamp()
	case 2, 3, 4:
		sortInto(b, src.a[:])
		b.Load(c)
		orderBounds(b, int(m), 9-int(m), false, c)
		b.Clamp()
	case 5, 6, 7, 8, 9:
		src.axisClampSelect(b, m, false)
	case 10:
		src.closest(b, c, nil)
	case 11, 12:
		src.weighted(b, centerWeighted)
	case 17:
		src.axisMinMax(b, false)
		axisLowerUpper(b)
		b.Load(c)
		orderedBounds(b, "l", "u", false, c)
		b.Clamp()
	case 18:
		src.closestAxisPair(b)
		b.Load(c).Fetch("mi").Fetch("ma").Clamp()
	case 19:
		src.weighted(b, ringOnly)
	case 20:
		src.weighted(b, boxWeights)
	case 21:
		for i, ax := range axes {
			b.Load(src.a[ax[0]]).Load(src.a[ax[1]]).Add().Const(2).Div().Store(reg("avg", i))
			if integer {
				b.Fetch(reg("avg", i)).Floor().Store(reg("avl", i))
				b.Fetch(reg("avg", i)).Ceil().Store(reg("avh", i))
			}
		}
		lows, highs := regs("avg", 4), regs("avg", 4)
		if integer {
			lows, highs = regs("avl", 4), regs("avh", 4)
		}
		b.Load(c).FetchAll(lows...).Fold(expr.OpMin, 4).FetchAll(highs...).Fold(expr.OpMax, 4).Clamp()
	case 22:
		b.Load(c)
		src.axisAverages(b, integer)
		b.Fold(expr.OpMin, 4)
		src.axisAverages(b, integer)
		b.Fold(expr.OpMax, 4)
		b.Clamp()
	case 23, 24:
		src.axisMinMax(b, false)
		for i := range axes {
			b.Fetch(reg("mal", i)).Fetch(reg("mil", i)).Sub().Store(reg("ld", i))
		}
		for _, up := range []bool{true, false} {
			for i := range axes {
				if up {
					b.Load(c).Fetch(reg("mal", i)).Sub()
				} else {
					b.Fetch(reg("mil", i)).Load(c).Sub()
				}
				if m == 23 {
					b.Fetch(reg("ld", i)).Min()
				} else {
					b.Store("t").Fetch("t").Fetch(reg("ld", i)).Fetch("t").Sub().Min()
				}
			}
			b.Const(0).Fold(expr.OpMax, 5)
			if up {
				b.Store("u")
			} else {
				b.Store("d")
			}
		}
		b.Load(c).Fetch("u").Sub().Fetch("d").Add().Load(expr.Lo).Load(expr.Hi).Clamp()
	case 26, 27, 28:
		src.pairGroupBounds(b, pairGroups(m))
		b.Load(c)
		orderedBounds(b, "lower", "upper", false, c)
		b.Clamp()
	default:
		return nil
	}
	return b.Build()
}
