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

// Builds the repair program for a supported mode. The subject x is clamped by
// statistics of the reference neighborhood y. Modes 22 to 24 swap roles and
// clamp the reference center around the subject
func repairProgram(m Mode) *expr.Program {
	src := refSource
	v, c := src.v, src.c
	b := expr.NewBuilder()
	switch m {
	case 0:
		b.Load(v)
	case 1, 11:
		b.Load(v)
		b.LoadAll(src.a[:]...).Load(c).Fold(expr.OpMin, 9)
		b.LoadAll(src.a[:]...).Load(c).Fold(expr.OpMax, 9)
		b.Clamp()
	case 2, 3, 4:
		sortInto(b, append(src.a[:], c))
		b.Load(v)
		orderBounds(b, int(m), 10-int(m), false, c)
		b.Clamp()
	case 5, 6, 7, 8, 9:
		src.axisClampSelect(b, m, true)
	case 10:
		src.closest(b, v, &c)
	case 12, 13, 14:
		k := int(m) - 10
		sortInto(b, src.a[:])
		b.Load(v)
		orderBounds(b, k, 9-k, true, c)
		b.Clamp()
	case 15, 16:
		src.axisMinMax(b, false)
		for i := range axes {
			b.Load(c).Fetch(reg("mil", i)).Fetch(reg("mal", i)).Clamp().Store(reg("clc", i))
		}
		score := axisScore(m, c, "clc")
		for i := range axes {
			score(b, i)
			b.Store(reg("d", i))
		}
		pickAxis(b, "d", "mil")
		b.Store("mi")
		pickAxis(b, "d", "mal")
		b.Store("ma")
		b.Load(v).Fetch("mi").Load(c).Min().Fetch("ma").Load(c).Max().Clamp()
	case 17:
		src.axisMinMax(b, false)
		axisLowerUpper(b)
		b.Load(v)
		orderedBounds(b, "l", "u", true, c)
		b.Clamp()
	case 18:
		src.closestAxisPair(b)
		b.Load(v).Fetch("mi").Load(c).Min().Fetch("ma").Load(c).Max().Clamp()
	case 19, 22:
		from, target, center := c, v, c
		if m == 22 {
			from, target, center = v, c, v
		}
		src.distances(b, from)
		minInto(b, "md", regs("d", 8))
		clampAround(b, target, center, "md")
	case 20, 23:
		from, target, center := c, v, c
		if m == 23 {
			from, target, center = v, c, v
		}
		src.distances(b, from)
		secondSmallest(b)
		clampAround(b, target, center, "mx")
	case 21, 24:
		target, center := v, c
		if m == 24 {
			target, center = c, v
		}
		src.axisMinMax(b, false)
		for i := range axes {
			b.Fetch(reg("mal", i)).Load(center).Sub()
			b.Load(center).Fetch(reg("mil", i)).Sub()
			b.Max()
		}
		b.Fold(expr.OpMin, 4).Store("u")
		clampAround(b, target, center, "u")
	case 26, 27, 28:
		src.pairGroupBounds(b, pairGroups(m))
		b.Load(v)
		orderedBounds(b, "lower", "upper", true, c)
		b.Clamp()
	default:
		return nil
	}
	return b.Build()
}
