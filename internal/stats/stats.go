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

// Package stats computes per-plane statistics and noise estimates.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistics of a plane
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// Calculates statistics of the given samples. Returns zero stats for empty data
func Calculate(data []float32) Stats {
	if len(data) == 0 {
		return Stats{}
	}
	x := make([]float64, len(data))
	for i, d := range data {
		x[i] = float64(d)
	}
	s := Stats{Min: floats.Min(x), Max: floats.Max(x)}
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		s.StdDev = 0
	}
	sort.Float64s(x)
	s.Q1 = stat.Quantile(0.25, stat.Empirical, x, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	s.Q3 = stat.Quantile(0.75, stat.Empirical, x, nil)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("min %.6g max %.6g mean %.6g stddev %.6g q1 %.6g median %.6g q3 %.6g",
		s.Min, s.Max, s.Mean, s.StdDev, s.Q1, s.Median, s.Q3)
}

// Returns the mean absolute difference between two equally sized sample slices
func MeanAbsDiff(a, b []float32) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(len(a))
}
