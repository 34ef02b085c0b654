/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package pareto removes dominated points from a set of search results.
package pareto

import (
	"math"
	"sort"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/objective"
)

func compared(v float64, c objective.Criterion) float64 {
	if c.Integral {
		return math.Round(v)
	}
	return v
}

// Usable reports whether p has a usable status and a defined value for every
// criterion.
func Usable(p interfaces.Point, criteria []objective.Criterion) bool {
	if !p.Status.Usable() {
		return false
	}
	for _, c := range criteria {
		if !p.Values[c.Name].IsDefined() {
			return false
		}
	}
	return true
}

// Dominates reports whether b dominates a: b is at least as good on every
// criterion and strictly better on at least one. Both points must be Usable.
func Dominates(b, a interfaces.Point, criteria []objective.Criterion) bool {
	strictly := false
	for _, c := range criteria {
		vb := compared(b.Values[c.Name].Or(math.NaN()), c)
		va := compared(a.Values[c.Name].Or(math.NaN()), c)
		if c.Sense.Better(va, vb) {
			return false
		}
		if c.Sense.Better(vb, va) {
			strictly = true
		}
	}
	return strictly
}

// Filter returns the usable points of points that no other usable point
// dominates, in input order. Equal points do not dominate each other and are
// all kept. Filter is idempotent.
func Filter(points []interfaces.Point, criteria []objective.Criterion) []interfaces.Point {
	valid := make([]interfaces.Point, 0, len(points))
	for _, p := range points {
		if Usable(p, criteria) {
			valid = append(valid, p)
		}
	}

	front := make([]interfaces.Point, 0, len(valid))
	for i, a := range valid {
		dominated := false
		for j, b := range valid {
			if i != j && Dominates(b, a, criteria) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, a)
		}
	}
	return front
}

// Sorted returns a copy of points ordered best first by the first criterion,
// then by the next ones. Undefined values sort last.
func Sorted(points []interfaces.Point, criteria []objective.Criterion) []interfaces.Point {
	out := append([]interfaces.Point(nil), points...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, c := range criteria {
			vi, oki := out[i].Values[c.Name].Get()
			vj, okj := out[j].Values[c.Name].Get()
			switch {
			case oki && !okj:
				return true
			case !oki:
				if okj {
					return false
				}
				continue
			}
			if c.Sense.Better(vi, vj) {
				return true
			}
			if c.Sense.Better(vj, vi) {
				return false
			}
		}
		return false
	})
	return out
}
