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

package lp

import (
	"math"
	"sort"
)

// Term is a single coefficient * variable product.
type Term struct {
	Var  string
	Coef float64
}

// Expr is a linear expression: sum of terms plus a constant.
// The zero value is the constant 0.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr returns an empty expression.
func NewExpr() Expr {
	return Expr{}
}

// Add returns e + coef*name. The receiver is not modified.
func (e Expr) Add(coef float64, name string) Expr {
	out := Expr{
		Terms:    make([]Term, len(e.Terms), len(e.Terms)+1),
		Constant: e.Constant,
	}
	copy(out.Terms, e.Terms)
	out.Terms = append(out.Terms, Term{Var: name, Coef: coef})
	return out
}

// Push appends coef*name to e in place. Builders use it for long sums.
func (e *Expr) Push(coef float64, name string) {
	e.Terms = append(e.Terms, Term{Var: name, Coef: coef})
}

// AddConst returns e + c.
func (e Expr) AddConst(c float64) Expr {
	out := e.Clone()
	out.Constant += c
	return out
}

// Plus returns e + other.
func (e Expr) Plus(other Expr) Expr {
	out := Expr{
		Terms:    make([]Term, 0, len(e.Terms)+len(other.Terms)),
		Constant: e.Constant + other.Constant,
	}
	out.Terms = append(out.Terms, e.Terms...)
	out.Terms = append(out.Terms, other.Terms...)
	return out
}

// Scale returns k*e.
func (e Expr) Scale(k float64) Expr {
	out := Expr{
		Terms:    make([]Term, len(e.Terms)),
		Constant: e.Constant * k,
	}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return out
}

// Clone returns a deep copy of e.
func (e Expr) Clone() Expr {
	out := Expr{Constant: e.Constant}
	if e.Terms != nil {
		out.Terms = make([]Term, len(e.Terms))
		copy(out.Terms, e.Terms)
	}
	return out
}

// Compact merges duplicate variables and drops zero coefficients.
// Terms keep the order in which each variable first appeared.
func (e Expr) Compact() Expr {
	index := make(map[string]int, len(e.Terms))
	merged := make([]Term, 0, len(e.Terms))
	for _, t := range e.Terms {
		if i, ok := index[t.Var]; ok {
			merged[i].Coef += t.Coef
			continue
		}
		index[t.Var] = len(merged)
		merged = append(merged, t)
	}
	out := Expr{Constant: e.Constant, Terms: make([]Term, 0, len(merged))}
	for _, t := range merged {
		if t.Coef != 0 {
			out.Terms = append(out.Terms, t)
		}
	}
	return out
}

// Vars returns the sorted set of variable names referenced by e.
func (e Expr) Vars() []string {
	seen := make(map[string]struct{}, len(e.Terms))
	names := make([]string, 0, len(e.Terms))
	for _, t := range e.Terms {
		if _, ok := seen[t.Var]; ok {
			continue
		}
		seen[t.Var] = struct{}{}
		names = append(names, t.Var)
	}
	sort.Strings(names)
	return names
}

// Eval evaluates e against a variable assignment. It reports false when a
// referenced variable has no value or the result is not a finite number.
func (e Expr) Eval(values map[string]float64) (float64, bool) {
	total := e.Constant
	for _, t := range e.Terms {
		v, ok := values[t.Var]
		if !ok {
			return 0, false
		}
		total += t.Coef * v
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, false
	}
	return total, true
}

// Sum builds sum_i coef*names[i].
func Sum(coef float64, names ...string) Expr {
	e := Expr{Terms: make([]Term, 0, len(names))}
	for _, n := range names {
		e.Terms = append(e.Terms, Term{Var: n, Coef: coef})
	}
	return e
}
