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
	"errors"
	"fmt"
	"math"
)

var (
	errDuplicateVar = errors.New("duplicate variable")
	errEmptyVarName = errors.New("variable name cannot be empty")
	errBadBounds    = errors.New("lower bound exceeds upper bound")
)

// Domain is the value domain of a variable.
type Domain int

// enumeration of Domain
const (
	Continuous Domain = iota
	Integer
	Binary
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Domain(%d)", int(d))
	}
}

// Sense is the optimization direction of an objective.
type Sense int

// enumeration of Sense
const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	switch s {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Better reports whether a is strictly better than b under s.
func (s Sense) Better(a, b float64) bool {
	if s == Minimize {
		return a < b
	}
	return a > b
}

// Relation is the comparison operator of a constraint.
type Relation int

// enumeration of Relation
const (
	LessEqual Relation = iota
	GreaterEqual
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Var declares a decision variable. For Continuous and Integer variables the
// zero value of Upper means "unbounded above"; set Lower to -math.Inf(1) for a
// free variable. Binary variables ignore Lower unless Upper pins them to 0.
type Var struct {
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
	// Fixed marks Upper as meaningful even when it is 0.
	Fixed bool
}

// UpperBound returns the effective upper bound of v.
func (v Var) UpperBound() float64 {
	switch {
	case v.Fixed:
		return v.Upper
	case v.Domain == Binary:
		return 1
	case v.Upper == 0:
		return math.Inf(1)
	default:
		return v.Upper
	}
}

// Constraint is Expr Rel RHS.
type Constraint struct {
	Name string
	Expr Expr
	Rel  Relation
	RHS  float64
}

// Satisfied reports whether the constraint holds for values within tol.
func (c Constraint) Satisfied(values map[string]float64, tol float64) bool {
	lhs, ok := c.Expr.Eval(values)
	if !ok {
		return false
	}
	switch c.Rel {
	case LessEqual:
		return lhs <= c.RHS+tol
	case GreaterEqual:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Objective is the single optimization target of a model.
type Objective struct {
	Name  string
	Expr  Expr
	Sense Sense
}

// Model is a mixed-integer linear program.
type Model struct {
	name        string
	vars        []Var
	index       map[string]int
	constraints []Constraint
	objective   *Objective
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{
		name:  name,
		index: make(map[string]int),
	}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// AddVar declares a variable.
func (m *Model) AddVar(v Var) error {
	if v.Name == "" {
		return errEmptyVarName
	}
	if _, exists := m.index[v.Name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateVar, v.Name)
	}
	if v.Domain != Binary && v.Lower > v.UpperBound() {
		return fmt.Errorf("%w: %s [%g, %g]", errBadBounds, v.Name, v.Lower, v.UpperBound())
	}
	m.index[v.Name] = len(m.vars)
	m.vars = append(m.vars, v)
	return nil
}

// Var looks up a variable by name.
func (m *Model) Var(name string) (Var, bool) {
	i, ok := m.index[name]
	if !ok {
		return Var{}, false
	}
	return m.vars[i], true
}

// Vars returns the declared variables in declaration order.
func (m *Model) Vars() []Var {
	out := make([]Var, len(m.vars))
	copy(out, m.vars)
	return out
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// AddConstraint appends a constraint. Unnamed constraints get a positional name.
func (m *Model) AddConstraint(c Constraint) {
	if c.Name == "" {
		c.Name = fmt.Sprintf("c%d", len(m.constraints)+1)
	}
	m.constraints = append(m.constraints, c)
}

// Constraints returns the constraints in insertion order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	copy(out, m.constraints)
	return out
}

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// SetObjective replaces the model objective.
func (m *Model) SetObjective(name string, expr Expr, sense Sense) {
	m.objective = &Objective{Name: name, Expr: expr.Clone(), Sense: sense}
}

// Objective returns the model objective, or nil if none was set.
func (m *Model) Objective() *Objective {
	if m.objective == nil {
		return nil
	}
	o := *m.objective
	o.Expr = o.Expr.Clone()
	return &o
}

// Validate checks that every referenced variable is declared.
func (m *Model) Validate() error {
	check := func(owner string, e Expr) error {
		for _, t := range e.Terms {
			if _, ok := m.index[t.Var]; !ok {
				return fmt.Errorf("%s references undeclared variable %q", owner, t.Var)
			}
		}
		return nil
	}
	if m.objective != nil {
		if err := check("objective "+m.objective.Name, m.objective.Expr); err != nil {
			return err
		}
	}
	for _, c := range m.constraints {
		if err := check("constraint "+c.Name, c.Expr); err != nil {
			return err
		}
	}
	return nil
}

// Feasible reports whether values satisfy every bound, integrality requirement
// and constraint of m within tol.
func (m *Model) Feasible(values map[string]float64, tol float64) bool {
	for _, v := range m.vars {
		x, ok := values[v.Name]
		if !ok {
			return false
		}
		lower := v.Lower
		if v.Domain == Binary {
			lower = 0
		}
		if x < lower-tol || x > v.UpperBound()+tol {
			return false
		}
		if v.Domain != Continuous && math.Abs(x-math.Round(x)) > tol {
			return false
		}
	}
	for _, c := range m.constraints {
		if !c.Satisfied(values, tol) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of m.
func (m *Model) Clone() *Model {
	out := &Model{
		name:        m.name,
		vars:        make([]Var, len(m.vars)),
		index:       make(map[string]int, len(m.index)),
		constraints: make([]Constraint, len(m.constraints)),
	}
	copy(out.vars, m.vars)
	for k, v := range m.index {
		out.index[k] = v
	}
	for i, c := range m.constraints {
		c.Expr = c.Expr.Clone()
		out.constraints[i] = c
	}
	if m.objective != nil {
		out.objective = m.Objective()
	}
	return out
}
