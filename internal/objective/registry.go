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

// Package objective provides the registry of optimization objectives: for each
// supported name, how to build its expression over a model and in which
// direction it is optimized.
package objective

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/llm-d/staffing-pareto/pkg/lp"
)

var (
	// ErrUnknownObjective is returned when a name is not registered.
	ErrUnknownObjective = errors.New("unknown objective")

	errDuplicateObjective = errors.New("duplicate objective")
	errNoExpression       = errors.New("objective has no expression builder")
)

// ExpressionFunc builds the linear expression of an objective over a model
// produced by the matching problem builder.
type ExpressionFunc func(m *lp.Model) lp.Expr

// Objective describes one registered objective.
type Objective struct {
	Name  string
	Sense lp.Sense
	// Integral marks objectives whose values are whole numbers (days, counts,
	// currency units). Dominance comparisons round them to the nearest integer.
	Integral    bool
	Description string
	Expression  ExpressionFunc
}

// Criterion is the comparison view of an objective used by the dominance filter.
type Criterion struct {
	Name     string
	Sense    lp.Sense
	Integral bool
}

// Registry is an immutable name -> Objective table.
type Registry struct {
	byName map[string]Objective
	order  []string
}

// NewRegistry registers the given objectives.
func NewRegistry(objectives ...Objective) (*Registry, error) {
	r := &Registry{byName: make(map[string]Objective, len(objectives))}
	for _, o := range objectives {
		if o.Name == "" {
			return nil, fmt.Errorf("objective name cannot be empty")
		}
		if o.Expression == nil {
			return nil, fmt.Errorf("%w: %s", errNoExpression, o.Name)
		}
		if _, exists := r.byName[o.Name]; exists {
			return nil, fmt.Errorf("%w: %s", errDuplicateObjective, o.Name)
		}
		r.byName[o.Name] = o
		r.order = append(r.order, o.Name)
	}
	return r, nil
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the objective registered under name.
func (r *Registry) Lookup(name string) (Objective, error) {
	o, ok := r.byName[name]
	if !ok {
		return Objective{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownObjective, name, r.order)
	}
	return o, nil
}

// Sense returns the optimization direction of name.
func (r *Registry) Sense(name string) (lp.Sense, error) {
	o, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	return o.Sense, nil
}

// Expression builds the expression of name over m.
func (r *Registry) Expression(m *lp.Model, name string) (lp.Expr, error) {
	o, err := r.Lookup(name)
	if err != nil {
		return lp.Expr{}, err
	}
	return o.Expression(m), nil
}

// Evaluate computes the value of name at a solution of m. The value is
// undefined when there is no solution or a variable is missing from it.
func (r *Registry) Evaluate(m *lp.Model, sol *lp.Solution, name string) (Value, error) {
	expr, err := r.Expression(m, name)
	if err != nil {
		return Undefined(), err
	}
	x, ok := sol.Eval(expr)
	if !ok {
		return Undefined(), nil
	}
	return Defined(x), nil
}

// Criteria returns the comparison view of the named objectives.
func (r *Registry) Criteria(names []string) ([]Criterion, error) {
	out := make([]Criterion, 0, len(names))
	for _, n := range names {
		o, err := r.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, Criterion{Name: o.Name, Sense: o.Sense, Integral: o.Integral})
	}
	return out, nil
}

// ValidateSelection checks a primary/secondary selection: every name must be
// registered and appear only once.
func (r *Registry) ValidateSelection(primary string, secondaries []string) error {
	seen := sets.New[string]()
	for _, n := range append([]string{primary}, secondaries...) {
		if _, err := r.Lookup(n); err != nil {
			return err
		}
		if seen.Has(n) {
			return fmt.Errorf("objective %q selected more than once", n)
		}
		seen.Insert(n)
	}
	return nil
}
