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

package utils

import (
	"math"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// Variables of the toy problem.
const (
	VarProfit   = "x_profit"
	VarLateness = "x_late"
	VarDuration = "x_duration"
	VarWork     = "x_work"
)

// ToyPoint is one candidate outcome of the toy problem.
type ToyPoint struct {
	Profit, Lateness, Duration float64
	// Work is false only for the empty plan.
	Work bool
}

// Values returns the candidate as a variable assignment.
func (p ToyPoint) Values() map[string]float64 {
	work := 0.0
	if p.Work {
		work = 1
	}
	return map[string]float64{
		VarProfit:   p.Profit,
		VarLateness: p.Lateness,
		VarDuration: p.Duration,
		VarWork:     work,
	}
}

// ToyProblem has one variable per objective, so every candidate maps directly
// to an objective vector.
type ToyProblem struct {
	InstanceName string
}

var _ interfaces.Problem = (*ToyProblem)(nil)

// Name returns the instance name.
func (t *ToyProblem) Name() string {
	if t.InstanceName == "" {
		return "toy"
	}
	return t.InstanceName
}

// NewModel declares the toy variables.
func (t *ToyProblem) NewModel() (*lp.Model, error) {
	m := lp.NewModel(t.Name())
	for _, v := range []lp.Var{
		{Name: VarProfit, Lower: math.Inf(-1)},
		{Name: VarLateness},
		{Name: VarDuration},
		{Name: VarWork, Domain: lp.Binary},
	} {
		if err := m.AddVar(v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RequireWork excludes the empty plan.
func (t *ToyProblem) RequireWork(m *lp.Model) error {
	m.AddConstraint(lp.Constraint{Name: "require_work", Expr: lp.NewExpr().Add(1, VarWork), Rel: lp.GreaterEqual, RHS: 1})
	return nil
}

// ToyRegistry registers profit (max), lateness (min) and duration (min).
func ToyRegistry() *objective.Registry {
	single := func(name string) objective.ExpressionFunc {
		return func(*lp.Model) lp.Expr { return lp.NewExpr().Add(1, name) }
	}
	r, err := objective.NewRegistry(
		objective.Objective{Name: "profit", Sense: lp.Maximize, Integral: true, Expression: single(VarProfit)},
		objective.Objective{Name: "lateness", Sense: lp.Minimize, Integral: true, Expression: single(VarLateness)},
		objective.Objective{Name: "duration", Sense: lp.Minimize, Integral: true, Expression: single(VarDuration)},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// ToySolver returns an enumeration solver over the given points.
func ToySolver(points ...ToyPoint) *EnumerationSolver {
	candidates := make([]map[string]float64, 0, len(points))
	for _, p := range points {
		candidates = append(candidates, p.Values())
	}
	return NewEnumerationSolver(candidates...)
}

// TwoObjectivePoints is the profit/lateness landscape used across engine tests:
// anchors profit {100, 5} and lateness {40, 0}.
func TwoObjectivePoints() []ToyPoint {
	return []ToyPoint{
		{Profit: 0, Lateness: 0},
		{Profit: 100, Lateness: 5, Work: true},
		{Profit: 90, Lateness: 2, Work: true},
		{Profit: 80, Lateness: 3, Work: true},
		{Profit: 40, Lateness: 0, Work: true},
	}
}
