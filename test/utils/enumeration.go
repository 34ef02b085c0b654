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
	"context"
	"fmt"

	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

const feasibilityTol = 1e-9

// Call records one Solve invocation of an EnumerationSolver.
type Call struct {
	Model   *lp.Model
	Options solver.Options
	Result  solver.Result
}

// EnumerationSolver solves models by trying a fixed list of candidate
// solutions and returning the best feasible one. It is exact whenever the
// candidates cover every feasible point of interest.
type EnumerationSolver struct {
	Candidates []map[string]float64
	// Override, when set, may replace the result of a call, e.g. to simulate
	// time limits or solver failures.
	Override func(call int, m *lp.Model, res solver.Result) (solver.Result, error)

	calls []Call
}

var _ solver.Solver = (*EnumerationSolver)(nil)

// NewEnumerationSolver returns a solver over the given candidates.
func NewEnumerationSolver(candidates ...map[string]float64) *EnumerationSolver {
	return &EnumerationSolver{Candidates: candidates}
}

// Solve picks the feasible candidate with the best objective. Ties keep the
// earliest candidate.
func (e *EnumerationSolver) Solve(ctx context.Context, m *lp.Model, opts solver.Options) (solver.Result, error) {
	if err := ctx.Err(); err != nil {
		return solver.Result{Status: solver.StatusError}, err
	}
	obj := m.Objective()
	if obj == nil {
		return solver.Result{Status: solver.StatusError}, fmt.Errorf("model %s has no objective", m.Name())
	}

	res := solver.Result{Status: solver.StatusInfeasible, Message: "no feasible candidate"}
	best := 0.0
	for _, c := range e.Candidates {
		if !m.Feasible(c, feasibilityTol) {
			continue
		}
		v, ok := obj.Expr.Eval(c)
		if !ok {
			continue
		}
		if res.Solution == nil || obj.Sense.Better(v, best) {
			best = v
			res = solver.Result{
				Status:   solver.StatusOptimal,
				Solution: &lp.Solution{Values: copyValues(c), Objective: v},
			}
		}
	}

	var err error
	if e.Override != nil {
		res, err = e.Override(len(e.calls), m, res)
	}
	e.calls = append(e.calls, Call{Model: m.Clone(), Options: opts, Result: res})
	return res, err
}

// Calls returns the recorded invocations in order.
func (e *EnumerationSolver) Calls() []Call {
	return e.calls
}

// NumCalls returns how many times Solve ran.
func (e *EnumerationSolver) NumCalls() int {
	return len(e.calls)
}

// Reset forgets recorded calls.
func (e *EnumerationSolver) Reset() {
	e.calls = nil
}

func copyValues(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
