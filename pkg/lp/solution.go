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

// Solution holds primal values returned by a solver.
type Solution struct {
	// Values maps variable name to its primal value.
	Values map[string]float64

	// Objective is the objective value reported by the solver.
	Objective float64
}

// Value returns the primal value of a variable.
func (s *Solution) Value(name string) (float64, bool) {
	if s == nil || s.Values == nil {
		return 0, false
	}
	v, ok := s.Values[name]
	return v, ok
}

// Eval evaluates an expression at this solution.
func (s *Solution) Eval(e Expr) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return e.Eval(s.Values)
}
