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

// Package lp provides a small in-memory representation of mixed-integer linear
// programs and a writer for the CPLEX LP text format.
//
// A Model is a flat list of named variables, linear constraints and at most one
// objective. Models are plain values: builders create a fresh Model for every
// solver run and Clone it when a variant is needed, so constraints added for one
// run never leak into another.
//
// Example usage:
//
//	m := lp.NewModel("toy")
//	_ = m.AddVar(lp.Var{Name: "x", Domain: lp.Integer, Upper: 10})
//	_ = m.AddVar(lp.Var{Name: "y", Domain: lp.Binary})
//	m.AddConstraint(lp.Constraint{
//	    Name: "cap",
//	    Expr: lp.NewExpr().Add(1, "x").Add(4, "y"),
//	    Rel:  lp.LessEqual,
//	    RHS:  12,
//	})
//	m.SetObjective("obj", lp.NewExpr().Add(3, "x").Add(5, "y"), lp.Maximize)
//
//	var buf bytes.Buffer
//	if err := m.WriteLP(&buf); err != nil {
//	    return err
//	}
//
// The package does not solve models; see package solver for the adapters that
// hand a Model to an external MILP solver.
package lp
