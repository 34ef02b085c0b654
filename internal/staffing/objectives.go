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

package staffing

import (
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// Objective names.
const (
	ObjectiveProfit      = "profit"
	ObjectiveLateness    = "lateness"
	ObjectiveMaxProjects = "max_projects"
	ObjectiveDuration    = "duration"
)

// Objectives returns the staffing objectives of this problem.
func (pb *Problem) Objectives() []objective.Objective {
	P := len(pb.inst.Jobs)
	return []objective.Objective{
		{
			Name:        ObjectiveProfit,
			Sense:       lp.Maximize,
			Integral:    true,
			Description: "gains of completed jobs minus lateness penalties",
			Expression: func(*lp.Model) lp.Expr {
				e := lp.NewExpr()
				for p := 1; p <= P; p++ {
					job := pb.inst.Jobs[p-1]
					e.Push(job.Gain, doneVar(p))
					e.Push(-job.DailyPenalty, delayVar(p))
				}
				return e
			},
		},
		{
			Name:        ObjectiveLateness,
			Sense:       lp.Minimize,
			Integral:    true,
			Description: "number of late jobs",
			Expression: func(*lp.Model) lp.Expr {
				e := lp.NewExpr()
				for p := 1; p <= P; p++ {
					e.Push(1, lateFlagVar(p))
				}
				return e
			},
		},
		{
			Name:        ObjectiveMaxProjects,
			Sense:       lp.Minimize,
			Integral:    true,
			Description: "most jobs any one person works on",
			Expression: func(*lp.Model) lp.Expr {
				return lp.NewExpr().Add(1, varMaxProjects)
			},
		},
		{
			Name:        ObjectiveDuration,
			Sense:       lp.Minimize,
			Integral:    true,
			Description: "sum of job spans from first to last day of work",
			Expression: func(*lp.Model) lp.Expr {
				e := lp.NewExpr()
				for p := 1; p <= P; p++ {
					e.Push(1, endVar(p))
					e.Push(-1, startVar(p))
				}
				return e
			},
		},
	}
}

// Registry returns a registry holding Objectives.
func (pb *Problem) Registry() (*objective.Registry, error) {
	return objective.NewRegistry(pb.Objectives()...)
}
