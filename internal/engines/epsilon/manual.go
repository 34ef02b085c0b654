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

package epsilon

import (
	"context"
	"fmt"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// ManualResult is a single solved run together with its model, so that the
// caller can read the plan back.
type ManualResult struct {
	Point    interfaces.Point
	Model    *lp.Model
	Solution *lp.Solution
}

// SolveManual solves the primary objective once, with every secondary bounded
// by its value in eps. Values for objectives that are not secondaries are
// ignored. A time-limited feasible run is a result, not an error.
func (e *Engine) SolveManual(ctx context.Context, eps interfaces.Assignment) (*ManualResult, error) {
	logger := logging.FromContext(ctx)
	chosen := make(interfaces.Assignment, len(e.cfg.Secondaries))
	for _, name := range e.cfg.Secondaries {
		v, ok := eps[name]
		if !ok {
			return nil, fmt.Errorf("instance %s: %w for %q (given %v)", e.Instance(), ErrMissingEpsilonValue, name, eps)
		}
		chosen[name] = v
	}
	for name := range eps {
		if _, ok := chosen[name]; !ok {
			logger.V(logging.DEBUG).Info("Ignoring epsilon for a non-secondary objective", "objective", name)
		}
	}

	out, err := e.solve(ctx, run{phase: PhaseManual, objective: e.cfg.Primary, eps: chosen}, false)
	if err != nil {
		return nil, err
	}
	logger.Info("Manual run solved", "instance", e.Instance(), "status", out.point.Status.String(),
		"epsilons", chosen, "values", out.point.Values)
	return &ManualResult{Point: out.point, Model: out.model, Solution: out.solution}, nil
}

// SolveMono optimizes the primary objective alone. An infeasible or failed
// run yields no point and no error.
func (e *Engine) SolveMono(ctx context.Context) (SearchResult, error) {
	before := e.runs
	out, err := e.solve(ctx, run{phase: PhaseMono, objective: e.cfg.Primary}, false)
	result := SearchResult{Runs: e.runs - before}
	if err != nil {
		if recoverable(err) {
			logging.FromContext(ctx).Info("Mono-objective run produced no point", "instance", e.Instance(), "reason", err.Error())
			return result, nil
		}
		return result, err
	}
	result.Points = []interfaces.Point{out.point}
	return result, nil
}
