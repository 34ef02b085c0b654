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
	"errors"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

// Payoff optimizes every active objective alone and derives the bounds of each
// objective from the resulting table. Minimize anchors must do some work, or
// the empty plan would win them trivially.
func (e *Engine) Payoff(ctx context.Context) (interfaces.PayoffTable, interfaces.Bounds, error) {
	logger := logging.FromContext(ctx)
	names := e.Objectives()
	table := interfaces.PayoffTable{Objectives: names}

	for _, anchor := range names {
		r := run{phase: PhasePayoff, objective: anchor, requireWork: e.sense(anchor) == lp.Minimize}
		out, err := e.solve(ctx, r, false)
		if err != nil {
			if !recoverable(err) {
				return table, nil, err
			}
			status := solver.StatusError
			if errors.Is(err, ErrInfeasible) {
				status = solver.StatusInfeasible
			}
			return table, nil, &BoundsError{Instance: e.Instance(), Objective: anchor, Status: status, Err: err}
		}
		for _, name := range names {
			if !out.point.Values[name].IsDefined() {
				return table, nil, &BoundsError{Instance: e.Instance(), Objective: anchor, Status: out.point.Status}
			}
		}
		table.Rows = append(table.Rows, interfaces.PayoffRow{
			Anchor: anchor,
			Status: out.point.Status,
			Values: out.point.Values,
		})
		logger.V(logging.DEBUG).Info("Payoff anchor solved", "instance", e.Instance(), "anchor", anchor,
			"status", out.point.Status.String(), "values", out.point.Values)
	}

	bounds := BoundsFromPayoff(table, e.sense)
	logger.Info("Computed objective bounds", "instance", e.Instance(), "bounds", bounds)
	return table, bounds, nil
}

// BoundsFromPayoff derives bounds from a complete payoff table: best is the
// anchor's own value, worst the weakest value over all anchors. A negative
// worst of a maximize objective is raised to 0.
func BoundsFromPayoff(table interfaces.PayoffTable, sense func(string) lp.Sense) interfaces.Bounds {
	bounds := make(interfaces.Bounds, len(table.Objectives))
	for _, name := range table.Objectives {
		row, ok := table.Row(name)
		if !ok {
			continue
		}
		best := row.Values[name].Or(0)
		s := sense(name)
		worst := best
		for _, r := range table.Rows {
			v, ok := r.Values[name].Get()
			if !ok {
				continue
			}
			if s.Better(worst, v) {
				worst = v
			}
		}
		if s == lp.Maximize && worst < 0 {
			worst = 0
		}
		bounds[name] = interfaces.Range{Best: best, Worst: worst}
	}
	return bounds
}
