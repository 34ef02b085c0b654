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

package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// Status is the outcome of a solve.
type Status int

// enumeration of Status
const (
	StatusOptimal Status = iota
	StatusTimeLimit
	StatusInfeasible
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusTimeLimit:
		return "FeasibleTimeLimited"
	case StatusInfeasible:
		return "Infeasible"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Usable reports whether results with this status carry a feasible solution.
func (s Status) Usable() bool {
	return s == StatusOptimal || s == StatusTimeLimit
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options are per-call solver settings.
type Options struct {
	// TimeLimit caps solver wall time. Zero means no limit.
	TimeLimit time.Duration
}

// Result is what a solve produced.
type Result struct {
	Status Status
	// Solution is set only when Status.Usable().
	Solution *lp.Solution
	// Runtime is the wall time spent in the solver.
	Runtime time.Duration
	// Message carries the raw solver status text, if any.
	Message string
}

// Solver solves a model without modifying it.
type Solver interface {
	Solve(ctx context.Context, m *lp.Model, opts Options) (Result, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, m *lp.Model, opts Options) (Result, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, m *lp.Model, opts Options) (Result, error) {
	return f(ctx, m, opts)
}
