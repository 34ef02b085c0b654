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
	"errors"
	"fmt"

	"github.com/llm-d/staffing-pareto/pkg/solver"
)

var (
	// ErrMissingEpsilonValue is returned by manual solves when a secondary
	// objective has no epsilon value.
	ErrMissingEpsilonValue = errors.New("missing epsilon value")

	// ErrInfeasible is returned when a run has no feasible solution.
	ErrInfeasible = errors.New("model infeasible")

	// ErrSolverFailure is returned when the solver errors out or ends without
	// a usable solution for any reason other than infeasibility.
	ErrSolverFailure = errors.New("solver failure")

	// ErrUndefinedBounds is returned when an anchor run of the payoff table
	// yields no usable values.
	ErrUndefinedBounds = errors.New("undefined objective bounds")
)

// BoundsError reports which anchor run left the bounds undefined.
type BoundsError struct {
	Instance  string
	Objective string
	Status    solver.Status
	// Err is the run error, if any.
	Err error
}

func (e *BoundsError) Error() string {
	msg := fmt.Sprintf("instance %s: bounds for %q undefined (status %s)", e.Instance, e.Objective, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrUndefinedBounds.
func (e *BoundsError) Is(target error) bool {
	return target == ErrUndefinedBounds
}

// Unwrap returns the run error.
func (e *BoundsError) Unwrap() error {
	return e.Err
}

// recoverable reports whether err only invalidates a single run.
func recoverable(err error) bool {
	return errors.Is(err, ErrInfeasible) || errors.Is(err, ErrSolverFailure)
}
