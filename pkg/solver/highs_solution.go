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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// HiGHS model status strings, as printed by the command-line binary.
const (
	highsOptimal           = "Optimal"
	highsTimeLimit         = "Time limit reached"
	highsInfeasible        = "Infeasible"
	highsInfeasibleOrUnbdd = "Primal infeasible or unbounded"
)

// highsSolution is the content of a raw-style HiGHS solution file.
type highsSolution struct {
	modelStatus string
	// primalStatus is "Feasible", "Infeasible" or "None".
	primalStatus string
	objective    float64
	values       map[string]float64
}

// parseHighsSolution reads a solution file written with write_solution_style=0:
//
//	Model status
//	Optimal
//
//	# Primal solution values
//	Feasible
//	Objective 42
//	# Columns 2
//	x 1
//	y 0
//	# Rows 1
//	...
func parseHighsSolution(r io.Reader) (*highsSolution, error) {
	sol := &highsSolution{values: map[string]float64{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	next := func() (string, bool) {
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				return line, true
			}
		}
		return "", false
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		switch {
		case line == "Model status":
			status, ok := next()
			if !ok {
				return nil, fmt.Errorf("solution file ends after model status header")
			}
			sol.modelStatus = status
		case line == "# Primal solution values":
			status, ok := next()
			if !ok {
				return nil, fmt.Errorf("solution file ends after primal header")
			}
			sol.primalStatus = status
			if status != "Feasible" && status != "Infeasible" {
				continue
			}
			if err := parseColumns(next, sol); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "# Dual solution values"), strings.HasPrefix(line, "# Basis"):
			// primal values are all that is needed
			return sol, sc.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if sol.modelStatus == "" {
		return nil, fmt.Errorf("solution file has no model status")
	}
	return sol, nil
}

func parseColumns(next func() (string, bool), sol *highsSolution) error {
	line, ok := next()
	if !ok {
		return fmt.Errorf("solution file ends before column values")
	}
	if rest, found := strings.CutPrefix(line, "Objective "); found {
		obj, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return fmt.Errorf("bad objective line %q: %w", line, err)
		}
		sol.objective = obj
		if line, ok = next(); !ok {
			return fmt.Errorf("solution file ends before column values")
		}
	}
	rest, found := strings.CutPrefix(line, "# Columns ")
	if !found {
		return fmt.Errorf("expected column header, got %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return fmt.Errorf("bad column header %q: %w", line, err)
	}
	for i := 0; i < n; i++ {
		line, ok := next()
		if !ok {
			return fmt.Errorf("solution file has %d of %d column values", i, n)
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("bad column value line %q", line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad value for column %s: %w", fields[0], err)
		}
		sol.values[fields[0]] = v
	}
	return nil
}

// statusFromLog extracts the model status from HiGHS console output, for runs
// that did not leave a solution file behind.
func statusFromLog(out string) string {
	for _, line := range strings.Split(out, "\n") {
		key, val, found := strings.Cut(line, ":")
		if found && strings.TrimSpace(key) == "Model status" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// classify maps HiGHS status text to a Status.
func classify(modelStatus, primalStatus string) Status {
	feasible := primalStatus == "Feasible"
	switch {
	case modelStatus == highsOptimal:
		return StatusOptimal
	case modelStatus == highsInfeasible, modelStatus == highsInfeasibleOrUnbdd:
		return StatusInfeasible
	case modelStatus == highsTimeLimit, strings.HasSuffix(modelStatus, "limit reached"):
		if feasible {
			return StatusTimeLimit
		}
		return StatusError
	default:
		return StatusError
	}
}

func (s *highsSolution) toResult() Result {
	res := Result{Status: classify(s.modelStatus, s.primalStatus), Message: s.modelStatus}
	if res.Status.Usable() {
		res.Solution = &lp.Solution{Values: s.values, Objective: s.objective}
	}
	return res
}
