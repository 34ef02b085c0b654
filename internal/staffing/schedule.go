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
	"fmt"

	"github.com/llm-d/staffing-pareto/pkg/core"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// ExtractSchedule reads the staffing plan out of a solution of a model built
// by pb. Lateness and revenue are recomputed from the assignments.
func (pb *Problem) ExtractSchedule(sol *lp.Solution) (*core.Schedule, error) {
	if sol == nil {
		return nil, fmt.Errorf("instance %s: no solution to extract", pb.inst.Name)
	}
	in := pb.inst
	H, S, Q, P := in.Horizon, len(in.Staff), len(in.Qualifications), len(in.Jobs)

	set := func(name string) (bool, error) {
		v, ok := sol.Value(name)
		if !ok {
			return false, fmt.Errorf("instance %s: solution has no value for %s", in.Name, name)
		}
		return v > 0.5, nil
	}

	out := &core.Schedule{}
	first := make([]int, P+1)
	last := make([]int, P+1)
	for h := 1; h <= H; h++ {
		for s := 1; s <= S; s++ {
			for q := 1; q <= Q; q++ {
				for p := 1; p <= P; p++ {
					if !pb.open(h, s, q, p) {
						continue
					}
					on, err := set(assignVar(h, s, q, p))
					if err != nil {
						return nil, err
					}
					if !on {
						continue
					}
					out.Assignments = append(out.Assignments, core.Assignment{
						Day:           h,
						Staff:         in.Staff[s-1].Name,
						Qualification: in.Qualifications[q-1],
						Job:           in.Jobs[p-1].Name,
					})
					if first[p] == 0 {
						first[p] = h
					}
					last[p] = h
				}
			}
		}
	}

	for p := 1; p <= P; p++ {
		job := in.Jobs[p-1]
		done, err := set(doneVar(p))
		if err != nil {
			return nil, err
		}
		outcome := core.JobOutcome{Job: job.Name, Completed: done, Start: first[p], End: last[p]}
		if last[p] > job.DueDate {
			outcome.DaysLate = last[p] - job.DueDate
		}
		if done {
			outcome.Revenue = job.Gain
		}
		outcome.Revenue -= job.DailyPenalty * float64(outcome.DaysLate)
		out.Jobs = append(out.Jobs, outcome)
	}
	return out, nil
}
