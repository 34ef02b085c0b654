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

// Package staffing formulates the project-staffing problem as a mixed-integer
// linear program.
//
// Indices are 1-based throughout: h is a day of the horizon, s a staff member,
// q a qualification and p a job. Variables:
//
//	a_h_s_q_p  1 if s works on p with q on day h
//	f_p        1 if p is completed
//	end_p      last day of work on p
//	start_p    first day of work on p
//	late_p     days p finishes after its due date
//	flag_p     1 if p is late
//	k_s_p      1 if s works on p at all
//	z_p_h      1 once p has started on or before h
//	N          max number of jobs any person works on
package staffing

import (
	"fmt"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/pkg/core"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

const varMaxProjects = "N"

func assignVar(h, s, q, p int) string { return fmt.Sprintf("a_%d_%d_%d_%d", h, s, q, p) }
func doneVar(p int) string            { return fmt.Sprintf("f_%d", p) }
func endVar(p int) string             { return fmt.Sprintf("end_%d", p) }
func startVar(p int) string           { return fmt.Sprintf("start_%d", p) }
func delayVar(p int) string           { return fmt.Sprintf("late_%d", p) }
func lateFlagVar(p int) string        { return fmt.Sprintf("flag_%d", p) }
func involvedVar(s, p int) string     { return fmt.Sprintf("k_%d_%d", s, p) }
func activeVar(p, h int) string       { return fmt.Sprintf("z_%d_%d", p, h) }

var _ interfaces.Problem = (*Problem)(nil)

// Problem builds staffing models for one instance.
type Problem struct {
	inst *core.Instance
}

// NewProblem validates inst and returns a model builder for it.
func NewProblem(inst *core.Instance) (*Problem, error) {
	if inst == nil {
		return nil, fmt.Errorf("instance cannot be nil")
	}
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("instance %s: %w", inst.Name, err)
	}
	return &Problem{inst: inst}, nil
}

// Name returns the instance name.
func (pb *Problem) Name() string {
	return pb.inst.Name
}

// Instance returns the underlying instance.
func (pb *Problem) Instance() *core.Instance {
	return pb.inst
}

// open reports whether a_h_s_q_p may be non-zero: the person holds the
// qualification, is not on vacation and the job needs that qualification.
func (pb *Problem) open(h, s, q, p int) bool {
	return pb.inst.Qualified(s, q) && !pb.inst.OnVacation(s, h) && pb.inst.Requirement(p, q) > 0
}

// NewModel builds a fresh model with every variable and structural
// constraint and no objective.
func (pb *Problem) NewModel() (*lp.Model, error) {
	in := pb.inst
	H, S, Q, P := in.Horizon, len(in.Staff), len(in.Qualifications), len(in.Jobs)
	m := lp.NewModel(in.Name)

	add := func(v lp.Var) error {
		if err := m.AddVar(v); err != nil {
			return fmt.Errorf("build model %s: %w", in.Name, err)
		}
		return nil
	}

	for h := 1; h <= H; h++ {
		for s := 1; s <= S; s++ {
			for q := 1; q <= Q; q++ {
				for p := 1; p <= P; p++ {
					v := lp.Var{Name: assignVar(h, s, q, p), Domain: lp.Binary}
					if !pb.open(h, s, q, p) {
						v.Fixed = true
					}
					if err := add(v); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	for p := 1; p <= P; p++ {
		for _, v := range []lp.Var{
			{Name: doneVar(p), Domain: lp.Binary},
			{Name: endVar(p), Domain: lp.Integer, Upper: float64(H)},
			{Name: startVar(p), Domain: lp.Integer, Upper: float64(H)},
			{Name: delayVar(p), Domain: lp.Integer},
			{Name: lateFlagVar(p), Domain: lp.Binary},
		} {
			if err := add(v); err != nil {
				return nil, err
			}
		}
		for h := 1; h <= H; h++ {
			if err := add(lp.Var{Name: activeVar(p, h), Domain: lp.Binary}); err != nil {
				return nil, err
			}
		}
	}
	for s := 1; s <= S; s++ {
		for p := 1; p <= P; p++ {
			if err := add(lp.Var{Name: involvedVar(s, p), Domain: lp.Binary}); err != nil {
				return nil, err
			}
		}
	}
	if err := add(lp.Var{Name: varMaxProjects, Domain: lp.Integer, Upper: float64(P), Fixed: true}); err != nil {
		return nil, err
	}

	// one task per person per working day
	for h := 1; h <= H; h++ {
		for s := 1; s <= S; s++ {
			e := lp.NewExpr()
			for q := 1; q <= Q; q++ {
				for p := 1; p <= P; p++ {
					if pb.open(h, s, q, p) {
						e.Push(1, assignVar(h, s, q, p))
					}
				}
			}
			if len(e.Terms) > 0 {
				m.AddConstraint(lp.Constraint{Name: fmt.Sprintf("alloc_%d_%d", h, s), Expr: e, Rel: lp.LessEqual, RHS: 1})
			}
		}
	}

	for p := 1; p <= P; p++ {
		for q := 1; q <= Q; q++ {
			need := in.Requirement(p, q)
			if need == 0 {
				continue
			}
			work := lp.NewExpr()
			for h := 1; h <= H; h++ {
				for s := 1; s <= S; s++ {
					if pb.open(h, s, q, p) {
						work.Push(1, assignVar(h, s, q, p))
					}
				}
			}
			if len(work.Terms) > 0 {
				m.AddConstraint(lp.Constraint{Name: fmt.Sprintf("cap_%d_%d", p, q), Expr: work, Rel: lp.LessEqual, RHS: float64(need)})
			}
			// completion requires the full workload
			done := work.Add(-float64(need), doneVar(p))
			m.AddConstraint(lp.Constraint{Name: fmt.Sprintf("done_%d_%d", p, q), Expr: done, Rel: lp.GreaterEqual, RHS: 0})
		}
	}

	for p := 1; p <= P; p++ {
		for h := 1; h <= H; h++ {
			for s := 1; s <= S; s++ {
				for q := 1; q <= Q; q++ {
					if !pb.open(h, s, q, p) {
						continue
					}
					a := assignVar(h, s, q, p)
					m.AddConstraint(lp.Constraint{
						Name: fmt.Sprintf("end_%d_%d_%d_%d", h, s, q, p),
						Expr: lp.NewExpr().Add(1, endVar(p)).Add(-float64(h), a),
						Rel:  lp.GreaterEqual,
					})
					m.AddConstraint(lp.Constraint{
						Name: fmt.Sprintf("act_%d_%d_%d_%d", h, s, q, p),
						Expr: lp.NewExpr().Add(1, activeVar(p, h)).Add(-1, a),
						Rel:  lp.GreaterEqual,
					})
					m.AddConstraint(lp.Constraint{
						Name: fmt.Sprintf("inv_%d_%d_%d_%d", h, s, q, p),
						Expr: lp.NewExpr().Add(1, involvedVar(s, p)).Add(-1, a),
						Rel:  lp.GreaterEqual,
					})
				}
			}
		}

		m.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("delay_%d", p),
			Expr: lp.NewExpr().Add(1, delayVar(p)).Add(-1, endVar(p)),
			Rel:  lp.GreaterEqual,
			RHS:  -float64(in.Jobs[p-1].DueDate),
		})

		for h := 1; h < H; h++ {
			m.AddConstraint(lp.Constraint{
				Name: fmt.Sprintf("mono_%d_%d", p, h),
				Expr: lp.NewExpr().Add(1, activeVar(p, h+1)).Add(-1, activeVar(p, h)),
				Rel:  lp.GreaterEqual,
			})
		}

		// start_p <= sum_h h*(z_p_h - z_p_{h-1}) with z_p_0 = 0
		start := lp.NewExpr().Add(1, startVar(p))
		for h := 1; h <= H; h++ {
			start.Push(-float64(h), activeVar(p, h))
			if h > 1 {
				start.Push(float64(h), activeVar(p, h-1))
			}
		}
		m.AddConstraint(lp.Constraint{Name: fmt.Sprintf("start_%d", p), Expr: start.Compact(), Rel: lp.LessEqual})

		m.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("span_%d", p),
			Expr: lp.NewExpr().Add(1, endVar(p)).Add(-1, startVar(p)),
			Rel:  lp.GreaterEqual,
		})
		m.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("flag_%d", p),
			Expr: lp.NewExpr().Add(float64(H), lateFlagVar(p)).Add(-1, delayVar(p)),
			Rel:  lp.GreaterEqual,
		})
	}

	for s := 1; s <= S; s++ {
		e := lp.NewExpr().Add(1, varMaxProjects)
		for p := 1; p <= P; p++ {
			e.Push(-1, involvedVar(s, p))
		}
		m.AddConstraint(lp.Constraint{Name: fmt.Sprintf("load_%d", s), Expr: e, Rel: lp.GreaterEqual})
	}
	return m, nil
}

// RequireWork adds "at least one job completed", which rules out the empty
// schedule that trivially optimizes every minimize objective.
func (pb *Problem) RequireWork(m *lp.Model) error {
	P := len(pb.inst.Jobs)
	if P == 0 {
		return fmt.Errorf("instance %s has no jobs", pb.inst.Name)
	}
	names := make([]string, 0, P)
	for p := 1; p <= P; p++ {
		names = append(names, doneVar(p))
	}
	m.AddConstraint(lp.Constraint{Name: "require_work", Expr: lp.Sum(1, names...), Rel: lp.GreaterEqual, RHS: 1})
	return nil
}
