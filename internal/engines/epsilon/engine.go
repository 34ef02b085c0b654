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

// Package epsilon implements the epsilon-constraint method: payoff table and
// bounds, fixed-grid and adaptive searches over the secondary objectives, and
// single manual runs.
package epsilon

import (
	"context"
	"fmt"
	"time"

	"github.com/llm-d/staffing-pareto/internal/engines/common"
	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

// DefaultStep is the epsilon decrement applied past the attained value in the
// adaptive search.
const DefaultStep = 0.5

// Run phases, reported to the RunObserver.
const (
	PhasePayoff   = "payoff"
	PhaseGrid     = "grid"
	PhaseAdaptive = "adaptive"
	PhaseManual   = "manual"
	PhaseMono     = "mono"
)

// RunObserver is notified after every solver call.
type RunObserver interface {
	ObserveRun(phase string, status solver.Status, runtime time.Duration)
}

// Config wires an Engine.
type Config struct {
	Problem     interfaces.Problem
	Registry    *objective.Registry
	Solver      solver.Solver
	Primary     string
	Secondaries []string
	// Options are passed unchanged to every solver call.
	Options solver.Options
	// Steps overrides DefaultStep per objective.
	Steps map[string]float64
	// Cache, when set, lets identical search runs reuse earlier outcomes.
	Cache *common.RunCache
	// Observer, when set, sees every solver call.
	Observer RunObserver
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Problem == nil {
		return fmt.Errorf("problem cannot be nil")
	}
	if c.Registry == nil {
		return fmt.Errorf("objective registry cannot be nil")
	}
	if c.Solver == nil {
		return fmt.Errorf("solver cannot be nil")
	}
	if err := c.Registry.ValidateSelection(c.Primary, c.Secondaries); err != nil {
		return err
	}
	for name, step := range c.Steps {
		if _, err := c.Registry.Lookup(name); err != nil {
			return fmt.Errorf("step for %q: %w", name, err)
		}
		if step <= 0 {
			return fmt.Errorf("step for %q must be > 0, got %g", name, step)
		}
	}
	if c.Options.TimeLimit < 0 {
		return fmt.Errorf("time limit must be >= 0, got %v", c.Options.TimeLimit)
	}
	return nil
}

// Engine runs scalarized solves of one problem for one objective selection.
type Engine struct {
	cfg  Config
	runs int
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Secondaries = append([]string(nil), cfg.Secondaries...)
	return &Engine{cfg: cfg}, nil
}

// Objectives returns the active objectives, primary first.
func (e *Engine) Objectives() []string {
	return append([]string{e.cfg.Primary}, e.cfg.Secondaries...)
}

// Primary returns the primary objective.
func (e *Engine) Primary() string {
	return e.cfg.Primary
}

// Secondaries returns the secondary objectives in order.
func (e *Engine) Secondaries() []string {
	return append([]string(nil), e.cfg.Secondaries...)
}

// Instance returns the problem name.
func (e *Engine) Instance() string {
	return e.cfg.Problem.Name()
}

// Step returns the adaptive step for an objective.
func (e *Engine) Step(name string) float64 {
	if s, ok := e.cfg.Steps[name]; ok && s > 0 {
		return s
	}
	return DefaultStep
}

// Runs returns the number of solver calls made so far.
func (e *Engine) Runs() int {
	return e.runs
}

func (e *Engine) sense(name string) lp.Sense {
	// names are validated at construction
	s, _ := e.cfg.Registry.Sense(name)
	return s
}

// run is one scalarized solve.
type run struct {
	phase       string
	objective   string
	eps         interfaces.Assignment
	requireWork bool
}

func (r run) cacheKey() string {
	return fmt.Sprintf("%s|%t|%s", r.objective, r.requireWork, r.eps.Key())
}

// outcome is what a run produced. Model and Solution are nil for cached runs.
type outcome struct {
	point    interfaces.Point
	model    *lp.Model
	solution *lp.Solution
}

// buildModel returns a fresh model optimizing r.objective under r.eps.
func (e *Engine) buildModel(r run) (*lp.Model, error) {
	m, err := e.cfg.Problem.NewModel()
	if err != nil {
		return nil, fmt.Errorf("instance %s: build model: %w", e.Instance(), err)
	}
	expr, err := e.cfg.Registry.Expression(m, r.objective)
	if err != nil {
		return nil, err
	}
	m.SetObjective(r.objective, expr, e.sense(r.objective))

	for _, name := range r.eps.Names() {
		c, err := e.epsilonConstraint(m, name, r.eps[name])
		if err != nil {
			return nil, err
		}
		m.AddConstraint(c)
	}
	if r.requireWork {
		if err := e.cfg.Problem.RequireWork(m); err != nil {
			return nil, fmt.Errorf("instance %s: %w", e.Instance(), err)
		}
	}
	return m, nil
}

// epsilonConstraint bounds objective name by eps: <= for minimize, >= for maximize.
func (e *Engine) epsilonConstraint(m *lp.Model, name string, eps float64) (lp.Constraint, error) {
	expr, err := e.cfg.Registry.Expression(m, name)
	if err != nil {
		return lp.Constraint{}, err
	}
	rel := lp.GreaterEqual
	if e.sense(name) == lp.Minimize {
		rel = lp.LessEqual
	}
	return lp.Constraint{Name: "eps_" + name, Expr: expr, Rel: rel, RHS: eps}, nil
}

// solve performs r. Infeasible and failed runs return ErrInfeasible or
// ErrSolverFailure; any other error is fatal to the caller.
func (e *Engine) solve(ctx context.Context, r run, useCache bool) (*outcome, error) {
	logger := logging.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if useCache && e.cfg.Cache != nil {
		if cached, ok := e.cfg.Cache.Get(r.cacheKey()); ok {
			logger.V(logging.DEBUG).Info("Reusing earlier run", "phase", r.phase, "objective", r.objective, "epsilons", r.eps)
			if cached.Err != nil {
				return nil, cached.Err
			}
			return &outcome{point: cached.Point}, nil
		}
	}

	m, err := e.buildModel(r)
	if err != nil {
		return nil, err
	}
	res, solveErr := e.cfg.Solver.Solve(ctx, m, e.cfg.Options)
	e.runs++
	if e.cfg.Observer != nil {
		e.cfg.Observer.ObserveRun(r.phase, res.Status, res.Runtime)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *outcome
	switch {
	case solveErr != nil:
		err = fmt.Errorf("instance %s: %s run for %q: %w: %w", e.Instance(), r.phase, r.objective, ErrSolverFailure, solveErr)
	case res.Status == solver.StatusInfeasible:
		err = fmt.Errorf("instance %s: %s run for %q with epsilons %v: %w", e.Instance(), r.phase, r.objective, r.eps, ErrInfeasible)
	case !res.Status.Usable() || res.Solution == nil:
		err = fmt.Errorf("instance %s: %s run for %q ended with status %s (%s): %w",
			e.Instance(), r.phase, r.objective, res.Status, res.Message, ErrSolverFailure)
	default:
		point, evalErr := e.evaluate(m, res)
		if evalErr != nil {
			return nil, evalErr
		}
		point.Epsilons = r.eps.Clone()
		out = &outcome{point: point, model: m, solution: res.Solution}
	}

	if err != nil {
		logger.V(logging.DEBUG).Info("Run produced no point", "phase", r.phase, "objective", r.objective,
			"epsilons", r.eps, "status", res.Status.String(), "reason", err.Error())
	} else {
		logger.V(logging.DEBUG).Info("Run produced a point", "phase", r.phase, "objective", r.objective,
			"epsilons", r.eps, "status", res.Status.String(), "values", out.point.Values)
		if res.Status == solver.StatusTimeLimit {
			logger.Info("Time limit reached, keeping best feasible solution", "phase", r.phase,
				"objective", r.objective, "epsilons", r.eps)
		}
	}

	if useCache && e.cfg.Cache != nil {
		cached := common.CachedRun{Err: err}
		if out != nil {
			cached.Point = out.point
		}
		e.cfg.Cache.Set(r.cacheKey(), cached)
	}
	return out, err
}

// evaluate computes every active objective at the solution.
func (e *Engine) evaluate(m *lp.Model, res solver.Result) (interfaces.Point, error) {
	p := interfaces.Point{Status: res.Status, Values: make(map[string]objective.Value, len(e.cfg.Secondaries)+1)}
	for _, name := range e.Objectives() {
		v, err := e.cfg.Registry.Evaluate(m, res.Solution, name)
		if err != nil {
			return interfaces.Point{}, err
		}
		p.Values[name] = v
	}
	return p, nil
}
