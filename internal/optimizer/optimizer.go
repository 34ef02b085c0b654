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

package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/llm-d/staffing-pareto/internal/engines/common"
	"github.com/llm-d/staffing-pareto/internal/engines/epsilon"
	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/internal/metrics"
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/internal/pareto"
	"github.com/llm-d/staffing-pareto/pkg/core"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

// Session kinds reported in Report.Strategy.
const (
	StrategyAdaptive = "adaptive"
	StrategyGrid     = "grid"
	StrategyManual   = "manual"
	StrategyPayoff   = "payoff"
	StrategyMono     = "mono"
)

// Options tune every session of an Optimizer.
type Options struct {
	// Solver options are passed unchanged to each solver call.
	Solver solver.Options
	// Steps overrides the adaptive step per objective.
	Steps map[string]float64
	// Dedupe lets identical runs of one session reuse the first outcome.
	Dedupe bool
}

// ScheduleExtractor is implemented by problems that can read a plan back from
// a solution.
type ScheduleExtractor interface {
	ExtractSchedule(sol *lp.Solution) (*core.Schedule, error)
}

// Report is the outcome of a search or payoff session.
type Report struct {
	SessionID   string                  `yaml:"session_id"`
	Instance    string                  `yaml:"instance"`
	Strategy    string                  `yaml:"strategy"`
	Primary     string                  `yaml:"primary"`
	Secondaries []string                `yaml:"secondaries,omitempty"`
	Resolution  int                     `yaml:"resolution,omitempty"`
	Payoff      *interfaces.PayoffTable `yaml:"payoff,omitempty"`
	Bounds      interfaces.Bounds       `yaml:"bounds,omitempty"`
	Raw         []interfaces.Point      `yaml:"raw,omitempty"`
	Front       []interfaces.Point      `yaml:"front,omitempty"`
	Criteria    []objective.Criterion   `yaml:"-"`
	Runs        int                     `yaml:"runs"`
	StartedAt   time.Time               `yaml:"started_at"`
	Duration    time.Duration           `yaml:"duration"`
}

// ManualReport is the outcome of a manual session.
type ManualReport struct {
	SessionID   string                `yaml:"session_id"`
	Instance    string                `yaml:"instance"`
	Primary     string                `yaml:"primary"`
	Secondaries []string              `yaml:"secondaries,omitempty"`
	Point       interfaces.Point      `yaml:"point"`
	Schedule    *core.Schedule        `yaml:"schedule,omitempty"`
	Criteria    []objective.Criterion `yaml:"-"`
	StartedAt   time.Time             `yaml:"started_at"`
	Duration    time.Duration         `yaml:"duration"`
	// Result keeps the solved model for callers that inspect it.
	Result *epsilon.ManualResult `yaml:"-"`
}

// Optimizer runs sessions over one bound problem.
type Optimizer struct {
	problem  interfaces.Problem
	registry *objective.Registry
	solver   solver.Solver
	opts     Options
	metrics  *metrics.Metrics
	clock    clock.PassiveClock
}

// Option customizes an Optimizer.
type Option func(*Optimizer)

// WithMetrics records solver runs and session outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Optimizer) { o.metrics = m }
}

// WithClock replaces the clock used to time sessions.
func WithClock(c clock.PassiveClock) Option {
	return func(o *Optimizer) { o.clock = c }
}

// NewOptimizer binds a problem, its objectives and a solver.
func NewOptimizer(problem interfaces.Problem, registry *objective.Registry, s solver.Solver, opts Options, options ...Option) (*Optimizer, error) {
	if problem == nil {
		return nil, fmt.Errorf("problem cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("objective registry cannot be nil")
	}
	if s == nil {
		return nil, fmt.Errorf("solver cannot be nil")
	}
	o := &Optimizer{
		problem:  problem,
		registry: registry,
		solver:   s,
		opts:     opts,
		clock:    clock.RealClock{},
	}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// session is the per-call state shared by the entry points.
type session struct {
	id       string
	ctx      context.Context
	engine   *epsilon.Engine
	criteria []objective.Criterion
	started  time.Time
}

func (o *Optimizer) newSession(ctx context.Context, kind, primary string, secondaries []string) (*session, error) {
	cfg := epsilon.Config{
		Problem:     o.problem,
		Registry:    o.registry,
		Solver:      o.solver,
		Primary:     primary,
		Secondaries: secondaries,
		Options:     o.opts.Solver,
		Steps:       o.opts.Steps,
	}
	if o.opts.Dedupe {
		cfg.Cache = common.NewRunCache()
	}
	if o.metrics != nil {
		cfg.Observer = o.metrics
	}
	engine, err := epsilon.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", o.problem.Name(), err)
	}
	criteria, err := o.registry.Criteria(engine.Objectives())
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := logging.FromContext(ctx).WithValues("session", id, "instance", o.problem.Name(), "strategy", kind)
	logger.Info("Starting session", "primary", primary, "secondaries", secondaries,
		"timeLimit", o.opts.Solver.TimeLimit.String())
	return &session{
		id:       id,
		ctx:      logging.IntoContext(ctx, logger),
		engine:   engine,
		criteria: criteria,
		started:  o.clock.Now(),
	}, nil
}

func (o *Optimizer) newReport(s *session, kind string) *Report {
	return &Report{
		SessionID:   s.id,
		Instance:    o.problem.Name(),
		Strategy:    kind,
		Primary:     s.engine.Primary(),
		Secondaries: s.engine.Secondaries(),
		Criteria:    s.criteria,
		StartedAt:   s.started,
	}
}

// finish stamps run count and duration on r and records the session.
func (o *Optimizer) finish(s *session, r *Report) {
	r.Runs = s.engine.Runs()
	r.Duration = o.clock.Since(s.started)
	if o.metrics != nil {
		o.metrics.ObserveSession(r.Strategy, r.Duration)
		if r.Strategy != StrategyPayoff {
			o.metrics.ObserveSearch(r.Instance, r.Strategy, len(r.Raw), len(r.Front))
		}
	}
	logging.FromContext(s.ctx).Info("Session finished", "runs", r.Runs, "points", len(r.Raw),
		"front", len(r.Front), "duration", r.Duration.String())
}

// Payoff computes the payoff table and bounds of the selection without
// searching.
func (o *Optimizer) Payoff(ctx context.Context, primary string, secondaries []string) (*Report, error) {
	s, err := o.newSession(ctx, StrategyPayoff, primary, secondaries)
	if err != nil {
		return nil, err
	}
	report := o.newReport(s, StrategyPayoff)
	defer o.finish(s, report)

	table, bounds, err := s.engine.Payoff(s.ctx)
	report.Payoff = &table
	report.Bounds = bounds
	return report, err
}

// RunGrid explores a k-per-objective grid of epsilon values.
func (o *Optimizer) RunGrid(ctx context.Context, primary string, secondaries []string, resolution int) (*Report, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("grid resolution must be >= 1, got %d", resolution)
	}
	return o.search(ctx, epsilon.GridStrategy, resolution, primary, secondaries)
}

// RunAdaptive explores the front with the adaptive recursive search.
func (o *Optimizer) RunAdaptive(ctx context.Context, primary string, secondaries []string) (*Report, error) {
	return o.search(ctx, epsilon.AdaptiveStrategy, 0, primary, secondaries)
}

func (o *Optimizer) search(ctx context.Context, strategy epsilon.Strategy, resolution int, primary string, secondaries []string) (*Report, error) {
	kind := strategy.String()
	if len(secondaries) == 0 {
		kind = StrategyMono
	}
	s, err := o.newSession(ctx, kind, primary, secondaries)
	if err != nil {
		return nil, err
	}
	report := o.newReport(s, kind)
	defer o.finish(s, report)

	if kind == StrategyMono {
		result, err := s.engine.SolveMono(s.ctx)
		report.Raw = result.Points
		report.Front = pareto.Filter(result.Points, s.criteria)
		return report, err
	}

	report.Resolution = resolution
	table, bounds, err := s.engine.Payoff(s.ctx)
	report.Payoff = &table
	if err != nil {
		return report, err
	}
	report.Bounds = bounds

	searcher, err := epsilon.NewSearcher(strategy, s.engine, resolution)
	if err != nil {
		return report, err
	}
	result, err := searcher.Search(s.ctx, bounds)
	report.Raw = result.Points
	report.Front = pareto.Filter(result.Points, s.criteria)
	if err != nil {
		logging.FromContext(s.ctx).Error(err, "Search stopped early", "points", len(result.Points))
	}
	return report, err
}

// RunManual solves once with the given epsilon value for every secondary.
func (o *Optimizer) RunManual(ctx context.Context, primary string, secondaries []string, eps interfaces.Assignment) (*ManualReport, error) {
	s, err := o.newSession(ctx, StrategyManual, primary, secondaries)
	if err != nil {
		return nil, err
	}
	report := &ManualReport{
		SessionID:   s.id,
		Instance:    o.problem.Name(),
		Primary:     primary,
		Secondaries: s.engine.Secondaries(),
		Criteria:    s.criteria,
		StartedAt:   s.started,
	}
	defer func() {
		report.Duration = o.clock.Since(s.started)
		if o.metrics != nil {
			o.metrics.ObserveSession(StrategyManual, report.Duration)
		}
	}()

	result, err := s.engine.SolveManual(s.ctx, eps)
	if err != nil {
		return nil, err
	}
	report.Point = result.Point
	report.Result = result
	if extractor, ok := o.problem.(ScheduleExtractor); ok {
		schedule, err := extractor.ExtractSchedule(result.Solution)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", o.problem.Name(), err)
		}
		report.Schedule = schedule
	}
	return report, nil
}
