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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/llm-d/staffing-pareto/internal/config"
	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/internal/metrics"
	"github.com/llm-d/staffing-pareto/internal/optimizer"
	"github.com/llm-d/staffing-pareto/internal/report"
	"github.com/llm-d/staffing-pareto/internal/staffing"
	"github.com/llm-d/staffing-pareto/pkg/core"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

// newSolver builds the solver for a configuration. Tests replace it.
var newSolver = func(cfg config.SolverConfig) (solver.Solver, error) {
	highs := solver.NewHighs(solver.HighsConfig{
		Binary:     cfg.Binary,
		Threads:    cfg.Threads,
		RandomSeed: cfg.RandomSeed,
		MIPRelGap:  cfg.MIPRelGap,
		WorkDir:    cfg.WorkDir,
		KeepFiles:  cfg.KeepFiles,
		Grace:      cfg.Grace,
	})
	if !highs.Available() {
		return nil, fmt.Errorf("%w: %q", solver.ErrSolverNotFound, cfg.Binary)
	}
	return highs, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "staffing-pareto",
		Short: "Explore the Pareto front of a project staffing instance",
		Long: `staffing-pareto assigns qualified staff to projects over a horizon and
approximates the trade-offs between profit, lateness, duration and per-person
project load with the epsilon-constraint method.

Without a subcommand the configured strategy is run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStrategy(""),
	}
	config.AddFlags(root.PersistentFlags())

	for _, sub := range []struct {
		strategy, short string
	}{
		{config.StrategyAdaptive, "Adaptive recursive epsilon search"},
		{config.StrategyGrid, "Fixed-grid epsilon search (--resolution values per secondary)"},
		{config.StrategyManual, "Single run with the epsilon values given by --eps"},
		{config.StrategyPayoff, "Payoff table and objective bounds only"},
	} {
		root.AddCommand(&cobra.Command{
			Use:   sub.strategy,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE:  runStrategy(sub.strategy),
		})
	}
	return root
}

func runStrategy(strategy string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		if strategy != "" {
			cfg.Strategy = strategy
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		ctx := logging.IntoContext(cmd.Context(), logger)
		return run(ctx, cfg, cmd.OutOrStdout())
	}
}

// run loads the instance, runs one session and writes its report.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) (err error) {
	logger := logging.FromContext(ctx)

	inst, err := core.LoadInstance(cfg.Instance)
	if err != nil {
		return err
	}
	problem, err := staffing.NewProblem(inst)
	if err != nil {
		return err
	}
	registry, err := problem.Registry()
	if err != nil {
		return err
	}
	s, err := newSolver(cfg.Solver)
	if err != nil {
		return err
	}

	m := metrics.New()
	opt, err := optimizer.NewOptimizer(problem, registry, s, optimizer.Options{
		Solver: solver.Options{TimeLimit: cfg.Solver.TimeLimit},
		Steps:  cfg.Steps(),
		Dedupe: cfg.Dedupe,
	}, optimizer.WithMetrics(m))
	if err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := m.WriteFile(cfg.MetricsFile); werr != nil {
				logger.Error(werr, "Failed to write metrics", "path", cfg.MetricsFile)
			}
		}()
	}

	out := stdout
	if cfg.Output.File != "" {
		f, ferr := os.Create(cfg.Output.File)
		if ferr != nil {
			return fmt.Errorf("create report file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	opts := report.Options{Format: format, Schedule: cfg.Output.Schedule}

	if cfg.Strategy == config.StrategyManual {
		r, err := opt.RunManual(ctx, cfg.Primary, cfg.Secondaries, interfaces.Assignment(cfg.Epsilons()))
		if err != nil {
			return err
		}
		return report.WriteManual(out, r, opts)
	}

	var r *optimizer.Report
	switch cfg.Strategy {
	case config.StrategyPayoff:
		r, err = opt.Payoff(ctx, cfg.Primary, cfg.Secondaries)
	case config.StrategyGrid:
		r, err = opt.RunGrid(ctx, cfg.Primary, cfg.Secondaries, cfg.Resolution)
	default:
		r, err = opt.RunAdaptive(ctx, cfg.Primary, cfg.Secondaries)
	}
	// a stopped search still reports the points found so far
	if r != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		if werr := report.Write(out, r, opts); werr != nil {
			return werr
		}
	}
	return err
}
