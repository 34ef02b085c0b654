// Package optimizer runs exploration sessions over one problem instance.
//
// A session wires the objective registry, the epsilon engine, the searcher
// selected by the strategy and the dominance filter:
//
//	Registry → Payoff → Search → Filter → Report
//
// Example usage:
//
//	opt, err := optimizer.NewOptimizer(problem, registry, highs, optimizer.Options{
//	    Solver: solver.Options{TimeLimit: time.Minute},
//	}, optimizer.WithMetrics(m))
//	if err != nil {
//	    return err
//	}
//
//	report, err := opt.RunAdaptive(ctx, "profit", []string{"lateness"})
//	if err != nil {
//	    log.Error(err, "session failed", "points", len(report.Raw))
//	}
//
// Error Handling:
//
// Invalid objective selections and undefined bounds abort the session before
// any search run. Runs that are infeasible or fail are skipped by the search.
// When the context ends, the report holds the points found so far and the
// context error is returned with it.
//
// Without secondaries a session optimizes the primary objective alone and
// skips the payoff table.
package optimizer
