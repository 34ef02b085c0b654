// Package solver runs mixed-integer linear programs built with package lp on an
// external solver.
//
// The package defines the Solver interface used by the epsilon-constraint
// engines and one implementation, Highs, which drives the HiGHS command-line
// binary: the model is written in CPLEX LP format to a scratch directory, the
// binary is started with the per-call time limit, and the raw solution file is
// read back.
//
// Outcomes:
//
//   - StatusOptimal: proven optimal solution
//   - StatusTimeLimit: the time limit was hit but a feasible solution exists
//   - StatusInfeasible: the model has no feasible solution
//   - StatusError: anything else, including a time limit without a solution
//
// Only StatusOptimal and StatusTimeLimit carry a Solution.
//
// Example usage:
//
//	s := solver.NewHighs(solver.HighsConfig{Binary: "highs", Threads: 1})
//	res, err := s.Solve(ctx, model, solver.Options{TimeLimit: 30 * time.Second})
//	if err != nil {
//	    return err
//	}
//	if res.Status.Usable() {
//	    x, _ := res.Solution.Value("x")
//	}
//
// Options are passed per call and never stored, so a single Solver can serve
// runs with different time limits.
package solver
