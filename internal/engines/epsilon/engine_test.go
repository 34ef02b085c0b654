package epsilon

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d/staffing-pareto/internal/engines/common"
	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/internal/pareto"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
	"github.com/llm-d/staffing-pareto/test/utils"
)

type recordingObserver struct {
	phases []string
}

func (r *recordingObserver) ObserveRun(phase string, _ solver.Status, _ time.Duration) {
	r.phases = append(r.phases, phase)
}

func newEngine(s solver.Solver, primary string, secondaries []string, mods ...func(*Config)) *Engine {
	cfg := Config{
		Problem:     &utils.ToyProblem{},
		Registry:    utils.ToyRegistry(),
		Solver:      s,
		Primary:     primary,
		Secondaries: secondaries,
		Options:     solver.Options{TimeLimit: time.Minute},
	}
	for _, mod := range mods {
		mod(&cfg)
	}
	e, err := NewEngine(cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return e
}

// pv flattens the values of points for comparison.
func pv(points []interfaces.Point, names ...string) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		row := make([]float64, 0, len(names))
		for _, n := range names {
			row = append(row, p.Values[n].Or(math.NaN()))
		}
		out = append(out, row)
	}
	return out
}

func hasConstraint(m *lp.Model, name string) bool {
	for _, c := range m.Constraints() {
		if c.Name == name {
			return true
		}
	}
	return false
}

var _ = Describe("Epsilon engine", func() {
	var (
		ctx context.Context
		s   *utils.EnumerationSolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = utils.ToySolver(utils.TwoObjectivePoints()...)
	})

	Context("NewEngine", func() {
		It("rejects unknown objectives", func() {
			_, err := NewEngine(Config{Problem: &utils.ToyProblem{}, Registry: utils.ToyRegistry(), Solver: s,
				Primary: "profit", Secondaries: []string{"happiness"}})
			Expect(errors.Is(err, objective.ErrUnknownObjective)).To(BeTrue())
		})

		It("rejects non-positive steps", func() {
			_, err := NewEngine(Config{Problem: &utils.ToyProblem{}, Registry: utils.ToyRegistry(), Solver: s,
				Primary: "profit", Secondaries: []string{"lateness"}, Steps: map[string]float64{"lateness": 0}})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a missing solver", func() {
			_, err := NewEngine(Config{Problem: &utils.ToyProblem{}, Registry: utils.ToyRegistry(), Primary: "profit"})
			Expect(err).To(HaveOccurred())
		})

		It("uses the default step unless overridden", func() {
			e := newEngine(s, "profit", []string{"lateness"}, func(c *Config) {
				c.Steps = map[string]float64{"duration": 2}
			})
			Expect(e.Step("lateness")).To(Equal(DefaultStep))
			Expect(e.Step("duration")).To(Equal(2.0))
		})
	})

	Context("Payoff", func() {
		It("derives bounds from the anchors", func() {
			obs := &recordingObserver{}
			e := newEngine(s, "profit", []string{"lateness"}, func(c *Config) { c.Observer = obs })

			table, bounds, err := e.Payoff(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(bounds).To(Equal(interfaces.Bounds{
				"profit":   {Best: 100, Worst: 40},
				"lateness": {Best: 0, Worst: 5},
			}))
			Expect(table.Objectives).To(Equal([]string{"profit", "lateness"}))
			Expect(table.Rows).To(HaveLen(2))
			Expect(table.Rows[1].Values["profit"].Or(0)).To(Equal(40.0))
			Expect(obs.phases).To(Equal([]string{PhasePayoff, PhasePayoff}))
		})

		It("requires work only for minimize anchors", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			_, _, err := e.Payoff(ctx)
			Expect(err).NotTo(HaveOccurred())

			calls := s.Calls()
			Expect(calls).To(HaveLen(2))
			Expect(hasConstraint(calls[0].Model, "require_work")).To(BeFalse())
			Expect(hasConstraint(calls[1].Model, "require_work")).To(BeTrue())
			Expect(calls[1].Options.TimeLimit).To(Equal(time.Minute))
		})

		It("keeps best at least as good as worst", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			_, bounds, err := e.Payoff(ctx)
			Expect(err).NotTo(HaveOccurred())
			for name, r := range bounds {
				sense, _ := utils.ToyRegistry().Sense(name)
				Expect(sense.Better(r.Worst, r.Best)).To(BeFalse(), name)
			}
		})

		It("floors a negative worst of a maximize objective at 0", func() {
			s = utils.ToySolver(
				utils.ToyPoint{Profit: -10, Lateness: 0, Work: true},
				utils.ToyPoint{Profit: 50, Lateness: 4, Work: true},
			)
			e := newEngine(s, "profit", []string{"lateness"})
			_, bounds, err := e.Payoff(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(bounds["profit"]).To(Equal(interfaces.Range{Best: 50, Worst: 0}))
		})

		It("aborts with a bounds error when an anchor is infeasible", func() {
			s.Override = func(call int, _ *lp.Model, res solver.Result) (solver.Result, error) {
				if call == 1 {
					return solver.Result{Status: solver.StatusInfeasible}, nil
				}
				return res, nil
			}
			e := newEngine(s, "profit", []string{"lateness"})
			_, _, err := e.Payoff(ctx)
			Expect(errors.Is(err, ErrUndefinedBounds)).To(BeTrue())
			Expect(errors.Is(err, ErrInfeasible)).To(BeTrue())

			var be *BoundsError
			Expect(errors.As(err, &be)).To(BeTrue())
			Expect(be.Objective).To(Equal("lateness"))
			Expect(be.Instance).To(Equal("toy"))
			Expect(be.Status).To(Equal(solver.StatusInfeasible))
		})

		It("aborts with a bounds error when the solver fails", func() {
			s.Override = func(int, *lp.Model, solver.Result) (solver.Result, error) {
				return solver.Result{Status: solver.StatusError}, errors.New("boom")
			}
			e := newEngine(s, "profit", []string{"lateness"})
			_, _, err := e.Payoff(ctx)
			Expect(errors.Is(err, ErrUndefinedBounds)).To(BeTrue())
			Expect(errors.Is(err, ErrSolverFailure)).To(BeTrue())
		})
	})

	Context("Grid search", func() {
		It("solves every cell of the grid", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			g, err := NewGridSearcher(e, 6)
			Expect(err).NotTo(HaveOccurred())

			res, err := g.Search(ctx, interfaces.Bounds{"lateness": {Best: 0, Worst: 5}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(6))
			Expect(pv(res.Points, "profit", "lateness")).To(Equal([][]float64{
				{40, 0}, {40, 0}, {90, 2}, {90, 2}, {90, 2}, {100, 5},
			}))
			Expect(res.Points[2].Epsilons).To(Equal(interfaces.Assignment{"lateness": 2}))
		})

		It("uses the best bound alone when the resolution is 1", func() {
			Expect(GridValues(interfaces.Range{Best: 0, Worst: 5}, 1)).To(Equal([]float64{0}))
			Expect(GridValues(interfaces.Range{Best: 100, Worst: 40}, 4)).To(Equal([]float64{100, 80, 60, 40}))
		})

		It("rejects a resolution below 1", func() {
			_, err := NewGridSearcher(newEngine(s, "profit", []string{"lateness"}), 0)
			Expect(err).To(HaveOccurred())
		})

		It("skips failed runs and keeps going", func() {
			s.Override = func(call int, _ *lp.Model, res solver.Result) (solver.Result, error) {
				if call == 1 {
					return solver.Result{Status: solver.StatusError}, errors.New("crashed")
				}
				return res, nil
			}
			e := newEngine(s, "profit", []string{"lateness"})
			g, _ := NewGridSearcher(e, 6)
			res, err := g.Search(ctx, interfaces.Bounds{"lateness": {Best: 0, Worst: 5}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(6))
			Expect(res.Points).To(HaveLen(5))
		})

		It("builds the cartesian product of several secondaries", func() {
			e := newEngine(s, "profit", []string{"lateness", "duration"})
			g, _ := NewGridSearcher(e, 3)
			res, err := g.Search(ctx, interfaces.Bounds{
				"lateness": {Best: 0, Worst: 4},
				"duration": {Best: 0, Worst: 2},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(9))
			Expect(s.Calls()[1].Model.NumConstraints()).To(Equal(2))
		})
	})

	Context("Adaptive search", func() {
		bounds := interfaces.Bounds{"lateness": {Best: 0, Worst: 5}}

		It("jumps past each attained value", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := NewAdaptiveSearcher(e).Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(3))
			Expect(pv(res.Points, "profit", "lateness")).To(Equal([][]float64{{100, 5}, {90, 2}, {40, 0}}))

			eps := make([]float64, 0, len(res.Points))
			for _, p := range res.Points {
				eps = append(eps, p.Epsilons["lateness"])
			}
			Expect(eps).To(Equal([]float64{5, 4.5, 1.5}))
		})

		It("needs no more runs than the grid with the same step", func() {
			adaptive, err := NewAdaptiveSearcher(newEngine(s, "profit", []string{"lateness"})).Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())

			// a grid with spacing equal to the step
			g, _ := NewGridSearcher(newEngine(utils.ToySolver(utils.TwoObjectivePoints()...), "profit", []string{"lateness"}), 11)
			grid, err := g.Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())
			Expect(adaptive.Runs).To(BeNumerically("<=", grid.Runs))
		})

		It("honors a per-objective step", func() {
			e := newEngine(s, "profit", []string{"lateness"}, func(c *Config) {
				c.Steps = map[string]float64{"lateness": 2.5}
			})
			res, err := NewAdaptiveSearcher(e).Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())
			// 5 -> (100,5); 2.5 -> (90,2); next -0.5 is past the best bound
			Expect(pv(res.Points, "profit", "lateness")).To(Equal([][]float64{{100, 5}, {90, 2}}))
		})

		It("produces points the manual solver reproduces", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := NewAdaptiveSearcher(e).Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())
			for _, p := range res.Points {
				manual, err := e.SolveManual(ctx, p.Epsilons)
				Expect(err).NotTo(HaveOccurred())
				Expect(manual.Point.Values).To(Equal(p.Values))
			}
		})

		It("stops the loop when a run is infeasible", func() {
			s.Override = func(call int, _ *lp.Model, res solver.Result) (solver.Result, error) {
				if call == 1 {
					return solver.Result{Status: solver.StatusInfeasible}, nil
				}
				return res, nil
			}
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := NewAdaptiveSearcher(e).Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(2))
			Expect(res.Points).To(HaveLen(1))
		})

		It("returns accumulated points when the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			s.Override = func(call int, _ *lp.Model, res solver.Result) (solver.Result, error) {
				if call == 1 {
					cancel()
				}
				return res, nil
			}
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := NewAdaptiveSearcher(e).Search(cctx, bounds)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(pv(res.Points, "profit", "lateness")).To(Equal([][]float64{{100, 5}}))
		})

		It("nests one loop per secondary", func() {
			s = utils.ToySolver(
				utils.ToyPoint{},
				utils.ToyPoint{Profit: 100, Lateness: 5, Duration: 9, Work: true},
				utils.ToyPoint{Profit: 90, Lateness: 2, Duration: 8, Work: true},
				utils.ToyPoint{Profit: 80, Lateness: 3, Duration: 3, Work: true},
				utils.ToyPoint{Profit: 40, Lateness: 0, Duration: 5, Work: true},
				utils.ToyPoint{Profit: 60, Lateness: 1, Duration: 2, Work: true},
			)
			e := newEngine(s, "profit", []string{"lateness", "duration"})
			_, b, err := e.Payoff(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(b["duration"]).To(Equal(interfaces.Range{Best: 2, Worst: 9}))

			res, err := NewAdaptiveSearcher(e).Search(ctx, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(6))
			Expect(pv(res.Points, "profit", "lateness", "duration")).To(Equal([][]float64{
				{100, 5, 9}, {90, 2, 8}, {80, 3, 3}, {60, 1, 2}, {40, 0, 5}, {0, 0, 0},
			}))
			Expect(res.Points[4].Epsilons).To(Equal(interfaces.Assignment{"lateness": 0.5, "duration": 9}))

			crit, _ := utils.ToyRegistry().Criteria(e.Objectives())
			Expect(pareto.Filter(res.Points, crit)).To(HaveLen(6))
		})

		It("reuses runs already solved in the session", func() {
			cache := common.NewRunCache()
			e := newEngine(s, "profit", []string{"lateness"}, func(c *Config) { c.Cache = cache })

			g, _ := NewGridSearcher(e, 6)
			_, err := g.Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())

			res, err := NewAdaptiveSearcher(e).Search(ctx, bounds)
			Expect(err).NotTo(HaveOccurred())
			// lateness=5 was solved by the grid
			Expect(res.Runs).To(Equal(2))
			Expect(res.Points).To(HaveLen(3))
			Expect(cache.Hits()).To(Equal(1))
		})
	})

	Context("Manual solve", func() {
		It("only accepts points within the epsilon", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := e.SolveManual(ctx, interfaces.Assignment{"lateness": 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Model).NotTo(BeNil())
			Expect(res.Solution).NotTo(BeNil())
			Expect(res.Point.Values["lateness"].Or(99)).To(BeNumerically("<=", 2))
			Expect(pv([]interfaces.Point{res.Point}, "profit", "lateness")).To(Equal([][]float64{{90, 2}}))
		})

		It("returns ErrInfeasible and no model", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := e.SolveManual(ctx, interfaces.Assignment{"lateness": -1})
			Expect(errors.Is(err, ErrInfeasible)).To(BeTrue())
			Expect(res).To(BeNil())
		})

		It("returns ErrSolverFailure when the solver errors", func() {
			s.Override = func(int, *lp.Model, solver.Result) (solver.Result, error) {
				return solver.Result{Status: solver.StatusError, Message: "Unbounded"}, nil
			}
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := e.SolveManual(ctx, interfaces.Assignment{"lateness": 2})
			Expect(errors.Is(err, ErrSolverFailure)).To(BeTrue())
			Expect(res).To(BeNil())
		})

		It("requires a value for every secondary", func() {
			e := newEngine(s, "profit", []string{"lateness", "duration"})
			_, err := e.SolveManual(ctx, interfaces.Assignment{"lateness": 2})
			Expect(errors.Is(err, ErrMissingEpsilonValue)).To(BeTrue())
			Expect(s.NumCalls()).To(Equal(0))
		})

		It("returns time-limited solutions", func() {
			s.Override = func(_ int, _ *lp.Model, res solver.Result) (solver.Result, error) {
				res.Status = solver.StatusTimeLimit
				return res, nil
			}
			e := newEngine(s, "profit", []string{"lateness"})
			res, err := e.SolveManual(ctx, interfaces.Assignment{"lateness": 2, "duration": 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Point.Status).To(Equal(solver.StatusTimeLimit))
			Expect(res.Point.Epsilons).To(Equal(interfaces.Assignment{"lateness": 2}))
		})
	})

	Context("Mono-objective", func() {
		It("solves the primary once", func() {
			e := newEngine(s, "profit", nil)
			res, err := e.SolveMono(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Runs).To(Equal(1))
			Expect(pv(res.Points, "profit")).To(Equal([][]float64{{100}}))
		})

		It("returns no point when infeasible", func() {
			s.Override = func(int, *lp.Model, solver.Result) (solver.Result, error) {
				return solver.Result{Status: solver.StatusInfeasible}, nil
			}
			res, err := newEngine(s, "profit", nil).SolveMono(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Points).To(BeEmpty())
		})
	})

	Context("Strategy factory", func() {
		It("parses strategies", func() {
			st, err := ParseStrategy("Grid")
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(GridStrategy))
			Expect(AdaptiveStrategy.String()).To(Equal("adaptive"))
			_, err = ParseStrategy("random")
			Expect(err).To(HaveOccurred())
		})

		It("creates searchers", func() {
			e := newEngine(s, "profit", []string{"lateness"})
			sr, err := NewSearcher(AdaptiveStrategy, e, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(sr).To(BeAssignableToTypeOf(&AdaptiveSearcher{}))

			sr, err = NewSearcher(GridStrategy, e, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(sr).To(BeAssignableToTypeOf(&GridSearcher{}))

			_, err = NewSearcher(Strategy(42), e, 4)
			Expect(err).To(HaveOccurred())
		})
	})
})
