package optimizer

import (
	"bytes"
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/llm-d/staffing-pareto/internal/engines/epsilon"
	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/metrics"
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/pkg/core"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
	"github.com/llm-d/staffing-pareto/test/utils"
)

// plannedToy is a toy problem that can read a schedule back.
type plannedToy struct {
	utils.ToyProblem
}

func (p *plannedToy) ExtractSchedule(sol *lp.Solution) (*core.Schedule, error) {
	late, _ := sol.Value(utils.VarLateness)
	return &core.Schedule{Jobs: []core.JobOutcome{{Job: "toy", Completed: true, DaysLate: int(late)}}}, nil
}

func profitLateness(points []interfaces.Point) [][2]float64 {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		out = append(out, [2]float64{p.Values["profit"].Or(math.NaN()), p.Values["lateness"].Or(math.NaN())})
	}
	return out
}

var _ = ginkgo.Describe("Optimizer", func() {
	var (
		ctx   context.Context
		s     *utils.EnumerationSolver
		m     *metrics.Metrics
		clk   *testingclock.FakePassiveClock
		opt   *Optimizer
		start = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	)

	newOptimizer := func(problem interfaces.Problem, opts Options) *Optimizer {
		o, err := NewOptimizer(problem, utils.ToyRegistry(), s, opts, WithMetrics(m), WithClock(clk))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return o
	}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		s = utils.ToySolver(utils.TwoObjectivePoints()...)
		m = metrics.New()
		clk = testingclock.NewFakePassiveClock(start)
		opt = newOptimizer(&utils.ToyProblem{}, Options{Solver: solver.Options{TimeLimit: time.Minute}})
	})

	ginkgo.Context("NewOptimizer", func() {
		ginkgo.It("rejects missing dependencies", func() {
			_, err := NewOptimizer(nil, utils.ToyRegistry(), s, Options{})
			Expect(err).To(HaveOccurred())
			_, err = NewOptimizer(&utils.ToyProblem{}, nil, s, Options{})
			Expect(err).To(HaveOccurred())
			_, err = NewOptimizer(&utils.ToyProblem{}, utils.ToyRegistry(), nil, Options{})
			Expect(err).To(HaveOccurred())
		})
	})

	ginkgo.Context("RunAdaptive", func() {
		ginkgo.It("computes bounds, searches and filters", func() {
			report, err := opt.RunAdaptive(ctx, "profit", []string{"lateness"})
			Expect(err).NotTo(HaveOccurred())

			_, parseErr := uuid.Parse(report.SessionID)
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(report.Strategy).To(Equal(StrategyAdaptive))
			Expect(report.Instance).To(Equal("toy"))
			Expect(report.Bounds).To(Equal(interfaces.Bounds{
				"profit":   {Best: 100, Worst: 40},
				"lateness": {Best: 0, Worst: 5},
			}))
			Expect(report.Payoff.Rows).To(HaveLen(2))
			Expect(profitLateness(report.Raw)).To(Equal([][2]float64{{100, 5}, {90, 2}, {40, 0}}))
			Expect(profitLateness(report.Front)).To(Equal([][2]float64{{100, 5}, {90, 2}, {40, 0}}))
			Expect(report.Runs).To(Equal(5))
			Expect(s.NumCalls()).To(Equal(5))
			Expect(report.StartedAt).To(Equal(start))
			Expect(report.Duration).To(BeZero())
			Expect(report.Criteria).To(HaveLen(2))
		})

		ginkgo.It("records solver runs and the search outcome", func() {
			_, err := opt.RunAdaptive(ctx, "profit", []string{"lateness"})
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(m.WriteText(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring(`staffing_pareto_solver_runs_total{phase="payoff",status="Optimal"} 2`))
			Expect(buf.String()).To(ContainSubstring(`staffing_pareto_solver_runs_total{phase="adaptive",status="Optimal"} 3`))
			Expect(buf.String()).To(ContainSubstring(`staffing_pareto_pareto_front_size{instance="toy",strategy="adaptive"} 3`))
		})

		ginkgo.It("optimizes the primary alone without secondaries", func() {
			report, err := opt.RunAdaptive(ctx, "profit", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Strategy).To(Equal(StrategyMono))
			Expect(report.Payoff).To(BeNil())
			Expect(report.Bounds).To(BeNil())
			Expect(report.Runs).To(Equal(1))
			Expect(report.Front).To(HaveLen(1))
			Expect(report.Front[0].Values["profit"].Or(0)).To(Equal(100.0))
		})

		ginkgo.It("rejects unknown objectives before solving", func() {
			report, err := opt.RunAdaptive(ctx, "profit", []string{"overtime"})
			Expect(errors.Is(err, objective.ErrUnknownObjective)).To(BeTrue())
			Expect(report).To(BeNil())
			Expect(s.NumCalls()).To(BeZero())
		})

		ginkgo.It("aborts when an anchor has no feasible solution", func() {
			s = utils.ToySolver(utils.ToyPoint{})
			opt = newOptimizer(&utils.ToyProblem{}, Options{})
			report, err := opt.RunAdaptive(ctx, "profit", []string{"lateness"})
			Expect(errors.Is(err, epsilon.ErrUndefinedBounds)).To(BeTrue())
			var boundsErr *epsilon.BoundsError
			Expect(errors.As(err, &boundsErr)).To(BeTrue())
			Expect(boundsErr.Objective).To(Equal("lateness"))
			Expect(report.Raw).To(BeEmpty())
			Expect(report.Payoff.Rows).To(HaveLen(1))
		})

		ginkgo.It("returns the context error when canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			report, err := opt.RunAdaptive(canceled, "profit", []string{"lateness"})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(report).NotTo(BeNil())
			Expect(report.Front).To(BeEmpty())
		})
	})

	ginkgo.Context("RunGrid", func() {
		ginkgo.It("runs one solve per grid cell", func() {
			report, err := opt.RunGrid(ctx, "profit", []string{"lateness"}, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Strategy).To(Equal(StrategyGrid))
			Expect(report.Resolution).To(Equal(6))
			Expect(report.Raw).To(HaveLen(6))
			Expect(report.Runs).To(Equal(8))
			for _, p := range report.Front {
				Expect(p.Values["lateness"].Or(math.NaN())).To(BeElementOf(0.0, 2.0, 5.0))
			}
		})

		ginkgo.It("rejects a resolution below 1", func() {
			_, err := opt.RunGrid(ctx, "profit", []string{"lateness"}, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	ginkgo.Context("Payoff", func() {
		ginkgo.It("returns the table and bounds only", func() {
			report, err := opt.Payoff(ctx, "profit", []string{"lateness"})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Strategy).To(Equal(StrategyPayoff))
			Expect(report.Payoff.Objectives).To(Equal([]string{"profit", "lateness"}))
			Expect(report.Raw).To(BeEmpty())
			Expect(report.Runs).To(Equal(2))
		})
	})

	ginkgo.Context("RunManual", func() {
		ginkgo.It("solves once and reads the plan back", func() {
			opt = newOptimizer(&plannedToy{}, Options{})
			report, err := opt.RunManual(ctx, "profit", []string{"lateness"}, interfaces.Assignment{"lateness": 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Point.Values["profit"].Or(0)).To(Equal(90.0))
			Expect(report.Point.Epsilons).To(Equal(interfaces.Assignment{"lateness": 2}))
			Expect(report.Schedule).NotTo(BeNil())
			Expect(report.Schedule.Jobs[0].DaysLate).To(Equal(2))
			Expect(report.Result.Model).NotTo(BeNil())
			Expect(s.NumCalls()).To(Equal(1))
		})

		ginkgo.It("has no schedule when the problem cannot extract one", func() {
			report, err := opt.RunManual(ctx, "profit", []string{"lateness"}, interfaces.Assignment{"lateness": 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Schedule).To(BeNil())
		})

		ginkgo.It("fails on a missing epsilon value", func() {
			report, err := opt.RunManual(ctx, "profit", []string{"lateness"}, interfaces.Assignment{})
			Expect(errors.Is(err, epsilon.ErrMissingEpsilonValue)).To(BeTrue())
			Expect(report).To(BeNil())
		})

		ginkgo.It("reports infeasibility", func() {
			s = utils.ToySolver(utils.ToyPoint{Profit: 10, Lateness: 4, Work: true})
			opt = newOptimizer(&utils.ToyProblem{}, Options{})
			report, err := opt.RunManual(ctx, "profit", []string{"lateness"}, interfaces.Assignment{"lateness": 2})
			Expect(errors.Is(err, epsilon.ErrInfeasible)).To(BeTrue())
			Expect(report).To(BeNil())
		})
	})
})
