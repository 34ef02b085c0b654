package pareto

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

var criteria = []objective.Criterion{
	{Name: "profit", Sense: lp.Maximize, Integral: true},
	{Name: "lateness", Sense: lp.Minimize, Integral: true},
}

func point(profit, lateness float64) interfaces.Point {
	return interfaces.Point{
		Status: solver.StatusOptimal,
		Values: map[string]objective.Value{
			"profit":   objective.Defined(profit),
			"lateness": objective.Defined(lateness),
		},
	}
}

func values(points []interfaces.Point) [][2]float64 {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		out = append(out, [2]float64{p.Values["profit"].Or(math.NaN()), p.Values["lateness"].Or(math.NaN())})
	}
	return out
}

// noMutualDominance checks that no point of front dominates another.
func noMutualDominance(front []interfaces.Point) {
	for i, a := range front {
		for j, b := range front {
			if i != j {
				ExpectWithOffset(1, Dominates(b, a, criteria)).To(BeFalse(), "point %d dominates point %d", j, i)
			}
		}
	}
}

var _ = Describe("Dominance filter", func() {
	var (
		a = point(80, 3)
		b = point(90, 2)
		c = point(90, 5)
	)

	Context("Dominates", func() {
		It("B dominates A and C", func() {
			Expect(Dominates(b, a, criteria)).To(BeTrue())
			Expect(Dominates(b, c, criteria)).To(BeTrue())
		})

		It("C does not dominate B", func() {
			Expect(Dominates(c, b, criteria)).To(BeFalse())
		})

		It("equal points do not dominate each other", func() {
			Expect(Dominates(b, point(90, 2), criteria)).To(BeFalse())
		})

		It("rounds integral objectives before comparing", func() {
			Expect(Dominates(point(90.2, 2), b, criteria)).To(BeFalse())
			Expect(Dominates(point(90.6, 2), b, criteria)).To(BeTrue())
		})

		It("compares exact values when the objective is not integral", func() {
			exact := []objective.Criterion{
				{Name: "profit", Sense: lp.Maximize},
				{Name: "lateness", Sense: lp.Minimize},
			}
			Expect(Dominates(point(90.2, 2), b, exact)).To(BeTrue())
		})
	})

	Context("Filter", func() {
		It("keeps only non-dominated points in input order", func() {
			front := Filter([]interfaces.Point{a, b, c, point(40, 0), point(100, 5)}, criteria)
			Expect(values(front)).To(Equal([][2]float64{{90, 2}, {40, 0}, {100, 5}}))
			noMutualDominance(front)
		})

		It("is idempotent", func() {
			in := []interfaces.Point{point(10, 9), a, b, c, point(40, 0), point(100, 5), point(95, 4), point(95, 4)}
			once := Filter(in, criteria)
			Expect(Filter(once, criteria)).To(Equal(once))
			noMutualDominance(once)
		})

		It("returns an empty front when every point is infeasible", func() {
			infeasible := []interfaces.Point{
				{Status: solver.StatusInfeasible, Values: map[string]objective.Value{"profit": objective.Undefined(), "lateness": objective.Undefined()}},
				{Status: solver.StatusError},
			}
			Expect(Filter(infeasible, criteria)).To(BeEmpty())
		})

		It("drops points with undefined values and keeps time-limited ones", func() {
			undefined := point(1000, 0)
			undefined.Values["lateness"] = objective.Undefined()
			limited := point(70, 1)
			limited.Status = solver.StatusTimeLimit

			front := Filter([]interfaces.Point{undefined, limited, b}, criteria)
			Expect(front).To(HaveLen(2))
			Expect(front[0].Status).To(Equal(solver.StatusTimeLimit))
		})

		It("returns an empty front for no input", func() {
			Expect(Filter(nil, criteria)).To(BeEmpty())
		})
	})

	Context("Sorted", func() {
		It("orders by the first criterion, then the next", func() {
			sorted := Sorted([]interfaces.Point{point(40, 0), point(90, 5), point(90, 2), point(100, 5)}, criteria)
			Expect(values(sorted)).To(Equal([][2]float64{{100, 5}, {90, 2}, {90, 5}, {40, 0}}))
		})
	})
})
