package e2e

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

type yamlPoint struct {
	Status   string              `yaml:"status"`
	Epsilons map[string]float64  `yaml:"epsilons"`
	Values   map[string]*float64 `yaml:"values"`
}

type yamlReport struct {
	Strategy string                        `yaml:"strategy"`
	Runs     int                           `yaml:"runs"`
	Bounds   map[string]map[string]float64 `yaml:"bounds"`
	Raw      []yamlPoint                   `yaml:"raw"`
	Front    []yamlPoint                   `yaml:"front"`
	Point    yamlPoint                     `yaml:"point"`
	Schedule *struct {
		Assignments []map[string]any `yaml:"assignments"`
	} `yaml:"schedule"`
}

func decode(out string) yamlReport {
	var r yamlReport
	ExpectWithOffset(1, yaml.Unmarshal([]byte(out), &r)).To(Succeed(), out)
	return r
}

// dominates reports whether b is at least as good as a everywhere and better once.
func dominates(b, a yamlPoint) bool {
	maximize := map[string]bool{"profit": true}
	better := false
	for name, av := range a.Values {
		bv := b.Values[name]
		if av == nil || bv == nil {
			return false
		}
		diff := *bv - *av
		if !maximize[name] {
			diff = -diff
		}
		if diff < 0 {
			return false
		}
		if diff > 0 {
			better = true
		}
	}
	return better
}

var _ = Describe("staffing-pareto CLI", Ordered, func() {
	It("computes the payoff bounds of the toy instance", func() {
		out, err := runCLI("payoff", "--secondaries", "max_projects,lateness", "--output", "yaml")
		Expect(err).NotTo(HaveOccurred())

		r := decode(out)
		Expect(r.Strategy).To(Equal("payoff"))
		Expect(r.Runs).To(Equal(3))
		Expect(r.Bounds["profit"]["best"]).To(Equal(35.0))
		Expect(r.Bounds["lateness"]["best"]).To(Equal(0.0))
		Expect(r.Bounds["max_projects"]["best"]).To(Equal(1.0))
		Expect(r.Bounds["max_projects"]["worst"]).To(BeNumerically(">=", 1))
	})

	It("finds a non-dominated front with the adaptive search", func() {
		metricsFile := filepath.Join(GinkgoT().TempDir(), "metrics.prom")
		out, err := runCLI("adaptive", "--secondaries", "max_projects,lateness", "--output", "yaml",
			"--metrics-file", metricsFile)
		Expect(err).NotTo(HaveOccurred())

		r := decode(out)
		Expect(r.Front).NotTo(BeEmpty())
		Expect(len(r.Raw)).To(BeNumerically(">=", len(r.Front)))
		for i, a := range r.Front {
			for j, b := range r.Front {
				if i != j {
					Expect(dominates(b, a)).To(BeFalse(), "front point %d dominates %d", j, i)
				}
			}
		}

		metrics, err := os.ReadFile(metricsFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(metrics)).To(ContainSubstring(`staffing_pareto_solver_runs_total{phase="adaptive"`))
	})

	It("explores a small grid", func() {
		out, err := runCLI("grid", "--secondaries", "lateness", "--resolution", "2", "--output", "yaml")
		Expect(err).NotTo(HaveOccurred())
		r := decode(out)
		Expect(r.Runs).To(Equal(4))
		Expect(r.Front).NotTo(BeEmpty())
	})

	It("reproduces a point with a manual run and prints its plan", func() {
		out, err := runCLI("manual", "--secondaries", "max_projects,lateness",
			"--eps", "max_projects=1,lateness=0", "--output", "yaml", "--schedule")
		Expect(err).NotTo(HaveOccurred())

		r := decode(out)
		Expect(r.Point.Status).To(Equal("Optimal"))
		Expect(*r.Point.Values["profit"]).To(Equal(35.0))
		Expect(*r.Point.Values["max_projects"]).To(BeNumerically("<=", 1))
		Expect(r.Schedule).NotTo(BeNil())
		Expect(r.Schedule.Assignments).NotTo(BeEmpty())
	})

	It("reports an infeasible manual run", func() {
		out, err := runCLI("manual", "--secondaries", "lateness", "--eps", "lateness=-1")
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("infeasible"))
	})
})
