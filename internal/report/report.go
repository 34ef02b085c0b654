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

// Package report renders session reports as aligned text tables or YAML.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/optimizer"
	"github.com/llm-d/staffing-pareto/internal/pareto"
	"github.com/llm-d/staffing-pareto/pkg/core"
)

// Format selects the report rendering.
type Format string

const (
	Table Format = "table"
	YAML  Format = "yaml"
)

// ParseFormat maps "table" or "yaml" to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Table, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format: %q", s)
	}
}

// Options control what a report shows.
type Options struct {
	Format Format
	// Schedule prints the per-day plan of manual runs in table format.
	Schedule bool
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// Write renders a search or payoff report.
func Write(w io.Writer, r *optimizer.Report, opts Options) error {
	if opts.Format == YAML {
		return writeYAML(w, r)
	}
	objectives := append([]string{r.Primary}, r.Secondaries...)

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Session:\t%s\n", r.SessionID)
	fmt.Fprintf(tw, "Instance:\t%s\n", r.Instance)
	fmt.Fprintf(tw, "Strategy:\t%s\n", r.Strategy)
	fmt.Fprintf(tw, "Primary:\t%s\n", r.Primary)
	if len(r.Secondaries) > 0 {
		fmt.Fprintf(tw, "Secondaries:\t%s\n", strings.Join(r.Secondaries, ", "))
	}
	if r.Resolution > 0 {
		fmt.Fprintf(tw, "Resolution:\t%d\n", r.Resolution)
	}
	fmt.Fprintf(tw, "Solver runs:\t%d\n", r.Runs)
	if r.Strategy != optimizer.StrategyPayoff {
		fmt.Fprintf(tw, "Points found:\t%d\n", len(r.Raw))
		fmt.Fprintf(tw, "Pareto points:\t%d\n", len(r.Front))
	}
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration)
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Payoff != nil && len(r.Payoff.Rows) > 0 {
		fmt.Fprintln(w, "\nPayoff table")
		if err := writePayoff(w, r.Payoff); err != nil {
			return err
		}
	}
	if len(r.Bounds) > 0 {
		fmt.Fprintln(w, "\nBounds")
		if err := writeBounds(w, objectives, r.Bounds); err != nil {
			return err
		}
	}
	if r.Strategy == optimizer.StrategyPayoff {
		return nil
	}

	fmt.Fprintln(w, "\nPareto front")
	if len(r.Front) == 0 {
		_, err := fmt.Fprintln(w, "  no feasible point")
		return err
	}
	front := r.Front
	if len(r.Criteria) > 0 {
		front = pareto.Sorted(front, r.Criteria)
	}
	return writePoints(w, objectives, r.Secondaries, front)
}

func writePayoff(w io.Writer, t *interfaces.PayoffTable) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ANCHOR\tSTATUS\t%s\n", strings.ToUpper(strings.Join(t.Objectives, "\t")))
	for _, row := range t.Rows {
		cells := make([]string, 0, len(t.Objectives))
		for _, name := range t.Objectives {
			cells = append(cells, row.Values[name].String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Anchor, row.Status, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeBounds(w io.Writer, objectives []string, bounds interfaces.Bounds) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "OBJECTIVE\tBEST\tWORST")
	for _, name := range objectives {
		b, ok := bounds[name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, formatFloat(b.Best), formatFloat(b.Worst))
	}
	return tw.Flush()
}

func writePoints(w io.Writer, objectives, secondaries []string, points []interfaces.Point) error {
	tw := newTabWriter(w)
	header := []string{"#", "STATUS"}
	for _, name := range objectives {
		header = append(header, strings.ToUpper(name))
	}
	if len(secondaries) > 0 {
		header = append(header, "EPSILONS")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i, p := range points {
		cells := []string{strconv.Itoa(i + 1), p.Status.String()}
		for _, name := range objectives {
			cells = append(cells, p.Value(name).String())
		}
		if len(secondaries) > 0 {
			cells = append(cells, formatEpsilons(p.Epsilons))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteManual renders a manual run report.
func WriteManual(w io.Writer, r *optimizer.ManualReport, opts Options) error {
	if opts.Format == YAML {
		out := *r
		if !opts.Schedule {
			out.Schedule = nil
		}
		return writeYAML(w, &out)
	}
	objectives := append([]string{r.Primary}, r.Secondaries...)

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Session:\t%s\n", r.SessionID)
	fmt.Fprintf(tw, "Instance:\t%s\n", r.Instance)
	fmt.Fprintf(tw, "Primary:\t%s\n", r.Primary)
	fmt.Fprintf(tw, "Epsilons:\t%s\n", formatEpsilons(r.Point.Epsilons))
	fmt.Fprintf(tw, "Status:\t%s\n", r.Point.Status)
	for _, name := range objectives {
		fmt.Fprintf(tw, "%s:\t%s\n", name, r.Point.Value(name))
	}
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration)
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.Schedule && r.Schedule != nil {
		return WriteSchedule(w, r.Schedule)
	}
	return nil
}

// WriteSchedule prints job outcomes and the day-by-day plan.
func WriteSchedule(w io.Writer, s *core.Schedule) error {
	fmt.Fprintln(w, "\nJobs")
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "JOB\tCOMPLETED\tSTART\tEND\tDAYS LATE\tREVENUE")
	for _, j := range s.Jobs {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\t%s\n", j.Job, j.Completed, j.Start, j.End, j.DaysLate, formatFloat(j.Revenue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nPlan")
	byDay := s.ByDay()
	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)
	tw = newTabWriter(w)
	fmt.Fprintln(tw, "DAY\tSTAFF\tQUALIFICATION\tJOB")
	for _, d := range days {
		for _, a := range byDay[d] {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d, a.Staff, a.Qualification, a.Job)
		}
	}
	return tw.Flush()
}

func formatEpsilons(eps interfaces.Assignment) string {
	if len(eps) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(eps))
	for _, name := range eps.Names() {
		parts = append(parts, name+"="+formatFloat(eps[name]))
	}
	return strings.Join(parts, " ")
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
