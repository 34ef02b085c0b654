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

// Package interfaces holds the types shared by the epsilon engines, the
// dominance filter and the optimizer session.
package interfaces

import (
	"sort"
	"strconv"
	"strings"

	"github.com/llm-d/staffing-pareto/internal/objective"
	"github.com/llm-d/staffing-pareto/pkg/lp"
	"github.com/llm-d/staffing-pareto/pkg/solver"
)

// Problem builds fresh models of one problem instance.
type Problem interface {
	// Name identifies the instance in logs and errors.
	Name() string
	// NewModel returns a new model with all variables and structural
	// constraints and no objective.
	NewModel() (*lp.Model, error)
	// RequireWork forbids the trivial "do nothing" solution.
	RequireWork(m *lp.Model) error
}

// Assignment maps secondary objective names to epsilon values.
type Assignment map[string]float64

// Clone returns an independent copy of a.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	return out
}

// With returns a copy of a with name set to eps.
func (a Assignment) With(name string, eps float64) Assignment {
	out := a.Clone()
	out[name] = eps
	return out
}

// Names returns the assigned objective names in sorted order.
func (a Assignment) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Key is a deterministic string form of a, usable as a map key.
func (a Assignment) Key() string {
	var b strings.Builder
	for i, name := range a.Names() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(a[name], 'g', -1, 64))
	}
	return b.String()
}

// Point is the outcome of one scalarized solve.
type Point struct {
	Status solver.Status `yaml:"status"`
	// Epsilons is empty for unconstrained runs.
	Epsilons Assignment `yaml:"epsilons,omitempty"`
	// Values holds every active objective, defined or not.
	Values map[string]objective.Value `yaml:"values"`
}

// Value returns the value of an objective at p.
func (p Point) Value(name string) objective.Value {
	return p.Values[name]
}

// Range is the best and worst attainable value of one objective.
type Range struct {
	Best  float64 `yaml:"best"`
	Worst float64 `yaml:"worst"`
}

// Bounds maps objective name to its Range.
type Bounds map[string]Range

// PayoffRow is the result of optimizing one anchor objective alone.
type PayoffRow struct {
	Anchor string                     `yaml:"anchor"`
	Status solver.Status              `yaml:"status"`
	Values map[string]objective.Value `yaml:"values"`
}

// PayoffTable has one row per active objective, primary first.
type PayoffTable struct {
	Objectives []string    `yaml:"objectives"`
	Rows       []PayoffRow `yaml:"rows"`
}

// Row returns the row anchored at name.
func (t PayoffTable) Row(name string) (PayoffRow, bool) {
	for _, r := range t.Rows {
		if r.Anchor == name {
			return r, true
		}
	}
	return PayoffRow{}, false
}
