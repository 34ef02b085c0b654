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

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Staff is a person that can be assigned to jobs.
type Staff struct {
	Name           string   `yaml:"name" json:"name"`
	Qualifications []string `yaml:"qualifications" json:"qualifications"`
	// Vacations lists the 1-based days the person is unavailable.
	Vacations []int `yaml:"vacations" json:"vacations"`
}

// Job is a project to staff.
type Job struct {
	Name string `yaml:"name" json:"name"`
	// Gain is earned when every qualification workload is covered.
	Gain float64 `yaml:"gain" json:"gain"`
	// DueDate is the last day (1-based) the job can finish without penalty.
	DueDate int `yaml:"due_date" json:"due_date"`
	// DailyPenalty is charged per day of lateness.
	DailyPenalty float64 `yaml:"daily_penalty" json:"daily_penalty"`
	// Workload maps qualification name to required person-days.
	Workload map[string]int `yaml:"working_days_per_qualification" json:"working_days_per_qualification"`
}

// Instance is a staffing problem instance.
type Instance struct {
	// Name identifies the instance in logs and errors. Defaults to the file stem.
	Name           string   `yaml:"name,omitempty" json:"name,omitempty"`
	Horizon        int      `yaml:"horizon" json:"horizon"`
	Qualifications []string `yaml:"qualifications" json:"qualifications"`
	Staff          []Staff  `yaml:"staff" json:"staff"`
	Jobs           []Job    `yaml:"jobs" json:"jobs"`
}

// LoadInstance reads an instance file. JSON instance files are accepted as-is
// since JSON is a subset of YAML.
func LoadInstance(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance %s: %w", path, err)
	}
	inst, err := ParseInstance(data)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", path, err)
	}
	if inst.Name == "" {
		inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return inst, nil
}

// ParseInstance decodes and validates instance data.
func ParseInstance(data []byte) (*Instance, error) {
	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Validate checks the instance for structural errors and reports all of them.
func (in *Instance) Validate() error {
	var errs []error
	if in.Horizon <= 0 {
		errs = append(errs, fmt.Errorf("horizon must be > 0, got %d", in.Horizon))
	}

	quals := sets.New[string]()
	for _, q := range in.Qualifications {
		if q == "" {
			errs = append(errs, fmt.Errorf("qualification names cannot be empty"))
			continue
		}
		if quals.Has(q) {
			errs = append(errs, fmt.Errorf("duplicate qualification %q", q))
		}
		quals.Insert(q)
	}

	staffNames := sets.New[string]()
	for _, s := range in.Staff {
		if staffNames.Has(s.Name) {
			errs = append(errs, fmt.Errorf("duplicate staff name %q", s.Name))
		}
		staffNames.Insert(s.Name)
		for _, q := range s.Qualifications {
			if !quals.Has(q) {
				errs = append(errs, fmt.Errorf("staff %q has unknown qualification %q", s.Name, q))
			}
		}
		for _, d := range s.Vacations {
			if d < 1 || (in.Horizon > 0 && d > in.Horizon) {
				errs = append(errs, fmt.Errorf("staff %q vacation day %d outside horizon [1, %d]", s.Name, d, in.Horizon))
			}
		}
	}

	jobNames := sets.New[string]()
	for _, j := range in.Jobs {
		if jobNames.Has(j.Name) {
			errs = append(errs, fmt.Errorf("duplicate job name %q", j.Name))
		}
		jobNames.Insert(j.Name)
		if j.DailyPenalty < 0 {
			errs = append(errs, fmt.Errorf("job %q daily_penalty must be >= 0, got %g", j.Name, j.DailyPenalty))
		}
		for _, q := range sets.List(sets.KeySet(j.Workload)) {
			if !quals.Has(q) {
				errs = append(errs, fmt.Errorf("job %q requires unknown qualification %q", j.Name, q))
			}
			if j.Workload[q] < 0 {
				errs = append(errs, fmt.Errorf("job %q workload for %q must be >= 0, got %d", j.Name, q, j.Workload[q]))
			}
		}
	}
	return utilerrors.NewAggregate(errs)
}

// QualificationIndex returns the 1-based index of a qualification, or 0.
func (in *Instance) QualificationIndex(name string) int {
	for i, q := range in.Qualifications {
		if q == name {
			return i + 1
		}
	}
	return 0
}

// Qualified reports whether staff s (1-based) holds qualification q (1-based).
func (in *Instance) Qualified(s, q int) bool {
	qual := in.Qualifications[q-1]
	for _, have := range in.Staff[s-1].Qualifications {
		if have == qual {
			return true
		}
	}
	return false
}

// OnVacation reports whether staff s (1-based) is away on day h (1-based).
func (in *Instance) OnVacation(s, h int) bool {
	for _, d := range in.Staff[s-1].Vacations {
		if d == h {
			return true
		}
	}
	return false
}

// Requirement returns the person-days job p needs for qualification q (both 1-based).
func (in *Instance) Requirement(p, q int) int {
	return in.Jobs[p-1].Workload[in.Qualifications[q-1]]
}
