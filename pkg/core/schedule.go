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

// Assignment places one person on one job for one day using one qualification.
type Assignment struct {
	Day           int    `yaml:"day" json:"day"`
	Staff         string `yaml:"staff" json:"staff"`
	Qualification string `yaml:"qualification" json:"qualification"`
	Job           string `yaml:"job" json:"job"`
}

// JobOutcome summarizes one job in a schedule.
type JobOutcome struct {
	Job       string `yaml:"job" json:"job"`
	Completed bool   `yaml:"completed" json:"completed"`
	// Start and End are 0 when the job received no work.
	Start    int     `yaml:"start" json:"start"`
	End      int     `yaml:"end" json:"end"`
	DaysLate int     `yaml:"days_late" json:"days_late"`
	Revenue  float64 `yaml:"revenue" json:"revenue"`
}

// Schedule is the staffing plan read back from a solved model.
type Schedule struct {
	Assignments []Assignment `yaml:"assignments" json:"assignments"`
	Jobs        []JobOutcome `yaml:"jobs" json:"jobs"`
}

// ByDay groups assignments by day, keeping their order.
func (s *Schedule) ByDay() map[int][]Assignment {
	out := make(map[int][]Assignment)
	for _, a := range s.Assignments {
		out[a.Day] = append(out[a.Day], a)
	}
	return out
}
