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

package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultObjectiveKey holds settings inherited by every objective.
const DefaultObjectiveKey = "default"

// ObjectiveConfig holds the per-objective search settings.
type ObjectiveConfig struct {
	// Step is the adaptive epsilon step. 0 inherits the default entry, then
	// the engine default.
	Step float64 `mapstructure:"step" yaml:"step,omitempty"`

	// Epsilon is the bound used by manual runs. nil leaves the objective
	// without a manual value.
	Epsilon *float64 `mapstructure:"epsilon" yaml:"epsilon,omitempty"`
}

// ObjectiveConfigData maps objective name (or DefaultObjectiveKey) to its settings.
type ObjectiveConfigData map[string]ObjectiveConfig

// Validate checks for invalid configuration values.
func (c ObjectiveConfig) Validate() error {
	if c.Step < 0 || math.IsNaN(c.Step) || math.IsInf(c.Step, 0) {
		return fmt.Errorf("step must be a finite value >= 0, got %g", c.Step)
	}
	if c.Epsilon != nil && (math.IsNaN(*c.Epsilon) || math.IsInf(*c.Epsilon, 0)) {
		return fmt.Errorf("epsilon must be finite, got %g", *c.Epsilon)
	}
	return nil
}

// Validate checks every entry, in name order.
func (data ObjectiveConfigData) Validate() []error {
	var errs []error
	for _, name := range data.names() {
		if err := data[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("objectives.%s: %w", name, err))
		}
	}
	return errs
}

func (data ObjectiveConfigData) names() []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the effective configuration of an objective: its own entry
// merged over the default entry.
func (data ObjectiveConfigData) Get(name string) ObjectiveConfig {
	defaults := data[DefaultObjectiveKey]
	own, ok := data[name]
	if !ok {
		return defaults
	}
	result := defaults
	if own.Step != 0 {
		result.Step = own.Step
	}
	if own.Epsilon != nil {
		result.Epsilon = own.Epsilon
	}
	return result
}

// Steps returns the effective adaptive step of every named objective that has one.
func (data ObjectiveConfigData) Steps(names []string) map[string]float64 {
	steps := make(map[string]float64, len(names))
	for _, name := range names {
		if s := data.Get(name).Step; s > 0 {
			steps[name] = s
		}
	}
	return steps
}

// Epsilons returns the manual epsilon of every named objective that has one.
func (data ObjectiveConfigData) Epsilons(names []string) map[string]float64 {
	eps := make(map[string]float64, len(names))
	for _, name := range names {
		if e := data.Get(name).Epsilon; e != nil {
			eps[name] = *e
		}
	}
	return eps
}

// set applies fn to the entry of name, creating it when missing.
func (data ObjectiveConfigData) set(name string, fn func(*ObjectiveConfig)) {
	c := data[name]
	fn(&c)
	data[name] = c
}

// ParseFloatMap parses "name=value" pairs given on the command line.
func ParseFloatMap(in map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for name, raw := range in {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
