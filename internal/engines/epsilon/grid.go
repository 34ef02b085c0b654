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

package epsilon

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
)

// GridSearcher solves one run per cell of a regular grid spanning the bounds
// of every secondary objective.
type GridSearcher struct {
	engine *Engine
	// Resolution is the number of values per secondary objective.
	Resolution int
}

// NewGridSearcher returns a grid searcher with k values per secondary.
func NewGridSearcher(engine *Engine, k int) (*GridSearcher, error) {
	if k < 1 {
		return nil, fmt.Errorf("grid resolution must be >= 1, got %d", k)
	}
	return &GridSearcher{engine: engine, Resolution: k}, nil
}

// GridValues returns k evenly spaced values from r.Best to r.Worst inclusive.
func GridValues(r interfaces.Range, k int) []float64 {
	if k == 1 {
		return []float64{r.Best}
	}
	return floats.Span(make([]float64, k), r.Best, r.Worst)
}

// Search runs the grid.
func (g *GridSearcher) Search(ctx context.Context, bounds interfaces.Bounds) (SearchResult, error) {
	logger := logging.FromContext(ctx)
	secondaries := g.engine.Secondaries()
	var result SearchResult
	if len(secondaries) == 0 {
		return result, nil
	}

	axes := make([][]float64, len(secondaries))
	lens := make([]int, len(secondaries))
	for i, name := range secondaries {
		r, ok := bounds[name]
		if !ok {
			return result, fmt.Errorf("instance %s: no bounds for %q", g.engine.Instance(), name)
		}
		axes[i] = GridValues(r, g.Resolution)
		lens[i] = len(axes[i])
	}

	cells := combin.Cartesian(lens)
	logger.Info("Starting grid search", "instance", g.engine.Instance(), "secondaries", secondaries,
		"resolution", g.Resolution, "cells", len(cells))

	for _, cell := range cells {
		eps := make(interfaces.Assignment, len(secondaries))
		for i, name := range secondaries {
			eps[name] = axes[i][cell[i]]
		}
		before := g.engine.Runs()
		out, err := g.engine.solve(ctx, run{phase: PhaseGrid, objective: g.engine.Primary(), eps: eps}, true)
		result.Runs += g.engine.Runs() - before
		if err != nil {
			if recoverable(err) {
				continue
			}
			return result, err
		}
		result.Points = append(result.Points, out.point)
	}
	return result, nil
}
