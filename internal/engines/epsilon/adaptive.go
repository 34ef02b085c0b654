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

	"github.com/llm-d/staffing-pareto/internal/interfaces"
	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

// AdaptiveSearcher walks each secondary objective from its worst bound toward
// its best, jumping past the value each run actually attained instead of
// stepping through a fixed grid. Secondaries are nested loops: the first is
// the outermost.
type AdaptiveSearcher struct {
	engine *Engine
}

// NewAdaptiveSearcher returns an adaptive searcher.
func NewAdaptiveSearcher(engine *Engine) *AdaptiveSearcher {
	return &AdaptiveSearcher{engine: engine}
}

// Search runs the adaptive recursion over all secondaries.
func (a *AdaptiveSearcher) Search(ctx context.Context, bounds interfaces.Bounds) (SearchResult, error) {
	var result SearchResult
	secondaries := a.engine.Secondaries()
	if len(secondaries) == 0 {
		return result, nil
	}
	for _, name := range secondaries {
		if _, ok := bounds[name]; !ok {
			return result, fmt.Errorf("instance %s: no bounds for %q", a.engine.Instance(), name)
		}
	}
	logging.FromContext(ctx).Info("Starting adaptive search", "instance", a.engine.Instance(), "secondaries", secondaries)

	before := a.engine.Runs()
	points, err := a.loop(ctx, bounds, secondaries, interfaces.Assignment{})
	result.Points = points
	result.Runs = a.engine.Runs() - before
	return result, err
}

// loop iterates remaining[0] with fixed holding the epsilons chosen by the
// enclosing loops. It returns every point found by it and its inner loops.
func (a *AdaptiveSearcher) loop(ctx context.Context, bounds interfaces.Bounds, remaining []string,
	fixed interfaces.Assignment) ([]interfaces.Point, error) {
	logger := logging.FromContext(ctx)
	name := remaining[0]
	innermost := len(remaining) == 1
	sense := a.engine.sense(name)
	step := a.engine.Step(name)
	eps, end := bounds[name].Worst, bounds[name].Best

	var found []interfaces.Point
	for {
		eps1 := fixed.With(name, eps)

		var step1 []interfaces.Point
		if innermost {
			out, err := a.engine.solve(ctx, run{phase: PhaseAdaptive, objective: a.engine.Primary(), eps: eps1}, true)
			if err != nil && !recoverable(err) {
				return found, err
			}
			if out != nil {
				step1 = append(step1, out.point)
			}
		} else {
			inner, err := a.loop(ctx, bounds, remaining[1:], eps1)
			step1 = append(step1, inner...)
			if err != nil {
				return append(found, step1...), err
			}
		}

		if len(step1) == 0 {
			logger.V(logging.DEBUG).Info("No point at this epsilon, closing loop", "objective", name, "epsilon", eps)
			break
		}
		found = append(found, step1...)

		trigger, ok := attained(step1, name, sense)
		if !ok {
			break
		}
		var next float64
		if sense == lp.Minimize {
			next = trigger - step
			if next < end || next >= eps {
				break
			}
		} else {
			next = trigger + step
			if next > end || next <= eps {
				break
			}
		}
		logger.V(logging.DEBUG).Info("Tightening epsilon", "objective", name, "from", eps, "to", next, "attained", trigger)
		eps = next
	}
	return found, nil
}

// attained returns the best value of name over points: the minimum for
// minimize objectives, the maximum otherwise.
func attained(points []interfaces.Point, name string, sense lp.Sense) (float64, bool) {
	var best float64
	found := false
	for _, p := range points {
		v, ok := p.Values[name].Get()
		if !ok {
			continue
		}
		if !found || sense.Better(v, best) {
			best = v
			found = true
		}
	}
	return best, found
}
