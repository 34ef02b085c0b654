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
	"strings"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
)

// SearchResult holds the usable points of a search, in discovery order, and
// the number of solver calls it made.
type SearchResult struct {
	Points []interfaces.Point
	Runs   int
}

// Searcher is an interface that defines how the secondary objectives are explored within their bounds
type Searcher interface {
	// Search returns the points found so far even when it fails.
	Search(ctx context.Context, bounds interfaces.Bounds) (SearchResult, error)
}

// Strategy is an enumeration of the different strategies that can be used by the Searcher
type Strategy int

// enumeration of Strategy
const (
	AdaptiveStrategy Strategy = iota
	GridStrategy
)

func (s Strategy) String() string {
	switch s {
	case AdaptiveStrategy:
		return "adaptive"
	case GridStrategy:
		return "grid"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "adaptive" or "grid" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "adaptive":
		return AdaptiveStrategy, nil
	case "grid":
		return GridStrategy, nil
	default:
		return 0, fmt.Errorf("unsupported search strategy: %q", s)
	}
}

// NewSearcher is a factory that creates a new Searcher based on the provided strategy.
// resolution is only used by the grid strategy.
func NewSearcher(strategy Strategy, engine *Engine, resolution int) (Searcher, error) {
	switch strategy {
	case AdaptiveStrategy:
		return NewAdaptiveSearcher(engine), nil
	case GridStrategy:
		return NewGridSearcher(engine, resolution)
	default:
		return nil, fmt.Errorf("unsupported search strategy: %v", strategy)
	}
}
