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

// Package common holds state shared by the search engines of one session.
package common

import (
	"sync"

	"github.com/llm-d/staffing-pareto/internal/interfaces"
)

// CachedRun is the outcome of one scalarized run. Err is nil or one of the
// per-run sentinels (infeasible, solver failure).
type CachedRun struct {
	Point interfaces.Point
	Err   error
}

// RunCache remembers run outcomes by key so that identical runs within a
// session are solved once. Only value objects are stored, never models.
type RunCache struct {
	mu    sync.RWMutex
	items map[string]CachedRun
	hits  int
}

// NewRunCache returns an empty cache.
func NewRunCache() *RunCache {
	return &RunCache{items: make(map[string]CachedRun)}
}

// Get returns the outcome stored under key.
func (c *RunCache) Get(key string) (CachedRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.items[key]
	if ok {
		c.hits++
	}
	return run, ok
}

// Set stores an outcome. The first outcome for a key wins.
func (c *RunCache) Set(key string, run CachedRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; exists {
		return
	}
	c.items[key] = run
}

// Len returns the number of stored outcomes.
func (c *RunCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Hits returns how many lookups found an outcome.
func (c *RunCache) Hits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits
}
