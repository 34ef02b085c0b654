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

// Package metrics records solver and search statistics of a session on a
// private Prometheus registry and dumps them in the text exposition format.
package metrics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/llm-d/staffing-pareto/pkg/solver"
)

const namespace = "staffing_pareto"

// Label names.
const (
	labelPhase    = "phase"
	labelStatus   = "status"
	labelStrategy = "strategy"
	labelInstance = "instance"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	solverRuns      *prometheus.CounterVec
	solverDuration  *prometheus.HistogramVec
	rawPoints       *prometheus.GaugeVec
	frontSize       *prometheus.GaugeVec
	sessionDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solverRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_runs_total",
			Help:      "Solver calls by phase and outcome status.",
		}, []string{labelPhase, labelStatus}),
		solverDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solver_run_duration_seconds",
			Help:      "Wall time of solver calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{labelPhase}),
		rawPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_points",
			Help:      "Usable points found by the last search, before filtering.",
		}, []string{labelInstance, labelStrategy}),
		frontSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pareto_front_size",
			Help:      "Non-dominated points of the last search.",
		}, []string{labelInstance, labelStrategy}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time of optimizer sessions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}, []string{labelStrategy}),
	}
	m.registry.MustRegister(m.solverRuns, m.solverDuration, m.rawPoints, m.frontSize, m.sessionDuration)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one solver call.
func (m *Metrics) ObserveRun(phase string, status solver.Status, runtime time.Duration) {
	m.solverRuns.WithLabelValues(phase, status.String()).Inc()
	m.solverDuration.WithLabelValues(phase).Observe(runtime.Seconds())
}

// ObserveSearch records the outcome of a search.
func (m *Metrics) ObserveSearch(instance, strategy string, raw, front int) {
	m.rawPoints.WithLabelValues(instance, strategy).Set(float64(raw))
	m.frontSize.WithLabelValues(instance, strategy).Set(float64(front))
}

// ObserveSession records the duration of a session.
func (m *Metrics) ObserveSession(strategy string, d time.Duration) {
	m.sessionDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// WriteText writes every metric family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the text exposition to path.
func (m *Metrics) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := m.WriteText(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
