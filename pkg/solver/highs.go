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

package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"k8s.io/utils/clock"

	"github.com/llm-d/staffing-pareto/internal/logging"
	"github.com/llm-d/staffing-pareto/pkg/lp"
)

const (
	// DefaultHighsBinary is looked up on PATH when no binary is configured.
	DefaultHighsBinary = "highs"

	// defaultGrace is added to the time limit before the process is killed.
	defaultGrace = 10 * time.Second

	// maxLogTail bounds the solver output quoted in errors.
	maxLogTail = 2048
)

// ErrSolverNotFound is returned when the HiGHS binary cannot be located.
var ErrSolverNotFound = errors.New("highs binary not found")

// HighsConfig configures the HiGHS command-line backend.
type HighsConfig struct {
	// Binary is the executable name or path. Defaults to DefaultHighsBinary.
	Binary string
	// Threads caps solver threads. Zero lets HiGHS decide.
	Threads int
	// RandomSeed is passed to --random_seed when non-zero.
	RandomSeed int
	// MIPRelGap overrides the relative MIP gap when positive.
	MIPRelGap float64
	// WorkDir holds scratch files. Empty means the system temp directory.
	WorkDir string
	// KeepFiles leaves model and solution files on disk for inspection.
	KeepFiles bool
	// Grace is added to Options.TimeLimit before the process is killed.
	Grace time.Duration
}

var _ Solver = (*Highs)(nil)

// Highs solves models with the HiGHS command-line binary.
type Highs struct {
	cfg   HighsConfig
	clock clock.PassiveClock
}

// HighsOption customizes a Highs solver.
type HighsOption func(*Highs)

// WithClock sets the clock used to measure runtimes.
func WithClock(c clock.PassiveClock) HighsOption {
	return func(h *Highs) {
		h.clock = c
	}
}

// NewHighs returns a HiGHS-backed Solver.
func NewHighs(cfg HighsConfig, opts ...HighsOption) *Highs {
	if cfg.Binary == "" {
		cfg.Binary = DefaultHighsBinary
	}
	if cfg.Grace <= 0 {
		cfg.Grace = defaultGrace
	}
	h := &Highs{cfg: cfg, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Available reports whether the configured binary can be found.
func (h *Highs) Available() bool {
	_, err := exec.LookPath(h.cfg.Binary)
	return err == nil
}

// Solve writes m to disk, runs HiGHS on it and reads the solution back.
func (h *Highs) Solve(ctx context.Context, m *lp.Model, opts Options) (Result, error) {
	logger := logging.FromContext(ctx)

	bin, err := exec.LookPath(h.cfg.Binary)
	if err != nil {
		return Result{Status: StatusError}, fmt.Errorf("%w: %s: %v", ErrSolverNotFound, h.cfg.Binary, err)
	}

	dir, err := os.MkdirTemp(h.cfg.WorkDir, "highs-")
	if err != nil {
		return Result{Status: StatusError}, fmt.Errorf("create scratch dir: %w", err)
	}
	if h.cfg.KeepFiles {
		logger.V(logging.DEBUG).Info("Keeping solver files", "dir", dir)
	} else {
		defer func() { _ = os.RemoveAll(dir) }()
	}

	modelPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	if err := writeModel(m, modelPath); err != nil {
		return Result{Status: StatusError}, err
	}

	args := []string{"--model_file", modelPath, "--solution_file", solPath}
	if opts.TimeLimit > 0 {
		args = append(args, "--time_limit", strconv.FormatFloat(opts.TimeLimit.Seconds(), 'f', -1, 64))
	}
	if h.cfg.RandomSeed != 0 {
		args = append(args, "--random_seed", strconv.Itoa(h.cfg.RandomSeed))
	}
	if optsFile, err := h.writeOptionsFile(dir); err != nil {
		return Result{Status: StatusError}, err
	} else if optsFile != "" {
		args = append(args, "--options_file", optsFile)
	}

	runCtx := ctx
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.TimeLimit+h.cfg.Grace)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.V(logging.TRACE).Info("Starting HiGHS", "model", m.Name(), "vars", m.NumVars(),
		"constraints", m.NumConstraints(), "timeLimit", opts.TimeLimit)
	start := h.clock.Now()
	runErr := cmd.Run()
	runtime := h.clock.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{Status: StatusError, Runtime: runtime}, fmt.Errorf("solve %s: %w", m.Name(), ctxErr)
	}
	if runErr != nil {
		if runCtx.Err() != nil {
			return Result{Status: StatusError, Runtime: runtime},
				fmt.Errorf("solve %s: highs did not stop within %v of the time limit", m.Name(), h.cfg.Grace)
		}
		return Result{Status: StatusError, Runtime: runtime},
			fmt.Errorf("solve %s: %w: %s", m.Name(), runErr, tail(out.String()))
	}

	res, err := readResult(solPath, out.String())
	if err != nil {
		return Result{Status: StatusError, Runtime: runtime}, fmt.Errorf("solve %s: %w", m.Name(), err)
	}
	res.Runtime = runtime
	logger.V(logging.TRACE).Info("HiGHS finished", "model", m.Name(), "status", res.Status.String(),
		"highsStatus", res.Message, "runtime", runtime)
	return res, nil
}

func writeModel(m *lp.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := m.WriteLP(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write model %s: %w", m.Name(), err)
	}
	return f.Close()
}

func (h *Highs) writeOptionsFile(dir string) (string, error) {
	var buf bytes.Buffer
	if h.cfg.Threads > 0 {
		fmt.Fprintf(&buf, "threads = %d\n", h.cfg.Threads)
	}
	if h.cfg.MIPRelGap > 0 {
		fmt.Fprintf(&buf, "mip_rel_gap = %s\n", strconv.FormatFloat(h.cfg.MIPRelGap, 'g', -1, 64))
	}
	if buf.Len() == 0 {
		return "", nil
	}
	path := filepath.Join(dir, "highs.opt")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write options file: %w", err)
	}
	return path, nil
}

func readResult(solPath, log string) (Result, error) {
	f, err := os.Open(solPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("open solution file: %w", err)
		}
		status := statusFromLog(log)
		if status == "" {
			return Result{}, fmt.Errorf("no solution file and no model status in output: %s", tail(log))
		}
		res := (&highsSolution{modelStatus: status}).toResult()
		if res.Status == StatusOptimal {
			return Result{}, fmt.Errorf("highs reported %q but wrote no solution file", status)
		}
		return res, nil
	}
	defer func() { _ = f.Close() }()
	sol, err := parseHighsSolution(f)
	if err != nil {
		return Result{}, fmt.Errorf("parse solution file: %w", err)
	}
	return sol.toResult(), nil
}

func tail(s string) string {
	if len(s) <= maxLogTail {
		return s
	}
	return "..." + s[len(s)-maxLogTail:]
}
