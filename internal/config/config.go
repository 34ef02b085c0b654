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

// Package config loads the explorer configuration. Sources are layered from
// lowest to highest precedence: built-in defaults, a YAML file, STAFFING_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/llm-d/staffing-pareto/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STAFFING"

// Strategies accepted in Config.Strategy.
const (
	StrategyAdaptive = "adaptive"
	StrategyGrid     = "grid"
	StrategyManual   = "manual"
	StrategyPayoff   = "payoff"
)

// Output formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

// Defaults.
const (
	DefaultPrimary    = "profit"
	DefaultResolution = 10
	DefaultTimeLimit  = 180 * time.Second
	DefaultGrace      = 10 * time.Second
)

// DefaultSecondaries are explored when none are configured.
var DefaultSecondaries = []string{"max_projects", "lateness"}

var (
	strategies = sets.New(StrategyAdaptive, StrategyGrid, StrategyManual, StrategyPayoff)
	formats    = sets.New(FormatTable, FormatYAML)
)

// SolverConfig configures the HiGHS backend.
type SolverConfig struct {
	Binary     string        `mapstructure:"binary" yaml:"binary"`
	TimeLimit  time.Duration `mapstructure:"time_limit" yaml:"time_limit"`
	Grace      time.Duration `mapstructure:"grace" yaml:"grace"`
	Threads    int           `mapstructure:"threads" yaml:"threads"`
	RandomSeed int           `mapstructure:"random_seed" yaml:"random_seed"`
	MIPRelGap  float64       `mapstructure:"mip_rel_gap" yaml:"mip_rel_gap"`
	WorkDir    string        `mapstructure:"work_dir" yaml:"work_dir"`
	KeepFiles  bool          `mapstructure:"keep_files" yaml:"keep_files"`
}

// OutputConfig selects how reports are written.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	// File receives the report. Empty means stdout.
	File string `mapstructure:"file" yaml:"file"`
	// Schedule prints the per-day plan of manual runs.
	Schedule bool `mapstructure:"schedule" yaml:"schedule"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the complete explorer configuration.
type Config struct {
	Instance    string              `mapstructure:"instance" yaml:"instance"`
	Primary     string              `mapstructure:"primary" yaml:"primary"`
	Secondaries []string            `mapstructure:"secondaries" yaml:"secondaries"`
	Strategy    string              `mapstructure:"strategy" yaml:"strategy"`
	Resolution  int                 `mapstructure:"resolution" yaml:"resolution"`
	Dedupe      bool                `mapstructure:"dedupe" yaml:"dedupe"`
	Objectives  ObjectiveConfigData `mapstructure:"objectives" yaml:"objectives"`
	Solver      SolverConfig        `mapstructure:"solver" yaml:"solver"`
	Output      OutputConfig        `mapstructure:"output" yaml:"output"`
	MetricsFile string              `mapstructure:"metrics_file" yaml:"metrics_file"`
	Log         LogConfig           `mapstructure:"log" yaml:"log"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"instance":     "instance",
	"primary":      "primary",
	"secondaries":  "secondaries",
	"strategy":     "strategy",
	"resolution":   "resolution",
	"dedupe":       "dedupe",
	"default-step": "objectives.default.step",
	"time-limit":   "solver.time_limit",
	"highs-binary": "solver.binary",
	"threads":      "solver.threads",
	"random-seed":  "solver.random_seed",
	"mip-rel-gap":  "solver.mip_rel_gap",
	"work-dir":     "solver.work_dir",
	"keep-files":   "solver.keep_files",
	"output":       "output.format",
	"output-file":  "output.file",
	"schedule":     "output.schedule",
	"metrics-file": "metrics_file",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// Flags not backed by a single key.
const (
	flagConfig = "config"
	flagStep   = "step"
	flagEps    = "eps"
)

// AddFlags registers every configuration flag on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(flagConfig, "", "path to a YAML configuration file")
	fs.String("instance", "", "path to the instance file (JSON or YAML)")
	fs.String("primary", DefaultPrimary, "primary objective, optimized in every run")
	fs.StringSlice("secondaries", DefaultSecondaries, "secondary objectives, bounded by epsilon constraints")
	fs.String("strategy", StrategyAdaptive, "session kind: adaptive, grid, manual or payoff")
	fs.Int("resolution", DefaultResolution, "grid values per secondary objective")
	fs.Bool("dedupe", false, "reuse outcomes of identical runs within a session")
	fs.Float64("default-step", 0, "adaptive epsilon step for objectives without their own (0 keeps 0.5)")
	fs.StringToString(flagStep, nil, "per-objective adaptive step, e.g. lateness=1")
	fs.StringToString(flagEps, nil, "manual epsilon values, e.g. max_projects=2")
	fs.Duration("time-limit", DefaultTimeLimit, "time limit of each solver run (0 disables it)")
	fs.String("highs-binary", "highs", "HiGHS executable name or path")
	fs.Int("threads", 0, "solver threads (0 lets HiGHS decide)")
	fs.Int("random-seed", 0, "solver random seed (0 keeps the HiGHS default)")
	fs.Float64("mip-rel-gap", 0, "relative MIP gap (0 keeps the HiGHS default)")
	fs.String("work-dir", "", "directory for solver scratch files")
	fs.Bool("keep-files", false, "keep solver model and solution files")
	fs.String("output", FormatTable, "report format: table or yaml")
	fs.String("output-file", "", "write the report to this file instead of stdout")
	fs.Bool("schedule", false, "print the staffing plan of manual runs")
	fs.String("metrics-file", "", "write solver metrics in Prometheus text format to this file")
	fs.String("log-level", "info", "log level: info, debug, trace or error")
	fs.String("log-format", "console", "log format: console or json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("primary", DefaultPrimary)
	v.SetDefault("secondaries", DefaultSecondaries)
	v.SetDefault("strategy", StrategyAdaptive)
	v.SetDefault("resolution", DefaultResolution)
	v.SetDefault("dedupe", false)
	v.SetDefault("instance", "")
	v.SetDefault("solver.binary", "highs")
	v.SetDefault("solver.time_limit", DefaultTimeLimit)
	v.SetDefault("solver.grace", DefaultGrace)
	v.SetDefault("solver.threads", 0)
	v.SetDefault("solver.random_seed", 0)
	v.SetDefault("solver.mip_rel_gap", 0.0)
	v.SetDefault("solver.work_dir", "")
	v.SetDefault("solver.keep_files", false)
	v.SetDefault("output.format", FormatTable)
	v.SetDefault("output.file", "")
	v.SetDefault("output.schedule", false)
	v.SetDefault("metrics_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load builds a Config from defaults, the file named by the config flag,
// the environment and the flags of fs. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if path, _ := fs.GetString(flagConfig); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			logging.Log.V(logging.DEBUG).Info("Loaded configuration file", "path", v.ConfigFileUsed())
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Objectives == nil {
		cfg.Objectives = make(ObjectiveConfigData)
	}
	if fs != nil {
		if err := applyObjectiveFlags(fs, cfg.Objectives); err != nil {
			return nil, err
		}
	}
	cfg.Secondaries = splitList(cfg.Secondaries)
	return cfg, nil
}

// applyObjectiveFlags overlays --step and --eps on the objective settings.
func applyObjectiveFlags(fs *pflag.FlagSet, data ObjectiveConfigData) error {
	if f := fs.Lookup(flagStep); f != nil && f.Changed {
		raw, err := fs.GetStringToString(flagStep)
		if err != nil {
			return err
		}
		steps, err := ParseFloatMap(raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", flagStep, err)
		}
		for name, s := range steps {
			data.set(name, func(c *ObjectiveConfig) { c.Step = s })
		}
	}
	if f := fs.Lookup(flagEps); f != nil && f.Changed {
		raw, err := fs.GetStringToString(flagEps)
		if err != nil {
			return err
		}
		eps, err := ParseFloatMap(raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", flagEps, err)
		}
		for name, e := range eps {
			data.set(name, func(c *ObjectiveConfig) { c.Epsilon = &e })
		}
	}
	return nil
}

// splitList trims entries and splits comma-joined values from the environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks ranges and cross-field constraints and reports every problem.
func (c *Config) Validate() error {
	var errs []error
	if c.Instance == "" {
		errs = append(errs, fmt.Errorf("instance path is required"))
	}
	if c.Primary == "" {
		errs = append(errs, fmt.Errorf("primary objective is required"))
	}
	if !strategies.Has(c.Strategy) {
		errs = append(errs, fmt.Errorf("strategy must be one of %v, got %q", sets.List(strategies), c.Strategy))
	}
	if c.Strategy == StrategyGrid && c.Resolution < 1 {
		errs = append(errs, fmt.Errorf("resolution must be >= 1 for the grid strategy, got %d", c.Resolution))
	}
	if c.Strategy == StrategyManual {
		eps := c.Objectives.Epsilons(c.Secondaries)
		for _, name := range c.Secondaries {
			if _, ok := eps[name]; !ok {
				errs = append(errs, fmt.Errorf("manual strategy needs an epsilon for %q", name))
			}
		}
	}
	errs = append(errs, c.Objectives.Validate()...)
	if c.Solver.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("solver.time_limit must be >= 0, got %v", c.Solver.TimeLimit))
	}
	if c.Solver.Grace < 0 {
		errs = append(errs, fmt.Errorf("solver.grace must be >= 0, got %v", c.Solver.Grace))
	}
	if c.Solver.Threads < 0 {
		errs = append(errs, fmt.Errorf("solver.threads must be >= 0, got %d", c.Solver.Threads))
	}
	if c.Solver.MIPRelGap < 0 || c.Solver.MIPRelGap >= 1 {
		errs = append(errs, fmt.Errorf("solver.mip_rel_gap must be in [0, 1), got %g", c.Solver.MIPRelGap))
	}
	if !formats.Has(c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of %v, got %q", sets.List(formats), c.Output.Format))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return utilerrors.NewAggregate(errs)
}

// Steps returns the adaptive step of every active objective that sets one.
func (c *Config) Steps() map[string]float64 {
	return c.Objectives.Steps(append([]string{c.Primary}, c.Secondaries...))
}

// Epsilons returns the manual epsilon of every secondary that sets one.
func (c *Config) Epsilons() map[string]float64 {
	return c.Objectives.Epsilons(c.Secondaries)
}
