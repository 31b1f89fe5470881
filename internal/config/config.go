package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

// Environment variables that override option lists. Values are split like a shell would.
const (
	EnvNpxOptions      = "VTR_NPX_OPTIONS"
	EnvRunnerOptions   = "VTR_RUNNER_OPTIONS"
	EnvCommandTemplate = "VTR_COMMAND_TEMPLATE"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath  string
	ManifestFile string
	TestPath     string

	// Command settings
	NpxOptions         []string
	RunnerOptions      []string
	DebugRunnerOptions []string
	CommandTemplate    string
	UnitFilterOption   string

	// Environment from the project's .env, passed to the runner
	Env map[string]string

	// State settings
	StateDir  string
	StateFile string

	// Paths to ignore when scanning and watching
	PathsToIgnore []string

	ParseWorkers  int
	WatchDebounce time.Duration

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Debug         bool
	Verbose       bool
	NpxOptions    []string
	RunnerOptions []string
	Template      string
	Line          int
	Offset        int
	TestPath      string
	NameFilter    string
	Units         bool
	Plain         bool
}

// fileConfig mirrors the optional .vtr.yaml in the project root
type fileConfig struct {
	NpxOptions         []string `yaml:"npx_options"`
	RunnerOptions      []string `yaml:"runner_options"`
	DebugRunnerOptions []string `yaml:"debug_runner_options"`
	CommandTemplate    string   `yaml:"command_template"`
	UnitFilterOption   string   `yaml:"unit_filter_option"`
	TestPath           string   `yaml:"test_path"`
	PathsToIgnore      []string `yaml:"paths_to_ignore"`
	WatchDebounce      string   `yaml:"watch_debounce"`
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectPath:        ".",
		ManifestFile:       DefaultManifestFile,
		NpxOptions:         clone(DefaultNpxOptions),
		RunnerOptions:      clone(DefaultRunnerOptions),
		DebugRunnerOptions: clone(DefaultDebugRunnerOptions),
		CommandTemplate:    DefaultCommandTemplate,
		UnitFilterOption:   DefaultUnitFilterOption,
		Env:                map[string]string{},
		StateDir:           DefaultStateDir,
		StateFile:          DefaultStateFile,
		PathsToIgnore:      clone(DefaultPathsToIgnore),
		ParseWorkers:       DefaultParseWorkers,
		WatchDebounce:      DefaultWatchDebounce,
	}
}

// LoadProject points the config at a project root and layers the project's
// config file, environment and flags on top of the current values.
func (c *Config) LoadProject(root string) error {
	c.ProjectPath = root

	if err := c.loadFile(filepath.Join(root, DefaultConfigFile)); err != nil {
		return err
	}

	env, err := godotenv.Read(filepath.Join(root, DefaultEnvFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", DefaultEnvFile, err)
	}
	if env != nil {
		c.Env = env
	}
	if err := c.applyEnv(); err != nil {
		return err
	}

	c.applyFlags()
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	if fc.NpxOptions != nil {
		c.NpxOptions = fc.NpxOptions
	}
	if fc.RunnerOptions != nil {
		c.RunnerOptions = fc.RunnerOptions
	}
	if fc.DebugRunnerOptions != nil {
		c.DebugRunnerOptions = fc.DebugRunnerOptions
	}
	if fc.CommandTemplate != "" {
		c.CommandTemplate = fc.CommandTemplate
	}
	if fc.UnitFilterOption != "" {
		c.UnitFilterOption = fc.UnitFilterOption
	}
	if fc.TestPath != "" {
		c.TestPath = fc.TestPath
	}
	if fc.PathsToIgnore != nil {
		c.PathsToIgnore = fc.PathsToIgnore
	}
	if fc.WatchDebounce != "" {
		d, err := time.ParseDuration(fc.WatchDebounce)
		if err != nil {
			return fmt.Errorf("parse watch_debounce: %w", err)
		}
		c.WatchDebounce = d
	}
	return nil
}

// applyEnv reads overrides from the process environment first, then the project's .env
func (c *Config) applyEnv() error {
	if v, ok := c.lookupEnv(EnvNpxOptions); ok {
		opts, err := shellquote.Split(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvNpxOptions, err)
		}
		c.NpxOptions = opts
	}
	if v, ok := c.lookupEnv(EnvRunnerOptions); ok {
		opts, err := shellquote.Split(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRunnerOptions, err)
		}
		c.RunnerOptions = opts
	}
	if v, ok := c.lookupEnv(EnvCommandTemplate); ok && v != "" {
		c.CommandTemplate = v
	}
	return nil
}

func (c *Config) lookupEnv(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := c.Env[key]
	return v, ok
}

func (c *Config) applyFlags() {
	if len(c.Flags.NpxOptions) > 0 {
		c.NpxOptions = clone(c.Flags.NpxOptions)
	}
	if len(c.Flags.RunnerOptions) > 0 {
		c.RunnerOptions = clone(c.Flags.RunnerOptions)
	}
	if c.Flags.Template != "" {
		c.CommandTemplate = c.Flags.Template
	}
	if c.Flags.TestPath != "" {
		c.TestPath = c.Flags.TestPath
	}
}

// RunnerOptionsFor returns the runner options, with the debug flags appended when debug is set
func (c *Config) RunnerOptionsFor(debug bool) []string {
	opts := clone(c.RunnerOptions)
	if debug {
		opts = append(opts, c.DebugRunnerOptions...)
	}
	return opts
}

// GetTestPath returns the directory where test discovery starts
func (c *Config) GetTestPath() string {
	if c.TestPath == "" {
		return c.ProjectPath
	}
	if filepath.IsAbs(c.TestPath) {
		return c.TestPath
	}
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetStatePath returns the absolute path of the last run record for the current project
func (c *Config) GetStatePath() string {
	p := filepath.Join(c.ProjectPath, c.StateDir, c.StateFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// EnvList renders the project environment as KEY=VALUE pairs in a stable order
func (c *Config) EnvList() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
