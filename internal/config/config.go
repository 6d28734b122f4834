// Package config loads batchkit configuration from a YAML file, environment
// variables, and command-line overrides, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/batchkit/internal/batch"
	"github.com/rshade/batchkit/internal/progress"
	"github.com/rshade/batchkit/pkg/version"
)

// Environment variable names.
const (
	EnvConfig    = "BATCHKIT_CONFIG"
	EnvMode      = "BATCHKIT_MODE"
	EnvWorkers   = "BATCHKIT_WORKERS"
	EnvProgress  = "BATCHKIT_PROGRESS"
	EnvLogLevel  = "BATCHKIT_LOG_LEVEL"
	EnvLogFormat = "BATCHKIT_LOG_FORMAT"
	EnvLogFile   = "BATCHKIT_LOG_FILE"
)

// Progress display names.
const (
	ProgressAuto = "auto"
	ProgressBar  = "bar"
	ProgressTUI  = "tui"
	ProgressNone = "none"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete batchkit configuration.
type Config struct {
	// Requires is a semver constraint the running binary must satisfy.
	Requires string `yaml:"requires,omitempty"`

	Run     RunConfig     `yaml:"run"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RunConfig holds batch execution defaults.
type RunConfig struct {
	Mode        string        `yaml:"mode"`
	Workers     int           `yaml:"workers"`
	ChunkSize   int           `yaml:"chunk_size"`
	Progress    string        `yaml:"progress"`
	BarWidth    int           `yaml:"bar_width"`
	ItemTimeout time.Duration `yaml:"item_timeout"`
}

// MetricsConfig controls Prometheus output.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`

	// Textfile, when set, receives the run's metrics in text format.
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Mode:      batch.ModeDiagnose.String(),
			ChunkSize: batch.MinChunkSize,
			Progress:  ProgressAuto,
			BarWidth:  progress.DefaultWidth,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// DefaultPath returns ~/.batchkit/config.yaml, or "" if the home directory is
// unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".batchkit", "config.yaml")
}

// Load builds the effective configuration. path is the --config flag value;
// when empty, $BATCHKIT_CONFIG and then DefaultPath are tried, and a missing
// default file is not an error. Environment overrides are applied last.
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	return LoadWithProject(path, "", lookupEnv)
}

// LoadWithProject is Load with a project overlay (see ResolveProjectFile)
// merged between the global file and the environment. An empty projectFile
// skips the overlay.
func LoadWithProject(path, projectFile string, lookupEnv func(string) (string, bool)) (*Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	explicit := path != ""
	if !explicit {
		if env, ok := lookupEnv(EnvConfig); ok && env != "" {
			path, explicit = env, true
		} else {
			path = DefaultPath()
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(cfg, data); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if projectFile != "" {
		if err := ShallowMergeYAML(cfg, projectFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode merges YAML data onto cfg, rejecting unknown keys.
func decode(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from BATCHKIT_* environment variables.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvMode); ok && v != "" {
		c.Run.Mode = v
	}
	if v, ok := lookupEnv(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Run.Workers = n
	}
	if v, ok := lookupEnv(EnvProgress); ok && v != "" {
		c.Run.Progress = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv(EnvLogFile); ok && v != "" {
		c.Logging.File = v
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	if _, err := batch.ParseMode(c.Run.Mode); err != nil {
		problems = append(problems, fmt.Sprintf("run.mode must be skip or diagnose, got %q", c.Run.Mode))
	}
	if c.Run.Workers < 0 {
		problems = append(problems, fmt.Sprintf("run.workers must be >= 0, got %d", c.Run.Workers))
	}
	if c.Run.ChunkSize < batch.MinChunkSize || c.Run.ChunkSize > batch.MaxChunkSize {
		problems = append(problems, fmt.Sprintf("run.chunk_size must be between %d and %d, got %d",
			batch.MinChunkSize, batch.MaxChunkSize, c.Run.ChunkSize))
	}
	switch strings.ToLower(c.Run.Progress) {
	case ProgressAuto, ProgressBar, ProgressTUI, ProgressNone:
	default:
		problems = append(problems, fmt.Sprintf("run.progress must be auto, bar, tui or none, got %q", c.Run.Progress))
	}
	if c.Run.BarWidth < 0 {
		problems = append(problems, fmt.Sprintf("run.bar_width must be >= 0, got %d", c.Run.BarWidth))
	}
	if c.Run.ItemTimeout < 0 {
		problems = append(problems, fmt.Sprintf("run.item_timeout must be >= 0, got %s", c.Run.ItemTimeout))
	}
	problems = append(problems, c.Logging.validate()...)

	if c.Requires != "" {
		ok, err := version.Satisfies(c.Requires)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("requires: %v", err))
		case !ok:
			problems = append(problems, fmt.Sprintf("requires %q but this is batchkit %s", c.Requires, version.GetVersion()))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
