package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envMap returns a lookupEnv function backed by m.
func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "diagnose", cfg.Run.Mode)
	assert.Equal(t, ProgressAuto, cfg.Run.Progress)
	assert.Equal(t, 1, cfg.Run.ChunkSize)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
run:
  mode: skip
  workers: 8
  chunk_size: 32
  progress: none
  item_timeout: 2s
logging:
  level: debug
  format: json
metrics:
  namespace: imports
  textfile: /tmp/batch.prom
`)

	cfg, err := Load(path, envMap(nil))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "skip", cfg.Run.Mode)
	assert.Equal(t, 8, cfg.Run.Workers)
	assert.Equal(t, 32, cfg.Run.ChunkSize)
	assert.Equal(t, ProgressNone, cfg.Run.Progress)
	assert.Equal(t, 2*time.Second, cfg.Run.ItemTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "imports", cfg.Metrics.Namespace)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 40, cfg.Run.BarWidth)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# nothing here\n"), envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "run:\n  wokers: 3\n"), envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wokers")
}

func TestLoad_MissingFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	t.Run("explicit flag path", func(t *testing.T) {
		_, err := Load(missing, envMap(nil))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("explicit env path", func(t *testing.T) {
		_, err := Load("", envMap(map[string]string{EnvConfig: missing}))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("default path", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cfg, err := Load("", envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "run:\n  workers: 2\n  mode: skip\nlogging:\n  level: warn\n")

	cfg, err := Load(path, envMap(map[string]string{
		EnvWorkers:   "6",
		EnvMode:      "diagnose",
		EnvProgress:  "bar",
		EnvLogLevel:  "error",
		EnvLogFormat: "json",
		EnvLogFile:   "/tmp/batchkit.log",
	}))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Run.Workers)
	assert.Equal(t, "diagnose", cfg.Run.Mode)
	assert.Equal(t, ProgressBar, cfg.Run.Progress)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/batchkit.log", cfg.Logging.File)
}

func TestLoad_BadEnvWorkers(t *testing.T) {
	_, err := Load(writeConfig(t, ""), envMap(map[string]string{EnvWorkers: "many"}))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "mode", mutate: func(c *Config) { c.Run.Mode = "retry" }, wantMsg: "run.mode"},
		{name: "workers", mutate: func(c *Config) { c.Run.Workers = -2 }, wantMsg: "run.workers"},
		{name: "chunk size", mutate: func(c *Config) { c.Run.ChunkSize = 0 }, wantMsg: "run.chunk_size"},
		{name: "progress", mutate: func(c *Config) { c.Run.Progress = "fancy" }, wantMsg: "run.progress"},
		{name: "bar width", mutate: func(c *Config) { c.Run.BarWidth = -1 }, wantMsg: "run.bar_width"},
		{name: "timeout", mutate: func(c *Config) { c.Run.ItemTimeout = -time.Second }, wantMsg: "run.item_timeout"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantMsg: "logging.level"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantMsg: "logging.format"},
		{name: "requires unsatisfied", mutate: func(c *Config) { c.Requires = ">= 99" }, wantMsg: "requires"},
		{name: "requires malformed", mutate: func(c *Config) { c.Requires = "??" }, wantMsg: "requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Run.Workers = -1
	cfg.Run.Progress = "fancy"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run.workers")
	assert.Contains(t, err.Error(), "run.progress")
}

func TestValidate_RequiresSatisfied(t *testing.T) {
	cfg := Default()
	cfg.Requires = ">= 0.1"
	assert.NoError(t, cfg.Validate())
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, "stderr", got.Output)
	assert.Equal(t, "debug", got.Level)

	lc.File = "/tmp/x.log"
	got = lc.ToLoggingConfig()
	assert.Equal(t, "file", got.Output)
	assert.Equal(t, "/tmp/x.log", got.File)
}
