package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
output:
  format: json
batch:
  concurrency: 8
pddl:
  normalize_umlauts: false
watch:
  interval: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.False(t, cfg.PDDL.NormalizeUmlauts)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Interval)
	assert.True(t, cfg.History.Enabled, "unset keys keep their defaults")
	assert.Equal(t, "history.db", cfg.History.Path)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvFormat, "yaml")
	t.Setenv(EnvHistoryDB, "/tmp/runs.db")

	cfg, err := Load(writeConfig(t, "output:\n  format: json\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "/tmp/runs.db", cfg.History.Path)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "unknown key", body: "colour: red\n", wantErr: "field colour not found"},
		{name: "bad format", body: "output:\n  format: xml\n", wantErr: `output.format "xml"`},
		{name: "bad level", body: "log:\n  level: loud\n", wantErr: `log.level "loud"`},
		{name: "zero concurrency", body: "batch:\n  concurrency: 0\n", wantErr: "batch.concurrency must be at least 1"},
		{name: "history without path", body: "history:\n  path: \"\"\n", wantErr: "history.path is required"},
		{name: "zero interval", body: "watch:\n  interval: 0s\n", wantErr: "watch.interval must be positive"},
		{name: "malformed", body: "log: [", wantErr: "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHistoryPathNotRequiredWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.History.Enabled = false
	cfg.History.Path = ""
	require.NoError(t, cfg.Validate())
}
