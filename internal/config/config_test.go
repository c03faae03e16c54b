package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty directory so a developer's own
// config never leaks into tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.False(t, cfg.Output.Tree)
	assert.Equal(t, ModeProse, cfg.Parse.Mode)
	assert.False(t, cfg.Parse.Strict)
	assert.Equal(t, int64(8<<20), cfg.Parse.MaxInputBytes)
	assert.Equal(t, runtime.NumCPU(), cfg.Parse.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yaml"), `
output:
  format: json
  tree: true
parse:
  mode: strict
  workers: 2
query:
  timeout: 2s
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.Tree)
	assert.Equal(t, ModeStrict, cfg.Parse.Mode)
	assert.False(t, cfg.Prose())
	assert.Equal(t, 2, cfg.Parse.Workers)
	assert.Equal(t, "auto", cfg.Output.Color, "unset values keep defaults")

	timeout, err := cfg.QueryTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yml"), "output:\n  format: yaml\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoad_YamlTakesPrecedenceOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yaml"), "output:\n  format: json\n")
	writeFile(t, filepath.Join(dir, ".textindex.yml"), "output:\n  format: yaml\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_UserConfigBelowProject(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "textindex", "config.yaml"), "output:\n  color: never\n  format: yaml\n")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yaml"), "output:\n  format: json\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "never", cfg.Output.Color)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yaml"), "output:\n  format: json\n")

	t.Setenv("TEXTINDEX_FORMAT", "yaml")
	t.Setenv("TEXTINDEX_STRICT", "true")
	t.Setenv("TEXTINDEX_PARSE_MODE", "strict")
	t.Setenv("TEXTINDEX_MAX_INPUT_BYTES", "1024")
	t.Setenv("TEXTINDEX_WORKERS", "not-a-number")
	t.Setenv("TEXTINDEX_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.True(t, cfg.Parse.Strict)
	assert.Equal(t, ModeStrict, cfg.Parse.Mode)
	assert.Equal(t, int64(1024), cfg.Parse.MaxInputBytes)
	assert.Equal(t, runtime.NumCPU(), cfg.Parse.Workers, "invalid env values are ignored")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yaml"), "output: [unclosed\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidValue(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".textindex.yaml"), "output:\n  format: html\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad color", func(c *Config) { c.Output.Color = "sometimes" }, "output.color"},
		{"bad mode", func(c *Config) { c.Parse.Mode = "loose" }, "parse.mode"},
		{"negative max input", func(c *Config) { c.Parse.MaxInputBytes = -1 }, "parse.max_input_bytes"},
		{"negative workers", func(c *Config) { c.Parse.Workers = -2 }, "parse.workers"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad timeout", func(c *Config) { c.Query.Timeout = "soon" }, "query.timeout"},
		{"zero timeout", func(c *Config) { c.Query.Timeout = "0s" }, "query.timeout"},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "-1s" }, "watch.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Output.Format = "json"
	cfg.Parse.Strict = true
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".textindex.yaml")))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
