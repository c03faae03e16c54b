package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Parse modes for documents.
const (
	ModeProse  = "prose"
	ModeStrict = "strict"
)

// Config is the complete textindex configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Output  OutputConfig `yaml:"output" json:"output"`
	Parse   ParseConfig  `yaml:"parse" json:"parse"`
	Log     LogConfig    `yaml:"log" json:"log"`
	Query   QueryConfig  `yaml:"query" json:"query"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
}

// OutputConfig controls how the finished index is rendered.
type OutputConfig struct {
	// Format is text, json or yaml.
	Format string `yaml:"format" json:"format"`
	// Color is auto, always or never.
	Color string `yaml:"color" json:"color"`
	// Tree also renders the heading hierarchy.
	Tree bool `yaml:"tree" json:"tree"`
}

// ParseConfig controls tokenizing and parsing.
type ParseConfig struct {
	// Mode is prose (words outside braces are plain text) or strict.
	Mode string `yaml:"mode" json:"mode"`
	// Strict makes lexical errors fail the document.
	Strict        bool  `yaml:"strict" json:"strict"`
	MaxInputBytes int64 `yaml:"max_input_bytes" json:"max_input_bytes"`
	Workers       int   `yaml:"workers" json:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// QueryConfig configures the query sandbox.
type QueryConfig struct {
	Timeout string `yaml:"timeout" json:"timeout"`
}

// WatchConfig configures rebuild-on-change.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// NewConfig returns the defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Parse: ParseConfig{
			Mode:          ModeProse,
			MaxInputBytes: 8 << 20,
			Workers:       runtime.NumCPU(),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Query: QueryConfig{
			Timeout: "5s",
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
// $XDG_CONFIG_HOME/textindex/config.yaml, or ~/.config/textindex/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "textindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "textindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "textindex", "config.yaml")
}

// loadUserConfig returns nil, nil when no user config exists.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for the project in dir. Precedence, lowest first:
//  1. Defaults
//  2. User config
//  3. Project config (.textindex.yaml or .textindex.yml in dir)
//  4. Environment variables (TEXTINDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".textindex.yaml", ".textindex.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies the non-zero values of other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
	if other.Output.Tree {
		c.Output.Tree = true
	}

	if other.Parse.Mode != "" {
		c.Parse.Mode = other.Parse.Mode
	}
	if other.Parse.Strict {
		c.Parse.Strict = true
	}
	if other.Parse.MaxInputBytes != 0 {
		c.Parse.MaxInputBytes = other.Parse.MaxInputBytes
	}
	if other.Parse.Workers != 0 {
		c.Parse.Workers = other.Parse.Workers
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}

	if other.Query.Timeout != "" {
		c.Query.Timeout = other.Query.Timeout
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TEXTINDEX_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("TEXTINDEX_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("TEXTINDEX_TREE"); v != "" {
		c.Output.Tree = parseBool(v)
	}
	if v := os.Getenv("TEXTINDEX_PARSE_MODE"); v != "" {
		c.Parse.Mode = v
	}
	if v := os.Getenv("TEXTINDEX_STRICT"); v != "" {
		c.Parse.Strict = parseBool(v)
	}
	if v := os.Getenv("TEXTINDEX_MAX_INPUT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Parse.MaxInputBytes = n
		}
	}
	if v := os.Getenv("TEXTINDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Parse.Workers = n
		}
	}
	if v := os.Getenv("TEXTINDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TEXTINDEX_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("TEXTINDEX_QUERY_TIMEOUT"); v != "" {
		c.Query.Timeout = v
	}
}

func parseBool(s string) bool {
	return strings.ToLower(s) == "true" || s == "1"
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	validFormats := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		return fmt.Errorf("output.format must be 'text', 'json' or 'yaml', got %s", c.Output.Format)
	}

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[strings.ToLower(c.Output.Color)] {
		return fmt.Errorf("output.color must be 'auto', 'always' or 'never', got %s", c.Output.Color)
	}

	switch strings.ToLower(c.Parse.Mode) {
	case ModeProse, ModeStrict:
	default:
		return fmt.Errorf("parse.mode must be 'prose' or 'strict', got %s", c.Parse.Mode)
	}

	if c.Parse.MaxInputBytes < 0 {
		return fmt.Errorf("parse.max_input_bytes must be non-negative, got %d", c.Parse.MaxInputBytes)
	}
	if c.Parse.Workers < 0 {
		return fmt.Errorf("parse.workers must be non-negative, got %d", c.Parse.Workers)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("log.format must be 'text' or 'json', got %s", c.Log.Format)
	}

	if _, err := c.QueryTimeout(); err != nil {
		return err
	}
	if _, err := c.WatchDebounce(); err != nil {
		return err
	}
	return nil
}

// QueryTimeout parses query.timeout.
func (c *Config) QueryTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Query.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("query.timeout must be a positive duration, got %q", c.Query.Timeout)
	}
	return d, nil
}

// WatchDebounce parses watch.debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("watch.debounce must be a non-negative duration, got %q", c.Watch.Debounce)
	}
	return d, nil
}

// Prose reports whether documents are tokenized in prose mode.
func (c *Config) Prose() bool {
	return strings.ToLower(c.Parse.Mode) == ModeProse
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
