// Package config loads pmetrics settings from YAML and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvLogLevel  = "PMETRICS_LOG_LEVEL"
	EnvFormat    = "PMETRICS_FORMAT"
	EnvHistoryDB = "PMETRICS_HISTORY_DB"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
	Batch   BatchConfig   `yaml:"batch"`
	PDDL    PDDLConfig    `yaml:"pddl"`
	Watch   WatchConfig   `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is relative to the state directory unless absolute.
	Path string `yaml:"path"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type PDDLConfig struct {
	NormalizeUmlauts bool `yaml:"normalize_umlauts"`
}

type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Output:  OutputConfig{Format: "text"},
		History: HistoryConfig{Enabled: true, Path: "history.db"},
		Batch:   BatchConfig{Concurrency: 4},
		PDDL:    PDDLConfig{NormalizeUmlauts: true},
		Watch:   WatchConfig{Interval: time.Second},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvFormat); ok && strings.TrimSpace(v) != "" {
		c.Output.Format = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvHistoryDB); ok && strings.TrimSpace(v) != "" {
		c.History.Path = strings.TrimSpace(v)
	}
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var problems []string
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("output.format %q must be one of text, json, yaml", c.Output.Format))
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		problems = append(problems, "history.path is required when history is enabled")
	}
	if c.Batch.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency))
	}
	if c.Watch.Interval <= 0 {
		problems = append(problems, fmt.Sprintf("watch.interval must be positive, got %s", c.Watch.Interval))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
