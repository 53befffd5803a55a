package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct for a migration run.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Store     StoreConfig     `yaml:"store"`
	Run       RunConfig       `yaml:"run"`
	Directory DirectoryConfig `yaml:"directory"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SourceConfig locates the legacy SQLite database. Path and URL are
// mutually exclusive; when URL is set the file is downloaded to a temp
// path first and removed after the run unless KeepDownload is set.
type SourceConfig struct {
	Path         string `yaml:"path"`
	URL          string `yaml:"url"`
	KeepDownload bool   `yaml:"keep_download"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// RunConfig holds per-run conversion settings.
type RunConfig struct {
	GuildID      string `yaml:"guild_id"`
	LogURL       string `yaml:"log_url"`
	LogURLPrefix string `yaml:"log_url_prefix"`
	Workers      int    `yaml:"workers"`
}

// DirectoryConfig configures the identity directory: the remote lookup
// endpoint and an optional local roster file for the tag index.
type DirectoryConfig struct {
	URL     string   `yaml:"url"`
	Roster  string   `yaml:"roster"`
	Timeout Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig controls the optional prometheus listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
