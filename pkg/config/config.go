package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLogURLPrefix is joined between the configured base log URL and a
// document key when no override is present. The sentinel value "NONE"
// disables the prefix entirely.
const (
	DefaultLogURLPrefix = "/logs"
	NoPrefixSentinel    = "NONE"
	DefaultWorkers      = 8
)

// Load reads a YAML config file from path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadEffective loads the config file at path (missing file yields an empty
// config; a present but unparseable file is an error), applies environment
// overrides, then defaults.
func LoadEffective(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}
	LoadEnvOverrides(cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadEnvOverrides applies MODMIGRATE_* environment overrides onto cfg and
// reports whether any env var was used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			envUsed = true
			*dst = v
		}
	}
	set(&cfg.Source.Path, "MODMIGRATE_SOURCE_PATH")
	set(&cfg.Source.URL, "MODMIGRATE_SOURCE_URL")
	set(&cfg.Store.DBPath, "MODMIGRATE_DB_PATH")
	set(&cfg.Run.GuildID, "MODMIGRATE_GUILD_ID")
	set(&cfg.Run.LogURL, "MODMIGRATE_LOG_URL")
	set(&cfg.Run.LogURLPrefix, "LOG_URL_PREFIX")
	set(&cfg.Directory.URL, "MODMIGRATE_DIRECTORY_URL")
	set(&cfg.Directory.Roster, "MODMIGRATE_ROSTER")
	set(&cfg.Logging.Level, "MODMIGRATE_LOG_LEVEL")
	set(&cfg.Metrics.Addr, "MODMIGRATE_METRICS_ADDR")
	if v := os.Getenv("MODMIGRATE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			envUsed = true
			cfg.Run.Workers = n
		}
	}
	return envUsed
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Run.Workers <= 0 {
		c.Run.Workers = DefaultWorkers
	}
	if c.Run.LogURLPrefix == "" {
		c.Run.LogURLPrefix = DefaultLogURLPrefix
	}
}

// Validate checks that the settings a run cannot proceed without are set.
func (c *Config) Validate() error {
	if c.Source.Path == "" && c.Source.URL == "" {
		return fmt.Errorf("source database is required (set source.path or source.url)")
	}
	if c.Source.Path != "" && c.Source.URL != "" {
		return fmt.Errorf("source.path and source.url are mutually exclusive")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("document store path is required (set store.db_path)")
	}
	if c.Run.GuildID == "" {
		return fmt.Errorf("guild id is required (set run.guild_id)")
	}
	return nil
}
