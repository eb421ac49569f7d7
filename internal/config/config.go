// Package config handles configuration loading and validation for relish.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for relish.
type Config struct {
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	Shell  ShellConfig  `mapstructure:"shell" yaml:"shell"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// EngineConfig holds tunables for the query engine's index structures.
type EngineConfig struct {
	BTreeOrder  int `mapstructure:"btree_order" yaml:"btree_order"`
	HashBuckets int `mapstructure:"hash_buckets" yaml:"hash_buckets"`
}

// ShellConfig holds interactive shell settings.
type ShellConfig struct {
	Prompt      string `mapstructure:"prompt" yaml:"prompt"`
	HistoryFile string `mapstructure:"history_file" yaml:"history_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			BTreeOrder:  4,
			HashBuckets: 16,
		},
		Shell: ShellConfig{
			Prompt:      "relish> ",
			HistoryFile: "", // history disabled by default
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from an optional file and the environment.
// RELISH_LOG_LEVEL and friends override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("engine.btree_order", cfg.Engine.BTreeOrder)
	v.SetDefault("engine.hash_buckets", cfg.Engine.HashBuckets)
	v.SetDefault("shell.prompt", cfg.Shell.Prompt)
	v.SetDefault("shell.history_file", cfg.Shell.HistoryFile)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	v.SetEnvPrefix("RELISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("relish")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.relish")
		v.AddConfigPath("/etc/relish")

		// no config file is fine, defaults apply
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	if c.Engine.BTreeOrder < 2 || c.Engine.BTreeOrder > 1024 {
		return fmt.Errorf("btree_order must be between 2 and 1024, got %d", c.Engine.BTreeOrder)
	}
	if c.Engine.HashBuckets < 1 {
		return fmt.Errorf("hash_buckets must be positive, got %d", c.Engine.HashBuckets)
	}
	if c.Engine.HashBuckets&(c.Engine.HashBuckets-1) != 0 {
		return fmt.Errorf("hash_buckets must be a power of 2, got %d", c.Engine.HashBuckets)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// WriteDefault writes the default configuration to path as YAML.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	header := []byte("# relish configuration file\n")
	return os.WriteFile(path, append(header, data...), 0644)
}
