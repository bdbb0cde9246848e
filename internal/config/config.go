// Package config loads settings from defaults, an optional YAML file and
// GO_CLAUDE_LATENCY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GO_CLAUDE_LATENCY_TIMEZONE.
const EnvPrefix = "GO_CLAUDE_LATENCY"

type Config struct {
	DataDir        string        `mapstructure:"data_dir"`
	CacheDir       string        `mapstructure:"cache_dir"`
	Timezone       string        `mapstructure:"timezone"`
	GapThreshold   time.Duration `mapstructure:"gap_threshold"`
	LatencyCeiling time.Duration `mapstructure:"latency_ceiling"`
	TextWidth      int           `mapstructure:"text_width"`
	Concurrency    int           `mapstructure:"concurrency"`
	Output         Output        `mapstructure:"output"`
	History        History       `mapstructure:"history"`
	Watch          Watch         `mapstructure:"watch"`
	Log            Log           `mapstructure:"log"`
}

type Output struct {
	Format string `mapstructure:"format"`
	View   string `mapstructure:"view"`
	Limit  int    `mapstructure:"limit"`
	Color  bool   `mapstructure:"color"`
}

// History controls the snapshot database.
type History struct {
	Record bool   `mapstructure:"record"`
	DBPath string `mapstructure:"db_path"`
}

type Watch struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

// Load reads configuration from cfgFile, or from config.yaml in ConfigDir
// when cfgFile is empty. A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("cache_dir", filepath.Join(DefaultConfigDir, "cache"))
	v.SetDefault("timezone", "Local")
	v.SetDefault("gap_threshold", DefaultGapThreshold)
	v.SetDefault("latency_ceiling", DefaultLatencyCeiling)
	v.SetDefault("text_width", 80)
	v.SetDefault("concurrency", 0)
	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.view", DefaultView)
	v.SetDefault("output.limit", 0)
	v.SetDefault("output.color", true)
	v.SetDefault("history.record", false)
	v.SetDefault("history.db_path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("watch.debounce", DefaultDebounce)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", filepath.Join(DefaultConfigDir, DefaultLogFile))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.CacheDir = expandPath(cfg.CacheDir)
	cfg.History.DBPath = expandPath(cfg.History.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the analysis cannot run with.
func (c *Config) Validate() error {
	if c.GapThreshold <= 0 {
		return fmt.Errorf("gap_threshold must be positive, got %s", c.GapThreshold)
	}
	if c.LatencyCeiling < 0 {
		return fmt.Errorf("latency_ceiling must not be negative, got %s", c.LatencyCeiling)
	}
	if c.TextWidth < 0 {
		return fmt.Errorf("text_width must not be negative, got %d", c.TextWidth)
	}
	if c.Output.Limit < 0 {
		return fmt.Errorf("output.limit must not be negative, got %d", c.Output.Limit)
	}
	if _, err := time.LoadLocation(timezoneName(c.Timezone)); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

func timezoneName(tz string) string {
	if tz == "" {
		return "Local"
	}
	return tz
}
