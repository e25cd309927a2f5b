// Package config resolves settings in priority order:
//  1. Defaults
//  2. Config file (~/.tada/config.toml, or the one passed with --config)
//  3. .env in the working directory
//  4. Environment variables
//  5. CLI flags
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIBase  = "http://localhost:8080"
	DefaultTimeout  = 10 * time.Second
	DefaultLogLevel = "info"
	DefaultTheme    = "classic"

	configFileName = "config.toml"
)

// Config is read once at startup and not changed afterwards.
type Config struct {
	APIBase  string
	Timeout  time.Duration
	LogLevel string
	LogFile  string
	Theme    string
	NoColor  bool

	// File is the config file that was read, if any.
	File string
}

// Overrides carries values from CLI flags. Empty strings mean "not set".
type Overrides struct {
	ConfigFile string
	APIBase    string
	LogLevel   string
	Theme      string
	NoColor    bool
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	APIBase  string `toml:"api_base"`
	Timeout  string `toml:"timeout"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	Theme    string `toml:"theme"`
	NoColor  *bool  `toml:"no_color"`
}

// Load resolves the configuration.
func Load(o Overrides) (*Config, error) {
	cfg := &Config{
		APIBase:  DefaultAPIBase,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
		Theme:    DefaultTheme,
	}

	path, explicit := o.ConfigFile, o.ConfigFile != ""
	if !explicit {
		path = userConfigFile()
	}
	if path != "" {
		if err := loadFile(cfg, path, explicit); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Missing .env is the normal case.
	_ = godotenv.Load()

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if o.APIBase != "" {
		cfg.APIBase = o.APIBase
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Theme != "" {
		cfg.Theme = o.Theme
	}
	if o.NoColor {
		cfg.NoColor = true
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Dir is the per-user settings directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func userConfigFile() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configFileName)
}

func loadFile(cfg *Config, path string, mustExist bool) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	cfg.File = path

	if fc.APIBase != "" {
		cfg.APIBase = fc.APIBase
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.Theme != "" {
		cfg.Theme = fc.Theme
	}
	if fc.NoColor != nil {
		cfg.NoColor = *fc.NoColor
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	// VITE_API_BASE is what the web build of the board reads.
	if v := firstEnv("TODO_API_BASE", "VITE_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_API_TIMEOUT")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("TODO_API_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	cfg.LogLevel = getEnv("TADA_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("TADA_LOG_FILE", cfg.LogFile)
	cfg.Theme = getEnv("TADA_THEME", cfg.Theme)
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColor = true
	}
	return nil
}

func (c *Config) finalize() error {
	c.APIBase = strings.TrimSuffix(strings.TrimSpace(c.APIBase), "/")
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return fmt.Errorf("api base %q: %w", c.APIBase, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api base %q: scheme must be http or https", c.APIBase)
	}
	if u.Host == "" {
		return fmt.Errorf("api base %q: missing host", c.APIBase)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration accepts Go durations ("5s") and bare seconds ("5").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
