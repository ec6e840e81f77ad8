package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbaille/katas/internal/fetcher"
	"github.com/spf13/viper"
)

type ClockConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

type StoreConfig struct {
	// Path of the SQLite history database. "~" expands to the home dir.
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

type Config struct {
	Clock   ClockConfig   `mapstructure:"clock"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EnvPrefix namespaces environment overrides, e.g. KATAS_CLOCK_URL
const EnvPrefix = "KATAS"

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Clock: ClockConfig{
			URL:            fetcher.DefaultURL,
			TimeoutSeconds: 10,
			UserAgent:      "katas/1.0",
		},
		Store: StoreConfig{
			Path: filepath.Join("~", ".katas", "katas.db"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if non-empty) and applies KATAS_* environment overrides
// on top of the defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("clock.url", defaults.Clock.URL)
	v.SetDefault("clock.timeout_seconds", defaults.Clock.TimeoutSeconds)
	v.SetDefault("clock.user_agent", defaults.Clock.UserAgent)
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Clock.URL) == "" {
		return fmt.Errorf("clock.url must not be empty")
	}
	if c.Clock.TimeoutSeconds <= 0 {
		return fmt.Errorf("clock.timeout_seconds must be positive, got %d", c.Clock.TimeoutSeconds)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// DBPath returns Store.Path with a leading ~ expanded
func (c *Config) DBPath() (string, error) {
	p := c.Store.Path
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home dir: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
