package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL         = "http://localhost:5000/api"
	DefaultRequestTimeout  = 30
	DefaultComposeMaxLines = 8
)

// Config represents the global ~/.acadchat/config.toml.
type Config struct {
	DefaultSession        string `toml:"default_session"`
	BaseURL               string `toml:"base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	PollIntervalSeconds   int    `toml:"poll_interval_seconds"`
	ComposeMaxLines       int    `toml:"compose_max_lines"`
	LogLevel              string `toml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		BaseURL:               DefaultBaseURL,
		RequestTimeoutSeconds: DefaultRequestTimeout,
		ComposeMaxLines:       DefaultComposeMaxLines,
		LogLevel:              "info",
	}
}

// Load reads config from the given path. Keys missing from the file keep
// their default values. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads the config file if present, then applies environment
// overrides (including a .env file in the working directory) and validates
// the result.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ACADCHAT_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("ACADCHAT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := getenv("ACADCHAT_SESSION"); v != "" {
		c.DefaultSession = v
	}
	if v := getenv("ACADCHAT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	for _, iv := range []struct {
		key string
		dst *int
	}{
		{"ACADCHAT_REQUEST_TIMEOUT", &c.RequestTimeoutSeconds},
		{"ACADCHAT_POLL_INTERVAL", &c.PollIntervalSeconds},
	} {
		v := getenv(iv.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", iv.key, err)
		}
		*iv.dst = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q: must be an absolute http(s) URL", c.BaseURL)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}
	if c.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative")
	}
	if c.ComposeMaxLines < 1 {
		return fmt.Errorf("compose_max_lines must be at least 1")
	}
	return nil
}

// RequestTimeout returns the per-request timeout; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the history refresh interval; zero disables polling.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
