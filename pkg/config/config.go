// Package config provides configuration management for freshfetch.
// It handles loading and validating the application settings: HTTP client
// identity and timeouts, retry policy and logging. Settings come from a
// YAML file, fall back to sensible defaults and can be overridden through
// FRESHFETCH_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	HTTP     HTTPConfig `yaml:"http"`
	Settings Settings   `yaml:"settings"`
}

// HTTPConfig holds the transport settings shared by every request of a run.
type HTTPConfig struct {
	// Timeout applies to connect, TLS handshake, response headers and each socket read.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries bounds the retries of transient connection failures.
	MaxRetries    int           `yaml:"max_retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`

	// MaxRedirects bounds redirect chains, Refresh headers included.
	MaxRedirects int `yaml:"max_redirects"`

	AcceptLanguage string     `yaml:"accept_language"`
	UserAgents     UserAgents `yaml:"user_agents"`
}

// UserAgents are the identities a profile can choose between.
type UserAgents struct {
	Primary   string `yaml:"primary"`
	Alternate string `yaml:"alternate"`
}

// Settings represents general application settings.
type Settings struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxRetries allows a single retry of a failed connection attempt.
	DefaultMaxRetries = 1

	// DefaultRetryInterval is the pause before a retry.
	DefaultRetryInterval = time.Second

	// DefaultMaxRedirects mirrors the limit of net/http.
	DefaultMaxRedirects = 10

	DefaultAcceptLanguage = "en-US,en;q=0.9"

	DefaultPrimaryUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"
	DefaultAlternateUserAgent = "curl/8.10.1"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:        DefaultHTTPTimeout,
			MaxRetries:     DefaultMaxRetries,
			RetryInterval:  DefaultRetryInterval,
			MaxRedirects:   DefaultMaxRedirects,
			AcceptLanguage: DefaultAcceptLanguage,
			UserAgents: UserAgents{
				Primary:   DefaultPrimaryUserAgent,
				Alternate: DefaultAlternateUserAgent,
			},
		},
		Settings: Settings{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config file path: %s", path)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyDefaults fills values an explicit but partial file left empty.
func (c *Config) applyDefaults() {
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxRedirects == 0 {
		c.HTTP.MaxRedirects = DefaultMaxRedirects
	}
	if c.HTTP.AcceptLanguage == "" {
		c.HTTP.AcceptLanguage = DefaultAcceptLanguage
	}
	if c.HTTP.UserAgents.Primary == "" {
		c.HTTP.UserAgents.Primary = DefaultPrimaryUserAgent
	}
	if c.HTTP.UserAgents.Alternate == "" {
		c.HTTP.UserAgents.Alternate = DefaultAlternateUserAgent
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateHTTP(c.HTTP); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateHTTP(h HTTPConfig) error {
	if h.Timeout < 0 {
		return fmt.Errorf("%w: http timeout cannot be negative", errors.ErrConfigValidation)
	}
	if h.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries cannot be negative", errors.ErrConfigValidation)
	}
	if h.RetryInterval < 0 {
		return fmt.Errorf("%w: retry_interval cannot be negative", errors.ErrConfigValidation)
	}
	if h.MaxRedirects < 0 {
		return fmt.Errorf("%w: max_redirects cannot be negative", errors.ErrConfigValidation)
	}
	return nil
}

func validateSettings(s Settings) error {
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(s.LogFormat)] {
		return fmt.Errorf("%w: invalid log format %q (valid: text, json)", errors.ErrConfigValidation, s.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return fmt.Errorf("%w: invalid log level %q (valid: debug, info, warn, error)", errors.ErrConfigValidation, s.LogLevel)
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// SaveConfig writes the configuration to path, creating its directory.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DirModeSecure); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}
	if err := os.WriteFile(path, data, fsutil.FileModeSecure); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}
