package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "FRESHFETCH_"

// envKeys maps environment variable suffixes to configuration keys.
var envKeys = map[string]string{
	"HTTP_TIMEOUT":         "http.timeout",
	"HTTP_MAX_RETRIES":     "http.max_retries",
	"HTTP_RETRY_INTERVAL":  "http.retry_interval",
	"HTTP_MAX_REDIRECTS":   "http.max_redirects",
	"HTTP_ACCEPT_LANGUAGE": "http.accept_language",
	"USER_AGENT_PRIMARY":   "http.user_agents.primary",
	"USER_AGENT_ALTERNATE": "http.user_agents.alternate",
	"LOG_LEVEL":            "settings.log_level",
	"LOG_FORMAT":           "settings.log_format",
}

// LoadEnvFiles loads KEY=VALUE pairs from the given dotenv files into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from FRESHFETCH_* variables
// returned by lookup (os.LookupEnv in production) and re-validates.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for suffix, key := range envKeys {
		value, ok := lookup(EnvPrefix + suffix)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if err := c.SetValue(key, value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, suffix, err)
		}
	}
	return c.Validate()
}

// SetValue sets a configuration value by key
// Supported keys:
//   - http.timeout, http.retry_interval: duration such as "30s"
//   - http.max_retries, http.max_redirects: integer
//   - http.accept_language: string
//   - http.user_agents.primary, http.user_agents.alternate: string
//   - settings.log_level: debug, info, warn, error
//   - settings.log_format: text, json
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "http.timeout":
		return setDuration(&c.HTTP.Timeout, key, value)
	case "http.retry_interval":
		return setDuration(&c.HTTP.RetryInterval, key, value)
	case "http.max_retries":
		return setInt(&c.HTTP.MaxRetries, key, value)
	case "http.max_redirects":
		return setInt(&c.HTTP.MaxRedirects, key, value)
	case "http.accept_language":
		c.HTTP.AcceptLanguage = value
	case "http.user_agents.primary":
		c.HTTP.UserAgents.Primary = value
	case "http.user_agents.alternate":
		c.HTTP.UserAgents.Alternate = value
	case "settings.log_level":
		c.Settings.LogLevel = value
	case "settings.log_format":
		c.Settings.LogFormat = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	*dst = n
	return nil
}
