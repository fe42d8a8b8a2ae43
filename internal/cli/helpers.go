package cli

import (
	"fmt"
	"os"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/config"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
)

// These variables are bound to the persistent flags of the root command.
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// loadConfig reads the configuration file, then applies .env and
// FRESHFETCH_* overrides.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if LogFormat != nil && *LogFormat != "" {
		cfg.Settings.LogFormat = *LogFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}

	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := fsutil.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig report a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}
