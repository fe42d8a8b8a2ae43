package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "freshfetch"

	// ConfigFileName is the name of the application config file.
	ConfigFileName = "config.yaml"
)

// GetConfigDir returns the platform-specific config directory for the application
// On Linux: ~/.config/freshfetch/
// On macOS: ~/Library/Application Support/freshfetch/
// On Windows: %AppData%\freshfetch\
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetDefaultConfigPath returns the path of the config file used when none is given.
func GetDefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
