package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, "text", cfg.Settings.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1, cfg.HTTP.MaxRetries)
	assert.Equal(t, 10, cfg.HTTP.MaxRedirects)
	assert.Equal(t, DefaultAcceptLanguage, cfg.HTTP.AcceptLanguage)
	assert.NotEmpty(t, cfg.HTTP.UserAgents.Primary)
	assert.NotEmpty(t, cfg.HTTP.UserAgents.Alternate)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `http:
  timeout: 10s
  max_retries: 0
  user_agents:
    alternate: Wget/1.21
settings:
  log_level: debug
  log_format: json`

	err := os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 0, cfg.HTTP.MaxRetries)
	assert.Equal(t, "Wget/1.21", cfg.HTTP.UserAgents.Alternate)
	assert.Equal(t, DefaultPrimaryUserAgent, cfg.HTTP.UserAgents.Primary, "unset values keep their defaults")
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, "json", cfg.Settings.LogFormat)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoadConfigFromReader_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "malformed yaml", content: "http: [", wantErr: errors.ErrConfigParse},
		{name: "negative timeout", content: "http:\n  timeout: -1s", wantErr: errors.ErrConfigValidation},
		{name: "negative retries", content: "http:\n  max_retries: -2", wantErr: errors.ErrConfigValidation},
		{name: "bad log level", content: "settings:\n  log_level: loud", wantErr: errors.ErrConfigValidation},
		{name: "bad log format", content: "settings:\n  log_format: xml", wantErr: errors.ErrConfigValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FRESHFETCH_HTTP_TIMEOUT":         "45s",
		"FRESHFETCH_HTTP_MAX_RETRIES":     "0",
		"FRESHFETCH_USER_AGENT_ALTERNATE": "custom/1.0",
		"FRESHFETCH_LOG_LEVEL":            "warn",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 0, cfg.HTTP.MaxRetries)
	assert.Equal(t, "custom/1.0", cfg.HTTP.UserAgents.Alternate)
	assert.Equal(t, "warn", cfg.Settings.LogLevel)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "FRESHFETCH_HTTP_TIMEOUT" {
			return "soon", true
		}
		return "", false
	}
	err := DefaultConfig().ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRESHFETCH_HTTP_TIMEOUT")
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FRESHFETCH_TEST_ONLY_VAR=from-file\n"), fsutil.FileModeDefault))
	t.Cleanup(func() { _ = os.Unsetenv("FRESHFETCH_TEST_ONLY_VAR") })

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "from-file", os.Getenv("FRESHFETCH_TEST_ONLY_VAR"))
}

func TestSetValue_UnknownKey(t *testing.T) {
	err := DefaultConfig().SetValue("cache_dir", "/tmp")
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", fsutil.ConfigFileName)

	cfg := DefaultConfig()
	require.NoError(t, cfg.SetValue("http.timeout", "45s"))
	require.NoError(t, cfg.SetValue("settings.log_format", "json"))
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, loaded.HTTP.Timeout)
	assert.Equal(t, "json", loaded.Settings.LogFormat)
	assert.Equal(t, cfg.HTTP.UserAgents, loaded.HTTP.UserAgents)

	assert.ErrorIs(t, cfg.SaveConfig(""), errors.ErrEmptyConfigPath)
}
