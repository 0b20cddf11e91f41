package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
server_address: https://files.example.com/
upload_path: /upload.php
download_base_path: uploaded_files
insecure_skip_verify: false
timeout: 45s
concurrency: 8
progress: true
log_level: debug
retry:
  attempts: 5
  delay: 250ms
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com/", cfg.ServerAddress)
	assert.Equal(t, "/upload.php", cfg.UploadPath)
	assert.Equal(t, "uploaded_files", cfg.DownloadBasePath)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.Progress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
}

func TestLoadFromYAMLKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server_address: https://h.com\n"), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvServerAddress, "https://env.example.com")
	t.Setenv(EnvUploadPath, "up.php")
	t.Setenv(EnvDownloadBasePath, "files")
	t.Setenv(EnvRetryAttempts, "7")
	t.Setenv(EnvRetryDelay, "500ms")
	t.Setenv(EnvTimeout, "10s")
	t.Setenv(EnvInsecureSkipVerify, "false")
	t.Setenv(EnvConcurrency, "2")
	t.Setenv(EnvProgress, "1")
	t.Setenv(EnvLogLevel, "warn")

	cfg := Default()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://env.example.com", cfg.ServerAddress)
	assert.Equal(t, "up.php", cfg.UploadPath)
	assert.Equal(t, "files", cfg.DownloadBasePath)
	assert.Equal(t, 7, cfg.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.True(t, cfg.Progress)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvRetryAttempts, "three"},
		{EnvRetryDelay, "soon"},
		{EnvTimeout, "forever"},
		{EnvInsecureSkipVerify, "maybe"},
		{EnvConcurrency, "many"},
		{EnvProgress, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			env := map[string]string{tt.key: tt.value}
			cfg := Default()
			err := cfg.LoadFromLookup(func(k string) (string, bool) {
				v, ok := env[k]
				return v, ok
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	content := "UPLOAD_PATH=from-dotenv.php\nDOWNLOAD_BASE_PATH=dotenv_files\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0644))

	// Pre-set value must win over the file.
	t.Setenv(EnvUploadPath, "preset.php")
	t.Setenv(EnvDownloadBasePath, "")
	os.Unsetenv(EnvDownloadBasePath)

	require.NoError(t, LoadDotEnv(envPath))

	assert.Equal(t, "preset.php", os.Getenv(EnvUploadPath))
	assert.Equal(t, "dotenv_files", os.Getenv(EnvDownloadBasePath))
}

func TestLoadDotEnvMissingExplicitFile(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.ServerAddress = "https://h.com"
		cfg.UploadPath = "up.php"
		cfg.DownloadBasePath = "files"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing server", mutate: func(c *Config) { c.ServerAddress = "" }, wantErr: EnvServerAddress},
		{name: "missing upload path", mutate: func(c *Config) { c.UploadPath = "" }, wantErr: EnvUploadPath},
		{name: "missing download path", mutate: func(c *Config) { c.DownloadBasePath = "" }, wantErr: EnvDownloadBasePath},
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.Attempts = 0 }, wantErr: "retry.attempts"},
		{name: "negative delay", mutate: func(c *Config) { c.Retry.Delay = -time.Second }, wantErr: "retry.delay"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvServerAddress)
	assert.Contains(t, err.Error(), EnvUploadPath)
	assert.Contains(t, err.Error(), EnvDownloadBasePath)
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadYAMLInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644))

	_, err := LoadFromFile(configPath)
	assert.Error(t, err)
}

func TestLoadYAMLInvalidDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("retry:\n  delay: later\n"), 0644))

	_, err := LoadFromFile(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.delay")
}
