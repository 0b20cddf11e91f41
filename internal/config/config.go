package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment keys for the three required settings.
const (
	EnvServerAddress    = "UPLOAD_DOWNLOAD_SERVER_ADDRESS"
	EnvUploadPath       = "UPLOAD_PATH"
	EnvDownloadBasePath = "DOWNLOAD_BASE_PATH"
)

// Environment keys for the optional settings.
const (
	EnvRetryAttempts      = "SIMPLEUD_RETRY_ATTEMPTS"
	EnvRetryDelay         = "SIMPLEUD_RETRY_DELAY"
	EnvTimeout            = "SIMPLEUD_TIMEOUT"
	EnvInsecureSkipVerify = "SIMPLEUD_INSECURE_SKIP_VERIFY"
	EnvConcurrency        = "SIMPLEUD_CONCURRENCY"
	EnvProgress           = "SIMPLEUD_PROGRESS"
	EnvLogLevel           = "SIMPLEUD_LOG_LEVEL"
)

// Config defines configuration for the simpleud client and CLI.
type Config struct {
	ServerAddress      string        `yaml:"server_address"`
	UploadPath         string        `yaml:"upload_path"`
	DownloadBasePath   string        `yaml:"download_base_path"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout"`
	Concurrency        int           `yaml:"concurrency"`
	Progress           bool          `yaml:"progress"`
	LogLevel           string        `yaml:"log_level"`
	Retry              RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		InsecureSkipVerify: true,
		Concurrency:        4,
		LogLevel:           "info",
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and an
// optional insecure flag, so an absent key keeps the default.
type yamlConfig struct {
	ServerAddress      string          `yaml:"server_address"`
	UploadPath         string          `yaml:"upload_path"`
	DownloadBasePath   string          `yaml:"download_base_path"`
	InsecureSkipVerify *bool           `yaml:"insecure_skip_verify"`
	Timeout            string          `yaml:"timeout"`
	Concurrency        int             `yaml:"concurrency"`
	Progress           bool            `yaml:"progress"`
	LogLevel           string          `yaml:"log_level"`
	Retry              yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Delay    string `yaml:"delay"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.ServerAddress != "" {
		cfg.ServerAddress = yc.ServerAddress
	}
	if yc.UploadPath != "" {
		cfg.UploadPath = yc.UploadPath
	}
	if yc.DownloadBasePath != "" {
		cfg.DownloadBasePath = yc.DownloadBasePath
	}
	if yc.InsecureSkipVerify != nil {
		cfg.InsecureSkipVerify = *yc.InsecureSkipVerify
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	cfg.Progress = yc.Progress
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Delay != "" {
		d, err := time.ParseDuration(yc.Retry.Delay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.delay: %w", err)
		}
		cfg.Retry.Delay = d
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. With no
// arguments it reads ".env" in the working directory. A missing default
// file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	return c.LoadFromLookup(os.LookupEnv)
}

// LoadFromLookup loads configuration using lookup as the environment source.
func (c *Config) LoadFromLookup(lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	if v := get(EnvServerAddress); v != "" {
		c.ServerAddress = v
	}
	if v := get(EnvUploadPath); v != "" {
		c.UploadPath = v
	}
	if v := get(EnvDownloadBasePath); v != "" {
		c.DownloadBasePath = v
	}
	if v := get(EnvRetryAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRetryAttempts, err)
		}
		c.Retry.Attempts = n
	}
	if v := get(EnvRetryDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRetryDelay, err)
		}
		c.Retry.Delay = d
	}
	if v := get(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := get(EnvInsecureSkipVerify); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvInsecureSkipVerify, err)
		}
		c.InsecureSkipVerify = b
	}
	if v := get(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	if v := get(EnvProgress); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvProgress, err)
		}
		c.Progress = b
	}
	if v := get(EnvLogLevel); v != "" {
		c.LogLevel = v
	}

	return nil
}

// Validate validates the configuration. Missing endpoint settings are all
// reported together.
func (c *Config) Validate() error {
	var missing []string
	if c.ServerAddress == "" {
		missing = append(missing, "server_address ("+EnvServerAddress+")")
	}
	if c.UploadPath == "" {
		missing = append(missing, "upload_path ("+EnvUploadPath+")")
	}
	if c.DownloadBasePath == "" {
		missing = append(missing, "download_base_path ("+EnvDownloadBasePath+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	if c.Retry.Delay < 0 {
		return errors.New("config: retry.delay must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	return nil
}
