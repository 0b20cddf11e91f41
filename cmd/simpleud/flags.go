package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sugarkwork/simpleud/internal/config"
	"github.com/sugarkwork/simpleud/internal/logging"
	"github.com/sugarkwork/simpleud/pkg/simpleud"
)

// commonFlags are shared by upload and download.
type commonFlags struct {
	configFile   string
	server       string
	uploadPath   string
	downloadPath string
	retries      int
	retryDelay   time.Duration
	timeout      time.Duration
	concurrency  int
	progress     bool
	insecure     bool
	logLevel     string
	logFile      string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configFile, "config", "", "YAML config file")
	fs.StringVar(&f.server, "server", "", "Server address, e.g. https://host ("+config.EnvServerAddress+")")
	fs.StringVar(&f.uploadPath, "upload-path", "", "Upload endpoint path ("+config.EnvUploadPath+")")
	fs.StringVar(&f.downloadPath, "download-path", "", "Download base path ("+config.EnvDownloadBasePath+")")
	fs.IntVar(&f.retries, "retries", simpleud.DefaultRetryAttempts, "Total attempts per file")
	fs.DurationVar(&f.retryDelay, "retry-delay", simpleud.DefaultRetryDelay, "Delay between attempts")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-request timeout (0 = none)")
	fs.IntVar(&f.concurrency, "concurrency", simpleud.DefaultConcurrency, "Files transferred in parallel")
	fs.BoolVar(&f.progress, "progress", false, "Show progress output")
	fs.BoolVar(&f.insecure, "insecure", true, "Skip TLS certificate verification")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this rotated file")
}

// loadConfig builds the effective configuration:
// defaults < YAML file < .env < environment < flags set on the command line.
func (f *commonFlags) loadConfig(fs *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(f.configFile); err != nil {
			return cfg, err
		}
	}

	if err := config.LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return cfg, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "server":
			cfg.ServerAddress = f.server
		case "upload-path":
			cfg.UploadPath = f.uploadPath
		case "download-path":
			cfg.DownloadBasePath = f.downloadPath
		case "retries":
			cfg.Retry.Attempts = f.retries
		case "retry-delay":
			cfg.Retry.Delay = f.retryDelay
		case "timeout":
			cfg.Timeout = f.timeout
		case "concurrency":
			cfg.Concurrency = f.concurrency
		case "progress":
			cfg.Progress = f.progress
		case "insecure":
			cfg.InsecureSkipVerify = f.insecure
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})

	return cfg, cfg.Validate()
}

// setup resolves configuration, logger and client for a subcommand. On
// failure it reports to stderr and returns a non-zero exit code.
func (f *commonFlags) setup(fs *flag.FlagSet, stderr io.Writer) (*simpleud.Client, func(), int) {
	cfg, err := f.loadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return nil, nil, ExitConfigError
	}

	log, closeLog := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    f.logFile,
		Output:  stderr,
		NoColor: stderr != os.Stderr,
	})

	opts := []simpleud.Option{simpleud.WithLogger(log)}
	if cfg.Progress {
		opts = append(opts, simpleud.WithProgress(stderr))
	}

	client, err := simpleud.NewFromConfig(cfg, opts...)
	if err != nil {
		closeLog()
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return nil, nil, exitCode(err)
	}

	log.Debug("configuration loaded",
		slog.String("config_file", f.configFile),
		slog.String("server", client.ServerAddress()),
	)

	cleanup := func() {
		client.Close()
		closeLog()
	}
	return client, cleanup, ExitSuccess
}
