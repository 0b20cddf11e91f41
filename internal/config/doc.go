// Package config defines configuration structures for the simpleud CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (UPLOAD_DOWNLOAD_SERVER_ADDRESS, UPLOAD_PATH,
//     DOWNLOAD_BASE_PATH and the SIMPLEUD_ prefix for the rest)
//   - A .env file loaded into the environment
//   - YAML configuration file
//
// # Structure
//
//	type Config struct {
//	    ServerAddress      string
//	    UploadPath         string
//	    DownloadBasePath   string
//	    InsecureSkipVerify bool
//	    Timeout            time.Duration
//	    Concurrency        int
//	    Progress           bool
//	    LogLevel           string
//	    Retry              RetryConfig
//	}
//
//	type RetryConfig struct {
//	    Attempts int
//	    Delay    time.Duration
//	}
package config
