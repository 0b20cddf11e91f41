package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sugarkwork/simpleud/pkg/simpleud"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitConfigError      = 3
	ExitNotFound         = 4
	ExitRetriesExhausted = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "upload":
		return runUpload(cmdArgs, stdout, stderr)
	case "download":
		return runDownload(cmdArgs, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stderr)
		return ExitSuccess
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, "simpleud", simpleud.Version)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return ExitInvalidArgs
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: simpleud <command> [options] ARGS...

Commands:
  upload    Upload local files to the server's upload endpoint
  download  Download files by name from the server's download directory
  version   Print the version

Settings are read from -config (YAML), then .env, then the environment
(UPLOAD_DOWNLOAD_SERVER_ADDRESS, UPLOAD_PATH, DOWNLOAD_BASE_PATH, SIMPLEUD_*),
then command-line flags.

Run 'simpleud <command> -h' for command-specific help.`)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(stderr io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\n[simpleud] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// exitCode maps a transfer error to a process exit code. For joined batch
// errors the most specific cause wins.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, simpleud.ErrConfig):
		return ExitConfigError
	case errors.Is(err, simpleud.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, simpleud.ErrRetriesExhausted):
		return ExitRetriesExhausted
	default:
		return ExitGeneralError
	}
}
