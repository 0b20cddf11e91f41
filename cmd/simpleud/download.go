package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/sugarkwork/simpleud/internal/progress"
	"github.com/sugarkwork/simpleud/pkg/simpleud"
)

// runDownload downloads each NAME argument from the download base URL.
func runDownload(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cf commonFlags
	cf.register(fs)
	output := fs.String("output", "", "Output file path (only with a single NAME)")
	dir := fs.String("dir", "", "Directory to save files into (default: working directory)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: simpleud download [options] NAME...

Download files from the server's download directory. Files are saved under
their remote name unless -output or -dir is given. HTTP 404 is not retried.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	names := fs.Args()
	if len(names) == 0 {
		fmt.Fprintln(stderr, "Error: at least one NAME is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	if *output != "" && len(names) > 1 {
		fmt.Fprintln(stderr, "Error: -output can only be used with a single NAME")
		return ExitInvalidArgs
	}

	client, cleanup, code := cf.setup(fs, stderr)
	if code != ExitSuccess {
		return code
	}
	defer cleanup()

	ctx, cancel := signalContext(stderr)
	defer cancel()

	var opts []simpleud.CallOption
	if *output != "" {
		opts = append(opts, simpleud.WithSavePath(*output))
	}
	if *dir != "" {
		opts = append(opts, simpleud.WithSaveDir(*dir))
	}

	var (
		results []*simpleud.Result
		err     error
	)
	if len(names) == 1 {
		var res *simpleud.Result
		res, err = client.Download(ctx, names[0], opts...)
		results = []*simpleud.Result{res}
	} else {
		results, err = client.DownloadAll(ctx, names, opts...)
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		if res.OK {
			fmt.Fprintf(stdout, "downloaded %s to %s (%s, %d attempt(s))\n",
				res.Name, res.Path, progress.FormatBytes(res.Bytes), res.Attempts)
		} else {
			fmt.Fprintf(stderr, "Error: download %s failed after %d attempt(s): %v\n",
				res.Name, res.Attempts, res.Err)
		}
	}

	if err != nil && ctx.Err() != nil {
		fmt.Fprintln(stderr, "[simpleud] Download interrupted")
	}
	return exitCode(err)
}
