package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/sugarkwork/simpleud/internal/progress"
	"github.com/sugarkwork/simpleud/pkg/simpleud"
)

// runUpload uploads each FILE argument to the configured upload endpoint.
func runUpload(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cf commonFlags
	cf.register(fs)

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: simpleud upload [options] FILE...

Upload files as multipart form field "uploaded_file". Each file is retried
a fixed number of times with a fixed delay; HTTP 404 is not retried.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(stderr, "Error: at least one FILE is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	client, cleanup, code := cf.setup(fs, stderr)
	if code != ExitSuccess {
		return code
	}
	defer cleanup()

	ctx, cancel := signalContext(stderr)
	defer cancel()

	var (
		results []*simpleud.Result
		err     error
	)
	if len(files) == 1 {
		var res *simpleud.Result
		res, err = client.Upload(ctx, files[0])
		results = []*simpleud.Result{res}
	} else {
		results, err = client.UploadAll(ctx, files)
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		if res.OK {
			fmt.Fprintf(stdout, "uploaded %s (%s, %d attempt(s)): %s\n",
				res.Name, progress.FormatBytes(res.Bytes), res.Attempts, res.Message)
		} else {
			fmt.Fprintf(stderr, "Error: upload %s failed after %d attempt(s): %v\n",
				res.Name, res.Attempts, res.Err)
		}
	}

	if err != nil && ctx.Err() != nil {
		fmt.Fprintln(stderr, "[simpleud] Upload interrupted")
	}
	return exitCode(err)
}
