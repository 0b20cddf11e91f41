package simpleud

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	udhttp "github.com/sugarkwork/simpleud/internal/http"
	"github.com/sugarkwork/simpleud/internal/progress"
)

// Upload sends the file at filePath to the upload URL as the multipart
// field "uploaded_file", named after its base name. It blocks until the
// transfer succeeds (HTTP 200), the server answers 404, the retry policy
// runs out, or ctx ends. The returned Result is never nil.
func (c *Client) Upload(ctx context.Context, filePath string, opts ...CallOption) (*Result, error) {
	return c.upload(ctx, c.http, filePath, opts...)
}

// UploadAsync starts Upload on its own goroutine with a dedicated HTTP
// session and returns at once. The channel yields one Outcome and closes.
func (c *Client) UploadAsync(ctx context.Context, filePath string, opts ...CallOption) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		session := c.newSession()
		defer session.CloseIdleConnections()

		res, err := c.upload(ctx, session, filePath, opts...)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

func (c *Client) upload(ctx context.Context, hc *udhttp.Client, filePath string, opts ...CallOption) (*Result, error) {
	co := c.callOptions(opts)
	name := filepath.Base(filePath)
	res := &Result{Op: OpUpload, Name: name, URL: c.uploadURL, Path: filePath}
	log := c.log.With(slog.String("op", string(OpUpload)), slog.String("file", name))

	var rep *progress.Reporter
	if c.progress != nil {
		size := int64(-1)
		if info, err := os.Stat(filePath); err == nil && info.Mode().IsRegular() {
			size = info.Size()
		}
		rep = c.newReporter(co, "Uploading", name, size)
		defer rep.Stop()
	}

	start := time.Now()
	lr := c.retryLoop(ctx, log, co.retry, func(ctx context.Context, attempt int) (int, error) {
		if rep != nil {
			rep.AttemptStarted()
		}
		status, err := c.uploadOnce(ctx, hc, filePath, name, rep, res)
		if err != nil && rep != nil {
			rep.AttemptFailed()
		}
		return status, err
	})

	res.Duration = time.Since(start)
	res.Attempts = lr.attempts
	res.StatusCode = lr.status

	if lr.err != nil {
		res.Err = lr.err
		if rep != nil {
			rep.Fail()
		}
		log.ErrorContext(ctx, "upload failed", slog.Int("attempts", lr.attempts), slog.Any("error", lr.err))
		return res, fmt.Errorf("upload %s: %w", name, lr.err)
	}

	res.OK = true
	log.InfoContext(ctx, "upload successful",
		slog.Int("attempts", lr.attempts),
		slog.Int64("bytes", res.Bytes),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// uploadOnce performs one attempt. The file is opened and closed within it.
func (c *Client) uploadOnce(ctx context.Context, hc *udhttp.Client, filePath, name string, rep *progress.Reporter, res *Result) (int, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("open file: %s is a directory", filePath)
	}
	size := int64(-1)
	if info.Mode().IsRegular() {
		size = info.Size()
	}

	var body io.Reader = f
	if rep != nil {
		body = rep.Reader(body)
	}
	cr := &countingReader{r: body}

	text, err := hc.PostFile(ctx, c.uploadURL, FormField, name, cr, size)
	if err != nil {
		return statusOf(err), err
	}

	res.Bytes = cr.n
	res.Message = text
	return http.StatusOK, nil
}
