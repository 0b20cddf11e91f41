package simpleud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	udhttp "github.com/sugarkwork/simpleud/internal/http"
	"github.com/sugarkwork/simpleud/internal/progress"
)

// ErrEmptyName is returned by Download when no remote file name is given.
var ErrEmptyName = errors.New("simpleud: empty file name")

// Download fetches name from the download base URL and writes it to the
// save path (the remote name unless WithSavePath or WithSaveDir is given).
// It blocks until the transfer succeeds (HTTP 200), the server answers 404,
// the retry policy runs out, or ctx ends. The returned Result is never nil.
func (c *Client) Download(ctx context.Context, name string, opts ...CallOption) (*Result, error) {
	return c.download(ctx, c.http, name, opts...)
}

// DownloadAsync starts Download on its own goroutine with a dedicated HTTP
// session and returns at once. The channel yields one Outcome and closes.
func (c *Client) DownloadAsync(ctx context.Context, name string, opts ...CallOption) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		session := c.newSession()
		defer session.CloseIdleConnections()

		res, err := c.download(ctx, session, name, opts...)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

// FileURL returns the URL Download fetches for name.
func (c *Client) FileURL(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.downloadBaseURL + strings.Join(segments, "/")
}

func (c *Client) download(ctx context.Context, hc *udhttp.Client, name string, opts ...CallOption) (*Result, error) {
	co := c.callOptions(opts)
	savePath := co.savePath
	if savePath == "" {
		savePath = filepath.FromSlash(name)
		if co.saveDir != "" {
			savePath = filepath.Join(co.saveDir, savePath)
		}
	}

	res := &Result{Op: OpDownload, Name: name, URL: c.FileURL(name), Path: savePath}
	if name == "" {
		res.Err = ErrEmptyName
		return res, ErrEmptyName
	}
	log := c.log.With(slog.String("op", string(OpDownload)), slog.String("file", name))

	rep := c.newReporter(co, "Downloading", name, -1)
	if rep != nil {
		defer rep.Stop()
	}

	start := time.Now()
	lr := c.retryLoop(ctx, log, co.retry, func(ctx context.Context, attempt int) (int, error) {
		if rep != nil {
			rep.AttemptStarted()
		}
		status, err := c.downloadOnce(ctx, hc, res.URL, savePath, rep, res)
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
		log.ErrorContext(ctx, "download failed", slog.Int("attempts", lr.attempts), slog.Any("error", lr.err))
		return res, fmt.Errorf("download %s: %w", name, lr.err)
	}

	res.OK = true
	log.InfoContext(ctx, "download successful",
		slog.String("path", savePath),
		slog.Int("attempts", lr.attempts),
		slog.Int64("bytes", res.Bytes),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// downloadOnce performs one attempt. A local write failure after a 200
// response is a transient fault like any transport error.
func (c *Client) downloadOnce(ctx context.Context, hc *udhttp.Client, fileURL, savePath string, rep *progress.Reporter, res *Result) (int, error) {
	resp, err := hc.Get(ctx, fileURL)
	if err != nil {
		return statusOf(err), err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if rep != nil {
		rep.SetTotal(resp.ContentLength)
		body = rep.Reader(body)
	}

	n, err := writeFile(savePath, body)
	if err != nil {
		return http.StatusOK, fmt.Errorf("save %s: %w", savePath, err)
	}

	res.Bytes = n
	return http.StatusOK, nil
}

// writeFile streams r into a temporary file next to path and renames it
// into place, so path never holds a partial download.
func writeFile(path string, r io.Reader) (int64, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.part")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return n, err
	}
	return n, nil
}
