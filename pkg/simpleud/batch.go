package simpleud

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	udhttp "github.com/sugarkwork/simpleud/internal/http"
)

// UploadAll uploads every path concurrently, at most WithConcurrency at a
// time, each with its own session. Results follow the order of paths. The
// error joins every failed upload; one failure does not stop the others.
func (c *Client) UploadAll(ctx context.Context, paths []string, opts ...CallOption) ([]*Result, error) {
	opts = append(opts[:len(opts):len(opts)], inBatch)
	return c.runAll(ctx, paths, func(ctx context.Context, hc *udhttp.Client, p string) (*Result, error) {
		return c.upload(ctx, hc, p, opts...)
	})
}

// DownloadAll downloads every name concurrently like UploadAll. Use
// WithSaveDir to choose the destination directory; WithSavePath is
// rejected when more than one name is given.
//
// With WithProgress, batch transfers print only a start and a final line per
// file; the periodic progress line is left out because the files share one
// writer.
func (c *Client) DownloadAll(ctx context.Context, names []string, opts ...CallOption) ([]*Result, error) {
	if len(names) > 1 && c.callOptions(opts).savePath != "" {
		return nil, fmt.Errorf("simpleud: WithSavePath cannot be used with %d files", len(names))
	}
	opts = append(opts[:len(opts):len(opts)], inBatch)
	return c.runAll(ctx, names, func(ctx context.Context, hc *udhttp.Client, n string) (*Result, error) {
		return c.download(ctx, hc, n, opts...)
	})
}

func inBatch(o *callOptions) { o.batch = true }

func (c *Client) runAll(ctx context.Context, items []string, fn func(context.Context, *udhttp.Client, string) (*Result, error)) ([]*Result, error) {
	results := make([]*Result, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, item := range items {
		g.Go(func() error {
			session := c.newSession()
			defer session.CloseIdleConnections()

			results[i], errs[i] = fn(ctx, session, item)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
