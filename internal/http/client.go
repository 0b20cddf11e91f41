package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID carries the per-attempt request identifier.
const HeaderRequestID = "X-Request-ID"

// maxStatusText caps how much of an error response body is kept for logs.
const maxStatusText = 512

// Common errors.
var (
	ErrNotFound         = errors.New("http: resource not found")
	ErrUnexpectedStatus = errors.New("http: unexpected status")
)

// StatusError is returned for any response whose status is not 200 OK.
// It unwraps to ErrNotFound for 404 and to ErrUnexpectedStatus otherwise.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("status %d %s: %s", e.Code, http.StatusText(e.Code), e.Text)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrUnexpectedStatus
}

// Options configures the HTTP client.
type Options struct {
	// InsecureSkipVerify disables TLS certificate verification. The upload
	// servers this tool targets commonly run with self-signed certificates.
	// Default: true
	InsecureSkipVerify bool

	// Timeout for individual requests, including reading the body.
	// Zero means no timeout.
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Transport replaces the built transport. Used by tests.
	Transport http.RoundTripper
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		InsecureSkipVerify:  true,
		MaxIdleConnsPerHost: 16,
	}
}

// Response is a successful (200 OK) response whose body the caller must close.
type Response struct {
	Body          io.ReadCloser
	ContentLength int64
}

// Client issues single upload and download requests. It never retries;
// retry policy belongs to the caller.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = DefaultOptions().MaxIdleConnsPerHost
	}

	rt := opts.Transport
	if rt == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
		tr.MaxIdleConns = opts.MaxIdleConnsPerHost * 2
		tr.IdleConnTimeout = 90 * time.Second
		tr.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // explicit, documented option
		}
		rt = tr
	}

	return &Client{
		client: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// InsecureSkipVerify reports whether certificate verification is disabled.
func (c *Client) InsecureSkipVerify() bool {
	return c.opts.InsecureSkipVerify
}

// CloseIdleConnections releases pooled connections held by the client.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// PostFile sends content as a single multipart form file field. size is the
// exact content length, or -1 when unknown (the body is then sent chunked).
// It returns the response text on 200 OK.
func (c *Client) PostFile(ctx context.Context, url, field, filename string, content io.Reader, size int64) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile(field, filename); err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	head := append([]byte(nil), buf.Bytes()...)
	buf.Reset()
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}
	tail := append([]byte(nil), buf.Bytes()...)

	body := io.MultiReader(bytes.NewReader(head), content, bytes.NewReader(tail))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if size >= 0 {
		req.ContentLength = int64(len(head)) + size + int64(len(tail))
	} else {
		req.ContentLength = -1
	}
	c.setHeaders(ctx, req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text := readText(resp.Body)
	if err := checkStatusCode(resp.StatusCode, text); err != nil {
		return "", err
	}
	return text, nil
}

// Get performs a GET request. On 200 OK the open body is returned; every
// other status is drained, closed and reported as a *StatusError.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(ctx, req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		text := readText(resp.Body)
		resp.Body.Close()
		return nil, checkStatusCode(resp.StatusCode, text)
	}

	return &Response{
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
	}, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	id, ok := RequestIDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, id)
}

// checkStatusCode returns nil only for 200 OK. Other 2xx codes are not success.
func checkStatusCode(code int, text string) error {
	if code == http.StatusOK {
		return nil
	}
	return &StatusError{Code: code, Text: text}
}

// readText reads up to maxStatusText bytes of a body as trimmed text and
// discards a bounded remainder so the connection can be reused.
func readText(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxStatusText))
	_, _ = io.CopyN(io.Discard, r, 64<<10)
	return strings.TrimSpace(string(data))
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that outgoing requests carry in the
// X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached with WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
