package simpleud

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sugarkwork/simpleud/internal/config"
	udhttp "github.com/sugarkwork/simpleud/internal/http"
	"github.com/sugarkwork/simpleud/internal/logging"
	"github.com/sugarkwork/simpleud/internal/progress"
)

// Version is sent in the User-Agent header.
const Version = "0.1.0"

// FormField is the multipart field name carrying uploaded file content.
const FormField = "uploaded_file"

// Environment variables consulted when a required option is omitted.
const (
	EnvServerAddress    = "UPLOAD_DOWNLOAD_SERVER_ADDRESS"
	EnvUploadPath       = "UPLOAD_PATH"
	EnvDownloadBasePath = "DOWNLOAD_BASE_PATH"
)

// DefaultConcurrency bounds in-flight transfers in UploadAll and DownloadAll.
const DefaultConcurrency = 4

// Client uploads files to and downloads files from one server. Its
// configuration is fixed at construction and safe for concurrent use.
type Client struct {
	serverAddress   string
	uploadURL       string
	downloadBaseURL string

	retry       RetryPolicy
	httpOpts    udhttp.Options
	http        *udhttp.Client
	log         *slog.Logger
	progress    io.Writer
	concurrency int

	sleep func(context.Context, time.Duration) error
}

type options struct {
	serverAddress    string
	uploadPath       string
	downloadBasePath string
	retry            RetryPolicy
	insecure         bool
	timeout          time.Duration
	logger           *slog.Logger
	transport        http.RoundTripper
	progress         io.Writer
	concurrency      int
	lookupEnv        func(string) (string, bool)
}

// Option configures a Client.
type Option func(*options)

// WithServerAddress sets the base URL of the server, e.g. "https://host".
func WithServerAddress(addr string) Option {
	return func(o *options) { o.serverAddress = addr }
}

// WithUploadPath sets the path of the upload endpoint relative to the server.
func WithUploadPath(p string) Option {
	return func(o *options) { o.uploadPath = p }
}

// WithDownloadBasePath sets the directory files are downloaded from.
func WithDownloadBasePath(p string) Option {
	return func(o *options) { o.downloadBasePath = p }
}

// WithRetryPolicy sets the default retry policy for every call.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithInsecureSkipVerify controls TLS certificate verification. It defaults
// to true: certificates are NOT verified unless this is set to false.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *options) { o.insecure = skip }
}

// WithTimeout bounds each individual request. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger. Failed attempts are logged at warn level,
// final failures at error level and successes at info level. The default
// logger discards everything, so without this option failures are only
// visible through the returned error and Result.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTransport replaces the HTTP transport used by every session.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithProgress enables progress output for every transfer.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithConcurrency bounds in-flight transfers for UploadAll and DownloadAll.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLookupEnv replaces os.LookupEnv as the fallback configuration source.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		if lookup != nil {
			o.lookupEnv = lookup
		}
	}
}

// New creates a Client. Server address, upload path and download base path
// fall back to UPLOAD_DOWNLOAD_SERVER_ADDRESS, UPLOAD_PATH and
// DOWNLOAD_BASE_PATH; if any of them is still empty New returns a
// *ConfigError listing all missing settings. New makes no network calls.
func New(opts ...Option) (*Client, error) {
	o := options{
		retry:       DefaultRetryPolicy(),
		insecure:    true,
		logger:      logging.Discard(),
		concurrency: DefaultConcurrency,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(&o)
	}

	resolve := func(v, env string) string {
		if v != "" {
			return v
		}
		ev, _ := o.lookupEnv(env)
		return ev
	}

	server := resolve(o.serverAddress, EnvServerAddress)
	uploadPath := resolve(o.uploadPath, EnvUploadPath)
	downloadPath := resolve(o.downloadBasePath, EnvDownloadBasePath)

	var missing []MissingField
	if server == "" {
		missing = append(missing, MissingField{Name: "server address", Option: "WithServerAddress", Env: EnvServerAddress})
	}
	if uploadPath == "" {
		missing = append(missing, MissingField{Name: "upload path", Option: "WithUploadPath", Env: EnvUploadPath})
	}
	if downloadPath == "" {
		missing = append(missing, MissingField{Name: "download base path", Option: "WithDownloadBasePath", Env: EnvDownloadBasePath})
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing}
	}

	server = strings.TrimRight(server, "/")

	httpOpts := udhttp.DefaultOptions()
	httpOpts.InsecureSkipVerify = o.insecure
	httpOpts.Timeout = o.timeout
	httpOpts.UserAgent = "simpleud/" + Version
	httpOpts.Transport = o.transport

	c := &Client{
		serverAddress:   server,
		uploadURL:       server + "/" + strings.TrimLeft(uploadPath, "/"),
		downloadBaseURL: server + "/" + strings.Trim(downloadPath, "/") + "/",
		retry:           o.retry,
		httpOpts:        httpOpts,
		http:            udhttp.NewClient(httpOpts),
		log:             o.logger,
		progress:        o.progress,
		concurrency:     o.concurrency,
		sleep:           sleepContext,
	}

	c.log.Debug("client configured",
		slog.String("upload_url", c.uploadURL),
		slog.String("download_base_url", c.downloadBaseURL),
		slog.Bool("insecure_skip_verify", httpOpts.InsecureSkipVerify),
		slog.Int("retry_attempts", c.retry.attempts()),
		slog.Duration("retry_delay", c.retry.Delay),
	)

	return c, nil
}

// NewFromConfig creates a Client from a loaded configuration. Options in
// opts are applied after the configured values and take precedence.
func NewFromConfig(cfg config.Config, opts ...Option) (*Client, error) {
	base := []Option{
		WithServerAddress(cfg.ServerAddress),
		WithUploadPath(cfg.UploadPath),
		WithDownloadBasePath(cfg.DownloadBasePath),
		WithRetryPolicy(RetryPolicy{Attempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay}),
		WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		WithTimeout(cfg.Timeout),
		WithConcurrency(cfg.Concurrency),
	}
	return New(append(base, opts...)...)
}

// ServerAddress returns the base URL without trailing slash.
func (c *Client) ServerAddress() string { return c.serverAddress }

// UploadURL returns the resolved upload endpoint.
func (c *Client) UploadURL() string { return c.uploadURL }

// DownloadBaseURL returns the resolved download directory, ending in "/".
func (c *Client) DownloadBaseURL() string { return c.downloadBaseURL }

// RetryPolicy returns the default retry policy.
func (c *Client) RetryPolicy() RetryPolicy { return c.retry }

// InsecureSkipVerify reports whether TLS certificates go unverified.
func (c *Client) InsecureSkipVerify() bool { return c.http.InsecureSkipVerify() }

// Close releases idle connections held by the blocking-mode session.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// newSession creates the HTTP session owned by one concurrent call.
func (c *Client) newSession() *udhttp.Client {
	return udhttp.NewClient(c.httpOpts)
}

// CallOption adjusts a single Upload or Download call.
type CallOption func(*callOptions)

type callOptions struct {
	retry    RetryPolicy
	savePath string
	saveDir  string
	batch    bool // several transfers share the progress writer
}

// WithRetries overrides the number of attempts for one call.
func WithRetries(n int) CallOption {
	return func(o *callOptions) { o.retry.Attempts = n }
}

// WithRetryDelay overrides the delay between attempts for one call.
func WithRetryDelay(d time.Duration) CallOption {
	return func(o *callOptions) { o.retry.Delay = d }
}

// WithSavePath sets where Download writes the file. The default is the
// remote file name, relative to the working directory.
func WithSavePath(p string) CallOption {
	return func(o *callOptions) { o.savePath = p }
}

// WithSaveDir makes Download write into dir, keeping the remote name.
// WithSavePath takes precedence.
func WithSaveDir(dir string) CallOption {
	return func(o *callOptions) { o.saveDir = dir }
}

func (c *Client) callOptions(opts []CallOption) callOptions {
	co := callOptions{retry: c.retry}
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

// newReporter starts a progress reporter for one transfer, or returns nil
// when progress output is off. Batch transfers share one writer, so they
// print only their start and final lines.
func (c *Client) newReporter(co callOptions, label, name string, total int64) *progress.Reporter {
	if c.progress == nil {
		return nil
	}
	opts := progress.Options{
		Label:     label,
		Name:      name,
		TotalSize: total,
		Output:    c.progress,
	}
	if co.batch {
		opts.UpdateInterval = -1
	}
	rep := progress.NewReporter(opts)
	rep.Start()
	return rep
}
