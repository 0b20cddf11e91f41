package simpleud

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarkwork/simpleud/internal/config"
	"github.com/sugarkwork/simpleud/internal/testutils"
)

// noEnv keeps tests independent of the process environment.
func noEnv(string) (string, bool) { return "", false }

func mapEnv(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// sleepRecorder replaces the inter-attempt wait and records each delay.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delays)
}

func newTestClient(t *testing.T, addr string, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	base := []Option{
		WithServerAddress(addr),
		WithUploadPath(testutils.UploadPath),
		WithDownloadBasePath(testutils.DownloadPath),
		WithLookupEnv(noEnv),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func TestNewMissingConfig(t *testing.T) {
	_, err := New(WithLookupEnv(noEnv))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	require.Len(t, cerr.Missing, 3)

	msg := err.Error()
	for _, env := range []string{EnvServerAddress, EnvUploadPath, EnvDownloadBasePath} {
		assert.Contains(t, msg, env)
	}
}

func TestNewReportsOnlyMissingFields(t *testing.T) {
	_, err := New(
		WithServerAddress("http://localhost"),
		WithLookupEnv(mapEnv(map[string]string{EnvUploadPath: "upload.php"})),
	)

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	require.Len(t, cerr.Missing, 1)
	assert.Equal(t, EnvDownloadBasePath, cerr.Missing[0].Env)
	assert.Equal(t, "WithDownloadBasePath", cerr.Missing[0].Option)
}

func TestNewEnvFallback(t *testing.T) {
	c, err := New(WithLookupEnv(mapEnv(map[string]string{
		EnvServerAddress:    "https://files.example.com",
		EnvUploadPath:       "upload.php",
		EnvDownloadBasePath: "uploaded_files",
	})))
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com", c.ServerAddress())
	assert.Equal(t, "https://files.example.com/upload.php", c.UploadURL())
	assert.Equal(t, "https://files.example.com/uploaded_files/", c.DownloadBaseURL())
}

func TestNewOptionsOverrideEnv(t *testing.T) {
	c, err := New(
		WithServerAddress("http://explicit"),
		WithUploadPath("/u.php"),
		WithDownloadBasePath("/files"),
		WithLookupEnv(mapEnv(map[string]string{
			EnvServerAddress:    "http://env",
			EnvUploadPath:       "env.php",
			EnvDownloadBasePath: "env_files",
		})),
	)
	require.NoError(t, err)

	assert.Equal(t, "http://explicit/u.php", c.UploadURL())
	assert.Equal(t, "http://explicit/files/", c.DownloadBaseURL())
}

func TestNewURLJoining(t *testing.T) {
	servers := []string{"http://host", "http://host/", "http://host//"}
	uploads := []string{"upload.php", "/upload.php", "//upload.php"}
	downloads := []string{"uploaded_files", "/uploaded_files", "uploaded_files/", "/uploaded_files/"}

	for _, s := range servers {
		for _, u := range uploads {
			for _, d := range downloads {
				c, err := New(
					WithServerAddress(s),
					WithUploadPath(u),
					WithDownloadBasePath(d),
					WithLookupEnv(noEnv),
				)
				require.NoError(t, err)
				assert.Equal(t, "http://host/upload.php", c.UploadURL(), "server=%q upload=%q", s, u)
				assert.Equal(t, "http://host/uploaded_files/", c.DownloadBaseURL(), "server=%q download=%q", s, d)
			}
		}
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New(
		WithServerAddress("http://host"),
		WithUploadPath("upload.php"),
		WithDownloadBasePath("files"),
		WithLookupEnv(noEnv),
	)
	require.NoError(t, err)

	assert.True(t, c.InsecureSkipVerify())
	assert.Equal(t, DefaultRetryPolicy(), c.RetryPolicy())
	assert.False(t, c.log.Enabled(context.Background(), slog.LevelError), "silent without WithLogger")

	c, err = New(
		WithServerAddress("http://host"),
		WithUploadPath("upload.php"),
		WithDownloadBasePath("files"),
		WithInsecureSkipVerify(false),
		WithRetryPolicy(RetryPolicy{Attempts: 7, Delay: time.Millisecond}),
		WithLookupEnv(noEnv),
	)
	require.NoError(t, err)
	assert.False(t, c.InsecureSkipVerify())
	assert.Equal(t, 7, c.RetryPolicy().Attempts)
}

func TestFileURL(t *testing.T) {
	c, _ := newTestClient(t, "http://host")

	assert.Equal(t, "http://host/uploaded_files/a.txt", c.FileURL("a.txt"))
	assert.Equal(t, "http://host/uploaded_files/dir/a%20b.txt", c.FileURL("dir/a b.txt"))
	assert.Equal(t, "http://host/uploaded_files/a%2520b.txt", c.FileURL("a%20b.txt"), "names are literal, not pre-escaped")
}

func TestCallOptions(t *testing.T) {
	c, _ := newTestClient(t, "http://host", WithRetryPolicy(RetryPolicy{Attempts: 5, Delay: time.Second}))

	co := c.callOptions(nil)
	assert.Equal(t, 5, co.retry.Attempts)
	assert.Equal(t, time.Second, co.retry.Delay)

	co = c.callOptions([]CallOption{WithRetries(2), WithRetryDelay(0), WithSaveDir("out")})
	assert.Equal(t, 2, co.retry.Attempts)
	assert.Zero(t, co.retry.Delay)
	assert.Equal(t, "out", co.saveDir)

	// Per-call overrides leave the client default untouched.
	assert.Equal(t, 5, c.RetryPolicy().Attempts)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ServerAddress = "https://files.example.com"
	cfg.UploadPath = "upload.php"
	cfg.DownloadBasePath = "uploaded_files"
	cfg.InsecureSkipVerify = false
	cfg.Retry = config.RetryConfig{Attempts: 6, Delay: 250 * time.Millisecond}

	c, err := NewFromConfig(cfg, WithLookupEnv(noEnv))
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com/upload.php", c.UploadURL())
	assert.False(t, c.InsecureSkipVerify())
	assert.Equal(t, RetryPolicy{Attempts: 6, Delay: 250 * time.Millisecond}, c.RetryPolicy())

	_, err = NewFromConfig(config.Default(), WithLookupEnv(noEnv))
	assert.ErrorIs(t, err, ErrConfig)
}
