package testutils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// Default endpoints served by StubServer.
const (
	UploadPath   = "/upload.php"
	DownloadPath = "/uploaded_files/"
	FormField    = "uploaded_file"
)

// StubServer mimics a minimal PHP upload endpoint: POST UploadPath stores
// the multipart field FormField under DownloadPath, and GET DownloadPath<name>
// serves it back. Files live in a gocloud bucket.
type StubServer struct {
	*httptest.Server

	bucket *blob.Bucket

	mu       sync.Mutex
	failures []int // status codes returned before normal handling

	uploads   atomic.Int64
	downloads atomic.Int64
}

// StubOption configures a StubServer.
type StubOption func(*stubConfig)

type stubConfig struct {
	dir string
	tls bool
}

// WithFileStore keeps uploaded files in dir instead of memory.
func WithFileStore(dir string) StubOption {
	return func(c *stubConfig) { c.dir = dir }
}

// WithTLS serves over HTTPS with a self-signed certificate.
func WithTLS() StubOption {
	return func(c *stubConfig) { c.tls = true }
}

// StartStubServer starts a StubServer and closes it on test cleanup.
func StartStubServer(t *testing.T, opts ...StubOption) *StubServer {
	t.Helper()

	var cfg stubConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var bucket *blob.Bucket
	if cfg.dir != "" {
		var err error
		bucket, err = fileblob.OpenBucket(cfg.dir, &fileblob.Options{CreateDir: true})
		if err != nil {
			t.Fatalf("open file bucket: %v", err)
		}
	} else {
		bucket = memblob.OpenBucket(nil)
	}

	s := &StubServer{bucket: bucket}
	if cfg.tls {
		s.Server = httptest.NewTLSServer(s)
	} else {
		s.Server = httptest.NewServer(s)
	}

	t.Cleanup(func() {
		s.Close()
		bucket.Close()
	})
	return s
}

// FailNext makes the next n requests answer with code.
func (s *StubServer) FailNext(n, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures = append(s.failures, code)
	}
}

// Uploads returns the number of POST requests received.
func (s *StubServer) Uploads() int { return int(s.uploads.Load()) }

// Downloads returns the number of GET requests received.
func (s *StubServer) Downloads() int { return int(s.downloads.Load()) }

func (s *StubServer) nextFailure() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return 0, false
	}
	code := s.failures[0]
	s.failures = s.failures[1:]
	return code, true
}

func (s *StubServer) key(name string) string {
	return strings.TrimPrefix(DownloadPath, "/") + name
}

func (s *StubServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == UploadPath:
		s.uploads.Add(1)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, DownloadPath):
		s.downloads.Add(1)
	default:
		http.NotFound(w, r)
		return
	}

	if code, ok := s.nextFailure(); ok {
		http.Error(w, http.StatusText(code), code)
		return
	}

	if r.Method == http.MethodPost {
		s.handleUpload(w, r)
		return
	}
	s.handleDownload(w, r)
}

func (s *StubServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile(FormField)
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer f.Close()

	name := path.Base(hdr.Filename)
	bw, err := s.bucket.NewWriter(r.Context(), s.key(name), nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(bw, f); err != nil {
		bw.Close()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := bw.Close(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "The file %s has been uploaded.", name)
}

func (s *StubServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, DownloadPath)
	br, err := s.bucket.NewReader(r.Context(), s.key(name), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer br.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(br.Size(), 10))
	io.Copy(w, br)
}
