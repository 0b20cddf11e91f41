// Package testutils provides shared test infrastructure: an in-process
// upload/download server and test data helpers.
package testutils

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// GenerateTestData generates test data of the given size.
// For sizes up to 10MB a deterministic pattern is used, random data beyond.
func GenerateTestData(t *testing.T, size int64) []byte {
	t.Helper()
	data := make([]byte, size)
	if size <= 10*1024*1024 {
		for i := range data {
			data[i] = byte(i % 256)
		}
	} else {
		if _, err := rand.Read(data); err != nil {
			t.Fatalf("generate random data: %v", err)
		}
	}
	return data
}

// WriteTestFile writes data to name inside a fresh temp directory and
// returns the full path.
func WriteTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return p
}

// CompareFileToData compares the file at path with expected in chunks.
func CompareFileToData(t *testing.T, path string, expected []byte) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	CompareReaderToData(t, f, expected)
}

// CompareReaderToData compares reader output with expected data in chunks.
func CompareReaderToData(t *testing.T, reader io.Reader, expected []byte) {
	t.Helper()

	buf := make([]byte, 1024*1024)
	offset := 0

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if offset+n > len(expected) {
				t.Fatalf("read more data than expected: offset=%d, n=%d, expected len=%d",
					offset, n, len(expected))
			}
			if !bytes.Equal(buf[:n], expected[offset:offset+n]) {
				t.Fatalf("data mismatch at offset %d", offset)
			}
			offset += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read error at offset %d: %v", offset, err)
		}
	}

	if offset != len(expected) {
		t.Fatalf("incomplete read: got %d bytes, want %d", offset, len(expected))
	}
}

// Seed stores data under name in the server's download directory.
func (s *StubServer) Seed(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := s.bucket.WriteAll(context.Background(), s.key(name), data, nil); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
}

// Stored returns the content saved under name, or false if absent.
func (s *StubServer) Stored(t *testing.T, name string) ([]byte, bool) {
	t.Helper()
	ctx := context.Background()
	ok, err := s.bucket.Exists(ctx, s.key(name))
	if err != nil {
		t.Fatalf("exists %s: %v", name, err)
	}
	if !ok {
		return nil, false
	}
	data, err := s.bucket.ReadAll(ctx, s.key(name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data, true
}
