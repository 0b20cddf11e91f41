package simpleud

import (
	"io"
	"time"
)

// Op names a transfer direction.
type Op string

const (
	OpUpload   Op = "upload"
	OpDownload Op = "download"
)

// Result describes a finished transfer. It is returned for failures too;
// OK is true exactly when the call's error is nil.
type Result struct {
	Op         Op
	Name       string // remote file name
	URL        string
	Path       string // local file read or written
	OK         bool
	StatusCode int // last HTTP status, 0 if no response arrived
	Attempts   int
	Bytes      int64  // bytes sent or written by the successful attempt
	Message    string // response text of a successful upload
	Err        error
	Duration   time.Duration
}

// Outcome is delivered on the channel returned by UploadAsync and
// DownloadAsync.
type Outcome struct {
	Result *Result
	Err    error
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
