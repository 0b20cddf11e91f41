package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Label names the operation, e.g. "Uploading".
	Label string

	// Name is the file being transferred (for display).
	Name string

	// TotalSize is the expected number of bytes, or -1 if unknown.
	TotalSize int64

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Negative disables the periodic line; only the start and final lines
	// are printed.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information for one transfer.
// Bytes are counted through Reader; a failed attempt resets them.
type Reporter struct {
	opts Options

	mu          sync.Mutex
	transferred atomic.Int64
	total       atomic.Int64
	attempts    atomic.Int32
	failed      atomic.Bool
	startTime   time.Time
	lastUpdate  time.Time
	lastBytes   int64
	stopCh      chan struct{}
	doneCh      chan struct{}
	started     bool
	stopped     bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	if opts.Label == "" {
		opts.Label = "Transferring"
	}

	r := &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	r.total.Store(opts.TotalSize)
	return r
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	r.mu.Unlock()

	size := "unknown size"
	if total := r.total.Load(); total >= 0 {
		size = formatBytes(total)
	}
	fmt.Fprintf(r.opts.Output, "[simpleud] %s: %s (%s)\n", r.opts.Label, r.opts.Name, size)

	go r.updateLoop()
}

// Stop stops the reporter and waits for the final status line.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// AttemptStarted marks the beginning of a transfer attempt.
func (r *Reporter) AttemptStarted() {
	r.attempts.Add(1)
	r.transferred.Store(0)
	r.mu.Lock()
	r.lastBytes = 0
	r.mu.Unlock()
}

// AttemptFailed discards bytes counted by the current attempt.
func (r *Reporter) AttemptFailed() {
	r.transferred.Store(0)
}

// Fail marks the whole transfer as failed for the final status line.
func (r *Reporter) Fail() {
	r.failed.Store(true)
}

// SetTotal sets the expected size once it is known, e.g. from the
// Content-Length of a download response. Negative means unknown.
func (r *Reporter) SetTotal(n int64) {
	r.total.Store(n)
}

// Reader wraps src so that bytes read from it are counted.
func (r *Reporter) Reader(src io.Reader) io.Reader {
	return &countingReader{r: src, rep: r}
}

type countingReader struct {
	r   io.Reader
	rep *Reporter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.rep.transferred.Add(int64(n))
	return n, err
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	if r.opts.UpdateInterval < 0 {
		<-r.stopCh
		r.printFinalStatus()
		return
	}

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	now := time.Now()
	done := r.transferred.Load()

	r.mu.Lock()
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(done-r.lastBytes) / elapsed
	if speed < 0 {
		speed = 0
	}
	r.lastUpdate = now
	r.lastBytes = done
	r.mu.Unlock()

	total := r.total.Load()
	if total <= 0 {
		fmt.Fprintf(r.opts.Output, "\r[simpleud] Progress: %s | Speed: %s/s | Attempt: %d    ",
			formatBytes(done),
			formatBytes(int64(speed)),
			r.attempts.Load(),
		)
		return
	}

	percent := float64(done) / float64(total) * 100
	eta := "calculating..."
	if speed > 0 {
		remaining := float64(total - done)
		eta = formatDuration(time.Duration(remaining / speed * float64(time.Second)))
	}

	fmt.Fprintf(r.opts.Output, "\r[simpleud] Progress: %.1f%% | %s / %s | Speed: %s/s | ETA: %s | Attempt: %d    ",
		percent,
		formatBytes(done),
		formatBytes(total),
		formatBytes(int64(speed)),
		eta,
		r.attempts.Load(),
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	done := r.transferred.Load()
	duration := time.Since(r.startTime)
	avgSpeed := float64(done) / max(duration.Seconds(), 0.001)

	status := "Complete!"
	if r.failed.Load() {
		status = "Failed"
	}

	size := formatBytes(done)
	if total := r.total.Load(); total > 0 {
		size = fmt.Sprintf("%s / %s (%.1f%%)", size, formatBytes(total), float64(done)/float64(total)*100)
	}

	fmt.Fprintf(r.opts.Output, "\r[simpleud] %s %s | %s | Attempts: %d    \n",
		r.opts.Name,
		status,
		size,
		r.attempts.Load(),
	)
	fmt.Fprintf(r.opts.Output, "[simpleud] Total time: %s | Average speed: %s/s\n",
		formatDuration(duration),
		formatBytes(int64(avgSpeed)),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}
