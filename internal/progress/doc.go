// Package progress provides progress reporting for single file transfers.
//
// This package outputs human-readable progress information, including
// completion percentage, transfer speed, ETA and the current attempt.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Label:     "Uploading",
//	    Name:      "report.pdf",
//	    TotalSize: size,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	reporter.AttemptStarted()
//	io.Copy(dst, reporter.Reader(src))
//
// # Output Format
//
//	[simpleud] Uploading: report.pdf (2.50 MB)
//	[simpleud] Progress: 45.2% | 1.13 MB / 2.50 MB | Speed: 1.20 MB/s | ETA: 1s | Attempt: 1
//	[simpleud] report.pdf Complete! | 2.50 MB | Attempts: 1
//	[simpleud] Total time: 2s | Average speed: 1.25 MB/s
package progress
