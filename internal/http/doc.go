// Package http provides the single-request transport used by simpleud.
//
// This package handles:
//   - Transport construction with an explicit InsecureSkipVerify flag
//   - Streaming multipart uploads with a computed Content-Length
//   - Plain GET downloads
//   - Status classification (only 200 OK is success)
//   - X-Request-ID propagation from the context
//
// It does not retry. Callers wrap it in their own retry loop.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Upload a file under the form field "uploaded_file"
//	text, err := client.PostFile(ctx, url, "uploaded_file", "a.txt", f, size)
//
//	// Download
//	resp, err := client.Get(ctx, url)
//	defer resp.Body.Close()
//
// Errors for non-200 responses are *StatusError values; use errors.Is with
// ErrNotFound or ErrUnexpectedStatus to classify them.
package http
