// Package simpleud uploads files to and downloads files from a simple HTTP
// file server.
//
// Uploads are multipart POST requests to a single endpoint with the file in
// the form field "uploaded_file". Downloads are GET requests for
// downloadBaseURL + name. Both retry a fixed number of times with a fixed
// delay:
//
//   - only HTTP 200 counts as success
//   - HTTP 404 stops immediately
//   - every other status and every transport or local I/O fault is retried
//   - no delay follows the final attempt
//
// A Client is configured once with functional options; the server address,
// upload path and download base path fall back to the environment variables
// UPLOAD_DOWNLOAD_SERVER_ADDRESS, UPLOAD_PATH and DOWNLOAD_BASE_PATH.
//
// The library logs through the *slog.Logger given with WithLogger and is
// silent by default; attempt failures are reported to callers only through
// the returned error and Result unless a logger is injected.
//
// TLS certificates are not verified unless WithInsecureSkipVerify(false) is
// given.
//
// Upload and Download block. UploadAsync and DownloadAsync run on their own
// goroutine with a dedicated HTTP session and deliver one Outcome on the
// returned channel.
package simpleud
