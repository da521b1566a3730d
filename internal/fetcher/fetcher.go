// Package fetcher opens map data sources from local paths, HTTP and FTP
// URLs, and parses the CSV, XLSX and ZIP payloads they carry.
package fetcher

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// ErrUnsupportedScheme is returned for source URLs that are neither local
// paths nor http, https or ftp URLs.
var ErrUnsupportedScheme = eris.New("fetcher: unsupported source scheme")

// Fetcher downloads a remote source.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
