package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Resolver turns a source string (local path, http(s):// or ftp:// URL)
// into readable data.
type Resolver struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewResolver returns a Resolver backed by the default HTTP and FTP fetchers.
func NewResolver(httpOpts HTTPOptions, ftpOpts FTPOptions) *Resolver {
	return &Resolver{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// IsRemote reports whether src names a remote URL.
func IsRemote(src string) bool {
	switch scheme(src) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// Ext returns the lower-cased extension of the source's path, ignoring any
// URL query string.
func Ext(src string) string {
	p := src
	if IsRemote(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
	}
	name := strings.ToLower(path.Base(filepath.ToSlash(p)))
	if strings.HasSuffix(name, ".topo.json") {
		return ".topo.json"
	}
	return path.Ext(name)
}

// Open returns a reader over the source's bytes.
func (r *Resolver) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	f, err := r.fetcherFor(src)
	if err != nil {
		return nil, err
	}
	if f == nil {
		file, err := os.Open(localPath(src))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", src)
		}
		return file, nil
	}
	rc, err := f.Download(ctx, src)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", src)
	}
	return rc, nil
}

// Localize returns a filesystem path holding the source. Local sources are
// returned as-is; remote sources are downloaded into dir.
func (r *Resolver) Localize(ctx context.Context, src, dir string) (string, error) {
	f, err := r.fetcherFor(src)
	if err != nil {
		return "", err
	}
	if f == nil {
		return localPath(src), nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create temp dir")
	}
	name := "source"
	if u, err := url.Parse(src); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	dest := filepath.Join(dir, name)
	if _, err := f.DownloadToFile(ctx, src, dest); err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", src)
	}
	return dest, nil
}

// fetcherFor picks the remote fetcher for src, or nil for a local path.
func (r *Resolver) fetcherFor(src string) (Fetcher, error) {
	switch s := scheme(src); s {
	case "", "file":
		return nil, nil
	case "http", "https":
		if r.HTTP == nil {
			return nil, eris.Wrapf(ErrUnsupportedScheme, "no http fetcher for %s", src)
		}
		return r.HTTP, nil
	case "ftp":
		if r.FTP == nil {
			return nil, eris.Wrapf(ErrUnsupportedScheme, "no ftp fetcher for %s", src)
		}
		return r.FTP, nil
	default:
		return nil, eris.Wrapf(ErrUnsupportedScheme, "%q", s)
	}
}

// scheme returns the lower-cased URL scheme, treating Windows drive letters
// and unparseable strings as local paths.
func scheme(src string) string {
	i := strings.Index(src, "://")
	if i <= 1 {
		if strings.HasPrefix(src, "file:") {
			return "file"
		}
		return ""
	}
	return strings.ToLower(src[:i])
}

func localPath(src string) string {
	if strings.HasPrefix(src, "file://") {
		return strings.TrimPrefix(src, "file://")
	}
	return strings.TrimPrefix(src, "file:")
}
