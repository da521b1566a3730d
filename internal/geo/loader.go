package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fetcher"
)

// ErrUnknownFormat is returned when a geometry source's format cannot be
// determined from its extension or content.
var ErrUnknownFormat = eris.New("geo: unknown geometry format")

// Source describes where region geometry lives.
type Source struct {
	Location string // local path, http(s):// or ftp:// URL
	Object   string // TopoJSON object name; ignored for other formats
	TempDir  string // working directory for downloads and archive extraction
}

// Load reads the geometry source. The format follows the extension:
// .topojson and .topo.json are TopoJSON, .geojson is GeoJSON, .json is
// sniffed, .shp is a shapefile (with its .dbf beside it) and .zip is an
// archive holding one shapefile.
func Load(ctx context.Context, r *fetcher.Resolver, src Source) (*Collection, error) {
	var (
		c   *Collection
		err error
	)
	switch ext := fetcher.Ext(src.Location); ext {
	case ".topojson", ".topo.json":
		c, err = loadJSON(ctx, r, src, formatTopo)
	case ".geojson":
		c, err = loadJSON(ctx, r, src, formatGeo)
	case ".json":
		c, err = loadJSON(ctx, r, src, formatSniff)
	case ".shp":
		c, err = loadShapefile(ctx, r, src)
	case ".zip":
		c, err = loadArchive(ctx, r, src)
	default:
		return nil, eris.Wrapf(ErrUnknownFormat, "%s (extension %q)", src.Location, ext)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geo: loaded regions",
		zap.String("component", "geo"),
		zap.String("source", src.Location),
		zap.String("collection", c.Name),
		zap.Int("regions", len(c.Regions)),
	)
	return c, nil
}

type jsonFormat int

const (
	formatSniff jsonFormat = iota
	formatTopo
	formatGeo
)

func loadJSON(ctx context.Context, r *fetcher.Resolver, src Source, format jsonFormat) (*Collection, error) {
	rc, err := r.Open(ctx, src.Location)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open geometry")
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", src.Location)
	}

	if format == formatSniff {
		format, err = sniff(data)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: %s", src.Location)
		}
	}
	if format == formatTopo {
		return DecodeTopoJSON(data, src.Object)
	}
	return DecodeGeoJSON(data, baseName(src.Location))
}

// sniff inspects the top-level "type" member of a JSON document.
func sniff(data []byte) (jsonFormat, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&head); err != nil {
		return formatSniff, eris.Wrap(err, "geo: sniff json")
	}
	switch head.Type {
	case "Topology":
		return formatTopo, nil
	case "FeatureCollection":
		return formatGeo, nil
	default:
		return formatSniff, eris.Wrapf(ErrUnknownFormat, "json type %q", head.Type)
	}
}

func loadShapefile(ctx context.Context, r *fetcher.Resolver, src Source) (*Collection, error) {
	if !fetcher.IsRemote(src.Location) {
		return ReadShapefile(strings.TrimPrefix(strings.TrimPrefix(src.Location, "file://"), "file:"))
	}

	dir, err := workDir(src.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	if _, err := r.Localize(ctx, sibling(src.Location, ".dbf"), dir); err != nil {
		return nil, eris.Wrap(err, "geo: localize attribute table")
	}
	shpPath, err := r.Localize(ctx, src.Location, dir)
	if err != nil {
		return nil, eris.Wrap(err, "geo: localize shapefile")
	}
	return ReadShapefile(shpPath)
}

func loadArchive(ctx context.Context, r *fetcher.Resolver, src Source) (*Collection, error) {
	dir, err := workDir(src.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	zipPath, err := r.Localize(ctx, src.Location, dir)
	if err != nil {
		return nil, eris.Wrap(err, "geo: localize archive")
	}
	files, err := fetcher.ExtractZIP(zipPath, dir)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: extract %s", src.Location)
	}
	shpPath, ok := fetcher.FindByExt(files, ".shp")
	if !ok {
		return nil, eris.Wrapf(ErrUnknownFormat, "no .shp file in %s", src.Location)
	}
	return ReadShapefile(shpPath)
}

// workDir creates a scratch directory under base (or the system temp dir).
func workDir(base string) (string, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", eris.Wrap(err, "geo: create temp dir")
		}
	}
	dir, err := os.MkdirTemp(base, "choropleth-geo-*")
	if err != nil {
		return "", eris.Wrap(err, "geo: create temp dir")
	}
	return dir, nil
}

// sibling swaps the extension of a URL's path, keeping any query.
func sibling(rawURL, ext string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimSuffix(rawURL, path.Ext(rawURL)) + ext
	}
	u.Path = strings.TrimSuffix(u.Path, path.Ext(u.Path)) + ext
	return u.String()
}

func baseName(loc string) string {
	if u, err := url.Parse(loc); err == nil && u.Path != "" {
		loc = u.Path
	}
	name := path.Base(strings.ReplaceAll(loc, "\\", "/"))
	for _, ext := range []string{".topo.json", ".geojson", ".topojson", ".json"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
