package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExt(t *testing.T) {
	assert.Equal(t, ".csv", Ext("./data/gini_index.csv"))
	assert.Equal(t, ".topojson", Ext("data/towns.TOPOJSON"))
	assert.Equal(t, ".topo.json", Ext("https://example.com/ma.topo.json?v=2"))
	assert.Equal(t, ".zip", Ext("ftp://ftp2.census.gov/geo/tl_2020_25_cousub.zip"))
	assert.Equal(t, ".json", Ext("file:///tmp/ma.json"))
	assert.Equal(t, "", Ext("README"))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.csv"))
	assert.True(t, IsRemote("HTTP://example.com/a.csv"))
	assert.True(t, IsRemote("ftp://example.com/a.csv"))
	assert.False(t, IsRemote("./data/a.csv"))
	assert.False(t, IsRemote(`C:\data\a.csv`))
	assert.False(t, IsRemote("file:///data/a.csv"))
}

func TestResolverOpen_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gini.csv")
	require.NoError(t, os.WriteFile(path, []byte("fips_code\n25001\n"), 0o644))

	r := NewResolver(HTTPOptions{}, FTPOptions{})
	for _, src := range []string{path, "file://" + path} {
		rc, err := r.Open(context.Background(), src)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "fips_code\n25001\n", string(data))
	}
}

func TestResolverOpen_MissingFile(t *testing.T) {
	r := NewResolver(HTTPOptions{}, FTPOptions{})
	_, err := r.Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.csv")
}

func TestResolverOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/gini_index.csv", r.URL.Path)
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	r := NewResolver(HTTPOptions{}, FTPOptions{})
	rc, err := r.Open(context.Background(), srv.URL+"/data/gini_index.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))
}

func TestResolverOpen_UnsupportedScheme(t *testing.T) {
	r := NewResolver(HTTPOptions{}, FTPOptions{})
	_, err := r.Open(context.Background(), "s3://bucket/towns.topojson")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedScheme))
}

func TestResolverOpen_NoHTTPFetcher(t *testing.T) {
	r := &Resolver{}
	_, err := r.Open(context.Background(), "https://example.com/a.csv")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedScheme))
}

func TestResolverLocalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zipbytes"))
	}))
	defer srv.Close()

	r := NewResolver(HTTPOptions{}, FTPOptions{})
	dir := filepath.Join(t.TempDir(), "dl")

	path, err := r.Localize(context.Background(), srv.URL+"/tiger/tl_2020_25_county.zip", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tl_2020_25_county.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zipbytes", string(data))

	local, err := r.Localize(context.Background(), "./data/towns.shp", dir)
	require.NoError(t, err)
	assert.Equal(t, "./data/towns.shp", local)
}
