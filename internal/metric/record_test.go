package metric

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/choropleth/internal/fetcher"
)

var giniColumns = Columns{Code: "fips_code", Value: "Estimate!!Gini Index"}

func TestParseValue(t *testing.T) {
	assert.InDelta(t, 0.4512, ParseValue("0.4512"), 1e-12)
	assert.InDelta(t, 20.0, ParseValue(" 20.0 "), 1e-12)
	assert.InDelta(t, -3.5, ParseValue("-3.5"), 1e-12)
	assert.True(t, math.IsNaN(ParseValue("")))
	assert.True(t, math.IsNaN(ParseValue("   ")))
	assert.True(t, math.IsNaN(ParseValue("N")))
	assert.True(t, math.IsNaN(ParseValue("(X)")))
	for _, s := range []string{"Inf", "-Inf", "+infinity", "NaN"} {
		assert.True(t, math.IsNaN(ParseValue(s)), "%q is unavailable", s)
	}
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Geography", "FIPS_CODE", "Estimate!!Gini Index"},
		{"Barnstable County", "25001", "0.4512"},
		{"Berkshire County", "25003"},
	}

	records, err := ParseRows(rows, giniColumns)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{Row: 1, Code: "25001", Value: "0.4512"}, records[0])
	assert.Equal(t, Record{Row: 2, Code: "25003", Value: ""}, records[1])

	code, ok := records[0].ParsedCode()
	require.True(t, ok)
	assert.Equal(t, 25001, code)
	assert.True(t, math.IsNaN(records[1].ParsedValue()))
}

func TestParseRows_MissingColumn(t *testing.T) {
	_, err := ParseRows([][]string{{"fips_code", "gini"}}, giniColumns)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "Estimate!!Gini Index")

	_, err = ParseRows(nil, giniColumns)
	require.Error(t, err)
}

func TestLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gini_index.csv")
	data := "fips_code,Estimate!!Gini Index\n25001,0.4512\n25003, 0.4688\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	records, err := Load(context.Background(), fetcher.NewResolver(fetcher.HTTPOptions{}, fetcher.FTPOptions{}), Source{
		Location: path,
		Columns:  giniColumns,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0.4688", records[1].Value)
}

func TestLoad_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Gini")
	require.NoError(t, err)
	for _, r := range [][]string{{"fips_code", "Estimate!!Gini Index"}, {"25005", "0.4401"}} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "gini.xlsx")
	require.NoError(t, f.Save(path))

	records, err := Load(context.Background(), fetcher.NewResolver(fetcher.HTTPOptions{}, fetcher.FTPOptions{}), Source{
		Location: path,
		Columns:  giniColumns,
		Sheet:    "Gini",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "25005", records[0].Code)
}

func TestLoad_RemoteXLSXLeavesNoFiles(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Gini")
	require.NoError(t, err)
	for _, r := range [][]string{{"fips_code", "Estimate!!Gini Index"}, {"25013", "0.4702"}} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	tmp := t.TempDir()
	src := Source{Location: srv.URL + "/acs/gini.xlsx", Columns: giniColumns, TempDir: tmp}
	resolver := fetcher.NewResolver(fetcher.HTTPOptions{}, fetcher.FTPOptions{})

	for i := 0; i < 2; i++ {
		records, err := Load(context.Background(), resolver, src)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "25013", records[0].Code)
	}

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left, "downloaded workbooks are removed after each load")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), fetcher.NewResolver(fetcher.HTTPOptions{}, fetcher.FTPOptions{}), Source{
		Location: filepath.Join(t.TempDir(), "missing.csv"),
		Columns:  giniColumns,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric: open table")
}
