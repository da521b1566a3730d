package metric

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fetcher"
)

// Source describes where the tabular dataset lives and how to read it.
type Source struct {
	Location string // local path, http(s):// or ftp:// URL
	Columns  Columns
	Sheet    string // xlsx worksheet name; first sheet when empty
	TempDir  string // parent of the scratch directory for remote xlsx files
}

// Load reads the dataset and returns its records. The format follows the
// location's extension: .xlsx is read as a workbook, anything else as CSV.
func Load(ctx context.Context, r *fetcher.Resolver, src Source) ([]Record, error) {
	rows, err := readRows(ctx, r, src)
	if err != nil {
		return nil, err
	}

	records, err := ParseRows(rows, src.Columns)
	if err != nil {
		return nil, eris.Wrapf(err, "metric: parse %s", src.Location)
	}

	zap.L().Debug("metric: loaded table",
		zap.String("component", "metric"),
		zap.String("source", src.Location),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func readRows(ctx context.Context, r *fetcher.Resolver, src Source) ([][]string, error) {
	if fetcher.Ext(src.Location) == ".xlsx" {
		dir, err := os.MkdirTemp(src.TempDir, "choropleth-table-*")
		if err != nil {
			return nil, eris.Wrap(err, "metric: create work dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		path, err := r.Localize(ctx, src.Location, dir)
		if err != nil {
			return nil, eris.Wrap(err, "metric: localize workbook")
		}
		rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: src.Sheet})
		if err != nil {
			return nil, eris.Wrapf(err, "metric: read %s", src.Location)
		}
		return rows, nil
	}

	rc, err := r.Open(ctx, src.Location)
	if err != nil {
		return nil, eris.Wrap(err, "metric: open table")
	}
	defer rc.Close() //nolint:errcheck

	rows, err := fetcher.ReadCSV(ctx, rc, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, eris.Wrapf(err, "metric: read %s", src.Location)
	}
	return rows, nil
}
