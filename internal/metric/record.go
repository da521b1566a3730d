// Package metric reads the tabular dataset joined onto region geometry:
// one row per county carrying a FIPS code and a string-encoded value.
package metric

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/fips"
)

// ErrMissingColumn is returned when the header lacks a configured column.
var ErrMissingColumn = eris.New("metric: missing column")

// Record is one row of the tabular dataset, kept as read.
type Record struct {
	Row   int    // 1-based data row number, header excluded
	Code  string // raw geographic code cell
	Value string // raw metric cell
}

// ParsedCode returns the record's FIPS code.
func (r Record) ParsedCode() (int, bool) {
	return fips.ParseCode(r.Code)
}

// ParsedValue returns the metric as a float. Empty and non-numeric cells
// yield NaN, which downstream code treats as "value unavailable".
func (r Record) ParsedValue() float64 {
	return ParseValue(r.Value)
}

// ParseValue parses a metric cell. Census suppression markers, blanks and
// non-finite numbers ("Inf", "NaN") become NaN rather than zero.
func ParseValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// Columns names the header cells holding the code and the metric.
type Columns struct {
	Code  string
	Value string
}

// ParseRows converts a header row plus data rows into records. Header
// matching ignores case and surrounding whitespace. Rows shorter than a
// column index yield an empty cell for it.
func ParseRows(rows [][]string, cols Columns) ([]Record, error) {
	if len(rows) == 0 {
		return nil, eris.New("metric: no header row")
	}

	header := rows[0]
	codeIdx := columnIndex(header, cols.Code)
	if codeIdx < 0 {
		return nil, eris.Wrapf(ErrMissingColumn, "code column %q", cols.Code)
	}
	valueIdx := columnIndex(header, cols.Value)
	if valueIdx < 0 {
		return nil, eris.Wrapf(ErrMissingColumn, "value column %q", cols.Value)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		records = append(records, Record{
			Row:   i + 1,
			Code:  cell(row, codeIdx),
			Value: cell(row, valueIdx),
		})
	}
	return records, nil
}

func columnIndex(header []string, name string) int {
	want := strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
