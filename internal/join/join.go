// Package join reconciles the tabular metric dataset with the county
// reference table, producing the code-to-value lookup that drives the
// joined-metric color scale.
package join

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fips"
	"github.com/sells-group/choropleth/internal/metric"
)

// Lookup maps a FIPS code to its parsed metric value. It is read-only once
// built; every key has an entry in the reference table it was built from.
// A value may be NaN when the metric cell was blank or non-numeric.
type Lookup struct {
	values map[int]float64
}

// Get returns the value for code and whether the code is present.
func (l Lookup) Get(code int) (float64, bool) {
	v, ok := l.values[code]
	return v, ok
}

// Len returns the number of codes in the lookup.
func (l Lookup) Len() int {
	return len(l.values)
}

// Codes returns the lookup's codes in ascending order.
func (l Lookup) Codes() []int {
	codes := make([]int, 0, len(l.values))
	for c := range l.values {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// Values returns the lookup's values ordered by code, NaN included.
func (l Lookup) Values() []float64 {
	codes := l.Codes()
	out := make([]float64, len(codes))
	for i, c := range codes {
		out[i] = l.values[c]
	}
	return out
}

// Map returns a copy of the lookup as a plain map.
func (l Lookup) Map() map[int]float64 {
	out := make(map[int]float64, len(l.values))
	for c, v := range l.values {
		out[c] = v
	}
	return out
}

// Diagnostic describes a record that was left out of the lookup.
type Diagnostic struct {
	Row     int    `json:"row"`
	RawCode string `json:"raw_code"`
	Code    int    `json:"code"`
	Parsed  bool   `json:"parsed"` // false when RawCode has no leading integer
}

func (d Diagnostic) String() string {
	if !d.Parsed {
		return fmt.Sprintf("Mapping: %q -> Gini: undefined", d.RawCode)
	}
	return fmt.Sprintf("Mapping: %d -> Gini: undefined", d.Code)
}

// Build joins records against table. Records whose code matches an entry
// are inserted with their parsed value; the rest produce one Diagnostic
// each and are logged as warnings. A code seen twice keeps its last value.
func Build(records []metric.Record, table *fips.Table) (Lookup, []Diagnostic) {
	log := zap.L().With(zap.String("component", "join"))

	lookup := Lookup{values: make(map[int]float64, table.Len())}
	var diags []Diagnostic

	for _, rec := range records {
		code, parsed := rec.ParsedCode()
		entry, ok := fips.Entry{}, false
		if parsed {
			entry, ok = table.Lookup(code)
		}
		if !ok {
			d := Diagnostic{Row: rec.Row, RawCode: rec.Code, Code: code, Parsed: parsed}
			diags = append(diags, d)
			log.Warn(d.String(), zap.Int("row", rec.Row), zap.String("raw_code", rec.Code))
			continue
		}

		if _, dup := lookup.values[entry.Code]; dup {
			log.Debug("join: duplicate code replaces earlier value", zap.Int("fips_code", entry.Code), zap.Int("row", rec.Row))
		}

		v := rec.ParsedValue()
		lookup.values[entry.Code] = v
		log.Debug(fmt.Sprintf("Mapping: %s (%d) -> Gini: %s", entry.County, entry.Code, rec.Value),
			zap.Bool("value_available", !math.IsNaN(v)),
		)
	}

	return lookup, diags
}

// FromMap builds a Lookup directly, for callers that already hold joined
// values. Codes missing from table are dropped.
func FromMap(values map[int]float64, table *fips.Table) Lookup {
	l := Lookup{values: make(map[int]float64, len(values))}
	for c, v := range values {
		if _, ok := table.Lookup(c); ok {
			l.values[c] = v
		}
	}
	return l
}
