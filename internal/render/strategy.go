// Package render turns a region collection into choropleth maps: one
// projected, filled shape per region with hover text, emitted as SVG and
// assembled into an HTML page.
package render

import (
	"math"

	"github.com/sells-group/choropleth/internal/geo"
	"github.com/sells-group/choropleth/internal/join"
)

// FillStrategy resolves the value a region is shaded by. ok is false when
// the region has no value.
type FillStrategy interface {
	Value(r geo.Region) (v float64, ok bool)
}

// PropertyStrategy reads a numeric region property.
type PropertyStrategy struct {
	Key string
}

// Value implements FillStrategy.
func (s PropertyStrategy) Value(r geo.Region) (float64, bool) {
	return r.Number(s.Key)
}

// DerivedStrategy computes the value from the region's properties. Fn
// returns NaN when the value cannot be derived.
type DerivedStrategy struct {
	Fn func(r geo.Region) float64
}

// Value implements FillStrategy.
func (s DerivedStrategy) Value(r geo.Region) (float64, bool) {
	if s.Fn == nil {
		return math.NaN(), false
	}
	v := s.Fn(r)
	return v, !math.IsNaN(v)
}

// Change derives later − earlier from two numeric properties.
func Change(earlier, later string) DerivedStrategy {
	return DerivedStrategy{Fn: func(r geo.Region) float64 {
		return geo.Delta(r, earlier, later)
	}}
}

// LookupStrategy reads the region's code from CodeKey and looks it up in a
// joined value table.
type LookupStrategy struct {
	Lookup  join.Lookup
	CodeKey string
}

// Value implements FillStrategy. Regions whose code is missing or has no
// joined entry report ok=false; a joined NaN or infinity reports ok=false
// as well.
func (s LookupStrategy) Value(r geo.Region) (float64, bool) {
	code, ok := r.Code(s.CodeKey)
	if !ok {
		return math.NaN(), false
	}
	v, ok := s.Lookup.Get(code)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}
