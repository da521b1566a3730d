// Package geo loads region geometry (counties or towns) from TopoJSON,
// GeoJSON and shapefile sources into an immutable in-memory collection.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/choropleth/internal/fips"
)

// Region is one county or town: a polygonal geometry plus its properties.
// Geometry is a *geom.Polygon, a *geom.MultiPolygon, or nil when the source
// feature had no geometry.
type Region struct {
	Properties map[string]any
	Geometry   geom.T
}

// Collection is a named set of regions, in source order.
type Collection struct {
	Name    string
	Regions []Region
}

// Label returns the first non-empty property among keys, formatted as text.
func (r Region) Label(keys []string) string {
	for _, k := range keys {
		v, ok := r.Properties[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(formatProperty(v))
		if s != "" {
			return s
		}
	}
	return ""
}

// Number returns a numeric property. Numeric strings are parsed; anything
// else, including a missing key, yields (NaN, false).
func (r Region) Number(key string) (float64, bool) {
	switch v := r.Properties[key].(type) {
	case float64:
		return v, !math.IsNaN(v)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	default:
		return math.NaN(), false
	}
}

// Code returns the region's geographic code read from key.
func (r Region) Code(key string) (int, bool) {
	return fips.CodeOf(r.Properties[key])
}

// Numbers returns property key for every region, NaN where unavailable.
func (c *Collection) Numbers(key string) []float64 {
	out := make([]float64, len(c.Regions))
	for i, r := range c.Regions {
		out[i], _ = r.Number(key)
	}
	return out
}

// Deltas returns later − earlier for every region, NaN where either side
// is unavailable.
func (c *Collection) Deltas(earlier, later string) []float64 {
	out := make([]float64, len(c.Regions))
	for i, r := range c.Regions {
		out[i] = Delta(r, earlier, later)
	}
	return out
}

// Delta returns later − earlier for r, or NaN.
func Delta(r Region, earlier, later string) float64 {
	a, okA := r.Number(earlier)
	b, okB := r.Number(later)
	if !okA || !okB {
		return math.NaN()
	}
	return b - a
}

// Bounds returns the bounding box of every region's geometry, or nil when
// no region has one.
func (c *Collection) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, r := range c.Regions {
		if r.Geometry == nil {
			continue
		}
		if b == nil {
			b = geom.NewBounds(geom.XY)
		}
		b.Extend(r.Geometry)
	}
	return b
}

func formatProperty(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
