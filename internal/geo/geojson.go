package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// DecodeGeoJSON decodes a GeoJSON FeatureCollection. Features with
// non-polygonal geometry are dropped.
func DecodeGeoJSON(data []byte, name string) (*Collection, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}

	c := &Collection{Name: name, Regions: make([]Region, 0, len(fc.Features))}
	var skipped int
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if !polygonal(f.Geometry) {
			skipped++
			continue
		}
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		c.Regions = append(c.Regions, Region{Properties: props, Geometry: f.Geometry})
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon features",
			zap.String("collection", name),
			zap.Int("skipped", skipped),
		)
	}
	return c, nil
}

// polygonal reports whether g can be drawn as a filled region. A nil
// geometry counts: the region still takes part in domains.
func polygonal(g geom.T) bool {
	switch g.(type) {
	case nil, *geom.Polygon, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}
