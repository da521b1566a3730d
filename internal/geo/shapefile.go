package geo

import (
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ReadShapefile reads a polygon shapefile and its .dbf attributes into a
// collection named after the file. Attribute values are kept as trimmed
// strings; Region.Number and Region.Code parse them on demand.
func ReadShapefile(path string) (*Collection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c := &Collection{Name: name}
	var skipped int

	for reader.Next() {
		n, shape := reader.Shape()

		props := make(map[string]any, len(names))
		for i, field := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			props[field] = val
		}

		var g geom.T
		switch s := shape.(type) {
		case *shp.Polygon:
			g = shapeToMultiPolygon(s, n)
		case nil, *shp.Null:
		default:
			skipped++
			continue
		}
		c.Regions = append(c.Regions, Region{Properties: props, Geometry: g})
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon shapefile records",
			zap.String("file", path),
			zap.Int("skipped", skipped),
		)
	}
	return c, nil
}

// shapeToMultiPolygon turns each ring of a shapefile polygon into its own
// polygon. Holes are rings too; the renderer fills with the even-odd rule,
// so they still come out empty.
func shapeToMultiPolygon(p *shp.Polygon, record int) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || start >= end {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("geo: skipping malformed ring", zap.Int("record", record), zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed part", zap.Int("record", record), zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
