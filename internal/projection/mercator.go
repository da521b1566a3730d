// Package projection maps longitude/latitude geometry onto a flat drawing
// surface and emits SVG path data.
package projection

import (
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// maxLat is the latitude at which spherical Mercator reaches a square
// world; coordinates beyond it are clamped.
const maxLat = 85.05112878

// Mercator is a spherical Mercator projection followed by a uniform scale
// and translation. Screen y grows downward.
type Mercator struct {
	Scale     float64
	Translate [2]float64
}

// raw projects degrees onto the unit Mercator plane.
func raw(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxLat, math.Min(maxLat, lat))
	lambda := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	return lambda, -math.Log(math.Tan(math.Pi/4 + phi/2))
}

// FitMercator returns the projection that fits bounds (in degrees) into a
// width × height surface, centered, preserving aspect ratio. A nil or
// single-point bounds centers the point at scale 1.
func FitMercator(width, height float64, b *geom.Bounds) Mercator {
	if b == nil || b.IsEmpty() {
		return Mercator{Scale: 1, Translate: [2]float64{width / 2, height / 2}}
	}

	// Mercator is monotone in both axes, so projecting the corners gives
	// the projected bounds.
	x0, y1 := raw(b.Min(0), b.Min(1))
	x1, y0 := raw(b.Max(0), b.Max(1))
	dx, dy := x1-x0, y1-y0

	var k float64
	switch {
	case dx > 0 && dy > 0:
		k = math.Min(width/dx, height/dy)
	case dx > 0:
		k = width / dx
	case dy > 0:
		k = height / dy
	default:
		k = 1
	}

	return Mercator{
		Scale: k,
		Translate: [2]float64{
			(width - k*(x0+x1)) / 2,
			(height - k*(y0+y1)) / 2,
		},
	}
}

// Project maps a longitude/latitude pair to surface coordinates.
func (m Mercator) Project(lon, lat float64) (x, y float64) {
	rx, ry := raw(lon, lat)
	return m.Scale*rx + m.Translate[0], m.Scale*ry + m.Translate[1]
}

// Path returns SVG path data for a polygonal geometry: one closed subpath
// per ring, all rings in one path so holes render with fill-rule evenodd.
// Other geometry types, and nil, yield "".
func (m Mercator) Path(g geom.T) string {
	var sb strings.Builder
	switch g := g.(type) {
	case *geom.Polygon:
		m.appendPolygon(&sb, g.Coords())
	case *geom.MultiPolygon:
		for _, p := range g.Coords() {
			m.appendPolygon(&sb, p)
		}
	}
	return sb.String()
}

func (m Mercator) appendPolygon(sb *strings.Builder, rings [][]geom.Coord) {
	for _, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		for i, c := range ring {
			if len(c) < 2 {
				continue
			}
			if i == 0 {
				sb.WriteByte('M')
			} else {
				sb.WriteByte('L')
			}
			x, y := m.Project(c[0], c[1])
			sb.WriteString(formatCoord(x))
			sb.WriteByte(',')
			sb.WriteString(formatCoord(y))
		}
		sb.WriteByte('Z')
	}
}

// formatCoord rounds to hundredths of a pixel.
func formatCoord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalizes -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
