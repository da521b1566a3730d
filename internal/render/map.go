package render

import (
	"math"

	"github.com/sells-group/choropleth/internal/colorscale"
	"github.com/sells-group/choropleth/internal/geo"
	"github.com/sells-group/choropleth/internal/projection"
	"github.com/sells-group/choropleth/internal/tooltip"
)

// Spec configures one map.
type Spec struct {
	ID       string // container class, e.g. "fig1"
	Title    string
	Strategy FillStrategy
	Scale    *colorscale.Scale

	// ZeroMissing fills regions without a value with the color for 0
	// instead of the scale's no-data color. Their tooltip still reads N/A.
	ZeroMissing bool
}

// Layout is shared by every map on a page.
type Layout struct {
	Width     float64 // viewBox width
	Height    float64 // viewBox height
	LabelKeys []string
}

// Shape is one drawn region.
type Shape struct {
	Label    string
	D        string // SVG path data; empty for regions without geometry
	Fill     string // #rrggbb
	Tooltip  string
	Value    float64
	HasValue bool
}

// Map is a fully resolved map, ready to be written.
type Map struct {
	ID     string
	Title  string
	Width  float64
	Height float64
	Domain colorscale.Domain
	Shapes []Shape
}

// BuildMap projects every region of c into the layout and shades it by the
// spec's strategy. Shapes keep the collection's order.
func BuildMap(c *geo.Collection, layout Layout, spec Spec) Map {
	proj := projection.FitMercator(layout.Width, layout.Height, c.Bounds())

	m := Map{
		ID:     spec.ID,
		Title:  spec.Title,
		Width:  layout.Width,
		Height: layout.Height,
		Shapes: make([]Shape, 0, len(c.Regions)),
	}
	if spec.Scale != nil {
		m.Domain = spec.Scale.Domain()
	}

	for _, r := range c.Regions {
		v, ok := math.NaN(), false
		if spec.Strategy != nil {
			v, ok = spec.Strategy.Value(r)
		}

		fillValue := v
		if !ok && spec.ZeroMissing {
			fillValue = 0
		}

		label := r.Label(layout.LabelKeys)
		s := Shape{
			Label:    label,
			D:        proj.Path(r.Geometry),
			Tooltip:  tooltip.Text(label, v, ok),
			Value:    v,
			HasValue: ok,
		}
		if spec.Scale != nil {
			s.Fill = spec.Scale.Hex(fillValue)
		} else {
			s.Fill = colorscale.Hex(colorscale.NoData)
		}
		m.Shapes = append(m.Shapes, s)
	}
	return m
}

// Missing returns the number of shapes without a value.
func (m Map) Missing() int {
	var n int
	for _, s := range m.Shapes {
		if !s.HasValue {
			n++
		}
	}
	return n
}
