package geo

import (
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// topology is the subset of the TopoJSON format needed to rebuild
// polygonal features.
type topology struct {
	Type      string                `json:"type"`
	Transform *topoTransform        `json:"transform"`
	Arcs      [][][]float64         `json:"arcs"`
	Objects   map[string]topoObject `json:"objects"`
}

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoObject struct {
	Type       string          `json:"type"`
	Arcs       json.RawMessage `json:"arcs"`
	Properties map[string]any  `json:"properties"`
	Geometries []topoObject    `json:"geometries"`
}

// DecodeTopoJSON decodes the named object of a TopoJSON topology into a
// collection, one region per geometry. With an empty name the topology must
// hold exactly one object.
func DecodeTopoJSON(data []byte, object string) (*Collection, error) {
	var topo topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, eris.Wrap(err, "geo: decode topojson")
	}
	if topo.Type != "Topology" {
		return nil, eris.Errorf("geo: expected Topology, got %q", topo.Type)
	}

	name, obj, err := topo.object(object)
	if err != nil {
		return nil, err
	}

	arcs := topo.decodeArcs()
	c := &Collection{Name: name}

	geoms := []topoObject{obj}
	if obj.Type == "GeometryCollection" {
		geoms = obj.Geometries
	}

	var skipped int
	for _, g := range geoms {
		region, ok, err := g.region(arcs)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: topojson object %q", name)
		}
		if !ok {
			skipped++
			continue
		}
		c.Regions = append(c.Regions, region)
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon topojson geometries",
			zap.String("object", name),
			zap.Int("skipped", skipped),
		)
	}
	return c, nil
}

func (t *topology) object(name string) (string, topoObject, error) {
	if name != "" {
		obj, ok := t.Objects[name]
		if !ok {
			return "", topoObject{}, eris.Errorf("geo: topojson object %q not found (have %v)", name, t.objectNames())
		}
		return name, obj, nil
	}
	if len(t.Objects) != 1 {
		return "", topoObject{}, eris.Errorf("geo: topojson object name required (have %v)", t.objectNames())
	}
	for n, obj := range t.Objects {
		return n, obj, nil
	}
	return "", topoObject{}, nil
}

func (t *topology) objectNames() []string {
	names := make([]string, 0, len(t.Objects))
	for n := range t.Objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// decodeArcs returns absolute coordinates for every arc, undoing the
// quantization transform and delta encoding when present.
func (t *topology) decodeArcs() [][]geom.Coord {
	out := make([][]geom.Coord, len(t.Arcs))
	for i, arc := range t.Arcs {
		pts := make([]geom.Coord, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t.Transform == nil {
				pts = append(pts, geom.Coord{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, geom.Coord{
				x*t.Transform.Scale[0] + t.Transform.Translate[0],
				y*t.Transform.Scale[1] + t.Transform.Translate[1],
			})
		}
		out[i] = pts
	}
	return out
}

// region converts one geometry object. ok is false for types that cannot
// be filled (points, lines).
func (o topoObject) region(arcs [][]geom.Coord) (Region, bool, error) {
	props := o.Properties
	if props == nil {
		props = map[string]any{}
	}

	switch o.Type {
	case "", "null":
		return Region{Properties: props}, true, nil

	case "Polygon":
		var idx [][]int
		if err := json.Unmarshal(o.Arcs, &idx); err != nil {
			return Region{}, false, eris.Wrap(err, "polygon arcs")
		}
		rings, err := stitchRings(idx, arcs)
		if err != nil {
			return Region{}, false, err
		}
		poly, err := geom.NewPolygon(geom.XY).SetCoords(rings)
		if err != nil {
			return Region{}, false, eris.Wrap(err, "build polygon")
		}
		return Region{Properties: props, Geometry: poly}, true, nil

	case "MultiPolygon":
		var idx [][][]int
		if err := json.Unmarshal(o.Arcs, &idx); err != nil {
			return Region{}, false, eris.Wrap(err, "multipolygon arcs")
		}
		polys := make([][][]geom.Coord, 0, len(idx))
		for _, p := range idx {
			rings, err := stitchRings(p, arcs)
			if err != nil {
				return Region{}, false, err
			}
			polys = append(polys, rings)
		}
		mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(polys)
		if err != nil {
			return Region{}, false, eris.Wrap(err, "build multipolygon")
		}
		return Region{Properties: props, Geometry: mp}, true, nil

	default:
		return Region{}, false, nil
	}
}

func stitchRings(rings [][]int, arcs [][]geom.Coord) ([][]geom.Coord, error) {
	out := make([][]geom.Coord, 0, len(rings))
	for _, r := range rings {
		ring, err := stitchRing(r, arcs)
		if err != nil {
			return nil, err
		}
		out = append(out, ring)
	}
	return out, nil
}

// stitchRing joins arcs end to end. Consecutive arcs share an endpoint, so
// the previous arc's last point is dropped before appending the next one.
// A negative index ^i means arc i traversed in reverse.
func stitchRing(indices []int, arcs [][]geom.Coord) ([]geom.Coord, error) {
	var pts []geom.Coord
	for _, i := range indices {
		reversed := i < 0
		if reversed {
			i = ^i
		}
		if i >= len(arcs) {
			return nil, eris.Errorf("arc index %d out of range (%d arcs)", i, len(arcs))
		}
		if len(pts) > 0 {
			pts = pts[:len(pts)-1]
		}
		start := len(pts)
		for _, c := range arcs[i] {
			pts = append(pts, geom.Coord{c[0], c[1]})
		}
		if reversed {
			seg := pts[start:]
			for a, b := 0, len(seg)-1; a < b; a, b = a+1, b-1 {
				seg[a], seg[b] = seg[b], seg[a]
			}
		}
	}
	// Degenerate rings are padded so a ring always has four positions.
	for len(pts) > 0 && len(pts) < 4 {
		pts = append(pts, pts[0])
	}
	return pts, nil
}
