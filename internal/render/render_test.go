package render

import (
	"bytes"
	"encoding/xml"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aclements/go-gg/palette"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/choropleth/internal/colorscale"
	"github.com/sells-group/choropleth/internal/fips"
	"github.com/sells-group/choropleth/internal/geo"
	"github.com/sells-group/choropleth/internal/join"
)

var labelKeys = []string{"TOWN", "county"}

func square(x, y float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + 0.1, y}, {x + 0.1, y + 0.1}, {x, y + 0.1}, {x, y},
	}})
}

func testCollection() *geo.Collection {
	return &geo.Collection{Name: "ma", Regions: []geo.Region{
		{Geometry: square(-71.1, 42.3), Properties: map[string]any{
			"TOWN": "BOSTON", "FIPS_STCO": 25025.0, "POP1980": 562994.0, "POP2010": 617594.0,
		}},
		{Geometry: square(-70.1, 41.2), Properties: map[string]any{
			"TOWN": "NANTUCKET", "FIPS_STCO": 25019.0, "POP1980": 5087.0, "POP2010": 10172.0,
		}},
		{Geometry: square(-72.6, 42.3), Properties: map[string]any{
			"county": "Hampshire County", "FIPS_STCO": "25015", "POP1980": 138813.0,
		}},
	}}
}

func testLayout() Layout {
	return Layout{Width: 960, Height: 300, LabelKeys: labelKeys}
}

func TestStrategies(t *testing.T) {
	c := testCollection()

	v, ok := PropertyStrategy{Key: "POP1980"}.Value(c.Regions[0])
	require.True(t, ok)
	assert.Equal(t, 562994.0, v)

	v, ok = Change("POP1980", "POP2010").Value(c.Regions[1])
	require.True(t, ok)
	assert.Equal(t, 5085.0, v)

	_, ok = Change("POP1980", "POP2010").Value(c.Regions[2])
	assert.False(t, ok)

	_, ok = DerivedStrategy{}.Value(c.Regions[0])
	assert.False(t, ok)

	lookup := join.FromMap(map[int]float64{25025: 0.5389}, fips.MassachusettsCounties())
	s := LookupStrategy{Lookup: lookup, CodeKey: "FIPS_STCO"}
	v, ok = s.Value(c.Regions[0])
	require.True(t, ok)
	assert.Equal(t, 0.5389, v)
	_, ok = s.Value(c.Regions[1])
	assert.False(t, ok)

	inf := LookupStrategy{Lookup: join.FromMap(map[int]float64{25025: math.Inf(1)}, fips.MassachusettsCounties()), CodeKey: "FIPS_STCO"}
	_, ok = inf.Value(c.Regions[0])
	assert.False(t, ok, "infinite joined values are unavailable")
}

func TestBuildMap_Property(t *testing.T) {
	c := testCollection()
	d, ok := colorscale.SequentialDomain(c.Numbers("POP1980"))
	require.True(t, ok)

	m := BuildMap(c, testLayout(), Spec{
		ID:       "fig1",
		Strategy: PropertyStrategy{Key: "POP1980"},
		Scale:    colorscale.NewLinear(d, colorscale.PopulationLow, colorscale.PopulationHigh),
	})

	require.Len(t, m.Shapes, 3)
	assert.Equal(t, "#08306b", m.Shapes[0].Fill, "max population takes the dark end")
	assert.Equal(t, "#f7fbff", m.Shapes[1].Fill, "min population takes the light end")
	interior := m.Shapes[2].Fill
	assert.NotEqual(t, "#08306b", interior)
	assert.NotEqual(t, "#f7fbff", interior, "interior populations blend between the ends")
	assert.Equal(t, "BOSTON: 562994", m.Shapes[0].Tooltip)
	assert.Equal(t, "Hampshire County: 138813", m.Shapes[2].Tooltip)
	assert.Equal(t, colorscale.Domain{5087, 562994}, m.Domain)
	for _, s := range m.Shapes {
		assert.True(t, strings.HasPrefix(s.D, "M"))
		assert.True(t, strings.HasSuffix(s.D, "Z"))
	}
}

func TestBuildMap_DerivedMissingUsesNoData(t *testing.T) {
	c := testCollection()
	d, ok := colorscale.DivergingDomain(c.Deltas("POP1980", "POP2010"))
	require.True(t, ok)

	m := BuildMap(c, testLayout(), Spec{
		ID:       "fig2",
		Strategy: Change("POP1980", "POP2010"),
		Scale:    colorscale.NewDiverging(d, colorscale.RdBu),
	})

	assert.Equal(t, "BOSTON: 54600", m.Shapes[0].Tooltip)
	assert.Equal(t, "#053061", m.Shapes[0].Fill)
	assert.Equal(t, "Hampshire County: N/A", m.Shapes[2].Tooltip)
	assert.Equal(t, "#cccccc", m.Shapes[2].Fill)
	assert.Equal(t, 1, m.Missing())
}

func TestBuildMap_LookupMissFillsZeroTooltipNA(t *testing.T) {
	c := testCollection()
	lookup := join.FromMap(map[int]float64{25025: 0.5, 25015: 0.4}, fips.MassachusettsCounties())
	d, ok := colorscale.LookupDomain(lookup)
	require.True(t, ok)
	scale := colorscale.NewSequential(d, palette.Viridis)

	m := BuildMap(c, testLayout(), Spec{
		ID:          "fig3",
		Strategy:    LookupStrategy{Lookup: lookup, CodeKey: "FIPS_STCO"},
		Scale:       scale,
		ZeroMissing: true,
	})

	miss := m.Shapes[1]
	assert.False(t, miss.HasValue)
	assert.Equal(t, "NANTUCKET: N/A", miss.Tooltip)
	assert.Equal(t, scale.Hex(0), miss.Fill, "miss is colored as value 0")
	assert.NotEqual(t, "#cccccc", miss.Fill)

	assert.Equal(t, "BOSTON: 0.5", m.Shapes[0].Tooltip)
	assert.Equal(t, "Hampshire County: 0.4", m.Shapes[2].Tooltip, "string codes join too")

	unified := BuildMap(c, testLayout(), Spec{
		ID:       "fig3",
		Strategy: LookupStrategy{Lookup: lookup, CodeKey: "FIPS_STCO"},
		Scale:    scale,
	})
	assert.Equal(t, "#cccccc", unified.Shapes[1].Fill)
	assert.Equal(t, "NANTUCKET: N/A", unified.Shapes[1].Tooltip)
}

func TestBuildMap_RegionWithoutGeometry(t *testing.T) {
	c := &geo.Collection{Regions: []geo.Region{{Properties: map[string]any{"TOWN": "GHOST", "POP1980": 1.0}}}}
	m := BuildMap(c, testLayout(), Spec{ID: "fig1", Strategy: PropertyStrategy{Key: "POP1980"}})
	require.Len(t, m.Shapes, 1)
	assert.Empty(t, m.Shapes[0].D)
	assert.Equal(t, "#cccccc", m.Shapes[0].Fill)
}

func TestWriteSVG(t *testing.T) {
	c := testCollection()
	c.Regions[0].Properties["TOWN"] = `BOSTON "HUB" & <co>`
	m := BuildMap(c, testLayout(), Spec{
		ID:       "fig1",
		Title:    "1980 population",
		Strategy: PropertyStrategy{Key: "POP1980"},
		Scale:    colorscale.NewLinear(colorscale.Domain{0, 600000}, colorscale.PopulationLow, colorscale.PopulationHigh),
	})

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, m))
	out := buf.String()

	assert.Contains(t, out, `viewBox="0 0 960 300"`)
	assert.Contains(t, out, "<title>1980 population</title>")
	assert.Equal(t, 3, strings.Count(out, "<path "))
	assert.Contains(t, out, `data-tip="BOSTON &#34;HUB&#34; &amp; &lt;co&gt;: 562994"`)
	assert.Contains(t, out, `data-value="5087"`)

	// The document must be well-formed XML.
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestWritePage(t *testing.T) {
	c := testCollection()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	maps := []Map{
		BuildMap(c, testLayout(), Spec{ID: "fig1", Title: "Population, 1980", Strategy: PropertyStrategy{Key: "POP1980"},
			Scale: colorscale.NewLinear(colorscale.Domain{0, 1}, colorscale.PopulationLow, colorscale.PopulationHigh)}),
		BuildMap(c, testLayout(), Spec{ID: "fig2", Strategy: Change("POP1980", "POP2010")}),
		BuildMap(c, testLayout(), Spec{ID: "fig3", Strategy: PropertyStrategy{Key: "none"}}),
	}

	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, Page{Title: "Massachusetts", Maps: maps, Clock: clock}))
	out := buf.String()

	for _, id := range []string{"fig1", "fig2", "fig3"} {
		assert.Contains(t, out, `class="fig `+id+`"`)
	}
	assert.Equal(t, 1, strings.Count(out, `id="tooltip"`))
	assert.Equal(t, 3, strings.Count(out, "<svg"))
	assert.NotContains(t, out, "<?xml")
	assert.Contains(t, out, "Generated 2024-03-01 12:00:00 UTC")
	assert.Contains(t, out, "Domain: [0, 1]")
	assert.Contains(t, out, `addEventListener("mouseleave"`)
}
