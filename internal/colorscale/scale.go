package colorscale

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-moremath/scale"
	"github.com/rotisserie/eris"
)

// Default colors.
var (
	// PopulationLow and PopulationHigh bound the two-color population ramp.
	PopulationLow  = color.RGBA{0xf7, 0xfb, 0xff, 0xff}
	PopulationHigh = color.RGBA{0x08, 0x30, 0x6b, 0xff}

	// NoData fills values that are NaN or have no domain to map into.
	NoData = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
)

// RdBu is the 11-class ColorBrewer red-blue diverging palette, red at 0.
var RdBu palette.Continuous = gradient{
	{0x67, 0x00, 0x1f, 0xff},
	{0xb2, 0x18, 0x2b, 0xff},
	{0xd6, 0x60, 0x4d, 0xff},
	{0xf4, 0xa5, 0x82, 0xff},
	{0xfd, 0xdb, 0xc7, 0xff},
	{0xf7, 0xf7, 0xf7, 0xff},
	{0xd1, 0xe5, 0xf0, 0xff},
	{0x92, 0xc5, 0xde, 0xff},
	{0x43, 0x93, 0xc3, 0xff},
	{0x21, 0x66, 0xac, 0xff},
	{0x05, 0x30, 0x61, 0xff},
}

// Scale maps numeric values to colors. Its domain is fixed at construction.
type Scale struct {
	domain  Domain
	palette palette.Continuous
	noData  color.Color
}

// NewLinear returns a sequential scale that blends from lo to hi across d.
func NewLinear(d Domain, lo, hi color.RGBA) *Scale {
	return &Scale{
		domain:  d,
		palette: gradient{lo, hi},
		noData:  NoData,
	}
}

// NewSequential returns a sequential scale over d using p, typically
// palette.Viridis.
func NewSequential(d Domain, p palette.Continuous) *Scale {
	return &Scale{domain: d, palette: p, noData: NoData}
}

// NewDiverging returns a scale over a three-stop domain using p, placing
// the domain midpoint at the palette's center.
func NewDiverging(d Domain, p palette.Continuous) *Scale {
	return &Scale{domain: d, palette: p, noData: NoData}
}

// WithNoData sets the color used for NaN values and returns s.
func (s *Scale) WithNoData(c color.Color) *Scale {
	s.noData = c
	return s
}

// Domain returns a copy of the scale's domain.
func (s *Scale) Domain() Domain {
	out := make(Domain, len(s.domain))
	copy(out, s.domain)
	return out
}

// NoDataColor returns the color used for unavailable values.
func (s *Scale) NoDataColor() color.Color {
	return s.noData
}

// Position returns v's position on the palette, in [0, 1] for values inside
// the domain. A flat domain side maps to 0.5. It returns NaN when v is NaN
// or the scale has no domain.
func (s *Scale) Position(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	switch len(s.domain) {
	case 2:
		return unit(s.domain[0], s.domain[1], v)
	case 3:
		lo, mid, hi := s.domain[0], s.domain[1], s.domain[2]
		if v < mid {
			return 0.5 * unit(lo, mid, v)
		}
		return 0.5 + 0.5*unit(mid, hi, v)
	default:
		return math.NaN()
	}
}

// unit maps v from [lo, hi] onto [0, 1], or 0.5 when lo == hi.
func unit(lo, hi, v float64) float64 {
	if lo == hi {
		return 0.5
	}
	l := scale.Linear{Min: lo, Max: hi}
	return l.Map(v)
}

// Color returns the color for v.
func (s *Scale) Color(v float64) color.Color {
	t := s.Position(v)
	if math.IsNaN(t) {
		return s.noData
	}
	return s.palette.Map(t)
}

// Hex returns the color for v as #rrggbb.
func (s *Scale) Hex(v float64) string {
	return Hex(s.Color(v))
}

// Hex formats c as #rrggbb, ignoring alpha.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// ParseHex parses #rgb or #rrggbb.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, eris.Errorf("colorscale: invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, eris.Wrapf(err, "colorscale: invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}
