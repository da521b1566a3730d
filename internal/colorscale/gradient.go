package colorscale

import (
	"image/color"
	"math"

	"github.com/aclements/go-gg/palette"
)

// gradient is an evenly spaced palette.Continuous that blends neighboring
// stops channel by channel in sRGB. palette.RGBGradient returns its first
// color for the whole first segment, so ramps with few stops use this.
type gradient []color.RGBA

var _ palette.Continuous = gradient(nil)

// Map returns the color at x, clamped to [0, 1].
func (g gradient) Map(x float64) color.Color {
	switch {
	case len(g) == 0:
		return NoData
	case len(g) == 1 || x <= 0 || math.IsNaN(x):
		return g[0]
	case x >= 1:
		return g[len(g)-1]
	}

	n := x * float64(len(g)-1)
	i := min(int(n), len(g)-2)
	fr := n - float64(i)
	a, b := g[i], g[i+1]
	return color.RGBA{
		R: lerp8(a.R, b.R, fr),
		G: lerp8(a.G, b.G, fr),
		B: lerp8(a.B, b.B, fr),
		A: lerp8(a.A, b.A, fr),
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
