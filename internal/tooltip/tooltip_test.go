package tooltip

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTooltip_HoverSequence(t *testing.T) {
	var tip Tooltip
	assert.False(t, tip.Visible())

	type step struct {
		opacity   float64
		left, top float64
	}
	var got []step
	record := func() { got = append(got, step{tip.Opacity, tip.Left, tip.Top}) }

	tip.Enter("Boston: 562994", 100, 200)
	record()
	tip.Move(120, 210)
	record()
	tip.Move(130, 215)
	record()
	tip.Leave()
	record()

	assert.Equal(t, []step{
		{1, 110, 210},
		{1, 130, 220},
		{1, 140, 225},
		{0, 140, 225},
	}, got)
	assert.Equal(t, "Boston: 562994", tip.Text, "leave keeps the last text")
}

func TestTooltip_ReEnterReplacesText(t *testing.T) {
	var tip Tooltip
	tip.Enter("A: 1", 0, 0)
	tip.Leave()
	tip.Enter("B: 2", 5, 5)
	assert.True(t, tip.Visible())
	assert.Equal(t, "B: 2", tip.Text)
	assert.Equal(t, "opacity:1;left:15px;top:15px", tip.Style())
}

func TestText(t *testing.T) {
	assert.Equal(t, "Suffolk County: 0.5123", Text("Suffolk County", 0.5123, true))
	assert.Equal(t, "Boston: 617594", Text("Boston", 617594, true))
	assert.Equal(t, "Nantucket: -25", Text("Nantucket", -25, true))
	assert.Equal(t, "Dukes County: N/A", Text("Dukes County", 0, false))
	assert.Equal(t, "Dukes County: N/A", Text("Dukes County", math.NaN(), true))
	assert.Equal(t, "Hull: 0", Text("Hull", 0, true))
}

func TestScript(t *testing.T) {
	js := string(Script("tooltip", "path[data-tip]"))
	assert.Contains(t, js, `document.getElementById("tooltip")`)
	assert.Contains(t, js, `querySelectorAll("path[data-tip]")`)
	assert.Equal(t, 2, strings.Count(js, "+ 10)"))
	assert.Contains(t, js, "tip.style.opacity = 0")
}
