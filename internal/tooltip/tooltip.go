// Package tooltip models the single hover tooltip shared by every map on a
// page, and renders the browser-side handlers that drive it.
package tooltip

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
)

// Offset is the distance in pixels between the pointer and the tooltip's
// top-left corner on both axes.
const Offset = 10

// NA is shown in place of a value that is missing or not a number.
const NA = "N/A"

// Tooltip is the tooltip's visible state. The zero value is hidden.
type Tooltip struct {
	Opacity float64
	Left    float64
	Top     float64
	Text    string
}

// Enter shows the tooltip with text, positioned from the pointer's page
// coordinates.
func (t *Tooltip) Enter(text string, pageX, pageY float64) {
	t.Opacity = 1
	t.Text = text
	t.Move(pageX, pageY)
}

// Move repositions the tooltip. Visibility and text are unchanged.
func (t *Tooltip) Move(pageX, pageY float64) {
	t.Left = pageX + Offset
	t.Top = pageY + Offset
}

// Leave hides the tooltip. Its last position and text are kept.
func (t *Tooltip) Leave() {
	t.Opacity = 0
}

// Visible reports whether the tooltip is shown.
func (t *Tooltip) Visible() bool {
	return t.Opacity > 0
}

// Style renders the state as an inline CSS declaration list.
func (t *Tooltip) Style() string {
	return fmt.Sprintf("opacity:%s;left:%spx;top:%spx",
		FormatValue(t.Opacity), FormatValue(t.Left), FormatValue(t.Top))
}

// Text formats a tooltip line as "label: value", with NA when ok is false
// or v is NaN.
func Text(label string, v float64, ok bool) string {
	if !ok || math.IsNaN(v) {
		return label + ": " + NA
	}
	return label + ": " + FormatValue(v)
}

// FormatValue formats v in the shortest form that round-trips, without an
// exponent.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Script returns the page script that binds enter, move and leave handlers
// on every element matching selector. The handlers read the tooltip text
// from the element's data-tip attribute and drive the element with the
// given id the same way Tooltip does.
func Script(id, selector string) template.JS {
	return template.JS(fmt.Sprintf(`(function () {
  var tip = document.getElementById(%[1]q);
  if (!tip) { return; }
  function place(e) {
    tip.style.left = (e.pageX + %[3]d) + "px";
    tip.style.top = (e.pageY + %[3]d) + "px";
  }
  document.querySelectorAll(%[2]q).forEach(function (el) {
    el.addEventListener("mouseenter", function (e) {
      tip.textContent = el.getAttribute("data-tip");
      tip.style.opacity = 1;
      place(e);
    });
    el.addEventListener("mousemove", place);
    el.addEventListener("mouseleave", function () {
      tip.style.opacity = 0;
    });
  });
})();`, id, selector, Offset))
}
