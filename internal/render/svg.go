package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/tooltip"
)

// Stroke drawn between regions.
const (
	strokeColor = "#ffffff"
	strokeWidth = "0.5"
)

// WriteSVG writes m as a standalone SVG document. Every region with
// geometry becomes a path carrying its fill, label and tooltip text.
func WriteSVG(w io.Writer, m Map) error {
	var buf bytes.Buffer
	encodeSVG(&buf, m)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return eris.Wrap(err, "render: write svg")
	}
	return nil
}

// inlineSVG renders m for embedding in an HTML page, without the XML
// declaration svgo emits for standalone documents.
func inlineSVG(m Map) template.HTML {
	var buf bytes.Buffer
	encodeSVG(&buf, m)
	b := buf.Bytes()
	if i := bytes.Index(b, []byte("<svg")); i > 0 {
		b = b[i:]
	}
	return template.HTML(b) //nolint:gosec // attribute values are escaped in encodeSVG
}

func encodeSVG(w io.Writer, m Map) {
	width := int(math.Round(m.Width))
	height := int(math.Round(m.Height))

	canvas := svg.New(w)
	canvas.Startview(width, height, 0, 0, width, height)
	if m.Title != "" {
		canvas.Title(m.Title)
	}
	canvas.Group(
		attr("class", "regions"),
		attr("stroke", strokeColor),
		attr("stroke-width", strokeWidth),
		attr("fill-rule", "evenodd"),
	)
	for _, s := range m.Shapes {
		if s.D == "" {
			continue
		}
		attrs := []string{
			attr("fill", s.Fill),
			attr("data-label", s.Label),
			attr("data-tip", s.Tooltip),
		}
		if s.HasValue {
			attrs = append(attrs, attr("data-value", tooltip.FormatValue(s.Value)))
		}
		canvas.Path(s.D, attrs...)
	}
	canvas.Gend()
	canvas.End()
}

// attr formats an XML attribute. svgo writes arguments containing "=" as
// raw attributes.
func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}
