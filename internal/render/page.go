package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/tooltip"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

// TooltipID is the id of the page's single tooltip element.
const TooltipID = "tooltip"

// Page is an HTML document holding every map and one shared tooltip.
type Page struct {
	Title string
	Maps  []Map
	Clock clockwork.Clock // stamps the footer; nil uses the real clock
}

type pageMap struct {
	ID     string
	Title  string
	SVG    template.HTML
	Domain string
}

type pageData struct {
	Title     string
	TooltipID string
	Maps      []pageMap
	Generated time.Time
	Script    template.JS
}

// WritePage renders p. Each map is inlined inside a div carrying the map's
// ID as a class, so fig1..fig3 can be addressed by selector.
func WritePage(w io.Writer, p Page) error {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	data := pageData{
		Title:     p.Title,
		TooltipID: TooltipID,
		Maps:      make([]pageMap, 0, len(p.Maps)),
		Generated: clock.Now(),
		Script:    tooltip.Script(TooltipID, "path[data-tip]"),
	}
	for _, m := range p.Maps {
		data.Maps = append(data.Maps, pageMap{
			ID:     m.ID,
			Title:  m.Title,
			SVG:    inlineSVG(m),
			Domain: formatDomain(m),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return eris.Wrap(err, "render: execute page template")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return eris.Wrap(err, "render: write page")
	}
	return nil
}

func formatDomain(m Map) string {
	if len(m.Domain) == 0 {
		return ""
	}
	parts := make([]string, len(m.Domain))
	for i, v := range m.Domain {
		parts[i] = tooltip.FormatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
