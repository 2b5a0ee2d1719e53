// Package visualization turns render commands into SVG, JSON and HTML, and
// serves them from a local HTTP server.
package visualization

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
	"github.com/nvandessel/chartline/internal/sanitize"
)

// Format specifies the output format for a rendered view.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat maps a user-supplied format name to a Format. Empty means SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", &chart.InvalidArgumentError{Name: "format", Reason: "must be svg, json or html; got " + s}
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "image/svg+xml"
	}
}

// RenderSVG writes rc as a standalone SVG document. Plot-space commands are
// placed inside a group translated by the margins.
func RenderSVG(rc chart.RenderCommands) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="chart" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(rc.CanvasWidth), num(rc.CanvasHeight), num(rc.CanvasWidth), num(rc.CanvasHeight))
	fmt.Fprintf(&b, `  <g transform="translate(%s,%s)">`+"\n", num(rc.Margin.Left), num(rc.Margin.Top))

	for _, c := range rc.Commands {
		switch c.Kind {
		case chart.KindAxis:
			fmt.Fprintf(&b, `    <line class="axis axis-%s" x1="%s" y1="%s" x2="%s" y2="%s"%s/>`+"\n",
				c.Axis, num(c.X), num(c.Y), num(c.X2), num(c.Y2), strokeAttrs(c.Style))
		case chart.KindTick:
			fmt.Fprintf(&b, `    <line class="tick tick-%s" x1="%s" y1="%s" x2="%s" y2="%s"%s/>`+"\n",
				c.Axis, num(c.X), num(c.Y), num(c.X2), num(c.Y2), strokeAttrs(c.Style))
			writeTickLabel(&b, c)
		case chart.KindPoint:
			fmt.Fprintf(&b, `    <circle class="data-point" cx="%s" cy="%s" r="%s" fill="%s"`,
				num(c.X), num(c.Y), num(c.Radius), escape(c.Style.Fill))
			if label := sanitize.Label(c.Label); label != "" {
				fmt.Fprintf(&b, ` data-category="%s"`, escape(label))
			}
			b.WriteString("/>\n")
		case chart.KindPolyline:
			fmt.Fprintf(&b, `    <path class="line-chart" d="%s" fill="none"%s/>`+"\n",
				pathData(c.Points), strokeAttrs(c.Style))
		}
	}

	b.WriteString("  </g>\n</svg>\n")
	return []byte(b.String())
}

func writeTickLabel(b *strings.Builder, c chart.Command) {
	label := sanitize.Label(c.Label)
	if label == "" {
		return
	}
	switch c.Axis {
	case chart.AxisX:
		fmt.Fprintf(b, `    <text class="tick-label tick-label-x" x="%s" y="%s" text-anchor="middle" dominant-baseline="hanging">%s</text>`+"\n",
			num(c.X2), num(c.Y2+3), escape(label))
	case chart.AxisY:
		fmt.Fprintf(b, `    <text class="tick-label tick-label-y" x="%s" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			num(c.X2-3), num(c.Y2), escape(label))
	}
}

func strokeAttrs(s chart.Style) string {
	var b strings.Builder
	if s.Stroke != "" {
		fmt.Fprintf(&b, ` stroke="%s"`, escape(s.Stroke))
	}
	if s.StrokeWidth > 0 {
		fmt.Fprintf(&b, ` stroke-width="%s"`, num(s.StrokeWidth))
	}
	return b.String()
}

func pathData(points []chart.Vec) string {
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X))
		b.WriteString(",")
		b.WriteString(num(p.Y))
	}
	return b.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// RenderJSON produces a JSON-ready representation of rc.
func RenderJSON(rc chart.RenderCommands) map[string]any {
	return map[string]any{
		"canvas":        map[string]float64{"width": rc.CanvasWidth, "height": rc.CanvasHeight},
		"plot":          map[string]float64{"width": rc.PlotWidth, "height": rc.PlotHeight},
		"margin":        rc.Margin,
		"x_domain":      rc.XDomain,
		"y_domain":      rc.YDomain,
		"commands":      rc.Commands,
		"command_count": len(rc.Commands),
		"point_count":   rc.Count(chart.KindPoint),
	}
}

// filterChoice is one entry of the page's filter dropdown.
type filterChoice struct {
	Value    string
	Selected bool
}

// htmlView is one pre-rendered chart on the page. Only the active one is visible.
type htmlView struct {
	Option     string
	SVG        template.HTML
	Active     bool
	PointCount int
}

// htmlTemplateData holds data passed to the HTML template.
// SVG is produced by RenderSVG, which escapes every label it emits.
// ViewsJSON is pre-sanitized via json.HTMLEscape, safe for inline <script>.
type htmlTemplateData struct {
	Title      string
	Views      []htmlView
	ViewsJSON  template.JS
	Filters    []filterChoice
	Active     string
	APIBaseURL string
	PointCount int
}

// RenderHTML produces a page with the inline SVG chart for active and a
// filter dropdown that reloads the view from the server at apiBaseURL. An
// empty apiBaseURL reloads from the page's own origin.
func RenderHTML(rc chart.RenderCommands, active models.FilterOption, apiBaseURL string) ([]byte, error) {
	if !active.Valid() {
		active = models.FilterAll
	}
	return renderPage([]chart.OptionView{{Option: active, Commands: rc}}, active, apiBaseURL)
}

// RenderStaticHTML produces a self-contained page that embeds one chart per
// view. The dropdown switches between them without a server.
func RenderStaticHTML(views []chart.OptionView, active models.FilterOption) ([]byte, error) {
	if len(views) == 0 {
		return nil, &chart.InvalidArgumentError{Name: "views", Reason: "at least one view is required"}
	}
	if !slices.ContainsFunc(views, func(v chart.OptionView) bool { return v.Option == active }) {
		active = views[0].Option
	}
	return renderPage(views, active, "")
}

func renderPage(views []chart.OptionView, active models.FilterOption, apiBaseURL string) ([]byte, error) {
	byOption := make(map[string]map[string]any, len(views))
	pageViews := make([]htmlView, 0, len(views))
	pointCount := 0
	for _, v := range views {
		byOption[string(v.Option)] = RenderJSON(v.Commands)
		n := v.Commands.Count(chart.KindPoint)
		if v.Option == active {
			pointCount = n
		}
		pageViews = append(pageViews, htmlView{
			Option:     string(v.Option),
			SVG:        template.HTML(RenderSVG(v.Commands)), // #nosec G203
			Active:     v.Option == active,
			PointCount: n,
		})
	}
	viewsJSON, err := json.Marshal(byOption)
	if err != nil {
		return nil, fmt.Errorf("marshal views: %w", err)
	}

	tmplBytes, err := templates.ReadFile("templates/chart.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("chart").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, viewsJSON)

	filters := make([]filterChoice, 0, len(models.FilterOptions))
	for _, opt := range models.FilterOptions {
		filters = append(filters, filterChoice{Value: string(opt), Selected: opt == active})
	}

	data := htmlTemplateData{
		Title:      "chartline",
		Views:      pageViews,
		ViewsJSON:  template.JS(escaped.String()), // #nosec G203
		Filters:    filters,
		Active:     string(active),
		APIBaseURL: apiBaseURL,
		PointCount: pointCount,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}
