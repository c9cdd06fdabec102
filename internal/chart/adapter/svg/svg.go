// Package svg serializes drawing trees as standalone SVG documents.
package svg

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"xp-dashboard/internal/chart/draw"
	"xp-dashboard/internal/chart/render"
)

// ContentType is the media type of Encode output.
const ContentType = "image/svg+xml"

// Options configures the encoder.
type Options struct {
	// Hover supplies tooltip text for shapes carrying a data point. The text
	// is emitted as a <title> child, which browsers show on pointer hover.
	Hover render.HoverFunc
	// FontFamily is applied to the root element.
	FontFamily string
}

// DefaultOptions uses the point tooltip for markers and bars.
func DefaultOptions() Options {
	return Options{
		Hover: func(p draw.DataPoint) string {
			if p.Series == render.SeriesBar {
				return render.BarTooltip(p)
			}
			return render.PointTooltip(p)
		},
		FontFamily: "sans-serif",
	}
}

// Render returns the SVG markup of doc.
func Render(doc draw.Document, opts Options) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = Encode(&buf, doc, opts)
	return buf.Bytes()
}

// Encode writes the SVG markup of doc to w.
func Encode(w io.Writer, doc draw.Document, opts Options) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw, opts: opts}
	e.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" role="%s" aria-label="%s"`,
		draw.Num(doc.Width), draw.Num(doc.Height), draw.Num(doc.Width), draw.Num(doc.Height), attr(doc.Role), attr(doc.Title))
	if opts.FontFamily != "" {
		e.printf(` font-family="%s"`, attr(opts.FontFamily))
	}
	e.printf(">")
	if doc.Title != "" {
		e.printf("<title>%s</title>", text(doc.Title))
	}
	e.group(doc.Root)
	e.printf("</svg>")
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type encoder struct {
	w    *bufio.Writer
	opts Options
	err  error
}

func (e *encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *encoder) shape(s draw.Shape) {
	switch v := s.(type) {
	case draw.Group:
		e.group(v)
	case draw.Path:
		e.printf(`<path d="%s"%s%s`, attr(v.Data.String()), style(v.Style), class(v.Class))
		if v.Label != "" {
			e.printf(` aria-label="%s"><title>%s</title></path>`, attr(v.Label), text(v.Label))
			return
		}
		e.printf("/>")
	case draw.Line:
		e.printf(`<line x1="%s" y1="%s" x2="%s" y2="%s"%s%s/>`,
			draw.Num(v.X1), draw.Num(v.Y1), draw.Num(v.X2), draw.Num(v.Y2), style(v.Style), class(v.Class))
	case draw.Circle:
		e.printf(`<circle cx="%s" cy="%s" r="%s"%s%s`, draw.Num(v.CX), draw.Num(v.CY), draw.Num(v.R), style(v.Style), class(v.Class))
		e.hoverable(v.Point, "circle")
	case draw.Rect:
		e.printf(`<rect x="%s" y="%s" width="%s" height="%s"%s%s`,
			draw.Num(v.X), draw.Num(v.Y), draw.Num(v.Width), draw.Num(v.Height), style(v.Style), class(v.Class))
		e.hoverable(v.Point, "rect")
	case draw.Text:
		e.printf(`<text x="%s" y="%s"`, draw.Num(v.X), draw.Num(v.Y))
		if v.Anchor != "" {
			e.printf(` text-anchor="%s"`, attr(string(v.Anchor)))
		}
		if v.Central {
			e.printf(` dominant-baseline="central"`)
		}
		e.printf(`%s%s>%s</text>`, style(v.Style), class(v.Class), text(v.Content))
	}
}

func (e *encoder) group(g draw.Group) {
	e.printf("<g")
	if g.Translate.X != 0 || g.Translate.Y != 0 {
		e.printf(` transform="translate(%s,%s)"`, draw.Num(g.Translate.X), draw.Num(g.Translate.Y))
	}
	if g.Label != "" {
		e.printf(` aria-label="%s"`, attr(g.Label))
	}
	e.printf("%s>", class(g.Class))
	for _, child := range g.Children {
		e.shape(child)
	}
	e.printf("</g>")
}

// hoverable closes an element opened by shape, attaching the data point and
// its tooltip when present.
func (e *encoder) hoverable(p *draw.DataPoint, tag string) {
	if p == nil {
		e.printf("/>")
		return
	}
	e.printf(` data-series="%s" data-index="%d" data-label="%s" data-value="%s" tabindex="0">`,
		attr(p.Series), p.Index, attr(p.Label), draw.Num(p.Value))
	if e.opts.Hover != nil {
		e.printf("<title>%s</title>", text(e.opts.Hover(*p)))
	}
	e.printf("</%s>", tag)
}

func style(s draw.Style) string {
	var b bytes.Buffer
	if s.Fill != "" {
		fmt.Fprintf(&b, ` fill="%s"`, attr(s.Fill))
	}
	if s.Stroke != "" {
		fmt.Fprintf(&b, ` stroke="%s"`, attr(s.Stroke))
	}
	if s.StrokeWidth != 0 {
		fmt.Fprintf(&b, ` stroke-width="%s"`, draw.Num(s.StrokeWidth))
	}
	if s.Opacity != 0 {
		fmt.Fprintf(&b, ` opacity="%s"`, draw.Num(s.Opacity))
	}
	if s.FontSize != 0 {
		fmt.Fprintf(&b, ` font-size="%s"`, draw.Num(s.FontSize))
	}
	if s.FontWeight != "" {
		fmt.Fprintf(&b, ` font-weight="%s"`, attr(s.FontWeight))
	}
	return b.String()
}

func class(c string) string {
	if c == "" {
		return ""
	}
	return ` class="` + attr(c) + `"`
}

func text(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func attr(s string) string { return text(s) }
