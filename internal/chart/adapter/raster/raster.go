// Package raster paints drawing trees onto RGBA images and encodes them as PNG.
package raster

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"xp-dashboard/internal/chart/draw"
)

// ContentType is the media type of Encode output.
const ContentType = "image/png"

// Options configures rasterization.
type Options struct {
	// Scale multiplies every coordinate; 2 produces a high-density image.
	Scale      float64
	Background color.Color
}

// DefaultOptions paints at 1x on white.
func DefaultOptions() Options {
	return Options{Scale: 1, Background: color.White}
}

// Encode rasterizes doc and writes it as PNG.
func Encode(w io.Writer, doc draw.Document, opts Options) error {
	return png.Encode(w, Rasterize(doc, opts))
}

// Rasterize paints doc onto a new image. Text uses a fixed 7x13 face, so font
// sizes are approximated.
func Rasterize(doc draw.Document, opts Options) *image.RGBA {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	width := int(math.Ceil(doc.Width * opts.Scale))
	height := int(math.Ceil(doc.Height * opts.Scale))
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if opts.Background != nil {
		stddraw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, stddraw.Src)
	}
	p := &painter{img: img, scale: opts.Scale}
	draw.Walk(doc.Root, func(s draw.Shape, offset draw.Point) {
		p.offset = offset
		p.paint(s)
	})
	return img
}

type painter struct {
	img    *image.RGBA
	scale  float64
	offset draw.Point
}

func (p *painter) pt(x, y float64) (float32, float32) {
	return float32((x + p.offset.X) * p.scale), float32((y + p.offset.Y) * p.scale)
}

func (p *painter) paint(s draw.Shape) {
	switch v := s.(type) {
	case draw.Path:
		polys := v.Data.Flatten(math.Pi / 90)
		if fill, ok := paint(v.Style.Fill, v.Style.Opacity); ok {
			p.fill(polys, fill)
		}
		if stroke, ok := paint(v.Style.Stroke, v.Style.Opacity); ok {
			for _, poly := range polys {
				p.stroke(poly, v.Style.StrokeWidth, stroke)
			}
		}
	case draw.Line:
		if stroke, ok := paint(v.Style.Stroke, v.Style.Opacity); ok {
			p.stroke([]draw.Point{{X: v.X1, Y: v.Y1}, {X: v.X2, Y: v.Y2}}, v.Style.StrokeWidth, stroke)
		}
	case draw.Circle:
		poly := circle(v.CX, v.CY, v.R)
		if fill, ok := paint(v.Style.Fill, v.Style.Opacity); ok {
			p.fill([][]draw.Point{poly}, fill)
		}
		if stroke, ok := paint(v.Style.Stroke, v.Style.Opacity); ok {
			p.stroke(poly, v.Style.StrokeWidth, stroke)
		}
	case draw.Rect:
		poly := []draw.Point{{X: v.X, Y: v.Y}, {X: v.X + v.Width, Y: v.Y}, {X: v.X + v.Width, Y: v.Y + v.Height}, {X: v.X, Y: v.Y + v.Height}, {X: v.X, Y: v.Y}}
		if fill, ok := paint(v.Style.Fill, v.Style.Opacity); ok {
			p.fill([][]draw.Point{poly}, fill)
		}
	case draw.Text:
		p.text(v)
	}
}

func (p *painter) fill(polys [][]draw.Point, c color.Color) {
	b := p.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		x, y := p.pt(poly[0].X, poly[0].Y)
		z.MoveTo(x, y)
		for _, q := range poly[1:] {
			x, y = p.pt(q.X, q.Y)
			z.LineTo(x, y)
		}
		z.ClosePath()
	}
	z.Draw(p.img, b, image.NewUniform(c), image.Point{})
}

// stroke draws each segment as a quad of the given width.
func (p *painter) stroke(poly []draw.Point, width float64, c color.Color) {
	if width <= 0 {
		width = 1
	}
	half := width / 2
	quads := make([][]draw.Point, 0, len(poly))
	for i := 1; i < len(poly); i++ {
		a, b := poly[i-1], poly[i]
		length := math.Hypot(b.X-a.X, b.Y-a.Y)
		if length == 0 {
			continue
		}
		nx, ny := -(b.Y-a.Y)/length*half, (b.X-a.X)/length*half
		quads = append(quads, []draw.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	p.fill(quads, c)
}

func (p *painter) text(t draw.Text) {
	c, ok := paint(t.Style.Fill, t.Style.Opacity)
	if !ok {
		c = color.Black
	}
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: p.img, Src: image.NewUniform(c), Face: face}
	x, y := p.pt(t.X, t.Y)
	w := d.MeasureString(t.Content)
	dot := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	switch t.Anchor {
	case draw.AnchorMiddle:
		dot.X -= w / 2
	case draw.AnchorEnd:
		dot.X -= w
	}
	if t.Central {
		dot.Y += face.Metrics().Ascent / 2
	}
	d.Dot = dot
	d.DrawString(t.Content)
}

func circle(cx, cy, r float64) []draw.Point {
	const steps = 48
	pts := make([]draw.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		pts = append(pts, draw.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}

var named = map[string]color.NRGBA{
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {A: 255},
}

// paint parses a CSS hex or named color and applies opacity. "none" and ""
// report false.
func paint(value string, opacity float64) (color.Color, bool) {
	c, ok := parseColor(value)
	if !ok {
		return nil, false
	}
	if opacity > 0 && opacity < 1 {
		c.A = uint8(math.Round(float64(c.A) * opacity))
	}
	return c, true
}

func parseColor(value string) (color.NRGBA, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if c, ok := named[value]; ok {
		return c, true
	}
	if !strings.HasPrefix(value, "#") {
		return color.NRGBA{}, false
	}
	hex := value[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, true
}
