package render

import (
	"fmt"
	"math"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/chart/draw"
)

const fullTurn = 2 * math.Pi

type slice struct {
	label string
	count int
	color string
}

// sweeps returns the slices with a non-zero count and their angles, starting
// at 12 o'clock and going clockwise, pass first.
func sweeps(stats xp.PassFailStats, opts PassFailOptions) ([]slice, []float64) {
	total := stats.Passed + stats.Failed
	var (
		slices []slice
		angles []float64
	)
	for _, s := range []slice{
		{label: "Passed", count: stats.Passed, color: opts.PassColor},
		{label: "Failed", count: stats.Failed, color: opts.FailColor},
	} {
		if s.count <= 0 {
			continue
		}
		slices = append(slices, s)
		angles = append(angles, float64(s.count)/float64(total)*fullTurn)
	}
	return slices, angles
}

func polar(cx, cy, r, angle float64) (float64, float64) {
	return cx + r*math.Cos(angle), cy + r*math.Sin(angle)
}

// wedge builds the path of one slice from start sweeping angle clockwise.
// withCenter draws the pie form (center, edge, arc); otherwise the donut form
// (edge, arc, center). A full turn is drawn as two half arcs.
func wedge(cx, cy, r, start, angle float64, withCenter bool) draw.PathData {
	var b draw.PathBuilder
	x1, y1 := polar(cx, cy, r, start)
	if angle >= fullTurn-1e-9 {
		xm, ym := polar(cx, cy, r, start+math.Pi)
		b.MoveTo(x1, y1).ArcTo(r, r, false, true, xm, ym).ArcTo(r, r, false, true, x1, y1).Close()
		return b.Data()
	}
	x2, y2 := polar(cx, cy, r, start+angle)
	large := angle > math.Pi
	if withCenter {
		b.MoveTo(cx, cy).LineTo(x1, y1).ArcTo(r, r, large, true, x2, y2).Close()
	} else {
		b.MoveTo(x1, y1).ArcTo(r, r, large, true, x2, y2).LineTo(cx, cy).Close()
	}
	return b.Data()
}

func slicePaths(stats xp.PassFailStats, opts PassFailOptions, cx, cy, r float64, withCenter bool) []draw.Shape {
	slices, angles := sweeps(stats, opts)
	total := stats.Passed + stats.Failed
	start := -math.Pi / 2
	shapes := make([]draw.Shape, 0, len(slices))
	for i, s := range slices {
		shapes = append(shapes, draw.Path{
			Data:  wedge(cx, cy, r, start, angles[i], withCenter),
			Style: draw.Style{Fill: s.color},
			Class: "slice",
			Label: fmt.Sprintf("%s: %d (%s%%)", s.label, s.count, FormatRate(xp.Rate(s.count, total))),
		})
		start += angles[i]
	}
	return shapes
}

// Donut renders pass/fail counts as a ring with the pass percentage at its center.
func Donut(stats xp.PassFailStats, opts PassFailOptions) draw.Document {
	total := stats.Passed + stats.Failed
	if total <= 0 {
		return Placeholder(opts.Size, opts.Title, "")
	}
	doc := draw.NewDocument(opts.Size.Width, opts.Size.Height, opts.Title)
	cx, cy := opts.Size.Width/2, opts.Size.Height/2
	r := math.Max(math.Min(cx, cy)-4, 0)
	doc.Root.Add(slicePaths(stats, opts, cx, cy, r, false)...)

	hole := opts.InnerRadius
	if hole >= r {
		hole = r * 0.6
	}
	if hole > 0 {
		doc.Root.Add(draw.Circle{CX: cx, CY: cy, R: hole, Style: draw.Style{Fill: opts.HoleColor}, Class: "hole"})
	}
	pct := math.Round(float64(stats.Passed) / float64(total) * 100)
	doc.Root.Add(draw.Text{
		X:       cx,
		Y:       cy,
		Content: fmt.Sprintf("%d%% pass", int(pct)),
		Anchor:  draw.AnchorMiddle,
		Central: true,
		Style:   draw.Style{Fill: "#111827", FontSize: 14},
		Class:   "center-label",
	})
	return doc
}

// Pie renders pass/fail counts as a full pie with the success rate at its
// center and an optional legend below.
func Pie(stats xp.PassFailStats, opts PassFailOptions) draw.Document {
	total := stats.Passed + stats.Failed
	if total <= 0 {
		return Placeholder(opts.Size, opts.Title, "")
	}
	doc := draw.NewDocument(opts.Size.Width, opts.Size.Height, opts.Title)
	area := opts.Size.Height
	if opts.Legend {
		area -= opts.LegendHeight
	}
	side := math.Min(opts.Size.Width, area)
	cx, cy := opts.Size.Width/2, area/2
	r := math.Max(side/2-40, side/4)
	doc.Root.Add(slicePaths(stats, opts, cx, cy, r, true)...)

	rate := xp.Rate(stats.Passed, total)
	doc.Root.Add(
		draw.Text{X: cx, Y: cy - 5, Content: FormatRate(rate) + "%", Anchor: draw.AnchorMiddle, Style: draw.Style{Fill: "#111827", FontSize: 18, FontWeight: "bold"}, Class: "center-label"},
		draw.Text{X: cx, Y: cy + 15, Content: "Success Rate", Anchor: draw.AnchorMiddle, Style: draw.Style{Fill: "#555", FontSize: 12}, Class: "center-label"},
	)
	if opts.Legend {
		legendY := area + 20
		doc.Root.Add(
			draw.Rect{X: 50, Y: legendY, Width: 15, Height: 15, Style: draw.Style{Fill: opts.PassColor}, Class: "legend"},
			draw.Text{X: 75, Y: legendY + 12, Content: fmt.Sprintf("Passed: %d", stats.Passed), Style: draw.Style{Fill: "#111827", FontSize: 12}, Class: "legend"},
			draw.Rect{X: 160, Y: legendY, Width: 15, Height: 15, Style: draw.Style{Fill: opts.FailColor}, Class: "legend"},
			draw.Text{X: 185, Y: legendY + 12, Content: fmt.Sprintf("Failed: %d", stats.Failed), Style: draw.Style{Fill: "#111827", FontSize: 12}, Class: "legend"},
		)
	}
	return doc
}
