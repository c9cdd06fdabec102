package render

import (
	"math"
	"time"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/chart/draw"
	"xp-dashboard/internal/chart/scale"
)

// SeriesXP names the data points of the XP line chart.
const SeriesXP = "xp"

const axisColor = "#9ca3af"

// Line renders an XP time series as a line chart with an optional area and
// hoverable point markers.
func Line(series []xp.TimeSeriesPoint, opts LineOptions) draw.Document {
	if len(series) == 0 {
		return Placeholder(opts.Size, opts.Title, "")
	}
	if opts.Cumulative {
		series = xp.Cumulative(series)
	}

	innerW, innerH := inner(opts.Size, opts.Margin)
	doc := draw.NewDocument(opts.Size.Width, opts.Size.Height, opts.Title)
	if opts.ShowTitle {
		doc.Root.Add(titleText(opts.Size.Width/2, 15, opts.Title))
	}
	plot := draw.Group{Translate: draw.Point{X: opts.Margin.Left, Y: opts.Margin.Top}, Class: "plot", Label: opts.Title}

	xs, layout := positions(series)
	xMin, xMax := minMax(xs)
	yMin, yMax := 0.0, 1.0
	for _, p := range series {
		v := float64(p.Total)
		yMax = math.Max(yMax, v)
		yMin = math.Min(yMin, v)
	}
	x := scale.NewLinear(xMin, xMax, 0, innerW)
	y := scale.NewLinear(yMin, yMax, innerH, 0)

	for _, v := range []float64{0, yMax / 2, yMax} {
		ty := y.Map(v)
		plot.Add(
			draw.Line{X1: 0, Y1: ty, X2: innerW, Y2: ty, Style: draw.Style{Stroke: opts.GridColor, StrokeWidth: 1}, Class: "grid"},
			draw.Text{X: -8, Y: ty + 3, Content: FormatNumber(v), Anchor: draw.AnchorEnd, Style: draw.Style{Fill: "#555", FontSize: 10}, Class: "tick"},
		)
	}
	plot.Add(
		draw.Line{X1: 0, Y1: innerH, X2: innerW, Y2: innerH, Style: draw.Style{Stroke: axisColor, StrokeWidth: 1}, Class: "axis"},
		draw.Line{X1: 0, Y1: 0, X2: 0, Y2: innerH, Style: draw.Style{Stroke: axisColor, StrokeWidth: 1}, Class: "axis"},
	)
	for _, tv := range x.Ticks(3) {
		plot.Add(draw.Text{
			X:       x.Map(tv),
			Y:       innerH + 16,
			Content: tickLabel(series, xs, tv, layout),
			Anchor:  draw.AnchorMiddle,
			Style:   draw.Style{Fill: "#555", FontSize: 10},
			Class:   "tick",
		})
	}

	var line draw.PathBuilder
	for i, p := range series {
		px, py := x.Map(xs[i]), y.Map(float64(p.Total))
		if i == 0 {
			line.MoveTo(px, py)
		} else {
			line.LineTo(px, py)
		}
	}
	if opts.Area {
		area := draw.PathBuilder{}
		for _, cmd := range line.Data() {
			if cmd.Op == draw.OpMove {
				area.MoveTo(cmd.Args[0], cmd.Args[1])
			} else {
				area.LineTo(cmd.Args[0], cmd.Args[1])
			}
		}
		area.LineTo(x.Map(xs[len(xs)-1]), y.Map(0)).LineTo(x.Map(xs[0]), y.Map(0)).Close()
		plot.Add(draw.Path{Data: area.Data(), Style: draw.Style{Fill: opts.Color, Opacity: opts.AreaOpacity}, Class: "area"})
	}
	plot.Add(draw.Path{Data: line.Data(), Style: draw.Style{Fill: "none", Stroke: opts.Color, StrokeWidth: 2}, Class: "line", Label: opts.Title})

	if opts.Markers {
		r := opts.MarkerRadius
		if r <= 0 {
			r = 4
		}
		for i, p := range series {
			plot.Add(draw.Circle{
				CX:    x.Map(xs[i]),
				CY:    y.Map(float64(p.Total)),
				R:     r,
				Style: draw.Style{Fill: opts.Color, Stroke: "white", StrokeWidth: 2},
				Class: "marker",
				Point: &draw.DataPoint{Series: SeriesXP, Index: i, Label: p.Key.String(), Value: float64(p.Total)},
			})
		}
	}

	doc.Root.Add(plot)
	return doc
}

// positions maps bucket keys to x domain values (unix seconds). When a key
// does not parse the series is laid out by index instead.
func positions(series []xp.TimeSeriesPoint) ([]float64, string) {
	xs := make([]float64, len(series))
	layout := "2006-01-02"
	for i, p := range series {
		t, ok := p.Key.Time()
		if !ok {
			for j := range xs {
				xs[j] = float64(j)
			}
			return xs, ""
		}
		if len(p.Key) == len("2006-01") {
			layout = "2006-01"
		}
		xs[i] = float64(t.Unix())
	}
	return xs, layout
}

func tickLabel(series []xp.TimeSeriesPoint, xs []float64, v float64, layout string) string {
	if layout == "" {
		i := int(math.Round(v))
		if i < 0 {
			i = 0
		}
		if i >= len(series) {
			i = len(series) - 1
		}
		return series[i].Key.String()
	}
	return time.Unix(int64(math.Round(v)), 0).UTC().Format(layout)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func titleText(x, y float64, title string) draw.Text {
	return draw.Text{
		X:       x,
		Y:       y,
		Content: title,
		Anchor:  draw.AnchorMiddle,
		Style:   draw.Style{Fill: "#111827", FontSize: 14, FontWeight: "bold"},
		Class:   "title",
	}
}
