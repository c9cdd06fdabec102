package render

import (
	"math"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/chart/draw"
)

// SeriesBar names the data points of bar charts.
const SeriesBar = "bar"

// BarItem is one labeled bar value.
type BarItem struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarItemsFromRanking converts a ranking into bar items, keeping its order.
func BarItemsFromRanking(ranking []xp.RankingEntry) []BarItem {
	items := make([]BarItem, len(ranking))
	for i, e := range ranking {
		items[i] = BarItem{Label: e.Name, Value: float64(e.Total)}
	}
	return items
}

// Bar renders items as vertical bars. Each slot gives 80% to the bar and 20%
// to spacing; heights are proportional to value / max(value).
func Bar(items []BarItem, opts BarOptions) draw.Document {
	if len(items) == 0 {
		return Placeholder(opts.Size, opts.Title, "")
	}
	innerW, innerH := inner(opts.Size, opts.Margin)
	doc := draw.NewDocument(opts.Size.Width, opts.Size.Height, opts.Title)
	doc.Root.Add(titleText(opts.Size.Width/2, 20, opts.Title))
	plot := draw.Group{Translate: draw.Point{X: opts.Margin.Left, Y: opts.Margin.Top}, Class: "plot", Label: opts.Title}

	maxValue := 0.0
	for _, it := range items {
		maxValue = math.Max(maxValue, it.Value)
	}
	slot := innerW / float64(len(items))
	barWidth := slot * 0.8
	spacing := slot * 0.2
	labelChars := int(slot / 6)

	for i, it := range items {
		h := 0.0
		if maxValue > 0 && it.Value > 0 {
			h = it.Value / maxValue * innerH
		}
		x := float64(i)*slot + spacing/2
		y := innerH - h
		plot.Add(
			draw.Rect{
				X:      x,
				Y:      y,
				Width:  barWidth,
				Height: h,
				Style:  draw.Style{Fill: opts.Color},
				Class:  "bar",
				Point:  &draw.DataPoint{Series: SeriesBar, Index: i, Label: it.Label, Value: it.Value},
			},
			draw.Text{X: x + barWidth/2, Y: y - 5, Content: FormatNumber(it.Value), Anchor: draw.AnchorMiddle, Style: draw.Style{Fill: "#555", FontSize: 10}, Class: "value"},
			draw.Text{X: x + barWidth/2, Y: innerH + 14, Content: truncate(it.Label, labelChars), Anchor: draw.AnchorMiddle, Style: draw.Style{Fill: "#555", FontSize: 10}, Class: "tick"},
		)
	}
	plot.Add(
		draw.Line{X1: 0, Y1: innerH, X2: innerW, Y2: innerH, Style: draw.Style{Stroke: axisColor, StrokeWidth: 1}, Class: "axis"},
		draw.Line{X1: 0, Y1: 0, X2: 0, Y2: innerH, Style: draw.Style{Stroke: axisColor, StrokeWidth: 1}, Class: "axis"},
	)
	doc.Root.Add(plot)
	return doc
}
