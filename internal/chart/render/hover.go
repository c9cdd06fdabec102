package render

import (
	"time"

	"xp-dashboard/internal/chart/draw"
)

// HoverFunc produces the tooltip content of a hoverable data point. The
// presentation adapter owns when the tooltip is shown and removed.
type HoverFunc func(draw.DataPoint) string

// PointTooltip is the default HoverFunc: the bucket date and its XP value.
func PointTooltip(p draw.DataPoint) string {
	label := p.Label
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, p.Label); err == nil {
			if layout == "2006-01" {
				label = t.Format("Jan 2006")
			} else {
				label = t.Format("Mon Jan 02 2006")
			}
			break
		}
	}
	return "Date: " + label + "\nXP: " + FormatNumber(p.Value)
}

// BarTooltip is the HoverFunc of bar charts.
func BarTooltip(p draw.DataPoint) string {
	return p.Label + ": " + FormatNumber(p.Value) + " XP"
}
