package render

import "xp-dashboard/internal/chart/draw"

// NoDataText is the placeholder text of an empty chart.
const NoDataText = "No data"

// Placeholder returns a document showing text in place of a chart.
func Placeholder(size Size, title, text string) draw.Document {
	if text == "" {
		text = NoDataText
	}
	doc := draw.NewDocument(size.Width, size.Height, title)
	doc.Placeholder = true
	doc.Root.Add(draw.Text{
		X:       size.Width / 2,
		Y:       size.Height / 2,
		Content: text,
		Anchor:  draw.AnchorMiddle,
		Central: true,
		Style:   draw.Style{Fill: "#6b7280", FontSize: 12},
		Class:   "placeholder",
	})
	return doc
}
