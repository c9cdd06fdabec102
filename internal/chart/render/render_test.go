package render

import (
	"math"
	"strings"
	"testing"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/chart/draw"
)

func paths(doc draw.Document, class string) []draw.Path {
	var out []draw.Path
	for _, s := range draw.Find(doc, draw.KindPath) {
		p := s.(draw.Path)
		if class == "" || p.Class == class {
			out = append(out, p)
		}
	}
	return out
}

func texts(doc draw.Document) []string {
	var out []string
	for _, s := range draw.Find(doc, draw.KindText) {
		out = append(out, s.(draw.Text).Content)
	}
	return out
}

func assertFinite(t *testing.T, doc draw.Document) {
	t.Helper()
	draw.Walk(doc.Root, func(s draw.Shape, _ draw.Point) {
		var values []float64
		switch v := s.(type) {
		case draw.Path:
			for _, cmd := range v.Data {
				values = append(values, cmd.Args...)
			}
		case draw.Circle:
			values = append(values, v.CX, v.CY, v.R)
		case draw.Rect:
			values = append(values, v.X, v.Y, v.Width, v.Height)
		case draw.Line:
			values = append(values, v.X1, v.Y1, v.X2, v.Y2)
		case draw.Text:
			values = append(values, v.X, v.Y)
		}
		for _, f := range values {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Fatalf("non-finite coordinate in %s", s.Kind())
			}
		}
	})
}

func TestLine_EmptyIsPlaceholder(t *testing.T) {
	doc := Line(nil, DefaultLineOptions())
	if !doc.Placeholder {
		t.Fatalf("expected placeholder")
	}
	if got := texts(doc); len(got) != 1 || got[0] != NoDataText {
		t.Fatalf("unexpected placeholder texts %v", got)
	}
}

func TestLine_Structure(t *testing.T) {
	series := []xp.TimeSeriesPoint{{Key: "2024-01-01", Total: 100}, {Key: "2024-01-03", Total: 50}, {Key: "2024-01-05", Total: 200}}
	opts := DefaultLineOptions()
	doc := Line(series, opts)
	assertFinite(t, doc)
	if doc.Role != "img" || doc.Title != opts.Title {
		t.Fatalf("missing accessibility labeling: %+v", doc)
	}

	markers := draw.Find(doc, draw.KindCircle)
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}
	first := markers[0].(draw.Circle)
	if first.Point == nil || first.Point.Label != "2024-01-01" || first.R != 4 {
		t.Fatalf("unexpected first marker %+v", first)
	}
	innerW, innerH := inner(opts.Size, opts.Margin)
	if first.CX != 0 || first.CY != innerH-100.0/200*innerH {
		t.Fatalf("unexpected first marker position %v,%v", first.CX, first.CY)
	}
	if last := markers[2].(draw.Circle); last.CX != innerW || last.CY != 0 {
		t.Fatalf("unexpected last marker position %v,%v", last.CX, last.CY)
	}

	area := paths(doc, "area")
	if len(area) != 1 {
		t.Fatalf("expected area path")
	}
	cmds := area[0].Data
	if cmds[len(cmds)-1].Op != draw.OpClose || cmds[len(cmds)-2].Args[1] != innerH || cmds[len(cmds)-3].Args[0] != innerW {
		t.Fatalf("area should close along the baseline: %s", cmds)
	}

	labels := strings.Join(texts(doc), "|")
	for _, want := range []string{"2024-01-01", "2024-01-03", "2024-01-05", "0", "100", "200"} {
		if !strings.Contains(labels, want) {
			t.Fatalf("missing tick %s in %s", want, labels)
		}
	}
}

func TestLine_CumulativeAndSinglePoint(t *testing.T) {
	opts := DefaultCumulativeOptions()
	doc := Line([]xp.TimeSeriesPoint{{Key: "2024-01-01", Total: 10}, {Key: "2024-01-02", Total: 15}}, opts)
	markers := draw.Find(doc, draw.KindCircle)
	if v := markers[1].(draw.Circle).Point.Value; v != 25 {
		t.Fatalf("expected cumulative value 25, got %v", v)
	}

	single := Line([]xp.TimeSeriesPoint{{Key: "2024-03", Total: 0}}, DefaultLineOptions())
	assertFinite(t, single)
	innerW, _ := inner(DefaultLineOptions().Size, DefaultLineOptions().Margin)
	m := draw.Find(single, draw.KindCircle)[0].(draw.Circle)
	if m.CX != innerW/2 {
		t.Fatalf("single point should sit at the midpoint, got %v", m.CX)
	}
}

func TestDonut_ZeroIsPlaceholder(t *testing.T) {
	doc := Donut(xp.PassFailStats{}, DefaultDonutOptions())
	if !doc.Placeholder {
		t.Fatalf("expected placeholder for zero counts")
	}
	assertFinite(t, doc)
	if len(paths(doc, "")) != 0 {
		t.Fatalf("placeholder must not contain slices")
	}
}

func TestDonut_SlicesAndFlags(t *testing.T) {
	doc := Donut(xp.PassFailStats{Passed: 3, Failed: 1}, DefaultDonutOptions())
	assertFinite(t, doc)
	slices := paths(doc, "slice")
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	pass := slices[0].Data
	if pass[0].Op != draw.OpMove || pass[1].Op != draw.OpArc {
		t.Fatalf("unexpected donut slice shape %s", pass)
	}
	// pass starts at 12 o'clock
	if pass[0].Args[0] != 100 || math.Abs(pass[0].Args[1]-4) > 1e-9 {
		t.Fatalf("pass slice should start at 12 o'clock, got %v", pass[0].Args)
	}
	if pass[1].Args[3] != 1 {
		t.Fatalf("270 degree sweep needs the large-arc flag")
	}
	if slices[1].Data[1].Args[3] != 0 {
		t.Fatalf("90 degree sweep must not set the large-arc flag")
	}
	if !strings.Contains(strings.Join(texts(doc), "|"), "75% pass") {
		t.Fatalf("missing center label: %v", texts(doc))
	}
	if len(draw.Find(doc, draw.KindCircle)) != 1 {
		t.Fatalf("expected donut hole")
	}
}

func TestDonut_ZeroSliceOmitted(t *testing.T) {
	doc := Donut(xp.PassFailStats{Passed: 4}, DefaultDonutOptions())
	assertFinite(t, doc)
	slices := paths(doc, "slice")
	if len(slices) != 1 {
		t.Fatalf("expected a single slice, got %d", len(slices))
	}
	if n := len(slices[0].Data); n != 4 {
		t.Fatalf("full turn should be two half arcs, got %s", slices[0].Data)
	}
}

func TestPie_LabelsAndLegend(t *testing.T) {
	doc := Pie(xp.PassFailStats{Passed: 2, Failed: 1}, DefaultPieOptions())
	assertFinite(t, doc)
	slices := paths(doc, "slice")
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].Data[0].Args[0] != 150 || slices[0].Data[1].Op != draw.OpLine {
		t.Fatalf("pie slice should start at the center: %s", slices[0].Data)
	}
	all := strings.Join(texts(doc), "|")
	for _, want := range []string{"66.7%", "Success Rate", "Passed: 2", "Failed: 1"} {
		if !strings.Contains(all, want) {
			t.Fatalf("missing %q in %s", want, all)
		}
	}
	if len(draw.Find(doc, draw.KindCircle)) != 0 {
		t.Fatalf("pie must not have a hole")
	}
}

func TestBar_Geometry(t *testing.T) {
	opts := DefaultBarOptions()
	doc := Bar([]BarItem{{"a", 100}, {"b", 50}}, opts)
	assertFinite(t, doc)
	rects := draw.Find(doc, draw.KindRect)
	if len(rects) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(rects))
	}
	innerW, innerH := inner(opts.Size, opts.Margin)
	slot := innerW / 2
	a, b := rects[0].(draw.Rect), rects[1].(draw.Rect)
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	if !near(a.Width, slot*0.8) || !near(a.X, slot*0.1) || a.Height != innerH || a.Y != 0 {
		t.Fatalf("unexpected first bar %+v", a)
	}
	if !near(b.X, slot+slot*0.1) || b.Height != innerH/2 {
		t.Fatalf("unexpected second bar %+v", b)
	}
	all := strings.Join(texts(doc), "|")
	if !strings.Contains(all, "100") || !strings.Contains(all, "50") || !strings.Contains(all, opts.Title) {
		t.Fatalf("missing labels in %s", all)
	}
}

func TestBar_EmptyAndZero(t *testing.T) {
	if !Bar(nil, DefaultBarOptions()).Placeholder {
		t.Fatalf("expected placeholder")
	}
	doc := Bar([]BarItem{{"a", 0}, {"b", -3}}, DefaultBarOptions())
	assertFinite(t, doc)
}

func TestRenderersAreIdempotent(t *testing.T) {
	series := []xp.TimeSeriesPoint{{Key: "2024-01-01", Total: 1}, {Key: "2024-02-01", Total: 2}}
	a := Line(series, DefaultLineOptions())
	b := Line(series, DefaultLineOptions())
	if paths(a, "line")[0].Data.String() != paths(b, "line")[0].Data.String() {
		t.Fatalf("line output differs between calls")
	}
	if series[1].Total != 2 {
		t.Fatalf("input was modified")
	}
}

func TestTooltips(t *testing.T) {
	got := PointTooltip(draw.DataPoint{Label: "2024-01-05", Value: 12345})
	if got != "Date: Fri Jan 05 2024\nXP: 12,345" {
		t.Fatalf("unexpected tooltip %q", got)
	}
	if BarTooltip(draw.DataPoint{Label: "graphql", Value: 1000}) != "graphql: 1,000 XP" {
		t.Fatalf("unexpected bar tooltip")
	}
	if FormatInt(-1234567) != "-1,234,567" {
		t.Fatalf("unexpected format %s", FormatInt(-1234567))
	}
}
