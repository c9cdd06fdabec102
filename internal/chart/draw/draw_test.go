package draw

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestPathBuilder_String(t *testing.T) {
	var b PathBuilder
	b.MoveTo(0, 0).LineTo(10.456, 20).ArcTo(5, 5, true, true, 1.0/3, -0.001).Close()
	got := b.Data().String()
	want := "M 0 0 L 10.46 20 A 5 5 0 1 1 0.33 0 Z"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPathData_FlattenQuarterArc(t *testing.T) {
	var b PathBuilder
	b.MoveTo(0, -10).ArcTo(10, 10, false, true, 10, 0)
	polys := b.Data().Flatten(math.Pi / 180)
	if len(polys) != 1 {
		t.Fatalf("expected 1 polyline, got %d", len(polys))
	}
	for _, p := range polys[0] {
		if r := math.Hypot(p.X, p.Y); math.Abs(r-10) > 1e-6 {
			t.Fatalf("point %v off the circle: r=%v", p, r)
		}
		if p.X < -1e-9 || p.Y > 1e-9 {
			t.Fatalf("point %v outside the clockwise quadrant", p)
		}
	}
}

func TestPathData_FlattenLargeArc(t *testing.T) {
	var b PathBuilder
	b.MoveTo(0, -10).ArcTo(10, 10, true, true, -10, 0).Close()
	polys := b.Data().Flatten(0)
	pts := polys[0]
	var sawRight, sawBottom bool
	for _, p := range pts {
		if p.X > 9.9 {
			sawRight = true
		}
		if p.Y > 9.9 {
			sawBottom = true
		}
	}
	if !sawRight || !sawBottom {
		t.Fatalf("large clockwise arc should pass through right and bottom")
	}
	if last := pts[len(pts)-1]; last.X != 0 || last.Y != -10 {
		t.Fatalf("closed path should end at start, got %v", last)
	}
}

func TestDocument_JSONCarriesKinds(t *testing.T) {
	doc := NewDocument(100, 50, "demo")
	doc.Root.Add(
		Line{X2: 10},
		Group{Children: []Shape{Text{Content: "hi", Anchor: AnchorMiddle}}},
	)
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"kind":"group"`, `"kind":"line"`, `"kind":"text"`, `"content":"hi"`, `"role":"img"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in %s", want, body)
		}
	}
}

func TestWalk_AccumulatesTranslation(t *testing.T) {
	doc := NewDocument(100, 100, "demo")
	doc.Root.Translate = Point{X: 10, Y: 5}
	doc.Root.Add(Group{Translate: Point{X: 1, Y: 1}, Children: []Shape{Circle{R: 2}}})
	var offset Point
	Walk(doc.Root, func(s Shape, o Point) {
		if s.Kind() == KindCircle {
			offset = o
		}
	})
	if offset.X != 11 || offset.Y != 6 {
		t.Fatalf("unexpected offset %v", offset)
	}
	if n := len(Find(doc, KindCircle)); n != 1 {
		t.Fatalf("expected 1 circle, got %d", n)
	}
}
