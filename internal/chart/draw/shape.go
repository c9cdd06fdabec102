// Package draw defines the declarative drawing tree produced by chart renderers.
// A tree holds typed shapes only; adapters turn it into a concrete surface.
package draw

// Kind names a shape type.
type Kind string

const (
	KindGroup  Kind = "group"
	KindPath   Kind = "path"
	KindLine   Kind = "line"
	KindCircle Kind = "circle"
	KindRect   Kind = "rect"
	KindText   Kind = "text"
)

// Shape is one node of the drawing tree.
type Shape interface {
	Kind() Kind
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style holds presentation attributes. Zero values mean "not set".
type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	FontWeight  string  `json:"font_weight,omitempty"`
}

// Anchor is the horizontal text alignment.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// DataPoint identifies the datum a hoverable shape stands for.
type DataPoint struct {
	Series string  `json:"series"`
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
}

// Group translates and labels its children.
type Group struct {
	Translate Point   `json:"translate"`
	Class     string  `json:"class,omitempty"`
	Label     string  `json:"label,omitempty"`
	Children  []Shape `json:"children"`
}

// Path is a sequence of path commands.
type Path struct {
	Data  PathData `json:"d"`
	Style Style    `json:"style"`
	Class string   `json:"class,omitempty"`
	Label string   `json:"label,omitempty"`
}

// Line is a straight segment.
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Style Style   `json:"style"`
	Class string  `json:"class,omitempty"`
}

// Circle is a filled or stroked circle. Point is set for hoverable markers.
type Circle struct {
	CX    float64    `json:"cx"`
	CY    float64    `json:"cy"`
	R     float64    `json:"r"`
	Style Style      `json:"style"`
	Class string     `json:"class,omitempty"`
	Point *DataPoint `json:"point,omitempty"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Style  Style      `json:"style"`
	Class  string     `json:"class,omitempty"`
	Point  *DataPoint `json:"point,omitempty"`
}

// Text is a single line of text anchored at (X, Y) on its baseline.
type Text struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content"`
	Anchor  Anchor  `json:"anchor,omitempty"`
	Central bool    `json:"central,omitempty"`
	Style   Style   `json:"style"`
	Class   string  `json:"class,omitempty"`
}

func (Group) Kind() Kind  { return KindGroup }
func (Path) Kind() Kind   { return KindPath }
func (Line) Kind() Kind   { return KindLine }
func (Circle) Kind() Kind { return KindCircle }
func (Rect) Kind() Kind   { return KindRect }
func (Text) Kind() Kind   { return KindText }

// Add appends shapes to the group.
func (g *Group) Add(shapes ...Shape) {
	g.Children = append(g.Children, shapes...)
}

// Document is the root of a drawing tree. Title and Role carry the
// accessibility labeling of the whole drawing.
type Document struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Title       string  `json:"title"`
	Role        string  `json:"role"`
	Placeholder bool    `json:"placeholder,omitempty"`
	Root        Group   `json:"root"`
}

// NewDocument constructs an image-role document.
func NewDocument(width, height float64, title string) Document {
	return Document{Width: width, Height: height, Title: title, Role: "img"}
}

// Walk calls fn for every shape in depth-first order with the accumulated
// translation of its ancestors.
func Walk(g Group, fn func(s Shape, offset Point)) {
	walk(g, Point{}, fn)
}

func walk(g Group, offset Point, fn func(Shape, Point)) {
	fn(g, offset)
	inner := Point{X: offset.X + g.Translate.X, Y: offset.Y + g.Translate.Y}
	for _, child := range g.Children {
		if sub, ok := child.(Group); ok {
			walk(sub, inner, fn)
			continue
		}
		fn(child, inner)
	}
}

// Find returns the shapes of kind k in the tree.
func Find(d Document, k Kind) []Shape {
	var out []Shape
	Walk(d.Root, func(s Shape, _ Point) {
		if s.Kind() == k {
			out = append(out, s)
		}
	})
	return out
}
