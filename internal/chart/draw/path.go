package draw

import (
	"math"
	"strconv"
	"strings"
)

// Op is a path command letter.
type Op byte

const (
	OpMove  Op = 'M'
	OpLine  Op = 'L'
	OpArc   Op = 'A'
	OpClose Op = 'Z'
)

// Command is one absolute path command.
// Arc args are rx, ry, rotation, large-arc flag, sweep flag, x, y.
type Command struct {
	Op   Op
	Args []float64
}

// PathData is an ordered command list.
type PathData []Command

// PathBuilder accumulates path commands.
type PathBuilder struct {
	cmds PathData
}

// MoveTo starts a new subpath.
func (b *PathBuilder) MoveTo(x, y float64) *PathBuilder {
	b.cmds = append(b.cmds, Command{Op: OpMove, Args: []float64{x, y}})
	return b
}

// LineTo draws a straight segment.
func (b *PathBuilder) LineTo(x, y float64) *PathBuilder {
	b.cmds = append(b.cmds, Command{Op: OpLine, Args: []float64{x, y}})
	return b
}

// ArcTo draws an elliptical arc to (x, y).
func (b *PathBuilder) ArcTo(rx, ry float64, largeArc, sweep bool, x, y float64) *PathBuilder {
	b.cmds = append(b.cmds, Command{Op: OpArc, Args: []float64{rx, ry, 0, flag(largeArc), flag(sweep), x, y}})
	return b
}

// Close closes the current subpath.
func (b *PathBuilder) Close() *PathBuilder {
	b.cmds = append(b.cmds, Command{Op: OpClose})
	return b
}

// Data returns a copy of the accumulated commands.
func (b *PathBuilder) Data() PathData {
	out := make(PathData, len(b.cmds))
	copy(out, b.cmds)
	return out
}

func flag(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// String renders the commands in SVG path syntax.
func (d PathData) String() string {
	var sb strings.Builder
	for i, cmd := range d {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(byte(cmd.Op))
		for _, arg := range cmd.Args {
			sb.WriteByte(' ')
			sb.WriteString(Num(arg))
		}
	}
	return sb.String()
}

// MarshalText encodes the path as SVG path syntax.
func (d PathData) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Num formats a coordinate with at most two decimals.
func Num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Flatten approximates the path by polylines, one per subpath. Arcs are
// split into segments no longer than tolerance radians of sweep.
func (d PathData) Flatten(tolerance float64) [][]Point {
	if tolerance <= 0 {
		tolerance = math.Pi / 90
	}
	var (
		out     [][]Point
		current []Point
		cursor  Point
		start   Point
	)
	flush := func() {
		if len(current) > 1 {
			out = append(out, current)
		}
		current = nil
	}
	for _, cmd := range d {
		switch cmd.Op {
		case OpMove:
			flush()
			cursor = Point{X: cmd.Args[0], Y: cmd.Args[1]}
			start = cursor
			current = []Point{cursor}
		case OpLine:
			cursor = Point{X: cmd.Args[0], Y: cmd.Args[1]}
			current = append(current, cursor)
		case OpArc:
			end := Point{X: cmd.Args[5], Y: cmd.Args[6]}
			current = append(current, arcPoints(cursor, end, cmd.Args[0], cmd.Args[3] != 0, cmd.Args[4] != 0, tolerance)...)
			cursor = end
		case OpClose:
			if len(current) > 0 {
				current = append(current, start)
			}
			cursor = start
			flush()
		}
	}
	flush()
	return out
}

// arcPoints flattens a circular arc (rx == ry, no rotation) from p0 to p1,
// excluding p0.
func arcPoints(p0, p1 Point, r float64, large, sweep bool, tolerance float64) []Point {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	chord := math.Hypot(dx, dy)
	if r <= 0 || chord == 0 {
		return []Point{p1}
	}
	if chord > 2*r {
		r = chord / 2
	}
	mx, my := (p0.X+p1.X)/2, (p0.Y+p1.Y)/2
	h := math.Sqrt(math.Max(r*r-chord*chord/4, 0))
	// Unit normal to the chord; the center side depends on the flags.
	nx, ny := -dy/chord, dx/chord
	if large == sweep {
		nx, ny = -nx, -ny
	}
	cx, cy := mx+nx*h, my+ny*h

	a0 := math.Atan2(p0.Y-cy, p0.X-cx)
	a1 := math.Atan2(p1.Y-cy, p1.X-cx)
	delta := a1 - a0
	if sweep {
		for delta <= 0 {
			delta += 2 * math.Pi
		}
	} else {
		for delta >= 0 {
			delta -= 2 * math.Pi
		}
	}
	steps := int(math.Ceil(math.Abs(delta) / tolerance))
	if steps < 1 {
		steps = 1
	}
	pts := make([]Point, 0, steps)
	for i := 1; i <= steps; i++ {
		a := a0 + delta*float64(i)/float64(steps)
		pts = append(pts, Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	pts[len(pts)-1] = p1
	return pts
}
