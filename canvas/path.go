package canvas

import (
	"image"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"

	"github.com/gogpu/ogimage/layout"
)

// point is a position in viewport pixels.
type point struct {
	X, Y float64
}

// pathElement is a single element in a path.
type pathElement interface {
	isPathElement()
}

// moveTo moves to a point without drawing.
type moveTo struct {
	Point point
}

func (moveTo) isPathElement() {}

// lineTo draws a line to a point.
type lineTo struct {
	Point point
}

func (lineTo) isPathElement() {}

// quadTo draws a quadratic Bezier curve.
type quadTo struct {
	Control point
	Point   point
}

func (quadTo) isPathElement() {}

// cubicTo draws a cubic Bezier curve.
type cubicTo struct {
	Control1 point
	Control2 point
	Point    point
}

func (cubicTo) isPathElement() {}

// closePath closes the current subpath.
type closePath struct{}

func (closePath) isPathElement() {}

// path is a vector path in viewport pixels. It tracks the bounding box of
// every point, control points included, which contains the curve.
type path struct {
	elements []pathElement
	start    point // starting point of current subpath
	current  point

	minX, minY, maxX, maxY float64
}

func newPath() *path {
	return &path{
		elements: make([]pathElement, 0, 16),
		minX:     math.Inf(1),
		minY:     math.Inf(1),
		maxX:     math.Inf(-1),
		maxY:     math.Inf(-1),
	}
}

func (p *path) extend(pts ...point) {
	for _, pt := range pts {
		p.minX, p.maxX = min(p.minX, pt.X), max(p.maxX, pt.X)
		p.minY, p.maxY = min(p.minY, pt.Y), max(p.maxY, pt.Y)
	}
}

// MoveTo moves to a point without drawing.
func (p *path) MoveTo(x, y float64) {
	pt := point{x, y}
	p.elements = append(p.elements, moveTo{Point: pt})
	p.extend(pt)
	p.start = pt
	p.current = pt
}

// LineTo draws a line to a point.
func (p *path) LineTo(x, y float64) {
	pt := point{x, y}
	p.elements = append(p.elements, lineTo{Point: pt})
	p.extend(pt)
	p.current = pt
}

// QuadraticTo draws a quadratic Bezier curve.
func (p *path) QuadraticTo(cx, cy, x, y float64) {
	ctrl, pt := point{cx, cy}, point{x, y}
	p.elements = append(p.elements, quadTo{Control: ctrl, Point: pt})
	p.extend(ctrl, pt)
	p.current = pt
}

// CubicTo draws a cubic Bezier curve.
func (p *path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	ctrl1, ctrl2, pt := point{c1x, c1y}, point{c2x, c2y}, point{x, y}
	p.elements = append(p.elements, cubicTo{Control1: ctrl1, Control2: ctrl2, Point: pt})
	p.extend(ctrl1, ctrl2, pt)
	p.current = pt
}

// Close closes the current subpath by drawing a line to the start point.
func (p *path) Close() {
	p.elements = append(p.elements, closePath{})
	p.current = p.start
}

// Rectangle adds a rectangle to the path.
func (p *path) Rectangle(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Arc adds a circular arc to the path.
// The arc is drawn from angle1 to angle2 (in radians) around center (cx, cy).
func (p *path) Arc(cx, cy, r, angle1, angle2 float64) {
	const twoPi = 2 * math.Pi
	for angle2 < angle1 {
		angle2 += twoPi
	}

	// At most 90 degrees per segment.
	const maxAngle = math.Pi / 2
	numSegments := int(math.Ceil((angle2 - angle1) / maxAngle))
	if numSegments == 0 {
		return
	}
	angleStep := (angle2 - angle1) / float64(numSegments)

	for i := range numSegments {
		a1 := angle1 + float64(i)*angleStep
		p.arcSegment(cx, cy, r, a1, a1+angleStep)
	}
}

// arcSegment adds a single arc segment of at most 90 degrees.
func (p *path) arcSegment(cx, cy, r, a1, a2 float64) {
	t := math.Tan((a2 - a1) / 2)
	alpha := math.Sin(a2-a1) * (math.Sqrt(4+3*t*t) - 1) / 3

	cos1, sin1 := math.Cos(a1), math.Sin(a1)
	cos2, sin2 := math.Cos(a2), math.Sin(a2)

	x1, y1 := cx+r*cos1, cy+r*sin1
	x2, y2 := cx+r*cos2, cy+r*sin2

	if len(p.elements) == 0 {
		p.MoveTo(x1, y1)
	}
	p.CubicTo(x1-alpha*r*sin1, y1+alpha*r*cos1, x2+alpha*r*sin2, y2-alpha*r*cos2, x2, y2)
}

// RoundedRectangle adds a rectangle with rounded corners. The radius is
// clamped to half of the smaller side.
func (p *path) RoundedRectangle(x, y, w, h, r float64) {
	r = min(r, w/2, h/2)
	if r <= 0 {
		p.Rectangle(x, y, w, h)
		return
	}

	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.Arc(x+w-r, y+r, r, -math.Pi/2, 0)
	p.LineTo(x+w, y+h-r)
	p.Arc(x+w-r, y+h-r, r, 0, math.Pi/2)
	p.LineTo(x+r, y+h)
	p.Arc(x+r, y+h-r, r, math.Pi/2, math.Pi)
	p.LineTo(x, y+r)
	p.Arc(x+r, y+r, r, math.Pi, 3*math.Pi/2)
	p.Close()
}

// box adds the rounded rectangle of a layout box.
func (p *path) box(b layout.Rect, r float64) {
	p.RoundedRectangle(b.X, b.Y, b.Width, b.Height, r)
}

// glyph appends sfnt outline segments with the origin at (x, y).
func (p *path) glyph(segs sfnt.Segments, x, y float64) {
	pt := func(s sfnt.Segment, i int) (float64, float64) {
		return x + float64(s.Args[i].X)/64, y + float64(s.Args[i].Y)/64
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			ax, ay := pt(s, 0)
			p.MoveTo(ax, ay)
		case sfnt.SegmentOpLineTo:
			ax, ay := pt(s, 0)
			p.LineTo(ax, ay)
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s, 0)
			cx, cy := pt(s, 1)
			p.QuadraticTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s, 0)
			cx, cy := pt(s, 1)
			dx, dy := pt(s, 2)
			p.CubicTo(bx, by, cx, cy, dx, dy)
		}
	}
}

// bounds returns the integer pixel rectangle covering every point.
func (p *path) bounds() image.Rectangle {
	if len(p.elements) == 0 || p.minX > p.maxX {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(p.minX)), int(math.Floor(p.minY)),
		int(math.Ceil(p.maxX)), int(math.Ceil(p.maxY)),
	)
}

// replay feeds the path into z, shifted so that origin maps to (0, 0).
// Subpaths are closed explicitly since the rasterizer does not close them
// on MoveTo.
func (p *path) replay(z *vector.Rasterizer, origin image.Point) {
	ox, oy := float64(origin.X), float64(origin.Y)
	f := func(pt point) (float32, float32) {
		return float32(pt.X - ox), float32(pt.Y - oy)
	}
	open := false
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case moveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(f(e.Point))
			open = true
		case lineTo:
			z.LineTo(f(e.Point))
		case quadTo:
			x1, y1 := f(e.Control)
			x, y := f(e.Point)
			z.QuadTo(x1, y1, x, y)
		case cubicTo:
			x1, y1 := f(e.Control1)
			x2, y2 := f(e.Control2)
			x, y := f(e.Point)
			z.CubeTo(x1, y1, x2, y2, x, y)
		case closePath:
			if open {
				z.ClosePath()
				open = false
			}
		}
	}
	if open {
		z.ClosePath()
	}
}

// pixelRect converts a float rectangle to the pixels it touches.
func pixelRect(r layout.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.Right())), int(math.Ceil(r.Bottom())),
	)
}
