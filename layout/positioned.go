package layout

import (
	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/node"
)

// Viewport is the output size in pixels.
type Viewport struct {
	Width, Height int
}

// Rect is an axis-aligned box in viewport pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	r.X += d
	r.Y += d
	r.Width = max(0, r.Width-2*d)
	r.Height = max(0, r.Height-2*d)
	return r
}

// Intersect returns the overlap of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (r Rect) translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Line is one wrapped line of a text node.
type Line struct {
	// X is where the pen starts and Baseline the baseline y, both in
	// viewport pixels.
	X, Baseline float64

	// Width excludes trailing white space.
	Width float64

	Glyphs []fonts.Glyph
}

// Positioned is a node with its resolved geometry.
type Positioned struct {
	Node node.Node

	// Box is the border box.
	Box Rect

	// Content is the box inside border and padding.
	Content Rect

	// Clip is set on explicitly sized containers; their descendants are
	// clipped to the padding box.
	Clip bool

	// Order is the paint order: pre-order, parents before children.
	Order int

	Children []*Positioned

	// Lines holds the shaped lines of a text node.
	Lines []Line
}

// Walk calls fn for p and its descendants in paint order. Returning false
// skips the subtree.
func (p *Positioned) Walk(fn func(*Positioned) bool) {
	if p == nil || !fn(p) {
		return
	}
	for _, c := range p.Children {
		c.Walk(fn)
	}
}

func (p *Positioned) translate(dx, dy float64) {
	p.Box = p.Box.translate(dx, dy)
	p.Content = p.Content.translate(dx, dy)
	for i := range p.Lines {
		p.Lines[i].X += dx
		p.Lines[i].Baseline += dy
	}
	for _, c := range p.Children {
		c.translate(dx, dy)
	}
}

func (p *Positioned) number(next int) int {
	p.Order = next
	next++
	for _, c := range p.Children {
		next = c.number(next)
	}
	return next
}
