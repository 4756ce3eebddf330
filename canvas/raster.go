// Package canvas rasterizes a positioned tree into an RGBA buffer.
//
// Every node paints its background, then its border ring, then its content,
// in the tree's paint order. Shapes are filled with anti-aliased coverage
// from golang.org/x/image/vector and composited source-over. Opacity below
// one paints the node and its subtree into a separate layer that is blended
// back as a whole.
package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"

	"github.com/gogpu/ogimage/layout"
	"github.com/gogpu/ogimage/node"
)

// Rasterize paints tree into a new buffer of the viewport size. resources
// resolves image sources by key. Every image is decoded before painting
// starts, so an image that would end up invisible still fails on bad data.
func Rasterize(tree *layout.Positioned, vp layout.Viewport, resources map[string][]byte) (*Buffer, error) {
	if tree == nil {
		return nil, ErrNilTree
	}
	buf, err := NewBuffer(vp.Width, vp.Height)
	if err != nil {
		return nil, &RenderError{Order: tree.Order, Kind: tree.Node.Kind(), Err: err}
	}
	p := &painter{
		dst:       buf.img,
		clip:      buf.img.Rect,
		resources: resources,
		images:    make(map[*node.Image]decoded),
	}
	if err := p.decodeImages(tree); err != nil {
		return nil, err
	}
	if err := p.paint(tree); err != nil {
		return nil, err
	}
	return buf, nil
}

// painter carries the drawing state through one traversal.
type painter struct {
	dst       *image.RGBA
	clip      image.Rectangle
	resources map[string][]byte
	images    map[*node.Image]decoded
	layers    layerStack

	rast vector.Rasterizer
	sbuf sfnt.Buffer
}

func (p *painter) paint(n *layout.Positioned) error {
	s := n.Node.Styles()
	if s.Opacity <= 0 {
		return nil
	}
	if s.Opacity < 1 {
		if p.clip.Empty() {
			return nil
		}
		p.pushLayer(nil, s.Opacity)
		defer p.popLayer()
	}
	return p.paintNode(n)
}

func (p *painter) paintNode(n *layout.Positioned) error {
	s := n.Node.Styles()
	p.paintBox(n.Box, s)

	switch v := n.Node.(type) {
	case *node.Container:
		return p.paintChildren(n, s)
	case *node.Text:
		p.paintText(n, &v.Style)
		return nil
	case *node.Image:
		p.paintImage(n, v)
		return nil
	default:
		return &RenderError{Order: n.Order, Kind: n.Node.Kind(), Err: ErrUnknownNode}
	}
}

func (p *painter) paintChildren(n *layout.Positioned, s *node.Style) error {
	if len(n.Children) == 0 {
		return nil
	}
	if n.Clip {
		inner := n.Box.Inset(s.Border.Width)
		saved := p.clip
		defer func() { p.clip = saved }()
		p.clip = p.clip.Intersect(pixelRect(inner))
		if p.clip.Empty() {
			return nil
		}
		if s.BorderRadius > 0 {
			shape := newPath()
			shape.box(inner, max(0, s.BorderRadius-s.Border.Width))
			p.pushLayer(p.coverage(shape, p.clip), 1)
			defer p.popLayer()
		}
	}
	for _, c := range n.Children {
		if err := p.paint(c); err != nil {
			return err
		}
	}
	return nil
}

// paintBox fills the background and the border ring of a box.
func (p *painter) paintBox(box layout.Rect, s *node.Style) {
	if box.Empty() {
		return
	}
	if !s.Background.IsZero() {
		bg := newPath()
		bg.box(box, s.BorderRadius)
		p.fill(bg, s.Background.NRGBA())
	}
	if w := s.Border.Width; w > 0 && !s.Border.Color.IsZero() {
		p.ring(box, s.BorderRadius, w, s.Border.Color.NRGBA())
	}
}

// ring fills the band of width w inside box, following radius r.
func (p *painter) ring(box layout.Rect, r, w float64, c color.NRGBA) {
	outer := newPath()
	outer.box(box, r)
	bounds := outer.bounds().Intersect(p.clip)
	if c.A == 0 || bounds.Empty() {
		return
	}
	mask := p.coverage(outer, bounds)
	if inner := box.Inset(w); !inner.Empty() {
		hole := newPath()
		hole.box(inner, max(0, r-w))
		cut := p.coverage(hole, bounds)
		for i, v := range cut.Pix {
			mask.Pix[i] -= min(mask.Pix[i], v)
		}
	}
	draw.DrawMask(p.dst, bounds, image.NewUniform(c), image.Point{}, mask, bounds.Min, draw.Over)
}

// coverage rasterizes pa into an alpha mask covering bounds.
func (p *painter) coverage(pa *path, bounds image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(bounds)
	if bounds.Empty() {
		return mask
	}
	p.rast.Reset(bounds.Dx(), bounds.Dy())
	p.rast.DrawOp = draw.Src
	pa.replay(&p.rast, bounds.Min)
	p.rast.Draw(mask, bounds, image.Opaque, image.Point{})
	return mask
}

// fill composites c through the coverage of pa.
func (p *painter) fill(pa *path, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	bounds := pa.bounds().Intersect(p.clip)
	if bounds.Empty() {
		return
	}
	mask := p.coverage(pa, bounds)
	draw.DrawMask(p.dst, bounds, image.NewUniform(c), image.Point{}, mask, bounds.Min, draw.Over)
}

// target returns the destination restricted to the current clip.
func (p *painter) target() *image.RGBA {
	return p.dst.SubImage(p.clip).(*image.RGBA)
}
