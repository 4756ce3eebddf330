package canvas

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/internal/colorglyph"
	"github.com/gogpu/ogimage/layout"
	"github.com/gogpu/ogimage/node"
)

func (p *painter) paintText(n *layout.Positioned, s *node.Style) {
	size := s.Font.Size
	ink := s.Font.Color.NRGBA()
	for _, line := range n.Lines {
		pen := line.X
		for _, g := range line.Glyphs {
			switch {
			case g.IsControl():
			case g.Missing:
				p.missingBox(pen, line.Baseline, g.Advance, size, ink)
			default:
				p.glyph(g, pen+g.XOffset, line.Baseline-g.YOffset, size, ink)
			}
			pen += g.Advance
		}
	}
}

// glyph draws one glyph with its origin at (x, y). Color layers win over
// bitmaps, and bitmaps win over the plain outline.
func (p *painter) glyph(g fonts.Glyph, x, y, size float64, ink color.NRGBA) {
	res := g.Font
	if layers := res.ColorLayers(g.GID); len(layers) > 0 {
		for _, l := range layers {
			c := l.Color
			if l.IsForeground() {
				c = ink
			}
			p.outline(res, l.GlyphID, x, y, size, c)
		}
		return
	}
	if bm := res.Bitmap(g.GID, size); bm != nil {
		if p.bitmap(bm, x, y, size) {
			return
		}
	}
	p.outline(res, g.GID, x, y, size, ink)
}

func (p *painter) outline(res *fonts.Resource, gid uint16, x, y, size float64, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	segs, err := res.Outline(&p.sbuf, gid, size)
	if err != nil || len(segs) == 0 {
		return
	}
	pa := newPath()
	pa.glyph(segs, x, y)
	p.fill(pa, c)
}

// bitmap scales a CBDT glyph from its strike size to size pixels.
// It reports false when the PNG does not decode.
func (p *painter) bitmap(bm *colorglyph.BitmapGlyph, x, y, size float64) bool {
	img, err := bm.Decode()
	if err != nil {
		return false
	}
	scale := size / float64(max(bm.PPEM, 1))
	x0 := x + float64(bm.OriginX)*scale
	y0 := y - float64(bm.OriginY)*scale
	dr := image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x0+float64(bm.Width)*scale)), int(math.Round(y0+float64(bm.Height)*scale)),
	)
	if dr.Empty() || dr.Intersect(p.clip).Empty() {
		return true
	}
	xdraw.CatmullRom.Scale(p.target(), dr, img, img.Bounds(), xdraw.Over, nil)
	return true
}

// missingBox draws the hollow box that stands in for an uncovered rune.
func (p *painter) missingBox(x, baseline, advance, size float64, c color.NRGBA) {
	box := layout.Rect{
		X:      x + advance*0.1,
		Y:      baseline - size*0.7,
		Width:  advance * 0.8,
		Height: size * 0.7,
	}
	if box.Empty() {
		return
	}
	p.ring(box, 0, max(1, size/16), c)
}
