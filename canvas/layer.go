package canvas

import (
	"image"
	"image/color"
	"image/draw"
)

// layer is an offscreen drawing target. Opacity groups and rounded clips
// draw their content into a layer, which is composited onto its parent
// when popped.
type layer struct {
	img     *image.RGBA
	parent  *image.RGBA
	mask    *image.Alpha
	opacity float64
}

// layerStack manages the layer hierarchy of one traversal.
type layerStack struct {
	layers []*layer
}

// pushLayer makes a transparent layer the size of the current clip the
// active drawing target. When popped it is composited through mask, or
// through the whole clip when mask is nil, scaled by opacity.
func (p *painter) pushLayer(mask *image.Alpha, opacity float64) {
	l := &layer{
		img:     image.NewRGBA(p.clip),
		parent:  p.dst,
		mask:    mask,
		opacity: min(max(opacity, 0), 1),
	}
	p.layers.layers = append(p.layers.layers, l)
	p.dst = l.img
}

// popLayer composites the current layer onto its parent and restores the
// parent as the drawing target. It does nothing without a pushed layer.
func (p *painter) popLayer() {
	layers := p.layers.layers
	if len(layers) == 0 {
		return
	}
	l := layers[len(layers)-1]
	p.layers.layers = layers[:len(layers)-1]
	p.dst = l.parent
	compositeLayer(l)
}

// compositeLayer blends l onto its parent with source-over.
func compositeLayer(l *layer) {
	bounds := l.img.Rect
	if bounds.Empty() {
		return
	}
	a := uint8(l.opacity*255 + 0.5)
	var m image.Image = image.NewUniform(color.Alpha{A: a})
	if l.mask != nil {
		if a < 255 {
			for i, v := range l.mask.Pix {
				l.mask.Pix[i] = uint8((uint32(v)*uint32(a) + 127) / 255)
			}
		}
		m = l.mask
	}
	draw.DrawMask(l.parent, bounds, l.img, bounds.Min, m, bounds.Min, draw.Over)
}
