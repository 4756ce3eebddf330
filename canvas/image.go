package canvas

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/ogimage/layout"
	"github.com/gogpu/ogimage/node"
)

// decoded is an image source ready to draw.
type decoded struct {
	img    image.Image
	format string
}

// decodeImages decodes every image node of the tree, in paint order.
func (p *painter) decodeImages(n *layout.Positioned) error {
	if img, ok := n.Node.(*node.Image); ok {
		if _, done := p.images[img]; !done {
			d, err := decodeImage(img, p.resources)
			if err != nil {
				return &RenderError{Order: n.Order, Kind: node.KindImage, Err: err}
			}
			p.images[img] = d
		}
	}
	for _, c := range n.Children {
		if err := p.decodeImages(c); err != nil {
			return err
		}
	}
	return nil
}

func decodeImage(img *node.Image, resources map[string][]byte) (decoded, error) {
	data, err := img.Bytes(resources)
	if err != nil {
		return decoded{}, err
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return decoded{}, fmt.Errorf("decode image: %w", err)
	}
	return decoded{img: src, format: format}, nil
}

func (p *painter) paintImage(n *layout.Positioned, img *node.Image) {
	d, ok := p.images[img]
	if !ok || n.Content.Empty() {
		return
	}
	src := d.img
	sb := src.Bounds()
	if sb.Empty() {
		return
	}
	logger().Debug("canvas: draw image", "format", d.format, "size", sb.Size(), "fit", img.Fit)

	dr := fitRect(n.Content, float64(sb.Dx()), float64(sb.Dy()), img.Fit)

	saved := p.clip
	defer func() { p.clip = saved }()
	p.clip = p.clip.Intersect(pixelRect(n.Content))
	if p.clip.Empty() {
		return
	}

	if r := img.Style.BorderRadius; r > 0 {
		shape := newPath()
		shape.box(n.Box.Inset(img.Style.Border.Width), max(0, r-img.Style.Border.Width))
		p.pushLayer(p.coverage(shape, p.clip), 1)
		defer p.popLayer()
	}
	xdraw.CatmullRom.Scale(p.target(), pixelRect(dr), src, sb, xdraw.Over, nil)
}

// fitRect places an image of size iw x ih inside box according to fit.
// Contain and cover keep the aspect ratio and center the result.
func fitRect(box layout.Rect, iw, ih float64, fit node.Fit) layout.Rect {
	if fit == node.FitStretch || iw <= 0 || ih <= 0 {
		return box
	}
	sx, sy := box.Width/iw, box.Height/ih
	scale := min(sx, sy)
	if fit == node.FitCover {
		scale = max(sx, sy)
	}
	w, h := iw*scale, ih*scale
	return layout.Rect{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
