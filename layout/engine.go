// Package layout resolves a node tree into positioned boxes.
//
// Containers are single-line flex boxes. Sizes are border-box sizes: an
// explicit width includes padding and border. Percentages resolve against
// the parent's content box, and a percentage of an auto-sized parent
// dimension resolves to 0. Text is shaped once per node and wrapped at the
// width its box receives.
package layout

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/gif"  // register GIF for DecodeConfig
	_ "image/jpeg" // register JPEG for DecodeConfig
	_ "image/png"  // register PNG for DecodeConfig

	_ "golang.org/x/image/bmp"  // register BMP for DecodeConfig
	_ "golang.org/x/image/webp" // register WebP for DecodeConfig

	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/node"
)

const epsilon = 1e-6

var inf = math.Inf(1)

// Option configures Compute.
type Option func(*engine)

// WithResources supplies encoded images referenced by Src, for intrinsic
// image sizes.
func WithResources(res map[string][]byte) Option {
	return func(e *engine) { e.resources = res }
}

type engine struct {
	reg       *fonts.Registry
	resources map[string][]byte

	// Text nodes are measured several times per layout; shaping and image
	// headers are read once.
	shaped    map[*node.Text]textRun
	intrinsic map[*node.Image][2]float64
}

type textRun struct {
	shaped  fonts.Shaped
	ascent  float64
	descent float64
}

// Compute lays out root inside the viewport.
//
// The root's auto width stretches to the viewport width and its auto
// height fits its content. The result is in viewport coordinates with
// paint order numbered in pre-order.
func Compute(root node.Node, vp Viewport, reg *fonts.Registry, opts ...Option) (*Positioned, error) {
	if root == nil {
		return nil, &BuildError{Path: "root", Err: ErrNilNode}
	}
	if reg == nil {
		return nil, &BuildError{Err: ErrNoRegistry}
	}

	e := &engine{
		reg:       reg,
		shaped:    make(map[*node.Text]textRun),
		intrinsic: make(map[*node.Image][2]float64),
	}
	for _, opt := range opts {
		opt(e)
	}

	vw, vh := float64(max(vp.Width, 1)), float64(max(vp.Height, 1))
	c := constraint{
		width: -1, height: -1,
		availW: vw,
		cbW:    vw, cbH: vh,
		cbWDef: true, cbHDef: true,
	}
	s := root.Styles()
	m := resolveEdges(s.Margin, vw, true)
	if s.Width.IsAuto() {
		c.width = max(0, vw-m.left-m.right)
	}
	c.availW = max(0, vw-m.left-m.right)

	p, err := e.layout(root, c, "root")
	if err != nil {
		return nil, err
	}
	p.translate(m.left, m.top)
	p.number(0)
	return p, nil
}

// constraint is what a parent offers a child.
type constraint struct {
	// width and height force the border-box size when >= 0.
	width, height float64

	// availW caps an auto width (fit-content). It may be +Inf.
	availW float64

	// Containing block content size for percentages.
	cbW, cbH       float64
	cbWDef, cbHDef bool
}

type edges struct {
	top, right, bottom, left float64
}

func (e edges) horizontal() float64 { return e.left + e.right }
func (e edges) vertical() float64   { return e.top + e.bottom }

// resolveEdges resolves margin or padding. Percentages on every side are
// relative to the containing block width, as in CSS; auto is 0.
func resolveEdges(d node.Edges, base float64, definite bool) edges {
	get := func(x node.Dimension) float64 {
		v, _ := x.Resolve(base, definite)
		return v
	}
	return edges{top: get(d.Top), right: get(d.Right), bottom: get(d.Bottom), left: get(d.Left)}
}

// clampSize applies min and max to v.
func clampSize(v float64, lo, hi node.Dimension, base float64, definite bool) float64 {
	if mx, ok := hi.Resolve(base, definite); ok && v > mx {
		v = mx
	}
	if mn, ok := lo.Resolve(base, definite); ok && v < mn {
		v = mn
	}
	return max(v, 0)
}

func (e *engine) layout(n node.Node, c constraint, path string) (*Positioned, error) {
	if n == nil {
		return nil, &BuildError{Path: path, Err: ErrNilNode}
	}
	s := n.Styles()
	pad := resolveEdges(s.Padding, c.cbW, c.cbWDef)
	bw := s.Border.Width
	hx := pad.horizontal() + 2*bw
	vy := pad.vertical() + 2*bw

	clampW := func(v float64) float64 {
		return max(clampSize(v, s.MinWidth, s.MaxWidth, c.cbW, c.cbWDef), hx)
	}
	clampH := func(v float64) float64 {
		return max(clampSize(v, s.MinHeight, s.MaxHeight, c.cbH, c.cbHDef), vy)
	}

	w, wDef := c.width, c.width >= 0
	if !wDef {
		if v, ok := s.Width.Resolve(c.cbW, c.cbWDef); ok {
			w, wDef = clampW(v), true
		}
	}
	h, hDef := c.height, c.height >= 0
	if !hDef {
		if v, ok := s.Height.Resolve(c.cbH, c.cbHDef); ok {
			h, hDef = clampH(v), true
		}
	}

	availInner := inf
	if wDef {
		availInner = max(0, w-hx)
	} else if !math.IsInf(c.availW, 1) {
		availInner = max(0, clampW(c.availW)-hx)
	}

	p := &Positioned{Node: n}

	switch n := n.(type) {
	case *node.Container:
		cw, ch, kids, err := e.layoutFlex(n, max(0, w-hx), max(0, h-vy), wDef, hDef, availInner, path)
		if err != nil {
			return nil, err
		}
		if !wDef {
			w = clampW(cw + hx)
			if math.Abs(w-(cw+hx)) > epsilon {
				c.width = w
				return e.layout(n, c, path)
			}
		}
		if !hDef {
			h = clampH(ch + vy)
		}
		p.Children = kids
		p.Clip = !s.Width.IsAuto() || !s.Height.IsAuto()

	case *node.Text:
		run := e.shape(n)
		lh := s.Font.Size * s.Font.LineHeight
		lines := wrap(run.shaped, availInner, s.Font.Wrap)
		widest := 0.0
		for _, gl := range lines {
			widest = max(widest, lineWidth(run.shaped, gl))
		}
		if !wDef {
			w = clampW(math.Ceil(widest-epsilon) + hx)
		}
		if !hDef {
			h = clampH(float64(len(lines))*lh + vy)
		}
		inner := max(0, w-hx)
		half := (lh - (run.ascent + run.descent)) / 2
		for i, gl := range lines {
			lw := lineWidth(run.shaped, gl)
			x := 0.0
			switch s.Font.Align {
			case node.TextAlignCenter:
				x = (inner - lw) / 2
			case node.TextAlignRight:
				x = inner - lw
			}
			p.Lines = append(p.Lines, Line{
				X:        pad.left + bw + x,
				Baseline: pad.top + bw + float64(i)*lh + half + run.ascent,
				Width:    lw,
				Glyphs:   gl,
			})
		}

	case *node.Image:
		iw, ih := e.imageSize(n)
		switch {
		case wDef && !hDef:
			h = vy
			if iw > 0 {
				h = clampH((w-hx)*ih/iw + vy)
			}
		case hDef && !wDef:
			w = hx
			if ih > 0 {
				w = clampW((h-vy)*iw/ih + hx)
			}
		case !wDef && !hDef:
			w, h = clampW(iw+hx), clampH(ih+vy)
		}

	default:
		return nil, &BuildError{Path: path, Err: fmt.Errorf("%w %T", ErrUnknownNode, n)}
	}

	p.Box = Rect{Width: w, Height: h}
	p.Content = Rect{
		X:      pad.left + bw,
		Y:      pad.top + bw,
		Width:  max(0, w-hx),
		Height: max(0, h-vy),
	}
	for _, k := range p.Children {
		k.translate(p.Content.X, p.Content.Y)
	}
	return p, nil
}

func (e *engine) shape(t *node.Text) textRun {
	if run, ok := e.shaped[t]; ok {
		return run
	}
	f := t.Style.Font
	chain := e.reg.Resolve(f.Family, f.Weight)
	run := textRun{
		shaped:  fonts.Shape(chain, t.Value, f.Size),
		ascent:  f.Size * 0.8,
		descent: f.Size * 0.2,
	}
	if p := chain.Primary(); p != nil {
		m := p.Metrics()
		if sc := m.Scale(f.Size); sc > 0 {
			run.ascent, run.descent = m.Ascent*sc, m.Descent*sc
		}
	}
	e.shaped[t] = run
	return run
}

// imageSize returns the intrinsic pixel size from the image header. Data
// that cannot be resolved or decoded measures 0x0; rasterization reports
// the failure.
func (e *engine) imageSize(img *node.Image) (w, h float64) {
	if sz, ok := e.intrinsic[img]; ok {
		return sz[0], sz[1]
	}
	data, err := img.Bytes(e.resources)
	if err == nil {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			w, h = float64(cfg.Width), float64(cfg.Height)
		}
	}
	e.intrinsic[img] = [2]float64{w, h}
	return w, h
}
