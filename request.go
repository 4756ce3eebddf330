package ogimage

import (
	"github.com/gogpu/ogimage/encode"
	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/layout"
	"github.com/gogpu/ogimage/node"
)

// Request is a validated render request. Build it with NewRequest.
type Request struct {
	Root node.Node

	// Width and Height are at least 1.
	Width, Height int

	Format encode.Format

	// Quality is already resolved against Format.
	Quality int

	Registry  *fonts.Registry
	Resources map[string][]byte
}

// NewRequest validates the inputs of a render. Dimensions below 1 are
// raised to 1 and quality falls back to the format default. An unknown
// format fails here, before any work is done.
func NewRequest(root node.Node, width, height int, opts ...RequestOption) (Request, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if root == nil {
		return Request{}, &StageError{Stage: StageInput, Err: ErrNilRoot}
	}
	format, err := encode.ParseFormat(o.format)
	if err != nil {
		return Request{}, &StageError{Stage: StageInput, Err: err}
	}

	reg := o.registry
	if reg == nil {
		reg = fonts.Bundled()
	}
	if len(o.fonts) > 0 {
		b := reg.Extend()
		for _, f := range o.fonts {
			if _, err := b.Register(f.data, f.name, f.generic); err != nil {
				return Request{}, &StageError{Stage: StageFont, Err: err}
			}
		}
		reg = b.Freeze()
	}

	return Request{
		Root:      root,
		Width:     max(width, 1),
		Height:    max(height, 1),
		Format:    format,
		Quality:   encode.ResolveQuality(format, o.quality),
		Registry:  reg,
		Resources: o.resources,
	}, nil
}

// Viewport returns the output size.
func (r Request) Viewport() layout.Viewport {
	return layout.Viewport{Width: r.Width, Height: r.Height}
}
