package ogimage

import (
	"context"
	"time"

	"github.com/gogpu/ogimage/canvas"
	"github.com/gogpu/ogimage/encode"
	"github.com/gogpu/ogimage/layout"
	"github.com/gogpu/ogimage/node"
)

// Render lays out, rasterizes and encodes req. It returns the first
// failure as a *StageError and never returns partial output.
func Render(req Request) ([]byte, error) {
	buf, err := Rasterize(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := encode.Bytes(buf.Image(), req.Format, req.Quality)
	if err != nil {
		return nil, stageErr(StageEncode, err)
	}
	Logger().Debug("ogimage: encoded",
		"format", req.Format.String(), "quality", req.Quality,
		"bytes", len(out), "elapsed", time.Since(start))
	return out, nil
}

// Rasterize runs the layout and render stages and returns the pixels.
func Rasterize(req Request) (*canvas.Buffer, error) {
	if req.Root == nil {
		return nil, &StageError{Stage: StageInput, Err: ErrNilRoot}
	}
	vp := layout.Viewport{Width: max(req.Width, 1), Height: max(req.Height, 1)}
	if err := canvas.CheckSize(vp.Width, vp.Height); err != nil {
		return nil, stageErr(StageRender, &canvas.RenderError{Kind: req.Root.Kind(), Err: err})
	}

	start := time.Now()
	tree, err := layout.Compute(req.Root, vp, req.Registry, layout.WithResources(req.Resources))
	if err != nil {
		return nil, stageErr(StageLayout, err)
	}
	Logger().Debug("ogimage: layout done", "width", vp.Width, "height", vp.Height,
		"elapsed", time.Since(start))

	start = time.Now()
	buf, err := canvas.Rasterize(tree, vp, req.Resources)
	if err != nil {
		return nil, stageErr(StageRender, err)
	}
	Logger().Debug("ogimage: rasterized", "elapsed", time.Since(start))
	return buf, nil
}

// RenderJSON decodes a JSON node tree and renders it. format and quality
// follow WithFormat and WithQuality.
func RenderJSON(tree []byte, width, height int, format string, quality int, opts ...RequestOption) ([]byte, error) {
	root, err := node.Decode(tree)
	if err != nil {
		return nil, &StageError{Stage: StageInput, Err: err}
	}
	opts = append([]RequestOption{WithFormat(format), WithQuality(quality)}, opts...)
	req, err := NewRequest(root, width, height, opts...)
	if err != nil {
		return nil, err
	}
	return Render(req)
}

// RenderContext is Render with coarse cancellation: when ctx ends first
// it returns ctx.Err() and the in-flight render is discarded.
func RenderContext(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := Render(req)
		done <- result{out, err}
	}()
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
