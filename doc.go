// Package ogimage renders social cards and other generated images from a
// tree of styled nodes.
//
// # Overview
//
// A render takes a node tree, an output size and a format, and returns the
// encoded image:
//
//	root, err := node.Decode(treeJSON)
//	if err != nil {
//		return err
//	}
//	req, err := ogimage.NewRequest(root, 1200, 630, ogimage.WithFormat("png"))
//	if err != nil {
//		return err
//	}
//	png, err := ogimage.Render(req)
//
// RenderJSON does the same starting from the JSON tree.
//
// # Pipeline
//
// Every render runs the same stages in order:
//   - layout: flexbox layout and text shaping (package layout)
//   - render: rasterization into an RGBA buffer (package canvas)
//   - encode: PNG, JPEG or WebP output (package encode)
//
// The first failure stops the render and is returned as a *StageError
// naming the stage. Nothing is cached between calls.
//
// # Fonts
//
// Text is shaped against a frozen font registry. By default that is
// fonts.Bundled: the Go fonts as sans-serif and monospace plus a
// compiled-in color emoji font, overridden by one found on the host. A
// registry is safe to share between
// concurrent renders; use WithRegistry or WithFont to change it.
//
// # Coordinate System
//
// The origin is the top-left corner of the output, x grows right and y
// grows down, in pixels.
package ogimage

// Version is the library version.
const Version = "0.3.0"
