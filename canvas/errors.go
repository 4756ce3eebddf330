package canvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/ogimage/node"
)

// Sentinel errors for rasterization.
var (
	// ErrUnknownNode is returned for a node variant the painter cannot draw.
	ErrUnknownNode = errors.New("canvas: unknown node variant")

	// ErrNilTree is returned when there is nothing to rasterize.
	ErrNilTree = errors.New("canvas: nil tree")

	// ErrTooLarge is returned when the viewport exceeds the buffer limits.
	ErrTooLarge = errors.New("canvas: viewport too large")
)

// RenderError reports a node that could not be drawn, for example an image
// whose data does not decode. No placeholder is drawn in its place.
type RenderError struct {
	// Order is the paint order index of the node.
	Order int
	Kind  node.Kind
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("canvas: %s #%d: %v", e.Kind, e.Order, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
