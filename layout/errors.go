package layout

import (
	"errors"
	"fmt"
)

// Sentinel errors for layout.
var (
	// ErrUnknownNode is returned for a node variant the engine cannot lay out.
	ErrUnknownNode = errors.New("layout: unknown node variant")

	// ErrNilNode is returned for a nil root or child.
	ErrNilNode = errors.New("layout: nil node")

	// ErrNoRegistry is returned when Compute is called without fonts.
	ErrNoRegistry = errors.New("layout: no font registry")
)

// BuildError reports a tree that cannot be laid out.
type BuildError struct {
	// Path locates the node, e.g. "root.children[0]".
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("layout: %v", e.Err)
	}
	return fmt.Sprintf("layout: %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
