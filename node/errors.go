package node

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree decoding.
var (
	// ErrEmptyTree is returned when the tree description is empty or null.
	ErrEmptyTree = errors.New("node: empty tree")

	// ErrUnknownType is returned for a node whose type tag is not a known kind.
	ErrUnknownType = errors.New("node: unknown node type")

	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("node: missing required field")

	// ErrNonFinite is returned for NaN or infinite numeric values.
	ErrNonFinite = errors.New("node: non-finite number")
)

// ParseError reports a malformed tree description.
// Path locates the offending node, e.g. "root.children[2].style.width".
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("node: parse: %v", e.Err)
	}
	return fmt.Sprintf("node: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(path string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Path: path, Err: err}
}
