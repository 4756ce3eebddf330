package fonts

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fonts package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("fonts: empty font data")

	// ErrRegistryFrozen is returned by Builder.Register after Freeze.
	ErrRegistryFrozen = errors.New("fonts: registry is frozen")

	// ErrNoOutlines is returned when a font has no glyph outlines (for
	// example a bitmap-only emoji font).
	ErrNoOutlines = errors.New("fonts: font has no glyph outlines")
)

// LoadError is returned when font data cannot be parsed.
type LoadError struct {
	// Name is the logical name the font was registered under, if any.
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("fonts: load: %v", e.Err)
	}
	return fmt.Sprintf("fonts: load %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
