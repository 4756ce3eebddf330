package encode

import "fmt"

// UnsupportedFormatError is returned for a format name that is not png,
// jpeg, jpg or webp.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("encode: unsupported format %q", e.Format)
}

// Error wraps a failure of the format encoder or the destination writer.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("encode: %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
