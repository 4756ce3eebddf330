// Package encode turns a rendered pixel buffer into PNG, JPEG or WebP bytes.
//
// PNG output is deterministic: the same pixels always encode to the same
// bytes. JPEG and WebP are lossy and take a quality in [0, 100]; values
// outside that range fall back to the format default.
package encode

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gen2brain/webp"
)

// Format is an output image format.
type Format uint8

const (
	PNG Format = iota
	JPEG
	WebP
)

// Default lossy qualities.
const (
	DefaultJPEGQuality = 75
	DefaultWebPQuality = 75
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	case WebP:
		return "webp"
	default:
		return "unknown"
	}
}

// MediaType returns the IANA media type of the format.
func (f Format) MediaType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Lossy reports whether quality applies to the format.
func (f Format) Lossy() bool { return f == JPEG || f == WebP }

// ParseFormat matches s case-insensitively against png, jpeg, jpg and webp.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	default:
		return 0, &UnsupportedFormatError{Format: s}
	}
}

// DefaultQuality returns the quality used when none is given. PNG has
// none and returns 0.
func DefaultQuality(f Format) int {
	switch f {
	case JPEG:
		return DefaultJPEGQuality
	case WebP:
		return DefaultWebPQuality
	default:
		return 0
	}
}

// ResolveQuality returns q when it lies in [0, 100] and the format default
// otherwise.
func ResolveQuality(f Format, q int) int {
	if q < 0 || q > 100 {
		return DefaultQuality(f)
	}
	return q
}

var pngEncoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// Bytes encodes img and returns the complete output.
func Bytes(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes img to w in format f. Output is produced in memory first,
// so w sees either the whole image or nothing.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	var buf bytes.Buffer
	var err error
	quality = ResolveQuality(f, quality)

	switch f {
	case PNG:
		err = pngEncoder.Encode(&buf, img)
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case WebP:
		err = webp.Encode(&buf, img, webp.Options{Quality: quality})
	default:
		return &UnsupportedFormatError{Format: f.String()}
	}
	if err != nil {
		return &Error{Format: f, Err: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &Error{Format: f, Err: err}
	}
	return nil
}
