package canvas

import (
	"fmt"
	"image"
	"image/color"
)

// Buffer limits. A buffer never exceeds MaxDimension pixels on a side or
// MaxPixels in total.
const (
	MaxDimension = 1 << 14
	MaxPixels    = 1 << 26
)

// Buffer is the pixel buffer of one render: width x height RGBA8 pixels,
// premultiplied, transparent until painted.
type Buffer struct {
	img *image.RGBA
}

// NewBuffer returns a transparent buffer. Sizes below 1 are raised to 1.
// Sizes above the buffer limits fail with ErrTooLarge.
func NewBuffer(width, height int) (*Buffer, error) {
	width, height = max(width, 1), max(height, 1)
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}
	return &Buffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// CheckSize reports ErrTooLarge when a width x height buffer exceeds the
// buffer limits.
func CheckSize(width, height int) error {
	// Each side is bounded before the product, so it cannot overflow.
	if width > MaxDimension || height > MaxDimension || width*height > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}
	return nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Image returns the buffer as an image. The pixels are shared.
func (b *Buffer) Image() *image.RGBA { return b.img }

// At returns the straight-alpha color at (x, y).
func (b *Buffer) At(x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(b.img.At(x, y)).(color.NRGBA)
}
