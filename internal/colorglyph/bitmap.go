package colorglyph

import (
	"bytes"
	"errors"
	"image"
	"image/png"
)

// Bitmap table format errors.
var (
	// ErrNoCBDTTable indicates the font doesn't have a CBDT table.
	ErrNoCBDTTable = errors.New("colorglyph: font has no CBDT table")

	// ErrInvalidCBDTData indicates the CBDT table data is malformed.
	ErrInvalidCBDTData = errors.New("colorglyph: invalid CBDT table data")

	// ErrGlyphNotInBitmap indicates the glyph has no bitmap data.
	ErrGlyphNotInBitmap = errors.New("colorglyph: glyph not found in bitmap table")
)

// BitmapGlyph is a PNG emoji image from a CBDT strike.
type BitmapGlyph struct {
	GlyphID uint16

	// Data is the PNG stream.
	Data []byte

	// Width and Height are the bitmap size in strike pixels.
	Width  int
	Height int

	// OriginX and OriginY place the top-left corner relative to the pen
	// position on the baseline. OriginY grows upward.
	OriginX float32
	OriginY float32

	// Advance is the horizontal advance in strike pixels.
	Advance int

	// PPEM is the pixels-per-em of the strike. Scale by fontSize/PPEM to
	// draw at a given size.
	PPEM uint16
}

// Decode decodes the PNG data.
func (b *BitmapGlyph) Decode() (image.Image, error) {
	return png.Decode(bytes.NewReader(b.Data))
}
