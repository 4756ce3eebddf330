// Package colorglyph reads the color glyph tables used by emoji fonts.
//
// Two formats are supported:
//
//   - COLRv0 with CPAL: a color glyph is a stack of ordinary outline glyphs,
//     each painted with a palette color (Twemoji, Segoe UI Emoji).
//   - CBDT with CBLC: a color glyph is a PNG bitmap at a fixed strike size
//     (Noto Color Emoji).
//
// The parsers work on raw table bytes and never modify them. Everything is
// parsed up front, so parsers are safe for concurrent use.
package colorglyph

import (
	"encoding/binary"
	"errors"
	"image/color"
)

// COLR/CPAL table format errors.
var (
	// ErrNoCOLRTable indicates the font doesn't have a COLR table.
	ErrNoCOLRTable = errors.New("colorglyph: font has no COLR table")

	// ErrNoCPALTable indicates the font doesn't have a CPAL table.
	ErrNoCPALTable = errors.New("colorglyph: font has no CPAL table")

	// ErrInvalidCOLRData indicates the COLR table data is malformed.
	ErrInvalidCOLRData = errors.New("colorglyph: invalid COLR table data")

	// ErrInvalidCPALData indicates the CPAL table data is malformed.
	ErrInvalidCPALData = errors.New("colorglyph: invalid CPAL table data")

	// ErrGlyphNotInCOLR indicates the glyph is not a color glyph.
	ErrGlyphNotInCOLR = errors.New("colorglyph: glyph not found in COLR table")

	// ErrUnsupportedCOLRVersion indicates an unsupported COLR version.
	ErrUnsupportedCOLRVersion = errors.New("colorglyph: unsupported COLR version")
)

// ForegroundIndex is the palette index that means "use the text color".
const ForegroundIndex = 0xFFFF

// COLRGlyph is a color glyph: outline glyphs stacked bottom to top, each
// painted in one color.
type COLRGlyph struct {
	GlyphID uint16

	// Layers contains the color layers, bottom to top.
	Layers []ColorLayer

	// Version is the COLR table version (0 or 1).
	Version uint16
}

// ColorLayer is one layer of a color glyph.
type ColorLayer struct {
	// GlyphID is the outline glyph painted by this layer.
	GlyphID uint16

	// PaletteIndex indexes the CPAL palette. ForegroundIndex selects the
	// text color; so does any index the palette does not have.
	PaletteIndex uint16

	// Color is the resolved palette color. Zero for foreground layers.
	Color color.NRGBA
}

// IsForeground reports whether the layer is painted with the text color.
func (l ColorLayer) IsForeground() bool {
	return l.PaletteIndex == ForegroundIndex
}

// COLRParser parses COLR/CPAL tables from font data. Only the version 0
// records are read; COLRv1 fonts still carry them for older renderers.
type COLRParser struct {
	version    uint16
	baseGlyphs []baseGlyphRecord
	layers     []layerRecord
	palettes   [][]color.NRGBA
}

type baseGlyphRecord struct {
	glyphID    uint16
	firstLayer uint16
	numLayers  uint16
}

type layerRecord struct {
	glyphID      uint16
	paletteIndex uint16
}

// NewCOLRParser creates a parser from the raw COLR and CPAL tables.
func NewCOLRParser(colrData, cpalData []byte) (*COLRParser, error) {
	if len(colrData) == 0 {
		return nil, ErrNoCOLRTable
	}
	if len(cpalData) == 0 {
		return nil, ErrNoCPALTable
	}

	p := &COLRParser{}
	if err := p.parseCOLRHeader(colrData); err != nil {
		return nil, err
	}
	if err := p.parseCPAL(cpalData); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *COLRParser) parseCOLRHeader(data []byte) error {
	if len(data) < 14 {
		return ErrInvalidCOLRData
	}

	p.version = binary.BigEndian.Uint16(data[0:2])
	if p.version > 1 {
		return ErrUnsupportedCOLRVersion
	}

	numBaseGlyphs := binary.BigEndian.Uint16(data[2:4])
	baseGlyphOffset := binary.BigEndian.Uint32(data[4:8])
	layerRecordOffset := binary.BigEndian.Uint32(data[8:12])
	numLayers := binary.BigEndian.Uint16(data[12:14])

	if err := p.parseBaseGlyphs(data, baseGlyphOffset, numBaseGlyphs); err != nil {
		return err
	}
	return p.parseLayers(data, layerRecordOffset, numLayers)
}

func (p *COLRParser) parseBaseGlyphs(data []byte, offset uint32, n uint16) error {
	const recordSize = 6 // glyphID, firstLayer, numLayers

	p.baseGlyphs = make([]baseGlyphRecord, n)
	for i := range p.baseGlyphs {
		pos := int(offset) + i*recordSize
		if pos+recordSize > len(data) {
			return ErrInvalidCOLRData
		}
		p.baseGlyphs[i] = baseGlyphRecord{
			glyphID:    binary.BigEndian.Uint16(data[pos : pos+2]),
			firstLayer: binary.BigEndian.Uint16(data[pos+2 : pos+4]),
			numLayers:  binary.BigEndian.Uint16(data[pos+4 : pos+6]),
		}
	}
	return nil
}

func (p *COLRParser) parseLayers(data []byte, offset uint32, n uint16) error {
	const recordSize = 4 // glyphID, paletteIndex

	p.layers = make([]layerRecord, n)
	for i := range p.layers {
		pos := int(offset) + i*recordSize
		if pos+recordSize > len(data) {
			return ErrInvalidCOLRData
		}
		p.layers[i] = layerRecord{
			glyphID:      binary.BigEndian.Uint16(data[pos : pos+2]),
			paletteIndex: binary.BigEndian.Uint16(data[pos+2 : pos+4]),
		}
	}
	return nil
}

// parseCPAL reads every palette. Color records are stored as BGRA.
func (p *COLRParser) parseCPAL(data []byte) error {
	if len(data) < 12 {
		return ErrInvalidCPALData
	}

	numEntries := binary.BigEndian.Uint16(data[2:4])
	numPalettes := binary.BigEndian.Uint16(data[4:6])
	colorRecordsOffset := binary.BigEndian.Uint32(data[8:12])

	if 12+int(numPalettes)*2 > len(data) {
		return ErrInvalidCPALData
	}

	p.palettes = make([][]color.NRGBA, numPalettes)
	for i := range p.palettes {
		first := binary.BigEndian.Uint16(data[12+i*2:])
		palette := make([]color.NRGBA, numEntries)
		for j := range palette {
			pos := int(colorRecordsOffset) + (int(first)+j)*4
			if pos+4 > len(data) {
				return ErrInvalidCPALData
			}
			palette[j] = color.NRGBA{B: data[pos], G: data[pos+1], R: data[pos+2], A: data[pos+3]}
		}
		p.palettes[i] = palette
	}
	return nil
}

// HasGlyph reports whether glyphID is a color glyph.
func (p *COLRParser) HasGlyph(glyphID uint16) bool {
	_, found := p.findBaseGlyph(glyphID)
	return found
}

// GetGlyph returns the layers of glyphID with colors resolved against
// palette paletteIndex. It returns ErrGlyphNotInCOLR for plain glyphs.
func (p *COLRParser) GetGlyph(glyphID uint16, paletteIndex int) (*COLRGlyph, error) {
	record, found := p.findBaseGlyph(glyphID)
	if !found {
		return nil, ErrGlyphNotInCOLR
	}
	end := int(record.firstLayer) + int(record.numLayers)
	if end > len(p.layers) {
		return nil, ErrInvalidCOLRData
	}

	var palette []color.NRGBA
	if paletteIndex >= 0 && paletteIndex < len(p.palettes) {
		palette = p.palettes[paletteIndex]
	}

	glyph := &COLRGlyph{
		GlyphID: glyphID,
		Layers:  make([]ColorLayer, 0, record.numLayers),
		Version: p.version,
	}
	for _, rec := range p.layers[record.firstLayer:end] {
		l := ColorLayer{GlyphID: rec.glyphID, PaletteIndex: ForegroundIndex}
		if int(rec.paletteIndex) < len(palette) {
			l.PaletteIndex = rec.paletteIndex
			l.Color = palette[rec.paletteIndex]
		}
		glyph.Layers = append(glyph.Layers, l)
	}
	return glyph, nil
}

// findBaseGlyph binary-searches the base glyph records, which the format
// keeps sorted by glyph id.
func (p *COLRParser) findBaseGlyph(glyphID uint16) (baseGlyphRecord, bool) {
	lo, hi := 0, len(p.baseGlyphs)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.baseGlyphs[mid].glyphID < glyphID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(p.baseGlyphs) && p.baseGlyphs[lo].glyphID == glyphID {
		return p.baseGlyphs[lo], true
	}
	return baseGlyphRecord{}, false
}
