package colorglyph

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// CBDT/CBLC table format errors.
var (
	// ErrNoCBLCTable indicates the font doesn't have a CBLC table.
	ErrNoCBLCTable = errors.New("colorglyph: font has no CBLC table")

	// ErrInvalidCBLCData indicates the CBLC table data is malformed.
	ErrInvalidCBLCData = errors.New("colorglyph: invalid CBLC table data")

	// ErrUnsupportedIndexFormat indicates an unsupported index subtable format.
	ErrUnsupportedIndexFormat = errors.New("colorglyph: unsupported index subtable format")

	// ErrUnsupportedImageFormat indicates an unsupported image format.
	ErrUnsupportedImageFormat = errors.New("colorglyph: unsupported image format")

	// ErrNoStrikeAvailable indicates no bitmap strike is available.
	ErrNoStrikeAvailable = errors.New("colorglyph: no bitmap strike available")
)

const cblcMajorVersion = 3

// Index subtable formats.
const (
	indexFormat1 = 1 // variable metrics, 32-bit offsets
	indexFormat2 = 2 // constant metrics, no offset array
	indexFormat3 = 3 // variable metrics, 16-bit offsets
	indexFormat4 = 4 // variable metrics, sparse glyph IDs
	indexFormat5 = 5 // constant metrics, sparse glyph IDs
)

// Image data formats (in CBDT).
const (
	imageFormat17 = 17 // small metrics + PNG
	imageFormat18 = 18 // big metrics + PNG
	imageFormat19 = 19 // metrics in CBLC, PNG data only
)

const (
	bitmapSizeRecordLen = 48
	bigMetricsLen       = 8
	smallMetricsLen     = 5
)

// StrikeStrategy determines how a bitmap strike is selected.
type StrikeStrategy int

const (
	// StrikeBestFit selects the smallest strike >= requested size, or the
	// largest if none is big enough.
	StrikeBestFit StrikeStrategy = iota

	// StrikeExact selects only an exact match.
	StrikeExact

	// StrikeLargest always selects the largest available strike.
	StrikeLargest
)

// String returns the string representation of the strike strategy.
func (s StrikeStrategy) String() string {
	switch s {
	case StrikeBestFit:
		return "BestFit"
	case StrikeExact:
		return "Exact"
	case StrikeLargest:
		return "Largest"
	default:
		return "Unknown"
	}
}

// CBDTExtractor extracts bitmap glyphs from CBDT/CBLC tables.
type CBDTExtractor struct {
	cbdtData []byte
	cblcData []byte
	strikes  []bitmapStrike
}

type bitmapStrike struct {
	indexSubtableListOffset uint32
	numberOfIndexSubtables  uint32

	startGlyphIndex uint16
	endGlyphIndex   uint16
	ppemX           uint8

	indexSubtables []indexSubtable
}

type indexSubtable struct {
	firstGlyphIndex uint16
	lastGlyphIndex  uint16
	indexFormat     uint16
	imageFormat     uint16
	imageDataOffset uint32

	offsets32  []uint32            // format 1
	offsets16  []uint16            // format 3
	imageSize  uint32              // formats 2, 5
	bigMetrics *glyphMetrics       // formats 2, 5
	glyphPairs []glyphIDOffsetPair // format 4
	glyphIDs   []uint16            // format 5
}

type glyphIDOffsetPair struct {
	glyphID    uint16
	sbitOffset uint16
}

// glyphMetrics holds the horizontal part of small and big glyph metrics.
type glyphMetrics struct {
	height   uint8
	width    uint8
	bearingX int8
	bearingY int8
	advance  uint8
}

// NewCBDTExtractor creates an extractor from the raw CBDT and CBLC tables.
// Every strike's index subtables are parsed here.
func NewCBDTExtractor(cbdtData, cblcData []byte) (*CBDTExtractor, error) {
	if len(cblcData) == 0 {
		return nil, ErrNoCBLCTable
	}
	if len(cbdtData) == 0 {
		return nil, ErrNoCBDTTable
	}

	e := &CBDTExtractor{cbdtData: cbdtData, cblcData: cblcData}
	if err := e.parseCBLC(); err != nil {
		return nil, err
	}
	for i := range e.strikes {
		if err := e.parseIndexSubtables(i); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *CBDTExtractor) parseCBLC() error {
	data := e.cblcData
	if len(data) < 8 {
		return ErrInvalidCBLCData
	}

	major := binary.BigEndian.Uint16(data[0:2])
	if major != cblcMajorVersion {
		return fmt.Errorf("colorglyph: unsupported CBLC version %d.%d", major, binary.BigEndian.Uint16(data[2:4]))
	}

	numSizes := int(binary.BigEndian.Uint32(data[4:8]))
	if 8+numSizes*bitmapSizeRecordLen > len(data) {
		return ErrInvalidCBLCData
	}

	e.strikes = make([]bitmapStrike, numSizes)
	for i := range e.strikes {
		offset := 8 + i*bitmapSizeRecordLen
		parseBitmapSizeRecord(data[offset:offset+bitmapSizeRecordLen], &e.strikes[i])
	}
	return nil
}

// parseBitmapSizeRecord reads the fields of a BitmapSize record that glyph
// lookup needs. The line metrics are not used.
func parseBitmapSizeRecord(data []byte, strike *bitmapStrike) {
	strike.indexSubtableListOffset = binary.BigEndian.Uint32(data[0:4])
	strike.numberOfIndexSubtables = binary.BigEndian.Uint32(data[8:12])
	strike.startGlyphIndex = binary.BigEndian.Uint16(data[40:42])
	strike.endGlyphIndex = binary.BigEndian.Uint16(data[42:44])
	strike.ppemX = data[44]
}

func (e *CBDTExtractor) parseIndexSubtables(strikeIndex int) error {
	strike := &e.strikes[strikeIndex]
	data := e.cblcData
	listOffset := int(strike.indexSubtableListOffset)
	n := int(strike.numberOfIndexSubtables)

	if listOffset+n*8 > len(data) {
		return ErrInvalidCBLCData
	}

	strike.indexSubtables = make([]indexSubtable, n)
	for i := range n {
		rec := data[listOffset+i*8:]
		ist := &strike.indexSubtables[i]
		ist.firstGlyphIndex = binary.BigEndian.Uint16(rec[0:2])
		ist.lastGlyphIndex = binary.BigEndian.Uint16(rec[2:4])
		if ist.lastGlyphIndex < ist.firstGlyphIndex {
			return ErrInvalidCBLCData
		}
		additional := int(binary.BigEndian.Uint32(rec[4:8]))
		if err := e.parseIndexSubtable(listOffset+additional, ist); err != nil {
			return err
		}
	}
	return nil
}

func (e *CBDTExtractor) parseIndexSubtable(offset int, ist *indexSubtable) error {
	data := e.cblcData
	if offset < 0 || offset+8 > len(data) {
		return ErrInvalidCBLCData
	}

	ist.indexFormat = binary.BigEndian.Uint16(data[offset : offset+2])
	ist.imageFormat = binary.BigEndian.Uint16(data[offset+2 : offset+4])
	ist.imageDataOffset = binary.BigEndian.Uint32(data[offset+4 : offset+8])
	body := data[offset+8:]
	numGlyphs := int(ist.lastGlyphIndex-ist.firstGlyphIndex) + 1

	switch ist.indexFormat {
	case indexFormat1:
		if len(body) < (numGlyphs+1)*4 {
			return ErrInvalidCBLCData
		}
		ist.offsets32 = make([]uint32, numGlyphs+1)
		for i := range ist.offsets32 {
			ist.offsets32[i] = binary.BigEndian.Uint32(body[i*4:])
		}

	case indexFormat2:
		if len(body) < 4+bigMetricsLen {
			return ErrInvalidCBLCData
		}
		ist.imageSize = binary.BigEndian.Uint32(body[0:4])
		m := parseGlyphMetrics(body[4:])
		ist.bigMetrics = &m

	case indexFormat3:
		if len(body) < (numGlyphs+1)*2 {
			return ErrInvalidCBLCData
		}
		ist.offsets16 = make([]uint16, numGlyphs+1)
		for i := range ist.offsets16 {
			ist.offsets16[i] = binary.BigEndian.Uint16(body[i*2:])
		}

	case indexFormat4:
		if len(body) < 4 {
			return ErrInvalidCBLCData
		}
		numPairs := int(binary.BigEndian.Uint32(body[0:4]))
		if len(body) < 4+(numPairs+1)*4 {
			return ErrInvalidCBLCData
		}
		ist.glyphPairs = make([]glyphIDOffsetPair, numPairs+1)
		for i := range ist.glyphPairs {
			pos := 4 + i*4
			ist.glyphPairs[i] = glyphIDOffsetPair{
				glyphID:    binary.BigEndian.Uint16(body[pos:]),
				sbitOffset: binary.BigEndian.Uint16(body[pos+2:]),
			}
		}

	case indexFormat5:
		if len(body) < 4+bigMetricsLen+4 {
			return ErrInvalidCBLCData
		}
		ist.imageSize = binary.BigEndian.Uint32(body[0:4])
		m := parseGlyphMetrics(body[4:])
		ist.bigMetrics = &m
		numIDs := int(binary.BigEndian.Uint32(body[12:16]))
		if len(body) < 16+numIDs*2 {
			return ErrInvalidCBLCData
		}
		ist.glyphIDs = make([]uint16, numIDs)
		for i := range ist.glyphIDs {
			ist.glyphIDs[i] = binary.BigEndian.Uint16(body[16+i*2:])
		}

	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedIndexFormat, ist.indexFormat)
	}
	return nil
}

// parseGlyphMetrics reads the leading horizontal fields shared by small
// and big glyph metrics.
func parseGlyphMetrics(data []byte) glyphMetrics {
	return glyphMetrics{
		height:   data[0],
		width:    data[1],
		bearingX: int8(data[2]),
		bearingY: int8(data[3]),
		advance:  data[4],
	}
}

// SelectStrike selects a bitmap strike for the requested PPEM.
// Returns the strike index, or -1 if no suitable strike is found.
func (e *CBDTExtractor) SelectStrike(ppem uint16, strategy StrikeStrategy) int {
	if len(e.strikes) == 0 {
		return -1
	}

	switch strategy {
	case StrikeExact:
		for i := range e.strikes {
			if uint16(e.strikes[i].ppemX) == ppem {
				return i
			}
		}
		return -1

	case StrikeLargest:
		best := 0
		for i := 1; i < len(e.strikes); i++ {
			if e.strikes[i].ppemX > e.strikes[best].ppemX {
				best = i
			}
		}
		return best

	default:
		bestLarger, largest := -1, 0
		for i := range e.strikes {
			s := uint16(e.strikes[i].ppemX)
			if s > uint16(e.strikes[largest].ppemX) {
				largest = i
			}
			if s >= ppem && (bestLarger < 0 || s < uint16(e.strikes[bestLarger].ppemX)) {
				bestLarger = i
			}
		}
		if bestLarger >= 0 {
			return bestLarger
		}
		return largest
	}
}

// HasGlyph reports whether any strike carries a bitmap for glyphID.
func (e *CBDTExtractor) HasGlyph(glyphID uint16) bool {
	for i := range e.strikes {
		if e.findSubtable(glyphID, i) != nil {
			return true
		}
	}
	return false
}

func (e *CBDTExtractor) findSubtable(glyphID uint16, strikeIndex int) *indexSubtable {
	strike := &e.strikes[strikeIndex]
	for i := range strike.indexSubtables {
		ist := &strike.indexSubtables[i]
		if glyphID >= ist.firstGlyphIndex && glyphID <= ist.lastGlyphIndex {
			return ist
		}
	}
	return nil
}

// GetGlyph returns the bitmap for glyphID from the best-fit strike for
// ppem. When that strike lacks the glyph, the other strikes are tried
// from largest to smallest.
func (e *CBDTExtractor) GetGlyph(glyphID uint16, ppem uint16) (*BitmapGlyph, error) {
	best := e.SelectStrike(ppem, StrikeBestFit)
	if best < 0 {
		return nil, ErrNoStrikeAvailable
	}
	g, err := e.GetGlyphAtStrike(glyphID, best)
	if !errors.Is(err, ErrGlyphNotInBitmap) {
		return g, err
	}

	order := make([]int, 0, len(e.strikes))
	for i := range e.strikes {
		if i != best {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(e.strikes[b].ppemX, e.strikes[a].ppemX)
	})
	for _, i := range order {
		if g, err := e.GetGlyphAtStrike(glyphID, i); !errors.Is(err, ErrGlyphNotInBitmap) {
			return g, err
		}
	}
	return nil, ErrGlyphNotInBitmap
}

// GetGlyphAtStrike returns the bitmap for glyphID from one strike.
func (e *CBDTExtractor) GetGlyphAtStrike(glyphID uint16, strikeIndex int) (*BitmapGlyph, error) {
	if strikeIndex < 0 || strikeIndex >= len(e.strikes) {
		return nil, ErrNoStrikeAvailable
	}
	ist := e.findSubtable(glyphID, strikeIndex)
	if ist == nil {
		return nil, ErrGlyphNotInBitmap
	}

	offset, size, shared, err := e.calculateGlyphLocation(glyphID, ist)
	if err != nil {
		return nil, err
	}
	g, err := e.extractImageData(glyphID, offset, size, ist.imageFormat, shared)
	if err != nil {
		return nil, err
	}
	g.PPEM = uint16(e.strikes[strikeIndex].ppemX)
	return g, nil
}

// calculateGlyphLocation resolves the glyph's byte range in CBDT. Formats
// 2 and 5 carry shared metrics in CBLC and return them.
func (e *CBDTExtractor) calculateGlyphLocation(glyphID uint16, ist *indexSubtable) (offset, size uint32, metrics *glyphMetrics, err error) {
	idx := int(glyphID - ist.firstGlyphIndex)
	base := ist.imageDataOffset

	switch ist.indexFormat {
	case indexFormat1:
		start, end := ist.offsets32[idx], ist.offsets32[idx+1]
		if end <= start {
			return 0, 0, nil, ErrGlyphNotInBitmap
		}
		return base + start, end - start, nil, nil

	case indexFormat2:
		return base + uint32(idx)*ist.imageSize, ist.imageSize, ist.bigMetrics, nil

	case indexFormat3:
		start, end := ist.offsets16[idx], ist.offsets16[idx+1]
		if end <= start {
			return 0, 0, nil, ErrGlyphNotInBitmap
		}
		return base + uint32(start), uint32(end - start), nil, nil

	case indexFormat4:
		for i := 0; i+1 < len(ist.glyphPairs); i++ {
			if ist.glyphPairs[i].glyphID == glyphID {
				start, end := ist.glyphPairs[i].sbitOffset, ist.glyphPairs[i+1].sbitOffset
				if end <= start {
					return 0, 0, nil, ErrInvalidCBLCData
				}
				return base + uint32(start), uint32(end - start), nil, nil
			}
		}
		return 0, 0, nil, ErrGlyphNotInBitmap

	case indexFormat5:
		for i, id := range ist.glyphIDs {
			if id == glyphID {
				return base + uint32(i)*ist.imageSize, ist.imageSize, ist.bigMetrics, nil
			}
		}
		return 0, 0, nil, ErrGlyphNotInBitmap
	}
	return 0, 0, nil, ErrUnsupportedIndexFormat
}

func (e *CBDTExtractor) extractImageData(glyphID uint16, offset, size uint32, imageFormat uint16, shared *glyphMetrics) (*BitmapGlyph, error) {
	end := uint64(offset) + uint64(size)
	if end > uint64(len(e.cbdtData)) {
		return nil, ErrInvalidCBDTData
	}
	data := e.cbdtData[offset:end]

	var m glyphMetrics
	switch imageFormat {
	case imageFormat17:
		if len(data) < smallMetricsLen+4 {
			return nil, ErrInvalidCBDTData
		}
		m = parseGlyphMetrics(data)
		data = data[smallMetricsLen:]
	case imageFormat18:
		if len(data) < bigMetricsLen+4 {
			return nil, ErrInvalidCBDTData
		}
		m = parseGlyphMetrics(data)
		data = data[bigMetricsLen:]
	case imageFormat19:
		if shared == nil || len(data) < 4 {
			return nil, ErrInvalidCBDTData
		}
		m = *shared
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedImageFormat, imageFormat)
	}

	n := uint64(binary.BigEndian.Uint32(data[0:4]))
	if 4+n > uint64(len(data)) {
		return nil, ErrInvalidCBDTData
	}
	return &BitmapGlyph{
		GlyphID: glyphID,
		Data:    data[4 : 4+n],
		Width:   int(m.width),
		Height:  int(m.height),
		OriginX: float32(m.bearingX),
		OriginY: float32(m.bearingY),
		Advance: int(m.advance),
	}, nil
}

// AvailablePPEMs lists the strike sizes in table order.
func (e *CBDTExtractor) AvailablePPEMs() []uint16 {
	ppems := make([]uint16, len(e.strikes))
	for i := range e.strikes {
		ppems[i] = uint16(e.strikes[i].ppemX)
	}
	return ppems
}
