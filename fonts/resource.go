package fonts

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/ogimage/internal/colorglyph"
)

// Metrics are the vertical font metrics in font units.
// Descent is positive below the baseline.
type Metrics struct {
	UnitsPerEm float64
	Ascent     float64
	Descent    float64
	LineGap    float64
}

// Scale returns the factor that converts font units to pixels at size.
func (m Metrics) Scale(size float64) float64 {
	if m.UnitsPerEm <= 0 {
		return 0
	}
	return size / m.UnitsPerEm
}

// Resource is a loaded font: its bytes plus everything parsed from them.
// A Resource is immutable once registered and safe for concurrent use.
type Resource struct {
	data    []byte
	name    string
	family  string
	weight  int
	generic Generic
	metrics Metrics

	// face is used only for its concurrency-safe *font.Font; shaping
	// creates a fresh font.Face per call.
	face *font.Face

	// outlines is nil for fonts without glyf/CFF tables.
	outlines *sfnt.Font

	colr *colorglyph.COLRParser
	cbdt *colorglyph.CBDTExtractor
}

// NewResource parses font data (TTF or OTF). The data slice is retained
// and must not be modified afterwards.
func NewResource(data []byte, name string, generic Generic) (*Resource, error) {
	if len(data) == 0 {
		return nil, &LoadError{Name: name, Err: ErrEmptyFontData}
	}

	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	r := &Resource{
		data:    data,
		name:    name,
		generic: generic,
		face:    face,
		weight:  400,
	}

	ld, err := opentype.NewLoader(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	if err := r.readTables(ld); err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	// Bitmap-only fonts have no outlines for sfnt to parse; color glyphs
	// still draw from CBDT.
	if f, err := sfnt.Parse(data); err == nil {
		r.outlines = f
		if fam, err := f.Name(nil, sfnt.NameIDFamily); err == nil {
			r.family = fam
		}
	} else {
		logger().Debug("fonts: no outlines", "name", name, "err", err)
	}
	if r.family == "" {
		r.family = name
	}
	if r.name == "" {
		r.name = r.family
	}
	return r, nil
}

// LoadFile reads and parses a font file.
func LoadFile(path, name string, generic Generic) (*Resource, error) {
	// #nosec G304 -- font path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	return NewResource(data, name, generic)
}

func (r *Resource) readTables(ld *opentype.Loader) error {
	head, err := ld.RawTable(opentype.MustNewTag("head"))
	if err != nil || len(head) < 20 {
		return fmt.Errorf("missing or short head table")
	}
	r.metrics.UnitsPerEm = float64(binary.BigEndian.Uint16(head[18:20]))

	if hhea, err := ld.RawTable(opentype.MustNewTag("hhea")); err == nil && len(hhea) >= 10 {
		r.metrics.Ascent = float64(int16(binary.BigEndian.Uint16(hhea[4:6])))
		r.metrics.Descent = -float64(int16(binary.BigEndian.Uint16(hhea[6:8])))
		r.metrics.LineGap = float64(int16(binary.BigEndian.Uint16(hhea[8:10])))
	} else {
		r.metrics.Ascent = r.metrics.UnitsPerEm * 0.8
		r.metrics.Descent = r.metrics.UnitsPerEm * 0.2
	}

	if os2, err := ld.RawTable(opentype.MustNewTag("OS/2")); err == nil && len(os2) >= 6 {
		if w := int(binary.BigEndian.Uint16(os2[4:6])); w > 0 {
			r.weight = w
		}
	}

	colr, _ := ld.RawTable(opentype.MustNewTag("COLR"))
	cpal, _ := ld.RawTable(opentype.MustNewTag("CPAL"))
	if len(colr) > 0 {
		t, err := colorglyph.NewCOLRParser(colr, cpal)
		if err != nil {
			logger().Warn("fonts: ignoring COLR table", "name", r.name, "err", err)
		} else {
			r.colr = t
		}
	}

	cbdt, _ := ld.RawTable(opentype.MustNewTag("CBDT"))
	cblc, _ := ld.RawTable(opentype.MustNewTag("CBLC"))
	if len(cbdt) > 0 {
		t, err := colorglyph.NewCBDTExtractor(cbdt, cblc)
		if err != nil {
			logger().Warn("fonts: ignoring CBDT table", "name", r.name, "err", err)
		} else {
			logger().Debug("fonts: bitmap strikes", "name", r.name, "ppem", t.AvailablePPEMs())
			r.cbdt = t
		}
	}
	return nil
}

// Name returns the logical name, or the family name when none was given.
func (r *Resource) Name() string { return r.name }

// Family returns the family name from the font's name table.
func (r *Resource) Family() string { return r.family }

// Weight returns the OS/2 weight class (400 when absent).
func (r *Resource) Weight() int { return r.weight }

// Generic returns the generic family the resource was registered for.
func (r *Resource) Generic() Generic { return r.generic }

// Metrics returns the vertical metrics in font units.
func (r *Resource) Metrics() Metrics { return r.metrics }

// Font returns the parsed go-text font.
func (r *Resource) Font() *font.Font { return r.face.Font }

// Data returns the raw font bytes.
func (r *Resource) Data() []byte { return r.data }

// GlyphIndex returns the nominal glyph for ch.
func (r *Resource) GlyphIndex(ch rune) (uint16, bool) {
	gid, ok := r.face.NominalGlyph(ch)
	if !ok || gid == 0 {
		return 0, false
	}
	return uint16(gid), true
}

// Covers reports whether the font maps ch to a glyph.
func (r *Resource) Covers(ch rune) bool {
	_, ok := r.GlyphIndex(ch)
	return ok
}

// HasColor reports whether the font carries COLR or CBDT color glyphs.
func (r *Resource) HasColor() bool { return r.colr != nil || r.cbdt != nil }

// ColorLayers returns the COLR layers of gid resolved against the first
// palette, or nil for a plain glyph.
func (r *Resource) ColorLayers(gid uint16) []colorglyph.ColorLayer {
	if r.colr == nil || !r.colr.HasGlyph(gid) {
		return nil
	}
	g, err := r.colr.GetGlyph(gid, 0)
	if err != nil {
		return nil
	}
	return g.Layers
}

// Bitmap returns the CBDT bitmap of gid best suited to size pixels.
func (r *Resource) Bitmap(gid uint16, size float64) *colorglyph.BitmapGlyph {
	if r.cbdt == nil || !r.cbdt.HasGlyph(gid) {
		return nil
	}
	bm, err := r.cbdt.GetGlyph(gid, uint16(min(max(math.Round(size), 1), math.MaxUint16)))
	if err != nil {
		return nil
	}
	return bm
}

// Outline returns the outline segments of gid scaled to size pixels per
// em, with the origin on the baseline and y growing downward. buf may be
// reused across calls on one goroutine.
func (r *Resource) Outline(buf *sfnt.Buffer, gid uint16, size float64) (sfnt.Segments, error) {
	if r.outlines == nil {
		return nil, ErrNoOutlines
	}
	return r.outlines.LoadGlyph(buf, sfnt.GlyphIndex(gid), fixed.Int26_6(size*64), nil)
}
