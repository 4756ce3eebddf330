package fonts

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/ogimage/internal/colorglyph"
)

// MissingAdvance is the advance of a missing-glyph box as a fraction of
// the font size.
const MissingAdvance = 0.6

// Glyph is one shaped glyph in logical order.
type Glyph struct {
	// Font is the resource the glyph is drawn from. It is nil for missing
	// glyphs and for control characters such as '\n'.
	Font *Resource

	GID uint16

	// Cluster is the index into Shaped.Text of the first rune the glyph
	// was shaped from.
	Cluster int

	// Advance, XOffset and YOffset are in pixels. YOffset grows upward.
	Advance float64
	XOffset float64
	YOffset float64

	// Missing glyphs have no font covering their rune and draw as a box.
	Missing bool
}

// IsControl reports whether g stands for a control character that takes no
// space and draws nothing.
func (g Glyph) IsControl() bool { return g.Font == nil && !g.Missing }

// Shaped is the result of shaping a string.
type Shaped struct {
	// Text is the normalized text the glyph clusters index into.
	Text   []rune
	Glyphs []Glyph
	Size   float64
}

// Width returns the sum of the glyph advances.
func (s Shaped) Width() float64 {
	var w float64
	for _, g := range s.Glyphs {
		w += g.Advance
	}
	return w
}

// Shaper shapes text against a font chain with HarfBuzz. It is safe for
// concurrent use: HarfbuzzShaper instances are pooled and every call
// creates its own font.Face, since neither is safe to share.
type Shaper struct {
	pool sync.Pool
}

// NewShaper returns a Shaper backed by go-text/typesetting.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

var defaultShaper = NewShaper()

// Shape shapes text with the package's default Shaper.
func Shape(chain Chain, text string, size float64) Shaped {
	return defaultShaper.Shape(chain, text, size)
}

const (
	kindFont = iota
	kindMissing
	kindControl
)

// Shape converts text into positioned glyphs at size pixels.
//
// Text is NFC-normalized first. It is split into runs by the font the chain
// picks for each codepoint and every run is shaped with HarfBuzz. A whole
// emoji sequence (ZWJ family, flag, keycap, skin tone) goes to the color
// font covering its first codepoint so the font can ligate it. Other
// joiners and variation selectors stay with the font of the character they
// modify.
func (s *Shaper) Shape(chain Chain, text string, size float64) Shaped {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	runes := []rune(norm.NFC.String(text))
	out := Shaped{Text: runes, Size: size}
	if len(runes) == 0 {
		return out
	}

	kinds, res := assignFonts(chain, runes)

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	defer s.pool.Put(hb)
	faces := make(map[*Resource]*font.Face)

	for start := 0; start < len(runes); {
		end := start + 1
		for end < len(runes) && kinds[end] == kinds[start] && res[end] == res[start] {
			end++
		}

		switch kinds[start] {
		case kindControl:
			for i := start; i < end; i++ {
				out.Glyphs = append(out.Glyphs, Glyph{Cluster: i})
			}
		case kindMissing:
			for i := start; i < end; i++ {
				out.Glyphs = append(out.Glyphs, Glyph{Cluster: i, Advance: size * MissingAdvance, Missing: true})
			}
		default:
			r := res[start]
			face, ok := faces[r]
			if !ok {
				face = font.NewFace(r.Font())
				faces[r] = face
			}
			shaped := hb.Shape(shaping.Input{
				Text:      runes,
				RunStart:  start,
				RunEnd:    end,
				Direction: di.DirectionLTR,
				Face:      face,
				Size:      floatToFixed(size),
				Script:    detectScript(runes[start:end]),
				Language:  language.NewLanguage("en"),
			})
			out.Glyphs = convertGlyphs(out.Glyphs, shaped.Glyphs, r)
		}
		start = end
	}
	return out
}

// assignFonts picks the font of every rune. Runs of equal kind and font
// are shaped together.
func assignFonts(chain Chain, runes []rune) ([]uint8, []*Resource) {
	kinds := make([]uint8, len(runes))
	res := make([]*Resource, len(runes))
	assigned := make([]bool, len(runes))

	for _, seq := range colorglyph.Parse(runes) {
		if !seq.Colored() {
			continue
		}
		r := chain.colorFor(seq.BaseCodepoint)
		if r == nil {
			continue
		}
		for i := seq.Start; i < seq.End(); i++ {
			res[i], assigned[i] = r, true
		}
	}

	for i, r := range runes {
		switch {
		case assigned[i]:
		case unicode.IsControl(r):
			kinds[i] = kindControl
		case i > 0 && colorglyph.IsJoiner(r):
			kinds[i], res[i] = kinds[i-1], res[i-1]
			if kinds[i] == kindMissing {
				kinds[i] = kindControl
			}
		case i > 0 && res[i-1] != nil && unicode.IsSpace(r) && res[i-1].Covers(r):
			res[i] = res[i-1]
		default:
			res[i] = chain.For(r)
			if res[i] == nil {
				kinds[i] = kindMissing
			}
		}
	}
	return kinds, res
}

// convertGlyphs appends HarfBuzz output for one run drawn from r.
func convertGlyphs(dst []Glyph, glyphs []shaping.Glyph, r *Resource) []Glyph {
	for _, g := range glyphs {
		dst = append(dst, Glyph{
			Font:    r,
			GID:     uint16(g.GlyphID), //nolint:gosec // glyph ids fit in 16 bits in sfnt fonts
			Cluster: g.TextIndex(),
			Advance: fixedToFloat(g.Advance),
			XOffset: fixedToFloat(g.XOffset),
			YOffset: fixedToFloat(g.YOffset),
		})
	}
	return dst
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
