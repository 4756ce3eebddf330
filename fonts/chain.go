package fonts

import (
	"slices"

	"github.com/gogpu/ogimage/internal/colorglyph"
)

// Chain is an ordered font fallback list. Each codepoint is drawn with the
// first font in the chain that covers it.
type Chain struct {
	fonts []*Resource
}

// NewChain returns a chain over fonts in the given order. Nil entries and
// repeats are dropped; the first occurrence keeps its place.
func NewChain(fonts ...*Resource) Chain {
	var c Chain
	for _, r := range fonts {
		if r != nil && !slices.Contains(c.fonts, r) {
			c.fonts = append(c.fonts, r)
		}
	}
	return c
}

// Fonts returns the chain in fallback order.
func (c Chain) Fonts() []*Resource { return slices.Clone(c.fonts) }

// Primary returns the first font of the chain, or nil for an empty chain.
// Line metrics come from it.
func (c Chain) Primary() *Resource {
	if len(c.fonts) == 0 {
		return nil
	}
	return c.fonts[0]
}

// HasGlyph reports whether any font in the chain covers ch.
func (c Chain) HasGlyph(ch rune) bool {
	return c.For(ch) != nil
}

// For returns the font used to draw ch, or nil when nothing covers it.
// Emoji-presentation codepoints prefer a color font anywhere in the chain.
func (c Chain) For(ch rune) *Resource {
	if colorglyph.IsEmojiPresentation(ch) {
		if r := c.colorFor(ch); r != nil {
			return r
		}
	}
	for _, r := range c.fonts {
		if r.Covers(ch) {
			return r
		}
	}
	return nil
}

// colorFor returns the first color font covering ch.
func (c Chain) colorFor(ch rune) *Resource {
	for _, r := range c.fonts {
		if r.HasColor() && r.Covers(ch) {
			return r
		}
	}
	return nil
}
