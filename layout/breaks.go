package layout

import (
	"unicode"

	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/node"
)

// BreakClass is a simplified UAX #14 line breaking class.
type BreakClass uint8

const (
	// breakOther is the default class for most characters.
	breakOther BreakClass = iota
	// breakSpace is for space characters (break after).
	breakSpace
	// breakZero is for zero-width space (break opportunity).
	breakZero
	// breakOpen is for opening punctuation (no break after).
	breakOpen
	// breakClose is for closing punctuation (no break before).
	breakClose
	// breakHyphen is for hyphens (break after).
	breakHyphen
	// breakIdeographic is for CJK ideographs (break before/after).
	breakIdeographic
)

// classifyRune returns the break class of a rune.
func classifyRune(r rune) BreakClass {
	if class, ok := classifySpecificRune(r); ok {
		return class
	}
	if isCJKRune(r) {
		return breakIdeographic
	}
	return breakOther
}

func classifySpecificRune(r rune) (BreakClass, bool) {
	switch r {
	case ' ', '\t', '　':
		return breakSpace, true
	case '​':
		return breakZero, true
	case '(', '[', '{', '“', '‘', '«':
		return breakOpen, true
	case ')', ']', '}', '”', '’', '»', '!', '?', ',', '.', ':', ';',
		'、', '。', '，', '．':
		return breakClose, true
	case '-', '‐', '‑', '–', '—':
		return breakHyphen, true
	default:
		return breakOther, false
	}
}

// isCJKRune reports whether r is a CJK character that allows breaking on
// either side.
func isCJKRune(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x20000 && r <= 0x2A6DF) || // CJK Extension B
		(r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xAC00 && r <= 0xD7AF) || // Hangul Syllables
		(r >= 0xFF00 && r <= 0xFFEF) // Fullwidth forms
}

// BreakOpportunity says whether a line may or must break before a rune.
type BreakOpportunity uint8

const (
	BreakNo BreakOpportunity = iota
	BreakAllowed
	BreakMandatory
)

// findBreakOpportunities returns, for each rune index i, the break
// opportunity before rune i. Index 0 is always BreakNo. A newline forces a
// break in every mode.
func findBreakOpportunities(runes []rune, mode node.WrapMode) []BreakOpportunity {
	breaks := make([]BreakOpportunity, len(runes))
	if len(runes) == 0 {
		return breaks
	}

	classes := make([]BreakClass, len(runes))
	for i, r := range runes {
		classes[i] = classifyRune(r)
	}
	for i := 1; i < len(runes); i++ {
		breaks[i] = computeBreak(runes, classes, i, mode)
	}
	return breaks
}

func computeBreak(runes []rune, classes []BreakClass, i int, mode node.WrapMode) BreakOpportunity {
	prevRune, currRune := runes[i-1], runes[i]
	prevClass, currClass := classes[i-1], classes[i]

	if prevRune == '\n' {
		return BreakMandatory
	}
	if mode == node.WrapNone {
		return BreakNo
	}

	// Spaces and closing punctuation stay on the line they follow.
	if currRune == '\n' || currClass == breakClose || currClass == breakSpace {
		return BreakNo
	}
	if prevClass == breakOpen {
		return BreakNo
	}
	if prevClass == breakZero {
		return BreakAllowed
	}

	switch mode {
	case node.WrapChar:
		return BreakAllowed
	default:
		// WrapWordChar falls back to character breaks while wrapping.
		return computeWordBreak(prevRune, currRune, prevClass, currClass)
	}
}

func computeWordBreak(prevRune, currRune rune, prevClass, currClass BreakClass) BreakOpportunity {
	if prevClass == breakSpace {
		return BreakAllowed
	}
	if prevClass == breakHyphen && currClass != breakHyphen && unicode.IsLetter(currRune) {
		return BreakAllowed
	}
	if currClass == breakIdeographic || prevClass == breakIdeographic {
		return BreakAllowed
	}
	if isBreakBetweenCategories(prevRune, currRune) {
		return BreakAllowed
	}
	return BreakNo
}

// isBreakBetweenCategories allows breaks on both sides of a slash or
// backslash between words, as in "input/output".
func isBreakBetweenCategories(prev, curr rune) bool {
	separator := func(r rune) bool { return r == '/' || r == '\\' }
	word := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
	return (word(prev) && separator(curr)) || (separator(prev) && word(curr))
}

// lineBreaker splits shaped glyphs into lines.
type lineBreaker struct {
	s      fonts.Shaped
	breaks []BreakOpportunity
	mode   node.WrapMode
	limit  float64
}

// opportunity returns the break opportunity before glyph i. Glyphs of one
// cluster never split.
func (b *lineBreaker) opportunity(i int) BreakOpportunity {
	gl := b.s.Glyphs
	if i <= 0 || i >= len(gl) || gl[i].Cluster == gl[i-1].Cluster {
		return BreakNo
	}
	return b.breaks[gl[i].Cluster]
}

func (b *lineBreaker) isSpace(g fonts.Glyph) bool {
	return g.IsControl() || unicode.IsSpace(b.s.Text[g.Cluster])
}

// findLineEnd returns the end glyph index of the line starting at start.
// Trailing spaces hang past the limit.
func (b *lineBreaker) findLineEnd(start int) int {
	gl := b.s.Glyphs
	width := 0.0
	lastBreakPoint := -1

	for i := start; i < len(gl); i++ {
		if i > start {
			switch b.opportunity(i) {
			case BreakMandatory:
				return i
			case BreakAllowed:
				lastBreakPoint = i
			}
		}

		width += gl[i].Advance
		if width <= b.limit+epsilon || i == start || b.isSpace(gl[i]) {
			continue
		}
		if end, ok := b.calculateLineBreakPosition(i, start, lastBreakPoint); ok {
			return end
		}
	}
	return len(gl)
}

// calculateLineBreakPosition picks where an overfull line ends. It reports
// false when the mode lets the line overflow until the next opportunity.
func (b *lineBreaker) calculateLineBreakPosition(pos, lineStart, lastBreakPoint int) (int, bool) {
	if lastBreakPoint > lineStart {
		return lastBreakPoint, true
	}
	switch b.mode {
	case node.WrapWordChar, node.WrapChar:
		return pos, true
	default:
		return 0, false
	}
}

// wrap splits shaped glyphs into lines no wider than limit. Lines break at
// the last opportunity that fits. In the default mode a word wider than
// the line breaks between glyphs; WrapWord lets it overflow and WrapNone
// breaks only at newlines.
func wrap(s fonts.Shaped, limit float64, mode node.WrapMode) [][]fonts.Glyph {
	gl := s.Glyphs
	if len(gl) == 0 {
		return nil
	}
	b := &lineBreaker{
		s:      s,
		breaks: findBreakOpportunities(s.Text, mode),
		mode:   mode,
		limit:  limit,
	}

	var lines [][]fonts.Glyph
	for start := 0; start < len(gl); {
		end := b.findLineEnd(start)
		lines = append(lines, gl[start:end])
		start = end
	}
	return lines
}

// lineWidth sums advances, ignoring trailing spaces and controls.
func lineWidth(s fonts.Shaped, gl []fonts.Glyph) float64 {
	end := len(gl)
	for end > 0 && (gl[end-1].IsControl() || unicode.IsSpace(s.Text[gl[end-1].Cluster])) {
		end--
	}
	var w float64
	for _, g := range gl[:end] {
		w += g.Advance
	}
	return w
}
